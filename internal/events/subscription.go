package events

import (
	"errors"
	"time"

	"github.com/printcore/ippd/internal/model"
)

// ErrSubscriptionNotFound is returned when canceling or renewing an
// unknown subscription id.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// Subscription is one registered interest in a subset of the event
// log, covering both pull (no Target) and push (Target set) delivery.
type Subscription struct {
	ID         int
	PrinterID  int // 0 means system-wide
	Mask       model.EventMask
	Target     Target
	LeaseUntil time.Time
	LastSeen   uint64
}

// Matches reports whether ev falls within this subscription's scope
// and mask.
func (s *Subscription) Matches(ev Event) bool {
	if s.PrinterID != 0 && s.PrinterID != ev.PrinterID {
		return false
	}
	return s.Mask.Matches(ev.Kind)
}

// Subscribe registers a new subscription and returns it. lease <= 0
// means no expiry.
func (b *Bus) Subscribe(printerID int, mask model.EventMask, target Target, lease time.Duration) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	s := &Subscription{ID: b.next, PrinterID: printerID, Mask: mask, Target: target}
	if lease > 0 {
		s.LeaseUntil = time.Now().Add(lease)
	}
	b.subs[s.ID] = s
	return s
}

// Renew extends a subscription's lease, implementing Renew-Subscription.
func (b *Bus) Renew(id int, lease time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.subs[id]
	if !ok {
		return ErrSubscriptionNotFound
	}
	if lease > 0 {
		s.LeaseUntil = time.Now().Add(lease)
	} else {
		s.LeaseUntil = time.Time{}
	}
	return nil
}

// Cancel removes a subscription immediately, implementing
// Cancel-Subscription.
func (b *Bus) Cancel(id int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[id]; !ok {
		return ErrSubscriptionNotFound
	}
	delete(b.subs, id)
	return nil
}

// Get returns a subscription by id.
func (b *Bus) Get(id int) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.subs[id]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return s, nil
}

// List returns every active subscription, optionally filtered to one
// printer (0 = all).
func (b *Bus) List(printerID int) []*Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if printerID != 0 && s.PrinterID != printerID {
			continue
		}
		out = append(out, s)
	}
	return out
}
