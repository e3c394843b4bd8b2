// Package events implements the subscription engine: an append-only
// log of lifecycle events plus a set of subscriptions that filter and
// deliver them, either pulled via Get-Notifications or pushed to a
// registered Target.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/printcore/ippd/internal/model"
)

// Event is one entry in the bus's log.
type Event struct {
	Seq       uint64
	Kind      model.EventKind
	PrinterID int
	JobID     model.JobID
	At        time.Time
}

// Target is a push delivery collaborator; subscriptions with a
// non-nil Target are delivered asynchronously from the bus's worker
// pool instead of waiting to be pulled.
type Target interface {
	Deliver(ev Event) error
}

// Bus is the shared, system-wide event log plus subscription set.
// Grounded stylistically on spool's msgC-plus-ticker worker, adapted
// here to drive push delivery and lease expiry instead of job pruning.
type Bus struct {
	mu   sync.Mutex
	log  []Event
	seq  uint64
	subs map[int]*Subscription
	next int

	deliverC chan Event
	closeC   chan struct{}

	workers int
}

// NewBus starts a bus with a bounded push-delivery worker pool of the
// given size.
func NewBus(workers int) *Bus {
	if workers <= 0 {
		workers = 4
	}
	b := &Bus{
		subs:     make(map[int]*Subscription),
		deliverC: make(chan Event, 256),
		closeC:   make(chan struct{}),
		workers:  workers,
	}
	for i := 0; i < workers; i++ {
		go b.deliverWorker()
	}
	go b.expiryWorker()
	return b
}

// Close stops the bus's background workers.
func (b *Bus) Close() {
	close(b.closeC)
}

// Append records ev, assigning it the next monotonic sequence number,
// and fans it out to any push subscriptions whose mask matches.
func (b *Bus) Append(kind model.EventKind, printerID int, jobID model.JobID) Event {
	b.mu.Lock()
	b.seq++
	ev := Event{Seq: b.seq, Kind: kind, PrinterID: printerID, JobID: jobID, At: time.Now()}
	b.log = append(b.log, ev)
	targets := make([]*Subscription, 0)
	for _, s := range b.subs {
		if s.Matches(ev) && s.Target != nil {
			targets = append(targets, s)
		}
	}
	b.mu.Unlock()

	// One queue entry per event: deliverWorker itself fans it out to
	// every matching push subscription.
	if len(targets) > 0 {
		select {
		case b.deliverC <- ev:
		default:
			slog.Warn("event delivery queue full, dropping push", "seq", ev.Seq, "subs", len(targets))
		}
	}
	return ev
}

// Notifications serves the pull model (Get-Notifications): events
// with Seq > since, up to limit, oldest first.
func (b *Bus) Notifications(since uint64, limit int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, 0, limit)
	for _, ev := range b.log {
		if ev.Seq <= since {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func (b *Bus) deliverWorker() {
	for {
		select {
		case <-b.closeC:
			return
		case ev := <-b.deliverC:
			b.mu.Lock()
			targets := make([]*Subscription, 0)
			for _, s := range b.subs {
				if s.Matches(ev) && s.Target != nil {
					targets = append(targets, s)
				}
			}
			b.mu.Unlock()
			for _, s := range targets {
				if err := s.Target.Deliver(ev); err != nil {
					slog.Error("push delivery failed", "sub", s.ID, "seq", ev.Seq, "error", err)
				}
			}
		}
	}
}

// expiryWorker reaps subscriptions past their lease, modeled on
// spool.worker()'s ticker-select idiom.
func (b *Bus) expiryWorker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-b.closeC:
			return
		case <-ticker.C:
			b.mu.Lock()
			now := time.Now()
			for id, s := range b.subs {
				if !s.LeaseUntil.IsZero() && now.After(s.LeaseUntil) {
					delete(b.subs, id)
					slog.Info("subscription lease expired", "sub", id)
				}
			}
			b.mu.Unlock()
		}
	}
}
