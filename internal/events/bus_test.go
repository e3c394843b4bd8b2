package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/printcore/ippd/internal/model"
)

type recordingTarget struct {
	delivered chan Event
}

func (r *recordingTarget) Deliver(ev Event) error {
	r.delivered <- ev
	return nil
}

func TestBus_PullNotifications(t *testing.T) {
	b := NewBus(1)
	defer b.Close()

	b.Append(model.EventJobCreated, 1, model.JobID(1))
	b.Append(model.EventJobStateChanged, 1, model.JobID(1))
	b.Append(model.EventJobCompleted, 1, model.JobID(1))

	got := b.Notifications(0, 10)
	require.Len(t, got, 3)
	require.Equal(t, uint64(1), got[0].Seq)

	got = b.Notifications(1, 10)
	require.Len(t, got, 2)
}

func TestBus_PushDelivery(t *testing.T) {
	b := NewBus(1)
	defer b.Close()

	target := &recordingTarget{delivered: make(chan Event, 1)}
	b.Subscribe(1, model.NewEventMask(model.EventJobCompleted), target, 0)

	b.Append(model.EventJobCreated, 1, model.JobID(1)) // should not match mask
	b.Append(model.EventJobCompleted, 1, model.JobID(1))

	select {
	case ev := <-target.delivered:
		require.Equal(t, model.EventJobCompleted, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected push delivery of job-completed event")
	}
}

func TestBus_SubscriptionWithLeaseIsRegistered(t *testing.T) {
	b := NewBus(1)
	defer b.Close()

	s := b.Subscribe(0, model.NewEventMask(model.EventJobCreated), nil, time.Millisecond)
	_, err := b.Get(s.ID)
	require.NoError(t, err)
}

func TestBus_CancelSubscription(t *testing.T) {
	b := NewBus(1)
	defer b.Close()

	s := b.Subscribe(0, model.NewEventMask(model.EventJobCreated), nil, 0)
	require.NoError(t, b.Cancel(s.ID))
	_, err := b.Get(s.ID)
	require.ErrorIs(t, err, ErrSubscriptionNotFound)
}
