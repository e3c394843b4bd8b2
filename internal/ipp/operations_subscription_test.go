package ipp

import (
	"context"
	"testing"
	"time"

	"github.com/OpenPrinting/goipp"
	"github.com/stretchr/testify/require"

	"github.com/printcore/ippd/internal/events"
	"github.com/printcore/ippd/internal/model"
)

func newTestDispatcherWithBus(t *testing.T) (*Dispatcher, *model.System, *events.Bus) {
	t.Helper()
	sys := model.NewSystem()
	bus := events.NewBus(1)
	t.Cleanup(bus.Close)
	sys.SetEventSink(bus.Append)
	return NewDispatcher("http://localhost", sys, WithBus(bus)), sys, bus
}

func TestHandleCreateSubscriptions_RequiresBus(t *testing.T) {
	sys := model.NewSystem()
	d := NewDispatcher("http://localhost", sys)
	req := goipp.NewRequest(goipp.DefaultVersion, goipp.OpCreatePrinterSubscriptions, 1)
	_, err := d.handleCreateSubscriptions(context.Background(), req, nil, Route{System: sys})
	require.Error(t, err)
}

func TestHandleCreateSubscriptions_ReturnsSubscriptionID(t *testing.T) {
	d, sys, bus := newTestDispatcherWithBus(t)
	p, err := sys.CreatePrinter("lp0", "Generic/Label", "", "", model.NewNullDriver(), "http://localhost")
	require.NoError(t, err)

	req := goipp.NewRequest(goipp.DefaultVersion, goipp.OpCreatePrinterSubscriptions, 1)
	Adder(&req.Subscription)("notify-events", goipp.TagKeyword, goipp.String(model.EventJobCompleted))
	resp, err := d.handleCreateSubscriptions(context.Background(), req, nil, Route{System: sys, Printer: p})
	require.NoError(t, err)

	id, err := ExtractValue[goipp.Integer](resp.Subscription, "notify-subscription-id")
	require.NoError(t, err)
	require.True(t, int(id) > 0)

	sub, err := bus.Get(int(id))
	require.NoError(t, err)
	require.Equal(t, p.PrinterID, sub.PrinterID)
}

func TestHandleGetNotifications_ReturnsNewEvents(t *testing.T) {
	d, sys, bus := newTestDispatcherWithBus(t)
	p, err := sys.CreatePrinter("lp0", "Generic/Label", "", "", model.NewNullDriver(), "http://localhost")
	require.NoError(t, err)

	sub := bus.Subscribe(p.PrinterID, model.NewEventMask(model.EventJobCreated), nil, 0)
	_, err = p.CreateJob("a.pdf", "alice")
	require.NoError(t, err)

	req := goipp.NewRequest(goipp.DefaultVersion, goipp.OpGetNotifications, 1)
	Adder(&req.Operation)("notify-subscription-ids", goipp.TagInteger, goipp.Integer(sub.ID))
	resp, err := d.handleGetNotifications(context.Background(), req, nil, Route{System: sys, Printer: p})
	require.NoError(t, err)

	groups := GroupsOf(resp, goipp.TagEventNotificationGroup)
	require.Len(t, groups, 1)
	kind, ok := AsString(FindAttr(groups[0], "notify-subscribed-event"))
	require.True(t, ok)
	require.Equal(t, string(model.EventJobCreated), kind)
}

func TestHandleCancelSubscription(t *testing.T) {
	d, sys, bus := newTestDispatcherWithBus(t)
	sub := bus.Subscribe(0, model.NewEventMask(model.EventJobCreated), nil, 0)

	req := goipp.NewRequest(goipp.DefaultVersion, goipp.OpCancelSubscription, 1)
	Adder(&req.Operation)("notify-subscription-id", goipp.TagInteger, goipp.Integer(sub.ID))
	_, err := d.handleCancelSubscription(context.Background(), req, nil, Route{System: sys})
	require.NoError(t, err)

	_, err = bus.Get(sub.ID)
	require.ErrorIs(t, err, events.ErrSubscriptionNotFound)
}

func TestHandleRenewSubscription(t *testing.T) {
	d, sys, bus := newTestDispatcherWithBus(t)
	sub := bus.Subscribe(0, model.NewEventMask(model.EventJobCreated), nil, time.Minute)

	req := goipp.NewRequest(goipp.DefaultVersion, goipp.OpRenewSubscription, 1)
	Adder(&req.Operation)("notify-subscription-id", goipp.TagInteger, goipp.Integer(sub.ID))
	Adder(&req.Operation)("notify-lease-duration", goipp.TagInteger, goipp.Integer(3600))
	_, err := d.handleRenewSubscription(context.Background(), req, nil, Route{System: sys})
	require.NoError(t, err)

	got, err := bus.Get(sub.ID)
	require.NoError(t, err)
	require.True(t, time.Until(got.LeaseUntil) > time.Minute)
}
