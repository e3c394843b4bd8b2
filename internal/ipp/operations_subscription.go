package ipp

import (
	"context"
	"time"

	"github.com/OpenPrinting/goipp"

	"github.com/printcore/ippd/internal/model"
)

// defaultLease is used when a Create/Renew-Subscription request omits
// notify-lease-duration, per RFC 3995 §5.3.3's "server MAY choose a
// default" allowance.
const defaultLease = time.Hour

// handleCreateSubscriptions implements both Create-Printer- and
// Create-Job-Subscriptions: a single subscription described by the
// request's Subscription group, scoped to route.Printer (and, when
// present, route.JobID is ignored — subscriptions filter by event kind
// and printer, not by the job that happened to be in scope when they
// were created).
func (d *Dispatcher) handleCreateSubscriptions(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if d.Bus == nil {
		return nil, fault(goipp.StatusErrorInternal, "subscription engine not available")
	}

	kinds, _ := ExtractValues[goipp.String](req.Subscription, "notify-events")
	if len(kinds) == 0 {
		return nil, fault(goipp.StatusErrorBadRequest, "notify-events is required")
	}
	eventKinds := make([]model.EventKind, len(kinds))
	for i, k := range kinds {
		eventKinds[i] = model.EventKind(k)
	}
	mask := model.NewEventMask(eventKinds...)

	lease := defaultLease
	if n, err := ExtractValue[goipp.Integer](req.Subscription, "notify-lease-duration"); err == nil {
		if n == 0 {
			lease = 0 // no expiry
		} else {
			lease = time.Duration(n) * time.Second
		}
	}

	printerID := 0
	if route.Printer != nil {
		printerID = route.Printer.PrinterID
	}

	sub := d.Bus.Subscribe(printerID, mask, nil, lease)

	m := BaseResponse(goipp.StatusOk, req.RequestID)
	a := Adder(&m.Subscription)
	a("notify-subscription-id", goipp.TagInteger, goipp.Integer(sub.ID))
	a("notify-lease-duration", goipp.TagInteger, goipp.Integer(lease/time.Second))
	return m, nil
}

// handleGetNotifications implements Get-Notifications, the pull side
// of the subscription engine: it resolves the requested subscription
// ids, advances each one's watermark, and returns every event newer
// than the lowest watermark seen, capped by notify-limit (unbounded
// when omitted, matching RFC 3995 §6's default).
func (d *Dispatcher) handleGetNotifications(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if d.Bus == nil {
		return nil, fault(goipp.StatusErrorInternal, "subscription engine not available")
	}

	ids, _ := ExtractValues[goipp.Integer](req.Operation, "notify-subscription-ids")
	if len(ids) == 0 {
		return nil, fault(goipp.StatusErrorBadRequest, "notify-subscription-ids is required")
	}
	limit := 0
	if n, err := ExtractValue[goipp.Integer](req.Operation, "notify-limit"); err == nil {
		limit = int(n)
	}

	var since uint64
	first := true
	for _, id := range ids {
		sub, err := d.Bus.Get(int(id))
		if err != nil {
			return nil, fault(goipp.StatusErrorNotFound, err.Error())
		}
		if first || sub.LastSeen < since {
			since = sub.LastSeen
		}
		first = false
	}

	evs := d.Bus.Notifications(since, limit)
	groups := make([]goipp.Attributes, 0, len(evs))
	for _, ev := range evs {
		attrs := goipp.Attributes{}
		a := Adder(&attrs)
		a("notify-sequence-number", goipp.TagInteger, goipp.Integer(ev.Seq))
		a("notify-subscribed-event", goipp.TagKeyword, goipp.String(ev.Kind))
		a("printer-id", goipp.TagInteger, goipp.Integer(ev.PrinterID))
		if ev.JobID != 0 {
			a("notify-job-id", goipp.TagInteger, goipp.Integer(ev.JobID))
		}
		groups = append(groups, attrs)
	}

	m := BaseResponse(goipp.StatusOk, req.RequestID)
	WithGroups(m, goipp.TagEventNotificationGroup, groups)

	for _, id := range ids {
		if sub, err := d.Bus.Get(int(id)); err == nil && len(evs) > 0 {
			sub.LastSeen = evs[len(evs)-1].Seq
		}
	}
	return m, nil
}

// handleCancelSubscription implements Cancel-Subscription.
func (d *Dispatcher) handleCancelSubscription(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if d.Bus == nil {
		return nil, fault(goipp.StatusErrorInternal, "subscription engine not available")
	}
	id, err := ExtractValue[goipp.Integer](req.Operation, "notify-subscription-id")
	if err != nil {
		return nil, fault(goipp.StatusErrorBadRequest, "notify-subscription-id is required")
	}
	if err := d.Bus.Cancel(int(id)); err != nil {
		return nil, fault(goipp.StatusErrorNotFound, err.Error())
	}
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}

// handleRenewSubscription implements Renew-Subscription.
func (d *Dispatcher) handleRenewSubscription(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if d.Bus == nil {
		return nil, fault(goipp.StatusErrorInternal, "subscription engine not available")
	}
	id, err := ExtractValue[goipp.Integer](req.Operation, "notify-subscription-id")
	if err != nil {
		return nil, fault(goipp.StatusErrorBadRequest, "notify-subscription-id is required")
	}
	lease := defaultLease
	if n, err := ExtractValue[goipp.Integer](req.Operation, "notify-lease-duration"); err == nil {
		if n == 0 {
			lease = 0
		} else {
			lease = time.Duration(n) * time.Second
		}
	}
	if err := d.Bus.Renew(int(id), lease); err != nil {
		return nil, fault(goipp.StatusErrorNotFound, err.Error())
	}
	m := BaseResponse(goipp.StatusOk, req.RequestID)
	Adder(&m.Subscription)("notify-lease-duration", goipp.TagInteger, goipp.Integer(lease/time.Second))
	return m, nil
}
