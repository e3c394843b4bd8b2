package model

// JobStateReason mirrors RFC 2911 §4.3.8 / RFC 8011 job-state-reasons
// keywords.
type JobStateReason string

const (
	JSRNone                      JobStateReason = "none"
	JSRJobIncoming               JobStateReason = "job-incoming"
	JSRJobDataInsufficient       JobStateReason = "job-data-insufficient"
	JSRDocumentAccessError       JobStateReason = "document-access-error"
	JSRSubmissionInterrupted     JobStateReason = "submission-interrupted"
	JSRJobOutgoing               JobStateReason = "job-outgoing"
	JSRJobHeldForReview          JobStateReason = "job-held-for-review"
	JSRJobHeldUntilSpecified     JobStateReason = "job-hold-until-specified"
	JSRResourcesAreNotReady      JobStateReason = "resources-are-not-ready"
	JSRJobQueued                 JobStateReason = "job-queued"
	JSRJobFetchable              JobStateReason = "job-fetchable"
	JSRJobTransforming           JobStateReason = "job-transforming"
	JSRJobPrinting               JobStateReason = "job-printing"
	JSRJobCancelledByUser        JobStateReason = "job-cancelled-by-user"
	JSRJobCancelledByOperator    JobStateReason = "job-cancelled-by-operator"
	JSRJobCancelledAtDevice      JobStateReason = "job-cancelled-at-device"
	JSRAbortedBySystem           JobStateReason = "aborted-by-system"
	JSRUnsupportedCompression    JobStateReason = "unsupported-compression"
	JSRUnsupportedDocumentFormat JobStateReason = "unsupported-document-format"
	JSRDocumentFormatError       JobStateReason = "document-format-error"
	JSRProcessingToStopPoint     JobStateReason = "processing-to-stop-point"
	JSRServiceOffline            JobStateReason = "service-offline"
	JSRJobCompletedSuccessfully  JobStateReason = "job-completed-successfully"
	JSRJobCompletedWithWarnings  JobStateReason = "job-completed-with-warnings"
	JSRJobCompletedWithErrors    JobStateReason = "job-completed-with-errors"
	JSRJobRestartable            JobStateReason = "job-restartable"
	JSRQueuedInDevice            JobStateReason = "queued-in-device"
	JSRUnableToReadPrintFile     JobStateReason = "unable-to-read-print-file"
	JSROther                     JobStateReason = "other"
)

// ReasonSet is an ordered set of job-state-reasons keywords, kept
// small and duplicate-free; order of insertion is preserved since the
// wire representation is a 1setOf keyword, not a bitmask the client
// needs to parse positionally.
type ReasonSet struct {
	reasons []JobStateReason
}

// NewReasonSet builds a ReasonSet from the given reasons, in order,
// skipping duplicates.
func NewReasonSet(reasons ...JobStateReason) ReasonSet {
	var rs ReasonSet
	for _, r := range reasons {
		rs.Add(r)
	}
	return rs
}

// Add appends r if not already present.
func (rs *ReasonSet) Add(r JobStateReason) {
	for _, have := range rs.reasons {
		if have == r {
			return
		}
	}
	rs.reasons = append(rs.reasons, r)
}

// Has reports whether r is a member.
func (rs ReasonSet) Has(r JobStateReason) bool {
	for _, have := range rs.reasons {
		if have == r {
			return true
		}
	}
	return false
}

// Slice returns the reasons in insertion order.
func (rs ReasonSet) Slice() []JobStateReason {
	out := make([]JobStateReason, len(rs.reasons))
	copy(out, rs.reasons)
	return out
}

// Strings renders the reason set as plain strings, for attribute
// encoding.
func (rs ReasonSet) Strings() []string {
	out := make([]string, len(rs.reasons))
	for i, r := range rs.reasons {
		out[i] = string(r)
	}
	return out
}

// PrinterStateReason mirrors RFC 2911 §4.4.12 printer-state-reasons
// keywords, restricted to the subset this framework can actually
// report (no consumables modeling beyond what spec.md names).
type PrinterStateReason string

const (
	PSRNone               PrinterStateReason = "none"
	PSRPaused             PrinterStateReason = "paused"
	PSRMovingToPaused     PrinterStateReason = "moving-to-paused"
	PSRShutdown           PrinterStateReason = "shutdown"
	PSRConnectingToDevice PrinterStateReason = "connecting-to-device"
	PSROffline            PrinterStateReason = "offline"
	PSROther              PrinterStateReason = "other"
)

// EventKind enumerates the subscribable event types of §4.6.
type EventKind string

const (
	EventPrinterCreated      EventKind = "printer-created"
	EventPrinterStateChanged EventKind = "printer-state-changed"
	EventPrinterStopped      EventKind = "printer-stopped"
	EventPrinterConfigChanged EventKind = "printer-config-changed"
	EventJobCreated          EventKind = "job-created"
	EventJobStateChanged     EventKind = "job-state-changed"
	EventJobCompleted        EventKind = "job-completed"
	EventJobFetchable        EventKind = "job-fetchable"
	EventDocumentCreated     EventKind = "document-created"
	EventDocumentStateChanged EventKind = "document-state-changed"
	EventSystemConfigChanged EventKind = "system-config-changed"
)

// EventMask is a set of EventKind values a subscription is interested
// in.
type EventMask map[EventKind]struct{}

// NewEventMask builds a mask from the given kinds.
func NewEventMask(kinds ...EventKind) EventMask {
	m := make(EventMask, len(kinds))
	for _, k := range kinds {
		m[k] = struct{}{}
	}
	return m
}

// Matches reports whether kind is a member of the mask.
func (m EventMask) Matches(kind EventKind) bool {
	_, ok := m[kind]
	return ok
}
