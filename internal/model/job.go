package model

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/looplab/fsm"
)

// JobID identifies a job, unique within its owning printer.
type JobID int32

// JobState mirrors RFC 2911 §4.3.7 job-state, numbered per the RFC's
// own enumeration starting at 3.
//
//go:generate stringer -trimprefix Job -type JobState
type JobState int32

const (
	JobPending JobState = iota + 3
	JobPendingHeld
	JobProcessing
	JobProcessingStopped
	JobCancelled
	JobAborted
	JobCompleted
)

func (s JobState) String() string {
	switch s {
	case JobPending:
		return "Pending"
	case JobPendingHeld:
		return "PendingHeld"
	case JobProcessing:
		return "Processing"
	case JobProcessingStopped:
		return "ProcessingStopped"
	case JobCancelled:
		return "Cancelled"
	case JobAborted:
		return "Aborted"
	case JobCompleted:
		return "Completed"
	default:
		return fmt.Sprintf("JobState(%d)", int32(s))
	}
}

// IsTerminal reports whether s is one of the three terminal states.
func (s JobState) IsTerminal() bool {
	return s == JobCancelled || s == JobAborted || s == JobCompleted
}

// fsm event names for job state transitions. Exported aliases let
// internal/ipp drive transitions without reaching into unexported
// package state.
const (
	jobEvtHold     = "hold"
	jobEvtRelease  = "release"
	jobEvtProcess  = "process"
	jobEvtStop     = "stop"
	jobEvtResume   = "resume"
	jobEvtComplete = "complete"
	jobEvtAbort    = "abort"
	jobEvtCancel   = "cancel"

	EventHold     = jobEvtHold
	EventRelease  = jobEvtRelease
	EventProcess  = jobEvtProcess
	EventStop     = jobEvtStop
	EventResume   = jobEvtResume
	EventComplete = jobEvtComplete
	EventAbort    = jobEvtAbort
	EventCancel   = jobEvtCancel
)

// Transition DAG (generalizes the teacher's flatter table to the full
// DAG named in SPEC_FULL.md §4.2):
//
//	pending → held          (hold-until future, or explicit Hold-Job)
//	pending → processing    (scheduler picks up)
//	held    → pending       (hold expired or Release-Job)
//	held    → canceled
//	pending → canceled
//	processing → stopped    (paused mid-processing)
//	stopped   → processing  (resume)
//	processing → completed | aborted | canceled
var jobFsmEvts = []fsm.EventDesc{
	{Name: jobEvtHold, Src: []string{JobPending.String()}, Dst: JobPendingHeld.String()},
	{Name: jobEvtRelease, Src: []string{JobPendingHeld.String()}, Dst: JobPending.String()},
	{Name: jobEvtProcess, Src: []string{JobPending.String()}, Dst: JobProcessing.String()},
	{Name: jobEvtStop, Src: []string{JobProcessing.String()}, Dst: JobProcessingStopped.String()},
	{Name: jobEvtResume, Src: []string{JobProcessingStopped.String()}, Dst: JobProcessing.String()},
	{Name: jobEvtComplete, Src: []string{JobProcessing.String()}, Dst: JobCompleted.String()},
	{
		Name: jobEvtCancel,
		Src:  []string{JobPending.String(), JobPendingHeld.String(), JobProcessing.String()},
		Dst:  JobCancelled.String(),
	},
	{
		Name: jobEvtAbort,
		Src:  []string{JobProcessing.String(), JobProcessingStopped.String()},
		Dst:  JobAborted.String(),
	},
}

// Document is one file within a job, numbered from 1. spec.md §3.
type Document struct {
	Number     int
	Format     string
	Filename   string
	State      JobState
	KOctets    int
	Impressions int
	Created    time.Time
	Processing time.Time
	Completed  time.Time
}

// HoldUntil represents the job-hold-until value: either a keyword
// (spec.md §4.2: indefinite, no-hold, day-time keywords) or an
// absolute time.
type HoldUntil struct {
	Keyword string
	At      time.Time
}

// IsNoHold reports whether this hold value immediately releases a
// held job.
func (h HoldUntil) IsNoHold() bool {
	return h.Keyword == "no-hold"
}

// Job is a unit of printable work owned by exactly one printer.
type Job struct {
	mu sync.Mutex

	ID         JobID
	PrinterID  int
	PrinterURI string
	JobURI     string
	Name       string
	Username   string

	State        JobState
	StateReasons ReasonSet

	Created    time.Time
	Processing time.Time
	Completed  time.Time

	Documents []*Document
	lastSent  bool // true once the last-document flag has been seen

	ImpressionsPlanned   int
	ImpressionsCompleted int
	KOctets              int

	Hold HoldUntil

	RetainUntil      time.Time
	MaxPreservedJobs int

	isCanceled bool

	OutputDeviceURI string // infrastructure printer assignment, if any

	sm *fsm.FSM

	// printFn is invoked by the process event with the job's
	// concatenated document bytes; it is supplied by the owning
	// printer so the job package has no direct driver dependency.
	printFn func(ctx context.Context, data []byte) error
	onIdle  func()

	// onEvent, when set, is called from the stop, resume, abort,
	// complete and cancel transitions so the owning printer can forward
	// them to the subscription engine (internal/events.Bus); the hold,
	// release and process transitions do not call it.
	onEvent func(kind EventKind, id JobID)
}

// NewJob creates a pending job owned by printerID, grounded on the
// teacher's createJobFromRequest/createJob pair.
func NewJob(id JobID, printerID int, baseURL, printerName, printerURI, name, username string, printFn func(ctx context.Context, data []byte) error, onIdle func(), onEvent func(kind EventKind, id JobID)) *Job {
	j := &Job{
		ID:           id,
		PrinterID:    printerID,
		PrinterURI:   printerURI,
		JobURI:       path.Join(baseURL, printerName, fmt.Sprintf("%d", id)),
		Name:         name,
		Username:     username,
		State:        JobPending,
		StateReasons: NewReasonSet(JSRJobIncoming, JSRJobDataInsufficient),
		Created:      time.Now(),
		printFn:      printFn,
		onIdle:       onIdle,
		onEvent:      onEvent,
	}
	j.sm = j.makeFSM()
	return j
}

func (j *Job) makeFSM() *fsm.FSM {
	lg := slog.With("job_id", j.ID, "job_name", j.Name, "printer_id", j.PrinterID)
	return fsm.NewFSM(JobPending.String(), jobFsmEvts, fsm.Callbacks{
		jobEvtHold: func(ctx context.Context, e *fsm.Event) {
			lg.InfoContext(ctx, "job held")
			j.State = JobPendingHeld
			if len(e.Args) > 0 {
				j.StateReasons = reasonsFromArgs(e.Args...)
			} else {
				j.StateReasons = NewReasonSet(JSRJobHeldUntilSpecified)
			}
		},
		jobEvtRelease: func(ctx context.Context, e *fsm.Event) {
			lg.InfoContext(ctx, "job released")
			j.State = JobPending
			j.StateReasons = NewReasonSet(JSRNone)
		},
		jobEvtProcess: func(ctx context.Context, e *fsm.Event) {
			lg.InfoContext(ctx, "job processing started")
			j.State = JobProcessing
			j.StateReasons = NewReasonSet(JSRJobPrinting, JSRJobTransforming)

			if len(e.Args) == 0 {
				lg.WarnContext(ctx, "no data provided for job processing")
				if err := e.FSM.Event(ctx, jobEvtAbort, JSRJobDataInsufficient, JSRAbortedBySystem); err != nil {
					lg.ErrorContext(ctx, "failed to abort job after empty data", "error", err)
				}
				return
			}
			data, ok := e.Args[0].([]byte)
			if !ok {
				lg.WarnContext(ctx, "invalid argument type for job processing", "arg_type", fmt.Sprintf("%T", e.Args[0]))
				if err := e.FSM.Event(ctx, jobEvtAbort, JSRJobDataInsufficient, JSRAbortedBySystem); err != nil {
					lg.ErrorContext(ctx, "failed to abort job after bad argument", "error", err)
				}
				return
			}

			j.Processing = time.Now()
			if j.printFn == nil {
				lg.ErrorContext(ctx, "job has no print function bound")
				if err := e.FSM.Event(ctx, jobEvtAbort, JSRAbortedBySystem); err != nil {
					lg.ErrorContext(ctx, "failed to abort job with no print function", "error", err)
				}
				return
			}
			if err := j.printFn(ctx, data); err != nil {
				lg.ErrorContext(ctx, "failed to print job data", "error", err)
				if err := e.FSM.Event(ctx, jobEvtAbort, JSRDocumentFormatError, JSRAbortedBySystem); err != nil {
					lg.ErrorContext(ctx, "failed to abort job after print failure", "error", err)
				}
				if j.onIdle != nil {
					j.onIdle()
				}
				return
			}
			if j.onIdle != nil {
				j.onIdle()
			}
			if err := e.FSM.Event(ctx, jobEvtComplete); err != nil {
				lg.ErrorContext(ctx, "failed to complete job", "error", err)
			}
		},
		jobEvtStop: func(ctx context.Context, e *fsm.Event) {
			lg.InfoContext(ctx, "job processing stopped")
			j.State = JobProcessingStopped
			if len(e.Args) > 0 {
				j.StateReasons = reasonsFromArgs(e.Args...)
			} else {
				j.StateReasons = NewReasonSet(JSRProcessingToStopPoint)
			}
			j.emit(EventJobStateChanged)
		},
		jobEvtResume: func(ctx context.Context, e *fsm.Event) {
			lg.InfoContext(ctx, "job processing resumed")
			j.State = JobProcessing
			j.emit(EventJobStateChanged)
		},
		jobEvtAbort: func(ctx context.Context, e *fsm.Event) {
			lg.InfoContext(ctx, "job aborted")
			j.State = JobAborted
			if len(e.Args) > 0 {
				j.StateReasons = reasonsFromArgs(e.Args...)
			} else {
				j.StateReasons = NewReasonSet(JSRAbortedBySystem)
			}
			j.Completed = time.Now()
			j.emit(EventJobStateChanged)
		},
		jobEvtComplete: func(ctx context.Context, e *fsm.Event) {
			lg.InfoContext(ctx, "job completed")
			j.State = JobCompleted
			j.StateReasons = NewReasonSet(JSRJobCompletedSuccessfully)
			j.Completed = time.Now()
			j.emit(EventJobCompleted)
		},
		jobEvtCancel: func(ctx context.Context, e *fsm.Event) {
			lg.InfoContext(ctx, "job cancelled")
			j.State = JobCancelled
			if len(e.Args) > 0 {
				j.StateReasons = reasonsFromArgs(e.Args...)
			} else {
				j.StateReasons = NewReasonSet(JSRJobCancelledByUser)
			}
			j.Completed = time.Now()
			j.emit(EventJobStateChanged)
		},
	})
}

// emit forwards a lifecycle transition to onEvent, if one was bound.
// Called with the FSM callback's lock already held.
func (j *Job) emit(kind EventKind) {
	if j.onEvent != nil {
		j.onEvent(kind, j.ID)
	}
}

func reasonsFromArgs(args ...interface{}) ReasonSet {
	var rs ReasonSet
	for _, a := range args {
		if r, ok := a.(JobStateReason); ok {
			rs.Add(r)
		}
	}
	return rs
}

// Event forwards an FSM event, serializing access to the job via its
// own mutex (spec.md §5: mutations of a job's attributes require the
// job's write lock).
func (j *Job) Event(ctx context.Context, name string, args ...interface{}) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.sm.Event(ctx, name, args...)
}

// Can reports whether the named event is currently possible.
func (j *Job) Can(name string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.sm.Can(name)
}

// AppendDocument appends a document to the job. lastDocument marks the
// terminal Send-Document call (or is true unconditionally for
// Print-Job). Generalizes the teacher's single-document AddJob to the
// multi-document model of spec.md §4.2.
func (j *Job) AppendDocument(format string, data []byte, lastDocument bool) (*Document, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.lastSent {
		return nil, fmt.Errorf("job %d already received its last document", j.ID)
	}
	doc := &Document{
		Number:  len(j.Documents) + 1,
		Format:  format,
		State:   j.State,
		KOctets: (len(data) + 1023) / 1024,
		Created: time.Now(),
	}
	j.Documents = append(j.Documents, doc)
	j.KOctets += doc.KOctets
	if lastDocument {
		j.lastSent = true
	}
	return doc, nil
}

// ReadyForProcessing reports whether the job has received its last
// document and is still pending.
func (j *Job) ReadyForProcessing() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastSent && j.State == JobPending
}

// IsCompleted reports whether the job has reached any terminal state.
func (j *Job) IsCompleted() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.State.IsTerminal()
}

// IsActive reports whether the job is neither pending-submission nor
// terminal.
func (j *Job) IsActive() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return !j.State.IsTerminal() && j.State != JobPending
}

// Latch marks the job canceled-in-intent, which IsCanceled reports. No
// driver or scheduler reads the latch; the job reaches canceled only
// through the cancel event.
func (j *Job) Latch() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.isCanceled = true
}

// IsCanceled reports the latch set by Latch.
func (j *Job) IsCanceled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.isCanceled
}

// Snapshot returns a copy of the fields needed to render job
// attributes, taken under the job's lock.
type Snapshot struct {
	ID           JobID
	Name         string
	Username     string
	State        JobState
	StateReasons []JobStateReason
	JobURI       string
	PrinterURI   string
	Created      time.Time
	Processing   time.Time
	Completed    time.Time
	NumDocuments int
}

// DocumentsSnapshot returns a shallow copy of the job's document list,
// taken under lock, for rendering Get-Document(s)-Attributes.
func (j *Job) DocumentsSnapshot() []*Document {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*Document, len(j.Documents))
	copy(out, j.Documents)
	return out
}

// Snapshot takes a consistent read of the job's exported fields.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Snapshot{
		ID:           j.ID,
		Name:         j.Name,
		Username:     j.Username,
		State:        j.State,
		StateReasons: j.StateReasons.Slice(),
		JobURI:       j.JobURI,
		PrinterURI:   j.PrinterURI,
		Created:      j.Created,
		Processing:   j.Processing,
		Completed:    j.Completed,
		NumDocuments: len(j.Documents),
	}
}
