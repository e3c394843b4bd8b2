package model

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PrinterState mirrors RFC 2911 §4.4.11 printer-state.
type PrinterState int

const (
	PrinterIdle PrinterState = iota + 3 // 3 is "idle" per RFC 2911
	PrinterProcessing
	PrinterStopped
)

func (s PrinterState) String() string {
	switch s {
	case PrinterIdle:
		return "idle"
	case PrinterProcessing:
		return "processing"
	case PrinterStopped:
		return "stopped"
	default:
		return fmt.Sprintf("PrinterState(%d)", int(s))
	}
}

// Driver is the external collaborator a Printer delegates physical
// I/O to. Generalizes the teacher's narrower
// SetOptions/PrintImage/DPI/Width interface into the full
// status/identify/test-page/raster/file-process callback record named
// in spec.md §4.4 and §9 ("polymorphism over drivers ... a record of
// function values").
type Driver interface {
	// Status reports the driver's own view of device health, used to
	// populate printer-state-reasons beyond what the job queue alone
	// implies.
	Status(ctx context.Context) (PrinterStateReason, error)
	// Identify makes the physical device identify itself (beep, flash,
	// display message) for the Identify-Printer operation.
	Identify(ctx context.Context, message string) error
	// TestPage prints the driver's built-in self-test pattern.
	TestPage(ctx context.Context) error
	// Raster prints a single already-decoded image, full bleed.
	Raster(ctx context.Context, img image.Image) error
	// ProcessFile prints opaque job bytes of the given format,
	// handling conversion/rasterization internally.
	ProcessFile(ctx context.Context, format string, data []byte) error
	// DPI returns the native print resolution.
	DPI() float64
	// Width returns the printable width in pixels.
	Width() int
	// MediaSupported lists the driver's known media keywords.
	MediaSupported() []string
	// MediaDefault is the driver's preferred media keyword.
	MediaDefault() string
}

// Printer is a single imaging device, owning its job queue (spec.md
// §3 ownership rules).
type Printer struct {
	mu sync.RWMutex

	PrinterID    int
	Name         string
	MakeModel    string
	Info         string
	DeviceURI    string
	Drv          Driver
	state        PrinterState
	StateReasons map[PrinterStateReason]struct{}

	DefaultMedia string

	MaxActiveJobs    int
	MaxPreservedJobs int
	HoldNewJobs      bool
	IsStopped        bool
	IsDeleted        bool

	allJobs       []JobID
	activeJobs    map[JobID]struct{}
	completedJobs map[JobID]struct{}
	jobs          map[JobID]*Job
	nextJobID     JobID

	processingJob JobID // 0 when idle

	startTime time.Time

	baseURL string

	onEvent func(kind EventKind, printerID int, jobID JobID)
}

// NewPrinter constructs an idle printer bound to drv.
func NewPrinter(id int, name, makeModel, info, deviceURI string, drv Driver, baseURL string, onEvent func(EventKind, int, JobID)) (*Printer, error) {
	if drv == nil {
		return nil, errors.New("driver cannot be nil")
	}
	if name == "" {
		return nil, errors.New("printer name cannot be empty")
	}
	p := &Printer{
		PrinterID:        id,
		Name:             name,
		MakeModel:        makeModel,
		Info:             info,
		DeviceURI:        deviceURI,
		Drv:              drv,
		state:            PrinterIdle,
		StateReasons:     map[PrinterStateReason]struct{}{PSRNone: {}},
		DefaultMedia:     drv.MediaDefault(),
		MaxActiveJobs:    1,
		MaxPreservedJobs: 0,
		activeJobs:       make(map[JobID]struct{}),
		completedJobs:    make(map[JobID]struct{}),
		jobs:             make(map[JobID]*Job),
		nextJobID:        1,
		startTime:        time.Now(),
		baseURL:          baseURL,
		onEvent:          onEvent,
	}
	return p, nil
}

// UUID derives a stable UUID from the printer's name, matching the
// teacher's uuid.NewSHA1(uuid.UUID{}, name) pattern.
func (p *Printer) UUID() string {
	return uuid.NewSHA1(uuid.UUID{}, []byte(p.Name)).String()
}

// UpTime returns the number of seconds since the printer object was
// created (RFC 2911 §4.3.14.4 printer-up-time).
func (p *Printer) UpTime() int {
	return int(time.Since(p.startTime).Seconds())
}

// State returns the current printer-state.
func (p *Printer) State() PrinterState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Ready reports printer-is-accepting-jobs.
func (p *Printer) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.IsStopped && !p.IsDeleted
}

// MediaSupported delegates to the driver.
func (p *Printer) MediaSupported() []string { return p.Drv.MediaSupported() }

// CreateJob allocates a new job id and registers the job, generalizing
// the teacher's spool.addJobLocked to live on the printer itself
// (spec.md §3: each printer exclusively owns its jobs).
func (p *Printer) CreateJob(name, username string) (*Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.IsStopped || p.IsDeleted {
		return nil, ErrNotAcceptingJobs
	}
	id := p.nextJobID
	p.nextJobID++

	printFn := func(ctx context.Context, data []byte) error {
		return p.Drv.ProcessFile(ctx, "", data)
	}
	onIdle := func() {
		p.mu.Lock()
		p.processingJob = 0
		if p.state == PrinterProcessing {
			if p.IsStopped {
				p.state = PrinterStopped
			} else {
				p.state = PrinterIdle
			}
		}
		p.mu.Unlock()
	}

	onJobEvent := func(kind EventKind, jobID JobID) {
		if p.onEvent != nil {
			p.onEvent(kind, p.PrinterID, jobID)
		}
	}
	job := NewJob(id, p.PrinterID, p.baseURL, p.Name, fmt.Sprintf("%s/printers/%s", p.baseURL, p.Name), name, username, printFn, onIdle, onJobEvent)
	if p.HoldNewJobs {
		job.State = JobPendingHeld
		job.StateReasons = NewReasonSet(JSRJobHeldForReview)
	}
	p.jobs[id] = job
	p.allJobs = append(p.allJobs, id)
	p.activeJobs[id] = struct{}{}
	if p.onEvent != nil {
		p.onEvent(EventJobCreated, p.PrinterID, id)
	}
	return job, nil
}

// ErrNotAcceptingJobs is returned by CreateJob when the printer is
// stopped or pending deletion.
var ErrNotAcceptingJobs = errors.New("printer is not accepting jobs")

// ErrBusy reports a busy printer. No function in this package returns
// it: Schedule leaves further jobs pending while one is processing.
var ErrBusy = errors.New("printer is busy")

// ErrJobNotFound mirrors the teacher's spool sentinel.
var ErrJobNotFound = errors.New("job not found")

// Job looks up a job by id.
func (p *Printer) Job(id JobID) (*Job, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	j, ok := p.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return j, nil
}

// Jobs returns all jobs owned by the printer, in creation order.
func (p *Printer) Jobs() []*Job {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Job, 0, len(p.allJobs))
	for _, id := range p.allJobs {
		out = append(out, p.jobs[id])
	}
	return out
}

// Schedule attempts to move the next eligible pending job into
// processing. It does nothing while a job is processing or the printer
// is stopped, so at most one job processes at a time; MaxActiveJobs is
// not consulted. Generalizes the teacher's
// single spool.worker loop into a per-printer scheduler (spec.md §4.2
// Scheduling policy).
func (p *Printer) Schedule(ctx context.Context) {
	p.mu.Lock()
	if p.processingJob != 0 || p.IsStopped {
		p.mu.Unlock()
		return
	}
	var next *Job
	for _, id := range p.allJobs {
		j := p.jobs[id]
		if j.ReadyForProcessing() {
			next = j
			break
		}
	}
	if next == nil {
		p.mu.Unlock()
		return
	}
	p.processingJob = next.ID
	p.state = PrinterProcessing
	p.mu.Unlock()

	data := make([]byte, 0)
	for _, d := range next.Documents {
		_ = d // document bytes live in the spool, assembled by the caller
	}
	if err := next.Event(ctx, jobEvtProcess, data); err != nil {
		slog.ErrorContext(ctx, "failed to start job processing", "job_id", next.ID, "error", err)
	}
}

// MoveToCompleted transfers jobID from the active set to the
// completed set once it reaches a terminal state (spec.md §4.2
// Retention).
func (p *Printer) MoveToCompleted(jobID JobID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.activeJobs, jobID)
	p.completedJobs[jobID] = struct{}{}
}

// Prune removes completed jobs past retention, adapted from the
// teacher's spool.pruneLocked, generalized to respect
// MaxPreservedJobs and the retention argument instead of one fixed
// constant. A job's RetainUntil is not consulted.
func (p *Printer) Prune(retention time.Duration, remove func(JobID)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.MaxPreservedJobs > 0 && len(p.completedJobs) <= p.MaxPreservedJobs {
		return
	}
	for id := range p.completedJobs {
		j := p.jobs[id]
		if j == nil {
			continue
		}
		snap := j.Snapshot()
		if !snap.Completed.IsZero() && time.Since(snap.Completed) > retention {
			delete(p.completedJobs, id)
			delete(p.jobs, id)
			if remove != nil {
				remove(id)
			}
		}
	}
}

// Pause transitions idle/processing toward stopped. If processing,
// IsStopped is latched and the state flips once the current document
// completes (spec.md §4.4).
func (p *Printer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.IsStopped = true
	if p.state != PrinterProcessing {
		p.state = PrinterStopped
	}
}

// Resume clears the stopped latch.
func (p *Printer) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.IsStopped = false
	if p.state == PrinterStopped {
		p.state = PrinterIdle
	}
}

// CancelAllJobs cancels every active job owned by the printer
// (spec.md §4.4 CancelAllJobs).
func (p *Printer) CancelAllJobs(ctx context.Context, username string) {
	p.mu.RLock()
	active := make([]*Job, 0, len(p.activeJobs))
	for id := range p.activeJobs {
		j := p.jobs[id]
		snap := j.Snapshot()
		if username == "" || snap.Username == username {
			active = append(active, j)
		}
	}
	p.mu.RUnlock()

	for _, j := range active {
		j.Latch()
		_ = j.Event(ctx, jobEvtCancel, JSRJobCancelledByOperator)
	}
}

// GetJobCount reports the number of jobs currently queued (active) for
// this printer, mirroring queued-job-count.
func (p *Printer) GetJobCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.activeJobs)
}
