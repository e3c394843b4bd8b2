package model

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrPrinterNotFound mirrors the teacher's lookup-miss sentinel,
// generalized from a single-printer server to a System registry.
var ErrPrinterNotFound = errors.New("printer not found")

// ErrPrinterExists is returned by CreatePrinter when the name is
// already registered.
var ErrPrinterExists = errors.New("printer already exists")

// System is the top-level registry owning every printer a process
// serves (spec.md §3 System). It is the outermost lock in the
// system → printer → job ordering spec.md §5 requires.
type System struct {
	mu sync.RWMutex

	printers        map[int]*Printer
	byName          map[string]int
	nextPrinterID   int
	defaultPrinter  int
	startTime       time.Time
	shutdownAt      time.Time // zero until Shutdown-All-Printers is requested

	onEvent func(kind EventKind, printerID int, jobID JobID)
}

// NewSystem constructs an empty registry.
func NewSystem() *System {
	return &System{
		printers:      make(map[int]*Printer),
		byName:        make(map[string]int),
		nextPrinterID: 1,
		startTime:     time.Now(),
	}
}

// SetEventSink installs the callback invoked on every printer/job
// lifecycle transition; wired after construction because the events
// bus (internal/events) depends on the model package, not vice versa.
func (s *System) SetEventSink(fn func(kind EventKind, printerID int, jobID JobID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvent = fn
}

// CreatePrinter registers a new printer bound to drv, per spec.md
// §4.1 Create-Printer. baseURL is the system's externally-visible
// root, used to build printer-uri-supported and job-uri values.
func (s *System) CreatePrinter(name, makeModel, info, deviceURI string, drv Driver, baseURL string) (*Printer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[name]; exists {
		return nil, ErrPrinterExists
	}
	id := s.nextPrinterID
	s.nextPrinterID++

	p, err := NewPrinter(id, name, makeModel, info, deviceURI, drv, baseURL, s.onEvent)
	if err != nil {
		return nil, err
	}
	s.printers[id] = p
	s.byName[name] = id
	if s.defaultPrinter == 0 {
		s.defaultPrinter = id
	}
	if s.onEvent != nil {
		s.onEvent(EventPrinterCreated, id, 0)
	}
	return p, nil
}

// DeletePrinter marks a printer deleted and cancels its outstanding
// jobs, per spec.md §4.4 Delete-Printer. Its name is removed at once, so
// FindPrinter no longer resolves it; the printer stays in the id table
// (Printer and Printers still return it) and is never removed from it.
func (s *System) DeletePrinter(ctx context.Context, id int) error {
	s.mu.Lock()
	p, ok := s.printers[id]
	if !ok {
		s.mu.Unlock()
		return ErrPrinterNotFound
	}
	delete(s.byName, p.Name)
	p.mu.Lock()
	p.IsDeleted = true
	p.mu.Unlock()
	if s.defaultPrinter == id {
		s.defaultPrinter = s.firstRemainingLocked()
	}
	s.mu.Unlock()

	p.CancelAllJobs(ctx, "")
	return nil
}

func (s *System) firstRemainingLocked() int {
	ids := make([]int, 0, len(s.printers))
	for id, p := range s.printers {
		if !p.IsDeleted {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0
	}
	sort.Ints(ids)
	return ids[0]
}

// Printer looks up a printer by id.
func (s *System) Printer(id int) (*Printer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.printers[id]
	if !ok {
		return nil, ErrPrinterNotFound
	}
	return p, nil
}

// FindPrinter looks up a printer by its registered name, the
// resolution a target-URI path segment maps onto (spec.md §4.1
// routing).
func (s *System) FindPrinter(name string) (*Printer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	if !ok {
		return nil, ErrPrinterNotFound
	}
	return s.printers[id], nil
}

// DefaultPrinter returns the system's current default, or an error if
// none is registered.
func (s *System) DefaultPrinter() (*Printer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.defaultPrinter == 0 {
		return nil, ErrPrinterNotFound
	}
	return s.printers[s.defaultPrinter], nil
}

// SetDefault changes the default printer by id.
func (s *System) SetDefault(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.printers[id]; !ok {
		return ErrPrinterNotFound
	}
	s.defaultPrinter = id
	return nil
}

// Printers returns every registered printer, ordered by id, matching
// the listing order Get-Printers/CUPS-Get-Printers expose.
func (s *System) Printers() []*Printer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int, 0, len(s.printers))
	for id := range s.printers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*Printer, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.printers[id])
	}
	return out
}

// UpTime returns seconds since the system was constructed
// (system-up-time / printer-up-time fallback).
func (s *System) UpTime() int {
	return int(time.Since(s.startTime).Seconds())
}

// RequestShutdown records the time a shutdown was requested, which
// ShuttingDown then reports. It sets no deadline and does not itself
// stop job submission or drain active jobs.
func (s *System) RequestShutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdownAt = time.Now()
}

// ShuttingDown reports whether a shutdown has been requested.
func (s *System) ShuttingDown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.shutdownAt.IsZero()
}

// ScheduleAll runs one scheduling pass over every non-stopped printer;
// the server's main loop calls this on a ticker, generalizing the
// teacher's single spool.worker to the multi-printer System (spec.md
// §5 Concurrency model: one goroutine drives scheduling, each printer
// a unit of work within it).
func (s *System) ScheduleAll(ctx context.Context) {
	for _, p := range s.Printers() {
		if p.IsDeleted {
			continue
		}
		p.Schedule(ctx)
	}
}

// PruneAll runs retention pruning across every printer.
func (s *System) PruneAll(retention time.Duration) {
	for _, p := range s.Printers() {
		p.Prune(retention, func(JobID) {})
	}
}

// JobByURI resolves a printer name and job id, the two parts of a
// job-uri path, back to their printer and job, mirroring the teacher's ipp_utils parseJobURI helper generalized
// across printers.
func (s *System) JobByURI(printerName string, jobID JobID) (*Printer, *Job, error) {
	p, err := s.FindPrinter(printerName)
	if err != nil {
		return nil, nil, err
	}
	j, err := p.Job(jobID)
	if err != nil {
		return nil, nil, fmt.Errorf("printer %q: %w", printerName, err)
	}
	return p, j, nil
}
