package syncer

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/mcsync/internal/domain/resource"
)

// Outcome is the final or current state of one entry.
type Outcome uint8

const (
	// Unchecked entries were not validated yet.
	Unchecked Outcome = iota
	// Valid entries already matched on disk.
	Valid
	// Pending entries are invalid and wait for a worker.
	Pending
	// Fetching entries are being downloaded.
	Fetching
	// Extracting entries are native archives being unpacked.
	Extracting
	// Fetched entries were downloaded.
	Fetched
	// Extracted entries are valid native archives whose directory was missing.
	Extracted
	// Installed entries are native archives that were downloaded and unpacked.
	Installed
	// Failed entries hit an error.
	Failed
	// Skipped entries were never started because the sync stopped early.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Unchecked:
		return "unchecked"
	case Valid:
		return "valid"
	case Pending:
		return "pending"
	case Fetching:
		return "fetching"
	case Extracting:
		return "extracting"
	case Fetched:
		return "fetched"
	case Extracted:
		return "extracted"
	case Installed:
		return "installed"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Progress is a snapshot of a running session.
type Progress struct {
	// Bytes received so far.
	Bytes int64
	// BytesTotal is the size of everything scheduled for fetching.
	BytesTotal int64
	// Completed entries among the scheduled ones.
	Completed int64
	// Total entries scheduled for fetching or extraction.
	Total int64
}

// Session is the state of one Sync call. The descriptor slice is never
// modified while workers run; each worker writes only its own outcome slot.
type Session struct {
	// ID tags log lines of the session.
	ID uuid.UUID

	descriptors []resource.Descriptor
	outcomes    []Outcome
	errs        []error

	transferred atomic.Int64
	completed   atomic.Int64
	total       atomic.Int64
	bytesTotal  atomic.Int64

	started time.Time
}

func newSession(descriptors []resource.Descriptor) *Session {
	return &Session{
		ID:          uuid.New(),
		descriptors: descriptors,
		outcomes:    make([]Outcome, len(descriptors)),
		errs:        make([]error, len(descriptors)),
		started:     time.Now(),
	}
}

// Progress returns a snapshot safe to take from any goroutine.
func (s *Session) Progress() Progress {
	return Progress{
		Bytes:      s.transferred.Load(),
		BytesTotal: s.bytesTotal.Load(),
		Completed:  s.completed.Load(),
		Total:      s.total.Load(),
	}
}

// Len is the number of descriptors in the session.
func (s *Session) Len() int {
	return len(s.descriptors)
}

func (s *Session) report() *Report {
	entries := make([]Entry, len(s.descriptors))
	for i, d := range s.descriptors {
		entries[i] = Entry{Descriptor: d, Outcome: s.outcomes[i], Err: s.errs[i]}
	}

	return &Report{
		SessionID:   s.ID,
		Entries:     entries,
		Transferred: s.transferred.Load(),
		Duration:    time.Since(s.started),
	}
}

// Entry is the outcome of one descriptor.
type Entry struct {
	Descriptor resource.Descriptor
	Outcome    Outcome
	Err        error
}

// Report summarises a finished sync.
type Report struct {
	SessionID   uuid.UUID
	Entries     []Entry
	Transferred int64
	Duration    time.Duration
}

// Count returns the number of entries with the given outcome.
func (r *Report) Count(outcome Outcome) int {
	var n int

	for _, e := range r.Entries {
		if e.Outcome == outcome {
			n++
		}
	}

	return n
}

// Fetches returns how many entries were downloaded.
func (r *Report) Fetches() int {
	return r.Count(Fetched) + r.Count(Installed)
}

// Failures returns the failed entries.
func (r *Report) Failures() []Entry {
	var failed []Entry

	for _, e := range r.Entries {
		if e.Outcome == Failed {
			failed = append(failed, e)
		}
	}

	return failed
}
