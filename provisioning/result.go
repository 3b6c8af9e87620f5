package provisioning

import (
	"time"

	"f0oster/scimsync/diff"

	"github.com/google/uuid"
)

// Status is the overall outcome of a run that was not aborted.
type Status int

const (
	StatusSucceeded Status = iota
	StatusPartialFailure
	StatusPersistFailed
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusPartialFailure:
		return "completed with failures"
	case StatusPersistFailed:
		return "cache persistence failed"
	default:
		return "unknown"
	}
}

// Result summarises a completed run.
type Result struct {
	RunID   uuid.UUID
	Planned diff.Summary
	DryRun  bool

	Created int
	Updated int
	Deleted int
	Failed  int

	// Errors holds one KindOperation error per failed operation, in plan order
	Errors []*Error

	// PersistErr is set when the cache could not be saved
	PersistErr *Error

	Started  time.Time
	Duration time.Duration
}

func (r *Result) Status() Status {
	switch {
	case r.PersistErr != nil:
		return StatusPersistFailed
	case r.Failed > 0:
		return StatusPartialFailure
	default:
		return StatusSucceeded
	}
}

func (r *Result) record(outcome Outcome) {
	if !outcome.Succeeded() {
		r.Failed++
		if perr, ok := outcome.Err.(*Error); ok {
			r.Errors = append(r.Errors, perr)
		} else {
			r.Errors = append(r.Errors, &Error{
				Kind:     KindOperation,
				Op:       outcome.Operation.Kind.String(),
				SourceID: outcome.Operation.SourceID,
				Err:      outcome.Err,
			})
		}
		return
	}

	switch outcome.Operation.Kind {
	case diff.Create:
		r.Created++
	case diff.Update:
		r.Updated++
	case diff.Delete:
		r.Deleted++
	}
}
