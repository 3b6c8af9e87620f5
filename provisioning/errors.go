package provisioning

import (
	"errors"
	"strings"
)

var ErrTooManyDeletes = errors.New("planned deletes exceed the configured limit")

// Kind classifies how an error affects a run.
type Kind int

const (
	// KindFatal errors abort the run before any remote mutation.
	KindFatal Kind = iota + 1

	// KindOperation errors fail one operation; the run continues.
	KindOperation

	// KindPersistence errors mean the cache could not be saved after execution.
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindFatal:
		return "fatal"
	case KindOperation:
		return "operation"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error carries the kind and context of a provisioning failure.
type Error struct {
	Kind     Kind
	Op       string
	SourceID string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	if e.Op != "" {
		b.WriteString(" during ")
		b.WriteString(e.Op)
	}
	if e.SourceID != "" {
		b.WriteString(" for ")
		b.WriteString(e.SourceID)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err aborted a run before any mutation.
func IsFatal(err error) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Kind == KindFatal
}

func fatal(op string, err error) *Error {
	return &Error{Kind: KindFatal, Op: op, Err: err}
}
