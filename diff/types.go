package diff

import (
	"f0oster/scimsync/cache"
	"f0oster/scimsync/snapshot"
)

// Kind is the type of remote mutation an Operation requires.
type Kind int

const (
	Create Kind = iota + 1
	Update
	Delete
)

func (k Kind) String() string {
	switch k {
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Operation is one pending unit of reconciliation work.
type Operation struct {
	Kind     Kind
	SourceID string

	// Identity is nil for Delete
	Identity *snapshot.Identity

	// Entry is nil for Create
	Entry *cache.Entry

	// Fingerprint of Identity's attributes, empty for Delete
	Fingerprint string
}

// Summary counts planned operations per kind.
type Summary struct {
	Creates int
	Updates int
	Deletes int
}

func (s Summary) Total() int {
	return s.Creates + s.Updates + s.Deletes
}
