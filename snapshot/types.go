package snapshot

import "errors"

var (
	ErrEmptyID     = errors.New("identity has an empty source id")
	ErrDuplicateID = errors.New("duplicate source id in snapshot")
)

// Identity represents a single directory entry selected for provisioning.
type Identity struct {
	// SourceID is the value of the configured unique identifier attribute
	SourceID string

	// Attributes contains the values used to render the SCIM document.
	// Key: attribute name, Value: attribute values in directory order
	Attributes map[string][]string
}

// Snapshot is the current-truth set of identities for one run.
// It is built once by a Builder and never modified afterwards.
type Snapshot struct {
	identities map[string]*Identity
}
