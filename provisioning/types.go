package provisioning

import (
	"context"

	"f0oster/scimsync/diff"
	"f0oster/scimsync/snapshot"
)

// SnapshotSource produces the current set of source identities.
type SnapshotSource interface {
	FetchSnapshot(ctx context.Context) (*snapshot.Snapshot, error)
}

// Renderer turns an identity's attributes into a SCIM document.
type Renderer interface {
	Render(attributes map[string][]string) (string, error)
}

// Client applies mutations to the remote SCIM collection.
type Client interface {
	Create(ctx context.Context, document string) (string, error)
	Update(ctx context.Context, remoteID, document string) error
	Delete(ctx context.Context, remoteID string) error
}

// Options tune a Service run.
type Options struct {
	// Workers bounds how many operations run at once. Values below 2 run
	// operations one at a time in plan order.
	Workers int

	// MaxDeletes aborts the run before any mutation when the plan holds more
	// deletes than this. Zero disables the check.
	MaxDeletes int

	// DryRun stops after planning: nothing is sent and the cache is not saved.
	DryRun bool
}

// Outcome is the result of executing one operation.
type Outcome struct {
	Operation diff.Operation

	// RemoteID is the server-assigned id after a successful Create
	RemoteID string

	// Fingerprint to record after a successful Create or Update
	Fingerprint string

	Err error
}

func (o Outcome) Succeeded() bool {
	return o.Err == nil
}
