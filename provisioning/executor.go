package provisioning

import (
	"context"
	"fmt"
	"time"

	"f0oster/scimsync/diff"
)

// Executor applies single operations through the renderer and SCIM client.
// It never touches the cache; callers apply the returned Outcome.
type Executor struct {
	renderer Renderer
	client   Client
	timeout  time.Duration
}

func NewExecutor(renderer Renderer, client Client, timeout time.Duration) *Executor {
	return &Executor{
		renderer: renderer,
		client:   client,
		timeout:  timeout,
	}
}

// Execute performs op and reports its outcome. Failures are returned as
// KindOperation errors on the Outcome.
func (e *Executor) Execute(ctx context.Context, op diff.Operation) Outcome {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	outcome := Outcome{Operation: op}
	if op.Entry != nil {
		outcome.RemoteID = op.Entry.RemoteID
	}
	var err error

	switch op.Kind {
	case diff.Create:
		outcome.RemoteID, err = e.create(ctx, op)
		outcome.Fingerprint = op.Fingerprint
	case diff.Update:
		err = e.update(ctx, op)
		outcome.Fingerprint = op.Fingerprint
	case diff.Delete:
		err = e.delete(ctx, op)
	default:
		err = fmt.Errorf("unsupported operation kind %d", op.Kind)
	}

	if err != nil {
		outcome.Err = &Error{
			Kind:     KindOperation,
			Op:       op.Kind.String(),
			SourceID: op.SourceID,
			Err:      err,
		}
	}
	return outcome
}

func (e *Executor) create(ctx context.Context, op diff.Operation) (string, error) {
	if op.Identity == nil {
		return "", fmt.Errorf("create without identity")
	}
	document, err := e.renderer.Render(op.Identity.Attributes)
	if err != nil {
		return "", fmt.Errorf("render failed: %w", err)
	}
	remoteID, err := e.client.Create(ctx, document)
	if err != nil {
		return "", err
	}
	return remoteID, nil
}

func (e *Executor) update(ctx context.Context, op diff.Operation) error {
	if op.Identity == nil || op.Entry == nil {
		return fmt.Errorf("update without identity or cache entry")
	}
	document, err := e.renderer.Render(op.Identity.Attributes)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return e.client.Update(ctx, op.Entry.RemoteID, document)
}

func (e *Executor) delete(ctx context.Context, op diff.Operation) error {
	if op.Entry == nil {
		return fmt.Errorf("delete without cache entry")
	}
	return e.client.Delete(ctx, op.Entry.RemoteID)
}
