package provisioning

import (
	"context"
	"fmt"
	"time"

	"f0oster/scimsync/cache"
	"f0oster/scimsync/diff"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Service reconciles the remote SCIM collection with the directory.
// It owns the provisioning cache for the duration of a run.
type Service struct {
	store    cache.Store
	source   SnapshotSource
	executor *Executor
	opts     Options
}

func NewService(
	store cache.Store,
	source SnapshotSource,
	executor *Executor,
	opts Options,
) *Service {
	return &Service{
		store:    store,
		source:   source,
		executor: executor,
		opts:     opts,
	}
}

// Run performs one reconciliation pass.
//
// Failures while loading the cache or fetching the snapshot abort the run
// before any remote call and are returned as KindFatal errors; the stored
// cache is left untouched. When Options.MaxDeletes is set, a plan with more
// deletes than allowed also aborts after diffing with ErrTooManyDeletes,
// again before any remote call or save. Once execution starts a failed operation only
// affects its own source id, and the cache is saved after every operation
// has been attempted. A save failure is reported on Result.PersistErr.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:   uuid.New(),
		DryRun:  s.opts.DryRun,
		Started: time.Now(),
	}
	logger := log.With().Str("run_id", result.RunID.String()).Logger()

	// Loading
	provisioned, err := s.store.Load(ctx)
	if err != nil {
		return nil, fatal("load cache", err)
	}
	snap, err := s.source.FetchSnapshot(ctx)
	if err != nil {
		return nil, fatal("fetch snapshot", err)
	}
	logger.Info().
		Int("cached", provisioned.Len()).
		Int("identities", snap.Len()).
		Msg("loaded provisioning state")

	// Diffing
	ops := diff.Compute(provisioned, snap)
	result.Planned = diff.Summarize(ops)
	logger.Info().
		Int("create", result.Planned.Creates).
		Int("update", result.Planned.Updates).
		Int("delete", result.Planned.Deletes).
		Msg("computed provisioning plan")

	if s.opts.MaxDeletes > 0 && result.Planned.Deletes > s.opts.MaxDeletes {
		return nil, fatal("plan", fmt.Errorf("%w: %d planned, limit %d",
			ErrTooManyDeletes, result.Planned.Deletes, s.opts.MaxDeletes))
	}

	if s.opts.DryRun {
		for _, op := range ops {
			logger.Info().Str("op", op.Kind.String()).Str("source_id", op.SourceID).Msg("planned operation")
		}
		result.Duration = time.Since(result.Started)
		return result, nil
	}

	// Executing
	outcomes := s.execute(ctx, logger, provisioned, ops)
	for _, outcome := range outcomes {
		result.record(outcome)
	}

	// Persisting; cancellation of ctx must not prevent the save
	if err := s.store.Save(context.WithoutCancel(ctx), provisioned); err != nil {
		result.PersistErr = &Error{Kind: KindPersistence, Op: "save cache", Err: err}
		logger.Error().Err(err).Msg("failed to persist provisioning cache")
	}

	result.Duration = time.Since(result.Started)
	logger.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("deleted", result.Deleted).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Str("status", result.Status().String()).
		Msg("provisioning run finished")

	return result, nil
}

// execute runs every operation and applies each successful outcome to the
// cache as soon as it is known. Outcomes are returned in plan order.
func (s *Service) execute(
	ctx context.Context,
	logger zerolog.Logger,
	provisioned *cache.Cache,
	ops []diff.Operation,
) []Outcome {
	outcomes := make([]Outcome, len(ops))

	workers := s.opts.Workers
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, op := range ops {
		g.Go(func() error {
			outcome := s.executor.Execute(ctx, op)
			apply(provisioned, outcome)
			logOutcome(logger, outcome)
			outcomes[i] = outcome
			return nil
		})
	}
	g.Wait()

	return outcomes
}

// apply records a successful outcome in the cache. Failed outcomes leave
// the entry exactly as it was so the operation is retried next run.
func apply(provisioned *cache.Cache, outcome Outcome) {
	if !outcome.Succeeded() {
		return
	}

	op := outcome.Operation
	switch op.Kind {
	case diff.Create, diff.Update:
		provisioned.Put(cache.Entry{
			SourceID:    op.SourceID,
			RemoteID:    outcome.RemoteID,
			Fingerprint: outcome.Fingerprint,
		})
	case diff.Delete:
		provisioned.Remove(op.SourceID)
	}
}

func logOutcome(logger zerolog.Logger, outcome Outcome) {
	op := outcome.Operation
	if !outcome.Succeeded() {
		logger.Error().
			Err(outcome.Err).
			Str("op", op.Kind.String()).
			Str("source_id", op.SourceID).
			Msg("operation failed")
		return
	}
	logger.Info().
		Str("op", op.Kind.String()).
		Str("source_id", op.SourceID).
		Str("remote_id", outcome.RemoteID).
		Msg("operation succeeded")
}
