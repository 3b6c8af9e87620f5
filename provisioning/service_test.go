package provisioning_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"f0oster/scimsync/cache"
	"f0oster/scimsync/provisioning"
	"f0oster/scimsync/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(store cache.Store, source provisioning.SnapshotSource, client *fakeClient, opts provisioning.Options) *provisioning.Service {
	executor := provisioning.NewExecutor(uidRenderer{}, client, 0)
	return provisioning.NewService(store, source, executor, opts)
}

func TestRun_CreatesOnlyNewIdentity(t *testing.T) {
	a, b := user("A"), user("B")
	store := newMemoryStore(cache.Entry{SourceID: "A", RemoteID: "r1", Fingerprint: fingerprintOf(a)})
	client := &fakeClient{}

	result, err := newService(store, &staticSource{identities: []snapshot.Identity{a, b}}, client, provisioning.Options{}).
		Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Planned.Creates)
	assert.Equal(t, 0, result.Planned.Updates+result.Planned.Deletes)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, provisioning.StatusSucceeded, result.Status())

	assert.Equal(t, map[string]cache.Entry{
		"A": {SourceID: "A", RemoteID: "r1", Fingerprint: fingerprintOf(a)},
		"B": {SourceID: "B", RemoteID: "remote-B", Fingerprint: fingerprintOf(b)},
	}, store.snapshotEntries())
	assert.Equal(t, []call{{Method: "POST", Document: `{"userName":"B"}`}}, client.calls)
}

func TestRun_FailedUpdateKeepsEntryAndDeleteProceeds(t *testing.T) {
	store := newMemoryStore(
		cache.Entry{SourceID: "A", RemoteID: "r1", Fingerprint: "f1"},
		cache.Entry{SourceID: "C", RemoteID: "r3", Fingerprint: "f3"},
	)
	client := &fakeClient{fail: []string{"r1"}}

	result, err := newService(store, &staticSource{identities: []snapshot.Identity{user("A", "new")}}, client, provisioning.Options{}).
		Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Planned.Updates)
	assert.Equal(t, 1, result.Planned.Deletes)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, provisioning.StatusPartialFailure, result.Status())

	require.Len(t, result.Errors, 1)
	assert.Equal(t, provisioning.KindOperation, result.Errors[0].Kind)
	assert.Equal(t, "A", result.Errors[0].SourceID)
	assert.ErrorIs(t, result.Errors[0], errRemote)

	assert.Equal(t, map[string]cache.Entry{
		"A": {SourceID: "A", RemoteID: "r1", Fingerprint: "f1"},
	}, store.snapshotEntries())
}

func TestRun_EmptyCacheAndSnapshot(t *testing.T) {
	store := newMemoryStore()
	client := &fakeClient{}

	result, err := newService(store, &staticSource{}, client, provisioning.Options{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Planned.Total())
	assert.Equal(t, 0, result.Created+result.Updated+result.Deleted+result.Failed)
	assert.Equal(t, provisioning.StatusSucceeded, result.Status())
	assert.Empty(t, store.snapshotEntries())
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 0, client.callCount())
}

func TestRun_FailureIsolation(t *testing.T) {
	var identities []snapshot.Identity
	for i := 1; i <= 5; i++ {
		identities = append(identities, user(fmt.Sprintf("u%d", i)))
	}
	store := newMemoryStore()
	client := &fakeClient{fail: []string{`"u3"`}}

	result, err := newService(store, &staticSource{identities: identities}, client, provisioning.Options{}).
		Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, client.callCount(), "operations after the failure must still run")
	assert.Equal(t, 4, result.Created)
	assert.Equal(t, 1, result.Failed)

	entries := store.snapshotEntries()
	assert.Len(t, entries, 4)
	assert.NotContains(t, entries, "u3")
	for _, id := range []string{"u1", "u2", "u4", "u5"} {
		assert.Equal(t, "remote-"+id, entries[id].RemoteID)
	}
}

func TestRun_RenderFailureIsPerOperation(t *testing.T) {
	store := newMemoryStore()
	client := &fakeClient{}
	source := &staticSource{identities: []snapshot.Identity{user("bad"), user("good")}}
	executor := provisioning.NewExecutor(uidRenderer{failFor: map[string]bool{"bad": true}}, client, 0)

	result, err := provisioning.NewService(store, source, executor, provisioning.Options{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, client.callCount())
	assert.Contains(t, result.Errors[0].Error(), "render failed")
	assert.NotContains(t, store.snapshotEntries(), "bad")
}

func TestRun_IdempotentSecondRun(t *testing.T) {
	store := newMemoryStore()
	source := &staticSource{identities: []snapshot.Identity{user("a"), user("b", "x", "y")}}
	client := &fakeClient{}
	svc := newService(store, source, client, provisioning.Options{})

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	second, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Planned.Total())
	assert.Equal(t, 2, client.callCount())
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_FetchFailureLeavesCacheUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	store := cache.NewFileStore(path)
	require.NoError(t, store.Save(context.Background(), cache.FromEntries(
		cache.Entry{SourceID: "a", RemoteID: "r1", Fingerprint: "f1"},
	)))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	client := &fakeClient{}
	fetchErr := errors.New("ldap: connection refused")

	result, err := newService(store, &staticSource{err: fetchErr}, client, provisioning.Options{}).Run(context.Background())

	assert.Nil(t, result)
	assert.True(t, provisioning.IsFatal(err))
	assert.ErrorIs(t, err, fetchErr)
	assert.Equal(t, 0, client.callCount())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRun_CacheLoadFailureIsFatal(t *testing.T) {
	store := newMemoryStore()
	store.loadErr = errors.New("permission denied")
	client := &fakeClient{}

	_, err := newService(store, &staticSource{identities: []snapshot.Identity{user("a")}}, client, provisioning.Options{}).
		Run(context.Background())

	var perr *provisioning.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, provisioning.KindFatal, perr.Kind)
	assert.Equal(t, "load cache", perr.Op)
	assert.Equal(t, 0, client.callCount())
	assert.Equal(t, 0, store.saves)
}

func TestRun_PersistFailureIsReported(t *testing.T) {
	store := newMemoryStore()
	store.saveErr = errors.New("disk full")

	result, err := newService(store, &staticSource{identities: []snapshot.Identity{user("a")}}, &fakeClient{}, provisioning.Options{}).
		Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	require.NotNil(t, result.PersistErr)
	assert.Equal(t, provisioning.KindPersistence, result.PersistErr.Kind)
	assert.Equal(t, provisioning.StatusPersistFailed, result.Status())
}

func TestRun_MaxDeletesGuard(t *testing.T) {
	store := newMemoryStore(
		cache.Entry{SourceID: "a", RemoteID: "r1"},
		cache.Entry{SourceID: "b", RemoteID: "r2"},
		cache.Entry{SourceID: "c", RemoteID: "r3"},
	)
	client := &fakeClient{}

	_, err := newService(store, &staticSource{}, client, provisioning.Options{MaxDeletes: 2}).Run(context.Background())

	assert.ErrorIs(t, err, provisioning.ErrTooManyDeletes)
	assert.True(t, provisioning.IsFatal(err))
	assert.Equal(t, 0, client.callCount())
	assert.Equal(t, 0, store.saves)

	// without the guard an empty snapshot removes everything
	result, err := newService(store, &staticSource{}, client, provisioning.Options{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Deleted)
	assert.Empty(t, store.snapshotEntries())
}

func TestRun_DryRun(t *testing.T) {
	store := newMemoryStore(cache.Entry{SourceID: "old", RemoteID: "r-old"})
	client := &fakeClient{}

	result, err := newService(store, &staticSource{identities: []snapshot.Identity{user("new")}}, client, provisioning.Options{DryRun: true}).
		Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Planned.Creates)
	assert.Equal(t, 1, result.Planned.Deletes)
	assert.Equal(t, 0, client.callCount())
	assert.Equal(t, 0, store.saves)
}

func TestRun_WorkerPool(t *testing.T) {
	var identities []snapshot.Identity
	for i := 0; i < 40; i++ {
		identities = append(identities, user(fmt.Sprintf("user-%02d", i)))
	}
	store := newMemoryStore()
	client := &fakeClient{fail: []string{`"user-07"`}}

	result, err := newService(store, &staticSource{identities: identities}, client, provisioning.Options{Workers: 8}).
		Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 39, result.Created)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, store.snapshotEntries(), 39)
	assert.Equal(t, "user-07", result.Errors[0].SourceID)
}

func TestRun_OperationTimeoutIsRecoverable(t *testing.T) {
	store := newMemoryStore()
	client := &fakeClient{block: make(chan struct{})}

	executor := provisioning.NewExecutor(uidRenderer{}, client, 20*time.Millisecond)
	svc := provisioning.NewService(store, &staticSource{identities: []snapshot.Identity{user("slow")}}, executor, provisioning.Options{})

	result, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.ErrorIs(t, result.Errors[0], context.DeadlineExceeded)
	assert.Nil(t, result.PersistErr)
	assert.Empty(t, store.snapshotEntries())
}
