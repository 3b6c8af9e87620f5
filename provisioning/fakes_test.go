package provisioning_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"f0oster/scimsync/cache"
	"f0oster/scimsync/snapshot"
)

type memoryStore struct {
	mu      sync.Mutex
	entries []cache.Entry
	loadErr error
	saveErr error
	saves   int
}

func newMemoryStore(entries ...cache.Entry) *memoryStore {
	return &memoryStore{entries: entries}
}

func (m *memoryStore) Load(ctx context.Context) (*cache.Cache, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return cache.FromEntries(m.entries...), nil
}

func (m *memoryStore) Save(ctx context.Context, c *cache.Cache) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries = c.Entries()
	return nil
}

func (m *memoryStore) snapshotEntries() map[string]cache.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]cache.Entry, len(m.entries))
	for _, e := range m.entries {
		out[e.SourceID] = e
	}
	return out
}

type staticSource struct {
	identities []snapshot.Identity
	err        error
}

func (s *staticSource) FetchSnapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return snapshot.New(s.identities...)
}

// renders {"id":"<source id>"} using the "uid" attribute
type uidRenderer struct {
	failFor map[string]bool
}

func (r uidRenderer) Render(attributes map[string][]string) (string, error) {
	uid := ""
	if v := attributes["uid"]; len(v) > 0 {
		uid = v[0]
	}
	if r.failFor[uid] {
		return "", fmt.Errorf("template error for %s", uid)
	}
	return fmt.Sprintf(`{"userName":%q}`, uid), nil
}

type call struct {
	Method   string
	RemoteID string
	Document string
}

var errRemote = errors.New("remote rejected request")

// fakeClient assigns remote ids "remote-<userName>" and fails any call whose
// document or remote id contains one of the fail markers.
type fakeClient struct {
	mu    sync.Mutex
	calls []call
	fail  []string
	block chan struct{}
}

func (c *fakeClient) shouldFail(values ...string) bool {
	for _, marker := range c.fail {
		for _, v := range values {
			if strings.Contains(v, marker) {
				return true
			}
		}
	}
	return false
}

func (c *fakeClient) record(method, remoteID, document string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call{Method: method, RemoteID: remoteID, Document: document})
}

func (c *fakeClient) Create(ctx context.Context, document string) (string, error) {
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.record("POST", "", document)
	if c.shouldFail(document) {
		return "", errRemote
	}
	name := strings.TrimSuffix(strings.TrimPrefix(document, `{"userName":"`), `"}`)
	return "remote-" + name, nil
}

func (c *fakeClient) Update(ctx context.Context, remoteID, document string) error {
	c.record("PUT", remoteID, document)
	if c.shouldFail(remoteID, document) {
		return errRemote
	}
	return nil
}

func (c *fakeClient) Delete(ctx context.Context, remoteID string) error {
	c.record("DELETE", remoteID, "")
	if c.shouldFail(remoteID) {
		return errRemote
	}
	return nil
}

func (c *fakeClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func user(uid string, extra ...string) snapshot.Identity {
	attrs := map[string][]string{"uid": {uid}}
	if len(extra) > 0 {
		attrs["description"] = extra
	}
	return snapshot.Identity{SourceID: uid, Attributes: attrs}
}

func fingerprintOf(identity snapshot.Identity) string {
	return snapshot.Fingerprint(identity.Attributes)
}
