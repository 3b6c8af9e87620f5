package snapshot

import (
	"fmt"
	"sort"
)

// Builder collects identities for a Snapshot and enforces id uniqueness.
type Builder struct {
	identities map[string]*Identity
	built      bool
}

func NewBuilder() *Builder {
	return &Builder{
		identities: make(map[string]*Identity),
	}
}

// Add copies the identity into the snapshot under construction.
// It fails on an empty source id or one that was already added.
func (b *Builder) Add(identity Identity) error {
	if b.built {
		return fmt.Errorf("snapshot already built")
	}
	if identity.SourceID == "" {
		return ErrEmptyID
	}
	if _, exists := b.identities[identity.SourceID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, identity.SourceID)
	}

	attributes := make(map[string][]string, len(identity.Attributes))
	for name, values := range identity.Attributes {
		attributes[name] = append([]string(nil), values...)
	}

	b.identities[identity.SourceID] = &Identity{
		SourceID:   identity.SourceID,
		Attributes: attributes,
	}
	return nil
}

// Build finalizes the snapshot. The builder cannot be reused afterwards.
func (b *Builder) Build() *Snapshot {
	b.built = true
	return &Snapshot{identities: b.identities}
}

// New builds a snapshot from a list of identities.
func New(identities ...Identity) (*Snapshot, error) {
	b := NewBuilder()
	for _, identity := range identities {
		if err := b.Add(identity); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// Get returns the identity for a source id.
func (s *Snapshot) Get(sourceID string) (*Identity, bool) {
	identity, ok := s.identities[sourceID]
	return identity, ok
}

func (s *Snapshot) Len() int {
	return len(s.identities)
}

// IDs returns every source id in ascending order.
func (s *Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.identities))
	for id := range s.identities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
