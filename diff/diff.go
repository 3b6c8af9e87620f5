package diff

import (
	"f0oster/scimsync/cache"
	"f0oster/scimsync/snapshot"
)

// Compute returns the operations that bring the provisioned state recorded
// in c in line with snap. Creates and updates come first in source id order,
// followed by deletes in source id order. Every source id lands in at most
// one operation; unchanged identities produce none.
func Compute(c *cache.Cache, snap *snapshot.Snapshot) []Operation {
	var ops []Operation

	for _, id := range snap.IDs() {
		identity, _ := snap.Get(id)
		fingerprint := identity.Fingerprint()

		entry, exists := c.Get(id)
		if !exists {
			ops = append(ops, Operation{
				Kind:        Create,
				SourceID:    id,
				Identity:    identity,
				Fingerprint: fingerprint,
			})
			continue
		}

		if entry.Fingerprint == fingerprint {
			continue
		}

		ops = append(ops, Operation{
			Kind:        Update,
			SourceID:    id,
			Identity:    identity,
			Entry:       &entry,
			Fingerprint: fingerprint,
		})
	}

	for _, id := range c.IDs() {
		if _, exists := snap.Get(id); exists {
			continue
		}
		entry, _ := c.Get(id)
		ops = append(ops, Operation{
			Kind:     Delete,
			SourceID: id,
			Entry:    &entry,
		})
	}

	return ops
}

// Summarize counts ops per kind.
func Summarize(ops []Operation) Summary {
	var s Summary
	for _, op := range ops {
		switch op.Kind {
		case Create:
			s.Creates++
		case Update:
			s.Updates++
		case Delete:
			s.Deletes++
		}
	}
	return s
}
