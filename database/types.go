package database

import "f0oster/scimsync/cache"

// ResourceRecord represents a row in the provisioned_resources table.
type ResourceRecord struct {
	SourceID    string `db:"source_id"`
	RemoteID    string `db:"remote_id"`
	Fingerprint string `db:"fingerprint"`
}

func (r ResourceRecord) entry() cache.Entry {
	return cache.Entry{
		SourceID:    r.SourceID,
		RemoteID:    r.RemoteID,
		Fingerprint: r.Fingerprint,
	}
}
