package database

// SQL query constants for the provisioned resources table.

const (
	tableName = "provisioned_resources"

	DropSchema = `DROP TABLE IF EXISTS provisioned_resources`

	SelectResources = `
		SELECT source_id, remote_id, fingerprint
		FROM provisioned_resources
		ORDER BY source_id`

	DeleteResources = `DELETE FROM provisioned_resources`
)

var resourceColumns = []string{"source_id", "remote_id", "fingerprint"}
