package config

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"f0oster/scimsync/directory"
	"f0oster/scimsync/render"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The shipped example settings and template must render a directory entry
// as parsed with the example attribute list.
func TestExampleSettingsRenderParsedEntry(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "settings.env.example"))
	require.NoError(t, err)

	parser := directory.NewParser(cfg.Directory.UniqueIdentifier, cfg.Directory.Attributes)
	identity, err := parser.ParseEntry(ldap.NewEntry("uid=alice,ou=people,dc=example,dc=com", map[string][]string{
		"uid":       {"alice"},
		"mail":      {"alice@example.com"},
		"givenName": {"Alice"},
		"sn":        {"Liddell"},
		"memberOf":  {"cn=staff,ou=groups,dc=example,dc=com"},
	}))
	require.NoError(t, err)

	tmpl, err := render.Load(filepath.Join("..", cfg.TemplatePath))
	require.NoError(t, err)

	doc, err := tmpl.Render(identity.Attributes)
	require.NoError(t, err)

	var user map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &user))
	assert.Equal(t, "alice", user["externalId"])
	assert.Equal(t, "alice@example.com", user["userName"])
	assert.NotContains(t, user, "phoneNumbers")
}
