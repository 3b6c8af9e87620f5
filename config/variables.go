package config

import (
	"sort"
	"strings"
)

// Variable describes one settings key. An empty Allowed list accepts any
// value.
type Variable struct {
	Required bool
	Allowed  []string
}

const (
	LDAPURI              = "LDAP_URI"
	LDAPWho              = "LDAP_WHO"
	LDAPPasswd           = "LDAP_PASSWD"
	LDAPBase             = "LDAP_BASE"
	LDAPScope            = "LDAP_SCOPE"
	LDAPFilter           = "LDAP_FILTER"
	LDAPAttrs            = "LDAP_ATTRS"
	LDAPAttrsOnly        = "LDAP_ATTRSONLY"
	LDAPUniqueIdentifier = "LDAP_UNIQUE_IDENTIFIER"
	LDAPPageSize         = "LDAP_PAGESIZE"
	LDAPStartTLS         = "LDAP_STARTTLS"
	SCIMURL              = "SCIM_URL"
	SCIMEndpoint         = "SCIM_ENDPOINT"
	SCIMTemplate         = "SCIM_TEMPLATE"
	SCIMCert             = "SCIM_CERT"
	SCIMKey              = "SCIM_KEY"
	SCIMCA               = "SCIM_CA"
	SCIMPinnedPubKey     = "SCIM_PINNED_PUBKEY"
	SCIMTimeout          = "SCIM_TIMEOUT"
	CacheFile            = "CACHE_FILE"
	CacheDSN             = "CACHE_DSN"
	SyncWorkers          = "SYNC_WORKERS"
	SyncMaxDeletes       = "SYNC_MAX_DELETES"
	LogLevel             = "LOG_LEVEL"
)

var booleans = []string{"TRUE", "FALSE"}

var variables = map[string]Variable{
	LDAPURI:              {Required: true},
	LDAPWho:              {Required: true},
	LDAPPasswd:           {Required: true},
	LDAPBase:             {Required: true},
	LDAPScope:            {Required: true, Allowed: []string{"BASE", "ONELEVEL", "SUBTREE", "CHILDREN"}},
	LDAPFilter:           {Required: true},
	LDAPAttrs:            {Required: true},
	LDAPAttrsOnly:        {Required: true, Allowed: booleans},
	LDAPUniqueIdentifier: {Required: true},
	LDAPPageSize:         {},
	LDAPStartTLS:         {Allowed: booleans},
	SCIMURL:              {Required: true},
	SCIMEndpoint:         {},
	SCIMTemplate:         {Required: true},
	SCIMCert:             {},
	SCIMKey:              {},
	SCIMCA:               {},
	SCIMPinnedPubKey:     {},
	SCIMTimeout:          {},
	CacheFile:            {},
	CacheDSN:             {},
	SyncWorkers:          {},
	SyncMaxDeletes:       {},
	LogLevel:             {Allowed: []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}},
}

// Names returns every known variable name in sorted order.
func Names() []string {
	names := make([]string, 0, len(variables))
	for name := range variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (v Variable) allows(value string) bool {
	if len(v.Allowed) == 0 {
		return true
	}
	for _, allowed := range v.Allowed {
		if strings.EqualFold(allowed, value) {
			return true
		}
	}
	return false
}

// validate checks presence and allowed values of every known variable,
// plus any names that are not known at all.
func validate(values map[string]string, verr *ValidationError) {
	for _, name := range Names() {
		v := variables[name]
		value, ok := values[name]
		if !ok || value == "" {
			if v.Required {
				verr.add("%s is required", name)
			}
			continue
		}
		if !v.allows(value) {
			verr.add("%s has invalid value %q, allowed: %s", name, value, strings.Join(v.Allowed, ", "))
		}
	}

	var unknown []string
	for name := range values {
		if _, ok := variables[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		verr.add("%s is not a known setting", name)
	}
}
