package directory

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// subordinate subtree scope (draft-sermersheim-ldap-subordinate-scope)
const scopeChildren = 3

// Config holds the directory connection and search parameters.
type Config struct {
	URI      string
	BindDN   string
	Password string
	StartTLS bool

	BaseDN     string
	Scope      int
	Filter     string
	Attributes []string
	AttrsOnly  bool
	PageSize   uint32

	// UniqueIdentifier names the attribute whose value becomes the source id
	UniqueIdentifier string
}

// ParseScope maps a configured scope name onto an LDAP search scope.
func ParseScope(name string) (int, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "BASE":
		return ldap.ScopeBaseObject, nil
	case "ONELEVEL":
		return ldap.ScopeSingleLevel, nil
	case "SUBTREE":
		return ldap.ScopeWholeSubtree, nil
	case "CHILDREN":
		return scopeChildren, nil
	default:
		return 0, fmt.Errorf("unknown LDAP scope %q", name)
	}
}
