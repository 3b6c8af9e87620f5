package ldaphelpers

import (
	"strings"
)

type Filter interface {
	String() string
}

type rawFilter string

func (f rawFilter) String() string {
	return string(f)
}

// Raw wraps an operator supplied filter, adding the outer parentheses if
// they were left off. An empty filter matches every entry.
func Raw(filter string) Filter {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return rawFilter("(objectClass=*)")
	}
	if !strings.HasPrefix(filter, "(") {
		filter = "(" + filter + ")"
	}
	return rawFilter(filter)
}

type andFilter struct {
	parts []Filter
}

func And(filters ...Filter) Filter {
	return andFilter{parts: filters}
}
func (f andFilter) String() string {
	var parts []string
	for _, p := range f.parts {
		parts = append(parts, p.String())
	}
	return "(&" + strings.Join(parts, "") + ")"
}

func Present(attr string) Filter {
	return rawFilter("(" + attr + "=*)")
}
