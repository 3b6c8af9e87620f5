package directory

import (
	"fmt"
	"strings"

	"f0oster/scimsync/directory/formatters"
	"f0oster/scimsync/snapshot"

	"github.com/go-ldap/ldap/v3"
)

// Parser handles conversion of LDAP entries to snapshot identities.
type Parser struct {
	uniqueIdentifier string
	attributes       []string
}

func NewParser(uniqueIdentifier string, attributes []string) *Parser {
	return &Parser{
		uniqueIdentifier: uniqueIdentifier,
		attributes:       attributes,
	}
}

// ParseEntry converts a single LDAP entry to an Identity. Attribute names
// are matched case-insensitively and keyed by their configured spelling so
// templates do not depend on how the server capitalises them. Attributes
// without values are left out.
func (p *Parser) ParseEntry(entry *ldap.Entry) (snapshot.Identity, error) {
	ids, err := normalizedValues(entry, p.uniqueIdentifier)
	if err != nil {
		return snapshot.Identity{}, fmt.Errorf("entry %s: %w", entry.DN, err)
	}
	if len(ids) == 0 || ids[0] == "" {
		return snapshot.Identity{}, fmt.Errorf("entry %s has no value for unique identifier %s", entry.DN, p.uniqueIdentifier)
	}
	if len(ids) > 1 {
		return snapshot.Identity{}, fmt.Errorf("entry %s has %d values for unique identifier %s", entry.DN, len(ids), p.uniqueIdentifier)
	}

	attributes := make(map[string][]string, len(p.attributes))
	for _, name := range p.attributes {
		values, err := normalizedValues(entry, name)
		if err != nil {
			return snapshot.Identity{}, fmt.Errorf("entry %s: %w", entry.DN, err)
		}
		if len(values) == 0 {
			continue
		}
		attributes[name] = values
	}

	return snapshot.Identity{
		SourceID:   ids[0],
		Attributes: attributes,
	}, nil
}

// ParseEntries adds every entry to the builder, failing on the first entry
// that cannot be parsed or whose id was already seen.
func (p *Parser) ParseEntries(b *snapshot.Builder, entries []*ldap.Entry) error {
	for _, entry := range entries {
		identity, err := p.ParseEntry(entry)
		if err != nil {
			return err
		}
		if err := b.Add(identity); err != nil {
			return fmt.Errorf("entry %s: %w", entry.DN, err)
		}
	}
	return nil
}

func normalizedValues(entry *ldap.Entry, name string) ([]string, error) {
	for _, attr := range entry.Attributes {
		if !strings.EqualFold(attr.Name, name) {
			continue
		}
		values, err := formatters.ForAttribute(name).Normalize(attr.ByteValues)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		return values, nil
	}
	return nil, nil
}
