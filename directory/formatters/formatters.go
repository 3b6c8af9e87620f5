// Package formatters converts raw LDAP attribute values to the strings used
// as source ids and template input. Active Directory binary attributes are
// rendered in their usual text form; any other value that is not valid
// UTF-8 is base64 encoded so it survives JSON encoding unchanged.
package formatters

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

type Normalizer interface {
	Normalize(values [][]byte) ([]string, error)
}

var registry = map[string]Normalizer{
	"objectguid":         GUIDNormalizer{},
	"msexchmailboxguid":  GUIDNormalizer{},
	"objectsid":          SIDNormalizer{},
	"sidhistory":         SIDNormalizer{},
	"securityidentifier": SIDNormalizer{},
}

// ForAttribute returns the normalizer for an attribute name, matched
// case-insensitively.
func ForAttribute(name string) Normalizer {
	if n, ok := registry[strings.ToLower(name)]; ok {
		return n
	}
	return StringNormalizer{}
}

type StringNormalizer struct{}

func (StringNormalizer) Normalize(values [][]byte) ([]string, error) {
	result := make([]string, len(values))
	for i, b := range values {
		if utf8.Valid(b) {
			result[i] = string(b)
		} else {
			result[i] = base64.StdEncoding.EncodeToString(b)
		}
	}
	return result, nil
}

type SIDNormalizer struct{}

func (SIDNormalizer) Normalize(values [][]byte) ([]string, error) {
	sids := make([]string, 0, len(values))
	for _, sidBytes := range values {
		sid, err := ConvertSIDToString(sidBytes)
		if err != nil {
			return nil, err
		}
		sids = append(sids, sid)
	}
	return sids, nil
}

// ConvertSIDToString formats a binary security identifier as S-R-A-S1-S2...
func ConvertSIDToString(sidBytes []byte) (string, error) {
	// revision (1), sub-authority count (1), authority (6)
	if len(sidBytes) < 8 {
		return "", fmt.Errorf("invalid SID: too short")
	}

	revision := sidBytes[0]
	subAuthorityCount := int(sidBytes[1])
	authority := binary.BigEndian.Uint64(append([]byte{0, 0}, sidBytes[2:8]...))

	if len(sidBytes) != 8+subAuthorityCount*4 {
		return "", fmt.Errorf("invalid SID: expected %d bytes for %d sub-authorities, got %d",
			8+subAuthorityCount*4, subAuthorityCount, len(sidBytes))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "S-%d-%d", revision, authority)
	for offset := 8; offset < len(sidBytes); offset += 4 {
		fmt.Fprintf(&b, "-%d", binary.LittleEndian.Uint32(sidBytes[offset:offset+4]))
	}
	return b.String(), nil
}

type GUIDNormalizer struct{}

// Normalize converts little-endian Active Directory GUIDs to RFC 4122 text.
func (GUIDNormalizer) Normalize(values [][]byte) ([]string, error) {
	result := make([]string, 0, len(values))
	for i, adGuid := range values {
		if len(adGuid) != 16 {
			return nil, fmt.Errorf("invalid GUID at index %d: expected 16 bytes, got %d", i, len(adGuid))
		}

		rfcBytes := make([]byte, 16)
		copy(rfcBytes, adGuid)
		rfcBytes[0], rfcBytes[1], rfcBytes[2], rfcBytes[3] = rfcBytes[3], rfcBytes[2], rfcBytes[1], rfcBytes[0]
		rfcBytes[4], rfcBytes[5] = rfcBytes[5], rfcBytes[4]
		rfcBytes[6], rfcBytes[7] = rfcBytes[7], rfcBytes[6]

		u, err := uuid.FromBytes(rfcBytes)
		if err != nil {
			return nil, fmt.Errorf("invalid GUID at index %d: %w", i, err)
		}
		result = append(result, u.String())
	}
	return result, nil
}
