package snapshot

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"
)

// Fingerprint digests an attribute map into a comparable string.
// Attribute names are visited in sorted order so map iteration order never
// leaks into the digest. Values keep their directory order, since templates
// may depend on which value comes first.
func Fingerprint(attributes map[string][]string) string {
	names := make([]string, 0, len(attributes))
	for name := range attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	writeUvarint(h, uint64(len(names)))
	for _, name := range names {
		writeString(h, name)
		values := attributes[name]
		writeUvarint(h, uint64(len(values)))
		for _, value := range values {
			writeString(h, value)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the digest of the identity's attributes.
func (i *Identity) Fingerprint() string {
	return Fingerprint(i.Attributes)
}

// length prefixes keep ("ab","c") and ("a","bc") apart
func writeString(h hash.Hash, s string) {
	writeUvarint(h, uint64(len(s)))
	h.Write([]byte(s))
}

func writeUvarint(h hash.Hash, v uint64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	h.Write(buf[:n])
}
