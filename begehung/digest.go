package begehung

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// RowDigest hashes every column of a record so that two records share a digest
// iff they are equal field by field. An empty extra column counts as absent.
func RowDigest(r InspectionRecord, hexLen int) string {
	var b strings.Builder
	for _, c := range Columns {
		writeDigestField(&b, c, r.Field(c))
	}
	keys := make([]string, 0, len(r.Extra))
	for k, v := range r.Extra {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeDigestField(&b, k, r.Extra[k])
	}
	return HashText(b.String(), hexLen)
}

// HashText returns the SHA-256 hex digest of s, cut to hexLen when 0 < hexLen < 64.
func HashText(s string, hexLen int) string {
	sum := sha256.Sum256([]byte(s))
	full := hex.EncodeToString(sum[:])
	if hexLen <= 0 || hexLen >= len(full) {
		return full
	}
	return full[:hexLen]
}

// Length-prefixed so that no two different field lists serialize identically.
func writeDigestField(b *strings.Builder, name, value string) {
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(strconv.Itoa(len(value)))
	b.WriteByte(':')
	b.WriteString(value)
	b.WriteByte(';')
}
