// Package keys builds the Redis key names used by the covering cache.
package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/open-spatial/geocell/internal/model"
)

// Covering names the cache entry for one covering request. The box goes in
// hashed so keys stay fixed-length; scheme, precision, and cap stay readable
// for debugging with redis-cli.
func Covering(scheme string, precision int, box model.BBox, maxCells int) string {
	schemeNorm := sanitize(strings.TrimSpace(scheme))
	canon := fmt.Sprintf("%s:%d:%s:m%d", schemeNorm, precision, box.String(), maxCells)
	sum := xxhash.Sum64String(canon)
	return fmt.Sprintf("cov:%s:%d:m%d:b=%016x", schemeNorm, precision, maxCells, sum)
}

// TokenSet names the reverse-index set holding the covering keys that
// mention the given cell token.
func TokenSet(scheme, token string) string {
	return fmt.Sprintf("cov:tok:%s:%s", sanitize(scheme), sanitize(token))
}

// sanitize keeps alphanumerics and a few key-safe runes, collapsing runs of
// replacement characters so hostile input cannot fabricate key structure.
func sanitize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-':
			out = r
		default:
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		unicode.IsDigit(r)
}
