// Package requestid generates the IDs attached to compile runs and HTTP
// requests.
package requestid

import (
	crand "crypto/rand"
	"math/big"
	"strings"
	"time"
)

// HeaderKey carries a compile ID on HTTP requests and responses.
const HeaderKey = "X-Xcompile-Request-Id"

const maxLen = 64

// ResolveHeaderKey returns headerKey when non-empty, otherwise HeaderKey.
func ResolveHeaderKey(headerKey string) string {
	if v := strings.TrimSpace(headerKey); v != "" {
		return v
	}
	return HeaderKey
}

// Gen returns yyyymmddHHMMSSuuuuuu followed by 8 random digits.
func Gen() string {
	return GenAt(time.Now())
}

// GenAt is Gen with an explicit clock.
func GenAt(t time.Time) string {
	return timeString(t) + randomDigits(8)
}

// Accept reports whether an ID supplied by a client may be reused as is:
// non-empty, at most 64 bytes, and made of [A-Za-z0-9._-] only.
func Accept(id string) bool {
	if id == "" || len(id) > maxLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c == '.', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

func timeString(t time.Time) string {
	return strings.ReplaceAll(t.Format("20060102150405.000000"), ".", "")
}

func randomDigits(n int) string {
	const digits = "0123456789"
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(digits[cryptoRandIntn(len(digits))])
	}
	return b.String()
}

func cryptoRandIntn(max int) int {
	if max <= 0 {
		return 0
	}
	nBig, err := crand.Int(crand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0
	}
	return int(nBig.Int64())
}
