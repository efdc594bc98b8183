package invite

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	alphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	segmentLen = 4
	segments   = 3
	// Bytes at or above this value are rejected to keep the draw uniform.
	maxUnbiased = 256 - 256%len(alphabet)
)

var codeRe = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// Generate draws a code in the form AAAA-1111-WXYZ from r. A nil reader uses
// crypto/rand.
func Generate(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}

	out := make([]byte, 0, segments*segmentLen)
	buf := make([]byte, 16)
	for len(out) < segments*segmentLen {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("generate invite code: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == segments*segmentLen {
				break
			}
		}
	}

	return fmt.Sprintf("%s-%s-%s", out[0:4], out[4:8], out[8:12]), nil
}

// Valid reports whether code has the invite-code shape.
func Valid(code string) bool {
	return codeRe.MatchString(code)
}

// Normalize upper-cases and trims user input so codes typed by hand match.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
