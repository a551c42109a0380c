package storage

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Object keys follow {category}/{userID}/{timestamp}_{sanitizedFilename}.
// The second path segment carries the owning user id; the delete and
// download authorization checks parse it back out, so the layout must not
// change.

var ErrInvalidKey = fmt.Errorf("storage: invalid object key")

// stripMarks decomposes to NFKD and drops combining marks, so accented
// filenames survive as plain ASCII letters.
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeFilename reduces a user-supplied filename to a key-safe form:
// diacritics stripped, anything outside [a-zA-Z0-9._-] replaced with '_'.
func SanitizeFilename(name string) string {
	flattened, _, err := transform.String(stripMarks, name)
	if err != nil {
		flattened = name
	}

	var b strings.Builder
	b.Grow(len(flattened))
	for _, r := range flattened {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	sanitized := strings.Trim(b.String(), "._")
	if sanitized == "" {
		sanitized = "file"
	}
	return sanitized
}

// ObjectKey builds the canonical key for an uploaded file.
func ObjectKey(category string, userID uuid.UUID, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%s/%d_%s", category, userID, now.Unix(), SanitizeFilename(filename))
}

// OwnerFromKey extracts the owning user id from the second path segment.
func OwnerFromKey(key string) (uuid.UUID, error) {
	parts := strings.Split(key, "/")
	if len(parts) < 3 {
		return uuid.Nil, ErrInvalidKey
	}

	owner, err := uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, ErrInvalidKey
	}
	return owner, nil
}
