package file

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxNameLength = 100

// SanitizeFilename reduces a client supplied name to a safe base name made of
// ASCII letters, digits, '.', '_' and '-'. Accented letters are folded to
// their base letter, spaces become underscores, other symbols are dropped and
// leading dots are stripped. The result is never empty.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(strings.TrimSpace(name))

	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte('_')
		}
	}

	result := strings.TrimLeft(b.String(), ".")
	if len(result) > maxNameLength {
		ext := filepath.Ext(result)
		if len(ext) > 0 && len(ext) < 10 {
			result = result[:maxNameLength-len(ext)] + ext
		} else {
			result = result[:maxNameLength]
		}
	}
	if result == "" {
		return "file"
	}
	return result
}
