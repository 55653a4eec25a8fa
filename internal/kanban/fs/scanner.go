package fs

import (
	"os"
	"strings"
	"unicode"
)

func fileExistsAt(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// slugify turns a board title into a directory name.
func slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
