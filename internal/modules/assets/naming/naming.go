// Package naming turns untrusted upload names into safe storage file names.
package naming

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	domain "github.com/yungbote/assets-backend/internal/domain/assets"
)

const (
	// MaxBaseLen caps the sanitized stem, extension excluded.
	MaxBaseLen = 100
	// Fallback is used when nothing of the stem survives sanitizing.
	Fallback = "file"

	maxExtLen = 16
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Split returns the stem and the lowercased extension (with dot) of the last
// path element of name. Both separators are treated as path separators.
func Split(name string) (stem, ext string) {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" {
		return "", ""
	}
	ext = path.Ext(base)
	stem = strings.TrimSuffix(base, ext)
	if stem == "" {
		// ".env" has no extension, only a name.
		return base, ""
	}
	return stem, strings.ToLower(ext)
}

// Sanitize returns "{slug}{ext}" where slug only contains [a-z0-9-], never
// starts or ends with a hyphen, and is at most MaxBaseLen long.
func Sanitize(name string) string {
	stem, ext := Split(name)
	return SanitizeStem(stem) + sanitizeExt(ext)
}

// SanitizeStem slugs a bare name without extension handling.
func SanitizeStem(stem string) string {
	s := strings.ToLower(stripMarks(stem))
	s = nonSlug.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxBaseLen {
		s = strings.TrimRight(s[:MaxBaseLen], "-")
	}
	if s == "" {
		return Fallback
	}
	return s
}

// VersionFileName names one rendition: "{stem}-{kind}{ext}". Images are always
// stored as JPEG whatever their upload extension; other files keep theirs.
func VersionFileName(sanitized string, kind domain.VersionKind, image bool) string {
	stem, ext := Split(sanitized)
	if stem == "" {
		stem = Fallback
	}
	if image {
		ext = ".jpg"
	}
	return stem + "-" + string(kind) + ext
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func sanitizeExt(ext string) string {
	body := nonSlug.ReplaceAllString(strings.TrimPrefix(strings.ToLower(ext), "."), "")
	if body == "" || len(body) > maxExtLen {
		return ""
	}
	return "." + body
}
