// Package classify maps declared MIME types and extensions onto asset file
// categories. Unknown types are rejected, never defaulted.
package classify

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	domain "github.com/yungbote/assets-backend/internal/domain/assets"
)

const (
	MiB = 1 << 20

	// GlobalLimit caps any single upload request.
	GlobalLimit int64 = 10 * MiB
)

var mimeTable = map[domain.FileType][]string{
	domain.FileImage: {
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
	},
	domain.FileDocument: {
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"text/plain",
	},
	domain.FileSpreadsheet: {
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"text/csv",
	},
}

var extTable = map[domain.FileType][]string{
	domain.FileImage:       {".jpg", ".jpeg", ".png", ".gif", ".webp"},
	domain.FileDocument:    {".pdf", ".doc", ".docx", ".txt"},
	domain.FileSpreadsheet: {".xls", ".xlsx", ".csv"},
}

var sizeLimits = map[domain.FileType]int64{
	domain.FileImage:       2 * MiB,
	domain.FileDocument:    5 * MiB,
	domain.FileSpreadsheet: 5 * MiB,
}

var byMIME = func() map[string]domain.FileType {
	out := map[string]domain.FileType{}
	for ft, list := range mimeTable {
		for _, m := range list {
			out[m] = ft
		}
	}
	return out
}()

// Normalize lowercases a MIME type and drops its parameters.
func Normalize(mimeType string) string {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		return parsed
	}
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

// Classify returns the category of a declared MIME type.
func Classify(mimeType string) (domain.FileType, bool) {
	ft, ok := byMIME[Normalize(mimeType)]
	return ft, ok
}

func IsImage(mimeType string) bool {
	ft, ok := Classify(mimeType)
	return ok && ft == domain.FileImage
}

// AllowedMIMETypes lists every accepted MIME type, images first.
func AllowedMIMETypes() []string {
	out := []string{}
	for _, ft := range []domain.FileType{domain.FileImage, domain.FileDocument, domain.FileSpreadsheet} {
		out = append(out, mimeTable[ft]...)
	}
	return out
}

func AllowedExtensions(ft domain.FileType) []string {
	return append([]string(nil), extTable[ft]...)
}

// IsAllowedExtension reports whether the extension of name belongs to ft.
func IsAllowedExtension(ft domain.FileType, name string) bool {
	ext := strings.ToLower(extOf(name))
	if ext == "" {
		return false
	}
	for _, e := range extTable[ft] {
		if e == ext {
			return true
		}
	}
	return false
}

// SizeLimit is the per-category byte cap, or GlobalLimit for unknown types.
func SizeLimit(ft domain.FileType) int64 {
	if n, ok := sizeLimits[ft]; ok {
		return n
	}
	return GlobalLimit
}

// VerifySignature sniffs data and reports whether its detected type falls in
// the same category as the declared one. Plain text is accepted for CSV since
// the sniffer cannot always tell them apart.
func VerifySignature(data []byte, declared string) bool {
	want, ok := Classify(declared)
	if !ok {
		return false
	}
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if ft, ok := Classify(m.String()); ok && ft == want {
			return true
		}
	}
	if strings.HasPrefix(Normalize(declared), "text/") && detected.Is("text/plain") {
		return true
	}
	return false
}

func extOf(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	return name[i:]
}
