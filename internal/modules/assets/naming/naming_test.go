package naming

import (
	"strings"
	"testing"

	domain "github.com/yungbote/assets-backend/internal/domain/assets"
)

func TestSanitizeAccentsAndCase(t *testing.T) {
	got := Sanitize("Café Déjà Vu #1.PNG")
	if got != "cafe-deja-vu-1.png" {
		t.Fatalf("Sanitize: want=%q got=%q", "cafe-deja-vu-1.png", got)
	}
}

func TestSanitizeNeverTraverses(t *testing.T) {
	cases := []string{
		"../../etc/passwd",
		`..\..\windows\system32\cmd.exe`,
		"/abs/path/..",
		"a/../../b.txt",
		"\x00\x01bad\x7f.pdf",
	}
	for _, c := range cases {
		got := Sanitize(c)
		if strings.Contains(got, "/") || strings.Contains(got, `\`) || strings.Contains(got, "..") {
			t.Fatalf("Sanitize(%q) = %q contains a path element", c, got)
		}
		if strings.HasPrefix(got, ".") || got == "" {
			t.Fatalf("Sanitize(%q) = %q has an empty base", c, got)
		}
	}
}

func TestSanitizeEmptyFallsBack(t *testing.T) {
	for _, c := range []string{"", "   ", "###.jpg", "..", "日本語.png"} {
		got := Sanitize(c)
		if !strings.HasPrefix(got, Fallback) {
			t.Fatalf("Sanitize(%q): want fallback stem, got=%q", c, got)
		}
	}
	if got := Sanitize("###.JPG"); got != "file.jpg" {
		t.Fatalf("Sanitize: want=file.jpg got=%q", got)
	}
}

func TestSanitizeCapsBase(t *testing.T) {
	long := strings.Repeat("ab", 120) + ".Jpeg"
	got := Sanitize(long)
	stem, ext := Split(got)
	if len(stem) > MaxBaseLen {
		t.Fatalf("stem len: want<=%d got=%d", MaxBaseLen, len(stem))
	}
	if ext != ".jpeg" {
		t.Fatalf("ext: want=.jpeg got=%q", ext)
	}
}

func TestSanitizeCollapsesRuns(t *testing.T) {
	if got := Sanitize("  --Hello___World!!  .txt"); got != "hello-world.txt" {
		t.Fatalf("Sanitize: got=%q", got)
	}
}

func TestSplit(t *testing.T) {
	stem, ext := Split("dir/Photo.Final.PNG")
	if stem != "Photo.Final" || ext != ".png" {
		t.Fatalf("Split: got stem=%q ext=%q", stem, ext)
	}
	stem, ext = Split(".env")
	if stem != ".env" || ext != "" {
		t.Fatalf("Split dotfile: got stem=%q ext=%q", stem, ext)
	}
}

func TestVersionFileName(t *testing.T) {
	if got := VersionFileName("beach.png", domain.VersionThumbnail, true); got != "beach-thumbnail.jpg" {
		t.Fatalf("image version: got=%q", got)
	}
	if got := VersionFileName("report.pdf", domain.VersionOriginal, false); got != "report-original.pdf" {
		t.Fatalf("document version: got=%q", got)
	}
	if got := VersionFileName("notes", domain.VersionOriginal, false); got != "notes-original" {
		t.Fatalf("extensionless: got=%q", got)
	}
}
