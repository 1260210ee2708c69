package classify

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	domain "github.com/yungbote/assets-backend/internal/domain/assets"
)

func TestClassify(t *testing.T) {
	cases := map[string]domain.FileType{
		"image/jpeg":                domain.FileImage,
		"IMAGE/PNG":                 domain.FileImage,
		"image/webp":                domain.FileImage,
		"application/pdf":           domain.FileDocument,
		"text/plain; charset=utf-8": domain.FileDocument,
		"text/csv":                  domain.FileSpreadsheet,
		"application/vnd.ms-excel":  domain.FileSpreadsheet,
		" application/msword ":      domain.FileDocument,
	}
	for in, want := range cases {
		got, ok := Classify(in)
		if !ok || got != want {
			t.Fatalf("Classify(%q): want=%s got=%s ok=%v", in, want, got, ok)
		}
	}
	for _, bad := range []string{"", "image/svg+xml", "application/zip", "video/mp4"} {
		if _, ok := Classify(bad); ok {
			t.Fatalf("Classify(%q): want rejected", bad)
		}
	}
}

func TestIsImage(t *testing.T) {
	if !IsImage("image/gif") {
		t.Fatalf("IsImage(gif): want=true")
	}
	if IsImage("application/pdf") || IsImage("bogus") {
		t.Fatalf("IsImage: want=false")
	}
}

func TestIsAllowedExtension(t *testing.T) {
	if !IsAllowedExtension(domain.FileImage, "Photo.JPG") {
		t.Fatalf("jpg should be allowed for images")
	}
	if IsAllowedExtension(domain.FileImage, "doc.pdf") {
		t.Fatalf("pdf should not be allowed for images")
	}
	if IsAllowedExtension(domain.FileDocument, "noext") || IsAllowedExtension(domain.FileDocument, ".pdf") {
		t.Fatalf("missing stem or extension should be rejected")
	}
	if !IsAllowedExtension(domain.FileSpreadsheet, `C:\tmp\book.xlsx`) {
		t.Fatalf("xlsx should be allowed for spreadsheets")
	}
}

func TestSizeLimit(t *testing.T) {
	if got := SizeLimit(domain.FileImage); got != 2*MiB {
		t.Fatalf("image limit: got=%d", got)
	}
	if got := SizeLimit(domain.FileDocument); got != 5*MiB {
		t.Fatalf("document limit: got=%d", got)
	}
	if got := SizeLimit(domain.FileType("OTHER")); got != GlobalLimit {
		t.Fatalf("fallback limit: got=%d", got)
	}
}

func TestAllowedMIMETypesImagesFirst(t *testing.T) {
	all := AllowedMIMETypes()
	if len(all) != 11 || all[0] != "image/jpeg" {
		t.Fatalf("AllowedMIMETypes: got=%v", all)
	}
}

func TestVerifySignature(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}

	if !VerifySignature(buf.Bytes(), "image/png") {
		t.Fatalf("png bytes declared as png: want=true")
	}
	if !VerifySignature(buf.Bytes(), "image/jpeg") {
		t.Fatalf("png bytes declared as another image type: want=true")
	}
	if VerifySignature(buf.Bytes(), "application/pdf") {
		t.Fatalf("png bytes declared as pdf: want=false")
	}
	if !VerifySignature([]byte("name,qty\nbolt,3\nnut,7\n"), "text/csv") {
		t.Fatalf("csv text declared as csv: want=true")
	}
	if VerifySignature([]byte("hello"), "application/zip") {
		t.Fatalf("unknown declared type: want=false")
	}
}
