// Package pathscheme builds and parses the storage layout of an asset:
//
//	upload/{filetype}s/{yyyy}/{mm}/{dd}/{assetId}/{file}
//
// The base path is computed once at upload time and persisted on the asset.
// Public URLs are always composed from that persisted value.
package pathscheme

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/yungbote/assets-backend/internal/domain/assets"
)

// Root is the fixed first segment of every base path.
const Root = "upload"

// PublicPrefix is the URL segment the storage root is served under.
const PublicPrefix = "uploads"

// Location is a parsed base path.
type Location struct {
	FileType domain.FileType
	Year     string
	Month    string
	Day      string
	ID       uuid.UUID
}

// TypeDir returns the pluralized, lowercase category segment ("images").
func TypeDir(ft domain.FileType) string {
	return strings.ToLower(string(ft)) + "s"
}

// BuildBasePath returns the relative directory for an asset created at `at`.
func BuildBasePath(ft domain.FileType, id uuid.UUID, at time.Time) string {
	y, m, d := at.Date()
	return path.Join(Root, TypeDir(ft), fmt.Sprintf("%04d", y), fmt.Sprintf("%02d", int(m)), fmt.Sprintf("%02d", d), id.String())
}

// BuildPublicURL composes the externally reachable URL of one file.
func BuildPublicURL(baseURL string, ft domain.FileType, year, month, day string, id uuid.UUID, filename string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return base + "/" + path.Join(PublicPrefix, TypeDir(ft), year, month, day, id.String(), filename)
}

// ObjectKey is the storage key of a file under a base path.
func ObjectKey(basePath, filename string) string {
	return path.Join(basePath, filename)
}

// Parse splits a persisted base path back into its segments.
func Parse(basePath string) (Location, error) {
	parts := strings.Split(strings.Trim(basePath, "/"), "/")
	if len(parts) != 6 || parts[0] != Root {
		return Location{}, fmt.Errorf("pathscheme: malformed base path %q", basePath)
	}
	dir := parts[1]
	if !strings.HasSuffix(dir, "s") {
		return Location{}, fmt.Errorf("pathscheme: bad type segment %q", dir)
	}
	ft, ok := domain.ParseFileType(strings.TrimSuffix(dir, "s"))
	if !ok {
		return Location{}, fmt.Errorf("pathscheme: unknown type segment %q", dir)
	}
	if !digits(parts[2], 4) || !digits(parts[3], 2) || !digits(parts[4], 2) {
		return Location{}, fmt.Errorf("pathscheme: bad date segments in %q", basePath)
	}
	id, err := uuid.Parse(parts[5])
	if err != nil {
		return Location{}, fmt.Errorf("pathscheme: bad id segment: %w", err)
	}
	return Location{FileType: ft, Year: parts[2], Month: parts[3], Day: parts[4], ID: id}, nil
}

// PublicURL composes the URL of filename inside this location.
func (l Location) PublicURL(baseURL, filename string) string {
	return BuildPublicURL(baseURL, l.FileType, l.Year, l.Month, l.Day, l.ID, filename)
}

// RelativePath is the location relative to the public prefix, matching the
// suffix of every public URL.
func (l Location) RelativePath(filename string) string {
	return path.Join(TypeDir(l.FileType), l.Year, l.Month, l.Day, l.ID.String(), filename)
}

func digits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil && !strings.ContainsAny(s, "+-")
}
