// validation.go - Upload filtering and filename helpers.
package server

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// allowedMimeTypes defines the file types permitted for upload.
// Only images; anything else fails the whole batch.
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// allowedFileType reports whether the client-provided Content-Type is an
// accepted image type. Parameters such as charset are stripped first.
func allowedFileType(contentType string) bool {
	mimeType := strings.TrimSpace(strings.ToLower(contentType))
	if idx := strings.Index(mimeType, ";"); idx > 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return allowedMimeTypes[mimeType]
}

// sanitizeExt returns the lowercased extension of the original filename
// with path separators and oddities stripped. Empty when there is none.
func sanitizeExt(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if ext == "." {
		return ""
	}
	return ext
}

// storedFileName generates the unique name a blob is persisted under:
// the upload timestamp (nanoseconds, so files within one batch do not
// collide) plus the original file's extension.
func storedFileName(now time.Time, originalName string) string {
	return fmt.Sprintf("%d%s", now.UnixNano(), sanitizeExt(originalName))
}
