// upload.go - Token-guarded multi-file upload handler.
//
// The whole batch is validated before anything touches storage: a filter
// or limit failure rejects every file, so there is never a partially
// persisted batch and no rollback path.
package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"
)

// UploadLimits caps a single upload batch.
type UploadLimits struct {
	MaxFiles     int
	MaxFileBytes int64
}

// uploadFieldName is the fixed multipart field carrying the files.
const uploadFieldName = "files"

// multipartMemory is how much of the parsed form mime/multipart keeps in
// memory before spilling to temp files.
const multipartMemory = 8 << 20

func (l UploadLimits) maxFiles() int {
	if l.MaxFiles <= 0 {
		return 10
	}
	return l.MaxFiles
}

func (l UploadLimits) maxFileBytes() int64 {
	if l.MaxFileBytes <= 0 {
		return 5 << 20
	}
	return l.MaxFileBytes
}

// maxFileMB renders the per-file limit for error messages, rounding up so
// a sub-MiB limit never prints as "0MB".
func (l UploadLimits) maxFileMB() int64 {
	return (l.maxFileBytes() + 1<<20 - 1) / (1 << 20)
}

// validateBatch applies the count, size, and type filters to the parsed
// file headers. It returns the client-facing message and status for the
// first violation, or ok.
func (l UploadLimits) validateBatch(files []*multipart.FileHeader) (int, string, bool) {
	if len(files) == 0 {
		return http.StatusBadRequest, "no file sent", false
	}
	if len(files) > l.maxFiles() {
		return http.StatusBadRequest, fmt.Sprintf("file count limit exceeded (max %d)", l.maxFiles()), false
	}
	for _, fh := range files {
		if !allowedFileType(fh.Header.Get("Content-Type")) {
			return http.StatusBadRequest, "invalid file type. Only JPG and PNG are allowed", false
		}
		if fh.Size > l.maxFileBytes() {
			return http.StatusBadRequest, fmt.Sprintf("file too large. The limit is %dMB", l.maxFileMB()), false
		}
	}
	return 0, "", true
}

// uploadHandler handles POST /upload. requireAuth has already verified the
// bearer token and attached the uploader's id to the context.
func (cfg Config) uploadHandler() http.Handler {
	return cfg.Auth.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		limits := cfg.Uploads
		userID := UserIDFromContext(r.Context())
		rid := RequestIDFromContext(r.Context())

		// Cap the request body at the worst legal batch plus form overhead.
		bodyLimit := int64(limits.maxFiles())*limits.maxFileBytes() + 1<<20
		r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)

		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			GetMetrics().RecordUploadRejected()
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("file too large. The limit is %dMB", limits.maxFileMB()))
				return
			}
			writeError(w, http.StatusBadRequest, "invalid multipart body")
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		files := r.MultipartForm.File[uploadFieldName]
		if status, msg, ok := limits.validateBatch(files); !ok {
			GetMetrics().RecordUploadRejected()
			writeError(w, status, msg)
			return
		}

		now := time.Now()
		var storedBytes int64
		for i, fh := range files {
			src, err := fh.Open()
			if err != nil {
				Error("upload_open_failed", map[string]any{"rid": rid, "file": fh.Filename}, err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			// Offset the timestamp per file so names inside one batch
			// stay unique even on coarse clocks.
			name := storedFileName(now.Add(time.Duration(i)), fh.Filename)
			err = cfg.Blobs.Save(r.Context(), name, fh.Header.Get("Content-Type"), src, fh.Size)
			_ = src.Close()
			if err != nil {
				Error("upload_store_failed", map[string]any{"rid": rid, "file": fh.Filename}, err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			storedBytes += fh.Size
		}

		GetMetrics().RecordUpload(len(files), storedBytes)
		Info("upload_stored", map[string]any{
			"rid":        rid,
			"user_id":    userID,
			"file_count": len(files),
			"bytes":      storedBytes,
		})

		writeJSON(w, http.StatusOK, map[string]any{
			"message":    fmt.Sprintf("%d file(s) uploaded successfully", len(files)),
			"fileCount":  len(files),
			"uploadedBy": userID,
		})
	}))
}
