package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// newUploadConfig is newTestConfig plus direct access to the upload dir.
func newUploadConfig(t *testing.T) (Config, string) {
	t.Helper()
	cfg := newTestConfig(t)
	dir := t.TempDir()
	cfg.Blobs = NewDiskStore(dir)
	return cfg, dir
}

// doUpload posts the multipart body to the guarded upload handler with a
// freshly issued token for userID.
func doUpload(t *testing.T, cfg Config, userID int, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	tok, err := cfg.Auth.issueToken(userID, time.Now())
	if err != nil {
		t.Fatalf("issueToken error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	cfg.uploadHandler().ServeHTTP(rr, req)
	return rr
}

func storedFiles(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	return entries
}

func TestUploadHandlerRequiresToken(t *testing.T) {
	cfg, _ := newUploadConfig(t)

	body, contentType := multipartBody(t, jpegFile("a.jpg", 16))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	cfg.uploadHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rr.Code)
	}
}

func TestUploadHandlerExpiredToken(t *testing.T) {
	cfg, _ := newUploadConfig(t)

	tok, err := cfg.Auth.issueToken(1, time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("issueToken error: %v", err)
	}

	body, contentType := multipartBody(t, jpegFile("a.jpg", 16))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	cfg.uploadHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for expired token, got %d", rr.Code)
	}
}

func TestUploadHandlerNoFiles(t *testing.T) {
	cfg, dir := newUploadConfig(t)

	body, contentType := multipartBody(t) // empty form
	rr := doUpload(t, cfg, 1, body, contentType)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "no file sent") {
		t.Errorf("unexpected message: %s", rr.Body.String())
	}
	if got := storedFiles(t, dir); len(got) != 0 {
		t.Errorf("expected no stored files, got %d", len(got))
	}
}

func TestUploadHandlerFileCountLimit(t *testing.T) {
	cfg, dir := newUploadConfig(t)

	files := make([]testFile, 11)
	for i := range files {
		files[i] = jpegFile("img.jpg", 16)
	}
	body, contentType := multipartBody(t, files...)
	rr := doUpload(t, cfg, 1, body, contentType)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "file count limit exceeded") {
		t.Errorf("unexpected message: %s", rr.Body.String())
	}
	// Whole batch rejected: nothing may have been persisted.
	if got := storedFiles(t, dir); len(got) != 0 {
		t.Errorf("expected no stored files, got %d", len(got))
	}
}

func TestUploadHandlerRejectsDisallowedType(t *testing.T) {
	cfg, dir := newUploadConfig(t)

	// One bad file poisons the batch even when the others are valid images.
	body, contentType := multipartBody(t,
		jpegFile("a.jpg", 16),
		testFile{field: uploadFieldName, name: "notes.txt", contentType: "text/plain", content: []byte("hi")},
		jpegFile("b.jpg", 16),
	)
	rr := doUpload(t, cfg, 1, body, contentType)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "invalid file type") {
		t.Errorf("unexpected message: %s", rr.Body.String())
	}
	if got := storedFiles(t, dir); len(got) != 0 {
		t.Errorf("expected no stored files, got %d", len(got))
	}
}

func TestMaxFileMBRoundsUp(t *testing.T) {
	tests := []struct {
		bytes int64
		want  int64
	}{
		{5 << 20, 5},
		{1 << 20, 1},
		{512 << 10, 1}, // sub-MiB limits must not print as 0MB
		{1<<20 + 1, 2},
	}
	for _, tt := range tests {
		l := UploadLimits{MaxFileBytes: tt.bytes}
		if got := l.maxFileMB(); got != tt.want {
			t.Errorf("maxFileMB with %d bytes = %d, want %d", tt.bytes, got, tt.want)
		}
	}
}

func TestUploadHandlerFileTooLarge(t *testing.T) {
	cfg, dir := newUploadConfig(t)
	cfg.Uploads = UploadLimits{MaxFileBytes: 1 << 20}

	body, contentType := multipartBody(t, jpegFile("big.jpg", 1<<20+1))
	rr := doUpload(t, cfg, 1, body, contentType)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	// The configured limit must appear in megabytes in the message.
	if !strings.Contains(rr.Body.String(), "file too large") ||
		!strings.Contains(rr.Body.String(), "1MB") {
		t.Errorf("unexpected message: %s", rr.Body.String())
	}
	if got := storedFiles(t, dir); len(got) != 0 {
		t.Errorf("expected no stored files, got %d", len(got))
	}
}

func TestUploadHandlerStoresBatch(t *testing.T) {
	cfg, dir := newUploadConfig(t)

	body, contentType := multipartBody(t,
		jpegFile("first.jpg", 1024),
		testFile{field: uploadFieldName, name: "second.png", contentType: "image/png", content: bytes.Repeat([]byte{1}, 512)},
	)
	rr := doUpload(t, cfg, 9, body, contentType)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Message    string `json:"message"`
		FileCount  int    `json:"fileCount"`
		UploadedBy int    `json:"uploadedBy"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.FileCount != 2 {
		t.Errorf("expected fileCount 2, got %d", resp.FileCount)
	}
	if resp.UploadedBy != 9 {
		t.Errorf("expected uploadedBy 9, got %d", resp.UploadedBy)
	}

	entries := storedFiles(t, dir)
	if len(entries) != 2 {
		t.Fatalf("expected 2 stored files, got %d", len(entries))
	}
	exts := map[string]bool{}
	for _, e := range entries {
		exts[filepath.Ext(e.Name())] = true
	}
	if !exts[".jpg"] || !exts[".png"] {
		t.Errorf("stored names must keep the original extensions, got %v", exts)
	}
}

func TestUploadHandlerIgnoresOtherFields(t *testing.T) {
	cfg, _ := newUploadConfig(t)

	// A file under a different field name does not count as an upload.
	body, contentType := multipartBody(t,
		testFile{field: "attachment", name: "a.jpg", contentType: "image/jpeg", content: []byte{1}},
	)
	rr := doUpload(t, cfg, 1, body, contentType)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "no file sent") {
		t.Errorf("unexpected message: %s", rr.Body.String())
	}
}
