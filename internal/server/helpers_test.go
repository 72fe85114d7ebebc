package server

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"
)

// newTestConfig builds a Config with a fresh store and a temp upload dir,
// so every test starts from an empty world.
func newTestConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Build: BuildInfo{Version: "test"},
		Auth:  AuthConfig{Secret: "test-secret", TokenTTL: time.Hour},
		Users: NewUserStore(),
		Blobs: NewDiskStore(t.TempDir()),
	}
}

// testFile describes one part of a multipart upload body.
type testFile struct {
	field       string
	name        string
	contentType string
	content     []byte
}

// jpegFile is a shorthand for a small valid-typed image part.
func jpegFile(name string, size int) testFile {
	return testFile{
		field:       uploadFieldName,
		name:        name,
		contentType: "image/jpeg",
		content:     bytes.Repeat([]byte{0xff}, size),
	}
}

// multipartBody encodes the files into a multipart body and returns it
// with the matching Content-Type header value.
func multipartBody(t *testing.T, files ...testFile) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			`form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)

		part, err := writer.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(f.content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}
