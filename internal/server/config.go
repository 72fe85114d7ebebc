// config.go - Environment configuration loading and fail-fast validation.
//
// All settings come from IMD_-prefixed environment variables, validated in
// one pass at startup so a misconfigured process refuses to boot with every
// problem listed, rather than failing at request time.
package server

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backend selectors for IMD_STORAGE.
const (
	StorageDisk  = "disk"
	StorageMinio = "minio"
)

// Settings is the raw configuration read from the environment.
type Settings struct {
	Addr      string
	JWTSecret string
	TokenTTL  time.Duration

	Storage   string
	UploadDir string
	Minio     MinioConfig

	MaxFiles     int
	MaxFileBytes int64

	Version string
	Commit  string
}

// ConfigValidationError describes a single invalid setting.
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e ConfigValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// ConfigValidator collects validation errors across all settings.
type ConfigValidator struct {
	errors []ConfigValidationError
}

// AddError records a validation failure.
func (v *ConfigValidator) AddError(field, message string) {
	v.errors = append(v.errors, ConfigValidationError{Field: field, Message: message})
}

// HasErrors reports whether any setting failed validation.
func (v *ConfigValidator) HasErrors() bool {
	return len(v.errors) > 0
}

// ErrorString returns a formatted list of all errors.
func (v *ConfigValidator) ErrorString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d error(s):\n", len(v.errors))
	for i, err := range v.errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// LoadSettings reads the environment and validates it. The returned
// validator carries every problem found; callers must refuse to start
// when it has errors.
func LoadSettings() (Settings, *ConfigValidator) {
	v := &ConfigValidator{}

	s := Settings{
		Addr:      getenv("IMD_ADDR", ":8080"),
		JWTSecret: os.Getenv("IMD_JWT_SECRET"),
		TokenTTL:  time.Hour,
		Storage:   getenv("IMD_STORAGE", StorageDisk),
		UploadDir: getenv("IMD_UPLOAD_DIR", "uploads"),
		Minio: MinioConfig{
			Endpoint:  os.Getenv("IMD_S3_ENDPOINT"),
			AccessKey: os.Getenv("IMD_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("IMD_S3_SECRET_KEY"),
			Bucket:    os.Getenv("IMD_BUCKET"),
		},
		MaxFiles:     10,
		MaxFileBytes: 5 << 20,
		Version:      getenv("IMD_VERSION", "dev"),
		Commit:       getenv("IMD_COMMIT", "unknown"),
	}

	if s.JWTSecret == "" {
		v.AddError("IMD_JWT_SECRET", "must be set; refusing to sign tokens without a secret")
	}

	if raw := os.Getenv("IMD_TOKEN_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		switch {
		case err != nil:
			v.AddError("IMD_TOKEN_TTL", fmt.Sprintf("invalid duration %q", raw))
		case ttl <= 0:
			v.AddError("IMD_TOKEN_TTL", "must be positive")
		default:
			s.TokenTTL = ttl
		}
	}

	if raw := os.Getenv("IMD_MAX_FILES"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			v.AddError("IMD_MAX_FILES", fmt.Sprintf("must be a positive integer, got %q", raw))
		} else {
			s.MaxFiles = n
		}
	}

	if raw := os.Getenv("IMD_MAX_FILE_BYTES"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			v.AddError("IMD_MAX_FILE_BYTES", fmt.Sprintf("must be a positive integer, got %q", raw))
		} else {
			s.MaxFileBytes = n
		}
	}

	switch s.Storage {
	case StorageDisk:
		if s.UploadDir == "" {
			v.AddError("IMD_UPLOAD_DIR", "must not be empty")
		}
	case StorageMinio:
		if s.Minio.Endpoint == "" || s.Minio.AccessKey == "" || s.Minio.SecretKey == "" || s.Minio.Bucket == "" {
			v.AddError("IMD_S3_ENDPOINT", "minio storage needs IMD_S3_ENDPOINT, IMD_S3_ACCESS_KEY, IMD_S3_SECRET_KEY, and IMD_BUCKET")
		} else if _, _, err := normaliseEndpoint(s.Minio.Endpoint); err != nil {
			v.AddError("IMD_S3_ENDPOINT", err.Error())
		}
	default:
		v.AddError("IMD_STORAGE", fmt.Sprintf("unknown backend %q (want %q or %q)", s.Storage, StorageDisk, StorageMinio))
	}

	return s, v
}
