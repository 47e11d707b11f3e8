package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setCredentials(t *testing.T, cloudName, apiKey, apiSecret string) {
	t.Helper()
	t.Setenv("CLOUDINARY_CLOUD_NAME", cloudName)
	t.Setenv("CLOUDINARY_API_KEY", apiKey)
	t.Setenv("CLOUDINARY_API_SECRET", apiSecret)
}

func TestLoad_Defaults(t *testing.T) {
	setCredentials(t, "demo", "key", "secret")
	t.Setenv("PORT", "")
	t.Setenv("UPLOAD_BACKEND", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("UPLOAD_TIMEOUT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected port 8000, got %s", cfg.Port)
	}
	if cfg.Backend != BackendCloudinary {
		t.Errorf("Expected backend %s, got %s", BackendCloudinary, cfg.Backend)
	}
	if cfg.Folder != "uploads" {
		t.Errorf("Expected folder 'uploads', got %s", cfg.Folder)
	}
	if cfg.MaxUploadBytes != 100<<20 {
		t.Errorf("Expected default max upload bytes, got %d", cfg.MaxUploadBytes)
	}
	if cfg.UploadTimeout != 60*time.Second {
		t.Errorf("Expected 60s timeout, got %s", cfg.UploadTimeout)
	}
	if cfg.Cloudinary.CloudName != "demo" || cfg.Cloudinary.APIKey != "key" || cfg.Cloudinary.APISecret != "secret" {
		t.Errorf("Unexpected credentials: %+v", cfg.Cloudinary)
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	tests := []struct {
		name      string
		cloudName string
		apiKey    string
		apiSecret string
		missing   []string
	}{
		{"all missing", "", "", "", []string{"CLOUDINARY_CLOUD_NAME", "CLOUDINARY_API_KEY", "CLOUDINARY_API_SECRET"}},
		{"cloud name missing", "", "key", "secret", []string{"CLOUDINARY_CLOUD_NAME"}},
		{"api key missing", "demo", "", "secret", []string{"CLOUDINARY_API_KEY"}},
		{"api secret missing", "demo", "key", "", []string{"CLOUDINARY_API_SECRET"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setCredentials(t, tt.cloudName, tt.apiKey, tt.apiSecret)
			t.Setenv("UPLOAD_BACKEND", "")

			cfg, err := Load()
			if err == nil {
				t.Fatalf("Expected error, got config %+v", cfg)
			}

			var missingErr *MissingCredentialsError
			if !errors.As(err, &missingErr) {
				t.Fatalf("Expected MissingCredentialsError, got %T: %v", err, err)
			}
			if len(missingErr.Missing) != len(tt.missing) {
				t.Fatalf("Expected missing %v, got %v", tt.missing, missingErr.Missing)
			}
			for i := range tt.missing {
				if missingErr.Missing[i] != tt.missing[i] {
					t.Errorf("Expected missing[%d] = %s, got %s", i, tt.missing[i], missingErr.Missing[i])
				}
			}
		})
	}
}

func TestLoad_S3BackendSkipsCloudinaryCredentials(t *testing.T) {
	setCredentials(t, "", "", "")
	t.Setenv("UPLOAD_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "media")
	t.Setenv("S3_PUBLIC_BASE_URL", "https://cdn.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.S3PublicBaseURL != "https://cdn.example.com" {
		t.Errorf("Expected trailing slash trimmed, got %s", cfg.S3PublicBaseURL)
	}

	t.Setenv("S3_BUCKET", "")
	if _, err := Load(); err == nil {
		t.Error("Expected error when S3_BUCKET is empty")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric max bytes", "MAX_UPLOAD_BYTES", "lots"},
		{"negative max bytes", "MAX_UPLOAD_BYTES", "-1"},
		{"bad timeout", "UPLOAD_TIMEOUT", "soon"},
		{"unknown backend", "UPLOAD_BACKEND", "ftp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setCredentials(t, "demo", "key", "secret")
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_CORSOrigins(t *testing.T) {
	setCredentials(t, "demo", "key", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://app.example.com,,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("Expected 2 origins, got %v", cfg.CORSOrigins)
	}
	if cfg.CORSOrigins[1] != "https://app.example.com" {
		t.Errorf("Expected trimmed origin, got %q", cfg.CORSOrigins[1])
	}
}

func TestLoadUploadOptions(t *testing.T) {
	opts, err := LoadUploadOptions("")
	if err != nil {
		t.Fatalf("LoadUploadOptions(\"\") error = %v", err)
	}
	if opts.Image.Quality != 90 || opts.Image.MaxWidth != 0 {
		t.Errorf("Unexpected defaults: %+v", opts.Image)
	}

	path := filepath.Join(t.TempDir(), "upload.yaml")
	content := []byte(`video_extensions: [".mov", ".m4v"]
image:
  max_width: 1024
  quality: 0
  convert_to: WEBP
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err = LoadUploadOptions(path)
	if err != nil {
		t.Fatalf("LoadUploadOptions() error = %v", err)
	}
	if len(opts.VideoExtensions) != 2 || opts.VideoExtensions[1] != ".m4v" {
		t.Errorf("Unexpected video extensions: %v", opts.VideoExtensions)
	}
	if opts.Image.MaxWidth != 1024 {
		t.Errorf("Expected max_width 1024, got %d", opts.Image.MaxWidth)
	}
	if opts.Image.Quality != 90 {
		t.Errorf("Expected quality to fall back to 90, got %d", opts.Image.Quality)
	}
	if opts.Image.ConvertTo != "webp" {
		t.Errorf("Expected convert_to lower-cased, got %s", opts.Image.ConvertTo)
	}
}

func TestLoadUploadOptions_Errors(t *testing.T) {
	if _, err := LoadUploadOptions(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("image:\n  convert_to: tiff\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadUploadOptions(path); err == nil {
		t.Error("Expected error for unsupported convert_to")
	}
}
