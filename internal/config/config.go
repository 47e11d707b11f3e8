package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendCloudinary = "cloudinary"
	BackendS3         = "s3"
)

// Credentials identify the Cloudinary account uploads are signed for.
type Credentials struct {
	CloudName string
	APIKey    string
	APISecret string
}

// MissingCredentialsError lists the credential variables that were absent or empty.
type MissingCredentialsError struct {
	Missing []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("missing Cloudinary credentials: %s", strings.Join(e.Missing, ", "))
}

type Config struct {
	Port           string
	Backend        string
	Folder         string
	MaxUploadBytes int64
	UploadTimeout  time.Duration
	IndexPath      string
	OptionsPath    string
	CORSOrigins    []string
	LogLevel       string
	LogFormat      string

	Cloudinary     Credentials
	CloudinaryBase string

	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	AWSAccessKey    string
	AWSSecretKey    string
	S3PublicBaseURL string
	S3URLTTL        time.Duration
}

// Load reads the process environment once. The returned config is never
// re-read per request; a non-nil error means the server must not start.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8000"),
		Backend:         strings.ToLower(getEnv("UPLOAD_BACKEND", BackendCloudinary)),
		Folder:          getEnv("UPLOAD_FOLDER", "uploads"),
		IndexPath:       getEnv("INDEX_PATH", "index.html"),
		OptionsPath:     getEnv("UPLOAD_CONFIG_PATH", ""),
		CORSOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		CloudinaryBase:  getEnv("CLOUDINARY_API_BASE", "https://api.cloudinary.com/v1_1"),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Region:        getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		AWSAccessKey:    getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3PublicBaseURL: strings.TrimSuffix(getEnv("S3_PUBLIC_BASE_URL", ""), "/"),
	}

	var err error
	if cfg.MaxUploadBytes, err = getEnvInt64("MAX_UPLOAD_BYTES", 100<<20); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", cfg.MaxUploadBytes)
	}
	if cfg.UploadTimeout, err = getEnvDuration("UPLOAD_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.S3URLTTL, err = getEnvDuration("S3_URL_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendCloudinary:
		creds, err := LoadCredentials()
		if err != nil {
			return nil, err
		}
		cfg.Cloudinary = creds
	case BackendS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when UPLOAD_BACKEND=s3")
		}
	default:
		return nil, fmt.Errorf("unknown UPLOAD_BACKEND %q", cfg.Backend)
	}

	return cfg, nil
}

// LoadCredentials returns the Cloudinary credential set or a
// *MissingCredentialsError naming every absent variable.
func LoadCredentials() (Credentials, error) {
	creds := Credentials{
		CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
	}

	var missing []string
	if creds.CloudName == "" {
		missing = append(missing, "CLOUDINARY_CLOUD_NAME")
	}
	if creds.APIKey == "" {
		missing = append(missing, "CLOUDINARY_API_KEY")
	}
	if creds.APISecret == "" {
		missing = append(missing, "CLOUDINARY_API_SECRET")
	}
	if len(missing) > 0 {
		return Credentials{}, &MissingCredentialsError{Missing: missing}
	}
	return creds, nil
}

type ImageOptions struct {
	MaxWidth  int    `yaml:"max_width"`
	Quality   int    `yaml:"quality"`
	ConvertTo string `yaml:"convert_to"`
}

// UploadOptions is the optional YAML side config.
type UploadOptions struct {
	VideoExtensions []string     `yaml:"video_extensions"`
	Image           ImageOptions `yaml:"image"`
}

// LoadUploadOptions parses the YAML file at path. An empty path yields the defaults.
func LoadUploadOptions(path string) (*UploadOptions, error) {
	opts := DefaultUploadOptions()
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload config: %w", err)
	}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("failed to parse upload config: %w", err)
	}

	if opts.Image.Quality <= 0 || opts.Image.Quality > 100 {
		opts.Image.Quality = 90
	}
	opts.Image.ConvertTo = strings.ToLower(opts.Image.ConvertTo)
	switch opts.Image.ConvertTo {
	case "", "jpeg", "jpg", "png", "webp":
	default:
		return nil, fmt.Errorf("unsupported convert_to %q", opts.Image.ConvertTo)
	}

	return opts, nil
}

func DefaultUploadOptions() *UploadOptions {
	return &UploadOptions{
		Image: ImageOptions{Quality: 90},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
