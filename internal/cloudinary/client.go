package cloudinary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	utils "mediadrop/internal"
	"mediadrop/internal/config"
)

const DefaultBaseURL = "https://api.cloudinary.com/v1_1"

// ErrNoSecureURL is returned when a 200 response has no secure_url field.
var ErrNoSecureURL = errors.New("response missing secure_url")

// StatusError is a non-200 answer from the upload API.
type StatusError struct {
	Code    int
	Message string
	Body    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upload failed: %d %s", e.Code, e.Message)
	}
	return fmt.Sprintf("upload failed: %d %s", e.Code, http.StatusText(e.Code))
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const defaultTimeout = 60 * time.Second

type Client struct {
	creds      config.Credentials
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	videoExts  []string
	now        func() time.Time
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient sets the base client. NewClient works on a copy, so hc is
// never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout overrides the request timeout regardless of option order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithVideoExtensions(exts []string) Option {
	return func(c *Client) {
		if len(exts) > 0 {
			c.videoExts = exts
		}
	}
}

// NewClient expects creds already validated by config.LoadCredentials.
func NewClient(creds config.Credentials, opts ...Option) *Client {
	c := &Client{
		creds:      creds,
		baseURL:   DefaultBaseURL,
		videoExts: DefaultVideoExtensions,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := http.Client{Timeout: defaultTimeout}
	if c.httpClient != nil {
		hc = *c.httpClient
	}
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	c.httpClient = &hc

	return c
}

// Endpoint is the upload URL for a resource type.
func (c *Client) Endpoint(resourceType string) string {
	return fmt.Sprintf("%s/%s/%s/upload", c.baseURL, c.creds.CloudName, resourceType)
}

// Upload signs and submits the file at path and returns its secure URL.
// An empty folder means "uploads"; an empty publicID means the file's base
// name without extension.
func (c *Client) Upload(ctx context.Context, path, folder, publicID string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("file not found: %w", err)
	}
	if folder == "" {
		folder = "uploads"
	}
	if publicID == "" {
		publicID = utils.BaseName(path)
	}

	params := Params{
		"folder":    folder,
		"public_id": publicID,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	fields := map[string]string{
		"api_key":   c.creds.APIKey,
		"signature": Sign(params, c.creds.APISecret),
	}
	for k, v := range params {
		fields[k] = v
	}

	resourceType := ResourceType(path, c.videoExts...)
	endpoint := c.Endpoint(resourceType)

	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(mw, fields, path))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	slog.Debug("uploading to cloudinary", "endpoint", endpoint, "resource_type", resourceType, "public_id", publicID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("cloudinary upload rejected", "status", resp.StatusCode, "body", string(body))
		statusErr := &StatusError{Code: resp.StatusCode, Body: string(body)}
		var result uploadResponse
		if json.Unmarshal(body, &result) == nil && result.Error != nil {
			statusErr.Message = result.Error.Message
		}
		return "", statusErr
	}

	var result uploadResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.SecureURL == "" {
		return "", ErrNoSecureURL
	}

	return result.SecureURL, nil
}

func writeForm(mw *multipart.Writer, fields map[string]string, path string) error {
	for _, k := range []string{"folder", "public_id", "timestamp", "api_key", "signature"} {
		if err := mw.WriteField(k, fields[k]); err != nil {
			return err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	return mw.Close()
}
