package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	utils "mediadrop/internal"
)

type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type Options struct {
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	Endpoint      string
	PublicBaseURL string
	URLTTL        time.Duration
}

// Client stores uploads in an S3-compatible bucket.
type Client struct {
	s3Client      objectAPI
	presigner     presignAPI
	bucket        string
	publicBaseURL string
	urlTTL        time.Duration
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := opts.URLTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Client{
		s3Client:      s3Client,
		presigner:     s3.NewPresignClient(s3Client),
		bucket:        opts.Bucket,
		publicBaseURL: strings.TrimSuffix(opts.PublicBaseURL, "/"),
		urlTTL:        ttl,
	}, nil
}

// ObjectKey builds folder/publicID.ext, defaulting publicID to the file's
// base name without extension.
func ObjectKey(filePath, folder, publicID string) string {
	if publicID == "" {
		publicID = utils.BaseName(filePath)
	}
	return path.Join(folder, publicID+strings.ToLower(filepath.Ext(filePath)))
}

// Upload stores the file at filePath and returns a URL for it.
func (c *Client) Upload(ctx context.Context, filePath, folder, publicID string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("file not found: %w", err)
	}
	defer f.Close()

	contentType, err := detectContentType(f)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	if folder == "" {
		folder = "uploads"
	}
	key := ObjectKey(filePath, folder, publicID)

	if err := c.PutObject(ctx, key, f, contentType); err != nil {
		return "", fmt.Errorf("failed to upload object to S3: %w", err)
	}

	return c.ObjectURL(ctx, key)
}

func (c *Client) PutObject(ctx context.Context, key string, body io.Reader, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	_, err := c.s3Client.PutObject(ctx, input)
	return err
}

// ObjectURL is PublicBaseURL/key when a public base is configured,
// otherwise a presigned GET URL.
func (c *Client) ObjectURL(ctx context.Context, key string) (string, error) {
	if c.publicBaseURL != "" {
		return c.publicBaseURL + "/" + key, nil
	}

	request, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = c.urlTTL
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign object URL: %w", err)
	}

	return request.URL, nil
}

// Read the first 512 bytes to determine the MIME type
func detectContentType(f io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}
