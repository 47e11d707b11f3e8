package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"mediadrop/internal/cloudinary"
	applog "mediadrop/internal/log"
	"mediadrop/internal/metrics"
	"mediadrop/internal/multipart"
)

type Options struct {
	Backend         string
	Folder          string
	TempDir         string
	VideoExtensions []string
}

type Service struct {
	uploader  Uploader
	optimizer Optimizer
	metrics   *metrics.Recorder
	opts      Options
}

// NewService wires an Uploader into the request flow. optimizer and
// recorder may be nil.
func NewService(uploader Uploader, optimizer Optimizer, recorder *metrics.Recorder, opts Options) *Service {
	if opts.Folder == "" {
		opts.Folder = "uploads"
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	return &Service{
		uploader:  uploader,
		optimizer: optimizer,
		metrics:   recorder,
		opts:      opts,
	}
}

// Process extracts the first file in body, stages it in a temp file, uploads
// it and returns the hosted URL. The temp file is removed on every path.
func (s *Service) Process(ctx context.Context, body, boundary []byte) (string, error) {
	file, err := multipart.Extract(body, boundary)
	if err != nil {
		switch {
		case errors.Is(err, multipart.ErrNoFile):
			return "", s.reject(inputError(MsgNoFile, err))
		case errors.Is(err, multipart.ErrNoBoundary):
			return "", s.reject(inputError(MsgMissingBoundary, err))
		default:
			return "", s.reject(inputError(MsgMalformedBody, err))
		}
	}
	if file.Filename == "" || len(file.Data) == 0 {
		return "", s.reject(inputError(MsgNoFile, nil))
	}

	logger := applog.FromContext(ctx)
	logger.Debug("extracted file", "filename", file.Filename, "size", len(file.Data))

	data, ext := file.Data, filepath.Ext(file.Filename)
	if s.optimizer != nil {
		data, ext, err = s.optimizer.Optimize(data, ext)
		if err != nil {
			return "", s.reject(internalError(fmt.Errorf("failed to optimize image: %w", err)))
		}
	}

	var url string
	err = withTempFile(s.opts.TempDir, ext, data, func(path string) error {
		resourceType := cloudinary.ResourceType(path, s.opts.VideoExtensions...)
		start := time.Now()

		var uerr error
		url, uerr = s.uploader.Upload(ctx, path, s.opts.Folder, "")
		outcome := metrics.OutcomeSuccess
		if uerr != nil {
			outcome = metrics.OutcomeUpstream
		}
		s.metrics.Observe(s.opts.Backend, resourceType, outcome, int64(len(data)), time.Since(start))

		if uerr != nil {
			logger.Error("upload failed", "backend", s.opts.Backend, "resource_type", resourceType, "error", uerr)
			return upstreamError(uerr)
		}
		logger.Info("upload complete", "backend", s.opts.Backend, "resource_type", resourceType, "url", url)
		return nil
	})
	if err != nil {
		uerr := AsError(err)
		if uerr.Kind == KindInternal {
			s.metrics.Rejected(s.opts.Backend, metrics.OutcomeInternal)
		}
		return "", uerr
	}

	return url, nil
}

// Reject records a request refused before reaching the backend.
func (s *Service) Reject(err *Error) *Error {
	return s.reject(err)
}

func (s *Service) reject(err *Error) *Error {
	outcome := metrics.OutcomeInput
	if err.Kind == KindInternal {
		outcome = metrics.OutcomeInternal
	}
	s.metrics.Rejected(s.opts.Backend, outcome)
	return err
}

// withTempFile writes data to a uniquely named file in dir that keeps ext,
// runs fn with its path and always removes the file afterwards.
func withTempFile(dir, ext string, data []byte, fn func(path string) error) error {
	path := filepath.Join(dir, uuid.NewString()+ext)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return internalError(fmt.Errorf("failed to create temp file: %w", err))
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			slog.Warn("failed to remove temp file", "path", path, "error", rmErr)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return internalError(fmt.Errorf("failed to write temp file: %w", err))
	}
	if err := f.Close(); err != nil {
		return internalError(fmt.Errorf("failed to write temp file: %w", err))
	}

	return fn(path)
}
