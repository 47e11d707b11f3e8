package upload

import "context"

// Uploader stores a local file remotely and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, path, folder, publicID string) (string, error)
}

// Optimizer may rewrite file data before upload, changing its extension.
type Optimizer interface {
	Optimize(data []byte, ext string) ([]byte, string, error)
}
