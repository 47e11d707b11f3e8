package service

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	_ "image/gif"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"golang.org/x/exp/slog"

	"mediadrop/internal/config"
)

var optimizableExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// DefaultMaxPixels bounds the decoded size of an image. Larger images are
// uploaded as-is instead of being decoded.
const DefaultMaxPixels = 40_000_000

// ImageService downsizes and re-encodes images before they are uploaded.
type ImageService struct {
	opts      config.ImageOptions
	maxPixels int64
}

func NewImageService(opts config.ImageOptions) *ImageService {
	return &ImageService{opts: opts, maxPixels: DefaultMaxPixels}
}

// Enabled reports whether any transformation is configured.
func (s *ImageService) Enabled() bool {
	return s.opts.MaxWidth > 0 || s.opts.ConvertTo != ""
}

// Optimize returns the data to upload and its extension. Non-images and
// data that fails to decode are passed through untouched.
func (s *ImageService) Optimize(data []byte, ext string) ([]byte, string, error) {
	lowerExt := strings.ToLower(ext)
	if !s.Enabled() || !optimizableExts[lowerExt] {
		return data, ext, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		slog.Debug("skipping image optimization", "ext", ext, "error", err)
		return data, ext, nil
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels <= 0 || pixels > s.maxPixels {
		slog.Warn("skipping image optimization, dimensions out of bounds",
			"width", cfg.Width, "height", cfg.Height, "max_pixels", s.maxPixels)
		return data, ext, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Debug("skipping image optimization", "ext", ext, "error", err)
		return data, ext, nil
	}

	target := normalizeFormat(s.opts.ConvertTo, format)

	resized := false
	if s.opts.MaxWidth > 0 && img.Bounds().Dx() > s.opts.MaxWidth {
		img = imaging.Resize(img, s.opts.MaxWidth, 0, imaging.Lanczos)
		resized = true
	}
	if !resized && target == format {
		return data, ext, nil
	}

	var buf bytes.Buffer
	newExt := lowerExt
	switch target {
	case "jpeg", "jpg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.quality()})
		newExt = ".jpg"
	case "png":
		err = png.Encode(&buf, img)
		newExt = ".png"
	case "webp":
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(s.quality())})
		newExt = ".webp"
	default:
		// gif and any other decoded format are re-encoded as PNG
		err = png.Encode(&buf, img)
		newExt = ".png"
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}

	if lowerExt == ".jpeg" && newExt == ".jpg" {
		newExt = ext
	}
	return buf.Bytes(), newExt, nil
}

func (s *ImageService) quality() int {
	if s.opts.Quality <= 0 || s.opts.Quality > 100 {
		return 90
	}
	return s.opts.Quality
}

// normalizeFormat maps an empty target to the decoded format and "jpg" to
// the "jpeg" name the decoder reports.
func normalizeFormat(target, decoded string) string {
	if target == "" {
		return decoded
	}
	if target == "jpg" {
		return "jpeg"
	}
	return target
}
