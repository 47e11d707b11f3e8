package cloudinary

import (
	"crypto/sha1"
	"encoding/hex"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultVideoExtensions select the "video" resource type.
var DefaultVideoExtensions = []string{".mov", ".mp4", ".avi", ".webm", ".mkv", ".flv"}

// Params are the signed fields of an upload request.
type Params map[string]string

// Sign computes the request signature Cloudinary verifies: key=value pairs
// sorted by key, joined with '&', the secret appended as-is, SHA-1 hex.
func Sign(params Params, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

// ResourceType returns "video" when path has one of videoExts (or the
// defaults when none are given), compared case-insensitively, else "image".
func ResourceType(path string, videoExts ...string) string {
	if len(videoExts) == 0 {
		videoExts = DefaultVideoExtensions
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, v := range videoExts {
		if ext != "" && ext == strings.ToLower(v) {
			return "video"
		}
	}
	return "image"
}
