// Package multipart isolates the first file part of a multipart/form-data body.
//
// It is a narrow byte scanner rather than a general MIME reader: only the first
// part carrying a filename attribute is returned and every offset is bounds
// checked so malformed input is reported instead of sliced blindly.
package multipart

import (
	"bytes"
	"errors"
	"strings"
)

var (
	ErrNoBoundary = errors.New("multipart boundary not found")
	ErrNoFile     = errors.New("no file part found")
	ErrMalformed  = errors.New("malformed multipart body")
)

var (
	crlf           = []byte("\r\n")
	headerBodySep  = []byte("\r\n\r\n")
	filenameMarker = []byte("filename=")
)

// File is the payload and declared filename of an extracted part.
type File struct {
	Data     []byte
	Filename string
}

// Boundary returns the boundary token declared in a multipart Content-Type header.
func Boundary(contentType string) ([]byte, error) {
	_, rest, found := strings.Cut(contentType, "boundary=")
	if !found {
		return nil, ErrNoBoundary
	}
	if i := strings.IndexByte(rest, ';'); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.Trim(strings.TrimSpace(rest), `"`)
	if rest == "" {
		return nil, ErrNoBoundary
	}
	return []byte(rest), nil
}

// Extract returns the first part in body that declares a filename.
// Later parts are ignored.
func Extract(body, boundary []byte) (*File, error) {
	if len(boundary) == 0 {
		return nil, ErrNoBoundary
	}

	delim := append([]byte("--"), boundary...)
	for _, part := range bytes.Split(body, delim) {
		if !bytes.Contains(part, filenameMarker) {
			continue
		}
		return extractPart(part)
	}

	return nil, ErrNoFile
}

func extractPart(part []byte) (*File, error) {
	var filename string
	for _, line := range bytes.Split(part, crlf) {
		_, after, found := bytes.Cut(line, filenameMarker)
		if !found {
			continue
		}
		filename = string(bytes.Trim(after, `"`))
		break
	}

	sep := bytes.Index(part, headerBodySep)
	if sep < 0 {
		return nil, ErrMalformed
	}
	start := sep + len(headerBodySep)

	// The last CRLF precedes the next boundary delimiter.
	end := bytes.LastIndex(part, crlf)
	if end < start {
		return nil, ErrMalformed
	}

	return &File{Data: part[start:end], Filename: filename}, nil
}
