package upload

import (
	"errors"
	"io"
	"net/http"
	"strings"

	applog "mediadrop/internal/log"
	"mediadrop/internal/multipart"
	"mediadrop/internal/response"
)

type Handler struct {
	uploadService  *Service
	maxUploadBytes int64
}

func NewHandler(uploadService *Service, maxUploadBytes int64) *Handler {
	return &Handler{
		uploadService:  uploadService,
		maxUploadBytes: maxUploadBytes,
	}
}

// HandleUpload handles POST /upload
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if !strings.Contains(contentType, "multipart/form-data") {
		h.writeError(w, r, h.uploadService.Reject(inputError(MsgInvalidContentType, nil)))
		return
	}

	boundary, err := multipart.Boundary(contentType)
	if err != nil {
		h.writeError(w, r, h.uploadService.Reject(inputError(MsgMissingBoundary, err)))
		return
	}

	if h.maxUploadBytes > 0 && r.ContentLength > h.maxUploadBytes {
		h.writeError(w, r, h.uploadService.Reject(tooLarge(nil)))
		return
	}

	reader := r.Body
	if h.maxUploadBytes > 0 {
		reader = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, r, h.uploadService.Reject(tooLarge(err)))
			return
		}
		h.writeError(w, r, h.uploadService.Reject(inputError("Failed to read request body", err)))
		return
	}

	url, err := h.uploadService.Process(r.Context(), body, boundary)
	if err != nil {
		h.writeError(w, r, AsError(err))
		return
	}

	response.URL(w, url)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err *Error) {
	applog.FromContext(r.Context()).Warn("upload rejected", "kind", err.Kind, "status", err.StatusCode(), "error", err)
	response.Error(w, err.StatusCode(), err.Message)
}

func tooLarge(err error) *Error {
	return &Error{Kind: KindInput, Message: MsgTooLarge, Status: http.StatusRequestEntityTooLarge, Err: err}
}
