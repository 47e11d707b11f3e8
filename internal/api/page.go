package api

import (
	"errors"
	"io/fs"
	"net/http"
	"os"

	applog "mediadrop/internal/log"
)

// PageAPI serves the static upload page.
type PageAPI struct {
	indexPath string
}

func NewPageAPI(indexPath string) *PageAPI {
	return &PageAPI{indexPath: indexPath}
}

// HandleIndex handles GET / and GET /index.html. The file is read on every
// request so the page can be edited without a restart.
func (p *PageAPI) HandleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := os.ReadFile(p.indexPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		applog.FromContext(r.Context()).Error("failed to read index page", "path", p.indexPath, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}
