package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"mediadrop/internal/response"
)

type RouterDeps struct {
	Page           *PageAPI
	Upload         http.HandlerFunc
	Metrics        http.Handler
	AllowedOrigins []string
}

// NewRouter builds the HTTP surface. Unknown paths and unsupported methods
// both get a 404.
func NewRouter(deps RouterDeps) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.NotFoundHandler()
	router.MethodNotAllowedHandler = http.NotFoundHandler()

	router.HandleFunc("/", deps.Page.HandleIndex).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/index.html", deps.Page.HandleIndex).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/upload", deps.Upload).Methods(http.MethodPost)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Plain(w, http.StatusOK, "OK")
	}).Methods(http.MethodGet)
	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics).Methods(http.MethodGet)
	}

	var handler http.Handler = router
	if len(deps.AllowedOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins: deps.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		})
		handler = c.Handler(handler)
	}

	return RequestLogger(Recover(handler))
}
