// Package httpapi exposes the editor workflow to the browser UI.
package httpapi

import (
	"embed"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mhpenta/mifoto/session"
)

//go:embed web/index.html
var webFS embed.FS

// Router serves the browser UI and its JSON API.
type Router struct {
	sessions       *session.Registry
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewRouter builds the chi handler. Uploads larger than maxUploadBytes are refused.
func NewRouter(sessions *session.Registry, logger *slog.Logger, maxUploadBytes int64) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{sessions: sessions, logger: logger, maxUploadBytes: maxUploadBytes}
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)

	mux.Get("/health", r.handleHealth)

	mux.Group(func(br chi.Router) {
		br.Use(r.browserMiddleware)
		br.Get("/", r.handleIndex)
		br.Get("/api/v1/state", r.handleState)
		br.Post("/api/v1/credential", r.handleSaveCredential)
		br.Delete("/api/v1/credential", r.handleClearCredential)
		br.Post("/api/v1/credential/select", r.handleSelectCredential)
		br.Post("/api/v1/image", r.handleUpload)
		br.Post("/api/v1/generate", r.handleGenerate)
		br.Post("/api/v1/upscale", r.handleUpscale)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
