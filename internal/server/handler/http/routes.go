// Package http provides HTTP routing and middleware configuration
// for the TenderBoard sync and audit service.
package http

import (
	"net/http"

	"github.com/tenderboard/tenderboard/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the
// TenderBoard API. It applies request logging everywhere and JSON
// content-type enforcement on the JSON routes (file uploads are multipart
// and stay outside that group).
//
// Routes:
//
//	GET    /api/sync           → syncHandler.Pull
//	POST   /api/sync           → syncHandler.Push
//	GET    /api/changelog      → changelogHandler.Query
//	POST   /api/changelog      → changelogHandler.Append
//	DELETE /api/changelog      → changelogHandler.Prune
//	GET    /api/online-users   → presenceHandler.List
//	POST   /api/online-users   → presenceHandler.Update
//	GET    /api/files          → filesHandler.List
//	POST   /api/files          → filesHandler.Upload
//	GET    /api/files/{id}     → filesHandler.Download
func NewRouter(
	syncHandler *SyncHandler,
	changelogHandler *ChangelogHandler,
	presenceHandler *PresenceHandler,
	filesHandler *FilesHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	// Mount API routes
	r.Route("/api", func(r chi.Router) {
		// JSON endpoints
		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.AllowContentType("application/json"))

			r.Get("/sync", syncHandler.Pull)
			r.Post("/sync", syncHandler.Push)

			r.Get("/changelog", changelogHandler.Query)
			r.Post("/changelog", changelogHandler.Append)
			r.Delete("/changelog", changelogHandler.Prune)

			r.Get("/online-users", presenceHandler.List)
			r.Post("/online-users", presenceHandler.Update)
		})

		// File endpoints: uploads are multipart, downloads are raw bytes
		r.Get("/files", filesHandler.List)
		r.Post("/files", filesHandler.Upload)
		r.Get("/files/{id}", filesHandler.Download)
	})

	return r
}
