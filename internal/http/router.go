// Package http exposes the core's control surface: credential
// lifecycle management and liveness/readiness probes. Audio/session
// traffic itself never crosses this router — it runs over the Session
// Client's own WebSocket connection — so this stays a small control
// plane, the same shape the teacher's router had before the custom
// AudioStreamService took over the data plane.
package http

import (
	"net/http"

	"caption-core/internal/app"
	"caption-core/internal/credentials"
	"caption-core/internal/kvstore"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	kv, err := kvStoreFor(application)
	if err != nil {
		application.Logger.Error().Err(err).Msg("falling back to in-memory credential store")
		kv = kvstore.NewMem()
	}

	store := credentials.New(kv, credentials.HostFingerprint, application.Cfg.Credential.VerifyURL, application.Cfg.Credential.ServiceName)
	ch := &credentialsHandler{store: store}

	r.Route("/v1/credentials", func(r chi.Router) {
		r.Put("/", ch.save)
		r.Get("/", ch.info)
		r.Delete("/", ch.remove)
	})

	return r
}

func kvStoreFor(application *app.Application) (kvstore.Store, error) {
	path := application.Cfg.Credential.SQLitePath
	if path == "" {
		return kvstore.NewMem(), nil
	}
	return kvstore.OpenSQLite(path)
}
