package httpserver

import (
	"net/http"
	"time"

	"docverify/internal/platform/config"
)

// New builds an HTTP server. Write timeout is generous because a submission
// runs the whole analysis pipeline before responding.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
}
