package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string
	Commit  string
}

// Config wires the server's dependencies. Tests construct it directly
// with a fresh UserStore and a temp-dir DiskStore.
type Config struct {
	Addr    string // e.g. ":8080"
	Build   BuildInfo
	Auth    AuthConfig
	Users   *UserStore
	Blobs   BlobStore
	Uploads UploadLimits
}

// Server owns the http.Server lifecycle.
type Server struct {
	httpServer *http.Server
}

// Routes returns the full handler tree with the middleware chain applied.
// Split out from New so tests can drive it through httptest directly.
func (cfg Config) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/register", cfg.registerHandler())
	mux.Handle("/login", cfg.loginHandler())
	mux.Handle("/upload", cfg.uploadHandler())
	mux.Handle("/health", cfg.healthHandler())
	mux.Handle("/metrics", NewPrometheusExporter(cfg.Build.Version).Handler())

	// Wrap middleware: requestID -> logging -> securityHeaders -> mux
	var handler http.Handler = mux
	handler = securityHeadersMiddleware(handler)
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

// New builds the server around the configured routes.
func New(cfg Config) *Server {
	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           cfg.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{httpServer: s}
}

// Start listens and serves until Shutdown or a listener error.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// writeJSON serializes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends the client-facing error contract: a JSON body with a
// single human-readable message. Internals never leak through here.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
