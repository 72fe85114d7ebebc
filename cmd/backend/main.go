package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"image-drop/internal/server"
)

func main() {
	// Load .env if present; real environment variables win.
	if err := godotenv.Load(); err == nil {
		log.Printf("service=backend msg=%q", "loaded .env")
	}

	settings, validator := server.LoadSettings()
	if validator.HasErrors() {
		log.Printf("service=backend msg=%q\n%s", "invalid configuration", validator.ErrorString())
		os.Exit(1)
	}

	blobs, err := buildBlobStore(settings)
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "storage_init_failed", err)
		os.Exit(1)
	}

	srv := server.New(server.Config{
		Addr:  settings.Addr,
		Build: server.BuildInfo{Version: settings.Version, Commit: settings.Commit},
		Auth: server.AuthConfig{
			Secret:   settings.JWTSecret,
			TokenTTL: settings.TokenTTL,
		},
		Users: server.NewUserStore(),
		Blobs: blobs,
		Uploads: server.UploadLimits{
			MaxFiles:     settings.MaxFiles,
			MaxFileBytes: settings.MaxFileBytes,
		},
	})

	// Start the HTTP server in a background goroutine.
	// This allows us to listen for OS signals while the server runs.
	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=backend msg=%q addr=%s storage=%s version=%s commit=%s",
			"starting", settings.Addr, settings.Storage, settings.Version, settings.Commit)
		errCh <- srv.Start()
	}()

	// Graceful shutdown on SIGINT (Ctrl+C) or SIGTERM (container stop).
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=backend msg=%q signal=%s", "shutting_down", sig.String())
		// Give the server 5 seconds to finish in-flight requests.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("service=backend msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}

// buildBlobStore selects the upload backend from configuration: local disk
// by default, MinIO when IMD_STORAGE=minio.
func buildBlobStore(settings server.Settings) (server.BlobStore, error) {
	if settings.Storage == server.StorageMinio {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.NewMinioStore(ctx, settings.Minio)
	}
	return server.NewDiskStore(settings.UploadDir), nil
}
