//	@title			AnyDownloader API
//	@version		1.0
//	@description	Accepts a media URL, downloads it with yt-dlp, uploads the file to object storage, and returns a time-limited authenticated download link.
//
//	@host		localhost:8080
//	@BasePath	/

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/anydownloader/service/internal/config"
	"github.com/anydownloader/service/internal/download"
	"github.com/anydownloader/service/internal/fetch"
	appMiddleware "github.com/anydownloader/service/internal/middleware"
	"github.com/anydownloader/service/internal/storage"

	_ "github.com/anydownloader/service/docs/swagger"
)

func main() {
	cfg := config.Load()

	if err := fetch.Install(context.Background()); err != nil {
		log.Fatalf("yt-dlp setup failed: %v", err)
	}

	var store storage.Storage
	var local *storage.LocalStorage
	switch cfg.StorageBackend {
	case "local":
		l, err := storage.NewLocalStorage(cfg.DownloadDir, []byte(cfg.LinkSigningSecret), cfg.PublicBaseURL)
		if err != nil {
			log.Fatalf("local storage init failed: %v", err)
		}
		local, store = l, l
	case "s3":
		s, err := storage.NewMinioStorage(
			cfg.StorageEndpoint,
			cfg.StorageKeyID,
			cfg.StorageApplicationKey,
			cfg.StorageBucket,
			cfg.StorageUseSSL,
		)
		if err != nil {
			log.Fatalf("object storage init failed: %v", err)
		}
		store = s
	default:
		log.Fatalf("unknown STORAGE_BACKEND %q (want s3 or local)", cfg.StorageBackend)
	}

	// Wire dependencies: fetcher → pipeline service → handler
	dl := fetch.New(fetch.Options{
		CookiesFile:        cfg.CookiesFile,
		CookiesFromBrowser: cfg.CookiesFromBrowser,
	})
	svc := download.NewService(dl, store, cfg.LinkTTL)
	handler := download.NewHandler(svc)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check: liveness only, no dependency probing.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI — available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api", func(r chi.Router) {
		// Bound in-flight pipelines; excess requests queue here.
		r.Use(chiMiddleware.Throttle(cfg.MaxConcurrentDownloads))
		r.Post("/download-and-upload", handler.DownloadAndUpload)
	})

	// The local backend serves its own objects back.
	if local != nil {
		r.Get("/downloads/*", local.ServeDownload)
	}

	if !cfg.IsProduction() {
		r.Post("/debug/storage", handler.DebugStorage)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
		// No WriteTimeout: pipeline requests legitimately run for minutes
		// while yt-dlp and the upload do their work. The reverse proxy in
		// front of this process sets the coarse request deadline.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on :%s (env=%s, storage=%s)", cfg.Port, cfg.AppEnv, cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}
