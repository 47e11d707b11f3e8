package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/exp/slog"

	utils "mediadrop/internal"
	"mediadrop/internal/api"
	"mediadrop/internal/cloudinary"
	"mediadrop/internal/config"
	applog "mediadrop/internal/log"
	"mediadrop/internal/metrics"
	"mediadrop/internal/s3"
	"mediadrop/internal/service"
	"mediadrop/internal/upload"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: .env file could not be loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		var missing *config.MissingCredentialsError
		if errors.As(err, &missing) {
			fmt.Fprintln(os.Stderr, "Set your Cloudinary credentials first:")
			fmt.Fprintln(os.Stderr, "  export CLOUDINARY_CLOUD_NAME='your_cloud_name'")
			fmt.Fprintln(os.Stderr, "  export CLOUDINARY_API_KEY='your_api_key'")
			fmt.Fprintln(os.Stderr, "  export CLOUDINARY_API_SECRET='your_api_secret'")
		}
		utils.Shutdown(fmt.Sprintf("Failed to load config: %v", err))
	}
	applog.Setup(cfg.LogLevel, cfg.LogFormat)

	uploadOptions, err := config.LoadUploadOptions(cfg.OptionsPath)
	if err != nil {
		utils.Shutdown(fmt.Sprintf("Failed to load upload options: %v", err))
	}

	ctx := context.Background()
	uploader, err := newUploader(ctx, cfg, uploadOptions)
	if err != nil {
		utils.Shutdown(fmt.Sprintf("Failed to create %s uploader: %v", cfg.Backend, err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(registry)

	var optimizer upload.Optimizer
	if imageService := service.NewImageService(uploadOptions.Image); imageService.Enabled() {
		optimizer = imageService
	}

	uploadService := upload.NewService(uploader, optimizer, recorder, upload.Options{
		Backend:         cfg.Backend,
		Folder:          cfg.Folder,
		VideoExtensions: uploadOptions.VideoExtensions,
	})
	uploadHandler := upload.NewHandler(uploadService, cfg.MaxUploadBytes)

	router := api.NewRouter(api.RouterDeps{
		Page:           api.NewPageAPI(cfg.IndexPath),
		Upload:         uploadHandler.HandleUpload,
		Metrics:        metrics.Handler(registry),
		AllowedOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: cfg.UploadTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Starting server 🚀", "addr", fmt.Sprintf("http://localhost:%s", cfg.Port), "backend", cfg.Backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Shutdown(fmt.Sprintf("Server failed to start: %v", err))
		}
	}()

	signal.Notify(utils.QuitChan, syscall.SIGINT, syscall.SIGTERM)
	<-utils.QuitChan

	slog.Info("Shutting down server... 🛑")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown 🚨", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func newUploader(ctx context.Context, cfg *config.Config, opts *config.UploadOptions) (upload.Uploader, error) {
	switch cfg.Backend {
	case config.BackendS3:
		return s3.NewClient(ctx, s3.Options{
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.AWSAccessKey,
			SecretKey:     cfg.AWSSecretKey,
			Endpoint:      cfg.S3Endpoint,
			PublicBaseURL: cfg.S3PublicBaseURL,
			URLTTL:        cfg.S3URLTTL,
		})
	default:
		return cloudinary.NewClient(cfg.Cloudinary,
			cloudinary.WithBaseURL(cfg.CloudinaryBase),
			cloudinary.WithTimeout(cfg.UploadTimeout),
			cloudinary.WithVideoExtensions(opts.VideoExtensions),
		), nil
	}
}
