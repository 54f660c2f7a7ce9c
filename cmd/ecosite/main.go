package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecologia-integral/ecosite/internal/auth"
	"github.com/ecologia-integral/ecosite/internal/blobstore"
	"github.com/ecologia-integral/ecosite/internal/blobstore/local"
	"github.com/ecologia-integral/ecosite/internal/blobstore/s3"
	"github.com/ecologia-integral/ecosite/internal/captioner"
	claudecaptioner "github.com/ecologia-integral/ecosite/internal/captioner/claude"
	ollamacaptioner "github.com/ecologia-integral/ecosite/internal/captioner/ollama"
	"github.com/ecologia-integral/ecosite/internal/config"
	"github.com/ecologia-integral/ecosite/internal/content"
	"github.com/ecologia-integral/ecosite/internal/db"
	"github.com/ecologia-integral/ecosite/internal/logging"
	"github.com/ecologia-integral/ecosite/internal/notify"
	"github.com/ecologia-integral/ecosite/internal/notify/telegram"
	"github.com/ecologia-integral/ecosite/internal/service"
	"github.com/ecologia-integral/ecosite/internal/store"
	"github.com/ecologia-integral/ecosite/internal/web"
	"github.com/ecologia-integral/ecosite/internal/web/templates"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := logging.New(logging.Options{
		Level:     cfg.LogLevel,
		File:      cfg.LogFile,
		SentryDSN: cfg.SentryDSN,
		AppEnv:    cfg.AppEnv,
	})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		cleanup()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	site, err := content.Load()
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	reviewStore := store.NewReviewStore(database)
	galleryStore := store.NewGalleryStore(database)

	blobs, media, err := newBlobStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	notifier, err := newNotifier(ctx, cfg, logger)
	if err != nil {
		return err
	}

	reviewService := service.NewReviewService(reviewStore, notifier, logger)
	galleryService := service.NewGalleryService(galleryStore, blobs, newCaptioner(cfg, logger), logger)

	server := web.NewServer(web.Options{
		Site:          site,
		Reviews:       reviewService,
		Gallery:       galleryService,
		Auth:          auth.NewAuthenticator(cfg.AdminPasswordHash, cfg.SessionSecret, cfg.SessionTTL),
		Media:         media,
		MediaOrigin:   originOf(blobs.PublicURL("probe")),
		Templates:     templates.FS,
		Static:        templates.Static(),
		SecureCookies: cfg.AppEnv == "production",
		Logger:        logger,
	})

	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newBlobStore returns the configured store and, for the local backend, the
// Opener the web server serves media from.
func newBlobStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (blobstore.BlobStore, blobstore.Opener, error) {
	switch cfg.BlobBackend {
	case "s3":
		st, err := s3.New(s3.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := st.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		logger.Info("using s3 blob store", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
		return st, nil, nil
	default:
		st, err := local.New(cfg.BlobLocalPath, cfg.PublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using local blob store", "path", cfg.BlobLocalPath)
		return st, st, nil
	}
}

func newCaptioner(cfg *config.Config, logger *slog.Logger) captioner.Captioner {
	switch cfg.CaptionBackend {
	case "claude":
		logger.Info("using Claude caption suggestions", "model", cfg.ClaudeModel)
		return claudecaptioner.New(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case "ollama":
		logger.Info("using Ollama caption suggestions", "model", cfg.OllamaModel)
		return ollamacaptioner.New(cfg.OllamaHost, cfg.OllamaModel)
	default:
		return nil
	}
}

func newNotifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (notify.Notifier, error) {
	if !cfg.TelegramEnabled() {
		return notify.Nop{}, nil
	}
	n, err := telegram.New(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
	if err != nil {
		return nil, err
	}
	go n.Run(ctx)
	logger.Info("telegram review notifications enabled", "chat_id", cfg.TelegramChatID)
	return n, nil
}

// originOf returns the scheme and host of an absolute URL, or "" for a
// relative one.
func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
