package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fkhayef/studygroup/internal/config"
	"github.com/fkhayef/studygroup/internal/database"
	"github.com/fkhayef/studygroup/internal/events"
	"github.com/fkhayef/studygroup/internal/file"
	"github.com/fkhayef/studygroup/internal/server"
)

// @title                       Study Group API
// @version                     1.0
// @description                 Study groups with invite codes, tasks, files and a chat log.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
func main() {
	envFile := pflag.String("env-file", ".env", "path of the .env file to load")
	migrateOnly := pflag.Bool("migrate-only", false, "apply the schema and exit")
	pflag.Parse()

	// Load .env file
	envErr := godotenv.Load(*envFile)

	// Load configuration
	cfg := config.Load()

	log, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if envErr != nil {
		log.Info("no .env file loaded, using environment variables", zap.String("path", *envFile))
	}
	for _, key := range cfg.Warnings {
		log.Warn("invalid configuration value, using default", zap.String("key", key))
	}
	if cfg.UsesDefaultSecret() {
		if cfg.IsProduction() {
			log.Fatal("JWT_SECRET must be set in production")
		}
		log.Warn("JWT_SECRET not set, using the development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}
	log.Info("database ready", zap.String("driver", db.DriverName()))

	if *migrateOnly {
		return
	}

	blobs, err := file.NewDiskStore(cfg.UploadDir)
	if err != nil {
		log.Fatal("failed to prepare upload directory", zap.Error(err))
	}

	publisher := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
	defer func() { _ = publisher.Close() }()
	log.Info("event publisher ready", zap.String("mode", events.Mode(publisher)))

	srv := server.New(server.Deps{
		Config:    cfg,
		DB:        db,
		Blobs:     blobs,
		Publisher: publisher,
		Log:       log,
	})

	if cfg.SeedsDefaultAdmin() {
		created, err := srv.Users.EnsureAccount(ctx, cfg.DefaultAdminName, cfg.DefaultAdminEmail, cfg.DefaultAdminPassword)
		if err != nil {
			log.Fatal("failed to seed default account", zap.Error(err))
		}
		if created {
			log.Info("default account created", zap.String("email", cfg.DefaultAdminEmail))
		}
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}
