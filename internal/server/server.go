// Package server wires the feature packages into one HTTP handler.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/fkhayef/studygroup/docs"
	"github.com/fkhayef/studygroup/internal/config"
	"github.com/fkhayef/studygroup/internal/events"
	"github.com/fkhayef/studygroup/internal/file"
	"github.com/fkhayef/studygroup/internal/group"
	"github.com/fkhayef/studygroup/internal/message"
	"github.com/fkhayef/studygroup/internal/notification"
	"github.com/fkhayef/studygroup/internal/session"
	"github.com/fkhayef/studygroup/internal/task"
	"github.com/fkhayef/studygroup/internal/user"
	mw "github.com/fkhayef/studygroup/pkg/middleware"
	"github.com/fkhayef/studygroup/pkg/response"
)

// Deps are the process wide resources the server is built from
type Deps struct {
	Config    *config.Config
	DB        *sqlx.DB
	Blobs     *file.DiskStore
	Publisher events.Publisher
	Log       *zap.Logger
}

// Server holds the assembled router and the services main needs directly
type Server struct {
	Router http.Handler
	Users  *user.Service
}

// New builds every feature from its repository up and mounts the routes
func New(deps Deps) *Server {
	cfg, db, log := deps.Config, deps.DB, deps.Log

	tokens := session.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	hasher := user.NewBcryptHasher(cfg.BcryptCost)
	requireAuth := mw.Authenticate(tokens)

	// User feature
	userService := user.NewService(user.NewRepository(db), hasher, log)
	userHandler := user.NewHandler(userService, tokens, requireAuth, log)

	// Notification feature
	notificationService := notification.NewService(notification.NewRepository(db))
	notificationHandler := notification.NewHandler(notificationService, log)

	// Group feature
	groupService := group.NewService(group.NewRepository(db), hasher, notificationService, deps.Publisher, deps.Blobs, log)
	groupHandler := group.NewHandler(groupService, log)

	// Group scoped features
	taskHandler := task.NewHandler(task.NewService(task.NewRepository(db)), log)
	fileService := file.NewService(file.NewRepository(db), deps.Blobs, groupService, cfg.MaxUploadBytes, log)
	fileHandler := file.NewHandler(fileService, cfg.MaxUploadBytes, log)
	messageHandler := message.NewHandler(message.NewService(message.NewRepository(db)), log)

	groupHandler.MountScoped("/tasks", taskHandler.Routes())
	groupHandler.MountScoped("/files", fileHandler.Routes())
	groupHandler.MountScoped("/messages", messageHandler.Routes())

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", health(db))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Mount("/auth", userHandler.Routes())

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/groups/files/{fileId}/download", fileHandler.Download)
		r.Mount("/groups", groupHandler.Routes())
		r.Mount("/notifications", notificationHandler.Routes())
	})

	return &Server{Router: r, Users: userService}
}

// health handles GET /health
// @Summary      Liveness check
// @Tags         system
// @Produce      json
// @Success      200 {object} response.APIResponse
// @Failure      503 {object} response.APIResponse
// @Router       /health [get]
func health(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Database unreachable")
			return
		}
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
