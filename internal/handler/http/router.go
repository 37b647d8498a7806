package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/openlab-hq/labops-backend-go/internal/config"
	"github.com/openlab-hq/labops-backend-go/internal/handler/http/middleware"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/jwt"
)

// NewRouter wires every HTTP surface: the REST API, the websocket endpoint
// and the health check
func NewRouter(
	cfg *config.Config,
	jwtService jwt.Service,
	alertHandler AlertHandler,
	scheduleHandler ScheduleHandler,
	notifHandler NotificationHandler,
	wsHandler WebSocketHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "labops-backend"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))

	// Auth happens on the socket itself via the first frame, not here
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		wsHandler.Serve(w, req)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/alerts", func(r chi.Router) {
				// Staff only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireStaff)
					r.Get("/", alertHandler.List)
					r.Get("/stats", alertHandler.Stats)
					r.Post("/generate", alertHandler.Generate)
					r.Patch("/{alertID}/resolve", alertHandler.Resolve)
				})

				// Admin only
				r.Route("/config", func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Get("/", alertHandler.GetConfigs)
					r.Put("/{alertType}", alertHandler.UpdateConfig)
				})
			})

			r.Route("/schedules", func(r chi.Router) {
				r.Post("/", scheduleHandler.Create)
				r.Get("/my", scheduleHandler.ListMine)
				r.With(middleware.RequireStaff).Get("/pending", scheduleHandler.ListPending)

				r.Route("/{scheduleID}", func(r chi.Router) {
					r.Get("/", scheduleHandler.Get)
					r.Get("/compliance", scheduleHandler.GetCompliance)
					r.Post("/submit", scheduleHandler.Submit)
					r.Post("/reopen", scheduleHandler.Reopen)

					r.Route("/blocks", func(r chi.Router) {
						r.Post("/", scheduleHandler.CreateBlock)
						r.Put("/{blockID}", scheduleHandler.UpdateBlock)
						r.Delete("/{blockID}", scheduleHandler.DeleteBlock)
					})

					// Staff only
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireStaff)
						r.Put("/approve", scheduleHandler.Approve)
						r.Put("/reject", scheduleHandler.Reject)
					})
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notifHandler.List)
				r.Get("/unread-count", notifHandler.UnreadCount)
				r.Post("/read", notifHandler.MarkAsRead)
				r.Post("/read-all", notifHandler.MarkAllAsRead)
			})
		})
	})

	return r
}
