package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openlab-hq/labops-backend-go/internal/config"
	appHTTP "github.com/openlab-hq/labops-backend-go/internal/handler/http"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/cron"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/database"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/email"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/jwt"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/realtime"
	"github.com/openlab-hq/labops-backend-go/internal/repository/postgresql"
	alertService "github.com/openlab-hq/labops-backend-go/internal/service/alert"
	notificationService "github.com/openlab-hq/labops-backend-go/internal/service/notification"
	scheduleService "github.com/openlab-hq/labops-backend-go/internal/service/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		fmt.Println("Invalid config:", err)
		return
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	userRepo := postgresql.NewUserRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)
	alertRepo := postgresql.NewAlertRepository(db)
	alertConfigRepo := postgresql.NewAlertConfigRepository(db)
	workScheduleRepo := postgresql.NewWorkScheduleRepository(db)
	scheduleBlockRepo := postgresql.NewScheduleBlockRepository(db)
	metricsRepo := postgresql.NewMetricsRepository(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	emailService, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		log.Fatal("Failed to initialize email service:", err)
	}

	hub := realtime.NewHub()

	dispatcher := notificationService.NewDispatcher(notificationRepo, userRepo, alertConfigRepo, hub, emailService)
	notifService := notificationService.NewNotificationService(notificationRepo)
	alertSvc := alertService.NewAlertService(alertRepo, alertConfigRepo, metricsRepo, dispatcher)
	complianceValidator := scheduleService.NewComplianceValidator(cfg.Alert.MinimumWeeklyHours)
	scheduleSvc := scheduleService.NewScheduleService(workScheduleRepo, scheduleBlockRepo, complianceValidator, dispatcher)

	scheduler := cron.NewScheduler()
	alertJobs := cron.NewAlertJobs(alertSvc, cfg.Alert.ScanInterval)
	alertJobs.RegisterJobs(scheduler)
	scheduler.Start()

	alertHandler := appHTTP.NewAlertHandler(alertSvc)
	scheduleHandler := appHTTP.NewScheduleHandler(scheduleSvc)
	notifHandler := appHTTP.NewNotificationHandler(notifService)
	wsHandler := appHTTP.NewWebSocketHandler(hub, jwtService, cfg.Alert.WSAuthGracePeriod, cfg.App.AllowedOrigins)

	router := appHTTP.NewRouter(cfg, jwtService, alertHandler, scheduleHandler, notifHandler, wsHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.App.Port, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down")

	scheduler.Stop()
	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Forced shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
