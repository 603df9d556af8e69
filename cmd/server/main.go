package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iliyamo/resolvenow/internal/config"
	"github.com/iliyamo/resolvenow/internal/database"
	"github.com/iliyamo/resolvenow/internal/handler"
	"github.com/iliyamo/resolvenow/internal/logger"
	"github.com/iliyamo/resolvenow/internal/metrics"
	"github.com/iliyamo/resolvenow/internal/middleware"
	"github.com/iliyamo/resolvenow/internal/queue"
	"github.com/iliyamo/resolvenow/internal/repository"
	"github.com/iliyamo/resolvenow/internal/router"
	"github.com/iliyamo/resolvenow/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found; using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	log, err := logger.Init(cfg.Log)
	if err != nil {
		slog.Error("logger init", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = database.Migrate(migrateCtx, db)
	cancel()
	if err != nil {
		return err
	}
	log.Info("database ready", "host", cfg.DBHost, "name", cfg.DBName)

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and stats cache disabled", "addr", cfg.Redis.Address())
	} else {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	complaints := repository.NewComplaintRepo(db)
	feedback := repository.NewFeedbackRepo(db)
	stats := service.NewStatsService(feedback, repository.NewStatsCache(cfg.Stats, rdb), logger.WithComponent("stats"))

	// Activity events
	var pub service.Publisher = service.NopPublisher{}
	if cfg.Events.Enabled {
		pub = service.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Queue, logger.WithComponent("events"))
		if cfg.Events.ConsumerEnabled {
			consumerLog := logger.WithComponent("audit")
			go func() {
				err := queue.StartActivityConsumer(ctx, queue.ConsumerConfig{
					URL:     cfg.Events.URL,
					Queue:   cfg.Events.Queue,
					LogPath: cfg.Events.AuditLogPath,
				}, consumerLog)
				if err != nil && !errors.Is(err, context.Canceled) {
					consumerLog.Error("activity consumer stopped", "error", err)
				}
			}()
		}
	}
	events := handler.NewEmitter(pub, logger.WithComponent("events"))
	defer events.Wait()

	// HTTP
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler(log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Secure())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowCredentials: true,
	}))
	if cfg.MetricsEnabled {
		e.Use(middleware.Metrics())
	}
	e.Use(middleware.RequestLogger(logger.WithComponent("http")))
	e.Use(middleware.NewTokenBucket(cfg.RateLimit, rdb, logger.WithComponent("ratelimit")))
	e.Use(echomw.BodyLimit(cfg.BodyLimit))

	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics.MustRegister(reg)
		metricsHandler = metrics.Handler(reg)
	}

	auth := router.Auth{Secret: cfg.JWTSecret, Users: users, Log: logger.WithComponent("auth")}
	router.RegisterRoutes(e, metricsHandler)
	router.RegisterAuth(e, handler.NewAuthHandler(handler.AuthConfig{
		Secret:     cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
	}, users, log), auth)
	router.RegisterComplaints(e, handler.NewComplaintHandler(complaints, events, log), auth)
	router.RegisterFeedback(e, handler.NewFeedbackHandler(feedback, complaints, stats, events, log), auth, cfg.StatsAdminOnly)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
