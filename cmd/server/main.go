package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/billing/internal/bootstrap"
	"github.com/erp/billing/internal/infrastructure/config"
	"github.com/erp/billing/internal/infrastructure/logger"
	"github.com/erp/billing/internal/infrastructure/scheduler"
	"github.com/erp/billing/internal/interfaces/http/handler"
	"github.com/erp/billing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting billing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{WithQueue: true, WithTelemetry: true})
	if err != nil {
		log.Fatal("Failed to initialize services", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	var trigger *scheduler.DailyTrigger
	if app.Queue != nil {
		if err := app.Queue.Start(ctx); err != nil {
			log.Fatal("Failed to start job queue", zap.Error(err))
		}
		if cfg.Jobs.DailyGenerationEnabled {
			trigger = scheduler.NewDailyTrigger(scheduler.DailyTriggerConfig{
				Hour:          cfg.Jobs.DailyGenerationHour,
				Minute:        cfg.Jobs.DailyGenerationMinute,
				CheckInterval: time.Minute,
			}, func(ctx context.Context) error {
				ticket, err := app.Generation.GenerateAll(ctx, true)
				if err != nil {
					return err
				}
				if ticket != nil && ticket.JobID != nil {
					log.Info("Nightly generation queued", zap.String("job_id", ticket.JobID.String()))
				}
				return nil
			}, log)
			if err := trigger.Start(ctx); err != nil {
				log.Fatal("Failed to start nightly generation", zap.Error(err))
			}
		}
	}

	engine, err := router.NewEngine(router.EngineConfig{
		HTTP:           cfg.HTTP,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: cfg.Telemetry.Enabled,
		Meter:          httpMeter(app),
		JWT:            app.JWT,
		Logger:         log,
		Health:         handler.NewHealthHandler(healthChecks(app)),
		Handlers: router.Handlers{
			Statements: handler.NewStatementHandler(app.Imports),
			Rules:      handler.NewCompletionRuleHandler(app.Rules),
			Groups:     handler.NewContractGroupHandler(app.Generation, app.Groups),
			Invoicers:  handler.NewInvoicerHandler(app.Generation, app.Reports, cfg.Storage.LinkTTL),
			Jobs:       jobHandler(app),
		},
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if trigger != nil {
		if err := trigger.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping nightly generation", zap.Error(err))
		}
	}
	if err := app.Close(shutdownCtx); err != nil {
		log.Error("Error releasing resources", zap.Error(err))
	}

	log.Info("Server exited")
}

func httpMeter(app *bootstrap.App) metric.Meter {
	if app.Meter == nil || !app.Meter.IsEnabled() {
		return nil
	}
	return app.Meter.Meter("billing.http")
}

// jobHandler is nil when jobs are disabled, which leaves /jobs unrouted
func jobHandler(app *bootstrap.App) *handler.JobHandler {
	if app.Queue == nil {
		return nil
	}
	return handler.NewJobHandler(app.Queue)
}

func healthChecks(app *bootstrap.App) map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := app.DB.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if app.Queue != nil {
		checks["jobs"] = func(context.Context) error {
			if !app.Queue.IsRunning() {
				return scheduler.ErrQueueNotRunning
			}
			return nil
		}
	}
	return checks
}
