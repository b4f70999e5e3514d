package main // Entry point package

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/classroom-seating/internal/config"
	"github.com/iliyamo/classroom-seating/internal/database"
	"github.com/iliyamo/classroom-seating/internal/handler"
	"github.com/iliyamo/classroom-seating/internal/queue"
	"github.com/iliyamo/classroom-seating/internal/repository"
	"github.com/iliyamo/classroom-seating/internal/router"
	"github.com/iliyamo/classroom-seating/internal/service"
)

func newLogger(env string) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if env == "dev" {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewExample()
	}
	return log
}

func main() {
	cfg := config.Load() // Load environment config
	log := newLogger(cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("database connection failed", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer db.Close()
	if err := database.CreateSchema(ctx, db); err != nil {
		log.Fatal("schema creation failed", zap.Error(err))
	}
	if cfg.SeedDemo {
		courseID, staffID, err := database.SeedDemo(ctx, db)
		if err != nil {
			log.Fatal("demo seed failed", zap.Error(err))
		}
		if courseID != 0 {
			log.Info("demo course created", zap.Uint64("course_id", courseID), zap.Uint64("staff_id", staffID))
		}
	}

	// Redis is optional; without it rate limiting and caching are off.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and caching disabled")
	} else {
		defer rdb.Close()
	}

	var events handler.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		events = service.NewPublisher(cfg.RabbitURL, log)
		go func() {
			if err := queue.StartSeatingConsumer(ctx, cfg.RabbitURL, "logs", log); err != nil && ctx.Err() == nil {
				log.Error("seating consumer stopped", zap.Error(err))
			}
		}()
	}

	h := handler.NewSeatingHandler(
		repository.NewCourseRepo(db),
		repository.NewPositionRepo(db),
		repository.NewLayoutRepo(db),
		repository.NewBehaviourRepo(db),
		events,
		log,
	)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			log.Info("request", fields...)
			return nil
		},
	}))
	router.RegisterRoutes(e, db)
	router.RegisterSeating(e, h, router.SeatingOptions{
		JWTSecret: cfg.JWTSecret,
		CSRF:      cfg.CSRFEnabled,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Redis:     rdb,
		Log:       log,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	addr := ":" + cfg.Port
	log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("driver", cfg.DBDriver))
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatal("server failed", zap.Error(err))
	}
}
