// Package main is the entry point for the Lingora API server.
//
// The architecture follows Clean Architecture and DDD:
//   - Domain: lesson, session, progress, and user business logic
//   - Application: use case orchestration (Commands/Queries)
//   - Infrastructure: persistence, rate limiting, audit, messaging
//   - Interface: HTTP endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lingora-app/lingora/config"
	"github.com/lingora-app/lingora/internal/application/command"
	"github.com/lingora-app/lingora/internal/application/query"
	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/internal/domain/progress"
	"github.com/lingora-app/lingora/internal/domain/session"
	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/internal/domain/user"
	"github.com/lingora-app/lingora/internal/infrastructure/audit"
	"github.com/lingora-app/lingora/internal/infrastructure/messaging"
	"github.com/lingora-app/lingora/internal/infrastructure/persistence/memory"
	"github.com/lingora-app/lingora/internal/infrastructure/persistence/postgres"
	redisinfra "github.com/lingora-app/lingora/internal/infrastructure/persistence/redis"
	"github.com/lingora-app/lingora/internal/infrastructure/ratelimit"
	"github.com/lingora-app/lingora/internal/infrastructure/scheduler"
	"github.com/lingora-app/lingora/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/lingora-app/lingora/internal/interface/http"
	"github.com/lingora-app/lingora/pkg/logger"
	"github.com/lingora-app/lingora/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})
	log.Info("starting Lingora API server",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. PERSISTENCE
	// ─────────────────────────────────────────────────────────────────────────
	var (
		lessonRepo   lesson.Repository
		userRepo     user.Repository
		progressRepo progress.Repository
		sessionStore session.Store
		dbConn       *postgres.Connection
	)

	if cfg.Database.URL != "" {
		log.Info("connecting to database")
		// The database may still be coming up when we are; retry with
		// patient backoff before giving up.
		err = retry.StartupRetrier().Do(ctx, func(ctx context.Context) error {
			var connErr error
			dbConn, connErr = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
			return connErr
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection")
			dbConn.Close()
		}()

		if err := dbConn.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}

		log.Info("running database migrations")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		lessonRepo = postgres.NewLessonRepository(dbConn)
		userRepo = postgres.NewUserRepository(dbConn)
		progressRepo = postgres.NewProgressRepository(dbConn)
		sessionStore = postgres.NewSessionTokenStore(dbConn)
	} else {
		// Development mode: no database configured, everything in memory.
		log.Warn("no database configured, using in-memory stores")
		lessonRepo = memory.NewLessonRepo(devLessons()...)
		userRepo = memory.NewUserRepo()
		progressRepo = memory.NewProgressRepo()
		sessionStore = memory.NewSessionStore()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redisinfra.Cache
	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis", logger.String("addr", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)))
		redisCfg := redisinfra.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize

		redisCache, err = redisinfra.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching and shared rate limiting disabled", logger.Err(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
			lessonRepo = redisinfra.NewLessonCache(redisCache, lessonRepo, log)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. RATE LIMITING
	// ─────────────────────────────────────────────────────────────────────────
	limiterCfg := ratelimit.Config{
		MaxAttempts: cfg.RateLimit.MaxAttempts,
		Window:      cfg.RateLimit.Window,
	}

	var attemptLimiter ratelimit.Limiter
	localWindow := ratelimit.NewSlidingWindow(limiterCfg)
	if cfg.RateLimit.Distributed && redisCache != nil {
		attemptLimiter = ratelimit.NewDistributed(redisCache.Client(), limiterCfg, log)
	} else {
		attemptLimiter = localWindow
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SECURITY LOG & EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	securityLog := audit.NewSecurityLog(audit.WithLogger(log))

	busCfg := messaging.DefaultEventBusConfig()
	busCfg.Logger = log
	eventBus := messaging.NewEventBus(busCfg)
	defer func() {
		log.Info("closing event bus")
		_ = eventBus.Close()
	}()

	eventBus.Subscribe(shared.EventSuspiciousActivity, securityLog.HandleSuspiciousActivity)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	ledger := progress.NewLedger(progressRepo)

	startLesson := command.NewStartLessonHandler(lessonRepo, sessionStore, ledger, eventBus, log)
	completeLesson := command.NewCompleteLessonHandler(
		attemptLimiter,
		sessionStore,
		lessonRepo,
		ledger,
		securityLog,
		eventBus,
		command.CompletionConfig{MinTimePerExercise: cfg.Completion.MinTimePerExercise},
		log,
	)
	registerUser := command.NewRegisterUserHandler(userRepo, log)
	dailyProgress := query.NewGetDailyProgressHandler(progressRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.NewScheduler(log)

		if err := sched.Register(
			jobs.NewTokenGC(sessionStore, log),
			scheduler.NewIntervalSchedule(cfg.Scheduler.TokenGCInterval),
		); err != nil {
			return fmt.Errorf("failed to register token gc job: %w", err)
		}

		if err := sched.Register(
			jobs.NewLimiterPrune(localWindow, log),
			scheduler.NewIntervalSchedule(cfg.Scheduler.LimiterPruneInterval),
		); err != nil {
			return fmt.Errorf("failed to register limiter prune job: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler")
			_ = sched.Stop()
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	var authenticator httpserver.Authenticator
	if redisCache != nil {
		authenticator = redisinfra.NewAuthStore(redisCache)
	} else {
		authenticator = memory.NewAuthStore(redisinfra.TTLAuthSession)
	}

	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout

	httpDeps := httpserver.Dependencies{
		StartLessonHandler:      startLesson,
		CompleteLessonHandler:   completeLesson,
		RegisterUserHandler:     registerUser,
		GetDailyProgressHandler: dailyProgress,
		UserRepo:                userRepo,
		Authenticator:           authenticator,
		Logger:                  log,
		HealthChecker:           &healthChecker{db: dbConn, cache: redisCache},
	}

	server := httpserver.NewServer(httpCfg, httpDeps)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("Lingora API server is running", logger.String("address", server.Address()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	}

	log.Info("starting graceful shutdown", logger.Duration("timeout", cfg.App.ShutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown completed")
	return nil
}

// healthChecker reports backing service health for /health.
type healthChecker struct {
	db    *postgres.Connection
	cache *redisinfra.Cache
}

func (h *healthChecker) Check(ctx context.Context) httpserver.HealthStatus {
	status := httpserver.HealthStatus{
		Healthy: true,
		Checks:  make(map[string]string),
	}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			status.Healthy = false
			status.Checks["database"] = err.Error()
		} else {
			status.Checks["database"] = "ok"
		}
	} else {
		status.Checks["database"] = "in-memory"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			// Degraded but alive: caching and shared quota fall back.
			status.Checks["redis"] = err.Error()
		} else {
			status.Checks["redis"] = "ok"
		}
	} else {
		status.Checks["redis"] = "disabled"
	}

	return status
}

// devLessons seeds a small lesson catalog for in-memory development mode.
func devLessons() []*lesson.Lesson {
	basics := &lesson.Lesson{
		ID:       "lesson-basics-1",
		UnitID:   "unit-basics",
		Title:    "Greetings",
		XPReward: 10,
		Exercises: []lesson.Exercise{
			{ID: "ex-greet-1", LessonID: "lesson-basics-1", SkillType: lesson.SkillVocabulary, Position: 1},
			{ID: "ex-greet-2", LessonID: "lesson-basics-1", SkillType: lesson.SkillListening, Position: 2},
			{ID: "ex-greet-3", LessonID: "lesson-basics-1", SkillType: lesson.SkillGrammar, Position: 3},
		},
	}
	food := &lesson.Lesson{
		ID:       "lesson-basics-2",
		UnitID:   "unit-basics",
		Title:    "Food",
		XPReward: 10,
		Exercises: []lesson.Exercise{
			{ID: "ex-food-1", LessonID: "lesson-basics-2", SkillType: lesson.SkillVocabulary, Position: 1},
			{ID: "ex-food-2", LessonID: "lesson-basics-2", SkillType: lesson.SkillSpeaking, Position: 2},
		},
	}
	return []*lesson.Lesson{basics, food}
}
