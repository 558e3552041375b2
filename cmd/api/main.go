// Package main is the entrypoint for the Taskboard API server.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/niolikon/taskboard/internal/auth"
	"github.com/niolikon/taskboard/internal/auth/keycloak"
	"github.com/niolikon/taskboard/internal/cache"
	"github.com/niolikon/taskboard/internal/config"
	"github.com/niolikon/taskboard/internal/handler"
	"github.com/niolikon/taskboard/internal/handler/dto"
	"github.com/niolikon/taskboard/internal/metrics"
	"github.com/niolikon/taskboard/internal/middleware"
	"github.com/niolikon/taskboard/internal/model"
	"github.com/niolikon/taskboard/internal/repository"
	"github.com/niolikon/taskboard/internal/server"
	"github.com/niolikon/taskboard/internal/service"
)

const (
	tasksPath  = "/api/tasks"
	labelsPath = "/api/labels"
)

// storage is the persistence side of the application.
type storage struct {
	tasks  repository.SecuredCrudRepository[string, *model.Task]
	labels repository.CrudRepository[int64, *model.Label]
	users  service.UserStore
	health handler.HealthChecker
	close  func()
}

func main() {
	ctx := context.Background()

	// A missing .env file is fine; the environment wins over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage",
			slog.String("driver", cfg.StorageDriver),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}

	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL, cache.Options{
			PoolSize:     cfg.RedisPoolSize,
			MinIdleConns: cache.DefaultOptions.MinIdleConns,
			DialTimeout:  cache.DefaultOptions.DialTimeout,
		})
		if err != nil {
			logger.Error("failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			store.close()
			os.Exit(1)
		}
		logger.Info("connected to Redis")
	} else {
		logger.Warn("REDIS_URL not set, principal cache and rate limiting disabled")
	}

	recorder := metrics.NewInMemory()
	advice := middleware.NewAdvice(logger)

	verifier, authService, err := initAuth(cfg, store)
	if err != nil {
		logger.Error("failed to initialize authentication", "mode", cfg.AuthMode, "error", err)
		os.Exit(1)
	}

	taskService := service.NewSecuredCrudService[string, *model.Task, dto.TaskInput, dto.TaskOutput](
		"tasks", store.tasks, dto.TaskMapper{}, recorder,
	).WithQueryFilter(service.TaskDoneFilter)
	labelService := service.NewCrudService[int64, *model.Label, dto.LabelInput, dto.LabelOutput](
		"labels", store.labels, dto.LabelMapper{}, recorder,
	)

	taskHandler := handler.NewSecuredCrudHandler[string, dto.TaskInput, dto.TaskOutput](
		handler.ResourceConfig[string]{BasePath: tasksPath, ParseID: handler.ParseTaskID, Advice: advice},
		taskService,
	)
	labelHandler := handler.NewCrudHandler[int64, dto.LabelInput, dto.LabelOutput](
		handler.ResourceConfig[int64]{BasePath: labelsPath, ParseID: handler.ParseInt64ID, Advice: advice},
		labelService,
	)

	healthHandler := handler.NewHealthHandler(logger).WithCheck("storage", store.health)
	authHandler := handler.NewAuthHandler(authService, advice, logger)

	authCfg := middleware.AuthenticateConfig{
		Logger:   logger,
		Verifier: verifier,
		Metrics:  recorder,
		Advice:   advice,
	}
	trustedProxies, err := cfg.GetTrustedProxies()
	if err != nil {
		logger.Error("invalid trusted proxies", "error", err)
		os.Exit(1)
	}
	rateLimitCfg := middleware.RateLimitConfig{
		Logger:            logger,
		Metrics:           recorder,
		Advice:            advice,
		Enabled:           cfg.RateLimit.Enabled,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
		AuthRPS:           cfg.RateLimit.AuthRPS,
		AuthBurst:         cfg.RateLimit.AuthBurst,
		TrustedProxies:    trustedProxies,
	}
	if cacheClient != nil {
		authCfg.Cache = cacheClient
		rateLimitCfg.Limiter = cacheClient
		healthHandler.WithCheck("cache", cacheClient)
		authHandler.WithPrincipalCache(cacheClient)
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	r := handler.NewRouter(handler.RouterConfig{
		Logger: logger,
		Security: middleware.SecurityConfig{
			IsDevelopment:      cfg.IsDevelopment(),
			MaxRequestBodySize: cfg.MaxRequestBodySize,
		},
		CORS:          corsCfg,
		Authenticate:  middleware.Authenticate(authCfg),
		RateLimitUser: middleware.RateLimitUser(rateLimitCfg),
		RateLimitIP:   middleware.RateLimitIP(rateLimitCfg),
		Health:        healthHandler,
		Metrics:       handler.NewMetricsHandler(recorder),
		Auth:          authHandler,
		Resources: []handler.Resource{
			{Path: tasksPath, Routes: taskHandler.Routes},
			{Path: labelsPath, Routes: labelHandler.Routes},
		},
	})

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("storage", func(context.Context) error {
		store.close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("cache", func(context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"storage", cfg.StorageDriver,
		"auth_mode", cfg.AuthMode,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStorage migrates and connects PostgreSQL, or builds in-process stores.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		users := repository.NewMemoryUsers()
		var owners repository.OwnerResolver = users
		if cfg.AuthMode == config.AuthKeycloak {
			owners = repository.ServedOwners{}
		}
		logger.Warn("using in-memory storage, data is lost on restart")
		return &storage{
			tasks:  repository.NewSecuredMemory[string, *model.Task]("task", model.NewTaskID, owners),
			labels: repository.NewMemory[int64, *model.Label]("label", repository.Int64Sequence()),
			users:  users,
			health: alwaysReady{},
			close:  func() {},
		}, nil
	default:
		migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := repository.Migrate(migrateCtx, cfg.DatabaseURL); err != nil {
			return nil, err
		}
		logger.Info("database migrations applied")

		db, err := repository.New(ctx, cfg.DatabaseURL, repository.PoolOptions{
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			MaxConnIdleTime: repository.DefaultPoolOptions.MaxConnIdleTime,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("connected to database")

		users := repository.NewUserRepository(db)
		var owners repository.OwnerResolver = users
		if cfg.AuthMode == config.AuthKeycloak {
			owners = repository.ServedOwners{}
		}
		return &storage{
			tasks:  repository.NewTaskRepository(db, owners),
			labels: repository.NewLabelRepository(db),
			users:  users,
			health: db,
			close:  db.Close,
		}, nil
	}
}

// initAuth builds the token verifier and credential service for the configured mode.
func initAuth(cfg *config.Config, store *storage) (auth.Verifier, handler.AuthService, error) {
	if cfg.AuthMode == config.AuthKeycloak {
		httpClient := &http.Client{Timeout: 10 * time.Second}
		kc := cfg.Keycloak.Options()
		return keycloak.NewVerifier(kc, httpClient),
			service.NewKeycloakAuthService(keycloak.NewClient(kc, httpClient)),
			nil
	}

	opts := cfg.JWT.Options()
	tokens, err := auth.NewTokenFactory(opts)
	if err != nil {
		return nil, nil, err
	}
	verifier, err := auth.NewSystemVerifier(opts)
	if err != nil {
		return nil, nil, err
	}
	return verifier, service.NewSystemAuthService(store.users, tokens), nil
}

// alwaysReady is the readiness check of in-process storage.
type alwaysReady struct{}

func (alwaysReady) Ping(context.Context) error { return nil }

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// redactURL drops the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		if username := parsed.User.Username(); username != "" {
			parsed.User = url.User(username)
		} else {
			parsed.User = url.User("redacted")
		}
	}

	return parsed.String()
}

// sanitizeError replaces every secret in err's text with its redacted form.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
