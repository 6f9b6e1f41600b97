package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Amund211/autolru/internal/adapters/database"
	"github.com/Amund211/autolru/internal/adapters/valuerepository"
	"github.com/Amund211/autolru/internal/app"
	"github.com/Amund211/autolru/internal/cache"
	"github.com/Amund211/autolru/internal/config"
	"github.com/Amund211/autolru/internal/domain"
	"github.com/Amund211/autolru/internal/logging"
	"github.com/Amund211/autolru/internal/ports"
	"github.com/Amund211/autolru/internal/ratelimiting"
	"github.com/Amund211/autolru/internal/reporting"
	"github.com/Amund211/autolru/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	// Use the bundled root certificates when the system has none (distroless images)
	_ "golang.org/x/crypto/x509roots/fallback"
)

const serviceName = "autolru"

const (
	loadTimeout          = 5 * time.Second
	loadsPerSecond       = 200
	loadBurst            = 400
	maxLoadRateLimitWait = 2 * time.Second
)

func main() {
	instanceID := uuid.New().String()
	logger := logging.NewJSONLogger(os.Stdout).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", config.NonSensitiveString())

	if config.OTelEnabled() {
		shutdownOTel, err := telemetry.SetupOTelSDK(ctx, serviceName)
		if err != nil {
			fail("Failed to set up OpenTelemetry", "error", err.Error())
		}
		defer func() {
			err := shutdownOTel(context.Background())
			if err != nil {
				logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
			}
		}()
		logger.Info("Initialized OpenTelemetry")
	}

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(config)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	var valueRepo valuerepository.ValueRepository
	if config.IsDevelopment() && config.DatabaseURL() == "" {
		valueRepo = valuerepository.NewInMemory(
			domain.Value{Key: "hello", Data: "world", UpdatedAt: time.Now()},
		)
		logger.Info("Initialized in-memory ValueRepository")
	} else {
		logger.Info("Initializing database connection")
		db, err := database.NewPostgresDatabaseFromConfig(config)
		if err != nil {
			fail("Failed to initialize database", "error", err.Error())
		}
		logger.Info("Initialized database connection")

		repositorySchemaName := database.GetSchemaName(!config.IsProduction())

		err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, repositorySchemaName)
		if err != nil {
			fail("Failed to migrate database", "error", err.Error())
		}

		valueRepo = valuerepository.NewPostgres(db, repositorySchemaName)
		logger.Info("Initialized Postgres ValueRepository")
	}

	loader := ratelimiting.LimitLoader(
		rate.NewLimiter(rate.Limit(loadsPerSecond), loadBurst),
		maxLoadRateLimitWait,
		app.BuildValueLoader(valueRepo, loadTimeout),
	)

	cacheOptions := []cache.Option{cache.WithName("values")}
	if config.CacheTTL() > 0 {
		cacheOptions = append(cacheOptions, cache.WithTTL(config.CacheTTL()))
	}
	valueCache, err := cache.New(loader, config.CacheCapacity(), cacheOptions...)
	if err != nil {
		fail("Failed to initialize cache", "error", err.Error())
	}
	defer valueCache.Close()

	allowedOrigins, err := ports.NewDomainSuffixes(config.AllowedOrigins()...)
	if err != nil {
		fail("Failed to initialize allowed origins", "error", err.Error())
	}

	getValueWithCache := app.BuildGetValueWithCache(valueCache)
	clearCache := app.BuildClearCache(valueCache)
	getCacheStats := app.BuildGetCacheStats(valueCache)

	mux := http.NewServeMux()

	mux.HandleFunc(
		"OPTIONS /v1/values/{key}",
		ports.BuildCORSHandler(allowedOrigins),
	)
	mux.HandleFunc(
		"GET /v1/values/{key}",
		ports.MakeGetValueHandler(
			getValueWithCache,
			allowedOrigins,
			logger.With("port", "getvalue"),
			sentryMiddleware,
		),
	)

	mux.HandleFunc(
		"POST /v1/cache/clear",
		ports.MakeClearCacheHandler(
			clearCache,
			logger.With("port", "clearcache"),
			sentryMiddleware,
		),
	)
	mux.HandleFunc(
		"GET /v1/cache/stats",
		ports.MakeCacheStatsHandler(
			getCacheStats,
			logger.With("port", "cachestats"),
			sentryMiddleware,
		),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Port()),
		Handler:           otelhttp.NewHandler(mux, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down server", "error", err.Error())
		}
	}()

	logger.Info("Init complete", "port", config.Port())
	err = server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
