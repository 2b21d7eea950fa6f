// Package api wires configuration, storage, services, and transport into
// the running HTTP process.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	"github.com/pawmart/pawmart-api/internal/clients/http/mailer"
	cartmemory "github.com/pawmart/pawmart-api/internal/domains/cart/adapters/memory"
	cartobs "github.com/pawmart/pawmart-api/internal/domains/cart/adapters/observability"
	cartpostgres "github.com/pawmart/pawmart-api/internal/domains/cart/adapters/persistence/postgres"
	cartapplication "github.com/pawmart/pawmart-api/internal/domains/cart/application"
	cartports "github.com/pawmart/pawmart-api/internal/domains/cart/ports"
	"github.com/pawmart/pawmart-api/internal/domains/cart/sweeper"
	catalogmemory "github.com/pawmart/pawmart-api/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/pawmart/pawmart-api/internal/domains/catalog/adapters/persistence/postgres"
	catalogapplication "github.com/pawmart/pawmart-api/internal/domains/catalog/application"
	catalogports "github.com/pawmart/pawmart-api/internal/domains/catalog/ports"
	ordersmemory "github.com/pawmart/pawmart-api/internal/domains/orders/adapters/memory"
	ordersobs "github.com/pawmart/pawmart-api/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/pawmart/pawmart-api/internal/domains/orders/adapters/persistence/postgres"
	ordersworkflows "github.com/pawmart/pawmart-api/internal/domains/orders/adapters/workflows"
	ordersapplication "github.com/pawmart/pawmart-api/internal/domains/orders/application"
	ordersports "github.com/pawmart/pawmart-api/internal/domains/orders/ports"
	settingsmemory "github.com/pawmart/pawmart-api/internal/domains/settings/adapters/memory"
	settingspostgres "github.com/pawmart/pawmart-api/internal/domains/settings/adapters/persistence/postgres"
	settingsapplication "github.com/pawmart/pawmart-api/internal/domains/settings/application"
	settingsports "github.com/pawmart/pawmart-api/internal/domains/settings/ports"
	"github.com/pawmart/pawmart-api/internal/platform/migrations"
	platformobservability "github.com/pawmart/pawmart-api/internal/platform/observability"
	platformpostgres "github.com/pawmart/pawmart-api/internal/platform/postgres"
	transporthttp "github.com/pawmart/pawmart-api/internal/transport/http"
)

const serviceName = "pawmart-api"

// Run boots the marketplace HTTP API with observability, repositories,
// the lock sweeper, and the confirmation dispatcher wired.
func Run(ctx context.Context) error {
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	db, cleanupDB := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanupDB()
	if db != nil {
		if err := migrations.Run(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("repositories configured with postgres")
	}
	repos := buildRepositories(db)

	catalogService := catalogapplication.NewService(repos.catalog)

	cartService := cartobs.New(
		cartapplication.NewService(repos.cart, repos.catalog),
		cartobs.WithLogger(logger),
		cartobs.WithTracer(instruments.Tracer("internal.domains.cart")),
		cartobs.WithMeter(instruments.Meter("internal.domains.cart")),
	)

	notifier, cleanupNotifier := buildNotifier(cfg, instruments, logger)
	defer cleanupNotifier()

	ordersOpts := []ordersapplication.Option{ordersapplication.WithLogger(logger)}
	if notifier != nil {
		ordersOpts = append(ordersOpts, ordersapplication.WithNotifier(notifier))
	}
	ordersService := ordersobs.New(
		ordersapplication.NewService(repos.orders, ordersOpts...),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.domains.orders")),
		ordersobs.WithMeter(instruments.Meter("internal.domains.orders")),
	)

	settingsService := settingsapplication.NewService(repos.settings)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	lockSweeper := sweeper.New(cartService,
		sweeper.WithInterval(cfg.LockSweepInterval),
		sweeper.WithLogger(logger),
	)
	go lockSweeper.Run(sweepCtx)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	transporthttp.NewServer(catalogService, cartService, ordersService, settingsService).Register(router)

	addr := ":" + cfg.Port
	logger.Info("PawMart API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("PawMart API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

type repositories struct {
	catalog  catalogports.Repository
	cart     cartports.Repository
	orders   ordersports.Repository
	settings settingsports.Repository
}

// buildRepositories returns the postgres adapters when a DB is available,
// otherwise the in-memory set sharing one catalog store so reservations
// and orders see the same pets.
func buildRepositories(db *gorm.DB) repositories {
	if db != nil {
		return repositories{
			catalog:  catalogpostgres.NewRepository(db),
			cart:     cartpostgres.NewRepository(db),
			orders:   orderspostgres.NewRepository(db),
			settings: settingspostgres.NewRepository(db),
		}
	}
	catalog := catalogmemory.NewRepository()
	carts := cartmemory.NewRepository(catalog)
	return repositories{
		catalog:  catalog,
		cart:     carts,
		orders:   ordersmemory.NewRepository(catalog, carts),
		settings: settingsmemory.NewRepository(),
	}
}

// buildNotifier picks the confirmation dispatch path: Temporal when a
// cluster is reachable, a direct mailer call when only MAILER_BASE_URL is
// set, nothing otherwise.
func buildNotifier(cfg Config, instruments *platformobservability.Instruments, logger *slog.Logger) (ordersports.Notifier, func()) {
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal unavailable for order confirmations", slog.String("error", err.Error()))
	} else {
		logger.Info("Temporal order confirmations enabled", slog.String("namespace", cfg.TemporalNamespace))
		return ordersworkflows.NewTemporalNotifier(temporalClient), temporalClient.Close
	}
	if cfg.MailerBaseURL == "" {
		logger.Warn("MAILER_BASE_URL not set, order confirmations disabled")
		return nil, func() {}
	}
	mailerClient, err := mailer.NewClient(cfg.MailerBaseURL, nil)
	if err != nil {
		logger.Warn("invalid MAILER_BASE_URL, order confirmations disabled", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("inline order confirmations enabled")
	return ordersworkflows.NewInlineNotifier(mailerClient), func() {}
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
