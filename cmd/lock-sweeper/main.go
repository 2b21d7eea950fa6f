// lock-sweeper is a one-shot job releasing expired cart reservations. It
// exists for deployments that prefer a cron job over the in-process sweeper
// goroutine run by the API.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	cartpostgres "github.com/pawmart/pawmart-api/internal/domains/cart/adapters/persistence/postgres"
	cartapplication "github.com/pawmart/pawmart-api/internal/domains/cart/application"
	"github.com/pawmart/pawmart-api/internal/domains/cart/sweeper"
	catalogpostgres "github.com/pawmart/pawmart-api/internal/domains/catalog/adapters/persistence/postgres"
	platformpostgres "github.com/pawmart/pawmart-api/internal/platform/postgres"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot sweep locks")
	}

	cartService := cartapplication.NewService(cartpostgres.NewRepository(db), catalogpostgres.NewRepository(db))
	released, err := sweeper.New(cartService, sweeper.WithLogger(logger)).SweepOnce(ctx)
	if err != nil {
		log.Fatalf("failed to sweep expired locks: %v", err)
	}
	log.Printf("lock sweep completed, released %d reservations", released)
}
