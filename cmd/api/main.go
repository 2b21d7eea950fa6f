package main

import (
	"context"
	"log"

	"github.com/pawmart/pawmart-api/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("pawmart api exited: %v", err)
	}
}
