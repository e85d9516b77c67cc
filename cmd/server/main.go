package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"civicvoice/internal/transport/http"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := http.Run(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
