// Command cachenode runs a single node of the distributed LRU+TTL cache:
// the HTTP cache API, the background sweeper, and (if peers are
// configured) the health-probe based primary election loop.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/torua/cachenode/internal/config"
	"github.com/torua/cachenode/internal/logging"
	"github.com/torua/cachenode/internal/supervisor"
)

func main() {
	log := logging.New(logging.InfoLevel, os.Stderr)

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	sup := supervisor.New(cfg, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := sup.Run(ctx); err != nil {
		log.Fatalf("run: %v", err)
	}
}
