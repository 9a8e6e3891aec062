package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	server "planetfall/server"
	"planetfall/server/internal/app"
)

func main() {
	cfg := app.DefaultConfig()
	flag.IntVar(&cfg.Port, "port", server.DefaultPort, "TCP listening port")
	flag.IntVar(&cfg.MaxClients, "max-clients", server.DefaultMaxClients, "maximum concurrent clients")
	flag.StringVar(&cfg.HTTPAddr, "http", "", "WebSocket gateway address (disabled when empty)")
	flag.Int64Var(&cfg.MapSeed, "seed", 0, "map generation seed (0 picks one)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
