// Package app wires the hub, the transports, and the worker group into a
// running server process.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	server "planetfall/server"
	"planetfall/server/internal/net/tcp"
	"planetfall/server/internal/net/ws"
)

// Config carries process-level settings.
type Config struct {
	Port       int
	MaxClients int
	// HTTPAddr enables the WebSocket gateway when non-empty.
	HTTPAddr string
	MapSeed  int64
	Logger   *log.Logger
}

// DefaultConfig returns the stock process settings.
func DefaultConfig() Config {
	return Config{
		Port:       server.DefaultPort,
		MaxClients: server.DefaultMaxClients,
	}
}

// Run starts the three pipeline workers plus the optional WebSocket
// gateway and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	if raw := os.Getenv("GAME_PORT"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			cfg.Port = value
		} else {
			logger.Printf("invalid GAME_PORT=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("GAME_MAX_CLIENTS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			cfg.MaxClients = value
		} else {
			logger.Printf("invalid GAME_MAX_CLIENTS=%q: %v", raw, err)
		}
	}

	hubCfg := server.DefaultHubConfig()
	hubCfg.MaxClients = cfg.MaxClients
	hubCfg.Logger = logger
	hubCfg.Map.Seed = cfg.MapSeed
	hub := server.NewHub(hubCfg)

	tcpCfg := tcp.DefaultConfig()
	tcpCfg.Addr = fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	tcpCfg.Logger = logger
	receiver := tcp.NewServer(hub, tcpCfg)
	if err := receiver.Listen(); err != nil {
		return fmt.Errorf("start receiver: %w", err)
	}

	var gateway *http.Server
	if cfg.HTTPAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", ws.NewHandler(hub, ws.HandlerConfig{Logger: logger}).Handle)
		gateway = &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
		go func() {
			logger.Printf("websocket gateway listening on %s", cfg.HTTPAddr)
			if err := gateway.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("websocket gateway failed: %v", err)
			}
		}()
	}

	workers := server.NewWorkers(logger)
	workers.Start(ctx,
		server.Worker{Name: "receiver", Run: receiver.Run},
		server.Worker{Name: "handler", Run: hub.RunHandler},
		server.Worker{Name: "sender", Run: hub.RunSender},
	)

	<-ctx.Done()

	// Close sockets first so blocked reads fail fast, then drain workers.
	receiver.Close()
	hub.Shutdown()
	if gateway != nil {
		gateway.Close()
	}
	workers.Stop()
	return nil
}
