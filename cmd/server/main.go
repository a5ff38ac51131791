// Package main provides the realm presence server. It wires together
// configuration, the realm and profile stores, the session manager, and
// the websocket endpoint.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/openrealms/server/internal/config"
	"github.com/openrealms/server/internal/game/presence"
	"github.com/openrealms/server/internal/observability"
	"github.com/openrealms/server/internal/server"
	"github.com/openrealms/server/internal/storage"
	"github.com/openrealms/server/internal/storage/memory"
	"github.com/openrealms/server/internal/storage/postgres"
	"github.com/openrealms/server/internal/transport/ws"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// Initialize logger
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting realm server",
		zap.String("addr", cfg.Server.Addr()),
	)

	ctx := context.Background()
	lifecycle := server.NewLifecycle(logger)

	var realms storage.RealmStore
	var profiles storage.ProfileStore

	if cfg.Server.DevMap != "" {
		// Dev mode: a single realm "1" from a local map file, no database.
		mapData, err := presence.LoadMapFile(cfg.Server.DevMap)
		if err != nil {
			logger.Fatal("loading dev map", zap.Error(err))
		}
		realmStore := memory.NewRealmStore()
		realmStore.Put("1", storage.RealmInfo{Map: mapData, OwnerID: "dev"})
		realms = realmStore
		profiles = memory.NewProfileStore()
		logger.Info("dev mode: serving in-memory realm 1",
			zap.String("map", cfg.Server.DevMap),
			zap.Int("rooms", mapData.RoomCount()),
		)
	} else {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(dbStart)),
		)

		realms = postgres.NewRealmRepository(pool.DB())
		profiles = postgres.NewProfileRepository(pool.DB())

		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func() error {
				for {
					time.Sleep(30 * time.Second)
					if err := pool.Health(ctx, 5*time.Second); err != nil {
						logger.Warn("database health check failed", zap.Error(err))
					}
				}
			},
			StopFn: func() {
				pool.Close()
			},
		})
	}

	// Build services
	manager := presence.NewManager()
	hub := ws.NewHub()
	endpoint := ws.NewEndpoint(ws.TrustedHeaderAuthenticator{}, manager, realms, profiles, hub, logger)

	mux := http.NewServeMux()
	mux.Handle("/ws/game", endpoint)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: mux,
	}

	lifecycle.Add("http", &server.FuncService{
		StartFn: func() error {
			err := httpServer.ListenAndServe()
			if err == http.ErrServerClosed {
				return nil
			}
			return err
		},
		StopFn: func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("http shutdown", zap.Error(err))
			}
		},
	})

	logger.Info("server initialized",
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
