package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sahayak-ai/sahayak/pkg/api"
	cachepkg "github.com/sahayak-ai/sahayak/pkg/cache/sqlite"
	"github.com/sahayak-ai/sahayak/pkg/config"
	"github.com/sahayak-ai/sahayak/pkg/orchestrator"
	"github.com/sahayak-ai/sahayak/pkg/usage"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Provider API keys may live in a local .env; missing file is fine.
			_ = godotenv.Load()

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			store, err := usage.NewStore(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init usage store: %w", err)
			}
			defer func() { _ = store.Close() }()

			usageLogger := usage.NewLogger(store, usage.LoggerConfig{
				BatchSize:     cfg.Usage.BatchSize,
				FlushInterval: cfg.Usage.FlushInterval,
				MaxBacklog:    cfg.Usage.MaxBacklog,
			})
			defer usageLogger.Close()

			var cache *cachepkg.Cache
			if cfg.Cache.Enabled {
				cache, err = cachepkg.New(cfg.DBPath, cfg.Cache.TTL)
				if err != nil {
					return fmt.Errorf("init cache: %w", err)
				}
				defer func() { _ = cache.Close() }()
			}

			providers, healthReg, limits := buildStack(cfg)
			healthReg.Start(cfg.Health.CheckInterval)
			defer healthReg.Close()

			orch := orchestrator.New(cfg, providers, healthReg, limits, cache, usageLogger)
			srv := api.New(orch, healthReg, limits, cache, store)

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-quit
				log.Println("shutting down...")
				if err := srv.Shutdown(); err != nil {
					log.Printf("shutdown error: %v", err)
				}
			}()

			log.Printf("sahayak gateway listening on %s (%d providers)", cfg.Listen, len(cfg.Providers))
			return srv.Listen(cfg.Listen)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "sahayak.yaml", "path to config file")
	return cmd
}
