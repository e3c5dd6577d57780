package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/finscholars/finscholars/internal/auth"
	"github.com/finscholars/finscholars/internal/cache"
	"github.com/finscholars/finscholars/internal/events"
	"github.com/finscholars/finscholars/internal/notify"
	"github.com/finscholars/finscholars/internal/scheduler"
	"github.com/finscholars/finscholars/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("connect event broker: %w", err)
		}
		defer publisher.Close()
		if !publisher.Enabled() {
			glog.Info("FINSCHOLARS_AMQP_URL not set, events are not published")
		}

		// Redis expires keys itself; only the in-memory cache is swept.
		var payloads cache.Cache
		var purger scheduler.Purger
		if cfg.RedisAddr != "" {
			rc, err := cache.NewRedis(ctx, cache.RedisConfig{
				Addr:      cfg.RedisAddr,
				Password:  cfg.RedisPassword,
				DB:        cfg.RedisDB,
				KeyPrefix: "finscholars:",
			})
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			defer rc.Close()
			payloads = rc
		} else {
			mem := cache.NewMemory()
			payloads = mem
			purger = mem
		}

		eng, err := newEngine(engineDeps{
			cfg:       cfg,
			store:     s,
			backend:   newBackend(cfg),
			cache:     payloads,
			publisher: publisher,
			notifier:  notify.Glog{},
		})
		if err != nil {
			return err
		}

		sched := scheduler.New(scheduler.Config{
			Interval:   cfg.CleanupInterval,
			AttemptTTL: cfg.AttemptTTL,
		}, eng.sessions, purger)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()

		srv := server.New(server.Deps{
			Registry:    eng.registry,
			Sessions:    eng.sessions,
			Badges:      eng.badges,
			Issuer:      auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
			CORSOrigins: cfg.CORSOrigins,
		})
		return srv.Run(ctx, cfg.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides FINSCHOLARS_ADDR)")
}
