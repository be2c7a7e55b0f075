package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/beatvideo/internal/api"
	"github.com/ivlev/beatvideo/internal/system"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP job API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			logger := ctx.ensureLogger()
			defer logger.Sync()
			system.InitResourceLimits(logger)

			runCtx, stop := withSignals(cmd.Context())
			defer stop()

			deps, err := buildPipeline(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer deps.close()

			srv := api.NewServer(&api.Options{
				Address:    cfg.Server.Addr,
				BodyLimit:  cfg.Server.BodyLimit,
				JobTimeout: cfg.Server.JobTimeout,
				Pipeline:   deps.pipeline,
				Records:    deps.records,
				Logger:     logger,
			})

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-runCtx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				logger.Warn("shutdown", zap.Error(err))
				return err
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}
