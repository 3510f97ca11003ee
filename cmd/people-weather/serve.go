package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/people-weather/internal/api/http"
	"github.com/i474232898/people-weather/internal/scheduler"
)

func newServeCommand() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with periodic weather refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newServices()
			if err != nil {
				return err
			}
			defer rt.Close()
			return serve(cmd.Context(), rt, !quiet)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "disable HTTP access logging")
	return cmd
}

func serve(ctx context.Context, rt *services, accessLog bool) error {
	logger := rt.logger

	sched, err := scheduler.New(rt.engine, rt.cfg.RefreshInterval, logger)
	if err != nil {
		return err
	}
	rt.engine.OnChange(sched.Sync)
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			logger.Warn().Err(err).Msg("scheduler shutdown")
		}
	}()

	// A failed first load still serves whatever the saved set produced.
	if err := rt.engine.Initialize(ctx); err != nil {
		logger.Error().Err(err).Msg("initial load failed")
	}

	app := httpapi.NewApp(accessLog)
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Engine:  rt.engine,
		People:  rt.source,
		Weather: rt.fetcher,
		Advice:  rt.advisor,
	})

	go func() {
		logger.Info().Str("port", rt.cfg.Port).Msg("listening")
		if err := app.Listen(":" + rt.cfg.Port); err != nil {
			logger.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
		return err
	}
	logger.Info().Msg("stopped")
	return nil
}
