package main

import (
	"context"

	"github.com/desertthunder/playgen/internal/server"
	"github.com/desertthunder/playgen/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the web surface until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireEngine(); err != nil {
		return err
	}

	metrics := web.NewMetrics()
	r.busy = metrics
	r.engine = r.newEngine()

	handler := web.NewHandler(r.engine, metrics, r.logger, r.config.Generator.DefaultSongCount)

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Web.Addr()
	}

	r.logger.Info("serving playgen", "addr", "http://"+addr)
	return server.ListenAndServe(ctx, addr, handler.NewRouter())
}
