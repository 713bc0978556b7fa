package main

import (
	"context"
	"net/http"
	"time"

	"github.com/desertthunder/topmix/internal/auth"
	"github.com/desertthunder/topmix/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve starts the interactive web application.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	d, closer, err := r.build(cmd)
	if err != nil {
		return err
	}
	defer closer()

	flow := auth.NewFlow(d.service, d.store)

	app := server.NewApp(server.AppOpts{
		Flow:    flow,
		Tokens:  d.tokens,
		Store:   d.store,
		Service: d.service,
		Mode:    d.mode,
		Secret:  d.config.Server.SessionSecret,
		Logger:  r.logger,
	})

	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Handler(app)

	httpServer := &http.Server{
		Addr:              d.config.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	r.logger.Infof("serving at http://%v", httpServer.Addr)

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
