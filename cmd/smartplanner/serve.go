package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sourcegraph/conc"

	server "github.com/kazz187/smartplanner/internal"
	"github.com/kazz187/smartplanner/internal/config"
	"github.com/kazz187/smartplanner/internal/plan"
	"github.com/kazz187/smartplanner/internal/web"
	"github.com/kazz187/smartplanner/pkg/panicerr"
)

const shutdownTimeout = 10 * time.Second

func runServe(ctx context.Context, env *config.Env) error {
	svc, err := newPlanService(ctx, env)
	if err != nil {
		return err
	}
	webHandler, err := web.NewHandler(svc)
	if err != nil {
		return err
	}
	srv := server.NewServer(env, plan.NewServer(svc), webHandler)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       conc.WaitGroup
		serveErr error
	)
	wg.Go(func() {
		defer cancel()
		serveErr = panicerr.Run(ctx, func(ctx context.Context) error {
			if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	})

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	wg.Wait()
	return serveErr
}
