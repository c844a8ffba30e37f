package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"setpass/internal/app"
	"setpass/internal/app/deps"
	"setpass/internal/app/services"
	"syscall"
	"time"

	dl "setpass/internal/core/domain/logging"
)

const SHUTDOWN_TIMEOUT = 20 * time.Second

func main() {
	deps, shutdownDeps := deps.InitDeps()
	services := services.InitServices(deps)
	httpServer := app.InitHttpServer(deps, services)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- serve(httpServer, deps)
	}()

	select {
	case err := <-serverErr:
		deps.Logger.Error(context.Background(), "HTTP server has failed.", dl.Entry("err", err))
		shutdownDeps()
		os.Exit(1)
	case <-ctx.Done():
	}

	shutdown(httpServer, deps, shutdownDeps)
}

func serve(server *http.Server, deps *deps.Deps) error {
	deps.Logger.Info(
		context.Background(),
		"HTTP server has started.",
		dl.Entry("address", server.Addr),
		dl.Entry("authURL", deps.Config.AuthURL().String()),
		dl.Entry("requirePin", deps.Config.RequirePin),
		dl.Entry("adminAuthEnabled", deps.Config.AdminAuthEnabled),
		dl.Entry("tokenValidFor", deps.Config.TokenValidFor()),
		dl.Entry("deleteExpiredOnRedeem", deps.Config.DeleteExpiredOnRedeem),
	)
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		deps.Logger.Info(context.Background(), "HTTP server is stopping gracefully.")
		return nil
	}
	return err
}

func shutdown(server *http.Server, deps *deps.Deps, shutdownDeps func()) {
	ctx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		deps.Logger.Error(ctx, "Could not shut down HTTP server.", dl.Entry("err", err))
	}

	shutdownDeps()
	deps.Logger.Info(ctx, "HTTP server has shut down.")
}
