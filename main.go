package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/court-case-api/api/handlers"
	"github.com/linesmerrill/court-case-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	//initialize database, router and scheduler
	if err := a.Initialize(); err != nil {
		zap.S().Fatalw("failed to initialize court-case-api", "error", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%v", a.Config.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		zap.S().Infow("court-case-api is up and running",
			"port", a.Config.Port,
			"url", a.Config.BaseURL,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalw("server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorw("failed to shut down http server", "error", err)
	}
	if err := a.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorw("failed to shut down app", "error", err)
	}
	zap.S().Info("court-case-api stopped")
}
