package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentese/logos/pkg/server"

	"github.com/rs/zerolog/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize gateway")
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", srv.Port),
		Handler: srv.Handler,
	}

	go func() {
		log.Info().Int("port", srv.Port).Msg("🚀 agentesed listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("gateway exited unexpectedly")
		}
	}()

	<-ctx.Done()
	stop()
	log.Info().Msg("🛑 shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("gateway shutdown error")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("telemetry shutdown error")
	}
}
