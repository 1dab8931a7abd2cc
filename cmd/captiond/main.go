// Command captiond is the long-running control-plane process: it
// exposes the Credential Store over HTTP, a gRPC health check for
// orchestrators, and mirrors segment/transcript events onto Kafka. The
// captioning pipeline itself (Audio Pipeline, Session Client, Timeline
// Aligner, Overlap Processor) is a library embedded by a host
// application or exercised directly by cmd/captionreplay; captiond
// only owns the credential lifecycle and observability surfaces that
// make sense as a standalone process.
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	grpcapi "caption-core/internal/api/grpc"
	"caption-core/internal/app"
	"caption-core/internal/config"
	"caption-core/internal/events"
	caphttp "caption-core/internal/http"
	"caption-core/internal/observability"
)

func main() {
	cfg := config.Load()
	application := app.New(cfg)
	if err := application.Start(); err != nil {
		application.Logger.Fatal().Err(err).Msg("failed to start application")
	}

	publisher := events.New(cfg.Kafka)
	defer publisher.Close()

	lis, err := net.Listen("tcp", ":"+cfg.Service.GRPCPort)
	if err != nil {
		application.Logger.Fatal().Err(err).Msg("failed to listen on grpc port")
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(observability.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(observability.StreamServerInterceptor()),
	)
	healthServer := grpcapi.RegisterHealth(grpcServer)

	go func() {
		application.Logger.Info().Str("port", cfg.Service.GRPCPort).Msg("grpc health server listening")
		if err := grpcServer.Serve(lis); err != nil {
			application.Logger.Fatal().Err(err).Msg("grpc serve failed")
		}
	}()

	obsServer := observability.NewServer(":" + cfg.Service.MetricsPort)
	obsServer.Start()

	httpServer := &http.Server{
		Addr:    ":" + cfg.Service.HTTPPort,
		Handler: caphttp.NewRouter(application),
	}

	go func() {
		application.Logger.Info().Str("port", cfg.Service.HTTPPort).Msg("http control surface listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			application.Logger.Fatal().Err(err).Msg("http serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	application.Logger.Info().Msg("shutting down")
	healthServer.Shutdown()
	grpcServer.GracefulStop()
	_ = httpServer.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = obsServer.Shutdown(shutdownCtx)

	application.Shutdown()
}
