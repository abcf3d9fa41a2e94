package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/liamcoop/spanecho/internal/config"
	"github.com/liamcoop/spanecho/internal/envelope"
	"github.com/liamcoop/spanecho/internal/intake"
	"github.com/liamcoop/spanecho/internal/kafka"
	"github.com/liamcoop/spanecho/internal/logging"
	"github.com/liamcoop/spanecho/internal/receiver"
	"github.com/liamcoop/spanecho/internal/render"
	"github.com/liamcoop/spanecho/internal/server"
)

// version is injected at build time via ldflags
var version = "dev"

type serveFlags struct {
	httpAddr string
	grpcAddr string
	logLevel string
}

func newRootCommand() *cobra.Command {
	flags := &serveFlags{}

	root := &cobra.Command{
		Use:   "spanecho",
		Short: "Print every span of incoming OTLP trace exports as one JSON line",
		Long: `spanecho accepts OTLP trace exports and writes each span to stdout as
{"Span":{"name":...,"kind":...,"traceId":...,"id":...,"parentSpanId":...,"flags":...}}
in the order the spans appear in the request.

Configuration comes from the environment (HTTP_ADDR, GRPC_ADDR, MAX_BODY_BYTES,
KAFKA_BROKERS, KAFKA_TOPIC, KAFKA_GROUP_ID, LOG_LEVEL, LOG_OUTPUT, SHUTDOWN_TIMEOUT);
flags override it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags, cmd.OutOrStdout())
		},
	}
	addServeFlags(root, flags)

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the intake servers (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags, cmd.OutOrStdout())
		},
	}
	addServeFlags(serve, flags)

	root.AddCommand(serve, newRenderCommand())
	return root
}

func addServeFlags(cmd *cobra.Command, flags *serveFlags) {
	cmd.Flags().StringVar(&flags.httpAddr, "http-addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	cmd.Flags().StringVar(&flags.grpcAddr, "grpc-addr", "", "OTLP/gRPC listen address (overrides GRPC_ADDR)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
}

func newRenderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "render [file]",
		Short: "Render a binary ExportTraceServiceRequest from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if len(args) == 1 && args[0] != "-" {
				raw, err = os.ReadFile(args[0])
			} else {
				raw, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}

			logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
			walker := envelope.NewWalker(render.NewRenderer(render.NewSink(cmd.OutOrStdout())), logger)
			if _, err := walker.WalkBytes(raw); err != nil {
				return fmt.Errorf("render payload: %w", err)
			}
			return nil
		},
	}
}

func runServe(ctx context.Context, flags *serveFlags, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flags.httpAddr != "" {
		cfg.HTTP.Addr = flags.httpAddr
	}
	if flags.grpcAddr != "" {
		cfg.GRPC.Addr = flags.grpcAddr
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}

	logger := logging.Init(cfg.Log)
	gin.SetMode(gin.ReleaseMode)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	renderer := render.NewRenderer(render.NewSink(out))
	walker := envelope.NewWalker(renderer, logger)
	endpoint := intake.NewEndpoint(walker, cfg.HTTP.MaxBodyBytes)
	httpServer := server.New(cfg.HTTP, endpoint, renderer, logger)

	errCh := make(chan error, 2)

	var grpcServer *receiver.Server
	if cfg.GRPC.Addr != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.GRPC.Addr, err)
		}
		grpcServer = receiver.NewServer(receiver.New(walker, logger), logger)
		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if cfg.Kafka.Enabled() {
		consumer := kafka.NewConsumer(cfg.Kafka, walker, logger)
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Consumer error", slog.String("error", err.Error()))
			}
		}()
	}

	logger.Info("Span intake started", slog.String("version", version))

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down...")
	case runErr = <-errCh:
		logger.Error("Server error", slog.String("error", runErr.Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Stop()
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", slog.String("error", err.Error()))
	}

	return runErr
}
