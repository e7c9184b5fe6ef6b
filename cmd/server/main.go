package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/napolitain/village-sim/internal/config"
	"github.com/napolitain/village-sim/internal/game"
	"github.com/napolitain/village-sim/internal/loader"
	"github.com/napolitain/village-sim/internal/rpc"
	"github.com/napolitain/village-sim/internal/transport/ws"
	"github.com/napolitain/village-sim/internal/village"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "village-server",
		Short: "Village simulation server",
		Long: `Runs one village in real time. Commands arrive over gRPC
(village.v1.VillageService) and snapshots stream to WebSocket observers.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, newLogger(cfg))
		},
	}

	defaults := config.Default()
	flags := rootCmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "Path to YAML config file")
	flags.String("grpc", defaults.Server.GRPCAddr, "gRPC listen address")
	flags.String("http", defaults.Server.HTTPAddr, "HTTP listen address for /ws and /snapshot")
	flags.Duration("tick", defaults.Server.TickInterval, "Simulation tick interval")
	flags.String("catalog", "", "Path to a building catalog (default: embedded)")
	flags.String("log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")

	return rootCmd
}

// loadConfig reads the config file and applies flags the user set
func loadConfig(path string, flags *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if flags.Changed("grpc") {
		cfg.Server.GRPCAddr, _ = flags.GetString("grpc")
	}
	if flags.Changed("http") {
		cfg.Server.HTTPAddr, _ = flags.GetString("http")
	}
	if flags.Changed("tick") {
		cfg.Server.TickInterval, _ = flags.GetDuration("tick")
	}
	if flags.Changed("catalog") {
		cfg.Village.CatalogPath, _ = flags.GetString("catalog")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(cfg.Level()).
		With().Timestamp().Logger()
}

// newSession builds the village and prayer tracker from cfg. The village
// starts at clock() and every command first catches up to clock().
func newSession(cfg config.Config, clock func() time.Time, logger zerolog.Logger) (*game.Session, error) {
	catalog, err := loader.LoadCatalog(cfg.Village.CatalogPath)
	if err != nil {
		return nil, err
	}
	tracker, err := cfg.Tracker(logger)
	if err != nil {
		return nil, err
	}
	v := village.New(catalog, clock(), cfg.VillageOptions(logger)...)
	return game.NewSession(v, tracker, logger, game.WithClock(clock)), nil
}

func serve(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	session, err := newSession(cfg, time.Now, logger)
	if err != nil {
		return err
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.Burst)
	grpcServer := rpc.NewGRPCServer(session, limiter, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           ws.NewServer(session, rate.Limit(cfg.Server.RateLimit), cfg.Server.Burst, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", cfg.Server.GRPCAddr).Msg("gRPC server listening")
		errs <- grpcServer.Serve(lis)
	}()
	go func() {
		logger.Info().Str("addr", cfg.Server.HTTPAddr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	go session.Run(ctx, cfg.Server.TickInterval, time.Now)

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down")
	case err = <-errs:
		logger.Error().Err(err).Msg("Server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	return err
}
