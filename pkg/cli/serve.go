package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/getmockd/schemagate/pkg/config"
	"github.com/getmockd/schemagate/pkg/logging"
)

// serveFlags holds the flags that override the configuration file.
type serveFlags struct {
	host      string
	port      int
	schemaDir string
	logLevel  string
	logFormat string
	noPreload bool
}

var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the validating gateway (foreground)",
	Long: `Start an HTTP server that validates every request against its OpenAPI schema
and acknowledges the valid ones.

The validator cache is preloaded from the schema directory at startup.
Operational endpoints:
  /healthz        liveness
  /metrics        Prometheus metrics
  /debug/schemas  validator cache contents`,
	Example: `  # Start with a configuration file
  schemagate serve --config gateway.yaml

  # Override the port and schema directory
  schemagate serve -c gateway.yaml --port 8080 --schema-dir ./schemas`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyServeFlags(cmd, cfg, &serveFlagVals)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg, !serveFlagVals.noPreload)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := &serveFlagVals
	serveCmd.Flags().StringVar(&f.host, "host", "", "Listen host")
	serveCmd.Flags().IntVarP(&f.port, "port", "p", config.DefaultPort, "Listen port")
	serveCmd.Flags().StringVar(&f.schemaDir, "schema-dir", config.DefaultSchemaDir, "Directory holding the OpenAPI schemas")
	serveCmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&f.logFormat, "log-format", "text", "Log format (text, json)")
	serveCmd.Flags().BoolVar(&f.noPreload, "no-preload", false, "Skip preloading the validator cache")
}

// applyServeFlags copies explicitly set flags over cfg.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config, f *serveFlags) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = f.host
	}
	if flags.Changed("port") {
		cfg.Server.Port = f.port
	}
	if flags.Changed("schema-dir") {
		cfg.App.SchemaDir = f.schemaDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
}

// runServe serves until ctx is cancelled, then shuts down gracefully.
func runServe(ctx context.Context, cfg *config.Config, preload bool) error {
	log, closer, err := logging.Open(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	gw := newGatewayServer(cfg, log)
	if preload {
		gw.preload()
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      gw.handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("gateway listening",
			"addr", srv.Addr,
			"level", cfg.ProtocolServerLevel(),
			"schemaDir", cfg.App.SchemaDir,
			"failOpen", cfg.App.OpenAPIValidator.FailOpen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("gateway stopped")
	return nil
}
