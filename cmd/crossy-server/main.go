// Command crossy-server is the dedicated game server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crossy/crossy-go/internal/config"
	"github.com/crossy/crossy-go/internal/server"
	"github.com/crossy/crossy-go/internal/telemetry"
)

// Version is set at build time.
var Version = "dev"

var (
	flagConfig  string
	flagPort    int
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "crossy-server",
	Short: "Crossy dedicated game server",
	Long: `crossy-server hosts any number of concurrent crossing-game matches,
each with its own tick loop, and exposes /new, /join, /play, /ws, and /ping
over HTTP.

Examples:
  crossy-server
  crossy-server --port 8080
  crossy-server --config server.yaml`,
	RunE: runServer,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	rootCmd.Flags().IntVar(&flagPort, "port", 0, "listen port (overrides config)")
	rootCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
}

func runServer(cmd *cobra.Command, args []string) error {
	log := telemetry.NewLogger(flagVerbose)

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry := server.NewRegistry(log)
	router := server.NewRouter(registry, cfg.ToServerConfig(), cfg.StaticDir)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Info("crossy-server listening", "version", Version, "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
