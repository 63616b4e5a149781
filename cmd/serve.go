package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/heattile/internal/heatmap"
	"github.com/kiesman99/heattile/internal/logging"
	"github.com/kiesman99/heattile/internal/metrics"
	"github.com/kiesman99/heattile/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for heatmap tiles",
	Long: `Start an HTTP server that renders heatmap tiles of the stored tracks.

Tiles are served at /heatmap/{z}/{x}/{y}.png. Every other path is served
from the static directory, which usually holds the map viewer.

Examples:
  # Start server on default port 7000
  heattile serve

  # Start server on custom port
  heattile serve --port 3000

  # Expose Prometheus metrics on a separate listener
  heattile serve --metrics-addr localhost:9100`,
	PreRun: func(cmd *cobra.Command, args []string) {
		bindStoreFlags(cmd)
	},
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server configuration
	serveCmd.Flags().StringP("bind", "b", "", "bind address (all interfaces when empty)")
	serveCmd.Flags().IntP("port", "p", 7000, "port to listen on")
	serveCmd.Flags().String("static-dir", "html", "directory served for non-tile paths")
	serveCmd.Flags().String("metrics-addr", "", "address of the Prometheus metrics listener (disabled when empty)")

	// Producer configuration
	serveCmd.Flags().Int64("max-concurrent", int64(4*runtime.GOMAXPROCS(0)), "maximum tiles rendered at once (0 for no limit)")
	serveCmd.Flags().Uint32("breaker-failures", 5, "consecutive failures that open the circuit breaker (0 disables it)")
	serveCmd.Flags().Duration("breaker-timeout", 30*time.Second, "how long the circuit breaker stays open")

	addStoreFlags(serveCmd)

	// Bind flags to viper
	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.static_dir", serveCmd.Flags().Lookup("static-dir"))
	viper.BindPFlag("server.metrics_addr", serveCmd.Flags().Lookup("metrics-addr"))
	viper.BindPFlag("producer.max_concurrent", serveCmd.Flags().Lookup("max-concurrent"))
	viper.BindPFlag("producer.breaker_failures", serveCmd.Flags().Lookup("breaker-failures"))
	viper.BindPFlag("producer.breaker_timeout", serveCmd.Flags().Lookup("breaker-timeout"))
}

func runServe(cmd *cobra.Command, args []string) error {
	bind := viper.GetString("server.bind")
	port := viper.GetInt("server.port")
	staticDir := viper.GetString("server.static_dir")
	metricsAddr := viper.GetString("server.metrics_addr")

	addr := fmt.Sprintf("%s:%d", bind, port)

	if fi, err := os.Stat(staticDir); err != nil {
		return fmt.Errorf("static directory: %w", err)
	} else if !fi.IsDir() {
		return fmt.Errorf("static directory: %s is not a directory", staticDir)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	producer := newProducer(store)

	r := server.NewRouter(server.NewServer(producer), http.Dir(staticDir))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var metricsServer *http.Server
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{
			Addr:              metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logging.Info().Str("addr", metricsAddr).Msg("starting metrics listener")
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				logging.Error().Err(err).Msg("metrics listener failed")
			}
		}()
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()

		logging.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("server shutdown error")
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logging.Error().Err(err).Msg("metrics shutdown error")
			}
		}
	}()

	logging.Info().
		Str("addr", addr).
		Str("static_dir", staticDir).
		Str("store", viper.GetString("store.kind")).
		Msg("starting heattile server")

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// newProducer stacks the renderer behind the concurrency limit, the circuit
// breaker and request coalescing. The breaker sits under Dedup so that a
// production shared by many callers counts as one outcome.
func newProducer(src heatmap.Source) heatmap.Producer {
	var p heatmap.Producer = heatmap.NewRenderer(src, heatmap.DefaultOptions())
	p = heatmap.Limit(p, viper.GetInt64("producer.max_concurrent"))
	p = heatmap.Breaker(p, heatmap.BreakerConfig{
		Name:     "track-store",
		Failures: viper.GetUint32("producer.breaker_failures"),
		Timeout:  viper.GetDuration("producer.breaker_timeout"),
	})
	return heatmap.Dedup(p)
}
