package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yangwenmai/storeforge/internal/api"
	"github.com/yangwenmai/storeforge/internal/worker"
)

var (
	servePort     string
	serveNoWorker bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background generation worker",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveNoWorker, "no-worker", false, "serve the API without processing the queue")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	port := cfg.Port
	if servePort != "" {
		port = servePort
	}

	if !serveNoWorker {
		w := worker.New(a.store, a.pipeline, a.lock, cfg.WorkerInterval)
		if err := w.Recover(ctx); err != nil {
			slog.Warn("reset stale generations", "error", err)
		}
		go w.Start(ctx)
	}

	opts := []api.Option{
		api.WithBackgrounds(a.enhancer),
		api.WithMetrics(a.metrics.Handler()),
		api.WithCORSOrigin(cfg.CORSOrigin),
	}
	if a.publisher != nil {
		opts = append(opts, api.WithPublisher(a.publisher))
	}
	if a.mediaDir != "" {
		opts = append(opts, api.WithMedia(a.mediaDir))
	}
	srv := api.New(a.store, opts...)

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http shutdown", "error", err)
		}
	}()

	slog.Info("storeforge listening", "addr", "http://localhost:"+port,
		"publish", a.publisher != nil, "stub_llm", cfg.UseStubs(), "stub_images", cfg.UseImageStub())
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
