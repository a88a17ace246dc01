package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/devai/internal/anomaly"
	"github.com/rohankatakam/devai/internal/claude"
	"github.com/rohankatakam/devai/internal/config"
	"github.com/rohankatakam/devai/internal/dashboard"
	"github.com/rohankatakam/devai/internal/http/router"
	"github.com/rohankatakam/devai/internal/narrative"
	"github.com/rohankatakam/devai/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the anomaly, narrative, chat and dashboard endpoints.

The chat endpoint answers 502 until ANTHROPIC_API_KEY is configured.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.HTTP.Addr = serveAddr
	}
	result := cfg.Validate(config.ValidationContextServe)
	for _, w := range result.Warnings {
		logger.Warn(w)
	}
	if result.HasErrors() {
		return errors.New(result.Error())
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := router.Dependencies{
		Engine:      anomaly.NewEngine(anomaly.WithLogger(logger.Component("anomaly"))),
		Synthesizer: narrative.NewSynthesizer(logger.Component("narrative")),
		Anomalies:   store.NewAnomalyStore(),
		Narratives:  store.NewNarrativeStore(),
		Hub:         dashboard.NewHub(logger.Component("dashboard"), dashboard.WithAllowedOrigins(cfg.HTTP.CORSOrigins)),
		Logger:      logger.Component("http"),
	}
	if cfg.Claude.APIKey != "" {
		client, err := claude.NewClient(cfg.Claude, logger.Component("claude"))
		if err != nil {
			return err
		}
		deps.Chat = client
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set; /api/chat will answer 502")
	}

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router.New(deps, router.RouterConfig{CORSOrigins: cfg.HTTP.CORSOrigins}),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", srv.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}
