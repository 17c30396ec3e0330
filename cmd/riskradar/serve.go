package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskradar/riskradar/internal/auditstore"
	"github.com/riskradar/riskradar/internal/config"
	"github.com/riskradar/riskradar/internal/github"
	"github.com/riskradar/riskradar/internal/llm"
	"github.com/riskradar/riskradar/internal/risk"
	"github.com/riskradar/riskradar/internal/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the GitHub webhook server",
	Long: `Starts an HTTP server that receives pull_request webhooks, scores
each PR, posts the review, and stores the audit trace.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	result := cfg.Validate(config.ValidationContextServe)
	for _, w := range result.Warnings {
		logger.Warn(w)
	}
	if result.HasErrors() {
		return fmt.Errorf("%s", result.Error())
	}

	addr := cfg.Server.Addr
	if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
		addr = flagAddr
	}

	store, err := auditstore.Open(cfg.Audit.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	client := github.NewClient(cfg.GitHub.Token, cfg.GitHub.RateLimit)
	analyzer := risk.NewAnalyzer(logger, cfg.Risk)
	narrator := llm.NewClient(logger, cfg.API.OpenAIKey, cfg.API.OpenAIModel)

	handler := webhook.NewHandler(
		logger,
		cfg.Server.WebhookSecret,
		analyzer,
		client,
		&webhook.CommitHistory{Client: client},
		store,
		narrator,
		cfg.Risk.LookbackDays,
	)

	mux := http.NewServeMux()
	mux.Handle("/webhook", handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"status":"ok"}`)
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("Webhook server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
