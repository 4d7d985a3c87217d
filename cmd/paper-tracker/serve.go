// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-tracker/internal/server"
	"github.com/pdiddy/paper-tracker/internal/store"
	"github.com/pdiddy/paper-tracker/internal/suggest"
	"github.com/pdiddy/paper-tracker/pkg/types"
)

const (
	defaultAddr      = ":8787"
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "paper-tracker/0.1"

	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the paper-tracker HTTP API",
	Long: `Serve exposes the library over HTTP: field and paper CRUD under /api,
plus POST /api/fields/{id}/papers/suggest for related-work discovery.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8787)")
	serveCmd.Flags().String("log-level", "", "log level: debug, info, warn, error (default info)")
	serveCmd.Flags().String("log-format", "", "log format: json or text (default text)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = viper.GetString("server.addr")
	}
	if addr == "" {
		addr = defaultAddr
	}

	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = viper.GetString("server.log_level")
	}
	format, _ := cmd.Flags().GetString("log-format")
	if format == "" {
		format = viper.GetString("server.log_format")
	}

	logger := server.NewLogger(level, format)
	slog.SetDefault(logger)

	st, err := store.Open(dbPath())
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.EnsureUser(cmd.Context(), store.DefaultUserID, "default"); err != nil {
		return err
	}

	gemini, resolver := newPipelineClients(logger)
	service := &suggest.Service{
		Store:     st,
		Generator: gemini,
		Resolver:  resolver,
		Logger:    logger,
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: server.New(st, resolver, service, logger).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("paper-tracker listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

// newPipelineClients builds the Gemini client and CrossRef resolver from
// config, flags, and secrets.
func newPipelineClients(logger *slog.Logger) (*suggest.GeminiClient, *suggest.CrossrefResolver) {
	httpCfg := types.HTTPConfig{
		Timeout:   defaultTimeout,
		UserAgent: defaultUserAgent,
	}

	gemini := &suggest.GeminiClient{
		Config: types.GeminiConfig{
			HTTPConfig:      httpCfg,
			Model:           viper.GetString("gemini.model"),
			APIKey:          secretDefault("gemini-api-key", viper.GetString("gemini.api_key")),
			Temperature:     viper.GetFloat64("gemini.temperature"),
			MaxOutputTokens: viper.GetInt("gemini.max_output_tokens"),
			MaxRetries:      viper.GetInt("gemini.max_retries"),
		},
		Client: &http.Client{Timeout: httpCfg.Timeout},
		Logger: logger,
	}

	resolver := &suggest.CrossrefResolver{
		Config: types.CrossrefConfig{
			HTTPConfig: httpCfg,
			Email:      secretDefault("crossref-email", viper.GetString("crossref.email")),
			MaxRetries: viper.GetInt("crossref.max_retries"),
		},
		Client: &http.Client{Timeout: httpCfg.Timeout},
		Logger: logger,
	}

	return gemini, resolver
}
