package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"greensim/internal/advisor"
	"greensim/internal/cerebras"
	"greensim/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var chat advisor.Chatter
			if cfg.Advisor.Enabled && cfg.Advisor.APIKey != "" {
				chat = cerebras.New(cfg.Advisor.BaseURL, cfg.Advisor.APIKey, cfg.Advisor.Timeout)
				logger.Info("advisor llm enabled", "advisor", cfg.Advisor.String())
			}
			adv := advisor.New(chat, cfg.Advisor.Model, cfg.Advisor.Timeout, logger)

			srv, err := server.NewServer(ctx, cfg, adv, logger)
			if err != nil {
				return err
			}
			defer srv.Close()

			httpServer := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           srv.Router,
				ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
				ReadTimeout:       0,
				WriteTimeout:      0,
				IdleTimeout:       cfg.Server.IdleTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("GreenSim backend listening", "addr", cfg.Server.Addr, "tick_interval", cfg.Simulation.TickInterval)
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (overrides config and GREENSIM_ADDR)")
	return cmd
}
