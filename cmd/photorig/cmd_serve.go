package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"photorig/mcp"
	"photorig/metrics"
	"photorig/web"
)

// newServeCmd creates the "photorig serve" subcommand.
func newServeCmd(configPath *string) *cobra.Command {
	var addr string
	var port string
	var withMCP bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP control server",
		Long:  "Starts the HTTP API, the status websocket and the Prometheus\nendpoint. Optionally connects to a serial port at startup.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cfg, err := loadSession(*configPath)
			if err != nil {
				return err
			}
			metrics.Register(nil)

			if addr == "" {
				addr = cfg.HTTPAddr
			}
			if port != "" {
				if err := sess.Connect(port); err != nil {
					return err
				}
				slog.Info("Connected to device", "port", port)
			}

			srv := &http.Server{
				Addr:    addr,
				Handler: web.NewServer(sess).Handler(),
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if withMCP {
				go func() {
					if err := mcp.NewServer(sess, version).Run(); err != nil {
						slog.Error("MCP server failed", "error", err)
					}
				}()
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("Starting HTTP server", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				sess.Disconnect()
				return err
			}

			slog.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP shutdown failed", "error", err)
			}
			sess.Disconnect()

			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to config http_addr)")
	cmd.Flags().StringVarP(&port, "port", "p", "", "serial port to connect at startup")
	cmd.Flags().BoolVar(&withMCP, "mcp", false, "also serve MCP tools over stdio")
	return cmd
}
