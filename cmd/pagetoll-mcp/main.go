// Command pagetoll-mcp runs the agent-facing MCP proxy over stdio.
//
// Stdout carries the MCP protocol, so all logging goes to stderr.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pagetoll/pagetoll/mcp"
)

func main() {
	backendURL := flag.String("backend", defaultBackendURL(), "base URL of the pagetoll server")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proxy := mcp.NewProxy(mcp.NewBackendClient(*backendURL, nil), logger)
	if err := proxy.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("MCP proxy stopped", "err", err)
		os.Exit(1)
	}
}

func defaultBackendURL() string {
	if url := strings.TrimSpace(os.Getenv("PAGETOLL_BACKEND_URL")); url != "" {
		return url
	}
	return "http://localhost:3000"
}
