// ABOUTME: Main entry point for the ragdoc MCP server with stdio transport
// ABOUTME: Loads configuration, builds services, and serves every ragdoc tool
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/ragdoc/internal/app"
	"github.com/harper/ragdoc/internal/config"
	"github.com/harper/ragdoc/internal/logging"
	"github.com/harper/ragdoc/internal/mcp"
)

var version = "dev"

func main() {
	// Load .env file if it exists (for API keys)
	envErr := godotenv.Load()

	// stdout carries the protocol, so logs go to stderr
	cfg, err := config.Load("")
	if err != nil {
		logging.New(logging.Options{Output: os.Stderr}).Fatal("invalid configuration", "err", err)
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Output: os.Stderr})
	if envErr != nil {
		logger.Debug("no .env file found", "err", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize services", "err", err)
	}
	defer func() { _ = svc.Close() }()

	server := mcp.NewServer(svc, version)

	logger.Info("ragdoc MCP server starting on stdio", "index", cfg.IndexBackend, "llm", cfg.LLMProvider)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", "err", err)
			_ = svc.Close()
			os.Exit(1)
		}
	}
}
