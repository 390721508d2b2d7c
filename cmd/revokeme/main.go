package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	internalconfig "github.com/approvalguard/approvalguard/internal/config"
	"github.com/approvalguard/approvalguard/internal/logger"
	"github.com/approvalguard/approvalguard/internal/metrics"
	"github.com/approvalguard/approvalguard/internal/rpc"
	"github.com/approvalguard/approvalguard/internal/scanner"
	"github.com/approvalguard/approvalguard/pkg/api"
	"github.com/approvalguard/approvalguard/pkg/classifier"
	"github.com/approvalguard/approvalguard/pkg/logparser"
	"github.com/spf13/cobra"
)

const (
	version = "1.0.0"
	banner  = `
╔═══════════════════════════════════════════╗
║           ApprovalGuard v%s              ║
║   Wallet Approval Exposure Scanner         ║
╚═══════════════════════════════════════════╝
`
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "revokeme",
	Short: "ApprovalGuard - wallet approval exposure scanner",
	Long: `ApprovalGuard scans a wallet's historical ERC-20/ERC-721/ERC-1155 approval
events, re-verifies every one against live chain state, and returns a
risk-scored, categorized report of what a wallet has exposed and to whom.
It is strictly read-only: it never signs or broadcasts a transaction.`,
	Version: version,
	RunE:    runServe,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf(banner, version)

	// Load configuration
	cfg, err := internalconfig.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	// Initialize logger
	log, err := logger.NewLogger(cfg.LogLevel, cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Close()

	// Initialize RPC client
	log.Info("Connecting to Ethereum node...")
	rpcClient, err := rpc.NewClient(ctx, cfg.RPC.Endpoint, &cfg.RPC)
	if err != nil {
		return fmt.Errorf("failed to create rpc client: %w", err)
	}
	defer rpcClient.Close()
	log.Infow("connected to rpc endpoint", "endpoint", cfg.RPC.Endpoint)

	// Initialize metrics server if enabled
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(&cfg.Metrics)
		if err := metricsServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			if err := metricsServer.Stop(ctx); err != nil {
				log.Warnw("failed to stop metrics server", "error", err)
			}
		}()
		log.Infow("metrics server started", "addr", cfg.Metrics.ListenAddress(), "path", cfg.Metrics.Path)
	}

	// Wire the Scanner Orchestrator: parser, spender classifier, then the
	// orchestrator that drives them against the RPC gateway.
	parser := logparser.New(log.WithComponent("log-parser"))
	cls := classifier.New(cfg.RPC.ExplorerAPIKey, log.WithComponent("classifier"))
	orchestrator := scanner.New(rpcClient, parser, cls, &cfg.Scanner, log.WithComponent("scanner"))

	// Start the inbound HTTP API; Start blocks until ctx is cancelled and
	// shuts the server down gracefully before returning.
	log.Info("starting ApprovalGuard API server...")
	apiServer := api.NewServer(cfg, orchestrator, log.WithComponent("api"))
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("api server error: %w", err)
	}

	log.Info("ApprovalGuard stopped successfully")
	return nil
}
