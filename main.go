package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/spf13/cobra"

	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/logging"
	"github.com/Zachkp/portfolio/internal/server"
	"github.com/Zachkp/portfolio/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Portfolio site with a relayed contact form",
	Long: `Serves the portfolio page, relays contact messages to Web3Forms behind
hCaptcha and keeps privacy-preserving visit statistics.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the web server",
	RunE:    runServe,
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete visit and submission records older than the retention window",
	RunE:  runPrune,
}

var pruneOlderThan time.Duration

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "retention window (defaults to RETENTION)")
	rootCmd.AddCommand(serveCmd, pruneCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and installs the global logger.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logCfg := logging.DefaultConfig(cfg.LogFile, cfg.LogLevel)
	logCfg.LogRequests = cfg.LogRequests
	if err := logging.Configure(logCfg); err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	logger := logging.GetLogger()
	defer logger.Close()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to open database: %v", err)
		return err
	}
	defer st.Close()

	srv, err := server.New(cfg, st, contact.NewWeb3Forms(cfg.RelayURL, cfg.SubmitTimeout))
	if err != nil {
		logger.Error("Failed to build server: %v", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting portfolio server (env=%s)", cfg.Environment)
	if err := srv.Run(ctx); err != nil {
		logger.Error("Server stopped: %v", err)
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	logger := logging.GetLogger()
	defer logger.Close()

	olderThan := pruneOlderThan
	if olderThan <= 0 {
		olderThan = cfg.VisitRetention
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	res, err := st.Prune(ctx, olderThan)
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d visitor, %d submission and %d reveal records older than %s\n",
		res.Visitors, res.Submissions, res.Reveals, olderThan)
	logger.Info("Privacy cleanup removed %d records", res.Total())
	return nil
}
