package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scriptura/internal/common"
	"github.com/ternarybob/scriptura/internal/interfaces"
	"github.com/ternarybob/scriptura/internal/storage/badger"
)

var (
	configFiles []string

	// Global state shared by subcommands, populated in bootstrap
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "scriptura",
	Short: "Verse retrieval and sermon-preparation assistant",
	Long: `Scriptura ingests a verse corpus, embeds it, uploads the embeddings to a
Pinecone index, and answers sermon-preparation questions grounded in the
retrieved verses.`,
	SilenceUsage:      true,
	PersistentPreRunE: bootstrap,
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil,
		"Configuration file path (can be specified multiple times, later files override earlier ones)")

	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(versionCmd)
}

// bootstrap runs the startup sequence shared by every subcommand:
// load .env, load config (defaults -> files -> env), initialize the logger,
// print the banner.
func bootstrap(cmd *cobra.Command, args []string) error {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("scriptura.toml"); err == nil {
			configFiles = append(configFiles, "scriptura.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	return nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM so a long
// batch run can stop between chunks and still write partial results.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openAudit opens the audit store when enabled. A nil logger is valid and
// disables auditing; the returned closer is always safe to call.
func openAudit() (interfaces.AuditLogger, func()) {
	if !config.Audit.Enabled {
		return nil, func() {}
	}

	db, err := badger.NewBadgerDB(config.Audit.Path, logger)
	if err != nil {
		logger.Warn().Err(err).Str("path", config.Audit.Path).Msg("Audit store unavailable, continuing without audit log")
		return nil, func() {}
	}

	store := badger.NewAuditStorage(db, config.Audit.LogQueries, logger)
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close audit store")
		}
	}
}

func fatal(err error, msg string) {
	logger.Error().Err(err).Msg(msg)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
