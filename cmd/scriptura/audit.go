package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent LLM operations from the audit log",
	Run:   runAudit,
}

var auditLimit int

func init() {
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "Maximum entries to show")
}

func runAudit(cmd *cobra.Command, args []string) {
	if !config.Audit.Enabled {
		logger.Warn().Msg("Audit log is disabled in configuration")
		return
	}

	auditLogger, closeAudit := openAudit()
	defer closeAudit()
	if auditLogger == nil {
		fatal(nil, "Audit store unavailable")
	}

	entries, err := auditLogger.RecentEntries(auditLimit)
	if err != nil {
		fatal(err, "Failed to read audit entries")
	}

	if len(entries) == 0 {
		fmt.Println("No audit entries recorded")
		return
	}

	for _, entry := range entries {
		status := "ok"
		if !entry.Success {
			status = "failed: " + entry.Error
		}
		fmt.Printf("%s  %-8s %-8s %-28s %6dms  %s\n",
			entry.Timestamp.Format(time.RFC3339),
			entry.Operation,
			entry.Provider,
			entry.Model,
			entry.Duration,
			status)
	}
}
