package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/scriptura/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// Version does not need config or a logger
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Scriptura version %s\n", common.GetFullVersion())
	},
}
