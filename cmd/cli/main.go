package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL  string
	timeout  time.Duration
	apiToken string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Ledger import CLI tool",
		Long:          `A command line interface for importing sales exports and inspecting reconciliation results.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ledger import API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", os.Getenv("LEDGERCTL_TOKEN"), "Bearer token (defaults to $LEDGERCTL_TOKEN)")

	rootCmd.AddCommand(
		importCmd(),
		batchesCmd(),
		diagnoseCmd(),
		migrateCmd(),
		tokenCmd(),
	)

	return rootCmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
