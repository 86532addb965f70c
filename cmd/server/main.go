package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "daf-memorial",
		Short: "Shared Talmud study tracker",
		Long: `Tracks which pages (dapim) of the Babylonian Talmud participants have
taken on, returned and completed, with an activity log and statistics.
Runs as an HTTP service or as an MCP server over stdio.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API or the stdio MCP server",
		Long:  `Opens the database, seeds the catalog when needed and serves requests until interrupted. DAF_TRANSPORT_MODE=stdio serves MCP over stdin/stdout.`,
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Create the tractate and page catalog",
		Long:  `Builds the catalog from the embedded seed, or from --file. An existing catalog with the expected page count is left alone.`,
		Args:  cobra.NoArgs,
		RunE:  runSeed,
	}
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Print page statistics as JSON",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}

	seedFile string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "seed YAML file (defaults to db.seed_path or the embedded catalog)")
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
