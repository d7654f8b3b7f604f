package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/use-agent/croaudit/config"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetch a landing page and print its extracted marketing text",
	Long: `Fetch retrieves the page with the browser-like header profiles and prints
the text that would be sent for analysis.

Examples:
  croaudit fetch https://example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(config.Load())
	if err != nil {
		return err
	}

	ext, err := p.FetchText(cmd.Context(), args[0])
	if err != nil {
		return describe(err)
	}

	if ext.Warning != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", ext.Warning)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ext.Text)
	return nil
}
