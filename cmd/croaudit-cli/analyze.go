package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/croaudit/analysis"
	"github.com/use-agent/croaudit/config"
	"github.com/use-agent/croaudit/llm"
	"github.com/use-agent/croaudit/models"
)

// Flag variables.
var (
	flagURL      string
	flagText     string
	flagFile     string
	flagAudience string
	flagProduct  string
	flagStream   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a CRO analysis on a URL or on pasted copy",
	Long: `Analyze evaluates landing page copy and prints the result as JSON.

Exactly one of --url, --text or --file is required. With --stream the raw
model output is printed as it arrives instead of the validated JSON.

Examples:
  croaudit analyze --url https://example.com
  croaudit analyze --text "Ship invoices in one click..." --audience "freelancers"
  croaudit analyze --file copy.txt --product "B2B SaaS" --stream`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&flagURL, "url", "", "Landing page URL to fetch and analyze")
	analyzeCmd.Flags().StringVar(&flagText, "text", "", "Landing page copy to analyze")
	analyzeCmd.Flags().StringVar(&flagFile, "file", "", "Read landing page copy from a file ('-' for stdin)")
	analyzeCmd.Flags().StringVar(&flagAudience, "audience", "", "Target audience to personalize the critique for")
	analyzeCmd.Flags().StringVar(&flagProduct, "product", "", "Product type to personalize the critique for")
	analyzeCmd.Flags().BoolVar(&flagStream, "stream", false, "Print raw model output as it streams")

	analyzeCmd.MarkFlagsMutuallyExclusive("url", "text", "file")
	analyzeCmd.MarkFlagsOneRequired("url", "text", "file")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text := flagText
	if flagFile != "" {
		b, err := readInput(flagFile)
		if err != nil {
			return fmt.Errorf("reading %s: %w", flagFile, err)
		}
		text = string(b)
	}

	p, err := newPipeline(config.Load())
	if err != nil {
		return err
	}

	in := analysis.AnalyzeInput{
		Text: text,
		URL:  flagURL,
		Mission: models.MissionContext{
			TargetAudience: flagAudience,
			ProductType:    flagProduct,
		},
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if flagStream {
		s, err := p.AnalyzeStream(ctx, in)
		if err != nil {
			return describe(err)
		}
		if _, err := llm.Collect(ctx, s, func(chunk string) { io.WriteString(out, chunk) }); err != nil {
			fmt.Fprintln(out)
			return describe(err)
		}
		fmt.Fprintln(out)
		return nil
	}

	result, err := p.Analyze(ctx, in)
	if err != nil {
		return describe(err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// describe renders a pipeline error with its code and details for the terminal.
func describe(err error) error {
	var ae *models.AnalysisError
	if !errors.As(err, &ae) {
		return err
	}
	msg := fmt.Sprintf("[%s] %s", ae.Kind, ae.Message)
	if ae.Details != "" {
		msg += " (" + ae.Details + ")"
	}
	if ae.RawResponse != "" {
		msg += "\nraw response: " + ae.RawResponse
	}
	return errors.New(msg)
}
