package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/croaudit/analysis"
	"github.com/use-agent/croaudit/cleaner"
	"github.com/use-agent/croaudit/config"
	"github.com/use-agent/croaudit/llm"
	"github.com/use-agent/croaudit/prompt"
	"github.com/use-agent/croaudit/scraper"
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "croaudit",
	Short: "croaudit: conversion-rate audit of landing page copy",
	Long: `croaudit fetches a landing page, extracts its marketing copy and asks a
language model for a structured CRO evaluation, all in-process.

Configuration is read from the same CROAUDIT_* environment variables as the
server; the model key from GROQ_API_KEY.

Usage:
  croaudit fetch <url>
  croaudit analyze --url <url> [flags]
  croaudit analyze --text "<copy>" [flags]`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log pipeline progress to stderr")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newPipeline builds the same pipeline the server uses.
func newPipeline(cfg *config.Config) (*analysis.Pipeline, error) {
	extractor, err := cleaner.NewExtractor(cleaner.DefaultRules())
	if err != nil {
		return nil, fmt.Errorf("extraction rules: %w", err)
	}
	return &analysis.Pipeline{
		Fetcher:       scraper.NewFetcher(cfg.Fetch),
		Extractor:     extractor,
		Builder:       prompt.NewBuilder(cfg.Analyze.MaxTextLength),
		Model:         llm.NewClient(cfg.LLM),
		MinTextLength: cfg.Analyze.MinTextLength,
	}, nil
}
