// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Command lhafs lists, tests, extracts and serves LHA archives.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/elliotnunn/lhafs/internal/decompressioncache"
)

var (
	cacheDir string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:          "lhafs",
	Short:        "Browse LHA archives as a filesystem",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		decompressioncache.Budget = cacheBudget()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache", "", "remember archive listings in this directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every skipped entry and cache miss")
	rootCmd.AddCommand(listCmd, testCmd, catCmd, extractCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
