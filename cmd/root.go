package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"reascribe/internal/config"
	"reascribe/internal/manual"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "reascribe",
	Short: "Convert the REAPER ReaScript manual into typed declaration files",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(clearCacheCmd)
}

// readInput resolves the optional [input] argument shared by convert and
// index: a file path, "-" for stdin, or nothing to load the configured
// manual URL through the cache. Returns the document and a source label
// for logs and the index.
func readInput(cfg *config.Config, args []string, refresh bool) (string, string, error) {
	if len(args) == 0 {
		loader := manual.NewLoader(cfg.Manual.Timeout())
		doc, err := loader.Load(context.Background(), cfg.Manual.URL, refresh)
		if err != nil {
			return "", "", err
		}
		return doc, cfg.Manual.URL, nil
	}

	if args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "stdin", nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), args[0], nil
}
