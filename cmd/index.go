package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"reascribe/internal/config"
	"reascribe/internal/convert"
	"reascribe/internal/index"
)

var indexCmd = &cobra.Command{
	Use:   "index [input]",
	Short: "Parse the manual and import every function into the local index",
	Example: `  reascribe index
  reascribe index reascripthelp.html`,
	Args: cobra.MaximumNArgs(1),
	Run:  runIndex,
}

var indexRefresh bool

func init() {
	indexCmd.Flags().BoolVar(&indexRefresh, "refresh", false, "re-download the manual even if cached")
}

func runIndex(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	src, source, err := readInput(cfg, args, indexRefresh)
	if err != nil {
		slog.Error("failed to read manual", "error", err)
		os.Exit(1)
	}

	entries, diags, err := convert.Entries(context.Background(), src)
	if err != nil {
		slog.Error("parse failed", "source", source, "error", err)
		os.Exit(1)
	}
	diags.Replay(slog.Default())

	db, err := index.New(config.IndexPath())
	if err != nil {
		slog.Error("failed to open index", "path", config.IndexPath(), "error", err)
		os.Exit(1)
	}
	defer db.Close()

	m, err := db.ImportManual(source, entries)
	if err != nil {
		slog.Error("import failed", "source", source, "error", err)
		os.Exit(1)
	}
	fmt.Printf("indexed %d functions from %s\n", len(entries), m.Source)
}
