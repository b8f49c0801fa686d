package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"reascribe/internal/config"
	"reascribe/internal/manual"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the ReaScript manual into the local cache",
	Args:  cobra.NoArgs,
	Run:   runFetch,
}

var fetchRefresh bool

func init() {
	fetchCmd.Flags().BoolVar(&fetchRefresh, "refresh", false, "re-download even if cached")
}

func runFetch(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	loader := manual.NewLoader(cfg.Manual.Timeout())
	if _, err := loader.Load(context.Background(), cfg.Manual.URL, fetchRefresh); err != nil {
		slog.Error("failed to fetch manual", "url", cfg.Manual.URL, "error", err)
		os.Exit(1)
	}
	fmt.Println(manual.CachePath(cfg.Manual.URL))
}
