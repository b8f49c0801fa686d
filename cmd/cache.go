package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"reascribe/internal/config"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Remove cached manual downloads and the function index",
	Run:   runClearCache,
}

func runClearCache(cmd *cobra.Command, args []string) {
	dir := config.CacheDir()
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Println("cache is already empty")
		return
	}

	if err := os.RemoveAll(dir); err != nil {
		slog.Error("failed to clear cache", "path", dir, "error", err)
		os.Exit(1)
	}
	fmt.Println("cache cleared")
}
