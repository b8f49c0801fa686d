package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"reascribe/internal/config"
	"reascribe/internal/index"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed API functions by name or description",
	Example: `  reascribe search track
  reascribe search "media item" --limit 5`,
	Args: cobra.ExactArgs(1),
	Run:  runSearch,
}

var searchLimit int

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "max results")
}

func runSearch(cmd *cobra.Command, args []string) {
	db, err := index.New(config.IndexPath())
	if err != nil {
		log.Fatalf("failed to open index: %v", err)
	}
	defer db.Close()

	entries, err := db.Search(args[0], searchLimit)
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("no results")
		return
	}

	for i, e := range entries {
		marker := ""
		if e.Deprecated {
			marker = " [deprecated]"
		}
		fmt.Printf("%d. %s%s\n", i+1, e.Signature, marker)
		if line := firstLine(e.Description); line != "" {
			fmt.Printf("   %s\n", line)
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
