package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"reascribe/internal/config"
	"reascribe/internal/index"
	"reascribe/internal/mcp"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Print the indexed documentation for one API function",
	Example: `  reascribe lookup CountTracks
  reascribe lookup reaper.GetTrack
  reascribe lookup gfx.rect`,
	Args: cobra.ExactArgs(1),
	Run:  runLookup,
}

func runLookup(cmd *cobra.Command, args []string) {
	db, err := index.New(config.IndexPath())
	if err != nil {
		log.Fatalf("failed to open index: %v", err)
	}
	defer db.Close()

	entries, err := db.Resolve(args[0])
	if err != nil {
		log.Fatalf("lookup failed: %v", err)
	}
	if len(entries) == 0 {
		log.Fatalf("no function named %q in the index (run `reascribe index` first)", args[0])
	}

	for i, e := range entries {
		if i > 0 {
			fmt.Println("---")
		}
		fmt.Print(mcp.EntryDoc(&e))
	}
}
