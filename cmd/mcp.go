package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"reascribe/internal/config"
	"reascribe/internal/index"
	"reascribe/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the function index to agents over stdio MCP",
	Args:  cobra.NoArgs,
	Run:   runMCP,
}

func runMCP(cmd *cobra.Command, args []string) {
	db, err := index.New(config.IndexPath())
	if err != nil {
		log.Fatalf("failed to open index: %v", err)
	}
	defer db.Close()

	server := mcp.NewServer(db)

	errCh := make(chan error)
	go func() { errCh <- server.Run() }()

	if err := waitForSignal(errCh); err != nil {
		log.Fatalf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}

func waitForSignal(errCh chan error) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		log.Printf("received signal: %s", sig)
		return nil
	case err := <-errCh:
		return err
	}
}
