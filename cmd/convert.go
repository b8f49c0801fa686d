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
	"reascribe/internal/emit"
)

var convertCmd = &cobra.Command{
	Use:   "convert [input]",
	Short: "Convert the ReaScript manual into a declaration file",
	Long: `Convert parses the ReaScript API manual and writes a typed declaration
file: a Lua stub with EmmyLua annotations, or a TypeScript .d.ts module.

The input is a file path, "-" for stdin, or nothing to download the
configured manual URL (cached across runs).`,
	Example: `  reascribe convert
  reascribe convert reascripthelp.html
  reascribe convert --dialect ts
  cat reascripthelp.html | reascribe convert - -o -`,
	Args: cobra.MaximumNArgs(1),
	Run:  runConvert,
}

var (
	convertDialect string
	convertOut     string
	convertRefresh bool
)

func init() {
	convertCmd.Flags().StringVar(&convertDialect, "dialect", "", "output dialect: lua (EmmyLua) or ts (TypeScript)")
	convertCmd.Flags().StringVarP(&convertOut, "output", "o", "", `output file, "-" for stdout (default reaper.lua or reaper.d.ts)`)
	convertCmd.Flags().BoolVar(&convertRefresh, "refresh", false, "re-download the manual even if cached")
}

func runConvert(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dialect := cfg.Output.Dialect
	if convertDialect != "" {
		dialect, err = emit.ParseDialect(convertDialect)
		if err != nil {
			log.Fatalf("invalid dialect: %v", err)
		}
	}

	src, source, err := readInput(cfg, args, convertRefresh)
	if err != nil {
		slog.Error("failed to read manual", "error", err)
		os.Exit(1)
	}

	res, err := convert.Document(context.Background(), src, dialect)
	if err != nil {
		slog.Error("conversion failed", "source", source, "error", err)
		os.Exit(1)
	}
	res.Log.Replay(slog.Default())

	out := convertOut
	if out == "" {
		out = dialect.DefaultFilename()
	}
	if out == "-" {
		fmt.Println(res.Output)
		return
	}

	if err := os.WriteFile(out, []byte(res.Output+"\n"), 0644); err != nil {
		slog.Error("failed to write output", "path", out, "error", err)
		os.Exit(1)
	}
	slog.Info("wrote declarations", "source", source, "output", out,
		"functions", res.Functions, "skipped", res.Skipped, "failed", res.Failed)
}
