package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apictx-dev/apictx/internal/config"
	"github.com/apictx-dev/apictx/internal/ignore"
	"github.com/apictx-dev/apictx/internal/logger"
	"github.com/apictx-dev/apictx/internal/metadata"
	"github.com/apictx-dev/apictx/internal/parser"
	"github.com/apictx-dev/apictx/internal/pipeline"
)

// RunExtract implements "apictx extract [source]".
func RunExtract(cmd *cobra.Command, args []string) error {
	sourcePath := "."
	if len(args) == 1 {
		sourcePath = args[0]
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")
	if err := logger.Initialize(jsonOutput, verbose); err != nil {
		return err
	}

	pkgFlag, _ := cmd.Flags().GetString("package")
	src, err := metadata.ResolveSource(sourcePath, pkgFlag)
	if err != nil {
		return err
	}

	cfg, err := config.Load(sourcePath)
	if err != nil {
		return err
	}
	workers, _ := cmd.Flags().GetInt("workers")
	if workers < 1 {
		workers = cfg.Workers
	}

	pkgVersion, _ := cmd.Flags().GetString("pkg-version")
	if pkgVersion == "" {
		pkgVersion = metadata.DetectVersion(src)
	}
	commit, _ := cmd.Flags().GetString("commit")
	if commit == "" {
		commit = metadata.DetectCommit(src)
	}

	outDir, _ := cmd.Flags().GetString("out")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	matcher := ignore.NewMatcher(cfg.Ignore)
	files, err := parser.Discover(src.Root, matcher)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Root:       src.Root,
		Package:    src.Package,
		Version:    pkgVersion,
		Commit:     commit,
		OutDir:     outDir,
		Workers:    workers,
		GramLength: cfg.GramLength,
		RespectAll: cfg.Visibility.RespectAll,
		Progress:   !noProgress && !jsonOutput,
	}
	summary, err := pipeline.Run(cmd.Context(), opts, files)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(summary.Report)
	}
	printExtractSummary(summary, outDir)
	return nil
}

func printExtractSummary(summary *pipeline.Summary, outDir string) {
	report := summary.Report
	fmt.Printf("extracted %d symbols from %d files -> %s\n", report.SymbolCount, summary.Files, outDir)
	for _, kind := range kindOrder {
		if n := report.SymbolsByKind[kind]; n > 0 {
			fmt.Printf("  %-10s %d\n", kind, n)
		}
	}
	if report.ParseErrors > 0 {
		fmt.Printf("  parse errors: %d (see %s)\n", report.ParseErrors, pipeline.ValidationFile)
	}
	if report.SchemaViolations > 0 {
		fmt.Printf("  schema violations: %d\n", report.SchemaViolations)
	}
	if report.MissingReferences > 0 {
		fmt.Printf("  missing references: %d\n", report.MissingReferences)
	}
}

var kindOrder = []string{"module", "class", "function", "constant", "typealias"}
