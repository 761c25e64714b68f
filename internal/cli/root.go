// Package cli wires the apictx commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apictx-dev/apictx/internal/version"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "apictx",
		Short: "Extract queryable API surface maps from Python libraries",
		Long: `apictx walks a Python package, extracts its public API surface -
modules, classes, functions, constants, and type aliases - and persists
it as a line-delimited symbol corpus plus a queryable index.

The output directory is self-contained: exact and approximate lookups
run against it without re-reading the original sources.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	extractCmd := &cobra.Command{
		Use:   "extract [source]",
		Short: "Extract the API surface of a Python package into an index",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunExtract,
	}
	extractCmd.Flags().String("package", "", "Package name (default: auto-detected)")
	extractCmd.Flags().String("pkg-version", "", "Package version stamped into the manifest (default: auto-detected)")
	extractCmd.Flags().String("commit", "", "Source commit stamped into the manifest (default: auto-detected)")
	extractCmd.Flags().StringP("out", "o", "apictx-out", "Output directory")
	extractCmd.Flags().IntP("workers", "w", 0, "Parallel parse workers (default: from config)")
	extractCmd.Flags().Bool("json", false, "Log in machine-readable JSON and print a JSON run summary")
	extractCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
	extractCmd.Flags().Bool("no-progress", false, "Disable the progress bar")

	queryCmd := &cobra.Command{
		Use:   "query <outdir>",
		Short: "Look up symbols in an extracted index",
		Args:  cobra.ExactArgs(1),
		RunE:  RunQuery,
	}
	queryCmd.Flags().String("fqn", "", "Exact fully-qualified name lookup")
	queryCmd.Flags().String("approx", "", "Approximate name search")
	queryCmd.Flags().Int("limit", 10, "Maximum approximate matches")
	queryCmd.Flags().String("kind", "", "Filter approximate matches by kind")
	queryCmd.Flags().String("visibility", "", "Filter approximate matches by visibility")
	queryCmd.Flags().Bool("json", false, "Print machine-readable results")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n", version.Tool, version.Version)
		},
	}

	rootCmd.AddCommand(
		extractCmd,
		queryCmd,
		versionCmd,
	)

	return rootCmd
}
