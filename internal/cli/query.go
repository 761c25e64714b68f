package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/apictx-dev/apictx/internal/index"
	"github.com/apictx-dev/apictx/internal/query"
	"github.com/apictx-dev/apictx/internal/symbol"
)

// RunQuery implements "apictx query <outdir>".
func RunQuery(cmd *cobra.Command, args []string) error {
	fqn, _ := cmd.Flags().GetString("fqn")
	approx, _ := cmd.Flags().GetString("approx")
	if (fqn == "") == (approx == "") {
		return errors.New("exactly one of --fqn or --approx is required")
	}

	storePath := filepath.Join(args[0], index.StoreFile)
	engine, err := query.Open(storePath)
	if err != nil {
		return err
	}
	defer engine.Close()

	jsonOutput, _ := cmd.Flags().GetBool("json")

	if fqn != "" {
		rec, err := engine.Exact(fqn)
		if err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(rec)
		}
		printRecord(rec, -1)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	kind, _ := cmd.Flags().GetString("kind")
	visibility, _ := cmd.Flags().GetString("visibility")
	filter, err := buildFilter(kind, visibility)
	if err != nil {
		return err
	}

	matches, err := engine.Approx(approx, limit, filter)
	if err != nil {
		return err
	}
	if jsonOutput {
		if matches == nil {
			matches = []query.Match{}
		}
		return json.NewEncoder(os.Stdout).Encode(matches)
	}
	if len(matches) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, m := range matches {
		printRecord(m.Record, m.Score)
	}
	return nil
}

func buildFilter(kind, visibility string) (query.Filter, error) {
	var filter query.Filter
	if kind != "" {
		k := symbol.Kind(kind)
		if !k.Valid() {
			return filter, errors.Newf("unknown kind %q", kind)
		}
		filter.Kind = k
	}
	switch visibility {
	case "":
	case string(symbol.Public):
		filter.Visibility = symbol.Public
	case string(symbol.Private):
		filter.Visibility = symbol.Private
	default:
		return filter, errors.Newf("unknown visibility %q", visibility)
	}
	return filter, nil
}

func printRecord(rec symbol.Record, score int) {
	line := fmt.Sprintf("%-10s %s", rec.Kind, rec.FQN)
	var notes []string
	if score >= 0 {
		notes = append(notes, fmt.Sprintf("score=%d", score))
	}
	if rec.Visibility == symbol.Private {
		notes = append(notes, "private")
	}
	if rec.Deprecated {
		notes = append(notes, "deprecated")
	}
	if len(notes) > 0 {
		line += "  (" + strings.Join(notes, ", ") + ")"
	}
	fmt.Println(line)
	if rec.Kind == symbol.KindFunction {
		fmt.Printf("  %s\n", signature(rec))
	}
	if rec.Docstring != "" {
		fmt.Printf("  %s\n", firstLine(rec.Docstring))
	}
}

func signature(rec symbol.Record) string {
	params := make([]string, 0, len(rec.Parameters))
	for _, p := range rec.Parameters {
		if p.Type != "" {
			params = append(params, p.Name+": "+p.Type)
		} else {
			params = append(params, p.Name)
		}
	}
	sig := rec.Name + "(" + strings.Join(params, ", ") + ")"
	if rec.Returns != "" {
		sig += " -> " + rec.Returns
	}
	if rec.IsAsync {
		sig = "async " + sig
	}
	return sig
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}
