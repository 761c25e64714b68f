// Package pipeline runs the extraction stages end to end: discover, parse
// and extract in parallel, link, validate, then build the store and emit the
// output artifacts.
package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/apictx-dev/apictx/internal/extract"
	"github.com/apictx-dev/apictx/internal/fileutil"
	"github.com/apictx-dev/apictx/internal/index"
	"github.com/apictx-dev/apictx/internal/link"
	"github.com/apictx-dev/apictx/internal/logger"
	"github.com/apictx-dev/apictx/internal/parser"
	"github.com/apictx-dev/apictx/internal/symbol"
	"github.com/apictx-dev/apictx/internal/validate"
	"github.com/apictx-dev/apictx/internal/version"
)

// Output file names inside the output directory.
const (
	SymbolsFile    = "symbols.jsonl"
	ManifestFile   = "manifest.json"
	ValidationFile = "validation.json"
)

// Options configure one extraction run. Root and Package come from source
// resolution; the rest from flags and configuration.
type Options struct {
	Root    string
	Package string
	Version string
	Commit  string
	OutDir  string

	Workers    int
	GramLength int
	RespectAll bool

	// Progress draws a terminal progress bar over the parse stage.
	Progress bool
}

// Manifest is the provenance record written next to the store.
type Manifest struct {
	Package       string `json:"package"`
	Version       string `json:"version,omitempty"`
	Commit        string `json:"commit,omitempty"`
	ExtractedAt   string `json:"extracted_at"`
	Tool          string `json:"tool"`
	ToolVersion   string `json:"tool_version"`
	SchemaVersion string `json:"schema_version"`
}

// Summary is what a completed run reports back to the caller.
type Summary struct {
	Report   *validate.Report
	Issues   []validate.Issue
	Manifest *Manifest
	Files    int
}

// fileBatch pairs one discovered file with its extraction result or parse
// failure, keyed by discovery order so output stays deterministic.
type fileBatch struct {
	result *extract.FileResult
	err    error
	path   string
}

// Run executes the whole pipeline. Per-file parse failures are isolated:
// the file contributes no records and shows up in the validation report.
// Corpus-level failures (duplicate FQN, unwritable output) abort.
func Run(ctx context.Context, opts Options, files []parser.File) (*Summary, error) {
	log := logger.Logger
	log.Infow("extraction started",
		"package", opts.Package,
		"root", opts.Root,
		"files", len(files),
		"workers", opts.Workers,
	)

	batches, parseIssues := parseAll(ctx, opts, files)

	results := make([]*extract.FileResult, 0, len(batches))
	for _, batch := range batches {
		if batch.result != nil {
			results = append(results, batch.result)
		}
	}

	// Full barrier: linking sees every file or none.
	linked := link.Resolve(results)
	log.Infow("linking finished",
		"records", len(linked.Records),
		"unresolved_bases", linked.UnresolvedBases,
	)

	schema, err := validate.LoadSchema()
	if err != nil {
		return nil, err
	}
	report, issues, err := validate.Run(linked.Records, schema, linked.UnresolvedBases, len(parseIssues))
	if err != nil {
		return nil, err
	}
	issues = append(parseIssues, issues...)

	manifest := &Manifest{
		Package:       opts.Package,
		Version:       opts.Version,
		Commit:        opts.Commit,
		ExtractedAt:   time.Now().UTC().Format(time.RFC3339),
		Tool:          version.Tool,
		ToolVersion:   version.Version,
		SchemaVersion: report.SchemaVersion,
	}

	if err := emit(opts, linked.Records, manifest, report, issues); err != nil {
		return nil, err
	}
	log.Infow("extraction finished",
		"symbols", report.SymbolCount,
		"schema_violations", report.SchemaViolations,
		"missing_references", report.MissingReferences,
		"parse_errors", report.ParseErrors,
	)

	return &Summary{Report: report, Issues: issues, Manifest: manifest, Files: len(files)}, nil
}

// parseAll parses and extracts every file with a bounded worker pool. Each
// worker owns one parser; trees are closed as soon as extraction is done.
func parseAll(ctx context.Context, opts Options, files []parser.File) ([]fileBatch, []validate.Issue) {
	batches := make([]fileBatch, len(files))

	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = progressbar.Default(int64(len(files)), "parsing")
	}

	jobs := make(chan int)
	group, groupCtx := errgroup.WithContext(ctx)
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	for w := 0; w < workers; w++ {
		group.Go(func() error {
			p := parser.New()
			ex := extract.New(extract.Options{RespectAll: opts.RespectAll})
			for i := range jobs {
				batches[i] = parseOne(groupCtx, p, ex, opts.Package, files[i])
				if bar != nil {
					bar.Add(1)
				}
			}
			return nil
		})
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	group.Wait()
	if bar != nil {
		bar.Finish()
	}

	log := logger.Logger
	var parseIssues []validate.Issue
	for _, batch := range batches {
		if batch.err != nil {
			log.Warnw("file skipped", "path", batch.path, "error", batch.err)
			parseIssues = append(parseIssues, validate.Issue{
				Code:    "parse",
				Message: batch.err.Error(),
				Path:    batch.path,
			})
		}
	}
	return batches, parseIssues
}

func parseOne(ctx context.Context, p *parser.Parser, ex *extract.Extractor, pkg string, file parser.File) fileBatch {
	content, err := os.ReadFile(file.AbsPath)
	if err != nil {
		return fileBatch{err: errors.Wrap(err, "read source"), path: file.RelPath}
	}
	tree, err := p.Parse(ctx, content)
	if err != nil {
		return fileBatch{err: err, path: file.RelPath}
	}
	defer tree.Close()

	moduleFQN := parser.ModuleFQN(pkg, file.RelPath)
	return fileBatch{
		result: ex.File(tree, content, moduleFQN, file.RelPath),
		path:   file.RelPath,
	}
}

// emit writes symbols.jsonl, manifest.json, validation.json, and the query
// store. The JSONL is byte-deterministic: records arrive sorted by FQN and
// field order is fixed by the record type.
func emit(opts Options, records []symbol.Record, manifest *Manifest, report *validate.Report, issues []validate.Issue) error {
	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return errors.Wrapf(err, "create output dir %s", opts.OutDir)
	}

	jsonl, err := symbol.EncodeJSONL(records)
	if err != nil {
		return errors.Wrap(err, "encode symbols")
	}
	if err := fileutil.WriteIfChanged(filepath.Join(opts.OutDir, SymbolsFile), jsonl); err != nil {
		return errors.Wrap(err, "write symbols")
	}

	if err := writeJSON(filepath.Join(opts.OutDir, ManifestFile), manifest); err != nil {
		return err
	}

	validation := struct {
		*validate.Report
		Issues []validate.Issue `json:"issues"`
	}{Report: report, Issues: issues}
	if validation.Issues == nil {
		validation.Issues = []validate.Issue{}
	}
	if err := writeJSON(filepath.Join(opts.OutDir, ValidationFile), validation); err != nil {
		return err
	}

	meta := map[string]string{
		"package":        manifest.Package,
		"version":        manifest.Version,
		"commit":         manifest.Commit,
		"extracted_at":   manifest.ExtractedAt,
		"tool":           manifest.Tool,
		"tool_version":   manifest.ToolVersion,
		"schema_version": manifest.SchemaVersion,
	}
	storePath := filepath.Join(opts.OutDir, index.StoreFile)
	if err := index.BuildStore(storePath, records, opts.GramLength, meta); err != nil {
		return err
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", filepath.Base(path))
	}
	return errors.Wrapf(fileutil.WriteIfChanged(path, append(data, '\n')), "write %s", filepath.Base(path))
}
