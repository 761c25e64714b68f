package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apictx-dev/apictx/internal/ignore"
	"github.com/apictx-dev/apictx/internal/index"
	"github.com/apictx-dev/apictx/internal/parser"
	"github.com/apictx-dev/apictx/internal/query"
	"github.com/apictx-dev/apictx/internal/validate"
)

func writeSource(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func runPipeline(t *testing.T, root string) (*Summary, string) {
	t.Helper()
	outDir := t.TempDir()
	files, err := parser.Discover(root, ignore.NewMatcher(nil))
	require.NoError(t, err)

	summary, err := Run(context.Background(), Options{
		Root:       root,
		Package:    "mylib",
		Version:    "1.0.0",
		OutDir:     outDir,
		Workers:    2,
		GramLength: index.DefaultGramLength,
	}, files)
	require.NoError(t, err)
	return summary, outDir
}

func TestRunEndToEnd(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "__init__.py", `"""My library."""`+"\n")
	writeSource(t, root, "base.py", `
class Base:
    """Root type."""
`)
	writeSource(t, root, "client.py", `
from mylib.base import Base

TIMEOUT = 30

class Client(Base):
    def send(self, req) -> "Response":
        """Send a request."""
`)

	summary, outDir := runPipeline(t, root)
	report := summary.Report

	require.Equal(t, 0, report.ParseErrors)
	require.Equal(t, 0, report.SchemaViolations)
	require.Equal(t, 0, report.MissingReferences)
	require.Equal(t, 3, report.SymbolsByKind["module"])
	require.Equal(t, 2, report.SymbolsByKind["class"])
	require.Equal(t, 1, report.SymbolsByKind["function"])
	require.Equal(t, 1, report.SymbolsByKind["constant"])

	// Base reference resolved through the import table.
	engine, err := query.Open(filepath.Join(outDir, index.StoreFile))
	require.NoError(t, err)
	defer engine.Close()

	client, err := engine.Exact("mylib.client.Client")
	require.NoError(t, err)
	require.Equal(t, []string{"mylib.base.Base"}, client.BaseFQNs)

	pkg, err := engine.Meta("package")
	require.NoError(t, err)
	require.Equal(t, "mylib", pkg)
}

func TestRunParseErrorIsolated(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "__init__.py", "")
	writeSource(t, root, "good.py", "def ok(): pass\n")
	writeSource(t, root, "broken.py", "def broken(:\n")

	summary, outDir := runPipeline(t, root)
	report := summary.Report

	require.Equal(t, 1, report.ParseErrors)

	var parseIssue *validate.Issue
	for i := range summary.Issues {
		if summary.Issues[i].Code == "parse" {
			parseIssue = &summary.Issues[i]
		}
	}
	require.NotNil(t, parseIssue)
	require.Equal(t, "broken.py", parseIssue.Path)

	// The broken file contributes nothing; the good file's symbols survive.
	data, err := os.ReadFile(filepath.Join(outDir, SymbolsFile))
	require.NoError(t, err)
	require.Contains(t, string(data), `"mylib.good.ok"`)
	require.NotContains(t, string(data), "mylib.broken")
}

func TestRunEmitsDeterministicJSONL(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "__init__.py", "")
	writeSource(t, root, "zeta.py", "def z(): pass\n")
	writeSource(t, root, "alpha.py", "def a(): pass\n")

	_, outDir1 := runPipeline(t, root)
	_, outDir2 := runPipeline(t, root)

	first, err := os.ReadFile(filepath.Join(outDir1, SymbolsFile))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(outDir2, SymbolsFile))
	require.NoError(t, err)
	require.Equal(t, first, second)

	// Lines arrive sorted by FQN.
	var fqns []string
	for _, line := range strings.Split(strings.TrimSpace(string(first)), "\n") {
		var rec struct {
			FQN string `json:"fqn"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		fqns = append(fqns, rec.FQN)
	}
	for i := 1; i < len(fqns); i++ {
		require.Less(t, fqns[i-1], fqns[i])
	}
}

func TestRunWritesManifestAndValidation(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "__init__.py", "")

	summary, outDir := runPipeline(t, root)

	data, err := os.ReadFile(filepath.Join(outDir, ManifestFile))
	require.NoError(t, err)
	var manifest Manifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	require.Equal(t, "mylib", manifest.Package)
	require.Equal(t, "1.0.0", manifest.Version)
	require.Equal(t, "apictx", manifest.Tool)
	require.NotEmpty(t, manifest.ExtractedAt)
	require.Equal(t, summary.Report.SchemaVersion, manifest.SchemaVersion)

	data, err = os.ReadFile(filepath.Join(outDir, ValidationFile))
	require.NoError(t, err)
	var validation struct {
		SymbolCount int              `json:"symbol_count"`
		Issues      []validate.Issue `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(data, &validation))
	require.Equal(t, summary.Report.SymbolCount, validation.SymbolCount)
	require.NotNil(t, validation.Issues)
}

func TestRunDuplicateFQNAborts(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "__init__.py", "")
	writeSource(t, root, "dup.py", "def twice(): pass\n\ndef twice(): pass\n")

	outDir := t.TempDir()
	files, err := parser.Discover(root, ignore.NewMatcher(nil))
	require.NoError(t, err)

	_, err = Run(context.Background(), Options{
		Root:       root,
		Package:    "mylib",
		OutDir:     outDir,
		Workers:    1,
		GramLength: index.DefaultGramLength,
	}, files)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate fqn")

	// Nothing is published on abort.
	_, statErr := os.Stat(filepath.Join(outDir, index.StoreFile))
	require.True(t, os.IsNotExist(statErr))
}
