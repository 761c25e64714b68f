// Package parser turns Python source files into lossless parse trees and
// discovers which files belong to a run. It never interprets symbols; that
// is the extractor's job.
package parser

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/apictx-dev/apictx/internal/ignore"
)

// File is one discovered source file.
type File struct {
	AbsPath string
	RelPath string // slash-separated, relative to the discovery root
}

// Discover walks root and returns every .py file not excluded by the
// matcher, sorted by relative path for deterministic downstream order.
func Discover(root string, matcher *ignore.Matcher) ([]File, error) {
	var files []File
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if matcher != nil && matcher.ShouldIgnore(rel, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".py") {
			files = append(files, File{AbsPath: path, RelPath: rel})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "discover sources under %s", root)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// ModuleFQN maps a relative source path to its dotted module path under pkg.
// "__init__.py" names the package itself, so the segment is dropped.
func ModuleFQN(pkg, relPath string) string {
	trimmed := strings.TrimSuffix(filepath.ToSlash(relPath), ".py")
	parts := strings.Split(trimmed, "/")
	if parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}
	segments := append([]string{pkg}, parts...)
	return strings.Join(segments, ".")
}

// Parser produces parse trees for Python source. Not safe for concurrent
// use; each worker owns one.
type Parser struct {
	inner *sitter.Parser
}

// New creates a Python parser.
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{inner: p}
}

// Parse builds a tree for content. A tree whose root contains syntax errors
// is rejected: a malformed file must not contribute partial records, only a
// per-file error in the validation report. The caller owns the returned tree
// and must Close it.
func (p *Parser) Parse(ctx context.Context, content []byte) (*sitter.Tree, error) {
	tree, err := p.inner.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, errors.Wrap(err, "parse source")
	}
	if tree.RootNode().HasError() {
		tree.Close()
		return nil, errors.New("syntax error in source")
	}
	return tree, nil
}
