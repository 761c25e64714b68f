package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apictx-dev/apictx/internal/ignore"
)

func TestModuleFQN(t *testing.T) {
	cases := map[string]string{
		"__init__.py":          "pkg",
		"core.py":              "pkg.core",
		"io/__init__.py":       "pkg.io",
		"io/readers/text.py":   "pkg.io.readers.text",
		"io/readers/_base.py":  "pkg.io.readers._base",
	}
	for rel, want := range cases {
		require.Equal(t, want, ModuleFQN("pkg", rel), "rel=%s", rel)
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	write := func(rel string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0644))
	}
	write("__init__.py")
	write("core.py")
	write("sub/__init__.py")
	write("notes.txt")
	write("__pycache__/core.cpython-312.py")
	write("tests/test_core.py")

	files, err := Discover(root, ignore.NewMatcher(nil))
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rels = append(rels, f.RelPath)
	}
	require.Equal(t, []string{"__init__.py", "core.py", "sub/__init__.py"}, rels)
}

func TestDiscoverUserPattern(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"core.py", "generated.py"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte("x = 1\n"), 0644))
	}

	files, err := Discover(root, ignore.NewMatcher([]string{"generated.py"}))
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "core.py", files[0].RelPath)
}

func TestParseValidSource(t *testing.T) {
	p := New()
	tree, err := p.Parse(context.Background(), []byte("def f():\n    return 1\n"))
	require.NoError(t, err)
	defer tree.Close()
	require.Equal(t, "module", tree.RootNode().Type())
}

func TestParseRejectsSyntaxError(t *testing.T) {
	p := New()
	_, err := p.Parse(context.Background(), []byte("def broken(:\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "syntax error")
}
