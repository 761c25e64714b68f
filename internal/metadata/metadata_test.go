package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestResolveSourcePackageDir(t *testing.T) {
	dir := t.TempDir()
	pkg := filepath.Join(dir, "mylib")
	writeFile(t, dir, "mylib/__init__.py", "")

	src, err := ResolveSource(pkg, "")
	require.NoError(t, err)
	require.Equal(t, pkg, src.Root)
	require.Equal(t, "mylib", src.Package)
}

func TestResolveSourceProjectRoot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mylib/__init__.py", "")
	writeFile(t, dir, "README.md", "")

	src, err := ResolveSource(dir, "")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "mylib"), src.Root)
	require.Equal(t, "mylib", src.Package)
}

func TestResolveSourceSrcLayout(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/mylib/__init__.py", "")

	src, err := ResolveSource(dir, "")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "src", "mylib"), src.Root)
	require.Equal(t, "mylib", src.Package)
}

func TestResolveSourceExplicitNameWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mylib/__init__.py", "")

	src, err := ResolveSource(dir, "renamed")
	require.NoError(t, err)
	require.Equal(t, "renamed", src.Package)
}

func TestResolveSourceMissingPath(t *testing.T) {
	_, err := ResolveSource(filepath.Join(t.TempDir(), "nope"), "")
	require.Error(t, err)
}

func TestResolveSourceFileNotDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "single.py", "x = 1\n")
	_, err := ResolveSource(filepath.Join(dir, "single.py"), "")
	require.Error(t, err)
}

func TestPackageNameFromProject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", "[project]\nname = \"mylib\"\n")
	require.Equal(t, "mylib", PackageNameFromProject(dir))
}

func TestPackageNameFromPoetry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", "[tool.poetry]\nname = \"poetlib\"\n")
	require.Equal(t, "poetlib", PackageNameFromProject(dir))
}

func TestDetectVersionFromInit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mylib/__init__.py", "__version__ = \"1.4.2\"\n")

	src, err := ResolveSource(dir, "")
	require.NoError(t, err)
	require.Equal(t, "1.4.2", DetectVersion(src))
}

func TestDetectVersionFromPyproject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mylib/__init__.py", "")
	writeFile(t, dir, "pyproject.toml", "[project]\nname = \"mylib\"\nversion = \"2.0.0\"\n")

	src, err := ResolveSource(dir, "")
	require.NoError(t, err)
	require.Equal(t, "2.0.0", DetectVersion(src))
}

func TestDetectVersionRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mylib/__init__.py", "__version__ = \"not-a-version\"\n")

	src, err := ResolveSource(dir, "")
	require.NoError(t, err)
	require.Equal(t, "", DetectVersion(src))
}

func TestDetectCommitOutsideRepo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mylib/__init__.py", "")

	src, err := ResolveSource(dir, "")
	require.NoError(t, err)
	require.Equal(t, "", DetectCommit(src))
}
