// Package metadata fills in the provenance fields an extraction run stamps
// into its manifest: package name, version, and source commit. Every detector
// is best-effort; explicit flags always win and absence is never an error.
package metadata

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5"
	"github.com/pelletier/go-toml/v2"
)

// Source is the resolved extraction root: the directory to walk plus the
// dotted prefix its modules are named under.
type Source struct {
	// Root is the absolute directory that discovery walks.
	Root string
	// Package is the top-level name modules are prefixed with.
	Package string
}

// ResolveSource normalizes a user-supplied path into a Source.
//
// A directory containing __init__.py is itself the package. Otherwise the
// directory is treated as a project root and the package directory is
// searched under it (src/ layout included). explicitName overrides detection
// but never the root choice.
func ResolveSource(path, explicitName string) (*Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve source path %s", path)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Wrapf(err, "source path %s", path)
	}
	if !info.IsDir() {
		return nil, errors.Newf("source path %s is not a directory", path)
	}

	if isPackageDir(abs) {
		name := explicitName
		if name == "" {
			name = filepath.Base(abs)
		}
		return &Source{Root: abs, Package: name}, nil
	}

	if pkgDir := findPackageDir(abs); pkgDir != "" {
		name := explicitName
		if name == "" {
			name = filepath.Base(pkgDir)
		}
		return &Source{Root: pkgDir, Package: name}, nil
	}

	// No package directory found: walk the root as-is. Without an explicit
	// name the directory name has to serve.
	name := explicitName
	if name == "" {
		if name = PackageNameFromProject(abs); name == "" {
			name = filepath.Base(abs)
		}
	}
	return &Source{Root: abs, Package: name}, nil
}

func isPackageDir(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "__init__.py"))
	return err == nil
}

// findPackageDir looks for the single importable package under a project
// root, checking the root's own children and then src/. Multiple candidates
// resolve to the lexicographically first so repeated runs agree.
func findPackageDir(root string) string {
	for _, parent := range []string{root, filepath.Join(root, "src")} {
		entries, err := os.ReadDir(parent)
		if err != nil {
			continue
		}
		var candidates []string
		for _, entry := range entries {
			if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			if isPackageDir(filepath.Join(parent, entry.Name())) {
				candidates = append(candidates, filepath.Join(parent, entry.Name()))
			}
		}
		if len(candidates) > 0 {
			sort.Strings(candidates)
			return candidates[0]
		}
	}
	return ""
}

// pyproject holds the two places a package declares its name.
type pyproject struct {
	Project struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// PackageNameFromProject reads the package name from pyproject.toml under
// dir, preferring [project] over [tool.poetry]. Returns "" when neither is
// declared or the file is absent.
func PackageNameFromProject(dir string) string {
	doc := readPyproject(dir)
	if doc == nil {
		return ""
	}
	if doc.Project.Name != "" {
		return doc.Project.Name
	}
	return doc.Tool.Poetry.Name
}

func readPyproject(dir string) *pyproject {
	data, err := os.ReadFile(filepath.Join(dir, "pyproject.toml"))
	if err != nil {
		return nil
	}
	doc := &pyproject{}
	if err := toml.Unmarshal(data, doc); err != nil {
		return nil
	}
	return doc
}

var versionAssign = regexp.MustCompile(`(?m)^__version__\s*(?::[^=\n]+)?=\s*["']([^"']+)["']`)

// DetectVersion finds the package version, trying __version__ in the package
// root's __init__.py and then pyproject.toml near the source. Values that do
// not parse as a semantic version are discarded rather than stamped into the
// manifest.
func DetectVersion(src *Source) string {
	if data, err := os.ReadFile(filepath.Join(src.Root, "__init__.py")); err == nil {
		if m := versionAssign.FindSubmatch(data); m != nil {
			if v := validVersion(string(m[1])); v != "" {
				return v
			}
		}
	}
	for _, dir := range []string{src.Root, filepath.Dir(src.Root), filepath.Dir(filepath.Dir(src.Root))} {
		doc := readPyproject(dir)
		if doc == nil {
			continue
		}
		for _, raw := range []string{doc.Project.Version, doc.Tool.Poetry.Version} {
			if v := validVersion(raw); v != "" {
				return v
			}
		}
	}
	return ""
}

func validVersion(raw string) string {
	if raw == "" {
		return ""
	}
	if _, err := semver.NewVersion(raw); err != nil {
		return ""
	}
	return raw
}

// DetectCommit returns the HEAD hash of the repository containing the source,
// "" when the source is not under version control.
func DetectCommit(src *Source) string {
	repo, err := git.PlainOpenWithOptions(src.Root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}
