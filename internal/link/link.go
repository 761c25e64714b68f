// Package link resolves textual class-base references into corpus-internal
// FQNs. It runs once over the complete set of raw file batches: no
// resolution happens until every file has been extracted.
package link

import (
	"sort"
	"strings"

	"github.com/apictx-dev/apictx/internal/extract"
	"github.com/apictx-dev/apictx/internal/symbol"
)

// Result is the resolved corpus. Records are new values sorted by FQN; the
// raw inputs are never mutated.
type Result struct {
	Records []symbol.Record
	// UnresolvedBases counts base references that matched nothing in the
	// corpus. They are excluded from base_fqns and surface in the
	// validation report.
	UnresolvedBases int
}

// Resolve links every class's base references across the whole corpus.
//
// Resolution order per base reference:
//  1. The defining file's import-alias table, when the reference is a name
//     bound by an import (from m import X as Y).
//  2. A corpus-wide name index keyed by simple name, using the reference's
//     last dotted segment. A single candidate wins outright; several
//     candidates fall back to the lexicographically smallest FQN. This
//     tie-break deliberately ignores import scoping and is a documented
//     limitation, not a defect.
func Resolve(files []*extract.FileResult) *Result {
	var records []symbol.Record
	fqns := make(map[string]bool)
	for _, file := range files {
		for _, rec := range file.Records {
			fqns[rec.FQN] = true
		}
	}
	nameIndex := buildNameIndex(files)
	moduleIndex := buildModuleIndex(files)

	result := &Result{}
	for _, file := range files {
		for _, rec := range file.Records {
			if rec.Kind == symbol.KindClass && len(rec.BaseRefs) > 0 {
				rec = resolveBases(rec, file, nameIndex, moduleIndex, fqns, result)
			}
			records = append(records, rec)
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].FQN < records[j].FQN })
	result.Records = records
	return result
}

func resolveBases(rec symbol.Record, file *extract.FileResult, nameIndex map[string][]string, moduleIndex map[string][]string, fqns map[string]bool, result *Result) symbol.Record {
	resolved := make([]string, 0, len(rec.BaseRefs))
	seen := make(map[string]bool)
	for _, ref := range rec.BaseRefs {
		fqn, ok := resolveOne(ref, file, nameIndex, moduleIndex, fqns)
		if !ok {
			result.UnresolvedBases++
			continue
		}
		if seen[fqn] {
			continue
		}
		seen[fqn] = true
		resolved = append(resolved, fqn)
	}
	rec.BaseRefs = nil
	rec.BaseFQNs = resolved
	return rec
}

func resolveOne(ref string, file *extract.FileResult, nameIndex map[string][]string, moduleIndex map[string][]string, fqns map[string]bool) (string, bool) {
	// Import-alias binding first: a base written through "from m import X
	// as Y" resolves to m's corpus module plus X.
	if target, ok := file.Aliases[ref]; ok {
		if fqn, ok := resolveAliasTarget(target, moduleIndex, fqns); ok {
			return fqn, true
		}
	}

	name := symbol.LastSegment(ref)
	candidates := nameIndex[name]
	switch len(candidates) {
	case 0:
		return "", false
	case 1:
		return candidates[0], true
	default:
		// Candidate lists are sorted, so the first entry is the
		// lexicographically smallest FQN.
		return candidates[0], true
	}
}

// resolveAliasTarget maps "module#symbol" (or a bare "module") from an alias
// table to a corpus FQN. The import path is matched against corpus module
// FQNs by suffix, since imports are written relative to the analyzed
// package's own root.
func resolveAliasTarget(target string, moduleIndex map[string][]string, fqns map[string]bool) (string, bool) {
	modulePath, symbolName, found := strings.Cut(target, "#")
	if !found {
		return "", false
	}
	for _, moduleFQN := range moduleIndex[symbol.LastSegment(modulePath)] {
		if moduleFQN != modulePath && !strings.HasSuffix(moduleFQN, "."+modulePath) {
			continue
		}
		candidate := moduleFQN + "." + symbolName
		if fqns[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// buildNameIndex maps each simple name to the sorted list of FQNs bearing
// it. Collisions are expected and legal.
func buildNameIndex(files []*extract.FileResult) map[string][]string {
	index := make(map[string][]string)
	for _, file := range files {
		for _, rec := range file.Records {
			if rec.Kind == symbol.KindModule {
				continue
			}
			index[rec.Name] = append(index[rec.Name], rec.FQN)
		}
	}
	for name := range index {
		sort.Strings(index[name])
	}
	return index
}

// buildModuleIndex maps a module's last path segment to the sorted module
// FQNs ending in it, for alias-target matching.
func buildModuleIndex(files []*extract.FileResult) map[string][]string {
	index := make(map[string][]string)
	for _, file := range files {
		for _, rec := range file.Records {
			if rec.Kind != symbol.KindModule {
				continue
			}
			index[rec.Name] = append(index[rec.Name], rec.FQN)
		}
	}
	for name := range index {
		sort.Strings(index[name])
	}
	return index
}
