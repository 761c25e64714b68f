// Package validate checks the resolved corpus against the versioned record
// schema and the corpus-wide invariants before anything is persisted.
//
// Failure severity follows the error design: schema violations and dangling
// references are counted and the run continues; a duplicate FQN breaks the
// identity every consumer relies on and aborts the run.
package validate

import (
	"github.com/cockroachdb/errors"

	"github.com/apictx-dev/apictx/internal/symbol"
)

// Issue is one non-fatal finding, keyed by the same codes the pipeline
// reports to the user.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

// Report carries the counters emitted as validation.json.
type Report struct {
	SymbolCount       int            `json:"symbol_count"`
	SymbolsByKind     map[string]int `json:"symbols_by_kind"`
	SchemaViolations  int            `json:"schema_violations"`
	MissingReferences int            `json:"missing_references"`
	ParseErrors       int            `json:"parse_errors"`
	SchemaVersion     string         `json:"schema_version"`
}

// Run validates records against schema. unresolvedBases and parseErrors come
// from the linker and the parse stage and are folded into the report.
//
// Records failing structural checks are still emitted by the caller (partial
// runs stay debuggable); only a duplicate FQN returns an error and aborts.
func Run(records []symbol.Record, schema *Schema, unresolvedBases, parseErrors int) (*Report, []Issue, error) {
	report := &Report{
		SymbolCount:       len(records),
		SymbolsByKind:     make(map[string]int),
		MissingReferences: unresolvedBases,
		ParseErrors:       parseErrors,
		SchemaVersion:     schema.Version,
	}

	fqns := make(map[string]bool, len(records))
	for _, rec := range records {
		if fqns[rec.FQN] {
			return nil, nil, errors.Newf("duplicate fqn %q: corpus identity is broken", rec.FQN)
		}
		fqns[rec.FQN] = true
	}

	var issues []Issue
	for _, rec := range records {
		report.SymbolsByKind[string(rec.Kind)]++

		if msg := structuralCheck(rec, schema); msg != "" {
			report.SchemaViolations++
			issues = append(issues, Issue{Code: "schema", Message: msg, Path: rec.FQN})
		}

		if rec.Owner != "" && !fqns[rec.Owner] {
			report.MissingReferences++
			issues = append(issues, Issue{Code: "reference", Message: "owner not in corpus: " + rec.Owner, Path: rec.FQN})
		}
		for _, base := range rec.BaseFQNs {
			if !fqns[base] {
				report.MissingReferences++
				issues = append(issues, Issue{Code: "reference", Message: "base not in corpus: " + base, Path: rec.FQN})
			}
		}
	}

	return report, issues, nil
}

// structuralCheck verifies one record against the accepted shape for its
// kind. Returns a description of the first violation, or "".
func structuralCheck(rec symbol.Record, schema *Schema) string {
	shape, ok := schema.Kinds[string(rec.Kind)]
	if !ok {
		return "unknown kind: " + string(rec.Kind)
	}
	for _, field := range shape.Required {
		if fieldValue(rec, field) == "" {
			return "missing required field: " + field
		}
	}
	if rec.Visibility != symbol.Public && rec.Visibility != symbol.Private {
		return "invalid visibility: " + string(rec.Visibility)
	}
	if rec.Name != symbol.LastSegment(rec.FQN) {
		return "name does not match fqn tail"
	}
	switch rec.Kind {
	case symbol.KindFunction:
		for _, param := range rec.Parameters {
			if param.Name == "" {
				return "unnamed parameter"
			}
		}
	case symbol.KindModule, symbol.KindConstant, symbol.KindTypeAlias:
		if len(rec.BaseFQNs) > 0 {
			return "base_fqns on non-class record"
		}
		if len(rec.Parameters) > 0 || rec.Returns != "" {
			return "function fields on non-function record"
		}
	case symbol.KindClass:
		if len(rec.Parameters) > 0 || rec.Returns != "" {
			return "function fields on class record"
		}
	}
	return ""
}

func fieldValue(rec symbol.Record, field string) string {
	switch field {
	case "fqn":
		return rec.FQN
	case "name":
		return rec.Name
	case "kind":
		return string(rec.Kind)
	case "visibility":
		return string(rec.Visibility)
	case "owner":
		return rec.Owner
	case "target":
		return rec.Target
	case "docstring":
		return rec.Docstring
	}
	return "?unknown-field"
}
