// Package symbol defines the record types that flow through the extraction
// pipeline. The five kinds form a closed set; every consumer switches on
// Kind and handles all of them.
package symbol

import "strings"

// Kind tags a record as one of the five symbol variants.
type Kind string

const (
	KindModule    Kind = "module"
	KindClass     Kind = "class"
	KindFunction  Kind = "function"
	KindConstant  Kind = "constant"
	KindTypeAlias Kind = "typealias"
)

// Kinds lists every valid kind in emit order.
var Kinds = []Kind{KindModule, KindClass, KindFunction, KindConstant, KindTypeAlias}

// Valid reports whether k is one of the closed set of kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindModule, KindClass, KindFunction, KindConstant, KindTypeAlias:
		return true
	}
	return false
}

// Visibility is derived from the symbol's own name: a leading underscore
// makes it private. Modules that declare __all__ can override this when the
// respect_all option is enabled.
type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

// VisibilityOf applies the baseline underscore rule.
func VisibilityOf(name string) Visibility {
	if strings.HasPrefix(name, "_") {
		return Private
	}
	return Public
}

// Parameter is one declared function parameter. Type holds the annotation
// source text, empty when unannotated. Positional/keyword/variadic kinds are
// not distinguished at this layer.
type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Record is one symbol in the corpus. A single struct carries the union:
// kind-specific fields are zero for other kinds, and the validator enforces
// the accepted shape per kind.
//
// Records are immutable once produced by the extractor; the linker builds new
// records with BaseFQNs attached instead of mutating in place.
type Record struct {
	FQN        string     `json:"fqn"`
	Name       string     `json:"name"`
	Kind       Kind       `json:"kind"`
	Visibility Visibility `json:"visibility"`
	Owner      string     `json:"owner,omitempty"`
	Docstring  string     `json:"docstring,omitempty"`

	// Class fields. BaseRefs holds the verbatim base identifiers captured at
	// extraction time and never serializes; the linker replaces it with the
	// resolved BaseFQNs list.
	BaseRefs    []string `json:"-"`
	BaseFQNs    []string `json:"base_fqns,omitempty"`
	IsException bool     `json:"is_exception,omitempty"`
	IsProtocol  bool     `json:"is_protocol,omitempty"`
	IsEnum      bool     `json:"is_enum,omitempty"`

	// Function fields.
	Parameters     []Parameter `json:"parameters,omitempty"`
	Returns        string      `json:"returns,omitempty"`
	Decorators     []string    `json:"decorators,omitempty"`
	Deprecated     bool        `json:"deprecated,omitempty"`
	Raises         []string    `json:"raises,omitempty"`
	IsAsync        bool        `json:"is_async,omitempty"`
	IsProperty     bool        `json:"is_property,omitempty"`
	IsClassmethod  bool        `json:"is_classmethod,omitempty"`
	IsStaticmethod bool        `json:"is_staticmethod,omitempty"`
	Overloads      int         `json:"overloads,omitempty"`

	// Constant / type-alias fields.
	Type   string `json:"type,omitempty"`
	Target string `json:"target,omitempty"`
}

// LastSegment returns the final dot-separated component of a path, which for
// a well-formed record equals its Name.
func LastSegment(path string) string {
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// ParentPath returns the dotted prefix of fqn, or "" for a single segment.
func ParentPath(fqn string) string {
	if idx := strings.LastIndex(fqn, "."); idx >= 0 {
		return fqn[:idx]
	}
	return ""
}
