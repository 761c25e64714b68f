// Package extract walks one parsed Python source tree at a time and emits
// raw symbol records for it. Extraction is file-local: records carry owner
// FQNs built from the enclosing scope, and class bases stay verbatim text
// until the linker resolves them against the whole corpus.
package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/apictx-dev/apictx/internal/symbol"
)

// FileResult is the raw batch produced for a single file. Batches are
// independent: no state is shared across files.
type FileResult struct {
	Path   string
	Module string
	// Records lists every symbol defined in the file. Order within a file is
	// not significant; the linker sorts the full corpus by FQN.
	Records []symbol.Record
	// Aliases maps local names bound by imports to their targets, either
	// "module" or "module#symbol". The linker consults this table when
	// resolving class bases written through an import alias.
	Aliases map[string]string
	// ExportAll holds the module's __all__ entries when declared.
	ExportAll    []string
	HasExportAll bool
}

// Options tune extraction behavior.
type Options struct {
	// RespectAll re-derives visibility of module-level symbols from the
	// module's __all__ list when one is declared. The baseline rule (leading
	// underscore means private) applies otherwise.
	RespectAll bool
}

// Extractor converts parse trees into raw symbol records. Safe for
// concurrent use: it holds no per-file state.
type Extractor struct {
	opts Options
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	return &Extractor{opts: opts}
}

// File extracts every symbol from one parsed file. moduleFQN is the dotted
// module path the file maps to; relPath is kept for error reporting and the
// linker's per-file alias lookup.
func (e *Extractor) File(tree *sitter.Tree, content []byte, moduleFQN, relPath string) *FileResult {
	result := &FileResult{
		Path:    relPath,
		Module:  moduleFQN,
		Aliases: make(map[string]string),
	}

	root := tree.RootNode()
	mod := symbol.Record{
		FQN:        moduleFQN,
		Name:       symbol.LastSegment(moduleFQN),
		Kind:       symbol.KindModule,
		Visibility: symbol.VisibilityOf(symbol.LastSegment(moduleFQN)),
		Owner:      moduleOwner(moduleFQN),
		Docstring:  docstringOf(root, content),
	}
	result.Records = append(result.Records, mod)

	e.walkBody(root, content, moduleFQN, result, scopeModule)

	if e.opts.RespectAll && result.HasExportAll {
		exported := make(map[string]bool, len(result.ExportAll))
		for _, name := range result.ExportAll {
			exported[name] = true
		}
		for i := range result.Records {
			rec := &result.Records[i]
			if rec.Owner != moduleFQN {
				continue
			}
			if exported[rec.Name] {
				rec.Visibility = symbol.Public
			} else {
				rec.Visibility = symbol.Private
			}
		}
	}

	return result
}

// moduleOwner computes the owning package for nested modules. Only the
// package root itself has none.
func moduleOwner(moduleFQN string) string {
	return symbol.ParentPath(moduleFQN)
}

type funcDef struct {
	record   symbol.Record
	overload bool
}

// scope identifies the kind of body being walked. Assignments only produce
// constant records at module and class level; inside functions they are
// locals, not API surface.
type scope int

const (
	scopeModule scope = iota
	scopeClass
	scopeFunction
)

// walkBody extracts the statements directly inside one scope (module body,
// class body, or function body). Overloaded function definitions sharing a
// name are collapsed into the implementation record so FQN uniqueness holds.
func (e *Extractor) walkBody(body *sitter.Node, content []byte, ownerFQN string, result *FileResult, sc scope) {
	var funcs []funcDef

	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)

		var decorators []string
		node := stmt
		if node.Type() == "decorated_definition" {
			decorators = decoratorTexts(node, content)
			node = node.ChildByFieldName("definition")
			if node == nil {
				continue
			}
		}

		switch node.Type() {
		case "function_definition":
			def := e.function(node, content, ownerFQN, decorators, result)
			funcs = append(funcs, def)

		case "class_definition":
			e.class(node, content, ownerFQN, decorators, result)

		case "expression_statement":
			if sc == scopeFunction {
				continue
			}
			if assign := childOfType(node, "assignment"); assign != nil {
				e.assignment(assign, content, ownerFQN, result, sc == scopeModule)
			}

		case "import_statement":
			if sc == scopeModule {
				e.importStatement(node, content, result)
			}

		case "import_from_statement":
			if sc == scopeModule {
				e.importFromStatement(node, content, result)
			}
		}
	}

	result.Records = append(result.Records, collapseOverloads(funcs)...)
}

// collapseOverloads merges @overload variants into the implementation
// record, preserving first-definition order.
func collapseOverloads(funcs []funcDef) []symbol.Record {
	byFQN := make(map[string][]funcDef)
	var order []string
	for _, def := range funcs {
		if _, ok := byFQN[def.record.FQN]; !ok {
			order = append(order, def.record.FQN)
		}
		byFQN[def.record.FQN] = append(byFQN[def.record.FQN], def)
	}

	records := make([]symbol.Record, 0, len(order))
	for _, fqn := range order {
		group := byFQN[fqn]
		overloads := 0
		for _, def := range group {
			if def.overload {
				overloads++
			}
		}
		if overloads == 0 {
			// Plain redefinitions are emitted as-is; the validator treats
			// the resulting duplicate FQN as a hard error.
			for _, def := range group {
				records = append(records, def.record)
			}
			continue
		}
		impl := group[len(group)-1].record
		for _, def := range group {
			if !def.overload {
				impl = def.record
				break
			}
		}
		impl.Overloads = overloads
		records = append(records, impl)
	}
	return records
}

func (e *Extractor) function(node *sitter.Node, content []byte, ownerFQN string, decorators []string, result *FileResult) funcDef {
	name := fieldText(node, "name", content)
	fqn := ownerFQN + "." + name
	doc := docstringOf(node.ChildByFieldName("body"), content)

	rec := symbol.Record{
		FQN:        fqn,
		Name:       name,
		Kind:       symbol.KindFunction,
		Visibility: symbol.VisibilityOf(name),
		Owner:      ownerFQN,
		Docstring:  doc,
		Parameters: parameters(node.ChildByFieldName("parameters"), content),
		Returns:    fieldText(node, "return_type", content),
		Decorators: decorators,
		Raises:     ExtractRaises(doc),
		IsAsync:    isAsync(node),
	}

	overload := false
	for _, deco := range decorators {
		if strings.Contains(deco, "deprecated") {
			rec.Deprecated = true
		}
		switch {
		case deco == "property" || strings.HasSuffix(deco, ".property"):
			rec.IsProperty = true
		case deco == "classmethod":
			rec.IsClassmethod = true
		case deco == "staticmethod":
			rec.IsStaticmethod = true
		case deco == "overload" || strings.HasSuffix(deco, ".overload"):
			overload = true
		}
	}
	if HasDeprecatedMarker(doc) {
		rec.Deprecated = true
	}

	// Nested definitions yield their own records, owned by this function.
	if body := node.ChildByFieldName("body"); body != nil {
		e.walkBody(body, content, fqn, result, scopeFunction)
	}

	return funcDef{record: rec, overload: overload}
}

func (e *Extractor) class(node *sitter.Node, content []byte, ownerFQN string, decorators []string, result *FileResult) {
	_ = decorators // class decorators carry no flags at this layer
	name := fieldText(node, "name", content)
	fqn := ownerFQN + "." + name

	rec := symbol.Record{
		FQN:        fqn,
		Name:       name,
		Kind:       symbol.KindClass,
		Visibility: symbol.VisibilityOf(name),
		Owner:      ownerFQN,
		Docstring:  docstringOf(node.ChildByFieldName("body"), content),
		BaseRefs:   baseRefs(node.ChildByFieldName("superclasses"), content),
	}
	for _, base := range rec.BaseRefs {
		last := symbol.LastSegment(base)
		switch {
		case last == "Exception" || last == "BaseException" || strings.HasSuffix(last, "Error"):
			rec.IsException = true
		case last == "Protocol":
			rec.IsProtocol = true
		case last == "Enum" || last == "IntEnum" || last == "StrEnum" || last == "Flag" || last == "IntFlag":
			rec.IsEnum = true
		}
	}
	result.Records = append(result.Records, rec)

	if body := node.ChildByFieldName("body"); body != nil {
		e.walkBody(body, content, fqn, result, scopeClass)
	}
}

func (e *Extractor) assignment(node *sitter.Node, content []byte, ownerFQN string, result *FileResult, moduleLevel bool) {
	left := node.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return
	}
	name := left.Content(content)

	if moduleLevel && name == "__all__" {
		result.ExportAll = exportList(node.ChildByFieldName("right"), content)
		result.HasExportAll = true
		return
	}
	// Dunder assignments (__version__, __author__, ...) are module metadata,
	// not API symbols.
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
		return
	}

	annotation := fieldText(node, "type", content)
	right := node.ChildByFieldName("right")

	if annotation == "TypeAlias" || strings.HasSuffix(annotation, ".TypeAlias") {
		target := ""
		if right != nil {
			target = right.Content(content)
		}
		result.Records = append(result.Records, symbol.Record{
			FQN:        ownerFQN + "." + name,
			Name:       name,
			Kind:       symbol.KindTypeAlias,
			Visibility: symbol.VisibilityOf(name),
			Owner:      ownerFQN,
			Target:     target,
		})
		return
	}

	typ := annotation
	if typ == "" && right != nil {
		typ = literalType(right)
	}
	result.Records = append(result.Records, symbol.Record{
		FQN:        ownerFQN + "." + name,
		Name:       name,
		Kind:       symbol.KindConstant,
		Visibility: symbol.VisibilityOf(name),
		Owner:      ownerFQN,
		Type:       typ,
	})
}

func (e *Extractor) importStatement(node *sitter.Node, content []byte, result *FileResult) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			module := strings.TrimSpace(child.Content(content))
			if module != "" {
				result.Aliases[module] = module
			}
		case "aliased_import":
			module := fieldText(child, "name", content)
			alias := fieldText(child, "alias", content)
			if module != "" && alias != "" {
				result.Aliases[alias] = module
			}
		}
	}
}

func (e *Extractor) importFromStatement(node *sitter.Node, content []byte, result *FileResult) {
	module := fieldText(node, "module_name", content)
	if module == "" {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.FieldNameForChild(i) != "name" {
			continue
		}
		child := node.Child(i)
		switch child.Type() {
		case "aliased_import":
			imported := fieldText(child, "name", content)
			alias := fieldText(child, "alias", content)
			if imported != "" && alias != "" {
				result.Aliases[alias] = module + "#" + imported
			}
		case "dotted_name", "identifier":
			imported := strings.TrimSpace(child.Content(content))
			if imported != "" {
				result.Aliases[imported] = module + "#" + imported
			}
		}
	}
}

func parameters(node *sitter.Node, content []byte) []symbol.Parameter {
	if node == nil {
		return nil
	}
	var params []symbol.Parameter
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "identifier":
			params = append(params, symbol.Parameter{Name: child.Content(content)})
		case "typed_parameter":
			name := ""
			if id := child.NamedChild(0); id != nil && id.Type() == "identifier" {
				name = id.Content(content)
			}
			if name != "" {
				params = append(params, symbol.Parameter{
					Name: name,
					Type: fieldText(child, "type", content),
				})
			}
		case "default_parameter":
			name := fieldText(child, "name", content)
			if name != "" {
				params = append(params, symbol.Parameter{Name: name})
			}
		case "typed_default_parameter":
			name := fieldText(child, "name", content)
			if name != "" {
				params = append(params, symbol.Parameter{
					Name: name,
					Type: fieldText(child, "type", content),
				})
			}
		}
		// Splat patterns and bare separators are skipped: parameter kinds
		// are not modeled at this layer.
	}
	return params
}

// baseRefs captures base expressions verbatim, de-duplicated with first
// occurrence winning. Subscripted bases like Generic[T] keep only the value
// part; keyword arguments (metaclass=...) are not bases.
func baseRefs(node *sitter.Node, content []byte) []string {
	if node == nil {
		return nil
	}
	seen := make(map[string]bool)
	var refs []string
	add := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		refs = append(refs, text)
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "identifier", "attribute", "dotted_name":
			add(child.Content(content))
		case "subscript":
			if value := child.ChildByFieldName("value"); value != nil {
				add(value.Content(content))
			}
		}
	}
	return refs
}

func exportList(node *sitter.Node, content []byte) []string {
	if node == nil || node.Type() != "list" {
		return nil
	}
	var names []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "string" {
			if name := CleanDocstring(child.Content(content)); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

func literalType(node *sitter.Node) string {
	switch node.Type() {
	case "integer":
		return "int"
	case "float":
		return "float"
	case "string", "concatenated_string":
		return "str"
	case "true", "false":
		return "bool"
	}
	return ""
}

func docstringOf(body *sitter.Node, content []byte) string {
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	expr := first.NamedChild(0)
	if expr.Type() != "string" {
		return ""
	}
	return CleanDocstring(expr.Content(content))
}

func decoratorTexts(node *sitter.Node, content []byte) []string {
	var texts []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "decorator" {
			continue
		}
		text := strings.TrimSpace(child.Content(content))
		texts = append(texts, strings.TrimPrefix(text, "@"))
	}
	return texts
}

func isAsync(node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "async" {
			return true
		}
		if child.Type() == "def" {
			break
		}
	}
	return false
}

func fieldText(node *sitter.Node, field string, content []byte) string {
	if node == nil {
		return ""
	}
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Content(content))
}

func childOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == typ {
			return child
		}
	}
	return nil
}
