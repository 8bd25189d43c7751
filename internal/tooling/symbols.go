package tooling

import (
	"sort"
	"strings"
	"sync"

	"github.com/dimc-lang/dimc/internal/compiler/ast"
	"github.com/dimc-lang/dimc/internal/compiler/expr"
)

// Symbol is a declared dimension, unit or constant
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Range Range

	// Detail is the declaration's definition as written, if any
	Detail string

	// Template names the unit declaration a prefixed or aliased unit was
	// generated from. Generated units share the template's range.
	Template string
}

// SymbolKind categorizes symbols for IDE display
type SymbolKind int

const (
	SymbolKindDimension SymbolKind = iota
	SymbolKindUnit
	SymbolKindConstant
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolKindDimension:
		return "dimension"
	case SymbolKindUnit:
		return "unit"
	case SymbolKindConstant:
		return "constant"
	}
	return "symbol"
}

// Reference is a use of a name inside a definition or annotation
type Reference struct {
	Name  string
	Range Range
}

// SymbolIndex maintains a searchable index of all symbols across documents
type SymbolIndex struct {
	symbols map[string][]*IndexedSymbol
	mutex   sync.RWMutex
}

// IndexedSymbol is a symbol together with the document declaring it
type IndexedSymbol struct {
	URI string
	*Symbol
}

// NewSymbolIndex creates a new symbol index
func NewSymbolIndex() *SymbolIndex {
	return &SymbolIndex{
		symbols: make(map[string][]*IndexedSymbol),
	}
}

// Index replaces the symbols recorded for a document
func (si *SymbolIndex) Index(uri string, symbols []*Symbol) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	si.removeDocumentLocked(uri)
	for _, sym := range symbols {
		si.symbols[sym.Name] = append(si.symbols[sym.Name], &IndexedSymbol{URI: uri, Symbol: sym})
	}
}

// RemoveDocument removes all symbols from a document
func (si *SymbolIndex) RemoveDocument(uri string) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	si.removeDocumentLocked(uri)
}

func (si *SymbolIndex) removeDocumentLocked(uri string) {
	for name, syms := range si.symbols {
		filtered := syms[:0]
		for _, sym := range syms {
			if sym.URI != uri {
				filtered = append(filtered, sym)
			}
		}
		if len(filtered) > 0 {
			si.symbols[name] = filtered
		} else {
			delete(si.symbols, name)
		}
	}
}

// FindDefinition returns the first declaration of name in any document
func (si *SymbolIndex) FindDefinition(name string) *IndexedSymbol {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	syms := si.symbols[name]
	if len(syms) == 0 {
		return nil
	}
	return syms[0]
}

// SearchSymbols returns the symbols whose name contains query, ignoring
// case, sorted by name. An empty query matches everything.
func (si *SymbolIndex) SearchSymbols(query string) []*IndexedSymbol {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	query = strings.ToLower(query)
	result := make([]*IndexedSymbol, 0)
	for name, syms := range si.symbols {
		if strings.Contains(strings.ToLower(name), query) {
			result = append(result, syms...)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].URI < result[j].URI
	})
	return result
}

// extractSymbols lists the declarations of a document. Units generated from
// prefixes and aliases are included when template expansion ran.
func extractSymbols(doc *Document) []*Symbol {
	file := doc.Result.File
	if file == nil {
		return nil
	}

	symbols := make([]*Symbol, 0, len(file.Dimensions)+len(file.Units)+len(file.Constants))
	templates := make(map[string]Range, len(file.Units))

	for _, d := range file.Dimensions {
		symbols = append(symbols, &Symbol{
			Name:   d.Name,
			Kind:   SymbolKindDimension,
			Range:  nameRange(d.NameLoc, d.Name),
			Detail: definitionDetail(d.Definition),
		})
	}
	for _, u := range file.Units {
		rng := nameRange(u.NameLoc, u.Name)
		templates[u.Name] = rng
		symbols = append(symbols, &Symbol{
			Name:   u.Name,
			Kind:   SymbolKindUnit,
			Range:  rng,
			Detail: definitionDetail(u.Definition),
		})
	}
	for _, c := range file.Constants {
		symbols = append(symbols, &Symbol{
			Name:   c.Name,
			Kind:   SymbolKindConstant,
			Range:  nameRange(c.NameLoc, c.Name),
			Detail: definitionDetail(c.Definition),
		})
	}

	if doc.Result.Unresolved != nil {
		for _, u := range doc.Result.Unresolved.Units {
			if u.AutogeneratedFrom == nil {
				continue
			}
			rng, ok := templates[u.AutogeneratedFrom.Name]
			if !ok {
				continue
			}
			symbols = append(symbols, &Symbol{
				Name:     u.Name.Name,
				Kind:     SymbolKindUnit,
				Range:    rng,
				Template: u.AutogeneratedFrom.Name,
			})
		}
	}

	return symbols
}

// extractReferences collects every name used in definitions, ':' dimension
// annotations and @base arguments
func extractReferences(doc *Document) []Reference {
	file := doc.Result.File
	if file == nil {
		return nil
	}

	refs := make([]Reference, 0)
	addExpr := func(e *ast.Expr) {
		expr.Walk(e, func(op ast.Operand) {
			if op.Kind == ast.OperandName {
				refs = append(refs, Reference{Name: op.Name, Range: nameRange(op.Loc, op.Name)})
			}
		})
	}
	addIdent := func(id *ast.IdentNode) {
		if id != nil {
			refs = append(refs, Reference{Name: id.Name, Range: nameRange(id.Loc, id.Name)})
		}
	}
	addBase := func(annotations []*ast.AnnotationNode) {
		for _, a := range annotations {
			if a == nil || a.Name != "base" {
				continue
			}
			for _, arg := range a.Args {
				if arg.Kind == ast.ArgIdent {
					refs = append(refs, Reference{Name: arg.Name, Range: nameRange(arg.Loc, arg.Name)})
				}
			}
		}
	}

	for _, d := range file.Dimensions {
		addExpr(d.Definition)
	}
	for _, u := range file.Units {
		addIdent(u.DimensionAnnotation)
		addBase(u.Annotations)
		addExpr(u.Definition)
	}
	for _, c := range file.Constants {
		addIdent(c.DimensionAnnotation)
		addExpr(c.Definition)
	}
	return refs
}

// nameAt finds the declared or referenced name under pos
func (d *Document) nameAt(pos Position) (string, Range, bool) {
	for _, sym := range d.Symbols {
		if sym.Template == "" && sym.Range.Contains(pos) {
			return sym.Name, sym.Range, true
		}
	}
	for _, ref := range d.References {
		if ref.Range.Contains(pos) {
			return ref.Name, ref.Range, true
		}
	}
	return "", Range{}, false
}

// declaration returns the symbol declaring name, or nil
func (d *Document) declaration(name string) *Symbol {
	for _, sym := range d.Symbols {
		if sym.Name == name {
			return sym
		}
	}
	return nil
}

func nameRange(loc ast.SourceLocation, name string) Range {
	return locationRange(loc.Line, loc.Column, len([]rune(name)))
}

func definitionDetail(e *ast.Expr) string {
	if e == nil {
		return ""
	}
	return e.String()
}
