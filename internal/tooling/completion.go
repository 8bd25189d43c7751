package tooling

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dimc-lang/dimc/internal/compiler/defs"
)

// CompletionItem represents a completion suggestion
type CompletionItem struct {
	Label         string
	Kind          CompletionKind
	Detail        string
	Documentation string
	// InsertText is the text to insert (if different from label)
	InsertText string
}

// CompletionKind categorizes completion items
type CompletionKind int

const (
	CompletionKindKeyword CompletionKind = iota
	CompletionKindAnnotation
	CompletionKindPrefix
	CompletionKindDimension
	CompletionKindUnit
	CompletionKindConstant
)

// CompletionContextKind categorizes the text before the cursor
type CompletionContextKind int

const (
	CompletionContextUnknown CompletionContextKind = iota
	CompletionContextKeyword
	CompletionContextAnnotation
	CompletionContextPrefix
	CompletionContextDimension
	CompletionContextExpression
)

// CompletionContext describes the context at a completion position
type CompletionContext struct {
	Kind CompletionContextKind

	// Declaration is the keyword starting the line, if any
	Declaration string
}

// GetCompletions returns completion items for a position in a document
func (a *API) GetCompletions(docURI string, pos Position) ([]CompletionItem, error) {
	doc, exists := a.GetDocument(docURI)
	if !exists {
		return nil, fmt.Errorf("document not found: %s", docURI)
	}

	context := getCompletionContext(doc, pos)
	return buildCompletions(doc, context), nil
}

// getCompletionContext determines the completion context at a position
func getCompletionContext(doc *Document, pos Position) *CompletionContext {
	lines := strings.Split(doc.Content, "\n")
	if pos.Line < 0 || pos.Line >= len(lines) {
		return &CompletionContext{Kind: CompletionContextUnknown}
	}

	line := []rune(lines[pos.Line])
	if pos.Character > len(line) {
		pos.Character = len(line)
	}
	prefix := string(line[:max(pos.Character, 0)])

	// Drop the partially typed word
	trimmed := strings.TrimRightFunc(prefix, isNameRune)

	if open := strings.LastIndex(trimmed, "@prefix("); open >= 0 && !strings.Contains(trimmed[open:], ")") {
		return &CompletionContext{Kind: CompletionContextPrefix}
	}
	if strings.HasSuffix(trimmed, "@") {
		return &CompletionContext{Kind: CompletionContextAnnotation}
	}

	fields := strings.Fields(trimmed)
	declaration := ""
	for _, f := range fields {
		if !strings.HasPrefix(f, "@") {
			declaration = f
			break
		}
	}

	switch {
	case strings.Contains(trimmed, "="):
		return &CompletionContext{Kind: CompletionContextExpression, Declaration: declaration}
	case strings.HasSuffix(strings.TrimSpace(trimmed), ":"):
		return &CompletionContext{Kind: CompletionContextDimension, Declaration: declaration}
	case strings.TrimSpace(trimmed) == "":
		return &CompletionContext{Kind: CompletionContextKeyword}
	case strings.HasPrefix(strings.TrimSpace(trimmed), "@") && !strings.Contains(trimmed, "("):
		// Annotations precede the keyword on the same line
		return &CompletionContext{Kind: CompletionContextKeyword}
	}
	return &CompletionContext{Kind: CompletionContextUnknown}
}

func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// buildCompletions builds completion items based on context
func buildCompletions(doc *Document, context *CompletionContext) []CompletionItem {
	switch context.Kind {
	case CompletionContextKeyword:
		return getKeywordCompletions()
	case CompletionContextAnnotation:
		return getAnnotationCompletions()
	case CompletionContextPrefix:
		return getPrefixCompletions()
	case CompletionContextDimension:
		return getSymbolCompletions(doc, SymbolKindDimension)
	case CompletionContextExpression:
		if context.Declaration == "dimension" {
			return getSymbolCompletions(doc, SymbolKindDimension)
		}
		return getSymbolCompletions(doc, SymbolKindUnit, SymbolKindConstant)
	default:
		return nil
	}
}

func getKeywordCompletions() []CompletionItem {
	keywords := []struct {
		name   string
		detail string
		insert string
	}{
		{"dimension", "Declare a base or derived dimension", "dimension "},
		{"unit", "Declare a unit", "unit "},
		{"constant", "Declare a physical constant", "constant ${1:name}: ${2:Dimension} = $0"},
		{"quantity_type", "Name the generated quantity type", "quantity_type "},
		{"dimension_type", "Name the generated dimension type", "dimension_type "},
	}

	items := make([]CompletionItem, len(keywords))
	for i, k := range keywords {
		items[i] = CompletionItem{
			Label:         k.name,
			Kind:          CompletionKindKeyword,
			Detail:        k.detail,
			Documentation: k.detail,
			InsertText:    k.insert,
		}
	}
	return items
}

func getAnnotationCompletions() []CompletionItem {
	annotations := []struct {
		name   string
		detail string
		insert string
	}{
		{"base", "Base unit of a base dimension", "base($0)"},
		{"symbol", "Short symbol of a unit", "symbol($0)"},
		{"prefix", "Generate prefixed units", "prefix($0)"},
		{"metric_prefixes", "Generate every SI prefix", "metric_prefixes"},
		{"binary_prefixes", "Generate every IEC binary prefix", "binary_prefixes"},
		{"alias", "Alternate unit names", "alias($0)"},
	}

	items := make([]CompletionItem, len(annotations))
	for i, a := range annotations {
		items[i] = CompletionItem{
			Label:         "@" + a.name,
			Kind:          CompletionKindAnnotation,
			Detail:        a.detail,
			Documentation: a.detail,
			InsertText:    a.insert,
		}
	}
	return items
}

func getPrefixCompletions() []CompletionItem {
	items := make([]CompletionItem, 0, len(defs.MetricPrefixes)+len(defs.BinaryPrefixes))
	for _, table := range [][]defs.Prefix{defs.MetricPrefixes, defs.BinaryPrefixes} {
		for _, p := range table {
			items = append(items, CompletionItem{
				Label:      p.Name,
				Kind:       CompletionKindPrefix,
				Detail:     fmt.Sprintf("%s, ×%s", p.Short, formatMagnitude(p.Factor)),
				InsertText: p.Name,
			})
		}
	}
	return items
}

// getSymbolCompletions offers the document's declared names of the given
// kinds, generated units included
func getSymbolCompletions(doc *Document, kinds ...SymbolKind) []CompletionItem {
	items := make([]CompletionItem, 0)
	for _, sym := range doc.Symbols {
		kind, ok := completionKind(sym.Kind, kinds)
		if !ok {
			continue
		}
		detail := sym.Kind.String()
		if sym.Template != "" {
			detail = fmt.Sprintf("unit (from %s)", sym.Template)
		}
		items = append(items, CompletionItem{
			Label:      sym.Name,
			Kind:       kind,
			Detail:     detail,
			InsertText: sym.Name,
		})
	}
	return items
}

func completionKind(k SymbolKind, allowed []SymbolKind) (CompletionKind, bool) {
	for _, a := range allowed {
		if a != k {
			continue
		}
		switch k {
		case SymbolKindDimension:
			return CompletionKindDimension, true
		case SymbolKindUnit:
			return CompletionKindUnit, true
		case SymbolKindConstant:
			return CompletionKindConstant, true
		}
	}
	return 0, false
}
