// Package tooling exposes the compiler to editors. It keeps the open
// documents, recompiles them on change and answers position-based queries
// (diagnostics, hover, definitions, references, symbols and completions)
// for the language server.
package tooling

import (
	"fmt"
	"strings"
	"sync"

	"go.lsp.dev/uri"
	"go.uber.org/zap"

	cerrors "github.com/dimc-lang/dimc/compiler/errors"
	"github.com/dimc-lang/dimc/internal/compiler/cache"
	"github.com/dimc-lang/dimc/internal/compiler/pipeline"
)

// API provides thread-safe access to compiler functionality for IDE integration.
type API struct {
	documents map[string]*Document
	docsMutex sync.RWMutex

	symbolIndex *SymbolIndex
	results     *cache.Cache[*pipeline.Result]

	options pipeline.Options
	logger  *zap.Logger
}

// Document is an open file with the output of its last compilation
type Document struct {
	URI     string
	Content string
	Version int

	Result     *pipeline.Result
	Symbols    []*Symbol
	References []Reference
}

// Position is a zero-based line and character offset
type Position struct {
	Line      int
	Character int
}

// Range represents a range in a document
type Range struct {
	Start Position
	End   Position
}

// Contains reports whether pos lies within the range, end inclusive so
// that a cursor right after a name still selects it.
func (r Range) Contains(pos Position) bool {
	if pos.Line < r.Start.Line || pos.Line > r.End.Line {
		return false
	}
	if pos.Line == r.Start.Line && pos.Character < r.Start.Character {
		return false
	}
	if pos.Line == r.End.Line && pos.Character > r.End.Character {
		return false
	}
	return true
}

// Location represents a source location with URI and range
type Location struct {
	URI   string
	Range Range
}

// Hover represents hover information for a symbol
type Hover struct {
	Contents string // markdown
	Range    Range
}

// Diagnostic represents a compilation error or warning
type Diagnostic struct {
	Range    Range
	Severity DiagnosticSeverity
	Code     string
	Message  string
	Source   string
}

// DiagnosticSeverity indicates the severity of a diagnostic
type DiagnosticSeverity int

const (
	DiagnosticSeverityError DiagnosticSeverity = iota
	DiagnosticSeverityWarning
	DiagnosticSeverityInfo
	DiagnosticSeverityHint
)

// NewAPI creates a tooling API that compiles documents with opts. A nil
// logger disables logging.
func NewAPI(opts pipeline.Options, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		documents:   make(map[string]*Document),
		symbolIndex: NewSymbolIndex(),
		results:     cache.New[*pipeline.Result](),
		options:     opts,
		logger:      logger,
	}
}

// OpenDocument compiles content and starts tracking it under docURI
func (a *API) OpenDocument(docURI, content string) *Document {
	return a.UpdateDocument(docURI, content, 1)
}

// UpdateDocument recompiles a document. Unchanged content reuses the
// previous compilation.
func (a *API) UpdateDocument(docURI, content string, version int) *Document {
	a.docsMutex.RLock()
	old, exists := a.documents[docURI]
	a.docsMutex.RUnlock()
	if exists && old.Content == content {
		a.docsMutex.Lock()
		old.Version = version
		a.docsMutex.Unlock()
		return old
	}

	doc := a.compile(docURI, content)
	doc.Version = version

	a.docsMutex.Lock()
	a.documents[docURI] = doc
	a.docsMutex.Unlock()
	a.symbolIndex.Index(docURI, doc.Symbols)

	return doc
}

func (a *API) compile(docURI, content string) *Document {
	opts := a.options
	opts.File = filename(docURI)

	result, err := pipeline.New(opts, a.logger).WithCache(a.results).Compile(content)
	if err != nil {
		a.logger.Debug("document has errors",
			zap.String("uri", docURI),
			zap.Int("diagnostics", len(result.Diagnostics)),
		)
	}

	doc := &Document{
		URI:     docURI,
		Content: content,
		Result:  result,
	}
	doc.Symbols = extractSymbols(doc)
	doc.References = extractReferences(doc)
	return doc
}

// GetDocument retrieves a tracked document
func (a *API) GetDocument(docURI string) (*Document, bool) {
	a.docsMutex.RLock()
	defer a.docsMutex.RUnlock()

	doc, exists := a.documents[docURI]
	return doc, exists
}

// CloseDocument stops tracking a document
func (a *API) CloseDocument(docURI string) {
	a.docsMutex.Lock()
	delete(a.documents, docURI)
	a.docsMutex.Unlock()

	a.symbolIndex.RemoveDocument(docURI)
	a.results.Invalidate(filename(docURI))
}

// GetDiagnostics returns diagnostics for a document
func (a *API) GetDiagnostics(docURI string) []Diagnostic {
	doc, exists := a.GetDocument(docURI)
	if !exists {
		return nil
	}

	diagnostics := make([]Diagnostic, 0, len(doc.Result.Diagnostics))
	for _, d := range doc.Result.Diagnostics {
		length := d.Location.Length
		if length <= 0 {
			length = 1
		}
		diagnostics = append(diagnostics, Diagnostic{
			Range:    locationRange(d.Location.Line, d.Location.Column, length),
			Severity: severityOf(d.Severity),
			Code:     d.Code,
			Message:  d.Message,
			Source:   "dimc",
		})
	}
	return diagnostics
}

// GetHover returns hover information for a position in a document.
// Returns (nil, nil) if no symbol is found at the position.
func (a *API) GetHover(docURI string, pos Position) (*Hover, error) {
	doc, exists := a.GetDocument(docURI)
	if !exists {
		return nil, fmt.Errorf("document not found: %s", docURI)
	}

	name, rng, ok := doc.nameAt(pos)
	if !ok {
		return nil, nil //nolint:nilnil // nil hover is valid when no symbol at position
	}
	contents := buildHover(doc, name)
	if contents == "" {
		return nil, nil //nolint:nilnil // undeclared names have no hover
	}
	return &Hover{Contents: contents, Range: rng}, nil
}

// GetDefinition returns the declaration of the name at a position.
// Returns (nil, nil) if no declared name is found at the position.
func (a *API) GetDefinition(docURI string, pos Position) (*Location, error) {
	doc, exists := a.GetDocument(docURI)
	if !exists {
		return nil, fmt.Errorf("document not found: %s", docURI)
	}

	name, _, ok := doc.nameAt(pos)
	if !ok {
		return nil, nil //nolint:nilnil // nil location is valid when no symbol at position
	}
	sym := doc.declaration(name)
	if sym == nil {
		return nil, nil //nolint:nilnil // reference to an undeclared name
	}
	return &Location{URI: docURI, Range: sym.Range}, nil
}

// GetReferences returns the declaration and every use of the name at a
// position
func (a *API) GetReferences(docURI string, pos Position) ([]Location, error) {
	doc, exists := a.GetDocument(docURI)
	if !exists {
		return nil, fmt.Errorf("document not found: %s", docURI)
	}

	name, _, ok := doc.nameAt(pos)
	if !ok {
		return []Location{}, nil
	}

	locations := make([]Location, 0)
	if sym := doc.declaration(name); sym != nil {
		locations = append(locations, Location{URI: docURI, Range: sym.Range})
	}
	for _, ref := range doc.References {
		if ref.Name == name {
			locations = append(locations, Location{URI: docURI, Range: ref.Range})
		}
	}
	return locations, nil
}

// GetDocumentSymbols returns all symbols in a document
func (a *API) GetDocumentSymbols(docURI string) ([]*Symbol, error) {
	doc, exists := a.GetDocument(docURI)
	if !exists {
		return nil, fmt.Errorf("document not found: %s", docURI)
	}
	return doc.Symbols, nil
}

// SearchSymbols searches declared names across every open document
func (a *API) SearchSymbols(query string) []*IndexedSymbol {
	return a.symbolIndex.SearchSymbols(query)
}

// filename maps a file:// URI to a path for diagnostics. Other strings are
// used as given.
func filename(docURI string) string {
	if strings.HasPrefix(docURI, uri.FileScheme+"://") {
		return uri.URI(docURI).Filename()
	}
	return docURI
}

// locationRange converts a one-based line and column into a zero-based range
func locationRange(line, column, length int) Range {
	start := Position{Line: max(line-1, 0), Character: max(column-1, 0)}
	return Range{Start: start, End: Position{Line: start.Line, Character: start.Character + length}}
}

func severityOf(s cerrors.Severity) DiagnosticSeverity {
	switch s {
	case cerrors.Warning:
		return DiagnosticSeverityWarning
	case cerrors.Info:
		return DiagnosticSeverityInfo
	default:
		return DiagnosticSeverityError
	}
}
