// Package format rewrites unit definition files in canonical layout while
// keeping comments and numeric literals as written.
package format

import (
	"bytes"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/dimc-lang/dimc/internal/compiler/ast"
	"github.com/dimc-lang/dimc/internal/compiler/expr"
	"github.com/dimc-lang/dimc/internal/compiler/lexer"
	"github.com/dimc-lang/dimc/internal/compiler/parser"
)

// Formatter formats unit definition source code
type Formatter struct {
	config   *Config
	buf      *bytes.Buffer
	tokens   []lexer.Token
	tokenAt  map[ast.SourceLocation]int
	comments []lexer.Comment
	lastLine int // source line of the last thing written, 0 before any output
}

// declaration is one top-level declaration ready to be written
type declaration struct {
	start       ast.SourceLocation
	keywordLine int
	endLine     int
	annotations string
	body        string
}

// New creates a new Formatter with the given configuration
func New(config *Config) *Formatter {
	if config == nil {
		config = DefaultConfig()
	}
	return &Formatter{
		config: config,
		buf:    new(bytes.Buffer),
	}
}

// Format formats source and returns the result. Sources that do not parse
// are returned unchanged together with the first error.
func (f *Formatter) Format(source string) (string, error) {
	l := lexer.New(source)
	tokens, lexErrors := l.ScanTokens()
	if len(lexErrors) > 0 {
		return source, lexErrors[0]
	}

	file, parseErrors := parser.New(tokens).Parse()
	if len(parseErrors) > 0 {
		return source, &parseErrors[0]
	}

	f.buf.Reset()
	f.tokens = tokens
	f.comments = l.Comments()
	f.lastLine = 0
	f.tokenAt = make(map[ast.SourceLocation]int, len(tokens))
	for i, tok := range tokens {
		f.tokenAt[ast.TokenLocation(tok)] = i
	}

	f.formatFile(file)
	return f.buf.String(), nil
}

// FormatFile formats a definition file
func FormatFile(path string, config *Config) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	formatter := New(config)
	return formatter.Format(string(content))
}

// formatFile writes every declaration in source order. Comments on their
// own line are written before the declaration that follows them; comments
// sharing a line with a declaration stay on that line.
func (f *Formatter) formatFile(file *ast.File) {
	decls := f.collect(file)
	sort.Slice(decls, func(i, j int) bool {
		a, b := decls[i].start, decls[j].start
		return a.Line < b.Line || (a.Line == b.Line && a.Column < b.Column)
	})
	f.setEndLines(decls)

	tokenLines := make(map[int]bool, len(f.tokens))
	for _, tok := range f.tokens[:len(f.tokens)-1] {
		tokenLines[tok.Line] = true
	}

	next := 0
	for _, d := range decls {
		annotations, body := d.annotations, d.body
		for ; next < len(f.comments) && f.comments[next].Line <= d.endLine; next++ {
			c := f.comments[next]
			switch {
			case c.Line < d.start.Line || !tokenLines[c.Line]:
				f.writeLine(c.Line, c.Text)
			case annotations != "" && c.Line < d.keywordLine && !f.config.InlineAnnotations:
				annotations += " " + c.Text
			default:
				body += " " + c.Text
			}
		}

		switch {
		case annotations == "":
			f.writeLine(d.start.Line, body)
		case f.config.InlineAnnotations:
			f.writeLine(d.start.Line, annotations+" "+body)
		default:
			f.writeLine(d.start.Line, annotations)
			f.buf.WriteString(body)
			f.buf.WriteByte('\n')
		}
		f.lastLine = d.endLine
	}

	for ; next < len(f.comments); next++ {
		f.writeLine(f.comments[next].Line, f.comments[next].Text)
	}
}

// writeLine writes text, preceded by the blank lines that separated it from
// the previous output in the source
func (f *Formatter) writeLine(line int, text string) {
	if f.lastLine > 0 {
		blank := min(line-f.lastLine-1, f.config.maxBlankLines())
		for i := 0; i < blank; i++ {
			f.buf.WriteByte('\n')
		}
	}
	f.buf.WriteString(text)
	f.buf.WriteByte('\n')
	f.lastLine = line
}

func (f *Formatter) collect(file *ast.File) []declaration {
	decls := make([]declaration, 0,
		len(file.QuantityTypes)+len(file.DimensionTypes)+len(file.Dimensions)+len(file.Units)+len(file.Constants))

	for _, t := range file.QuantityTypes {
		decls = append(decls, declaration{start: t.Loc, keywordLine: t.Loc.Line, body: "quantity_type " + t.Name})
	}
	for _, t := range file.DimensionTypes {
		decls = append(decls, declaration{start: t.Loc, keywordLine: t.Loc.Line, body: "dimension_type " + t.Name})
	}
	for _, d := range file.Dimensions {
		decls = append(decls, declaration{
			start:       d.Loc,
			keywordLine: d.NameLoc.Line,
			annotations: f.annotations(d.Annotations),
			body:        "dimension " + d.Name + f.definition(d.Definition),
		})
	}
	for _, u := range file.Units {
		decls = append(decls, declaration{
			start:       u.Loc,
			keywordLine: u.NameLoc.Line,
			annotations: f.annotations(u.Annotations),
			body:        "unit " + u.Name + dimensionAnnotation(u.DimensionAnnotation) + f.definition(u.Definition),
		})
	}
	for _, c := range file.Constants {
		decls = append(decls, declaration{
			start:       c.Loc,
			keywordLine: c.NameLoc.Line,
			annotations: f.annotations(c.Annotations),
			body:        "constant " + c.Name + dimensionAnnotation(c.DimensionAnnotation) + f.definition(c.Definition),
		})
	}
	return decls
}

// setEndLines records the line of the last token of each declaration. decls
// must be sorted.
func (f *Formatter) setEndLines(decls []declaration) {
	for i := range decls {
		end := len(f.tokens) - 1 // EOF
		if i+1 < len(decls) {
			idx, ok := f.tokenAt[decls[i+1].start]
			if !ok {
				idx = -1
			}
			end = idx
		}
		decls[i].endLine = decls[i].keywordLine
		if end > 0 {
			decls[i].endLine = max(decls[i].endLine, f.tokens[end-1].Line)
		}
	}
}

func (f *Formatter) annotations(annotations []*ast.AnnotationNode) string {
	parts := make([]string, 0, len(annotations))
	for _, a := range annotations {
		text := "@" + a.Name
		if len(a.Args) > 0 {
			text += "(" + f.arguments(a.Args) + ")"
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

func (f *Formatter) arguments(args []*ast.AnnotationArg) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		switch arg.Kind {
		case ast.ArgIdent:
			parts = append(parts, arg.Name)
		case ast.ArgString:
			parts = append(parts, quote(arg.Text))
		case ast.ArgNumber:
			parts = append(parts, f.numberArgument(arg))
		case ast.ArgCall:
			parts = append(parts, arg.Name+"("+f.arguments(arg.Args)+")")
		}
	}
	return strings.Join(parts, ", ")
}

// numberArgument returns a numeric argument as written. The argument is
// located at its sign when negative.
func (f *Formatter) numberArgument(arg *ast.AnnotationArg) string {
	if idx, ok := f.tokenAt[arg.Loc]; ok {
		tok := f.tokens[idx]
		if tok.Type == lexer.TOKEN_MINUS && idx+1 < len(f.tokens) {
			return "-" + f.tokens[idx+1].Lexeme
		}
		return tok.Lexeme
	}
	return strconv.FormatFloat(arg.Number, 'g', -1, 64)
}

// literal is an operand rendered as written
type literal string

func (f *Formatter) definition(e *ast.Expr) string {
	if e == nil {
		return ""
	}
	written := expr.Map(e, func(o ast.Operand) literal {
		if o.Kind == ast.OperandNumber {
			if idx, ok := f.tokenAt[o.Loc]; ok {
				return literal(f.tokens[idx].Lexeme)
			}
			return literal(strconv.FormatFloat(o.Number, 'g', -1, 64))
		}
		return literal(o.Name)
	}, func(x ast.ExponentLit) ast.ExponentLit { return x })
	return " = " + written.String()
}

func dimensionAnnotation(dim *ast.IdentNode) string {
	if dim == nil {
		return ""
	}
	return ": " + dim.Name
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}
