// Package pipeline drives a unit definition file through every compiler
// phase: lexing, parsing, verification, template expansion, resolution and
// code generation. Each phase reports through compiler/errors so the CLI and
// the language server render diagnostics the same way.
package pipeline

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	cerrors "github.com/dimc-lang/dimc/compiler/errors"
	"github.com/dimc-lang/dimc/internal/compiler/ast"
	"github.com/dimc-lang/dimc/internal/compiler/cache"
	"github.com/dimc-lang/dimc/internal/compiler/codegen"
	"github.com/dimc-lang/dimc/internal/compiler/defs"
	"github.com/dimc-lang/dimc/internal/compiler/dimension"
	"github.com/dimc-lang/dimc/internal/compiler/lexer"
	"github.com/dimc-lang/dimc/internal/compiler/parser"
	"github.com/dimc-lang/dimc/internal/compiler/resolver"
	"github.com/dimc-lang/dimc/internal/compiler/verify"
)

// Options configures a compilation.
type Options struct {
	// File is the path reported in diagnostics. It is also the cache key.
	File string
	// Package is the package clause of the generated code.
	Package string
	// RationalExponents switches the exponent domain from integers to
	// rationals.
	RationalExponents bool
	// SkipCodegen stops after resolution.
	SkipCodegen bool
}

// Result holds the output of every phase that ran. Later fields are nil when
// an earlier phase failed.
type Result struct {
	File        *ast.File
	Templates   *defs.UnresolvedTemplates
	Unresolved  *defs.UnresolvedDefs
	Resolved    *defs.ResolvedDefs
	Files       map[string]string
	Diagnostics []cerrors.CompilerError
}

// Err returns the error diagnostics as a cerrors.List, or nil.
func (r *Result) Err() error {
	var list cerrors.List
	for _, d := range r.Diagnostics {
		if d.IsError() {
			list = append(list, d)
		}
	}
	if len(list) == 0 {
		return nil
	}
	return list
}

// Compiler runs the phases with a fixed configuration.
type Compiler struct {
	opts   Options
	logger *zap.Logger
	cache  *cache.Cache[*Result]
}

// New creates a compiler. A nil logger disables logging.
func New(opts Options, logger *zap.Logger) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{opts: opts, logger: logger}
}

// WithCache makes the compiler reuse results for unchanged sources.
func (c *Compiler) WithCache(results *cache.Cache[*Result]) *Compiler {
	c.cache = results
	return c
}

// Options returns the compiler's configuration.
func (c *Compiler) Options() Options {
	return c.opts
}

// CompileFile reads path and compiles it. Diagnostics report path as
// their file.
func (c *Compiler) CompileFile(path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	file := *c
	file.opts.File = path
	return file.Compile(string(content))
}

// Compile runs every phase over source. The returned error is a
// cerrors.List when the source has errors; the Result is always non-nil and
// holds whatever the phases before the failure produced.
func (c *Compiler) Compile(source string) (*Result, error) {
	hash := cache.HashString(source)
	if c.cache != nil {
		if res, ok := c.cache.Get(c.opts.File, hash); ok {
			c.logger.Debug("cache hit", zap.String("file", c.opts.File))
			return res, res.Err()
		}
	}

	res := c.run(source)
	if c.cache != nil {
		c.cache.Set(c.opts.File, hash, res)
	}
	return res, res.Err()
}

func (c *Compiler) run(source string) *Result {
	res := &Result{}
	rec := cerrors.NewErrorRecovery().WithSource(source)
	defer func() { res.Diagnostics = rec.GetAll() }()

	start := time.Now()
	tokens, lexErrs := lexer.New(source).ScanTokens()
	c.phaseDone("lex", start, len(lexErrs))
	for _, e := range lexErrs {
		rec.Recover(c.fromLexError(e))
	}
	if rec.HasErrors() {
		return res
	}

	start = time.Now()
	file, parseErrs := parser.New(tokens).Parse()
	c.phaseDone("parse", start, len(parseErrs))
	res.File = file
	for _, e := range parseErrs {
		rec.Recover(c.fromParseError(e))
	}
	if rec.HasErrors() {
		return res
	}

	start = time.Now()
	templates, verifyErrs := verify.Verify(file, verify.Options{RationalExponents: c.opts.RationalExponents})
	c.phaseDone("verify", start, len(verifyErrs))
	res.Templates = templates
	for _, e := range verifyErrs {
		rec.Recover(c.fromVerifyError(e))
	}
	if rec.HasErrors() {
		return res
	}

	res.Unresolved = templates.ExpandTemplates()

	start = time.Now()
	resolved, err := resolver.Resolve(res.Unresolved,
		resolver.WithLogger(c.logger),
		resolver.WithMode(c.mode()),
	)
	c.phaseDone("resolve", start, errCount(err))
	if err != nil {
		rec.Recover(c.fromResolveError(err, res.Unresolved))
		return res
	}
	res.Resolved = resolved

	if c.opts.SkipCodegen {
		return res
	}

	start = time.Now()
	files, err := codegen.Generate(resolved, codegen.Options{Package: c.opts.Package})
	c.phaseDone("codegen", start, errCount(err))
	if err != nil {
		rec.Recover(c.fromCodegenError(err))
		return res
	}
	res.Files = files
	return res
}

func (c *Compiler) mode() dimension.Mode {
	if c.opts.RationalExponents {
		return dimension.RationalExponents
	}
	return dimension.IntegerExponents
}

func (c *Compiler) phaseDone(phase string, start time.Time, errors int) {
	c.logger.Debug("phase complete",
		zap.String("phase", phase),
		zap.String("file", c.opts.File),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("errors", errors),
	)
}

func errCount(err error) int {
	if err != nil {
		return 1
	}
	return 0
}
