// Package driver implements the out-of-core collaborator of spec.md
// §1/§4.H/§6: the glue that turns CLI-level options into a run of the
// lex/parse/analyze/emit pipeline, drives the external C toolchain, and
// manages the module search path and artifact cache. None of the
// typing or code generation semantics live here — only orchestration.
package driver

import (
	"fmt"
	"os"

	"github.com/natc-lang/natc/internal/analyzer"
	"github.com/natc-lang/natc/internal/ast"
	_ "github.com/natc-lang/natc/internal/cbuiltin" // registers cemit's C builtin generators
	"github.com/natc-lang/natc/internal/cemit"
	"github.com/natc-lang/natc/internal/config"
	"github.com/natc-lang/natc/internal/driverparse"
	cerrors "github.com/natc-lang/natc/internal/errors"
	"github.com/natc-lang/natc/internal/luaemit"
	"github.com/natc-lang/natc/internal/pragma"
	"github.com/natc-lang/natc/internal/preprocess"
	"github.com/natc-lang/natc/internal/registry"
)

// Stage is the pipeline stage a run should stop at, per spec.md §6's
// `--analyze`/`--lint`/`--compile-code`/`--compile-binary` flags.
type Stage int

const (
	StageLint          Stage = iota // parse + analyze, discard all output
	StageAnalyze                    // parse + analyze, keep diagnostics/AST dumps
	StageCompileCode                // emit C or Lua source text
	StageCompileBinary              // invoke the external toolchain too
)

// Source describes where the program text came from, for diagnostics
// and for resolving `require` paths relative to the file's directory.
type Source struct {
	Text string
	File string // "<eval>" when supplied via --eval
}

// Result collects everything a Run produces. Only the fields relevant
// to the requested Stage are populated; the rest are the zero value.
type Result struct {
	Program     *ast.Program
	Diagnostics *analyzer.Diagnostics
	ParseErrors []string

	ASTDump         string // --print-ast
	AnalyzedASTDump string // --print-analyzed-ast
	Code            string // --print-code (C or Lua, per cfg.Generator)

	ObjectPath string // set once StageCompileBinary has run the toolchain
	BinaryPath string
}

// Run executes the pipeline up to stage for src under cfg. A non-nil
// error means the pipeline could not proceed at all (parse failure,
// toolchain failure); type/lookup diagnostics are instead batched onto
// Result.Diagnostics per spec.md §7 and do not themselves make Run
// return an error — callers check Diagnostics.HasErrors().
func Run(cfg *config.Config, src Source, stage Stage) (*Result, error) {
	reg := registry.New()
	p := driverparse.New(reg, src.Text)
	prog, err := p.Parse()
	if len(p.Errors()) > 0 {
		res := &Result{ParseErrors: p.Errors()}
		return res, fmt.Errorf("parsing failed with %d error(s)", len(p.Errors()))
	}
	if err != nil {
		return nil, err
	}

	res := &Result{Program: prog}
	res.ASTDump = DumpAST(prog, false)

	pragmas := pragma.New()
	if err := applyPragmaFlags(pragmas, cfg.Pragmas); err != nil {
		return res, err
	}

	ppEngine := preprocess.New(reg, pragmas, preprocess.Config{
		Generator: cfg.Generator,
		Defines:   cfg.ResolvedDefines(),
	})

	loader := NewSearchPathLoader(cfg.SearchPath, src.File)

	an := analyzer.New(reg, ppEngine, loader)
	an.Pragmas = pragmas
	diags := an.AnalyzeProgram(prog)
	res.Diagnostics = diags
	res.AnalyzedASTDump = DumpAST(prog, true)

	if stage <= StageAnalyze {
		return res, nil
	}
	if diags.HasErrors() {
		return res, fmt.Errorf("analysis failed with %d error(s)", diags.Count())
	}

	switch cfg.Generator {
	case "lua":
		em := luaemit.New()
		if err := em.Generate(prog); err != nil {
			return res, fmt.Errorf("lua codegen: %w", err)
		}
		res.Code = em.Render()
	default:
		unit := cemit.New(cfg.Shared || cfg.Static, pragmas)
		gen := cemit.NewCodegen(unit)
		if err := gen.Generate(prog); err != nil {
			return res, fmt.Errorf("c codegen: %w", err)
		}
		res.Code = unit.Render()
	}

	if stage < StageCompileBinary {
		return res, nil
	}

	tc := NewToolchain(cfg)
	if _, err := tc.Info(); err != nil {
		return res, err
	}
	cache := NewCache(cfg.CacheDir, cfg.NoCache)
	key := cache.Key(res.Code, tc.Identity(), cfg.CFlags, cfg.LDFlags)
	if entry, ok := cache.Lookup(key); ok {
		res.ObjectPath, res.BinaryPath = entry.Object, entry.Binary
		return res, nil
	}

	objPath, binPath, err := tc.Build(res.Code, cfg)
	if err != nil {
		return res, err
	}
	res.ObjectPath, res.BinaryPath = objPath, binPath
	if err := cache.Store(key, objPath, binPath); err != nil {
		return res, err
	}
	return res, nil
}

func applyPragmaFlags(pragmas *pragma.Map, flags map[string]string) error {
	for name, val := range flags {
		if err := pragmas.SetFieldFromString(name, val); err != nil {
			return fmt.Errorf("invalid pragma %s: %w", name, err)
		}
	}
	return nil
}

// FormatDiagnostics renders diags against src's text, for driver
// callers that want spec.md §7's source-pointing formatting.
func FormatDiagnostics(diags *analyzer.Diagnostics, src Source, color bool) string {
	if diags == nil || !diags.HasErrors() {
		return ""
	}
	var rendered cerrors.Diagnostics
	for _, e := range diags.Errors() {
		rendered.Add(e.ToCompilerError(src.Text, src.File))
	}
	return rendered.Format(color)
}

// ReadFile loads path, translating a missing file into spec.md §6's
// exact driver error text.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: No such file or directory", path)
		}
		return "", err
	}
	return string(data), nil
}
