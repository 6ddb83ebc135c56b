package cmd

import (
	"fmt"
	"os"

	"github.com/natc-lang/natc/internal/config"
	"github.com/natc-lang/natc/internal/driver"
	"github.com/spf13/cobra"
)

var (
	flagProject string

	flagGenerator string

	flagCompileCode   bool
	flagCompileBinary bool
	flagAnalyze       bool
	flagLint          bool

	flagEval string

	flagNoCache  bool
	flagCacheDir string

	flagDefines []string
	flagPragmas []string

	flagSearchPaths []string

	flagCC      string
	flagCFlags  []string
	flagLDFlags []string

	flagShared bool
	flagStatic bool
	flagOutput string

	flagPrintAST         bool
	flagPrintAnalyzedAST bool
	flagPrintCode        bool

	flagDebugResolve      bool
	flagDebugScopeResolve bool
	flagVerbose           bool
	flagTiming            bool
)

// registerFlags installs the spec.md §6 CLI surface on cmd.
func registerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagProject, "project", "", "project config file (YAML), layered under CLI flags")

	cmd.Flags().StringVar(&flagGenerator, "generator", "c", "backend generator: c or lua")

	cmd.Flags().BoolVar(&flagCompileCode, "compile-code", false, "stop after emitting generated source")
	cmd.Flags().BoolVar(&flagCompileBinary, "compile-binary", false, "compile all the way to a native binary (default)")
	cmd.Flags().BoolVar(&flagAnalyze, "analyze", false, "stop after type analysis")
	cmd.Flags().BoolVar(&flagLint, "lint", false, "parse and analyze only, discard all output")

	cmd.Flags().StringVar(&flagEval, "eval", "", "supply source inline instead of a file")

	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "bypass the compiled-artifact cache")
	cmd.Flags().StringVar(&flagCacheDir, "cache-dir", "", "redirect the compiled-artifact cache directory")

	cmd.Flags().StringArrayVarP(&flagDefines, "define", "D", nil, "set a preprocessor variable NAME[=val]")
	cmd.Flags().StringArrayVarP(&flagPragmas, "pragma", "P", nil, "set a pragma NAME[=val]")

	cmd.Flags().StringArrayVarP(&flagSearchPaths, "path", "L", nil, "replace/append to the module search path")

	cmd.Flags().StringVar(&flagCC, "cc", "", "external C compiler executable")
	cmd.Flags().StringArrayVar(&flagCFlags, "cflags", nil, "flags forwarded to the C compiler")
	cmd.Flags().StringArrayVar(&flagLDFlags, "ldflags", nil, "flags forwarded to the linker")

	cmd.Flags().BoolVar(&flagShared, "shared", false, "build a shared library")
	cmd.Flags().BoolVar(&flagStatic, "static", false, "build a static library")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output file path")

	cmd.Flags().BoolVar(&flagPrintAST, "print-ast", false, "dump the parsed AST")
	cmd.Flags().BoolVar(&flagPrintAnalyzedAST, "print-analyzed-ast", false, "dump the type-analyzed AST")
	cmd.Flags().BoolVar(&flagPrintCode, "print-code", false, "print the generated source")

	cmd.Flags().BoolVar(&flagDebugResolve, "debug-resolve", false, "emit symbol-resolution trace")
	cmd.Flags().BoolVar(&flagDebugScopeResolve, "debug-scope-resolve", false, "emit scope-resolution trace")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose diagnostics")
	cmd.Flags().BoolVar(&flagTiming, "timing", false, "report per-stage timing")
}

// resolveStage applies spec.md §6's pipeline-stop flags, letting a
// print-* flag implicitly raise the stage far enough to have the data
// it needs without forcing a full compile-binary run the caller never
// asked for.
func resolveStage() driver.Stage {
	stage := driver.Stage(-1)
	switch {
	case flagLint:
		stage = driver.StageLint
	case flagAnalyze:
		stage = driver.StageAnalyze
	case flagCompileCode:
		stage = driver.StageCompileCode
	case flagCompileBinary:
		stage = driver.StageCompileBinary
	}
	if (flagPrintAST || flagPrintAnalyzedAST) && stage < driver.StageAnalyze {
		stage = driver.StageAnalyze
	}
	if flagPrintCode && stage < driver.StageCompileCode {
		stage = driver.StageCompileCode
	}
	if stage < 0 {
		stage = driver.StageCompileBinary
	}
	return stage
}

func buildConfig() (*config.Config, error) {
	cfg := config.Default()
	if flagProject != "" {
		loaded, err := config.Load(flagProject)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs := rootCmd.Flags()
	if fs.Changed("generator") || cfg.Generator == "" {
		cfg.Generator = flagGenerator
	}
	if cfg.Generator != "c" && cfg.Generator != "lua" {
		return nil, fmt.Errorf("unknown generator %q", cfg.Generator)
	}

	if fs.Changed("no-cache") {
		cfg.NoCache = flagNoCache
	}
	if flagCacheDir != "" {
		cfg.CacheDir = flagCacheDir
	}

	for _, raw := range flagDefines {
		if err := driver.ValidateParam(raw); err != nil {
			return nil, err
		}
		cfg.MergeDefine(raw)
	}
	for _, raw := range flagPragmas {
		if err := driver.ValidateParam(raw); err != nil {
			return nil, err
		}
		cfg.MergePragma(raw)
	}

	for _, p := range flagSearchPaths {
		if err := driver.ValidateSearchPath(p); err != nil {
			return nil, err
		}
		cfg.SearchPath = append(cfg.SearchPath, p)
	}

	if flagCC != "" {
		cfg.CC = flagCC
	}
	if len(flagCFlags) > 0 {
		cfg.CFlags = flagCFlags
	}
	if len(flagLDFlags) > 0 {
		cfg.LDFlags = flagLDFlags
	}
	if fs.Changed("shared") {
		cfg.Shared = flagShared
	}
	if fs.Changed("static") {
		cfg.Static = flagStatic
	}
	if flagOutput != "" {
		cfg.Output = flagOutput
	}

	if fs.Changed("debug-resolve") {
		cfg.DebugResolve = flagDebugResolve
	}
	if fs.Changed("debug-scope-resolve") {
		cfg.DebugScopeResolve = flagDebugScopeResolve
	}
	if fs.Changed("verbose") {
		cfg.Verbose = flagVerbose
	}
	if fs.Changed("timing") {
		cfg.Timing = flagTiming
	}

	return cfg, nil
}

func runPipeline(_ *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	var src driver.Source
	switch {
	case flagEval != "":
		src = driver.Source{Text: flagEval, File: "<eval>"}
	case len(args) == 1:
		text, err := driver.ReadFile(args[0])
		if err != nil {
			return err
		}
		src = driver.Source{Text: text, File: args[0]}
	default:
		return fmt.Errorf("either provide a file path or use --eval for inline code")
	}

	stage := resolveStage()
	res, err := driver.Run(cfg, src, stage)
	if err != nil {
		if res != nil && len(res.ParseErrors) > 0 {
			for _, e := range res.ParseErrors {
				fmt.Fprintln(os.Stderr, e)
			}
		} else if res != nil && res.Diagnostics != nil && res.Diagnostics.HasErrors() {
			fmt.Fprint(os.Stderr, driver.FormatDiagnostics(res.Diagnostics, src, true))
			fmt.Fprintln(os.Stderr)
		}
		return err
	}

	if flagPrintAST {
		fmt.Println(res.ASTDump)
	}
	if flagPrintAnalyzedAST {
		fmt.Println(res.AnalyzedASTDump)
	}
	if flagPrintCode {
		fmt.Println(res.Code)
	}
	if res.Diagnostics != nil && res.Diagnostics.HasErrors() {
		fmt.Fprint(os.Stderr, driver.FormatDiagnostics(res.Diagnostics, src, true))
		return fmt.Errorf("compilation failed with %d error(s)", res.Diagnostics.Count())
	}
	if stage == driver.StageCompileBinary && res.BinaryPath != "" && flagVerbose {
		fmt.Fprintf(os.Stderr, "wrote %s\n", res.BinaryPath)
	}
	return nil
}
