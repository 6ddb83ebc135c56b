package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/maruel/natural"
	"github.com/natc-lang/natc/internal/ast"
	"github.com/natc-lang/natc/internal/driverparse"
	"github.com/natc-lang/natc/internal/registry"
)

// SearchPathLoader implements analyzer.Loader (spec.md §4.G "require"):
// it resolves a module name against the `--path`/`-L` search path
// (spec.md §6), parsing whichever candidate is found first.
//
// Each search path entry is either a bare directory (module name is
// joined as "<dir>/<name>.natc") or a `?`-pattern, where `?` is
// substituted with the module name (mirroring the classic Lua
// `package.path` convention the teacher's module-loading code imitates
// in spirit, if not in source).
type SearchPathLoader struct {
	Paths   []string
	BaseDir string // directory of the requesting source file, always searched first
	reg     *registry.Registry
	cache   map[string]*ast.Program
}

// NewSearchPathLoader creates a loader over paths, additionally
// searching the directory containing sourceFile before any configured
// path entry.
func NewSearchPathLoader(paths []string, sourceFile string) *SearchPathLoader {
	base := "."
	if sourceFile != "" && sourceFile != "<eval>" {
		base = filepath.Dir(sourceFile)
	}
	return &SearchPathLoader{
		Paths:   paths,
		BaseDir: base,
		reg:     registry.New(),
		cache:   make(map[string]*ast.Program),
	}
}

// Load resolves name to a file, parses it, and returns the program. A
// module loaded twice (possible if two different `require` call sites
// reference the same path before spec.md §8 invariant 5's dedup kicks
// in at the analyzer level) is parsed once and cached.
func (l *SearchPathLoader) Load(name string) (*ast.Program, error) {
	if prog, ok := l.cache[name]; ok {
		return prog, nil
	}
	path, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("require %q: %w", name, err)
	}
	p := driverparse.New(l.reg, string(data))
	prog, err := p.Parse()
	if err != nil {
		return nil, fmt.Errorf("require %q: %w", name, err)
	}
	l.cache[name] = prog
	return prog, nil
}

// resolve finds the on-disk file backing a `require` name: the
// requesting file's own directory first, then each configured search
// path entry in order. When a directory entry yields more than one
// plausible candidate file (e.g. case variants on a case-insensitive
// filesystem), candidates are naturally sorted so resolution is
// deterministic across runs (spec.md §8 invariant 1).
func (l *SearchPathLoader) resolve(name string) (string, error) {
	candidates := []string{filepath.Join(l.BaseDir, name+".natc")}
	for _, entry := range l.Paths {
		if strings.Contains(entry, "?") {
			candidates = append(candidates, strings.ReplaceAll(entry, "?", name))
		} else {
			candidates = append(candidates, filepath.Join(entry, name+".natc"))
		}
	}
	natural.Sort(candidates)
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("module %q not found on search path", name)
}

// ValidateSearchPath checks a `--path`/`-L` argument per spec.md §6: a
// bare directory that doesn't exist raises "... is not a valid
// directory"; a `?`-pattern is accepted without existence checking
// since it names a file template, not a directory.
func ValidateSearchPath(entry string) error {
	if strings.Contains(entry, "?") {
		return nil
	}
	info, err := os.Stat(entry)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a valid directory", entry)
	}
	return nil
}
