package driver

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/natc-lang/natc/internal/config"
)

// Toolchain wraps invocation of the external C compiler/linker
// (spec.md §1 "explicitly out of scope... invocation of the external C
// compiler and linker", §4.H) — the core only produces C text in
// memory; everything past that is this thin collaborator.
type Toolchain struct {
	cc string
}

// NewToolchain resolves the compiler executable from cfg.CC, defaulting
// to "cc" the way every C-emitting pipeline in the pack's ambient
// tooling does.
func NewToolchain(cfg *config.Config) *Toolchain {
	cc := cfg.CC
	if cc == "" {
		cc = "cc"
	}
	return &Toolchain{cc: cc}
}

// Info runs `cc --version` to confirm the configured compiler exists
// and is invocable, translating any failure into spec.md §6's exact
// error text.
func (t *Toolchain) Info() (string, error) {
	out, err := exec.Command(t.cc, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to retrieve compiler information")
	}
	return string(out), nil
}

// Identity returns a string distinguishing this toolchain configuration
// for cache-key purposes: the executable path plus its reported version
// text, so a compiler upgrade invalidates stale cache entries.
func (t *Toolchain) Identity() string {
	info, err := t.Info()
	if err != nil {
		return t.cc
	}
	return t.cc + "\x00" + info
}

// Build writes code to a temporary .c file under cfg.CacheDir and
// invokes the compiler once to compile and link it into cfg.Output (or
// a.out), adding -shared -fPIC for cfg.Shared or -static for cfg.Static
// and forwarding cfg.CFlags/cfg.LDFlags verbatim (spec.md §6). No
// separate object file is produced: objectPath is the generated .c
// file's path.
func (t *Toolchain) Build(code string, cfg *config.Config) (objectPath, binaryPath string, err error) {
	workDir := cfg.CacheDir
	if workDir == "" {
		workDir = "."
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", "", fmt.Errorf("driver: creating work dir: %w", err)
	}

	srcPath := filepath.Join(workDir, "natc_out.c")
	if err := os.WriteFile(srcPath, []byte(code), 0o644); err != nil {
		return "", "", fmt.Errorf("driver: writing generated C: %w", err)
	}

	output := cfg.Output
	if output == "" {
		output = filepath.Join(workDir, "a.out")
	}

	args := append([]string{srcPath, "-o", output}, cfg.CFlags...)
	switch {
	case cfg.Shared:
		args = append(args, "-shared", "-fPIC")
	case cfg.Static:
		args = append(args, "-static")
	}
	for _, lib := range cfg.LDFlags {
		args = append(args, lib)
	}

	cmd := exec.Command(t.cc, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", "", fmt.Errorf("external compiler failed: %w\n%s", err, out)
	}
	return srcPath, output, nil
}
