package driver

import (
	"strings"
	"testing"

	"github.com/natc-lang/natc/internal/config"
)

// Each test below exercises one of spec.md §8's end-to-end scenarios
// directly against Run, the same entry point cmd/natc/cmd calls.

func TestScenario1_PrintAST(t *testing.T) {
	cfg := config.Default()
	res, err := Run(cfg, Source{Text: `print "hello world"`, File: "<eval>"}, StageAnalyze)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := `Block{Call{ {String{"hello world", nil}}, Id{"print"} }}`
	if res.ASTDump != want {
		t.Errorf("ASTDump = %q, want %q", res.ASTDump, want)
	}
}

func TestScenario2_PrintAnalyzedAST(t *testing.T) {
	cfg := config.Default()
	res, err := Run(cfg, Source{Text: `print "hello world"`, File: "<eval>"}, StageAnalyze)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Diagnostics.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics.Errors())
	}
	if !strings.Contains(res.AnalyzedASTDump, `type = "stringview"`) {
		t.Errorf("AnalyzedASTDump = %q, want it to contain type = \"stringview\"", res.AnalyzedASTDump)
	}
}

func TestScenario3_LuaGenerator(t *testing.T) {
	cfg := config.Default()
	cfg.Generator = "lua"
	res, err := Run(cfg, Source{Text: `print "hello world"`, File: "<eval>"}, StageCompileCode)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(res.Code, `print("hello world")`) {
		t.Errorf("Code = %q, want it to contain print(\"hello world\")", res.Code)
	}
}

func TestScenario4_BadLiteralSuffix(t *testing.T) {
	cfg := config.Default()
	res, err := Run(cfg, Source{Text: `local a = 1_x`, File: "<eval>"}, StageAnalyze)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Diagnostics.HasErrors() {
		t.Fatalf("expected a diagnostic for an undefined literal suffix")
	}
	found := false
	for _, e := range res.Diagnostics.Errors() {
		if strings.Contains(e.Message, "literal suffix '_x' is undefined") {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostics = %v, want one mentioning literal suffix '_x' is undefined", res.Diagnostics.Errors())
	}
}

func TestScenario5_DefinesVisibleToStaticAssert(t *testing.T) {
	cfg := config.Default()
	cfg.MergeDefine("DEF1")
	cfg.MergeDefine("DEF2")
	cfg.MergeDefine("DEF3=1")
	cfg.MergeDefine(`DEF4='asd'`)

	src := `## staticassert(DEF1==true and DEF2==true and DEF3==1 and DEF4=='asd')`
	res, err := Run(cfg, Source{Text: src, File: "<eval>"}, StageAnalyze)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Diagnostics.HasErrors() {
		t.Errorf("unexpected diagnostics: %v", res.Diagnostics.Errors())
	}
}

func TestScenario6_PolymorphicInstantiationFailure(t *testing.T) {
	cfg := config.Default()
	src := `local function f(x: auto) ## static_error('fail') end
f(1)`
	res, err := Run(cfg, Source{Text: src, File: "<eval>"}, StageAnalyze)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Diagnostics.HasErrors() {
		t.Fatalf("expected a polymorphic instantiation diagnostic")
	}
	found := false
	for _, e := range res.Diagnostics.Errors() {
		if strings.Contains(e.Message, "polymorphic function instantiation") {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostics = %v, want one mentioning polymorphic function instantiation", res.Diagnostics.Errors())
	}
}

func TestReadFile_MissingFile(t *testing.T) {
	_, err := ReadFile("/no/such/file/natc-test-missing.nat")
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if !strings.Contains(err.Error(), "No such file or directory") {
		t.Errorf("err = %q, want it to mention No such file or directory", err.Error())
	}
}

func TestValidateParam(t *testing.T) {
	if err := ValidateParam("DEF1"); err != nil {
		t.Errorf("ValidateParam(DEF1) = %v, want nil", err)
	}
	if err := ValidateParam("1"); err == nil {
		t.Fatal("expected an error for a numeric parameter name")
	} else if !strings.Contains(err.Error(), "failed parsing parameter '1'") {
		t.Errorf("err = %q, want it to mention failed parsing parameter '1'", err.Error())
	}
}
