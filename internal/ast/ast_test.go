package ast_test

import (
	"testing"

	"github.com/natc-lang/natc/internal/ast"
	"github.com/natc-lang/natc/internal/lexer"
	"github.com/natc-lang/natc/internal/registry"
)

func TestConstructorsRegisterHandles(t *testing.T) {
	reg := registry.New()
	id := ast.NewId(reg, lexer.Position{Line: 1}, "x")
	lit := ast.NewIntLiteral(reg, lexer.Position{Line: 1}, 42, "42")

	if id.Handle() == lit.Handle() {
		t.Fatal("expected distinct handles for distinct nodes")
	}
	if reg.Lookup(id.Handle()) != ast.Node(id) {
		t.Fatal("registry lookup must return the same node that was registered")
	}
}

func TestBinaryExprChildren(t *testing.T) {
	reg := registry.New()
	left := ast.NewIntLiteral(reg, lexer.Position{}, 1, "1")
	right := ast.NewIntLiteral(reg, lexer.Position{}, 2, "2")
	bin := ast.NewBinaryExpr(reg, lexer.Position{}, "+", left, right)

	children := bin.Children()
	if len(children) != 2 || children[0] != ast.Node(left) || children[1] != ast.Node(right) {
		t.Fatalf("expected [left, right], got %v", children)
	}
}

func TestCallChildrenIncludesCallee(t *testing.T) {
	reg := registry.New()
	callee := ast.NewId(reg, lexer.Position{}, "print")
	arg := ast.NewStringLiteral(reg, lexer.Position{}, "hi")
	call := ast.NewCall(reg, lexer.Position{}, callee, []ast.Expression{arg})

	children := call.Children()
	if len(children) != 2 {
		t.Fatalf("expected 2 children (callee + 1 arg), got %d", len(children))
	}
	if children[0] != ast.Node(callee) {
		t.Fatal("expected callee first")
	}
}

func TestAttrSetAndGet(t *testing.T) {
	reg := registry.New()
	id := ast.NewId(reg, lexer.Position{}, "x")
	id.SetAttr(ast.AttrComptime, true)

	if !id.Attrs().Bool(ast.AttrComptime) {
		t.Fatal("expected comptime attribute to be set")
	}
	if v, ok := ast.GetType(id); ok || v != nil {
		t.Fatal("expected no type set yet")
	}
	ast.SetType(id, "int32")
	v, ok := ast.GetType(id)
	if !ok || v != "int32" {
		t.Fatalf("expected type int32, got %v, %v", v, ok)
	}
}

func TestCloneProducesFreshHandlesAndDeepCopiesChildren(t *testing.T) {
	reg := registry.New()
	left := ast.NewIntLiteral(reg, lexer.Position{}, 1, "1")
	right := ast.NewIntLiteral(reg, lexer.Position{}, 2, "2")
	bin := ast.NewBinaryExpr(reg, lexer.Position{}, "+", left, right)
	bin.SetAttr(ast.AttrType, "int32")

	clone := bin.Clone(reg).(*ast.BinaryExpr)

	if clone.Handle() == bin.Handle() {
		t.Fatal("clone must receive a fresh registry handle")
	}
	if clone.Left.Handle() == bin.Left.Handle() {
		t.Fatal("clone must deep-copy children with their own fresh handles")
	}
	if v, ok := ast.GetType(clone); !ok || v != "int32" {
		t.Fatal("clone must copy attributes")
	}
	// Mutating the clone's attrs must not affect the original.
	clone.SetAttr(ast.AttrType, "float64")
	if v, _ := ast.GetType(bin); v != "int32" {
		t.Fatal("attribute clone must be independent of the source")
	}
}

func TestBlockNeedProcess(t *testing.T) {
	reg := registry.New()
	blk := ast.NewBlock(reg, lexer.Position{}, nil)
	if blk.NeedProcess() {
		t.Fatal("expected NeedProcess to default to false")
	}
	blk.SetAttr(ast.AttrNeedProcess, true)
	if !blk.NeedProcess() {
		t.Fatal("expected NeedProcess to reflect the attribute")
	}
}

func TestRequireAlreadyRequired(t *testing.T) {
	reg := registry.New()
	req := ast.NewRequire(reg, lexer.Position{}, "mymodule")
	if req.AlreadyRequired() {
		t.Fatal("expected AlreadyRequired to default to false")
	}
	req.SetAttr(ast.AttrAlreadyRequired, true)
	if !req.AlreadyRequired() {
		t.Fatal("expected AlreadyRequired to reflect the attribute")
	}
}

func TestProgramClonePreservesStatementCount(t *testing.T) {
	reg := registry.New()
	v := ast.NewVarDecl(reg, lexer.Position{}, "x", "int32", ast.NewIntLiteral(reg, lexer.Position{}, 1, "1"), false)
	prog := ast.NewProgram(reg, lexer.Position{}, []ast.Statement{v})

	clone := prog.Clone(reg).(*ast.Program)
	if len(clone.Statements) != 1 {
		t.Fatalf("expected 1 statement in clone, got %d", len(clone.Statements))
	}
	if clone.Statements[0].Handle() == prog.Statements[0].Handle() {
		t.Fatal("cloned statement must have a fresh handle")
	}
}
