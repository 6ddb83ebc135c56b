package analyzer

import "github.com/natc-lang/natc/internal/ast"

// markNeedProcess implements spec.md §4.D step 1: it walks n's subtree
// and sets AttrNeedProcess on every Block (at any nesting depth) whose
// subtree transitively contains a preprocess directive, propagating the
// mark up through Block ancestors so an outer block's generated code
// can see symbols a nested block's preprocessing defines for later
// siblings.
func markNeedProcess(n ast.Node) bool {
	if n == nil {
		return false
	}
	found := false
	switch n.Tag() {
	case ast.TagPreprocess, ast.TagPreprocessExpr, ast.TagPreprocessName:
		found = true
	}
	for _, c := range n.Children() {
		if markNeedProcess(c) {
			found = true
		}
	}
	if blk, ok := n.(*ast.Block); ok && found {
		blk.SetAttr(ast.AttrNeedProcess, true)
	}
	return found
}
