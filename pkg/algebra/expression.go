// Package algebra provides the AlgebraicExpression type: an opaque
// description of one traversal step in a pattern match, built from
// labeled-adjacency matrix operands and an optional transpose operator. The
// optimizer reorders a slice of these; the variable-length operator evaluates
// exactly one.
//
// This package deliberately does not model the matrix operand chain itself
// (that is the out-of-scope "algebraic-expression matrix operand semantics"
// collaborator) — it models only the facts the optimizer and operator need:
// stable endpoint aliases, an operand count, and a transpose count.
package algebra

import "fmt"

// Expression is a single algebraic expression: one edge (or label scan) of a
// pattern match, addressed by its source/destination/edge aliases.
//
// Two Expressions are equal only by identity (pointer equality); there is no
// value-equality notion, matching the source's by-reference AE semantics.
// Ownership is exclusive — once handed to an operator via Create, only that
// operator mutates it, and Clone must be used before handing a logically
// equivalent expression to a second operator.
type Expression struct {
	src        string
	dst        string
	edge       string // empty if this expression carries no edge alias (pure label scan)
	operands   int    // number of matrix operands chained in this expression; always >= 1
	transposes int    // number of Transpose operations applied since construction
}

// New constructs an Expression. edge may be "" for a pure label scan.
// operands must be >= 1.
func New(src, dst, edge string, operands int) *Expression {
	if operands < 1 {
		operands = 1
	}
	return &Expression{src: src, dst: dst, edge: edge, operands: operands}
}

// Source returns the source alias.
func (e *Expression) Source() string { return e.src }

// Destination returns the destination alias.
func (e *Expression) Destination() string { return e.dst }

// Edge returns the edge alias, or "" if this expression carries no edge
// (a pure label scan).
func (e *Expression) Edge() string { return e.edge }

// HasEdge reports whether this expression has an edge alias.
func (e *Expression) HasEdge() bool { return e.edge != "" }

// OperandCount returns the number of matrix operands chained in this
// expression.
func (e *Expression) OperandCount() int { return e.operands }

// TransposeCount returns how many Transpose operations have been applied
// since construction (operations may cancel algebraically, but this package
// tracks the operation count literally, matching the source's
// AlgebraicExpression_OperationCount(exp, AL_EXP_TRANSPOSE)).
func (e *Expression) TransposeCount() int { return e.transposes }

// IsSelfLoop reports whether src and dst are the same alias.
func (e *Expression) IsSelfLoop() bool { return e.src == e.dst }

// Transpose logically swaps src and dst and flips the operand chain,
// reversing the direction this expression evaluates a traversal in.
func (e *Expression) Transpose() {
	e.src, e.dst = e.dst, e.src
	e.transposes++
}

// Clone returns a deep, independent copy suitable for handing to a second
// operator.
func (e *Expression) Clone() *Expression {
	clone := *e
	return &clone
}

// String renders the expression for diagnostics. It never mutates the
// expression — optimization (reordering, transposition) is a distinct step
// the planner performs before rendering, not a side effect of display.
func (e *Expression) String() string {
	if e.edge != "" {
		return fmt.Sprintf("%s -(%s)-> %s", e.src, e.edge, e.dst)
	}
	return fmt.Sprintf("%s -> %s", e.src, e.dst)
}
