// Package optimizer implements the traversal-order optimizer: given a set of
// algebraic expressions describing one pattern match, it reorders them into
// a scored-optimal, valid evaluation sequence and transposes expressions so
// that every expression's source is resolved by an earlier one, then chooses
// the best entry point.
package optimizer

import (
	"github.com/orneryd/loomgraph/pkg/algebra"
	"github.com/orneryd/loomgraph/pkg/filter"
	"github.com/orneryd/loomgraph/pkg/querygraph"
)

// Scoring weights: transpose penalty, label reward, filter reward, and
// bound-variable reward. Bound-variable dominates filter dominates label.
const (
	weightTranspose = 1
	weightLabel     = 2 * weightTranspose
	weightFilter    = 4 * weightTranspose
	weightBound     = 8 * weightFilter
)

// Config carries the optimizer's single external tunable.
type Config struct {
	// MaintainTranspose, when true, means the storage engine keeps
	// materialized transpose matrices so the transpose penalty is always
	// zero and ordering is chosen purely on reward.
	MaintainTranspose bool
}

// OrderExpressions mutates exps in place into a scored-optimal valid
// arrangement, resolves sources left-to-right via transposition, and selects
// the best entry point. Callers must guarantee len(exps) >= 1; bound_vars and
// the filter tree are caller-owned temporaries not retained past return.
func OrderExpressions(qg querygraph.QueryGraph, exps []*algebra.Expression, filters filter.Tree, boundVars map[string]struct{}, cfg Config) {
	n := len(exps)
	if n == 0 {
		return
	}

	// Fast path: a single expression representing a plain scan rather than a
	// traversal, e.g. MATCH (n:L) RETURN n.
	if n == 1 && exps[0].OperandCount() == 1 && exps[0].Source() == exps[0].Destination() {
		return
	}

	filteredEntities := make(map[string]struct{})
	if filters != nil {
		for _, alias := range filters.ReferencedAliases() {
			filteredEntities[alias] = struct{}{}
		}
	}

	if n > 1 {
		best := bestArrangement(qg, exps, filteredEntities, boundVars, cfg)
		copy(exps, best)
		resolveWinningSequence(exps)
	}

	selectEntryPoint(qg, exps, filteredEntities, boundVars)
}

// bestArrangement enumerates every permutation of exps, keeps only the valid
// ones (§3), and returns the highest-scoring one. Ties are broken by first
// encountered, matching strict "<" comparison against the running maximum.
func bestArrangement(qg querygraph.QueryGraph, exps []*algebra.Expression, filteredEntities, boundVars map[string]struct{}, cfg Config) []*algebra.Expression {
	n := len(exps)
	work := make([]*algebra.Expression, n)
	copy(work, exps)

	var best []*algebra.Expression
	var maxScore int

	permute(work, 0, func(candidate []*algebra.Expression) {
		if !validArrangement(candidate, qg) {
			return
		}
		score := scoreArrangement(candidate, qg, filteredEntities, boundVars, cfg)
		if best == nil || score > maxScore {
			maxScore = score
			best = append([]*algebra.Expression(nil), candidate...)
		}
	})

	if best == nil {
		// No permutation was valid; this indicates malformed input (the
		// source asserts arrangement_count > 0 after filtering). Fall back to
		// the original order rather than panicking.
		return exps
	}
	return best
}

// permute generates every permutation of set[k:] in place by recursive
// swapping, invoking visit once per complete permutation. This streams
// permutations rather than materializing all n! of them up front.
func permute(set []*algebra.Expression, k int, visit func([]*algebra.Expression)) {
	n := len(set)
	if k == n {
		visit(set)
		return
	}
	for i := k; i < n; i++ {
		set[k], set[i] = set[i], set[k]
		permute(set, k+1, visit)
		set[k], set[i] = set[i], set[k]
	}
}

// validArrangement reports whether every expression past the head has its
// source or destination resolved by some earlier expression, and the head
// isn't a single-operand edge-bearing expression adjacent to a labeled node.
func validArrangement(arrangement []*algebra.Expression, qg querygraph.QueryGraph) bool {
	head := arrangement[0]
	srcNode, _ := qg.Node(head.Source())
	dstNode, _ := qg.Node(head.Destination())
	if (srcNode.HasLabel() || dstNode.HasLabel()) && head.HasEdge() && head.OperandCount() == 1 {
		return false
	}

	for i := 1; i < len(arrangement); i++ {
		exp := arrangement[i]
		resolved := false
		for j := i - 1; j >= 0; j-- {
			prev := arrangement[j]
			if prev.Source() == exp.Source() || prev.Destination() == exp.Source() ||
				prev.Source() == exp.Destination() || prev.Destination() == exp.Destination() {
				resolved = true
				break
			}
		}
		if !resolved {
			return false
		}
	}
	return true
}

func scoreArrangement(arrangement []*algebra.Expression, qg querygraph.QueryGraph, filteredEntities, boundVars map[string]struct{}, cfg Config) int {
	return rewardArrangement(arrangement, qg, filteredEntities, boundVars) - penaltyArrangement(arrangement, cfg)
}

func penaltyArrangement(arrangement []*algebra.Expression, cfg Config) int {
	if cfg.MaintainTranspose {
		return 0
	}

	penalty := arrangement[0].TransposeCount() * weightTranspose

	for i := 1; i < len(arrangement); i++ {
		exp := arrangement[i]
		srcResolved := false
		for j := i - 1; j >= 0; j-- {
			prev := arrangement[j]
			if prev.Source() == exp.Source() || prev.Destination() == exp.Source() {
				srcResolved = true
				break
			}
		}
		if srcResolved {
			penalty += exp.TransposeCount() * weightTranspose
		} else {
			penalty += (exp.OperandCount() - exp.TransposeCount()) * weightTranspose
		}
	}

	return penalty
}

func rewardArrangement(arrangement []*algebra.Expression, qg querygraph.QueryGraph, filteredEntities, boundVars map[string]struct{}) int {
	reward := 0
	n := len(arrangement)
	for i, exp := range arrangement {
		factor := n - i
		reward += rewardExpression(exp, qg, filteredEntities, boundVars, factor)
	}
	return reward
}

func rewardExpression(exp *algebra.Expression, qg querygraph.QueryGraph, filteredEntities, boundVars map[string]struct{}, factor int) int {
	reward := 0
	src, dst := exp.Source(), exp.Destination()

	if boundVars != nil {
		if _, ok := boundVars[src]; ok {
			reward += weightBound * factor
		}
		if _, ok := boundVars[dst]; ok {
			reward += weightBound * factor
		}
	}

	if _, ok := filteredEntities[src]; ok {
		reward += weightFilter * factor
	}
	if _, ok := filteredEntities[dst]; ok {
		reward += weightFilter * factor
	}

	if srcNode, ok := qg.Node(src); ok && srcNode.HasLabel() {
		reward += weightLabel * factor
	}

	return reward
}

// resolveWinningSequence transposes any non-head expression whose source
// isn't yet resolved by an earlier expression, so every non-head expression's
// source is resolvable from a predecessor.
func resolveWinningSequence(exps []*algebra.Expression) {
	for i := 1; i < len(exps); i++ {
		exp := exps[i]
		resolved := false
		for j := i - 1; j >= 0; j-- {
			prev := exps[j]
			if prev.Source() == exp.Source() || prev.Destination() == exp.Source() {
				resolved = true
				break
			}
		}
		if !resolved {
			exp.Transpose()
		}
	}
}

// selectEntryPoint decides whether to transpose the head expression to pick
// a better starting point: a bound variable always wins; absent that,
// filters dominate labels.
func selectEntryPoint(qg querygraph.QueryGraph, exps []*algebra.Expression, filteredEntities, boundVars map[string]struct{}) {
	head := exps[0]
	src, dst := head.Source(), head.Destination()

	if head.OperandCount() == 1 && src == dst {
		return
	}

	if boundVars != nil {
		if _, ok := boundVars[src]; ok {
			return
		}
		if _, ok := boundVars[dst]; ok {
			head.Transpose()
			return
		}
	}

	srcScore, dstScore := 0, 0
	if _, ok := filteredEntities[src]; ok {
		srcScore += weightFilter
	}
	if _, ok := filteredEntities[dst]; ok {
		dstScore += weightFilter
	}
	if srcNode, ok := qg.Node(src); ok && srcNode.HasLabel() {
		srcScore += weightLabel
	}
	if dstNode, ok := qg.Node(dst); ok && dstNode.HasLabel() {
		dstScore += weightLabel
	}

	if dstScore > srcScore {
		head.Transpose()
	}
}
