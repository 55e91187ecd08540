package optimizer

import (
	"strconv"
	"strings"
	"time"

	"github.com/orneryd/loomgraph/pkg/algebra"
	"github.com/orneryd/loomgraph/pkg/cache"
	"github.com/orneryd/loomgraph/pkg/filter"
	"github.com/orneryd/loomgraph/pkg/querygraph"
)

// PlanCache memoizes the ordering decision OrderExpressions would make for a
// given pattern shape, so a repeated pattern shape skips the permutation
// search entirely. It wraps the teacher's LRU query cache rather than
// introducing a second cache implementation.
type PlanCache struct {
	inner *cache.QueryCache
}

// NewPlanCache creates a plan cache with the given LRU capacity and entry
// lifetime (0 disables expiration, matching cache.QueryCache's convention).
func NewPlanCache(maxSize int, ttl time.Duration) *PlanCache {
	return &PlanCache{inner: cache.NewQueryCache(maxSize, ttl)}
}

// plan is the cached ordering decision: position i of the arrangement is
// filled by the expression that started at original index src[i], flipped
// (transposed once) if flip[i] is true.
type plan struct {
	src  []int
	flip []bool
}

// Signature builds a cache key for one pattern shape: the alias pairs in
// their original order, each endpoint's label, each expression's operand
// count, transpose count and edge presence, and the sets of filtered and
// bound aliases — every per-pattern input the validity and scoring checks
// consult. Config is not part of the signature (OrderExpressionsCached adds
// it to the cache key); under the same Config, two calls with the same
// signature produce the same ordering decision.
func Signature(qg querygraph.QueryGraph, exps []*algebra.Expression, filters filter.Tree, boundVars map[string]struct{}) string {
	var b strings.Builder

	labelOf := func(alias string) string {
		if n, ok := qg.Node(alias); ok && n.HasLabel() {
			return n.Label
		}
		return ""
	}

	for _, e := range exps {
		b.WriteString(e.Source())
		b.WriteByte(':')
		b.WriteString(labelOf(e.Source()))
		b.WriteByte('>')
		b.WriteString(e.Destination())
		b.WriteByte(':')
		b.WriteString(labelOf(e.Destination()))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(e.OperandCount()))
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(e.TransposeCount()))
		if e.HasEdge() {
			b.WriteByte('e')
		}
		b.WriteByte(',')
	}

	b.WriteByte('|')
	if filters != nil {
		b.WriteString(strings.Join(filters.ReferencedAliases(), ","))
	}

	b.WriteByte('|')
	bound := make([]string, 0, len(boundVars))
	for alias := range boundVars {
		bound = append(bound, alias)
	}
	b.WriteString(strings.Join(bound, ","))

	return b.String()
}

// OrderExpressionsCached behaves like OrderExpressions, but consults pc first
// and records the decision for next time. A nil pc disables caching and
// behaves exactly like OrderExpressions.
func OrderExpressionsCached(qg querygraph.QueryGraph, exps []*algebra.Expression, filters filter.Tree, boundVars map[string]struct{}, cfg Config, pc *PlanCache) {
	if pc == nil {
		OrderExpressions(qg, exps, filters, boundVars, cfg)
		return
	}

	sig := Signature(qg, exps, filters, boundVars)
	if cfg.MaintainTranspose {
		sig += "|maintain-transpose"
	}
	key := pc.inner.Key(sig, nil)

	if cached, ok := pc.inner.Get(key); ok {
		if p, ok := cached.(plan); ok && len(p.src) == len(exps) {
			applyPlan(exps, p)
			return
		}
	}

	original := make([]*algebra.Expression, len(exps))
	copy(original, exps)
	origSrc := make([]string, len(exps))
	for i, e := range exps {
		origSrc[i] = e.Source()
	}

	OrderExpressions(qg, exps, filters, boundVars, cfg)
	pc.inner.Put(key, derivePlan(exps, original, origSrc))
}

// derivePlan reads off, for each final position, which original index ended
// up there (matched by pointer identity, since OrderExpressions only
// reorders and transposes in place, never replacing elements) and whether
// its source endpoint changed from before ordering ran.
func derivePlan(exps []*algebra.Expression, original []*algebra.Expression, origSrc []string) plan {
	p := plan{src: make([]int, len(exps)), flip: make([]bool, len(exps))}
	for i, e := range exps {
		for j, orig := range original {
			if orig == e {
				p.src[i] = j
				p.flip[i] = e.Source() != origSrc[j]
				break
			}
		}
	}
	return p
}

// applyPlan rebuilds exps's order and orientation from a cached plan. exps
// must be in the same original order and orientation the plan was derived
// from (a fresh, unoptimized set of expressions for the same pattern shape).
func applyPlan(exps []*algebra.Expression, p plan) {
	original := make([]*algebra.Expression, len(exps))
	copy(original, exps)

	for i, srcIdx := range p.src {
		e := original[srcIdx]
		if p.flip[i] {
			e.Transpose()
		}
		exps[i] = e
	}
}
