// Package main provides the loomgraphd CLI entry point: a thin driver that
// wires storage, the thread pool manager, the traversal-order optimizer, and
// the variable-length traversal operator together for ad hoc inspection.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orneryd/loomgraph/pkg/algebra"
	"github.com/orneryd/loomgraph/pkg/config"
	"github.com/orneryd/loomgraph/pkg/operator"
	"github.com/orneryd/loomgraph/pkg/optimizer"
	"github.com/orneryd/loomgraph/pkg/querygraph"
	"github.com/orneryd/loomgraph/pkg/record"
	"github.com/orneryd/loomgraph/pkg/storage"
	"github.com/orneryd/loomgraph/pkg/threadpool"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "loomgraphd",
		Short: "loomgraphd - traversal-order optimizer and variable-length traversal engine",
		Long: `loomgraphd hosts the traversal-order optimizer, the conditional
variable-length traversal operator, and the reader/writer/bulk-loader thread
pool manager for an embedded property-graph query engine.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("loomgraphd v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newTraverseCmd())
	rootCmd.AddCommand(newPoolStatusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newPlanCmd demonstrates the traversal-order optimizer on a small, built-in
// three-node pattern, printing the arrangement before and after ordering.
func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Order a sample set of algebraic expressions and print the result",
		Run: func(cmd *cobra.Command, args []string) {
			qg := querygraph.NewGraph()
			qg.AddNode(querygraph.Node{Alias: "a", Label: "Person"})
			qg.AddNode(querygraph.Node{Alias: "b", Label: ""})
			qg.AddNode(querygraph.Node{Alias: "c", Label: "Company"})

			exps := []*algebra.Expression{
				algebra.New("b", "a", "KNOWS", 1),
				algebra.New("b", "c", "WORKS_AT", 1),
			}

			fmt.Println("before:")
			for _, e := range exps {
				fmt.Printf("  %s\n", e)
			}

			cfg := optimizer.Config{}
			optimizer.OrderExpressions(qg, exps, nil, nil, cfg)

			fmt.Println("after:")
			for _, e := range exps {
				fmt.Printf("  %s\n", e)
			}
		},
	}
}

// newTraverseCmd builds a tiny in-memory graph, binds a source record, and
// streams every path the conditional variable-length traversal operator
// enumerates from it.
func newTraverseCmd() *cobra.Command {
	var maxHops int
	cmd := &cobra.Command{
		Use:   "traverse",
		Short: "Run the variable-length traversal operator over a built-in sample graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := storage.NewMemoryEngine()
			defer engine.Close()

			nodes := []*storage.Node{
				{ID: "alice", Labels: []string{"Person"}, Properties: map[string]any{"name": "Alice"}},
				{ID: "bob", Labels: []string{"Person"}, Properties: map[string]any{"name": "Bob"}},
				{ID: "carol", Labels: []string{"Person"}, Properties: map[string]any{"name": "Carol"}},
			}
			for _, n := range nodes {
				if err := engine.CreateNode(n); err != nil {
					return err
				}
			}
			edges := []*storage.Edge{
				{ID: "e1", StartNode: "alice", EndNode: "bob", Type: "FOLLOWS", Properties: map[string]any{}},
				{ID: "e2", StartNode: "bob", EndNode: "carol", Type: "FOLLOWS", Properties: map[string]any{}},
			}
			for _, e := range edges {
				if err := engine.CreateEdge(e); err != nil {
					return err
				}
			}

			qe := querygraph.NewEdge("e", "a", "b", 1, maxHops, "FOLLOWS")
			plan := operator.NewPlanContext()
			plan.Bind("a", 0)
			op, err := operator.Create(plan, engine, engine.GetSchema(), qe, false, false)
			if err != nil {
				return err
			}

			seed := record.New(2)
			seed.SetNode(0, &storage.Node{ID: "alice"})
			op.SetChild(&oneShotChild{r: seed})
			defer op.Free()

			for {
				out, err := op.Consume()
				if err != nil {
					return err
				}
				if out == nil {
					break
				}
				dst := out.Node(1)
				fmt.Printf("alice ->* %s\n", dst.ID)
				record.Release(out)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxHops, "max-hops", 2, "maximum traversal hop count")
	return cmd
}

// oneShotChild yields a single fixed record, then nil, standing in for an
// upstream scan operator that has already produced the source binding.
type oneShotChild struct {
	r    *record.Record
	used bool
}

func (c *oneShotChild) Consume() *record.Record {
	if c.used {
		return nil
	}
	c.used = true
	return c.r
}

// newPoolStatusCmd starts the thread pool manager from LOOMGRAPH_-prefixed
// environment configuration and reports its shape, then shuts it down.
func newPoolStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pool-status",
		Short: "Start the process-wide thread pool manager from environment config and print its shape",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadFromEnv()

			var maxQueued *int
			if cfg.Memory.MaxQueuedQueries > 0 {
				maxQueued = &cfg.Memory.MaxQueuedQueries
			}

			mgr, err := threadpool.Init(threadpool.Config{
				ReaderCount:      4,
				WriterCount:      1,
				BulkCount:        1,
				MaxQueuedQueries: maxQueued,
			})
			if err != nil {
				return err
			}
			defer mgr.Close()

			fmt.Printf("reader+writer threads: %d\n", mgr.ThreadCount())
			fmt.Printf("maintain transpose: %v\n", cfg.Memory.MaintainTranspose)

			return mgr.AddWorkReader(func(ctx context.Context) {
				fmt.Printf("sample job ran on thread id %d\n", threadpool.ThreadID(ctx))
			})
		},
	}
}

