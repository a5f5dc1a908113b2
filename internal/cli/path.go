package cli

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/grephite/pkg/errors"
	"github.com/matzehuels/grephite/pkg/graph"
	"github.com/matzehuels/grephite/pkg/sim"
)

type pathOpts struct {
	from   int
	format string
	output string
}

// pathCommand creates the path command, which prints the shortest path
// distance from one node to every other node.
func (c *CLI) pathCommand() *cobra.Command {
	var opts pathOpts

	cmd := &cobra.Command{
		Use:   "path [edges]",
		Short: "Compute shortest path distances from a node",
		Long: `Compute shortest path distances from the node labeled --from. Edges without
a weight cost 1; unreachable nodes are shown as ∞.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatTable && opts.format != formatJSON {
				return fmt.Errorf("invalid format: %s (must be %s or %s)", opts.format, formatTable, formatJSON)
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runPath(ctx, cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.from, "from", 0, "label of the source node")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatTable, "output format: table, json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write json output to a file")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

// pathResult is the JSON form of a path search.
type pathResult struct {
	Source    int              `json:"source"`
	Reachable int              `json:"reachable"`
	Distances map[int]*float64 `json:"distances"`
}

func (c *CLI) runPath(ctx context.Context, cmd *cobra.Command, path string, opts pathOpts) error {
	w, g, err := c.loadWorld(path)
	if err != nil {
		return err
	}
	src, ok := g.NodeByLabel(opts.from)
	if !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "no node labeled %d in %s", opts.from, path)
	}

	f, err := searchFrame(ctx, w, src)
	if err != nil {
		return err
	}
	nodes := sortByDistance(f.Nodes)

	if opts.format == formatJSON {
		res := pathResult{Source: opts.from, Distances: make(map[int]*float64, len(nodes))}
		for _, n := range nodes {
			res.Distances[n.Label] = n.Distance
			if n.Reachable {
				res.Reachable++
			}
		}
		return writeJSON(cmd, opts.output, res)
	}

	out := printer{cmd.OutOrStdout()}
	reachable := 0
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		d := 0.0
		if n.Distance != nil {
			d = *n.Distance
			reachable++
		}
		rows = append(rows, []string{fmt.Sprint(n.Label), formatDistance(d, n.Reachable)})
	}
	out.success("Shortest paths from node %s", StyleNumber.Render(fmt.Sprint(opts.from)))
	out.stats(
		fmt.Sprintf("%d nodes", len(nodes)),
		fmt.Sprintf("%d reachable", reachable),
		"max "+formatDistance(f.MaxDistance, true),
	)
	out.table([]string{"Node", "Distance"}, rows)
	return nil
}

// searchFrame requests a search from src and runs the tick that performs it.
func searchFrame(ctx context.Context, w *sim.World, src graph.NodeID) (sim.Frame, error) {
	w.RequestPath(src)
	if rep := w.Tick(ctx, 0); !rep.PathComputed {
		return sim.Frame{}, errors.New(errors.ErrCodeNodeNotFound, "node %d vanished before the search", src)
	}
	return w.View(), nil
}

// sortByDistance orders reachable nodes by distance, then unreachable ones,
// breaking ties by label.
func sortByDistance(nodes []sim.NodeView) []sim.NodeView {
	nodes = slices.Clone(nodes)
	slices.SortStableFunc(nodes, func(a, b sim.NodeView) int {
		switch {
		case a.Reachable != b.Reachable:
			if a.Reachable {
				return -1
			}
			return 1
		case a.Reachable:
			if c := cmp.Compare(*a.Distance, *b.Distance); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return nodes
}
