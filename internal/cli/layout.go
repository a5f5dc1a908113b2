package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/grephite/pkg/layout"
	"github.com/matzehuels/grephite/pkg/sim"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// layoutOpts holds the command-line flags for the layout command.
type layoutOpts struct {
	ticks   int     // layout iterations to run
	format  string  // "table" or "json"
	output  string  // output file for json (stdout when empty)
	gravity float64 // overrides [layout] gravity when >= 0
	bucket  bool    // use the grid approximation for repulsion
}

// layoutCommand creates the layout command, which runs the force-directed
// layout headless and prints the final positions.
func (c *CLI) layoutCommand() *cobra.Command {
	opts := layoutOpts{ticks: defaultTicks, format: formatTable, gravity: -1}

	cmd := &cobra.Command{
		Use:   "layout [edges]",
		Short: "Run the force-directed layout on an edge list",
		Long: `Run the force-directed layout for a number of ticks and print the final
node positions. The edge list holds one "from to [weight]" triple per line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatTable && opts.format != formatJSON {
				return fmt.Errorf("invalid format: %s (must be %s or %s)", opts.format, formatTable, formatJSON)
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runLayout(ctx, cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.ticks, "ticks", "n", opts.ticks, "number of layout ticks")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: table, json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write json output to a file")
	cmd.Flags().Float64Var(&opts.gravity, "gravity", opts.gravity, "gravity constant (default from config)")
	cmd.Flags().BoolVar(&opts.bucket, "bucketed", false, "approximate repulsion with a spatial grid")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, cmd *cobra.Command, path string, opts layoutOpts) error {
	w, _, err := c.loadWorld(path)
	if err != nil {
		return err
	}
	p := w.LayoutParams()
	p.Enabled = true
	if opts.gravity >= 0 {
		p.Gravity = opts.gravity
	}
	if opts.bucket {
		p.Bucketed = true
	}
	c.cfg.Layout = p
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	w.SetLayoutParams(p)

	last, err := c.simulate(ctx, cmd, w, opts.ticks)
	if err != nil {
		return err
	}
	f := w.View()

	if opts.format == formatJSON {
		return writeJSON(cmd, opts.output, f)
	}

	out := printer{cmd.OutOrStdout()}
	out.success("Laid out %s", path)
	out.stats(
		fmt.Sprintf("%d nodes", len(f.Nodes)),
		fmt.Sprintf("%d edges", len(f.Edges)),
		fmt.Sprintf("%d ticks", f.Tick),
		"speed "+formatFloat(last.GlobalSpeed),
	)
	rows := make([][]string, 0, len(f.Nodes))
	for _, n := range f.Nodes {
		rows = append(rows, []string{fmt.Sprint(n.Label), formatFloat(n.Pos.X), formatFloat(n.Pos.Y)})
	}
	out.table([]string{"Node", "X", "Y"}, rows)
	return nil
}

// simulate runs ticks iterations of w at the configured tick rate and returns
// the layout stats of the last one. A spinner is shown on interactive
// terminals.
func (c *CLI) simulate(ctx context.Context, cmd *cobra.Command, w *sim.World, ticks int) (layout.Stats, error) {
	prog := newProgress(loggerFromContext(ctx))
	dt := time.Second / time.Duration(c.cfg.Server.TickRate)

	var spin *Spinner
	if f, ok := cmd.ErrOrStderr().(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		spin = newSpinner(ctx, f, "Running layout...")
		spin.Start()
		defer spin.Stop()
	}

	var last layout.Stats
	for i := range ticks {
		if err := ctx.Err(); err != nil {
			return last, err
		}
		last = w.Tick(ctx, dt).Layout
		if spin != nil && i%50 == 0 {
			spin.Update(fmt.Sprintf("Running layout... tick %d/%d", i, ticks))
		}
	}
	prog.done("Layout finished", "ticks", ticks, "speed", last.GlobalSpeed)
	return last, nil
}

// writeJSON encodes v as indented JSON to path, or to the command output
// when path is empty.
func writeJSON(cmd *cobra.Command, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	printer{cmd.ErrOrStderr()}.file(path)
	return nil
}
