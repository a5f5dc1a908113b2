package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/grephite/pkg/errors"
	"github.com/matzehuels/grephite/pkg/script"
	"github.com/matzehuels/grephite/pkg/sim"
)

const defaultMaxSteps = 100_000

type runOpts struct {
	maxSteps int
	physics  bool
	from     int
	all      bool
}

// runCommand creates the run command, which steps a Lua script to completion
// without a viewer and prints the colors it assigned.
func (c *CLI) runCommand() *cobra.Command {
	opts := runOpts{maxSteps: defaultMaxSteps, from: -1}

	cmd := &cobra.Command{
		Use:   "run [edges] [script]",
		Short: "Run a Lua script over a graph headless",
		Long: `Run a Lua script over a graph, one coroutine step per tick, until it
finishes or fails. Commands emitted by each step are applied in the same tick.
The final node colors are printed afterwards.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runScript(ctx, cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().IntVar(&opts.maxSteps, "max-steps", opts.maxSteps, "stop after this many steps")
	cmd.Flags().BoolVar(&opts.physics, "physics", false, "run the layout while stepping")
	cmd.Flags().IntVar(&opts.from, "from", opts.from, "also compute shortest paths from this node label")
	cmd.Flags().BoolVar(&opts.all, "all", false, "list nodes that kept the default color")

	return cmd
}

// readScript reads a script file and returns its base name and source.
func readScript(path string) (string, string, error) {
	if err := errors.ValidatePath(path); err != nil {
		return "", "", err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", errors.Wrap(errors.ErrCodeFileNotFound, err, "script %s", path)
		}
		return "", "", err
	}
	return filepath.Base(path), string(src), nil
}

// scriptRun summarizes a headless run.
type scriptRun struct {
	steps    int
	commands int
	state    script.State
}

func (c *CLI) runScript(ctx context.Context, cmd *cobra.Command, edges, path string, opts runOpts) error {
	name, src, err := readScript(path)
	if err != nil {
		return err
	}
	w, g, err := c.loadWorld(edges)
	if err != nil {
		return err
	}
	w.SetPhysics(opts.physics)
	if opts.from >= 0 {
		id, ok := g.NodeByLabel(opts.from)
		if !ok {
			return errors.New(errors.ErrCodeNodeNotFound, "no node labeled %d in %s", opts.from, edges)
		}
		w.RequestPath(id)
	}
	if err := w.LoadScript(ctx, name, src); err != nil {
		return err
	}

	prog := newProgress(loggerFromContext(ctx))
	res, err := stepToEnd(ctx, w, opts.maxSteps)
	if err != nil {
		return err
	}
	prog.done("Script finished", "script", name, "steps", res.steps)

	out := printer{cmd.OutOrStdout()}
	if res.state != script.Idle {
		out.warning("Stopped after %d steps with the script still %s", res.steps, res.state)
	} else {
		out.success("Ran %s", name)
	}
	out.stats(
		fmt.Sprintf("%d steps", res.steps),
		fmt.Sprintf("%d commands", res.commands),
	)

	f := w.View()
	def := c.cfg.Colors.Default
	rows := make([][]string, 0, len(f.Nodes))
	for _, n := range f.Nodes {
		if n.Color == def && !opts.all {
			continue
		}
		row := []string{fmt.Sprint(n.Label), swatch(n.Color)}
		if f.HasPath {
			d := 0.0
			if n.Distance != nil {
				d = *n.Distance
			}
			row = append(row, formatDistance(d, n.Reachable))
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		out.info("No node colors changed")
		return nil
	}
	headers := []string{"Node", "Color"}
	if f.HasPath {
		headers = append(headers, "Distance")
	}
	out.table(headers, rows)
	return nil
}

// stepToEnd requests one step per tick until the session ends or maxSteps
// is reached. A script fault is returned as the error.
func stepToEnd(ctx context.Context, w *sim.World, maxSteps int) (scriptRun, error) {
	var res scriptRun
	for res.steps < maxSteps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		w.RequestStep()
		rep := w.Tick(ctx, 0)
		res.commands += rep.Applied
		if rep.ScriptErr != nil {
			return res, rep.ScriptErr
		}
		if rep.ScriptState == script.Idle {
			break
		}
		res.steps++
	}
	res.state = w.Scripts().State()
	return res, nil
}
