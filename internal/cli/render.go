package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/grephite/pkg/cache"
	"github.com/matzehuels/grephite/pkg/errors"
	"github.com/matzehuels/grephite/pkg/render"
)

const (
	formatSVG = "svg"
	formatPNG = "png"
	formatDOT = "dot"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string  // output file; defaults to the edge list name with the format extension
	format  string  // svg, png or dot
	ticks   int     // layout ticks before rendering
	from    int     // path source label, -1 for none
	script  string  // optional script run to completion before rendering
	colors  string  // auto, map or distance
	labels  bool    // draw node labels
	weights bool    // draw edge weights
	scale   float64 // layout units to points
	noCache bool    // bypass the render cache
}

// renderCommand creates the render command for generating images of a laid
// out graph.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{
		format: formatSVG,
		ticks:  defaultTicks,
		from:   -1,
		colors: "auto",
		labels: true,
		scale:  render.DefaultScale,
	}

	cmd := &cobra.Command{
		Use:   "render [edges]",
		Short: "Render a laid out graph to SVG, PNG or DOT",
		Long: `Run the layout, optionally a path search and a script, then render the
resulting frame with Graphviz. Node colors come from the script color map, or
from a distance gradient when --from is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := parseColorMode(opts.colors)
			if err != nil {
				return err
			}
			if err := validateFormat(opts.format); err != nil {
				return err
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runRender(ctx, cmd, args[0], mode, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), png, dot")
	cmd.Flags().IntVarP(&opts.ticks, "ticks", "n", opts.ticks, "layout ticks before rendering")
	cmd.Flags().IntVar(&opts.from, "from", opts.from, "color by shortest path distance from this node label")
	cmd.Flags().StringVarP(&opts.script, "script", "s", "", "run a Lua script to completion before rendering")
	cmd.Flags().StringVar(&opts.colors, "colors", opts.colors, "node colors: auto, map, distance")
	cmd.Flags().BoolVar(&opts.labels, "labels", opts.labels, "draw node labels")
	cmd.Flags().BoolVar(&opts.weights, "weights", false, "draw edge weights")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "layout units per point")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "render even when a cached result exists")

	return cmd
}

func parseColorMode(s string) (render.ColorMode, error) {
	switch s {
	case "auto", "":
		return render.ColorAuto, nil
	case "map":
		return render.ColorMap, nil
	case "distance":
		return render.ColorDistance, nil
	}
	return 0, fmt.Errorf("invalid colors: %s (must be auto, map or distance)", s)
}

func validateFormat(f string) error {
	switch f {
	case formatSVG, formatPNG, formatDOT:
		return nil
	}
	return fmt.Errorf("invalid format: %s (must be %s, %s or %s)", f, formatSVG, formatPNG, formatDOT)
}

func (c *CLI) runRender(ctx context.Context, cmd *cobra.Command, edges string, mode render.ColorMode, opts renderOpts) error {
	w, g, err := c.loadWorld(edges)
	if err != nil {
		return err
	}
	w.SetPhysics(true)
	if _, err := c.simulate(ctx, cmd, w, opts.ticks); err != nil {
		return err
	}
	w.SetPhysics(false)

	if opts.script != "" {
		name, src, err := readScript(opts.script)
		if err != nil {
			return err
		}
		if err := w.LoadScript(ctx, name, src); err != nil {
			return err
		}
		if _, err := stepToEnd(ctx, w, defaultMaxSteps); err != nil {
			return err
		}
	}

	f := w.View()
	if opts.from >= 0 {
		src, ok := g.NodeByLabel(opts.from)
		if !ok {
			return errors.New(errors.ErrCodeNodeNotFound, "no node labeled %d in %s", opts.from, edges)
		}
		if f, err = searchFrame(ctx, w, src); err != nil {
			return err
		}
	}

	dot := render.ToDOT(f, render.Options{
		Labels:  opts.labels,
		Weights: opts.weights,
		Mode:    mode,
		Scale:   opts.scale,
	})

	var data []byte
	switch opts.format {
	case formatDOT:
		data = []byte(dot)
	default:
		rc := c.renderCache(opts.noCache)
		defer rc.Close()
		data, err = c.cachedRender(ctx, rc, cache.Key("render", opts.format, dot), func() ([]byte, error) {
			if opts.format == formatPNG {
				return render.RenderPNG(ctx, dot)
			}
			return render.RenderSVG(ctx, dot)
		})
		if err != nil {
			return err
		}
	}

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(edges, filepath.Ext(edges)) + "." + opts.format
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	p := printer{cmd.OutOrStdout()}
	p.success("Rendered %d nodes", len(f.Nodes))
	p.file(out)
	return nil
}
