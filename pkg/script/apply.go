package script

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/grephite/pkg/colormap"
	"github.com/matzehuels/grephite/pkg/graph"
	"github.com/matzehuels/grephite/pkg/observability"
)

// Apply writes cmds into colors in order and returns how many took effect.
//
// Commands for nodes missing from g are ignored. A set_color command with an
// unparsable spec is skipped with one warning on logger. Reset writes the
// map's default color, so applying it twice equals applying it once.
func Apply(ctx context.Context, logger *log.Logger, colors *colormap.Map, g *graph.Graph, cmds ...Command) int {
	applied := 0
	for _, c := range cmds {
		ok := apply(logger, colors, g, c)
		observability.Script().OnCommand(ctx, c.Kind.String(), ok)
		if ok {
			applied++
		}
	}
	return applied
}

func apply(logger *log.Logger, colors *colormap.Map, g *graph.Graph, c Command) bool {
	if !g.Has(c.Node) {
		return false
	}
	switch c.Kind {
	case KindSetColor:
		col, err := colormap.ParseHex(c.Spec)
		if err != nil {
			if logger != nil {
				logger.Warn("skipping set_color", "node", c.Node, "err", err)
			}
			return false
		}
		colors.Set(c.Node, col)
	case KindResetColor:
		colors.Reset(c.Node)
	default:
		return false
	}
	return true
}
