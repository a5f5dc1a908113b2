package cli

import (
	"context"
	stderrors "errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/grephite/internal/server"
	"github.com/matzehuels/grephite/pkg/observability"
	"github.com/matzehuels/grephite/pkg/observability/prom"
	"github.com/matzehuels/grephite/pkg/script"
)

type serveOpts struct {
	addr     string
	tickRate int
	metrics  bool
}

// serveCommand creates the serve command, which runs a live session behind
// an HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [edges]",
		Short: "Serve a live graph session over HTTP",
		Long: `Load a graph and tick it continuously while serving a JSON API for
frames, layout settings, path searches, scripts and graph edits. Prometheus
metrics are exposed at /metrics.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				c.cfg.Server.Addr = opts.addr
			}
			if cmd.Flags().Changed("tick-rate") {
				c.cfg.Server.TickRate = opts.tickRate
			}
			if err := c.cfg.Validate(); err != nil {
				return err
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runServe(ctx, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().IntVar(&opts.tickRate, "tick-rate", 0, "ticks per second (overrides config)")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", true, "expose Prometheus metrics")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, edges string, opts serveOpts) error {
	w, _, err := c.loadWorld(edges)
	if err != nil {
		return err
	}
	defer w.Scripts().Close()

	srvOpts := server.Options{
		Logger:   c.Logger,
		Library:  script.NewLibrary(c.cfg.Script.Dir, c.Logger),
		TickRate: c.cfg.Server.TickRate,
	}
	if opts.metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		prom.New(reg).Register()
		defer observability.Reset()
		srvOpts.Gatherer = reg
	}

	c.Logger.Debug("serve", "edges", edges, "scripts", c.cfg.Script.Dir, "metrics", opts.metrics)
	err = server.New(w, srvOpts).Run(ctx, c.cfg.Server.Addr)
	if stderrors.Is(err, context.Canceled) {
		c.Logger.Info("server stopped")
	}
	return err
}
