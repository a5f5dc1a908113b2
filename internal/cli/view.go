package cli

import (
	"context"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/grephite/pkg/errors"
	"github.com/matzehuels/grephite/pkg/script"
)

type viewOpts struct {
	script  string
	from    int
	logFile string
}

// viewCommand creates the view command, the interactive terminal viewer.
func (c *CLI) viewCommand() *cobra.Command {
	opts := viewOpts{from: -1}

	cmd := &cobra.Command{
		Use:   "view [edges]",
		Short: "Explore a graph interactively in the terminal",
		Long: `Open an interactive viewer that runs the layout live. Scripts from the
configured scripts directory can be loaded, stepped and auto-run; the list
refreshes as files change. Press ? for all key bindings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runView(ctx, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.script, "script", "s", "", "script from the library to load on start")
	cmd.Flags().IntVar(&opts.from, "from", opts.from, "compute shortest paths from this node label on start")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "write logs here while the viewer runs")
	_ = cmd.RegisterFlagCompletionFunc("script", c.completeScripts)

	return cmd
}

func (c *CLI) runView(ctx context.Context, edges string, opts viewOpts) error {
	// The viewer owns the terminal; logs go to a file or nowhere.
	restore, err := c.redirectLogs(opts.logFile)
	if err != nil {
		return err
	}
	defer restore()

	w, g, err := c.loadWorld(edges)
	if err != nil {
		return err
	}
	defer w.Scripts().Close()

	lib := script.NewLibrary(c.cfg.Script.Dir, c.Logger)
	names, err := lib.List()
	if err != nil {
		return err
	}

	if opts.from >= 0 {
		src, ok := g.NodeByLabel(opts.from)
		if !ok {
			return errors.New(errors.ErrCodeNodeNotFound, "no node labeled %d in %s", opts.from, edges)
		}
		w.RequestPath(src)
	}
	if opts.script != "" {
		src, err := lib.Read(opts.script)
		if err != nil {
			return err
		}
		if err := w.LoadScript(ctx, opts.script, src); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan []string, 1)
	go func() {
		err := lib.Watch(ctx, func(names []string) {
			select {
			case <-updates: // keep only the newest listing
			default:
			}
			updates <- names
		})
		if err != nil {
			c.Logger.Warn("script watcher stopped", "err", err)
		}
	}()

	interval := time.Second / time.Duration(c.cfg.Server.TickRate)
	m := newViewerModel(ctx, w, lib, names, interval, updates)
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// redirectLogs points the logger at path, or discards output when path is
// empty. The returned func restores stderr.
func (c *CLI) redirectLogs(path string) (func(), error) {
	var out io.Writer = io.Discard
	var f *os.File
	if path != "" {
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open log file %s", path)
		}
		out = f
	}
	c.Logger.SetOutput(out)
	return func() {
		c.Logger.SetOutput(os.Stderr)
		if f != nil {
			f.Close()
		}
	}, nil
}
