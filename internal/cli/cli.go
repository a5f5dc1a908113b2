package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/grephite/pkg/buildinfo"
	"github.com/matzehuels/grephite/pkg/config"
	"github.com/matzehuels/grephite/pkg/graph"
	"github.com/matzehuels/grephite/pkg/sim"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "grephite"

	// defaultTicks is the number of layout iterations run by batch commands.
	defaultTicks = 500
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Config returns the settings loaded for the running command.
func (c *CLI) Config() *config.Config {
	return c.cfg
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Grephite lays out graphs, finds shortest paths and runs Lua scripts over them",
		Long:         `Grephite is a graph playground: a force-directed layout engine, Dijkstra shortest paths and a sandboxed Lua host that colors nodes step by step.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default "+config.DefaultFile+" if present)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.pathCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("config loaded", "path", c.configPath, "scripts", cfg.Script.Dir)
	return nil
}

// =============================================================================
// World Factory
// =============================================================================

// loadWorld reads the edge list at path and wraps it in a World configured
// from the loaded settings.
func (c *CLI) loadWorld(path string) (*sim.World, *graph.Graph, error) {
	g, err := graph.Load(path, c.cfg.Graph.Seed)
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Debug("graph loaded", "file", path, "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return sim.New(g, c.worldOptions()), g, nil
}

func (c *CLI) worldOptions() sim.Options {
	opts := sim.DefaultOptions()
	opts.Layout = c.cfg.Layout
	opts.Script = c.cfg.ScriptOptions()
	opts.DefaultColor = c.cfg.Colors.Default
	opts.Logger = c.Logger
	opts.AutoRun = c.cfg.Script.AutoRun
	return opts
}
