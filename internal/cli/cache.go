package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/grephite/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render cache",
	}
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.cfg.CacheDir()
			if err != nil {
				return err
			}
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			n, err := fc.Clear()
			if err != nil {
				return err
			}
			p := printer{cmd.OutOrStdout()}
			p.success("Cleared %d cached renders", n)
			p.keyValue("Directory", dir)
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the render cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.cfg.CacheDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

// renderCache opens the configured cache. Failures fall back to a cache
// that never hits, so rendering still works on read-only systems.
func (c *CLI) renderCache(disabled bool) cache.Cache {
	if disabled || c.cfg.Cache.Disabled {
		return cache.NewNullCache()
	}
	dir, err := c.cfg.CacheDir()
	if err == nil {
		var fc *cache.FileCache
		if fc, err = cache.NewFileCache(dir); err == nil {
			return fc
		}
	}
	c.Logger.Warn("render cache unavailable", "err", err)
	return cache.NewNullCache()
}

// cachedRender returns the bytes for key from rc, or calls render and
// stores its result.
func (c *CLI) cachedRender(ctx context.Context, rc cache.Cache, key string, render func() ([]byte, error)) ([]byte, error) {
	if data, hit, err := rc.Get(ctx, key); err != nil {
		c.Logger.Warn("render cache read", "err", err)
	} else if hit {
		c.Logger.Debug("render cache hit", "key", key)
		return data, nil
	}
	data, err := render()
	if err != nil {
		return nil, err
	}
	if err := rc.Set(ctx, key, data, c.cfg.Cache.TTL.Duration); err != nil {
		c.Logger.Warn("render cache write", "err", err)
	}
	return data, nil
}
