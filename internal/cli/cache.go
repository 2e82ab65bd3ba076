package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/diagramkit/pkg/cache"
	"github.com/matzehuels/diagramkit/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheStatsCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var expired bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached diagrams, renders and shapes",
		Long: `Clear the render cache.

With --expired only entries past their TTL (and unreadable files) are
removed from the file cache. Redis expires entries on its own.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if c.Config.Cache.Backend == config.CacheNone {
				printInfo("Caching is disabled")
				return nil
			}

			cc, err := newCache(ctx, c.Config.Cache, false)
			if err != nil {
				return err
			}
			defer cc.Close()

			var count int
			switch cc := cc.(type) {
			case *cache.FileCache:
				if expired {
					count, err = cc.Prune(ctx)
				} else {
					count, err = cc.Clear(ctx)
				}
			case cache.Clearer:
				if expired {
					printInfo("Redis expires entries itself; nothing to prune")
					return nil
				}
				count, err = cc.Clear(ctx)
			}
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Removed %d cached entries", count)
			printDetail("Location: %s", cacheLocation(c.Config.Cache))
			return nil
		},
	}

	cmd.Flags().BoolVar(&expired, "expired", false, "only remove expired entries")
	return cmd
}

// cacheStatsCommand creates the "cache stats" subcommand.
func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count cached entries per kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Config.Cache.Backend != config.CacheFile {
				printInfo("Stats are only kept for the file cache")
				return nil
			}
			dir, err := fileCacheDir(c.Config.Cache)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			stats, err := fc.Stats(cmd.Context())
			if err != nil {
				return err
			}

			total := 0
			for _, ns := range cache.Namespaces {
				printKeyValue(ns, strconv.Itoa(stats[ns]))
				total += stats[ns]
			}
			printDetail("%d live entries in %s", total, dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(cacheLocation(c.Config.Cache))
			return nil
		},
	}
}

// cacheLocation is the Redis URL or the file cache directory.
func cacheLocation(cfg config.CacheConfig) string {
	if cfg.Backend == config.CacheRedis {
		return cfg.RedisURL
	}
	dir, err := fileCacheDir(cfg)
	if err != nil {
		return "(unknown)"
	}
	return dir
}
