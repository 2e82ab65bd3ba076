package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/diagramkit/pkg/cache"
	"github.com/matzehuels/diagramkit/pkg/lang"
	langpacket "github.com/matzehuels/diagramkit/pkg/lang/packet"
	"github.com/matzehuels/diagramkit/pkg/observability"
	"github.com/matzehuels/diagramkit/pkg/packet"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, the logger and the read-only
// language services. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
	Services *langpacket.Bundle
}

// NewRunner creates a runner with the given cache and keyer and builds the
// packet language services.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) (*Runner, error) {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	services, err := langpacket.CreateServices(lang.EmptyFileSystem)
	if err != nil {
		return nil, err
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
		Services: services,
	}, nil
}

// Execute runs the complete parse → build → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{
		Name:       opts.Name,
		SourceHash: cache.Hash([]byte(opts.Source)),
		Format:     opts.Format,
	}
	hooks := observability.Pipeline()

	// Stage 1: Parse and build
	parseStart := time.Now()
	hooks.OnParseStart(ctx, opts.Language, result.SourceHash)
	d, parseHit, err := r.ParseWithCacheInfo(ctx, opts)
	result.Stats.ParseTime = time.Since(parseStart)
	hooks.OnParseComplete(ctx, opts.Language, result.SourceHash, d.BlockCount(), result.Stats.ParseTime, err)
	if err != nil {
		return nil, err
	}
	result.Diagram = d
	result.Stats.BlockCount = d.BlockCount()
	result.Stats.RowCount = len(d.Rows)
	result.CacheInfo.ParseHit = parseHit

	opts.Logger.Info("parsed diagram",
		"name", opts.Name,
		"blocks", result.Stats.BlockCount,
		"rows", result.Stats.RowCount,
		"cached", parseHit,
		"duration", result.Stats.ParseTime)

	// Stage 2: Render
	renderStart := time.Now()
	hooks.OnRenderStart(ctx, opts.Language, opts.Format)
	artifact, renderHit, err := r.RenderWithCacheInfo(ctx, d, result.SourceHash, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	hooks.OnRenderComplete(ctx, opts.Language, opts.Format, len(artifact), result.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}
	result.Artifact = artifact
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered diagram",
		"name", opts.Name,
		"format", opts.Format,
		"bytes", len(artifact),
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ParseWithCacheInfo parses and builds a diagram with caching and returns
// cache hit info.
func (r *Runner) ParseWithCacheInfo(ctx context.Context, opts Options) (*packet.Diagram, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	cacheKey := r.Keyer.ParseKey(opts.Language, cache.Hash([]byte(opts.Source)), opts.BitsPerRow)

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var d packet.Diagram
			if err := json.Unmarshal(data, &d); err == nil {
				observability.Cache().OnCacheHit(ctx, "parse")
				return &d, true, nil // Cache hit
			}
			// If deserialization fails, fall through to reparse
		}
		observability.Cache().OnCacheMiss(ctx, "parse")
	}

	d, err := Parse(r.Services.Packet, opts)
	if err != nil {
		return nil, false, err
	}

	// Refreshing still writes, so the next run sees the new result
	if data, err := json.Marshal(d); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLParse); err != nil {
			opts.Logger.Warn("cache write failed", "key", cacheKey, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "parse", len(data))
		}
	}

	return d, false, nil // Cache miss
}

// Parse is a convenience wrapper that calls ParseWithCacheInfo and discards the cache hit info.
func (r *Runner) Parse(ctx context.Context, opts Options) (*packet.Diagram, error) {
	d, _, err := r.ParseWithCacheInfo(ctx, opts)
	return d, err
}

// RenderWithCacheInfo renders d with caching and returns cache hit info.
// sourceHash identifies the source d was built from.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, d *packet.Diagram, sourceHash string, opts Options) ([]byte, bool, error) {
	if d == nil {
		return nil, false, fmt.Errorf("render: diagram is nil")
	}
	if opts.Format == "" {
		opts.Format = FormatSVG
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.BitsPerRow <= 0 {
		opts.BitsPerRow = d.BitsPerRow
	}
	r.applyLogger(&opts)

	cacheKey := r.Keyer.ArtifactKey(sourceHash, opts.ArtifactKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	data, err := Render(d, opts)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err != nil {
		opts.Logger.Warn("cache write failed", "key", cacheKey, "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return data, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, d *packet.Diagram, sourceHash string, opts Options) ([]byte, error) {
	data, _, err := r.RenderWithCacheInfo(ctx, d, sourceHash, opts)
	return data, err
}

// RenderShapeWithCacheInfo renders a single node shape with caching and
// returns cache hit info.
func (r *Runner) RenderShapeWithCacheInfo(ctx context.Context, opts ShapeOptions) ([]byte, bool, error) {
	kind, err := opts.ValidateAndSetDefaults()
	if err != nil {
		return nil, false, err
	}
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}

	nodeData, err := json.Marshal(opts.Node)
	if err != nil {
		return nil, false, fmt.Errorf("serialize node for cache key: %w", err)
	}
	cacheKey := r.Keyer.ShapeKey(cache.Hash(nodeData), cache.ShapeKeyOpts{
		Kind:   opts.Kind,
		Look:   string(opts.Node.Look),
		Format: opts.Format,
	})

	hooks := observability.Pipeline()
	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "shape")
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "shape")

	start := time.Now()
	hooks.OnRenderStart(ctx, opts.Kind, opts.Format)
	data, err := RenderShape(ctx, kind, opts)
	hooks.OnRenderComplete(ctx, opts.Kind, opts.Format, len(data), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err != nil {
		opts.Logger.Warn("cache write failed", "key", cacheKey, "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "shape", len(data))
	}
	return data, false, nil
}

// RenderShape is a convenience wrapper that calls RenderShapeWithCacheInfo and discards the cache hit info.
func (r *Runner) RenderShape(ctx context.Context, opts ShapeOptions) ([]byte, error) {
	data, _, err := r.RenderShapeWithCacheInfo(ctx, opts)
	return data, err
}

// ExecuteAll runs the pipeline for every entry of batch with at most limit
// runs in flight. Results are in batch order. The first failure cancels the
// remaining runs and is returned with the entry's name.
func (r *Runner) ExecuteAll(ctx context.Context, batch []Options, limit int) ([]*Result, error) {
	return r.ExecuteAllFunc(ctx, batch, limit, nil)
}

// ExecuteAllFunc is ExecuteAll with a callback run after each successful
// entry with the number of finished entries. The callback may be called
// from several goroutines at once.
func (r *Runner) ExecuteAllFunc(ctx context.Context, batch []Options, limit int, onDone func(done, total int)) ([]*Result, error) {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	results := make([]*Result, len(batch))
	var finished atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, opts := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.Execute(gctx, opts)
			if err != nil {
				if opts.Name != "" {
					return fmt.Errorf("%s: %w", opts.Name, err)
				}
				return err
			}
			results[i] = res
			if n := finished.Add(1); onDone != nil {
				onDone(int(n), len(batch))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
