package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/diagramkit/pkg/cache"
	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/observability"
	"github.com/matzehuels/diagramkit/pkg/packet"
	"github.com/matzehuels/diagramkit/pkg/render/packetsvg"
	"github.com/matzehuels/diagramkit/pkg/render/shapes"
)

const tcp = `packet-beta
title TCP
0-15: "Source Port"
16-31: "Destination Port"
32-63: "Sequence Number"
`

// countingCache is an in-memory cache that records how often it is written.
type countingCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newCountingCache() *countingCache {
	return &countingCache{data: make(map[string][]byte)}
}

func (c *countingCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *countingCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.sets++
	return nil
}

func (c *countingCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *countingCache) Close() error { return nil }

func newRunner(t *testing.T, c cache.Cache) *Runner {
	t.Helper()
	r, err := NewRunner(c, nil, log.New(&strings.Builder{}))
	if err != nil {
		t.Fatalf("NewRunner() error: %v", err)
	}
	return r
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{Source: tcp}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Language != "packet" || opts.Format != FormatSVG || opts.BitsPerRow != 32 {
		t.Errorf("defaults not applied: %+v", opts)
	}
	if diff := cmp.Diff(packetsvg.DefaultConfig(), *opts.Packet); diff != "" {
		t.Errorf("packet config mismatch (-want +got):\n%s", diff)
	}

	// Idempotent
	before := opts
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if before.Packet != opts.Packet || before.Format != opts.Format {
		t.Error("second call should not change options")
	}
}

func TestValidateAndSetDefaultsErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"empty source", Options{Source: "  \n"}, errors.ErrCodeInvalidInput},
		{"unknown language", Options{Language: "flowchart", Source: tcp}, errors.ErrCodeUnsupported},
		{"bad format", Options{Source: tcp, Format: "png"}, errors.ErrCodeInvalidFormat},
		{"zero bit width", Options{Source: tcp, Packet: &packetsvg.Config{RowHeight: 32}}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Source: tcp, Format: FormatJSON}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	want := cache.ArtifactKeyOpts{
		Language: "packet", Format: "json", BitsPerRow: 32,
		RowHeight: 32, BitWidth: 32, PaddingX: 5, PaddingY: 5, ShowBits: true,
	}
	if diff := cmp.Diff(want, opts.ArtifactKeyOpts()); diff != "" {
		t.Errorf("key opts mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute(t *testing.T) {
	r := newRunner(t, nil)
	res, err := r.Execute(context.Background(), Options{Source: tcp, Name: "tcp.mmd"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if res.Stats.BlockCount != 3 || res.Stats.RowCount != 2 {
		t.Errorf("stats = %+v, want 3 blocks in 2 rows", res.Stats)
	}
	if res.Diagram.Title != "TCP" {
		t.Errorf("Title = %q", res.Diagram.Title)
	}
	if res.SourceHash != cache.Hash([]byte(tcp)) {
		t.Error("SourceHash should hash the source text")
	}
	svg := string(res.Artifact)
	for _, want := range []string{"<svg", `class="packetBlock"`, "Sequence Number", `class="packetTitle"`} {
		if !strings.Contains(svg, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
	if res.CacheInfo.ParseHit || res.CacheInfo.RenderHit {
		t.Error("null cache should never hit")
	}
}

func TestExecuteJSON(t *testing.T) {
	r := newRunner(t, nil)
	res, err := r.Execute(context.Background(), Options{Source: tcp, Format: FormatJSON, BitsPerRow: 16})
	if err != nil {
		t.Fatal(err)
	}
	var d packet.Diagram
	if err := json.Unmarshal(res.Artifact, &d); err != nil {
		t.Fatalf("artifact is not JSON: %v", err)
	}
	if d.BitsPerRow != 16 || len(d.Rows) != 4 {
		t.Errorf("got %d rows of %d bits, want 4 of 16", len(d.Rows), d.BitsPerRow)
	}
}

func TestExecuteErrors(t *testing.T) {
	r := newRunner(t, nil)
	tests := []struct {
		name string
		src  string
		code errors.Code
		msg  string
	}{
		{"syntax", "packet-beta\n0-15 \"a\"\n", errors.ErrCodeParse, "in bad.mmd"},
		{"gap", "packet-beta\n0-7: \"a\"\n9-15: \"b\"\n", errors.ErrCodeInvalidPacket, "not contiguous"},
		{"reversed", "packet-beta\n0-7: \"a\"\n8-4: \"b\"\n", errors.ErrCodeInvalidPacket, "greater than start"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(context.Background(), Options{Source: tt.src, Name: "bad.mmd"})
			if got := errors.GetCode(err); got != tt.code {
				t.Fatalf("code = %q, want %q (err: %v)", got, tt.code, err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q should mention %q", err, tt.msg)
			}
		})
	}
}

func TestExecuteCaching(t *testing.T) {
	c := newCountingCache()
	r := newRunner(t, c)
	ctx := context.Background()

	first, err := r.Execute(ctx, Options{Source: tcp})
	if err != nil {
		t.Fatal(err)
	}
	if c.sets != 2 {
		t.Errorf("sets after first run = %d, want 2", c.sets)
	}

	second, err := r.Execute(ctx, Options{Source: tcp})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.ParseHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit both stages, got %+v", second.CacheInfo)
	}
	if string(first.Artifact) != string(second.Artifact) {
		t.Error("cached artifact differs")
	}
	if diff := cmp.Diff(first.Diagram, second.Diagram); diff != "" {
		t.Errorf("cached diagram mismatch (-first +second):\n%s", diff)
	}

	// Different geometry is a different artifact
	cfg := packetsvg.DefaultConfig()
	cfg.BitWidth = 16
	third, err := r.Execute(ctx, Options{Source: tcp, Packet: &cfg})
	if err != nil {
		t.Fatal(err)
	}
	if !third.CacheInfo.ParseHit || third.CacheInfo.RenderHit {
		t.Errorf("geometry change should only reuse the parse, got %+v", third.CacheInfo)
	}

	refreshed, err := r.Execute(ctx, Options{Source: tcp, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheInfo.ParseHit || refreshed.CacheInfo.RenderHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestExecuteWithFileCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := newRunner(t, fc)
	defer r.Close()

	if _, err := r.Execute(context.Background(), Options{Source: tcp}); err != nil {
		t.Fatal(err)
	}
	res, err := r.Execute(context.Background(), Options{Source: tcp})
	if err != nil {
		t.Fatal(err)
	}
	if !res.CacheInfo.RenderHit {
		t.Error("file cache should serve the second run")
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) OnParseComplete(_ context.Context, language, _ string, blocks int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, fmt.Sprintf("parse %s %d %v", language, blocks, err != nil))
}

func (h *recordingHooks) OnRenderComplete(_ context.Context, kind, format string, _ int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, fmt.Sprintf("render %s %s %v", kind, format, err != nil))
}

func TestExecuteHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	r := newRunner(t, nil)
	if _, err := r.Execute(context.Background(), Options{Source: tcp}); err != nil {
		t.Fatal(err)
	}
	_, _ = r.Execute(context.Background(), Options{Source: "packet\n0-3 \"x\"\n"})

	want := []string{"parse packet 3 false", "render packet svg false", "parse packet 0 true"}
	if diff := cmp.Diff(want, hooks.events); diff != "" {
		t.Errorf("hook events mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderShape(t *testing.T) {
	c := newCountingCache()
	r := newRunner(t, c)
	opts := ShapeOptions{
		Node: shapes.Node{ID: "q", Label: "Queue", Padding: 8},
		Kind: "delay",
	}

	svg, hit, err := r.RenderShapeWithCacheInfo(context.Background(), opts)
	if err != nil {
		t.Fatalf("RenderShape() error: %v", err)
	}
	if hit {
		t.Error("first render should miss")
	}
	if !strings.Contains(string(svg), `class="basic label-container"`) || !strings.Contains(string(svg), "Queue") {
		t.Errorf("unexpected shape SVG: %s", svg)
	}

	again, hit, err := r.RenderShapeWithCacheInfo(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !hit || string(again) != string(svg) {
		t.Error("second render should come from cache")
	}
}

func TestRenderShapeJSON(t *testing.T) {
	r := newRunner(t, nil)
	data, err := r.RenderShape(context.Background(), ShapeOptions{
		Node:   shapes.Node{ID: "q", Label: "Queue", Padding: 8},
		Kind:   "half-rounded-rect",
		Format: FormatJSON,
	})
	if err != nil {
		t.Fatal(err)
	}
	var got ShapeSummary
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Kind != "half-rounded-rect" {
		t.Errorf("Kind = %q", got.Kind)
	}
	if got.Node.Width <= 0 || got.Node.Height <= 0 {
		t.Errorf("node size not derived: %+v", got.Node)
	}
	if math.Abs(got.Radius-got.Node.Height/2) > 1e-9 {
		t.Errorf("Radius = %v, want half the height %v", got.Radius, got.Node.Height/2)
	}
}

func TestRenderShapeErrors(t *testing.T) {
	r := newRunner(t, nil)
	tests := []struct {
		name string
		opts ShapeOptions
		code errors.Code
	}{
		{"unknown kind", ShapeOptions{Kind: "hexagon"}, errors.ErrCodeInvalidShape},
		{"unknown look", ShapeOptions{Kind: "rect", Node: shapes.Node{Look: "neon"}}, errors.ErrCodeInvalidStyle},
		{"bad style", ShapeOptions{Kind: "rect", Node: shapes.Node{CSSStyles: []string{"fill:red\"/><script"}}}, errors.ErrCodeInvalidStyle},
		{"bad format", ShapeOptions{Kind: "rect", Format: "pdf"}, errors.ErrCodeInvalidFormat},
		{"negative padding", ShapeOptions{Kind: "rect", Node: shapes.Node{Padding: -1}}, errors.ErrCodeInvalidShape},
		{"huge padding", ShapeOptions{Kind: "delay", Node: shapes.Node{Padding: 1e9, Look: shapes.LookHandDrawn}}, errors.ErrCodeInvalidShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.RenderShape(context.Background(), tt.opts)
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestExecuteAll(t *testing.T) {
	r := newRunner(t, nil)
	batch := []Options{
		{Name: "a.mmd", Source: "packet\n+8: \"a\"\n"},
		{Name: "b.mmd", Source: "packet\n+16: \"b\"\n", Format: FormatJSON},
		{Name: "c.mmd", Source: tcp},
	}
	results, err := r.ExecuteAll(context.Background(), batch, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	for i, res := range results {
		if res.Name != batch[i].Name {
			t.Errorf("results[%d].Name = %q, want %q", i, res.Name, batch[i].Name)
		}
	}
	if results[1].Format != FormatJSON {
		t.Errorf("per-entry format lost: %q", results[1].Format)
	}
}

func TestExecuteAllFuncReportsProgress(t *testing.T) {
	r := newRunner(t, nil)
	batch := []Options{
		{Name: "a.mmd", Source: "packet\n+8: \"a\"\n"},
		{Name: "b.mmd", Source: "packet\n+16: \"b\"\n"},
		{Name: "c.mmd", Source: tcp},
		{Name: "d.mmd", Source: tcp, Format: FormatJSON},
	}

	var (
		mu   sync.Mutex
		seen []int
	)
	_, err := r.ExecuteAllFunc(context.Background(), batch, 2, func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if total != len(batch) {
			t.Errorf("total = %d, want %d", total, len(batch))
		}
		seen = append(seen, done)
	})
	if err != nil {
		t.Fatal(err)
	}
	sort.Ints(seen)
	if diff := cmp.Diff([]int{1, 2, 3, 4}, seen); diff != "" {
		t.Errorf("progress counts mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteAllFailure(t *testing.T) {
	r := newRunner(t, nil)
	batch := []Options{
		{Name: "ok.mmd", Source: tcp},
		{Name: "broken.mmd", Source: "packet\n0-7: \"a\"\n12: \"b\"\n"},
	}
	_, err := r.ExecuteAll(context.Background(), batch, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "broken.mmd: ") {
		t.Errorf("error should name the file: %v", err)
	}
	if !errors.Is(err, errors.ErrCodeInvalidPacket) {
		t.Errorf("error code lost: %v", err)
	}
}
