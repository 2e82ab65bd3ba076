package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/diagramkit/pkg/cache"
	"github.com/matzehuels/diagramkit/pkg/config"
	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/pipeline"
	"github.com/matzehuels/diagramkit/pkg/store"
)

// diagramCommand creates the command for managing saved diagrams.
func (c *CLI) diagramCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagram",
		Short: "Save, show and render stored diagrams",
		Long: `Manage diagrams kept in the configured store.

The CLI keeps diagrams on disk unless the store backend is mongo; the
memory backend only makes sense for the server.`,
	}

	cmd.AddCommand(c.diagramSaveCommand())
	cmd.AddCommand(c.diagramShowCommand())
	cmd.AddCommand(c.diagramRenderCommand())
	cmd.AddCommand(c.diagramRemoveCommand())
	cmd.AddCommand(c.diagramPruneCommand())

	return cmd
}

// openDiagramStore opens the configured store, substituting the file store
// for the in-memory one.
func (c *CLI) openDiagramStore(ctx context.Context) (store.Store, error) {
	cfg := c.Config.Store
	if cfg.Backend == config.StoreMemory {
		cfg.Backend = config.StoreFile
	}
	return openStore(ctx, cfg)
}

func (c *CLI) diagramSaveCommand() *cobra.Command {
	var (
		ttl  time.Duration
		name string
	)

	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Validate a diagram and save it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			popts, err := c.packetOptions(runner, args[0], packetOpts{}, pipeline.FormatJSON)
			if err != nil {
				return err
			}
			if name != "" {
				popts.Name = name
			}
			if _, err := runner.Parse(ctx, popts); err != nil {
				printDiagnostics(runner, popts, err)
				return err
			}

			st, err := c.openDiagramStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			d := store.New(popts.Language, popts.Name, popts.Source, ttl)
			d.SourceHash = cache.Hash([]byte(popts.Source))
			if err := st.Put(ctx, d); err != nil {
				return fmt.Errorf("save diagram: %w", err)
			}

			printSuccess("Saved %s", popts.Name)
			printKeyValue("ID", d.ID)
			if !d.ExpiresAt.IsZero() {
				printKeyValue("Expires", formatRelativeTime(d.ExpiresAt))
			}
			printNewline()
			printNextStep("Render it", appName+" diagram render "+d.ID)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", store.DefaultTTL, "time until the diagram expires (0 keeps it forever)")
	cmd.Flags().StringVar(&name, "name", "", "name to store (default the file name)")

	return cmd
}

func (c *CLI) diagramShowCommand() *cobra.Command {
	var sourceOnly bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.loadDiagram(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if sourceOnly {
				fmt.Print(d.Source)
				return nil
			}
			printKeyValue("ID", d.ID)
			printKeyValue("Name", d.Name)
			printKeyValue("Language", d.Language)
			printKeyValue("Created", formatRelativeTime(d.CreatedAt))
			printKeyValue("Expires", formatRelativeTime(d.ExpiresAt))
			printKeyValue("Hash", d.SourceHash)
			printNewline()
			fmt.Print(d.Source)
			return nil
		},
	}

	cmd.Flags().BoolVar(&sourceOnly, "source", false, "print only the diagram source")

	return cmd
}

func (c *CLI) diagramRenderCommand() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "render <id>",
		Short: "Render a saved diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := c.loadDiagram(ctx, args[0])
			if err != nil {
				return err
			}

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			svgCfg := c.Config.Render.Packet
			res, err := runner.Execute(ctx, pipeline.Options{
				Language:   d.Language,
				Source:     d.Source,
				Name:       d.Name,
				BitsPerRow: c.Config.Render.BitsPerRow,
				Format:     format,
				Packet:     &svgCfg,
			})
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err := os.Stdout.Write(res.Artifact)
				return err
			}
			if err := os.WriteFile(output, res.Artifact, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Rendered %s", d.Name)
			printFile(output)
			printStats(res.Stats.BlockCount, res.Stats.RowCount, res.CacheInfo.RenderHit)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatSVG, "output format: svg, json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func (c *CLI) diagramRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a saved diagram",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateDiagramID(args[0]); err != nil {
				return err
			}
			st, err := c.openDiagramStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete diagram: %w", err)
			}
			printSuccess("Deleted %s", args[0])
			return nil
		},
	}
}

// cleaner is implemented by stores that sweep expired diagrams themselves.
type cleaner interface {
	Cleanup(ctx context.Context) error
}

func (c *CLI) diagramPruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired diagrams",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openDiagramStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			cl, ok := st.(cleaner)
			if !ok {
				printInfo("The %s store expires diagrams on its own", c.Config.Store.Backend)
				return nil
			}
			if err := cl.Cleanup(cmd.Context()); err != nil {
				return fmt.Errorf("prune diagrams: %w", err)
			}
			printSuccess("Removed expired diagrams")
			if fs, ok := st.(*store.FileStore); ok {
				printDetail("Directory: %s", fs.Path())
			}
			return nil
		},
	}
}

// loadDiagram fetches the diagram with the given ID from the store.
func (c *CLI) loadDiagram(ctx context.Context, id string) (*store.Diagram, error) {
	if err := errors.ValidateDiagramID(id); err != nil {
		return nil, err
	}
	st, err := c.openDiagramStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	d, err := st.Get(ctx, id)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.New(errors.ErrCodeDiagramNotFound, "diagram %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load diagram: %w", err)
	}
	return d, nil
}
