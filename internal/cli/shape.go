package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/pipeline"
	"github.com/matzehuels/diagramkit/pkg/render/shapes"
)

// shapeOpts holds the command-line flags for the shape command.
type shapeOpts struct {
	kind       string   // shape kind or alias
	look       string   // classic or handDrawn (default from config)
	padding    float64  // space between label and outline
	styles     []string // CSS declarations for the outline
	labelStyle string   // CSS declarations for the label
	classes    string   // extra CSS classes
	seed       int64    // hand-drawn seed
	format     string   // svg or json
	output     string   // output file ("-" for stdout)
	noCache    bool     // disable caching
}

// shapeCommand creates the shape command for rendering a single node.
func (c *CLI) shapeCommand() *cobra.Command {
	opts := shapeOpts{padding: 15, format: pipeline.FormatSVG, output: "-"}

	cmd := &cobra.Command{
		Use:   "shape [label]",
		Short: "Render a single node shape",
		Long: fmt.Sprintf(`Render a single node with the given label as a standalone SVG.

Available kinds: %s. The half-rounded rectangle is also
accepted as "delay". Without --kind on a terminal an interactive picker is
shown.`, strings.Join(shapes.Kinds(), ", ")),
		Example: `  diagramkit shape "Wait for ACK" --kind delay -o delay.svg
  diagramkit shape Queue -k half-rounded-rect --look handDrawn --style "fill:#f9f"
  diagramkit shape Queue -k rect -f json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := ""
			if len(args) > 0 {
				label = args[0]
			}
			if opts.kind == "" {
				kind, err := pickShape()
				if err != nil {
					return err
				}
				opts.kind = kind
			}
			return c.runShape(cmd.Context(), label, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "", "shape kind: "+strings.Join(shapes.Kinds(), ", "))
	cmd.Flags().StringVar(&opts.look, "look", "", "drawing look: classic, handDrawn (default from config)")
	cmd.Flags().Float64Var(&opts.padding, "padding", opts.padding, "padding between label and outline")
	cmd.Flags().StringArrayVar(&opts.styles, "style", nil, "CSS declarations for the outline (repeatable)")
	cmd.Flags().StringVar(&opts.labelStyle, "label-style", "", "CSS declarations for the label")
	cmd.Flags().StringVar(&opts.classes, "class", "", "extra CSS classes")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "seed for the hand-drawn look")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg, json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output file (- for stdout)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	_ = cmd.RegisterFlagCompletionFunc("kind", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return shapes.Kinds(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (c *CLI) runShape(ctx context.Context, label string, opts shapeOpts) error {
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	look := opts.look
	if look == "" {
		look = c.Config.Render.Look
	}
	if label == "" {
		label = opts.kind
	}

	sopts := pipeline.ShapeOptions{
		Node: shapes.Node{
			ID:            "shape",
			Label:         label,
			Padding:       opts.padding,
			CSSStyles:     opts.styles,
			CSSClasses:    opts.classes,
			LabelStyle:    opts.labelStyle,
			Look:          shapes.Look(look),
			HandDrawnSeed: opts.seed,
		},
		Kind:   opts.kind,
		Format: opts.format,
	}

	data, hit, err := runner.RenderShapeWithCacheInfo(ctx, sopts)
	if err != nil {
		return err
	}

	if opts.output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Rendered %s", opts.kind)
	printFile(opts.output)
	printStats(0, 0, hit)
	return nil
}

// pickShape asks for a shape kind interactively. It fails when stdin or
// stdout is not a terminal.
func pickShape() (string, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
		return "", errors.New(errors.ErrCodeInvalidShape, "--kind is required (one of %s)", strings.Join(shapes.Kinds(), ", "))
	}

	final, err := tea.NewProgram(NewShapePickerModel(shapeChoices())).Run()
	if err != nil {
		return "", fmt.Errorf("shape picker: %w", err)
	}
	m, ok := final.(ShapePickerModel)
	if !ok || m.Selected == nil {
		return "", context.Canceled
	}
	return m.Selected.Name, nil
}
