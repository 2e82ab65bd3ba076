package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/packet"
	"github.com/matzehuels/diagramkit/pkg/pipeline"
)

// stdinName is shown for sources read from standard input.
const stdinName = "<stdin>"

// packetOpts holds the flags shared by the packet subcommands.
type packetOpts struct {
	bitsPerRow int  // bits per row (0 uses the configured default)
	hideBits   bool // omit bit numbers above each block
	noCache    bool // disable caching
	refresh    bool // ignore cached entries
}

func (o *packetOpts) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.bitsPerRow, "bits-per-row", 0, "bits per row (default from config, 32)")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "ignore cached results")
}

// packetCommand creates the packet command with its parse and render subcommands.
func (c *CLI) packetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packet",
		Short: "Parse and render packet diagrams",
		Long: `Parse and render Mermaid-style packet diagrams.

A packet diagram lists bit fields, one per line:

  packet-beta
  title TCP header
  0-15: "Source Port"
  16-31: "Destination Port"
  32-63: "Sequence Number"`,
	}

	cmd.AddCommand(c.packetParseCommand())
	cmd.AddCommand(c.packetRenderCommand())

	return cmd
}

// =============================================================================
// packet parse
// =============================================================================

func (c *CLI) packetParseCommand() *cobra.Command {
	var (
		opts   packetOpts
		asJSON bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a packet diagram and show its rows",
		Long: `Parse a packet diagram and show how its fields are laid out in rows.

Use - to read from standard input. Syntax errors are reported with their
line and column.`,
		Example: `  diagramkit packet parse tcp.mmd
  diagramkit packet parse tcp.mmd --json -o tcp.json
  cat tcp.mmd | diagramkit packet parse -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPacketParse(cmd.Context(), args[0], opts, asJSON, output)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the diagram as JSON")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write JSON to file instead of stdout")

	return cmd
}

func (c *CLI) runPacketParse(ctx context.Context, path string, opts packetOpts, asJSON bool, output string) error {
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts, err := c.packetOptions(runner, path, opts, pipeline.FormatJSON)
	if err != nil {
		return err
	}

	d, hit, err := runner.ParseWithCacheInfo(ctx, popts)
	if err != nil {
		printDiagnostics(runner, popts, err)
		return err
	}

	if asJSON || output != "" {
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return fmt.Errorf("encode diagram: %w", err)
		}
		data = append(data, '\n')
		if output == "" {
			_, err := os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		printSuccess("Parsed %s", popts.Name)
		printFile(output)
		return nil
	}

	printSuccess("Parsed %s", popts.Name)
	if d.Title != "" {
		printKeyValue("Title", d.Title)
	}
	if d.AccDescr != "" {
		printKeyValue("Description", d.AccDescr)
	}
	printKeyValue("Bits/row", strconv.Itoa(d.BitsPerRow))
	if len(d.Rows) > 0 {
		fmt.Println(blockTable(d))
	}
	printStats(d.BlockCount(), len(d.Rows), hit)
	return nil
}

// blockTable renders the rows of d as a table.
func blockTable(d *packet.Diagram) string {
	rows := [][]string{}
	for i, row := range d.Rows {
		for _, b := range row {
			rows = append(rows, []string{
				strconv.Itoa(i),
				strconv.Itoa(b.Start),
				strconv.Itoa(b.End),
				strconv.Itoa(b.Bits),
				b.Label,
			})
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Row", "Start", "End", "Bits", "Label").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col < 4:
				return StyleNumber
			default:
				return StyleValue
			}
		})
	return t.Render()
}

// =============================================================================
// packet render
// =============================================================================

func (c *CLI) packetRenderCommand() *cobra.Command {
	var (
		opts   packetOpts
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "render <file>...",
		Short: "Render packet diagrams to SVG or JSON",
		Long: `Render one or more packet diagrams.

With a single input, -o names the output file (- writes to stdout). With
several inputs, -o names an output directory. Without -o each output is
written next to its input with the format's extension.`,
		Example: `  diagramkit packet render tcp.mmd
  diagramkit packet render tcp.mmd -o - > tcp.svg
  diagramkit packet render headers/*.mmd -o out/ -f json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateFormat(format, pipeline.Formats...); err != nil {
				return err
			}
			return c.runPacketRender(cmd.Context(), args, opts, format, output)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.hideBits, "hide-bits", false, "omit bit numbers")
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatSVG, "output format: svg, json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single input) or directory (several inputs)")

	return cmd
}

func (c *CLI) runPacketRender(ctx context.Context, paths []string, opts packetOpts, format, output string) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	batch := make([]pipeline.Options, 0, len(paths))
	for _, path := range paths {
		popts, err := c.packetOptions(runner, path, opts, format)
		if err != nil {
			return err
		}
		batch = append(batch, popts)
	}

	prog := newProgress(logger)
	var results []*pipeline.Result
	if len(batch) == 1 {
		res, err := runner.Execute(ctx, batch[0])
		if err != nil {
			printDiagnostics(runner, batch[0], err)
			return err
		}
		results = []*pipeline.Result{res}
	} else {
		spinner := newBatchSpinner(ctx, os.Stderr, len(batch))
		spinner.Start()
		results, err = runner.ExecuteAllFunc(ctx, batch, c.Config.Render.BatchLimit, spinner.Advance)
		spinner.Stop()
		if err != nil {
			return err
		}
	}
	prog.done(fmt.Sprintf("Rendered %d diagram(s)", len(results)))

	for i, res := range results {
		out, err := outputPath(paths[i], output, res.Format, len(paths) > 1)
		if err != nil {
			return err
		}
		if out == "-" {
			if _, err := os.Stdout.Write(res.Artifact); err != nil {
				return err
			}
			continue
		}
		if err := os.WriteFile(out, res.Artifact, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		printSuccess("Rendered %s", res.Name)
		printFile(out)
		if res.Stats.BlockCount == 0 {
			printWarning("%s has no fields", res.Name)
			continue
		}
		printStats(res.Stats.BlockCount, res.Stats.RowCount, res.CacheInfo.RenderHit)
	}
	return nil
}

// outputPath decides where the artifact for input goes.
func outputPath(input, output, format string, multi bool) (string, error) {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if input == "-" {
		base = "stdin"
	}

	switch {
	case !multi && output != "":
		return output, nil
	case !multi && input == "-":
		return "-", nil
	case output == "":
		return filepath.Join(filepath.Dir(input), base+"."+format), nil
	}

	if err := os.MkdirAll(output, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return filepath.Join(output, base+"."+format), nil
}

// =============================================================================
// Helpers
// =============================================================================

// packetOptions reads the source at path and builds pipeline options from
// the configuration and flags. The language is resolved from the file
// extension.
func (c *CLI) packetOptions(runner *pipeline.Runner, path string, opts packetOpts, format string) (pipeline.Options, error) {
	src, name, err := readSource(path)
	if err != nil {
		return pipeline.Options{}, err
	}

	services, err := runner.Services.Shared.ServiceRegistry.ForPath(name)
	if err != nil {
		return pipeline.Options{}, errors.Wrap(errors.ErrCodeUnsupported, err, "%s", name)
	}

	bitsPerRow := c.Config.Render.BitsPerRow
	if opts.bitsPerRow > 0 {
		bitsPerRow = opts.bitsPerRow
	}
	svgCfg := c.Config.Render.Packet
	if opts.hideBits {
		svgCfg.ShowBits = false
	}

	return pipeline.Options{
		Language:   services.LanguageMetaData.LanguageID,
		Source:     src,
		Name:       name,
		Refresh:    opts.refresh,
		BitsPerRow: bitsPerRow,
		Format:     format,
		Packet:     &svgCfg,
	}, nil
}

// readSource reads a diagram from path, or from stdin when path is "-".
func readSource(path string) (src, name string, err error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), stdinName, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", errors.Wrap(errors.ErrCodeFileNotFound, err, "%s not found", path)
		}
		return "", "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), path, nil
}

// printDiagnostics lists the positioned syntax errors behind a parse failure.
func printDiagnostics(runner *pipeline.Runner, opts pipeline.Options, err error) {
	if !errors.Is(err, errors.ErrCodeParse) {
		return
	}
	for _, d := range pipeline.Diagnostics(runner.Services.Packet, opts.Source) {
		printError("%s:%d:%d: %s", opts.Name, d.Line, d.Column, d.Message)
	}
}
