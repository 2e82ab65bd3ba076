package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/diagramkit/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The persistent --config flag selects a TOML or YAML settings file; the
// pre-run loads it (plus DIAGRAMKIT_* environment overrides) before any
// subcommand runs and attaches the resulting logger to the command context.
func (c *CLI) RootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          appName,
		Short:        "Diagramkit renders packet diagrams and node shapes as SVG",
		Long:         `Diagramkit parses Mermaid-style packet diagrams, renders them as SVG or JSON, draws single node shapes, and serves both over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(configPath); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (.toml, .yaml); default "+appName+"/config.toml in the user config dir")

	// Register all subcommands
	root.AddCommand(c.shapeCommand())
	root.AddCommand(c.packetCommand())
	root.AddCommand(c.diagramCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
