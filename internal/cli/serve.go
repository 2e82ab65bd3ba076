package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/diagramkit/pkg/server"
)

// serveCommand creates the command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noStore bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the diagram API over HTTP",
		Long: `Serve the packet and shape renderers over HTTP.

The cache and diagram store backends come from the config file or the
DIAGRAMKIT_CACHE_* and DIAGRAMKIT_STORE_* environment variables. The server
stops gracefully on SIGINT or SIGTERM.`,
		Example: `  diagramkit serve --addr :9090
  DIAGRAMKIT_CACHE_BACKEND=redis DIAGRAMKIT_CACHE_REDIS_URL=redis://localhost:6379/0 diagramkit serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			var srv *server.Server
			cfg := server.Config{
				Addr:            c.Config.Server.Addr,
				ReadTimeout:     c.Config.Server.ReadTimeout,
				WriteTimeout:    c.Config.Server.WriteTimeout,
				ShutdownTimeout: c.Config.Server.ShutdownTimeout,
				MaxBodyBytes:    c.Config.Server.MaxBodyBytes,
			}
			if addr != "" {
				cfg.Addr = addr
			}

			if noStore {
				srv = server.New(runner, nil, logger, cfg)
			} else {
				st, err := openStore(ctx, c.Config.Store)
				if err != nil {
					return err
				}
				defer st.Close()
				srv = server.New(runner, st, logger, cfg)
			}

			logger.Info("starting server",
				"cache", c.Config.Cache.Backend,
				"store", c.Config.Store.Backend,
				"diagrams", !noStore)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "disable the /v1/diagrams routes")

	return cmd
}
