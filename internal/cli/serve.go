package cli

import (
	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/dungeontopo/internal/logger"
	"github.com/lawnchairsociety/dungeontopo/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		listen  string
		history bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve topology previews over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				c.cfg.Server.Listen = listen
			}

			catalog, err := c.cfg.Catalog()
			if err != nil {
				return err
			}
			defaults, err := c.cfg.ToOptions(catalog)
			if err != nil {
				return err
			}

			var opts []server.Option
			if history {
				db, err := c.openStore()
				if err != nil {
					return err
				}
				defer db.Close()
				opts = append(opts, server.WithStore(db))
				logger.Info("Run history enabled", "driver", c.cfg.Storage.Driver)
			}

			printInfo(cmd.OutOrStdout(), "Listening on %s", StyleValue.Render(c.cfg.Server.Listen))
			return server.New(c.cfg, defaults, opts...).ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&history, "history", true, "enable /topologies and ?save=true")

	return cmd
}
