package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/postboard/internal/app"
	"github.com/debemdeboas/postboard/internal/server"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var host, port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local web viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("host") {
				rootOpts.Config.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				rootOpts.Config.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// The final save in Close must not inherit the cancelled signal context.
			return rootOpts.withApp(context.WithoutCancel(ctx), func(a *app.App) error {
				srv, err := server.New(a, rootOpts.Logger.With().Str("component", "server").Logger())
				if err != nil {
					return err
				}
				defer srv.Close()
				return srv.ListenAndServe(ctx)
			})
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides server.host)")
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides server.port)")
	return cmd
}
