package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	treeadapter "github.com/bnema/parley-cli/internal/adapters/render/tree"
	"github.com/bnema/parley-cli/internal/domain"
)

func newServersCmd(app *app) *cobra.Command {
	var showPositions bool

	cmd := &cobra.Command{
		Use:   "servers",
		Short: "List servers in their saved display order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.startup(cmd); err != nil {
				return err
			}
			service, err := app.service(cmd.Context())
			if err != nil {
				return err
			}

			servers, err := service.ListServers(cmd.Context())
			if err != nil {
				return fmt.Errorf("list servers: %w", err)
			}
			persisted, err := service.GetServerOrdering(cmd.Context())
			if err != nil {
				return fmt.Errorf("load server ordering: %w", err)
			}

			rendered, err := treeadapter.RenderServers(
				domain.ReconcileServers(servers, persisted),
				treeadapter.RenderOptions{ShowPositions: showPositions},
			)
			if err != nil {
				return fmt.Errorf("render servers: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&showPositions, "positions", false, "Show display indices used by move commands")
	cmd.AddCommand(newServersCreateCmd(app))

	return cmd
}

func newServersCreateCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.startup(cmd); err != nil {
				return err
			}
			service, err := app.service(cmd.Context())
			if err != nil {
				return err
			}

			server, err := service.CreateServer(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created server %s (%s)\n", server.Name, server.ID)
			return nil
		},
	}
}

func newTreeCmd(app *app) *cobra.Command {
	var showPositions bool

	cmd := &cobra.Command{
		Use:   "tree <server-id>",
		Short: "Show a server's categories and channels in display order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.startup(cmd); err != nil {
				return err
			}

			layout, server, err := loadLayout(cmd, app, domain.ServerID(args[0]))
			if err != nil {
				return err
			}

			rendered, err := treeadapter.RenderLayout(server, layout, treeadapter.RenderOptions{ShowPositions: showPositions})
			if err != nil {
				return fmt.Errorf("render layout: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&showPositions, "positions", false, "Show display indices used by move commands")

	return cmd
}

func newSendCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send <channel-id> <message...>",
		Short: "Send a message to a channel",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.startup(cmd); err != nil {
				return err
			}
			service, err := app.service(cmd.Context())
			if err != nil {
				return err
			}

			body := strings.Join(args[1:], " ")
			if err := service.SendMessage(cmd.Context(), domain.ChannelID(args[0]), body); err != nil {
				return fmt.Errorf("send message: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Sent.")
			return nil
		},
	}
}

// loadLayout fetches live categories and channels plus the persisted ordering
// record for one server and reconciles them into the render-ready layout.
func loadLayout(cmd *cobra.Command, app *app, serverID domain.ServerID) ([]domain.CategoryView, domain.Server, error) {
	service, err := app.service(cmd.Context())
	if err != nil {
		return nil, domain.Server{}, err
	}

	servers, err := service.ListServers(cmd.Context())
	if err != nil {
		return nil, domain.Server{}, fmt.Errorf("list servers: %w", err)
	}
	var server domain.Server
	for _, candidate := range servers {
		if candidate.ID == serverID {
			server = candidate
			break
		}
	}
	if server.ID == "" {
		return nil, domain.Server{}, fmt.Errorf("unknown server %q", serverID)
	}

	categories, err := service.ListCategories(cmd.Context(), serverID)
	if err != nil {
		return nil, domain.Server{}, fmt.Errorf("list categories: %w", err)
	}
	channels, err := service.ListChannels(cmd.Context(), serverID)
	if err != nil {
		return nil, domain.Server{}, fmt.Errorf("list channels: %w", err)
	}
	ordering, err := service.GetChannelOrdering(cmd.Context(), serverID)
	if err != nil {
		return nil, domain.Server{}, fmt.Errorf("load channel ordering: %w", err)
	}

	return domain.ReconcileLayout(categories, channels, ordering), server, nil
}
