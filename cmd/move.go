package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bnema/parley-cli/internal/domain"
)

func newMoveCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move",
		Short: "Reorder servers, categories and channels",
	}

	cmd.AddCommand(
		newMoveServerCmd(app),
		newMoveCategoryCmd(app),
		newMoveChannelCmd(app),
		newMoveChannelToCmd(app),
	)

	return cmd
}

func parseDirection(raw string) (up bool, err error) {
	switch raw {
	case "up":
		return true, nil
	case "down":
		return false, nil
	default:
		return false, fmt.Errorf("direction must be up or down, got %q", raw)
	}
}

func parseIndex(raw string) (int, error) {
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("index must be a non-negative integer, got %q", raw)
	}
	return index, nil
}

func newMoveServerCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "server <index> <up|down>",
		Short: "Move a server within the server list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			up, err := parseDirection(args[1])
			if err != nil {
				return err
			}

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

			// Seed the move from the reconciled order, not the raw record.
			reconciled := domain.ReconcileServers(servers, persisted)
			order := make([]domain.ServerID, 0, len(reconciled))
			for _, server := range reconciled {
				order = append(order, server.ID)
			}

			if up {
				order = domain.MoveUp(order, index)
			} else {
				order = domain.MoveDown(order, index)
			}

			if err := service.SetServerOrdering(cmd.Context(), order); err != nil {
				return fmt.Errorf("save server ordering: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Server order saved.")
			return nil
		},
	}
}

func newMoveCategoryCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "category <server-id> <index> <up|down>",
		Short: "Move a category within a server",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			up, err := parseDirection(args[2])
			if err != nil {
				return err
			}

			if err := app.startup(cmd); err != nil {
				return err
			}

			serverID := domain.ServerID(args[0])
			layout, _, err := loadLayout(cmd, app, serverID)
			if err != nil {
				return err
			}

			ordering := domain.LayoutOrdering(layout)
			if up {
				ordering.Categories = domain.MoveUp(ordering.Categories, index)
			} else {
				ordering.Categories = domain.MoveDown(ordering.Categories, index)
			}

			return saveChannelOrdering(cmd, app, serverID, ordering)
		},
	}
}

func newMoveChannelCmd(app *app) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "channel <server-id> <category-id> <index> <up|down>",
		Short: "Move a channel within its category",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			up, err := parseDirection(args[3])
			if err != nil {
				return err
			}
			channelKind := domain.ChannelKind(kind)
			if !channelKind.Valid() {
				return fmt.Errorf("unknown channel kind %q", kind)
			}

			if err := app.startup(cmd); err != nil {
				return err
			}

			serverID := domain.ServerID(args[0])
			layout, _, err := loadLayout(cmd, app, serverID)
			if err != nil {
				return err
			}

			ordering := domain.LayoutOrdering(layout)
			categoryID := domain.CategoryID(args[1])
			if up {
				ordering = domain.MoveChannelUp(ordering, categoryID, channelKind, index)
			} else {
				ordering = domain.MoveChannelDown(ordering, categoryID, channelKind, index)
			}

			return saveChannelOrdering(cmd, app, serverID, ordering)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(domain.ChannelKindText), "Channel kind (text or voice)")

	return cmd
}

func newMoveChannelToCmd(app *app) *cobra.Command {
	var position int

	cmd := &cobra.Command{
		Use:   "channel-to <server-id> <channel-id> <to-category-id>",
		Short: "Move a channel to another category",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.startup(cmd); err != nil {
				return err
			}

			serverID := domain.ServerID(args[0])
			channelID := domain.ChannelID(args[1])
			toCategory := domain.CategoryID(args[2])

			layout, _, err := loadLayout(cmd, app, serverID)
			if err != nil {
				return err
			}

			channel, err := findChannel(layout, channelID)
			if err != nil {
				return err
			}

			ordering := domain.MoveChannelToCategory(
				domain.LayoutOrdering(layout),
				channelID,
				channel.CategoryID,
				toCategory,
				channel.Kind,
				position,
			)

			return saveChannelOrdering(cmd, app, serverID, ordering)
		},
	}

	cmd.Flags().IntVar(&position, "position", -1, "Target position within the category (-1 appends)")

	return cmd
}

func findChannel(layout []domain.CategoryView, id domain.ChannelID) (domain.Channel, error) {
	for _, view := range layout {
		for _, channel := range append(append([]domain.Channel(nil), view.Text...), view.Voice...) {
			if channel.ID == id {
				return channel, nil
			}
		}
	}
	return domain.Channel{}, fmt.Errorf("unknown channel %q", id)
}

func saveChannelOrdering(cmd *cobra.Command, app *app, serverID domain.ServerID, ordering domain.ChannelOrdering) error {
	service, err := app.service(cmd.Context())
	if err != nil {
		return err
	}

	if err := service.UpdateChannelOrdering(cmd.Context(), serverID, ordering); err != nil {
		return fmt.Errorf("save channel ordering: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Channel order saved.")
	return nil
}
