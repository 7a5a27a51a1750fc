package command

import (
	"context"
	"fmt"

	"github.com/jwebster45206/wuxia-session/pkg/source"
	"github.com/spf13/cobra"
)

// NewInventoryCmd creates the inventory command.
func NewInventoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inventory",
		Aliases: []string{"inv"},
		Short:   "List carried items",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			items, err := ctx.Simulator.FetchInventory(ctx.Ctx)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if ctx.JSONMode {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			writeInventory(cmd.OutOrStdout(), items)
			return nil
		},
	}

	return cmd
}

// NewEquipCmd creates the equip command.
func NewEquipCmd() *cobra.Command {
	return newItemCmd("equip", "Equip an item, or take it off if already equipped",
		func(ctx *CommandContext) itemCall { return ctx.Simulator.EquipItem })
}

// NewUnequipCmd creates the unequip command.
func NewUnequipCmd() *cobra.Command {
	return newItemCmd("unequip", "Take off an equipped item",
		func(ctx *CommandContext) itemCall { return ctx.Simulator.UnequipItem })
}

// NewDropCmd creates the drop command.
func NewDropCmd() *cobra.Command {
	return newItemCmd("drop", "Drop a whole stack",
		func(ctx *CommandContext) itemCall { return ctx.Simulator.DropItem })
}

type itemCall func(ctx context.Context, instanceID string) (*source.InventoryResponse, error)

func newItemCmd(use, short string, pick func(*CommandContext) itemCall) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <instance-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			resp, err := pick(ctx)(ctx.Ctx, args[0])
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if ctx.JSONMode {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			if !resp.Success {
				return writeCommandError(cmd, fmt.Errorf("%s rejected: %s", use, resp.Message))
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			writeInventory(cmd.OutOrStdout(), resp.Inventory)
			return nil
		},
	}

	return cmd
}
