package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jwebster45206/wuxia-session/pkg/source"
	"github.com/spf13/cobra"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current round",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			latest, err := ctx.Simulator.FetchLatestRound(ctx.Ctx)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if ctx.JSONMode {
				return writeJSON(cmd.OutOrStdout(), latest)
			}

			out := cmd.OutOrStdout()
			if latest.Prequel != "" {
				fmt.Fprintln(out, latest.Prequel)
				fmt.Fprintln(out)
			}
			writeRound(out, latest.Round, latest.Location)
			return nil
		},
	}

	return cmd
}

// NewActCmd creates the act command.
func NewActCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "act <action...>",
		Short: "Take one free-text action",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			resp, err := ctx.Simulator.SubmitAction(ctx.Ctx, source.ActionRequest{
				Action: strings.Join(args, " "),
			})
			if err != nil {
				return writeCommandError(cmd, err)
			}
			return writeAction(cmd, ctx, resp)
		},
	}

	return cmd
}

// NewCultivateCmd creates the cultivate command.
func NewCultivateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cultivate [times]",
		Short: "Go into seclusion and train",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			times := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return writeCommandError(cmd, fmt.Errorf("invalid times %q", args[0]))
				}
				times = n
			}

			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			resp, err := ctx.Simulator.StartCultivation(ctx.Ctx, times)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			return writeAction(cmd, ctx, resp)
		},
	}

	return cmd
}

// NewSuicideCmd creates the suicide command.
func NewSuicideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suicide",
		Short: "End the character's life",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if force, _ := cmd.Flags().GetBool("yes"); !force {
				return writeCommandError(cmd, fmt.Errorf("refusing without --yes"))
			}

			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			resp, err := ctx.Simulator.ForceSuicide(ctx.Ctx)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			return writeAction(cmd, ctx, resp)
		},
	}

	cmd.Flags().Bool("yes", false, "confirm")
	return cmd
}

// NewResetCmd creates the reset command.
func NewResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard the saved preview and start over",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			if err := ctx.Simulator.Reset(ctx.Ctx); err != nil {
				return writeCommandError(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Preview reset")
			return nil
		},
	}

	return cmd
}

// writeAction prints the story and the resulting round. The response only
// carries a delta, so the full round is read back from the simulator.
func writeAction(cmd *cobra.Command, ctx *CommandContext, resp *source.ActionResponse) error {
	if ctx.JSONMode {
		return writeJSON(cmd.OutOrStdout(), resp)
	}

	bundle, err := ctx.Simulator.Bundle(ctx.Ctx)
	if err != nil {
		return writeCommandError(cmd, err)
	}

	out := cmd.OutOrStdout()
	if resp.Story != "" {
		fmt.Fprintln(out, resp.Story)
		fmt.Fprintln(out)
	}
	snap := bundle.Round
	writeRound(out, &snap, resp.Location)
	return nil
}
