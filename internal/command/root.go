// Package command implements the preview CLI, which plays the offline
// simulator one command at a time against a persistent store.
package command

import (
	"os"

	"github.com/spf13/cobra"
)

const AppName = "wuxia-preview"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Play the offline wuxia preview from the command line",
		Long:          "wuxia-preview drives the offline simulator one action at a time. State persists in the configured preview store between runs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("store", "", "preview store (memory, redis, sqlite); overrides PREVIEW_STORE")
	cmd.PersistentFlags().String("db", "", "sqlite database path; overrides SQLITE_PATH")
	cmd.PersistentFlags().Bool("json", false, "output in JSON format")

	cmd.AddCommand(
		NewShowCmd(),
		NewActCmd(),
		NewCultivateCmd(),
		NewSuicideCmd(),
		NewResetCmd(),
		NewInventoryCmd(),
		NewEquipCmd(),
		NewUnequipCmd(),
		NewDropCmd(),
	)

	return cmd
}

func Execute() error {
	return NewRootCmd(Version).Execute()
}
