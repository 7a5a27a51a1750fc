package command

import (
	"errors"
	"fmt"

	"github.com/jwebster45206/wuxia-session/pkg/offline"
	"github.com/spf13/cobra"
)

// writeCommandError prints err to stderr and returns it so cobra exits non-zero.
func writeCommandError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())

	if errors.Is(err, offline.ErrPlayerDead) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Hint: the character is dead. Start over with: %s reset\n", AppName)
	}

	return err
}
