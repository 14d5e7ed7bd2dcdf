package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/sessionhealth/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure sessionhealth (re-run anytime to edit settings)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if _, ok := in.(*os.File); ok && !isTerminal(in) {
			return errors.New("setup needs an interactive terminal; edit the config file directly instead")
		}

		// Start from the global file only so project and environment
		// overrides are not baked into it.
		existing := config.Defaults()
		if global, err := config.LoadGlobal(); err == nil {
			existing = config.Merge(global, nil)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "  ⚠ Existing config unreadable (%v), starting from defaults.\n", err)
		}

		out := cmd.OutOrStdout()
		updated, err := config.RunSetup(in, out, existing)
		if err != nil {
			return fmt.Errorf("setup cancelled: %w", err)
		}
		path, err := config.SaveGlobal(updated)
		if err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		logger.Info("config saved", "path", path)
		fmt.Fprintf(out, "\n  ✓ Config saved to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
