package cmd

import (
	"fmt"

	"github.com/samsaffron/term-chat/internal/ui"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run the setup wizard",
	Long:  `Run the interactive setup wizard, overwriting the current config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := ui.RunSetupWizard()
		if err != nil {
			return err
		}
		fmt.Printf("Ready. Default backend: %s\n", cfg.Backend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
