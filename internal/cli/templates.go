package cli

import (
	"github.com/spf13/cobra"

	"github.com/forgeworks/genforge/internal/prompt"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage prompt templates",
}

var templatesInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the built-in prompt templates to ~/.genforge/templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := prompt.InstallBuiltinTemplates(); err != nil {
			return err
		}
		cmd.Println("Templates installed.")
		return nil
	},
}

func init() {
	templatesCmd.AddCommand(templatesInstallCmd)
}
