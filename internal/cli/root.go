// Package cli provides the polyctl command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

// Execute creates and runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the polyctl command tree.
func NewRootCommand() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:          "polyctl",
		Short:        "Polymorphic serializer tools",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flags.EnvFile, "env-file", ".env", "Path to a dotenv file; ignored when missing")

	rootCmd.AddCommand(newValidateCommand(&flags))
	rootCmd.AddCommand(newFormsCommand(&flags))
	rootCmd.AddCommand(newSchemaCommand(&flags))
	rootCmd.AddCommand(newServeCommand(&flags))
	rootCmd.AddCommand(newCheckCommand())

	return rootCmd
}
