package cmd

import (
	"fmt"

	"github.com/josephlewis42/pipesh/commands"
	"github.com/spf13/cobra"
)

// builtinsCmd lists the shell's builtins
var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the builtin commands of the shell.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, entry := range commands.DefaultRegistry().Entries() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-30s %s\n", entry.Use, entry.Short)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
