package cmd

import (
	"github.com/josephlewis42/pipesh/core/config"
	"github.com/josephlewis42/pipesh/core/logger"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// initCmd writes a default configuration
var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write the default configuration into dir, the current directory by default.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		log := logger.NewOrNop(logger.Config{
			Level:       "info",
			Development: true,
			OutputPaths: []string{"stderr"},
		})
		defer log.Sync()

		path, err := config.Initialize(afero.NewOsFs(), dir, log)
		if err != nil {
			return err
		}
		cmd.Printf("Wrote %s, use it with --config %s\n", path, dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
