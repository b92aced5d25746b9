package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/josephlewis42/pipesh/commands"
	"github.com/josephlewis42/pipesh/core/config"
	"github.com/josephlewis42/pipesh/core/logger"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgPath    string
	command    string
	exitStatus int
)

func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	if cfgPath == "" {
		return config.LoadDefault()
	}

	configuration, err := config.Load(afero.NewOsFs(), cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		cmd.PrintErrln("Couldn't load config: did you run init?")
	}
	return configuration, err
}

func newLogger(configuration *config.Configuration) (*zap.Logger, error) {
	cfg := logger.Config{
		Level:       configuration.Log.Level,
		Development: configuration.Log.Development,
	}
	if configuration.Log.Path != "" {
		cfg.OutputPaths = []string{configuration.Log.Path}
	}
	return logger.New(cfg)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pipesh [flags] [script]",
	Short: "A small interactive shell",
	Long: `pipesh runs pipelines of external programs with redirections, aliases
and a handful of builtins.

With -c it runs a single line, given a script it runs each of its lines,
otherwise it reads commands from the terminal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		log, err := newLogger(configuration)
		if err != nil {
			return fmt.Errorf("couldn't start logger: %w", err)
		}
		defer log.Sync()
		log, sessionID := logger.NewSession(log)
		log.Info("starting shell", zap.String("config", configuration.Dir()))

		sh := commands.NewShell(commands.Options{
			Stdin:          os.Stdin,
			Stdout:         cmd.OutOrStdout(),
			Stderr:         cmd.ErrOrStderr(),
			Config:         configuration,
			Logger:         log,
			TrapInterrupts: true,
		})
		sh.Env.Setenv("PIPESH_SESSION", sessionID)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		switch {
		case cmd.Flags().Changed("command"):
			defer sh.Close()
			exitStatus = sh.RunLine(ctx, command)

		case len(args) == 1:
			defer sh.Close()
			script, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer script.Close()
			exitStatus = sh.RunScript(ctx, script)

		case isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()):
			exitStatus, err = sh.Run(ctx)
			if err != nil {
				return err
			}

		default:
			defer sh.Close()
			exitStatus = sh.RunScript(ctx, os.Stdin)
		}

		log.Info("shell exited", zap.Int("status", exitStatus))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
	os.Exit(exitStatus)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config directory, built in defaults if empty")
	rootCmd.Flags().StringVarP(&command, "command", "c", "", "run the command line and exit")
}
