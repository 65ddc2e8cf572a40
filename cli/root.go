// Package cli is the plumcave command line. With no subcommand it runs the
// TUI, the subcommands cover what works without a session.
package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"plumcave/tui/stages/auxiliary"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X plumcave/tui/cli.Version=...".
var Version = "v0.1.0-dev"

type rootOptions struct {
	configPath string
	logLevel   string
}

// loadSettings reads --config, falling back to the default location, and
// applies --log-level on top.
func (o *rootOptions) loadSettings() (*auxiliary.Settings, error) {
	path := o.configPath
	if path == "" {
		var err error
		if path, err = auxiliary.DefaultPath(); err != nil {
			return nil, err
		}
	}
	settings, err := auxiliary.Load(path)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		settings.Log.Level = strings.ToUpper(o.logLevel)
	}
	return settings, nil
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "plumcave",
		Short: "Zero-knowledge client side backups",
		Long: `plumcave ` + Version + `
Encrypted backups where every key is made on this machine. The storage
backend (S3, Azure Blob or a document service) only sees ciphertext
chunks and random ids.

Run without a subcommand to open the terminal UI.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.loadSettings()
			if err != nil {
				return err
			}
			return runTUI(cmd.Context(), settings)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"config file (default $"+auxiliary.ENV_CONFIG_PATH+" or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level: debug, info, warn or error")
	rootCmd.Version = Version

	rootCmd.AddCommand(newTagCmd(opts))
	rootCmd.AddCommand(newFetchCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// Execute runs the root command, cancelling its context on SIGINT or
// SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
