package cli

import (
	"fmt"
	"os"
	"time"

	"plumcave/tui/backup"
	"plumcave/tui/logger"
	"plumcave/tui/logger/console"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newFetchCmd(opts *rootOptions) *cobra.Command {
	var tagArg, outDir string

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Restore a shared backup from its tag",
		Long: `Fetches the backup a share tag points at from the configured storage,
checks its integrity and writes it into --out. No login is needed, the
tag carries the keys. Existing files are never overwritten.

Examples:
  plumcave fetch --tag "$TAG" --out ~/Downloads
  pbpaste | plumcave fetch --tag -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.loadSettings()
			if err != nil {
				return err
			}
			log := console.New(cmd.ErrOrStderr(), logger.ParseLevel(settings.Log.Level))

			var tagArgs []string
			if tagArg != "" {
				tagArgs = []string{tagArg}
			}
			tag, err := readTag(cmd.InOrStdin(), tagArgs)
			if err != nil {
				return err
			}

			if outDir == "" {
				if outDir, err = os.Getwd(); err != nil {
					return err
				}
			}
			if err := os.MkdirAll(outDir, 0700); err != nil {
				return fmt.Errorf("failed to create %s: %w", outDir, err)
			}

			d, err := newDeps(cmd.Context(), settings, log)
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions(100,
				progressbar.OptionSetDescription("fetching"),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetWidth(40),
				progressbar.OptionThrottle(100*time.Millisecond),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprint(cmd.ErrOrStderr(), "\n")
				}),
				progressbar.OptionSetRenderBlankState(true),
			)
			var progress backup.Progress = func(stage string, done float64) {
				bar.Describe(stage)
				bar.Set(int(done * 100))
			}

			path, err := d.manager.FetchShared(cmd.Context(), tag, outDir, progress)
			if err != nil {
				bar.Exit()
				return fmt.Errorf("fetch failed: %w", err)
			}
			bar.Finish()

			size := "?"
			if info, err := os.Stat(path); err == nil {
				size = units.HumanSize(float64(info.Size()))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Restored %s (%s)\n", color.GreenString("✓"), path, size)
			return nil
		},
	}

	fetchCmd.Flags().StringVarP(&tagArg, "tag", "t", "", `share tag, "-" reads it from stdin`)
	fetchCmd.Flags().StringVarP(&outDir, "out", "o", "", "directory to restore into (default: current directory)")

	return fetchCmd
}
