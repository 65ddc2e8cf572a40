package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"plumcave/tui/backup"
	"plumcave/tui/core"
	"plumcave/tui/logger"
	"plumcave/tui/logger/console"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newTagCmd(opts *rootOptions) *cobra.Command {
	var preview bool

	tagCmd := &cobra.Command{
		Use:   "tag",
		Short: "Work with share tags",
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect [TAG]",
		Short: "Decode a share tag without fetching anything",
		Long: `Decodes a share tag and prints the owner email, the backup id and the
sizes of the two keys it carries. The keys themselves are never printed.
With --preview the backup record is read from the configured storage and
its name and description are opened, the payload is not downloaded.

Pass the tag as an argument, or "-" (or nothing) to read it from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readTag(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			tag, err := core.DecodeTag(raw)
			if err != nil {
				return err
			}
			defer tag.Clear()

			printTag(cmd.OutOrStdout(), tag)
			if !preview {
				return nil
			}

			settings, err := opts.loadSettings()
			if err != nil {
				return err
			}
			d, err := newDeps(cmd.Context(), settings, console.New(cmd.ErrOrStderr(), logger.ParseLevel(settings.Log.Level)))
			if err != nil {
				return err
			}
			info, err := d.manager.PreviewShared(cmd.Context(), raw)
			if err != nil {
				return fmt.Errorf("preview failed: %w", err)
			}
			printPreview(cmd.OutOrStdout(), info)
			return nil
		},
	}
	inspectCmd.Flags().BoolVarP(&preview, "preview", "p", false, "open the backup name and description from storage")
	tagCmd.AddCommand(inspectCmd)

	return tagCmd
}

// readTag takes the tag from args, or the first line of in.
func readTag(in io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read tag: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("no tag given")
	}
	return line, nil
}

// printTag shows what a tag points at. DecodeTag already checked the key sizes.
func printTag(out io.Writer, tag *core.Tag) {
	fmt.Fprintf(out, "%s %s\n", color.CyanString("email:       "), tag.Email)
	fmt.Fprintf(out, "%s %s\n", color.CyanString("backup id:   "), tag.BackupID)
	fmt.Fprintf(out, "%s %d bytes\n", color.CyanString("metadata key:"), len(tag.MetadataKey))
	fmt.Fprintf(out, "%s %d bytes\n", color.CyanString("file key:    "), len(tag.FileKey))
}

func printPreview(out io.Writer, info *backup.Info) {
	desc := info.Description
	if desc == "" {
		desc = color.HiBlackString("(none)")
	}
	fmt.Fprintf(out, "%s %s\n", color.CyanString("name:        "), info.Name)
	fmt.Fprintf(out, "%s %s\n", color.CyanString("description: "), desc)
	fmt.Fprintf(out, "%s %s\n", color.CyanString("stored size: "), units.HumanSize(float64(info.EncryptedSize)))
	fmt.Fprintf(out, "%s %s\n", color.CyanString("created:     "), info.CreatedAt.Local().Format("2006-01-02 15:04:05"))
}
