package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdejongh/webpnorris/pkg/models"
	"github.com/sdejongh/webpnorris/pkg/pipeline"
)

// RetireFlags holds retire command flags
type RetireFlags struct {
	RunFlags
	DryRun bool
	Yes    bool
}

var retireFlags RetireFlags

// NewRetireCommand creates the retire command
func NewRetireCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retire",
		Short: "Delete originals that have a WebP version",
		Long: `Delete every .jpg, .jpeg and .png file under the root for which a WebP
file with the same base name exists in the same folder. Originals without
a WebP version are kept. Only the existence of the WebP file is checked,
not its content.

This is destructive. Run verify first, or use --dry-run to see what would
be deleted.`,
		Args: cobra.NoArgs,
		RunE: runRetire,
	}

	cmd.Flags().BoolVar(&retireFlags.DryRun, "dry-run", false, "report what would be deleted without deleting")
	cmd.Flags().BoolVarP(&retireFlags.Yes, "yes", "y", false, "do not ask for confirmation")
	addRunFlags(cmd, &retireFlags.RunFlags)

	return cmd
}

func runRetire(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, models.CommandRetire, &retireFlags.RunFlags, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	if !retireFlags.DryRun && !retireFlags.Yes {
		ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(),
			fmt.Sprintf("Delete every original under %s that has a WebP version? [y/N]: ", s.backend.Root()))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.ErrOrStderr(), "Aborted, nothing was deleted.")
			s.logger.Info(s.ctx, "retirement declined", nil)
			return nil
		}
	}

	if err := s.start(cmd.OutOrStdout(), retireFlags.DryRun); err != nil {
		return err
	}

	retirer := pipeline.NewRetirer(s.backend, s.formatter, s.logger, retireFlags.DryRun)

	summary, runErr := retirer.RetireOriginals(s.ctx)
	s.report.Retirement = summary

	return s.finish(runErr)
}

// confirm asks a yes/no question; anything but y or yes is a no
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
