package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the webpnorris command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "webpnorris",
		Short: "Batch WebP conversion for image folders",
		Long: `webpnorris converts the JPG, JPEG and PNG images of a folder tree to WebP
files stored next to them, diagnoses images that cannot be read, verifies
which originals have a WebP version and retires the originals once they do.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewConvertCommand())
	rootCmd.AddCommand(NewDiagnoseCommand())
	rootCmd.AddCommand(NewVerifyCommand())
	rootCmd.AddCommand(NewRetireCommand())
	rootCmd.AddCommand(NewWatchCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
