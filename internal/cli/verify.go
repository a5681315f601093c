package cli

import (
	"github.com/spf13/cobra"

	"github.com/sdejongh/webpnorris/pkg/config"
	"github.com/sdejongh/webpnorris/pkg/models"
	"github.com/sdejongh/webpnorris/pkg/pipeline"
)

// VerifyFlags holds verify command flags
type VerifyFlags struct {
	RunFlags
	PlaceholderThreshold int64
}

var verifyFlags VerifyFlags

// NewVerifyCommand creates the verify command
func NewVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Report which originals have a WebP version",
		Long: `Count the .jpg, .jpeg, .png and .webp files under the root and list the
originals that have no WebP file with the same base name. Very small
originals are flagged as possible placeholders. Nothing is modified.`,
		Args: cobra.NoArgs,
		RunE: runVerify,
	}

	cmd.Flags().Int64Var(&verifyFlags.PlaceholderThreshold, "placeholder-threshold", 0, "size in bytes below which a missing original is flagged (default: 100)")
	addRunFlags(cmd, &verifyFlags.RunFlags)

	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, models.CommandVerify, &verifyFlags.RunFlags, func(cfg *config.Config) {
		if cmd.Flags().Changed("placeholder-threshold") {
			cfg.Verify.PlaceholderThreshold = verifyFlags.PlaceholderThreshold
		}
	})
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.start(cmd.OutOrStdout(), false); err != nil {
		return err
	}

	verifier := pipeline.NewVerifier(s.backend, s.logger, s.cfg.Verify.PlaceholderThreshold)

	summary, runErr := verifier.Verify(s.ctx)
	s.report.Verification = summary

	return s.finish(runErr)
}
