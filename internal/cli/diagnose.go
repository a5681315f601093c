package cli

import (
	"github.com/spf13/cobra"

	"github.com/sdejongh/webpnorris/pkg/config"
	"github.com/sdejongh/webpnorris/pkg/models"
	"github.com/sdejongh/webpnorris/pkg/pipeline"
)

// DiagnoseFlags holds diagnose command flags
type DiagnoseFlags struct {
	RunFlags
	Workers         int
	Backend         string
	CheckCompanions bool
}

var diagnoseFlags DiagnoseFlags

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Check which images can be read and which have a WebP version",
		Long: `Read the header of every .jpg, .jpeg and .png file under the root and
report its format and dimensions, or the reason it cannot be read.
Nothing is written or deleted.`,
		Args: cobra.NoArgs,
		RunE: runDiagnose,
	}

	cmd.Flags().IntVarP(&diagnoseFlags.Workers, "workers", "w", 0, "number of parallel workers (default: 1)")
	cmd.Flags().StringVar(&diagnoseFlags.Backend, "backend", "", "codec backend: native, cwebp")
	cmd.Flags().BoolVar(&diagnoseFlags.CheckCompanions, "check-companions", false, "also read existing WebP files and report unreadable ones")
	addRunFlags(cmd, &diagnoseFlags.RunFlags)

	return cmd
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, models.CommandDiagnose, &diagnoseFlags.RunFlags, func(cfg *config.Config) {
		if diagnoseFlags.Workers > 0 {
			cfg.Convert.Workers = diagnoseFlags.Workers
		}
		if diagnoseFlags.Backend != "" {
			cfg.Convert.Backend = diagnoseFlags.Backend
		}
	})
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := createCodec(s.cfg)
	if err != nil {
		return err
	}

	if err := s.start(cmd.OutOrStdout(), false); err != nil {
		return err
	}

	diagnoser := pipeline.NewDiagnoser(s.backend, c, s.formatter, s.logger, pipeline.DiagnoseOptions{
		Workers:         s.cfg.Convert.Workers,
		CheckCompanions: diagnoseFlags.CheckCompanions,
	})

	summary, runErr := diagnoser.Run(s.ctx)
	s.report.Diagnostics = summary

	return s.finish(runErr)
}
