package cli

import (
	"github.com/spf13/cobra"

	"github.com/sdejongh/webpnorris/pkg/config"
	"github.com/sdejongh/webpnorris/pkg/models"
	"github.com/sdejongh/webpnorris/pkg/pipeline"
)

// ConvertFlags holds convert command flags
type ConvertFlags struct {
	RunFlags
	Quality    int
	Workers    int
	Backend    string
	CWebPPath  string
	Collisions string
	NoOrient   bool
}

var convertFlags ConvertFlags

// NewConvertCommand creates the convert command
func NewConvertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Write a WebP version next to every JPG, JPEG and PNG",
		Long: `Convert every .jpg, .jpeg and .png file under the root to a lossy WebP
file with the same base name in the same folder. Existing WebP files are
overwritten. Files that cannot be converted are reported and skipped.`,
		Args: cobra.NoArgs,
		RunE: runConvert,
	}

	cmd.Flags().IntVar(&convertFlags.Quality, "quality", 0, "WebP quality 0-100 (default: 90)")
	cmd.Flags().IntVarP(&convertFlags.Workers, "workers", "w", 0, "number of parallel workers (default: 1)")
	cmd.Flags().StringVar(&convertFlags.Backend, "backend", "", "codec backend: native, cwebp")
	cmd.Flags().StringVar(&convertFlags.CWebPPath, "cwebp", "", "path to the cwebp binary")
	cmd.Flags().StringVar(&convertFlags.Collisions, "collisions", "", "sources sharing one WebP file: warn, fail")
	cmd.Flags().BoolVar(&convertFlags.NoOrient, "no-orient", false, "do not apply EXIF orientation")
	addRunFlags(cmd, &convertFlags.RunFlags)

	return cmd
}

func applyConvertFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("quality") {
		cfg.Convert.Quality = convertFlags.Quality
	}
	if convertFlags.Workers > 0 {
		cfg.Convert.Workers = convertFlags.Workers
	}
	if convertFlags.Backend != "" {
		cfg.Convert.Backend = convertFlags.Backend
	}
	if convertFlags.CWebPPath != "" {
		cfg.Convert.CWebPPath = convertFlags.CWebPPath
	}
	if convertFlags.Collisions != "" {
		cfg.Convert.Collisions = convertFlags.Collisions
	}
	if convertFlags.NoOrient {
		cfg.Convert.AutoOrient = false
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, models.CommandConvert, &convertFlags.RunFlags, func(cfg *config.Config) {
		applyConvertFlags(cmd, cfg)
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

	converter := pipeline.NewConverter(s.backend, c, s.formatter, s.logger, pipeline.ConvertOptions{
		Quality:         s.cfg.Convert.Quality,
		Workers:         s.cfg.Convert.Workers,
		FailOnCollision: s.cfg.Convert.Collisions == config.CollisionFail,
	})

	summary, runErr := converter.Run(s.ctx)
	s.report.Conversion = summary

	return s.finish(runErr)
}
