package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sdejongh/webpnorris/pkg/config"
	"github.com/sdejongh/webpnorris/pkg/logging"
	"github.com/sdejongh/webpnorris/pkg/models"
	"github.com/sdejongh/webpnorris/pkg/output"
	"github.com/sdejongh/webpnorris/pkg/pipeline"
)

// WatchFlags holds watch command flags
type WatchFlags struct {
	RunFlags
	Quality  int
	Backend  string
	Debounce time.Duration
	Initial  bool
}

var watchFlags WatchFlags

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Convert new images as they appear",
		Long: `Watch the root and its subfolders and convert every .jpg, .jpeg and .png
file once it has been created or rewritten and left alone for the debounce
interval. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}

	cmd.Flags().IntVar(&watchFlags.Quality, "quality", 0, "WebP quality 0-100 (default: 90)")
	cmd.Flags().StringVar(&watchFlags.Backend, "backend", "", "codec backend: native, cwebp")
	cmd.Flags().DurationVar(&watchFlags.Debounce, "debounce", pipeline.DefaultDebounce, "quiet period before a changed file is converted")
	cmd.Flags().BoolVar(&watchFlags.Initial, "initial", false, "convert existing images before watching")
	addRunFlags(cmd, &watchFlags.RunFlags)

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, models.CommandConvert, &watchFlags.RunFlags, func(cfg *config.Config) {
		if cmd.Flags().Changed("quality") {
			cfg.Convert.Quality = watchFlags.Quality
		}
		if watchFlags.Backend != "" {
			cfg.Convert.Backend = watchFlags.Backend
		}
		// per-file lines instead of a bar that never completes
		cfg.Output.Progress = false
	})
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := createCodec(s.cfg)
	if err != nil {
		return err
	}

	converter := pipeline.NewConverter(s.backend, c, s.formatter, s.logger, pipeline.ConvertOptions{
		Quality:         s.cfg.Convert.Quality,
		Workers:         s.cfg.Convert.Workers,
		FailOnCollision: s.cfg.Convert.Collisions == config.CollisionFail,
	})

	if watchFlags.Initial {
		if err := s.start(cmd.OutOrStdout(), false); err != nil {
			return err
		}
		summary, runErr := converter.Run(s.ctx)
		s.report.Conversion = summary
		if err := s.finish(runErr); err != nil {
			return err
		}
	} else if err := s.formatter.Start(cmd.OutOrStdout(), s.report); err != nil {
		return err
	}

	watcher := pipeline.NewWatcher(s.backend, converter, s.logger, watchFlags.Debounce)
	return watcher.Run(s.ctx, func(o models.ConversionOutcome) {
		update := output.ProgressUpdate{Type: output.EventFileComplete, FilePath: o.SourcePath, Target: o.WebPPath}
		if !o.OK() {
			update = output.ProgressUpdate{Type: output.EventFileError, FilePath: o.SourcePath, Error: o.Err()}
		}
		if err := s.formatter.Progress(update); err != nil {
			s.logger.Warn(s.ctx, "cannot render progress", logging.Fields{"error": err.Error()})
		}
	})
}
