package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sdejongh/webpnorris/pkg/config"
	"github.com/sdejongh/webpnorris/pkg/logging"
	"github.com/sdejongh/webpnorris/pkg/models"
	"github.com/sdejongh/webpnorris/pkg/output"
	"github.com/sdejongh/webpnorris/pkg/storage"
)

// ExitError carries a non-zero process exit code for a completed run
// whose outcome was already reported
type ExitError struct {
	Code   int
	Status models.RunStatus
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("run %s (exit code %d)", e.Status, e.Code)
}

// session holds everything one command run needs
type session struct {
	ctx       context.Context
	cfg       *config.Config
	backend   *storage.Local
	logger    logging.Logger
	formatter output.Formatter
	report    *models.RunReport
	flags     *RunFlags
	baseLog   logging.Logger
}

// newSession loads and validates the configuration, opens the root and
// starts the formatter. override applies command-specific flags.
func newSession(cmd *cobra.Command, command string, flags *RunFlags, override func(*config.Config)) (*session, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	applyFlagsToConfig(cmd, cfg, flags)
	if override != nil {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	root, err := validateRoot(cfg)
	if err != nil {
		return nil, err
	}

	backend, err := storage.NewLocal(root, cfg.Exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to open root: %w", err)
	}

	baseLog, err := createLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	report := models.NewRunReport(uuid.New().String(), command, root)
	logger := baseLog.WithFields(logging.Fields{
		"run_id":  report.RunID,
		"command": command,
		"root":    root,
	})

	s := &session{
		ctx:       ctx,
		cfg:       cfg,
		backend:   backend,
		logger:    logger,
		formatter: createFormatter(cfg, command, cmd.OutOrStdout()),
		report:    report,
		flags:     flags,
		baseLog:   baseLog,
	}
	return s, nil
}

// start renders the header; dryRun is recorded before it
func (s *session) start(out io.Writer, dryRun bool) error {
	s.report.DryRun = dryRun
	s.logger.Info(s.ctx, "run started", logging.Fields{"dry_run": dryRun})
	return s.formatter.Start(out, s.report)
}

// finish stamps the report, renders the summary, writes the report file
// and maps the status to an exit code
func (s *session) finish(runErr error) error {
	s.report.Finish(runErr)

	if runErr != nil && s.report.Status == models.StatusFailed {
		s.logger.Error(s.ctx, "run failed", runErr, nil)
	}

	if err := s.formatter.Complete(s.report); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}

	if s.flags != nil && s.flags.Report != "" {
		if err := output.WriteReport(s.report, s.flags.Report, s.flags.ReportFormat); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	s.logger.Info(s.ctx, "run finished", logging.Fields{
		"status":      string(s.report.Status),
		"duration_ms": s.report.Duration.Milliseconds(),
		"errors":      len(s.report.Errors),
	})

	if code := s.report.Status.ExitCode(); code != 0 {
		return &ExitError{Code: code, Status: s.report.Status}
	}
	return nil
}

func (s *session) Close() {
	s.backend.Close()
	s.baseLog.Close()
}
