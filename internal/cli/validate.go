package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sdejongh/webpnorris/internal/platform"
	"github.com/sdejongh/webpnorris/pkg/codec"
	"github.com/sdejongh/webpnorris/pkg/config"
	"github.com/sdejongh/webpnorris/pkg/logging"
	"github.com/sdejongh/webpnorris/pkg/models"
	"github.com/sdejongh/webpnorris/pkg/output"
)

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	return config.Load(globalFlags.ConfigFile)
}

// applyFlagsToConfig overrides config values with the global flags and the
// shared run flags that were set on the command line
func applyFlagsToConfig(cmd *cobra.Command, cfg *config.Config, flags *RunFlags) {
	if globalFlags.Root != "" {
		cfg.Root = globalFlags.Root
	}

	if flags != nil {
		if cmd.Flags().Changed("exclude") {
			cfg.Exclude = flags.Exclude
		}
		if flags.Output != "" {
			cfg.Output.Format = flags.Output
		}
		if flags.LogFile != "" {
			cfg.Logging.Enabled = true
			cfg.Logging.File = flags.LogFile
		}
		if flags.LogFormat != "" {
			cfg.Logging.Format = flags.LogFormat
		}
		if flags.LogLevel != "" {
			cfg.Logging.Level = flags.LogLevel
		}
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}

	// Debug logs to stderr in verbose mode
	if globalFlags.Verbose {
		cfg.Logging.Enabled = true
		cfg.Logging.Level = "debug"
	}
}

// validateRoot checks the configured root and returns it as an absolute path
func validateRoot(cfg *config.Config) (string, error) {
	root, err := platform.ResolveRoot(cfg.Root)
	if err != nil {
		return "", fmt.Errorf("invalid root: %w", err)
	}
	return root, nil
}

// createLogger creates a logger based on configuration. Without a log
// file, enabled logging goes to stderr.
func createLogger(cfg *config.Config, stderr io.Writer) (logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NewNullLogger(), nil
	}

	format := logging.ParseFormat(cfg.Logging.Format)
	level := logging.ParseLevel(cfg.Logging.Level)

	if cfg.Logging.File == "" {
		return logging.NewStreamLogger(stderr, format, level), nil
	}

	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       cfg.Logging.File,
		Format:     format,
		Level:      level,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}

// createFormatter picks the output formatter. The progress bar is used
// only for human output on a terminal and for commands that report
// per-file progress.
func createFormatter(cfg *config.Config, command string, out io.Writer) output.Formatter {
	if cfg.Output.Format == "json" {
		return output.NewJSONFormatter()
	}

	if cfg.Output.Progress && !cfg.Output.Quiet && command != models.CommandVerify && output.IsTerminal(out) {
		return output.NewProgressFormatter()
	}

	return output.NewHumanFormatter(cfg.Output.Quiet)
}

// createCodec creates the configured image codec
func createCodec(cfg *config.Config) (codec.Codec, error) {
	return codec.New(codec.Options{
		Backend:    cfg.Convert.Backend,
		CWebPPath:  cfg.Convert.CWebPPath,
		AutoOrient: cfg.Convert.AutoOrient,
	})
}
