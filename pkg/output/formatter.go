package output

import (
	"io"

	"github.com/sdejongh/webpnorris/pkg/models"
)

// Progress event types
const (
	EventScanComplete = "scan_complete"
	EventFileStart    = "file_start"
	EventFileComplete = "file_complete"
	EventFileSkipped  = "file_skipped"
	EventFileWarning  = "file_warning"
	EventFileError    = "file_error"
)

// ProgressUpdate represents a progress notification during a run
type ProgressUpdate struct {
	Type        string
	FilePath    string
	Target      string // companion path, when relevant
	Detail      string // extra context for warnings
	CurrentFile int
	TotalFiles  int
	Error       error
}

// Formatter defines the interface for output formatting
// Implementations include human-readable, progress bar and JSON formatters
type Formatter interface {
	// Start initializes the formatter for a new run
	Start(writer io.Writer, report *models.RunReport) error

	// Progress reports progress during the run. Safe for concurrent use.
	Progress(update ProgressUpdate) error

	// Complete finalizes output and displays summary
	Complete(report *models.RunReport) error

	// Error reports an error that ended the run
	Error(err error) error

	// Name returns the formatter name
	Name() string
}
