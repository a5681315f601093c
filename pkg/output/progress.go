package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"github.com/sdejongh/webpnorris/pkg/models"
)

const barTemplate pb.ProgressBarTemplate = `{{string . "prefix"}}{{counters . }} {{bar . }} {{percent . }} {{etime . }}`

// ProgressFormatter shows a progress bar while files are processed and
// prints the human summary at the end. Per-file errors are shown in the
// summary rather than interleaved with the bar.
type ProgressFormatter struct {
	mu        sync.Mutex
	writer    io.Writer
	summary   *HumanFormatter
	bar       *pb.ProgressBar
	termWidth int
	prefix    string
}

// NewProgressFormatter creates a new progress bar formatter
func NewProgressFormatter() *ProgressFormatter {
	return &ProgressFormatter{
		summary: NewHumanFormatter(false),
	}
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// Start initializes the formatter
func (f *ProgressFormatter) Start(writer io.Writer, report *models.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer

	// Detect terminal width to prevent line wrapping issues
	if file, ok := writer.(*os.File); ok {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			f.termWidth = width
		}
	}
	if f.termWidth == 0 {
		f.termWidth = 120
	}

	switch report.Command {
	case models.CommandConvert:
		f.prefix = "Converting "
	case models.CommandDiagnose:
		f.prefix = "Diagnosing "
	case models.CommandRetire:
		f.prefix = "Retiring "
	default:
		f.prefix = "Scanning "
	}

	// header lines only; the bar replaces per-file lines
	return f.summary.Start(writer, report)
}

// Progress advances the bar
func (f *ProgressFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch update.Type {
	case EventScanComplete:
		if f.bar != nil {
			f.bar.Finish()
		}
		f.bar = pb.New(update.TotalFiles)
		f.bar.SetTemplate(barTemplate)
		f.bar.SetWriter(f.writer)
		f.bar.SetMaxWidth(f.termWidth)
		f.bar.Set("prefix", f.prefix)
		f.bar.Start()

	case EventFileComplete, EventFileSkipped, EventFileWarning, EventFileError:
		if f.bar != nil {
			f.bar.Increment()
		}
	}

	return nil
}

// Complete stops the bar and displays the summary
func (f *ProgressFormatter) Complete(report *models.RunReport) error {
	f.mu.Lock()
	if f.bar != nil {
		f.bar.Finish()
		f.bar = nil
	}
	f.mu.Unlock()

	if len(report.Errors) > 0 && f.writer != nil {
		fmt.Fprintf(f.writer, "\nErrors:\n")
		for _, e := range report.Errors {
			fmt.Fprintf(f.writer, "  %s: %s\n", f.summary.rel(e.Path), e.Error)
		}
	}

	return f.summary.Complete(report)
}

// Error reports an error
func (f *ProgressFormatter) Error(err error) error {
	f.mu.Lock()
	if f.bar != nil {
		f.bar.Finish()
		f.bar = nil
	}
	f.mu.Unlock()

	return f.summary.Error(err)
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}
