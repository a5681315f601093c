package output

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sdejongh/webpnorris/pkg/models"
)

// JSONFormatter formats output as JSON for automation and scripting
type JSONFormatter struct {
	mu     sync.Mutex
	writer io.Writer
	errors []string
}

// JSONReportData represents the final report document
type JSONReportData struct {
	RunID      string `json:"run_id"`
	Command    string `json:"command"`
	Root       string `json:"root"`
	DryRun     bool   `json:"dry_run,omitempty"`
	Status     string `json:"status"`
	ExitCode   int    `json:"exit_code"`
	StartTime  string `json:"start_time"`
	Duration   string `json:"duration"`
	DurationMs int64  `json:"duration_ms"`

	Conversion   *models.ConversionSummary `json:"conversion,omitempty"`
	Diagnostics  *JSONDiagnosticData       `json:"diagnostics,omitempty"`
	Verification *JSONVerificationData     `json:"verification,omitempty"`
	Retirement   *models.RetirementSummary `json:"retirement,omitempty"`
	Errors       []models.FileError        `json:"errors,omitempty"`
	Fatal        string                    `json:"fatal,omitempty"`
}

// JSONDiagnosticData adds the derived partitions to the raw results
type JSONDiagnosticData struct {
	Total            int                       `json:"total"`
	Failed           int                       `json:"failed"`
	MissingWebP      int                       `json:"missing_webp"`
	BrokenCompanions int                       `json:"broken_companions"`
	Results          []models.DiagnosticResult `json:"results"`
}

// JSONVerificationData adds totals to the verification summary
type JSONVerificationData struct {
	*models.VerificationSummary
	Originals    int `json:"originals"`
	Converted    int `json:"converted"`
	NotConverted int `json:"not_converted"`
	Placeholders int `json:"possible_placeholders"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Start initializes the formatter
func (f *JSONFormatter) Start(writer io.Writer, report *models.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	return nil
}

// Progress reports progress during the run.
// Nothing is written until Complete so that stdout stays a single document.
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	return nil
}

// Complete writes the report as one indented JSON document
func (f *JSONFormatter) Complete(report *models.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		f.writer = io.Discard
	}

	data := NewJSONReportData(report)
	if data.Fatal == "" && len(f.errors) > 0 {
		data.Fatal = f.errors[len(f.errors)-1]
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Error records an error; it is included in the final document
func (f *JSONFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.errors = append(f.errors, err.Error())
	return nil
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}

// NewJSONReportData converts a run report to its JSON shape
func NewJSONReportData(report *models.RunReport) JSONReportData {
	data := JSONReportData{
		RunID:      report.RunID,
		Command:    report.Command,
		Root:       report.Root,
		DryRun:     report.DryRun,
		Status:     string(report.Status),
		ExitCode:   report.Status.ExitCode(),
		StartTime:  report.StartTime.Format(time.RFC3339),
		Duration:   report.Duration.Round(time.Millisecond).String(),
		DurationMs: report.Duration.Milliseconds(),
		Conversion: report.Conversion,
		Retirement: report.Retirement,
		Errors:     report.Errors,
		Fatal:      report.Fatal,
	}

	if d := report.Diagnostics; d != nil {
		data.Diagnostics = &JSONDiagnosticData{
			Total:            len(d.Results),
			Failed:           len(d.Failed()),
			MissingWebP:      len(d.MissingWebP()),
			BrokenCompanions: len(d.BrokenCompanions()),
			Results:          d.Results,
		}
	}

	if v := report.Verification; v != nil {
		data.Verification = &JSONVerificationData{
			VerificationSummary: v,
			Originals:           v.Counts.Originals(),
			Converted:           len(v.HasWebP),
			NotConverted:        len(v.MissingWebP),
			Placeholders:        len(v.Placeholders()),
		}
	}

	return data
}
