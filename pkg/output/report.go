package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sdejongh/webpnorris/pkg/models"
)

// WriteReport writes the categorized run report to a file.
// Format can be "human" or "json".
func WriteReport(report *models.RunReport, path string, format string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	switch format {
	case "json":
		err = writeReportJSON(report, file)
	default: // "human"
		err = writeReportHuman(report, file)
	}
	if err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	return file.Close()
}

// writeReportHuman writes the report in human-readable format
func writeReportHuman(report *models.RunReport, w io.Writer) error {
	fmt.Fprintf(w, "webpnorris %s report\n", report.Command)
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Run ID: %s\n", report.RunID)
	fmt.Fprintf(w, "Root: %s\n", report.Root)
	if report.Command == models.CommandRetire {
		fmt.Fprintf(w, "Dry Run: %v\n", report.DryRun)
	}

	f := NewHumanFormatter(false)
	f.root = report.Root
	f.command = report.Command
	f.dryRun = report.DryRun
	f.writer = w
	if err := f.Complete(report); err != nil {
		return err
	}

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors (%d files)\n", len(report.Errors))
		for _, e := range report.Errors {
			fmt.Fprintf(w, "  %s\n    [%s] %s\n", f.rel(e.Path), e.Kind, e.Error)
		}
	}

	return nil
}

// writeReportJSON writes the report in JSON format
func writeReportJSON(report *models.RunReport, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewJSONReportData(report))
}
