package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sdejongh/webpnorris/internal/platform"
	"github.com/sdejongh/webpnorris/pkg/models"
)

const rule = "========================================"

// HumanFormatter formats output in human-readable format
type HumanFormatter struct {
	mu      sync.Mutex
	writer  io.Writer
	quiet   bool
	root    string
	command string
	dryRun  bool
}

// NewHumanFormatter creates a new human-readable formatter. A quiet
// formatter prints only errors.
func NewHumanFormatter(quiet bool) *HumanFormatter {
	return &HumanFormatter{quiet: quiet}
}

// Start initializes the formatter
func (f *HumanFormatter) Start(writer io.Writer, report *models.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.writer = writer
	f.root = report.Root
	f.command = report.Command
	f.dryRun = report.DryRun

	if writer == nil || f.quiet {
		return nil
	}

	switch f.command {
	case models.CommandConvert:
		fmt.Fprintf(writer, "Searching for images in: %s\n\n", f.root)
	case models.CommandDiagnose:
		fmt.Fprintf(writer, "Diagnosing images in: %s\n\n", f.root)
	case models.CommandRetire:
		fmt.Fprintf(writer, "\n%s\n", rule)
		if f.dryRun {
			fmt.Fprintf(writer, "DRY RUN: ORIGINAL IMAGE FILES THAT WOULD BE DELETED\n")
		} else {
			fmt.Fprintf(writer, "DELETING ORIGINAL IMAGE FILES\n")
		}
		fmt.Fprintf(writer, "%s\n\n", rule)
	}

	return nil
}

// Progress reports progress during the run
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		return nil
	}
	if f.quiet && update.Type != EventFileError {
		return nil
	}

	path := f.rel(update.FilePath)

	switch update.Type {
	case EventScanComplete:
		switch f.command {
		case models.CommandConvert:
			fmt.Fprintf(f.writer, "Found %d images to convert\n\n", update.TotalFiles)
		case models.CommandDiagnose:
			fmt.Fprintf(f.writer, "Found %d source images\n\n", update.TotalFiles)
		case models.CommandRetire:
			fmt.Fprintf(f.writer, "Found %d original files to process\n\n", update.TotalFiles)
		}

	case EventFileComplete:
		switch f.command {
		case models.CommandConvert:
			fmt.Fprintf(f.writer, "✓ Converted: %s -> %s\n", path, f.rel(update.Target))
		case models.CommandRetire:
			if f.dryRun {
				fmt.Fprintf(f.writer, "✓ Would delete: %s\n", path)
			} else {
				fmt.Fprintf(f.writer, "✓ Deleted: %s\n", path)
			}
		}

	case EventFileSkipped:
		fmt.Fprintf(f.writer, "⊘ Skipped: %s (%s)\n", path, update.Detail)

	case EventFileWarning:
		fmt.Fprintf(f.writer, "⚠️  %s: %s\n", update.Detail, path)

	case EventFileError:
		switch f.command {
		case models.CommandConvert:
			fmt.Fprintf(f.writer, "✗ Failed to convert %s: %v\n", path, update.Error)
		case models.CommandDiagnose:
			fmt.Fprintf(f.writer, "❌ FAILED: %s\n   Error: %v\n\n", path, update.Error)
		case models.CommandRetire:
			if update.Detail != "" {
				fmt.Fprintf(f.writer, "✗ Kept: %s (%s)\n  Error: %v\n", path, update.Detail, update.Error)
			} else {
				fmt.Fprintf(f.writer, "✗ Failed to delete: %s\n  Error: %v\n", path, update.Error)
			}
		default:
			fmt.Fprintf(f.writer, "✗ %s: %v\n", path, update.Error)
		}
	}

	return nil
}

// Complete finalizes output and displays summary
func (f *HumanFormatter) Complete(report *models.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		f.writer = io.Discard
	}
	if f.root == "" {
		f.root = report.Root
	}

	if f.quiet {
		f.writeErrors(report)
		return nil
	}

	switch {
	case report.Conversion != nil:
		f.writeConversion(report.Conversion)
	case report.Diagnostics != nil:
		f.writeDiagnostics(report.Diagnostics)
	case report.Verification != nil:
		f.writeVerification(report.Verification)
	case report.Retirement != nil:
		f.writeRetirement(report.Retirement)
	}

	if report.Fatal != "" {
		fmt.Fprintf(f.writer, "\nError: %s\n", report.Fatal)
	}
	fmt.Fprintf(f.writer, "Status: %s (%s)\n", report.Status, report.Duration.Round(time.Millisecond))

	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer != nil {
		fmt.Fprintf(f.writer, "Error: %v\n", err)
	}
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

func (f *HumanFormatter) rel(path string) string {
	return platform.DisplayPath(f.root, path)
}

func (f *HumanFormatter) writeErrors(report *models.RunReport) {
	for _, e := range report.Errors {
		fmt.Fprintf(f.writer, "✗ %s [%s]: %s\n", f.rel(e.Path), e.Kind, e.Error)
	}
	if report.Fatal != "" {
		fmt.Fprintf(f.writer, "Error: %s\n", report.Fatal)
	}
}

func (f *HumanFormatter) writeConversion(s *models.ConversionSummary) {
	w := f.writer
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "Conversion Complete!\n")
	fmt.Fprintf(w, "✓ Success: %d\n", len(s.Succeeded()))
	fmt.Fprintf(w, "✗ Failed: %d\n", len(s.Failed()))
	fmt.Fprintf(w, "%s\n", rule)

	if len(s.Collisions) > 0 {
		fmt.Fprintf(w, "\nSources sharing one WebP companion:\n")
		for _, c := range s.Collisions {
			fmt.Fprintf(w, "  - %s\n", f.rel(c.CompanionPath))
			for _, src := range c.Sources {
				fmt.Fprintf(w, "      %s\n", f.rel(src))
			}
		}
	}
	fmt.Fprintln(w)
}

func (f *HumanFormatter) writeDiagnostics(s *models.DiagnosticSummary) {
	w := f.writer
	failed := s.Failed()
	missing := s.MissingWebP()
	broken := s.BrokenCompanions()

	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "Diagnostic Results:\n")
	fmt.Fprintf(w, "Total source images: %d\n", len(s.Results))
	fmt.Fprintf(w, "❌ Corrupted/Invalid files: %d\n", len(failed))
	fmt.Fprintf(w, "⚠️  Missing WebP conversions: %d\n", len(missing))
	if len(broken) > 0 {
		fmt.Fprintf(w, "⚠️  Unreadable WebP companions: %d\n", len(broken))
	}
	fmt.Fprintf(w, "%s\n", rule)

	if len(failed) > 0 {
		fmt.Fprintf(w, "\nFiles that cannot be converted:\n")
		for _, r := range failed {
			fmt.Fprintf(w, "  - %s\n", f.rel(r.Path))
			fmt.Fprintf(w, "    Reason: %s\n", r.Error)
		}
	}

	if len(missing) > 0 {
		fmt.Fprintf(w, "\nFiles missing WebP version:\n")
		for _, r := range missing {
			fmt.Fprintf(w, "  - %s\n", f.rel(r.Path))
		}
	}

	if len(broken) > 0 {
		fmt.Fprintf(w, "\nWebP companions that cannot be read:\n")
		for _, r := range broken {
			fmt.Fprintf(w, "  - %s\n", f.rel(models.Classify(r.Path).CompanionPath()))
			fmt.Fprintf(w, "    Reason: %s\n", r.CompanionError)
		}
	}
	fmt.Fprintln(w)
}

func (f *HumanFormatter) writeVerification(s *models.VerificationSummary) {
	w := f.writer
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "IMAGE CONVERSION VERIFICATION REPORT\n")
	fmt.Fprintf(w, "%s\n\n", rule)

	fmt.Fprintf(w, "📊 File Count Summary:\n")
	fmt.Fprintf(w, "   Total .jpg files:    %d\n", s.Counts.JPG)
	fmt.Fprintf(w, "   Total .jpeg files:   %d\n", s.Counts.JPEG)
	fmt.Fprintf(w, "   Total .png files:    %d\n", s.Counts.PNG)
	fmt.Fprintf(w, "   Total .webp files:   %d\n", s.Counts.WebP)
	fmt.Fprintf(w, "   %s\n", strings.Repeat("─", 29))
	fmt.Fprintf(w, "   Original files:      %d\n", s.Counts.Originals())
	fmt.Fprintf(w, "   ✅ Converted:        %d\n", len(s.HasWebP))
	fmt.Fprintf(w, "   ❌ Not converted:    %d\n\n", len(s.MissingWebP))

	if len(s.MissingWebP) > 0 {
		fmt.Fprintf(w, "❌ Files WITHOUT WebP versions:\n")
		fmt.Fprintf(w, "%s\n", strings.Repeat("─", 37))
		for _, m := range s.MissingWebP {
			fmt.Fprintf(w, "   %s\n", f.rel(m.Path))
			if m.Error != "" {
				fmt.Fprintf(w, "      Size: unknown (%s)\n\n", m.Error)
				continue
			}
			placeholder := ""
			if m.PossiblePlaceholder {
				placeholder = " (placeholder?)"
			}
			fmt.Fprintf(w, "      Size: %d bytes (%.2f KB)%s\n\n", m.Size, float64(m.Size)/1024, placeholder)
		}
	}

	if s.Counts.Originals() > 0 {
		fmt.Fprintf(w, "\nNOTE:\n")
		fmt.Fprintf(w, "%s\n", strings.Repeat("─", 37))
		fmt.Fprintf(w, "The original JPG/JPEG/PNG files are still present.\n")
		fmt.Fprintf(w, "Run 'webpnorris retire' to delete the originals that\n")
		fmt.Fprintf(w, "have a .webp version.\n\n")
	}
	fmt.Fprintf(w, "%s\n", rule)
}

func (f *HumanFormatter) writeRetirement(s *models.RetirementSummary) {
	w := f.writer
	verb := "Deleted"
	if s.DryRun {
		verb = "Would delete"
	}

	fmt.Fprintf(w, "\n%s\n", rule)
	if s.DryRun {
		fmt.Fprintf(w, "DRY RUN COMPLETE\n")
	} else {
		fmt.Fprintf(w, "DELETION COMPLETE\n")
	}
	fmt.Fprintf(w, "%s\n", rule)
	fmt.Fprintf(w, "✓ %s:  %d files\n", verb, len(s.Deleted))
	fmt.Fprintf(w, "⊘ Skipped:  %d files (no WebP version)\n", len(s.Skipped))
	if len(s.Failed) > 0 {
		fmt.Fprintf(w, "✗ Failed:   %d files\n", len(s.Failed))
	}
	fmt.Fprintf(w, "%s\n\n", rule)

	if len(s.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped files (placeholders or invalid):\n")
		for _, p := range s.Skipped {
			fmt.Fprintf(w, "   %s\n", f.rel(p))
		}
		fmt.Fprintln(w)
	}

	if len(s.Failed) > 0 {
		fmt.Fprintf(w, "Files that could not be deleted:\n")
		for _, e := range s.Failed {
			fmt.Fprintf(w, "   %s\n", f.rel(e.Path))
			fmt.Fprintf(w, "      Error: %s\n", e.Error)
		}
		fmt.Fprintln(w)
	}
}
