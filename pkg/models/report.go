package models

import (
	"context"
	"errors"
	"time"
)

// Commands that produce a RunReport
const (
	CommandConvert  = "convert"
	CommandDiagnose = "diagnose"
	CommandVerify   = "verify"
	CommandRetire   = "retire"
)

// RunReport represents the results of one command run
type RunReport struct {
	// Run details
	RunID   string
	Command string
	Root    string
	DryRun  bool

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Exactly one of these is set, depending on Command
	Conversion   *ConversionSummary
	Diagnostics  *DiagnosticSummary
	Verification *VerificationSummary
	Retirement   *RetirementSummary

	// Per-file errors gathered from the summary
	Errors []FileError

	// Fatal error that ended the run, if any
	Fatal string

	// Overall status
	Status RunStatus
}

// RunStatus represents the overall result
type RunStatus string

const (
	// StatusSuccess indicates every file was handled without error
	StatusSuccess RunStatus = "success"
	// StatusPartial indicates some files failed
	StatusPartial RunStatus = "partial"
	// StatusFailed indicates the run aborted, e.g. on a traversal error
	StatusFailed RunStatus = "failed"
	// StatusCancelled indicates the run was interrupted
	StatusCancelled RunStatus = "cancelled"
)

// ExitCode returns the process exit code for the status. Per-file
// failures are reported in the summary and do not fail the process.
func (s RunStatus) ExitCode() int {
	switch s {
	case StatusSuccess, StatusPartial:
		return 0
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}

// NewRunReport starts a report for command over root
func NewRunReport(runID, command, root string) *RunReport {
	return &RunReport{
		RunID:     runID,
		Command:   command,
		Root:      root,
		StartTime: time.Now(),
		Status:    StatusSuccess,
	}
}

// Finish stamps timing, collects per-file errors and derives the status.
// runErr is the error returned by the engine, if any.
func (r *RunReport) Finish(runErr error) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Errors = r.collectErrors()

	switch {
	case runErr != nil && (errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)):
		r.Status = StatusCancelled
		r.Fatal = runErr.Error()
	case runErr != nil:
		r.Status = StatusFailed
		r.Fatal = runErr.Error()
	case len(r.Errors) > 0:
		r.Status = StatusPartial
	default:
		r.Status = StatusSuccess
	}
}

func (r *RunReport) collectErrors() []FileError {
	var errs []FileError
	switch {
	case r.Conversion != nil:
		for _, o := range r.Conversion.Failed() {
			errs = append(errs, FileError{Path: o.SourcePath, Kind: o.ErrorKind, Error: o.Reason})
		}
	case r.Diagnostics != nil:
		for _, d := range r.Diagnostics.Failed() {
			errs = append(errs, FileError{Path: d.Path, Kind: "codec", Error: d.Error})
		}
	case r.Verification != nil:
		for _, m := range r.Verification.MissingWebP {
			if m.Error != "" {
				errs = append(errs, FileError{Path: m.Path, Kind: "stat", Error: m.Error})
			}
		}
	case r.Retirement != nil:
		errs = append(errs, r.Retirement.Failed...)
	}
	return errs
}

// ConversionSummary aggregates conversion outcomes in walk order
type ConversionSummary struct {
	Quality    int                 `json:"quality"`
	Outcomes   []ConversionOutcome `json:"outcomes"`
	Collisions []Collision         `json:"collisions,omitempty"`
}

// Succeeded returns the successful outcomes
func (s *ConversionSummary) Succeeded() []ConversionOutcome {
	var out []ConversionOutcome
	for _, o := range s.Outcomes {
		if o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the failed outcomes
func (s *ConversionSummary) Failed() []ConversionOutcome {
	var out []ConversionOutcome
	for _, o := range s.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// DiagnosticSummary aggregates diagnostic results in walk order
type DiagnosticSummary struct {
	Results []DiagnosticResult `json:"results"`
}

// Failed returns results whose source could not be probed
func (s *DiagnosticSummary) Failed() []DiagnosticResult {
	var out []DiagnosticResult
	for _, r := range s.Results {
		if r.Failed() {
			out = append(out, r)
		}
	}
	return out
}

// MissingWebP returns readable sources without a companion
func (s *DiagnosticSummary) MissingWebP() []DiagnosticResult {
	var out []DiagnosticResult
	for _, r := range s.Results {
		if !r.Failed() && !r.WebPExists {
			out = append(out, r)
		}
	}
	return out
}

// BrokenCompanions returns results whose companion could not be read
func (s *DiagnosticSummary) BrokenCompanions() []DiagnosticResult {
	var out []DiagnosticResult
	for _, r := range s.Results {
		if r.CompanionError != "" {
			out = append(out, r)
		}
	}
	return out
}

// ExtensionCounts holds per-extension file counts
type ExtensionCounts struct {
	JPG  int `json:"jpg"`
	JPEG int `json:"jpeg"`
	PNG  int `json:"png"`
	WebP int `json:"webp"`
}

// Originals returns the number of convertible sources
func (c ExtensionCounts) Originals() int {
	return c.JPG + c.JPEG + c.PNG
}

// MissingAsset is an original without a companion
type MissingAsset struct {
	AssetRecord
	Size int64 `json:"size"`
	// PossiblePlaceholder is a size heuristic and needs manual inspection
	PossiblePlaceholder bool   `json:"possible_placeholder"`
	Error               string `json:"error,omitempty"`
}

// VerificationSummary cross-references originals against companions.
// len(HasWebP)+len(MissingWebP) == Counts.Originals().
type VerificationSummary struct {
	Counts               ExtensionCounts `json:"counts"`
	HasWebP              []AssetRecord   `json:"has_webp"`
	MissingWebP          []MissingAsset  `json:"missing_webp"`
	PlaceholderThreshold int64           `json:"placeholder_threshold"`
}

// Placeholders returns missing originals flagged as possible placeholders
func (s *VerificationSummary) Placeholders() []MissingAsset {
	var out []MissingAsset
	for _, m := range s.MissingWebP {
		if m.PossiblePlaceholder {
			out = append(out, m)
		}
	}
	return out
}

// RetirementSummary lists what happened to each original
type RetirementSummary struct {
	// Deleted holds removed originals, or the ones that would be removed in a dry run
	Deleted []string `json:"deleted"`
	// Skipped holds originals left in place because no companion exists
	Skipped []string `json:"skipped"`
	// Failed holds originals whose removal failed
	Failed []FileError `json:"failed,omitempty"`
	DryRun bool        `json:"dry_run"`
}
