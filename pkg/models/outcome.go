package models

// OutcomeKind tags a conversion outcome
type OutcomeKind string

const (
	// OutcomeSuccess indicates the companion was written
	OutcomeSuccess OutcomeKind = "success"
	// OutcomeFailure indicates no companion was written
	OutcomeFailure OutcomeKind = "failure"
)

// ConversionOutcome is the result of converting one asset.
// Build it with Success or Failure; it is not modified afterwards.
type ConversionOutcome struct {
	Kind       OutcomeKind `json:"kind"`
	SourcePath string      `json:"source_path"`
	WebPPath   string      `json:"webp_path,omitempty"`
	// Reason is the underlying error message for failures
	Reason string `json:"reason,omitempty"`
	// ErrorKind classifies the failure (codec, write, collision)
	ErrorKind string `json:"error_kind,omitempty"`

	err error
}

// Success builds a successful outcome
func Success(sourcePath, webpPath string) ConversionOutcome {
	return ConversionOutcome{
		Kind:       OutcomeSuccess,
		SourcePath: sourcePath,
		WebPPath:   webpPath,
	}
}

// Failure builds a failed outcome from the error that caused it
func Failure(sourcePath string, err error) ConversionOutcome {
	o := ConversionOutcome{
		Kind:       OutcomeFailure,
		SourcePath: sourcePath,
		ErrorKind:  ErrorKind(err),
		err:        err,
	}
	if err != nil {
		o.Reason = err.Error()
	}
	return o
}

// OK reports whether the conversion succeeded
func (o ConversionOutcome) OK() bool {
	return o.Kind == OutcomeSuccess
}

// Err returns the error behind a failure, or nil
func (o ConversionOutcome) Err() error {
	return o.err
}

// DiagnosticStatus is the decodability verdict for a source image
type DiagnosticStatus string

const (
	// DiagnosticOK indicates metadata could be read
	DiagnosticOK DiagnosticStatus = "OK"
	// DiagnosticFailed indicates the codec rejected the file
	DiagnosticFailed DiagnosticStatus = "FAILED"
)

// DiagnosticResult is the read-only probe of one source image
type DiagnosticResult struct {
	Path       string           `json:"path"`
	Status     DiagnosticStatus `json:"status"`
	WebPExists bool             `json:"webp_exists"`
	Format     string           `json:"format,omitempty"`
	Width      int              `json:"width,omitempty"`
	Height     int              `json:"height,omitempty"`
	Size       int64            `json:"size,omitempty"`
	// Error is the raw codec message when Status is FAILED
	Error string `json:"error,omitempty"`
	// CompanionError is set when the existing companion cannot be read
	CompanionError string `json:"companion_error,omitempty"`
}

// Failed reports whether the source could not be probed
func (r DiagnosticResult) Failed() bool {
	return r.Status == DiagnosticFailed
}
