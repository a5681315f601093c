package pipeline

import (
	"context"
	"sync"

	"github.com/sdejongh/webpnorris/pkg/codec"
	"github.com/sdejongh/webpnorris/pkg/logging"
	"github.com/sdejongh/webpnorris/pkg/models"
	"github.com/sdejongh/webpnorris/pkg/output"
	"github.com/sdejongh/webpnorris/pkg/storage"
)

// DiagnoseOptions holds settings for a diagnostic run
type DiagnoseOptions struct {
	Workers int
	// CheckCompanions also reads the header of existing companions
	CheckCompanions bool
}

// Diagnoser probes source images without modifying anything
type Diagnoser struct {
	backend   storage.Backend
	codec     codec.Codec
	formatter output.Formatter
	logger    logging.Logger
	opts      DiagnoseOptions
}

// NewDiagnoser creates a new diagnostic engine. formatter may be nil.
func NewDiagnoser(backend storage.Backend, c codec.Codec, formatter output.Formatter, logger logging.Logger, opts DiagnoseOptions) *Diagnoser {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Diagnoser{
		backend:   backend,
		codec:     c,
		formatter: formatter,
		logger:    logging.OrNull(logger),
		opts:      opts,
	}
}

// Diagnose checks whether the companion exists and whether the source
// metadata can be read. WebPExists is filled even when the source fails.
func (d *Diagnoser) Diagnose(ctx context.Context, asset models.AssetRecord) models.DiagnosticResult {
	result := models.DiagnosticResult{Path: asset.Path}
	companion := asset.CompanionPath()

	exists, err := d.backend.Exists(ctx, companion)
	if err != nil {
		d.logger.Warn(ctx, "cannot check companion", logging.Fields{"path": companion, "error": err.Error()})
	}
	result.WebPExists = exists

	meta, err := d.codec.ReadMetadata(ctx, asset.Path)
	if err != nil {
		result.Status = models.DiagnosticFailed
		result.Error = err.Error()
		return result
	}

	result.Status = models.DiagnosticOK
	result.Format = meta.Format
	result.Width = meta.Width
	result.Height = meta.Height
	result.Size = meta.Size

	if exists && d.opts.CheckCompanions {
		if _, err := d.codec.ReadMetadata(ctx, companion); err != nil {
			result.CompanionError = err.Error()
		}
	}

	return result
}

// Run diagnoses every source under the root in walk order
func (d *Diagnoser) Run(ctx context.Context) (*models.DiagnosticSummary, error) {
	summary := &models.DiagnosticSummary{}
	progress := newNotifier(d.formatter)

	paths, err := d.backend.Walk(ctx, models.SourceExtensions)
	if err != nil {
		return summary, err
	}

	assets := models.ClassifyAll(paths)
	progress.scanned(len(assets))
	d.logger.Info(ctx, "diagnosing", logging.Fields{"files": len(assets), "root": d.backend.Root()})

	results := make([]models.DiagnosticResult, len(assets))
	done := make([]bool, len(assets))
	var mu sync.Mutex

	runErr := NewPool(d.opts.Workers).Execute(ctx, len(assets), func(i int) {
		if ctx.Err() != nil {
			return
		}
		asset := assets[i]
		fileIndex := progress.next()

		result := d.Diagnose(ctx, asset)

		switch {
		case result.Failed():
			d.logger.Error(ctx, "cannot read image", nil, logging.Fields{"path": asset.Path, "error": result.Error})
			progress.send(output.ProgressUpdate{Type: output.EventFileError, FilePath: asset.Path, CurrentFile: fileIndex, Error: diagnosticError(result.Error)})
		case !result.WebPExists:
			progress.send(output.ProgressUpdate{Type: output.EventFileWarning, FilePath: asset.Path, Detail: "NO WEBP", CurrentFile: fileIndex})
		case result.CompanionError != "":
			progress.send(output.ProgressUpdate{Type: output.EventFileWarning, FilePath: asset.CompanionPath(), Detail: "UNREADABLE WEBP", CurrentFile: fileIndex})
		default:
			progress.send(output.ProgressUpdate{Type: output.EventFileComplete, FilePath: asset.Path, CurrentFile: fileIndex})
		}

		mu.Lock()
		results[i] = result
		done[i] = true
		mu.Unlock()
	})

	for i, ok := range done {
		if ok {
			summary.Results = append(summary.Results, results[i])
		}
	}

	if runErr == nil {
		runErr = ctx.Err()
	}

	d.logger.Info(ctx, "diagnosis finished", logging.Fields{
		"failed":       len(summary.Failed()),
		"missing_webp": len(summary.MissingWebP()),
	})

	return summary, runErr
}

// diagnosticError carries a recorded codec message as an error value
type diagnosticError string

func (e diagnosticError) Error() string {
	return string(e)
}
