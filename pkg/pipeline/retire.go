package pipeline

import (
	"context"

	"github.com/sdejongh/webpnorris/pkg/logging"
	"github.com/sdejongh/webpnorris/pkg/models"
	"github.com/sdejongh/webpnorris/pkg/output"
	"github.com/sdejongh/webpnorris/pkg/storage"
)

// Retirer deletes originals whose WebP companion exists
type Retirer struct {
	backend   storage.Backend
	formatter output.Formatter
	logger    logging.Logger
	dryRun    bool
}

// NewRetirer creates a new retirement engine. In a dry run nothing is
// deleted and Deleted lists what would have been removed.
func NewRetirer(backend storage.Backend, formatter output.Formatter, logger logging.Logger, dryRun bool) *Retirer {
	return &Retirer{
		backend:   backend,
		formatter: formatter,
		logger:    logging.OrNull(logger),
		dryRun:    dryRun,
	}
}

// RetireOriginals walks the sources in order and removes each one whose
// companion exists at the moment of deletion. Companion existence is the
// only criterion; its content is not inspected. An original whose companion
// cannot be checked is kept and recorded as failed, like a removal failure,
// and the run continues.
func (r *Retirer) RetireOriginals(ctx context.Context) (*models.RetirementSummary, error) {
	summary := &models.RetirementSummary{DryRun: r.dryRun}
	progress := newNotifier(r.formatter)

	paths, err := r.backend.Walk(ctx, models.SourceExtensions)
	if err != nil {
		return summary, err
	}

	progress.scanned(len(paths))
	r.logger.Info(ctx, "retiring originals", logging.Fields{"files": len(paths), "dry_run": r.dryRun})

	for _, orig := range models.ClassifyAll(paths) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		fileIndex := progress.next()
		companion := orig.CompanionPath()

		exists, err := r.backend.Exists(ctx, companion)
		if err != nil {
			r.logger.Error(ctx, "cannot check companion, keeping original", err, logging.Fields{"path": orig.Path})
			summary.Failed = append(summary.Failed, models.FileError{
				Path:  orig.Path,
				Kind:  "check",
				Error: err.Error(),
			})
			progress.send(output.ProgressUpdate{Type: output.EventFileError, FilePath: orig.Path, Detail: "cannot check WebP version", CurrentFile: fileIndex, Error: err})
			continue
		}
		if !exists {
			summary.Skipped = append(summary.Skipped, orig.Path)
			progress.send(output.ProgressUpdate{Type: output.EventFileSkipped, FilePath: orig.Path, Detail: "no WebP version", CurrentFile: fileIndex})
			continue
		}

		if r.dryRun {
			summary.Deleted = append(summary.Deleted, orig.Path)
			progress.send(output.ProgressUpdate{Type: output.EventFileComplete, FilePath: orig.Path, Target: companion, CurrentFile: fileIndex})
			continue
		}

		if err := r.backend.Remove(ctx, orig.Path); err != nil {
			r.logger.Error(ctx, "delete failed", err, logging.Fields{"path": orig.Path})
			summary.Failed = append(summary.Failed, models.FileError{
				Path:  orig.Path,
				Kind:  models.ErrorKind(err),
				Error: err.Error(),
			})
			progress.send(output.ProgressUpdate{Type: output.EventFileError, FilePath: orig.Path, CurrentFile: fileIndex, Error: err})
			continue
		}

		r.logger.Debug(ctx, "deleted original", logging.Fields{"path": orig.Path})
		summary.Deleted = append(summary.Deleted, orig.Path)
		progress.send(output.ProgressUpdate{Type: output.EventFileComplete, FilePath: orig.Path, Target: companion, CurrentFile: fileIndex})
	}

	r.logger.Info(ctx, "retirement finished", logging.Fields{
		"deleted": len(summary.Deleted),
		"skipped": len(summary.Skipped),
		"failed":  len(summary.Failed),
	})

	return summary, nil
}
