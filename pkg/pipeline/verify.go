package pipeline

import (
	"context"

	"github.com/sdejongh/webpnorris/pkg/logging"
	"github.com/sdejongh/webpnorris/pkg/models"
	"github.com/sdejongh/webpnorris/pkg/storage"
)

// DefaultPlaceholderThreshold is the size in bytes below which a missing
// original is flagged as a possible placeholder
const DefaultPlaceholderThreshold = 100

// Verifier cross-references originals against their companions.
// It never modifies the tree.
type Verifier struct {
	backend   storage.Backend
	logger    logging.Logger
	threshold int64
}

// NewVerifier creates a new verification reporter. A negative threshold
// falls back to DefaultPlaceholderThreshold.
func NewVerifier(backend storage.Backend, logger logging.Logger, placeholderThreshold int64) *Verifier {
	if placeholderThreshold < 0 {
		placeholderThreshold = DefaultPlaceholderThreshold
	}
	return &Verifier{
		backend:   backend,
		logger:    logging.OrNull(logger),
		threshold: placeholderThreshold,
	}
}

// Verify walks the tree once and builds the summary. Originals are
// reported .jpg first, then .jpeg, then .png, each in walk order.
func (v *Verifier) Verify(ctx context.Context) (*models.VerificationSummary, error) {
	summary := &models.VerificationSummary{PlaceholderThreshold: v.threshold}

	paths, err := v.backend.Walk(ctx, models.VerifyExtensions)
	if err != nil {
		return summary, err
	}

	byExt := make(map[string][]models.AssetRecord)
	for _, a := range models.ClassifyAll(paths) {
		byExt[a.Ext] = append(byExt[a.Ext], a)
	}
	summary.Counts = models.ExtensionCounts{
		JPG:  len(byExt[models.ExtJPG]),
		JPEG: len(byExt[models.ExtJPEG]),
		PNG:  len(byExt[models.ExtPNG]),
		WebP: len(byExt[models.ExtWebP]),
	}

	for _, ext := range models.SourceExtensions {
		for _, orig := range byExt[ext] {
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			exists, err := v.backend.Exists(ctx, orig.CompanionPath())
			if err != nil {
				v.logger.Warn(ctx, "cannot check companion", logging.Fields{"path": orig.CompanionPath(), "error": err.Error()})
			}
			if exists {
				summary.HasWebP = append(summary.HasWebP, orig)
				continue
			}

			summary.MissingWebP = append(summary.MissingWebP, v.missing(ctx, orig))
		}
	}

	v.logger.Info(ctx, "verification finished", logging.Fields{
		"originals":    summary.Counts.Originals(),
		"converted":    len(summary.HasWebP),
		"missing_webp": len(summary.MissingWebP),
	})

	return summary, nil
}

func (v *Verifier) missing(ctx context.Context, orig models.AssetRecord) models.MissingAsset {
	m := models.MissingAsset{AssetRecord: orig}

	info, err := v.backend.Stat(ctx, orig.Path)
	if err != nil {
		v.logger.Warn(ctx, "cannot stat original", logging.Fields{"path": orig.Path, "error": err.Error()})
		m.Error = err.Error()
		return m
	}

	m.Size = info.Size
	m.PossiblePlaceholder = info.Size < v.threshold
	return m
}
