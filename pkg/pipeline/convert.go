package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sdejongh/webpnorris/pkg/codec"
	"github.com/sdejongh/webpnorris/pkg/logging"
	"github.com/sdejongh/webpnorris/pkg/models"
	"github.com/sdejongh/webpnorris/pkg/output"
	"github.com/sdejongh/webpnorris/pkg/storage"
)

// ConvertOptions holds settings for a conversion run
type ConvertOptions struct {
	// Quality is the lossy WebP quality, 0-100
	Quality int
	// Workers is the number of companion groups converted in parallel
	Workers int
	// FailOnCollision refuses to convert sources that share a companion
	FailOnCollision bool
}

// Converter writes a WebP companion next to every source image
type Converter struct {
	backend   storage.Backend
	codec     codec.Codec
	formatter output.Formatter
	logger    logging.Logger
	opts      ConvertOptions
}

// NewConverter creates a new conversion engine. formatter may be nil.
func NewConverter(backend storage.Backend, c codec.Codec, formatter output.Formatter, logger logging.Logger, opts ConvertOptions) *Converter {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Converter{
		backend:   backend,
		codec:     c,
		formatter: formatter,
		logger:    logging.OrNull(logger),
		opts:      opts,
	}
}

// Convert encodes one asset to {Dir}/{BaseName}.webp, replacing any
// existing companion. Failures are returned as outcomes, never panics.
func (c *Converter) Convert(ctx context.Context, asset models.AssetRecord) models.ConversionOutcome {
	dst := asset.CompanionPath()

	if err := c.codec.EncodeWebP(ctx, asset.Path, dst, c.opts.Quality); err != nil {
		c.logger.Error(ctx, "conversion failed", err, logging.Fields{"path": asset.Path})
		return models.Failure(asset.Path, err)
	}

	c.logger.Debug(ctx, "converted", logging.Fields{"path": asset.Path, "webp": dst})
	return models.Success(asset.Path, dst)
}

// ConvertChecked converts one asset found outside a tree walk. With
// FailOnCollision it first looks for other sources in the same folder that
// share the companion and refuses the asset if there are any.
func (c *Converter) ConvertChecked(ctx context.Context, asset models.AssetRecord) models.ConversionOutcome {
	if c.opts.FailOnCollision {
		group, err := c.siblingSources(asset)
		if err != nil {
			c.logger.Warn(ctx, "cannot list sibling sources", logging.Fields{"path": asset.Path, "error": err.Error()})
		}
		if len(group) > 1 {
			outcome := models.Failure(asset.Path, collisionError(asset, group))
			c.logger.Error(ctx, "conversion refused", outcome.Err(), logging.Fields{"path": asset.Path})
			return outcome
		}
	}
	return c.Convert(ctx, asset)
}

// siblingSources returns the sources in the asset's folder with the same
// base name, asset included. Excluded files are left out.
func (c *Converter) siblingSources(asset models.AssetRecord) ([]models.AssetRecord, error) {
	names, err := doublestar.Glob(os.DirFS(asset.Dir), escapeGlob(asset.BaseName)+".*")
	if err != nil {
		return nil, err
	}

	excluder, _ := c.backend.(interface{ Excluded(path string, isDir bool) bool })
	sources := models.ExtensionSet(models.SourceExtensions)

	var group []models.AssetRecord
	for _, name := range names {
		if !models.MatchesExtension(name, sources) {
			continue
		}
		a := models.Classify(filepath.Join(asset.Dir, name))
		if a.BaseName != asset.BaseName {
			continue
		}
		if excluder != nil && excluder.Excluded(a.Path, false) {
			continue
		}
		group = append(group, a)
	}
	return group, nil
}

// escapeGlob quotes the doublestar metacharacters in a literal name
func escapeGlob(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '*', '?', '[', ']', '{', '}', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Run converts every source under the root. Only traversal errors and
// cancellation are returned as errors; per-file failures are in the
// summary. On cancellation the summary holds the outcomes completed so far.
func (c *Converter) Run(ctx context.Context) (*models.ConversionSummary, error) {
	summary := &models.ConversionSummary{Quality: c.opts.Quality}
	progress := newNotifier(c.formatter)

	c.logger.Info(ctx, "scanning for source images", logging.Fields{"root": c.backend.Root()})

	paths, err := c.backend.Walk(ctx, models.SourceExtensions)
	if err != nil {
		return summary, err
	}

	assets := models.ClassifyAll(paths)
	summary.Collisions = models.FindCollisions(assets)
	for _, col := range summary.Collisions {
		c.logger.Warn(ctx, "sources share one companion", logging.Fields{
			"path":    col.CompanionPath,
			"sources": strings.Join(col.Sources, ", "),
		})
	}

	progress.scanned(len(assets))
	c.logger.Info(ctx, "converting", logging.Fields{
		"files":   len(assets),
		"quality": c.opts.Quality,
		"workers": c.opts.Workers,
		"backend": c.codec.Name(),
	})

	// position of each asset in walk order
	index := make(map[string]int, len(assets))
	for i, a := range assets {
		index[a.Path] = i
	}

	outcomes := make([]models.ConversionOutcome, len(assets))
	done := make([]bool, len(assets))
	var mu sync.Mutex

	// each group is owned by one worker so colliding sources are written
	// in walk order
	groups := models.GroupByCompanion(assets)
	runErr := NewPool(c.opts.Workers).Execute(ctx, len(groups), func(g int) {
		group := groups[g]
		for _, asset := range group {
			if ctx.Err() != nil {
				return
			}

			fileIndex := progress.next()
			progress.send(output.ProgressUpdate{Type: output.EventFileStart, FilePath: asset.Path, CurrentFile: fileIndex})

			var outcome models.ConversionOutcome
			if c.opts.FailOnCollision && len(group) > 1 {
				outcome = models.Failure(asset.Path, collisionError(asset, group))
				c.logger.Error(ctx, "conversion refused", outcome.Err(), logging.Fields{"path": asset.Path})
			} else {
				outcome = c.Convert(ctx, asset)
				// an encoder killed by cancellation is not a file failure
				if !outcome.OK() && ctx.Err() != nil {
					return
				}
			}

			if outcome.OK() {
				progress.send(output.ProgressUpdate{Type: output.EventFileComplete, FilePath: asset.Path, Target: outcome.WebPPath, CurrentFile: fileIndex})
			} else {
				progress.send(output.ProgressUpdate{Type: output.EventFileError, FilePath: asset.Path, CurrentFile: fileIndex, Error: outcome.Err()})
			}

			mu.Lock()
			i := index[asset.Path]
			outcomes[i] = outcome
			done[i] = true
			mu.Unlock()
		}
	})

	for i, ok := range done {
		if ok {
			summary.Outcomes = append(summary.Outcomes, outcomes[i])
		}
	}

	if runErr == nil {
		runErr = ctx.Err()
	}

	c.logger.Info(ctx, "conversion finished", logging.Fields{
		"succeeded": len(summary.Succeeded()),
		"failed":    len(summary.Failed()),
	})

	return summary, runErr
}

func collisionError(asset models.AssetRecord, group []models.AssetRecord) error {
	var others []string
	for _, a := range group {
		if a.Path != asset.Path {
			others = append(others, a.Path)
		}
	}
	return fmt.Errorf("%w: %s is also produced by %s", models.ErrCompanionCollision, asset.CompanionPath(), strings.Join(others, ", "))
}
