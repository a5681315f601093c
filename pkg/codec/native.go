package codec

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/sdejongh/webpnorris/pkg/models"
)

// Native decodes with imaging and encodes with libwebp bindings, in-process
type Native struct {
	autoOrient bool
}

// NewNative creates the in-process codec. When autoOrient is set, the EXIF
// orientation of JPEG sources is applied before encoding.
func NewNative(autoOrient bool) *Native {
	return &Native{autoOrient: autoOrient}
}

// ReadMetadata parses the image header
func (n *Native) ReadMetadata(ctx context.Context, path string) (*Metadata, error) {
	return readMetadata(ctx, path)
}

// EncodeWebP decodes src and writes it to dst as lossy WebP
func (n *Native) EncodeWebP(ctx context.Context, src, dst string, quality int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(n.autoOrient))
	if err != nil {
		return fmt.Errorf("%w: decode %s: %w", models.ErrCodec, filepath.Base(src), err)
	}

	return replaceFile(dst, func(tmpPath string) error {
		f, err := os.Create(tmpPath)
		if err != nil {
			return fmt.Errorf("%w: %w", models.ErrWrite, err)
		}
		defer f.Close()

		w := bufio.NewWriter(f)
		if err := webp.Encode(w, img, &webp.Options{Quality: float32(quality)}); err != nil {
			return fmt.Errorf("%w: encode %s: %w", models.ErrCodec, filepath.Base(src), err)
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("%w: %w", models.ErrWrite, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("%w: %w", models.ErrWrite, err)
		}
		return nil
	})
}

// Name returns the backend name
func (n *Native) Name() string {
	return BackendNative
}
