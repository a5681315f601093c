// Package codec wraps the image-processing backends that read source
// metadata and encode WebP companions.
package codec

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	// Registered for image.DecodeConfig
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/sdejongh/webpnorris/pkg/models"
)

// DefaultQuality is the lossy WebP quality used unless configured
const DefaultQuality = 90

// Backend names
const (
	BackendNative = "native"
	BackendCWebP  = "cwebp"
)

// Metadata is what a header-only probe reports about an image
type Metadata struct {
	Format string
	Width  int
	Height int
	Size   int64
}

// Codec is the external image-processing collaborator
type Codec interface {
	// ReadMetadata parses the image header without decoding pixel data
	ReadMetadata(ctx context.Context, path string) (*Metadata, error)

	// EncodeWebP writes src as a lossy WebP at dst, replacing any existing
	// file. Nothing is left at dst when encoding fails.
	EncodeWebP(ctx context.Context, src, dst string, quality int) error

	// Name returns the backend name
	Name() string
}

// Options selects and configures a backend
type Options struct {
	Backend    string
	CWebPPath  string
	AutoOrient bool
}

// New creates the codec named by opts.Backend
func New(opts Options) (Codec, error) {
	switch opts.Backend {
	case "", BackendNative:
		return NewNative(opts.AutoOrient), nil
	case BackendCWebP:
		return NewCWebP(opts.CWebPPath)
	default:
		return nil, fmt.Errorf("unsupported codec backend: %s (use: native, cwebp)", opts.Backend)
	}
}

// readMetadata probes the header of path with the registered decoders
func readMetadata(ctx context.Context, path string) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrCodec, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrCodec, err)
	}

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", models.ErrCodec, filepath.Base(path), err)
	}

	return &Metadata{
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
		Size:   info.Size(),
	}, nil
}

// replaceFile reserves a temporary file next to dst, lets write fill it,
// and renames it into place once write succeeds.
func replaceFile(dst string, write func(tmpPath string) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrWrite, err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", models.ErrWrite, err)
	}

	if err := write(tmpPath); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", models.ErrWrite, err)
	}

	return nil
}
