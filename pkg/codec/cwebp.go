package codec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sdejongh/webpnorris/pkg/models"
)

// ErrCWebPNotFound is returned when the cwebp binary is not on PATH
var ErrCWebPNotFound = errors.New("cwebp not found on PATH")

// CWebP encodes by running the libwebp cwebp tool. Metadata is read
// in-process like the native backend.
type CWebP struct {
	binary string
}

// NewCWebP resolves the cwebp binary. An empty path means "cwebp" on PATH.
func NewCWebP(path string) (*CWebP, error) {
	if path == "" {
		path = "cwebp"
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCWebPNotFound, err)
	}
	return &CWebP{binary: resolved}, nil
}

// ReadMetadata parses the image header
func (c *CWebP) ReadMetadata(ctx context.Context, path string) (*Metadata, error) {
	return readMetadata(ctx, path)
}

// EncodeWebP runs cwebp for src and moves the result to dst. The captured
// stderr becomes the failure reason.
func (c *CWebP) EncodeWebP(ctx context.Context, src, dst string, quality int) error {
	return replaceFile(dst, func(tmpPath string) error {
		args := c.args(src, tmpPath, quality)
		cmd := exec.CommandContext(ctx, args[0], args[1:]...)

		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			reason := lastLine(stderr.String())
			if reason == "" {
				reason = err.Error()
			}
			return fmt.Errorf("%w: cwebp %s: %s", models.ErrCodec, filepath.Base(src), reason)
		}
		return nil
	})
}

// args builds the cwebp command line
func (c *CWebP) args(src, dst string, quality int) []string {
	return []string{
		c.binary,
		"-q", strconv.Itoa(quality),
		"-metadata", "icc",
		src,
		"-o", dst,
	}
}

// Name returns the backend name
func (c *CWebP) Name() string {
	return BackendCWebP
}

// lastLine returns the last non-empty line of s
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
