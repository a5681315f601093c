package codec

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sdejongh/webpnorris/pkg/models"
)

// writeImage writes a w x h test image in the format implied by path
func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 20), G: uint8(y * 20), B: 128, A: 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image: %v", err)
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".png":
		err = png.Encode(f, img)
	default:
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    string
		wantErr bool
	}{
		{"Default", Options{}, BackendNative, false},
		{"Native", Options{Backend: BackendNative}, BackendNative, false},
		{"Unknown", Options{Backend: "sharp"}, "", true},
		{"MissingBinary", Options{Backend: BackendCWebP, CWebPPath: "/nonexistent/cwebp"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && c.Name() != tt.want {
				t.Errorf("Name() = %s, want %s", c.Name(), tt.want)
			}
		})
	}
}

func TestReadMetadata(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	c := NewNative(false)

	t.Run("PNG", func(t *testing.T) {
		path := filepath.Join(dir, "a.png")
		writeImage(t, path, 10, 12)
		info, _ := os.Stat(path)

		meta, err := c.ReadMetadata(ctx, path)
		if err != nil {
			t.Fatalf("ReadMetadata() error = %v", err)
		}
		if meta.Format != "png" || meta.Width != 10 || meta.Height != 12 {
			t.Errorf("ReadMetadata() = %+v, want png 10x12", meta)
		}
		if meta.Size != info.Size() {
			t.Errorf("Size = %d, want %d", meta.Size, info.Size())
		}
	})

	t.Run("JPEG", func(t *testing.T) {
		path := filepath.Join(dir, "b.JPG")
		writeImage(t, path, 10, 10)

		meta, err := c.ReadMetadata(ctx, path)
		if err != nil {
			t.Fatalf("ReadMetadata() error = %v", err)
		}
		if meta.Format != "jpeg" {
			t.Errorf("Format = %s, want jpeg", meta.Format)
		}
	})

	t.Run("ZeroByteFile", func(t *testing.T) {
		path := filepath.Join(dir, "empty.png")
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatal(err)
		}

		_, err := c.ReadMetadata(ctx, path)
		if !errors.Is(err, models.ErrCodec) {
			t.Errorf("ReadMetadata() error = %v, want ErrCodec", err)
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		path := filepath.Join(dir, "trunc.png")
		if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := c.ReadMetadata(ctx, path)
		if !errors.Is(err, models.ErrCodec) {
			t.Errorf("ReadMetadata() error = %v, want ErrCodec", err)
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := c.ReadMetadata(ctx, filepath.Join(dir, "missing.png"))
		if !errors.Is(err, models.ErrCodec) {
			t.Errorf("ReadMetadata() error = %v, want ErrCodec", err)
		}
	})
}

func TestNativeEncodeWebP(t *testing.T) {
	ctx := context.Background()
	c := NewNative(true)

	t.Run("ValidJPEG", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "a.jpg")
		dst := filepath.Join(dir, "a.webp")
		writeImage(t, src, 10, 10)

		if err := c.EncodeWebP(ctx, src, dst, DefaultQuality); err != nil {
			t.Fatalf("EncodeWebP() error = %v", err)
		}

		meta, err := c.ReadMetadata(ctx, dst)
		if err != nil {
			t.Fatalf("ReadMetadata(webp) error = %v", err)
		}
		if meta.Format != "webp" || meta.Width != 10 || meta.Height != 10 {
			t.Errorf("companion = %+v, want webp 10x10", meta)
		}

		want := []string{"a.jpg", "a.webp"}
		if got := listDir(t, dir); !reflect.DeepEqual(got, want) {
			t.Errorf("directory = %v, want %v", got, want)
		}
	})

	t.Run("OverwritesExisting", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "a.png")
		dst := filepath.Join(dir, "a.webp")
		writeImage(t, src, 8, 8)
		if err := os.WriteFile(dst, []byte("stale"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := c.EncodeWebP(ctx, src, dst, DefaultQuality); err != nil {
			t.Fatalf("EncodeWebP() error = %v", err)
		}

		if _, err := c.ReadMetadata(ctx, dst); err != nil {
			t.Errorf("stale companion was not replaced: %v", err)
		}
	})

	t.Run("ZeroByteSource", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "b.png")
		dst := filepath.Join(dir, "b.webp")
		if err := os.WriteFile(src, nil, 0644); err != nil {
			t.Fatal(err)
		}

		err := c.EncodeWebP(ctx, src, dst, DefaultQuality)
		if !errors.Is(err, models.ErrCodec) {
			t.Fatalf("EncodeWebP() error = %v, want ErrCodec", err)
		}

		want := []string{"b.png"}
		if got := listDir(t, dir); !reflect.DeepEqual(got, want) {
			t.Errorf("directory = %v, want %v", got, want)
		}
	})

	t.Run("UnwritableDirectory", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "c.png")
		writeImage(t, src, 4, 4)

		err := c.EncodeWebP(ctx, src, filepath.Join(dir, "missing", "c.webp"), DefaultQuality)
		if !errors.Is(err, models.ErrWrite) {
			t.Errorf("EncodeWebP() error = %v, want ErrWrite", err)
		}
	})
}

func TestCWebPArgs(t *testing.T) {
	c := &CWebP{binary: "/usr/bin/cwebp"}
	got := c.args("/in/a.png", "/in/.a.webp.123.tmp", 90)
	want := []string{"/usr/bin/cwebp", "-q", "90", "-metadata", "icc", "/in/a.png", "-o", "/in/.a.webp.123.tmp"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args() = %v, want %v", got, want)
	}
}

func TestCWebPEncodeWebP(t *testing.T) {
	if _, err := exec.LookPath("cwebp"); err != nil {
		t.Skip("cwebp not installed")
	}

	c, err := NewCWebP("")
	if err != nil {
		t.Fatalf("NewCWebP() error = %v", err)
	}
	ctx := context.Background()
	dir := t.TempDir()

	src := filepath.Join(dir, "a.png")
	writeImage(t, src, 10, 10)
	if err := c.EncodeWebP(ctx, src, filepath.Join(dir, "a.webp"), DefaultQuality); err != nil {
		t.Fatalf("EncodeWebP() error = %v", err)
	}

	empty := filepath.Join(dir, "b.png")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	err = c.EncodeWebP(ctx, empty, filepath.Join(dir, "b.webp"), DefaultQuality)
	if !errors.Is(err, models.ErrCodec) {
		t.Errorf("EncodeWebP() error = %v, want ErrCodec", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.webp")); !os.IsNotExist(err) {
		t.Error("failed conversion left a companion behind")
	}
}

func TestLastLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"one", "one"},
		{"Saving file\nError! Could not process file b.png\n\n", "Error! Could not process file b.png"},
	}
	for _, tt := range tests {
		if got := lastLine(tt.in); got != tt.want {
			t.Errorf("lastLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
