package platform

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDisplayPath(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "srv", "public")

	tests := []struct {
		name string
		path string
		want string
	}{
		{"TopLevel", filepath.Join(root, "a.jpg"), "./a.jpg"},
		{"Nested", filepath.Join(root, "img", "team", "b.png"), "./img/team/b.png"},
		{"Root", root, "."},
		{"Outside", filepath.Join(string(filepath.Separator), "srv", "other", "c.png"), filepath.Join(string(filepath.Separator), "srv", "other", "c.png")},
		{"SiblingPrefix", filepath.Join(string(filepath.Separator), "srv", "public2", "d.png"), filepath.Join(string(filepath.Separator), "srv", "public2", "d.png")},
		{"DotDotName", filepath.Join(root, "..hidden.png"), "./..hidden.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayPath(root, tt.path); got != tt.want {
				t.Errorf("DisplayPath() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := DisplayPath("", "/x/y.png"); got != "/x/y.png" {
		t.Errorf("DisplayPath with empty root = %q", got)
	}
}

func TestResolveRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("Directory", func(t *testing.T) {
		got, err := ResolveRoot(dir)
		if err != nil {
			t.Fatalf("ResolveRoot() error = %v", err)
		}
		if got != filepath.Clean(dir) {
			t.Errorf("ResolveRoot() = %s, want %s", got, dir)
		}
	})

	t.Run("Relative", func(t *testing.T) {
		got, err := ResolveRoot(".")
		if err != nil {
			t.Fatalf("ResolveRoot() error = %v", err)
		}
		if !filepath.IsAbs(got) {
			t.Errorf("ResolveRoot(\".\") = %s, want absolute path", got)
		}
	})

	tests := []struct {
		name string
		path string
	}{
		{"Empty", ""},
		{"Missing", filepath.Join(dir, "missing")},
		{"File", file},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveRoot(tt.path)
			var perr *PathError
			if !errors.As(err, &perr) {
				t.Errorf("ResolveRoot(%q) error = %v, want *PathError", tt.path, err)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	if got := NormalizePath("a/b/../c/"); got != filepath.Join("a", "c") {
		t.Errorf("NormalizePath() = %s", got)
	}
}
