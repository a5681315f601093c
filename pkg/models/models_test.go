package models

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
)

// ============== AssetRecord Tests ==============

func TestClassify(t *testing.T) {
	tests := []struct {
		path      string
		ext       string
		base      string
		companion string
		source    bool
	}{
		{"/img/photo.jpg", ".jpg", "photo", "/img/photo.webp", true},
		{"/img/photo.JPEG", ".jpeg", "photo", "/img/photo.webp", true},
		{"/img/a.b.png", ".png", "a.b", "/img/a.b.webp", true},
		{"/img/photo.webp", ".webp", "photo", "/img/photo.webp", false},
		{"/img/sub dir/Logo.PNG", ".png", "Logo", "/img/sub dir/Logo.webp", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			path := filepath.FromSlash(tt.path)
			a := Classify(path)
			if a.Path != path {
				t.Errorf("Path = %s, want %s", a.Path, path)
			}
			if a.Dir != filepath.Dir(path) {
				t.Errorf("Dir = %s, want %s", a.Dir, filepath.Dir(path))
			}
			if a.Ext != tt.ext {
				t.Errorf("Ext = %s, want %s", a.Ext, tt.ext)
			}
			if a.BaseName != tt.base {
				t.Errorf("BaseName = %s, want %s", a.BaseName, tt.base)
			}
			if got := a.CompanionPath(); got != filepath.FromSlash(tt.companion) {
				t.Errorf("CompanionPath() = %s, want %s", got, tt.companion)
			}
			if a.IsSource() != tt.source {
				t.Errorf("IsSource() = %v, want %v", a.IsSource(), tt.source)
			}
		})
	}
}

func TestMatchesExtension(t *testing.T) {
	allowed := ExtensionSet(SourceExtensions)

	tests := []struct {
		name string
		want bool
	}{
		{"photo.jpg", true},
		{"photo.JPG", true},
		{"photo.Jpeg", true},
		{"photo.png", true},
		{"photo.webp", false},
		{"photo.gif", false},
		{"photo", false},
		{".png", false},
		{"archive.png.zip", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesExtension(tt.name, allowed); got != tt.want {
				t.Errorf("MatchesExtension(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestGroupByCompanion(t *testing.T) {
	assets := ClassifyAll([]string{
		"/a/photo.jpg",
		"/a/other.png",
		"/a/photo.png",
		"/b/photo.jpg",
		"/a/photo.jpeg",
	})

	groups := GroupByCompanion(assets)
	var got [][]string
	for _, g := range groups {
		var paths []string
		for _, a := range g {
			paths = append(paths, a.Path)
		}
		got = append(got, paths)
	}

	want := [][]string{
		{"/a/photo.jpg", "/a/photo.png", "/a/photo.jpeg"},
		{"/a/other.png"},
		{"/b/photo.jpg"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GroupByCompanion() = %v, want %v", got, want)
	}

	collisions := FindCollisions(assets)
	if len(collisions) != 1 {
		t.Fatalf("FindCollisions() = %+v, want 1 collision", collisions)
	}
	if collisions[0].CompanionPath != filepath.Join("/a", "photo.webp") {
		t.Errorf("CompanionPath = %s", collisions[0].CompanionPath)
	}
	if !reflect.DeepEqual(collisions[0].Sources, want[0]) {
		t.Errorf("Sources = %v, want %v", collisions[0].Sources, want[0])
	}
}

func TestFindCollisions_None(t *testing.T) {
	assets := ClassifyAll([]string{"/a/x.jpg", "/a/y.png", "/b/x.png"})
	if c := FindCollisions(assets); len(c) != 0 {
		t.Errorf("FindCollisions() = %+v, want none", c)
	}
}

// ============== Outcome Tests ==============

func TestConversionOutcome(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		o := Success("/a/x.jpg", "/a/x.webp")
		if !o.OK() || o.Err() != nil || o.Reason != "" {
			t.Errorf("Success() = %+v", o)
		}
	})

	t.Run("Failure", func(t *testing.T) {
		err := fmt.Errorf("%w: bad header", ErrCodec)
		o := Failure("/a/x.jpg", err)
		if o.OK() {
			t.Error("Failure() should not be OK")
		}
		if !errors.Is(o.Err(), ErrCodec) {
			t.Errorf("Err() = %v, want ErrCodec", o.Err())
		}
		if o.Reason != err.Error() || o.ErrorKind != "codec" {
			t.Errorf("Reason = %q, ErrorKind = %q", o.Reason, o.ErrorKind)
		}
		if o.WebPPath != "" {
			t.Error("failed outcome has no companion")
		}
	})
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("%w: x", ErrCodec), "codec"},
		{fmt.Errorf("%w: x", ErrWrite), "write"},
		{fmt.Errorf("%w: x", ErrDelete), "delete"},
		{fmt.Errorf("%w: x", ErrCompanionCollision), "collision"},
		{errors.New("boom"), "other"},
	}

	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "convert.quality", Message: "must be between 0 and 100"}
	if err.Error() != "convert.quality: must be between 0 and 100" {
		t.Errorf("Error() = %s", err.Error())
	}
}

// ============== Summary Tests ==============

func TestDiagnosticSummary(t *testing.T) {
	s := &DiagnosticSummary{Results: []DiagnosticResult{
		{Path: "/a.jpg", Status: DiagnosticOK, WebPExists: true},
		{Path: "/b.jpg", Status: DiagnosticOK},
		{Path: "/c.png", Status: DiagnosticFailed, WebPExists: true, Error: "bad"},
		{Path: "/d.png", Status: DiagnosticOK, WebPExists: true, CompanionError: "bad webp"},
	}}

	if got := s.Failed(); len(got) != 1 || got[0].Path != "/c.png" {
		t.Errorf("Failed() = %+v", got)
	}
	if got := s.MissingWebP(); len(got) != 1 || got[0].Path != "/b.jpg" {
		t.Errorf("MissingWebP() = %+v", got)
	}
	if got := s.BrokenCompanions(); len(got) != 1 || got[0].Path != "/d.png" {
		t.Errorf("BrokenCompanions() = %+v", got)
	}
}

func TestVerificationSummary(t *testing.T) {
	counts := ExtensionCounts{JPG: 2, JPEG: 1, PNG: 3, WebP: 4}
	if counts.Originals() != 6 {
		t.Errorf("Originals() = %d, want 6", counts.Originals())
	}

	s := &VerificationSummary{MissingWebP: []MissingAsset{
		{AssetRecord: Classify("/x.jpg"), Size: 50, PossiblePlaceholder: true},
		{AssetRecord: Classify("/y.png"), Size: 5000},
	}}
	if got := s.Placeholders(); len(got) != 1 || got[0].Path != "/x.jpg" {
		t.Errorf("Placeholders() = %+v", got)
	}
}

// ============== RunReport Tests ==============

func TestRunStatusExitCode(t *testing.T) {
	tests := []struct {
		status RunStatus
		want   int
	}{
		{StatusSuccess, 0},
		{StatusPartial, 0},
		{StatusFailed, 2},
		{StatusCancelled, 3},
		{RunStatus("unknown"), 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRunReportFinish(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r := NewRunReport("id", CommandConvert, "/root")
		r.Conversion = &ConversionSummary{Outcomes: []ConversionOutcome{Success("/root/a.jpg", "/root/a.webp")}}
		r.Finish(nil)
		if r.Status != StatusSuccess || len(r.Errors) != 0 {
			t.Errorf("Status = %s, Errors = %+v", r.Status, r.Errors)
		}
		if r.EndTime.Before(r.StartTime) {
			t.Error("EndTime before StartTime")
		}
	})

	t.Run("PartialCollectsFileErrors", func(t *testing.T) {
		r := NewRunReport("id", CommandConvert, "/root")
		r.Conversion = &ConversionSummary{Outcomes: []ConversionOutcome{
			Success("/root/a.jpg", "/root/a.webp"),
			Failure("/root/b.png", fmt.Errorf("%w: empty", ErrCodec)),
		}}
		r.Finish(nil)
		if r.Status != StatusPartial {
			t.Errorf("Status = %s, want partial", r.Status)
		}
		want := []FileError{{Path: "/root/b.png", Kind: "codec", Error: "codec error: empty"}}
		if !reflect.DeepEqual(r.Errors, want) {
			t.Errorf("Errors = %+v, want %+v", r.Errors, want)
		}
	})

	t.Run("RetirementFailures", func(t *testing.T) {
		r := NewRunReport("id", CommandRetire, "/root")
		r.Retirement = &RetirementSummary{Failed: []FileError{{Path: "/root/a.jpg", Kind: "delete", Error: "denied"}}}
		r.Finish(nil)
		if r.Status != StatusPartial || len(r.Errors) != 1 {
			t.Errorf("Status = %s, Errors = %+v", r.Status, r.Errors)
		}
	})

	t.Run("Failed", func(t *testing.T) {
		r := NewRunReport("id", CommandVerify, "/root")
		r.Finish(errors.New("cannot read folder"))
		if r.Status != StatusFailed || r.Fatal != "cannot read folder" {
			t.Errorf("Status = %s, Fatal = %q", r.Status, r.Fatal)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		r := NewRunReport("id", CommandConvert, "/root")
		r.Finish(fmt.Errorf("walk: %w", context.Canceled))
		if r.Status != StatusCancelled {
			t.Errorf("Status = %s, want cancelled", r.Status)
		}
	})
}
