package models

import (
	"path/filepath"
	"strings"
)

// Recognized image extensions (lowercase, with leading dot)
const (
	ExtJPG  = ".jpg"
	ExtJPEG = ".jpeg"
	ExtPNG  = ".png"
	ExtWebP = ".webp"
)

var (
	// SourceExtensions are the extensions eligible for conversion and retirement
	SourceExtensions = []string{ExtJPG, ExtJPEG, ExtPNG}

	// VerifyExtensions are the extensions scanned by the verification report
	VerifyExtensions = []string{ExtJPG, ExtJPEG, ExtPNG, ExtWebP}
)

// AssetRecord represents an image file discovered under the root.
// It is derived from the path alone and never persisted.
type AssetRecord struct {
	// Path is the absolute file path
	Path string `json:"path"`
	// Dir is the parent directory
	Dir string `json:"dir"`
	// Ext is the lowercase extension including the dot
	Ext string `json:"ext"`
	// BaseName is the file name without its extension
	BaseName string `json:"base_name"`
}

// CompanionKey identifies the WebP companion shared by assets with the
// same directory and base name.
type CompanionKey struct {
	Dir      string
	BaseName string
}

// Classify maps a path to its asset record. No filesystem access.
func Classify(path string) AssetRecord {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	return AssetRecord{
		Path:     path,
		Dir:      filepath.Dir(path),
		Ext:      strings.ToLower(ext),
		BaseName: strings.TrimSuffix(name, ext),
	}
}

// ClassifyAll classifies every path, preserving order
func ClassifyAll(paths []string) []AssetRecord {
	assets := make([]AssetRecord, 0, len(paths))
	for _, p := range paths {
		assets = append(assets, Classify(p))
	}
	return assets
}

// Key returns the companion identity of the asset
func (a AssetRecord) Key() CompanionKey {
	return CompanionKey{Dir: a.Dir, BaseName: a.BaseName}
}

// CompanionPath returns {Dir}/{BaseName}.webp
func (a AssetRecord) CompanionPath() string {
	return a.Key().CompanionPath()
}

// CompanionPath returns the WebP path for the key
func (k CompanionKey) CompanionPath() string {
	return filepath.Join(k.Dir, k.BaseName+ExtWebP)
}

// IsSource reports whether the asset is a convertible original
func (a AssetRecord) IsSource() bool {
	switch a.Ext {
	case ExtJPG, ExtJPEG, ExtPNG:
		return true
	}
	return false
}

// MatchesExtension reports whether name carries one of the allowed
// extensions, compared case-insensitively. Dotfiles such as ".png" have no
// base name and never match.
func MatchesExtension(name string, allowed map[string]bool) bool {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return false
	}
	return allowed[strings.ToLower(ext)]
}

// ExtensionSet builds a lookup set from a list of extensions
func ExtensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[strings.ToLower(e)] = true
	}
	return set
}

// Collision describes several sources that map to the same companion,
// e.g. photo.jpg and photo.png both producing photo.webp.
type Collision struct {
	CompanionPath string   `json:"companion_path"`
	Sources       []string `json:"sources"`
}

// GroupByCompanion groups assets sharing a companion key. Groups appear in
// order of their first member, and members keep their input order.
func GroupByCompanion(assets []AssetRecord) [][]AssetRecord {
	index := make(map[CompanionKey]int)
	var groups [][]AssetRecord
	for _, a := range assets {
		k := a.Key()
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], a)
	}
	return groups
}

// FindCollisions returns every companion claimed by more than one source
func FindCollisions(assets []AssetRecord) []Collision {
	var collisions []Collision
	for _, group := range GroupByCompanion(assets) {
		if len(group) < 2 {
			continue
		}
		c := Collision{CompanionPath: group[0].CompanionPath()}
		for _, a := range group {
			c.Sources = append(c.Sources, a.Path)
		}
		collisions = append(collisions, c)
	}
	return collisions
}
