package filepicker

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrSelectionCancelled is returned when the user closes the picker
// without choosing a file.
var ErrSelectionCancelled = errors.New("file selection cancelled")

// Filter restricts which files can be picked. A file matches when its
// extension is listed or its detected MIME type is. An empty filter, or an
// extension list containing "*", matches everything.
type Filter struct {
	Name       string
	Extensions []string
	MIMETypes  []string
}

// AllFiles is the filter used when the caller does not narrow the selection.
var AllFiles = Filter{Name: "All Files", Extensions: []string{"*"}}

// AllowsAll reports whether the filter accepts any file.
func (f Filter) AllowsAll() bool {
	if len(f.Extensions) == 0 && len(f.MIMETypes) == 0 {
		return true
	}
	for _, ext := range f.Extensions {
		if ext == "*" {
			return true
		}
	}
	return false
}

// Match reports whether the file at path passes the filter. MIME types are
// sniffed from content, and "image/*" style wildcards are accepted.
func (f Filter) Match(path string) bool {
	if f.AllowsAll() {
		return true
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, want := range f.Extensions {
		if ext != "" && strings.EqualFold(strings.TrimPrefix(want, "."), ext) {
			return true
		}
	}

	if len(f.MIMETypes) == 0 {
		return false
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return false
	}
	return f.matchMIME(mt)
}

func (f Filter) matchMIME(mt *mimetype.MIME) bool {
	for _, want := range f.MIMETypes {
		if prefix, ok := strings.CutSuffix(want, "/*"); ok {
			if strings.HasPrefix(mt.String(), prefix+"/") {
				return true
			}
			continue
		}
		// Walk the hierarchy so "text/plain" also admits text/html.
		for m := mt; m != nil; m = m.Parent() {
			if m.Is(want) {
				return true
			}
		}
	}
	return false
}

func (f Filter) String() string {
	if f.Name != "" {
		return f.Name
	}
	if f.AllowsAll() {
		return AllFiles.Name
	}
	return strings.Join(append(append([]string{}, f.Extensions...), f.MIMETypes...), ", ")
}
