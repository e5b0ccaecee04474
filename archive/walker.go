// Package archive builds Walk abstraction on top of "archive/zip".
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"strings"
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to
// Walk. If an error is returned, processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Filter selects archive entries by name.
type Filter func(name string) bool

// WithExtensions matches entries whose names end with one of extensions,
// ignoring case.
func WithExtensions(extensions ...string) Filter {
	return func(name string) bool {
		ext := strings.ToLower(path.Ext(name))
		for _, e := range extensions {
			if ext == strings.ToLower(e) {
				return true
			}
		}
		return false
	}
}

// Walk calls walkFn for all regular files in the archive located under
// prefix and accepted by filter (nil filter accepts everything). Archives
// with absolute entry names or ".." components are rejected as a whole.
func Walk(archive, prefix string, filter Filter, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !underPrefix(name, prefix) {
			continue
		}
		if filter != nil && !filter(name) {
			continue
		}
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// underPrefix reports whether name is prefix itself or is located in prefix
// directory, "css" matches "css/a.css" but not "cssx/a.css".
func underPrefix(name, prefix string) bool {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return true
	}
	return name == prefix || strings.HasPrefix(name, prefix+"/")
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
