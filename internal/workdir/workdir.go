// Package workdir owns the per-job working directory: segment file layout,
// resume scanning and cleanup. A segment file's presence at its final path
// is the completion record for that index; no journal file exists.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir is the working directory for one job's segment files.
type Dir struct {
	path string
	ext  string
}

// New returns the working directory for a job under root. ext is the
// segment file extension including the leading dot.
func New(root, name, ext string) Dir {
	return Dir{path: filepath.Join(root, name), ext: ext}
}

// Path returns the directory path.
func (d Dir) Path() string { return d.path }

// Ensure creates the directory if missing.
func (d Dir) Ensure() error {
	if err := os.MkdirAll(d.path, 0755); err != nil {
		return fmt.Errorf("create working dir: %w", err)
	}
	return nil
}

// SegmentPath returns the deterministic, index-addressable path for one
// segment, so existence checks and resume need no auxiliary metadata.
func (d Dir) SegmentPath(index int) string {
	return filepath.Join(d.path, fmt.Sprintf("segment_%d%s", index, d.ext))
}

// Scan probes which of the expected segment files already exist and can be
// reused. Read-only, no side effects. An index counts as complete only at
// non-zero size; since segment files become visible by atomic rename, a
// non-empty file at its final path is a finished download.
func (d Dir) Scan(expected int) (map[int]bool, error) {
	done := make(map[int]bool, expected)
	for i := 0; i < expected; i++ {
		info, err := os.Stat(d.SegmentPath(i))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("scan segment %d: %w", i, err)
		}
		if info.Mode().IsRegular() && info.Size() > 0 {
			done[i] = true
		}
	}
	return done, nil
}

// Remove deletes the working directory and all segment files in it.
func (d Dir) Remove() error {
	if err := os.RemoveAll(d.path); err != nil {
		return fmt.Errorf("remove working dir: %w", err)
	}
	return nil
}
