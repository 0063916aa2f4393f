package history

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
)

// candidate is a history file discovered on disk.
type candidate struct {
	path  string
	mtime int64
}

// globFiles walks root and returns the regular files whose slash-separated
// path relative to root matches pattern. A symlinked root is followed and
// the returned paths stay under root as given. Unreadable subdirectories
// are skipped; only an unreadable root is an error.
func globFiles(root string, pattern glob.Glob) ([]candidate, error) {
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, err
	}
	var out []candidate
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == walkRoot {
				return err
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return nil
		}
		if !pattern.Match(filepath.ToSlash(rel)) {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		out = append(out, candidate{path: filepath.Join(root, rel), mtime: info.ModTime().UnixNano()})
		return nil
	})
	return out, err
}

// sortNewestFirst orders candidates by modification time, newest first.
// Ties keep their discovery order.
func sortNewestFirst(cs []candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].mtime > cs[j].mtime
	})
}

// mtimeOf returns the modification time of path, or 0 if it cannot be read.
func mtimeOf(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.ModTime().UnixNano()
}
