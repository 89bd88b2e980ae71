package filesvc

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	extLisp = ".lisp"
	extTL   = ".tl"
)

type FileEntry struct {
	Name string
	Path string
}

func IsSourceFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case extLisp, extTL:
		return true
	default:
		return false
	}
}

// Expand resolves each argument to source files: plain files are kept
// as given whatever their extension, directories are walked for source
// files, skipping hidden subdirectories.
func Expand(args []string) ([]FileEntry, error) {
	var out []FileEntry
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, FileEntry{Name: filepath.Base(arg), Path: arg})
			continue
		}
		entries, err := ListSourceFiles(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

// ListSourceFiles walks root and returns source files sorted by their
// path relative to root.
func ListSourceFiles(root string) ([]FileEntry, error) {
	var entries []FileEntry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsSourceFile(d.Name()) {
			return nil
		}
		rel := d.Name()
		if r, relErr := filepath.Rel(root, path); relErr == nil {
			rel = r
		}
		entries = append(entries, FileEntry{Name: rel, Path: path})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}
