// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FindFilesByToken searches every root for files whose base name contains
// token, compared case-insensitively. A root may be a directory, which is
// walked recursively, or a single file. Roots that do not exist are skipped.
// Each path is returned once, in walk order.
func FindFilesByToken(token string, roots ...string) ([]string, error) {
	if token == "" {
		panic("token must not be empty")
	}
	token = strings.ToLower(token)

	var files []string
	seen := make(map[string]struct{})
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}
	matches := func(name string) bool {
		return strings.Contains(strings.ToLower(name), token)
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		if !info.IsDir() {
			if matches(info.Name()) {
				add(filepath.Clean(root))
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && matches(d.Name()) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}
