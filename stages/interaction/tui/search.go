package interactionui

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const maxSearchResults = 500

type fileHit struct {
	path string
	info fs.FileInfo
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// findFiles walks root and sends regular files whose name fuzzily matches
// query, at most limit of them. It closes hits when done.
func findFiles(ctx context.Context, root, query string, showHidden bool, limit int, hits chan<- fileHit) {
	defer close(hits)
	found := 0

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil || found >= limit {
			return filepath.SkipAll
		}
		if err != nil || path == root {
			return nil
		}
		if !showHidden && hidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !fuzzy.MatchNormalizedFold(query, d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		select {
		case hits <- fileHit{path: path, info: info}:
			found++
		case <-ctx.Done():
			return filepath.SkipAll
		}
		return nil
	})
}

// listDir returns the entries of dir for the tree, directories first and
// each group sorted by name.
func listDir(dir string, showHidden bool) ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	shown := entries[:0]
	for _, e := range entries {
		if showHidden || !hidden(e.Name()) {
			shown = append(shown, e)
		}
	}
	sort.SliceStable(shown, func(i, j int) bool {
		if shown[i].IsDir() != shown[j].IsDir() {
			return shown[i].IsDir()
		}
		return strings.ToLower(shown[i].Name()) < strings.ToLower(shown[j].Name())
	})
	return shown, nil
}
