// Package library scans and cleans a SongBeamer song collection on
// disk. A library is a root directory with one folder per songbook
// category; each folder maps to a songbook prefix that drives the
// validation rules for the files inside it.
package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"songqs/internal/logging"
	"songqs/internal/sng"
)

// scanConcurrency limits how many folders are parsed at once.
const scanConcurrency = 4

// Scan reads all SNG files under root, one goroutine per songbook
// folder. folders maps folder names to their songbook prefix; folders
// not listed are skipped. Files without an Editor header get the
// default one so later comparisons have a baseline.
func Scan(ctx context.Context, root string, folders map[string]string) ([]*sng.File, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)

	var mu sync.Mutex
	var files []*sng.File

	names := make([]string, 0, len(folders))
	for name := range folders {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dir := filepath.Join(root, name)
		prefix := folders[name]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			parsed, err := ScanDir(dir, prefix)
			if err != nil {
				return err
			}
			mu.Lock()
			files = append(files, parsed...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Dir != files[j].Dir {
			return files[i].Dir < files[j].Dir
		}
		return files[i].Name < files[j].Name
	})
	logging.L().Info("scanned song library",
		zap.String("root", root), zap.Int("songs", len(files)))
	return files, nil
}

// ScanDir reads all SNG files from a single directory. Files that
// cannot be read are logged and skipped.
func ScanDir(dir, prefix string) ([]*sng.File, error) {
	logging.L().Info("parsing directory",
		zap.String("dir", dir), zap.String("prefix", prefix))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read song directory: %w", err)
	}

	var files []*sng.File
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".sng") {
			continue
		}
		f, err := sng.ParseFile(filepath.Join(dir, entry.Name()), prefix)
		if err != nil {
			// One broken file must not kill the run over the whole library.
			logging.L().Error("skipping unreadable song",
				zap.String("file", entry.Name()), zap.String("dir", dir), zap.Error(err))
			continue
		}
		if !f.Header.Has("Editor") {
			f.Header.Set("Editor", sng.DefaultEditor())
			logging.L().Info("added missing editor", zap.String("file", f.Name))
		}
		files = append(files, f)
	}
	return files, nil
}

// CategoryFoldersExist checks that every ChurchTools song category has a
// matching folder under root, so a sync cannot drop songs into nowhere.
func CategoryFoldersExist(categories []string, root string) (bool, error) {
	logging.L().Debug("checking category folders",
		zap.Strings("categories", categories), zap.String("root", root))

	entries, err := os.ReadDir(root)
	if err != nil {
		return false, fmt.Errorf("failed to read library root: %w", err)
	}
	existing := make(map[string]bool, len(entries))
	for _, entry := range entries {
		existing[entry.Name()] = true
	}

	ok := true
	for _, category := range categories {
		if !existing[category] {
			logging.L().Warn("missing category folder",
				zap.String("category", category), zap.String("root", root))
			ok = false
		}
	}
	return ok, nil
}

// WriteAll writes the given files back to disk. With a non-empty
// targetDir the files are rebased there first, keeping their songbook
// folder, so originals stay untouched.
func WriteAll(files []*sng.File, targetDir string) error {
	if targetDir != "" {
		logging.L().Info("writing to separate target", zap.String("dir", targetDir))
		for _, f := range files {
			f.Rebase(targetDir)
		}
	}
	for _, f := range files {
		if err := f.Write(); err != nil {
			return err
		}
	}
	logging.L().Info("wrote song files", zap.Int("count", len(files)))
	return nil
}
