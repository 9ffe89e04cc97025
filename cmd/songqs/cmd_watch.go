package main

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"songqs/internal/library"
	"songqs/internal/logging"
	"songqs/internal/sng"
)

// watchSettle is how long a file must stay quiet before it is
// re-validated, so editors that write in several steps trigger once.
const watchSettle = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Validate songs as they change on disk",
	Long: `Watches every songbook folder and re-validates an SNG file whenever
it is written. Issues are logged; files are never modified. Stop with
Ctrl-C.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for folder := range cfg.Library.Folders {
		dir := filepath.Join(cfg.Library.Root, folder)
		if err := watcher.Add(dir); err != nil {
			logging.L().Warn("cannot watch folder",
				zap.String("dir", dir), zap.Error(err))
			continue
		}
		logging.L().Info("watching", zap.String("dir", dir))
	}

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(watchSettle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.L().Warn("watch error", zap.Error(err))
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".sng") {
				continue
			}
			pending[event.Name] = time.Now()
		case <-ticker.C:
			for path, seen := range pending {
				if time.Since(seen) < watchSettle {
					continue
				}
				delete(pending, path)
				validateChanged(path)
			}
		}
	}
}

// validateChanged re-validates a single file after a change.
func validateChanged(path string) {
	folder := filepath.Base(filepath.Dir(path))
	prefix := cfg.Library.Folders[folder]

	f, err := sng.ParseFile(path, prefix)
	if err != nil {
		logging.L().Warn("failed to parse changed file",
			zap.String("path", path), zap.Error(err))
		return
	}

	issues := library.ValidateSong(f, cfg.Cleaning.LinesPerSlide)
	if len(issues) == 0 {
		logging.L().Info("song ok", zap.String("file", f.Name))
		return
	}
	for _, issue := range issues {
		logging.L().Warn("issue in changed file",
			zap.String("file", issue.File), zap.String("check", string(issue.Check)))
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
