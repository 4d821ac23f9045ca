package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/leaprecord/pkg/schema"
)

const watchDebounce = 100 * time.Millisecond

// isSchemaFile reports whether name is a descriptor file.
func isSchemaFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// watchSchema calls onChange with freshly loaded descriptors each time a
// descriptor file under the schema directory is written, created or
// removed. It blocks until ctx is cancelled or the process is interrupted.
func watchSchema(ctx context.Context, cc *CommandContext, onChange func([]*schema.Descriptor) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDir(watcher, cc.Cfg.SchemaDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", cc.Cfg.SchemaDir, err)
	}
	cc.Logger.Info("watching for schema changes", "dir", cc.Cfg.SchemaDir)

	var (
		debounce *time.Timer
		fire     <-chan time.Time
		changed  string
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !isSchemaFile(event.Name) {
				continue
			}
			changed = event.Name
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(watchDebounce)
			fire = debounce.C

		case <-fire:
			fire = nil
			cc.Logger.Info("change detected", "file", filepath.Base(changed))
			descs, err := loadDescriptors(cc.Cfg)
			if err != nil {
				cc.Logger.Warn("reload failed", "error", err)
				continue
			}
			if err := onChange(descs); err != nil {
				cc.Logger.Warn("check failed", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cc.Logger.Warn("watcher error", "error", err)
		}
	}
}

// watchDir adds dir and its subdirectories to the watcher, skipping hidden
// directories.
func watchDir(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && len(d.Name()) > 0 && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
