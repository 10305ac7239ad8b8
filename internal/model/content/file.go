package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type fileDocument struct {
	Entries []Entry `yaml:"entries"`
}

// LoadFile reads entries from a YAML document of the form
//
//	entries:
//	  - key: about
//	    keywords: ["ℹ️ О компании", "/about"]
//	    keyboard: menu
//	    text: "..."
func LoadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode content file: %w", err)
	}
	if len(doc.Entries) == 0 {
		return nil, fmt.Errorf("content file %s has no entries", path)
	}
	for _, entry := range doc.Entries {
		if err := entry.Validate(); err != nil {
			return nil, err
		}
	}
	return doc.Entries, nil
}

// Watch reloads path into store whenever the file is written or replaced,
// until ctx is done. A broken file keeps the previous entries.
func Watch(ctx context.Context, path string, store *MemoryStore, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create content watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files on save, so watch the directory instead.
	cleanPath := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(cleanPath)); err != nil {
		return fmt.Errorf("watch content dir: %w", err)
	}

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != cleanPath {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				debounce = time.After(100 * time.Millisecond)
			}
		case <-debounce:
			debounce = nil
			entries, err := LoadFile(cleanPath)
			if err != nil {
				logger.Warn("content reload failed, keeping previous entries", zap.Error(err))
				continue
			}
			store.Replace(entries)
			logger.Info("content reloaded", zap.Int("entries", len(entries)))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("content watcher error", zap.Error(err))
		}
	}
}
