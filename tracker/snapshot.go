package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// characterSnapshot mirrors one per-character JSON file written by the
// tracker plugin. Field names follow the plugin's PascalCase convention.
type characterSnapshot struct {
	CharacterID   int64  `json:"CharacterId"`
	CharacterName string `json:"CharacterName"`
	Tag           string `json:"FreeCompanyTag"`
	Submarines    []struct {
		Name   string `json:"Name"`
		Return int64  `json:"Return"` // unix seconds
	} `json:"Submarines"`
}

// SnapshotSource reads per-character JSON snapshot files from a directory.
// Files are re-decoded only when their mtime moves forward; a reload
// replaces that character's submarines wholesale. A malformed file keeps
// its previous, stale-but-valid state and is logged once per change.
type SnapshotSource struct {
	dir string
	log zerolog.Logger

	mtimes map[string]time.Time
	chars  map[string][]Submarine
}

func NewSnapshotSource(dir string, log zerolog.Logger) *SnapshotSource {
	return &SnapshotSource{
		dir:    dir,
		log:    log.With().Str("comp", "snapshot").Logger(),
		mtimes: make(map[string]time.Time),
		chars:  make(map[string][]Submarine),
	}
}

func (s *SnapshotSource) Poll() ([]Submarine, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &StorageError{Err: fmt.Errorf("scan %s: %w", s.dir, err)}
	}

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			s.log.Warn().Err(err).Str("file", path).Msg("stat failed, keeping previous state")
			seen[path] = true
			continue
		}
		seen[path] = true

		mtime := info.ModTime()
		if prev, ok := s.mtimes[path]; ok && !mtime.After(prev) {
			continue
		}
		// Record the mtime even when decoding fails so a broken file is
		// logged once, not every second.
		s.mtimes[path] = mtime

		subs, err := decodeSnapshot(path)
		if err != nil {
			s.log.Warn().Err(err).Str("file", path).Msg("snapshot decode failed, keeping previous state")
			continue
		}
		s.chars[path] = subs
		s.log.Debug().Str("file", path).Int("submarines", len(subs)).Msg("snapshot reloaded")
	}

	// A deleted file means the character is gone.
	for path := range s.chars {
		if !seen[path] {
			delete(s.chars, path)
			delete(s.mtimes, path)
			s.log.Debug().Str("file", path).Msg("snapshot removed")
		}
	}

	var out []Submarine
	for _, subs := range s.chars {
		out = append(out, subs...)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Return.Equal(out[j].Return) {
			return out[i].Return.Before(out[j].Return)
		}
		return out[i].Key() < out[j].Key()
	})
	return out, nil
}

func decodeSnapshot(path string) ([]Submarine, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap characterSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	subs := make([]Submarine, 0, len(snap.Submarines))
	for i, raw := range snap.Submarines {
		subs = append(subs, Submarine{
			Slot:          i,
			Name:          raw.Name,
			Return:        time.Unix(raw.Return, 0).UTC(),
			CharacterID:   snap.CharacterID,
			CharacterName: snap.CharacterName,
			Tag:           snap.Tag,
		})
	}
	return subs, nil
}

// Watch signals wake whenever a snapshot file changes, so the poll loop can
// pick up a rewrite before the next tick. The mtime cache stays
// authoritative; this only shortens the wait. Blocks until ctx is done.
func (s *SnapshotSource) Watch(ctx context.Context, wake chan<- struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(s.dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".json") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			select {
			case wake <- struct{}{}:
			default:
				// a wake-up is already queued
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn().Err(err).Msg("snapshot watcher error")
		}
	}
}
