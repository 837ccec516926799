package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"pairlink/internal/constants"
)

// FileStore maps hub identity to its session record and persists the
// map to a single local file. Every mutation is a read-modify-write:
// the current on-disk map is re-read under the lock, only this writer's
// key is changed on top of it, and the result replaces the file through
// a temp-file + rename. Concurrent client processes talking to
// different hubs therefore never erase each other's records; two
// refreshing the same key race at worst into a slightly stale
// last_activity, never a lost record or a broken file.
type FileStore struct {
	mu      sync.Mutex
	path    string
	seal    *sealer
	records map[string]Record
	now     func() time.Time
}

// Load reads the store file at path. A missing, unreadable or corrupt
// file yields an empty store; startup is never blocked by local state.
// Expired records are pruned immediately. key enables at-rest sealing
// when non-empty.
func Load(path, key string) *FileStore {
	st := &FileStore{
		path:    path,
		records: make(map[string]Record),
		now:     time.Now,
	}
	if key != "" {
		st.seal = newSealer(key)
	}

	st.records = st.readDisk()
	st.PruneExpired()
	return st
}

// readDisk decodes the current on-disk map. Missing, corrupt or
// unsealable content reads as empty, same as Load.
func (st *FileStore) readDisk() map[string]Record {
	data, err := os.ReadFile(st.path)
	if err != nil {
		return make(map[string]Record)
	}
	if st.seal != nil {
		if data, err = st.seal.open(data); err != nil {
			return make(map[string]Record)
		}
	}
	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil || records == nil {
		return make(map[string]Record)
	}
	return records
}

// DefaultPath returns the per-user session store file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sessions.json"
	}
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", constants.AppName, "sessions.json")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", constants.AppName, "sessions.json")
	default:
		base := filepath.Join(home, ".local", "share")
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
		}
		return filepath.Join(base, constants.AppName, "sessions.json")
	}
}

// Get returns the record for hubIdentity only when it is still valid.
// Expired records read as absent but are not deleted here; Get is
// read-only.
func (st *FileStore) Get(hubIdentity string) (Record, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	rec, ok := st.records[hubIdentity]
	if !ok || !rec.Valid(st.now()) {
		return Record{}, false
	}
	return rec, true
}

// Upsert inserts or replaces the record under its hub identity and
// persists on top of whatever the file holds now.
func (st *FileStore) Upsert(rec Record) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	records := st.readDisk()
	records[rec.HubIdentity] = rec
	st.records = records
	return st.persist()
}

// Refresh bumps last_activity for hubIdentity and persists. Missing or
// expired records are left alone.
func (st *FileStore) Refresh(hubIdentity string, now time.Time) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	records := st.readDisk()
	rec, ok := records[hubIdentity]
	if !ok {
		// The file may have been lost; fall back to what this process
		// knows so its own session survives the refresh.
		rec, ok = st.records[hubIdentity]
	}
	if !ok || !rec.Valid(st.now()) {
		return nil
	}
	rec.Refresh(now)
	records[hubIdentity] = rec
	st.records = records
	return st.persist()
}

// Remove deletes the entry for hubIdentity (explicit logout) and
// persists.
func (st *FileStore) Remove(hubIdentity string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	records := st.readDisk()
	_, onDisk := records[hubIdentity]
	_, local := st.records[hubIdentity]
	if !onDisk && !local {
		return nil
	}
	delete(records, hubIdentity)
	st.records = records
	return st.persist()
}

// PruneExpired drops every invalid record, persisting only when
// something changed.
func (st *FileStore) PruneExpired() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	records := st.readDisk()
	changed := false
	now := st.now()
	for id, rec := range records {
		if !rec.Valid(now) {
			delete(records, id)
			changed = true
		}
	}
	st.records = records
	if !changed {
		return nil
	}
	return st.persist()
}

// All returns a snapshot of every stored record, valid or not. Used by
// the status listing.
func (st *FileStore) All() []Record {
	st.mu.Lock()
	defer st.mu.Unlock()

	out := make([]Record, 0, len(st.records))
	for _, rec := range st.records {
		out = append(out, rec)
	}
	return out
}

func (st *FileStore) persist() error {
	data, err := json.MarshalIndent(st.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session store: %w", err)
	}
	if st.seal != nil {
		data = st.seal.close(data)
	}

	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sessions-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session store: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod session store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp store file: %w", err)
	}
	if err := os.Rename(tmpName, st.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace session store: %w", err)
	}
	return nil
}
