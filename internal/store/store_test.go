package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "sessions.json")
}

func TestLoadMissingFileYieldsEmptyStore(t *testing.T) {
	st := Load(tempStorePath(t), "")
	assert.Empty(t, st.All())
}

func TestLoadCorruptFileYieldsEmptyStore(t *testing.T) {
	path := tempStorePath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	st := Load(path, "")
	assert.Empty(t, st.All())

	// And the store stays usable afterwards.
	require.NoError(t, st.Upsert(NewRecord("s1", "t1", "hub-a", "host", time.Now())))
	_, ok := st.Get("hub-a")
	assert.True(t, ok)
}

func TestUpsertThenLoadRoundTrip(t *testing.T) {
	path := tempStorePath(t)
	now := time.Now().UTC().Truncate(time.Second)
	rec := NewRecord("sess-1", "tok-1", "hub-abc123", "laptop1", now)

	st := Load(path, "")
	require.NoError(t, st.Upsert(rec))

	reloaded := Load(path, "")
	got, ok := reloaded.Get("hub-abc123")
	require.True(t, ok)
	assert.Equal(t, rec.SessionID, got.SessionID)
	assert.Equal(t, rec.Token, got.Token)
	assert.Equal(t, rec.HubIdentity, got.HubIdentity)
	assert.Equal(t, rec.Hostname, got.Hostname)
	assert.True(t, rec.LastActivity.Equal(got.LastActivity))
}

func TestGetHidesExpiredButDoesNotDelete(t *testing.T) {
	path := tempStorePath(t)
	st := Load(path, "")

	old := NewRecord("sess-1", "tok-1", "hub-abc123", "laptop1", time.Now().Add(-8*24*time.Hour))
	require.NoError(t, st.Upsert(old))

	_, ok := st.Get("hub-abc123")
	assert.False(t, ok)

	// Get is read-only: the raw entry is still there until pruned.
	assert.Len(t, st.All(), 1)
}

func TestPruneExpiredRemovesOnlyInvalid(t *testing.T) {
	path := tempStorePath(t)
	st := Load(path, "")

	require.NoError(t, st.Upsert(NewRecord("s1", "t1", "hub-old", "h", time.Now().Add(-8*24*time.Hour))))
	require.NoError(t, st.Upsert(NewRecord("s2", "t2", "hub-fresh", "h", time.Now())))

	require.NoError(t, st.PruneExpired())

	_, ok := st.Get("hub-old")
	assert.False(t, ok)
	_, ok = st.Get("hub-fresh")
	assert.True(t, ok)
	assert.Len(t, st.All(), 1)
}

func TestLoadPrunesExpired(t *testing.T) {
	path := tempStorePath(t)
	st := Load(path, "")
	require.NoError(t, st.Upsert(NewRecord("s1", "t1", "hub-old", "h", time.Now().Add(-8*24*time.Hour))))

	reloaded := Load(path, "")
	assert.Empty(t, reloaded.All())
}

func TestRemoveIsolation(t *testing.T) {
	path := tempStorePath(t)
	st := Load(path, "")

	require.NoError(t, st.Upsert(NewRecord("s1", "t1", "hub-a", "h", time.Now())))
	require.NoError(t, st.Upsert(NewRecord("s2", "t2", "hub-b", "h", time.Now())))

	require.NoError(t, st.Remove("hub-a"))

	_, ok := st.Get("hub-a")
	assert.False(t, ok)
	got, ok := st.Get("hub-b")
	require.True(t, ok)
	assert.Equal(t, "s2", got.SessionID)
}

func TestRefreshUpdatesLastActivity(t *testing.T) {
	path := tempStorePath(t)
	st := Load(path, "")

	t0 := time.Now()
	require.NoError(t, st.Upsert(NewRecord("sess-1", "tok-1", "hub-abc123", "laptop1", t0)))

	t1 := t0.Add(60 * time.Second)
	require.NoError(t, st.Refresh("hub-abc123", t1))

	got, ok := st.Get("hub-abc123")
	require.True(t, ok)
	assert.True(t, got.LastActivity.Equal(t1))

	// Refreshing an unknown hub is a no-op, not an error.
	require.NoError(t, st.Refresh("hub-nope", t1))
}

func TestUpsertReplacesExistingEntry(t *testing.T) {
	path := tempStorePath(t)
	st := Load(path, "")

	require.NoError(t, st.Upsert(NewRecord("s1", "t1", "hub-a", "h", time.Now())))
	require.NoError(t, st.Upsert(NewRecord("s2", "t2", "hub-a", "h", time.Now())))

	assert.Len(t, st.All(), 1)
	got, ok := st.Get("hub-a")
	require.True(t, ok)
	assert.Equal(t, "s2", got.SessionID)
}

// Two client processes sharing one store file must not erase each
// other's sessions: every mutation re-reads the file and changes only
// its own key.
func TestSeparateWritersPreserveEachOthersRecords(t *testing.T) {
	path := tempStorePath(t)
	procA := Load(path, "")
	procB := Load(path, "")

	require.NoError(t, procA.Upsert(NewRecord("sess-a", "tok-a", "hub-a", "laptop1", time.Now())))
	require.NoError(t, procB.Upsert(NewRecord("sess-b", "tok-b", "hub-b", "laptop1", time.Now())))

	reloaded := Load(path, "")
	gotA, ok := reloaded.Get("hub-a")
	require.True(t, ok, "hub-a's record vanished after hub-b's write")
	assert.Equal(t, "sess-a", gotA.SessionID)
	gotB, ok := reloaded.Get("hub-b")
	require.True(t, ok)
	assert.Equal(t, "sess-b", gotB.SessionID)
}

func TestRemoveInOneWriterKeepsOtherKeys(t *testing.T) {
	path := tempStorePath(t)
	procA := Load(path, "")
	require.NoError(t, procA.Upsert(NewRecord("sess-a", "tok-a", "hub-a", "laptop1", time.Now())))

	procB := Load(path, "")
	require.NoError(t, procB.Upsert(NewRecord("sess-b", "tok-b", "hub-b", "laptop1", time.Now())))
	require.NoError(t, procB.Remove("hub-b"))

	reloaded := Load(path, "")
	_, ok := reloaded.Get("hub-a")
	assert.True(t, ok, "logout of hub-b took hub-a with it")
	_, ok = reloaded.Get("hub-b")
	assert.False(t, ok)
}

func TestRefreshMergesWithOtherWriters(t *testing.T) {
	path := tempStorePath(t)
	procA := Load(path, "")
	procB := Load(path, "")

	t0 := time.Now()
	require.NoError(t, procA.Upsert(NewRecord("sess-a", "tok-a", "hub-a", "laptop1", t0)))
	require.NoError(t, procB.Upsert(NewRecord("sess-b", "tok-b", "hub-b", "laptop1", t0)))

	t1 := t0.Add(time.Minute)
	require.NoError(t, procA.Refresh("hub-a", t1))

	reloaded := Load(path, "")
	gotA, ok := reloaded.Get("hub-a")
	require.True(t, ok)
	assert.True(t, gotA.LastActivity.Equal(t1))
	_, ok = reloaded.Get("hub-b")
	assert.True(t, ok, "refresh of hub-a dropped hub-b")
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	path := tempStorePath(t)
	st := Load(path, "")
	require.NoError(t, st.Upsert(NewRecord("s1", "t1", "hub-a", "h", time.Now())))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(path), entries[0].Name())
}
