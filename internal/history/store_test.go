package history

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxActive int) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(t.TempDir(), maxActive, logger)
	require.NoError(t, err)
	return s
}

func setClock(s *Store, ts time.Time) {
	s.now = func() time.Time { return ts }
}

func activeIDs(t *testing.T, s *Store) []string {
	t.Helper()
	entries, err := s.readEntries(s.activeJSON)
	require.NoError(t, err)
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestAppendAssignsSequentialIDsWithinSecond(t *testing.T) {
	s := newTestStore(t, 10)
	setClock(s, time.Date(2026, 8, 23, 10, 30, 15, 0, time.UTC))

	first, err := s.Append("one")
	require.NoError(t, err)
	second, err := s.Append("two")
	require.NoError(t, err)
	third, err := s.Append("three")
	require.NoError(t, err)

	assert.Equal(t, "20260823_103015_0001", first.ID)
	assert.Equal(t, "20260823_103015_0002", second.ID)
	assert.Equal(t, "20260823_103015_0003", third.ID)
	assert.Equal(t, "2026-08-23 10:30:15", first.TS)
}

func TestAppendRejectsBlankPrompt(t *testing.T) {
	s := newTestStore(t, 10)

	_, err := s.Append("   \n  ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestRotationMovesOldestIntoDatedArchives(t *testing.T) {
	s := newTestStore(t, 3)

	day1 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)

	var all []string
	for i, ts := range []time.Time{
		day1, day1.Add(time.Second), day1.Add(2 * time.Second),
		day2, day2.Add(time.Second),
	} {
		setClock(s, ts)
		entry, err := s.Append("prompt " + string(rune('a'+i)))
		require.NoError(t, err)
		all = append(all, entry.ID)
	}

	// Active keeps the newest three, both evicted entries land in the
	// archive for their own day.
	assert.Equal(t, all[2:], activeIDs(t, s))

	archived, err := s.readEntries(s.archiveJSONPath("20260820"))
	require.NoError(t, err)
	require.Len(t, archived, 2)
	assert.Equal(t, all[0], archived[0].ID)
	assert.Equal(t, all[1], archived[1].ID)

	_, err = os.Stat(s.archiveJSONPath("20260821"))
	assert.True(t, os.IsNotExist(err), "no archive expected for the day still fully active")
}

func TestArchiveMergeOverwritesOnIDCollision(t *testing.T) {
	s := newTestStore(t, 1)
	setClock(s, time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC))

	colliding := []Entry{{
		ID:     "20260820_120000_0001",
		TS:     "2026-08-20 12:00:00",
		Prompt: "original",
	}}
	require.NoError(t, s.writeEntries(s.archiveJSONPath("20260820"), colliding))

	// An active entry reusing an archived id wins the merge on eviction.
	replacement := Entry{
		ID:     "20260820_120000_0001",
		TS:     "2026-08-20 12:00:00",
		Prompt: "rewritten",
	}
	kept, err := s.rotateIfNeeded([]Entry{replacement, {
		ID:     "20260820_120001_0001",
		TS:     "2026-08-20 12:00:01",
		Prompt: "stays",
	}})
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "stays", kept[0].Prompt)

	archived, err := s.readEntries(s.archiveJSONPath("20260820"))
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "rewritten", archived[0].Prompt)
}

func TestDayKeyFallsBackToTimestampThenToday(t *testing.T) {
	s := newTestStore(t, 10)
	setClock(s, time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "20260101", s.dayKey(Entry{ID: "20260101_000000_0001"}))
	assert.Equal(t, "20250704", s.dayKey(Entry{ID: "custom-id", TS: "2025-07-04 08:00:00"}))
	assert.Equal(t, "20260823", s.dayKey(Entry{ID: "custom-id", TS: "no digits"}))
}

func TestDeleteFromActiveAndArchive(t *testing.T) {
	s := newTestStore(t, 1)

	day1 := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	setClock(s, day1)
	first, err := s.Append("archived later")
	require.NoError(t, err)

	setClock(s, day1.Add(time.Minute))
	second, err := s.Append("stays active")
	require.NoError(t, err)

	// first has rotated into the archive by now.
	deleted, err := s.Delete(first.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	archived, err := s.readEntries(s.archiveJSONPath("20260820"))
	require.NoError(t, err)
	assert.Empty(t, archived)

	deleted, err = s.Delete(second.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, activeIDs(t, s))

	// Second delete of the same id is a reported no-op.
	deleted, err = s.Delete(second.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestUpdatePromptPreservesTimestampAndImages(t *testing.T) {
	s := newTestStore(t, 10)
	setClock(s, time.Date(2026, 8, 23, 14, 0, 0, 0, time.UTC))

	entry, err := s.Append("before")
	require.NoError(t, err)
	relPath, err := s.AppendImage(entry.ID, "shot.png", []byte("png-bytes"))
	require.NoError(t, err)

	updated, err := s.UpdatePrompt(entry.ID, "  after  ")
	require.NoError(t, err)
	assert.True(t, updated)

	entries, err := s.readEntries(s.activeJSON)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "after", entries[0].Prompt)
	assert.Equal(t, entry.TS, entries[0].TS)
	assert.Equal(t, []string{relPath}, entries[0].Images)

	updated, err = s.UpdatePrompt("20990101_000000_0001", "whatever")
	require.NoError(t, err)
	assert.False(t, updated)

	_, err = s.UpdatePrompt(entry.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestBrokenActiveLogIsBackedUpAndReset(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, activeLogName), []byte("{broken"), 0o644))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(dir, 10, logger)
	require.NoError(t, err)
	assert.Empty(t, activeIDs(t, s))

	matches, err := filepath.Glob(filepath.Join(dir, "history.broken.*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	raw, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(raw))
}

func TestReadEntriesDropsInvalidAndCollapsesImages(t *testing.T) {
	s := newTestStore(t, 10)
	raw := `[
  {"id": "20260823_100000_0001", "ts": "2026-08-23 10:00:00", "prompt": "ok",
   "images": ["images/2026/08/a.png", "", "images/2026/08/b.png"]},
  {"id": "", "ts": "2026-08-23 10:00:01", "prompt": "dropped"},
  {"id": "20260823_100002_0001", "ts": "", "prompt": "dropped"},
  "not-an-object"
]`
	require.NoError(t, os.WriteFile(s.activeJSON, []byte(raw), 0o644))

	entries, err := s.readEntries(s.activeJSON)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"images/2026/08/b.png"}, entries[0].Images)
}
