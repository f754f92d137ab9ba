package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendImageWritesFileAndTracksSinglePath(t *testing.T) {
	s := newTestStore(t, 10)
	setClock(s, time.Date(2026, 8, 23, 15, 4, 5, 0, time.UTC))

	entry, err := s.Append("with image")
	require.NoError(t, err)

	relPath, err := s.AppendImage(entry.ID, "photo.PNG", []byte("first"))
	require.NoError(t, err)
	assert.Equal(t, "images/2026/08/20260823_150405_01.png", relPath)

	data, contentType, err := s.ReadImage(relPath)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
	assert.Equal(t, "image/png", contentType)

	// A re-upload tracks the new path; the old file stays on disk.
	secondPath, err := s.AppendImage(entry.ID, "photo.png", []byte("second"))
	require.NoError(t, err)
	assert.Equal(t, "images/2026/08/20260823_150405_02.png", secondPath)

	entries, err := s.readEntries(s.activeJSON)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{secondPath}, entries[0].Images)

	_, err = os.Stat(filepath.Join(s.baseDir, filepath.FromSlash(relPath)))
	assert.NoError(t, err)
}

func TestAppendImageValidation(t *testing.T) {
	s := newTestStore(t, 10)
	setClock(s, time.Date(2026, 8, 23, 15, 0, 0, 0, time.UTC))

	entry, err := s.Append("target")
	require.NoError(t, err)

	_, err = s.AppendImage(entry.ID, "anim.gif", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedExtension)

	_, err = s.AppendImage(entry.ID, "noext", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedExtension)

	_, err = s.AppendImage(entry.ID, "big.png", make([]byte, MaxImageBytes+1))
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = s.AppendImage("20990101_000000_0001", "lost.png", []byte("x"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendImageWorksForArchivedEntries(t *testing.T) {
	s := newTestStore(t, 1)

	day := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	setClock(s, day)
	archivedEntry, err := s.Append("gets archived")
	require.NoError(t, err)

	setClock(s, day.Add(time.Minute))
	_, err = s.Append("evicts the first")
	require.NoError(t, err)

	relPath, err := s.AppendImage(archivedEntry.ID, "late.webp", []byte("w"))
	require.NoError(t, err)

	archived, err := s.readEntries(s.archiveJSONPath("20260820"))
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, []string{relPath}, archived[0].Images)
}

func TestReadImageRejectsPathsOutsideImagesTree(t *testing.T) {
	s := newTestStore(t, 10)

	for _, bad := range []string{
		"",
		"   ",
		"/etc/passwd",
		`\windows\system32`,
		"../secret.txt",
		"images/../history.json",
		"images/./x.png",
		"images//x.png",
		"history.json",
		"other/2026/08/x.png",
	} {
		_, _, err := s.ReadImage(bad)
		assert.ErrorIs(t, err, ErrInvalidImagePath, "path %q should be rejected", bad)
	}
}

func TestReadImageMissingFileSurfacesError(t *testing.T) {
	s := newTestStore(t, 10)

	_, _, err := s.ReadImage("images/2026/08/absent.png")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidImagePath)
}
