package history

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegenerateViewsWritesActiveAndArchivePages(t *testing.T) {
	s := newTestStore(t, 1)

	day := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	setClock(s, day)
	archivedEntry, err := s.Append("older prompt")
	require.NoError(t, err)

	setClock(s, day.Add(time.Minute))
	activeEntry, err := s.Append("newer prompt")
	require.NoError(t, err)

	require.NoError(t, s.RegenerateViews(3123))

	active, err := os.ReadFile(s.HTMLPath())
	require.NoError(t, err)
	page := string(active)

	assert.Contains(t, page, "<title>Prompt History</title>")
	assert.Contains(t, page, `href="History_20260820.html"`)
	assert.Contains(t, page, `const API_BASE = "http://127.0.0.1:3123";`)
	assert.Contains(t, page, `<button class="btn delete-btn">削除</button>`)
	assert.Contains(t, page, activeEntry.ID)
	assert.NotContains(t, page, archivedEntry.ID)
	assert.NotContains(t, page, "履歴はまだありません")

	archive, err := os.ReadFile(s.archiveHTMLPath("20260820"))
	require.NoError(t, err)
	archivePage := string(archive)

	// Archive pages are read-only: no controls, no polling script, no
	// links to other archives.
	assert.Contains(t, archivePage, "<title>Prompt History Archive 20260820</title>")
	assert.Contains(t, archivePage, archivedEntry.ID)
	assert.Contains(t, archivePage, "readonly")
	assert.NotContains(t, archivePage, `<button class="btn delete-btn">`)
	assert.NotContains(t, archivePage, "API_BASE")
	assert.NotContains(t, archivePage, "archive-link")
}

func TestRegenerateViewsSortsNewestFirst(t *testing.T) {
	s := newTestStore(t, 10)
	setClock(s, time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC))

	older, err := s.Append("older")
	require.NoError(t, err)
	newer, err := s.Append("newer")
	require.NoError(t, err)

	require.NoError(t, s.RegenerateViews(3000))
	page, err := os.ReadFile(s.HTMLPath())
	require.NoError(t, err)

	newerPos := strings.Index(string(page), newer.ID)
	olderPos := strings.Index(string(page), older.ID)
	require.GreaterOrEqual(t, newerPos, 0)
	require.GreaterOrEqual(t, olderPos, 0)
	assert.Less(t, newerPos, olderPos)
}

func TestRegenerateViewsEscapesPromptText(t *testing.T) {
	s := newTestStore(t, 10)

	_, err := s.Append(`<script>alert("x")</script> & "quotes"`)
	require.NoError(t, err)

	require.NoError(t, s.RegenerateViews(3000))
	page, err := os.ReadFile(s.HTMLPath())
	require.NoError(t, err)

	assert.NotContains(t, string(page), `<script>alert(`)
	assert.Contains(t, string(page), "&lt;script&gt;alert(")
}

func TestRegenerateViewsEmptyLog(t *testing.T) {
	s := newTestStore(t, 10)

	require.NoError(t, s.RegenerateViews(3000))
	page, err := os.ReadFile(s.HTMLPath())
	require.NoError(t, err)

	assert.Contains(t, string(page), "履歴はまだありません")
}
