package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktanaka/promptdeck/internal/confstore"
	"github.com/ktanaka/promptdeck/internal/history"
	"github.com/ktanaka/promptdeck/internal/prompt"
	"github.com/ktanaka/promptdeck/internal/shell"
)

const testConfig = `
[settings]
copy_debounce_sec = 2.0

[[sections]]
name = "prompt"

  [[sections.items]]
  key = "subject"
  choices = ["robot", "cat"]

  [[sections.items]]
  key = "style"
  choices = ["sketch"]
`

func newTestState(t *testing.T) (*State, *shell.Noop) {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0o644))
	config, err := confstore.Load(configPath)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hist, err := history.New(filepath.Join(dir, "history"), 0, logger)
	require.NoError(t, err)

	sh := &shell.Noop{}
	state := New(config, hist, sh, logger)
	state.SetPort(3000)
	return state, sh
}

func setStateClock(s *State, ts time.Time) {
	s.now = func() time.Time { return ts }
}

func TestSnapshotCoercesUnknownSelection(t *testing.T) {
	state, _ := newTestState(t)

	snap, err := state.ChangeSelection("prompt:subject", "robot")
	require.NoError(t, err)
	require.Len(t, snap.Rows, 2)
	assert.Equal(t, "robot", snap.Rows[0].Selected)
	assert.Equal(t, "[subject]：robot", snap.Preview)

	// A selection no longer in the choice list reads back as the sentinel.
	snap, err = state.ChangeSelection("prompt:subject", "dragon")
	require.NoError(t, err)
	assert.Equal(t, prompt.NoSelection, snap.Rows[0].Selected)
	assert.Equal(t, "", snap.Preview)
}

func TestChangeSelectionValidation(t *testing.T) {
	state, _ := newTestState(t)

	_, err := state.ChangeSelection("no-colon", "robot")
	assert.Error(t, err)

	_, err = state.ChangeSelection("prompt:missing", "robot")
	assert.ErrorIs(t, err, confstore.ErrItemNotFound)
}

func TestConfirmFreeTextAddsChoiceAndSelectsIt(t *testing.T) {
	state, _ := newTestState(t)

	snap, err := state.ConfirmFreeText("prompt:subject", "robot", "blue robot")
	require.NoError(t, err)
	assert.Contains(t, snap.Rows[0].Choices, "blue robot")
	assert.Equal(t, "blue robot", snap.Rows[0].Selected)
	assert.Equal(t, "blue robot", snap.Rows[0].FreeText)
	assert.Equal(t, "[subject]：blue robot", snap.Preview)

	// Blank value clears the free text and keeps the validated selection.
	snap, err = state.ConfirmFreeText("prompt:subject", "robot", "   ")
	require.NoError(t, err)
	assert.Equal(t, "robot", snap.Rows[0].Selected)
	assert.Equal(t, "", snap.Rows[0].FreeText)
}

func TestDeleteChoiceResetsSelection(t *testing.T) {
	state, _ := newTestState(t)

	_, err := state.ConfirmFreeText("prompt:subject", "", "wolf")
	require.NoError(t, err)

	snap, err := state.DeleteChoice("prompt:subject", "wolf")
	require.NoError(t, err)
	assert.NotContains(t, snap.Rows[0].Choices, "wolf")
	assert.Equal(t, prompt.NoSelection, snap.Rows[0].Selected)
	assert.Equal(t, "", snap.Rows[0].FreeText, "free text equal to the removed value is cleared")

	// Deleting the sentinel is a no-op.
	snap, err = state.DeleteChoice("prompt:subject", prompt.NoSelection)
	require.NoError(t, err)
	assert.Contains(t, snap.Rows[0].Choices, "robot")
}

func TestResetClearsAllSelections(t *testing.T) {
	state, _ := newTestState(t)

	_, err := state.ChangeSelection("prompt:subject", "robot")
	require.NoError(t, err)
	_, err = state.ChangeSelection("prompt:style", "sketch")
	require.NoError(t, err)

	snap, err := state.Reset()
	require.NoError(t, err)
	for _, row := range snap.Rows {
		assert.Equal(t, prompt.NoSelection, row.Selected)
		assert.Equal(t, "", row.FreeText)
	}
	assert.Equal(t, "", snap.Preview)
}

func TestCopyDebounceAndRevision(t *testing.T) {
	state, sh := newTestState(t)

	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	setStateClock(state, base)

	skipped, err := state.Copy("a prompt")
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Equal(t, "a prompt", sh.LastClipboard)
	assert.Equal(t, uint64(1), state.Revision())

	// Same prompt inside the two-second window is suppressed.
	setStateClock(state, base.Add(time.Second))
	skipped, err = state.Copy("a prompt")
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Equal(t, uint64(1), state.Revision())

	// A different prompt goes through immediately.
	skipped, err = state.Copy("another prompt")
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Equal(t, uint64(2), state.Revision())

	// The first prompt again, outside the window.
	setStateClock(state, base.Add(10*time.Second))
	skipped, err = state.Copy("a prompt")
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Equal(t, uint64(3), state.Revision())
}

func TestCopyBlankPromptIsSkipped(t *testing.T) {
	state, sh := newTestState(t)

	skipped, err := state.Copy("   ")
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Equal(t, "", sh.LastClipboard)
	assert.Equal(t, uint64(0), state.Revision())
}

func TestHistoryEntryLifecycleThroughCoordinator(t *testing.T) {
	state, _ := newTestState(t)

	_, err := state.Copy("logged prompt")
	require.NoError(t, err)
	entryID := loggedEntryID(t, state)

	err = state.DeleteEntry("20990101_000000_0001")
	assert.ErrorIs(t, err, history.ErrNotFound)

	updated, err := state.UpdateEntry(entryID, "rewritten")
	require.NoError(t, err)
	assert.Equal(t, "rewritten", updated)

	imagePath, err := state.UploadImage(entryID, "shot.png", []byte("png"))
	require.NoError(t, err)
	data, contentType, err := state.ReadImage(imagePath)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "image/png", contentType)

	require.NoError(t, state.DeleteEntry(entryID))
}

// loggedEntryID reads the single entry id from the active log next to the
// rendered page.
func loggedEntryID(t *testing.T, state *State) string {
	t.Helper()
	logPath := filepath.Join(filepath.Dir(state.history.HTMLPath()), "history.json")
	raw, err := os.ReadFile(logPath)
	require.NoError(t, err)

	var entries []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 1)
	return entries[0].ID
}

func TestOpenHistoryPage(t *testing.T) {
	state, sh := newTestState(t)

	// Page does not exist yet.
	err := state.OpenHistoryPage()
	assert.ErrorIs(t, err, history.ErrNotFound)

	require.NoError(t, state.RegenerateViews())
	require.NoError(t, state.OpenHistoryPage())
	require.Len(t, sh.OpenedPaths, 1)
	assert.Contains(t, sh.OpenedPaths[0], "History.html")
}

func TestReloadConfigPicksUpExternalEdit(t *testing.T) {
	state, _ := newTestState(t)

	path := state.config.Path()
	edited := testConfig + `
  [[sections.items]]
  key = "mood"
  choices = ["calm"]
`
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))
	require.NoError(t, state.ReloadConfig())

	snap := state.Snapshot()
	require.Len(t, snap.Rows, 3)
	assert.Equal(t, "prompt:mood", snap.Rows[2].ItemID)
}
