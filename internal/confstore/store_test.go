package confstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktanaka/promptdeck/internal/prompt"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleConfig = `
[settings]
copy_debounce_sec = -1

[[sections]]
name = "prompt"

  [[sections.items]]
  key = "subject"
  choices = ["robot", "", "指定なし", "robot", "cat"]
`

func TestLoadNormalizesAndPersistsChoices(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	store, err := Load(path)
	require.NoError(t, err)

	items := store.Items("prompt")
	require.Len(t, items, 1)
	assert.Equal(t, []string{prompt.NoSelection, "robot", "cat"}, items[0].Choices)

	added, err := store.AddChoice("prompt", "subject", "wolf")
	require.NoError(t, err)
	assert.True(t, added)

	removed, err := store.RemoveChoice("prompt", "subject", "cat")
	require.NoError(t, err)
	assert.True(t, removed)

	items = store.Items("prompt")
	assert.Equal(t, []string{prompt.NoSelection, "robot", "wolf"}, items[0].Choices)
}

func TestLoadTwiceIsByteIdentical(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	_, err := Load(path)
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = Load(path)
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestSaveKeepsSettingsBlockFirst(t *testing.T) {
	path := writeConfig(t, `
[[sections]]
name = "prompt"

  [[sections.items]]
  key = "subject"
  choices = ["指定なし", "robot"]

[settings]
server_port = 3000
`)

	store, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, store.SetItemState("prompt", "subject", prompt.NoSelection, ""))

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(saved)

	settingsPos := strings.Index(text, "[settings]")
	sectionsPos := strings.Index(text, "[[sections]]")
	require.GreaterOrEqual(t, settingsPos, 0)
	require.GreaterOrEqual(t, sectionsPos, 0)
	assert.Less(t, settingsPos, sectionsPos, "[settings] should precede [[sections]] after save")
}

func TestSettingsClamping(t *testing.T) {
	path := writeConfig(t, `
[settings]
copy_debounce_sec = -3.5
server_port = 99999
history_max_entries = 0
`)

	store, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2.0, store.CopyDebounceSec())
	assert.Equal(t, 3000, store.ServerPort())
	assert.Equal(t, 300, store.HistoryMaxEntries())
	assert.Equal(t, ", ", store.Delimiter())
	assert.True(t, store.ConfirmDelete())
	assert.True(t, store.HistoryConfirmDelete())
}

func TestLoadFailsOnMissingOrMalformed(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)

	path := writeConfig(t, "not == toml [[")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestAddChoiceRejectsBlankSentinelAndDuplicate(t *testing.T) {
	store, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	for _, value := range []string{"", "   ", prompt.NoSelection, "robot"} {
		added, err := store.AddChoice("prompt", "subject", value)
		require.NoError(t, err)
		assert.False(t, added, "value %q should not be added", value)
	}

	_, err = store.AddChoice("prompt", "missing", "x")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemoveChoiceAbsentIsNoop(t *testing.T) {
	store, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	removed, err := store.RemoveChoice("prompt", "subject", "never-there")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestItemStateDefaultsAndRoundTrip(t *testing.T) {
	store, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	selected, freeText := store.ItemState("prompt", "subject")
	assert.Equal(t, prompt.NoSelection, selected)
	assert.Equal(t, "", freeText)

	require.NoError(t, store.SetItemState("prompt", "subject", "  robot  ", "  blue robot  "))
	selected, freeText = store.ItemState("prompt", "subject")
	assert.Equal(t, "robot", selected)
	assert.Equal(t, "blue robot", freeText)

	// Blank selected normalizes to the sentinel.
	require.NoError(t, store.SetItemState("prompt", "subject", "   ", "kept"))
	selected, freeText = store.ItemState("prompt", "subject")
	assert.Equal(t, prompt.NoSelection, selected)
	assert.Equal(t, "kept", freeText)

	require.NoError(t, store.ClearSectionState("prompt"))
	selected, freeText = store.ItemState("prompt", "subject")
	assert.Equal(t, prompt.NoSelection, selected)
	assert.Equal(t, "", freeText)
}

func TestNormalizeFillsItemDefaults(t *testing.T) {
	store, err := Load(writeConfig(t, `
[[sections]]

  [[sections.items]]
  key = "  style  "

  [[sections.items]]
  key = ""
`))
	require.NoError(t, err)

	// Blank section name falls back to the default, blank-key items are
	// filtered from descriptors.
	items := store.Items(DefaultSectionName)
	require.Len(t, items, 1)
	assert.Equal(t, "style", items[0].Key)
	assert.Equal(t, "style", items[0].Label)
	assert.Equal(t, "{value}", items[0].Template)
	assert.True(t, items[0].AllowFreeText)
	assert.Equal(t, []string{prompt.NoSelection}, items[0].Choices)
	assert.Equal(t, DefaultSectionName+":style", items[0].ID())
}

func TestParseItemID(t *testing.T) {
	section, key, err := ParseItemID(" prompt : subject ")
	require.NoError(t, err)
	assert.Equal(t, "prompt", section)
	assert.Equal(t, "subject", key)

	for _, bad := range []string{"", "prompt", ":", "prompt:", ":subject"} {
		_, _, err := ParseItemID(bad)
		assert.Error(t, err, "item id %q should be rejected", bad)
	}
}

func TestUnrecognizedBlocksSurviveSave(t *testing.T) {
	path := writeConfig(t, `
[extras]
note = "keep me"

[[sections]]
name = "prompt"
`)

	_, err := Load(path)
	require.NoError(t, err)

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(saved), "keep me")
	assert.Less(t,
		strings.Index(string(saved), "[state]"),
		strings.Index(string(saved), "[extras]"),
		"unrecognized blocks come after the known ones")
}
