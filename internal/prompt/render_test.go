package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderPrefersConfirmedFreeText(t *testing.T) {
	out := Render([]Entry{
		{Label: "subject", Selected: "robot", FreeText: "blue robot"},
		{Label: "direction", Selected: NoSelection, FreeText: ""},
	})
	assert.Equal(t, "[subject]：blue robot", out)
}

func TestRenderSkipsEmptyAndSentinelRows(t *testing.T) {
	out := Render([]Entry{
		{Label: "a", Selected: "  ", FreeText: "  "},
		{Label: "b", Selected: NoSelection, FreeText: ""},
		{Label: "c", Selected: "cat", FreeText: ""},
		{Label: "d", Selected: "dog", FreeText: "  big dog  "},
	})
	assert.Equal(t, "[c]：cat\n[d]：big dog", out)
}

func TestRenderEmptyInput(t *testing.T) {
	assert.Equal(t, "", Render(nil))
}
