package confstore

import (
	"strings"

	"github.com/ktanaka/promptdeck/internal/prompt"
)

// Normalization defaults. Settings accessors clamp with the same values so a
// reader never observes an out-of-range setting even from a stale document.
const (
	defaultDelimiter     = ", "
	defaultDebounceSec   = 2.0
	defaultServerPort    = 3000
	defaultMaxEntries    = 300
	defaultItemTemplate  = "{value}"
	defaultAllowFreeText = true
)

// normalize enforces the document invariants in place: settings defaulted and
// clamped, every section and item filled out, choice lists deduplicated with
// the sentinel first, and the state table present.
func (s *Store) normalize() {
	settings := s.ensureSettings()

	if _, ok := asString(settings["delimiter"]); !ok {
		settings["delimiter"] = defaultDelimiter
	}
	if _, ok := asBool(settings["confirm_delete"]); !ok {
		settings["confirm_delete"] = true
	}
	debounce, ok := toFloat(settings["copy_debounce_sec"])
	if !ok || debounce < 0 {
		debounce = defaultDebounceSec
	}
	settings["copy_debounce_sec"] = debounce

	port, ok := toInt(settings["server_port"])
	if !ok || port < 1 || port > 65535 {
		port = defaultServerPort
	}
	settings["server_port"] = port

	if _, ok := asBool(settings["history_confirm_delete"]); !ok {
		settings["history_confirm_delete"] = true
	}
	maxEntries, ok := toInt(settings["history_max_entries"])
	if !ok || maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	settings["history_max_entries"] = maxEntries

	sections := s.ensureSections()
	for i, sv := range sections {
		section, ok := asTable(sv)
		if !ok {
			section = map[string]any{}
			sections[i] = section
		}
		normalizeSection(section)
	}

	s.ensureState()
}

func normalizeSection(section map[string]any) {
	name := ""
	if v, ok := asString(section["name"]); ok {
		name = strings.TrimSpace(v)
	}
	if name == "" {
		name = DefaultSectionName
	}
	section["name"] = name

	if _, ok := asString(section["label"]); !ok {
		section["label"] = name
	}

	items := ensureArray(section, "items")
	for i, iv := range items {
		item, ok := asTable(iv)
		if !ok {
			item = map[string]any{}
			items[i] = item
		}
		normalizeItem(item)
	}
}

func normalizeItem(item map[string]any) {
	key := ""
	if v, ok := item["key"]; ok {
		key = strings.TrimSpace(toText(v))
	}
	item["key"] = key

	if _, ok := asString(item["label"]); !ok {
		item["label"] = key
	}
	if _, ok := asBool(item["allow_free_text"]); !ok {
		item["allow_free_text"] = defaultAllowFreeText
	}
	if _, ok := asString(item["template"]); !ok {
		item["template"] = defaultItemTemplate
	}
	item["choices"] = choicesToArray(normalizeChoices(item["choices"]))
}

// normalizeChoices returns the cleaned choice list: trimmed, no blanks, no
// duplicates, the no-selection sentinel forced to index 0.
func normalizeChoices(v any) []string {
	var out []string
	if arr, ok := asArray(v); ok {
		for _, cv := range arr {
			text := strings.TrimSpace(toText(cv))
			if text == "" || text == prompt.NoSelection {
				continue
			}
			dup := false
			for _, existing := range out {
				if existing == text {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, text)
			}
		}
	}
	return append([]string{prompt.NoSelection}, out...)
}

func choicesToArray(choices []string) []any {
	arr := make([]any, len(choices))
	for i, c := range choices {
		arr[i] = c
	}
	return arr
}
