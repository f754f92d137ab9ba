package confstore

import (
	"fmt"
	"strings"

	"github.com/ktanaka/promptdeck/internal/prompt"
)

// Item is the descriptor of one configured prompt category item. Its identity
// across the system is the (Section, Key) pair.
type Item struct {
	Section       string   `json:"section"`
	Key           string   `json:"key"`
	Label         string   `json:"label"`
	Choices       []string `json:"choices"`
	AllowFreeText bool     `json:"allow_free_text"`
	Template      string   `json:"template"`
}

// ID returns the wire identifier "section:key".
func (i Item) ID() string {
	return i.Section + ":" + i.Key
}

// ParseItemID splits a "section:key" identifier.
func ParseItemID(itemID string) (section, key string, err error) {
	section, key, ok := strings.Cut(itemID, ":")
	section = strings.TrimSpace(section)
	key = strings.TrimSpace(key)
	if !ok || section == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidItemID, itemID)
	}
	return section, key, nil
}

// Items returns the ordered item descriptors of a section, skipping items
// whose key is blank.
func (s *Store) Items(section string) []Item {
	var items []Item
	sections, _ := asArray(s.doc["sections"])
	for _, sv := range sections {
		st, ok := asTable(sv)
		if !ok || trimmedString(st, "name") != section {
			continue
		}
		rawItems, _ := asArray(st["items"])
		for _, iv := range rawItems {
			it, ok := asTable(iv)
			if !ok {
				continue
			}
			key := strings.TrimSpace(toText(it["key"]))
			if key == "" {
				continue
			}

			label, ok := asString(it["label"])
			if !ok {
				label = key
			}
			template, ok := asString(it["template"])
			if !ok {
				template = defaultItemTemplate
			}
			allowFree, ok := asBool(it["allow_free_text"])
			if !ok {
				allowFree = defaultAllowFreeText
			}

			items = append(items, Item{
				Section:       section,
				Key:           key,
				Label:         label,
				Choices:       normalizeChoices(it["choices"]),
				AllowFreeText: allowFree,
				Template:      template,
			})
		}
	}
	return items
}

// AddChoice appends a choice to an item's list and persists. It reports false
// without touching the document when the value is blank, the sentinel, or
// already present. The (section, key) pair must exist.
func (s *Store) AddChoice(section, key, value string) (bool, error) {
	normalized := strings.TrimSpace(value)
	if normalized == "" || normalized == prompt.NoSelection {
		return false, nil
	}

	item := s.findItemTable(section, key)
	if item == nil {
		return false, fmt.Errorf("%w: %s.%s", ErrItemNotFound, section, key)
	}

	choices := normalizeChoices(item["choices"])
	for _, c := range choices {
		if c == normalized {
			return false, nil
		}
	}

	item["choices"] = choicesToArray(append(choices, normalized))
	if err := s.Save(); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveChoice removes a choice from an item's list and persists. It reports
// false when the value is blank, the sentinel, or absent.
func (s *Store) RemoveChoice(section, key, value string) (bool, error) {
	normalized := strings.TrimSpace(value)
	if normalized == "" || normalized == prompt.NoSelection {
		return false, nil
	}

	item := s.findItemTable(section, key)
	if item == nil {
		return false, fmt.Errorf("%w: %s.%s", ErrItemNotFound, section, key)
	}

	choices := normalizeChoices(item["choices"])
	filtered := choices[:0]
	found := false
	for _, c := range choices {
		if c == normalized {
			found = true
			continue
		}
		filtered = append(filtered, c)
	}
	if !found {
		return false, nil
	}

	item["choices"] = choicesToArray(filtered)
	if err := s.Save(); err != nil {
		return false, err
	}
	return true, nil
}

// ItemState returns the normalized selection state of an item: the selected
// choice (sentinel when absent or blank) and the confirmed free text.
func (s *Store) ItemState(section, key string) (selected, freeText string) {
	selected = prompt.NoSelection

	state, ok := asTable(s.doc["state"])
	if !ok {
		return selected, ""
	}
	sectionState, ok := asTable(state[section])
	if !ok {
		return selected, ""
	}

	if v, ok := asString(sectionState[key+"_selected"]); ok {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			selected = trimmed
		}
	}
	if v, ok := asString(sectionState[key+"_free_text"]); ok {
		freeText = strings.TrimSpace(v)
	}
	return selected, freeText
}

// SetItemState stores the selection state of an item and persists. A blank
// selected value normalizes to the sentinel; both values are trimmed.
func (s *Store) SetItemState(section, key, selected, freeText string) error {
	selectedValue := strings.TrimSpace(selected)
	if selectedValue == "" {
		selectedValue = prompt.NoSelection
	}

	sectionState := s.ensureSectionState(section)
	sectionState[key+"_selected"] = selectedValue
	sectionState[key+"_free_text"] = strings.TrimSpace(freeText)
	return s.Save()
}

// ClearSectionState wipes all selection state of a section and persists.
func (s *Store) ClearSectionState(section string) error {
	s.ensureState()[section] = map[string]any{}
	return s.Save()
}

func (s *Store) findItemTable(section, key string) map[string]any {
	sections := s.ensureSections()
	for _, sv := range sections {
		st, ok := asTable(sv)
		if !ok || trimmedString(st, "name") != section {
			continue
		}
		items, _ := asArray(st["items"])
		for _, iv := range items {
			it, ok := asTable(iv)
			if !ok {
				continue
			}
			if itemKey, ok := asString(it["key"]); ok && itemKey == key {
				return it
			}
		}
	}
	return nil
}
