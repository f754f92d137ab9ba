// Package confstore owns the configuration document: global settings, the
// ordered category sections with their choice lists, and the per-section
// selection state. The document self-heals: every load normalizes it back
// into shape and persists the normalized form immediately.
package confstore

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrItemNotFound is returned when a (section, key) pair does not exist.
var ErrItemNotFound = errors.New("item not found")

// ErrInvalidItemID is returned for malformed "section:key" identifiers.
var ErrInvalidItemID = errors.New("invalid item_id")

// DefaultSectionName is the fallback used when a section has no usable name.
const DefaultSectionName = "prompt"

// Store holds the configuration document and its on-disk location. Store is
// not safe for concurrent use; the request layer serializes access behind a
// single exclusive lock (see internal/app).
type Store struct {
	path string
	doc  map[string]any
}

// Load reads and normalizes the configuration document. It fails if the file
// is missing or not parsable as TOML; a parsable document is normalized and
// re-saved before the store is returned.
func Load(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	doc := map[string]any{}
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	s := &Store{path: path, doc: doc}
	s.normalize()
	if err := s.Save(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the on-disk location of the document.
func (s *Store) Path() string {
	return s.path
}

// Save serializes the whole document and rewrites the file. The serialized
// text is reordered so the settings block appears before the sections block;
// the reorder is purely cosmetic and keeps saved files diffable.
func (s *Store) Save() error {
	raw, err := toml.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	text := reorderTopLevelBlocks(string(raw))
	if err := os.WriteFile(s.path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) settingsTable() (map[string]any, bool) {
	return asTable(s.doc["settings"])
}

func (s *Store) ensureSettings() map[string]any {
	return ensureTable(s.doc, "settings")
}

func (s *Store) ensureSections() []any {
	return ensureArray(s.doc, "sections")
}

func (s *Store) ensureState() map[string]any {
	return ensureTable(s.doc, "state")
}

func (s *Store) ensureSectionState(section string) map[string]any {
	return ensureTable(s.ensureState(), section)
}

// reorderTopLevelBlocks moves the settings, sections and state blocks (in
// that order) ahead of any other top-level block in the serialized TOML.
// Lines before the first block header are kept in place.
func reorderTopLevelBlocks(serialized string) string {
	endsWithNewline := strings.HasSuffix(serialized, "\n")
	lines := strings.Split(serialized, "\n")

	type block struct {
		root  string
		lines []string
	}

	firstHeader := -1
	for i, line := range lines {
		if _, ok := headerRootName(line); ok {
			firstHeader = i
			break
		}
	}
	if firstHeader < 0 {
		return serialized
	}

	var blocks []block
	for i := firstHeader; i < len(lines); i++ {
		if root, ok := headerRootName(lines[i]); ok {
			if len(blocks) == 0 || blocks[len(blocks)-1].root != root {
				blocks = append(blocks, block{root: root})
			}
		}
		last := &blocks[len(blocks)-1]
		last.lines = append(last.lines, lines[i])
	}

	var rebuilt []string
	rebuilt = append(rebuilt, lines[:firstHeader]...)
	for _, want := range []string{"settings", "sections", "state"} {
		for _, b := range blocks {
			if b.root == want {
				rebuilt = append(rebuilt, b.lines...)
			}
		}
	}
	for _, b := range blocks {
		if b.root == "settings" || b.root == "sections" || b.root == "state" {
			continue
		}
		rebuilt = append(rebuilt, b.lines...)
	}

	out := strings.Join(rebuilt, "\n")
	if endsWithNewline && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}

// headerRootName extracts the top-level table name from a TOML header line,
// so "[settings]", "[[sections]]" and "[[sections.items]]" all report their
// root table. Non-header lines report false.
func headerRootName(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if t == "" || !strings.HasPrefix(t, "[") || !strings.HasSuffix(t, "]") {
		return "", false
	}
	if strings.Contains(t, " = ") {
		return "", false
	}
	t = strings.TrimLeft(t, "[")
	if i := strings.IndexByte(t, ']'); i >= 0 {
		t = t[:i]
	}
	if strings.HasPrefix(t, `"`) {
		if i := strings.Index(t[1:], `"`); i >= 0 {
			return t[1 : 1+i], true
		}
	}
	if strings.HasPrefix(t, `'`) {
		if i := strings.Index(t[1:], `'`); i >= 0 {
			return t[1 : 1+i], true
		}
	}
	if i := strings.IndexByte(t, '.'); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t), true
}
