package confstore

import "strings"

// Settings accessors apply the same default-and-clamp rules used during
// normalization, so hand-edited or stale on-disk values never leak through.

// Delimiter returns the prompt part delimiter.
func (s *Store) Delimiter() string {
	if t, ok := s.settingsTable(); ok {
		if v, ok := asString(t["delimiter"]); ok {
			return v
		}
	}
	return defaultDelimiter
}

// ConfirmDelete reports whether the UI should confirm before deleting a
// choice.
func (s *Store) ConfirmDelete() bool {
	if t, ok := s.settingsTable(); ok {
		if v, ok := asBool(t["confirm_delete"]); ok {
			return v
		}
	}
	return true
}

// CopyDebounceSec returns the minimum interval in seconds between two
// accepted copies of the same prompt text.
func (s *Store) CopyDebounceSec() float64 {
	if t, ok := s.settingsTable(); ok {
		if v, ok := toFloat(t["copy_debounce_sec"]); ok && v >= 0 {
			return v
		}
	}
	return defaultDebounceSec
}

// ServerPort returns the preferred local service port.
func (s *Store) ServerPort() int {
	if t, ok := s.settingsTable(); ok {
		if v, ok := toInt(t["server_port"]); ok && v >= 1 && v <= 65535 {
			return int(v)
		}
	}
	return defaultServerPort
}

// HistoryConfirmDelete reports whether the history pages should confirm
// before deleting an entry.
func (s *Store) HistoryConfirmDelete() bool {
	if t, ok := s.settingsTable(); ok {
		if v, ok := asBool(t["history_confirm_delete"]); ok {
			return v
		}
	}
	return true
}

// HistoryMaxEntries returns the active-log size threshold that triggers
// rotation into dated archives.
func (s *Store) HistoryMaxEntries() int {
	if t, ok := s.settingsTable(); ok {
		if v, ok := toInt(t["history_max_entries"]); ok && v > 0 {
			return int(v)
		}
	}
	return defaultMaxEntries
}

// trimmedString reads a string field, trimmed, from a table.
func trimmedString(t map[string]any, key string) string {
	v, _ := asString(t[key])
	return strings.TrimSpace(v)
}
