// Package history owns the append-only prompt log: the active log file, the
// dated archive files it rotates into, the attached image tree, and the
// rendered browsable pages.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxImageBytes is the hard cap on an attached image.
	MaxImageBytes = 20 * 1024 * 1024

	// DefaultMaxActiveEntries is used when the configured threshold is zero.
	DefaultMaxActiveEntries = 300

	activeLogName  = "history.json"
	activeHTMLName = "History.html"
	archivePrefix  = "History_"
	imagesDirName  = "images"
)

// Store-level error taxonomy. Validation and not-found errors are returned to
// the caller and never retried; I/O errors carry the failing path.
var (
	ErrEmptyPrompt          = errors.New("prompt is empty")
	ErrNotFound             = errors.New("history id not found")
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrImageTooLarge        = errors.New("file size exceeds 20MB")
	ErrInvalidImagePath     = errors.New("invalid image path")
)

// Entry is one logged prompt. Images holds zero or one relative path; legacy
// multi-image entries collapse to the most recent path during normalization.
type Entry struct {
	ID     string   `json:"id"`
	TS     string   `json:"ts"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
}

// Store owns every file under its base directory. Store is not safe for
// concurrent use; the request layer serializes access behind one exclusive
// lock (see internal/app).
type Store struct {
	baseDir    string
	maxActive  int
	activeJSON string
	activeHTML string
	imagesRoot string
	logger     *slog.Logger
	now        func() time.Time
}

// New creates the store, ensuring the directory tree exists. maxActive 0
// means the default threshold. An existing active log that fails to parse is
// renamed to a timestamped .broken backup and replaced with an empty log; a
// parsable one is rewritten in normalized form.
func New(baseDir string, maxActive int, logger *slog.Logger) (*Store, error) {
	if maxActive <= 0 {
		maxActive = DefaultMaxActiveEntries
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		baseDir:    baseDir,
		maxActive:  maxActive,
		activeJSON: filepath.Join(baseDir, activeLogName),
		activeHTML: filepath.Join(baseDir, activeHTMLName),
		imagesRoot: filepath.Join(baseDir, imagesDirName),
		logger:     logger,
		now:        time.Now,
	}
	if err := s.ensureFiles(); err != nil {
		return nil, err
	}
	return s, nil
}

// HTMLPath returns the location of the rendered active-log page.
func (s *Store) HTMLPath() string {
	return s.activeHTML
}

// Append logs a prompt as a new entry and rotates overflow into the dated
// archives. The trimmed prompt must be non-empty.
func (s *Store) Append(promptText string) (Entry, error) {
	cleaned := strings.TrimSpace(promptText)
	if cleaned == "" {
		return Entry{}, ErrEmptyPrompt
	}

	entries, err := s.readEntries(s.activeJSON)
	if err != nil {
		return Entry{}, err
	}

	now := s.now()
	entry := Entry{
		ID:     nextEntryID(now, entries),
		TS:     now.Format("2006-01-02 15:04:05"),
		Prompt: cleaned,
	}

	entries = append(entries, entry)
	kept, err := s.rotateIfNeeded(entries)
	if err != nil {
		return Entry{}, err
	}
	if err := s.writeEntries(s.activeJSON, kept); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Delete removes the entry with the given id from wherever it lives: the
// active log first, then the archives in reverse-chronological order. The
// entry's image file is not deleted. Reports false when nothing matched.
func (s *Store) Delete(historyID string) (bool, error) {
	historyID = strings.TrimSpace(historyID)
	if historyID == "" {
		return false, nil
	}

	path, entries, _, found, err := s.findEntryContainer(historyID)
	if err != nil || !found {
		return false, err
	}

	filtered := entries[:0]
	for _, e := range entries {
		if strings.TrimSpace(e.ID) != historyID {
			filtered = append(filtered, e)
		}
	}
	if err := s.writeEntries(path, filtered); err != nil {
		return false, err
	}
	return true, nil
}

// UpdatePrompt replaces only the prompt field of the entry with the given id,
// leaving timestamp and images untouched. Reports false when the id is
// unknown.
func (s *Store) UpdatePrompt(historyID, promptText string) (bool, error) {
	cleaned := strings.TrimSpace(promptText)
	if cleaned == "" {
		return false, ErrEmptyPrompt
	}

	path, entries, index, found, err := s.findEntryContainer(historyID)
	if err != nil || !found {
		return false, err
	}

	entries[index].Prompt = cleaned
	if err := s.writeEntries(path, entries); err != nil {
		return false, err
	}
	return true, nil
}

// ensureFiles creates the directory tree and a valid active log.
func (s *Store) ensureFiles() error {
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return fmt.Errorf("failed to create base dir %s: %w", s.baseDir, err)
	}
	if err := os.MkdirAll(s.imagesRoot, 0o755); err != nil {
		return fmt.Errorf("failed to create images dir %s: %w", s.imagesRoot, err)
	}

	if _, err := os.Stat(s.activeJSON); os.IsNotExist(err) {
		return s.writeEntries(s.activeJSON, nil)
	}

	entries, err := s.readEntries(s.activeJSON)
	if err == nil {
		return s.writeEntries(s.activeJSON, entries)
	}

	// Corruption is recovered locally: back up the broken file and start
	// over with an empty log.
	backup := filepath.Join(s.baseDir,
		fmt.Sprintf("history.broken.%s.json", s.now().Format("20060102_150405")))
	if renameErr := os.Rename(s.activeJSON, backup); renameErr != nil {
		return fmt.Errorf("failed to back up broken history %s: %w", s.activeJSON, renameErr)
	}
	s.logger.Warn("active history log was unreadable; reset",
		"backup", backup, "error", err)
	return s.writeEntries(s.activeJSON, nil)
}

// findEntryContainer locates the file holding an entry: the active log, then
// the archives newest first.
func (s *Store) findEntryContainer(historyID string) (path string, entries []Entry, index int, found bool, err error) {
	historyID = strings.TrimSpace(historyID)
	sources := []string{s.activeJSON}
	archives, err := s.listArchiveJSONPaths()
	if err != nil {
		return "", nil, 0, false, err
	}
	sources = append(sources, archives...)

	for _, source := range sources {
		if _, statErr := os.Stat(source); statErr != nil {
			continue
		}
		entries, err = s.readEntries(source)
		if err != nil {
			return "", nil, 0, false, err
		}
		for i, e := range entries {
			if strings.TrimSpace(e.ID) == historyID {
				return source, entries, i, true, nil
			}
		}
	}
	return "", nil, 0, false, nil
}

// listArchiveJSONPaths returns archive files sorted newest first by name.
func (s *Store) listArchiveJSONPaths() ([]string, error) {
	items, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list base dir %s: %w", s.baseDir, err)
	}

	var paths []string
	for _, item := range items {
		name := item.Name()
		if key, ok := archiveDateKeyFromName(name); ok && key != "" {
			paths = append(paths, filepath.Join(s.baseDir, name))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}

func archiveDateKeyFromName(name string) (string, bool) {
	if !strings.HasPrefix(name, archivePrefix) || !strings.HasSuffix(name, ".json") {
		return "", false
	}
	key := strings.TrimSuffix(strings.TrimPrefix(name, archivePrefix), ".json")
	if len(key) != 8 {
		return "", false
	}
	for _, ch := range key {
		if ch < '0' || ch > '9' {
			return "", false
		}
	}
	return key, true
}

func (s *Store) archiveJSONPath(dateKey string) string {
	return filepath.Join(s.baseDir, archivePrefix+dateKey+".json")
}

func (s *Store) archiveHTMLPath(dateKey string) string {
	return filepath.Join(s.baseDir, archivePrefix+dateKey+".html")
}

// readEntries reads and normalizes a log file: trimmed fields, entries with a
// blank id, timestamp or prompt dropped, image lists collapsed to at most the
// most recent path.
func (s *Store) readEntries(source string) ([]Entry, error) {
	raw, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read log %s: %w", source, err)
	}

	var parsed []json.RawMessage
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse log %s: %w", source, err)
	}

	var entries []Entry
	for _, rawEntry := range parsed {
		var e Entry
		if err := json.Unmarshal(rawEntry, &e); err != nil {
			continue
		}
		e.ID = strings.TrimSpace(e.ID)
		e.TS = strings.TrimSpace(e.TS)
		e.Prompt = strings.TrimSpace(e.Prompt)
		if e.ID == "" || e.TS == "" || e.Prompt == "" {
			continue
		}

		var images []string
		for _, img := range e.Images {
			if trimmed := strings.TrimSpace(img); trimmed != "" {
				images = append(images, trimmed)
			}
		}
		if len(images) > 1 {
			images = images[len(images)-1:]
		}
		e.Images = images

		entries = append(entries, e)
	}
	return entries, nil
}

// writeEntries persists a log file through the atomic-replace path: the
// pretty-printed array is written to a uniquely named temp file in the same
// directory and renamed over the target, so a crash mid-write leaves the
// previous valid file intact.
func (s *Store) writeEntries(target string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	payload, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize log: %w", err)
	}

	tmp := target + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write temp log %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace log %s: %w", target, err)
	}
	return nil
}

// nextEntryID builds a sortable id <date>_<time>_<seq>, where seq is one more
// than the highest sequence already used for the same date-time prefix. Rapid
// repeated appends within one second stay unique.
func nextEntryID(now time.Time, entries []Entry) string {
	base := now.Format("20060102_150405")
	prefix := base + "_"
	seq := 1
	for _, e := range entries {
		rest, ok := strings.CutPrefix(e.ID, prefix)
		if !ok || strings.Contains(rest, "_") {
			continue
		}
		if parsed, err := strconv.Atoi(rest); err == nil && parsed+1 > seq {
			seq = parsed + 1
		}
	}
	return fmt.Sprintf("%s_%04d", base, seq)
}
