// Package app coordinates the two stores behind the request layer. Every call
// into the configuration store happens under its own exclusive lock, every
// call into the history store under its own; the copy action is the only
// operation that touches both, in the documented order.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ktanaka/promptdeck/internal/confstore"
	"github.com/ktanaka/promptdeck/internal/history"
	"github.com/ktanaka/promptdeck/internal/prompt"
	"github.com/ktanaka/promptdeck/internal/shell"
)

// Row is one selectable item as the UI sees it.
type Row struct {
	ItemID        string   `json:"item_id"`
	Label         string   `json:"label"`
	Choices       []string `json:"choices"`
	AllowFreeText bool     `json:"allow_free_text"`
	Selected      string   `json:"selected"`
	FreeText      string   `json:"free_text"`
}

// Snapshot is the full UI state returned by every mutating selection call.
type Snapshot struct {
	Rows          []Row  `json:"rows"`
	Preview       string `json:"preview"`
	ConfirmDelete bool   `json:"confirm_delete"`
}

// State owns the locks, the copy debounce gate and the revision counter. The
// revision counter is the only state intentionally shared without a lock:
// single writer, many readers, monotonically increasing.
type State struct {
	configMu sync.Mutex
	config   *confstore.Store

	historyMu sync.Mutex
	history   *history.Store

	copyMu     sync.Mutex
	lastPrompt string
	lastCopyAt time.Time
	hasCopied  bool

	revision atomic.Uint64
	port     atomic.Int64

	shell  shell.Shell
	logger *slog.Logger
	now    func() time.Time
}

// New wires the coordinator. The port is set later, once the listener is
// bound (see SetPort).
func New(config *confstore.Store, hist *history.Store, sh shell.Shell, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		config:  config,
		history: hist,
		shell:   sh,
		logger:  logger,
		now:     time.Now,
	}
}

// SetPort records the bound server port used in rendered pages.
func (s *State) SetPort(port int) {
	s.port.Store(int64(port))
}

// Port returns the bound server port.
func (s *State) Port() int {
	return int(s.port.Load())
}

// Revision returns the current history revision.
func (s *State) Revision() uint64 {
	return s.revision.Load()
}

// Snapshot builds the current UI state under the configuration lock.
func (s *State) Snapshot() Snapshot {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	return s.snapshotLocked()
}

// ChangeSelection sets an item's selected choice and clears its free text. A
// value not present in the item's choice list falls back to the sentinel.
func (s *State) ChangeSelection(itemID, selected string) (Snapshot, error) {
	section, key, err := confstore.ParseItemID(itemID)
	if err != nil {
		return Snapshot{}, err
	}

	s.configMu.Lock()
	defer s.configMu.Unlock()

	item, err := s.findItemLocked(section, key)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.config.SetItemState(section, key, validatedChoice(item, selected), ""); err != nil {
		return Snapshot{}, err
	}
	return s.snapshotLocked(), nil
}

// ConfirmFreeText confirms a free-text value for an item: the value becomes a
// permanent choice and the item's selection. A blank or sentinel value
// instead clears the free text, keeping the (validated) selected choice.
func (s *State) ConfirmFreeText(itemID, selected, value string) (Snapshot, error) {
	section, key, err := confstore.ParseItemID(itemID)
	if err != nil {
		return Snapshot{}, err
	}

	s.configMu.Lock()
	defer s.configMu.Unlock()

	item, err := s.findItemLocked(section, key)
	if err != nil {
		return Snapshot{}, err
	}

	incoming := strings.TrimSpace(value)
	if incoming == "" || incoming == prompt.NoSelection {
		if err := s.config.SetItemState(section, key, validatedChoice(item, selected), ""); err != nil {
			return Snapshot{}, err
		}
		return s.snapshotLocked(), nil
	}

	if _, err := s.config.AddChoice(section, key, incoming); err != nil {
		return Snapshot{}, err
	}
	if err := s.config.SetItemState(section, key, incoming, incoming); err != nil {
		return Snapshot{}, err
	}
	return s.snapshotLocked(), nil
}

// DeleteChoice removes the currently selected choice from an item's list.
// When something was actually removed the selection resets to the sentinel
// and the free text is cleared only if it equaled the removed value.
func (s *State) DeleteChoice(itemID, selected string) (Snapshot, error) {
	section, key, err := confstore.ParseItemID(itemID)
	if err != nil {
		return Snapshot{}, err
	}

	s.configMu.Lock()
	defer s.configMu.Unlock()

	value := strings.TrimSpace(selected)
	if value != "" && value != prompt.NoSelection {
		removed, err := s.config.RemoveChoice(section, key, value)
		if err != nil {
			return Snapshot{}, err
		}
		if removed {
			_, freeText := s.config.ItemState(section, key)
			if freeText == value {
				freeText = ""
			}
			if err := s.config.SetItemState(section, key, prompt.NoSelection, freeText); err != nil {
				return Snapshot{}, err
			}
		}
	}
	return s.snapshotLocked(), nil
}

// Reset clears all selection state of the prompt section.
func (s *State) Reset() (Snapshot, error) {
	s.configMu.Lock()
	defer s.configMu.Unlock()

	if err := s.config.ClearSectionState(confstore.DefaultSectionName); err != nil {
		return Snapshot{}, err
	}
	return s.snapshotLocked(), nil
}

// Copy writes the prompt to the system clipboard and logs it. A repeat copy
// of the identical prompt within the configured debounce window is skipped
// without touching clipboard or history. A blank prompt is skipped too.
// Reports whether the copy was skipped.
func (s *State) Copy(promptText string) (bool, error) {
	cleaned := strings.TrimSpace(promptText)
	if cleaned == "" {
		return true, nil
	}

	s.configMu.Lock()
	debounce := s.config.CopyDebounceSec()
	s.configMu.Unlock()

	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	if s.hasCopied && s.lastPrompt == cleaned &&
		s.now().Sub(s.lastCopyAt).Seconds() <= debounce {
		return true, nil
	}

	if err := s.shell.SetClipboardText(cleaned); err != nil {
		return false, err
	}

	s.historyMu.Lock()
	_, err := s.history.Append(cleaned)
	if err == nil {
		err = s.history.RegenerateViews(s.Port())
	}
	s.historyMu.Unlock()
	if err != nil {
		return false, err
	}

	s.lastPrompt = cleaned
	s.lastCopyAt = s.now()
	s.hasCopied = true
	s.revision.Add(1)
	return false, nil
}

// DeleteEntry removes a logged prompt and refreshes the rendered pages.
// Returns history.ErrNotFound when the id is unknown.
func (s *State) DeleteEntry(historyID string) error {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	removed, err := s.history.Delete(historyID)
	if err != nil {
		return err
	}
	if !removed {
		return history.ErrNotFound
	}
	return s.history.RegenerateViews(s.Port())
}

// UpdateEntry replaces a logged prompt's text and refreshes the rendered
// pages, returning the stored text. Returns history.ErrNotFound when the id
// is unknown.
func (s *State) UpdateEntry(historyID, promptText string) (string, error) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	updated, err := s.history.UpdatePrompt(historyID, promptText)
	if err != nil {
		return "", err
	}
	if !updated {
		return "", history.ErrNotFound
	}
	if err := s.history.RegenerateViews(s.Port()); err != nil {
		return "", err
	}
	return strings.TrimSpace(promptText), nil
}

// UploadImage attaches an image to a logged prompt and refreshes the rendered
// pages, returning the stored relative path.
func (s *State) UploadImage(historyID, fileName string, content []byte) (string, error) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	imagePath, err := s.history.AppendImage(historyID, fileName, content)
	if err != nil {
		return "", err
	}
	if err := s.history.RegenerateViews(s.Port()); err != nil {
		return "", err
	}
	return imagePath, nil
}

// ReadImage serves a stored image by its relative path.
func (s *State) ReadImage(imagePath string) ([]byte, string, error) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	return s.history.ReadImage(imagePath)
}

// RegenerateViews rebuilds all rendered pages, used at startup so the pages
// carry the freshly bound port.
func (s *State) RegenerateViews() error {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	return s.history.RegenerateViews(s.Port())
}

// OpenHistoryPage opens the rendered active-log page with the host shell.
func (s *State) OpenHistoryPage() error {
	s.historyMu.Lock()
	path := s.history.HTMLPath()
	s.historyMu.Unlock()

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", history.ErrNotFound, path)
	}
	return s.shell.OpenPath(path)
}

// ReloadConfig re-reads the configuration document from disk, picking up
// external hand edits. The reloaded document goes through the usual
// normalize-on-load pass.
func (s *State) ReloadConfig() error {
	s.configMu.Lock()
	defer s.configMu.Unlock()

	reloaded, err := confstore.Load(s.config.Path())
	if err != nil {
		return err
	}
	s.config = reloaded
	return nil
}

func (s *State) snapshotLocked() Snapshot {
	items := s.config.Items(confstore.DefaultSectionName)
	rows := make([]Row, 0, len(items))
	renderEntries := make([]prompt.Entry, 0, len(items))

	for _, item := range items {
		selected, freeText := s.config.ItemState(item.Section, item.Key)
		if !containsChoice(item.Choices, selected) {
			selected = prompt.NoSelection
		}

		renderEntries = append(renderEntries, prompt.Entry{
			Label:    item.Label,
			Selected: selected,
			FreeText: freeText,
		})
		rows = append(rows, Row{
			ItemID:        item.ID(),
			Label:         item.Label,
			Choices:       item.Choices,
			AllowFreeText: item.AllowFreeText,
			Selected:      selected,
			FreeText:      freeText,
		})
	}

	return Snapshot{
		Rows:          rows,
		Preview:       prompt.Render(renderEntries),
		ConfirmDelete: s.config.ConfirmDelete(),
	}
}

func (s *State) findItemLocked(section, key string) (confstore.Item, error) {
	for _, item := range s.config.Items(section) {
		if item.Key == key {
			return item, nil
		}
	}
	return confstore.Item{}, fmt.Errorf("%w: %s.%s", confstore.ErrItemNotFound, section, key)
}

// validatedChoice coerces a raw selection to one of the item's choices,
// falling back to the sentinel.
func validatedChoice(item confstore.Item, selected string) string {
	value := strings.TrimSpace(selected)
	if value == "" || !containsChoice(item.Choices, value) {
		return prompt.NoSelection
	}
	return value
}

func containsChoice(choices []string, value string) bool {
	for _, c := range choices {
		if c == value {
			return true
		}
	}
	return false
}
