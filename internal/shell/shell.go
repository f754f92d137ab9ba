// Package shell abstracts the host desktop integration: opening files in the
// default browser and writing the system clipboard. Non-interactive builds
// and tests use the no-op implementation.
package shell

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"
)

// Shell is the host integration surface used by the request layer.
type Shell interface {
	// OpenWindow opens a URL in the default browser.
	OpenWindow(url string) error

	// OpenPath opens a local file with the default application.
	OpenPath(path string) error

	// SetClipboardText replaces the system clipboard contents.
	SetClipboardText(text string) error
}

// System talks to the real desktop environment.
type System struct{}

var _ Shell = (*System)(nil)

func (System) OpenWindow(url string) error {
	return openWithDefaultApp(url)
}

func (System) OpenPath(path string) error {
	return openWithDefaultApp(path)
}

func (System) SetClipboardText(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

func openWithDefaultApp(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", target, err)
	}
	return nil
}

// Noop satisfies Shell without touching the host. The clipboard text is
// retained so tests can assert on it.
type Noop struct {
	LastClipboard string
	OpenedWindows []string
	OpenedPaths   []string
}

var _ Shell = (*Noop)(nil)

func (n *Noop) OpenWindow(url string) error {
	n.OpenedWindows = append(n.OpenedWindows, url)
	return nil
}

func (n *Noop) OpenPath(path string) error {
	n.OpenedPaths = append(n.OpenedPaths, path)
	return nil
}

func (n *Noop) SetClipboardText(text string) error {
	n.LastClipboard = text
	return nil
}
