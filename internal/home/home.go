// Package home resolves the promptdeck base directory and the files that
// live inside it.
package home

import (
	"os"
	"path/filepath"
)

const (
	// ConfigFileName is the default configuration document name.
	ConfigFileName = "config.toml"

	// ConfigDirName is the optional subdirectory also searched for the
	// configuration document.
	ConfigDirName = "config"
)

// Dir represents the promptdeck base directory. The history store and its
// rendered pages are rooted here, and the configuration document is searched
// here unless an explicit path overrides it.
type Dir struct {
	path string
}

// New creates a Dir with the given path. If path is empty the base directory
// is resolved: the executable's directory when it holds a config candidate,
// otherwise the working directory when it does, otherwise the executable's
// directory.
func New(path string) (*Dir, error) {
	if path != "" {
		return &Dir{path: path}, nil
	}

	exeDir := ""
	if exe, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exe)
	}
	if exeDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		return &Dir{path: cwd}, nil
	}

	if hasConfigCandidate(exeDir) {
		return &Dir{path: exeDir}, nil
	}
	if cwd, err := os.Getwd(); err == nil && hasConfigCandidate(cwd) {
		return &Dir{path: cwd}, nil
	}
	return &Dir{path: exeDir}, nil
}

// Path returns the base directory path.
func (d *Dir) Path() string {
	return d.path
}

// ResolveConfigPath picks the configuration document location. An explicit
// path wins: absolute paths are used as-is, relative ones are resolved
// against the current working directory (not the base directory). Otherwise
// the candidates inside the base directory are probed, falling back to
// <base>/config.toml.
func (d *Dir) ResolveConfigPath(explicit string) string {
	if explicit != "" {
		if filepath.IsAbs(explicit) {
			return explicit
		}
		if cwd, err := os.Getwd(); err == nil {
			return filepath.Join(cwd, explicit)
		}
		return explicit
	}

	candidates := []string{
		filepath.Join(d.path, ConfigFileName),
		filepath.Join(d.path, ConfigDirName, ConfigFileName),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return candidates[0]
}

func hasConfigCandidate(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ConfigFileName)); err == nil {
		return true
	}
	_, err := os.Stat(filepath.Join(dir, ConfigDirName, ConfigFileName))
	return err == nil
}
