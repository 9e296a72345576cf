// Package dotdir manages the .echotext/ and ~/.echotext directories.
//
// The directory holds the persistent configuration (config.toml), the run
// registry database and the per-run artifact directories produced by the
// experiment commands.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the echotext directory.
	dirName = ".echotext"

	// RunsDir is the subdirectory holding per-run artifact directories.
	RunsDir = "runs"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .echotext/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.echotext/ dir
//  3. Home ~/.echotext/ dir
//  4. If none found, attempt to create ~/.echotext/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating echotext directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// RunDir resolves (and creates) the artifact directory for one run.
func (m *Manager) RunDir(overrideDir, runID string) (string, error) {
	target, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(target, RunsDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating run directory %s: %w", dir, err)
	}
	return dir, nil
}

// localDirExists checks whether a .echotext/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
