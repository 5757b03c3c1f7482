// Package dotdir manages the .engram/ and ~/.engram directories where the
// server keeps its config file and local databases.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the engram directory.
	dirName = ".engram"

	// homeEnv overrides the directory resolution entirely when set.
	homeEnv = "ENGRAM_HOME"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .engram/ directory, creating
// it if needed. Order of precedence:
//  1. Provided override (--config-dir flag)
//  2. ENGRAM_HOME environment variable
//  3. Local ./.engram/ dir, when it already exists
//  4. Home ~/.engram/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.resolve(overrideDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating engram directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

func (m *Manager) resolve(overrideDir string) (string, error) {
	if overrideDir != "" {
		return overrideDir, nil
	}

	if envDir := os.Getenv(homeEnv); envDir != "" {
		return envDir, nil
	}

	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, dirName)
		if info, err := os.Stat(local); err == nil && info.IsDir() {
			return local, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}
