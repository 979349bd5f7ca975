package common

import (
	"os"
	"path/filepath"
)

const appName = "morsecast"

// ConfigDir is where morsecast keeps its configuration file.
func ConfigDir() string {
	return filepath.Join(configHome(), appName)
}

// https://specifications.freedesktop.org/basedir/latest/#variables
func configHome() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "."
		}
		dir = filepath.Join(home, ".config")
	}
	return dir
}
