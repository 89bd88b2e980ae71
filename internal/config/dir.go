package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appName   = "tinylisp"
	dirEnvVar = "TINYLISP_CONFIG_DIR"
)

// Dir returns the directory holding settings and history. TINYLISP_CONFIG_DIR
// wins over the platform config dir; the home directory is the last resort.
func Dir() string {
	if dir := strings.TrimSpace(os.Getenv(dirEnvVar)); dir != "" {
		return dir
	}
	if base, err := os.UserConfigDir(); err == nil && base != "" {
		return filepath.Join(base, appName)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, "."+appName)
	}
	return "." + appName
}

// HistoryPath resolves the history file, relative paths being taken from Dir.
func HistoryPath(s HistorySettings) string {
	p := strings.TrimSpace(s.Path)
	switch {
	case p == "":
		return filepath.Join(Dir(), "history.json")
	case filepath.IsAbs(p):
		return p
	default:
		return filepath.Join(Dir(), p)
	}
}
