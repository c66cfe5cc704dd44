// Package autostart installs batticon as an XDG autostart entry of the
// current user.
package autostart

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const entryName = "batticon.desktop"

const desktopEntryTemplate = `[Desktop Entry]
Type=Application
Name=batticon
Comment=Battery status icon and notifier
Exec=/path/to/batticon
Icon=battery
Terminal=false
Categories=Utility;
X-GNOME-Autostart-enabled=true
`

// Dir returns the autostart directory of the current user.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "autostart"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "autostart"), nil
}

// Entry returns the desktop entry starting exePath with args.
func Entry(exePath string, args ...string) string {
	exec := append([]string{exePath}, args...)
	for i, a := range exec {
		if strings.ContainsAny(a, " \t\"") {
			exec[i] = `"` + strings.ReplaceAll(a, `"`, `\"`) + `"`
		}
	}
	return strings.ReplaceAll(desktopEntryTemplate, "/path/to/batticon", strings.Join(exec, " "))
}

// Install writes the autostart entry for the current executable into dir
// and returns its path.
func Install(dir string, args ...string) (string, error) {
	// Get the path to the current executable
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get the path to the current executable: %w", err)
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return "", fmt.Errorf("failed to get the absolute path to the current executable: %w", err)
	}

	logrus.Infof("current executable path: %s", exePath)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := filepath.Join(dir, entryName)

	// warn if the file already exists
	if _, err := os.Stat(path); err == nil {
		logrus.Warnf("%s already exists, overwriting", path)
	}

	logrus.Infof("writing autostart entry to %s", path)
	if err := os.WriteFile(path, []byte(Entry(exePath, args...)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}

// Uninstall removes the autostart entry from dir. A missing entry is not an
// error.
func Uninstall(dir string) error {
	path := filepath.Join(dir, entryName)

	logrus.Infof("removing autostart entry %s", path)

	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return nil
}
