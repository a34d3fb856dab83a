package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	dirPerm = 0o755

	notesFileName = "notes.json"
	logFileName   = "sticky-notes.log"
)

type Paths struct {
	Root        string
	Notes       string
	Backups     string
	Attachments string
	Log         string
}

// PathsAt lays out the data directory under root without touching the disk.
func PathsAt(root string) Paths {
	return Paths{
		Root:        root,
		Notes:       filepath.Join(root, notesFileName),
		Backups:     filepath.Join(root, "backups"),
		Attachments: filepath.Join(root, "attachments"),
		Log:         filepath.Join(root, logFileName),
	}
}

// ResolvePaths resolves and creates the sticky-notes data directories.
// An empty override selects the platform default root.
func ResolvePaths(override string) (Paths, error) {
	root := override
	if root == "" {
		var err error
		root, err = defaultRoot(runtime.GOOS, os.Getenv, os.UserHomeDir)
		if err != nil {
			return Paths{}, err
		}
	}

	p := PathsAt(root)
	for _, dir := range []string{p.Root, p.Backups, p.Attachments} {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return Paths{}, fmt.Errorf("create data dir %q: %w", dir, err)
		}
	}

	return p, nil
}

func defaultRoot(goos string, getenv func(string) string, home func() (string, error)) (string, error) {
	h, err := home()
	if err != nil {
		return "", fmt.Errorf("resolve user home dir: %w", err)
	}

	switch goos {
	case "darwin":
		return filepath.Join(h, "Library", "Application Support", "StickyNotes"), nil
	case "windows":
		appData := getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(h, "AppData", "Roaming")
		}
		return filepath.Join(appData, "StickyNotes"), nil
	default:
		dataHome := getenv("XDG_DATA_HOME")
		if dataHome == "" {
			dataHome = filepath.Join(h, ".local", "share")
		}
		return filepath.Join(dataHome, "sticky-notes"), nil
	}
}
