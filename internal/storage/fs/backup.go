package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	backupPrefix = "notes-"
	backupExt    = ".json"
	backupStamp  = "20060102-150405"
)

// Backups lists backup files, oldest first.
func (s *Store) Backups() ([]string, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup dir %q: %w", s.backupDir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !isBackupName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	// the stamp sorts lexicographically in time order
	slices.Sort(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(s.backupDir, name)
	}
	return paths, nil
}

func isBackupName(name string) bool {
	if !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupExt) {
		return false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), backupExt)
	return len(stamp) == len(backupStamp)
}

// backup copies the current document into the backup dir and rotates.
// Nothing happens on first run.
func (s *Store) backup() error {
	ok, err := s.exists()
	if err != nil || !ok {
		return err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read notes for backup: %w", err)
	}

	if err := os.MkdirAll(s.backupDir, dirPerm); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	name := backupPrefix + s.now().Format(backupStamp) + backupExt
	dst := filepath.Join(s.backupDir, name)
	if err := writeFileAtomic(dst, data); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	s.log.Debug().Str("backup", dst).Msg("notes backed up")

	return s.rotate()
}

func (s *Store) rotate() error {
	backups, err := s.Backups()
	if err != nil {
		return err
	}
	if len(backups) <= s.maxBackups {
		return nil
	}

	for _, old := range backups[:len(backups)-s.maxBackups] {
		if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove old backup %q: %w", old, err)
		}
		s.log.Debug().Str("backup", old).Msg("old backup removed")
	}
	return nil
}
