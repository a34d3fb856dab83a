// Package attachment stores files attached to notes under a per-note
// directory of the attachments root.
package attachment

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// MaxSize is the largest accepted attachment, in bytes.
const MaxSize = 10 * 1024 * 1024

const (
	dirPerm     = 0o755
	stampLayout = "20060102_150405"
	missingSize = "missing"

	maxNameTries = 1000
)

// Rejection reasons reported by Validate.
const (
	ReasonNotExist = "does not exist"
	ReasonNotFile  = "not a file"
	ReasonTooLarge = "too large"
	ReasonEmpty    = "empty"
)

var ErrInvalid = errors.New("invalid attachment")

type ValidationError struct {
	Path   string
	Reason string
	Size   int64
}

func (e *ValidationError) Error() string {
	if e.Reason == ReasonTooLarge {
		return fmt.Sprintf("%s: file too large (%s), maximum is %s", e.Path, FormatSize(e.Size), FormatSize(MaxSize))
	}
	return fmt.Sprintf("%s: file %s", e.Path, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

type Manager struct {
	root string
	now  func() time.Time
	log  zerolog.Logger
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func NewManager(root string, opts ...Option) *Manager {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	m := &Manager{root: root, now: time.Now, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dir is the directory holding attachments of noteID.
func (m *Manager) Dir(noteID string) string {
	return filepath.Join(m.root, noteID)
}

// Owns reports whether path lives under the attachment directory of noteID.
func (m *Manager) Owns(noteID, path string) bool {
	if noteID == "" || filepath.Base(noteID) != noteID {
		return false
	}
	rel, err := filepath.Rel(m.Dir(noteID), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Validate checks that path is a regular, non-empty file of at most MaxSize
// bytes. Failures are *ValidationError.
func (m *Manager) Validate(path string) error {
	_, err := validate(path)
	return err
}

func validate(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ValidationError{Path: path, Reason: ReasonNotExist}
		}
		return nil, fmt.Errorf("stat attachment %q: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, &ValidationError{Path: path, Reason: ReasonNotFile}
	}
	if info.Size() > MaxSize {
		return nil, &ValidationError{Path: path, Reason: ReasonTooLarge, Size: info.Size()}
	}
	if info.Size() == 0 {
		return nil, &ValidationError{Path: path, Reason: ReasonEmpty}
	}
	return info, nil
}

// CopyIn validates src and copies it into the directory of noteID as
// <timestamp>_<name>, keeping its mode and modification time. It returns the
// absolute destination path.
func (m *Manager) CopyIn(src, noteID string) (string, error) {
	if noteID == "" || filepath.Base(noteID) != noteID {
		return "", fmt.Errorf("attach to note %q: invalid note id", noteID)
	}

	info, err := validate(src)
	if err != nil {
		return "", err
	}

	dir := m.Dir(noteID)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("create attachment dir %q: %w", dir, err)
	}

	dst, err := reserve(dir, m.now().Format(stampLayout), filepath.Base(src))
	if err != nil {
		return "", err
	}
	if err := copyFile(src, dst, info); err != nil {
		_ = os.Remove(dst)
		return "", err
	}

	m.log.Info().Str("note_id", noteID).Str("path", dst).Int64("size", info.Size()).Msg("attachment copied")
	return dst, nil
}

// reserve claims a free name <stamp>_<name> in dir by creating it empty.
// Taken names get a _1, _2 ... suffix before the extension.
func reserve(dir, stamp, name string) (string, error) {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i < maxNameTries; i++ {
		candidate := stamp + "_" + name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%s_%d%s", stamp, stem, i, ext)
		}
		path := filepath.Join(dir, candidate)

		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("reserve attachment name %q: %w", path, err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("reserve attachment name %q: %w", path, err)
		}
		return path, nil
	}
	return "", fmt.Errorf("no free attachment name for %q in %q", name, dir)
}

// copyFile copies src over dst, which must already be reserved.
func copyFile(src, dst string, info os.FileInfo) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open attachment %q: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".attach-*.tmp")
	if err != nil {
		return fmt.Errorf("create attachment temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copy attachment %q: %w", src, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close attachment %q: %w", tmp.Name(), err)
	}

	// metadata is best effort; some filesystems refuse it
	_ = os.Chmod(tmp.Name(), info.Mode().Perm())
	_ = os.Chtimes(tmp.Name(), info.ModTime(), info.ModTime())

	if err = os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("store attachment %q: %w", dst, err)
	}
	return nil
}

// CleanPath trims blanks and surrounding quotes from a path typed or pasted
// by the user.
func CleanPath(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

// Remove deletes the attachment at path. An already missing file is not an
// error. The note directory is removed when it becomes empty.
func (m *Manager) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove attachment %q: %w", path, err)
	}

	// fails harmlessly while other attachments remain
	dir := filepath.Dir(filepath.Clean(path))
	if filepath.Dir(dir) == filepath.Clean(m.root) {
		if err := os.Remove(dir); err == nil {
			m.log.Debug().Str("dir", dir).Msg("empty attachment dir removed")
		}
	}

	m.log.Info().Str("path", path).Msg("attachment removed")
	return nil
}
