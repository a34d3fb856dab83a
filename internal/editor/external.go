// Package editor hands note content to the user's external editor.
package editor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

func EditorCommand() string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	return "vi"
}

func EditCmd(path string) (*exec.Cmd, error) {
	editor := strings.TrimSpace(EditorCommand())
	if editor == "" {
		return nil, errors.New("EDITOR is empty")
	}

	parts := strings.Fields(editor)
	name := parts[0]
	args := append(parts[1:], path)

	cmd := exec.Command(name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd, nil
}

// Session is note content parked in a temporary markdown file while an
// external editor works on it.
type Session struct {
	path string
}

func NewSession(content string) (*Session, error) {
	f, err := os.CreateTemp("", "sticky-note-*.md")
	if err != nil {
		return nil, fmt.Errorf("create edit file: %w", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write edit file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("close edit file: %w", err)
	}
	return &Session{path: f.Name()}, nil
}

func (s *Session) Path() string { return s.path }

// Cmd is the editor process for the session file.
func (s *Session) Cmd() (*exec.Cmd, error) {
	return EditCmd(s.path)
}

// Finish reads back the edited content and removes the file. A single
// trailing newline added by the editor is dropped.
func (s *Session) Finish() (string, error) {
	defer os.Remove(s.path)

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("read edit file: %w", err)
	}
	out := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(out, "\r"), nil
}

// Discard removes the file without reading it.
func (s *Session) Discard() {
	_ = os.Remove(s.path)
}
