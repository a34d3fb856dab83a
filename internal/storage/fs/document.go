package fs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const (
	filePerm = 0o644
	dirPerm  = 0o755
)

// ErrCorrupt marks a notes document that exists but cannot be parsed.
var ErrCorrupt = errors.New("notes document is corrupt")

var knownKeys = []string{
	"noteTitle", "content", "tags", "priority", "pinned",
	"note_id", "color", "created_at", "updated_at", "attachments",
}

// wireNote is the on-disk shape of a record, in file key order.
type wireNote struct {
	Title       string   `json:"noteTitle"`
	Content     string   `json:"content"`
	Tags        string   `json:"tags"`
	Priority    Priority `json:"priority"`
	Pinned      bool     `json:"pinned"`
	ID          string   `json:"note_id"`
	Color       string   `json:"color"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	Attachments []string `json:"attachments"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	attachments := r.Note.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	b, err := json.Marshal(wireNote{
		Title:       r.Note.Title,
		Content:     r.Note.Content,
		Tags:        r.Note.Tags,
		Priority:    r.Note.Priority,
		Pinned:      r.Note.Pinned,
		ID:          r.Note.ID,
		Color:       r.Color,
		CreatedAt:   formatTime(r.Note.CreatedAt),
		UpdatedAt:   formatTime(r.Note.UpdatedAt),
		Attachments: attachments,
	})
	if err != nil || len(r.Extra) == 0 {
		return b, err
	}

	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		if !slices.Contains(knownKeys, k) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var buf bytes.Buffer
	buf.Write(b[:len(b)-1])
	for _, k := range keys {
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(r.Extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New("note record is null")
	}

	rec := Record{Color: DefaultColor}
	n := &rec.Note

	// older files and the line-mode tool may use "title"
	titleKey := "noteTitle"
	if _, ok := raw[titleKey]; !ok {
		titleKey = "title"
	}

	var createdAt, updatedAt string
	fields := []struct {
		key string
		dst any
	}{
		{titleKey, &n.Title},
		{"content", &n.Content},
		{"priority", &n.Priority},
		{"pinned", &n.Pinned},
		{"note_id", &n.ID},
		{"color", &rec.Color},
		{"created_at", &createdAt},
		{"updated_at", &updatedAt},
		{"attachments", &n.Attachments},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok || string(v) == "null" {
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return fmt.Errorf("decode %q: %w", f.key, err)
		}
	}

	if v, ok := raw["tags"]; ok {
		tags, err := decodeTags(v)
		if err != nil {
			return err
		}
		n.Tags = tags
	}

	n.Priority = n.Priority.Clamp()
	if len(n.Attachments) == 0 {
		n.Attachments = nil
	}
	n.CreatedAt = parseTime(createdAt)
	n.UpdatedAt = parseTime(updatedAt)

	for k, v := range raw {
		if slices.Contains(knownKeys, k) || k == titleKey {
			continue
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, v); err != nil {
			return fmt.Errorf("decode %q: %w", k, err)
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]json.RawMessage)
		}
		rec.Extra[k] = compact.Bytes()
	}

	*r = rec
	return nil
}

// decodeTags accepts the free-text form or a list of tags.
func decodeTags(v json.RawMessage) (string, error) {
	if string(v) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, nil
	}
	var list []string
	if err := json.Unmarshal(v, &list); err != nil {
		return "", fmt.Errorf("decode %q: %w", "tags", err)
	}
	return strings.Join(list, ","), nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime reads ISO-8601 timestamps with or without an offset. Timestamps
// without an offset are local time. Unreadable values become the zero time.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// ReadDocument reads the notes document at path. A missing file yields an
// empty document; an unparseable one yields an error wrapping ErrCorrupt.
func ReadDocument(path string) ([]Record, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read notes %q: %w", path, err)
	}

	var records []Record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("parse notes %q: %w: %w", path, ErrCorrupt, err)
	}
	return records, nil
}

// WriteDocument replaces the notes document at path. Readers see either the
// old or the new document, never a partial one.
func WriteDocument(path string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode notes: %w", err)
	}
	b = append(b, '\n')

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("create notes dir: %w", err)
	}
	return writeFileAtomic(path, b)
}

func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %q: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %q: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %q: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %q: %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), filePerm); err != nil {
		return fmt.Errorf("chmod %q: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %q: %w", path, err)
	}
	return nil
}
