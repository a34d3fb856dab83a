package fs

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
)

// ---------------------------------------------------------------------------
// Priority
// ---------------------------------------------------------------------------

type Priority int

const (
	PriorityTrivial Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

var priorityNames = [...]string{"Trivial", "Low", "Medium", "High", "Critical"}

func (p Priority) String() string {
	return priorityNames[p.Clamp()]
}

// Clamp forces p into the Trivial..Critical range.
func (p Priority) Clamp() Priority {
	switch {
	case p < PriorityTrivial:
		return PriorityTrivial
	case p > PriorityCritical:
		return PriorityCritical
	}
	return p
}

// ---------------------------------------------------------------------------
// Note
// ---------------------------------------------------------------------------

type Note struct {
	ID          string
	Title       string
	Content     string
	Tags        string
	Priority    Priority
	Pinned      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Attachments []string
}

// NewID returns a fresh note id.
func NewID() string {
	return ulid.Make().String()
}

// NewNote creates a note with a fresh id and both timestamps set to now.
func NewNote(title, content string, now time.Time) Note {
	now = now.UTC()
	return Note{
		ID:        NewID(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of n.
func (n Note) Clone() Note {
	n.Attachments = slices.Clone(n.Attachments)
	return n
}

// Touch refreshes UpdatedAt, never moving it before CreatedAt.
func (n *Note) Touch(now time.Time) {
	now = now.UTC()
	if now.Before(n.CreatedAt) {
		now = n.CreatedAt
	}
	n.UpdatedAt = now
}

// ---------------------------------------------------------------------------
// Record
// ---------------------------------------------------------------------------

const DefaultColor = "white"

// Record is one element of the persisted document: a note, its display color
// and any keys this program does not interpret.
type Record struct {
	Note  Note
	Color string
	Extra map[string]json.RawMessage
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	r.Note = r.Note.Clone()
	if r.Extra != nil {
		extra := make(map[string]json.RawMessage, len(r.Extra))
		for k, v := range r.Extra {
			extra[k] = slices.Clone(v)
		}
		r.Extra = extra
	}
	return r
}
