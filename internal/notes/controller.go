// Package notes owns the live note collection and keeps it consistent with
// the note store and the attachment directory.
package notes

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"stickynotes/internal/storage/fs"
)

var (
	ErrNotFound = errors.New("could not find note")
	ErrResolved = errors.New("modal action already resolved")
	// ErrNotSaved accompanies changes that were applied in memory but could
	// not be written. The collection stays dirty until a later save succeeds.
	ErrNotSaved = errors.New("changes not saved")
)

// Persister loads and saves the whole collection.
type Persister interface {
	Load() ([]fs.Record, error)
	Save(records []fs.Record) error
}

// Attacher copies files into and out of per-note attachment storage.
type Attacher interface {
	CopyIn(src, noteID string) (string, error)
	Remove(path string) error
	Owns(noteID, path string) bool
}

// Entry is a live note with its presentation state.
type Entry struct {
	Note fs.Note
	// UserColor overrides the priority color when set.
	UserColor string
	Display   Display

	storedID string
	extra    map[string]json.RawMessage
}

// StoredID is the id as read from the document. It differs from Note.ID
// only when the stored id was missing or duplicated and has not been saved
// since.
func (e Entry) StoredID() string {
	return e.storedID
}

// Color is the effective display color.
func (e Entry) Color() string {
	if e.UserColor != "" {
		return e.UserColor
	}
	return PriorityColor(e.Note.Priority)
}

func (e *Entry) refresh() {
	recomputeDisplayTitle(e)
	recomputeBorderStyle(e)
}

func (e Entry) clone() Entry {
	e.Note = e.Note.Clone()
	return e
}

type Controller struct {
	store Persister
	files Attacher
	log   zerolog.Logger
	now   func() time.Time

	templateTitle   string
	templateContent string

	entries []*Entry
	dirty   bool

	// unreadable is the load error of a corrupt document. Saving would
	// replace the document, so saves fail until a load succeeds.
	unreadable error
}

type Option func(*Controller)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithTemplate sets the title and content of newly added notes.
func WithTemplate(title, content string) Option {
	return func(c *Controller) {
		c.templateTitle = title
		c.templateContent = content
	}
}

func NewController(store Persister, files Attacher, opts ...Option) *Controller {
	c := &Controller{
		store:           store,
		files:           files,
		log:             zerolog.Nop(),
		now:             time.Now,
		templateTitle:   "New title",
		templateContent: "New",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load replaces the live collection with the stored one, in file order.
// On error the current collection is kept.
func (c *Controller) Load() error {
	records, err := c.store.Load()
	if err != nil {
		if errors.Is(err, fs.ErrCorrupt) {
			c.unreadable = err
			c.log.Warn().Err(err).Msg("notes document unreadable, saving disabled")
		}
		return fmt.Errorf("load notes: %w", err)
	}
	c.unreadable = nil
	c.reconcile(records)
	c.log.Info().Int("count", len(c.entries)).Bool("repaired", c.dirty).Msg("notes loaded")
	return nil
}

// Reload is the manual form of Load. Unsaved changes are dropped.
func (c *Controller) Reload() error {
	return c.Load()
}

func (c *Controller) reconcile(records []fs.Record) {
	entries := make([]*Entry, 0, len(records))
	seen := make(map[string]bool, len(records))
	repaired := false

	for _, r := range records {
		n := r.Note.Clone()

		if n.ID == "" || seen[n.ID] {
			old := n.ID
			n.ID = fs.NewID()
			repaired = true
			c.log.Warn().Str("old_id", old).Str("new_id", n.ID).Msg("note id missing or duplicated, assigned a new one")
		}
		seen[n.ID] = true

		if repairTimestamps(&n, c.now()) {
			repaired = true
		}

		e := &Entry{Note: n, storedID: r.Note.ID}
		e.extra, e.UserColor = splitColor(r)
		e.refresh()
		entries = append(entries, e)
	}

	c.entries = entries
	c.dirty = repaired
}

// colorOverrideKey marks a stored color as chosen by the user. Without it a
// color equal to the priority color is indistinguishable from no override.
const colorOverrideKey = "color_override"

func splitColor(r fs.Record) (map[string]json.RawMessage, string) {
	extra := r.Extra
	marked := false
	if raw, ok := extra[colorOverrideKey]; ok {
		_ = json.Unmarshal(raw, &marked)
		extra = maps.Clone(extra)
		delete(extra, colorOverrideKey)
		if len(extra) == 0 {
			extra = nil
		}
	}
	if r.Color == "" {
		return extra, ""
	}
	if marked || r.Color != PriorityColor(r.Note.Priority) {
		return extra, r.Color
	}
	return extra, ""
}

func joinColor(e *Entry) map[string]json.RawMessage {
	if e.UserColor == "" {
		return e.extra
	}
	extra := maps.Clone(e.extra)
	if extra == nil {
		extra = make(map[string]json.RawMessage, 1)
	}
	extra[colorOverrideKey] = json.RawMessage("true")
	return extra
}

func repairTimestamps(n *fs.Note, now time.Time) bool {
	changed := false
	if n.CreatedAt.IsZero() {
		n.CreatedAt = n.UpdatedAt
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now.UTC()
		}
		changed = true
	}
	if n.UpdatedAt.Before(n.CreatedAt) {
		n.UpdatedAt = n.CreatedAt
		changed = true
	}
	return changed
}

// Save writes the live collection.
func (c *Controller) Save() error {
	return c.save()
}

func (c *Controller) save() error {
	if c.unreadable != nil {
		c.dirty = true
		return fmt.Errorf("%w: %w", ErrNotSaved, c.unreadable)
	}
	if err := c.store.Save(c.Records()); err != nil {
		c.dirty = true
		c.log.Error().Err(err).Msg("save notes")
		return fmt.Errorf("%w: %w", ErrNotSaved, err)
	}
	for _, e := range c.entries {
		e.storedID = e.Note.ID
	}
	c.dirty = false
	return nil
}

// ReadOnly reports whether saving is disabled because the stored document
// could not be read.
func (c *Controller) ReadOnly() bool {
	return c.unreadable != nil
}

// Dirty reports whether the live collection differs from the last save.
func (c *Controller) Dirty() bool {
	return c.dirty
}

// Records is the collection as it is persisted.
func (c *Controller) Records() []fs.Record {
	out := make([]fs.Record, len(c.entries))
	for i, e := range c.entries {
		out[i] = fs.Record{Note: e.Note.Clone(), Color: e.Color(), Extra: joinColor(e)}
	}
	return out
}

// Entries returns copies of the live entries in display order.
func (c *Controller) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.clone()
	}
	return out
}

func (c *Controller) Len() int {
	return len(c.entries)
}

// Find returns the entry with the given id.
func (c *Controller) Find(id string) (Entry, bool) {
	i := c.index(id)
	if i < 0 {
		return Entry{}, false
	}
	return c.entries[i].clone(), true
}

// Index is the display position of id, or -1.
func (c *Controller) Index(id string) int {
	return c.index(id)
}

func (c *Controller) index(id string) int {
	return slices.IndexFunc(c.entries, func(e *Entry) bool { return e.Note.ID == id })
}

func (c *Controller) lookup(id string) (*Entry, error) {
	i := c.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.entries[i], nil
}

// AddNote appends a note made from the template and saves.
func (c *Controller) AddNote() (fs.Note, error) {
	n := fs.NewNote(c.templateTitle, c.templateContent, c.now())
	e := &Entry{Note: n, storedID: n.ID}
	e.refresh()
	c.entries = append(c.entries, e)
	c.log.Info().Str("note_id", n.ID).Msg("note added")

	return n.Clone(), c.save()
}

// Sort orders pinned notes first, then by descending priority, keeping the
// current order among equals, and saves the result.
func (c *Controller) Sort() error {
	c.sortEntries()
	return c.save()
}

func (c *Controller) sortEntries() {
	sort.SliceStable(c.entries, func(i, j int) bool {
		a, b := c.entries[i].Note, c.entries[j].Note
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		return a.Priority > b.Priority
	})
}

// SetColor overrides the display color of a note. An empty color returns the
// note to its priority color. The change is persisted by the next save.
func (c *Controller) SetColor(id, color string) error {
	e, err := c.lookup(id)
	if err != nil {
		return err
	}
	e.UserColor = color
	e.refresh()
	c.dirty = true
	return nil
}

// Detach removes an attachment from a note and deletes the file when it lives
// in the note's attachment directory.
func (c *Controller) Detach(id, path string) error {
	e, err := c.lookup(id)
	if err != nil {
		return err
	}
	i := slices.Index(e.Note.Attachments, path)
	if i < 0 {
		return fmt.Errorf("%w: attachment %s", ErrNotFound, path)
	}

	if c.files.Owns(id, path) {
		if err := c.files.Remove(path); err != nil {
			return fmt.Errorf("detach %q: %w", path, err)
		}
	} else {
		c.log.Warn().Str("note_id", id).Str("path", path).Msg("attachment outside note dir, file kept")
	}

	e.Note.Attachments = slices.Delete(e.Note.Attachments, i, i+1)
	if len(e.Note.Attachments) == 0 {
		e.Note.Attachments = nil
	}
	e.Note.Touch(c.now())
	e.refresh()
	return c.save()
}
