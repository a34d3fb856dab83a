package notes

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stickynotes/internal/attachment"
	"stickynotes/internal/config"
	"stickynotes/internal/storage/fs"
)

type memStore struct {
	records []fs.Record
	saves   int
}

func (s *memStore) Load() ([]fs.Record, error) {
	out := make([]fs.Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out, nil
}

func (s *memStore) Save(records []fs.Record) error {
	s.records = records
	s.saves++
	return nil
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Load() ([]fs.Record, error) {
	args := m.Called()
	return args.Get(0).([]fs.Record), args.Error(1)
}

func (m *mockStore) Save(records []fs.Record) error {
	return m.Called(records).Error(0)
}

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return base.Add(time.Hour) }

func record(id, title string, priority fs.Priority, pinned bool) fs.Record {
	return fs.Record{
		Note: fs.Note{
			ID:        id,
			Title:     title,
			Content:   "content of " + title,
			Priority:  priority,
			Pinned:    pinned,
			CreatedAt: base,
			UpdatedAt: base,
		},
		Color: PriorityColor(priority),
	}
}

func newTestController(t *testing.T, records ...fs.Record) (*Controller, *memStore) {
	t.Helper()
	store := &memStore{records: records}
	files := attachment.NewManager(t.TempDir())
	c := NewController(store, files, WithClock(fixedClock))
	require.NoError(t, c.Load())
	return c, store
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Note.ID
	}
	return out
}

func TestLoad_KeepsFileOrder(t *testing.T) {
	c, _ := newTestController(t,
		record("b", "B", fs.PriorityLow, false),
		record("a", "A", fs.PriorityCritical, true),
	)

	assert.Equal(t, []string{"b", "a"}, ids(c.Entries()))
	assert.False(t, c.Dirty())
}

func TestLoad_ErrorKeepsCurrentCollection(t *testing.T) {
	store := new(mockStore)
	store.On("Load").Return([]fs.Record{record("a", "A", fs.PriorityLow, false)}, nil).Once()
	store.On("Load").Return([]fs.Record{}, fs.ErrCorrupt).Once()

	c := NewController(store, attachment.NewManager(t.TempDir()))
	require.NoError(t, c.Load())

	err := c.Reload()
	require.ErrorIs(t, err, fs.ErrCorrupt)
	assert.Equal(t, []string{"a"}, ids(c.Entries()))
	store.AssertExpectations(t)
}

func TestLoad_RepairsMissingAndDuplicateIDs(t *testing.T) {
	c, _ := newTestController(t,
		record("", "no id", fs.PriorityLow, false),
		record("dup", "first", fs.PriorityLow, false),
		record("dup", "second", fs.PriorityLow, false),
	)

	got := ids(c.Entries())
	require.Len(t, got, 3)
	assert.NotEmpty(t, got[0])
	assert.Equal(t, "dup", got[1])
	assert.NotEqual(t, "dup", got[2])
	assert.NotEqual(t, got[0], got[2])
	assert.True(t, c.Dirty())
}

func TestLoad_RepairsTimestamps(t *testing.T) {
	noCreated := record("a", "A", fs.PriorityLow, false)
	noCreated.Note.CreatedAt = time.Time{}

	backwards := record("b", "B", fs.PriorityLow, false)
	backwards.Note.UpdatedAt = base.Add(-time.Hour)

	neither := record("c", "C", fs.PriorityLow, false)
	neither.Note.CreatedAt = time.Time{}
	neither.Note.UpdatedAt = time.Time{}

	c, _ := newTestController(t, noCreated, backwards, neither)

	a, _ := c.Find("a")
	assert.Equal(t, base, a.Note.CreatedAt)

	b, _ := c.Find("b")
	assert.Equal(t, base, b.Note.UpdatedAt)

	n, _ := c.Find("c")
	assert.Equal(t, fixedClock(), n.Note.CreatedAt)
	assert.Equal(t, fixedClock(), n.Note.UpdatedAt)
	assert.True(t, c.Dirty())
}

func TestColorPrecedence(t *testing.T) {
	custom := record("a", "A", fs.PriorityHigh, false)
	custom.Color = "#caffbf"
	plain := record("b", "B", fs.PriorityHigh, false)

	c, store := newTestController(t, custom, plain)

	a, _ := c.Find("a")
	assert.Equal(t, "#caffbf", a.Color())
	assert.Equal(t, "#caffbf", a.Display.Color)

	b, _ := c.Find("b")
	assert.Empty(t, b.UserColor)
	assert.Equal(t, PriorityColor(fs.PriorityHigh), b.Display.Color)

	// a priority change moves an un-overridden note to the new color
	req, err := c.BeginEdit("b")
	require.NoError(t, err)
	f := FieldsOf(b.Note)
	f.Priority = fs.PriorityCritical
	require.NoError(t, req.Resolve(f))

	b, _ = c.Find("b")
	assert.Equal(t, PriorityColor(fs.PriorityCritical), b.Display.Color)
	assert.Equal(t, PriorityColor(fs.PriorityCritical), store.records[c.Index("b")].Color)

	require.NoError(t, c.SetColor("a", ""))
	a, _ = c.Find("a")
	assert.Equal(t, PriorityColor(fs.PriorityHigh), a.Display.Color)
	assert.True(t, c.Dirty())
}

func TestDisplayTitle(t *testing.T) {
	c, _ := newTestController(t,
		record("a", "Groceries", fs.PriorityCritical, true),
		record("b", "Plain", fs.PriorityTrivial, false),
	)

	a, _ := c.Find("a")
	assert.Equal(t, "📌 Groceries 🔴", a.Display.Title)
	assert.Equal(t, BorderHeavy, a.Display.Border)

	b, _ := c.Find("b")
	assert.Equal(t, "Plain", b.Display.Title)
	assert.Equal(t, BorderSolid, b.Display.Border)
}

func TestAddNote_AppendsTemplateAndSaves(t *testing.T) {
	c, store := newTestController(t, record("a", "A", fs.PriorityLow, false))

	n, err := c.AddNote()
	require.NoError(t, err)

	assert.Equal(t, "New title", n.Title)
	assert.Equal(t, "New", n.Content)
	assert.Equal(t, fixedClock(), n.CreatedAt)
	assert.Equal(t, []string{"a", n.ID}, ids(c.Entries()))
	assert.Equal(t, 1, store.saves)
	assert.Len(t, store.records, 2)
}

func TestSort_PinnedThenPriorityStable(t *testing.T) {
	c, store := newTestController(t,
		record("a", "A", fs.PriorityMedium, false),
		record("b", "B", fs.PriorityLow, true),
		record("c", "C", fs.PriorityCritical, false),
		record("d", "D", fs.PriorityLow, true),
	)

	require.NoError(t, c.Sort())
	assert.Equal(t, []string{"b", "d", "c", "a"}, ids(c.Entries()))
	assert.Equal(t, 1, store.saves)

	require.NoError(t, c.Sort())
	assert.Equal(t, []string{"b", "d", "c", "a"}, ids(c.Entries()))
}

func TestRequestDelete(t *testing.T) {
	c, store := newTestController(t,
		record("a", "A", fs.PriorityLow, false),
		record("b", "B", fs.PriorityLow, false),
	)

	declined, err := c.RequestDelete("a")
	require.NoError(t, err)
	require.NoError(t, declined.Resolve(false))
	assert.Equal(t, StateCancelled, declined.State())
	assert.Equal(t, 2, c.Len())
	assert.Zero(t, store.saves)

	accepted, err := c.RequestDelete("a")
	require.NoError(t, err)
	require.NoError(t, accepted.Resolve(true))
	assert.Equal(t, StateApplied, accepted.State())
	assert.Equal(t, []string{"b"}, ids(c.Entries()))
	assert.Equal(t, 1, store.saves)

	assert.ErrorIs(t, accepted.Resolve(true), ErrResolved)

	_, err = c.RequestDelete("a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBeginEdit_CancelRestoresSnapshot(t *testing.T) {
	orig := record("a", "A", fs.PriorityLow, false)
	orig.Color = "#bdb2ff"
	c, store := newTestController(t, orig)

	req, err := c.BeginEdit("a")
	require.NoError(t, err)

	staged := EditFields{Title: "changed", Content: "x", Tags: "t", Priority: fs.PriorityCritical, Pinned: true}
	require.NoError(t, req.Stage(staged))
	require.NoError(t, c.SetColor("a", "#9bf6ff"))

	live, _ := c.Find("a")
	assert.Equal(t, "changed", live.Note.Title)

	require.NoError(t, req.Cancel())
	assert.Equal(t, StateCancelled, req.State())

	live, _ = c.Find("a")
	assert.Equal(t, orig.Note, live.Note)
	assert.Equal(t, "#bdb2ff", live.Color())
	assert.Equal(t, req.Original(), live.Note)
	assert.Zero(t, store.saves)
}

func TestBeginEdit_CommitTouchesSortsAndSaves(t *testing.T) {
	c, store := newTestController(t,
		record("a", "A", fs.PriorityLow, false),
		record("b", "B", fs.PriorityLow, false),
	)

	req, err := c.BeginEdit("b")
	require.NoError(t, err)
	require.NoError(t, req.Resolve(EditFields{Title: "B2", Content: "new", Tags: "x", Priority: fs.Priority(9), Pinned: true}))

	b, _ := c.Find("b")
	assert.Equal(t, "B2", b.Note.Title)
	assert.Equal(t, fs.PriorityCritical, b.Note.Priority)
	assert.Equal(t, fixedClock(), b.Note.UpdatedAt)
	assert.Equal(t, []string{"b", "a"}, ids(c.Entries()))
	assert.Equal(t, 1, store.saves)

	assert.ErrorIs(t, req.Stage(FieldsOf(b.Note)), ErrResolved)
}

func TestSearch(t *testing.T) {
	tagged := record("b", "Shopping", fs.PriorityLow, false)
	tagged.Note.Tags = "home,errands"
	c, _ := newTestController(t,
		record("a", "Meeting notes", fs.PriorityLow, false),
		tagged,
	)

	assert.Equal(t, SearchNoQuery, c.Search("   ").State())
	assert.Equal(t, SearchNoMatches, c.Search("zebra").State())

	res := c.Search("  ERRANDS ")
	require.Equal(t, SearchMatches, res.State())
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "b", res.Matches[0].ID)

	res = c.Search("content of")
	assert.Len(t, res.Matches, 2)
}

func TestRequestSearch_StaleSelection(t *testing.T) {
	c, _ := newTestController(t, record("a", "A", fs.PriorityLow, false))

	p := c.RequestSearch()
	err := p.Resolve("gone")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, StateCancelled, p.State())

	p = c.RequestSearch()
	require.NoError(t, p.Resolve("a"))
	assert.Equal(t, StateApplied, p.State())
}

func TestRequestAttach(t *testing.T) {
	c, store := newTestController(t, record("a", "A", fs.PriorityLow, false))

	src := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(src, []byte("quarterly"), 0o644))

	p, err := c.RequestAttach("a")
	require.NoError(t, err)
	require.NoError(t, p.Resolve(`  "`+src+`" `))

	a, _ := c.Find("a")
	require.Len(t, a.Note.Attachments, 1)
	dst := a.Note.Attachments[0]
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "quarterly", string(data))
	assert.Equal(t, 1, store.saves)

	require.NoError(t, c.Detach("a", dst))
	a, _ = c.Find("a")
	assert.Empty(t, a.Note.Attachments)
	_, err = os.Stat(dst)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 2, store.saves)
}

func TestRequestAttach_InvalidFileChangesNothing(t *testing.T) {
	c, store := newTestController(t, record("a", "A", fs.PriorityLow, false))

	p, err := c.RequestAttach("a")
	require.NoError(t, err)
	err = p.Resolve(filepath.Join(t.TempDir(), "missing.txt"))
	require.ErrorIs(t, err, attachment.ErrInvalid)
	assert.Equal(t, StateCancelled, p.State())

	a, _ := c.Find("a")
	assert.Empty(t, a.Note.Attachments)
	assert.Equal(t, base, a.Note.UpdatedAt)
	assert.Zero(t, store.saves)

	p, err = c.RequestAttach("a")
	require.NoError(t, err)
	require.NoError(t, p.Resolve("   "))
	assert.Equal(t, StateCancelled, p.State())
}

func TestSaveFailure_KeepsChangeAndStaysDirty(t *testing.T) {
	store := new(mockStore)
	store.On("Load").Return([]fs.Record{record("a", "A", fs.PriorityLow, false)}, nil)
	store.On("Save", mock.Anything).Return(errors.New("disk full")).Once()
	store.On("Save", mock.Anything).Return(nil).Once()

	c := NewController(store, attachment.NewManager(t.TempDir()), WithClock(fixedClock))
	require.NoError(t, c.Load())

	_, err := c.AddNote()
	require.ErrorIs(t, err, ErrNotSaved)
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Dirty())

	require.NoError(t, c.Save())
	assert.False(t, c.Dirty())
	store.AssertExpectations(t)
}

func TestCorruptDocumentIsNeverOverwritten(t *testing.T) {
	paths, err := config.ResolvePaths(t.TempDir())
	require.NoError(t, err)
	corrupt := []byte(`[{"noteTitle":"precious","content":"keep me"}, oops]`)
	require.NoError(t, os.WriteFile(paths.Notes, corrupt, 0o644))

	c := NewController(fs.NewStore(paths), attachment.NewManager(paths.Attachments), WithClock(fixedClock))
	require.ErrorIs(t, c.Load(), fs.ErrCorrupt)
	assert.True(t, c.ReadOnly())

	_, err = c.AddNote()
	require.ErrorIs(t, err, ErrNotSaved)
	require.ErrorIs(t, err, fs.ErrCorrupt)
	for i := 0; i < 21; i++ {
		require.ErrorIs(t, c.Sort(), fs.ErrCorrupt)
	}
	require.ErrorIs(t, c.Save(), fs.ErrCorrupt)
	assert.True(t, c.Dirty())

	data, err := os.ReadFile(paths.Notes)
	require.NoError(t, err)
	assert.Equal(t, corrupt, data)
	backups, err := os.ReadDir(paths.Backups)
	require.NoError(t, err)
	assert.Empty(t, backups)

	// once the file is repaired by hand a reload makes saving possible again
	require.NoError(t, os.WriteFile(paths.Notes, []byte(`[{"noteTitle":"precious","note_id":"p"}]`), 0o644))
	require.NoError(t, c.Reload())
	assert.False(t, c.ReadOnly())
	_, err = c.AddNote()
	require.NoError(t, err)

	records, err := fs.ReadDocument(paths.Notes)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "precious", records[0].Note.Title)
}

func TestColorOverrideEqualToPriorityColorSurvivesReload(t *testing.T) {
	c, store := newTestController(t, record("a", "A", fs.PriorityLow, false))

	require.NoError(t, c.SetColor("a", PriorityColor(fs.PriorityLow)))
	require.NoError(t, c.Save())
	assert.JSONEq(t, "true", string(store.records[0].Extra[colorOverrideKey]))

	require.NoError(t, c.Reload())
	a, _ := c.Find("a")
	assert.Equal(t, PriorityColor(fs.PriorityLow), a.UserColor)
	assert.NotContains(t, a.extra, colorOverrideKey)

	req, err := c.BeginEdit("a")
	require.NoError(t, err)
	f := FieldsOf(a.Note)
	f.Priority = fs.PriorityCritical
	require.NoError(t, req.Resolve(f))

	a, _ = c.Find("a")
	assert.Equal(t, PriorityColor(fs.PriorityLow), a.Color())

	require.NoError(t, c.SetColor("a", ""))
	require.NoError(t, c.Save())
	assert.NotContains(t, store.records[0].Extra, colorOverrideKey)
}

func TestStoredIDStaysUntilSaved(t *testing.T) {
	c, _ := newTestController(t,
		record("", "no id", fs.PriorityLow, false),
		record("dup", "first", fs.PriorityLow, false),
		record("dup", "second", fs.PriorityLow, false),
	)

	entries := c.Entries()
	assert.Equal(t, []string{"", "dup", "dup"}, []string{
		entries[0].StoredID(), entries[1].StoredID(), entries[2].StoredID(),
	})
	assert.NotEqual(t, entries[2].Note.ID, entries[2].StoredID())

	require.NoError(t, c.Save())
	for _, e := range c.Entries() {
		assert.Equal(t, e.Note.ID, e.StoredID())
	}
}
