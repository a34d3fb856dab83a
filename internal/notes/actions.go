package notes

import (
	"slices"
	"strings"

	"stickynotes/internal/attachment"
	"stickynotes/internal/storage/fs"
)

// EditFields are the user-editable attributes of a note.
type EditFields struct {
	Title    string
	Content  string
	Tags     string
	Priority fs.Priority
	Pinned   bool
}

// FieldsOf extracts the editable fields of n.
func FieldsOf(n fs.Note) EditFields {
	return EditFields{
		Title:    n.Title,
		Content:  n.Content,
		Tags:     n.Tags,
		Priority: n.Priority,
		Pinned:   n.Pinned,
	}
}

func (f EditFields) applyTo(n *fs.Note) {
	n.Title = f.Title
	n.Content = f.Content
	n.Tags = f.Tags
	n.Priority = f.Priority.Clamp()
	n.Pinned = f.Pinned
}

// EditRequest is an open edit of one note. The note as it was when editing
// began is kept until the edit resolves.
type EditRequest struct {
	*Pending[EditFields]

	c         *Controller
	snapshot  fs.Note
	userColor string
}

// Original is the note as it was when editing began.
func (r *EditRequest) Original() fs.Note {
	return r.snapshot.Clone()
}

// Stage shows fields on the live note without saving or sorting. Cancel
// undoes staged changes.
func (r *EditRequest) Stage(f EditFields) error {
	if r.State() != StateAwaiting {
		return ErrResolved
	}
	e, err := r.c.lookup(r.NoteID())
	if err != nil {
		return err
	}
	f.applyTo(&e.Note)
	e.refresh()
	return nil
}

// BeginEdit opens an edit of id. Resolve commits the fields, refreshes
// UpdatedAt, re-sorts and saves; Cancel restores the note verbatim.
func (c *Controller) BeginEdit(id string) (*EditRequest, error) {
	e, err := c.lookup(id)
	if err != nil {
		return nil, err
	}

	req := &EditRequest{c: c, snapshot: e.Note.Clone(), userColor: e.UserColor}
	req.Pending = newPending(KindEdit, id, c.commitEdit(id), req.restore)
	return req, nil
}

func (c *Controller) commitEdit(id string) func(EditFields) (bool, error) {
	return func(f EditFields) (bool, error) {
		e, err := c.lookup(id)
		if err != nil {
			return false, err
		}
		f.applyTo(&e.Note)
		e.Note.Touch(c.now())
		e.refresh()
		c.log.Info().Str("note_id", id).Msg("note edited")

		c.sortEntries()
		return true, c.save()
	}
}

func (r *EditRequest) restore() {
	e, err := r.c.lookup(r.NoteID())
	if err != nil {
		return
	}
	e.Note = r.snapshot.Clone()
	e.UserColor = r.userColor
	e.refresh()
}

// RequestDelete asks for confirmation before removing id. Resolve(true)
// removes the note and saves; Resolve(false) or Cancel changes nothing.
func (c *Controller) RequestDelete(id string) (*Pending[bool], error) {
	if _, err := c.lookup(id); err != nil {
		return nil, err
	}

	return newPending(KindDelete, id, func(confirmed bool) (bool, error) {
		if !confirmed {
			return false, nil
		}
		i := c.index(id)
		if i < 0 {
			return false, ErrNotFound
		}
		c.entries = slices.Delete(c.entries, i, i+1)
		c.log.Info().Str("note_id", id).Msg("note deleted")
		return true, c.save()
	}, nil), nil
}

// RequestSearch opens a search. It resolves with the id of the chosen match;
// an empty id closes the search without a choice.
func (c *Controller) RequestSearch() *Pending[string] {
	return newPending(KindSearch, "", func(id string) (bool, error) {
		if id == "" {
			return false, nil
		}
		if _, err := c.lookup(id); err != nil {
			return false, err
		}
		return true, nil
	}, nil)
}

// RequestAttach asks for a file to attach to id. Resolve copies the file into
// the note's attachment directory, records it and saves. An invalid file
// aborts with nothing changed.
func (c *Controller) RequestAttach(id string) (*Pending[string], error) {
	if _, err := c.lookup(id); err != nil {
		return nil, err
	}

	return newPending(KindAttach, id, func(src string) (bool, error) {
		src = attachment.CleanPath(src)
		if src == "" {
			return false, nil
		}
		e, err := c.lookup(id)
		if err != nil {
			return false, err
		}
		dst, err := c.files.CopyIn(src, id)
		if err != nil {
			return false, err
		}
		e.Note.Attachments = append(e.Note.Attachments, dst)
		e.Note.Touch(c.now())
		e.refresh()
		c.log.Info().Str("note_id", id).Str("path", dst).Msg("file attached")
		return true, c.save()
	}, nil), nil
}

type SearchState int

const (
	SearchNoQuery SearchState = iota
	SearchNoMatches
	SearchMatches
)

type SearchResult struct {
	Term    string
	Matches []fs.Note
}

func (r SearchResult) State() SearchState {
	switch {
	case r.Term == "":
		return SearchNoQuery
	case len(r.Matches) == 0:
		return SearchNoMatches
	}
	return SearchMatches
}

// Search matches term case-insensitively against title, content and tags of
// the live collection, in display order. A blank term is no query at all.
func (c *Controller) Search(term string) SearchResult {
	term = strings.ToLower(strings.TrimSpace(term))
	res := SearchResult{Term: term}
	if term == "" {
		return res
	}

	for _, e := range c.entries {
		n := e.Note
		if strings.Contains(strings.ToLower(n.Title), term) ||
			strings.Contains(strings.ToLower(n.Content), term) ||
			strings.Contains(strings.ToLower(n.Tags), term) {
			res.Matches = append(res.Matches, n.Clone())
		}
	}
	return res
}
