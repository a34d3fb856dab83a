package app

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"

	"stickynotes/internal/appctx"
	"stickynotes/internal/attachment"
	"stickynotes/internal/config"
	"stickynotes/internal/editor"
	"stickynotes/internal/notes"
	"stickynotes/internal/storage/fs"
)

type mode int

const (
	modeBrowse mode = iota
	modeEdit
	modeDelete
	modeSearch
	modeAttach
	modePreview
	modeFiles
)

type editorDoneMsg struct {
	session *editor.Session
	err     error
}

type Model struct {
	notes *notes.Controller
	files *attachment.Manager
	log   zerolog.Logger

	width    int
	height   int
	colWidth int

	mode    mode
	focusID string

	editReq *notes.EditRequest
	form    editForm

	deleteReq *notes.Pending[bool]

	searchReq   *notes.Pending[string]
	searchInput textinput.Model
	searchRes   notes.SearchResult
	searchIdx   int

	attachReq    *notes.Pending[string]
	attachInput  textinput.Model
	attachHint   string
	attachHintOK bool

	fileIdx int

	preview viewport.Model

	help     help.Model
	keys     KeyMap
	showHelp bool

	status    string
	statusErr bool
	quitArmed bool

	copyText func(string) error
	openFile func(string) error
}

func NewModel(app *appctx.Context) Model {
	ctrl := app.Controller()

	si := textinput.New()
	si.Placeholder = "search notes..."
	si.CharLimit = 100

	ai := textinput.New()
	ai.Placeholder = "path to file"
	ai.CharLimit = 4096

	h := help.New()
	h.ShowAll = false

	colWidth := app.Settings.ColumnWidth
	if colWidth <= 0 {
		colWidth = config.DefaultColumnWidth
	}

	m := Model{
		notes:       ctrl,
		files:       app.Attachments,
		log:         app.Log,
		colWidth:    colWidth,
		mode:        modeBrowse,
		searchInput: si,
		attachInput: ai,
		preview:     viewport.New(0, 0),
		help:        h,
		keys:        DefaultKeyMap(),
		copyText:    clipboard.WriteAll,
		openFile:    attachment.Open,
	}

	if err := ctrl.Load(); err != nil {
		m.log.Error().Err(err).Msg("initial load")
		if errors.Is(err, fs.ErrCorrupt) {
			err = fmt.Errorf("%w; changes will not be saved until the file is fixed and reloaded (ctrl+r)", err)
		}
		m.setError(err)
	} else if ctrl.Dirty() {
		m.setStatus("Repaired notes on load, save pending")
	}
	m.fixFocus(0)
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case editorDoneMsg:
		return m.finishExternalEdit(msg), nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelModal()
			return m.quit()
		}

		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeDelete:
			return m.updateDelete(msg), nil
		case modeSearch:
			return m.updateSearch(msg)
		case modeAttach:
			return m.updateAttach(msg)
		case modePreview:
			return m.updatePreview(msg)
		case modeFiles:
			return m.updateFiles(msg), nil
		}
		return m.updateBrowse(msg)
	}

	return m, nil
}

// ---------- browse ----------

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Quit) {
		m.quitArmed = false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveFocus(dirUp)
	case key.Matches(msg, m.keys.Down):
		m.moveFocus(dirDown)
	case key.Matches(msg, m.keys.Left):
		m.moveFocus(dirLeft)
	case key.Matches(msg, m.keys.Right):
		m.moveFocus(dirRight)

	case key.Matches(msg, m.keys.Add):
		n, err := m.notes.AddNote()
		m.focusID = n.ID
		m.report(err, "Note added")

	case key.Matches(msg, m.keys.Save):
		m.report(m.notes.Save(), "Saved")

	case key.Matches(msg, m.keys.Reload):
		idx := m.notes.Index(m.focusID)
		err := m.notes.Reload()
		m.fixFocus(idx)
		m.report(err, "Reloaded")

	case key.Matches(msg, m.keys.Sort):
		m.report(m.notes.Sort(), "Sorted")

	case key.Matches(msg, m.keys.Search):
		m.searchReq = m.notes.RequestSearch()
		m.searchInput.SetValue("")
		m.searchRes = m.notes.Search("")
		m.searchIdx = 0
		m.mode = modeSearch
		return m, m.searchInput.Focus()

	default:
		return m.updateFocused(msg)
	}
	return m, nil
}

// updateFocused handles the keys that act on the focused note.
func (m Model) updateFocused(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.focusID == "" {
		return m, nil
	}
	id := m.focusID

	switch {
	case key.Matches(msg, m.keys.Edit):
		req, err := m.notes.BeginEdit(id)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		e, _ := m.notes.Find(id)
		m.editReq = req
		m.form = newEditForm(e.Note, m.modalWidth()-formLabelWidth, m.files)
		m.mode = modeEdit
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Delete):
		req, err := m.notes.RequestDelete(id)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.deleteReq = req
		m.mode = modeDelete

	case key.Matches(msg, m.keys.Attach):
		req, err := m.notes.RequestAttach(id)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.attachReq = req
		m.attachInput.SetValue("")
		m.checkAttachInput()
		m.mode = modeAttach
		return m, m.attachInput.Focus()

	case key.Matches(msg, m.keys.Files):
		e, _ := m.notes.Find(id)
		if len(e.Note.Attachments) == 0 {
			m.setStatus("No attachments")
			return m, nil
		}
		m.fileIdx = 0
		m.mode = modeFiles

	case key.Matches(msg, m.keys.Copy):
		e, _ := m.notes.Find(id)
		m.report(m.copyText(e.Note.Content), "Copied to clipboard")

	case key.Matches(msg, m.keys.Preview):
		e, _ := m.notes.Find(id)
		out, err := renderMarkdown(e.Note.Content, m.modalWidth())
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.preview = viewport.New(m.modalWidth(), m.modalHeight())
		m.preview.SetContent(out)
		m.mode = modePreview

	case key.Matches(msg, m.keys.Color):
		color := notes.KeyColors[msg.String()]
		if err := m.notes.SetColor(id, color); err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus("Color changed")
	}

	return m, nil
}

func (m *Model) moveFocus(d direction) {
	entries := m.notes.Entries()
	idx := gridMove(m.notes.Index(m.focusID), len(entries), m.columns(), d)
	if idx >= 0 {
		m.focusID = entries[idx].Note.ID
	}
}

// fixFocus keeps focus on the same note when it still exists, otherwise on
// the note now at idx (or the last one).
func (m *Model) fixFocus(idx int) {
	if _, ok := m.notes.Find(m.focusID); ok {
		return
	}
	entries := m.notes.Entries()
	if len(entries) == 0 {
		m.focusID = ""
		return
	}
	idx = min(max(idx, 0), len(entries)-1)
	m.focusID = entries[idx].Note.ID
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if !m.notes.Dirty() || m.quitArmed {
		return m, tea.Quit
	}
	if err := m.notes.Save(); err != nil {
		m.quitArmed = true
		m.setError(fmt.Errorf("%w (press q again to quit without saving)", err))
		return m, nil
	}
	return m, tea.Quit
}

// cancelModal drops whatever modal is open without applying it.
func (m *Model) cancelModal() {
	switch m.mode {
	case modeEdit:
		_ = m.editReq.Cancel()
	case modeDelete:
		_ = m.deleteReq.Cancel()
	case modeSearch:
		_ = m.searchReq.Cancel()
	case modeAttach:
		_ = m.attachReq.Cancel()
	}
	m.closeModal()
}

func (m *Model) closeModal() {
	m.mode = modeBrowse
	m.editReq = nil
	m.deleteReq = nil
	m.searchReq = nil
	m.attachReq = nil
	m.attachHint, m.attachHintOK = "", false
	m.fileIdx = 0
	m.searchInput.Blur()
	m.attachInput.Blur()
}

// ---------- edit ----------

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.cancelModal()
		m.setStatus("Edit cancelled")
		return m, nil

	case key.Matches(msg, m.keys.Save):
		err := m.editReq.Resolve(m.form.fields())
		m.closeModal()
		m.report(err, "Saved")
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		m.form.cycle(1)
		return m, nil

	case key.Matches(msg, m.keys.ShiftTab):
		m.form.cycle(-1)
		return m, nil

	case key.Matches(msg, m.keys.External):
		session, err := editor.NewSession(m.form.content.Value())
		if err != nil {
			m.setError(err)
			return m, nil
		}
		cmd, err := session.Cmd()
		if err != nil {
			session.Discard()
			m.setError(err)
			return m, nil
		}
		return m, tea.ExecProcess(cmd, func(err error) tea.Msg {
			return editorDoneMsg{session: session, err: err}
		})
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg, m.keys)
	if err := m.editReq.Stage(m.form.fields()); err != nil {
		m.setError(err)
	}
	return m, cmd
}

func (m Model) finishExternalEdit(msg editorDoneMsg) Model {
	if msg.err != nil {
		msg.session.Discard()
		m.setError(fmt.Errorf("external editor: %w", msg.err))
		return m
	}
	content, err := msg.session.Finish()
	if err != nil {
		m.setError(err)
		return m
	}
	if m.mode != modeEdit {
		return m
	}
	m.form.setContent(content)
	if err := m.editReq.Stage(m.form.fields()); err != nil {
		m.setError(err)
	}
	return m
}

// ---------- delete ----------

func (m Model) updateDelete(msg tea.KeyMsg) Model {
	switch {
	case key.Matches(msg, m.keys.Yes):
		idx := m.notes.Index(m.deleteReq.NoteID())
		err := m.deleteReq.Resolve(true)
		m.closeModal()
		m.fixFocus(idx)
		m.report(err, "Note deleted")

	case key.Matches(msg, m.keys.No):
		_ = m.deleteReq.Resolve(false)
		m.closeModal()
		m.setStatus("Delete cancelled")
	}
	return m
}

// ---------- search ----------

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.cancelModal()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		id := ""
		if len(m.searchRes.Matches) > 0 {
			id = m.searchRes.Matches[m.searchIdx].ID
		}
		err := m.searchReq.Resolve(id)
		m.closeModal()
		switch {
		case err != nil:
			m.setError(err)
		case id != "":
			m.focusID = id
			m.setStatus("")
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevMatch):
		m.searchIdx = max(0, m.searchIdx-1)
		return m, nil

	case key.Matches(msg, m.keys.NextMatch):
		m.searchIdx = min(max(0, len(m.searchRes.Matches)-1), m.searchIdx+1)
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.searchRes = m.notes.Search(m.searchInput.Value())
	m.searchIdx = 0
	return m, cmd
}

// ---------- attach ----------

func (m Model) updateAttach(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.cancelModal()
		m.setStatus("Attach cancelled")
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		err := m.attachReq.Resolve(m.attachInput.Value())
		applied := m.attachReq.State() == notes.StateApplied
		m.closeModal()
		switch {
		case err != nil:
			m.setError(err)
		case applied:
			m.setStatus("File attached")
		default:
			m.setStatus("Attach cancelled")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.attachInput, cmd = m.attachInput.Update(msg)
	m.checkAttachInput()
	return m, cmd
}

// checkAttachInput validates the typed path so the modal can show the
// outcome before enter is pressed.
func (m *Model) checkAttachInput() {
	m.attachHint, m.attachHintOK = "", false
	path := attachment.CleanPath(m.attachInput.Value())
	if path == "" {
		return
	}
	if err := m.files.Validate(path); err != nil {
		var verr *attachment.ValidationError
		if errors.As(err, &verr) {
			m.attachHint = "file " + verr.Reason
		} else {
			m.attachHint = err.Error()
		}
		return
	}
	m.attachHint = attachmentLine(m.files.Describe(path), path)
	m.attachHintOK = true
}

// ---------- files ----------

func (m Model) updateFiles(msg tea.KeyMsg) Model {
	e, ok := m.notes.Find(m.focusID)
	if !ok || len(e.Note.Attachments) == 0 {
		m.closeModal()
		return m
	}
	files := e.Note.Attachments
	m.fileIdx = min(max(m.fileIdx, 0), len(files)-1)
	path := files[m.fileIdx]

	switch {
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Quit):
		m.closeModal()

	case key.Matches(msg, m.keys.PrevMatch):
		m.fileIdx = max(0, m.fileIdx-1)

	case key.Matches(msg, m.keys.NextMatch):
		m.fileIdx = min(len(files)-1, m.fileIdx+1)

	case key.Matches(msg, m.keys.Open):
		m.report(m.openFile(path), "Opened "+m.files.Describe(path).Name)

	case key.Matches(msg, m.keys.Remove):
		name := m.files.Describe(path).Name
		m.report(m.notes.Detach(m.focusID, path), "Detached "+name)
		if e, _ := m.notes.Find(m.focusID); len(e.Note.Attachments) == 0 {
			m.closeModal()
		} else {
			m.fileIdx = min(m.fileIdx, len(e.Note.Attachments)-1)
		}
	}
	return m
}

// ---------- preview ----------

func (m Model) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Preview), key.Matches(msg, m.keys.Quit):
		m.mode = modeBrowse
		return m, nil
	}
	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)
	return m, cmd
}

func renderMarkdown(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(20, width-4)),
	)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// ---------- helpers ----------

func (m *Model) layout() {
	if m.mode == modeEdit {
		m.form.resize(m.modalWidth() - formLabelWidth)
	}
	if m.mode == modePreview {
		m.preview.Width = m.modalWidth()
		m.preview.Height = m.modalHeight()
	}
	m.searchInput.Width = max(20, m.modalWidth()-4)
	m.attachInput.Width = max(20, m.modalWidth()-4)
	m.help.Width = m.width
}

func (m Model) columns() int {
	return gridColumns(m.width, m.colWidth)
}

func (m Model) modalWidth() int {
	return max(30, min(90, m.width-8))
}

func (m Model) modalHeight() int {
	return max(5, m.height-8)
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	if errors.Is(err, notes.ErrNotFound) {
		m.log.Warn().Err(err).Msg("stale note reference")
	}
	m.status = err.Error()
	m.statusErr = true
}

func (m *Model) report(err error, ok string) {
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus(ok)
}
