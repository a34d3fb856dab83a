package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stickynotes/internal/attachment"
	"stickynotes/internal/notes"
)

const cardBodyLines = 5

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	blurStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	focusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	modalStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("205")).Padding(0, 1)
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	header := m.renderHeader()
	footer := lipgloss.JoinVertical(lipgloss.Left, m.renderStatus(), m.renderHelp())
	bodyH := max(1, m.height-lipgloss.Height(header)-lipgloss.Height(footer))

	var body string
	if m.mode == modeBrowse {
		body = m.renderGrid(bodyH)
	} else {
		body = lipgloss.Place(m.width, bodyH, lipgloss.Center, lipgloss.Center, m.renderModal())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) renderHeader() string {
	count := fmt.Sprintf("%d notes", m.notes.Len())
	line := titleStyle.Render("Sticky Notes") + " " + blurStyle.Render("•") + " " + blurStyle.Render(count)
	if m.notes.Dirty() {
		line += " " + focusStyle.Render("[unsaved]")
	}
	if m.notes.ReadOnly() {
		line += " " + errorStyle.Render("[read-only: notes file unreadable]")
	}
	return line
}

func (m Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return errorStyle.Render(m.status)
	}
	return statusStyle.Render(m.status)
}

func (m Model) renderHelp() string {
	var km modeKeyMap
	km.KeyMap = m.keys
	switch m.mode {
	case modeEdit:
		km.short = m.keys.EditShortHelp
	case modeSearch:
		km.short = m.keys.SearchShortHelp
	case modeDelete:
		km.short = m.keys.ConfirmShortHelp
	case modeFiles:
		km.short = m.keys.FilesShortHelp
	case modeAttach, modePreview:
		km.short = m.keys.InputShortHelp
	default:
		return lipgloss.NewStyle().Padding(0, 1).Render(m.help.View(m.keys))
	}
	h := m.help
	h.ShowAll = false
	return lipgloss.NewStyle().Padding(0, 1).Render(h.View(km))
}

// ---------- grid ----------

func (m Model) renderGrid(height int) string {
	entries := m.notes.Entries()
	if len(entries) == 0 {
		return blurStyle.Render("No notes yet. Press 'a' to add one.")
	}

	cols := m.columns()
	cardH := cardBodyLines + 3
	visibleRows := max(1, height/cardH)
	focusRow := max(0, m.notes.Index(m.focusID)) / cols
	firstRow := max(0, focusRow-visibleRows+1)

	var rows []string
	for start := firstRow * cols; start < len(entries) && len(rows) < visibleRows; start += cols {
		end := min(start+cols, len(entries))
		cards := make([]string, 0, end-start)
		for _, e := range entries[start:end] {
			cards = append(cards, m.renderCard(e))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderCard(e notes.Entry) string {
	inner := max(10, m.colWidth-4)
	color := lipgloss.Color(notes.ResolveColor(e.Display.Color))

	border := lipgloss.NormalBorder()
	if e.Display.Border == notes.BorderHeavy {
		border = lipgloss.ThickBorder()
	}

	title := truncate(e.Display.Title, inner)
	if e.Note.ID == m.focusID {
		title = titleStyle.Reverse(true).Render(title)
	} else {
		title = titleStyle.Render(title)
	}

	lines := []string{title}
	lines = append(lines, clampLines(e.Note.Content, inner, cardBodyLines-2)...)
	for len(lines) < cardBodyLines-1 {
		lines = append(lines, "")
	}

	meta := []string{}
	if e.Note.Tags != "" {
		meta = append(meta, "#"+e.Note.Tags)
	}
	if n := len(e.Note.Attachments); n > 0 {
		last := e.Note.Attachments[n-1]
		meta = append(meta, fmt.Sprintf("%s %d", attachment.Classify(last).Icon(), n))
	}
	lines = append(lines, blurStyle.Render(truncate(strings.Join(meta, " "), inner)))

	style := lipgloss.NewStyle().
		Border(border).
		BorderForeground(color).
		Width(inner).
		Padding(0, 1)
	if e.Note.ID == m.focusID {
		style = style.BorderForeground(lipgloss.Color("205"))
	}
	return style.Render(strings.Join(lines, "\n"))
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

func clampLines(s string, width, n int) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if len(out) == n {
			out[n-1] = truncate(out[n-1]+" …", width)
			break
		}
		out = append(out, truncate(line, width))
	}
	return out
}

// ---------- modals ----------

func (m Model) renderModal() string {
	w := m.modalWidth()
	var header, body string

	switch m.mode {
	case modeEdit:
		header = "Edit note"
		body = m.form.view()

	case modeDelete:
		e, _ := m.notes.Find(m.deleteReq.NoteID())
		header = "Delete note"
		body = fmt.Sprintf("Delete %q? (y/n)", e.Note.Title)

	case modeSearch:
		header = "Search"
		body = m.searchInput.View() + "\n\n" + m.renderMatches()

	case modeAttach:
		header = "Attach file"
		body = m.attachInput.View() + "\n" + m.renderAttachHint()

	case modePreview:
		e, _ := m.notes.Find(m.focusID)
		header = e.Display.Title
		body = m.preview.View()

	case modeFiles:
		e, _ := m.notes.Find(m.focusID)
		header = "Files of " + e.Note.Title
		body = m.renderFiles(e.Note.Attachments)
	}

	return modalStyle.Width(w).Render(titleStyle.Render(header) + "\n\n" + body)
}

func (m Model) renderMatches() string {
	switch m.searchRes.State() {
	case notes.SearchNoQuery:
		return blurStyle.Render("Type to search titles, content and tags.")
	case notes.SearchNoMatches:
		return blurStyle.Render("No matches for " + fmt.Sprintf("%q", m.searchRes.Term))
	}

	limit := max(1, m.modalHeight()-6)
	lines := make([]string, 0, limit)
	first := max(0, m.searchIdx-limit+1)
	for i := first; i < len(m.searchRes.Matches) && len(lines) < limit; i++ {
		n := m.searchRes.Matches[i]
		line := truncate(n.Title, m.modalWidth()-6)
		if i == m.searchIdx {
			line = focusStyle.Render("› " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderAttachHint() string {
	limit := blurStyle.Render(fmt.Sprintf("max %s per file", attachment.FormatSize(attachment.MaxSize)))
	switch {
	case m.attachHint == "":
		return limit
	case m.attachHintOK:
		return "✅ " + m.attachHint
	}
	return errorStyle.Render("❌ "+m.attachHint) + "\n" + limit
}

func (m Model) renderFiles(paths []string) string {
	lines := make([]string, 0, len(paths))
	for i, path := range paths {
		line := attachmentLine(m.files.Describe(path), path)
		if i == m.fileIdx {
			line = focusStyle.Render("› ") + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
