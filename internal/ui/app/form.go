package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stickynotes/internal/attachment"
	"stickynotes/internal/notes"
	"stickynotes/internal/storage/fs"
)

type editField int

const (
	fieldTitle editField = iota
	fieldContent
	fieldTags
	fieldPriority
	fieldPinned
	fieldCount
)

// editForm is the body of the edit modal.
type editForm struct {
	title    textinput.Model
	content  textarea.Model
	tags     textinput.Model
	priority fs.Priority
	pinned   bool
	focus    editField

	// read-only details of the note being edited
	created string
	updated string
	files   []string
}

const timeLayout = "2006-01-02 15:04"

func newEditForm(n fs.Note, width int, files *attachment.Manager) editForm {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 200
	title.SetValue(n.Title)

	content := textarea.New()
	content.Placeholder = "Write your note..."
	content.ShowLineNumbers = false
	content.Prompt = ""
	content.CharLimit = 0
	content.SetValue(n.Content)

	tags := textinput.New()
	tags.Placeholder = "comma,separated,tags"
	tags.SetValue(n.Tags)

	f := editForm{
		title:    title,
		content:  content,
		tags:     tags,
		priority: n.Priority.Clamp(),
		pinned:   n.Pinned,
		created:  n.CreatedAt.Local().Format(timeLayout),
		updated:  n.UpdatedAt.Local().Format(timeLayout),
	}
	for _, path := range n.Attachments {
		f.files = append(f.files, attachmentLine(files.Describe(path), path))
	}
	f.resize(width)
	f.setFocus(fieldTitle)
	return f
}

func (f *editForm) resize(width int) {
	w := max(20, width)
	f.title.Width = w
	f.tags.Width = w
	f.content.SetWidth(w)
	f.content.SetHeight(8)
}

func (f editForm) fields() notes.EditFields {
	return notes.EditFields{
		Title:    f.title.Value(),
		Content:  f.content.Value(),
		Tags:     f.tags.Value(),
		Priority: f.priority,
		Pinned:   f.pinned,
	}
}

func (f *editForm) setFocus(field editField) {
	f.focus = field
	f.title.Blur()
	f.content.Blur()
	f.tags.Blur()
	switch field {
	case fieldTitle:
		f.title.Focus()
	case fieldContent:
		f.content.Focus()
	case fieldTags:
		f.tags.Focus()
	}
}

func (f *editForm) cycle(step int) {
	f.setFocus((f.focus + editField(step) + fieldCount) % fieldCount)
}

func (f *editForm) setContent(s string) {
	f.content.SetValue(s)
}

// update routes a key to the focused field. Form-level keys (tab, save,
// cancel) are handled by the caller.
func (f editForm) update(msg tea.KeyMsg, keys KeyMap) (editForm, tea.Cmd) {
	var cmd tea.Cmd
	switch f.focus {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
	case fieldContent:
		f.content, cmd = f.content.Update(msg)
	case fieldTags:
		f.tags, cmd = f.tags.Update(msg)
	case fieldPriority:
		switch {
		case key.Matches(msg, keys.Increase):
			f.priority = (f.priority + 1).Clamp()
		case key.Matches(msg, keys.Decrease):
			f.priority = (f.priority - 1).Clamp()
		}
	case fieldPinned:
		if key.Matches(msg, keys.Toggle) {
			f.pinned = !f.pinned
		}
	}
	return f, cmd
}

const formLabelWidth = 10

var (
	labelStyle       = lipgloss.NewStyle().Width(formLabelWidth).Foreground(lipgloss.Color("245"))
	activeLabelStyle = labelStyle.Foreground(lipgloss.Color("205")).Bold(true)
)

func (f editForm) view() string {
	label := func(field editField, s string) string {
		if f.focus == field {
			return activeLabelStyle.Render(s)
		}
		return labelStyle.Render(s)
	}

	pinned := "[ ]"
	if f.pinned {
		pinned = "[x]"
	}

	priority := fmt.Sprintf("‹ %s %s ›", f.priority, notes.PriorityIcon(f.priority))

	lines := []string{
		label(fieldTitle, "Title") + f.title.View(),
		label(fieldContent, "Content"),
		f.content.View(),
		label(fieldTags, "Tags") + f.tags.View(),
		label(fieldPriority, "Priority") + priority,
		label(fieldPinned, "Pinned") + pinned,
		"",
		labelStyle.Render("Files") + fmt.Sprintf("%d attached", len(f.files)),
	}
	for _, line := range f.files {
		lines = append(lines, labelStyle.Render("")+line)
	}
	lines = append(lines, "", blurStyle.Render(fmt.Sprintf("created %s • updated %s", f.created, f.updated)))
	return strings.Join(lines, "\n")
}

// attachmentLine renders one attachment as icon, name and size.
func attachmentLine(info attachment.Info, path string) string {
	line := fmt.Sprintf("%s %s (%s)", attachment.Classify(path).Icon(), info.Name, info.Size)
	if !info.Exists {
		return errorStyle.Render(line)
	}
	return line
}
