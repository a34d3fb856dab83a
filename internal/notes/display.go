package notes

import (
	"strings"

	"stickynotes/internal/storage/fs"
)

type Border int

const (
	BorderSolid Border = iota
	BorderHeavy
)

// Display is the presentation state derived from an entry.
type Display struct {
	Title  string
	Color  string
	Border Border
}

var priorityColors = [...]string{
	fs.PriorityTrivial:  "white",
	fs.PriorityLow:      "#a0c4ff",
	fs.PriorityMedium:   "#fdffb6",
	fs.PriorityHigh:     "#ffd6a5",
	fs.PriorityCritical: "#ffadad",
}

var priorityIcons = [...]string{
	fs.PriorityTrivial:  "",
	fs.PriorityLow:      "🔵",
	fs.PriorityMedium:   "🟡",
	fs.PriorityHigh:     "🟠",
	fs.PriorityCritical: "🔴",
}

// PriorityColor is the default color for notes of priority p.
func PriorityColor(p fs.Priority) string {
	return priorityColors[p.Clamp()]
}

func PriorityIcon(p fs.Priority) string {
	return priorityIcons[p.Clamp()]
}

// KeyColors maps the number keys to color overrides.
var KeyColors = map[string]string{
	"1": "#ffadad", "2": "#ffd6a5", "3": "#fdffb6",
	"4": "#caffbf", "5": "#9bf6ff", "6": "#a0c4ff",
	"7": "#bdb2ff", "8": "#ffc6ff", "9": "#fffffc",
}

// NamedColors are the color names accepted by the line-mode tool.
var NamedColors = map[string]string{
	"yellow": "#fdffb6",
	"blue":   "#a0c4ff",
	"green":  "#caffbf",
	"pink":   "#ffc6ff",
	"white":  "#ffffff",
	"red":    "#ffadad",
	"orange": "#ffd6a5",
	"purple": "#bdb2ff",
	"cyan":   "#9bf6ff",
}

// ResolveColor turns a stored color into a hex or ANSI value a terminal
// renderer understands.
func ResolveColor(c string) string {
	if hex, ok := NamedColors[strings.ToLower(c)]; ok {
		return hex
	}
	return c
}

func recomputeDisplayTitle(e *Entry) {
	var b strings.Builder
	if e.Note.Pinned {
		b.WriteString("📌 ")
	}
	b.WriteString(e.Note.Title)
	if icon := PriorityIcon(e.Note.Priority); icon != "" {
		b.WriteString(" ")
		b.WriteString(icon)
	}
	e.Display.Title = b.String()
}

func recomputeBorderStyle(e *Entry) {
	e.Display.Color = e.Color()
	e.Display.Border = BorderSolid
	if e.Note.Pinned {
		e.Display.Border = BorderHeavy
	}
}
