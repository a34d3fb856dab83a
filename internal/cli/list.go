package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"stickynotes/internal/notes"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// noteView is the line-mode rendering of a note.
type noteView struct {
	ID          string    `json:"note_id" yaml:"note_id"`
	Title       string    `json:"title" yaml:"title"`
	Content     string    `json:"content" yaml:"content"`
	Tags        string    `json:"tags" yaml:"tags"`
	Color       string    `json:"color" yaml:"color"`
	Priority    string    `json:"priority" yaml:"priority"`
	Pinned      bool      `json:"pinned" yaml:"pinned"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
	Attachments []string  `json:"attachments,omitempty" yaml:"attachments,omitempty"`
}

// viewOf reports the id as stored so repeated runs agree on it.
func viewOf(e notes.Entry) noteView {
	return noteView{
		ID:          e.StoredID(),
		Title:       e.Note.Title,
		Content:     e.Note.Content,
		Tags:        e.Note.Tags,
		Color:       e.Color(),
		Priority:    e.Note.Priority.String(),
		Pinned:      e.Note.Pinned,
		UpdatedAt:   e.Note.UpdatedAt,
		Attachments: e.Note.Attachments,
	}
}

func addOutputFlag(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, "output", "o", outputText, "output format: text, json or yaml")
}

func checkOutput(output string) error {
	switch output {
	case outputText, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("invalid output %q, choose text, json or yaml", output)
}

func newListCommand(rt *runtime) *cobra.Command {
	var (
		limit  int
		output string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recently updated notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			if limit < 0 {
				return errors.New("--limit must not be negative")
			}

			ctrl := rt.context(cmd.ErrOrStderr()).Controller()
			if err := ctrl.Load(); err != nil {
				return err
			}

			entries := ctrl.Entries()
			sort.SliceStable(entries, func(i, j int) bool {
				return entries[i].Note.UpdatedAt.After(entries[j].Note.UpdatedAt)
			})
			total := len(entries)
			entries = entries[:min(limit, total)]

			out := cmd.OutOrStdout()
			if output == outputText {
				fmt.Fprintf(out, "Found %d notes (showing last %d):\n\n", total, limit)
				for i, e := range entries {
					tags := e.Note.Tags
					if tags == "" {
						tags = "(none)"
					}
					fmt.Fprintf(out, "[%d] %s\n", i+1, e.Note.Title)
					fmt.Fprintf(out, "    Color: %s | Tags: %s\n", e.Color(), tags)
					fmt.Fprintf(out, "    Content: %s\n\n", excerpt(e.Note.Content, 80))
				}
				return nil
			}
			return writeViews(out, output, entries)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of notes to show")
	addOutputFlag(cmd, &output)
	return cmd
}

func newSearchCommand(rt *runtime) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search titles, content and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			keyword := strings.TrimSpace(args[0])
			if keyword == "" {
				return errors.New("keyword must not be empty")
			}

			ctrl := rt.context(cmd.ErrOrStderr()).Controller()
			if err := ctrl.Load(); err != nil {
				return err
			}

			res := ctrl.Search(keyword)
			entries := make([]notes.Entry, 0, len(res.Matches))
			for _, n := range res.Matches {
				if e, ok := ctrl.Find(n.ID); ok {
					entries = append(entries, e)
				}
			}

			out := cmd.OutOrStdout()
			if output == outputText {
				fmt.Fprintf(out, "Found %d notes matching '%s':\n\n", len(entries), keyword)
				for _, e := range entries {
					fmt.Fprintf(out, "- %s\n", e.Note.Title)
					fmt.Fprintf(out, "  %s\n\n", excerpt(e.Note.Content, 100))
				}
				return nil
			}
			return writeViews(out, output, entries)
		},
	}

	addOutputFlag(cmd, &output)
	return cmd
}

func writeViews(w io.Writer, output string, entries []notes.Entry) error {
	views := make([]noteView, len(entries))
	for i, e := range entries {
		views[i] = viewOf(e)
	}

	switch output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(views); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	return nil
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
