package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"stickynotes/internal/notes"
	"stickynotes/internal/storage/fs"
)

type addOptions struct {
	title       string
	content     string
	tags        string
	color       string
	priority    int
	pinned      bool
	sessionNote bool
	sessionID   string
	machine     string
	project     string
}

type sessionContext struct {
	Machine     string `json:"machine"`
	Project     string `json:"project"`
	CreatedDate string `json:"created_date"`
}

func newAddCommand(rt *runtime) *cobra.Command {
	var opts addOptions

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a note",
		Long: `Add a note without opening the board.

Missing --title or --content are asked for when stdin is a terminal.
Session notes record the machine, project and date they were written on.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.complete(rt); err != nil {
				return err
			}
			rec, err := opts.record(rt)
			if err != nil {
				return err
			}

			store := rt.context(cmd.ErrOrStderr()).Store
			records, err := store.Load()
			if err != nil {
				return err
			}
			if err := store.Save(append(records, rec)); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added note: %s\n", rec.Note.Title)
			fmt.Fprintf(out, "Note ID: %s\n", rec.Note.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "note title")
	cmd.Flags().StringVarP(&opts.content, "content", "c", "", "note content")
	cmd.Flags().StringVar(&opts.tags, "tags", "", "comma-separated tags")
	cmd.Flags().StringVar(&opts.color, "color", "yellow", "note color: "+strings.Join(colorNames(), ", "))
	cmd.Flags().IntVar(&opts.priority, "priority", 0, "priority 0 (trivial) to 4 (critical)")
	cmd.Flags().BoolVar(&opts.pinned, "pinned", false, "pin the note")
	cmd.Flags().BoolVar(&opts.sessionNote, "session-note", false, "mark as a session summary note")
	cmd.Flags().StringVar(&opts.sessionID, "session-id", "", "session id (generated for session notes)")
	cmd.Flags().StringVar(&opts.machine, "machine", defaultMachine(), "machine name for session notes")
	cmd.Flags().StringVar(&opts.project, "project", "unknown", "project name for session notes")

	return cmd
}

func colorNames() []string {
	names := make([]string, 0, len(notes.NamedColors))
	for name := range notes.NamedColors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func defaultMachine() string {
	if v := os.Getenv("COMPUTERNAME"); v != "" {
		return v
	}
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "unknown"
}

// complete validates flags and prompts for missing text fields.
func (o *addOptions) complete(rt *runtime) error {
	o.color = strings.ToLower(o.color)
	if !slices.Contains(colorNames(), o.color) {
		return fmt.Errorf("invalid color %q, choose one of %s", o.color, strings.Join(colorNames(), ", "))
	}
	if o.priority < int(fs.PriorityTrivial) || o.priority > int(fs.PriorityCritical) {
		return fmt.Errorf("invalid priority %d, must be 0-4", o.priority)
	}

	if strings.TrimSpace(o.title) != "" && strings.TrimSpace(o.content) != "" {
		return nil
	}
	if !rt.interactive() {
		return errors.New("--title and --content are required when stdin is not a terminal")
	}

	var err error
	if strings.TrimSpace(o.title) == "" {
		if o.title, err = rt.prompt.Title(); err != nil {
			return fmt.Errorf("prompt title: %w", err)
		}
	}
	if strings.TrimSpace(o.content) == "" {
		if o.content, err = rt.prompt.Content(); err != nil {
			return fmt.Errorf("prompt content: %w", err)
		}
	}
	return nil
}

func (o *addOptions) record(rt *runtime) (fs.Record, error) {
	now := rt.now()
	n := fs.NewNote(o.title, o.content, now)
	n.Tags = o.tags
	n.Priority = fs.Priority(o.priority)
	n.Pinned = o.pinned

	rec := fs.Record{Note: n, Color: o.color}

	if o.sessionNote {
		if o.sessionID == "" {
			o.sessionID = uuid.NewString()
		}
		if n.Tags == "" {
			rec.Note.Tags = "session-summary," + o.project
		}
		ctx, err := json.Marshal(sessionContext{
			Machine:     o.machine,
			Project:     o.project,
			CreatedDate: now.Format("2006-01-02"),
		})
		if err != nil {
			return fs.Record{}, fmt.Errorf("encode session context: %w", err)
		}
		rec.Extra = map[string]json.RawMessage{"session_context": ctx}
	}

	if o.sessionID != "" {
		id, err := json.Marshal(o.sessionID)
		if err != nil {
			return fs.Record{}, fmt.Errorf("encode session id: %w", err)
		}
		if rec.Extra == nil {
			rec.Extra = map[string]json.RawMessage{}
		}
		rec.Extra["session_id"] = id
	}

	return rec, nil
}
