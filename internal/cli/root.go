// Package cli is the stickynotes command line: the board UI by default and
// line-mode subcommands for scripts.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"stickynotes/internal/appctx"
	"stickynotes/internal/config"
	"stickynotes/internal/logging"
	"stickynotes/internal/ui/app"
)

// runtime is the state shared by one command invocation.
type runtime struct {
	v       *viper.Viper
	verbose bool

	settings config.Settings
	paths    config.Paths

	now         func() time.Time
	interactive func() bool
	prompt      prompter
}

func newRuntime() *runtime {
	return &runtime{
		v:   config.NewViper(),
		now: time.Now,
		interactive: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
		prompt: surveyPrompter{},
	}
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(newRuntime())
}

func newRootCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stickynotes",
		Short: "Sticky notes for the terminal",
		Long: `A board of sticky notes stored as JSON in your data directory.

Run without arguments to open the board. Subcommands add, list and search
notes without opening it.

Examples:
  stickynotes
  stickynotes add -t "Groceries" -c "milk, eggs" --tags home
  stickynotes list -n 5 --output json
  stickynotes search groceries`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.runBoard()
		},
	}

	cmd.PersistentFlags().String("data-dir", "", "directory holding notes.json, backups and attachments")
	cmd.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "log to stderr at the configured level")
	_ = rt.v.BindPFlag("data_dir", cmd.PersistentFlags().Lookup("data-dir"))

	cmd.AddCommand(newAddCommand(rt))
	cmd.AddCommand(newListCommand(rt))
	cmd.AddCommand(newSearchCommand(rt))

	return cmd
}

func (rt *runtime) load() error {
	settings, err := config.Load(rt.v)
	if err != nil {
		return err
	}
	paths, err := config.ResolvePaths(settings.DataDir)
	if err != nil {
		return err
	}
	rt.settings = settings
	rt.paths = paths
	return nil
}

// lineLogger logs to w with the console writer. Without --verbose only
// warnings and errors get through.
func (rt *runtime) lineLogger(w io.Writer) zerolog.Logger {
	level := zerolog.WarnLevel.String()
	if rt.verbose {
		level = rt.settings.LogLevel
	}
	return logging.New(w, level, true)
}

// context wires storage for a line-mode command.
func (rt *runtime) context(w io.Writer) *appctx.Context {
	return appctx.New(rt.paths, rt.settings, rt.lineLogger(w))
}

// runBoard opens the interactive board. It owns the terminal, so it logs
// to the log file in the data directory.
func (rt *runtime) runBoard() error {
	log, closer, err := logging.OpenFile(rt.paths.Log, rt.settings.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := appctx.New(rt.paths, rt.settings, log)
	log.Info().Str("root", rt.paths.Root).Msg("board starting")

	p := tea.NewProgram(app.NewModel(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("board stopped")
		return fmt.Errorf("run app: %w", err)
	}
	log.Info().Msg("board closed")
	return nil
}
