// Package appctx wires the shared application state once at startup.
package appctx

import (
	"github.com/rs/zerolog"

	"stickynotes/internal/attachment"
	"stickynotes/internal/config"
	"stickynotes/internal/notes"
	"stickynotes/internal/storage/fs"
)

// Context is passed to every component that needs storage, settings or a
// logger. There is no global instance.
type Context struct {
	Paths       config.Paths
	Settings    config.Settings
	Store       *fs.Store
	Attachments *attachment.Manager
	Log         zerolog.Logger
}

// New builds the store and attachment manager on an already resolved data
// directory.
func New(paths config.Paths, settings config.Settings, log zerolog.Logger) *Context {
	return &Context{
		Paths:    paths,
		Settings: settings,
		Store: fs.NewStore(paths,
			fs.WithMaxBackups(settings.MaxBackups),
			fs.WithLogger(log.With().Str("component", "store").Logger()),
		),
		Attachments: attachment.NewManager(paths.Attachments,
			attachment.WithLogger(log.With().Str("component", "attachments").Logger()),
		),
		Log: log,
	}
}

// Controller builds the note controller on the context's store.
func (c *Context) Controller() *notes.Controller {
	return notes.NewController(c.Store, c.Attachments,
		notes.WithLogger(c.Log.With().Str("component", "notes").Logger()),
	)
}
