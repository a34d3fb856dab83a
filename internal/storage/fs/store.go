package fs

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stickynotes/internal/config"
)

type Store struct {
	path       string
	backupDir  string
	maxBackups int
	now        func() time.Time
	log        zerolog.Logger

	// mu serializes Save so backup+rotate+write sequences never interleave.
	mu sync.Mutex
}

type Option func(*Store)

// WithMaxBackups sets how many backups survive rotation.
func WithMaxBackups(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxBackups = n
		}
	}
}

// WithClock replaces time.Now for backup names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

func NewStore(paths config.Paths, opts ...Option) *Store {
	s := &Store{
		path:       paths.Notes,
		backupDir:  paths.Backups,
		maxBackups: config.DefaultMaxBackups,
		now:        time.Now,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path is the notes document location, fixed for the life of the store.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted records in file order. A missing document is a
// first run and yields no records and no error. A corrupt document yields no
// records and an error wrapping ErrCorrupt; the file is left as it is.
func (s *Store) Load() ([]Record, error) {
	records, err := ReadDocument(s.path)
	if err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("load notes")
		return []Record{}, err
	}
	if records == nil {
		records = []Record{}
	}
	s.log.Debug().Int("count", len(records)).Msg("notes loaded")
	return records, nil
}

// Save backs up the current document, rotates old backups and writes records
// in their given order.
func (s *Store) Save(records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backup(); err != nil {
		s.log.Error().Err(err).Msg("backup notes")
		return fmt.Errorf("save notes: %w", err)
	}

	if err := WriteDocument(s.path, records); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("save notes")
		return fmt.Errorf("save notes: %w", err)
	}

	s.log.Debug().Int("count", len(records)).Msg("notes saved")
	return nil
}

func (s *Store) exists() (bool, error) {
	_, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat notes %q: %w", s.path, err)
	}
	return true, nil
}
