// Package backlog reads and durably updates the prompt backlog file.
//
// Two on-disk shapes are supported. Plain text backlogs ("sequence" form)
// hold only undelivered prompts, one per line with an optional "N→" index;
// delivering a prompt removes its line, renumbers the rest and appends the
// formatted prompt to a sibling "<name>.processed<ext>" log. CSV backlogs
// ("tabular" form) keep every row and flip the first column from false to
// true in place.
package backlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"prompt-feeder/internal/model"
	"prompt-feeder/internal/runstore"
)

type Kind string

const (
	KindSequence Kind = "sequence"
	KindTabular  Kind = "tabular"
)

// format is one persistence strategy. It works on whole-file bytes so the
// store owns every read and write.
type format interface {
	kind() Kind
	pending(data []byte) ([]string, error)
	markDelivered(data []byte, prompt string) ([]byte, bool, error)
	deliveredCount(data []byte) (int, error)
}

type Options struct {
	// Format renders a prompt the way it was delivered; used for delivered-log lines.
	Format func(prompt string) string
	Logger *zap.Logger
}

type Store struct {
	path         string
	logPath      string
	format       format
	formatPrompt func(string) string
	logger       *zap.Logger
}

type Stats struct {
	Path         string `json:"path"`
	Kind         Kind   `json:"kind"`
	Pending      int    `json:"pending"`
	Delivered    int    `json:"delivered"`
	Next         string `json:"next,omitempty"`
	DeliveredLog string `json:"delivered_log,omitempty"`
}

// KindFor picks the persistence strategy from the file extension.
func KindFor(path string) Kind {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return KindTabular
	}
	return KindSequence
}

// DeliveredLogPath derives "<dir>/<name>.processed<ext>" from a backlog path.
func DeliveredLogPath(path string) string {
	ext := filepath.Ext(path)
	name := strings.TrimSuffix(filepath.Base(path), ext)
	return filepath.Join(filepath.Dir(path), name+".processed"+ext)
}

// Open binds a store to path. The file is not touched until Load or Commit.
func Open(path string, opts Options) *Store {
	s := &Store{
		path:         path,
		formatPrompt: opts.Format,
		logger:       opts.Logger,
	}
	if s.formatPrompt == nil {
		s.formatPrompt = func(p string) string { return p }
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	switch KindFor(path) {
	case KindTabular:
		s.format = tabularFormat{}
	default:
		s.format = sequenceFormat{}
		s.logPath = DeliveredLogPath(path)
	}
	return s
}

func (s *Store) Path() string { return s.path }

func (s *Store) Kind() Kind { return s.format.kind() }

// DeliveredLogPath is empty for tabular backlogs, which keep history in place.
func (s *Store) DeliveredLogPath() string { return s.logPath }

// Load returns pending prompt texts in file order. It re-reads the file on
// every call so edits made between iterations are picked up.
func (s *Store) Load() ([]string, error) {
	data, err := s.read()
	if err != nil {
		return nil, err
	}
	prompts, err := s.format.pending(data)
	if err != nil {
		return nil, fmt.Errorf("parse backlog %s: %w", s.path, err)
	}
	return prompts, nil
}

// Commit marks the first pending record matching prompt as delivered. It
// returns false with a nil error when nothing matches, and false with a
// *model.CommitError when storage fails.
func (s *Store) Commit(prompt string) (bool, error) {
	data, err := s.read()
	if err != nil {
		return false, &model.CommitError{Path: s.path, Err: err}
	}
	updated, ok, err := s.format.markDelivered(data, prompt)
	if err != nil {
		return false, &model.CommitError{Path: s.path, Err: err}
	}
	if !ok {
		s.logger.Debug("no pending record matched", zap.String("backlog", s.path))
		return false, nil
	}

	if s.logPath != "" {
		if err := runstore.AppendLine(s.logPath, s.formatPrompt(prompt)); err != nil {
			return false, &model.CommitError{Path: s.logPath, Err: err}
		}
	}
	if err := runstore.WriteBytes(s.path, updated); err != nil {
		return false, &model.CommitError{Path: s.path, Err: err}
	}
	s.logger.Debug("committed delivery",
		zap.String("backlog", s.path),
		zap.String("kind", string(s.format.kind())),
	)
	return true, nil
}

func (s *Store) Stats() (Stats, error) {
	data, err := s.read()
	if err != nil {
		return Stats{}, err
	}
	pending, err := s.format.pending(data)
	if err != nil {
		return Stats{}, fmt.Errorf("parse backlog %s: %w", s.path, err)
	}
	st := Stats{
		Path:         s.path,
		Kind:         s.format.kind(),
		Pending:      len(pending),
		DeliveredLog: s.logPath,
	}
	if len(pending) > 0 {
		st.Next = pending[0]
	}
	if s.logPath != "" {
		st.Delivered, err = runstore.CountLines(s.logPath)
	} else {
		st.Delivered, err = s.format.deliveredCount(data)
	}
	if err != nil {
		return Stats{}, err
	}
	return st, nil
}

func (s *Store) read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", model.ErrBacklogNotFound, s.path)
		}
		return nil, fmt.Errorf("read backlog %s: %w", s.path, err)
	}
	return data, nil
}
