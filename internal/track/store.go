// Package track provides the durable record of watched symbols. The Store is
// the sole writer of TrackedStock records and persists every mutation to a
// human-inspectable JSON file before reporting success.
package track

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "stock-sentry/internal/errors"
	"stock-sentry/internal/models"
)

// fileLayout is the on-disk shape. The file is meant to be hand-inspectable
// and tolerates being hand-edited or deleted outright.
type fileLayout struct {
	Stocks      []models.TrackedStock `json:"stocks"`
	LastUpdated time.Time             `json:"last_updated"`
	Count       int                   `json:"count"`
}

// Store is an insertion-ordered, mutex-guarded table of tracked symbols
// backed by a JSON file.
type Store struct {
	path   string
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	order []string
	items map[string]models.TrackedStock
}

// NewStore creates a Store persisting to path and rehydrates it from any
// existing file. A missing or unreadable file yields an empty store, never a
// startup failure.
func NewStore(path string, logger zerolog.Logger) *Store {
	s := &Store{
		path:   path,
		logger: logger.With().Str("component", "track").Logger(),
		now:    time.Now,
		items:  make(map[string]models.TrackedStock),
	}
	s.load()
	return s
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("Could not read tracked stocks file, starting empty")
		}
		return
	}

	var layout fileLayout
	if err := json.Unmarshal(data, &layout); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Corrupt tracked stocks file, starting empty")
		return
	}

	for _, ts := range layout.Stocks {
		symbol := models.NormalizeSymbol(ts.Symbol)
		if symbol == "" {
			continue
		}
		if _, exists := s.items[symbol]; !exists {
			s.order = append(s.order, symbol)
		}
		ts.Symbol = symbol
		s.items[symbol] = ts
	}

	s.logger.Info().Int("count", len(s.order)).Msg("Loaded tracked stocks")
}

// flushLocked writes the current state atomically (temp file + rename) so a
// crash mid-write never leaves a truncated file behind. Callers hold s.mu.
func (s *Store) flushLocked() error {
	layout := fileLayout{
		Stocks:      s.snapshotLocked(),
		LastUpdated: s.now(),
		Count:       len(s.order),
	}

	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return apperrors.NewPersistenceError("marshal", s.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return apperrors.NewPersistenceError("mkdir", s.path, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return apperrors.NewPersistenceError("write", s.path, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return apperrors.NewPersistenceError("rename", s.path, err)
	}
	return nil
}

func (s *Store) snapshotLocked() []models.TrackedStock {
	out := make([]models.TrackedStock, 0, len(s.order))
	for _, symbol := range s.order {
		out = append(out, s.items[symbol])
	}
	return out
}

// Add registers a symbol for monitoring. Re-adding an already-tracked symbol
// updates its target reference rather than duplicating the entry.
func (s *Store) Add(symbol, target string) (models.TrackedStock, error) {
	symbol = models.NormalizeSymbol(symbol)

	s.mu.Lock()
	defer s.mu.Unlock()

	ts, exists := s.items[symbol]
	if exists {
		ts.Target = target
	} else {
		ts = models.TrackedStock{
			Symbol:  symbol,
			Target:  target,
			AddedAt: s.now(),
		}
		s.order = append(s.order, symbol)
	}
	s.items[symbol] = ts

	if err := s.flushLocked(); err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to persist tracked stocks")
		return ts, err
	}
	return ts, nil
}

// Remove deregisters a symbol. It returns false when the symbol was not
// tracked.
func (s *Store) Remove(symbol string) (bool, error) {
	symbol = models.NormalizeSymbol(symbol)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[symbol]; !exists {
		return false, nil
	}

	delete(s.items, symbol)
	for i, sym := range s.order {
		if sym == symbol {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	if err := s.flushLocked(); err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to persist tracked stocks")
		return true, err
	}
	return true, nil
}

// List returns all tracked stocks in insertion order.
func (s *Store) List() []models.TrackedStock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get returns the tracked record for symbol if present.
func (s *Store) Get(symbol string) (models.TrackedStock, bool) {
	symbol = models.NormalizeSymbol(symbol)

	s.mu.Lock()
	defer s.mu.Unlock()

	ts, ok := s.items[symbol]
	return ts, ok
}

// Count returns the number of tracked symbols.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// RecordObservation advances the last-known price and checked timestamp for
// one symbol. It is a no-op when the symbol was removed concurrently.
func (s *Store) RecordObservation(symbol string, price float64, checkedAt time.Time) error {
	symbol = models.NormalizeSymbol(symbol)

	s.mu.Lock()
	defer s.mu.Unlock()

	ts, exists := s.items[symbol]
	if !exists {
		return nil
	}

	ts.LastPrice = price
	ts.LastChecked = checkedAt
	s.items[symbol] = ts

	if err := s.flushLocked(); err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to persist observation")
		return err
	}
	return nil
}
