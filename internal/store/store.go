// Package store persists rumor registry snapshots as a JSON array at a
// fixed path. Writes replace the whole document through a temp-file rename
// so a crash mid-write never leaves a torn file behind.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"rumormill/internal/logging"
	"rumormill/internal/rumor"
)

// FileStore reads and writes the rumor snapshot file.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates a store backed by the JSON document at path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logging.NewComponentLogger(logger, "store"),
	}
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string {
	return s.path
}

// Save overwrites the snapshot with the given list. A nil list is stored as
// an empty array.
func (s *FileStore) Save(_ context.Context, rumors []rumor.Rumor) error {
	if rumors == nil {
		rumors = []rumor.Rumor{}
	}
	data, err := json.MarshalIndent(rumors, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w: %w", rumor.ErrStorage, err)
	}
	data = append(data, '\n')

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w: %w", rumor.ErrStorage, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace snapshot: %w: %w", rumor.ErrStorage, err)
	}
	return nil
}

// Load reads the snapshot, supplying defaults for fields absent from older
// documents. A missing file is replaced with an empty store; an unreadable
// or undecodable one surfaces as ErrStorage so the caller can degrade to an
// empty registry without crashing.
func (s *FileStore) Load(ctx context.Context) ([]rumor.Rumor, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := s.ensureParent(); err != nil {
				return nil, err
			}
			if err := s.Save(ctx, nil); err != nil {
				return nil, err
			}
			s.logger.Info("created empty rumor store", logging.String("path", s.path))
			return []rumor.Rumor{}, nil
		}
		return nil, fmt.Errorf("read snapshot: %w: %w", rumor.ErrStorage, err)
	}

	var raw []storedRumor
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w: %w", rumor.ErrStorage, err)
	}

	rumors := make([]rumor.Rumor, 0, len(raw))
	for _, entry := range raw {
		rumors = append(rumors, entry.toRumor())
	}
	return rumors, nil
}

func (s *FileStore) ensureParent() error {
	dir := filepath.Dir(s.path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store directory: %w: %w", rumor.ErrStorage, err)
	}
	return nil
}

// storedRumor mirrors the wire shape with pointer fields so documents from
// older firmware revisions pick up defaults instead of zero values.
type storedRumor struct {
	ID           *int64  `json:"id"`
	Title        *string `json:"title"`
	TextNL       *string `json:"text_nl"`
	TextEN       *string `json:"text_en"`
	People       *string `json:"people"`
	Active       *bool   `json:"active"`
	MaxPrints    *int    `json:"max_prints"`
	PrintedCount *int    `json:"printed_count"`
}

func (sr storedRumor) toRumor() rumor.Rumor {
	out := rumor.Rumor{
		Active:    true,
		MaxPrints: rumor.DefaultMaxPrints,
	}
	if sr.ID != nil {
		out.ID = *sr.ID
	}
	if sr.Title != nil {
		out.Title = *sr.Title
	}
	if sr.TextNL != nil {
		out.TextNL = *sr.TextNL
	}
	if sr.TextEN != nil {
		out.TextEN = *sr.TextEN
	}
	if sr.People != nil {
		out.People = *sr.People
	}
	if sr.Active != nil {
		out.Active = *sr.Active
	}
	if sr.MaxPrints != nil {
		out.MaxPrints = *sr.MaxPrints
	}
	if sr.PrintedCount != nil {
		out.PrintedCount = *sr.PrintedCount
	}
	return out
}
