package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"time"

	"docforge/internal/document"
	"docforge/internal/fileutil"
	"docforge/internal/lockfile"
	"docforge/internal/logging"
	"docforge/internal/services"
)

// LockName is the named lock guarding every status file access, reads
// included, so no process observes a half-written file.
const LockName = "status"

// Store persists all document records in a single JSON file replaced
// atomically on every write. It is safe for use from multiple OS processes as
// long as they share the same lock directory.
type Store struct {
	path   string
	locks  *lockfile.Manager
	logger *slog.Logger
}

// NewStore constructs a status store over the given file path.
func NewStore(path string, locks *lockfile.Manager, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("status file path is required")
	}
	if locks == nil {
		return nil, errors.New("lock manager is required")
	}
	return &Store{
		path:   path,
		locks:  locks,
		logger: logging.NewComponentLogger(logger, "status"),
	}, nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// GetAll returns every known record keyed by document ID.
func (s *Store) GetAll(ctx context.Context) (map[string]*document.Record, error) {
	var records map[string]*document.Record
	err := s.locks.WithLock(ctx, LockName, func() error {
		raw := s.readRaw()
		records = make(map[string]*document.Record, len(raw))
		for id, obj := range raw {
			rec, err := document.FromRaw(obj)
			if err != nil {
				s.logger.Warn("skipping undecodable record",
					logging.String(logging.FieldDocumentID, id),
					logging.Error(err))
				continue
			}
			records[id] = rec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Get returns a single record. The boolean reports whether it exists.
func (s *Store) Get(ctx context.Context, id string) (*document.Record, bool, error) {
	records, err := s.GetAll(ctx)
	if err != nil {
		return nil, false, err
	}
	rec, ok := records[id]
	return rec, ok, nil
}

// List returns all records ordered by most recent update first.
func (s *Store) List(ctx context.Context) ([]*document.Record, error) {
	records, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*document.Record, 0, len(records))
	for _, rec := range records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].LastUpdate, out[j].LastUpdate
		switch {
		case ti == nil && tj == nil:
			return out[i].ID < out[j].ID
		case ti == nil:
			return false
		case tj == nil:
			return true
		case ti.Equal(*tj):
			return out[i].ID < out[j].ID
		default:
			return ti.After(*tj)
		}
	})
	return out, nil
}

// MergeUpdate applies a shallow field-level overwrite to the record for id,
// creating the record if it does not exist. Fields not named in updates are
// left exactly as stored, which lets independent writers touch disjoint
// fields without clobbering each other.
func (s *Store) MergeUpdate(ctx context.Context, id string, updates map[string]any) (*document.Record, error) {
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, "status", "merge", "document id is required", nil)
	}
	var merged *document.Record
	err := s.locks.WithLock(ctx, LockName, func() error {
		raw := s.readRaw()
		obj, ok := raw[id]
		if !ok {
			obj = map[string]any{document.FieldID: id}
			raw[id] = obj
		}
		for key, value := range updates {
			obj[key] = value
		}
		obj[document.FieldLastUpdate] = time.Now().UTC()

		if err := s.writeRaw(raw); err != nil {
			return err
		}
		rec, err := document.FromRaw(obj)
		if err != nil {
			return fmt.Errorf("decode merged record: %w", err)
		}
		merged = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// Transition merges updates while enforcing the lifecycle state machine. The
// whole read-validate-write sequence runs under the status lock, so no other
// writer can interleave a conflicting transition.
func (s *Store) Transition(ctx context.Context, id string, to document.Status, updates map[string]any) (*document.Record, error) {
	var result *document.Record
	err := s.locks.WithLock(ctx, LockName, func() error {
		raw := s.readRaw()
		obj, ok := raw[id]
		if !ok {
			return services.Wrap(services.ErrNotFound, "status", "transition", "unknown document "+id, nil)
		}
		current, err := document.FromRaw(obj)
		if err != nil {
			return fmt.Errorf("decode record %s: %w", id, err)
		}
		// Re-applying the current status is allowed so retried finalizations
		// stay idempotent.
		if current.Status != to && !document.CanTransition(current.Status, to) {
			return services.Wrap(services.ErrValidation, "status", "transition",
				fmt.Sprintf("illegal transition %s -> %s for document %s", current.Status, to, id), nil)
		}

		for key, value := range updates {
			obj[key] = value
		}
		obj[document.FieldStatus] = to
		obj[document.FieldLastUpdate] = time.Now().UTC()

		if err := s.writeRaw(raw); err != nil {
			return err
		}
		rec, err := document.FromRaw(obj)
		if err != nil {
			return fmt.Errorf("decode transitioned record: %w", err)
		}
		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Remove deletes records by ID, reporting how many existed.
func (s *Store) Remove(ctx context.Context, ids ...string) (int, error) {
	removed := 0
	err := s.locks.WithLock(ctx, LockName, func() error {
		raw := s.readRaw()
		for _, id := range ids {
			if _, ok := raw[id]; ok {
				delete(raw, id)
				removed++
			}
		}
		if removed == 0 {
			return nil
		}
		return s.writeRaw(raw)
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// ClearStatuses deletes every record currently in one of the given statuses.
// With no statuses it clears everything.
func (s *Store) ClearStatuses(ctx context.Context, statuses ...document.Status) (int, error) {
	match := make(map[document.Status]struct{}, len(statuses))
	for _, status := range statuses {
		match[status] = struct{}{}
	}
	removed := 0
	err := s.locks.WithLock(ctx, LockName, func() error {
		raw := s.readRaw()
		for id, obj := range raw {
			if len(match) > 0 {
				rec, err := document.FromRaw(obj)
				if err != nil {
					continue
				}
				if _, ok := match[rec.Status]; !ok {
					continue
				}
			}
			delete(raw, id)
			removed++
		}
		if removed == 0 {
			return nil
		}
		return s.writeRaw(raw)
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// readRaw loads the backing file. A missing file is an empty store; so is an
// unparsable one, which keeps a corrupted file from wedging every process
// that shares it. The next successful write rebuilds valid content.
func (s *Store) readRaw() map[string]map[string]any {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("status file unreadable, treating as empty", logging.Error(err))
		}
		return make(map[string]map[string]any)
	}
	if len(data) == 0 {
		return make(map[string]map[string]any)
	}
	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("status file corrupt, treating as empty",
			logging.String("path", s.path),
			logging.Error(err))
		return make(map[string]map[string]any)
	}
	if raw == nil {
		raw = make(map[string]map[string]any)
	}
	return raw
}

func (s *Store) writeRaw(raw map[string]map[string]any) error {
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrPersistence, "status", "encode", "", err)
	}
	if err := fileutil.WriteAtomic(s.path, data, 0o644); err != nil {
		return services.Wrap(services.ErrPersistence, "status", "write", s.path, err)
	}
	return nil
}
