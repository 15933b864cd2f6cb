// Package state persists State Records and the global desired-target record.
//
// Every write replaces its file atomically (temp file + rename in the same
// directory) so readers never observe a partial record and never lock.
// Writers serialize read-modify-write cycles with an advisory file lock and
// bump a per-file version counter on every write.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mj1618/navsync/internal/model"
	"go.uber.org/zap"
)

// ErrNotFound is returned for missing and malformed records alike; both
// mean "no state yet".
var ErrNotFound = errors.New("state: record not found")

const (
	globalFile   = "active_target.json"
	recordPrefix = "win_"
	recordSuffix = ".json"
)

// Store is a directory of JSON records, one per application plus one global.
type Store struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.logger = l } }

// WithClock overrides time.Now for record timestamps.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// New opens (creating if needed) a store rooted at dir.
func New(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	s := &Store{dir: dir, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// RecordPath returns the file holding bundleID's State Record.
func (s *Store) RecordPath(bundleID string) string {
	return filepath.Join(s.dir, recordPrefix+bundleID+recordSuffix)
}

// GlobalPath returns the file holding the global record.
func (s *Store) GlobalPath() string {
	return filepath.Join(s.dir, globalFile)
}

// Publish atomically replaces the State Record for key. The stored version
// is one more than the previous record's; the returned record reflects what
// was written.
func (s *Store) Publish(key string, rec model.StateRecord) (model.StateRecord, error) {
	if key == "" {
		return rec, errors.New("state: empty record key")
	}
	path := s.RecordPath(key)
	err := withLock(path, func() error {
		var prev model.StateRecord
		if err := readJSON(path, &prev); err == nil {
			rec.Version = prev.Version + 1
		} else {
			rec.Version = 1
		}
		if rec.BundleID == "" {
			rec.BundleID = key
		}
		if rec.Timestamp.IsZero() {
			rec.Timestamp = s.now()
		}
		return writeJSON(path, rec)
	})
	if err != nil {
		return rec, fmt.Errorf("publish %s: %w", key, err)
	}
	s.logger.Debug("state record published",
		zap.String("bundle_id", key),
		zap.String("target_ref", rec.ActiveTarget.TargetRef),
		zap.Uint64("version", rec.Version))
	return rec, nil
}

// Read returns the State Record for key, or ErrNotFound.
func (s *Store) Read(key string) (model.StateRecord, error) {
	var rec model.StateRecord
	if err := readJSON(s.RecordPath(key), &rec); err != nil {
		return model.StateRecord{}, err
	}
	return rec, nil
}

// PublishGlobal atomically replaces the global record, last write wins.
func (s *Store) PublishGlobal(rec model.GlobalRecord) (model.GlobalRecord, error) {
	return s.UpdateGlobal(func(g *model.GlobalRecord) error {
		version := g.Version
		*g = rec
		g.Version = version
		return nil
	})
}

// ReadGlobal returns the global record, or ErrNotFound.
func (s *Store) ReadGlobal() (model.GlobalRecord, error) {
	var rec model.GlobalRecord
	if err := readJSON(s.GlobalPath(), &rec); err != nil {
		return model.GlobalRecord{}, err
	}
	return rec, nil
}

// UpdateGlobal applies fn to the current global record (zero if absent) and
// writes the result with an incremented version. Concurrent updaters are
// serialized by a lock file.
func (s *Store) UpdateGlobal(fn func(*model.GlobalRecord) error) (model.GlobalRecord, error) {
	path := s.GlobalPath()
	var out model.GlobalRecord
	err := withLock(path, func() error {
		var cur model.GlobalRecord
		_ = readJSON(path, &cur)
		version := cur.Version
		if err := fn(&cur); err != nil {
			return err
		}
		cur.Version = version + 1
		cur.Timestamp = s.now()
		out = cur
		return writeJSON(path, cur)
	})
	if err != nil {
		return out, fmt.Errorf("update global record: %w", err)
	}
	return out, nil
}

// SetActiveBundle points every classifier at bundleID.
func (s *Store) SetActiveBundle(bundleID, source string) (model.GlobalRecord, error) {
	return s.UpdateGlobal(func(g *model.GlobalRecord) error {
		g.ActiveBundleID = bundleID
		g.Source = source
		g.Status = model.StatusActive
		g.Refresh = false
		g.RefreshReason = ""
		return nil
	})
}

// RequestRefresh asks the classifier to re-focus and re-scan.
func (s *Store) RequestRefresh(reason, source string) (model.GlobalRecord, error) {
	return s.UpdateGlobal(func(g *model.GlobalRecord) error {
		g.Refresh = true
		g.RefreshReason = reason
		g.Source = source
		return nil
	})
}

// ClearRefresh acknowledges a refresh request.
func (s *Store) ClearRefresh(source string) (model.GlobalRecord, error) {
	return s.UpdateGlobal(func(g *model.GlobalRecord) error {
		g.Refresh = false
		g.RefreshReason = ""
		g.Source = source
		return nil
	})
}

// SetStatus records the monitored application's run status.
func (s *Store) SetStatus(status, source string) (model.GlobalRecord, error) {
	return s.UpdateGlobal(func(g *model.GlobalRecord) error {
		g.Status = status
		g.Source = source
		return nil
	})
}

// Keys lists the bundle ids that have a State Record.
func (s *Store) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list state dir: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, recordPrefix) || !strings.HasSuffix(name, recordSuffix) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(strings.TrimPrefix(name, recordPrefix), recordSuffix))
	}
	return keys, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: malformed %s: %v", ErrNotFound, filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return AtomicWrite(path, data, 0o644)
}
