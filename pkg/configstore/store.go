// Package configstore provides the configuration collaborator used by the
// harness: named records of string properties, fetched or created on
// demand and optionally persisted as one YAML file per record.
package configstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"rigctl/pkg/logging"

	"gopkg.in/yaml.v3"
)

// ErrConfigIO marks failures to read or write persistent configuration.
// Callers match it with errors.Is.
var ErrConfigIO = errors.New("configuration storage failure")

// IOError wraps an underlying storage error with the record it concerns.
type IOError struct {
	ID  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("configuration record %q: %v", e.ID, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrConfigIO) succeed for any IOError.
func (e *IOError) Is(target error) bool { return target == ErrConfigIO }

// Store manages configuration records. A store without a directory keeps
// records in memory only.
type Store struct {
	mu      sync.Mutex
	dir     string
	records map[string]*Record
}

// New creates an in-memory store.
func New() *Store {
	return &Store{records: make(map[string]*Record)}
}

// NewWithDir creates a store that persists each record as a YAML file
// under dir, creating the directory if needed.
func NewWithDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &IOError{ID: "", Err: fmt.Errorf("creating configuration directory %s: %w", dir, err)}
	}
	return &Store{dir: dir, records: make(map[string]*Record)}, nil
}

// FetchOrCreate returns the record with the given id, loading it from disk
// if the store is persistent and a file exists, or creating an empty
// record otherwise. It never returns a nil record without an error.
func (s *Store) FetchOrCreate(id string) (*Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if record, exists := s.records[id]; exists {
		return record, nil
	}

	record := &Record{store: s, id: id, properties: make(map[string]string)}

	if s.dir != "" {
		path := s.recordPath(id)
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			var onDisk recordFile
			if err := yaml.Unmarshal(data, &onDisk); err != nil {
				return nil, &IOError{ID: id, Err: fmt.Errorf("parsing %s: %w", path, err)}
			}
			if onDisk.Properties != nil {
				record.properties = onDisk.Properties
			}
		case os.IsNotExist(err):
			// New record; written on first Update.
		default:
			return nil, &IOError{ID: id, Err: err}
		}
	}

	s.records[id] = record
	return record, nil
}

// Delete removes a record from the store and, for persistent stores, from
// disk. Deleting an unknown record is a no-op.
func (s *Store) Delete(id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	if s.dir != "" {
		if err := os.Remove(s.recordPath(id)); err != nil && !os.IsNotExist(err) {
			return &IOError{ID: id, Err: err}
		}
	}
	return nil
}

// List returns the ids of all records the store currently holds.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	return ids
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.dir, sanitizeID(id)+".yaml")
}

// recordFile is the on-disk YAML layout of a record.
type recordFile struct {
	ID         string            `yaml:"id"`
	Properties map[string]string `yaml:"properties"`
}

// Record is a single configuration record identified by id.
type Record struct {
	store      *Store
	id         string
	mu         sync.Mutex
	properties map[string]string
}

// ID returns the record id.
func (r *Record) ID() string { return r.id }

// Properties returns a copy of the record's current properties.
func (r *Record) Properties() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	props := make(map[string]string, len(r.properties))
	for k, v := range r.properties {
		props[k] = v
	}
	return props
}

// Update replaces the record's properties and persists the record if the
// store is backed by a directory. The stored properties are a copy of the
// caller's map.
func (r *Record) Update(properties map[string]string) error {
	props := make(map[string]string, len(properties))
	for k, v := range properties {
		props[k] = v
	}

	r.mu.Lock()
	r.properties = props
	r.mu.Unlock()

	if r.store.dir != "" {
		data, err := yaml.Marshal(recordFile{ID: r.id, Properties: props})
		if err != nil {
			return &IOError{ID: r.id, Err: err}
		}
		path := r.store.recordPath(r.id)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return &IOError{ID: r.id, Err: err}
		}
		logging.Debug("ConfigStore", "Persisted record %s to %s", r.id, path)
	}

	return nil
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("record id must not be empty")
	}
	return nil
}

// sanitizeID maps a record id onto a safe file name.
func sanitizeID(id string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return replacer.Replace(id)
}
