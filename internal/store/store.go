package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Collections used by the application. The store itself accepts any
// alphanumeric collection name; these are the two the handlers use.
const (
	CollectionUsers  = "users"
	CollectionTokens = "tokens"
)

var (
	// ErrAlreadyExists is returned by Create when a record with the same
	// (collection, id) is already present.
	ErrAlreadyExists = errors.New("store: record already exists")
	// ErrNotFound is returned when no record exists for the given key.
	ErrNotFound = errors.New("store: record not found")
	// ErrCorruptRecord is returned by Read when the stored bytes do not
	// parse as JSON.
	ErrCorruptRecord = errors.New("store: corrupt record")
	// ErrInvalidKey is returned when a collection or id contains anything
	// other than ASCII letters and digits.
	ErrInvalidKey = errors.New("store: invalid collection or id")
)

// Store persists one JSON file per record under baseDir/<collection>/<id>.json.
// Writes to the same key are serialized by an in-process per-key mutex, and
// Update goes through a temp file plus atomic rename, so concurrent readers
// never observe a partially written record.
type Store struct {
	baseDir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Store rooted at baseDir, creating the directory if needed.
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}, nil
}

// keyLock returns the mutex guarding a single (collection, id) pair,
// creating it on first use. Lock entries are never removed; the key space
// is bounded by the number of distinct records.
func (s *Store) keyLock(collection, id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := collection + "/" + id
	l, ok := s.locks[k]
	if !ok {
		l = &sync.Mutex{}
		s.locks[k] = l
	}
	return l
}

// validKey permits only ASCII letters and digits. Ids are concatenated into
// filesystem paths, so anything else (separators, dots, empty strings) is
// rejected before it can traverse outside the data directory.
func validKey(k string) bool {
	if k == "" {
		return false
	}
	for _, c := range k {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

func (s *Store) checkKey(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validKey(collection) || !validKey(id) {
		return fmt.Errorf("%w: %q/%q", ErrInvalidKey, collection, id)
	}
	return nil
}

func (s *Store) recordPath(collection, id string) string {
	return filepath.Join(s.baseDir, collection, id+".json")
}

// Create serializes v and writes it as a new record. The file is opened with
// O_EXCL so two concurrent creates for the same key race at the filesystem
// primitive: exactly one succeeds, the other gets ErrAlreadyExists. The
// existing record is never touched.
func (s *Store) Create(ctx context.Context, collection, id string, v any) error {
	if err := s.checkKey(ctx, collection, id); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode record %s/%s: %w", collection, id, err)
	}

	l := s.keyLock(collection, id)
	l.Lock()
	defer l.Unlock()

	if err := os.MkdirAll(filepath.Join(s.baseDir, collection), 0o750); err != nil {
		return fmt.Errorf("create collection directory: %w", err)
	}

	f, err := os.OpenFile(s.recordPath(collection, id), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create record %s/%s: %w", collection, id, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write record %s/%s: %w", collection, id, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync record %s/%s: %w", collection, id, err)
	}
	return nil
}

// Read loads the record for (collection, id) and unmarshals it into out.
func (s *Store) Read(ctx context.Context, collection, id string, out any) error {
	if err := s.checkKey(ctx, collection, id); err != nil {
		return err
	}
	data, err := os.ReadFile(s.recordPath(collection, id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("read record %s/%s: %w", collection, id, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s/%s: %v", ErrCorruptRecord, collection, id, err)
	}
	return nil
}

// Update fully replaces an existing record. The new contents are written to a
// uniquely named temp file in the same directory and renamed over the old
// file, so a reader sees either the previous record or the new one, never a
// truncated mix. Merging fields is the caller's job before calling Update.
func (s *Store) Update(ctx context.Context, collection, id string, v any) error {
	if err := s.checkKey(ctx, collection, id); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode record %s/%s: %w", collection, id, err)
	}

	l := s.keyLock(collection, id)
	l.Lock()
	defer l.Unlock()

	path := s.recordPath(collection, id)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("stat record %s/%s: %w", collection, id, err)
	}

	tmp := filepath.Join(s.baseDir, collection, id+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp record %s/%s: %w", collection, id, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace record %s/%s: %w", collection, id, err)
	}
	return nil
}

// List returns the ids of all records in a collection. A collection that has
// never been written to lists as empty. Temp files from in-flight updates are
// skipped.
func (s *Store) List(ctx context.Context, collection string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validKey(collection) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, collection)
	}
	entries, err := os.ReadDir(filepath.Join(s.baseDir, collection))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list collection %s: %w", collection, err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		if validKey(id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Delete removes the record for (collection, id).
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := s.checkKey(ctx, collection, id); err != nil {
		return err
	}

	l := s.keyLock(collection, id)
	l.Lock()
	defer l.Unlock()

	if err := os.Remove(s.recordPath(collection, id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete record %s/%s: %w", collection, id, err)
	}
	return nil
}
