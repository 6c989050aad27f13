package store

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/kbukum/stagekit/errors"
	"github.com/kbukum/stagekit/logger"
)

// logExtension is the file extension of stage logs.
const logExtension = ".log"

// Store is the artifact log of one stage. It holds an open append
// handle plus an in-memory index of every complete record on disk.
//
// Append is safe to call concurrently for distinct keys. The index and
// file handle are owned by a single mapper invocation and discarded
// when it returns; Stores are not shared across invocations.
type Store struct {
	stage string
	path  string
	log   *logger.Logger

	mu    sync.Mutex
	file  *os.File
	index map[string][]byte
	keys  []string
}

// Path returns the location of a stage log under dir, whether or not it
// exists yet.
func Path(dir, stage string) string {
	return filepath.Join(dir, stage+logExtension)
}

// Exists reports whether a stage log is present under dir.
func Exists(dir, stage string) bool {
	_, err := os.Stat(Path(dir, stage))
	return err == nil
}

// Open opens (creating if necessary) the artifact log for stage under
// dir and loads every complete record into the in-memory index.
//
// A truncated trailing record is dropped with a warning; any other
// undecodable record makes Open fail with STORE_CORRUPT.
func Open(dir, stage string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("store").WithStage(stage)

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.StoreIO(stage, "create cache directory", err)
	}

	path := Path(dir, stage)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o640)
	if err != nil {
		return nil, errors.StoreIO(stage, "open", err)
	}

	records, dropped, err := readAll(f)
	if err != nil {
		f.Close()
		return nil, errors.StoreCorrupt(stage, path, err)
	}
	if dropped {
		log.Warn("dropped truncated trailing record", logger.Fields(logger.FieldPath, path))
	}

	s := &Store{
		stage: stage,
		path:  path,
		log:   log,
		file:  f,
		index: make(map[string][]byte, len(records)),
	}
	for _, r := range records {
		if _, seen := s.index[r.Key]; !seen {
			s.keys = append(s.keys, r.Key)
		}
		s.index[r.Key] = r.Value
	}

	log.Debug("stage log loaded", logger.Fields(logger.FieldRecords, len(s.index)))
	return s, nil
}

// Contains reports whether key has a complete persisted record. It
// checks the in-memory index only.
func (s *Store) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[key]
	return ok
}

// Get returns the serialized value persisted for key.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.index[key]
	return v, ok
}

// Len returns the number of distinct keys in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

// Keys returns the distinct keys in first-written order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Append durably writes one record bound to key. The full framed line
// goes to disk in a single write. Rewriting an existing key is allowed;
// the later record wins on the next load. The key must be non-empty:
// the reloader cannot tell an empty key from a missing one, so an empty
// key would make the log unreadable on the next Open.
func (s *Store) Append(key string, value []byte) error {
	if key == "" {
		return errors.EmptyKey()
	}
	line, err := marshalRecord(Record{Key: key, Value: value})
	if err != nil {
		return errors.StoreIO(s.stage, "encode record", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(line); err != nil {
		return errors.StoreIO(s.stage, "append", err)
	}
	if _, seen := s.index[key]; !seen {
		s.keys = append(s.keys, key)
	}
	s.index[key] = value
	return nil
}

// Sync flushes pending writes to stable storage.
func (s *Store) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.file.Sync(); err != nil {
		return errors.StoreIO(s.stage, "sync", err)
	}
	return nil
}

// Close releases the underlying file handle. The in-memory index stays
// readable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.file.Close(); err != nil {
		return errors.StoreIO(s.stage, "close", err)
	}
	return nil
}

// StorePath returns the on-disk location of this store's log.
func (s *Store) StorePath() string { return s.path }

// Remove deletes a stage log from disk. Cache invalidation is always
// explicit; nothing in the library calls this on its own.
func Remove(dir, stage string) error {
	if err := os.Remove(Path(dir, stage)); err != nil && !os.IsNotExist(err) {
		return errors.StoreIO(stage, "remove", err)
	}
	return nil
}

// readAll reads records until EOF. dropped reports whether a truncated
// trailing record was discarded. A record that fails to decode anywhere
// before the final unterminated line is an error.
func readAll(r io.Reader) (records []Record, dropped bool, err error) {
	return decodeRecords(r)
}
