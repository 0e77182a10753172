package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/voiceaid/voiceaid/internal/failure"
)

// DefaultPath is the history file used when none is configured, relative
// to the working directory.
const DefaultPath = "voiceaid_history.json"

// ErrNotFound is returned by mutations addressing an unknown record.
var ErrNotFound = errors.New("record not found")

// Store is the durable, ordered list of records. The in-memory list only
// changes after the corresponding save succeeded, so memory and disk never
// diverge. Insertion order is preserved; views are built with Query.
type Store struct {
	path string

	mu      sync.Mutex
	records []Record

	// set when the file on disk could not be parsed; the next save moves
	// it aside instead of overwriting it.
	corrupt bool
}

// Open loads the store at path. A missing file yields an empty store.
//
// If the file cannot be read or parsed, Open still returns a usable, empty
// store together with an error wrapping failure.ErrCorruptHistory. Callers
// should report the error and carry on with the returned store.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return s, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads and parses the backing file without touching the in-memory
// list. A missing file is an empty history.
func (s *Store) Load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, failure.Corrupt("unable to read history file", err).WithContext("path", s.path)
	}
	records, err := decode(data)
	if err != nil {
		return nil, failure.Corrupt("unable to parse history file", err).WithContext("path", s.path)
	}
	return records, nil
}

// Reload replaces the in-memory list with the file contents. Records from
// older files that lack an id are given one derived from their content, so
// repeated reloads agree until the next save persists it. On failure the list is emptied and the unreadable file is backed up
// by the next save.
func (s *Store) Reload() error {
	records, err := s.Load()
	if err != nil {
		s.mu.Lock()
		s.records = nil
		s.corrupt = true
		s.mu.Unlock()
		return err
	}
	assignLegacyIDs(records)
	s.mu.Lock()
	s.records = records
	s.corrupt = false
	s.mu.Unlock()
	log.Debug("history loaded", "path", s.path, "records", len(records))
	return nil
}

// Records returns a copy of the records in insertion order.
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Find returns the record with the given id.
func (s *Store) Find(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.records[i], true
	}
	return Record{}, false
}

// Save persists records, overwriting prior contents, and makes them the
// in-memory list.
func (s *Store) Save(records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(slices.Clone(records))
}

// Append adds a record at the end and saves.
func (s *Store) Append(r Record) error {
	if r.Message == "" {
		return errors.New("record message cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := append(slices.Clone(s.records), r)
	return s.commit(next)
}

// ToggleFavorite flips the favorite flag of the record with id and saves.
// It returns the updated record.
func (s *Store) ToggleFavorite(id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := slices.Clone(s.records)
	next[i].Favorite = !next[i].Favorite
	if err := s.commit(next); err != nil {
		return Record{}, err
	}
	return next[i], nil
}

// Delete removes exactly the record with id and saves.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := slices.Delete(slices.Clone(s.records), i, i+1)
	return s.commit(next)
}

// legacyNamespace seeds the ids derived for records written without one.
var legacyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("voiceaid:history"))

// assignLegacyIDs gives every id-less record a name-based UUID over its
// timestamp, tone and message. Identical records are told apart by their
// occurrence number.
func assignLegacyIDs(records []Record) {
	seen := make(map[string]int)
	for i, r := range records {
		if r.ID != "" {
			continue
		}
		name := r.Timestamp + "|" + r.Tone + "|" + r.Message
		n := seen[name]
		seen[name]++
		records[i].ID = uuid.NewSHA1(legacyNamespace, fmt.Appendf(nil, "%s|%d", name, n)).String()
	}
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.records, func(r Record) bool { return r.ID == id })
}

// commit writes next to disk and, on success, adopts it. Must be called
// with s.mu held.
func (s *Store) commit(next []Record) error {
	if s.corrupt {
		backup := s.path + ".corrupt"
		if err := os.Rename(s.path, backup); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("unable to back up unreadable history: %w", err)
		}
		log.Warn("moved unreadable history aside", "path", s.path, "backup", backup)
		s.corrupt = false
	}
	if err := writeAtomic(s.path, next); err != nil {
		return err
	}
	s.records = next
	return nil
}

func decode(data []byte) ([]Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '[' {
		var records []Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, err
		}
		return records, nil
	}
	return decodeLines(data)
}

// decodeLines reads the line-delimited format some older versions wrote,
// one JSON object per line.
func decodeLines(data []byte) ([]Record, error) {
	var records []Record
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(b, &r); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, r)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// writeAtomic encodes records as an indented JSON array into a temp file
// next to path and renames it over path.
func writeAtomic(path string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode history: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("unable to create history directory: %w", err)
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("unable to create temp file: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("unable to write history: %w", err)
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("unable to sync history: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("unable to close history: %w", err)
	}
	if err = os.Chmod(tmp, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("unable to set history permissions: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("unable to replace history: %w", err)
	}
	return nil
}
