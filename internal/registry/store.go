// Package registry persists entity metadata in two independent indexes: a
// type index (physical types, fields, annotations) and an entity index
// (persistence metadata). Three interchangeable backends are supported: a
// JSON file, SQLite, and Postgres. Database-backed type reads go through a
// small LRU cache; any type write invalidates its entry.
package registry

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"finderkit/internal/metamodel"
)

// ErrTypeNotFound is returned by writes against a type the index does not
// hold.
var ErrTypeNotFound = errors.New("type not found in registry")

const typeCacheEntries = 1024

// Store is the metadata registry. Exactly one backend is active: file when
// db is nil, database otherwise.
type Store struct {
	path    string
	db      *sql.DB
	dialect string

	loadOnce sync.Once
	mu       sync.RWMutex
	types    map[string]TypeRecord
	typeIDs  map[metamodel.TypeName]string
	entities map[string]EntityRecord

	schemaOnce sync.Once
	schemaErr  error

	typeCache *lru.Cache[string, TypeRecord]
}

// New opens a file-backed registry at path. The file is loaded lazily and
// written on Save.
func New(path string) *Store {
	return &Store{
		path:     path,
		types:    make(map[string]TypeRecord),
		typeIDs:  make(map[metamodel.TypeName]string),
		entities: make(map[string]EntityRecord),
	}
}

// NewSQLite opens a SQLite-backed registry at path.
func NewSQLite(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("registry path is required")
	}
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite registry: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite registry: %w", err)
	}
	return newDBStore(db, "sqlite")
}

// NewPostgres opens a Postgres-backed registry with the given DSN.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("open postgres registry: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres registry: %w", err)
	}
	return newDBStore(db, "pgx")
}

func newDBStore(db *sql.DB, dialect string) (*Store, error) {
	cache, err := lru.New[string, TypeRecord](typeCacheEntries)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, dialect: dialect, typeCache: cache}, nil
}

// Open selects a backend by name: "file", "sqlite", or "postgres".
func Open(backend, pathOrDSN string) (*Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "file":
		return New(pathOrDSN), nil
	case "sqlite":
		return NewSQLite(pathOrDSN)
	case "postgres":
		return NewPostgres(pathOrDSN)
	default:
		return nil, fmt.Errorf("unknown registry backend %q", backend)
	}
}

// Close releases the database handle, if any.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureLoaded makes the backend ready: loads the file or creates the schema.
func (s *Store) EnsureLoaded() {
	if s == nil {
		return
	}
	if s.db != nil {
		_ = s.ensureSchema()
		return
	}
	s.ensureLoadedFile()
}

// Save flushes the file backend. A no-op on database backends, which write
// through.
func (s *Store) Save() {
	if s == nil || s.db != nil {
		return
	}
	s.saveFile()
}

// PutType inserts or replaces a type record.
func (s *Store) PutType(rec TypeRecord) error {
	if s == nil {
		return errors.New("nil registry")
	}
	rec = normalizeType(rec)
	if rec.ID == "" || rec.Name == "" {
		return fmt.Errorf("type record requires id and name")
	}
	if s.db != nil {
		if err := s.putTypeDB(rec); err != nil {
			return err
		}
		s.typeCache.Remove(rec.ID)
		return nil
	}
	s.putTypeFile(rec)
	return nil
}

// TypeByName looks a type up by its qualified name.
func (s *Store) TypeByName(name metamodel.TypeName) (TypeRecord, bool) {
	if s == nil {
		return TypeRecord{}, false
	}
	if s.db != nil {
		return s.typeByNameDB(name)
	}
	return s.typeByNameFile(name)
}

// TypeByID looks a type up by its canonical identifier.
func (s *Store) TypeByID(id string) (TypeRecord, bool) {
	if s == nil {
		return TypeRecord{}, false
	}
	if s.db != nil {
		if cached, ok := s.typeCache.Get(id); ok {
			return cached, true
		}
		rec, ok := s.typeByIDDB(id)
		if ok {
			s.typeCache.Add(id, rec)
		}
		return rec, ok
	}
	return s.typeByIDFile(id)
}

// UpdateTypeAnnotation replaces (or appends) one annotation on the type,
// leaving the rest of the record untouched. This is the registry's only
// partial-update write; the finder operations use it to persist declared
// finders.
func (s *Store) UpdateTypeAnnotation(id string, ann metamodel.Annotation) error {
	if s == nil {
		return errors.New("nil registry")
	}
	rec, ok := s.TypeByID(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTypeNotFound, id)
	}
	replaced := false
	for i, existing := range rec.Annotations {
		if existing.Name == ann.Name {
			rec.Annotations[i] = ann
			replaced = true
			break
		}
	}
	if !replaced {
		rec.Annotations = append(rec.Annotations, ann)
	}
	if err := s.PutType(rec); err != nil {
		return err
	}
	s.Save()
	return nil
}

// PutEntity inserts or replaces an entity record. A valid entity always
// names its manager field.
func (s *Store) PutEntity(rec EntityRecord) error {
	if s == nil {
		return errors.New("nil registry")
	}
	rec = normalizeEntity(rec)
	if rec.ID == "" || rec.Name == "" {
		return fmt.Errorf("entity record requires id and name")
	}
	if rec.ManagerField == "" {
		return fmt.Errorf("entity record %s requires a manager field", rec.ID)
	}
	if s.db != nil {
		return s.putEntityDB(rec)
	}
	s.putEntityFile(rec)
	return nil
}

// EntityByID looks an entity up by the identifier of its physical type.
func (s *Store) EntityByID(id string) (EntityRecord, bool) {
	if s == nil {
		return EntityRecord{}, false
	}
	if s.db != nil {
		return s.entityByIDDB(id)
	}
	return s.entityByIDFile(id)
}
