package registry

import (
	"encoding/json"
	"strconv"
	"strings"

	"finderkit/internal/metamodel"
)

// Queries are written with ? placeholders and rebound to $n for Postgres.
func (s *Store) rebind(q string) string {
	if s.dialect != "pgx" {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS finder_types (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  source_path TEXT NOT NULL DEFAULT '',
  fields TEXT NOT NULL DEFAULT '[]',
  annotations TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS finder_entities (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  entity_name TEXT NOT NULL DEFAULT '',
  plural TEXT NOT NULL DEFAULT '',
  manager_field TEXT NOT NULL,
  id_fields TEXT NOT NULL DEFAULT '[]',
  version_field TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_finder_types_name ON finder_types (name);
`)
	})
	return s.schemaErr
}

func (s *Store) putTypeDB(rec TypeRecord) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return err
	}
	annotations, err := json.Marshal(rec.Annotations)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(s.rebind(`
INSERT INTO finder_types (id, name, source_path, fields, annotations)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id)
DO UPDATE SET name=EXCLUDED.name,
  source_path=EXCLUDED.source_path,
  fields=EXCLUDED.fields,
  annotations=EXCLUDED.annotations`),
		rec.ID, string(rec.Name), rec.SourcePath, string(fields), string(annotations))
	return err
}

func (s *Store) scanType(row rowScanner) (TypeRecord, bool) {
	var rec TypeRecord
	var name, fields, annotations string
	if err := row.Scan(&rec.ID, &name, &rec.SourcePath, &fields, &annotations); err != nil {
		return TypeRecord{}, false
	}
	rec.Name = metamodel.TypeName(name)
	if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
		return TypeRecord{}, false
	}
	if err := json.Unmarshal([]byte(annotations), &rec.Annotations); err != nil {
		return TypeRecord{}, false
	}
	return normalizeType(rec), true
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) typeByNameDB(name metamodel.TypeName) (TypeRecord, bool) {
	if err := s.ensureSchema(); err != nil {
		return TypeRecord{}, false
	}
	row := s.db.QueryRow(s.rebind(`SELECT id, name, source_path, fields, annotations
FROM finder_types WHERE name = ?`), string(name))
	return s.scanType(row)
}

func (s *Store) typeByIDDB(id string) (TypeRecord, bool) {
	if err := s.ensureSchema(); err != nil {
		return TypeRecord{}, false
	}
	row := s.db.QueryRow(s.rebind(`SELECT id, name, source_path, fields, annotations
FROM finder_types WHERE id = ?`), id)
	return s.scanType(row)
}

func (s *Store) putEntityDB(rec EntityRecord) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	idFields, err := json.Marshal(rec.IDFields)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(s.rebind(`
INSERT INTO finder_entities (id, name, entity_name, plural, manager_field, id_fields, version_field)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id)
DO UPDATE SET name=EXCLUDED.name,
  entity_name=EXCLUDED.entity_name,
  plural=EXCLUDED.plural,
  manager_field=EXCLUDED.manager_field,
  id_fields=EXCLUDED.id_fields,
  version_field=EXCLUDED.version_field`),
		rec.ID, string(rec.Name), rec.EntityName, rec.Plural,
		string(rec.ManagerField), string(idFields), string(rec.VersionField))
	return err
}

func (s *Store) entityByIDDB(id string) (EntityRecord, bool) {
	if err := s.ensureSchema(); err != nil {
		return EntityRecord{}, false
	}
	row := s.db.QueryRow(s.rebind(`SELECT id, name, entity_name, plural, manager_field, id_fields, version_field
FROM finder_entities WHERE id = ?`), id)
	var rec EntityRecord
	var name, manager, idFields, version string
	if err := row.Scan(&rec.ID, &name, &rec.EntityName, &rec.Plural, &manager, &idFields, &version); err != nil {
		return EntityRecord{}, false
	}
	rec.Name = metamodel.TypeName(name)
	rec.ManagerField = metamodel.Symbol(manager)
	rec.VersionField = metamodel.Symbol(version)
	if err := json.Unmarshal([]byte(idFields), &rec.IDFields); err != nil {
		return EntityRecord{}, false
	}
	return normalizeEntity(rec), true
}
