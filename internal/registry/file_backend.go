package registry

import (
	"encoding/json"
	"os"
	"path/filepath"

	"finderkit/internal/metamodel"
)

type fileState struct {
	Types    []TypeRecord   `json:"types,omitempty"`
	Entities []EntityRecord `json:"entities,omitempty"`
}

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var state fileState
		if err := json.Unmarshal(b, &state); err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, rec := range state.Types {
			rec = normalizeType(rec)
			if rec.ID == "" {
				continue
			}
			s.types[rec.ID] = rec
			s.typeIDs[rec.Name] = rec.ID
		}
		for _, rec := range state.Entities {
			rec = normalizeEntity(rec)
			if rec.ID == "" {
				continue
			}
			s.entities[rec.ID] = rec
		}
	})
}

func (s *Store) saveFile() {
	s.ensureLoadedFile()
	s.mu.RLock()
	state := fileState{
		Types:    make([]TypeRecord, 0, len(s.types)),
		Entities: make([]EntityRecord, 0, len(s.entities)),
	}
	for _, rec := range s.types {
		state.Types = append(state.Types, rec)
	}
	for _, rec := range s.entities {
		state.Entities = append(state.Entities, rec)
	}
	s.mu.RUnlock()

	b, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
	_ = os.WriteFile(s.path, b, 0o644)
}

func (s *Store) putTypeFile(rec TypeRecord) {
	s.ensureLoadedFile()
	s.mu.Lock()
	s.types[rec.ID] = rec
	s.typeIDs[rec.Name] = rec.ID
	s.mu.Unlock()
}

func (s *Store) typeByNameFile(name metamodel.TypeName) (TypeRecord, bool) {
	s.ensureLoadedFile()
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.typeIDs[name]
	if !ok {
		return TypeRecord{}, false
	}
	rec, ok := s.types[id]
	return rec, ok
}

func (s *Store) typeByIDFile(id string) (TypeRecord, bool) {
	s.ensureLoadedFile()
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.types[id]
	return rec, ok
}

func (s *Store) putEntityFile(rec EntityRecord) {
	s.ensureLoadedFile()
	s.mu.Lock()
	s.entities[rec.ID] = rec
	s.mu.Unlock()
}

func (s *Store) entityByIDFile(id string) (EntityRecord, bool) {
	s.ensureLoadedFile()
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.entities[id]
	return rec, ok
}
