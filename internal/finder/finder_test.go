package finder

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"testing"

	"github.com/rs/zerolog"

	"finderkit/internal/metamodel"
)

// fakeIndexes backs both collaborator interfaces so tests can make the two
// metadata subsystems agree or disagree at will.
type fakeIndexes struct {
	ids      map[metamodel.TypeName]string
	details  map[string]*metamodel.TypeDetails
	physical map[string]*metamodel.TypeDetails
	entities map[string]*metamodel.EntityMetadata
	idFields map[string][]metamodel.Symbol
	versions map[string]metamodel.Symbol

	writes    []metamodel.Annotation
	failWrite bool
}

func newFakeIndexes() *fakeIndexes {
	return &fakeIndexes{
		ids:      map[metamodel.TypeName]string{},
		details:  map[string]*metamodel.TypeDetails{},
		physical: map[string]*metamodel.TypeDetails{},
		entities: map[string]*metamodel.EntityMetadata{},
		idFields: map[string][]metamodel.Symbol{},
		versions: map[string]metamodel.Symbol{},
	}
}

func (f *fakeIndexes) PhysicalTypeID(name metamodel.TypeName) (string, bool) {
	id, ok := f.ids[name]
	return id, ok
}

func (f *fakeIndexes) TypeDetails(id string) (*metamodel.TypeDetails, bool) {
	d, ok := f.details[id]
	return d, ok
}

func (f *fakeIndexes) EntityMetadata(id string) (*metamodel.EntityMetadata, bool) {
	m, ok := f.entities[id]
	return m, ok
}

func (f *fakeIndexes) PhysicalDetails(id string) (*metamodel.TypeDetails, bool) {
	d, ok := f.physical[id]
	return d, ok
}

func (f *fakeIndexes) IdentifierFields(id string) []metamodel.Symbol { return f.idFields[id] }

func (f *fakeIndexes) VersionField(id string) (metamodel.Symbol, bool) {
	v, ok := f.versions[id]
	if v == "" {
		return "", false
	}
	return v, ok
}

func (f *fakeIndexes) UpdateTypeAnnotation(id string, ann metamodel.Annotation) error {
	if f.failWrite {
		return errors.New("write failed")
	}
	f.writes = append(f.writes, ann)
	if d, ok := f.details[id]; ok {
		for i := range d.Annotations {
			if d.Annotations[i].Name == ann.Name {
				d.Annotations[i] = ann
			}
		}
	}
	return nil
}

type fakeScanner struct{}

func (fakeScanner) Scan(d *metamodel.TypeDetails) *metamodel.MemberDetails {
	if d == nil {
		return &metamodel.MemberDetails{}
	}
	return &metamodel.MemberDetails{Fields: d.Fields}
}

// fakeQueries derives a fixed name list and resolves from a canned table.
type fakeQueries struct {
	names      []metamodel.Symbol
	signatures map[metamodel.Symbol]*metamodel.QuerySignature
	panicOn    metamodel.Symbol
	exclusions map[metamodel.Symbol]struct{}
}

func (f *fakeQueries) Finders(_ *metamodel.MemberDetails, _ string, depth int, exclusions map[metamodel.Symbol]struct{}) []metamodel.Symbol {
	f.exclusions = exclusions
	if depth <= 0 {
		return nil
	}
	return f.names
}

func (f *fakeQueries) Resolve(_ *metamodel.MemberDetails, name metamodel.Symbol, _, _ string) (*metamodel.QuerySignature, error) {
	if name == f.panicOn {
		panic("resolution blew up")
	}
	sig, ok := f.signatures[name]
	if !ok {
		return nil, fmt.Errorf("finder %q does not resolve", name)
	}
	return sig, nil
}

type fakeGate struct {
	project  bool
	features map[string]bool
}

func (g fakeGate) ProjectAvailable() bool         { return g.project }
func (g fakeGate) FeatureInstalled(f string) bool { return g.features[f] }

const testID = "store/customer.go#store.Customer"

func entityFixture() (*fakeIndexes, *fakeQueries) {
	idx := newFakeIndexes()
	details := &metamodel.TypeDetails{
		Name:       "store.Customer",
		SourcePath: "store/customer.go",
		Fields: []metamodel.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "age", Type: "int"},
		},
		Annotations: []metamodel.Annotation{{
			Name:       metamodel.EntityAnnotation,
			Attributes: map[string]any{"table": "customers"},
		}},
	}
	idx.ids["store.Customer"] = testID
	idx.details[testID] = details
	idx.physical[testID] = details
	idx.entities[testID] = &metamodel.EntityMetadata{
		Type:         "store.Customer",
		EntityName:   "Customer",
		Plural:       "Customers",
		ManagerField: "client",
	}
	idx.idFields[testID] = []metamodel.Symbol{"id"}

	q := &fakeQueries{
		names: []metamodel.Symbol{"findByName", "findByAge"},
		signatures: map[metamodel.Symbol]*metamodel.QuerySignature{
			"findByName": {Finder: "findByName", Params: []metamodel.Param{{Type: "string", Name: "name"}}},
			"findByAge":  {Finder: "findByAge", Params: []metamodel.Param{{Type: "int", Name: "age"}}},
		},
	}
	return idx, q
}

func newOps(idx *fakeIndexes, q *fakeQueries, gate FeatureGate) *Operations {
	return New(idx, idx, fakeScanner{}, idx, q, gate, zerolog.Nop())
}

func declaredNames(t *testing.T, ann metamodel.Annotation) []string {
	t.Helper()
	d, err := metamodel.ParseDeclaredFinders(ann.Attribute(metamodel.FindersAttribute))
	if err != nil {
		t.Fatalf("parse written finders: %v", err)
	}
	return d.Names()
}

func TestInstallAppendsAndWritesOnce(t *testing.T) {
	idx, q := entityFixture()
	ops := newOps(idx, q, nil)

	if err := ops.Install("store.Customer", "findByName"); err != nil {
		t.Fatalf("install: %v", err)
	}
	if len(idx.writes) != 1 {
		t.Fatalf("expected exactly one write, got %d", len(idx.writes))
	}
	if got := declaredNames(t, idx.writes[0]); !reflect.DeepEqual(got, []string{"findByName"}) {
		t.Fatalf("unexpected declared finders: %v", got)
	}
	// Sibling annotation attributes survive the write.
	if idx.writes[0].Attribute("table") != "customers" {
		t.Fatalf("sibling attribute lost: %+v", idx.writes[0])
	}
}

func TestInstallIsIdempotent(t *testing.T) {
	idx, q := entityFixture()
	ops := newOps(idx, q, nil)

	if err := ops.Install("store.Customer", "findByName"); err != nil {
		t.Fatalf("first install: %v", err)
	}
	first := declaredNames(t, idx.writes[len(idx.writes)-1])

	if err := ops.Install("store.Customer", "findByName"); err != nil {
		t.Fatalf("second install: %v", err)
	}
	second := declaredNames(t, idx.writes[len(idx.writes)-1])

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("install is not idempotent: %v then %v", first, second)
	}
}

func TestInstallPreservesOrder(t *testing.T) {
	idx, q := entityFixture()
	ann := idx.details[testID].Annotations[0]
	idx.details[testID].Annotations[0] = ann.WithAttribute(metamodel.FindersAttribute, []string{"findByA", "findByB"})
	q.signatures["findByC"] = &metamodel.QuerySignature{Finder: "findByC"}
	ops := newOps(idx, q, nil)

	if err := ops.Install("store.Customer", "findByC"); err != nil {
		t.Fatalf("install: %v", err)
	}
	got := declaredNames(t, idx.writes[0])
	if !reflect.DeepEqual(got, []string{"findByA", "findByB", "findByC"}) {
		t.Fatalf("order not preserved: %v", got)
	}
}

func TestInstallRejectsMalformedFindersAttribute(t *testing.T) {
	for name, raw := range map[string]any{
		"string instead of array": "findByName",
		"array with non-string":   []any{"findByName", 42},
	} {
		t.Run(name, func(t *testing.T) {
			idx, q := entityFixture()
			ann := idx.details[testID].Annotations[0]
			idx.details[testID].Annotations[0] = ann.WithAttribute(metamodel.FindersAttribute, raw)
			ops := newOps(idx, q, nil)

			err := ops.Install("store.Customer", "findByName")
			if !errors.Is(err, metamodel.ErrFindersAttribute) {
				t.Fatalf("expected ErrFindersAttribute, got %v", err)
			}
			if len(idx.writes) != 0 {
				t.Fatalf("expected zero writes, got %d", len(idx.writes))
			}
		})
	}
}

func TestInstallSoftNoOps(t *testing.T) {
	t.Run("unknown source", func(t *testing.T) {
		idx, q := entityFixture()
		ops := newOps(idx, q, nil)
		if err := ops.Install("store.Unknown", "findByName"); err != nil {
			t.Fatalf("expected soft no-op, got %v", err)
		}
		if len(idx.writes) != 0 {
			t.Fatalf("expected zero writes")
		}
	})

	t.Run("not a managed entity", func(t *testing.T) {
		idx, q := entityFixture()
		delete(idx.entities, testID)
		ops := newOps(idx, q, nil)
		if err := ops.Install("store.Customer", "findByName"); err != nil {
			t.Fatalf("expected soft no-op, got %v", err)
		}
		if len(idx.writes) != 0 {
			t.Fatalf("expected zero writes")
		}
	})

	t.Run("missing entity annotation", func(t *testing.T) {
		idx, q := entityFixture()
		idx.details[testID].Annotations = nil
		ops := newOps(idx, q, nil)
		if err := ops.Install("store.Customer", "findByName"); err != nil {
			t.Fatalf("expected soft no-op, got %v", err)
		}
		if len(idx.writes) != 0 {
			t.Fatalf("expected zero writes")
		}
	})

	t.Run("unresolvable finder name", func(t *testing.T) {
		idx, q := entityFixture()
		ops := newOps(idx, q, nil)
		if err := ops.Install("store.Customer", "findByNothing"); err != nil {
			t.Fatalf("expected soft no-op, got %v", err)
		}
		if len(idx.writes) != 0 {
			t.Fatalf("expected zero writes")
		}
	})
}

func TestInstallConsistencyFailure(t *testing.T) {
	idx, q := entityFixture()
	// Entity metadata exists but the type index lost the record: indexes
	// disagree, which must surface as a hard failure.
	delete(idx.details, testID)
	ops := newOps(idx, q, nil)

	if err := ops.Install("store.Customer", "findByName"); err == nil {
		t.Fatalf("expected consistency failure")
	}
	if len(idx.writes) != 0 {
		t.Fatalf("expected zero writes")
	}
}

func TestInstallPropagatesWriteErrors(t *testing.T) {
	idx, q := entityFixture()
	idx.failWrite = true
	ops := newOps(idx, q, nil)

	if err := ops.Install("store.Customer", "findByName"); err == nil {
		t.Fatalf("expected write error to propagate")
	}
}

func TestInstallValidatesArguments(t *testing.T) {
	idx, q := entityFixture()
	ops := newOps(idx, q, nil)
	if err := ops.Install("", "findByName"); err == nil {
		t.Fatalf("expected error for empty type name")
	}
	if err := ops.Install("store.Customer", ""); err == nil {
		t.Fatalf("expected error for empty finder name")
	}
}

func TestListRendersSortedSignatures(t *testing.T) {
	idx, q := entityFixture()
	q.names = []metamodel.Symbol{"findByName", "findByAge"}
	ops := newOps(idx, q, nil)

	got, err := ops.List("store.Customer", 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"findByAge(int age)", "findByName(string name)"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestListSignatureFormatting(t *testing.T) {
	idx, q := entityFixture()
	q.names = []metamodel.Symbol{"findByNameAndAge"}
	q.signatures["findByNameAndAge"] = &metamodel.QuerySignature{
		Finder: "findByNameAndAge",
		Params: []metamodel.Param{
			{Type: "String", Name: "name"},
			{Type: "int", Name: "age"},
		},
	}
	ops := newOps(idx, q, nil)

	got, err := ops.List("store.Customer", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0] != "findByNameAndAge(String name, int age)" {
		t.Fatalf("unexpected rendering: %v", got)
	}
}

func TestListIsolatesPerNameFailures(t *testing.T) {
	idx, q := entityFixture()
	q.names = []metamodel.Symbol{"findByName", "findByBroken", "findByAge"}
	ops := newOps(idx, q, nil)

	got, err := ops.List("store.Customer", 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{
		"findByAge(int age)",
		"findByBroken - failure",
		"findByName(string name)",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestListIsolatesPanics(t *testing.T) {
	idx, q := entityFixture()
	q.names = []metamodel.Symbol{"findByName", "findByAge"}
	q.panicOn = "findByAge"
	ops := newOps(idx, q, nil)

	got, err := ops.List("store.Customer", 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"findByAge - failure", "findByName(string name)"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestListSortsFailuresLexicographically(t *testing.T) {
	idx, q := entityFixture()
	q.names = []metamodel.Symbol{"b", "a", "c"}
	q.signatures = map[metamodel.Symbol]*metamodel.QuerySignature{
		"a": {Finder: "a"},
		"b": {Finder: "b"},
	}
	ops := newOps(idx, q, nil)

	got, err := ops.List("store.Customer", 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"a()", "b()", "c - failure"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if !sort.StringsAreSorted(got) {
		t.Fatalf("result not sorted: %v", got)
	}
}

func TestListIsDeterministic(t *testing.T) {
	idx, q := entityFixture()
	ops := newOps(idx, q, nil)

	first, err := ops.List("store.Customer", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := ops.List("store.Customer", 2)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("non-deterministic result: %v vs %v", first, again)
		}
	}
}

func TestListBuildsExclusionSet(t *testing.T) {
	idx, q := entityFixture()
	idx.versions[testID] = "version"
	ops := newOps(idx, q, nil)

	if _, err := ops.List("store.Customer", 1); err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, field := range []metamodel.Symbol{"client", "id", "version"} {
		if _, ok := q.exclusions[field]; !ok {
			t.Fatalf("field %q missing from exclusion set %v", field, q.exclusions)
		}
	}
}

func TestListHardFailures(t *testing.T) {
	t.Run("unknown source", func(t *testing.T) {
		idx, q := entityFixture()
		ops := newOps(idx, q, nil)
		if _, err := ops.List("store.Unknown", 1); err == nil {
			t.Fatalf("expected hard failure")
		}
	})

	t.Run("not a managed entity", func(t *testing.T) {
		idx, q := entityFixture()
		delete(idx.entities, testID)
		ops := newOps(idx, q, nil)
		if _, err := ops.List("store.Customer", 1); err == nil {
			t.Fatalf("expected hard failure")
		}
	})

	t.Run("physical details missing", func(t *testing.T) {
		idx, q := entityFixture()
		delete(idx.physical, testID)
		ops := newOps(idx, q, nil)
		_, err := ops.List("store.Customer", 1)
		if err == nil {
			t.Fatalf("expected consistency failure")
		}
	})
}

func TestInstallationPossible(t *testing.T) {
	idx, q := entityFixture()

	if newOps(idx, q, nil).InstallationPossible() {
		t.Fatalf("nil gate must report false")
	}
	gate := fakeGate{project: true, features: map[string]bool{PersistenceFeature: true}}
	if !newOps(idx, q, gate).InstallationPossible() {
		t.Fatalf("expected installation to be possible")
	}
	gate.features[PersistenceFeature] = false
	if newOps(idx, q, gate).InstallationPossible() {
		t.Fatalf("expected installation to be impossible without the feature")
	}
	gate = fakeGate{project: false, features: map[string]bool{PersistenceFeature: true}}
	if newOps(idx, q, gate).InstallationPossible() {
		t.Fatalf("expected installation to be impossible without a project")
	}
}
