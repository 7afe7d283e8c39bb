// Package finder implements the finder declaration synchronizer and the
// finder enumerator. Both are stateless services over collaborators supplied
// at construction: the type index, the entity index, the member scanner, the
// query grammar, and the annotation writer. All collaborators are consumed
// through the narrow interfaces below.
package finder

import (
	"github.com/rs/zerolog"

	"finderkit/internal/metamodel"
)

// TypeLocator resolves qualified type names to physical type identifiers and
// serves structural details from the type index.
type TypeLocator interface {
	PhysicalTypeID(name metamodel.TypeName) (string, bool)
	TypeDetails(id string) (*metamodel.TypeDetails, bool)
}

// MetadataResolver serves persistence metadata from the entity index. It is
// an independent subsystem from TypeLocator; the two must agree, and the
// operations report disagreement as a consistency failure rather than
// papering over it.
type MetadataResolver interface {
	EntityMetadata(id string) (*metamodel.EntityMetadata, bool)
	PhysicalDetails(id string) (*metamodel.TypeDetails, bool)
	IdentifierFields(id string) []metamodel.Symbol
	VersionField(id string) (metamodel.Symbol, bool)
}

// MemberScanner flattens structural details into member details.
type MemberScanner interface {
	Scan(details *metamodel.TypeDetails) *metamodel.MemberDetails
}

// TypeWriter persists an updated annotation on a physical type.
type TypeWriter interface {
	UpdateTypeAnnotation(id string, ann metamodel.Annotation) error
}

// QueryService is the name-derivation grammar. Finders derives candidate
// names bounded by depth; Resolve turns one name into a signature or fails.
type QueryService interface {
	Finders(members *metamodel.MemberDetails, plural string, depth int, exclusions map[metamodel.Symbol]struct{}) []metamodel.Symbol
	Resolve(members *metamodel.MemberDetails, finder metamodel.Symbol, plural, entityName string) (*metamodel.QuerySignature, error)
}

// FeatureGate reports whether the surrounding project can accept finder
// installation at all.
type FeatureGate interface {
	ProjectAvailable() bool
	FeatureInstalled(feature string) bool
}

// PersistenceFeature is the feature the installation gate checks for.
const PersistenceFeature = "persistence"

// Operations exposes the finder operations to callers.
type Operations struct {
	locator  TypeLocator
	metadata MetadataResolver
	scanner  MemberScanner
	writer   TypeWriter
	queries  QueryService
	gate     FeatureGate
	log      zerolog.Logger
}

// New wires the finder operations. All collaborators except gate are
// required; a nil gate simply reports installation as impossible.
func New(locator TypeLocator, metadata MetadataResolver, scanner MemberScanner, writer TypeWriter, queries QueryService, gate FeatureGate, log zerolog.Logger) *Operations {
	return &Operations{
		locator:  locator,
		metadata: metadata,
		scanner:  scanner,
		writer:   writer,
		queries:  queries,
		gate:     gate,
		log:      log,
	}
}

// InstallationPossible reports whether the project can accept finder
// declarations. Pure predicate; never fails. Nil gate means no.
func (o *Operations) InstallationPossible() bool {
	if o == nil || o.gate == nil {
		return false
	}
	return o.gate.ProjectAvailable() && o.gate.FeatureInstalled(PersistenceFeature)
}
