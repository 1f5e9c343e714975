// Package types defines the core data model shared across the engine:
// entities, directed relations, node references, and the candidate records
// consumed from the upstream extraction step.
package types

// EntityType classifies a resolved entity.
type EntityType string

const (
	EntityPerson       EntityType = "PERSON"
	EntityOrganization EntityType = "ORGANIZATION"
	EntityLocation     EntityType = "LOCATION"
	EntityEvent        EntityType = "EVENT"
	EntityDate         EntityType = "DATE"
	EntityOther        EntityType = "OTHER"
)

// ValidEntityType reports whether t is one of the closed set of entity types.
func ValidEntityType(t EntityType) bool {
	switch t {
	case EntityPerson, EntityOrganization, EntityLocation, EntityEvent, EntityDate, EntityOther:
		return true
	}
	return false
}

// NodeKind identifies which collection a graph node belongs to. Relations
// carry the kind alongside the id so consumers never have to probe multiple
// stores to discover what an id refers to.
type NodeKind string

const (
	KindActor  NodeKind = "actor"
	KindSource NodeKind = "source"
	KindEntity NodeKind = "entity"
	KindEvent  NodeKind = "event"
)

// ValidNodeKind reports whether k is a known node kind.
func ValidNodeKind(k NodeKind) bool {
	switch k {
	case KindActor, KindSource, KindEntity, KindEvent:
		return true
	}
	return false
}

// NodeRef is a tagged reference to a graph node: the id plus the collection
// it lives in.
type NodeRef struct {
	Kind NodeKind `json:"kind"`
	ID   string   `json:"id"`
}

// EntityRef builds a NodeRef for an entity id.
func EntityRef(id string) NodeRef {
	return NodeRef{Kind: KindEntity, ID: id}
}

// RelationType is the closed set of edge types in the relationship graph.
type RelationType string

const (
	RelationOwns                RelationType = "owns"
	RelationWorksFor            RelationType = "works_for"
	RelationAffiliatedWith      RelationType = "affiliated_with"
	RelationMentionedWith       RelationType = "mentioned_with"
	RelationQuotedBy            RelationType = "quoted_by"
	RelationCovers              RelationType = "covers"
	RelationParticipatesIn      RelationType = "participates_in"
	RelationRelatedTo           RelationType = "related_to"
	RelationOpposes             RelationType = "opposes"
	RelationSupports            RelationType = "supports"
	RelationPoliticalConnection RelationType = "political_connection"
	RelationFamily              RelationType = "family"
	RelationBusiness            RelationType = "business"
)

// RelationTypes lists every valid relation type.
var RelationTypes = []RelationType{
	RelationOwns,
	RelationWorksFor,
	RelationAffiliatedWith,
	RelationMentionedWith,
	RelationQuotedBy,
	RelationCovers,
	RelationParticipatesIn,
	RelationRelatedTo,
	RelationOpposes,
	RelationSupports,
	RelationPoliticalConnection,
	RelationFamily,
	RelationBusiness,
}

// ValidRelationType reports whether t is one of the closed set of relation types.
func ValidRelationType(t RelationType) bool {
	for _, rt := range RelationTypes {
		if t == rt {
			return true
		}
	}
	return false
}
