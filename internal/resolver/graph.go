package resolver

import (
	"github.com/google/uuid"
)

// Graph is the working state of one resolution run: an entity arena with a
// key index, the edge list, and the Phase A ownership lookup tables mapping
// normalized identifier values to owning person keys. Entities reference each
// other by key, never by pointer, so bidirectional links cannot cycle.
type Graph struct {
	entities []*Entity
	index    map[string]int
	edges    []*Edge

	phoneOwners   map[string]string
	accountOwners map[string]string
	walletOwners  map[string]string
}

// NewGraph creates an empty resolution graph.
func NewGraph() *Graph {
	return &Graph{
		index:         make(map[string]int),
		phoneOwners:   make(map[string]string),
		accountOwners: make(map[string]string),
		walletOwners:  make(map[string]string),
	}
}

// GetOrCreate looks up an entity by key, merging the incoming source and
// metadata into it, or creates and registers a new one. The returned entity
// is the arena's copy; its key is stable for the life of the run.
func (g *Graph) GetOrCreate(entityType EntityType, value, label, source string, meta Metadata) *Entity {
	key := EntityKey(entityType, value)

	if i, ok := g.index[key]; ok {
		entity := g.entities[i]
		entity.addSource(source)
		entity.Metadata = MergeMetadata(entity.Metadata, meta)
		if entity.Label == "" {
			entity.Label = label
		}
		return entity
	}

	entity := &Entity{
		Key:      key,
		Type:     entityType,
		Label:    label,
		Metadata: meta,
	}
	entity.addSource(source)
	g.index[key] = len(g.entities)
	g.entities = append(g.entities, entity)
	return entity
}

// Lookup returns the entity registered under key, if any.
func (g *Graph) Lookup(key string) (*Entity, bool) {
	i, ok := g.index[key]
	if !ok {
		return nil, false
	}
	return g.entities[i], true
}

// AddEdge appends a relationship edge and unions each endpoint's linked-key
// set with the other endpoint. Edges are not deduplicated.
func (g *Graph) AddEdge(source, target *Entity, edgeType, label string, amount float64, date string) *Edge {
	edge := &Edge{
		ID:        uuid.New().String(),
		SourceKey: source.Key,
		TargetKey: target.Key,
		Type:      edgeType,
		Label:     label,
		Amount:    amount,
		Date:      date,
	}
	g.edges = append(g.edges, edge)

	source.addLink(target.Key)
	target.addLink(source.Key)

	return edge
}

// Entities returns the arena in creation order.
func (g *Graph) Entities() []*Entity { return g.entities }

// Edges returns the edge list in creation order.
func (g *Graph) Edges() []*Edge { return g.edges }

// registerOwner records that a person owns the given identifier value, for
// later propagation of transaction signal. First registration wins; the
// tables are built only during registry ingestion.
func registerOwner(owners map[string]string, value, personKey string) {
	normalized := Normalize(value)
	if normalized == "" {
		return
	}
	if _, ok := owners[normalized]; !ok {
		owners[normalized] = personKey
	}
}

// owner resolves an identifier value to the owning person entity, if the
// registry declared one.
func (g *Graph) owner(owners map[string]string, value string) (*Entity, bool) {
	key, ok := owners[Normalize(value)]
	if !ok {
		return nil, false
	}
	return g.Lookup(key)
}
