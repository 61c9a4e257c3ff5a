package graph

import (
	"sort"
	"sync"

	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/taxon"
)

type adjacency [relTypeCount][]NodeID

// Store is an arena of usages with adjacency indexes by source, target and
// type. All methods are safe for concurrent use; Node returns copies so
// callers never share mutable state with the store.
type Store struct {
	mu sync.RWMutex

	nodes []*Usage
	out   []adjacency
	in    []adjacency
	edges map[Edge]struct{}

	byTaxonID     map[string]NodeID
	byName        map[string][]NodeID
	byPlaceholder map[string]NodeID
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		edges:         make(map[Edge]struct{}),
		byTaxonID:     make(map[string]NodeID),
		byName:        make(map[string][]NodeID),
		byPlaceholder: make(map[string]NodeID),
	}
}

// Add appends a usage and returns its handle. The usage starts as ROOT; any
// ID set on u is ignored. A taxonID already present yields ErrConflict.
func (s *Store) Add(u Usage) (NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(u)
}

func (s *Store) addLocked(u Usage) (NodeID, error) {
	if u.TaxonID != "" {
		if existing, ok := s.byTaxonID[u.TaxonID]; ok {
			return NoNode, errors.Wrapf(errors.ErrConflict,
				"taxonID %q already used by node %d", u.TaxonID, existing)
		}
	}

	id := NodeID(len(s.nodes))
	stored := u.clone()
	stored.ID = id
	stored.Root = true

	s.nodes = append(s.nodes, &stored)
	s.out = append(s.out, adjacency{})
	s.in = append(s.in, adjacency{})

	if stored.TaxonID != "" {
		s.byTaxonID[stored.TaxonID] = id
	}
	s.indexName(stored.Name, id)
	if stored.Authorship != "" {
		s.indexName(stored.Label(), id)
	}
	return id, nil
}

func (s *Store) indexName(name string, id NodeID) {
	key := nameKey(name)
	if key == "" {
		return
	}
	s.byName[key] = append(s.byName[key], id)
}

// EnsurePlaceholder returns the usage registered under key, creating it with
// build on first use. build runs under the store lock and must not call
// back into the store. The boolean reports whether a usage was created.
func (s *Store) EnsurePlaceholder(key string, build func() Usage) (NodeID, bool, error) {
	s.mu.RLock()
	id, ok := s.byPlaceholder[key]
	s.mu.RUnlock()
	if ok {
		return id, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byPlaceholder[key]; ok {
		return id, false, nil
	}
	id, err := s.addLocked(build())
	if err != nil {
		return NoNode, false, err
	}
	s.byPlaceholder[key] = id
	return id, true, nil
}

// Len returns the number of usages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Node returns a copy of the usage at id.
func (s *Store) Node(id NodeID) (Usage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.valid(id) {
		return Usage{}, false
	}
	return s.nodes[id].clone(), true
}

// MustNode is Node for handles known to be valid.
func (s *Store) MustNode(id NodeID) Usage {
	u, ok := s.Node(id)
	if !ok {
		panic(errors.AssertionFailedf("node %d does not exist", id))
	}
	return u
}

func (s *Store) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(s.nodes)
}

// ByTaxonID finds a usage by its exact external identifier.
func (s *Store) ByTaxonID(taxonID string) (NodeID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byTaxonID[taxonID]
	return id, ok
}

// ByName returns the usages whose name, or name plus authorship, matches
// case-insensitively, in ascending id order.
func (s *Store) ByName(name string) []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byName[nameKey(name)]
	out := make([]NodeID, len(ids))
	copy(out, ids)
	return out
}

// CreateRel adds an edge. Self loops are refused; an existing edge is left
// alone. It reports whether the edge was created.
func (s *Store) CreateRel(src, dst NodeID, t RelType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if src == dst || !s.valid(src) || !s.valid(dst) {
		return false
	}
	e := Edge{Source: src, Target: dst, Type: t}
	if _, ok := s.edges[e]; ok {
		return false
	}
	s.edges[e] = struct{}{}
	s.out[src][t] = insertSorted(s.out[src][t], dst)
	s.in[dst][t] = insertSorted(s.in[dst][t], src)
	s.updateRoot(src)
	s.updateRoot(dst)
	return true
}

// DeleteRel removes an edge and reports whether it existed.
func (s *Store) DeleteRel(src, dst NodeID, t RelType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := Edge{Source: src, Target: dst, Type: t}
	if _, ok := s.edges[e]; !ok {
		return false
	}
	delete(s.edges, e)
	s.out[src][t] = removeSorted(s.out[src][t], dst)
	s.in[dst][t] = removeSorted(s.in[dst][t], src)
	s.updateRoot(src)
	s.updateRoot(dst)
	return true
}

// HasRel reports whether the edge exists.
func (s *Store) HasRel(src, dst NodeID, t RelType) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.edges[Edge{Source: src, Target: dst, Type: t}]
	return ok
}

// updateRoot keeps ROOT equal to "no incoming PARENT_OF and no outgoing SYNONYM_OF".
func (s *Store) updateRoot(id NodeID) {
	s.nodes[id].Root = len(s.in[id][ParentOf]) == 0 && len(s.out[id][SynonymOf]) == 0
}

// Out returns the targets of id's outgoing edges of type t, ascending.
func (s *Store) Out(id NodeID, t RelType) []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.valid(id) {
		return nil
	}
	return append([]NodeID(nil), s.out[id][t]...)
}

// In returns the sources of id's incoming edges of type t, ascending.
func (s *Store) In(id NodeID, t RelType) []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.valid(id) {
		return nil
	}
	return append([]NodeID(nil), s.in[id][t]...)
}

// Degree returns the number of edges of type t touching id in either direction.
func (s *Store) Degree(id NodeID, t RelType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.valid(id) {
		return 0
	}
	return len(s.out[id][t]) + len(s.in[id][t])
}

// Edges returns every edge of type t ordered by source then target.
func (s *Store) Edges(t RelType) []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Edge
	for src := range s.out {
		for _, dst := range s.out[src][t] {
			out = append(out, Edge{Source: NodeID(src), Target: dst, Type: t})
		}
	}
	return out
}

// EdgeCount returns the number of edges of every type.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

// AddIssue flags id with issue. Implements the normalizer's issue sink.
func (s *Store) AddIssue(id NodeID, issue taxon.Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.valid(id) {
		s.nodes[id].Issues = s.nodes[id].Issues.Add(issue)
	}
}

// AddRemark appends a remark to id unless the same remark is already present.
func (s *Store) AddRemark(id NodeID, remark string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.valid(id) || remark == "" {
		return
	}
	for _, r := range s.nodes[id].Remarks {
		if r == remark {
			return
		}
	}
	s.nodes[id].Remarks = append(s.nodes[id].Remarks, remark)
}

// SetRank changes the rank of id.
func (s *Store) SetRank(id NodeID, r taxon.Rank) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.valid(id) {
		s.nodes[id].Rank = r
	}
}

// SetClassification replaces the flat classification of id.
func (s *Store) SetClassification(id NodeID, c taxon.Classification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.valid(id) {
		s.nodes[id].Classification = c
	}
}

// ClearClassification empties the flat classification of id.
func (s *Store) ClearClassification(id NodeID) {
	s.SetClassification(id, taxon.Classification{})
}

// RegisterPlaceholder binds key to an existing usage so EnsurePlaceholder
// returns it. Used when reloading a previously normalized graph.
func (s *Store) RegisterPlaceholder(key string, id NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.valid(id) {
		s.byPlaceholder[key] = id
	}
}

// PlaceholderKeys returns the placeholder key of every keyed usage.
func (s *Store) PlaceholderKeys() map[NodeID]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[NodeID]string, len(s.byPlaceholder))
	for k, id := range s.byPlaceholder {
		out[id] = k
	}
	return out
}

func insertSorted(ids []NodeID, id NodeID) []NodeID {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

func removeSorted(ids []NodeID, id NodeID) []NodeID {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	if i < len(ids) && ids[i] == id {
		return append(ids[:i], ids[i+1:]...)
	}
	return ids
}
