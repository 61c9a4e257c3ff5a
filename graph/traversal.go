package graph

import "github.com/teranos/taxgraph/taxon"

// Parent returns the lowest-id parent of id.
func (s *Store) Parent(id NodeID) (NodeID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.valid(id) || len(s.in[id][ParentOf]) == 0 {
		return NoNode, false
	}
	return s.in[id][ParentOf][0], true
}

// Ancestors walks PARENT_OF upwards from id, nearest first. The walk stops
// at the first repeated node so it terminates on cyclic input.
func (s *Store) Ancestors(id NodeID) []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ancestorsLocked(id)
}

func (s *Store) ancestorsLocked(id NodeID) []NodeID {
	if !s.valid(id) {
		return nil
	}
	var out []NodeID
	seen := map[NodeID]bool{id: true}
	cur := id
	for len(s.in[cur][ParentOf]) > 0 {
		p := s.in[cur][ParentOf][0]
		if seen[p] {
			break
		}
		seen[p] = true
		out = append(out, p)
		cur = p
	}
	return out
}

// AncestorWithRank returns the nearest ancestor of id at rank r.
func (s *Store) AncestorWithRank(id NodeID, r taxon.Rank) (NodeID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.ancestorsLocked(id) {
		if s.nodes[a].Rank == r {
			return a, true
		}
	}
	return NoNode, false
}

// Reachable reports whether to can be reached from from by following one or
// more edges of type t.
func (s *Store) Reachable(from, to NodeID, t RelType) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.valid(from) || !s.valid(to) {
		return false
	}
	seen := map[NodeID]bool{}
	stack := append([]NodeID(nil), s.out[from][t]...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == to {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		stack = append(stack, s.out[cur][t]...)
	}
	return false
}

// Terminals returns the nodes reachable from id over edges of type t that
// have no outgoing edge of that type, ascending. Nodes on a cycle without an
// exit are never terminal.
func (s *Store) Terminals(id NodeID, t RelType) []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.valid(id) {
		return nil
	}
	var out []NodeID
	seen := map[NodeID]bool{id: true}
	stack := append([]NodeID(nil), s.out[id][t]...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		if len(s.out[cur][t]) == 0 {
			out = insertSorted(out, cur)
			continue
		}
		stack = append(stack, s.out[cur][t]...)
	}
	return out
}

// AcceptedOf returns the targets of id's SYNONYM_OF edges.
func (s *Store) AcceptedOf(id NodeID) []NodeID {
	return s.Out(id, SynonymOf)
}

// IsSynonymNode reports whether id has synonym status or an outgoing SYNONYM_OF edge.
func (s *Store) IsSynonymNode(id NodeID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.valid(id) {
		return false
	}
	return s.nodes[id].Status.IsSynonym() || len(s.out[id][SynonymOf]) > 0
}
