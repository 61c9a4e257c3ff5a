package normalize

import (
	"fmt"

	"github.com/teranos/taxgraph/graph"
	"github.com/teranos/taxgraph/taxon"
)

// Check names one structural rule of a normalized graph.
type Check string

const (
	CheckParentAcyclic    Check = "parent_acyclic"
	CheckSynonymAcyclic   Check = "synonym_acyclic"
	CheckRootFlag         Check = "root_flag"
	CheckSynonymDepth     Check = "synonym_depth"
	CheckSynonymParent    Check = "synonym_parent"
	CheckSingleParent     Check = "single_parent"
	CheckRankOrder        Check = "rank_order"
	CheckSynonymClassific Check = "synonym_classification"
)

// Violation is a rule broken by one node.
type Violation struct {
	Check   Check        `json:"check"`
	Node    graph.NodeID `json:"node"`
	Message string       `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: node %d: %s", v.Check, v.Node, v.Message)
}

// Verify checks a normalized graph and returns every violation found,
// ordered by check and node id. A nil result means the graph is clean.
func Verify(store *graph.Store) []Violation {
	var out []Violation

	for _, t := range []graph.RelType{graph.ParentOf, graph.SynonymOf} {
		if e, members, found := findCycle(store, t); found {
			check := CheckParentAcyclic
			if t == graph.SynonymOf {
				check = CheckSynonymAcyclic
			}
			out = append(out, Violation{
				Check:   check,
				Node:    e.Source,
				Message: fmt.Sprintf("%s cycle through %d nodes", t, len(members)),
			})
		}
	}

	n := store.Len()
	for i := 0; i < n; i++ {
		id := graph.NodeID(i)
		u := store.MustNode(id)

		parents := store.In(id, graph.ParentOf)
		accepted := store.Out(id, graph.SynonymOf)

		wantRoot := len(parents) == 0 && len(accepted) == 0
		if u.Root != wantRoot {
			out = append(out, Violation{CheckRootFlag, id, fmt.Sprintf("root=%t with %d parents and %d accepted", u.Root, len(parents), len(accepted))})
		}
		if len(parents) > 1 {
			out = append(out, Violation{CheckSingleParent, id, fmt.Sprintf("%d parents", len(parents))})
		}

		if u.IsSynonym() {
			if len(accepted) == 0 {
				out = append(out, Violation{CheckSynonymDepth, id, "synonym without accepted usage"})
			}
			for _, a := range accepted {
				if len(store.Out(a, graph.SynonymOf)) > 0 {
					out = append(out, Violation{CheckSynonymDepth, id, fmt.Sprintf("accepted usage %d is itself a synonym", a)})
				}
			}
			if len(parents) > 0 || len(store.Out(id, graph.ParentOf)) > 0 {
				out = append(out, Violation{CheckSynonymParent, id, "synonym holds parent relations"})
			}
			if r, ok := u.Classification.LowestExistingRank(); ok && !r.HigherThan(taxon.Genus) {
				out = append(out, Violation{CheckSynonymClassific, id, "synonym classification at " + r.String()})
			}
		}

		if u.Rank.IsComparable() && rankRepeatsAbove(store, id, u.Rank) {
			out = append(out, Violation{CheckRankOrder, id, u.Rank.String() + " repeats in lineage"})
		}
	}
	return out
}
