package normalize

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/graph"
	"github.com/teranos/taxgraph/logger"
	"github.com/teranos/taxgraph/taxon"
)

// CycleStats counts the repairs made by the cycle resolver.
type CycleStats struct {
	SynonymCyclesCut int `json:"synonym_cycles_cut"`
	ChainsRelinked   int `json:"chains_relinked"`
	ParentCyclesCut  int `json:"parent_cycles_cut"`
}

// CycleResolver repairs cycles and chains. It is global and iterative and
// must not run concurrently with other passes.
type CycleResolver struct {
	store *graph.Store
	sink  IssueSink
	log   *zap.SugaredLogger
	stats CycleStats
}

// NewCycleResolver creates a cycle resolver over store.
func NewCycleResolver(store *graph.Store, sink IssueSink, log *zap.SugaredLogger) *CycleResolver {
	if log == nil {
		log = logger.Logger
	}
	return &CycleResolver{store: store, sink: sink, log: log.Named("cycles")}
}

// Stats returns the counters so far.
func (c *CycleResolver) Stats() CycleStats {
	return c.stats
}

// CutSynonymCycles breaks every SYNONYM_OF cycle. For each cycle found, every
// member is flagged CHAINED_SYNONYM and PARENT_CYCLE and the edge closing the
// cycle is redirected to a new doubtful placeholder.
func (c *CycleResolver) CutSynonymCycles(ctx context.Context) error {
	for {
		if err := checkCancelled(ctx, "cut synonym cycles"); err != nil {
			return err
		}
		edge, members, found := findCycle(c.store, graph.SynonymOf)
		if !found {
			return nil
		}

		for _, m := range members {
			c.sink.AddIssue(m, taxon.ChainedSynonym)
			c.sink.AddIssue(m, taxon.ParentCycle)
		}
		c.store.DeleteRel(edge.Source, edge.Target, graph.SynonymOf)

		ph, _, err := c.store.EnsurePlaceholder(cycleKey(edge.Source), cyclePlaceholder)
		if err != nil {
			return errors.Wrapf(err, "cycle placeholder for node %d", edge.Source)
		}
		c.store.CreateRel(edge.Source, ph, graph.SynonymOf)
		c.stats.SynonymCyclesCut++

		c.log.Infow("cut synonym cycle",
			logger.FieldNode, edge.Source,
			logger.FieldCount, len(members))
	}
}

// RelinkSynonymChains points every synonym whose target is itself a synonym
// directly at the terminal accepted usages of its chain, flagging
// CHAINED_SYNONYM. Synonym cycles must be cut first.
func (c *CycleResolver) RelinkSynonymChains(ctx context.Context) error {
	for {
		if err := checkCancelled(ctx, "relink synonym chains"); err != nil {
			return err
		}
		changed := false
		for _, e := range c.store.Edges(graph.SynonymOf) {
			if len(c.store.Out(e.Target, graph.SynonymOf)) == 0 {
				continue
			}
			terminals := c.store.Terminals(e.Target, graph.SynonymOf)
			var usable []graph.NodeID
			for _, t := range terminals {
				if t != e.Source {
					usable = append(usable, t)
				}
			}
			if len(usable) == 0 {
				continue
			}

			c.sink.AddIssue(e.Source, taxon.ChainedSynonym)
			c.store.DeleteRel(e.Source, e.Target, graph.SynonymOf)
			for _, t := range usable {
				c.store.CreateRel(e.Source, t, graph.SynonymOf)
			}
			c.stats.ChainsRelinked++
			changed = true

			c.log.Debugw("relinked synonym chain",
				logger.FieldNode, e.Source,
				"via", e.Target,
				logger.FieldCount, len(usable))
		}
		if !changed {
			return nil
		}
	}
}

// CutParentCycles breaks every PARENT_OF cycle by detaching the member with
// the coarsest rank from its parent. The detached node is flagged PARENT_CYCLE.
func (c *CycleResolver) CutParentCycles(ctx context.Context) error {
	for {
		if err := checkCancelled(ctx, "cut parent cycles"); err != nil {
			return err
		}
		_, members, found := findCycle(c.store, graph.ParentOf)
		if !found {
			return nil
		}

		victim := coarsest(c.store, members)
		inCycle := make(map[graph.NodeID]bool, len(members))
		for _, m := range members {
			inCycle[m] = true
		}
		for _, p := range c.store.In(victim, graph.ParentOf) {
			if inCycle[p] {
				c.store.DeleteRel(p, victim, graph.ParentOf)
			}
		}
		c.sink.AddIssue(victim, taxon.ParentCycle)
		c.stats.ParentCyclesCut++

		c.log.Infow("cut parent cycle",
			logger.FieldNode, victim,
			logger.FieldCount, len(members))
	}
}

// coarsest picks the member with the highest comparable rank, lowest id on
// ties. Without any comparable rank the lowest id wins.
func coarsest(store *graph.Store, members []graph.NodeID) graph.NodeID {
	best := graph.NoNode
	bestRank := taxon.Unranked
	for _, m := range members {
		r := store.MustNode(m).Rank
		switch {
		case best == graph.NoNode:
			best, bestRank = m, r
		case r.HigherThan(bestRank) || (bestRank.IsUncomparable() && r.IsComparable()):
			best, bestRank = m, r
		case r == bestRank && m < best:
			best = m
		case bestRank.IsUncomparable() && r.IsUncomparable() && m < best:
			best = m
		}
	}
	return best
}

// findCycle runs a depth-first search over edges of type t, starting from
// the lowest node id, and returns the first back edge found together with
// the members of the cycle it closes.
func findCycle(store *graph.Store, t graph.RelType) (graph.Edge, []graph.NodeID, bool) {
	const (
		white = iota
		grey
		black
	)
	type frame struct {
		id   graph.NodeID
		outs []graph.NodeID
		next int
	}

	n := store.Len()
	state := make([]uint8, n)
	for root := 0; root < n; root++ {
		if state[root] != white {
			continue
		}
		state[root] = grey
		stack := []frame{{id: graph.NodeID(root), outs: store.Out(graph.NodeID(root), t)}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next == len(top.outs) {
				state[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			next := top.outs[top.next]
			top.next++

			switch state[next] {
			case grey:
				start := len(stack) - 1
				for stack[start].id != next {
					start--
				}
				members := make([]graph.NodeID, 0, len(stack)-start)
				for _, f := range stack[start:] {
					members = append(members, f.id)
				}
				return graph.Edge{Source: top.id, Target: next, Type: t}, members, true
			case white:
				state[next] = grey
				stack = append(stack, frame{id: next, outs: store.Out(next, t)})
			}
		}
	}
	return graph.Edge{}, nil, false
}

func checkCancelled(ctx context.Context, pass string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.CombineErrors(errors.ErrCancelled, err), pass)
	}
	return nil
}
