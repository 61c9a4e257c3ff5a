package normalize

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/taxgraph/graph"
	"github.com/teranos/taxgraph/logger"
	"github.com/teranos/taxgraph/taxon"
)

// BasionymChainCutter removes BASIONYM_OF chains: a usage cannot both have a
// basionym and be the basionym of another usage.
type BasionymChainCutter struct {
	store *graph.Store
	sink  IssueSink
	log   *zap.SugaredLogger
	cut   int
}

// NewBasionymChainCutter creates a chain cutter over store.
func NewBasionymChainCutter(store *graph.Store, sink IssueSink, log *zap.SugaredLogger) *BasionymChainCutter {
	if log == nil {
		log = logger.Logger
	}
	return &BasionymChainCutter{store: store, sink: sink, log: log.Named("basionym")}
}

// Run repeatedly finds a chain b -> m -> r and deletes the edge whose
// basionym has fewer recombinations: b -> m when b is used less than m,
// m -> r otherwise. Both ends of the deleted edge are flagged CHAINED_BASIONYM.
// It returns the number of edges deleted.
func (c *BasionymChainCutter) Run(ctx context.Context) (int, error) {
	for {
		if err := checkCancelled(ctx, "cut basionym chains"); err != nil {
			return c.cut, err
		}
		e, found := c.nextCut()
		if !found {
			return c.cut, nil
		}
		c.store.DeleteRel(e.Source, e.Target, graph.BasionymOf)
		c.sink.AddIssue(e.Source, taxon.ChainedBasionym)
		c.sink.AddIssue(e.Target, taxon.ChainedBasionym)
		c.cut++

		c.log.Debugw("cut basionym chain", "basionym", e.Source, "recombination", e.Target)
	}
}

func (c *BasionymChainCutter) nextCut() (graph.Edge, bool) {
	for _, first := range c.store.Edges(graph.BasionymOf) {
		mid := first.Target
		onward := c.store.Out(mid, graph.BasionymOf)
		if len(onward) == 0 {
			continue
		}
		second := graph.Edge{Source: mid, Target: onward[0], Type: graph.BasionymOf}

		d1 := len(c.store.Out(first.Source, graph.BasionymOf))
		d2 := len(onward)
		if d1 < d2 {
			return first, true
		}
		return second, true
	}
	return graph.Edge{}, false
}
