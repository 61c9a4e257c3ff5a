package normalize

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/taxgraph/graph"
	"github.com/teranos/taxgraph/logger"
	"github.com/teranos/taxgraph/taxon"
)

// enforceRankOrder detaches every usage whose comparable rank already occurs
// among its ancestors and flags it CLASSIFICATION_RANK_ORDER_INVALID.
// Nodes are visited in id order; detaching only removes edges, so one sweep
// leaves no lineage with a repeated rank.
func enforceRankOrder(ctx context.Context, store *graph.Store, sink IssueSink, log *zap.SugaredLogger) (int, error) {
	detached := 0
	n := store.Len()
	for id := 0; id < n; id++ {
		if id%defaultBatchSize == 0 {
			if err := checkCancelled(ctx, "enforce rank order"); err != nil {
				return detached, err
			}
		}
		node := graph.NodeID(id)
		u := store.MustNode(node)
		if u.Rank.IsUncomparable() {
			continue
		}
		if !rankRepeatsAbove(store, node, u.Rank) {
			continue
		}
		for _, p := range store.In(node, graph.ParentOf) {
			store.DeleteRel(p, node, graph.ParentOf)
		}
		sink.AddIssue(node, taxon.ClassificationRankOrderInvalid)
		detached++

		log.Debugw("detached usage repeating an ancestor rank",
			logger.FieldNode, node,
			logger.FieldRank, u.Rank.String())
	}
	return detached, nil
}

func rankRepeatsAbove(store *graph.Store, id graph.NodeID, r taxon.Rank) bool {
	for _, a := range store.Ancestors(id) {
		if store.MustNode(a).Rank == r {
			return true
		}
	}
	return false
}
