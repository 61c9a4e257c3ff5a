package normalize

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/taxgraph/graph"
	"github.com/teranos/taxgraph/logger"
	"github.com/teranos/taxgraph/taxon"
)

// PrioritizerStats counts the parent edges the prioritizer moved or dropped.
type PrioritizerStats struct {
	Synonyms      int `json:"synonyms"`
	ChildrenMoved int `json:"children_moved"`
	ParentsMoved  int `json:"parents_moved"`
	EdgesDropped  int `json:"edges_dropped"`
}

// RelationPrioritizer makes synonym status and parent status mutually
// exclusive: parent edges held by a synonym are removed and, where it makes
// sense, transplanted onto its accepted usages.
type RelationPrioritizer struct {
	store *graph.Store
	sink  IssueSink
	log   *zap.SugaredLogger
	stats PrioritizerStats
}

// NewRelationPrioritizer creates a prioritizer over store.
func NewRelationPrioritizer(store *graph.Store, sink IssueSink, log *zap.SugaredLogger) *RelationPrioritizer {
	if log == nil {
		log = logger.Logger
	}
	return &RelationPrioritizer{store: store, sink: sink, log: log.Named("prioritize")}
}

// Run processes every synonym in ascending id order.
func (p *RelationPrioritizer) Run(ctx context.Context) (PrioritizerStats, error) {
	n := p.store.Len()
	for id := 0; id < n; id++ {
		if id%defaultBatchSize == 0 {
			if err := checkCancelled(ctx, "relation prioritizer"); err != nil {
				return p.stats, err
			}
		}
		if p.store.IsSynonymNode(graph.NodeID(id)) {
			p.prioritize(graph.NodeID(id))
		}
	}
	return p.stats, nil
}

func (p *RelationPrioritizer) prioritize(s graph.NodeID) {
	syn := p.store.MustNode(s)
	if !syn.Classification.IsEmpty() {
		cl := syn.Classification.Copy()
		cl.ClearRankAndBelow(taxon.Genus)
		p.store.SetClassification(s, cl)
	}

	children := p.store.Out(s, graph.ParentOf)
	parents := p.store.In(s, graph.ParentOf)
	if len(children) == 0 && len(parents) == 0 {
		return
	}
	p.stats.Synonyms++
	p.sink.AddIssue(s, taxon.SynonymParent)

	accepted := p.store.AcceptedOf(s)
	isAccepted := make(map[graph.NodeID]bool, len(accepted))
	for _, a := range accepted {
		isAccepted[a] = true
	}
	remark := "parent relation taken from synonym " + syn.Label()

	for _, child := range children {
		p.store.DeleteRel(s, child, graph.ParentOf)
		if isAccepted[child] || len(accepted) == 0 {
			p.stats.EdgesDropped++
			continue
		}
		// lowest id among pro parte targets
		pick := accepted[0]
		if p.store.CreateRel(pick, child, graph.ParentOf) {
			p.sink.AddRemark(child, remark)
			p.stats.ChildrenMoved++
		}
	}

	for _, parent := range parents {
		parentRank := p.store.MustNode(parent).Rank
		for _, acc := range accepted {
			if len(p.store.In(acc, graph.ParentOf)) > 0 {
				continue
			}
			accRank := p.store.MustNode(acc).Rank
			if parent != acc && (parentRank.IsUncomparable() || parentRank.HigherThan(accRank)) {
				if p.store.CreateRel(parent, acc, graph.ParentOf) {
					p.sink.AddRemark(acc, remark)
					p.stats.ParentsMoved++
				}
			}
		}
		p.store.DeleteRel(parent, s, graph.ParentOf)
	}

	p.log.Debugw("removed synonym parent relations",
		logger.FieldNode, s,
		"children", len(children),
		"parents", len(parents))
}
