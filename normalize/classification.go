package normalize

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/graph"
	"github.com/teranos/taxgraph/logger"
	"github.com/teranos/taxgraph/taxon"
)

// ClassificationStats counts what the classification reconciler did.
type ClassificationStats struct {
	Applied      int `json:"applied"`
	NotApplied   int `json:"not_applied"`
	Created      int `json:"created"`
	Reused       int `json:"reused"`
	RanksDerived int `json:"ranks_derived"`
}

// ClassificationReconciler folds each node's flat classification into the
// parent chain above it, reusing matching higher taxa where they fit and
// creating them where they don't. The classification is consumed: it is
// cleared once applied, so a second run is a no-op.
type ClassificationReconciler struct {
	store     *graph.Store
	sink      IssueSink
	log       *zap.SugaredLogger
	batchSize int
	stats     ClassificationStats
}

// NewClassificationReconciler creates a reconciler over store.
func NewClassificationReconciler(store *graph.Store, sink IssueSink, batchSize int, log *zap.SugaredLogger) *ClassificationReconciler {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if log == nil {
		log = logger.Logger
	}
	return &ClassificationReconciler{
		store:     store,
		sink:      sink,
		log:       log.Named("classification"),
		batchSize: batchSize,
	}
}

// Run applies the classification of every node present when it starts.
// Nodes it creates carry no classification of their own.
func (c *ClassificationReconciler) Run(ctx context.Context) (ClassificationStats, error) {
	total := c.store.Len()
	progress := logger.NewProgress(c.log, "classification", total, progressInterval)

	for id := 0; id < total; id++ {
		if id%c.batchSize == 0 {
			if err := checkCancelled(ctx, "classification reconciler"); err != nil {
				return c.stats, err
			}
			progress.Update(id)
		}
		if err := c.Apply(graph.NodeID(id)); err != nil {
			return c.stats, err
		}
	}
	return c.stats, nil
}

// Apply reconciles one node's classification.
func (c *ClassificationReconciler) Apply(id graph.NodeID) error {
	u, ok := c.store.Node(id)
	if !ok {
		return errors.NewNotFoundError("node %d", id)
	}
	if u.Classification.IsEmpty() {
		return nil
	}
	defer c.store.ClearClassification(id)

	highestID := id
	if ancestors := c.store.Ancestors(id); len(ancestors) > 0 {
		highestID = ancestors[len(ancestors)-1]
	}
	highest := c.store.MustNode(highestID)

	if highestID != id && highest.Rank.IsComparable() {
		c.sink.AddIssue(id, taxon.ClassificationNotApplied)
		c.stats.NotApplied++
		return nil
	}
	if highest.Rank == taxon.Kingdom {
		return nil
	}

	cl := u.Classification.Copy()
	highestIsSynonym := c.store.IsSynonymNode(highestID)

	// an unranked highest usage named like the finest entry is that entry
	if highest.Rank.IsUncomparable() {
		if lowest, ok := cl.LowestExistingRank(); ok && strings.EqualFold(cl.ByRank(lowest), highest.Name) {
			cl.Clear(lowest)
			c.store.SetRank(highestID, lowest)
			highest.Rank = lowest
			c.stats.RanksDerived++
		}
	}
	if !highestIsSynonym && highest.Rank.IsComparable() {
		cl.Clear(highest.Rank)
	}
	if highestIsSynonym {
		cl.ClearRankAndBelow(taxon.Genus)
	}

	parent := graph.NoNode
	parentRank := taxon.Unranked
	for _, e := range cl.Entries() {
		if highest.Rank.IsComparable() && !e.Rank.NotLowerThan(highest.Rank) {
			continue
		}

		cand := c.findCandidate(e, parent, parentRank, id, highestID, &u.Classification)
		if cand == graph.NoNode {
			created, err := c.store.Add(graph.Usage{
				Name:   e.Name,
				Rank:   e.Rank,
				Status: taxon.Accepted,
				Origin: taxon.DenormedClassification,
			})
			if err != nil {
				return errors.Wrapf(err, "create %s %s", e.Rank, e.Name)
			}
			c.stats.Created++
			if parent != graph.NoNode {
				c.store.CreateRel(parent, created, graph.ParentOf)
			}
			cand = created
		} else {
			c.stats.Reused++
			if c.store.MustNode(cand).Rank == taxon.Unranked {
				c.store.SetRank(cand, e.Rank)
				c.stats.RanksDerived++
			}
			if _, has := c.store.Parent(cand); !has && parent != graph.NoNode {
				c.store.CreateRel(parent, cand, graph.ParentOf)
			}
		}
		parent, parentRank = cand, e.Rank
	}

	if parent != graph.NoNode {
		c.store.CreateRel(parent, highestID, graph.ParentOf)
		c.stats.Applied++
	}
	return nil
}

// findCandidate looks for an existing usage to reuse for one classification
// entry. The first entry only reuses usages without a ranked ancestor; later
// entries only reuse usages already placed under the previous entry.
func (c *ClassificationReconciler) findCandidate(e taxon.Entry, parent graph.NodeID, parentRank taxon.Rank,
	self, highest graph.NodeID, cl *taxon.Classification) graph.NodeID {
	for _, cid := range c.store.ByName(e.Name) {
		if cid == self || cid == highest || c.store.IsSynonymNode(cid) {
			continue
		}
		cu := c.store.MustNode(cid)
		if cu.Rank != e.Rank && cu.Rank != taxon.Unranked {
			continue
		}

		if parent == graph.NoNode {
			if !c.hasRankedAncestor(cid) {
				return cid
			}
			continue
		}

		p, hasParent := c.store.Parent(cid)
		if hasParent && p == parent {
			return cid
		}
		if a, ok := c.store.AncestorWithRank(cid, parentRank); ok && a == parent {
			return cid
		}
		if !hasParent && cu.Classification.EqualsAboveRank(cl, e.Rank) {
			return cid
		}
	}
	return graph.NoNode
}

func (c *ClassificationReconciler) hasRankedAncestor(id graph.NodeID) bool {
	for _, a := range c.store.Ancestors(id) {
		if c.store.MustNode(a).Rank.IsComparable() {
			return true
		}
	}
	return false
}
