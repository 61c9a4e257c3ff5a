package normalize

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/graph"
	"github.com/teranos/taxgraph/logger"
	"github.com/teranos/taxgraph/taxon"
)

// RelationStats counts what the relation resolver did.
type RelationStats struct {
	Processed     int64 `json:"processed"`
	SynonymEdges  int64 `json:"synonym_edges"`
	ParentEdges   int64 `json:"parent_edges"`
	BasionymEdges int64 `json:"basionym_edges"`
	Placeholders  int64 `json:"placeholders"`
}

// RelationResolver turns verbatim accepted, parent and basionym references
// into edges. Nodes are processed in batches; within a batch up to Workers
// nodes resolve concurrently. Placeholders appended during the pass are
// resolved as well.
type RelationResolver struct {
	store     *graph.Store
	meta      *InsertMetadata
	sink      IssueSink
	lookup    *lookup
	log       *zap.SugaredLogger
	batchSize int
	workers   int

	processed, synonyms, parents, basionyms, placeholders atomic.Int64
}

// NewRelationResolver creates a resolver over store.
func NewRelationResolver(store *graph.Store, meta *InsertMetadata, sink IssueSink, batchSize, workers int, log *zap.SugaredLogger) *RelationResolver {
	if meta == nil {
		meta = &InsertMetadata{}
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = logger.Logger
	}
	return &RelationResolver{
		store:     store,
		meta:      meta,
		sink:      sink,
		lookup:    &lookup{store: store, sink: sink},
		log:       log.Named("relations"),
		batchSize: batchSize,
		workers:   workers,
	}
}

// Run resolves every node. Cancellation is checked between batches.
func (r *RelationResolver) Run(ctx context.Context) (RelationStats, error) {
	progress := logger.NewProgress(r.log, "relations", r.store.Len(), progressInterval)

	next := 0
	for next < r.store.Len() {
		if err := checkCancelled(ctx, "relation resolver"); err != nil {
			return r.Stats(), err
		}

		end := next + r.batchSize
		if n := r.store.Len(); end > n {
			end = n
		}

		g := new(errgroup.Group)
		g.SetLimit(r.workers)
		for id := next; id < end; id++ {
			id := graph.NodeID(id)
			g.Go(func() error {
				return r.ResolveNode(id)
			})
		}
		if err := g.Wait(); err != nil {
			return r.Stats(), errors.Wrap(err, "relation resolver")
		}

		r.log.Debugw("batch resolved", logger.FieldCount, end-next, "next", end)
		next = end
		progress.Update(next)
	}
	return r.Stats(), nil
}

// Stats returns the counters so far.
func (r *RelationResolver) Stats() RelationStats {
	return RelationStats{
		Processed:     r.processed.Load(),
		SynonymEdges:  r.synonyms.Load(),
		ParentEdges:   r.parents.Load(),
		BasionymEdges: r.basionyms.Load(),
		Placeholders:  r.placeholders.Load(),
	}
}

// ResolveNode resolves the relations of a single node. It is idempotent.
func (r *RelationResolver) ResolveNode(id graph.NodeID) error {
	u, ok := r.store.Node(id)
	if !ok {
		return errors.NewNotFoundError("node %d", id)
	}
	r.processed.Add(1)

	if u.IsSynonym() {
		if err := r.resolveAccepted(&u); err != nil {
			return err
		}
	}
	if u.Verbatim == nil {
		return nil
	}
	// placeholders carry copied parent refs regardless of what was mapped
	if r.meta.ParentMapped || u.Origin.IsPlaceholder() {
		if err := r.resolveParent(&u); err != nil {
			return err
		}
	}
	if r.meta.BasionymMapped {
		if err := r.resolveBasionym(&u); err != nil {
			return err
		}
	}
	return nil
}

func (r *RelationResolver) resolveAccepted(u *graph.Usage) error {
	var targets []graph.NodeID
	v := u.Verbatim

	if r.meta.AcceptedMapped && v != nil {
		targets = r.lookup.byID(v.AcceptedID, u, r.meta.DelimitersFor(FieldAccepted))
		if len(targets) == 0 && hasForeignID(v.AcceptedID, u) {
			r.sink.AddIssue(u.ID, taxon.AcceptedNameUsageIDInvalid)
		}
		if len(targets) == 0 {
			id, created, err := r.lookup.byName(v.AcceptedName, u, taxon.VerbatimAccepted)
			if err != nil {
				return err
			}
			r.countPlaceholder(created)
			if id != graph.NoNode {
				targets = []graph.NodeID{id}
			}
		}
	}

	if len(targets) == 0 {
		r.sink.AddIssue(u.ID, taxon.AcceptedNameMissing)
		id, created, err := r.store.EnsurePlaceholder(missingAcceptedKey(u.ID), func() graph.Usage {
			return missingAcceptedPlaceholder(u)
		})
		if err != nil {
			return errors.Wrapf(err, "missing accepted placeholder for node %d", u.ID)
		}
		r.countPlaceholder(created)
		targets = []graph.NodeID{id}
	}

	for _, t := range targets {
		if r.store.CreateRel(u.ID, t, graph.SynonymOf) {
			r.synonyms.Add(1)
		}
	}
	return nil
}

func (r *RelationResolver) resolveParent(u *graph.Usage) error {
	v := u.Verbatim
	parent, ok := r.lookup.byIDSingle(v.ParentID, u)
	if !ok && hasForeignID(v.ParentID, u) {
		r.sink.AddIssue(u.ID, taxon.ParentNameUsageIDInvalid)
	}
	if !ok {
		id, created, err := r.lookup.byName(v.ParentName, u, taxon.VerbatimParent)
		if err != nil {
			return err
		}
		r.countPlaceholder(created)
		parent, ok = id, id != graph.NoNode
	}
	if ok && r.store.CreateRel(parent, u.ID, graph.ParentOf) {
		r.parents.Add(1)
	}
	return nil
}

func (r *RelationResolver) resolveBasionym(u *graph.Usage) error {
	v := u.Verbatim
	basionym, ok := r.lookup.byIDSingle(v.BasionymID, u)
	if !ok && hasForeignID(v.BasionymID, u) {
		r.sink.AddIssue(u.ID, taxon.OriginalNameUsageIDInvalid)
	}
	if !ok {
		id, created, err := r.lookup.byName(v.BasionymName, u, taxon.VerbatimBasionym)
		if err != nil {
			return err
		}
		r.countPlaceholder(created)
		basionym, ok = id, id != graph.NoNode
	}
	if ok && r.store.CreateRel(basionym, u.ID, graph.BasionymOf) {
		r.basionyms.Add(1)
	}
	return nil
}

func (r *RelationResolver) countPlaceholder(created bool) {
	if created {
		r.placeholders.Add(1)
	}
}
