package normalize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/taxgraph/graph"
	"github.com/teranos/taxgraph/taxon"
)

// checklist builds a store record by record for tests.
type checklist struct {
	t     *testing.T
	store *graph.Store
	meta  *InsertMetadata
}

func newChecklist(t *testing.T) *checklist {
	return &checklist{
		t:     t,
		store: graph.NewStore(),
		meta: &InsertMetadata{
			ParentMapped:   true,
			AcceptedMapped: true,
			BasionymMapped: true,
		},
	}
}

func (c *checklist) add(u graph.Usage) graph.NodeID {
	c.t.Helper()
	id, err := c.store.Add(u)
	require.NoError(c.t, err)
	return id
}

func (c *checklist) accepted(taxonID, name string, rank taxon.Rank) graph.NodeID {
	return c.add(graph.Usage{TaxonID: taxonID, Name: name, Rank: rank, Status: taxon.Accepted})
}

func (c *checklist) child(taxonID, name string, rank taxon.Rank, parentID string) graph.NodeID {
	return c.add(graph.Usage{
		TaxonID:  taxonID,
		Name:     name,
		Rank:     rank,
		Status:   taxon.Accepted,
		Verbatim: &graph.Verbatim{ParentID: parentID},
	})
}

func (c *checklist) synonym(taxonID, name string, rank taxon.Rank, acceptedID string) graph.NodeID {
	return c.add(graph.Usage{
		TaxonID:  taxonID,
		Name:     name,
		Rank:     rank,
		Status:   taxon.Synonym,
		Verbatim: &graph.Verbatim{AcceptedID: acceptedID},
	})
}

func (c *checklist) resolver() *RelationResolver {
	return NewRelationResolver(c.store, c.meta, c.store, 0, 1, zaptest.NewLogger(c.t).Sugar())
}

func (c *checklist) normalize(opts Options) *Result {
	c.t.Helper()
	if opts.Workers == 0 {
		opts.Workers = 1
	}
	res, err := New(c.store, c.meta, opts, zaptest.NewLogger(c.t).Sugar()).Run(context.Background())
	require.NoError(c.t, err)
	return res
}

func (c *checklist) issues(id graph.NodeID) taxon.IssueSet {
	return c.store.MustNode(id).Issues
}

func classification(entries map[string]string) taxon.Classification {
	cl, err := taxon.ClassificationFromMap(entries)
	if err != nil {
		panic(err)
	}
	return cl
}
