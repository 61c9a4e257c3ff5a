package normalize

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/graph"
	"github.com/teranos/taxgraph/taxon"
)

func TestSynonymOfAcceptedRoot(t *testing.T) {
	c := newChecklist(t)
	t1 := c.accepted("t1", "Larus argentatus", taxon.Species)
	t2 := c.synonym("t2", "Larus argentatus var. major", taxon.Species, "t1")

	c.normalize(Options{Verify: true})

	assert.True(t, c.store.HasRel(t2, t1, graph.SynonymOf))
	assert.True(t, c.store.MustNode(t1).Root)
	assert.False(t, c.store.MustNode(t2).Root)
	assert.Zero(t, c.store.Degree(t2, graph.ParentOf))
	assert.Equal(t, 2, c.store.Len(), "no placeholders")
}

func TestNormalizeClassificationChain(t *testing.T) {
	c := newChecklist(t)
	c.meta.ClassificationMapped = true
	t1 := c.add(graph.Usage{
		TaxonID:        "t1",
		Name:           "Larus argentatus",
		Rank:           taxon.Species,
		Status:         taxon.Accepted,
		Classification: classification(map[string]string{"family": "Laridae", "genus": "Larus"}),
	})

	res := c.normalize(Options{Verify: true})
	assert.Empty(t, res.Violations)
	assert.True(t, res.ClassificationApplied)

	larus := c.store.ByName("Larus")
	require.Len(t, larus, 1)
	laridae := c.store.ByName("Laridae")
	require.Len(t, laridae, 1)

	assert.Equal(t, taxon.Genus, c.store.MustNode(larus[0]).Rank)
	assert.Equal(t, taxon.Family, c.store.MustNode(laridae[0]).Rank)
	assert.Equal(t, taxon.DenormedClassification, c.store.MustNode(larus[0]).Origin)

	assert.True(t, c.store.HasRel(laridae[0], larus[0], graph.ParentOf))
	assert.True(t, c.store.HasRel(larus[0], t1, graph.ParentOf))
	assert.True(t, c.store.MustNode(laridae[0]).Root)
	assert.False(t, c.store.MustNode(t1).Root)
	assert.True(t, c.store.MustNode(t1).Classification.IsEmpty(), "classification is consumed")
}

func TestNormalizeClassificationOff(t *testing.T) {
	c := newChecklist(t)
	c.meta.ClassificationMapped = true
	c.add(graph.Usage{
		Name:           "Larus argentatus",
		Rank:           taxon.Species,
		Classification: classification(map[string]string{"genus": "Larus"}),
	})

	off := false
	res := c.normalize(Options{Classification: &off})

	assert.False(t, res.ClassificationApplied)
	assert.Empty(t, c.store.ByName("Larus"))
}

// messyChecklist exercises every repair at once.
func messyChecklist(t *testing.T) *checklist {
	c := newChecklist(t)
	c.meta.ClassificationMapped = true

	c.accepted("k", "Animalia", taxon.Kingdom)
	c.child("f", "Laridae", taxon.Family, "k")
	c.child("g", "Larus", taxon.Genus, "f")
	c.child("s1", "Larus argentatus", taxon.Species, "g")
	c.child("s2", "Larus smithsonianus", taxon.Species, "g")

	// synonym with a parent and a child of its own
	c.add(graph.Usage{
		TaxonID: "syn1", Name: "Larus major", Rank: taxon.Species, Status: taxon.Synonym,
		Verbatim:       &graph.Verbatim{AcceptedID: "s1", ParentID: "g"},
		Classification: classification(map[string]string{"family": "Laridae", "genus": "Larus"}),
	})
	c.child("sub1", "Larus major minor", taxon.Subspecies, "syn1")

	// synonym cycle and chain
	c.synonym("cyc1", "Larus alpha", taxon.Species, "cyc2")
	c.synonym("cyc2", "Larus beta", taxon.Species, "cyc1")
	c.synonym("ch1", "Larus gamma", taxon.Species, "ch2")
	c.synonym("ch2", "Larus delta", taxon.Species, "s2")

	// dangling and missing references
	c.synonym("miss", "Larus orphanus", taxon.Species, "nope")
	c.child("badparent", "Larus perditus", taxon.Species, "zzz")
	c.add(graph.Usage{
		TaxonID: "byname", Name: "Larus nominatus", Rank: taxon.Species, Status: taxon.Accepted,
		Verbatim: &graph.Verbatim{ParentName: "Unknownia"},
	})
	c.add(graph.Usage{
		TaxonID: "ghost", Name: "Larus fantasma", Rank: taxon.Species, Status: taxon.Synonym,
		Verbatim: &graph.Verbatim{AcceptedName: "Larus spectrum", ParentName: "Larus"},
	})

	// parent cycle and repeated rank
	c.child("pc1", "Alphagenus", taxon.Genus, "pc2")
	c.child("pc2", "Betagenus", taxon.Genus, "pc1")
	c.child("f2", "Subridae", taxon.Family, "f")

	// basionym chain
	c.accepted("b1", "Sterna hirundo", taxon.Species)
	c.add(graph.Usage{TaxonID: "b2", Name: "Hirundo sterna", Rank: taxon.Species, Verbatim: &graph.Verbatim{BasionymID: "b1"}})
	c.add(graph.Usage{TaxonID: "b3", Name: "Sternula hirundo", Rank: taxon.Species, Verbatim: &graph.Verbatim{BasionymID: "b2"}})

	// denormalized classification only
	c.add(graph.Usage{
		TaxonID: "cl1", Name: "Sterna paradisaea", Rank: taxon.Species, Status: taxon.Accepted,
		Classification: classification(map[string]string{"kingdom": "Animalia", "family": "Sternidae", "genus": "Sterna"}),
	})
	c.add(graph.Usage{
		TaxonID: "cl2", Name: "Sterna dougallii", Rank: taxon.Species, Status: taxon.Accepted,
		Classification: classification(map[string]string{"kingdom": "Animalia", "family": "Sternidae", "genus": "Sterna"}),
	})
	return c
}

func TestNormalizeMessyChecklistVerifies(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			c := messyChecklist(t)
			res := c.normalize(Options{Workers: workers, Verify: true, Strict: true})

			assert.Empty(t, res.Violations)
			assert.Positive(t, res.Placeholders)
			assert.Equal(t, c.store.Len(), res.Nodes)
			assert.Equal(t, 1, res.Cycles.SynonymCyclesCut)
			assert.Equal(t, 1, res.Cycles.ParentCyclesCut)
			assert.Equal(t, 1, res.BasionymsCut)
			assert.Positive(t, res.IssueTotal())

			for name, check := range map[string]func(*testing.T, *graph.Store){
				"acyclic":            assertAcyclic,
				"synonym depth":      assertSynonymDepth,
				"mutual exclusivity": assertNoSynonymParents,
				"no duplicate rank":  assertNoDuplicateRank,
				"root flag":          assertRootFlags,
				"single parent":      assertSingleParent,
			} {
				t.Run(name, func(t *testing.T) { check(t, c.store) })
			}
		})
	}
}

func TestNormalizeMessyChecklistIssues(t *testing.T) {
	c := messyChecklist(t)
	c.normalize(Options{Workers: 1})

	id := func(taxonID string) graph.NodeID {
		n, ok := c.store.ByTaxonID(taxonID)
		require.True(t, ok, taxonID)
		return n
	}

	assert.True(t, c.issues(id("syn1")).Has(taxon.SynonymParent))
	assert.True(t, c.issues(id("cyc1")).Has(taxon.ParentCycle))
	assert.True(t, c.issues(id("cyc2")).Has(taxon.ChainedSynonym))
	assert.True(t, c.issues(id("ch1")).Has(taxon.ChainedSynonym))
	assert.True(t, c.issues(id("miss")).Has(taxon.AcceptedNameUsageIDInvalid))
	assert.True(t, c.issues(id("miss")).Has(taxon.AcceptedNameMissing))
	assert.True(t, c.issues(id("badparent")).Has(taxon.ParentNameUsageIDInvalid))
	assert.True(t, c.issues(id("f2")).Has(taxon.ClassificationRankOrderInvalid))
	assert.True(t, c.issues(id("b2")).Has(taxon.ChainedBasionym))

	// the child of a synonym moves to the accepted usage
	assert.True(t, c.store.HasRel(id("s1"), id("sub1"), graph.ParentOf))
	assert.Contains(t, c.store.MustNode(id("sub1")).Remarks, "parent relation taken from synonym Larus major")

	// synonym classification below genus is gone
	cl := c.store.MustNode(id("syn1")).Classification
	assert.Empty(t, cl.ByRank(taxon.Genus))

	// the invented accepted name inherits the synonym's parent
	spectrum := c.store.ByName("Larus spectrum")
	require.Len(t, spectrum, 1)
	assert.Equal(t, taxon.VerbatimAccepted, c.store.MustNode(spectrum[0]).Origin)
	parent, ok := c.store.Parent(spectrum[0])
	require.True(t, ok)
	assert.Equal(t, id("g"), parent)

	// denormalized classification reuses the existing kingdom and shares new taxa
	assert.Len(t, c.store.ByName("Animalia"), 1)
	require.Len(t, c.store.ByName("Sternidae"), 1)
	require.Len(t, c.store.ByName("Sterna"), 1)
	sterna := c.store.ByName("Sterna")[0]
	assert.True(t, c.store.HasRel(sterna, id("cl1"), graph.ParentOf))
	assert.True(t, c.store.HasRel(sterna, id("cl2"), graph.ParentOf))
	p, _ := c.store.Parent(c.store.ByName("Sternidae")[0])
	assert.Equal(t, id("k"), p)
}

func TestRelationResolverIdempotent(t *testing.T) {
	c := messyChecklist(t)
	ctx := context.Background()

	_, err := c.resolver().Run(ctx)
	require.NoError(t, err)
	nodes, edges := c.store.Len(), c.store.EdgeCount()

	stats, err := c.resolver().Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, nodes, c.store.Len())
	assert.Equal(t, edges, c.store.EdgeCount())
	assert.Zero(t, stats.Placeholders)
	assert.Zero(t, stats.SynonymEdges+stats.ParentEdges+stats.BasionymEdges)
}

func TestNormalizeSharedPlaceholderUnderConcurrency(t *testing.T) {
	c := newChecklist(t)
	for i := 0; i < 200; i++ {
		c.add(graph.Usage{
			TaxonID:  fmt.Sprintf("s%d", i),
			Name:     fmt.Sprintf("Larus sp%d", i),
			Rank:     taxon.Species,
			Status:   taxon.Synonym,
			Verbatim: &graph.Verbatim{AcceptedName: "Larus fantasma"},
		})
	}

	res := c.normalize(Options{Workers: 8, BatchSize: 16, Verify: true})

	assert.Empty(t, res.Violations)
	ghosts := c.store.ByName("Larus fantasma")
	require.Len(t, ghosts, 1)
	assert.Len(t, c.store.In(ghosts[0], graph.SynonymOf), 200)
	assert.Equal(t, int64(1), res.Relations.Placeholders)
}

func TestNormalizeCancelled(t *testing.T) {
	c := messyChecklist(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(c.store, c.meta, Options{}, zaptest.NewLogger(t).Sugar()).Run(ctx)

	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, errors.ErrCancelled))
	assert.True(t, errors.IsCancelled(err))
	assert.Zero(t, c.store.EdgeCount(), "nothing resolved after cancellation")
}

func assertAcyclic(t *testing.T, s *graph.Store) {
	for i := 0; i < s.Len(); i++ {
		id := graph.NodeID(i)
		assert.False(t, s.Reachable(id, id, graph.ParentOf), "parent cycle through %d", id)
		assert.False(t, s.Reachable(id, id, graph.SynonymOf), "synonym cycle through %d", id)
	}
}

func assertSynonymDepth(t *testing.T, s *graph.Store) {
	for i := 0; i < s.Len(); i++ {
		id := graph.NodeID(i)
		if !s.MustNode(id).IsSynonym() {
			continue
		}
		accepted := s.Out(id, graph.SynonymOf)
		assert.NotEmpty(t, accepted, "synonym %d without accepted", id)
		for _, a := range accepted {
			assert.Empty(t, s.Out(a, graph.SynonymOf), "synonym %d chains through %d", id, a)
		}
	}
}

func assertNoSynonymParents(t *testing.T, s *graph.Store) {
	for i := 0; i < s.Len(); i++ {
		id := graph.NodeID(i)
		if s.IsSynonymNode(id) {
			assert.Zero(t, s.Degree(id, graph.ParentOf), "synonym %d has parent relations", id)
		}
	}
}

func assertNoDuplicateRank(t *testing.T, s *graph.Store) {
	for i := 0; i < s.Len(); i++ {
		id := graph.NodeID(i)
		seen := map[taxon.Rank]bool{}
		for _, n := range append([]graph.NodeID{id}, s.Ancestors(id)...) {
			r := s.MustNode(n).Rank
			if r.IsUncomparable() {
				continue
			}
			assert.False(t, seen[r], "rank %s twice above %d", r, id)
			seen[r] = true
		}
	}
}

func assertRootFlags(t *testing.T, s *graph.Store) {
	for i := 0; i < s.Len(); i++ {
		id := graph.NodeID(i)
		want := len(s.In(id, graph.ParentOf)) == 0 && len(s.Out(id, graph.SynonymOf)) == 0
		assert.Equal(t, want, s.MustNode(id).Root, "root flag of %d", id)
	}
}

func assertSingleParent(t *testing.T, s *graph.Store) {
	for i := 0; i < s.Len(); i++ {
		assert.LessOrEqual(t, len(s.In(graph.NodeID(i), graph.ParentOf)), 1)
	}
}
