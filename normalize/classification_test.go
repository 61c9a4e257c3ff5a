package normalize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/taxgraph/graph"
	"github.com/teranos/taxgraph/taxon"
)

func (c *checklist) reconcile() ClassificationStats {
	c.t.Helper()
	stats, err := NewClassificationReconciler(c.store, c.store, 0, zaptest.NewLogger(c.t).Sugar()).Run(context.Background())
	require.NoError(c.t, err)
	return stats
}

func TestReconcilerSharesCreatedTaxa(t *testing.T) {
	c := newChecklist(t)
	cl := map[string]string{"family": "Laridae", "genus": "Larus"}
	a := c.add(graph.Usage{Name: "Larus argentatus", Rank: taxon.Species, Classification: classification(cl)})
	b := c.add(graph.Usage{Name: "Larus canus", Rank: taxon.Species, Classification: classification(cl)})

	stats := c.reconcile()

	assert.Equal(t, 2, stats.Created)
	assert.Equal(t, 2, stats.Reused)
	assert.Equal(t, 2, stats.Applied)
	larus := c.store.ByName("Larus")
	require.Len(t, larus, 1)
	assert.Equal(t, []graph.NodeID{a, b}, c.store.Out(larus[0], graph.ParentOf))
}

func TestReconcilerNotAppliedUnderRankedParent(t *testing.T) {
	c := newChecklist(t)
	c.accepted("g", "Larus", taxon.Genus)
	sp := c.add(graph.Usage{
		TaxonID: "sp", Name: "Larus argentatus", Rank: taxon.Species,
		Verbatim:       &graph.Verbatim{ParentID: "g"},
		Classification: classification(map[string]string{"family": "Laridae"}),
	})
	c.resolve()

	stats := c.reconcile()

	assert.True(t, c.issues(sp).Has(taxon.ClassificationNotApplied))
	assert.Equal(t, 1, stats.NotApplied)
	assert.Empty(t, c.store.ByName("Laridae"))
	assert.True(t, c.store.MustNode(sp).Classification.IsEmpty())
}

func TestReconcilerAboveUnrankedParent(t *testing.T) {
	c := newChecklist(t)
	sp := c.add(graph.Usage{
		TaxonID: "sp", Name: "Larus argentatus", Rank: taxon.Species,
		Verbatim:       &graph.Verbatim{ParentName: "Larus"},
		Classification: classification(map[string]string{"family": "Laridae", "genus": "Larus"}),
	})
	c.resolve()
	ph, ok := c.store.Parent(sp)
	require.True(t, ok)
	require.Equal(t, taxon.Unranked, c.store.MustNode(ph).Rank)

	c.reconcile()

	laridae := c.store.ByName("Laridae")
	require.Len(t, laridae, 1)
	assert.True(t, c.store.HasRel(laridae[0], ph, graph.ParentOf), "unranked parent is placed, not duplicated")
	assert.Len(t, c.store.ByName("Larus"), 1)
	assert.Equal(t, taxon.Genus, c.store.MustNode(ph).Rank, "takes the rank of the matching entry")
}

func TestReconcilerDerivesRank(t *testing.T) {
	c := newChecklist(t)
	fam := c.add(graph.Usage{Name: "Laridae", Rank: taxon.Unranked, Status: taxon.Accepted})
	sp := c.add(graph.Usage{
		Name: "Larus argentatus", Rank: taxon.Species,
		Classification: classification(map[string]string{"family": "Laridae"}),
	})

	stats := c.reconcile()

	assert.Equal(t, taxon.Family, c.store.MustNode(fam).Rank)
	assert.True(t, c.store.HasRel(fam, sp, graph.ParentOf))
	assert.Equal(t, 1, stats.RanksDerived)
}

func TestReconcilerDerivesRankOfUnrankedHighest(t *testing.T) {
	c := newChecklist(t)
	larus := c.add(graph.Usage{
		Name: "Larus", Rank: taxon.Unranked, Status: taxon.Accepted,
		Classification: classification(map[string]string{"family": "Laridae", "subfamily": "Larus", "genus": "Larus"}),
	})
	odd := c.add(graph.Usage{
		Name: "Larinae", Rank: taxon.Unranked, Status: taxon.Accepted,
		Classification: classification(map[string]string{"family": "Laridae", "subfamily": "Larinae", "genus": "Chroicocephalus"}),
	})

	stats := c.reconcile()

	assert.Equal(t, taxon.Genus, c.store.MustNode(larus).Rank)
	assert.Equal(t, taxon.Unranked, c.store.MustNode(odd).Rank, "only the finest entry is compared")
	assert.Equal(t, 1, stats.RanksDerived)

	p, ok := c.store.Parent(larus)
	require.True(t, ok)
	assert.Equal(t, "Larus", c.store.MustNode(p).Name)
	assert.Equal(t, taxon.Subfamily, c.store.MustNode(p).Rank)
}

func TestReconcilerSynonymKeepsItsOwnRank(t *testing.T) {
	c := newChecklist(t)
	c.accepted("acc", "Laridae", taxon.Family)
	s := c.add(graph.Usage{
		TaxonID: "s", Name: "Gabianidae", Rank: taxon.Family, Status: taxon.Synonym,
		Verbatim:       &graph.Verbatim{AcceptedID: "acc"},
		Classification: classification(map[string]string{"order": "Charadriiformes", "family": "Sternidae"}),
	})
	c.resolve()

	c.reconcile()

	sternidae := c.store.ByName("Sternidae")
	require.Len(t, sternidae, 1)
	assert.True(t, c.store.HasRel(sternidae[0], s, graph.ParentOf), "entry at the synonym's own rank is applied")
	order := c.store.ByName("Charadriiformes")
	require.Len(t, order, 1)
	assert.True(t, c.store.HasRel(order[0], sternidae[0], graph.ParentOf))
}

func TestReconcilerSkipsMisplacedCandidate(t *testing.T) {
	c := newChecklist(t)
	c.accepted("k", "Plantae", taxon.Kingdom)
	wrong := c.child("g", "Larus", taxon.Genus, "k")
	sp := c.add(graph.Usage{
		Name: "Larus argentatus", Rank: taxon.Species,
		Classification: classification(map[string]string{"kingdom": "Animalia", "genus": "Larus"}),
	})
	c.resolve()

	c.reconcile()

	larus := c.store.ByName("Larus")
	require.Len(t, larus, 2)
	p, ok := c.store.Parent(sp)
	require.True(t, ok)
	assert.NotEqual(t, wrong, p)
	animalia := c.store.ByName("Animalia")
	require.Len(t, animalia, 1)
	assert.True(t, c.store.HasRel(animalia[0], p, graph.ParentOf))
}

func TestReconcilerSynonymKeepsHigherRanksOnly(t *testing.T) {
	c := newChecklist(t)
	c.accepted("acc", "Larus argentatus", taxon.Species)
	s := c.add(graph.Usage{
		TaxonID: "s", Name: "Larus major", Rank: taxon.Species, Status: taxon.Synonym,
		Verbatim:       &graph.Verbatim{AcceptedID: "acc"},
		Classification: classification(map[string]string{"family": "Laridae", "genus": "Larus"}),
	})
	c.resolve()

	c.reconcile()

	assert.Empty(t, c.store.ByName("Larus"), "no genus is created from a synonym")
	laridae := c.store.ByName("Laridae")
	require.Len(t, laridae, 1)
	assert.True(t, c.store.HasRel(laridae[0], s, graph.ParentOf))
}

func TestReconcilerIsConsumed(t *testing.T) {
	c := newChecklist(t)
	c.add(graph.Usage{Name: "Larus argentatus", Rank: taxon.Species,
		Classification: classification(map[string]string{"genus": "Larus"})})

	c.reconcile()
	nodes, edges := c.store.Len(), c.store.EdgeCount()
	stats := c.reconcile()

	assert.Equal(t, nodes, c.store.Len())
	assert.Equal(t, edges, c.store.EdgeCount())
	assert.Zero(t, stats.Applied)
}
