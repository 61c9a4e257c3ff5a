package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/taxgraph/graph"
	"github.com/teranos/taxgraph/taxon"
)

func TestSplitIDs(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		delims string
		want   []string
	}{
		{name: "empty", raw: "  ", delims: commonDelimiters, want: nil},
		{name: "single", raw: "t1", delims: commonDelimiters, want: []string{"t1"}},
		{name: "pipe", raw: "t1|t2", delims: commonDelimiters, want: []string{"t1", "t2"}},
		{name: "semicolon with spaces", raw: "t1; t2 ;t3", delims: commonDelimiters, want: []string{"t1", "t2", "t3"}},
		{name: "comma", raw: "t1,t2", delims: commonDelimiters, want: []string{"t1", "t2"}},
		{name: "whitespace", raw: "t1 t2", delims: commonDelimiters, want: []string{"t1", "t2"}},
		{name: "first delimiter wins", raw: "a b|c d", delims: commonDelimiters, want: []string{"a b", "c d"}},
		{name: "empty parts dropped", raw: "t1||t2|", delims: commonDelimiters, want: []string{"t1", "t2"}},
		{name: "custom delimiter", raw: "t1/t2", delims: "/", want: []string{"t1", "t2"}},
		{name: "custom delimiter ignores others", raw: "t1|t2", delims: "/", want: []string{"t1|t2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitIDs(tt.raw, tt.delims))
		})
	}
}

func TestDelimitersFor(t *testing.T) {
	var nilMeta *InsertMetadata
	assert.Equal(t, commonDelimiters, nilMeta.DelimitersFor(FieldAccepted))

	m := &InsertMetadata{Delimiters: map[Field]string{FieldAccepted: "/"}}
	assert.Equal(t, "/", m.DelimitersFor(FieldAccepted))
	assert.Equal(t, commonDelimiters, m.DelimitersFor(FieldParent))
}

func TestLookupByID(t *testing.T) {
	c := newChecklist(t)
	t1 := c.accepted("t1", "A", taxon.Species)
	t2 := c.accepted("t2", "B", taxon.Species)
	pipe := c.accepted("x|y", "C", taxon.Species)
	src := c.store.MustNode(c.synonym("s", "D", taxon.Species, ""))
	l := &lookup{store: c.store, sink: c.store}

	assert.Equal(t, []graph.NodeID{t1}, l.byID("t1", &src, commonDelimiters))
	assert.Equal(t, []graph.NodeID{pipe}, l.byID("x|y", &src, commonDelimiters), "exact match before splitting")
	assert.Equal(t, []graph.NodeID{t1, t2}, l.byID("t1|t2|t1", &src, commonDelimiters))
	assert.Equal(t, []graph.NodeID{t2}, l.byID("s,t2", &src, commonDelimiters), "own id ignored")
	assert.Nil(t, l.byID("s", &src, commonDelimiters))
	assert.Nil(t, l.byID("nope", &src, commonDelimiters))
	assert.Nil(t, l.byID("", &src, commonDelimiters))
}

func TestLookupByName(t *testing.T) {
	c := newChecklist(t)
	acc1 := c.accepted("a1", "Larus canus", taxon.Species)
	c.synonym("syn", "Larus canus", taxon.Species, "a1")
	acc2 := c.accepted("a2", "Larus canus", taxon.Species)
	syn2 := c.synonym("syn2", "Larus fuscus", taxon.Species, "a1")
	srcID := c.add(graph.Usage{
		TaxonID: "src", Name: "Larus argentatus", Rank: taxon.Species,
		Classification: classification(map[string]string{"family": "Laridae", "genus": "Larus"}),
	})
	src := c.store.MustNode(srcID)
	l := &lookup{store: c.store, sink: c.store}

	t.Run("ambiguous picks lowest accepted", func(t *testing.T) {
		id, created, err := l.byName("larus  CANUS", &src, taxon.VerbatimParent)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, acc1, id)
		assert.NotEqual(t, acc2, id)
		assert.True(t, c.issues(srcID).Has(taxon.NameNotUnique))
	})

	t.Run("single synonym match is used", func(t *testing.T) {
		id, _, err := l.byName("Larus fuscus", &src, taxon.VerbatimParent)
		require.NoError(t, err)
		assert.Equal(t, syn2, id)
	})

	t.Run("own name resolves to nothing", func(t *testing.T) {
		id, created, err := l.byName("Larus argentatus", &src, taxon.VerbatimParent)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, graph.NoNode, id)
	})

	t.Run("unknown name creates one placeholder", func(t *testing.T) {
		id, created, err := l.byName("Laridae", &src, taxon.VerbatimParent)
		require.NoError(t, err)
		assert.True(t, created)

		ph := c.store.MustNode(id)
		assert.Equal(t, taxon.Doubtful, ph.Status)
		assert.Equal(t, taxon.Unranked, ph.Rank)
		assert.Equal(t, taxon.VerbatimParent, ph.Origin)
		assert.Equal(t, "Laridae", ph.Classification.ByRank(taxon.Family))
		assert.Equal(t, "Larus", ph.Classification.ByRank(taxon.Genus))

		again, created, err := l.byName("laridae", &src, taxon.VerbatimParent)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, id, again)
	})

	t.Run("basionym placeholder is a bare name", func(t *testing.T) {
		id, _, err := l.byName("Larus primus", &src, taxon.VerbatimBasionym)
		require.NoError(t, err)
		assert.Equal(t, taxon.BareName, c.store.MustNode(id).Status)
	})
}

func TestNamePlaceholderInheritsParentRefs(t *testing.T) {
	src := &graph.Usage{
		Name:     "Larus major",
		Rank:     taxon.Species,
		Status:   taxon.Synonym,
		Verbatim: &graph.Verbatim{AcceptedName: "Larus maximus", ParentID: "g1"},
	}

	u := namePlaceholder("Larus maximus", src, taxon.VerbatimAccepted)
	require.NotNil(t, u.Verbatim)
	assert.Equal(t, "g1", u.Verbatim.ParentID)

	u = namePlaceholder("Larus", src, taxon.VerbatimParent)
	assert.Nil(t, u.Verbatim)
}

func TestResolveDanglingBasionymID(t *testing.T) {
	c := newChecklist(t)
	c.accepted("b1", "Sterna hirundo", taxon.Species)
	dangling := c.add(graph.Usage{
		TaxonID: "b2", Name: "Sternula hirundo", Rank: taxon.Species,
		Verbatim: &graph.Verbatim{BasionymID: "b9"},
	})
	linked := c.add(graph.Usage{
		TaxonID: "b3", Name: "Hirundo sterna", Rank: taxon.Species,
		Verbatim: &graph.Verbatim{BasionymID: "b1"},
	})

	c.resolve()

	assert.True(t, c.issues(dangling).Has(taxon.OriginalNameUsageIDInvalid))
	assert.Zero(t, c.store.Degree(dangling, graph.BasionymOf))
	assert.False(t, c.issues(linked).Has(taxon.OriginalNameUsageIDInvalid))
	assert.Equal(t, 1, c.store.Degree(linked, graph.BasionymOf))
	assert.Equal(t, 3, c.store.Len(), "a dangling id without a name creates nothing")
}
