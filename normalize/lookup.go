package normalize

import (
	"strconv"
	"strings"

	"github.com/teranos/taxgraph/graph"
	"github.com/teranos/taxgraph/taxon"
)

// IncertaeSedis names synthesized usages whose real name is unknown.
const IncertaeSedis = "Incertae sedis"

// Placeholder key prefixes. Keys make placeholder creation idempotent.
const (
	keyMissingAccepted = "missing-accepted:"
	keyCycle           = "synonym-cycle:"
	keyName            = "name:"
)

func missingAcceptedKey(id graph.NodeID) string {
	return keyMissingAccepted + strconv.Itoa(int(id))
}

func cycleKey(id graph.NodeID) string {
	return keyCycle + strconv.Itoa(int(id))
}

func nameKey(name string) string {
	return keyName + strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// lookup resolves verbatim references against the store.
type lookup struct {
	store *graph.Store
	sink  IssueSink
}

// byID resolves a raw ID reference. An exact match wins; otherwise the raw
// value is split on delims and each part resolved. Parts equal to the
// source's own taxonID are ignored.
func (l *lookup) byID(raw string, src *graph.Usage, delims string) []graph.NodeID {
	raw = strings.TrimSpace(raw)
	if raw == "" || pointsToSelf(raw, src) {
		return nil
	}
	if id, ok := l.store.ByTaxonID(raw); ok && id != src.ID {
		return []graph.NodeID{id}
	}

	var out []graph.NodeID
	parts := SplitIDs(raw, delims)
	if len(parts) < 2 {
		return nil
	}
	seen := make(map[graph.NodeID]bool)
	for _, p := range parts {
		if p == src.TaxonID {
			continue
		}
		if id, ok := l.store.ByTaxonID(p); ok && id != src.ID && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// byIDSingle resolves a reference that must name exactly one usage.
func (l *lookup) byIDSingle(raw string, src *graph.Usage) (graph.NodeID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || pointsToSelf(raw, src) {
		return graph.NoNode, false
	}
	id, ok := l.store.ByTaxonID(raw)
	if !ok || id == src.ID {
		return graph.NoNode, false
	}
	return id, true
}

func pointsToSelf(raw string, src *graph.Usage) bool {
	return src.TaxonID != "" && raw == src.TaxonID
}

// hasForeignID reports whether raw names some ID other than the source's own.
func hasForeignID(raw string, src *graph.Usage) bool {
	raw = strings.TrimSpace(raw)
	return raw != "" && !pointsToSelf(raw, src)
}

// byName resolves a name reference. Synonyms are dropped from ambiguous
// matches; a remaining tie takes the lowest id and flags NAME_NOT_UNIQUE on
// the source. With no match a placeholder is created, carrying the source's
// classification above its own rank. A name equal to the source's own name
// resolves to nothing.
func (l *lookup) byName(name string, src *graph.Usage, origin taxon.Origin) (graph.NodeID, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, src.Name) || strings.EqualFold(name, src.Label()) {
		return graph.NoNode, false, nil
	}

	var candidates []graph.NodeID
	for _, id := range l.store.ByName(name) {
		if id != src.ID {
			candidates = append(candidates, id)
		}
	}

	if len(candidates) > 1 {
		var accepted []graph.NodeID
		for _, id := range candidates {
			if !l.store.IsSynonymNode(id) {
				accepted = append(accepted, id)
			}
		}
		if len(accepted) > 0 {
			candidates = accepted
		}
	}
	if len(candidates) > 1 {
		l.sink.AddIssue(src.ID, taxon.NameNotUnique)
	}
	if len(candidates) > 0 {
		return candidates[0], false, nil
	}

	id, created, err := l.store.EnsurePlaceholder(nameKey(name), func() graph.Usage {
		return namePlaceholder(name, src, origin)
	})
	if err != nil {
		return graph.NoNode, false, err
	}
	return id, created, nil
}

func namePlaceholder(name string, src *graph.Usage, origin taxon.Origin) graph.Usage {
	status := taxon.Doubtful
	if origin == taxon.VerbatimBasionym {
		status = taxon.BareName
	}

	cl := src.Classification.Copy()
	cl.ClearRankAndBelow(src.Rank)

	u := graph.Usage{
		Name:           name,
		Rank:           taxon.Unranked,
		Status:         status,
		Origin:         origin,
		Classification: cl,
	}
	// an invented accepted name inherits the synonym's placement
	if origin == taxon.VerbatimAccepted && src.Verbatim != nil &&
		(src.Verbatim.ParentID != "" || src.Verbatim.ParentName != "") {
		u.Verbatim = &graph.Verbatim{
			ParentID:   src.Verbatim.ParentID,
			ParentName: src.Verbatim.ParentName,
		}
	}
	return u
}

func missingAcceptedPlaceholder(src *graph.Usage) graph.Usage {
	return graph.Usage{
		Name:   IncertaeSedis,
		Rank:   src.Rank,
		Status: taxon.Doubtful,
		Origin: taxon.MissingAccepted,
	}
}

func cyclePlaceholder() graph.Usage {
	return graph.Usage{
		Name:   IncertaeSedis,
		Rank:   taxon.Unranked,
		Status: taxon.Doubtful,
		Origin: taxon.MissingAccepted,
	}
}
