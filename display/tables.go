package display

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/taxgraph/importstore"
	"github.com/teranos/taxgraph/normalize"
)

// ResultTable lists the counters of a normalization run, one row per pass.
func ResultTable(res *normalize.Result) pterm.TableData {
	data := pterm.TableData{{"Pass", "Counter", "Value"}}
	add := func(pass, counter string, v interface{}) {
		data = append(data, []string{pass, counter, fmt.Sprint(v)})
	}

	add("relations", "processed", res.Relations.Processed)
	add("relations", "synonym edges", res.Relations.SynonymEdges)
	add("relations", "parent edges", res.Relations.ParentEdges)
	add("relations", "basionym edges", res.Relations.BasionymEdges)
	add("relations", "placeholders", res.Relations.Placeholders)
	if res.ClassificationApplied {
		add("classification", "applied", res.Classification.Applied)
		add("classification", "not applied", res.Classification.NotApplied)
		add("classification", "created", res.Classification.Created)
		add("classification", "reused", res.Classification.Reused)
		add("classification", "ranks derived", res.Classification.RanksDerived)
	}
	add("synonym_cycles", "cut", res.Cycles.SynonymCyclesCut)
	add("synonym_chains", "relinked", res.Cycles.ChainsRelinked)
	add("prioritize", "synonyms", res.Prioritizer.Synonyms)
	add("prioritize", "children moved", res.Prioritizer.ChildrenMoved)
	add("prioritize", "parents moved", res.Prioritizer.ParentsMoved)
	add("prioritize", "edges dropped", res.Prioritizer.EdgesDropped)
	add("parent_cycles", "cut", res.Cycles.ParentCyclesCut)
	add("basionym_chains", "cut", res.BasionymsCut)
	add("rank_order", "detached", res.RankDetached)
	return data
}

// IssueTable lists issue flag counts, most frequent first.
func IssueTable(issues map[string]int) pterm.TableData {
	names := make([]string, 0, len(issues))
	for name := range issues {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if issues[names[i]] != issues[names[j]] {
			return issues[names[i]] > issues[names[j]]
		}
		return names[i] < names[j]
	})

	data := pterm.TableData{{"Issue", "Nodes"}}
	for _, name := range names {
		data = append(data, []string{name, strconv.Itoa(issues[name])})
	}
	return data
}

// ViolationTable lists verification failures.
func ViolationTable(violations []normalize.Violation) pterm.TableData {
	data := pterm.TableData{{"Check", "Node", "Message"}}
	for _, v := range violations {
		data = append(data, []string{string(v.Check), strconv.Itoa(int(v.Node)), v.Message})
	}
	return data
}

// StatsTable summarizes an import store.
func StatsTable(path string, st *importstore.Stats) pterm.TableData {
	data := pterm.TableData{
		{"Metric", "Value"},
		{"path", path},
		{"schema version", st.SchemaVersion},
		{"imported by", st.ImportedBy},
		{"usages", strconv.Itoa(st.Usages)},
		{"verbatim records", strconv.Itoa(st.Verbatim)},
		{"roots", strconv.Itoa(st.Roots)},
		{"flagged", strconv.Itoa(st.Flagged)},
	}
	for _, group := range []struct {
		prefix string
		counts map[string]int
	}{
		{"status", st.ByStatus},
		{"origin", st.ByOrigin},
		{"relations", st.Relations},
	} {
		keys := make([]string, 0, len(group.counts))
		for k := range group.counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			data = append(data, []string{group.prefix + " " + k, strconv.Itoa(group.counts[k])})
		}
	}
	data = append(data, []string{"runs", strconv.Itoa(st.Runs)})
	if r := st.LastRun; r != nil {
		data = append(data,
			[]string{"last run", r.ID},
			[]string{"last run status", string(r.Status)},
			[]string{"last run started", r.StartedAt.Format(time.RFC3339)})
	}
	return data
}

// PrintResult renders a normalization summary to w.
func PrintResult(w io.Writer, res *normalize.Result) error {
	pterm.Fprint(w, pterm.DefaultSection.Sprint("Normalization"))
	if err := renderTable(w, ResultTable(res)); err != nil {
		return err
	}
	pterm.Fprintln(w, fmt.Sprintf("%d nodes, %d edges, %d placeholders in %s",
		res.Nodes, res.Edges, res.Placeholders, res.Duration.Round(time.Millisecond)))

	if len(res.Issues) > 0 {
		pterm.Fprint(w, pterm.DefaultSection.WithLevel(2).Sprint("Issues"))
		if err := renderTable(w, IssueTable(res.Issues)); err != nil {
			return err
		}
	}
	if len(res.Violations) > 0 {
		pterm.Fprint(w, pterm.DefaultSection.WithLevel(2).Sprint("Violations"))
		return renderTable(w, ViolationTable(res.Violations))
	}
	return nil
}

// PrintStats renders store statistics to w.
func PrintStats(w io.Writer, path string, st *importstore.Stats) error {
	pterm.Fprint(w, pterm.DefaultSection.Sprint("Import store"))
	return renderTable(w, StatsTable(path, st))
}

func renderTable(w io.Writer, data pterm.TableData) error {
	return pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render()
}
