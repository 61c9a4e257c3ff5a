package normalize

import (
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/taxgraph/graph"
	"github.com/teranos/taxgraph/logger"
	"github.com/teranos/taxgraph/taxon"
)

// IssueSink receives the issue flags and remarks produced by the passes.
// *graph.Store implements it.
type IssueSink interface {
	AddIssue(id graph.NodeID, issue taxon.Issue)
	AddRemark(id graph.NodeID, remark string)
}

// countingSink forwards to another sink and tallies issues by flag.
type countingSink struct {
	next IssueSink
	log  *zap.SugaredLogger

	mu     sync.Mutex
	counts map[taxon.Issue]int
}

func newCountingSink(next IssueSink, log *zap.SugaredLogger) *countingSink {
	return &countingSink{
		next:   next,
		log:    log,
		counts: make(map[taxon.Issue]int),
	}
}

func (c *countingSink) AddIssue(id graph.NodeID, issue taxon.Issue) {
	c.mu.Lock()
	c.counts[issue]++
	c.mu.Unlock()
	c.log.Debugw("issue", logger.FieldNode, id, logger.FieldIssue, issue.String())
	c.next.AddIssue(id, issue)
}

func (c *countingSink) AddRemark(id graph.NodeID, remark string) {
	c.next.AddRemark(id, remark)
}

// Counts returns issue totals keyed by flag name.
func (c *countingSink) Counts() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.counts))
	for issue, n := range c.counts {
		out[issue.String()] = n
	}
	return out
}
