package normalize

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/graph"
	"github.com/teranos/taxgraph/logger"
)

const (
	defaultBatchSize = 1000
	progressInterval = 5 * time.Second
)

// Options tune a normalization run.
type Options struct {
	BatchSize int
	// Workers bounds concurrent node resolution; 0 means one per CPU.
	Workers int
	// Classification forces the classification pass on or off. Nil follows
	// InsertMetadata.ClassificationMapped.
	Classification *bool
	// Verify checks the finished graph.
	Verify bool
	// Strict turns verification failures into an error.
	Strict bool
}

// Result summarizes a finished run.
type Result struct {
	Relations      RelationStats       `json:"relations"`
	Classification ClassificationStats `json:"classification"`
	Cycles         CycleStats          `json:"cycles"`
	Prioritizer    PrioritizerStats    `json:"prioritizer"`
	BasionymsCut   int                 `json:"basionyms_cut"`
	RankDetached   int                 `json:"rank_detached"`

	Nodes        int            `json:"nodes"`
	Edges        int            `json:"edges"`
	Placeholders int            `json:"placeholders"`
	Issues       map[string]int `json:"issues"`
	Violations   []Violation    `json:"violations,omitempty"`

	ClassificationApplied bool                     `json:"classification_applied"`
	PassDurations         map[string]time.Duration `json:"pass_durations"`
	Duration              time.Duration            `json:"duration"`
}

// IssueTotal returns the number of issue flags raised during the run.
func (r *Result) IssueTotal() int {
	total := 0
	for _, n := range r.Issues {
		total += n
	}
	return total
}

// Normalizer runs every pass over one store.
type Normalizer struct {
	store *graph.Store
	meta  *InsertMetadata
	opts  Options
	log   *zap.SugaredLogger
}

// New creates a normalizer. A nil log uses the global logger.
func New(store *graph.Store, meta *InsertMetadata, opts Options, log *zap.SugaredLogger) *Normalizer {
	if meta == nil {
		meta = &InsertMetadata{}
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if log == nil {
		log = logger.Logger
	}
	return &Normalizer{
		store: store,
		meta:  meta,
		opts:  opts,
		log:   log.Named("normalize"),
	}
}

func (n *Normalizer) classificationEnabled() bool {
	if n.opts.Classification != nil {
		return *n.opts.Classification
	}
	return n.meta.ClassificationMapped
}

// Run executes all passes in order. Any error, cancellation included,
// aborts the run; the store is then in an intermediate state and must be
// discarded by the caller.
func (n *Normalizer) Run(ctx context.Context) (*Result, error) {
	log := logger.LoggerFromContext(ctx, n.log)
	start := time.Now()
	sink := newCountingSink(n.store, log)

	res := &Result{
		ClassificationApplied: n.classificationEnabled(),
		PassDurations:         make(map[string]time.Duration),
	}

	log.Infow("normalization started",
		logger.FieldNodes, n.store.Len(),
		logger.FieldBatchSize, n.opts.BatchSize,
		"workers", n.opts.Workers,
		"classification", res.ClassificationApplied)

	cycles := NewCycleResolver(n.store, sink, log)

	passes := []struct {
		name string
		run  func(context.Context) error
	}{
		{"relations", func(ctx context.Context) (err error) {
			res.Relations, err = NewRelationResolver(n.store, n.meta, sink, n.opts.BatchSize, n.opts.Workers, log).Run(ctx)
			return err
		}},
		{"classification", func(ctx context.Context) (err error) {
			if !res.ClassificationApplied {
				return nil
			}
			res.Classification, err = NewClassificationReconciler(n.store, sink, n.opts.BatchSize, log).Run(ctx)
			return err
		}},
		{"synonym_cycles", cycles.CutSynonymCycles},
		{"synonym_chains", cycles.RelinkSynonymChains},
		{"prioritize", func(ctx context.Context) (err error) {
			res.Prioritizer, err = NewRelationPrioritizer(n.store, sink, log).Run(ctx)
			return err
		}},
		{"parent_cycles", cycles.CutParentCycles},
		{"basionym_chains", func(ctx context.Context) (err error) {
			res.BasionymsCut, err = NewBasionymChainCutter(n.store, sink, log).Run(ctx)
			return err
		}},
		{"rank_order", func(ctx context.Context) (err error) {
			res.RankDetached, err = enforceRankOrder(ctx, n.store, sink, log)
			return err
		}},
	}

	for _, p := range passes {
		passStart := time.Now()
		if err := p.run(ctx); err != nil {
			log.Errorw("normalization aborted",
				logger.FieldPass, p.name,
				logger.FieldError, err)
			return nil, errors.Wrapf(err, "pass %s", p.name)
		}
		elapsed := time.Since(passStart)
		res.PassDurations[p.name] = elapsed
		log.Debugw("pass finished",
			logger.FieldPass, p.name,
			logger.FieldDurationMS, elapsed.Milliseconds())
	}
	res.Cycles = cycles.Stats()

	res.Nodes = n.store.Len()
	res.Edges = n.store.EdgeCount()
	res.Placeholders = countPlaceholders(n.store)
	res.Issues = sink.Counts()

	if n.opts.Verify {
		res.Violations = Verify(n.store)
		for _, v := range res.Violations {
			log.Warnw("invariant violated", "check", string(v.Check), logger.FieldNode, v.Node, "detail", v.Message)
		}
	}
	res.Duration = time.Since(start)

	log.Infow("normalization finished",
		logger.FieldNodes, res.Nodes,
		logger.FieldLinks, res.Edges,
		"placeholders", res.Placeholders,
		"issues", res.IssueTotal(),
		logger.FieldDurationMS, res.Duration.Milliseconds())

	if n.opts.Strict && len(res.Violations) > 0 {
		return res, errors.Wrapf(errors.ErrNormalizationFailed, "%d invariant violations, first: %s",
			len(res.Violations), res.Violations[0])
	}
	return res, nil
}

func countPlaceholders(store *graph.Store) int {
	count := 0
	for i := 0; i < store.Len(); i++ {
		if u := store.MustNode(graph.NodeID(i)); u.Origin.IsPlaceholder() {
			count++
		}
	}
	return count
}
