package neo4jsync

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/graph"
	"github.com/teranos/taxgraph/logger"
)

const defaultBatchSize = 500

var schemaStatements = []string{
	`CREATE CONSTRAINT usage_key IF NOT EXISTS FOR (u:Usage) REQUIRE (u.dataset, u.node_id) IS UNIQUE`,
	`CREATE INDEX usage_taxon_id IF NOT EXISTS FOR (u:Usage) ON (u.taxon_id)`,
	`CREATE INDEX usage_name IF NOT EXISTS FOR (u:Usage) ON (u.name)`,
}

const (
	clearRelsQuery = `
MATCH (:Usage {dataset: $dataset})-[r]->(:Usage {dataset: $dataset})
DELETE r`

	upsertNodesQuery = `
UNWIND $rows AS n
MERGE (u:Usage {dataset: n.dataset, node_id: n.node_id})
SET u += n`

	pruneNodesQuery = `
MATCH (u:Usage {dataset: $dataset})
WHERE u.synced_at <> $synced_at
DETACH DELETE u`
)

// Relationship types cannot be parameters in Cypher.
var relQueries = map[graph.RelType]string{
	graph.ParentOf:   relQuery("PARENT_OF"),
	graph.SynonymOf:  relQuery("SYNONYM_OF"),
	graph.BasionymOf: relQuery("BASIONYM_OF"),
}

func relQuery(label string) string {
	return `
UNWIND $rows AS r
MATCH (a:Usage {dataset: r.dataset, node_id: r.source})
MATCH (b:Usage {dataset: r.dataset, node_id: r.target})
MERGE (a)-[:` + label + `]->(b)`
}

// ExportOptions selects the dataset and batch size of an export.
type ExportOptions struct {
	// Dataset namespaces the nodes so several checklists can share a database.
	Dataset   string
	BatchSize int
}

// ExportStats counts what one export wrote.
type ExportStats struct {
	Nodes         int            `json:"nodes"`
	Relationships map[string]int `json:"relationships"`
	Batches       int            `json:"batches"`
	Duration      time.Duration  `json:"duration"`
}

// Export replaces the dataset in Neo4j with the content of store. Nodes are
// merged by node id, relationships of the dataset are rebuilt, and nodes no
// longer present are removed.
func (c *Client) Export(ctx context.Context, store *graph.Store, opts ExportOptions) (*ExportStats, error) {
	if c == nil || c.Driver == nil {
		return nil, errors.New("neo4j client is closed")
	}
	if opts.Dataset == "" {
		return nil, errors.NewInvalidInputError("export needs a dataset name")
	}
	size := opts.BatchSize
	if size <= 0 {
		size = defaultBatchSize
	}

	start := time.Now()
	log := logger.LoggerFromContext(ctx, c.log)
	syncedAt := start.UTC().Format(time.RFC3339Nano)
	stats := &ExportStats{Relationships: make(map[string]int)}

	session := c.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.Database,
	})
	defer session.Close(ctx)

	for _, q := range schemaStatements {
		res, err := session.Run(ctx, q, nil)
		if err != nil {
			log.Warnw("neo4j schema init failed (continuing)", logger.FieldError, err)
			continue
		}
		_, _ = res.Consume(ctx)
	}

	if err := c.write(ctx, session, clearRelsQuery, map[string]any{"dataset": opts.Dataset}); err != nil {
		return nil, errors.Wrap(err, "clear relationships")
	}

	nodes := NodeRows(store, opts.Dataset, syncedAt)
	for _, batch := range Batches(nodes, size) {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "export nodes")
		}
		if err := c.write(ctx, session, upsertNodesQuery, map[string]any{"rows": batch}); err != nil {
			return nil, errors.Wrap(err, "upsert nodes")
		}
		stats.Batches++
		log.Debugw("node batch written", logger.FieldBatchSize, len(batch))
	}
	stats.Nodes = len(nodes)

	if err := c.write(ctx, session, pruneNodesQuery, map[string]any{
		"dataset":   opts.Dataset,
		"synced_at": syncedAt,
	}); err != nil {
		return nil, errors.Wrap(err, "prune stale nodes")
	}

	for _, t := range graph.RelTypes() {
		rows := RelationshipRows(store, t, opts.Dataset)
		for _, batch := range Batches(rows, size) {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrapf(err, "export %s", t)
			}
			if err := c.write(ctx, session, relQueries[t], map[string]any{"rows": batch}); err != nil {
				return nil, errors.Wrapf(err, "merge %s", t)
			}
			stats.Batches++
		}
		stats.Relationships[t.String()] = len(rows)
	}

	stats.Duration = time.Since(start)
	log.Infow("neo4j export complete",
		"dataset", opts.Dataset,
		logger.FieldNodes, stats.Nodes,
		logger.FieldLinks, store.EdgeCount(),
		logger.FieldDurationMS, stats.Duration.Milliseconds())
	return stats, nil
}

func (c *Client) write(ctx context.Context, session neo4j.SessionWithContext, query string, params map[string]any) error {
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}
