// Package importstore persists checklists in the SQLite import store: bare
// usages and verbatim references before normalization, the cleaned graph
// after it, and a journal of normalization runs.
package importstore

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/teranos/taxgraph/db"
	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/graph"
	"github.com/teranos/taxgraph/logger"
	"github.com/teranos/taxgraph/normalize"
	"github.com/teranos/taxgraph/taxon"
	"github.com/teranos/taxgraph/version"
)

// SupportedSchema is the store_info schema_version range this build reads.
const SupportedSchema = "^1.0"

const importedByKey = "imported_by"

// Store is an import store backed by one SQLite database.
type Store struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// Open opens (creating if needed) the store at path, applies migrations and
// checks the schema version.
func Open(ctx context.Context, path string, log *zap.SugaredLogger) (*Store, error) {
	if log == nil {
		log = logger.Logger
	}
	conn, err := db.OpenWithMigrations(path, log.Named("db"))
	if err != nil {
		return nil, err
	}
	s := New(conn, log)
	if err := s.CheckSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open, migrated database.
func New(conn *sql.DB, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = logger.Logger
	}
	return &Store{db: conn, log: log.Named("importstore")}
}

// DB exposes the underlying connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SchemaVersion returns the recorded store schema version.
func (s *Store) SchemaVersion(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM store_info WHERE key = 'schema_version'").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.Wrap(errors.ErrIncompatibleStore, "store_info has no schema_version")
	}
	if err != nil {
		return "", errors.Wrap(err, "read schema version")
	}
	return v, nil
}

// CheckSchema fails with ErrIncompatibleStore unless the schema version
// satisfies SupportedSchema.
func (s *Store) CheckSchema(ctx context.Context) error {
	raw, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	version, err := semver.NewVersion(raw)
	if err != nil {
		return errors.Wrapf(errors.ErrIncompatibleStore, "invalid schema version %q: %v", raw, err)
	}
	constraint, err := semver.NewConstraint(SupportedSchema)
	if err != nil {
		return errors.Wrapf(err, "invalid constraint %s", SupportedSchema)
	}
	if !constraint.Check(version) {
		return errors.WithHintf(
			errors.Wrapf(errors.ErrIncompatibleStore, "store schema %s, this build reads %s", version, SupportedSchema),
			"re-import the checklist with a matching taxgraph version")
	}
	return nil
}

const (
	selectMetadataQuery = `
		SELECT parent_mapped, accepted_mapped, basionym_mapped, classification_mapped, delimiters
		FROM insert_metadata WHERE id = 1`

	selectUsagesQuery = `
		SELECT u.id, COALESCE(u.taxon_id, ''), u.scientific_name, u.authorship, u.rank, u.status,
		       u.origin, u.classification, u.issues, u.remarks, COALESCE(u.placeholder_key, ''),
		       v.usage_id IS NOT NULL,
		       COALESCE(v.accepted_id, ''), COALESCE(v.accepted_name, ''),
		       COALESCE(v.parent_id, ''), COALESCE(v.parent_name, ''),
		       COALESCE(v.basionym_id, ''), COALESCE(v.basionym_name, '')
		FROM usages u
		LEFT JOIN verbatim v ON v.usage_id = u.id
		ORDER BY u.id`

	selectRelationsQuery = `
		SELECT source_id, target_id, type FROM relations ORDER BY source_id, target_id, type`

	upsertMetadataQuery = `
		INSERT INTO insert_metadata (id, parent_mapped, accepted_mapped, basionym_mapped, classification_mapped, delimiters)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			parent_mapped = excluded.parent_mapped,
			accepted_mapped = excluded.accepted_mapped,
			basionym_mapped = excluded.basionym_mapped,
			classification_mapped = excluded.classification_mapped,
			delimiters = excluded.delimiters`

	insertUsageQuery = `
		INSERT INTO usages (id, taxon_id, scientific_name, authorship, rank, status, origin, is_root,
		                    classification, issues, remarks, placeholder_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertVerbatimQuery = `
		INSERT INTO verbatim (usage_id, accepted_id, accepted_name, parent_id, parent_name, basionym_id, basionym_name)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	insertRelationQuery = `
		INSERT INTO relations (source_id, target_id, type) VALUES (?, ?, ?)`

	upsertStoreInfoQuery = `
		INSERT INTO store_info (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
)

// Load reads the store into a fresh graph arena. Usages get consecutive
// node ids in row id order; saved placeholders are registered under their
// keys so a rerun reuses them.
func (s *Store) Load(ctx context.Context) (*graph.Store, *normalize.InsertMetadata, error) {
	meta, err := s.loadMetadata(ctx)
	if err != nil {
		return nil, nil, err
	}

	g := graph.NewStore()
	rowToNode := make(map[int64]graph.NodeID)

	rows, err := s.db.QueryContext(ctx, selectUsagesQuery)
	if err != nil {
		return nil, nil, errors.Wrap(err, "query usages")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rowID                                int64
			rank, status, origin                 string
			classificationJSON, issuesJSON, rmks string
			placeholderKey                       string
			hasVerbatim                          bool
			u                                    graph.Usage
			v                                    graph.Verbatim
		)
		if err := rows.Scan(&rowID, &u.TaxonID, &u.Name, &u.Authorship, &rank, &status, &origin,
			&classificationJSON, &issuesJSON, &rmks, &placeholderKey, &hasVerbatim,
			&v.AcceptedID, &v.AcceptedName, &v.ParentID, &v.ParentName, &v.BasionymID, &v.BasionymName); err != nil {
			return nil, nil, errors.Wrap(err, "scan usage")
		}
		if err := decodeUsage(&u, rank, status, origin, classificationJSON, issuesJSON, rmks); err != nil {
			return nil, nil, errors.Wrapf(err, "usage row %d", rowID)
		}
		if hasVerbatim {
			u.Verbatim = &v
		}

		id, err := g.Add(u)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "usage row %d", rowID)
		}
		rowToNode[rowID] = id
		if placeholderKey != "" {
			g.RegisterPlaceholder(placeholderKey, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "iterate usages")
	}

	if err := s.loadRelations(ctx, g, rowToNode); err != nil {
		return nil, nil, err
	}

	s.log.Infow("import store loaded",
		logger.FieldNodes, g.Len(),
		logger.FieldLinks, g.EdgeCount())
	return g, meta, nil
}

func (s *Store) loadMetadata(ctx context.Context) (*normalize.InsertMetadata, error) {
	var (
		meta       normalize.InsertMetadata
		delimiters string
	)
	err := s.db.QueryRowContext(ctx, selectMetadataQuery).Scan(
		&meta.ParentMapped, &meta.AcceptedMapped, &meta.BasionymMapped, &meta.ClassificationMapped, &delimiters)
	if errors.Is(err, sql.ErrNoRows) {
		s.log.Warnw("import store has no insert metadata, treating every field as unmapped")
		return &meta, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read insert metadata")
	}
	if err := json.Unmarshal([]byte(delimiters), &meta.Delimiters); err != nil {
		return nil, errors.Wrap(err, "decode delimiters")
	}
	return &meta, nil
}

func (s *Store) loadRelations(ctx context.Context, g *graph.Store, rowToNode map[int64]graph.NodeID) error {
	rows, err := s.db.QueryContext(ctx, selectRelationsQuery)
	if err != nil {
		return errors.Wrap(err, "query relations")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			src, dst int64
			typ      string
		)
		if err := rows.Scan(&src, &dst, &typ); err != nil {
			return errors.Wrap(err, "scan relation")
		}
		t, err := graph.ParseRelType(typ)
		if err != nil {
			return errors.Wrapf(err, "relation %d -> %d", src, dst)
		}
		from, ok1 := rowToNode[src]
		to, ok2 := rowToNode[dst]
		if !ok1 || !ok2 {
			return errors.NewNotFoundError("relation %d -> %d references a missing usage", src, dst)
		}
		g.CreateRel(from, to, t)
	}
	return errors.Wrap(rows.Err(), "iterate relations")
}

func decodeUsage(u *graph.Usage, rank, status, origin, classificationJSON, issuesJSON, remarksJSON string) error {
	var err error
	if u.Rank, err = taxon.ParseRank(rank); err != nil {
		return err
	}
	if u.Status, err = taxon.ParseStatus(status); err != nil {
		return err
	}
	if u.Origin, err = taxon.ParseOrigin(origin); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(classificationJSON), &u.Classification); err != nil {
		return errors.Wrap(err, "decode classification")
	}
	if err := json.Unmarshal([]byte(issuesJSON), &u.Issues); err != nil {
		return errors.Wrap(err, "decode issues")
	}
	if err := json.Unmarshal([]byte(remarksJSON), &u.Remarks); err != nil {
		return errors.Wrap(err, "decode remarks")
	}
	return nil
}

// Import replaces the store's content with a freshly ingested checklist and
// records which build imported it.
func (s *Store) Import(ctx context.Context, g *graph.Store, meta *normalize.InsertMetadata) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := saveMetadata(ctx, tx, meta); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, upsertStoreInfoQuery, importedByKey, version.Get().Tag()); err != nil {
			return errors.Wrap(err, "record importing build")
		}
		return s.saveGraph(ctx, tx, g)
	})
}

// Save replaces usages, verbatim records and relations with the content of
// g in one transaction. Usage row ids equal node ids.
func (s *Store) Save(ctx context.Context, g *graph.Store) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.saveGraph(ctx, tx, g)
	})
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if db.IsDatabaseClosed(err) {
			return errors.Wrapf(db.ErrDatabaseClosed, "begin transaction: %v", err)
		}
		return errors.Wrap(err, "begin transaction")
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.WithSecondaryError(err, rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "commit")
}

func saveMetadata(ctx context.Context, tx *sql.Tx, meta *normalize.InsertMetadata) error {
	if meta == nil {
		meta = &normalize.InsertMetadata{}
	}
	delimiters := meta.Delimiters
	if delimiters == nil {
		delimiters = map[normalize.Field]string{}
	}
	delimJSON, err := json.Marshal(delimiters)
	if err != nil {
		return errors.Wrap(err, "encode delimiters")
	}
	_, err = tx.ExecContext(ctx, upsertMetadataQuery,
		meta.ParentMapped, meta.AcceptedMapped, meta.BasionymMapped, meta.ClassificationMapped, string(delimJSON))
	return errors.Wrap(err, "write insert metadata")
}

func (s *Store) saveGraph(ctx context.Context, tx *sql.Tx, g *graph.Store) error {
	// foreign_keys is per connection, so do not rely on cascades
	for _, table := range []string{"relations", "verbatim", "usages"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "clear %s", table)
		}
	}

	usageStmt, err := tx.PrepareContext(ctx, insertUsageQuery)
	if err != nil {
		return errors.Wrap(err, "prepare usage insert")
	}
	defer usageStmt.Close()
	verbatimStmt, err := tx.PrepareContext(ctx, insertVerbatimQuery)
	if err != nil {
		return errors.Wrap(err, "prepare verbatim insert")
	}
	defer verbatimStmt.Close()
	relStmt, err := tx.PrepareContext(ctx, insertRelationQuery)
	if err != nil {
		return errors.Wrap(err, "prepare relation insert")
	}
	defer relStmt.Close()

	keys := g.PlaceholderKeys()
	for i := 0; i < g.Len(); i++ {
		u := g.MustNode(graph.NodeID(i))
		cl, err := json.Marshal(u.Classification)
		if err != nil {
			return errors.Wrapf(err, "encode classification of %d", u.ID)
		}
		issues, err := json.Marshal(u.Issues)
		if err != nil {
			return errors.Wrapf(err, "encode issues of %d", u.ID)
		}
		remarks := u.Remarks
		if remarks == nil {
			remarks = []string{}
		}
		rmks, err := json.Marshal(remarks)
		if err != nil {
			return errors.Wrapf(err, "encode remarks of %d", u.ID)
		}

		var taxonID, placeholderKey interface{}
		if u.TaxonID != "" {
			taxonID = u.TaxonID
		}
		if key, ok := keys[u.ID]; ok {
			placeholderKey = key
		}
		if _, err := usageStmt.ExecContext(ctx, int64(u.ID), taxonID, u.Name, u.Authorship,
			u.Rank.String(), u.Status.String(), u.Origin.String(), u.Root,
			string(cl), string(issues), string(rmks), placeholderKey); err != nil {
			if db.IsUniqueViolation(err) {
				return errors.Wrapf(errors.ErrConflict, "usage %d: %v", u.ID, err)
			}
			return errors.Wrapf(err, "insert usage %d", u.ID)
		}

		if v := u.Verbatim; v != nil {
			if _, err := verbatimStmt.ExecContext(ctx, int64(u.ID), v.AcceptedID, v.AcceptedName,
				v.ParentID, v.ParentName, v.BasionymID, v.BasionymName); err != nil {
				return errors.Wrapf(err, "insert verbatim %d", u.ID)
			}
		}
	}

	for _, t := range graph.RelTypes() {
		for _, e := range g.Edges(t) {
			if _, err := relStmt.ExecContext(ctx, int64(e.Source), int64(e.Target), t.String()); err != nil {
				return errors.Wrapf(err, "insert %s %d -> %d", t, e.Source, e.Target)
			}
		}
	}

	s.log.Infow("graph saved",
		logger.FieldNodes, g.Len(),
		logger.FieldLinks, g.EdgeCount())
	return nil
}
