package importstore

import (
	"context"
	"database/sql"

	"github.com/teranos/taxgraph/errors"
)

// Stats summarizes the store content for `db stats`.
type Stats struct {
	SchemaVersion string         `json:"schema_version"`
	ImportedBy    string         `json:"imported_by,omitempty"`
	Usages        int            `json:"usages"`
	Verbatim      int            `json:"verbatim"`
	Roots         int            `json:"roots"`
	ByStatus      map[string]int `json:"by_status"`
	ByOrigin      map[string]int `json:"by_origin"`
	Relations     map[string]int `json:"relations"`
	Flagged       int            `json:"flagged"`
	Runs          int            `json:"runs"`
	LastRun       *Run           `json:"last_run,omitempty"`
}

// Stats counts rows by table and category.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{
		ByStatus:  map[string]int{},
		ByOrigin:  map[string]int{},
		Relations: map[string]int{},
	}

	var err error
	if st.SchemaVersion, err = s.SchemaVersion(ctx); err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, "SELECT value FROM store_info WHERE key = ?", importedByKey).Scan(&st.ImportedBy)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(err, "read imported_by")
	}

	counts := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM usages", &st.Usages},
		{"SELECT COUNT(*) FROM verbatim", &st.Verbatim},
		{"SELECT COUNT(*) FROM usages WHERE is_root = 1", &st.Roots},
		{"SELECT COUNT(*) FROM usages WHERE issues != '[]'", &st.Flagged},
		{"SELECT COUNT(*) FROM normalization_runs", &st.Runs},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return nil, errors.Wrapf(err, "count: %s", c.query)
		}
	}

	groups := []struct {
		query string
		dst   map[string]int
	}{
		{"SELECT status, COUNT(*) FROM usages GROUP BY status", st.ByStatus},
		{"SELECT origin, COUNT(*) FROM usages GROUP BY origin", st.ByOrigin},
		{"SELECT type, COUNT(*) FROM relations GROUP BY type", st.Relations},
	}
	for _, g := range groups {
		if err := s.groupCount(ctx, g.query, g.dst); err != nil {
			return nil, err
		}
	}

	runs, err := s.Runs(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) > 0 {
		st.LastRun = &runs[0]
	}
	return st, nil
}

func (s *Store) groupCount(ctx context.Context, query string, dst map[string]int) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return errors.Wrapf(err, "group count: %s", query)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return errors.Wrap(err, "scan group count")
		}
		dst[key] = n
	}
	return errors.Wrap(rows.Err(), "iterate group count")
}
