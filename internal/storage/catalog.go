package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	model TEXT NOT NULL,
	integrator TEXT NOT NULL,
	dt REAL NOT NULL,
	duration REAL NOT NULL,
	steps INTEGER NOT NULL,
	final_biomass REAL,
	dir TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_model_idx ON runs (model, created_at);
`

// CatalogEntry is one indexed run.
type CatalogEntry struct {
	ID           string
	Model        string
	Integrator   string
	Dt           float64
	Duration     float64
	Steps        int
	FinalBiomass sql.NullFloat64
	Dir          string
	CreatedAt    time.Time
}

// Catalog is a SQLite index over saved runs. The run directories remain
// the source of truth; the catalog only makes them searchable.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens (creating if needed) the catalog database at path.
func OpenCatalog(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("catalog path is required")
	}
	db, err := sql.Open("sqlite", filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite db: %w", err)
	}
	if _, err := db.Exec(catalogSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Put indexes meta, replacing any earlier entry with the same id.
func (c *Catalog) Put(meta RunMetadata, dir string) error {
	return c.PutContext(context.Background(), meta, dir)
}

func (c *Catalog) PutContext(ctx context.Context, meta RunMetadata, dir string) error {
	if meta.ID == "" {
		return errors.New("run id is required")
	}
	created := meta.Timestamp
	if created.IsZero() {
		created = time.Now()
	}

	var final sql.NullFloat64
	if v, ok := meta.Metrics["final_biomass"]; ok {
		final = sql.NullFloat64{Float64: v, Valid: true}
	}

	_, err := c.db.ExecContext(ctx, `
INSERT OR REPLACE INTO runs (
	id,
	model,
	integrator,
	dt,
	duration,
	steps,
	final_biomass,
	dir,
	created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		meta.ID,
		meta.Model,
		meta.Integrator,
		meta.Dt,
		meta.Duration,
		meta.Steps,
		final,
		dir,
		created.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("put run: %w", err)
	}
	return nil
}

// List returns indexed runs oldest first, filtered by model when model is
// not empty.
func (c *Catalog) List(ctx context.Context, model string) ([]CatalogEntry, error) {
	query := `
SELECT id, model, integrator, dt, duration, steps, final_biomass, dir, created_at
FROM runs`
	var args []any
	if model != "" {
		query += " WHERE model = ?"
		args = append(args, model)
	}
	query += " ORDER BY created_at, id"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	entries := make([]CatalogEntry, 0)
	for rows.Next() {
		var (
			e       CatalogEntry
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Model, &e.Integrator, &e.Dt, &e.Duration, &e.Steps, &e.FinalBiomass, &e.Dir, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.CreatedAt = time.Unix(0, created).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return entries, nil
}
