// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/showcase-sync/internal/showcase"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "projects"

// ProjectStoreConfig controls the Postgres connection pool used for project rows.
type ProjectStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type txPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// ProjectStore upserts project rows. It expects a table shaped like:
//
//	CREATE TABLE projects (
//		project_id   INTEGER PRIMARY KEY,
//		project_name TEXT,
//		slug         TEXT,
//		oneliner     TEXT,
//		description  TEXT,
//		logo_url     TEXT,
//		repo_url     TEXT,
//		app_url      TEXT,
//		demo_url     TEXT,
//		track        TEXT,
//		created_at   TIMESTAMPTZ
//	);
type ProjectStore struct {
	pool  txPool
	table string
}

// NewProjectStore creates a Postgres-backed ProjectStore using the provided config.
func NewProjectStore(ctx context.Context, cfg ProjectStoreConfig) (*ProjectStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ProjectStore{pool: pool, table: table}, nil
}

// NewProjectStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewProjectStoreWithPool(pool txPool, table string) (*ProjectStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &ProjectStore{pool: pool, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *ProjectStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping checks that the database is reachable.
func (s *ProjectStore) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("project store is not configured")
	}
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// UpsertProject writes the record in its own transaction. On conflict every
// column is overwritten, created_at included.
func (s *ProjectStore) UpsertProject(ctx context.Context, record showcase.ProjectRecord) (err error) {
	if s == nil || s.pool == nil {
		return fmt.Errorf("project store is not configured")
	}
	if record.ProjectID <= 0 {
		return fmt.Errorf("project id must be positive, got %d", record.ProjectID)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
	}()

	query := fmt.Sprintf(`
INSERT INTO %s (
	project_id,
	project_name,
	slug,
	oneliner,
	description,
	logo_url,
	repo_url,
	app_url,
	demo_url,
	track,
	created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)
ON CONFLICT (project_id) DO UPDATE SET
	project_name = EXCLUDED.project_name,
	slug = EXCLUDED.slug,
	oneliner = EXCLUDED.oneliner,
	description = EXCLUDED.description,
	logo_url = EXCLUDED.logo_url,
	repo_url = EXCLUDED.repo_url,
	app_url = EXCLUDED.app_url,
	demo_url = EXCLUDED.demo_url,
	track = EXCLUDED.track,
	created_at = EXCLUDED.created_at`, s.table)

	args := []any{
		record.ProjectID,
		record.ProjectName,
		record.Slug,
		record.Oneliner,
		record.Description,
		record.LogoURL,
		record.RepoURL,
		record.AppURL,
		record.DemoURL,
		record.Track,
		record.CreatedAt,
	}
	if _, err = tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert project %d: %w", record.ProjectID, err)
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit project %d: %w", record.ProjectID, err)
	}
	return nil
}
