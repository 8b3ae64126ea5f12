// Package database persists evidence custody records and confirmed analysis
// runs to Postgres. The pipeline itself never touches this package; it is
// invoked by the HTTP layer on upload and on explicit confirmation.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/casetrace/smart-import/internal/config"
)

// Evidence is one chain-of-custody record for an uploaded file.
type Evidence struct {
	ID          string
	FileName    string
	SHA256      string
	FileSize    int64
	RecordType  string
	RecordCount int
	ColumnsInfo string
	CollectedAt time.Time
}

// AnalysisRun records a confirmed analysis result written to a case.
type AnalysisRun struct {
	ID          string
	CaseID      string
	EntityCount int
	EdgeCount   int
	TotalAmount float64
	HighRisk    int
	ConfirmedAt time.Time
}

// Repository wraps the Postgres connection.
type Repository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConnection opens and pings the Postgres database.
func NewConnection(cfg config.DatabaseConfig, dsn string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// RunMigrations applies pending schema migrations.
func RunMigrations(migrationsPath, databaseURL string) error {
	m, err := migrate.New(migrationsPath, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// NewRepository creates a repository.
func NewRepository(db *sql.DB, logger *slog.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// CreateEvidence stores one custody record.
func (r *Repository) CreateEvidence(ctx context.Context, ev *Evidence) error {
	query := `
		INSERT INTO evidence (id, file_name, sha256_hash, file_size, record_type, record_count, columns_info, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		ev.ID, ev.FileName, ev.SHA256, ev.FileSize,
		ev.RecordType, ev.RecordCount, ev.ColumnsInfo, ev.CollectedAt)
	if err != nil {
		return fmt.Errorf("failed to create evidence record: %w", err)
	}

	r.logger.Info("evidence record stored",
		"evidence_id", ev.ID,
		"file", ev.FileName,
		"sha256", ev.SHA256)
	return nil
}

// CreateAnalysisRun stores one confirmed run.
func (r *Repository) CreateAnalysisRun(ctx context.Context, run *AnalysisRun) error {
	query := `
		INSERT INTO analysis_runs (id, case_id, entity_count, edge_count, total_amount, high_risk_count, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.CaseID, run.EntityCount, run.EdgeCount,
		run.TotalAmount, run.HighRisk, run.ConfirmedAt)
	if err != nil {
		return fmt.Errorf("failed to create analysis run record: %w", err)
	}
	return nil
}

// GetEvidenceByHash looks up a custody record by its digest.
func (r *Repository) GetEvidenceByHash(ctx context.Context, sha256 string) (*Evidence, error) {
	query := `
		SELECT id, file_name, sha256_hash, file_size, record_type, record_count, columns_info, collected_at
		FROM evidence WHERE sha256_hash = $1`

	ev := &Evidence{}
	err := r.db.QueryRowContext(ctx, query, sha256).Scan(
		&ev.ID, &ev.FileName, &ev.SHA256, &ev.FileSize,
		&ev.RecordType, &ev.RecordCount, &ev.ColumnsInfo, &ev.CollectedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evidence record: %w", err)
	}
	return ev, nil
}
