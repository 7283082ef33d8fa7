package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"recondoc/internal/domain"
	"recondoc/internal/port"
)

type analysisRunRepo struct {
	db *sqlx.DB
}

// NewAnalysisRunRepo creates a new PostgreSQL-backed AnalysisRunRepository.
func NewAnalysisRunRepo(db *sqlx.DB) port.AnalysisRunRepository {
	return &analysisRunRepo{db: db}
}

const insertRunQuery = `INSERT INTO analysis_runs
	(id, filename, supplier_hint, document_type, strategy, confidence, char_count, success, duration_ms, created_at)
VALUES
	(:id, :filename, :supplier_hint, :document_type, :strategy, :confidence, :char_count, :success, :duration_ms, :created_at)`

func (r *analysisRunRepo) Create(ctx context.Context, run *domain.AnalysisRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	// The insert binds created_at itself, so the column default never
	// applies and a zero time would fall outside the rate window.
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.NamedExecContext(ctx, insertRunQuery, run); err != nil {
		return fmt.Errorf("analysisRunRepo.Create: %w", err)
	}
	return nil
}

// successRate is the scanned shape of the aggregate queries. ok is false
// when too few runs exist for the rate to mean anything.
type successRate struct {
	Total     int     `db:"total"`
	Succeeded int     `db:"succeeded"`
	Rate      float64 `db:"rate"`
}

// minRunsForRate guards threshold adaptation against noise from one or two
// early documents.
const minRunsForRate = 5

const supplierRateQuery = `SELECT
	COUNT(*) AS total,
	COUNT(CASE WHEN success THEN 1 END) AS succeeded,
	COALESCE(AVG(CASE WHEN success THEN 1.0 ELSE 0.0 END), 0) AS rate
FROM analysis_runs
WHERE supplier_hint = $1 AND created_at > NOW() - INTERVAL '90 days'`

const documentTypeRateQuery = `SELECT
	COUNT(*) AS total,
	COUNT(CASE WHEN success THEN 1 END) AS succeeded,
	COALESCE(AVG(CASE WHEN success THEN 1.0 ELSE 0.0 END), 0) AS rate
FROM analysis_runs
WHERE document_type = $1 AND created_at > NOW() - INTERVAL '90 days'`

func (r *analysisRunRepo) SupplierSuccessRate(ctx context.Context, supplier string) (float64, bool, error) {
	var sr successRate
	if err := r.db.GetContext(ctx, &sr, supplierRateQuery, supplier); err != nil {
		return 0, false, fmt.Errorf("analysisRunRepo.SupplierSuccessRate: %w", err)
	}
	if sr.Total < minRunsForRate {
		return 0, false, nil
	}
	return sr.Rate, true, nil
}

func (r *analysisRunRepo) DocumentTypeSuccessRate(ctx context.Context, documentType string) (float64, bool, error) {
	var sr successRate
	if err := r.db.GetContext(ctx, &sr, documentTypeRateQuery, documentType); err != nil {
		return 0, false, fmt.Errorf("analysisRunRepo.DocumentTypeSuccessRate: %w", err)
	}
	if sr.Total < minRunsForRate {
		return 0, false, nil
	}
	return sr.Rate, true, nil
}
