package port

import (
	"context"

	"recondoc/internal/domain"
)

// SuccessRateSource exposes historical extraction success rates used to adapt
// OCR confidence thresholds. Rates are in [0, 1]; ok is false when there is
// no history for the key.
type SuccessRateSource interface {
	SupplierSuccessRate(ctx context.Context, supplier string) (rate float64, ok bool, err error)
	DocumentTypeSuccessRate(ctx context.Context, documentType string) (rate float64, ok bool, err error)
}

// AnalysisRunRepository records per-analysis extraction metrics.
type AnalysisRunRepository interface {
	SuccessRateSource
	Create(ctx context.Context, run *domain.AnalysisRun) error
}
