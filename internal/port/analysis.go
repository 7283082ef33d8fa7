package port

import (
	"context"

	"recondoc/internal/domain"
)

// TextExtractor runs the strategy cascade for one file and returns the first
// result that met the profile's floors. Extraction failure is reported inside
// the result, not as an error.
type TextExtractor interface {
	Extract(ctx context.Context, filePath string, profile domain.OcrProfile) domain.ExtractionResult
}

// DocumentAnalyzer performs AI analysis over extracted text. Implementations
// degrade to heuristics instead of failing when providers are unavailable.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, ocrText, fileName string) (*domain.AIResult, error)
}
