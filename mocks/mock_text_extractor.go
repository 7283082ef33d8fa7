package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"recondoc/internal/domain"
)

// MockTextExtractor is a mock implementation of port.TextExtractor.
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) Extract(ctx context.Context, filePath string, profile domain.OcrProfile) domain.ExtractionResult {
	args := m.Called(ctx, filePath, profile)
	return args.Get(0).(domain.ExtractionResult)
}
