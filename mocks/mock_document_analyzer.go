package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"recondoc/internal/domain"
)

// MockDocumentAnalyzer is a mock implementation of port.DocumentAnalyzer.
type MockDocumentAnalyzer struct {
	mock.Mock
}

func (m *MockDocumentAnalyzer) Analyze(ctx context.Context, ocrText, fileName string) (*domain.AIResult, error) {
	args := m.Called(ctx, ocrText, fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AIResult), args.Error(1)
}
