package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"recondoc/internal/domain"
)

// MockAnalysisService is a mock implementation of service.AnalysisService.
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) AnalyzeDocument(ctx context.Context, fileName string, content []byte) (*domain.DocumentAnalysis, error) {
	args := m.Called(ctx, fileName, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentAnalysis), args.Error(1)
}
