package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"recondoc/internal/domain"
)

// MockAnalysisRunRepository is a mock implementation of port.AnalysisRunRepository.
type MockAnalysisRunRepository struct {
	mock.Mock
}

func (m *MockAnalysisRunRepository) SupplierSuccessRate(ctx context.Context, supplier string) (float64, bool, error) {
	args := m.Called(ctx, supplier)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}

func (m *MockAnalysisRunRepository) DocumentTypeSuccessRate(ctx context.Context, documentType string) (float64, bool, error) {
	args := m.Called(ctx, documentType)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}

func (m *MockAnalysisRunRepository) Create(ctx context.Context, run *domain.AnalysisRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}
