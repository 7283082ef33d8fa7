package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recondoc/internal/domain"
)

func src(kind domain.SourceKind, value string, confidence int) domain.DataSource {
	return domain.DataSource{
		Value:      value,
		Confidence: confidence,
		Source:     kind,
		Quality:    domain.QualityForConfidence(confidence),
	}
}

func TestAnalyzeField_NoValidSources(t *testing.T) {
	m := NewManager()

	rec := m.AnalyzeField("amount", []domain.DataSource{src(domain.SourceOCR, "", 90)})

	assert.Equal(t, domain.ActionManualRequired, rec.Action)
	assert.Zero(t, rec.Confidence)
	assert.Equal(t, domain.SourceManual, rec.RecommendedSource.Source)
}

func TestAnalyzeAmount_AITrustedWhenConfident(t *testing.T) {
	m := NewManager()
	sources := []domain.DataSource{
		src(domain.SourceOCR, "1.234,56", 60),
		src(domain.SourceAI, "1234.56", 92),
	}

	rec := m.AnalyzeField("amount", sources)

	assert.Equal(t, "1234.56", rec.RecommendedValue)
	assert.Equal(t, domain.ActionAutoAccept, rec.Action)

	sources[1].Confidence = 85
	rec = m.AnalyzeField("valor", sources)
	assert.Equal(t, domain.ActionSuggestReview, rec.Action)
}

func TestAnalyzeAmount_OCRFallback(t *testing.T) {
	m := NewManager()
	sources := []domain.DataSource{
		src(domain.SourceOCR, "850,00", 75),
		src(domain.SourceAI, "850.00", 50),
	}

	rec := m.AnalyzeField("amount", sources)

	assert.Equal(t, "850,00", rec.RecommendedValue)
	assert.Equal(t, domain.ActionSuggestReview, rec.Action)
}

func TestAnalyzeAmount_DiscrepantValuesRequireManual(t *testing.T) {
	m := NewManager()
	sources := []domain.DataSource{
		src(domain.SourceAI, "100,00", 60),
		src(domain.SourceFilename, "150,00", 50),
	}

	rec := m.AnalyzeField("amount", sources)

	assert.Equal(t, domain.ActionManualRequired, rec.Action)
	assert.Contains(t, rec.Reasoning, "discrepantes")
	// Confidence knocked down from the best source's 60.
	assert.Equal(t, 42, rec.Confidence)
}

func TestAnalyzeAmount_CloseValuesPickHighestConfidence(t *testing.T) {
	m := NewManager()
	sources := []domain.DataSource{
		src(domain.SourceAI, "100,00", 78),
		src(domain.SourceFilename, "102,00", 50),
	}

	rec := m.AnalyzeField("amount", sources)

	assert.Equal(t, "100,00", rec.RecommendedValue)
	assert.Equal(t, domain.ActionSuggestReview, rec.Action)
}

func TestAnalyzeSupplier(t *testing.T) {
	m := NewManager()

	t.Run("confident AI wins", func(t *testing.T) {
		rec := m.AnalyzeField("supplier", []domain.DataSource{
			src(domain.SourceAI, "Imobiliária Central Ltda", 88),
		})
		assert.Equal(t, domain.ActionAutoAccept, rec.Action)
	})

	t.Run("short AI value is not trusted", func(t *testing.T) {
		rec := m.AnalyzeField("fornecedor", []domain.DataSource{
			src(domain.SourceAI, "Ital", 88),
		})
		assert.Equal(t, "Fonte com maior confiança geral", rec.Reasoning)
	})

	t.Run("known supplier in filename", func(t *testing.T) {
		rec := m.AnalyzeField("supplier", []domain.DataSource{
			src(domain.SourceAI, "???", 40),
			src(domain.SourceFilename, "uber", 60),
		})
		assert.Equal(t, "uber", rec.RecommendedValue)
		assert.Equal(t, 85, rec.Confidence)
		assert.Equal(t, domain.ActionSuggestReview, rec.Action)
	})
}

func TestAnalyzeDescription(t *testing.T) {
	m := NewManager()

	rec := m.AnalyzeField("description", []domain.DataSource{
		src(domain.SourceFilename, "Locacao Veiculo", 60),
		src(domain.SourceAI, "Locação de veículo corporativo", 80),
	})

	assert.Equal(t, "Locação de veículo corporativo", rec.RecommendedValue)
	assert.Equal(t, domain.ActionAutoAccept, rec.Action)
}

func TestAnalyzeDate(t *testing.T) {
	m := NewManager()

	t.Run("invalid formats are discarded", func(t *testing.T) {
		rec := m.AnalyzeField("duedate", []domain.DataSource{
			src(domain.SourceAI, "amanhã", 90),
			src(domain.SourceOCR, "15/03/2024", 65),
		})
		assert.Equal(t, "15/03/2024", rec.RecommendedValue)
		assert.Equal(t, domain.ActionSuggestReview, rec.Action)
	})

	t.Run("no valid date at all", func(t *testing.T) {
		rec := m.AnalyzeField("data_vencimento", []domain.DataSource{
			src(domain.SourceAI, "março", 90),
		})
		assert.Equal(t, domain.ActionManualRequired, rec.Action)
		assert.Contains(t, rec.Reasoning, "Nenhuma data válida")
	})

	t.Run("confident AI date auto accepted", func(t *testing.T) {
		rec := m.AnalyzeField("duedate", []domain.DataSource{
			src(domain.SourceAI, "2024-03-15", 80),
		})
		assert.Equal(t, domain.ActionAutoAccept, rec.Action)
	})
}

func TestAnalyzeGenericField(t *testing.T) {
	m := NewManager()

	rec := m.AnalyzeField("category", []domain.DataSource{
		src(domain.SourceFilename, "Transporte", 85),
		src(domain.SourceAI, "Logística", 70),
	})

	assert.Equal(t, "Transporte", rec.RecommendedValue)
	assert.Equal(t, domain.ActionSuggestReview, rec.Action)

	rec = m.AnalyzeField("category", []domain.DataSource{
		src(domain.SourceFilename, "Transporte", 55),
	})
	assert.Equal(t, domain.ActionManualRequired, rec.Action)
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"R$ 1.234,56", 1234.56},
		{"1.234,56", 1234.56},
		{"850,00", 850},
		{"1234.56", 123456}, // dot treated as thousands separator
		{"", 0},
		{"abc", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseAmount(tc.in), tc.in)
	}
}

func TestIsValidDate(t *testing.T) {
	assert.True(t, IsValidDate("15/03/2024"))
	assert.True(t, IsValidDate("2024-03-15"))
	assert.False(t, IsValidDate("15-03-2024"))
	assert.False(t, IsValidDate("ontem"))
	assert.False(t, IsValidDate(""))
}

func TestBestSource_TieKeepsFirst(t *testing.T) {
	first := src(domain.SourceOCR, "a", 70)
	second := src(domain.SourceAI, "b", 70)

	best := bestSource([]domain.DataSource{first, second})
	require.Equal(t, first, best)
}
