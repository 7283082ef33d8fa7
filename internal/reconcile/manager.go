// Package reconcile merges candidate values for the same field coming from
// different extraction paths. Each field class has its own trust rules;
// everything else falls back to plain highest-confidence.
package reconcile

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"recondoc/internal/domain"
	"recondoc/internal/filename"
)

var (
	dateSlashRe = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	dateISORe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// amountVarianceLimit is the relative spread between candidate amounts above
// which no automatic choice is trusted.
const amountVarianceLimit = 0.1

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// AnalyzeField reconciles all candidates for one field. Field names are
// accepted in English and Portuguese since candidates arrive from both AI
// output and document text.
func (m *Manager) AnalyzeField(fieldName string, sources []domain.DataSource) domain.SmartRecommendation {
	valid := sources[:0:0]
	for _, s := range sources {
		if s.Value != "" {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return manualEmpty("Nenhuma fonte válida encontrada")
	}

	switch strings.ToLower(fieldName) {
	case "amount", "valor":
		return m.analyzeAmount(valid)
	case "supplier", "fornecedor", "contraparte":
		return m.analyzeSupplier(valid)
	case "description", "descricao":
		return m.analyzeDescription(valid)
	case "duedate", "data_vencimento":
		return m.analyzeDate(valid)
	default:
		return m.analyzeGeneric(valid)
	}
}

func (m *Manager) analyzeAmount(sources []domain.DataSource) domain.SmartRecommendation {
	if ai := findSource(sources, domain.SourceAI); ai != nil && ai.Confidence > 80 {
		action := domain.ActionSuggestReview
		if ai.Confidence > 90 {
			action = domain.ActionAutoAccept
		}
		return domain.SmartRecommendation{
			RecommendedValue:  ai.Value,
			RecommendedSource: *ai,
			Reasoning:         "IA tem alta confiança na extração de valores monetários",
			Confidence:        ai.Confidence,
			Action:            action,
		}
	}

	if ocr := findSource(sources, domain.SourceOCR); ocr != nil && ocr.Confidence > 70 {
		return domain.SmartRecommendation{
			RecommendedValue:  ocr.Value,
			RecommendedSource: *ocr,
			Reasoning:         "OCR com boa qualidade para valores numéricos",
			Confidence:        ocr.Confidence,
			Action:            domain.ActionSuggestReview,
		}
	}

	var values []float64
	for _, s := range sources {
		if v := ParseAmount(s.Value); v > 0 {
			values = append(values, v)
		}
	}
	if len(values) > 1 {
		min, max := values[0], values[0]
		for _, v := range values[1:] {
			min = math.Min(min, v)
			max = math.Max(max, v)
		}
		if variance := (max - min) / min; variance > amountVarianceLimit {
			best := bestSource(sources)
			return domain.SmartRecommendation{
				RecommendedValue:  best.Value,
				RecommendedSource: best,
				Reasoning:         fmt.Sprintf("Valores discrepantes detectados (variação: %d%%). Recomendo revisar manualmente.", int(math.Round(variance*100))),
				Confidence:        int(float64(best.Confidence) * 0.7),
				Action:            domain.ActionManualRequired,
			}
		}
	}

	best := bestSource(sources)
	action := domain.ActionManualRequired
	if best.Confidence > 75 {
		action = domain.ActionSuggestReview
	}
	return domain.SmartRecommendation{
		RecommendedValue:  best.Value,
		RecommendedSource: best,
		Reasoning:         "Fonte com maior confiança selecionada",
		Confidence:        best.Confidence,
		Action:            action,
	}
}

func (m *Manager) analyzeSupplier(sources []domain.DataSource) domain.SmartRecommendation {
	if ai := findSource(sources, domain.SourceAI); ai != nil && ai.Confidence > 70 && len(ai.Value) > 5 {
		action := domain.ActionSuggestReview
		if ai.Confidence > 85 {
			action = domain.ActionAutoAccept
		}
		return domain.SmartRecommendation{
			RecommendedValue:  ai.Value,
			RecommendedSource: *ai,
			Reasoning:         "IA especializada em extrair nomes de empresas",
			Confidence:        ai.Confidence,
			Action:            action,
		}
	}

	if fn := findSource(sources, domain.SourceFilename); fn != nil && filename.KnownSupplier(fn.Value) != "" {
		return domain.SmartRecommendation{
			RecommendedValue:  fn.Value,
			RecommendedSource: *fn,
			Reasoning:         "Fornecedor identificado no nome do arquivo",
			Confidence:        85,
			Action:            domain.ActionSuggestReview,
		}
	}

	return m.analyzeGeneric(sources)
}

func (m *Manager) analyzeDescription(sources []domain.DataSource) domain.SmartRecommendation {
	if ai := findSource(sources, domain.SourceAI); ai != nil && ai.Confidence > 75 {
		return domain.SmartRecommendation{
			RecommendedValue:  ai.Value,
			RecommendedSource: *ai,
			Reasoning:         "IA gera descrições mais contextuais e úteis",
			Confidence:        ai.Confidence,
			Action:            domain.ActionAutoAccept,
		}
	}
	return m.analyzeGeneric(sources)
}

func (m *Manager) analyzeDate(sources []domain.DataSource) domain.SmartRecommendation {
	var valid []domain.DataSource
	for _, s := range sources {
		if IsValidDate(s.Value) {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return manualEmpty("Nenhuma data válida encontrada")
	}

	if ai := findSource(valid, domain.SourceAI); ai != nil && ai.Confidence > 70 {
		return domain.SmartRecommendation{
			RecommendedValue:  ai.Value,
			RecommendedSource: *ai,
			Reasoning:         "IA especializada em extrair e formatar datas",
			Confidence:        ai.Confidence,
			Action:            domain.ActionAutoAccept,
		}
	}

	best := bestSource(valid)
	return domain.SmartRecommendation{
		RecommendedValue:  best.Value,
		RecommendedSource: best,
		Reasoning:         "Data válida com maior confiança",
		Confidence:        best.Confidence,
		Action:            domain.ActionSuggestReview,
	}
}

func (m *Manager) analyzeGeneric(sources []domain.DataSource) domain.SmartRecommendation {
	best := bestSource(sources)
	action := domain.ActionManualRequired
	if best.Confidence > 80 {
		action = domain.ActionSuggestReview
	}
	return domain.SmartRecommendation{
		RecommendedValue:  best.Value,
		RecommendedSource: best,
		Reasoning:         "Fonte com maior confiança geral",
		Confidence:        best.Confidence,
		Action:            action,
	}
}

// ParseAmount converts a Brazilian-formatted monetary string to a float.
// Strip order matters: currency marker and spaces first, then thousands
// dots, then the decimal comma.
func ParseAmount(value string) float64 {
	if value == "" {
		return 0
	}
	cleaned := strings.NewReplacer("R", "", "$", "", " ", "").Replace(value)
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.Replace(cleaned, ",", ".", 1)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// IsValidDate accepts DD/MM/YYYY and YYYY-MM-DD.
func IsValidDate(value string) bool {
	return dateSlashRe.MatchString(value) || dateISORe.MatchString(value)
}

func findSource(sources []domain.DataSource, kind domain.SourceKind) *domain.DataSource {
	for i := range sources {
		if sources[i].Source == kind {
			return &sources[i]
		}
	}
	return nil
}

// bestSource keeps the earliest candidate on ties.
func bestSource(sources []domain.DataSource) domain.DataSource {
	best := sources[0]
	for _, s := range sources[1:] {
		if s.Confidence > best.Confidence {
			best = s
		}
	}
	return best
}

func manualEmpty(reason string) domain.SmartRecommendation {
	return domain.SmartRecommendation{
		RecommendedSource: domain.DataSource{
			Source:  domain.SourceManual,
			Quality: domain.QualityLow,
		},
		Reasoning: reason,
		Action:    domain.ActionManualRequired,
	}
}
