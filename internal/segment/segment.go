// Package segment detects composite documents. Brazilian insurers and
// utilities routinely mail an apólice or fatura with a detachable boleto on
// the last page; extracting the wrong half produces confidently wrong data,
// so segmentation runs before any field extraction.
package segment

import (
	"fmt"
	"regexp"
	"strings"

	"recondoc/internal/domain"
)

type indicator struct {
	Pattern string
	Weight  int
	Label   string
}

var boletoIndicators = []indicator{
	{"ficha de compensação", 15, "FICHA DE COMPENSAÇÃO"},
	{"código de barras", 15, "CÓDIGO DE BARRAS"},
	{"linha digitável", 15, "LINHA DIGITÁVEL"},
	{"cedente", 15, "CEDENTE"},
	{"sacado", 15, "SACADO"},
	{"pagador", 15, "PAGADOR"},
	{"vencimento", 15, "VENCIMENTO"},
	{"nosso número", 15, "NOSSO NÚMERO"},
	{"banco", 15, "BANCO"},
	{"agência", 15, "AGÊNCIA"},
	{"conta", 15, "CONTA"},
	{"carteira", 15, "CARTEIRA"},
	{"cip", 15, "CIP"},
	{"autenticação mecânica", 15, "AUTENTICAÇÃO MECÂNICA"},
	{"corte aqui", 15, "CORTE AQUI"},
}

var apoliceIndicators = []indicator{
	{"apólice", 12, "APÓLICE"},
	{"segurado", 12, "SEGURADO"},
	{"seguradora", 12, "SEGURADORA"},
	{"prêmio", 12, "PRÊMIO"},
	{"vigência", 12, "VIGÊNCIA"},
	{"cobertura", 12, "COBERTURA"},
	{"sinistro", 12, "SINISTRO"},
	{"franquia", 12, "FRANQUIA"},
	{"susep", 12, "SUSEP"},
	{"demonstrativo do prêmio", 12, "DEMONSTRATIVO DO PRÊMIO"},
	{"importância segurada", 12, "IMPORTÂNCIA SEGURADA"},
}

var danfeIndicators = []indicator{
	{"danfe", 15, "DANFE"},
	{"nota fiscal eletrônica", 15, "NOTA FISCAL ELETRÔNICA"},
	{"chave de acesso", 15, "CHAVE DE ACESSO"},
	{"emitente", 15, "EMITENTE"},
	{"destinatário", 15, "DESTINATÁRIO"},
	{"cfop", 15, "CFOP"},
	{"ncm", 15, "NCM"},
	{"icms", 15, "ICMS"},
}

var (
	linhaDigitavelRe = regexp.MustCompile(`\d{5}\.\d{5}\s\d{5}\.\d{6}\s\d{5}\.\d{6}`)
	codigoBarrasRe   = regexp.MustCompile(`\d{47,48}`)
	chaveNFeRe       = regexp.MustCompile(`\d{4}\s\d{4}\s\d{4}\s\d{4}\s\d{4}\s\d{4}\s\d{4}\s\d{4}\s\d{4}\s\d{4}\s\d{4}`)
)

// boletoContextChars is how far back from the first matched indicator the
// boleto span starts. The payable section usually has a few lines of header
// above the first keyword.
const boletoContextChars = 500

// Analyze segments one OCR text blob and decides which segment drives
// downstream processing.
func Analyze(text string) domain.MultiDocumentAnalysis {
	segments := detectSegments(text)
	return prioritize(segments)
}

func detectSegments(text string) []domain.DocumentSegment {
	var segments []domain.DocumentSegment

	if s := detectBoleto(text); s != nil {
		segments = append(segments, *s)
	}
	if s := detectApolice(text); s != nil {
		segments = append(segments, *s)
	}
	if s := detectDANFE(text); s != nil {
		segments = append(segments, *s)
	}

	if len(segments) == 0 {
		segments = append(segments, domain.DocumentSegment{
			Type:        domain.SegmentOutros,
			Confidence:  30,
			EndPosition: len(text),
			Text:        text,
			Indicators:  []string{"Documento genérico"},
		})
	}
	return segments
}

// score runs one indicator table over the text and returns the total weight
// plus the matched labels.
func score(lower string, table []indicator) (int, []string) {
	var confidence int
	var matched []string
	for _, ind := range table {
		if strings.Contains(lower, ind.Pattern) {
			confidence += ind.Weight
			matched = append(matched, ind.Label)
		}
	}
	return confidence, matched
}

func detectBoleto(text string) *domain.DocumentSegment {
	lower := strings.ToLower(text)

	confidence, indicators := score(lower, boletoIndicators)

	startPos := -1
	for _, ind := range boletoIndicators {
		if pos := strings.Index(lower, ind.Pattern); pos >= 0 {
			if startPos == -1 || pos-boletoContextChars < startPos {
				startPos = pos - boletoContextChars
				if startPos < 0 {
					startPos = 0
				}
			}
		}
	}

	if linhaDigitavelRe.MatchString(text) {
		indicators = append(indicators, "Linha digitável detectada")
		confidence += 25
	}
	if codigoBarrasRe.MatchString(text) {
		indicators = append(indicators, "Código de barras detectado")
		confidence += 25
	}
	if strings.Contains(lower, "ficha de compensação") {
		confidence += 30
	}

	if confidence < 40 {
		return nil
	}

	segText := text
	if startPos > 0 {
		segText = text[startPos:]
	}
	if startPos < 0 {
		startPos = 0
	}
	return &domain.DocumentSegment{
		Type:          domain.SegmentBoleto,
		Confidence:    capConfidence(confidence, 95),
		StartPosition: startPos,
		EndPosition:   len(text),
		Text:          segText,
		Indicators:    indicators,
	}
}

func detectApolice(text string) *domain.DocumentSegment {
	confidence, indicators := score(strings.ToLower(text), apoliceIndicators)
	if confidence < 30 {
		return nil
	}
	// The policy body sits above the detachable payment slip.
	end := len(text) * 7 / 10
	return &domain.DocumentSegment{
		Type:        domain.SegmentApolice,
		Confidence:  capConfidence(confidence, 90),
		EndPosition: end,
		Text:        text[:end],
		Indicators:  indicators,
	}
}

func detectDANFE(text string) *domain.DocumentSegment {
	confidence, indicators := score(strings.ToLower(text), danfeIndicators)

	if chaveNFeRe.MatchString(text) {
		indicators = append(indicators, "Chave de acesso NF-e")
		confidence += 25
	}

	if confidence < 40 {
		return nil
	}
	return &domain.DocumentSegment{
		Type:        domain.SegmentDANFE,
		Confidence:  capConfidence(confidence, 95),
		EndPosition: len(text),
		Text:        text,
		Indicators:  indicators,
	}
}

func prioritize(segments []domain.DocumentSegment) domain.MultiDocumentAnalysis {
	if len(segments) == 1 {
		return domain.MultiDocumentAnalysis{
			Segments:       segments,
			PrimaryType:    segments[0].Type,
			Priority:       domain.PriorityPrimary,
			Recommendation: fmt.Sprintf("Documento identificado como %s", segments[0].Type),
		}
	}

	var boleto *domain.DocumentSegment
	var others []domain.DocumentSegment
	for i := range segments {
		if segments[i].Type == domain.SegmentBoleto {
			boleto = &segments[i]
		} else {
			others = append(others, segments[i])
		}
	}

	if boleto != nil && len(others) > 0 {
		best := highestConfidence(others)
		return domain.MultiDocumentAnalysis{
			Segments:       segments,
			PrimaryType:    domain.SegmentBoleto,
			SecondaryType:  best.Type,
			Priority:       domain.PriorityBoleto,
			Recommendation: fmt.Sprintf("Documento composto detectado: %s + BOLETO. Processando BOLETO para agendamento.", best.Type),
			Conflicts:      detectConflicts(*boleto, best),
		}
	}

	primary := highestConfidence(segments)
	var secondary *domain.DocumentSegment
	for i := range segments {
		if segments[i].Type != primary.Type {
			secondary = &segments[i]
			break
		}
	}

	out := domain.MultiDocumentAnalysis{
		Segments:       segments,
		PrimaryType:    primary.Type,
		Priority:       domain.PriorityPrimary,
		Recommendation: fmt.Sprintf("Processando como %s", primary.Type),
	}
	if secondary != nil {
		out.SecondaryType = secondary.Type
		out.Conflicts = detectConflicts(primary, *secondary)
	}
	return out
}

func highestConfidence(segments []domain.DocumentSegment) domain.DocumentSegment {
	best := segments[0]
	for _, s := range segments[1:] {
		if s.Confidence > best.Confidence {
			best = s
		}
	}
	return best
}

// detectConflicts flags segments that both score high; reviewers should know
// the classifier was genuinely torn.
func detectConflicts(a, b domain.DocumentSegment) []string {
	if a.Confidence > 80 && b.Confidence > 80 {
		return []string{fmt.Sprintf(
			"Alta confiança em ambos tipos: %s (%d%%) e %s (%d%%)",
			a.Type, a.Confidence, b.Type, b.Confidence,
		)}
	}
	return nil
}

func capConfidence(c, max int) int {
	if c > max {
		return max
	}
	return c
}
