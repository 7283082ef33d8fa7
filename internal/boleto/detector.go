// Package boleto scores text for payment-slip evidence and pulls out the
// structured fields a scheduler needs. Detection is regex-driven and
// deterministic: the same text always produces the same result.
package boleto

import (
	"fmt"
	"regexp"
	"strings"

	"recondoc/internal/domain"
)

type indicator struct {
	Pattern *regexp.Regexp
	Weight  int
	Name    string
}

// Strong indicators are near-unique to boletos; a couple of them alone
// confirm one.
var strongIndicators = []indicator{
	{regexp.MustCompile(`(?i)FICHA DE COMPENSAÇÃO`), 30, "FICHA DE COMPENSAÇÃO"},
	{regexp.MustCompile(`\d{5}\.\d{5}\s\d{5}\.\d{6}\s\d{5}\.\d{6}`), 25, "Linha digitável"},
	{regexp.MustCompile(`\d{47,48}`), 25, "Código de barras"},
	{regexp.MustCompile(`(?i)CÓDIGO DE BARRAS`), 20, "CÓDIGO DE BARRAS"},
	{regexp.MustCompile(`(?i)NOSSO NÚMERO`), 15, "NOSSO NÚMERO"},
	{regexp.MustCompile(`(?i)CEDENTE`), 15, "CEDENTE"},
	{regexp.MustCompile(`(?i)SACADO`), 15, "SACADO"},
}

// Moderate indicators appear in other banking documents too; their weight
// scales with occurrences, capped at twice.
var moderateIndicators = []indicator{
	{regexp.MustCompile(`(?i)VENCIMENTO`), 10, "VENCIMENTO"},
	{regexp.MustCompile(`(?i)AGÊNCIA`), 8, "AGÊNCIA"},
	{regexp.MustCompile(`(?i)CONTA`), 8, "CONTA"},
	{regexp.MustCompile(`(?i)CARTEIRA`), 8, "CARTEIRA"},
	{regexp.MustCompile(`(?i)BANCO`), 5, "BANCO"},
	{regexp.MustCompile(`(?i)PAGADOR`), 10, "PAGADOR"},
	{regexp.MustCompile(`(?i)LOCAL DE PAGAMENTO`), 12, "LOCAL DE PAGAMENTO"},
	{regexp.MustCompile(`(?i)INSTRUÇÕES`), 8, "INSTRUÇÕES"},
	{regexp.MustCompile(`(?i)ATÉ O VENCIMENTO`), 10, "ATÉ O VENCIMENTO"},
}

var layoutPatterns = []indicator{
	{regexp.MustCompile(`(?i)CORTE AQUI`), 15, "CORTE AQUI"},
	{regexp.MustCompile(`(?i)AUTENTICAÇÃO MECÂNICA`), 15, "AUTENTICAÇÃO MECÂNICA"},
	{regexp.MustCompile(`═{3,}`), 8, "Bordas de boleto"},
	{regexp.MustCompile(`─{5,}`), 5, "Linhas divisórias"},
}

var (
	linhaDigitavelRe     = regexp.MustCompile(`(\d{5}\.\d{5}\s\d{5}\.\d{6}\s\d{5}\.\d{6}[\s\d]*)`)
	linhaDigitavelLineRe = regexp.MustCompile(`\d{5}\.\d{5}\s\d{5}\.\d{6}\s\d{5}\.\d{6}`)
	codigoBarrasRe       = regexp.MustCompile(`(\d{47,48})`)
	vencimentoLabelRe    = regexp.MustCompile(`(?i)VENCIMENTO.*?(\d{2}/\d{2}/\d{4})`)
	anyDateRe            = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})`)
	cedenteRe            = regexp.MustCompile(`(?i)CEDENTE[:\s]*([^\n]+)`)
	sacadoRe             = regexp.MustCompile(`(?i)SACADO[:\s]*([^\n]+)`)
	pagadorRe            = regexp.MustCompile(`(?i)PAGADOR[:\s]*([^\n]+)`)
	nossoNumeroRe        = regexp.MustCompile(`(?i)NOSSO NÚMERO[:\s]*([^\n\s]+)`)
	bancoRe              = regexp.MustCompile(`(?i)BANCO[:\s]*([^\n]+)`)

	// Valor patterns are tried in order from most to least specific.
	valorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)VALOR.*?R\$\s*([\d.,]+)`),
		regexp.MustCompile(`R\$\s*([\d.,]+)`),
		regexp.MustCompile(`(\d{1,3}(?:\.\d{3})*,\d{2})`),
	}

	validLinhaRe   = regexp.MustCompile(`^\d{5}\.\d{5}\s\d{5}\.\d{6}\s\d{5}\.\d{6}`)
	validBarcodeRe = regexp.MustCompile(`^\d{47,48}$`)
	validDateRe    = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	validValorRe   = regexp.MustCompile(`^\d+[.,]\d{2}$`)
)

const (
	isBoletoThreshold       = 40
	sectionThreshold        = 50
	dataExtractionThreshold = 60
	confidenceCap           = 95
)

// Detect scores the text for boleto evidence and, past the thresholds, pulls
// out the slip's section and structured fields.
func Detect(text string) domain.BoletoDetectionResult {
	var (
		indicators []string
		confidence int
		reasoning  []string
	)

	for _, ind := range strongIndicators {
		if n := len(ind.Pattern.FindAllStringIndex(text, -1)); n > 0 {
			indicators = append(indicators, ind.Name)
			confidence += ind.Weight
			reasoning = append(reasoning, fmt.Sprintf("✓ %s detectado (%dx)", ind.Name, n))
		}
	}
	for _, ind := range moderateIndicators {
		if n := len(ind.Pattern.FindAllStringIndex(text, -1)); n > 0 {
			indicators = append(indicators, ind.Name)
			if n > 2 {
				n = 2
			}
			confidence += ind.Weight * n
			reasoning = append(reasoning, fmt.Sprintf("• %s encontrado", ind.Name))
		}
	}
	for _, ind := range layoutPatterns {
		if ind.Pattern.MatchString(text) {
			indicators = append(indicators, ind.Name)
			confidence += ind.Weight
			reasoning = append(reasoning, fmt.Sprintf("+ Layout: %s", ind.Name))
		}
	}

	var section *domain.BoletoSection
	if confidence >= sectionThreshold {
		section = extractSection(text)
	}

	var data *domain.BoletoData
	if confidence >= dataExtractionThreshold {
		source := text
		if section != nil {
			source = section.Text
		}
		data = extractData(source)
	}

	if confidence > confidenceCap {
		confidence = confidenceCap
	}
	return domain.BoletoDetectionResult{
		IsBoleto:   confidence >= isBoletoThreshold,
		Confidence: confidence,
		Data:       data,
		Indicators: indicators,
		Section:    section,
		Reasoning:  strings.Join(reasoning, "; "),
	}
}

// extractSection finds where the slip starts. Marker lines win; a bare digit
// line gets a little more leading context; with neither, the slip is assumed
// to be the trailing 40% of the document.
func extractSection(text string) *domain.BoletoSection {
	lines := strings.Split(text, "\n")
	startIdx := -1
	found := false

	for i, line := range lines {
		upper := strings.ToUpper(line)
		if strings.Contains(upper, "FICHA DE COMPENSAÇÃO") ||
			strings.Contains(upper, "CÓDIGO DE BARRAS") ||
			strings.Contains(upper, "CORTE AQUI") {
			startIdx, found = i-3, true
			break
		}
		if linhaDigitavelLineRe.MatchString(line) {
			startIdx, found = i-5, true
			break
		}
	}
	if found && startIdx < 0 {
		startIdx = 0
	}
	if !found {
		startIdx = len(lines) * 6 / 10
	}

	sectionText := strings.Join(lines[startIdx:], "\n")
	startChar := len(strings.Join(lines[:startIdx], "\n"))
	return &domain.BoletoSection{
		Start: startChar,
		End:   startChar + len(sectionText),
		Text:  sectionText,
	}
}

// extractData pulls each field independently; a miss on one never blocks
// another.
func extractData(text string) *domain.BoletoData {
	var data domain.BoletoData

	if m := linhaDigitavelRe.FindStringSubmatch(text); m != nil {
		data.LinhaDigitavel = strings.TrimSpace(m[1])
	}
	if m := codigoBarrasRe.FindStringSubmatch(text); m != nil {
		data.CodigoBarras = m[1]
	}
	for _, re := range valorPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			data.Valor = m[1]
			break
		}
	}
	if m := vencimentoLabelRe.FindStringSubmatch(text); m != nil {
		data.DataVencimento = m[1]
	} else if m := anyDateRe.FindStringSubmatch(text); m != nil {
		data.DataVencimento = m[1]
	}
	if m := cedenteRe.FindStringSubmatch(text); m != nil {
		data.Cedente = strings.TrimSpace(m[1])
	}
	if m := sacadoRe.FindStringSubmatch(text); m != nil {
		data.Sacado = strings.TrimSpace(m[1])
	} else if m := pagadorRe.FindStringSubmatch(text); m != nil {
		data.Sacado = strings.TrimSpace(m[1])
	}
	if m := nossoNumeroRe.FindStringSubmatch(text); m != nil {
		data.NossoNumero = strings.TrimSpace(m[1])
	}
	if m := bancoRe.FindStringSubmatch(text); m != nil {
		data.Banco = strings.TrimSpace(m[1])
	}

	return &data
}

// Validate checks field shapes only. It reports every problem it finds and
// never discards data; check-digit arithmetic on the linha digitável is a
// possible later addition.
func Validate(data domain.BoletoData) (bool, []string) {
	var errs []string

	if data.LinhaDigitavel != "" && !validLinhaRe.MatchString(data.LinhaDigitavel) {
		errs = append(errs, "Linha digitável em formato inválido")
	}
	if data.CodigoBarras != "" && !validBarcodeRe.MatchString(strings.ReplaceAll(data.CodigoBarras, " ", "")) {
		errs = append(errs, "Código de barras deve ter 47 ou 48 dígitos")
	}
	if data.DataVencimento != "" && !validDateRe.MatchString(data.DataVencimento) {
		errs = append(errs, "Data de vencimento deve estar no formato DD/MM/AAAA")
	}
	if data.Valor != "" {
		stripped := strings.NewReplacer("R", "", "$", "", " ", "", ".", "").Replace(data.Valor)
		if !validValorRe.MatchString(stripped) {
			errs = append(errs, "Valor deve estar em formato monetário válido")
		}
	}

	return len(errs) == 0, errs
}
