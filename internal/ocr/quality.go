package ocr

import (
	"regexp"
	"strings"

	"recondoc/internal/domain"
)

var monetaryRe = regexp.MustCompile(`(?i)R\$\s*\d+[.,]\d{2}|valor|total|preço|custo`)

// systemIndicators mark browser screenshots and portal pages that slipped in
// instead of the actual fiscal document.
var systemIndicators = []string{
	"sistema de administração",
	"https://",
	"login",
	"acesso",
	"portal",
	"dashboard",
	"menu",
	".gov.br",
	"área restrita",
}

// AnalyzeQuality grades extracted text so downstream consumers can decide
// how much to trust it.
func AnalyzeQuality(text string) domain.QualityFlags {
	count := len(text)
	hasMonetary := monetaryRe.MatchString(text)

	lower := strings.ToLower(text)
	systemPage := false
	for _, ind := range systemIndicators {
		if strings.Contains(lower, ind) {
			systemPage = true
			break
		}
	}

	incomplete := false
	quality := domain.TextQualityHigh
	switch {
	case count < 100:
		incomplete = true
		quality = domain.TextQualityCritical
	case count < 300 && !hasMonetary:
		incomplete = true
		quality = domain.TextQualityLow
	case systemPage && count < 500:
		incomplete = true
		quality = domain.TextQualityLow
	case count < 500:
		quality = domain.TextQualityMedium
	}

	// Short but money-bearing text is usually a valid simple receipt.
	if hasMonetary && count >= 100 {
		if count > 300 {
			quality = domain.TextQualityHigh
		} else {
			quality = domain.TextQualityMedium
		}
		incomplete = false
	}

	return domain.QualityFlags{
		IsIncomplete:      incomplete,
		IsSystemPage:      systemPage,
		HasMonetaryValues: hasMonetary,
		CharacterCount:    count,
		EstimatedQuality:  quality,
	}
}

var (
	dateShapeRe   = regexp.MustCompile(`\d{2}[/.-]\d{2}[/.-]\d{4}`)
	amountShapeRe = regexp.MustCompile(`\d+[.,]\d{2}`)
)

// heuristicConfidence scores text shape on a 0-100 scale. Financial
// documents carry dates and amounts; their presence is a cheap proxy for a
// clean read.
func heuristicConfidence(text string) int {
	lower := strings.ToLower(text)
	score := 20
	if dateShapeRe.MatchString(lower) {
		score += 20
	}
	if strings.Contains(lower, "r$") {
		score += 15
	}
	if amountShapeRe.MatchString(lower) {
		score += 15
	}
	if len(text) > 120 {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}
