// Package ocrpolicy decides how a document should be extracted before any
// subprocess runs. Profile selection, threshold adaptation and strategy
// narrowing are all pure functions so they can be tuned and tested without
// touching the engine.
package ocrpolicy

import (
	"strings"

	"recondoc/internal/domain"
)

// Extraction strategy names, in default priority order.
const (
	StrategyPDFNativeText  = "PDF_NATIVE_TEXT"
	StrategyRaster300DPI   = "RASTER_300DPI_OCR"
	StrategyRaster150DPI   = "RASTER_150DPI_OCR"
	StrategyGhostscriptOCR = "GHOSTSCRIPT_OCR"
	StrategyFilenameText   = "FILENAME_TEXT"
)

const (
	minThreshold = 30
	maxThreshold = 90

	highQualityImageBytes = 2 * 1024 * 1024
	largePDFBytes         = 5 * 1024 * 1024
	largeImageBytes       = 10 * 1024 * 1024
)

var mobileMarkers = []string{"img_", "photo_", "whatsapp", "camera"}

// supplierBonus raises the acceptance threshold for counter-parties whose
// documents historically OCR poorly (thermal receipts, fuel pumps).
type supplierBonus struct {
	markers       []string
	bonus         int
	preprocessing []string
}

var supplierBonuses = []supplierBonus{
	{markers: []string{"uber"}, bonus: 10, preprocessing: []string{"receipt_enhance"}},
	{markers: []string{"posto", "shell", "petrobras"}, bonus: 15, preprocessing: []string{"thermal_paper_enhance", "contrast_boost"}},
	{markers: []string{"nota_fiscal", "nota fiscal", "notafiscal"}, bonus: 20, preprocessing: []string{"table_detection"}},
}

// SelectProfile picks the extraction profile for one document based on what
// is knowable before extraction starts.
func SelectProfile(fileType domain.FileType, fileSize int64, filename string) domain.OcrProfile {
	lower := strings.ToLower(filename)

	var p domain.OcrProfile
	switch {
	case fileType == domain.FileTypePDF:
		p = domain.OcrProfile{
			Name:                "pdf_standard",
			ConfidenceThreshold: 80,
			Strategies:          []string{StrategyPDFNativeText, StrategyRaster300DPI, StrategyRaster150DPI},
			FallbackStrategies:  []string{StrategyGhostscriptOCR, StrategyFilenameText},
			Resolution:          300,
			Preprocessing:       []string{"deskew"},
		}
	case fileSize >= highQualityImageBytes:
		p = domain.OcrProfile{
			Name:                "image_high_quality",
			ConfidenceThreshold: 70,
			Strategies:          []string{StrategyRaster300DPI, StrategyRaster150DPI},
			FallbackStrategies:  []string{StrategyFilenameText},
			Resolution:          300,
			Preprocessing:       []string{"deskew", "denoise"},
		}
	case isMobilePhoto(lower):
		p = domain.OcrProfile{
			Name:                "mobile_photo",
			ConfidenceThreshold: 55,
			Strategies:          []string{StrategyRaster300DPI, StrategyRaster150DPI},
			FallbackStrategies:  []string{StrategyFilenameText},
			Resolution:          300,
			Preprocessing:       []string{"deskew", "perspective_correction", "denoise"},
		}
	default:
		p = domain.OcrProfile{
			Name:                "image_low_quality",
			ConfidenceThreshold: 50,
			Strategies:          []string{StrategyRaster300DPI, StrategyRaster150DPI},
			FallbackStrategies:  []string{StrategyFilenameText},
			Resolution:          300,
			Preprocessing:       []string{"deskew", "denoise", "contrast_boost", "binarize"},
		}
	}

	for _, sb := range supplierBonuses {
		for _, m := range sb.markers {
			if strings.Contains(lower, m) {
				p.ConfidenceThreshold = clampThreshold(p.ConfidenceThreshold + sb.bonus)
				p.Preprocessing = append(p.Preprocessing, sb.preprocessing...)
				p.Name = p.Name + "+" + m
				break
			}
		}
	}

	return p
}

// AdaptThreshold bends the profile threshold toward observed outcomes. A
// negative rate means no history; the profile passes through unchanged for
// that dimension.
func AdaptThreshold(p domain.OcrProfile, supplierRate, docTypeRate float64) domain.OcrProfile {
	t := p.ConfidenceThreshold
	if supplierRate >= 0 {
		switch {
		case supplierRate < 0.7:
			t += 10
		case supplierRate > 0.9:
			t -= 10
		}
	}
	if docTypeRate >= 0 {
		switch {
		case docTypeRate < 0.7:
			t += 10
		case docTypeRate > 0.9:
			t -= 10
		}
	}
	p.ConfidenceThreshold = clampThreshold(t)
	return p
}

// SelectStrategies narrows the profile's strategy list by estimated document
// complexity. Simple documents skip expensive strategies; hard ones get the
// first fallback appended up front.
func SelectStrategies(p domain.OcrProfile, complexity domain.Complexity) []string {
	switch complexity {
	case domain.ComplexityLow:
		if len(p.Strategies) > 2 {
			return p.Strategies[:2]
		}
		return p.Strategies
	case domain.ComplexityHigh:
		out := make([]string, 0, len(p.Strategies)+1)
		out = append(out, p.Strategies...)
		if len(p.FallbackStrategies) > 0 {
			out = append(out, p.FallbackStrategies[0])
		}
		return out
	default:
		return p.Strategies
	}
}

// EstimateComplexity guesses how hard extraction will be from file shape
// alone.
func EstimateComplexity(fileSize int64, fileType domain.FileType, filename string) domain.Complexity {
	lower := strings.ToLower(filename)
	switch {
	case strings.Contains(lower, "fiscal") || strings.Contains(lower, "nf"):
		return domain.ComplexityHigh
	case fileType == domain.FileTypePDF && fileSize > largePDFBytes:
		return domain.ComplexityMedium
	case fileType == domain.FileTypePDF:
		return domain.ComplexityLow
	case fileSize > largeImageBytes:
		return domain.ComplexityHigh
	case isMobilePhoto(lower):
		return domain.ComplexityMedium
	default:
		return domain.ComplexityLow
	}
}

func isMobilePhoto(lowerName string) bool {
	for _, m := range mobileMarkers {
		if strings.Contains(lowerName, m) {
			return true
		}
	}
	return false
}

func clampThreshold(t int) int {
	if t < minThreshold {
		return minThreshold
	}
	if t > maxThreshold {
		return maxThreshold
	}
	return t
}
