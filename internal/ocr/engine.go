// Package ocr extracts text from financial documents through an ordered
// ladder of strategies. Native PDF text is tried first; rasterized OCR and
// filename analysis pick up the scanned and hopeless cases. Extraction never
// returns an error for a bad document: exhaustion is a normal result with
// Success false.
package ocr

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"recondoc/internal/config"
	"recondoc/internal/domain"
	"recondoc/internal/filename"
	"recondoc/internal/ocrpolicy"
	"recondoc/internal/port"
)

// MethodExhausted is the Method reported when no strategy produced usable
// text.
const MethodExhausted = "FAILED_ALL_STRATEGIES"

type strategy struct {
	Name     string
	MinChars int
	Run      func(ctx context.Context, filePath string, profile domain.OcrProfile) (string, int, int, error)
}

// Engine runs extraction strategies in profile order and keeps the first
// acceptable result.
type Engine struct {
	cfg        config.OCRConfig
	runner     Runner
	rasterizer port.Rasterizer
	gs         port.Rasterizer
	ocr        port.OcrEngine

	strategies map[string]strategy
}

// NewEngine wires the engine. rasterizer handles the DPI ladder, gs is the
// Ghostscript fallback and may be nil when the binary is not installed.
func NewEngine(cfg config.OCRConfig, runner Runner, rasterizer, gs port.Rasterizer, ocrEngine port.OcrEngine) *Engine {
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Language == "" {
		cfg.Language = "por"
	}
	if cfg.StrategyTimeout <= 0 {
		cfg.StrategyTimeout = 60 * time.Second
	}

	e := &Engine{
		cfg:        cfg,
		runner:     runner,
		rasterizer: rasterizer,
		gs:         gs,
		ocr:        ocrEngine,
	}
	e.strategies = map[string]strategy{
		ocrpolicy.StrategyPDFNativeText:  {ocrpolicy.StrategyPDFNativeText, 50, e.runPdftotext},
		ocrpolicy.StrategyRaster300DPI:   {ocrpolicy.StrategyRaster300DPI, 20, e.rasterStrategy(300)},
		ocrpolicy.StrategyRaster150DPI:   {ocrpolicy.StrategyRaster150DPI, 20, e.rasterStrategy(150)},
		ocrpolicy.StrategyGhostscriptOCR: {ocrpolicy.StrategyGhostscriptOCR, 10, e.runGhostscript},
		ocrpolicy.StrategyFilenameText:   {ocrpolicy.StrategyFilenameText, 10, e.runFilename},
	}
	return e
}

// Extract runs the profile's strategies in order and returns the first
// result that meets both the strategy's char floor and the profile's
// confidence threshold.
func (e *Engine) Extract(ctx context.Context, filePath string, profile domain.OcrProfile) domain.ExtractionResult {
	start := time.Now()

	names := append(append([]string{}, profile.Strategies...), profile.FallbackStrategies...)
	names = e.filterForFile(filePath, names)

	var lastErr string
	for _, name := range names {
		strat, ok := e.strategies[name]
		if !ok {
			continue
		}

		sctx, cancel := context.WithTimeout(ctx, e.cfg.StrategyTimeout)
		text, pages, confidence, err := strat.Run(sctx, filePath, profile)
		cancel()

		if err != nil {
			log.Printf("ocr.Engine: strategy %s failed: %v", name, err)
			lastErr = err.Error()
			continue
		}
		text = strings.TrimSpace(text)
		if len(text) < strat.MinChars {
			log.Printf("ocr.Engine: strategy %s insufficient: %d chars (min %d)", name, len(text), strat.MinChars)
			continue
		}
		// Native PDF text and the filename strategy are accepted on their
		// character floor alone. Native text has no recognition noise to
		// filter out, and the filename strategy is the designated floor;
		// the profile threshold gates only OCR output.
		if confidence < profile.ConfidenceThreshold && gatedByThreshold(name) {
			log.Printf("ocr.Engine: strategy %s below threshold: %d < %d", name, confidence, profile.ConfidenceThreshold)
			continue
		}

		return domain.ExtractionResult{
			Success:    true,
			Text:       text,
			Method:     name,
			Confidence: confidence,
			CharCount:  len(text),
			Pages:      pages,
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	return domain.ExtractionResult{
		Success:    false,
		Method:     MethodExhausted,
		DurationMs: time.Since(start).Milliseconds(),
		Error:      lastErr,
	}
}

func gatedByThreshold(name string) bool {
	return name != ocrpolicy.StrategyPDFNativeText && name != ocrpolicy.StrategyFilenameText
}

// filterForFile drops strategies that cannot apply to the input. A corrupt
// PDF skips native text and goes straight to rasterization.
func (e *Engine) filterForFile(filePath string, names []string) []string {
	isPDF := strings.EqualFold(filepath.Ext(filePath), ".pdf")

	pdfOK := false
	if isPDF {
		if f, err := os.Open(filePath); err == nil {
			if n, err := api.PageCount(f, nil); err == nil && n > 0 {
				pdfOK = true
			} else {
				log.Printf("ocr.Engine: %s failed PDF validation, skipping native text: %v", filepath.Base(filePath), err)
			}
			f.Close()
		}
	}

	out := names[:0:0]
	for _, name := range names {
		switch name {
		case ocrpolicy.StrategyPDFNativeText:
			if pdfOK {
				out = append(out, name)
			}
		case ocrpolicy.StrategyGhostscriptOCR:
			if isPDF && e.gs != nil {
				out = append(out, name)
			}
		default:
			out = append(out, name)
		}
	}
	return out
}

func (e *Engine) runPdftotext(ctx context.Context, filePath string, _ domain.OcrProfile) (string, int, int, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", filePath, "-")
	if err != nil {
		return "", 0, 0, fmt.Errorf("pdftotext: %w (%s)", err, truncate(string(errb), 512))
	}
	text := string(out)
	pages := 1 + strings.Count(text, "\f")

	// Native text carries no engine confidence; score it on shape alone,
	// anchored high because embedded text has no recognition noise.
	confidence := 70 + heuristicConfidence(text)*30/100
	return text, pages, confidence, nil
}

// rasterStrategy renders PDFs at the given DPI before recognition; images go
// straight to the recognizer.
func (e *Engine) rasterStrategy(dpi int) func(ctx context.Context, filePath string, profile domain.OcrProfile) (string, int, int, error) {
	return func(ctx context.Context, filePath string, profile domain.OcrProfile) (string, int, int, error) {
		return e.recognize(ctx, e.rasterizer, filePath, dpi, profile)
	}
}

func (e *Engine) runGhostscript(ctx context.Context, filePath string, profile domain.OcrProfile) (string, int, int, error) {
	return e.recognize(ctx, e.gs, filePath, 300, profile)
}

func (e *Engine) recognize(ctx context.Context, rasterizer port.Rasterizer, filePath string, dpi int, profile domain.OcrProfile) (string, int, int, error) {
	imagePath := filePath
	pages := 1

	if strings.EqualFold(filepath.Ext(filePath), ".pdf") {
		if rasterizer == nil {
			return "", 0, 0, fmt.Errorf("no rasterizer configured")
		}
		tmpDir, err := os.MkdirTemp(e.cfg.TempDir, "recondoc-ocr-*")
		if err != nil {
			return "", 0, 0, fmt.Errorf("temp dir: %w", err)
		}
		defer func() {
			if err := os.RemoveAll(tmpDir); err != nil {
				log.Printf("ocr.Engine: failed to remove temp dir %s: %v", tmpDir, err)
			}
		}()

		imagePath, err = rasterizer.Render(ctx, filePath, tmpDir, 1, dpi)
		if err != nil {
			return "", 0, 0, fmt.Errorf("rasterize: %w", err)
		}
	}

	out, err := e.ocr.Recognize(ctx, imagePath, e.languageFor(profile))
	if err != nil {
		return "", 0, 0, fmt.Errorf("recognize: %w", err)
	}

	confidence := out.Confidence
	heur := heuristicConfidence(out.Text)
	if confidence > 0 {
		// Engine confidence dominates; text shape nudges it.
		confidence = (confidence*7 + heur*3) / 10
	} else {
		confidence = heur
	}
	return out.Text, pages, confidence, nil
}

func (e *Engine) runFilename(_ context.Context, filePath string, _ domain.OcrProfile) (string, int, int, error) {
	name := filepath.Base(filePath)
	meta := filename.Parse(name)
	text := filename.AsText(name, meta)

	confidence := 50
	if filename.FieldCount(meta) >= 3 {
		confidence = 80
	}
	return text, 1, confidence, nil
}

func (e *Engine) languageFor(profile domain.OcrProfile) string {
	if profile.Language != "" {
		return profile.Language
	}
	return e.cfg.Language
}
