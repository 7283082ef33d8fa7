// Package tesseract recognizes text in images via the tesseract binary.
package tesseract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"recondoc/internal/ocr"
	"recondoc/internal/port"
)

type Engine struct {
	Binary        string
	Runner        ocr.Runner
	TSVConfidence bool
}

func NewEngine(binary string, runner ocr.Runner, tsvConfidence bool) *Engine {
	if binary == "" {
		binary = "tesseract"
	}
	return &Engine{Binary: binary, Runner: runner, TSVConfidence: tsvConfidence}
}

// Recognize runs tesseract to stdout. With TSVConfidence set it runs a
// second pass in TSV mode to compute mean word confidence.
func (e *Engine) Recognize(ctx context.Context, imagePath, language string) (port.OcrOutput, error) {
	out, errb, err := e.Runner.Run(ctx, e.Binary, imagePath, "stdout", "-l", language)
	if err != nil {
		return port.OcrOutput{}, fmt.Errorf("tesseract: %w (%s)", err, string(errb))
	}

	result := port.OcrOutput{Text: string(out)}
	if e.TSVConfidence {
		// A TSV failure degrades to heuristic confidence downstream; it
		// never fails the recognition.
		if conf, err := e.tsvConfidence(ctx, imagePath, language); err == nil {
			result.Confidence = conf
		}
	}
	return result, nil
}

// tsvConfidence returns the mean word confidence on a 0-100 scale.
func (e *Engine) tsvConfidence(ctx context.Context, imagePath, language string) (int, error) {
	out, errb, err := e.Runner.Run(ctx, e.Binary, imagePath, "stdout", "-l", language, "tsv")
	if err != nil {
		return 0, fmt.Errorf("tesseract tsv: %w (%s)", err, string(errb))
	}

	var sum, n float64
	for i, line := range strings.Split(string(out), "\n") {
		if i == 0 || line == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 12 {
			continue
		}
		// Column 11 is conf; the word text is last. -1 marks non-word rows.
		confStr := cols[10]
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return int(sum / n), nil
}
