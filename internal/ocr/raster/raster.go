// Package raster renders PDF pages to images for OCR. Two implementations
// exist because poppler and Ghostscript fail on different corrupt files.
package raster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"recondoc/internal/ocr"
)

// Pdftoppm renders through poppler's pdftoppm.
type Pdftoppm struct {
	Binary string
	Runner ocr.Runner
}

func NewPdftoppm(binary string, runner ocr.Runner) *Pdftoppm {
	if binary == "" {
		binary = "pdftoppm"
	}
	return &Pdftoppm{Binary: binary, Runner: runner}
}

func (p *Pdftoppm) Render(ctx context.Context, filePath, outDir string, page, dpi int) (string, error) {
	prefix := filepath.Join(outDir, "page")
	_, errb, err := p.Runner.Run(ctx, p.Binary,
		"-r", fmt.Sprintf("%d", dpi),
		"-f", fmt.Sprintf("%d", page),
		"-l", fmt.Sprintf("%d", page),
		"-png", filePath, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %w (%s)", err, string(errb))
	}

	// pdftoppm names output page-1.png, page-01.png etc depending on total
	// page count.
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm produced no images")
	}
	return matches[0], nil
}

// Ghostscript renders through gs with the png16m device. It tolerates some
// files poppler rejects.
type Ghostscript struct {
	Binary string
	Runner ocr.Runner
}

func NewGhostscript(binary string, runner ocr.Runner) *Ghostscript {
	if binary == "" {
		binary = "gs"
	}
	return &Ghostscript{Binary: binary, Runner: runner}
}

func (g *Ghostscript) Render(ctx context.Context, filePath, outDir string, page, dpi int) (string, error) {
	out := filepath.Join(outDir, "page.png")
	_, errb, err := g.Runner.Run(ctx, g.Binary,
		"-dNOPAUSE", "-dBATCH", "-dSAFER",
		"-sDEVICE=png16m",
		fmt.Sprintf("-r%d", dpi),
		fmt.Sprintf("-dFirstPage=%d", page),
		fmt.Sprintf("-dLastPage=%d", page),
		fmt.Sprintf("-sOutputFile=%s", out),
		filePath)
	if err != nil {
		return "", fmt.Errorf("ghostscript: %w (%s)", err, string(errb))
	}
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("ghostscript produced no output: %w", err)
	}
	return out, nil
}
