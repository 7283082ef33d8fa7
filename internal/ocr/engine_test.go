package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recondoc/internal/config"
	"recondoc/internal/domain"
	"recondoc/internal/ocrpolicy"
	"recondoc/internal/port"
)

const richText = `Recibo de Locação
Data de emissão: 15/03/2024
Valor Total: R$ 1.234,56
Referente ao aluguel do veículo placa ABC1D23 no período contratado.`

type stubRunner struct {
	stdout map[string]string
	err    error
	calls  []string
}

func (r *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, name)
	if r.err != nil {
		return nil, []byte("boom"), r.err
	}
	return []byte(r.stdout[name]), nil, nil
}

type fakeRasterizer struct {
	calls int
	err   error
}

func (f *fakeRasterizer) Render(_ context.Context, _, outDir string, _, _ int) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return filepath.Join(outDir, "page.png"), nil
}

type fakeOcrEngine struct {
	outputs []port.OcrOutput
	err     error
	calls   int
}

func (f *fakeOcrEngine) Recognize(_ context.Context, _, _ string) (port.OcrOutput, error) {
	f.calls++
	if f.err != nil {
		return port.OcrOutput{}, f.err
	}
	out := f.outputs[0]
	if len(f.outputs) > 1 {
		f.outputs = f.outputs[1:]
	}
	return out, nil
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeMinimalPDF assembles a structurally valid one-page PDF with a correct
// cross-reference table, small enough to build by hand but real enough to
// pass page counting.
func writeMinimalPDF(t *testing.T, name string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>\nendobj\n",
	}
	offsets := make([]int, 0, len(objects))
	for _, obj := range objects {
		offsets = append(offsets, b.Len())
		b.WriteString(obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return writeTempFile(t, name, b.String())
}

func newTestEngine(runner Runner, rasterizer port.Rasterizer, ocrEngine port.OcrEngine) *Engine {
	return NewEngine(config.OCRConfig{}, runner, rasterizer, nil, ocrEngine)
}

func TestExtract_ImageRecognizedDirectly(t *testing.T) {
	rasterizer := &fakeRasterizer{}
	ocrEngine := &fakeOcrEngine{outputs: []port.OcrOutput{{Text: richText, Confidence: 90}}}
	e := newTestEngine(&stubRunner{}, rasterizer, ocrEngine)

	path := writeTempFile(t, "recibo.png", "img")
	res := e.Extract(context.Background(), path, domain.OcrProfile{
		ConfidenceThreshold: 70,
		Strategies:          []string{ocrpolicy.StrategyRaster300DPI},
	})

	assert.True(t, res.Success)
	assert.Equal(t, ocrpolicy.StrategyRaster300DPI, res.Method)
	// 0.7 * engine confidence + 0.3 * text heuristic.
	assert.Equal(t, 87, res.Confidence)
	assert.Zero(t, rasterizer.calls, "images should not be rasterized")
	assert.Equal(t, 1, ocrEngine.calls)
}

func TestExtract_CorruptPDFSkipsNativeText(t *testing.T) {
	rasterizer := &fakeRasterizer{}
	ocrEngine := &fakeOcrEngine{outputs: []port.OcrOutput{{Text: richText, Confidence: 90}}}
	runner := &stubRunner{}
	e := newTestEngine(runner, rasterizer, ocrEngine)

	path := writeTempFile(t, "doc.pdf", "not a real pdf")
	res := e.Extract(context.Background(), path, domain.OcrProfile{
		ConfidenceThreshold: 70,
		Strategies:          []string{ocrpolicy.StrategyPDFNativeText, ocrpolicy.StrategyRaster300DPI},
	})

	assert.True(t, res.Success)
	assert.Equal(t, ocrpolicy.StrategyRaster300DPI, res.Method)
	assert.NotContains(t, runner.calls, "pdftotext")
	assert.Equal(t, 1, rasterizer.calls)
}

func TestExtract_ShortResultFallsThrough(t *testing.T) {
	ocrEngine := &fakeOcrEngine{outputs: []port.OcrOutput{
		{Text: "x", Confidence: 95},
		{Text: richText, Confidence: 90},
	}}
	e := newTestEngine(&stubRunner{}, &fakeRasterizer{}, ocrEngine)

	path := writeTempFile(t, "recibo.png", "img")
	res := e.Extract(context.Background(), path, domain.OcrProfile{
		ConfidenceThreshold: 70,
		Strategies:          []string{ocrpolicy.StrategyRaster300DPI, ocrpolicy.StrategyRaster150DPI},
	})

	assert.True(t, res.Success)
	assert.Equal(t, ocrpolicy.StrategyRaster150DPI, res.Method)
	assert.Equal(t, 2, ocrEngine.calls)
}

func TestExtract_BelowThresholdFallsThrough(t *testing.T) {
	ocrEngine := &fakeOcrEngine{outputs: []port.OcrOutput{
		{Text: richText, Confidence: 10},
	}}
	e := newTestEngine(&stubRunner{}, &fakeRasterizer{}, ocrEngine)

	path := writeTempFile(t, "recibo.png", "img")
	res := e.Extract(context.Background(), path, domain.OcrProfile{
		ConfidenceThreshold: 70,
		Strategies:          []string{ocrpolicy.StrategyRaster300DPI},
	})

	assert.False(t, res.Success)
	assert.Equal(t, MethodExhausted, res.Method)
	assert.Zero(t, res.Confidence)
}

func TestExtract_ExhaustionIsNotAnError(t *testing.T) {
	ocrEngine := &fakeOcrEngine{err: assert.AnError}
	e := newTestEngine(&stubRunner{}, &fakeRasterizer{}, ocrEngine)

	path := writeTempFile(t, "recibo.png", "img")
	res := e.Extract(context.Background(), path, domain.OcrProfile{
		ConfidenceThreshold: 50,
		Strategies:          []string{ocrpolicy.StrategyRaster300DPI, ocrpolicy.StrategyRaster150DPI},
	})

	assert.False(t, res.Success)
	assert.Equal(t, MethodExhausted, res.Method)
	assert.NotEmpty(t, res.Error)
}

func TestExtract_FilenameStrategyBypassesThreshold(t *testing.T) {
	e := newTestEngine(&stubRunner{}, &fakeRasterizer{}, &fakeOcrEngine{err: assert.AnError})

	path := writeTempFile(t, "15.03.2024_PG_R$ 99,00_uber.png", "img")
	res := e.Extract(context.Background(), path, domain.OcrProfile{
		ConfidenceThreshold: 90,
		Strategies:          []string{ocrpolicy.StrategyRaster300DPI},
		FallbackStrategies:  []string{ocrpolicy.StrategyFilenameText},
	})

	assert.True(t, res.Success)
	assert.Equal(t, ocrpolicy.StrategyFilenameText, res.Method)
	assert.Equal(t, 80, res.Confidence)
	assert.Contains(t, res.Text, "Valor: R$ 99,00")
}

func TestExtract_PdftotextWins(t *testing.T) {
	runner := &stubRunner{stdout: map[string]string{"pdftotext": richText + "\f" + richText}}
	rasterizer := &fakeRasterizer{}
	e := newTestEngine(runner, rasterizer, &fakeOcrEngine{})

	res := e.Extract(context.Background(), writeMinimalPDF(t, "recibo.pdf"), domain.OcrProfile{
		ConfidenceThreshold: 80,
		Strategies:          []string{ocrpolicy.StrategyPDFNativeText, ocrpolicy.StrategyRaster300DPI},
	})

	assert.True(t, res.Success)
	assert.Equal(t, ocrpolicy.StrategyPDFNativeText, res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Contains(t, res.Text, "Recibo de Locação")
	assert.GreaterOrEqual(t, res.Confidence, 80)
	assert.Zero(t, rasterizer.calls)
}

func TestExtract_NativeTextAcceptedBelowThreshold(t *testing.T) {
	// Embedded text with none of the financial markers scores under the
	// pdf_standard threshold, but native text is accepted on its character
	// floor and must not fall through to rasterization.
	plain := "Termo aditivo ao contrato de prestação de serviços firmado entre as partes," +
		" registrado em cartório e arquivado junto aos demais documentos da contratante."
	runner := &stubRunner{stdout: map[string]string{"pdftotext": plain}}
	rasterizer := &fakeRasterizer{}
	ocrEngine := &fakeOcrEngine{outputs: []port.OcrOutput{{Text: richText, Confidence: 95}}}
	e := newTestEngine(runner, rasterizer, ocrEngine)

	res := e.Extract(context.Background(), writeMinimalPDF(t, "contrato.pdf"), domain.OcrProfile{
		ConfidenceThreshold: 80,
		Strategies:          []string{ocrpolicy.StrategyPDFNativeText, ocrpolicy.StrategyRaster300DPI},
		FallbackStrategies:  []string{ocrpolicy.StrategyFilenameText},
	})

	assert.True(t, res.Success)
	assert.Equal(t, ocrpolicy.StrategyPDFNativeText, res.Method)
	assert.Less(t, res.Confidence, 80)
	assert.Contains(t, res.Text, "Termo aditivo")
	assert.Zero(t, rasterizer.calls)
	assert.Zero(t, ocrEngine.calls)
}
