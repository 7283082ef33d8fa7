package port

import "context"

// Rasterizer renders one page of a document file to an image under outDir
// and returns the image path. Implementations spawn external binaries and
// may fail (missing binary, corrupt PDF); the caller owns outDir cleanup.
type Rasterizer interface {
	Render(ctx context.Context, filePath, outDir string, page, dpi int) (imagePath string, err error)
}

// OcrOutput is the raw result of recognizing one image.
type OcrOutput struct {
	Text       string
	Confidence int // 0-100; 0 means the engine reported none
}

// OcrEngine recognizes text in an image file.
type OcrEngine interface {
	Recognize(ctx context.Context, imagePath, language string) (OcrOutput, error)
}
