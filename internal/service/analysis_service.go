package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"recondoc/internal/boleto"
	"recondoc/internal/config"
	"recondoc/internal/domain"
	"recondoc/internal/filename"
	"recondoc/internal/ocr"
	"recondoc/internal/ocrpolicy"
	"recondoc/internal/port"
	"recondoc/internal/reconcile"
	"recondoc/internal/segment"
)

// Confidence assigned to values parsed out of the filename. Filenames are
// human-typed and frequently stale, so they never outrank document text on
// their own.
const filenameSourceConfidence = 60

var contentTypeByFileType = map[domain.FileType]string{
	domain.FileTypePDF: "application/pdf",
	domain.FileTypeJPG: "image/jpeg",
	domain.FileTypePNG: "image/png",
}

// AnalysisService defines the document analysis contract.
type AnalysisService interface {
	AnalyzeDocument(ctx context.Context, fileName string, content []byte) (*domain.DocumentAnalysis, error)
}

type analysisService struct {
	cfg        *config.Config
	extractor  port.TextExtractor
	ai         port.DocumentAnalyzer
	reconciler *reconcile.Manager
	runs       port.AnalysisRunRepository
	storage    port.ObjectStorage
}

// NewAnalysisService creates the analysis orchestrator. runs and storage may
// be nil when metrics persistence or archival is not configured.
func NewAnalysisService(
	cfg *config.Config,
	extractor port.TextExtractor,
	ai port.DocumentAnalyzer,
	reconciler *reconcile.Manager,
	runs port.AnalysisRunRepository,
	storage port.ObjectStorage,
) AnalysisService {
	return &analysisService{
		cfg:        cfg,
		extractor:  extractor,
		ai:         ai,
		reconciler: reconciler,
		runs:       runs,
		storage:    storage,
	}
}

func (s *analysisService) AnalyzeDocument(ctx context.Context, fileName string, content []byte) (*domain.DocumentAnalysis, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return nil, domain.ErrUnsupportedFileType
	}
	if len(content) == 0 {
		return nil, domain.ErrEmptyFile
	}
	maxBytes := s.cfg.Server.MaxUploadMB * 1024 * 1024
	if int64(len(content)) > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	// Stage under the original basename: the filename extraction strategy
	// reads hints from the name on disk.
	tmpPath, cleanup, err := s.stageUpload(fileName, content)
	if err != nil {
		return nil, fmt.Errorf("staging upload: %w", err)
	}
	defer cleanup()

	size := int64(len(content))
	meta := filename.Parse(fileName)
	profile := ocrpolicy.SelectProfile(fileType, size, fileName)
	profile = s.adaptProfile(ctx, profile, fileName, meta)
	complexity := ocrpolicy.EstimateComplexity(size, fileType, fileName)
	profile.Strategies = ocrpolicy.SelectStrategies(profile, complexity)
	profile.FallbackStrategies = dropSelected(profile.FallbackStrategies, profile.Strategies)

	log.Printf("analysisService.AnalyzeDocument: %s (%d bytes) profile=%s threshold=%d complexity=%s",
		fileName, size, profile.Name, profile.ConfidenceThreshold, complexity)

	extraction := s.extractor.Extract(ctx, tmpPath, profile)
	quality := ocr.AnalyzeQuality(extraction.Text)
	segments := segment.Analyze(extraction.Text)

	var boletoResult *domain.BoletoDetectionResult
	if det := boleto.Detect(extraction.Text); det.IsBoleto {
		boletoResult = &det
	}

	aiResult, err := s.ai.Analyze(ctx, extraction.Text, fileName)
	if err != nil {
		log.Printf("analysisService.AnalyzeDocument: AI analysis unavailable for %s: %v", fileName, err)
		aiResult = nil
	}

	analysis := &domain.DocumentAnalysis{
		ID:              uuid.New(),
		Filename:        fileName,
		Extraction:      extraction,
		Quality:         quality,
		Segments:        segments,
		Boleto:          boletoResult,
		AI:              aiResult,
		Recommendations: s.reconcileFields(boletoResult, aiResult, meta),
		AnalyzedAt:      time.Now().UTC(),
	}

	s.recordRun(ctx, analysis, meta)
	analysis.ArchiveURL = s.archive(ctx, analysis.ID, fileName, fileType, content)

	return analysis, nil
}

func (s *analysisService) stageUpload(fileName string, content []byte) (string, func(), error) {
	dir, err := os.MkdirTemp(s.cfg.OCR.TempDir, "recondoc-upload-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Printf("analysisService.stageUpload: failed to remove %s: %v", dir, err)
		}
	}
	path := filepath.Join(dir, filepath.Base(fileName))
	if err := os.WriteFile(path, content, 0o600); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

// adaptProfile pulls historical success rates and bends the confidence
// threshold toward them. Missing history, a missing repository or a query
// failure all leave the profile untouched for that dimension.
func (s *analysisService) adaptProfile(ctx context.Context, profile domain.OcrProfile, fileName string, meta domain.FilenameMetadata) domain.OcrProfile {
	supplierRate, docTypeRate := -1.0, -1.0
	if s.runs == nil {
		return profile
	}
	if meta.Supplier != "" {
		rate, ok, err := s.runs.SupplierSuccessRate(ctx, meta.Supplier)
		if err != nil {
			log.Printf("analysisService.adaptProfile: supplier rate lookup failed: %v", err)
		} else if ok {
			supplierRate = rate
		}
	}
	if hint := docTypeHint(strings.ToLower(fileName)); hint != "" {
		rate, ok, err := s.runs.DocumentTypeSuccessRate(ctx, hint)
		if err != nil {
			log.Printf("analysisService.adaptProfile: document type rate lookup failed: %v", err)
		} else if ok {
			docTypeRate = rate
		}
	}
	return ocrpolicy.AdaptThreshold(profile, supplierRate, docTypeRate)
}

// docTypeHint guesses the segment type from filename keywords before any
// text exists. It must produce the same labels recordRun later persists so
// the history it queries is the history analysis writes.
func docTypeHint(lowerName string) string {
	switch {
	case strings.Contains(lowerName, "boleto") || strings.Contains(lowerName, "cobranca"):
		return string(domain.SegmentBoleto)
	case strings.Contains(lowerName, "fatura"):
		return string(domain.SegmentFatura)
	case strings.Contains(lowerName, "nf") || strings.Contains(lowerName, "nota"):
		return string(domain.SegmentDANFE)
	}
	return ""
}

func dropSelected(fallbacks, selected []string) []string {
	out := fallbacks[:0:0]
	for _, f := range fallbacks {
		keep := true
		for _, sel := range selected {
			if f == sel {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, f)
		}
	}
	return out
}

// reconcileFields assembles per-field candidate sources from everything the
// pipeline extracted and reconciles each field independently.
func (s *analysisService) reconcileFields(det *domain.BoletoDetectionResult, ai *domain.AIResult, meta domain.FilenameMetadata) map[string]domain.SmartRecommendation {
	var boletoData domain.BoletoData
	boletoConfidence := 0
	if det != nil && det.Data != nil {
		boletoData = *det.Data
		boletoConfidence = det.Confidence
	}

	fields := map[string][]domain.DataSource{
		"valor": {
			ocrSource(boletoData.Valor, boletoConfidence),
			aiSource(ai, func(r *domain.AIResult) string { return r.Amount }),
			filenameSource(meta.Amount),
		},
		"data_vencimento": {
			ocrSource(boletoData.DataVencimento, boletoConfidence),
			aiSource(ai, func(r *domain.AIResult) string { return r.DueDate }),
			filenameSource(firstDate(meta)),
		},
		"fornecedor": {
			ocrSource(boletoData.Cedente, boletoConfidence),
			aiSource(ai, func(r *domain.AIResult) string { return r.Supplier }),
			filenameSource(meta.Supplier),
		},
		"descricao": {
			aiSource(ai, func(r *domain.AIResult) string { return r.Description }),
			filenameSource(meta.Description),
		},
		"categoria": {
			aiSource(ai, func(r *domain.AIResult) string { return r.Category }),
			filenameSource(meta.Category),
		},
	}

	out := make(map[string]domain.SmartRecommendation, len(fields))
	for name, sources := range fields {
		out[name] = s.reconciler.AnalyzeField(name, sources)
	}
	return out
}

func ocrSource(value string, confidence int) domain.DataSource {
	return domain.DataSource{
		Value:      value,
		Confidence: confidence,
		Source:     domain.SourceOCR,
		Quality:    domain.QualityForConfidence(confidence),
	}
}

func aiSource(r *domain.AIResult, pick func(*domain.AIResult) string) domain.DataSource {
	if r == nil {
		return domain.DataSource{Source: domain.SourceAI}
	}
	return domain.DataSource{
		Value:      pick(r),
		Confidence: r.Confidence,
		Source:     domain.SourceAI,
		Quality:    domain.QualityForConfidence(r.Confidence),
	}
}

func filenameSource(value string) domain.DataSource {
	return domain.DataSource{
		Value:      value,
		Confidence: filenameSourceConfidence,
		Source:     domain.SourceFilename,
		Quality:    domain.QualityForConfidence(filenameSourceConfidence),
	}
}

func firstDate(meta domain.FilenameMetadata) string {
	if len(meta.Dates) == 0 {
		return ""
	}
	return meta.Dates[0]
}

// recordRun persists the metrics row feeding future threshold adaptation.
// Persistence failure never fails the analysis.
func (s *analysisService) recordRun(ctx context.Context, analysis *domain.DocumentAnalysis, meta domain.FilenameMetadata) {
	if s.runs == nil {
		return
	}
	run := &domain.AnalysisRun{
		ID:           analysis.ID,
		Filename:     analysis.Filename,
		SupplierHint: meta.Supplier,
		DocumentType: string(analysis.Segments.PrimaryType),
		Strategy:     analysis.Extraction.Method,
		Confidence:   analysis.Extraction.Confidence,
		CharCount:    analysis.Extraction.CharCount,
		Success:      analysis.Extraction.Success,
		DurationMs:   analysis.Extraction.DurationMs,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		log.Printf("analysisService.recordRun: failed to record run for %s: %v", analysis.Filename, err)
	}
}

// archive copies the original upload to object storage and returns a
// presigned URL for it. Failure is logged and swallowed; the analysis result
// is already complete.
func (s *analysisService) archive(ctx context.Context, id uuid.UUID, fileName string, fileType domain.FileType, content []byte) string {
	if s.storage == nil || !s.cfg.S3.Enabled() {
		return ""
	}
	key := fmt.Sprintf("%s/%s/%s", strings.Trim(s.cfg.S3.KeyPrefix, "/"), id, fileName)
	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.S3.Bucket,
		Key:         key,
		Body:        bytes.NewReader(content),
		ContentType: contentTypeByFileType[fileType],
		Size:        int64(len(content)),
	})
	if err != nil {
		log.Printf("analysisService.archive: %v: %s: %v", domain.ErrArchiveFailed, key, err)
		return ""
	}
	url, err := s.storage.GetPresignedURL(ctx, s.cfg.S3.Bucket, key, int64(s.cfg.S3.PresignExpiry.Seconds()))
	if err != nil {
		log.Printf("analysisService.archive: presigning %s: %v", key, err)
		return ""
	}
	return url
}
