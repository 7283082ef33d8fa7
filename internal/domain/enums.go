package domain

// FileType represents the allowed file types for analysis.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// SegmentType classifies a logical sub-document found inside one text blob.
type SegmentType string

const (
	SegmentBoleto   SegmentType = "BOLETO"
	SegmentDANFE    SegmentType = "DANFE"
	SegmentRecibo   SegmentType = "RECIBO"
	SegmentPix      SegmentType = "PIX"
	SegmentFatura   SegmentType = "FATURA"
	SegmentContrato SegmentType = "CONTRATO"
	SegmentApolice  SegmentType = "APOLICE"
	SegmentOutros   SegmentType = "OUTROS"
)

// SegmentPriority describes how a multi-segment document should be processed.
type SegmentPriority string

const (
	PriorityPrimary   SegmentPriority = "PRIMARY"
	PrioritySecondary SegmentPriority = "SECONDARY"
	// PriorityBoleto is a business policy, not a confidence outcome: a
	// payment obligation always outranks informational attachments, so any
	// boleto segment becomes primary regardless of relative scores.
	PriorityBoleto SegmentPriority = "BOLETO_PRIORITY"
)

// SourceKind identifies where a reconciliation candidate value came from.
type SourceKind string

const (
	SourceOCR      SourceKind = "OCR"
	SourceAI       SourceKind = "AI"
	SourceFilename SourceKind = "FILENAME"
	SourceManual   SourceKind = "MANUAL"
)

// SourceQuality is a coarse band derived from a candidate's confidence.
type SourceQuality string

const (
	QualityHigh   SourceQuality = "HIGH"
	QualityMedium SourceQuality = "MEDIUM"
	QualityLow    SourceQuality = "LOW"
)

// QualityForConfidence derives the quality band for a 0-100 confidence score.
func QualityForConfidence(confidence int) SourceQuality {
	switch {
	case confidence >= 85:
		return QualityHigh
	case confidence >= 60:
		return QualityMedium
	default:
		return QualityLow
	}
}

// RecommendationAction tells the reviewer what to do with a reconciled field.
type RecommendationAction string

const (
	ActionAutoAccept     RecommendationAction = "AUTO_ACCEPT"
	ActionSuggestReview  RecommendationAction = "SUGGEST_REVIEW"
	ActionManualRequired RecommendationAction = "MANUAL_REQUIRED"
)

// Complexity is the estimated processing difficulty of a document.
type Complexity string

const (
	ComplexityLow    Complexity = "LOW"
	ComplexityMedium Complexity = "MEDIUM"
	ComplexityHigh   Complexity = "HIGH"
)

// TextQuality grades the usefulness of extracted text.
type TextQuality string

const (
	TextQualityHigh     TextQuality = "HIGH"
	TextQualityMedium   TextQuality = "MEDIUM"
	TextQualityLow      TextQuality = "LOW"
	TextQualityCritical TextQuality = "CRITICAL"
)

// AIDocumentType is the coarse classification returned by AI analysis.
type AIDocumentType string

const (
	AIDocPago     AIDocumentType = "PAGO"
	AIDocAgendado AIDocumentType = "AGENDADO"
	AIDocBoleto   AIDocumentType = "BOLETO"
	AIDocNF       AIDocumentType = "NF"
)
