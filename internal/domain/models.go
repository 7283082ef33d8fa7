package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExtractionResult is the outcome of one text extraction attempt (or of the
// whole cascade: the engine returns the first attempt that met its floors).
type ExtractionResult struct {
	Success    bool   `json:"success"`
	Text       string `json:"text,omitempty"`
	Method     string `json:"method"`
	Confidence int    `json:"confidence"`
	CharCount  int    `json:"char_count"`
	Pages      int    `json:"pages,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// QualityFlags grade extracted text for downstream consumers.
type QualityFlags struct {
	IsIncomplete      bool        `json:"is_incomplete"`
	IsSystemPage      bool        `json:"is_system_page"`
	HasMonetaryValues bool        `json:"has_monetary_values"`
	CharacterCount    int         `json:"character_count"`
	EstimatedQuality  TextQuality `json:"estimated_quality"`
}

// OcrProfile parameterizes one extraction run. It is selected per document
// and never stored.
type OcrProfile struct {
	Name                string   `json:"name"`
	ConfidenceThreshold int      `json:"confidence_threshold"`
	Strategies          []string `json:"strategies"`
	FallbackStrategies  []string `json:"fallback_strategies"`
	Resolution          int      `json:"resolution"`
	Preprocessing       []string `json:"preprocessing"`
	Language            string   `json:"language"`
}

// DocumentSegment is a derived view over one span of extracted text believed
// to represent a single logical sub-document. Offsets are approximate context
// windows, not byte-exact boundaries.
type DocumentSegment struct {
	Type          SegmentType `json:"type"`
	Confidence    int         `json:"confidence"`
	StartPosition int         `json:"start_position"`
	EndPosition   int         `json:"end_position"`
	Text          string      `json:"text"`
	Indicators    []string    `json:"indicators"`
}

// MultiDocumentAnalysis is the result of segmenting one text blob.
type MultiDocumentAnalysis struct {
	Segments       []DocumentSegment `json:"segments"`
	PrimaryType    SegmentType       `json:"primary_type"`
	SecondaryType  SegmentType       `json:"secondary_type,omitempty"`
	Priority       SegmentPriority   `json:"priority"`
	Recommendation string            `json:"recommendation"`
	Conflicts      []string          `json:"conflicts,omitempty"`
}

// BoletoData holds the structured fields extracted from a boleto section.
// Every field is independently optional: a missed cedente must not block the
// digit line, and vice versa.
type BoletoData struct {
	Cedente        string `json:"cedente,omitempty"`
	CNPJCedente    string `json:"cnpj_cedente,omitempty"`
	Sacado         string `json:"sacado,omitempty"`
	Valor          string `json:"valor,omitempty"`
	DataVencimento string `json:"data_vencimento,omitempty"`
	NossoNumero    string `json:"nosso_numero,omitempty"`
	Banco          string `json:"banco,omitempty"`
	Agencia        string `json:"agencia,omitempty"`
	Conta          string `json:"conta,omitempty"`
	LinhaDigitavel string `json:"linha_digitavel,omitempty"`
	CodigoBarras   string `json:"codigo_barras,omitempty"`
	LocalPagamento string `json:"local_pagamento,omitempty"`
}

// IsEmpty reports whether no field was extracted.
func (d *BoletoData) IsEmpty() bool {
	return *d == BoletoData{}
}

// BoletoSection is the span of the document believed to hold the boleto.
type BoletoSection struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// BoletoDetectionResult is the full outcome of boleto detection on one text.
type BoletoDetectionResult struct {
	IsBoleto   bool           `json:"is_boleto"`
	Confidence int            `json:"confidence"`
	Data       *BoletoData    `json:"data,omitempty"`
	Indicators []string       `json:"indicators"`
	Section    *BoletoSection `json:"section,omitempty"`
	Reasoning  string         `json:"reasoning"`
}

// AIResult is the normalized output of AI document analysis, whichever
// provider (or fallback) produced it.
type AIResult struct {
	Provider      string            `json:"provider"`
	DocumentType  AIDocumentType    `json:"document_type"`
	Amount        string            `json:"amount,omitempty"`
	DueDate       string            `json:"due_date,omitempty"`
	PaidDate      string            `json:"paid_date,omitempty"`
	BankName      string            `json:"bank_name,omitempty"`
	ClientInfo    string            `json:"client_info,omitempty"`
	Supplier      string            `json:"supplier,omitempty"`
	Description   string            `json:"description,omitempty"`
	Category      string            `json:"category,omitempty"`
	Confidence    int               `json:"confidence"`
	ExtractedData map[string]string `json:"extracted_data,omitempty"`
	FallbackUsed  bool              `json:"fallback_used"`
}

// DataSource is one candidate value for a field during reconciliation.
type DataSource struct {
	Value      string        `json:"value"`
	Confidence int           `json:"confidence"`
	Source     SourceKind    `json:"source"`
	Quality    SourceQuality `json:"quality"`
}

// SmartRecommendation is the reconciled suggestion for one field. It is
// recomputed on every analysis and never persisted as ground truth.
type SmartRecommendation struct {
	RecommendedValue  string               `json:"recommended_value"`
	RecommendedSource DataSource           `json:"recommended_source"`
	Reasoning         string               `json:"reasoning"`
	Confidence        int                  `json:"confidence"`
	Action            RecommendationAction `json:"action"`
}

// FilenameMetadata holds everything parseable out of an upload filename.
type FilenameMetadata struct {
	Dates       []string `json:"dates,omitempty"`
	Amount      string   `json:"amount,omitempty"`
	Description string   `json:"description,omitempty"`
	CostCenter  string   `json:"cost_center,omitempty"`
	Category    string   `json:"category,omitempty"`
	Status      string   `json:"status,omitempty"`
	Supplier    string   `json:"supplier,omitempty"`
}

// DocumentAnalysis is the complete result returned for one uploaded document.
type DocumentAnalysis struct {
	ID              uuid.UUID                      `json:"id"`
	Filename        string                         `json:"filename"`
	Extraction      ExtractionResult               `json:"extraction"`
	Quality         QualityFlags                   `json:"quality"`
	Segments        MultiDocumentAnalysis          `json:"segments"`
	Boleto          *BoletoDetectionResult         `json:"boleto,omitempty"`
	AI              *AIResult                      `json:"ai,omitempty"`
	Recommendations map[string]SmartRecommendation `json:"recommendations"`
	ArchiveURL      string                         `json:"archive_url,omitempty"`
	AnalyzedAt      time.Time                      `json:"analyzed_at"`
}

// AnalysisRun is the persisted metrics row for one analysis, feeding the
// historical success rates used by threshold adaptation.
type AnalysisRun struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Filename     string    `db:"filename" json:"filename"`
	SupplierHint string    `db:"supplier_hint" json:"supplier_hint"`
	DocumentType string    `db:"document_type" json:"document_type"`
	Strategy     string    `db:"strategy" json:"strategy"`
	Confidence   int       `db:"confidence" json:"confidence"`
	CharCount    int       `db:"char_count" json:"char_count"`
	Success      bool      `db:"success" json:"success"`
	DurationMs   int64     `db:"duration_ms" json:"duration_ms"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
