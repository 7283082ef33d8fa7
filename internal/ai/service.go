// Package ai classifies documents and extracts structured fields through
// completion providers tried in order. Provider failure is absorbed: the
// service degrades down to a filename heuristic rather than erroring, so an
// analysis always gets some classification.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"recondoc/internal/domain"
	"recondoc/internal/filename"
	"recondoc/internal/port"
)

// fallbackConfidence is reported when classification came from the filename
// heuristic instead of a model.
const fallbackConfidence = 50

// circuitState tracks rate-limit backoff for a single provider.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// Service tries providers in order, skipping those with open circuits.
type Service struct {
	providers []port.CompletionProvider
	circuits  []*circuitState
}

func NewService(providers ...port.CompletionProvider) *Service {
	circuits := make([]*circuitState, len(providers))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &Service{providers: providers, circuits: circuits}
}

// Analyze classifies one document. It never returns an error for provider
// trouble; the filename classifier is the floor.
func (s *Service) Analyze(ctx context.Context, ocrText, fileName string) (*domain.AIResult, error) {
	meta := filename.Parse(fileName)
	prompt := BuildAnalysisPrompt(ocrText, fileName, meta)
	now := time.Now()

	for i, p := range s.providers {
		if resetAt, open := s.circuits[i].isOpenWithReset(now); open {
			log.Printf("ai.Service: skipping %s (circuit open until %s)", p.Name(), resetAt.Format(time.RFC3339))
			continue
		}

		raw, err := p.Complete(ctx, prompt)
		if err != nil {
			log.Printf("ai.Service: %s failed: %v", p.Name(), err)
			var rlErr *RateLimitError
			if errors.As(err, &rlErr) {
				s.circuits[i].open(now.Add(rlErr.RetryAfter))
			}
			continue
		}

		result, err := parseCompletion(raw)
		if err != nil {
			log.Printf("ai.Service: %s returned unparseable output: %v", p.Name(), err)
			continue
		}
		result.Provider = p.Name()
		return result, nil
	}

	log.Printf("ai.Service: all providers failed for %s, using filename classification", fileName)
	return s.classifyByFilename(fileName), nil
}

// completionPayload is the JSON shape providers are prompted to return.
type completionPayload struct {
	DocumentType  string                 `json:"documentType"`
	Amount        string                 `json:"amount"`
	DueDate       string                 `json:"dueDate"`
	PaidDate      string                 `json:"paidDate"`
	BankName      string                 `json:"bankName"`
	ClientInfo    string                 `json:"clientInfo"`
	Supplier      string                 `json:"supplier"`
	Description   string                 `json:"description"`
	Category      string                 `json:"category"`
	Confidence    float64                `json:"confidence"`
	ExtractedData map[string]interface{} `json:"extractedData"`
}

func parseCompletion(raw string) (*domain.AIResult, error) {
	cleaned := StripMarkdownFences(raw)

	var payload completionPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("parsing model JSON output: %w (raw: %s)", err, truncate(cleaned, 500))
	}

	extracted := make(map[string]string, len(payload.ExtractedData))
	for k, v := range payload.ExtractedData {
		extracted[k] = fmt.Sprint(v)
	}

	return &domain.AIResult{
		DocumentType:  normalizeDocumentType(payload.DocumentType),
		Amount:        normalizeAmount(payload.Amount),
		DueDate:       strings.TrimSpace(payload.DueDate),
		PaidDate:      strings.TrimSpace(payload.PaidDate),
		BankName:      strings.TrimSpace(payload.BankName),
		ClientInfo:    strings.TrimSpace(payload.ClientInfo),
		Supplier:      strings.TrimSpace(payload.Supplier),
		Description:   strings.TrimSpace(payload.Description),
		Category:      strings.TrimSpace(payload.Category),
		Confidence:    clampConfidence(int(payload.Confidence)),
		ExtractedData: extracted,
	}, nil
}

// StripMarkdownFences removes the ```json fences models add despite being
// told not to.
func StripMarkdownFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func normalizeDocumentType(raw string) domain.AIDocumentType {
	switch domain.AIDocumentType(strings.ToUpper(strings.TrimSpace(raw))) {
	case domain.AIDocAgendado:
		return domain.AIDocAgendado
	case domain.AIDocBoleto:
		return domain.AIDocBoleto
	case domain.AIDocNF:
		return domain.AIDocNF
	default:
		return domain.AIDocPago
	}
}

func normalizeAmount(raw string) string {
	return strings.TrimSpace(strings.NewReplacer("R$", "", " ", "").Replace(raw))
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// classifyByFilename is the last line of defense when every provider is
// down.
func (s *Service) classifyByFilename(fileName string) *domain.AIResult {
	name := strings.ToLower(fileName)

	docType := domain.AIDocPago
	switch {
	case strings.Contains(name, "pag") || strings.Contains(name, "comprovante") || strings.Contains(name, "extrato"):
		docType = domain.AIDocPago
	case strings.Contains(name, "agenda") || strings.Contains(name, "programado"):
		docType = domain.AIDocAgendado
	case strings.Contains(name, "boleto") || strings.Contains(name, "cobranca"):
		docType = domain.AIDocBoleto
	case strings.Contains(name, "nf") || strings.Contains(name, "nota") || strings.Contains(name, "fatura"):
		docType = domain.AIDocNF
	}

	return &domain.AIResult{
		Provider:      "filename-fallback",
		DocumentType:  docType,
		Confidence:    fallbackConfidence,
		ExtractedData: map[string]string{"fallback": "true"},
		FallbackUsed:  true,
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
