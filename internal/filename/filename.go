// Package filename parses structured hints out of upload filenames.
// Bookkeepers name scanned documents with dates, amounts, cost centers and
// payment status markers; when OCR is poor the filename is often the most
// reliable source available.
package filename

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"recondoc/internal/domain"
)

var (
	dateRe       = regexp.MustCompile(`(\d{2})[./-](\d{2})[./-](\d{4})`)
	moneyRe      = regexp.MustCompile(`R\$\s*(\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{2}))`)
	bareAmountRe = regexp.MustCompile(`(\d+[.,]\d{2})`)
	costCenterRe = regexp.MustCompile(`^[A-Za-z]{2,4}\d+$`)
	numericRe    = regexp.MustCompile(`^\d+$`)
)

// categoryByToken maps filename tokens to accounting categories.
var categoryByToken = map[string]string{
	"locação":     "Transporte",
	"locacao":     "Transporte",
	"aluguel":     "Transporte",
	"combustivel": "Combustível",
	"alimentação": "Alimentação",
	"alimentacao": "Alimentação",
	"tecnologia":  "Tecnologia",
	"manutenção":  "Manutenção",
	"manutencao":  "Manutenção",
	"veiculos":    "Veículos",
}

// knownSuppliers are counter-parties commonly seen in filenames. A match is
// a strong identity signal during reconciliation.
var knownSuppliers = []string{
	"uber", "ifood", "amazon", "magazine luiza", "correios",
	"shell", "ipiranga", "petrobras", "vivo", "tim", "claro",
}

var skipExtensions = map[string]bool{
	"pdf": true, "jpg": true, "jpeg": true, "png": true, "doc": true, "docx": true,
}

// Parse extracts every hint present in the filename.
func Parse(name string) domain.FilenameMetadata {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	var meta domain.FilenameMetadata

	for _, m := range dateRe.FindAllStringSubmatch(base, -1) {
		meta.Dates = append(meta.Dates, fmt.Sprintf("%s/%s/%s", m[1], m[2], m[3]))
	}

	if m := moneyRe.FindStringSubmatch(base); m != nil {
		meta.Amount = m[1]
	} else if m := bareAmountRe.FindStringSubmatch(base); m != nil {
		// A bare decimal is only an amount if it is not part of a date.
		if !dateRe.MatchString(m[1]) {
			meta.Amount = m[1]
		}
	}

	meta.Supplier = KnownSupplier(base)

	var descParts []string
	for _, part := range strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}) {
		lower := strings.ToLower(part)
		switch {
		case dateRe.MatchString(part), moneyRe.MatchString(part), bareAmountRe.MatchString(part), numericRe.MatchString(part):
			continue
		case part == "PG":
			meta.Status = "PAGO"
		case part == "AG":
			meta.Status = "AGENDADO"
		case costCenterRe.MatchString(part) && part == strings.ToUpper(part):
			meta.CostCenter = strings.ToUpper(part)
		case categoryByToken[lower] != "":
			meta.Category = categoryByToken[lower]
			descParts = append(descParts, part)
		case skipExtensions[lower]:
			continue
		case len(part) > 2:
			descParts = append(descParts, part)
		}
	}
	if len(descParts) > 0 {
		meta.Description = strings.Join(descParts, " ")
	}

	return meta
}

// KnownSupplier returns the known counter-party embedded in the name, or "".
func KnownSupplier(name string) string {
	lower := strings.ToLower(name)
	for _, s := range knownSuppliers {
		if strings.Contains(lower, s) {
			return s
		}
	}
	return ""
}

// AsText renders the metadata as pseudo-OCR text. The extraction engine uses
// this as its last-resort strategy so that downstream analysis always has
// something to work with.
func AsText(name string, meta domain.FilenameMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "DOCUMENTO: %s\n\n", filepath.Base(name))
	b.WriteString("DADOS EXTRAÍDOS DO NOME DO ARQUIVO:\n")
	for i, d := range meta.Dates {
		if i == 0 {
			fmt.Fprintf(&b, "Data de Vencimento: %s\n", d)
		} else {
			fmt.Fprintf(&b, "Data %d: %s\n", i+1, d)
		}
	}
	if meta.Amount != "" {
		fmt.Fprintf(&b, "Valor: R$ %s\n", meta.Amount)
	}
	if meta.CostCenter != "" {
		fmt.Fprintf(&b, "Centro de Custo: %s\n", meta.CostCenter)
	}
	if meta.Category != "" {
		fmt.Fprintf(&b, "Categoria: %s\n", meta.Category)
	}
	if meta.Status != "" {
		fmt.Fprintf(&b, "Status: %s\n", meta.Status)
	}
	if meta.Description != "" {
		fmt.Fprintf(&b, "Descrição: %s\n", meta.Description)
	}
	return b.String()
}

// FieldCount reports how many distinct hints were extracted; used to score
// confidence of filename-derived text.
func FieldCount(meta domain.FilenameMetadata) int {
	n := len(meta.Dates)
	for _, s := range []string{meta.Amount, meta.Description, meta.CostCenter, meta.Category, meta.Status, meta.Supplier} {
		if s != "" {
			n++
		}
	}
	return n
}
