package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"recondoc/internal/domain"
)

// BuildAnalysisPrompt assembles the Portuguese analysis prompt. Filename
// metadata is embedded so the model can cross-check OCR values against the
// bookkeeper's own annotations.
func BuildAnalysisPrompt(ocrText, fileName string, meta domain.FilenameMetadata) string {
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		metaJSON = []byte("{}")
	}

	var b strings.Builder
	b.WriteString("Você é um especialista em análise de documentos fiscais brasileiros com foco em PRECISÃO MÁXIMA.\n\n")
	fmt.Fprintf(&b, "ARQUIVO: %s\n", fileName)
	fmt.Fprintf(&b, "TEXTO OCR: %q\n\n", ocrText)
	fmt.Fprintf(&b, "METADADOS DO ARQUIVO (para validação cruzada):\n%s\n\n", metaJSON)
	b.WriteString(`PRIORIDADES DE ANÁLISE:
1. SEMPRE priorize dados claros do nome do arquivo quando o OCR for incompleto
2. Use o texto OCR para extrair detalhes adicionais (fornecedor, descrição)
3. Valide valores monetários: se OCR difere muito do arquivo, use o arquivo
4. Para datas: priorize datas estruturadas do nome do arquivo

REGRAS DE CLASSIFICAÇÃO:
- PAGO: Comprovantes de pagamento, extratos bancários mostrando débito
- AGENDADO: Agendamentos de pagamento, transferências futuras
- BOLETO: Boletos bancários para pagamento
- NF: Notas fiscais, faturas de serviços

RESPOSTA: JSON puro, sem markdown, sem explicações.

TEMPLATE:
{
  "documentType": "PAGO | AGENDADO | BOLETO | NF",
  "amount": "1234.56",
  "dueDate": "DD/MM/AAAA",
  "paidDate": "DD/MM/AAAA",
  "bankName": "[banco_identificado]",
  "clientInfo": "[destinatário_se_identificado]",
  "supplier": "[nome_completo_do_fornecedor]",
  "description": "[descrição_arquivo + detalhes_ocr]",
  "category": "[categoria_mapeada]",
  "confidence": 0,
  "extractedData": {}
}`)
	return b.String()
}
