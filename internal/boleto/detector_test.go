package boleto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recondoc/internal/domain"
)

const fullBoleto = `BANCO BRADESCO S.A.
Local de Pagamento: PAGÁVEL EM QUALQUER BANCO ATÉ O VENCIMENTO
Cedente: Imobiliária Central Ltda
Sacado: Maria Oliveira
Vencimento: 20/04/2024
Nosso Número: 00123456789
Agência: 1234  Conta: 56789-0
Valor do Documento: R$ 850,00
──────────────────────
FICHA DE COMPENSAÇÃO
23793.38128 60007.827136 95000.063305 9 97850000085000
`

func TestDetect_FullBoleto(t *testing.T) {
	res := Detect(fullBoleto)

	assert.True(t, res.IsBoleto)
	assert.Equal(t, 95, res.Confidence)
	require.NotNil(t, res.Section)
	require.NotNil(t, res.Data)
	assert.Contains(t, res.Indicators, "FICHA DE COMPENSAÇÃO")
	assert.Contains(t, res.Indicators, "Linha digitável")
	assert.Contains(t, res.Reasoning, "FICHA DE COMPENSAÇÃO")
}

func TestDetect_PlainText(t *testing.T) {
	res := Detect("Relatório mensal de despesas administrativas.")

	assert.False(t, res.IsBoleto)
	assert.Nil(t, res.Section)
	assert.Nil(t, res.Data)
	assert.Empty(t, res.Indicators)
}

func TestDetect_ModerateOccurrenceCap(t *testing.T) {
	// VENCIMENTO five times still scores as two occurrences (10 * 2), below
	// every threshold on its own.
	res := Detect(strings.Repeat("VENCIMENTO\n", 5))

	assert.Equal(t, 20, res.Confidence)
	assert.False(t, res.IsBoleto)
}

func TestDetect_ConfidenceCapped(t *testing.T) {
	res := Detect(fullBoleto + fullBoleto)
	assert.LessOrEqual(t, res.Confidence, 95)
}

func TestDetect_Deterministic(t *testing.T) {
	assert.Equal(t, Detect(fullBoleto), Detect(fullBoleto))
}

func TestExtractSection_MarkerLine(t *testing.T) {
	section := extractSection(fullBoleto)

	require.NotNil(t, section)
	assert.Contains(t, section.Text, "FICHA DE COMPENSAÇÃO")
	assert.Contains(t, section.Text, "23793.38128")
}

func TestExtractSection_FallsBackToTrailingLines(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("linha de contexto\n")
	}
	b.WriteString("Cedente: Fornecedor X\n")

	section := extractSection(b.String())
	require.NotNil(t, section)
	assert.Contains(t, section.Text, "Cedente: Fornecedor X")
	assert.Greater(t, section.Start, 0)
}

func TestExtractData_Fields(t *testing.T) {
	data := extractData(fullBoleto)

	assert.Equal(t, "Imobiliária Central Ltda", data.Cedente)
	assert.Equal(t, "Maria Oliveira", data.Sacado)
	assert.Equal(t, "850,00", data.Valor)
	assert.Equal(t, "20/04/2024", data.DataVencimento)
	assert.Equal(t, "00123456789", data.NossoNumero)
	assert.True(t, strings.HasPrefix(data.LinhaDigitavel, "23793.38128"))
}

func TestExtractData_PagadorAliasesSacado(t *testing.T) {
	data := extractData("Pagador: Empresa Delta Ltda\nVencimento: 01/05/2024")
	assert.Equal(t, "Empresa Delta Ltda", data.Sacado)
}

func TestExtractData_MissingFieldsStayEmpty(t *testing.T) {
	data := extractData("FICHA DE COMPENSAÇÃO")

	assert.Empty(t, data.Valor)
	assert.Empty(t, data.Cedente)
	assert.Empty(t, data.LinhaDigitavel)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		data    domain.BoletoData
		valid   bool
		errText string
	}{
		{
			name: "well formed",
			data: domain.BoletoData{
				LinhaDigitavel: "23793.38128 60007.827136 95000.063305",
				DataVencimento: "20/04/2024",
				Valor:          "R$ 850,00",
			},
			valid: true,
		},
		{
			name:    "bad digit line",
			data:    domain.BoletoData{LinhaDigitavel: "123.456"},
			valid:   false,
			errText: "Linha digitável",
		},
		{
			name:    "short barcode",
			data:    domain.BoletoData{CodigoBarras: "12345"},
			valid:   false,
			errText: "47 ou 48",
		},
		{
			name:    "bad date format",
			data:    domain.BoletoData{DataVencimento: "2024-04-20"},
			valid:   false,
			errText: "DD/MM/AAAA",
		},
		{
			name:    "bad amount",
			data:    domain.BoletoData{Valor: "oitocentos"},
			valid:   false,
			errText: "monetário",
		},
		{
			name:  "empty data is structurally valid",
			data:  domain.BoletoData{},
			valid: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			valid, errs := Validate(tc.data)
			assert.Equal(t, tc.valid, valid)
			if tc.errText != "" {
				require.NotEmpty(t, errs)
				assert.Contains(t, errs[0], tc.errText)
			}
		})
	}
}
