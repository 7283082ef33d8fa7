package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"recondoc/internal/domain"
	"recondoc/internal/handler"
	"recondoc/internal/router"
	"recondoc/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func setupRouter(svc *mocks.MockAnalysisService) *gin.Engine {
	analyzeH := handler.NewAnalyzeHandler(svc)
	healthH := handler.NewHealthHandler(nil)
	return router.Setup(analyzeH, healthH, []string{"http://localhost:3000"})
}

func TestAnalyze_Success(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	r := setupRouter(svc)

	analysis := &domain.DocumentAnalysis{
		Filename: "boleto.pdf",
		Extraction: domain.ExtractionResult{
			Success:    true,
			Method:     "PDF_NATIVE_TEXT",
			Confidence: 88,
		},
	}
	svc.On("AnalyzeDocument", mock.Anything, "boleto.pdf", []byte("%PDF-1.4")).Return(analysis, nil)

	body, contentType := multipartUpload(t, "file", "boleto.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "boleto.pdf", data["filename"])
	svc.AssertExpectations(t)
}

func TestAnalyze_MissingFile(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	r := setupRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/analyze", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "AnalyzeDocument")
}

func TestAnalyze_DomainErrorsMapped(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unsupported type", domain.ErrUnsupportedFileType, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE"},
		{"empty file", domain.ErrEmptyFile, http.StatusBadRequest, "EMPTY_FILE"},
		{"too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{"internal", assert.AnError, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockAnalysisService)
			r := setupRouter(svc)
			svc.On("AnalyzeDocument", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			body, contentType := multipartUpload(t, "file", "doc.pdf", []byte("x"))
			req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/analyze", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp handler.APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestHealthz(t *testing.T) {
	r := setupRouter(new(mocks.MockAnalysisService))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz_NoDatabaseConfigured(t *testing.T) {
	r := setupRouter(new(mocks.MockAnalysisService))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
