package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/pipeline"
	"github.com/andresuchdata/stockcast/internal/repository"
	"github.com/andresuchdata/stockcast/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter() *gin.Engine {
	runner := pipeline.NewRunner(pipeline.DefaultConfig(), nil, nil)
	svc := service.NewAnalysisService(runner, repository.NewMemoryRepository(), nil, service.Options{Defaults: domain.DefaultParams()})
	return NewRouter(&Services{AnalysisService: svc}, nil)
}

func do(t *testing.T, router *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var body map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func historyRows(months int) []map[string]any {
	rows := make([]map[string]any, 0, months)
	for i := 0; i < months; i++ {
		rows = append(rows, map[string]any{
			"period":      time2022(i),
			"material":    "M1",
			"location":    "L1",
			"opening":     100,
			"closing":     90,
			"consumption": 10,
		})
	}
	return rows
}

func time2022(month int) string {
	return fmt.Sprintf("%d-%02d-01", 2022+month/12, month%12+1)
}

func TestHealth(t *testing.T) {
	w, body := do(t, newTestRouter(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter()
	do(t, router, httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "stockcast_api_requests_total")
}

func TestCreateAnalysis_JSONManual(t *testing.T) {
	router := newTestRouter()
	payload := map[string]any{
		"history": historyRows(36),
		"demand": []map[string]any{
			{"period": "2025-01-01", "material": "M1", "location": "L1", "demand": 50},
			{"period": "2025-02-01", "material": "M1", "location": "L1", "demand": 60},
			{"period": "2025-03-01", "material": "M1", "location": "L1", "demand": 55},
		},
		"params": map[string]any{"safety_fraction": 0.2},
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w, body := do(t, router, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	recs := body["recommendations"].([]any)
	require.Len(t, recs, 3)
	assert.InDelta(t, 135.0, recs[0].(map[string]any)["recommendation"], 1e-9)

	run := body["run"].(map[string]any)
	id := run["id"].(string)
	assert.Equal(t, "completed", run["status"])

	w, body = do(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+id, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["recommendations"], 3)
	metrics := body["metrics"].([]any)
	require.Len(t, metrics, 1)

	w, body = do(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/analyses?status=completed", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, body["count"])
}

func TestCreateAnalysis_Multipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("history", "history.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("period,material,location,opening,closing,consumption\n" +
		"2024-01-01,M1,L1,100,90,10\n2024-02-01,M1,L1,90,80,10\n2024-03-01,M1,L1,80,70,10\n"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("horizon", "2"))
	require.NoError(t, mw.WriteField("model", "naive"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, body := do(t, newTestRouter(), req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	recs := body["recommendations"].([]any)
	require.Len(t, recs, 2)
	assert.Equal(t, "naive", recs[0].(map[string]any)["model"])
}

func TestCreateAnalysis_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"history": [`},
		{"no history", `{"history": []}`},
		{"unknown model", `{"history": [{"period": "2024-01-01", "material": "M", "location": "L", "opening": 1, "closing": 1}], "params": {"model": "prophet"}}`},
		{"bad date", `{"history": [{"period": "yesterday", "material": "M", "location": "L", "opening": 1, "closing": 1}]}`},
		{"negative horizon", `{"history": [{"period": "2024-01-01", "material": "M", "location": "L", "opening": 1, "closing": 1}], "params": {"horizon": -1}}`},
	}
	router := newTestRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w, body := do(t, router, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGetAnalysis_NotFound(t *testing.T) {
	w, _ := do(t, newTestRouter(), httptest.NewRequest(http.MethodGet, "/api/v1/analyses/unknown", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListModels(t *testing.T) {
	w, body := do(t, newTestRouter(), httptest.NewRequest(http.MethodGet, "/api/v1/models", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["models"], 6)
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)
	assert.False(t, all)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}
