package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/cliniprov/internal/model"
	"github.com/ppiankov/cliniprov/internal/pipeline"
)

func newTestServer(t *testing.T, mutate func(*model.ServerConfig)) *Server {
	t.Helper()
	cfg := model.DefaultConfig()
	if mutate != nil {
		mutate(&cfg.Server)
	}
	p := pipeline.NewPipeline(cfg, nil, nil, zerolog.Nop())
	s, err := NewServer(p, zerolog.Nop(), &cfg.Server)
	require.NoError(t, err)
	return s
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestNewServer_RequiresPipeline(t *testing.T) {
	_, err := NewServer(nil, zerolog.Nop(), nil)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(s, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.TaxonomyVersion)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestTaxonomy(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(s, http.MethodGet, "/api/v1/taxonomy", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp TaxonomyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, s.pipeline.Taxonomy().Version(), resp.Version)
	assert.Len(t, resp.Tables, len(model.Categories))
	assert.Greater(t, resp.RuleCount, 0)
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("links anchors", func(t *testing.T) {
		body := `{"letter_id":"L-1","text":"LVEF of 45% and BP 120/80.","anchors":[{"id":"t1","segment_text":"LVEF of 45%","source_type":"transcript","confidence":0.9}]}`
		rec := do(s, http.MethodPost, "/api/v1/analyze", body)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var a model.Analysis
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
		assert.Equal(t, "L-1", a.LetterID)
		require.Len(t, a.Values, 2)
		assert.Equal(t, "t1", a.Values[0].SourceAnchorID)
		assert.Equal(t, float64(100), a.Verification.Rate)
	})

	t.Run("empty text is valid", func(t *testing.T) {
		rec := do(s, http.MethodPost, "/api/v1/analyze", `{"text":""}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var a model.Analysis
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
		assert.Empty(t, a.Values)
	})

	t.Run("bad json", func(t *testing.T) {
		rec := do(s, http.MethodPost, "/api/v1/analyze", `{"text":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unsupported format", func(t *testing.T) {
		rec := do(s, http.MethodPost, "/api/v1/analyze", `{"text":"x","format":"pdf"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMeasurements(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(s, http.MethodPost, "/api/v1/measurements", `{"text":"BP 120/80, HR 72 bpm, atrial fibrillation."}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp MeasurementsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Values, 2)
	assert.Equal(t, "120/80", resp.Values[0].Value)
	assert.Equal(t, "72", resp.Values[1].Value)
}

func TestConcepts(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(s, http.MethodPost, "/api/v1/concepts", `{"text":"Heart failure with atrial fibrillation. On a statin."}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp pipeline.ConceptReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"I48", "I50.9"}, resp.ICD10Codes)
	assert.Len(t, resp.Concepts.Medications, 1)
	assert.Contains(t, resp.Summary, "Medications: Statin")
	assert.Equal(t, model.RiskVeryHigh, resp.Risk.Level)
}

func TestVerification(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("computes views", func(t *testing.T) {
		body := `{"values":[
			{"id":"cv-001","type":"measurement","name":"LVEF","value":"45","source_anchor_id":"t1"},
			{"id":"cv-002","type":"medication","name":"Aspirin","value":"100","verified":true},
			{"id":"cv-003","type":"diagnosis","name":"Hypertension","value":"Hypertension"}
		]}`
		rec := do(s, http.MethodPost, "/api/v1/verification", body)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp pipeline.VerificationReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.Verification.TotalValues)
		assert.Equal(t, 33.3, resp.Verification.Rate)
		assert.Len(t, resp.Unverified, 2)
		require.Len(t, resp.RequiresAttention, 1)
		assert.Equal(t, "cv-003", resp.RequiresAttention[0].ID)
	})

	t.Run("unknown value type", func(t *testing.T) {
		rec := do(s, http.MethodPost, "/api/v1/verification", `{"values":[{"id":"x","type":"allergy"}]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(cfg *model.ServerConfig) {
		cfg.RateLimitRPS = 0.001
		cfg.RateLimitBurst = 2
	})

	for i := 0; i < 2; i++ {
		rec := do(s, http.MethodGet, "/api/v1/taxonomy", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(s, http.MethodGet, "/api/v1/taxonomy", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// Health checks are not rate limited
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/health", "").Code)
}

func TestRateLimit_ClientOverride(t *testing.T) {
	s := newTestServer(t, func(cfg *model.ServerConfig) {
		cfg.RateLimitRPS = 0.001
		cfg.RateLimitBurst = 1
		// httptest requests come from 192.0.2.1
		cfg.ClientLimits = []model.ClientLimit{{Client: "192.0.2.1", RateLimitRPS: 0}}
	})

	for i := 0; i < 5; i++ {
		rec := do(s, http.MethodGet, "/api/v1/taxonomy", "")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	// Other clients keep the default limit
	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/taxonomy", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		rec := httptest.NewRecorder()
		s.echo.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "request %d", i)
	}
}

func TestBodyLimit(t *testing.T) {
	s := newTestServer(t, func(cfg *model.ServerConfig) {
		cfg.MaxBodyBytes = 64
	})

	body := `{"text":"` + strings.Repeat("a", 200) + `"}`
	rec := do(s, http.MethodPost, "/api/v1/measurements", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	do(s, http.MethodPost, "/api/v1/analyze", `{"text":"LVEF 45%"}`)
	rec := do(s, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `cliniprov_analyses_total{cached="false",risk_level="low"} 1`)
	assert.Contains(t, body, `cliniprov_http_requests_total{method="POST",route="/api/v1/analyze",status="200"} 1`)
	assert.Contains(t, body, "cliniprov_verification_rate_percent_count 1")
}

func TestRecovery(t *testing.T) {
	s := newTestServer(t, nil)
	s.echo.GET("/panic", func(c echo.Context) error {
		panic("boom")
	})

	rec := do(s, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
