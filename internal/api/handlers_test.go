package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campaign-optimizer/internal/config"
	"github.com/ignite/campaign-optimizer/internal/engine"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	eng, err := engine.NewEngine(engine.Options{
		Rules: []*engine.OptimizationRule{
			{
				ID: "low-roas", Name: "pause low ROAS", Metric: "roas",
				Operator: "<", Threshold: 1.0, Action: "pause_campaign",
				Priority: engine.PriorityHigh, Enabled: true, Frequency: engine.FrequencyHourly,
			},
		},
		MonthlyBudget: 10000,
	})
	require.NoError(t, err)
	return NewServer(config.ServerConfig{Port: 8080, Host: "localhost"}, NewHandlers(eng, nil, nil, nil))
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	rec := doJSON(t, testServer(t), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestIngestMetricsAndGetCampaign(t *testing.T) {
	srv := testServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/campaigns/metrics", map[string]interface{}{
		"campaign_id": "camp-1",
		"platform":    "google_ads",
		"metrics": map[string]interface{}{
			"impressions": 10000, "clicks": 380, "conversions": 19,
			"cost": 850, "revenue": 2280,
		},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/campaigns/camp-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap engine.MetricSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, engine.PlatformGoogleAds, snap.Platform)
	assert.InDelta(t, 2.2368, snap.Metrics.CPC, 0.001)
	assert.InDelta(t, 44.7368, snap.Metrics.CPA, 0.001)
	assert.InDelta(t, 2.6824, snap.Metrics.ROAS, 0.001)
}

func TestIngestMetricsRejectsMissingID(t *testing.T) {
	rec := doJSON(t, testServer(t), http.MethodPost, "/api/campaigns/metrics", map[string]interface{}{
		"platform": "meta_ads",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCampaignNotFound(t *testing.T) {
	rec := doJSON(t, testServer(t), http.MethodGet, "/api/campaigns/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIngestCustomerValidation(t *testing.T) {
	srv := testServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/customers", map[string]interface{}{
		"customer_id": "cust-1",
		"lifecycle":   map[string]interface{}{"stage": "active", "churn_probability": 0.3},
	})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/customers", map[string]interface{}{
		"lifecycle": map[string]interface{}{"stage": "active"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRules(t *testing.T) {
	rec := doJSON(t, testServer(t), http.MethodGet, "/api/rules", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rules []engine.OptimizationRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
	require.Len(t, rules, 1)
	assert.Equal(t, "low-roas", rules[0].ID)
}

func TestRunBatchAndLatest(t *testing.T) {
	srv := testServer(t)

	// Nothing has run yet.
	rec := doJSON(t, srv, http.MethodGet, "/api/optimize/latest", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/campaigns/metrics", map[string]interface{}{
		"campaign_id": "camp-1",
		"metrics": map[string]interface{}{
			"impressions": 1000, "clicks": 200, "conversions": 2,
			"cost": 500, "revenue": 200,
		},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/optimize/run", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result engine.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.BatchID)
	require.Len(t, result.FiredActions, 1)
	assert.Equal(t, "pause_campaign", result.FiredActions[0].Action)

	rec = doJSON(t, srv, http.MethodGet, "/api/optimize/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var latest engine.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	assert.Equal(t, result.BatchID, latest.BatchID)
}
