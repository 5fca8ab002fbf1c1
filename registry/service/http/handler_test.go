package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medichain/config"
	"medichain/internal/messaging/producer"
	"medichain/internal/metrics"
	mockledger "medichain/ledger/client/mock"
	core "medichain/registry/service/core"
	"medichain/storage/store"
)

// newTestServer wires the full stack onto httptest: memory store, mock
// ledger gateway, mock audit producer.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard, "[TEST] ", log.LstdFlags)

	serverCfg := &config.ServerConfig{DevelopmentMode: true}
	serverCfg.Registration.SetDefaults()
	serverCfg.Analytics.SetDefaults()
	ledgerCfg := &config.LedgerConfig{LedgerType: "mock", Network: "preprod", TimeoutSeconds: 2}

	m := metrics.New()
	svc := core.NewService(
		store.NewMemoryStore(),
		mockledger.NewGateway(ledgerCfg, logger),
		producer.NewMockProducer(logger),
		m,
		logger,
		serverCfg,
		ledgerCfg,
	)
	handler := NewRegistryHandler(svc, logger, serverCfg.DevelopmentMode)
	srv := httptest.NewServer(NewRouter(handler, m.Handler(), 0))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, payload map[string]any) (*http.Response, map[string]any) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return decoded
}

func registerPayload(batchID string) map[string]any {
	return map[string]any{
		"batchId":           batchID,
		"drugName":          "Amoxicillin 500mg",
		"manufacturer":      "GSK",
		"dosage":            "500mg capsules",
		"quantity":          100,
		"manufacturingDate": "2024-01-01",
		"expiryDate":        "2025-01-01",
	}
}

func TestRegisterEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+BatchesPath, registerPayload("BATCH-001"))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "BATCH-001", body["batchId"])
	assert.NotEmpty(t, body["assetId"])
	assert.NotEmpty(t, body["txRef"])
}

func TestRegisterEndpointQuotedQuantity(t *testing.T) {
	srv := newTestServer(t)

	payload := registerPayload("BATCH-001")
	payload["quantity"] = "250"
	resp, _ := postJSON(t, srv.URL+BatchesPath, payload)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestRegisterEndpointValidation(t *testing.T) {
	srv := newTestServer(t)

	payload := registerPayload("BATCH-001")
	payload["drugName"] = ""
	resp, body := postJSON(t, srv.URL+BatchesPath, payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", errObj["kind"])
	assert.Contains(t, errObj["message"], "drugName")
}

func TestRegisterEndpointDuplicate(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := postJSON(t, srv.URL+BatchesPath, registerPayload("BATCH-001"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := postJSON(t, srv.URL+BatchesPath, registerPayload("BATCH-001"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "CONFLICT_ERROR", errObj["kind"])
}

func TestRegisterEndpointRequiresJSONContentType(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+BatchesPath, "text/plain", bytes.NewReader([]byte("{}")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegisterEndpointMalformedJSON(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+BatchesPath, "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", errObj["kind"])
}

func TestVerifyEndpointGenuine(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := postJSON(t, srv.URL+BatchesPath, registerPayload("BATCH-001"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := postJSON(t, srv.URL+VerifyPath, map[string]any{
		"batchId":   "BATCH-001",
		"submitter": "pharmacy-7",
		"location":  "Berlin",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["isValid"])
	assert.Equal(t, "BATCH-001", body["batchId"])
	assert.NotEmpty(t, body["attemptId"])
	assert.NotEmpty(t, body["txRef"])

	metadata, ok := body["metadata"].(map[string]any)
	require.True(t, ok)
	// The mock ledger's metadata takes precedence over the stored record
	assert.Equal(t, "Paracetamol 500mg", metadata["drugName"])
}

func TestVerifyEndpointFake(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := postJSON(t, srv.URL+BatchesPath, registerPayload("BATCH-FAKE-01"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := postJSON(t, srv.URL+VerifyPath, map[string]any{"batchId": "BATCH-FAKE-01"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["isValid"])
	assert.NotEmpty(t, body["reason"])
}

func TestVerifyEndpointUnknownBatch(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+VerifyPath, map[string]any{"batchId": "NO-SUCH-BATCH"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND_ERROR", errObj["kind"])
}

func TestVerifyEndpointLegacyPharmacyID(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := postJSON(t, srv.URL+BatchesPath, registerPayload("BATCH-001"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := postJSON(t, srv.URL+VerifyPath, map[string]any{
		"batchId":    "BATCH-001",
		"pharmacyId": "pharmacy-legacy",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["isValid"])
}

func TestListBatchesEndpoint(t *testing.T) {
	srv := newTestServer(t)

	// Empty list serializes as an array, not null
	resp, body := getJSON(t, srv.URL+BatchesPath)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	batches, ok := body["batches"].([]any)
	require.True(t, ok)
	assert.Empty(t, batches)

	for _, id := range []string{"BATCH-001", "BATCH-002", "BATCH-003"} {
		resp, _ := postJSON(t, srv.URL+BatchesPath, registerPayload(id))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body = getJSON(t, srv.URL+BatchesPath+"?limit=2")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["total"])
	batches = body["batches"].([]any)
	assert.Len(t, batches, 2)
}

func TestAnalyticsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := postJSON(t, srv.URL+BatchesPath, registerPayload("BATCH-001"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = postJSON(t, srv.URL+VerifyPath, map[string]any{"batchId": "BATCH-001"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := getJSON(t, srv.URL+AnalyticsPath)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	summary, ok := body["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), summary["totalAttempts"])
	assert.Equal(t, float64(1), summary["genuineCount"])
	assert.Equal(t, float64(0), summary["fakeCount"])
	assert.Equal(t, "100.0", summary["rate"])

	trends, ok := body["monthlyTrends"].([]any)
	require.True(t, ok)
	require.Len(t, trends, 1)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + HealthPath)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + MetricsPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "medichain_")
}
