package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/api"
	"github.com/sarthak-bm-ai/Feature-Store-CRUD/feature"
	"github.com/sarthak-bm-ai/Feature-Store-CRUD/internal/ddbtest"
)

type fixture struct {
	server *api.Server
	client *ddbtest.Client
	store  *feature.Store
}

func newFixture(t *testing.T, opts api.Options) *fixture {
	t.Helper()
	client := ddbtest.NewClient().
		AddTable("features_bright_uid", "bright_uid", "category").
		AddTable("features_account_id", "account_id", "category")
	store := feature.NewStore(client, feature.DefaultConfig())
	svc := feature.NewService(store, feature.NewPolicy([]string{"c1", "c2"}, []string{"c1", "c2"}), nil, nil)
	return &fixture{
		server: api.New(svc, store, nil, opts),
		client: client,
		store:  store,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, map[string]any, http.Header) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.server.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out, resp.Header
}

func errorOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %v", body)
	return e
}

const writeC1 = `{
	"meta": {"source": "prediction_service", "compute_id": "run-1"},
	"data": {"entity_type": "bright_uid", "entity_value": "u1", "category": "c1",
		"features": {"f1": 1, "f2": "x", "nested": {"a": [1, true, null]}}}
}`

func TestPutThenGetItem(t *testing.T) {
	f := newFixture(t, api.Options{})

	status, body, _ := f.do(t, http.MethodPost, "/api/v1/item", writeC1)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "u1", body["entity_value"])
	assert.Equal(t, "bright_uid", body["entity_type"])
	assert.Equal(t, "c1", body["category"])
	assert.Equal(t, float64(3), body["feature_count"])

	status, body, _ = f.do(t, http.MethodGet, "/api/v1/get/item/u1/c1", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "u1", body["bright_uid"])
	assert.Equal(t, "c1", body["category"])

	features := body["features"].(map[string]any)
	data := features["data"].(map[string]any)
	assert.Equal(t, float64(1), data["f1"])
	assert.Equal(t, "x", data["f2"])
	assert.Equal(t, map[string]any{"a": []any{float64(1), true, nil}}, data["nested"])

	meta := features["meta"].(map[string]any)
	assert.Equal(t, "run-1", meta["compute_id"])
	assert.NotEmpty(t, meta["created_at"])
	assert.Equal(t, meta["created_at"], meta["updated_at"])
}

func TestGetItem_Errors(t *testing.T) {
	f := newFixture(t, api.Options{})

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"missing record", "/api/v1/get/item/u1/c1", http.StatusNotFound, "NOT_FOUND"},
		{"category not allowed", "/api/v1/get/item/u1/secret", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad entity type", "/api/v1/get/item/u1/c1?entity_type=account_pid", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown route", "/api/v1/nope", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body, _ := f.do(t, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.status, status)
			e := errorOf(t, body)
			assert.Equal(t, float64(tt.status), e["status_code"])
			assert.Equal(t, tt.code, e["error_code"])
			assert.NotEmpty(t, e["detail"])
			assert.NotEmpty(t, e["timestamp"])
		})
	}
}

func TestGetItem_EncodedPathParams(t *testing.T) {
	f := newFixture(t, api.Options{})

	ids := []string{"user one", "a/b", "u#1", "100%", "what?"}
	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			body := `{"meta": {"source": "prediction_service"},
				"data": {"entity_type": "bright_uid", "entity_value": ` + jsonString(id) + `, "category": "c1",
				"features": {"f1": 1}}}`
			status, out, _ := f.do(t, http.MethodPost, "/api/v1/item", body)
			require.Equal(t, http.StatusOK, status, out)

			status, out, _ = f.do(t, http.MethodGet, "/api/v1/get/item/"+url.PathEscape(id)+"/c1", "")
			require.Equal(t, http.StatusOK, status, out)
			assert.Equal(t, id, out["bright_uid"])
		})
	}
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestGetItem_AccountID(t *testing.T) {
	f := newFixture(t, api.Options{})
	write := `{"meta":{"source":"prediction_service"},
		"data":{"entity_type":"account_id","entity_value":"a1","category":"c2","features":{"score":0.5}}}`
	status, _, _ := f.do(t, http.MethodPost, "/api/v1/item", write)
	require.Equal(t, http.StatusOK, status)

	status, body, _ := f.do(t, http.MethodGet, "/api/v1/get/item/a1/c2?entity_type=account_id", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "a1", body["account_id"])
	assert.Len(t, f.client.Items("features_account_id"), 1)
	assert.Empty(t, f.client.Items("features_bright_uid"))
}

func TestGetItems_PartialAndFiltered(t *testing.T) {
	f := newFixture(t, api.Options{})
	status, _, _ := f.do(t, http.MethodPost, "/api/v1/item", writeC1)
	require.Equal(t, http.StatusOK, status)

	read := `{"meta":{"source":"api"},"data":{"entity_type":"bright_uid","entity_value":"u1",
		"feature_list":["c1:f1","c1:missing","c2:*","secret:*"]}}`
	status, body, _ := f.do(t, http.MethodPost, "/api/v1/get/items", read)
	require.Equal(t, http.StatusOK, status, body)

	items := body["items"].(map[string]any)
	require.Contains(t, items, "c1")
	data := items["c1"].(map[string]any)["features"].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, map[string]any{"f1": float64(1)}, data)
	assert.Equal(t, []any{"c2", "secret"}, body["unavailable_feature_categories"])
}

func TestGetItems_Errors(t *testing.T) {
	f := newFixture(t, api.Options{})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"nothing found", `{"meta":{"source":"api"},"data":{"entity_type":"bright_uid","entity_value":"u1","feature_list":["c1:*"]}}`, http.StatusNotFound},
		{"bad token", `{"meta":{"source":"api"},"data":{"entity_type":"bright_uid","entity_value":"u1","feature_list":["c1"]}}`, http.StatusBadRequest},
		{"empty list", `{"meta":{"source":"api"},"data":{"entity_type":"bright_uid","entity_value":"u1","feature_list":[]}}`, http.StatusBadRequest},
		{"missing source", `{"data":{"entity_type":"bright_uid","entity_value":"u1","feature_list":["c1:*"]}}`, http.StatusBadRequest},
		{"blank entity", `{"meta":{"source":"api"},"data":{"entity_type":"bright_uid","entity_value":"  ","feature_list":["c1:*"]}}`, http.StatusBadRequest},
		{"malformed json", `{"meta":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body, _ := f.do(t, http.MethodPost, "/api/v1/get/items", tt.body)
			assert.Equal(t, tt.status, status, body)
			errorOf(t, body)
		})
	}
}

func TestPutItem_Validation(t *testing.T) {
	f := newFixture(t, api.Options{})

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"wrong source", `{"meta":{"source":"api"},"data":{"entity_type":"bright_uid","entity_value":"u1","category":"c1","features":{"a":1}}}`, http.StatusForbidden, "FORBIDDEN"},
		{"empty features", `{"meta":{"source":"prediction_service"},"data":{"entity_type":"bright_uid","entity_value":"u1","category":"c1","features":{}}}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"category not allowed", `{"meta":{"source":"prediction_service"},"data":{"entity_type":"bright_uid","entity_value":"u1","category":"secret","features":{"a":1}}}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"no body", ``, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body, _ := f.do(t, http.MethodPost, "/api/v1/item", tt.body)
			assert.Equal(t, tt.status, status, body)
			assert.Equal(t, tt.code, errorOf(t, body)["error_code"])
		})
	}

	_, puts := f.client.Calls()
	assert.Zero(t, puts, "rejected writes must not reach storage")
}

func TestPutItems_Batch(t *testing.T) {
	f := newFixture(t, api.Options{})
	batch := `{"meta":{"source":"prediction_service"},"data":{"entity_type":"bright_uid","entity_value":"u1",
		"feature_list":[{"category":"c1","features":{"a":1,"b":2}},{"category":"c2","features":{"c":3}}]}}`

	status, body, _ := f.do(t, http.MethodPost, "/api/v1/items", batch)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(3), body["total_features"])
	assert.Equal(t, map[string]any{
		"c1": map[string]any{"status": "replaced", "feature_count": float64(2)},
		"c2": map[string]any{"status": "replaced", "feature_count": float64(1)},
	}, body["results"])
	assert.Len(t, f.client.Items("features_bright_uid"), 2)
}

func TestPutItems_RejectsWholeBatch(t *testing.T) {
	f := newFixture(t, api.Options{})
	batch := `{"meta":{"source":"prediction_service"},"data":{"entity_type":"bright_uid","entity_value":"u1",
		"feature_list":[{"category":"c1","features":{"a":1}},{"category":"secret","features":{"c":3}}]}}`

	status, _, _ := f.do(t, http.MethodPost, "/api/v1/items", batch)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Empty(t, f.client.Items("features_bright_uid"))
}

func TestStorageFailure(t *testing.T) {
	tests := []struct {
		name       string
		production bool
		detail     string
	}{
		{"development shows cause", false, "throttled"},
		{"production hides cause", true, "Service temporarily unavailable, please retry later"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, api.Options{Production: tt.production})
			f.client.GetErr = &types.ProvisionedThroughputExceededException{Message: strPtr("throttled")}

			status, body, header := f.do(t, http.MethodGet, "/api/v1/get/item/u1/c1", "")
			assert.Equal(t, http.StatusServiceUnavailable, status)
			assert.Equal(t, "5", header.Get("Retry-After"))
			e := errorOf(t, body)
			assert.Equal(t, "SERVICE_UNAVAILABLE", e["error_code"])
			assert.Contains(t, e["detail"], tt.detail)
		})
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, api.Options{})

	status, body, _ := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["dynamodb_connection"])
	assert.ElementsMatch(t, []any{"features_bright_uid", "features_account_id"}, body["tables_available"])

	f.client.DescribeErr = errors.New("connection refused")
	status, body, _ = f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, false, body["dynamodb_connection"])

	status, _, _ = f.do(t, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, api.Options{})
	f.do(t, http.MethodGet, "/api/v1/get/item/u1/c1", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := f.server.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "featurestore_http_requests_total")
	assert.Contains(t, string(raw), "featurestore_flow_total")
}

func TestRequestID(t *testing.T) {
	f := newFixture(t, api.Options{})
	_, _, header := f.do(t, http.MethodGet, "/health", "")
	assert.NotEmpty(t, header.Get("X-Request-ID"))
}

func TestPanicIsInternalError(t *testing.T) {
	s := api.New(panicking{}, nil, nil, api.Options{Production: true})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/get/item/u1/c1", nil)
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", body["error"]["error_code"])
	assert.Equal(t, "Internal server error", body["error"]["detail"])
}

func TestCORS(t *testing.T) {
	f := newFixture(t, api.Options{CORSOrigins: []string{"*"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/get/items", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := f.server.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

type panicking struct{ api.Features }

func (panicking) GetSingleCategory(context.Context, feature.EntityRef, string) (*feature.Record, error) {
	panic("boom")
}

func strPtr(s string) *string { return &s }
