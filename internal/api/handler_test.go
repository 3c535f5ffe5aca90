package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/askblob/askblob/internal/auth"
	"github.com/askblob/askblob/internal/config"
	"github.com/askblob/askblob/internal/dataset"
	"github.com/askblob/askblob/internal/session"
)

func mapLookup(values map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func testEnv(extra map[string]string) map[string]string {
	values := map[string]string{
		"ASKBLOB_OMNI_BASE_URL": "https://omni.example.com",
		"ASKBLOB_OMNI_API_KEY":  "omni-secret",
	}
	for key, value := range extra {
		values[key] = value
	}
	return values
}

func testConfig(t *testing.T, extra map[string]string) config.Config {
	t.Helper()
	cfg, err := config.Load("askblob-api", mapLookup(testEnv(extra)))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}
	return cfg
}

func testRegistry(t *testing.T) *dataset.Registry {
	t.Helper()
	registry, err := dataset.NewRegistry(dataset.Defaults())
	if err != nil {
		t.Fatalf("registry setup failed: %v", err)
	}
	return registry
}

func TestHealthEndpoint(t *testing.T) {
	cfg := testConfig(t, nil)

	h := NewHandler(cfg, Dependencies{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestReadyEndpointReturns503WhenDependencyFails(t *testing.T) {
	cfg := testConfig(t, nil)

	h := NewHandler(cfg, Dependencies{
		Readiness: func(rctx context.Context) error {
			return errors.New("dependency down")
		},
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/ready", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestProtectedRouteRequiresAuth(t *testing.T) {
	cfg := testConfig(t, map[string]string{"ASKBLOB_AUTH_REQUIRED": "true"})
	validator, err := auth.NewStaticAPIKeyValidator("k1:analyst:asker")
	if err != nil {
		t.Fatalf("validator setup failed: %v", err)
	}

	registry := testRegistry(t)
	h := NewHandler(cfg, Dependencies{
		AuthMiddleware: auth.Middleware(nil, validator),
		Registry:       registry,
		Sessions:       session.NewStore(registry),
	})

	unauthResp := httptest.NewRecorder()
	h.ServeHTTP(unauthResp, httptest.NewRequest(http.MethodGet, "/v1/datasets", nil))
	if unauthResp.Code != http.StatusUnauthorized {
		t.Fatalf("unauth status = %d", unauthResp.Code)
	}

	authReq := httptest.NewRequest(http.MethodGet, "/v1/datasets", nil)
	authReq.Header.Set("X-API-Key", "k1")
	authResp := httptest.NewRecorder()
	h.ServeHTTP(authResp, authReq)
	if authResp.Code != http.StatusOK {
		t.Fatalf("auth status = %d", authResp.Code)
	}
}

func TestProtectedRouteRejectsMissingRole(t *testing.T) {
	cfg := testConfig(t, map[string]string{"ASKBLOB_AUTH_REQUIRED": "true"})
	validator, err := auth.NewStaticAPIKeyValidator("k1:viewer:spectator")
	if err != nil {
		t.Fatalf("validator setup failed: %v", err)
	}

	registry := testRegistry(t)
	h := NewHandler(cfg, Dependencies{
		AuthMiddleware: auth.Middleware(nil, validator),
		Registry:       registry,
		Sessions:       session.NewStore(registry),
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/datasets", nil)
	req.Header.Set("X-API-Key", "k1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestListDatasetsReturnsDefaults(t *testing.T) {
	cfg := testConfig(t, nil)
	registry := testRegistry(t)

	h := NewHandler(cfg, Dependencies{Registry: registry})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/datasets", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body struct {
		Datasets []datasetView `json:"datasets"`
		Default  string        `json:"default"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if len(body.Datasets) != 3 {
		t.Fatalf("dataset count = %d", len(body.Datasets))
	}
	if body.Default != "eCommerce Store Sales" {
		t.Fatalf("default dataset = %q", body.Default)
	}
}

func TestCombineReadinessChecksStopsOnFirstFailure(t *testing.T) {
	order := make([]int, 0, 3)
	combined := CombineReadinessChecks(
		func(_ context.Context) error {
			order = append(order, 1)
			return nil
		},
		func(_ context.Context) error {
			order = append(order, 2)
			return errors.New("boom")
		},
		func(_ context.Context) error {
			order = append(order, 3)
			return nil
		},
	)

	err := combined(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("execution order = %#v", order)
	}
}

func TestCheckOmniConfig(t *testing.T) {
	cfg := testConfig(t, nil)
	if err := CheckOmniConfig(cfg)(context.Background()); err != nil {
		t.Fatalf("CheckOmniConfig() error = %v", err)
	}

	cfg.Omni.APIKey = ""
	if err := CheckOmniConfig(cfg)(context.Background()); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
