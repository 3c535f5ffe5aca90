package omni

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClientValidatesConfig(t *testing.T) {
	if _, err := NewClient(Config{APIKey: "k"}); err == nil {
		t.Fatal("NewClient() should require a base URL")
	}
	if _, err := NewClient(Config{BaseURL: "https://acme.omniapp.co"}); err == nil {
		t.Fatal("NewClient() should require an api key")
	}
}

func TestGenerateQuerySendsBearerAndPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		_, _ = w.Write([]byte(`{"query":{"fields":["orders.total_orders"]},"remainder":1}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "secret"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	resp, err := client.GenerateQuery(context.Background(), GenerateRequest{
		CurrentTopicName: "orders_ai",
		ModelID:          "model-1",
		Prompt:           "top products",
		ContextQuery:     `{"query":{"fields":[]}}`,
	})
	if err != nil {
		t.Fatalf("GenerateQuery() error = %v", err)
	}

	if gotPath != "/api/unstable/ai/generate-query" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotBody["currentTopicName"] != "orders_ai" || gotBody["modelId"] != "model-1" {
		t.Fatalf("body = %#v", gotBody)
	}
	if gotBody["contextQuery"] != `{"query":{"fields":[]}}` {
		t.Fatalf("contextQuery = %#v", gotBody["contextQuery"])
	}
	if resp.Query == nil {
		t.Fatal("expected extracted query")
	}
}

func TestGenerateQueryOmitsEmptyContext(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		_, _ = w.Write([]byte(`{"query":{}}`))
	}))
	defer server.Close()

	client, _ := NewClient(Config{BaseURL: server.URL, APIKey: "secret"})
	if _, err := client.GenerateQuery(context.Background(), GenerateRequest{
		CurrentTopicName: "orders_ai",
		ModelID:          "model-1",
		Prompt:           "top products",
	}); err != nil {
		t.Fatalf("GenerateQuery() error = %v", err)
	}
	if _, ok := gotBody["contextQuery"]; ok {
		t.Fatal("contextQuery should be omitted when empty")
	}
}

func TestGenerateQueryReturnsErrorOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusBadGateway)
	}))
	defer server.Close()

	client, _ := NewClient(Config{BaseURL: server.URL, APIKey: "secret"})
	_, err := client.GenerateQuery(context.Background(), GenerateRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if !strings.Contains(err.Error(), "status=502") {
		t.Fatalf("error = %v", err)
	}
}

func TestRunQueryBlockingReturnsTable(t *testing.T) {
	var gotDocument string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotDocument = string(body)
		_, _ = w.Write([]byte(`{"result":{"columns":["products.name"],"rows":[["Widget"]]},"metadata":{"elapsed_ms":12}}`))
	}))
	defer server.Close()

	client, _ := NewClient(Config{BaseURL: server.URL, APIKey: "secret"})
	result, err := client.RunQueryBlocking(context.Background(), json.RawMessage(`{"query":{"fields":["products.name"]}}`))
	if err != nil {
		t.Fatalf("RunQueryBlocking() error = %v", err)
	}
	if result == nil {
		t.Fatal("expected a result")
	}
	if gotDocument != `{"query":{"fields":["products.name"]}}` {
		t.Fatalf("document = %s", gotDocument)
	}
	if len(result.Table.Columns) != 1 || result.Table.Columns[0] != "products.name" {
		t.Fatalf("columns = %v", result.Table.Columns)
	}
	if len(result.Table.Rows) != 1 {
		t.Fatalf("rows = %v", result.Table.Rows)
	}
}

func TestRunQueryBlockingNullBodyMeansNoResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("null"))
	}))
	defer server.Close()

	client, _ := NewClient(Config{BaseURL: server.URL, APIKey: "secret"})
	result, err := client.RunQueryBlocking(context.Background(), json.RawMessage(`{"query":{}}`))
	if err != nil {
		t.Fatalf("RunQueryBlocking() error = %v", err)
	}
	if result != nil {
		t.Fatalf("result = %#v, want nil", result)
	}
}

func TestExtractQuery(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want bool
	}{
		{"object query", `{"query":{"fields":[]}}`, true},
		{"missing query", `{"sql":"select 1"}`, false},
		{"string query", `{"query":"not a mapping"}`, false},
		{"null query", `{"query":null}`, false},
		{"not json", `hello`, false},
	}
	for _, tc := range cases {
		got := ExtractQuery(json.RawMessage(tc.raw))
		if (got != nil) != tc.want {
			t.Fatalf("%s: ExtractQuery() = %s, want present=%v", tc.name, got, tc.want)
		}
	}
}
