package askblobctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	APIKey     string
	SessionID  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("askblobctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "AskBlob API base URL")
	apiKey := fs.String("api-key", defaults.APIKey, "API key for authenticated requests")
	sessionID := fs.String("session", defaults.SessionID, "Session ID for session-scoped commands")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 30*time.Second), "HTTP timeout (e.g. 30s)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}

	command := strings.TrimSpace(fs.Arg(0))
	method := ""
	path := ""
	var body []byte
	raw := false
	switch command {
	case "health":
		method, path = http.MethodGet, "/v1/health"
	case "ready":
		method, path = http.MethodGet, "/v1/ready"
	case "datasets":
		method, path = http.MethodGet, "/v1/datasets"
	case "session-new":
		method, path = http.MethodPost, "/v1/sessions"
	case "session":
		if *sessionID == "" {
			_, _ = fmt.Fprintln(stderr, "session requires -session")
			return 2
		}
		method, path = http.MethodGet, "/v1/sessions/"+*sessionID
	case "dataset":
		if *sessionID == "" {
			_, _ = fmt.Fprintln(stderr, "dataset requires -session")
			return 2
		}
		if fs.NArg() < 2 {
			_, _ = fmt.Fprintln(stderr, "dataset requires a dataset name")
			return 2
		}
		method, path = http.MethodPost, "/v1/sessions/"+*sessionID+"/dataset"
		body = encodeBody(stderr, map[string]string{"dataset": strings.Join(fs.Args()[1:], " ")})
		if body == nil {
			return 1
		}
	case "lucky":
		if *sessionID == "" {
			_, _ = fmt.Fprintln(stderr, "lucky requires -session")
			return 2
		}
		method, path = http.MethodGet, "/v1/sessions/"+*sessionID+"/lucky"
	case "ask":
		if *sessionID == "" {
			_, _ = fmt.Fprintln(stderr, "ask requires -session")
			return 2
		}
		if fs.NArg() < 2 {
			_, _ = fmt.Fprintln(stderr, "ask requires a prompt")
			return 2
		}
		method, path = http.MethodPost, "/v1/sessions/"+*sessionID+"/ask"
		body = encodeBody(stderr, map[string]string{"prompt": strings.Join(fs.Args()[1:], " ")})
		if body == nil {
			return 1
		}
	case "history":
		if *sessionID == "" {
			_, _ = fmt.Fprintln(stderr, "history requires -session")
			return 2
		}
		method, path = http.MethodGet, "/v1/sessions/"+*sessionID+"/history"
	case "export":
		if *sessionID == "" {
			_, _ = fmt.Fprintln(stderr, "export requires -session")
			return 2
		}
		method, path = http.MethodGet, "/v1/sessions/"+*sessionID+"/result.csv"
		raw = true
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}

	endpoint := strings.TrimRight(*baseURL, "/") + path
	code, responseBody, err := doRequest(ctx, client, method, endpoint, *apiKey, body)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}

	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(responseBody)))
		return 1
	}

	if !raw {
		if pretty, ok := prettyJSON(responseBody); ok {
			_, _ = fmt.Fprintln(stdout, pretty)
			return 0
		}
	}
	if len(responseBody) > 0 {
		_, _ = stdout.Write(responseBody)
	}
	return 0
}

func doRequest(ctx context.Context, client *http.Client, method, url, apiKey string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(apiKey) != "" {
		req.Header.Set("X-API-Key", strings.TrimSpace(apiKey))
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, responseBody, nil
}

func encodeBody(stderr io.Writer, payload any) []byte {
	body, err := json.Marshal(payload)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "encode request body: %v\n", err)
		return nil
	}
	return body
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: askblobctl [flags] <command> [args]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health            GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready             GET /v1/ready")
	_, _ = fmt.Fprintln(w, "  datasets          GET /v1/datasets")
	_, _ = fmt.Fprintln(w, "  session-new       POST /v1/sessions")
	_, _ = fmt.Fprintln(w, "  session           GET /v1/sessions/{session}")
	_, _ = fmt.Fprintln(w, "  dataset <name>    POST /v1/sessions/{session}/dataset")
	_, _ = fmt.Fprintln(w, "  lucky             GET /v1/sessions/{session}/lucky")
	_, _ = fmt.Fprintln(w, "  ask <prompt>      POST /v1/sessions/{session}/ask")
	_, _ = fmt.Fprintln(w, "  history           GET /v1/sessions/{session}/history")
	_, _ = fmt.Fprintln(w, "  export            GET /v1/sessions/{session}/result.csv")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
