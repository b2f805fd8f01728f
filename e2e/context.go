// Package e2e drives the lifeline API end to end over HTTP. The suite talks
// to an already running server (LIFELINE_E2E_URL) so it exercises the exact
// binary that ships, wire format included.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TestContext carries shared state across steps within one scenario: the HTTP
// client, the last response, and tokens for the actors the scenario registered.
type TestContext struct {
	baseURL string
	client  *http.Client

	lastStatus int
	lastBody   []byte

	actor  string
	tokens map[string]string
	saved  map[string]string
}

// NewTestContext builds a context pointed at baseURL.
func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		tokens:  make(map[string]string),
		saved:   make(map[string]string),
	}
}

// Reset clears per-scenario state. Registered users persist on the server
// side, so each scenario must register with fresh emails.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.actor = ""
	tc.tokens = make(map[string]string)
	tc.saved = make(map[string]string)
}

func (tc *TestContext) do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := tc.tokens[tc.actor]; ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	return nil
}

// POST sends a JSON request as the current actor.
func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body)
}

// GET sends a request as the current actor.
func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

// PATCH sends a JSON request as the current actor.
func (tc *TestContext) PATCH(path string, body any) error {
	return tc.do(http.MethodPatch, path, body)
}

// LastStatus returns the status code of the most recent response.
func (tc *TestContext) LastStatus() int { return tc.lastStatus }

// LastBody returns the raw body of the most recent response.
func (tc *TestContext) LastBody() []byte { return tc.lastBody }

// ResponseField extracts a top-level field from the last JSON response.
func (tc *TestContext) ResponseField(field string) (any, error) {
	var payload map[string]any
	if err := json.Unmarshal(tc.lastBody, &payload); err != nil {
		return nil, fmt.Errorf("parse response body: %w", err)
	}
	value, ok := payload[field]
	if !ok {
		return nil, fmt.Errorf("response has no field %q (body: %s)", field, tc.lastBody)
	}
	return value, nil
}

// ActAs switches the actor whose token subsequent requests carry.
func (tc *TestContext) ActAs(actor string) { tc.actor = actor }

// SetToken stores a bearer token for an actor.
func (tc *TestContext) SetToken(actor, token string) { tc.tokens[actor] = token }

// Save stores a scenario-scoped value, typically an ID plucked from a response.
func (tc *TestContext) Save(key, value string) { tc.saved[key] = value }

// Saved returns a previously stored value.
func (tc *TestContext) Saved(key string) (string, error) {
	value, ok := tc.saved[key]
	if !ok {
		return "", fmt.Errorf("nothing saved under %q", key)
	}
	return value, nil
}
