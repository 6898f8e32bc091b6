package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext holds state between steps of one scenario.
type TestContext struct {
	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte

	// tokens maps an actor alias to its bearer token.
	tokens map[string]string
	emails map[string]string
	saved  map[string]string
}

func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		tokens:     map[string]string{},
		emails:     map[string]string{},
		saved:      map[string]string{},
	}
}

// Do sends body as JSON (when non-nil) with the actor's token (when known)
// and records the response.
func (tc *TestContext) Do(method, path string, body any, actor string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := tc.tokens[actor]; ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	return nil
}

// Field reads a dotted path ("certificate.id", "shares.0.title") from the
// last JSON response.
func (tc *TestContext) Field(path string) (any, error) {
	var data any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	cur := data
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %s not found in response", path)
			}
			cur = v
		case []any:
			var idx int
			if _, err := fmt.Sscanf(part, "%d", &idx); err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("index %s out of range in %s", part, path)
			}
			cur = node[idx]
		default:
			return nil, fmt.Errorf("field %s not found in response", path)
		}
	}
	return cur, nil
}

func (tc *TestContext) StringField(path string) (string, error) {
	v, err := tc.Field(path)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %s is %T, not a string", path, v)
	}
	return s, nil
}

func (tc *TestContext) Status() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}
