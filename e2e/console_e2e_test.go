//go:build e2e

// Package e2e drives a running console over HTTP. The server must run with
// SESSION_COOKIE_SECURE=false so the cookie jar sends the session over plain HTTP.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

const defaultHTTPBase = "http://localhost:8080"

type httpClient struct {
	baseURL string
	bearer  string
	client  *http.Client
}

func newHTTPClient(t *testing.T) *httpClient {
	t.Helper()

	base := os.Getenv("CONSOLE_HTTP_URL")
	if base == "" {
		base = defaultHTTPBase
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar failed: %v", err)
	}
	return &httpClient{
		baseURL: base,
		client: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}
}

func (c *httpClient) post(t *testing.T, path string, body any, out any) int {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("json marshal failed: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}
	if out != nil && resp.StatusCode < http.StatusBadRequest {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("decode %s failed: %v (%s)", path, err, raw)
		}
	}
	return resp.StatusCode
}

func (c *httpClient) mustPost(t *testing.T, path string, body any, out any) {
	t.Helper()
	if status := c.post(t, path, body, out); status != http.StatusOK && status != http.StatusCreated {
		t.Fatalf("%s: unexpected status %d", path, status)
	}
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/auth/me")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusUnauthorized {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

func TestConsoleE2E_DashboardAndRootKeyFlow(t *testing.T) {
	user := newHTTPClient(t)
	if err := waitForHTTP(user.baseURL, 30*time.Second); err != nil {
		t.Fatalf("http not ready: %v", err)
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	email := "e2e-" + suffix + "@example.com"
	password := "Passw0rd!" + suffix

	user.mustPost(t, "/auth/sign-up", map[string]string{"email": email, "password": password, "firstName": "E2E"}, nil)

	var ws struct {
		ID string `json:"id"`
	}
	user.mustPost(t, "/rpc/workspace.create", map[string]string{"name": "E2E " + suffix, "slug": "e2e-" + suffix}, &ws)
	if ws.ID == "" {
		t.Fatalf("expected workspace id")
	}

	var api struct {
		ID string `json:"id"`
	}
	user.mustPost(t, "/rpc/api.create", map[string]string{"name": "payments"}, &api)

	var apiView struct {
		KeyAuthID string `json:"keyAuthId"`
	}
	user.mustPost(t, "/rpc/api.get", map[string]string{"apiId": api.ID}, &apiView)

	var key struct {
		KeyID string `json:"keyId"`
		Key   string `json:"key"`
	}
	user.mustPost(t, "/rpc/key.create", map[string]any{"keyAuthId": apiView.KeyAuthID, "prefix": "pay", "name": "checkout"}, &key)
	if !strings.HasPrefix(key.Key, "pay_") {
		t.Fatalf("unexpected key: %q", key.Key)
	}

	if status := user.post(t, "/rpc/api.updateDeleteProtection", map[string]any{"apiId": api.ID, "enabled": true}, nil); status != http.StatusOK {
		t.Fatalf("enable delete protection: %d", status)
	}
	if status := user.post(t, "/rpc/api.delete", map[string]string{"apiId": api.ID}, nil); status != http.StatusPreconditionFailed {
		t.Fatalf("expected 412 for protected api, got %d", status)
	}

	var rootKey struct {
		Key string `json:"key"`
	}
	user.mustPost(t, "/rpc/rootKey.create", map[string]any{"name": "ci", "permissions": []string{"api.*.read_api"}}, &rootKey)

	machine := newHTTPClient(t)
	machine.bearer = rootKey.Key

	var apis []struct {
		ID string `json:"id"`
	}
	machine.mustPost(t, "/rpc/api.list", map[string]any{}, &apis)
	if len(apis) != 1 || apis[0].ID != api.ID {
		t.Fatalf("unexpected apis for root key: %+v", apis)
	}
	if status := machine.post(t, "/rpc/api.create", map[string]string{"name": "forbidden"}, nil); status != http.StatusForbidden {
		t.Fatalf("expected 403 without create permission, got %d", status)
	}

	var page struct {
		Logs []struct {
			Event string `json:"event"`
		} `json:"logs"`
	}
	user.mustPost(t, "/rpc/audit.list", map[string]any{"events": []string{"key.create"}}, &page)
	if len(page.Logs) != 1 {
		t.Fatalf("expected one key.create audit entry, got %d", len(page.Logs))
	}

	user.mustPost(t, "/auth/sign-out", map[string]any{}, nil)
	if status := user.post(t, "/rpc/api.list", map[string]any{}, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 after sign out, got %d", status)
	}
}
