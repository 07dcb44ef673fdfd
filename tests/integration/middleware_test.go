//go:build integration

package integration

import (
	"context"
	"net/http"
	"strconv"
	"testing"
)

func withHeaders(t *testing.T, method, path string, headers map[string]string) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, baseURL+path, nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func TestRequestID(t *testing.T) {
	t.Run("generated when absent", func(t *testing.T) {
		resp := doGet(t, "/livez")
		defer resp.Body.Close()

		if resp.Header.Get("X-Request-ID") == "" {
			t.Fatal("no X-Request-ID on response")
		}
	})

	t.Run("client id echoed back", func(t *testing.T) {
		const id = "order-flow-trace-0042"
		resp := withHeaders(t, http.MethodGet, "/livez", map[string]string{"X-Request-ID": id})
		defer resp.Body.Close()

		if got := resp.Header.Get("X-Request-ID"); got != id {
			t.Fatalf("X-Request-ID = %q, want %q", got, id)
		}
	})
}

func TestCORS(t *testing.T) {
	origin := "https://pos.kalipos.example"

	t.Run("preflight", func(t *testing.T) {
		resp := withHeaders(t, http.MethodOptions, "/api/items", map[string]string{
			"Origin":                        origin,
			"Access-Control-Request-Method": http.MethodPatch,
		})
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("preflight status = %d, want 204", resp.StatusCode)
		}
		if resp.Header.Get("Access-Control-Allow-Origin") == "" {
			t.Error("no Access-Control-Allow-Origin")
		}
		if resp.Header.Get("Access-Control-Allow-Methods") == "" {
			t.Error("no Access-Control-Allow-Methods")
		}
		if len(resp.Header.Values("Vary")) == 0 {
			t.Error("preflight response carries no Vary header")
		}
	})

	t.Run("simple request", func(t *testing.T) {
		resp := withHeaders(t, http.MethodGet, "/api/items", map[string]string{"Origin": origin})
		defer resp.Body.Close()

		if resp.Header.Get("Access-Control-Allow-Origin") == "" {
			t.Error("no Access-Control-Allow-Origin on simple request")
		}
	})
}

func TestRateLimitHeaders(t *testing.T) {
	resp := doGet(t, "/api/items")
	resp.Body.Close()

	limit, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))
	if err != nil {
		t.Fatalf("X-RateLimit-Limit not an integer: %v", err)
	}
	remaining, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining"))
	if err != nil {
		t.Fatalf("X-RateLimit-Remaining not an integer: %v", err)
	}
	if remaining >= limit {
		t.Fatalf("remaining %d not below limit %d after a counted request", remaining, limit)
	}
}
