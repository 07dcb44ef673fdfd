//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestHealthProbes(t *testing.T) {
	// The compose harness already waited for /readyz, so both probes must
	// report healthy with no failing checks attached.
	for _, endpoint := range []string{"/livez", "/readyz"} {
		resp := doGet(t, endpoint)

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", endpoint, resp.StatusCode)
		}

		body := decodeJSON[healthResponse](t, resp)
		resp.Body.Close()

		if body.Status != "ok" {
			t.Fatalf("%s: expected status ok, got %q", endpoint, body.Status)
		}
		if len(body.Checks) != 0 {
			t.Fatalf("%s: expected no failing checks, got %v", endpoint, body.Checks)
		}
	}
}
