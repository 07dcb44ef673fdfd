//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// The webhook contract is that Telegram always gets a 200 with a JSON
// success flag, whatever happens inside.

func TestWebhook_MalformedBody(t *testing.T) {
	resp := doRawPost(t, "/telegram/webhook", "{not json")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeJSON[webhookResponse](t, resp)
	if body.Success {
		t.Error("expected success false for malformed body")
	}
}

func TestWebhook_EmptyUpdate(t *testing.T) {
	resp := doRawPost(t, "/telegram/webhook", `{"update_id":1}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeJSON[webhookResponse](t, resp)
	if !body.Success {
		t.Error("expected success true for an update with no known payload")
	}
}
