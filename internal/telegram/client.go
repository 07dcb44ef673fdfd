// Package telegram is a minimal Telegram Bot API client covering the calls
// this service makes: answering inline queries, answering callback queries,
// and sending messages.
package telegram

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// BotAPI is the outbound surface of the chat transport. internal/bot and
// the notifier depend on this interface so tests can record calls.
type BotAPI interface {
	AnswerInlineQuery(ctx context.Context, queryID string, results []ArticleResult, cacheTime int) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboard) error
}

// Client calls the Telegram Bot API over HTTPS.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

var _ BotAPI = (*Client)(nil)

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint, e.g. for tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// NewClient creates a Client for the given bot token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:   token,
		baseURL: "https://api.telegram.org",
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AnswerInlineQuery sends search results back to an inline query.
func (c *Client) AnswerInlineQuery(ctx context.Context, queryID string, results []ArticleResult, cacheTime int) error {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("inline_query_id")
	e.Str(queryID)
	e.FieldStart("cache_time")
	e.Int(cacheTime)
	e.FieldStart("results")
	e.ArrStart()
	for _, r := range results {
		encodeArticle(&e, r)
	}
	e.ArrEnd()
	e.ObjEnd()

	return c.call(ctx, "answerInlineQuery", e.Bytes())
}

// AnswerCallbackQuery acknowledges a button tap with a short toast text.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("callback_query_id")
	e.Str(callbackID)
	if text != "" {
		e.FieldStart("text")
		e.Str(text)
	}
	e.ObjEnd()

	return c.call(ctx, "answerCallbackQuery", e.Bytes())
}

// SendMessage sends a plain-text message, optionally with an inline
// keyboard.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboard) error {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("chat_id")
	e.Int64(chatID)
	e.FieldStart("text")
	e.Str(text)
	if keyboard != nil {
		e.FieldStart("reply_markup")
		encodeKeyboard(&e, keyboard)
	}
	e.ObjEnd()

	return c.call(ctx, "sendMessage", e.Bytes())
}

// call posts the encoded body to the named Bot API method. Non-2xx
// responses become errors carrying the method name; bodies are drained so
// connections can be reused.
func (c *Client) call(ctx context.Context, method string, body []byte) error {
	url := c.baseURL + "/bot" + c.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "build %s request", method)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "call %s", method)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("%s: status %d: %s", method, resp.StatusCode, snippet)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

func encodeArticle(e *jx.Encoder, r ArticleResult) {
	e.ObjStart()
	e.FieldStart("type")
	e.Str("article")
	e.FieldStart("id")
	e.Str(r.ID)
	e.FieldStart("title")
	e.Str(r.Title)
	if r.Description != "" {
		e.FieldStart("description")
		e.Str(r.Description)
	}
	e.FieldStart("input_message_content")
	e.ObjStart()
	e.FieldStart("message_text")
	e.Str(r.MessageText)
	e.ObjEnd()
	if r.Keyboard != nil {
		e.FieldStart("reply_markup")
		encodeKeyboard(e, r.Keyboard)
	}
	e.ObjEnd()
}

func encodeKeyboard(e *jx.Encoder, kb *InlineKeyboard) {
	e.ObjStart()
	e.FieldStart("inline_keyboard")
	e.ArrStart()
	for _, row := range kb.Rows {
		e.ArrStart()
		for _, btn := range row {
			e.ObjStart()
			e.FieldStart("text")
			e.Str(btn.Text)
			switch {
			case btn.CallbackData != "":
				e.FieldStart("callback_data")
				e.Str(btn.CallbackData)
			case btn.WebAppURL != "":
				e.FieldStart("web_app")
				e.ObjStart()
				e.FieldStart("url")
				e.Str(btn.WebAppURL)
				e.ObjEnd()
			}
			e.ObjEnd()
		}
		e.ArrEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}
