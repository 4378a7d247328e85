package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const testSecret = "s3cret_token-1"

const privateUpdate = `{"update_id":5,"message":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"from":{"id":42,"is_bot":false,"first_name":"A"},"text":"привіт"}}`

func post(h http.Handler, body, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(body))
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhookRoute(t *testing.T) {
	var got tgbotapi.Update
	h := Routes(nil, func(_ context.Context, u tgbotapi.Update) { got = u }, testSecret)

	if rec := post(h, privateUpdate, testSecret); rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	if got.UpdateID != 5 || got.Message == nil || got.Message.Text != "привіт" {
		t.Fatalf("апдейт не передан: %+v", got)
	}

	if rec := post(h, "{", testSecret); rec.Code != http.StatusBadRequest {
		t.Fatalf("ожидали 400 для битого JSON, получили %d", rec.Code)
	}
}

func TestWebhookRejectsForeignUpdates(t *testing.T) {
	calls := 0
	h := Routes(nil, func(context.Context, tgbotapi.Update) { calls++ }, testSecret)

	tests := []struct {
		name   string
		secret string
	}{
		{"no_header", ""},
		{"wrong_secret", "guess"},
		{"prefix", testSecret[:5]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := post(h, privateUpdate, tt.secret); rec.Code != http.StatusUnauthorized {
				t.Fatalf("ожидали 401, получили %d", rec.Code)
			}
		})
	}
	if calls != 0 {
		t.Fatalf("чужие апдейты дошли до диспетчера: %d", calls)
	}
}

func TestWebhookWithoutSecretIsClosed(t *testing.T) {
	calls := 0
	h := Routes(nil, func(context.Context, tgbotapi.Update) { calls++ }, "")
	if rec := post(h, privateUpdate, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("ожидали 401, получили %d", rec.Code)
	}
	if calls != 0 {
		t.Fatal("апдейт принят без секрета")
	}
}

func TestWebhookDisabled(t *testing.T) {
	h := Routes(nil, nil, "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader("{}")))
	if rec.Code == http.StatusOK {
		t.Fatal("без webhook маршрут не должен существовать")
	}
}
