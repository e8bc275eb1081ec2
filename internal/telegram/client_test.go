package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(testToken, WithBaseURL(srv.URL))
}

func TestSendMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/bot"+testToken+"/sendMessage") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var p SendMessageParams
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if p.ChatID != 42 || p.Text != "hello" {
			t.Errorf("unexpected payload: %+v", p)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 7, "chat": map[string]any{"id": 42, "type": "private"}},
		})
	})

	m, err := client.SendMessage(context.Background(), SendMessageParams{ChatID: 42, Text: "hello"})
	if err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}
	if m.MessageID != 7 {
		t.Errorf("expected message_id 7, got %d", m.MessageID)
	}
}

func TestAPIErrorSurfacesDescription(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"ok":          false,
			"error_code":  403,
			"description": "Forbidden: bot was blocked by the user",
		})
	})

	_, err := client.SendMessage(context.Background(), SendMessageParams{ChatID: 42, Text: "hi"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != 403 || !strings.Contains(apiErr.Description, "blocked") {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestGetWebhookInfo(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"url": "https://bot.example/webhook", "pending_update_count": 3},
		})
	})

	info, err := client.GetWebhookInfo(context.Background())
	if err != nil {
		t.Fatalf("GetWebhookInfo() error: %v", err)
	}
	if info.URL != "https://bot.example/webhook" || info.PendingUpdateCount != 3 {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestDownloadFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/file/bot"+testToken+"/photos/file_1.jpg") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte("jpeg-bytes"))
	})

	content, err := client.DownloadFile(context.Background(), "photos/file_1.jpg")
	if err != nil {
		t.Fatalf("DownloadFile() error: %v", err)
	}
	if string(content) != "jpeg-bytes" {
		t.Errorf("unexpected content: %q", content)
	}
}
