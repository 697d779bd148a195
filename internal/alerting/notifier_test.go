package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func sampleNote() Notification {
	return Notification{
		GeneratedAt: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		RunID:       "run-1",
		Items: []PriorityItem{{
			Category: CategoryVaultBorrow, Item: "JitoSOL/USDG", AmountUSD: decimal.NewFromInt(150_000),
			TokenAmount: decimal.NewFromInt(150_000), Token: "USDG", Team: "Jito + USDG", Priority: PriorityHigh,
		}},
		Overview: OverviewTotals{Total: decimal.NewFromInt(1)},
	}
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("路径应包含 sendMessage, 实际 %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("解析请求体失败: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), sampleNote()); err != nil {
		t.Fatalf("Telegram Notify 应成功: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("chat_id 不正确: %#v", received)
	}
	if !strings.Contains(received["text"], "JitoSOL/USDG") {
		t.Fatalf("text 应包含优先项: %q", received["text"])
	}
}

func TestTelegramNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), sampleNote()); err == nil {
		t.Fatal("ok=false 应报错")
	}
}

func TestTelegramNotifierHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), sampleNote()); err == nil {
		t.Fatal("HTTP 502 应报错")
	}
}

func TestRenderMessageEmpty(t *testing.T) {
	msg := renderMessage(Notification{GeneratedAt: time.Now()})
	if !strings.Contains(msg, "No urgent rebalancing needed") {
		t.Fatalf("空列表应提示无需调仓: %q", msg)
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
