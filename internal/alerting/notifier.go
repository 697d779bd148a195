package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"treasury-monitor/internal/httpclient"
)

// Notification 封装一次告警的上下文。
type Notification struct {
	GeneratedAt   time.Time
	RunID         string
	Items         []PriorityItem
	Overview      OverviewTotals
	AdditionalMsg string
}

// Notifier 定义告警输送接口。
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier 通过 Telegram Bot API 推送消息。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 告警器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   httpclient.New(httpclient.Options{Provider: "telegram", Timeout: timeout}),
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify 调用 sendMessage API 推送文本。
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}

	n.logger.Info().Str("run_id", note.RunID).
		Int("items", len(note.Items)).
		Msg("告警已发送 (Telegram)")
	return nil
}

// LogNotifier 仅写日志, 用于未配置 Telegram 的场景。
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier 构造日志告警器。
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "alert_log").Logger()}
}

// Notify 把每条优先项写成一条 warn 日志。
func (n *LogNotifier) Notify(_ context.Context, note Notification) error {
	for _, it := range note.Items {
		n.logger.Warn().
			Str("run_id", note.RunID).
			Str("priority", string(it.Priority)).
			Str("type", string(it.Category)).
			Str("item", it.Item).
			Str("team", it.Team).
			Str("amount_usd", it.AmountUSD.StringFixed(0)).
			Msg("rebalance needed")
	}
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString("[Treasury Rebalance Alert]\n")
	builder.WriteString(fmt.Sprintf("Time: %s UTC\n", note.GeneratedAt.UTC().Format(time.RFC3339)))
	builder.WriteString(fmt.Sprintf("Outstanding: $%s (supply $%s / borrow $%s / lending $%s)\n",
		note.Overview.Total.StringFixed(0),
		note.Overview.VaultSupply.StringFixed(0),
		note.Overview.VaultBorrow.StringFixed(0),
		note.Overview.Lending.StringFixed(0)))
	if len(note.Items) == 0 {
		builder.WriteString("No urgent rebalancing needed\n")
	}
	for _, it := range note.Items {
		builder.WriteString(fmt.Sprintf("%s | %s %s: $%s, %s %s, team %s\n",
			it.Priority, it.Category, it.Item,
			it.AmountUSD.StringFixed(0),
			it.TokenAmount.StringFixed(2), it.Token,
			it.Team))
	}
	if note.RunID != "" {
		builder.WriteString(fmt.Sprintf("Run: %s\n", note.RunID))
	}
	if note.AdditionalMsg != "" {
		builder.WriteString(note.AdditionalMsg)
	}
	return builder.String()
}

var (
	_ Notifier = (*TelegramNotifier)(nil)
	_ Notifier = (*LogNotifier)(nil)
)
