// Package notify provides alert delivery for the stock tracking application.
// Delivery success or failure never feeds back into the monitoring core's
// state; a failed channel is logged by the caller and forgotten.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"stock-sentry/internal/config"
	"stock-sentry/internal/models"
)

// Notifier defines the interface for delivering alert events.
type Notifier interface {
	SendAlert(ctx context.Context, event models.AlertEvent) error
	SendError(ctx context.Context, err error, errContext string) error
}

// Channel defines one delivery transport.
type Channel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
	IsEnabled() bool
}

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationAlert NotificationType = "alert"
	NotificationError NotificationType = "error"
)

// Notification represents a rendered notification message.
type Notification struct {
	Type      NotificationType
	Title     string
	Message   string
	Data      map[string]interface{}
	Timestamp time.Time
}

// MultiNotifier fans a notification out to every enabled channel.
type MultiNotifier struct {
	mu       sync.RWMutex
	channels []Channel
}

// NewMultiNotifier creates a MultiNotifier with the channels enabled in the
// configuration.
func NewMultiNotifier(cfg config.NotificationConfig) *MultiNotifier {
	mn := &MultiNotifier{}
	if cfg.Terminal {
		mn.channels = append(mn.channels, NewTerminalNotifier())
	}
	if cfg.Webhook.Enabled {
		mn.channels = append(mn.channels, NewWebhookNotifier(cfg.Webhook))
	}
	if cfg.Telegram.Enabled {
		mn.channels = append(mn.channels, NewTelegramNotifier(cfg.Telegram))
	}
	return mn
}

// AddChannel adds a delivery channel.
func (mn *MultiNotifier) AddChannel(ch Channel) {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	mn.channels = append(mn.channels, ch)
}

// SendAlert renders and delivers a price alert to all enabled channels. It
// returns the first channel error encountered, after trying every channel.
func (mn *MultiNotifier) SendAlert(ctx context.Context, event models.AlertEvent) error {
	arrow := "📈"
	if event.Direction == models.DirectionDown {
		arrow = "📉"
	}

	n := Notification{
		Type:  NotificationAlert,
		Title: fmt.Sprintf("%s Price Alert: %s", arrow, event.Symbol),
		Message: fmt.Sprintf("%s moved %+.2f%% ($%.2f → $%.2f)",
			event.Symbol, event.PercentChange, event.OldPrice, event.NewPrice),
		Data: map[string]interface{}{
			"symbol":         event.Symbol,
			"old_price":      event.OldPrice,
			"new_price":      event.NewPrice,
			"percent_change": event.PercentChange,
			"direction":      string(event.Direction),
			"target":         event.Target,
		},
		Timestamp: event.At,
	}
	return mn.send(ctx, n)
}

// SendError delivers an error notification.
func (mn *MultiNotifier) SendError(ctx context.Context, err error, errContext string) error {
	n := Notification{
		Type:      NotificationError,
		Title:     "⚠️ Error",
		Message:   fmt.Sprintf("%s: %v", errContext, err),
		Timestamp: time.Now(),
	}
	return mn.send(ctx, n)
}

func (mn *MultiNotifier) send(ctx context.Context, n Notification) error {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	mn.mu.RLock()
	channels := mn.channels
	mn.mu.RUnlock()

	var firstErr error
	for _, ch := range channels {
		if !ch.IsEnabled() {
			continue
		}
		if err := ch.Send(ctx, n); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("channel %s: %w", ch.Name(), err)
		}
	}
	return firstErr
}

// WebhookNotifier posts notifications as JSON to a configured URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a webhook delivery channel.
func NewWebhookNotifier(cfg config.WebhookConfig) *WebhookNotifier {
	return &WebhookNotifier{
		url:    cfg.URL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name implements Channel.
func (w *WebhookNotifier) Name() string { return "webhook" }

// IsEnabled implements Channel.
func (w *WebhookNotifier) IsEnabled() bool { return w.url != "" }

// Send implements Channel.
func (w *WebhookNotifier) Send(ctx context.Context, n Notification) error {
	payload := map[string]interface{}{
		"type":      string(n.Type),
		"title":     n.Title,
		"message":   n.Message,
		"data":      n.Data,
		"timestamp": n.Timestamp.Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// TelegramNotifier delivers notifications through the Telegram bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

// NewTelegramNotifier creates a Telegram delivery channel.
func NewTelegramNotifier(cfg config.TelegramConfig) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		apiBase:  "https://api.telegram.org",
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Name implements Channel.
func (t *TelegramNotifier) Name() string { return "telegram" }

// IsEnabled implements Channel.
func (t *TelegramNotifier) IsEnabled() bool { return t.botToken != "" && t.chatID != "" }

// Send implements Channel.
func (t *TelegramNotifier) Send(ctx context.Context, n Notification) error {
	text := fmt.Sprintf("<b>%s</b>\n%s", escapeHTML(n.Title), escapeHTML(n.Message))

	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "HTML")

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// NoOpNotifier discards all notifications. Useful in tests and when no
// channel is configured.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a notifier that does nothing.
func NewNoOpNotifier() *NoOpNotifier { return &NoOpNotifier{} }

// SendAlert implements Notifier.
func (n *NoOpNotifier) SendAlert(ctx context.Context, event models.AlertEvent) error { return nil }

// SendError implements Notifier.
func (n *NoOpNotifier) SendError(ctx context.Context, err error, errContext string) error { return nil }
