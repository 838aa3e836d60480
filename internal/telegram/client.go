// Package telegram provides a client for sending alert notifications via
// the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/finwatch/sentinel/internal/models"
	"github.com/finwatch/sentinel/internal/registry"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
	registry       *registry.Registry
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// AttachRegistry enables the /status command to list tracked entities.
func (c *Client) AttachRegistry(reg *registry.Registry) {
	c.registry = reg
}

// ListenForCommands starts a goroutine that polls for Telegram updates and
// handles bot commands. It returns immediately; the goroutine stops when ctx
// is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "ping":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Pong")
		c.bot.Send(reply) //nolint:errcheck
	case "status":
		reply := tgbotapi.NewMessage(msg.Chat.ID, c.statusText())
		c.bot.Send(reply) //nolint:errcheck
	}
}

func (c *Client) statusText() string {
	if c.registry == nil {
		return "Status unavailable"
	}
	entities, err := c.registry.Snapshot()
	if err != nil {
		return "Status unavailable"
	}
	if len(entities) == 0 {
		return "No entities tracked."
	}
	lines := make([]string, 0, len(entities)+1)
	lines = append(lines, fmt.Sprintf("Tracking %d entities:", len(entities)))
	for _, e := range entities {
		lines = append(lines, fmt.Sprintf("%s (%s) sentiment>%.2f volume z>%.2f",
			e.ID, e.Keyword, e.SentimentThreshold, e.AnomalyThreshold))
	}
	return strings.Join(lines, "\n")
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// NotifyAlert sends a single alert as it fires.
func (c *Client) NotifyAlert(entity models.TrackedEntity, alert models.AlertEvent) error {
	emoji := "📊"
	if alert.Type == models.AlertVolumeAnomaly {
		emoji = "📈"
	}
	text := fmt.Sprintf("%s *%s*\n%s\nSignal: %s",
		emoji,
		escapeMarkdownV2(entity.ID),
		escapeMarkdownV2(alert.Message),
		escapeMarkdownV2(fmt.Sprintf("%.2f", alert.Signal)))
	return c.sendMarkdownV2(text)
}

// SendReport sends a digest of a completed cycle that produced alerts.
// Quiet cycles are not reported.
func (c *Client) SendReport(report *models.CycleReport) error {
	if report.AlertCount() == 0 {
		return nil
	}
	return c.sendMarkdownV2(c.formatReport(report))
}

// SendError sends a monitoring error notification.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(cycleErr error) error {
	text := fmt.Sprintf("⚠️ *Monitoring error*\n`%s`", escapeMarkdownV2(cycleErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendRecovery sends a recovery notification after consecutive failures.
func (c *Client) SendRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ *Monitoring recovered* after %d consecutive failure\\(s\\)", failureCount)
	return c.sendMarkdownV2(text)
}

// formatReport formats a cycle report into a Telegram MarkdownV2 message.
func (c *Client) formatReport(report *models.CycleReport) string {
	message := "🚨 *Market Alerts*\n\n"
	message += fmt.Sprintf("📅 Cycle: %s\n\n",
		escapeMarkdownV2(report.StartedAt.Format("2006-01-02 15:04:05")))

	n := 0
	for _, res := range report.Entities {
		if len(res.Alerts) == 0 {
			continue
		}
		n++
		message += fmt.Sprintf("%d\\. *%s*", n, escapeMarkdownV2(res.EntityID))
		if res.PriceOK {
			message += fmt.Sprintf(" \\(%s\\)", escapeMarkdownV2(fmt.Sprintf("%.2f", res.Price)))
		}
		message += "\n"
		for _, alert := range res.Alerts {
			message += fmt.Sprintf("   • %s\n", escapeMarkdownV2(alert.Message))
		}
		message += fmt.Sprintf("   _%s_\n\n", escapeMarkdownV2(res.Summary))
	}

	return message
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
