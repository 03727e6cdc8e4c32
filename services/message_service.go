package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"reddit_intent/config"
	"reddit_intent/logger"
)

// CooldownGate 记录每个用户最近一次被联系的时间，冷却期内拒绝再次联系。
// Reserve 的检查与占位在同一把锁内完成，并发发送不会重复联系同一用户。
type CooldownGate struct {
	cooldown time.Duration
	now      func() time.Time
	last     map[string]time.Time
	mu       sync.Mutex
}

// NewCooldownGate 创建冷却控制
func NewCooldownGate(cooldown time.Duration) *CooldownGate {
	return &CooldownGate{cooldown: cooldown, now: time.Now, last: make(map[string]time.Time)}
}

// Reserve 用户不在冷却期时占位并返回 true，同时返回占位前的记录供 Cancel 恢复
func (g *CooldownGate) Reserve(user string) (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	previous, ok := g.last[user]
	if ok && now.Sub(previous) < g.cooldown {
		return previous, false
	}
	g.last[user] = now
	return previous, true
}

// Cancel 发送失败时撤销占位，恢复之前的记录
func (g *CooldownGate) Cancel(user string, previous time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if previous.IsZero() {
		delete(g.last, user)
		return
	}
	g.last[user] = previous
}

// LastContact 返回用户最近一次被联系的时间
func (g *CooldownGate) LastContact(user string) (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.last[user]
	return t, ok
}

// MessageTransport 实际投递消息的通道
type MessageTransport interface {
	Deliver(ctx context.Context, recipient, subject, message string) error
}

// RedditTransport 通过 Reddit 站内信投递
type RedditTransport struct {
	Source *RedditSource
}

func (t *RedditTransport) Deliver(ctx context.Context, recipient, subject, message string) error {
	return t.Source.Compose(ctx, recipient, subject, message)
}

// TelegramTransport 把生成的私信转发到运营人员的 Telegram 会话，由人工审核后发送
type TelegramTransport struct {
	ChatID int64
	send   func(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewTelegramTransport 创建 Telegram 通道
func NewTelegramTransport(token string, chatID int64) (*TelegramTransport, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("初始化 Telegram Bot 失败: %w", err)
	}
	logger.Info("Telegram bot authorized", "account", bot.Self.UserName)
	return &TelegramTransport{ChatID: chatID, send: bot.Send}, nil
}

func (t *TelegramTransport) Deliver(ctx context.Context, recipient, subject, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := fmt.Sprintf("To: u/%s\nSubject: %s\n\n%s", recipient, subject, message)
	if _, err := t.send(tgbotapi.NewMessage(t.ChatID, text)); err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}

// DirectMessenger 在冷却控制下发送私信
type DirectMessenger struct {
	transport MessageTransport
	gate      *CooldownGate
}

// NewDirectMessenger 创建私信发送器
func NewDirectMessenger(transport MessageTransport, gate *CooldownGate) *DirectMessenger {
	return &DirectMessenger{transport: transport, gate: gate}
}

// NewDirectMessengerFromConfig 按配置选择投递通道
func NewDirectMessengerFromConfig(cfg *config.Config, reddit *RedditSource) (*DirectMessenger, error) {
	gate := NewCooldownGate(time.Duration(cfg.Messaging.CooldownHours) * time.Hour)
	switch cfg.Messaging.Transport {
	case "", "reddit":
		return NewDirectMessenger(&RedditTransport{Source: reddit}, gate), nil
	case "telegram":
		t, err := NewTelegramTransport(cfg.Messaging.TelegramToken, cfg.Messaging.TelegramChat)
		if err != nil {
			return nil, err
		}
		return NewDirectMessenger(t, gate), nil
	case "webhook":
		if cfg.Messaging.WebhookURL == "" {
			return nil, fmt.Errorf("messaging.webhook_url is required for webhook transport")
		}
		return NewDirectMessenger(NewWebhookTransport(cfg.Messaging.WebhookURL, cfg.Messaging.WebhookAPIKey), gate), nil
	default:
		return nil, fmt.Errorf("unsupported messaging transport: %s", cfg.Messaging.Transport)
	}
}

// Send 返回 false, nil 表示用户仍在冷却期内被跳过
func (m *DirectMessenger) Send(ctx context.Context, recipient, subject, message string) (bool, error) {
	previous, ok := m.gate.Reserve(recipient)
	if !ok {
		logger.Info("User was recently messaged, skipping", "user", recipient)
		return false, nil
	}

	if err := m.transport.Deliver(ctx, recipient, subject, message); err != nil {
		m.gate.Cancel(recipient, previous)
		logger.Error("Error sending message", "user", recipient, "error", err)
		return false, err
	}
	logger.Info("Sent message", "user", recipient)
	return true, nil
}
