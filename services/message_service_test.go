package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"reddit_intent/config"
)

type fakeTransport struct {
	mu         sync.Mutex
	recipients []string
	err        error
}

func (f *fakeTransport) Deliver(ctx context.Context, recipient, subject, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recipients = append(f.recipients, recipient)
	return f.err
}

func newTestGate(cooldown time.Duration, clock *time.Time) *CooldownGate {
	g := NewCooldownGate(cooldown)
	g.now = func() time.Time { return *clock }
	return g
}

func TestDirectMessengerCooldown(t *testing.T) {
	t.Parallel()

	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	transport := &fakeTransport{}
	m := NewDirectMessenger(transport, newTestGate(24*time.Hour, &clock))

	sent, err := m.Send(context.Background(), "alice", "s", "m")
	if err != nil || !sent {
		t.Fatalf("first send = %v, %v", sent, err)
	}

	clock = clock.Add(23 * time.Hour)
	sent, err = m.Send(context.Background(), "alice", "s", "m")
	if err != nil || sent {
		t.Fatalf("send within cooldown = %v, %v", sent, err)
	}

	sent, _ = m.Send(context.Background(), "bob", "s", "m")
	if !sent {
		t.Error("other users are not affected by alice's cooldown")
	}

	clock = clock.Add(time.Hour)
	sent, _ = m.Send(context.Background(), "alice", "s", "m")
	if !sent {
		t.Error("send after cooldown should succeed")
	}

	if strings.Join(transport.recipients, ",") != "alice,bob,alice" {
		t.Errorf("delivered to %v", transport.recipients)
	}
}

func TestDirectMessengerFailureDoesNotStartCooldown(t *testing.T) {
	t.Parallel()

	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	transport := &fakeTransport{err: errors.New("403 forbidden")}
	gate := newTestGate(time.Hour, &clock)
	m := NewDirectMessenger(transport, gate)

	sent, err := m.Send(context.Background(), "alice", "s", "m")
	if err == nil || sent {
		t.Fatalf("send = %v, %v", sent, err)
	}
	if _, ok := gate.LastContact("alice"); ok {
		t.Error("failed delivery should not record a contact")
	}

	transport.err = nil
	if sent, err := m.Send(context.Background(), "alice", "s", "m"); !sent || err != nil {
		t.Errorf("retry = %v, %v", sent, err)
	}
}

func TestCooldownGateCancelRestoresPrevious(t *testing.T) {
	t.Parallel()

	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	gate := newTestGate(time.Hour, &clock)

	first, ok := gate.Reserve("alice")
	if !ok || !first.IsZero() {
		t.Fatalf("Reserve = %v, %v", first, ok)
	}
	contacted := clock

	clock = clock.Add(2 * time.Hour)
	previous, ok := gate.Reserve("alice")
	if !ok || !previous.Equal(contacted) {
		t.Fatalf("Reserve = %v, %v", previous, ok)
	}
	gate.Cancel("alice", previous)

	last, _ := gate.LastContact("alice")
	if !last.Equal(contacted) {
		t.Errorf("LastContact = %v, want %v", last, contacted)
	}
}

func TestCooldownGateConcurrentReserve(t *testing.T) {
	t.Parallel()

	gate := NewCooldownGate(time.Hour)
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := gate.Reserve("alice"); ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if granted != 1 {
		t.Errorf("granted = %d, want 1", granted)
	}
}

func TestTelegramTransportDeliver(t *testing.T) {
	t.Parallel()

	var sent []tgbotapi.Chattable
	tr := &TelegramTransport{ChatID: 42, send: func(c tgbotapi.Chattable) (tgbotapi.Message, error) {
		sent = append(sent, c)
		return tgbotapi.Message{}, nil
	}}

	if err := tr.Deliver(context.Background(), "alice", "Hello", "Body"); err != nil {
		t.Fatal(err)
	}
	msg, ok := sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T", sent[0])
	}
	if msg.ChatID != 42 || msg.Text != "To: u/alice\nSubject: Hello\n\nBody" {
		t.Errorf("message = %+v", msg)
	}
}

func TestNewDirectMessengerFromConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Messaging.CooldownHours = 24

	cfg.Messaging.Transport = "reddit"
	if _, err := NewDirectMessengerFromConfig(cfg, &RedditSource{}); err != nil {
		t.Errorf("reddit transport: %v", err)
	}

	cfg.Messaging.Transport = "webhook"
	if _, err := NewDirectMessengerFromConfig(cfg, nil); err == nil {
		t.Error("webhook without url should fail")
	}
	cfg.Messaging.WebhookURL = "http://localhost/push"
	if _, err := NewDirectMessengerFromConfig(cfg, nil); err != nil {
		t.Errorf("webhook transport: %v", err)
	}

	cfg.Messaging.Transport = "carrier-pigeon"
	if _, err := NewDirectMessengerFromConfig(cfg, nil); err == nil {
		t.Error("unknown transport should fail")
	}
}
