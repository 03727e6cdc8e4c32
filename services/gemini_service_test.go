package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestGeminiFallsBackOnRateLimit(t *testing.T) {
	t.Parallel()

	var tried []string
	g := newGeminiCompletion([]GeminiModel{{Name: "pro"}, {Name: "flash"}},
		func(ctx context.Context, model, prompt string) (string, error) {
			tried = append(tried, model)
			if model == "pro" {
				return "", errors.New("Error 429: RESOURCE_EXHAUSTED")
			}
			return "ok from " + model, nil
		}, time.Now)

	out, err := g.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatal(err)
	}
	if out != "ok from flash" || strings.Join(tried, ",") != "pro,flash" {
		t.Errorf("out = %q, tried = %v", out, tried)
	}
}

func TestIsRetryableModelError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  string
		want bool
	}{
		{"Error 429: RESOURCE_EXHAUSTED", true},
		{"Error 503: UNAVAILABLE", true},
		{"The model is overloaded. Please try again later.", true},
		{"Error 404: models/pro is not found", true},
		{"Error 400: INVALID_ARGUMENT", false},
		{"permission denied", false},
	}
	for _, tt := range tests {
		if got := isRetryableModelError(errors.New(tt.err)); got != tt.want {
			t.Errorf("isRetryableModelError(%q) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestGeminiFallsBackOnUnavailable(t *testing.T) {
	t.Parallel()

	g := newGeminiCompletion([]GeminiModel{{Name: "pro"}, {Name: "flash"}},
		func(ctx context.Context, model, prompt string) (string, error) {
			if model == "pro" {
				return "", errors.New("Error 503: UNAVAILABLE")
			}
			return "ok from " + model, nil
		}, time.Now)

	out, err := g.Complete(context.Background(), "hi")
	if err != nil || out != "ok from flash" {
		t.Errorf("out = %q, err = %v", out, err)
	}
}

func TestGeminiNonRetryableErrorStops(t *testing.T) {
	t.Parallel()

	calls := 0
	g := newGeminiCompletion([]GeminiModel{{Name: "pro"}, {Name: "flash"}},
		func(ctx context.Context, model, prompt string) (string, error) {
			calls++
			return "", errors.New("invalid argument")
		}, time.Now)

	if _, err := g.Complete(context.Background(), "hi"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestGeminiRequestBudget(t *testing.T) {
	t.Parallel()

	clock := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	var tried []string
	g := newGeminiCompletion([]GeminiModel{{Name: "pro", RPM: 2, RPD: 3}, {Name: "flash", RPM: 1}},
		func(ctx context.Context, model, prompt string) (string, error) {
			tried = append(tried, model)
			return model, nil
		}, func() time.Time { return clock })

	for i := 0; i < 3; i++ {
		if _, err := g.Complete(context.Background(), "hi"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if strings.Join(tried, ",") != "pro,pro,flash" {
		t.Errorf("tried = %v", tried)
	}
	if _, err := g.Complete(context.Background(), "hi"); err == nil {
		t.Error("expected budget exhausted within the same minute")
	}

	clock = clock.Add(time.Minute)
	out, err := g.Complete(context.Background(), "hi")
	if err != nil || out != "pro" {
		t.Errorf("after a minute: %q, %v", out, err)
	}

	// pro 当天的 3 次额度已用完
	clock = clock.Add(time.Minute)
	if out, _ := g.Complete(context.Background(), "hi"); out != "flash" {
		t.Errorf("after daily limit: %q", out)
	}
}
