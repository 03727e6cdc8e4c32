package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"reddit_intent/config"
	"reddit_intent/logger"
)

// GeminiModel 模型名及其每分钟/每天请求上限
type GeminiModel struct {
	Name string
	RPM  int
	RPD  int
}

var defaultGeminiModels = []GeminiModel{
	{Name: "gemini-2.5-flash", RPM: 10, RPD: 250},
	{Name: "gemini-2.5-flash-lite", RPM: 15, RPD: 1000},
}

func geminiModelsFromConfig(cfg *config.Config) []GeminiModel {
	if len(cfg.LLM.Gemini.Models) == 0 {
		return defaultGeminiModels
	}
	models := make([]GeminiModel, 0, len(cfg.LLM.Gemini.Models))
	for _, m := range cfg.LLM.Gemini.Models {
		models = append(models, GeminiModel{Name: m.Name, RPM: m.RPM, RPD: m.RPD})
	}
	return models
}

// GeminiCompletion 按顺序尝试多个 Gemini 模型，超出配额或被限流时切换到下一个
type GeminiCompletion struct {
	Models []GeminiModel

	generate func(ctx context.Context, model, prompt string) (string, error)
	now      func() time.Time

	dailyCount   map[string]int
	minuteCount  map[string]int
	lastResetDay time.Time
	lastResetMin time.Time
	mu           sync.Mutex
}

var _ CompletionService = (*GeminiCompletion)(nil)

// NewGeminiCompletion 创建 Gemini 客户端
func NewGeminiCompletion(ctx context.Context, apiKey string, models []GeminiModel) (*GeminiCompletion, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	generate := func(ctx context.Context, model, prompt string) (string, error) {
		result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err != nil {
			return "", err
		}
		if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil ||
			len(result.Candidates[0].Content.Parts) == 0 {
			return "", fmt.Errorf("gemini returned no candidates")
		}
		return result.Candidates[0].Content.Parts[0].Text, nil
	}
	return newGeminiCompletion(models, generate, time.Now), nil
}

func newGeminiCompletion(models []GeminiModel, generate func(ctx context.Context, model, prompt string) (string, error), now func() time.Time) *GeminiCompletion {
	if len(models) == 0 {
		models = defaultGeminiModels
	}
	return &GeminiCompletion{
		Models:       models,
		generate:     generate,
		now:          now,
		dailyCount:   make(map[string]int),
		minuteCount:  make(map[string]int),
		lastResetDay: now(),
		lastResetMin: now(),
	}
}

// Complete 依次尝试可用模型；限流类错误换下一个模型，其它错误直接返回
func (g *GeminiCompletion) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for _, m := range g.Models {
		if !g.canUseModel(m) {
			continue
		}

		text, err := g.generate(ctx, m.Name, prompt)
		if err != nil {
			if isRetryableModelError(err) {
				logger.Warn("Gemini model unavailable, trying next", "model", m.Name, "error", err)
				lastErr = err
				continue
			}
			return "", err
		}
		g.recordUsage(m)
		return text, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("request budget exhausted")
	}
	return "", fmt.Errorf("all gemini models failed: %w", lastErr)
}

func isRetryableModelError(err error) bool {
	errStr := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "rate limit", "exhausted", "503", "unavailable", "overloaded", "404", "not found"} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}

func (g *GeminiCompletion) canUseModel(m GeminiModel) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if now.YearDay() != g.lastResetDay.YearDay() || now.Year() != g.lastResetDay.Year() {
		g.dailyCount = make(map[string]int)
		g.lastResetDay = now
	}
	if now.Sub(g.lastResetMin) >= time.Minute {
		g.minuteCount = make(map[string]int)
		g.lastResetMin = now
	}
	if m.RPD > 0 && g.dailyCount[m.Name] >= m.RPD {
		return false
	}
	if m.RPM > 0 && g.minuteCount[m.Name] >= m.RPM {
		return false
	}
	return true
}

func (g *GeminiCompletion) recordUsage(m GeminiModel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dailyCount[m.Name]++
	g.minuteCount[m.Name]++
}
