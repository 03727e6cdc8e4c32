package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"reddit_intent/config"
	"reddit_intent/logger"
)

// CompletionService 语言模型补全服务：输入提示词，返回自由文本
type CompletionService interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompletionFunc 让普通函数满足 CompletionService
type CompletionFunc func(ctx context.Context, prompt string) (string, error)

func (f CompletionFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// 定义SiliconFlow（OpenAI 兼容）API请求和响应结构
type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ChatCompletion 调用 OpenAI 兼容的 /v1/chat/completions 接口
type ChatCompletion struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

var _ CompletionService = (*ChatCompletion)(nil)

// NewChatCompletion 创建补全客户端；apiKey 形如 ${ENV} 时从环境变量读取
func NewChatCompletion(baseURL, apiKey, model string, timeout time.Duration) *ChatCompletion {
	if strings.HasPrefix(apiKey, "${") && strings.HasSuffix(apiKey, "}") {
		envName := apiKey[2 : len(apiKey)-1]
		apiKey = os.Getenv(envName)
		logger.Info("API key resolved from environment", "env_var", envName)
	}
	return &ChatCompletion{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		Client:  &http.Client{Timeout: timeout},
	}
}

// Complete 发送单轮 user 消息并返回第一条 choice 的内容
func (c *ChatCompletion) Complete(ctx context.Context, prompt string) (string, error) {
	logger.Debug("LLM prompt preview", "model", c.Model, "prompt_preview", logger.Preview(prompt, 100))

	reqJSON, err := json.Marshal(chatRequest{
		Model:    c.Model,
		Messages: []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := c.BaseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	startTime := time.Now()
	resp, err := c.Client.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		logger.Error("LLM request failed", "error", err, "duration_ms", duration.Milliseconds())
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	logger.Info("LLM response", "status_code", resp.StatusCode, "response_size", len(body), "duration_ms", duration.Milliseconds())

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completion status %d: %s", resp.StatusCode, logger.Preview(string(body), 500))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	logger.Debug("LLM usage",
		"tokens_prompt", parsed.Usage.PromptTokens,
		"tokens_completion", parsed.Usage.CompletionTokens,
		"tokens_total", parsed.Usage.TotalTokens,
		"finish_reason", parsed.Choices[0].FinishReason)

	return parsed.Choices[0].Message.Content, nil
}

// NewCompletionLanes 按配置为每个 API key 创建一个补全客户端，每个客户端对应一个限速通道
func NewCompletionLanes(ctx context.Context, cfg *config.Config) ([]CompletionService, error) {
	if len(cfg.LLM.APIKeys) == 0 {
		return nil, fmt.Errorf("llm api key is required")
	}
	timeout := time.Duration(cfg.LLM.TimeoutSec) * time.Second

	lanes := make([]CompletionService, 0, len(cfg.LLM.APIKeys))
	for _, key := range cfg.LLM.APIKeys {
		switch strings.ToLower(cfg.LLM.Provider) {
		case "gemini":
			g, err := NewGeminiCompletion(ctx, key, geminiModelsFromConfig(cfg))
			if err != nil {
				return nil, err
			}
			lanes = append(lanes, g)
		case "siliconflow", "openai":
			lanes = append(lanes, NewChatCompletion(cfg.LLM.BaseURL, key, cfg.LLM.Model, timeout))
		default:
			return nil, fmt.Errorf("unsupported llm provider: %q", cfg.LLM.Provider)
		}
	}
	return lanes, nil
}
