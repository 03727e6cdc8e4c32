package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"reddit_intent/logger"
	"reddit_intent/utils"
)

// ResponsePushPayload 推送到外部审核系统的私信数据
type ResponsePushPayload struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

// WebhookTransport 把私信推送给外部审核系统，由对方决定是否发出。
// 请求头携带 timestamp 与 Authorization = md5(apiKey + timestamp 后4位)。
type WebhookTransport struct {
	URL    string
	APIKey string
	Client *http.Client
	now    func() time.Time
}

// NewWebhookTransport 创建推送通道
func NewWebhookTransport(url, apiKey string) *WebhookTransport {
	return &WebhookTransport{
		URL:    url,
		APIKey: apiKey,
		Client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

func (t *WebhookTransport) Deliver(ctx context.Context, recipient, subject, message string) error {
	jsonData, err := json.Marshal(ResponsePushPayload{Recipient: recipient, Subject: subject, Message: message})
	if err != nil {
		return fmt.Errorf("序列化推送数据失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	// 设置请求头
	timestampStr := strconv.FormatInt(t.now().UnixMilli(), 10)
	lastFourDigits := timestampStr[len(timestampStr)-4:]
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("timestamp", timestampStr)
	req.Header.Set("Authorization", utils.CalculateAuthorizationHeader(t.APIKey, lastFourDigits))

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("发送推送请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("推送请求返回非200状态码: %d", resp.StatusCode)
	}

	// 解析响应
	var result struct {
		ErrCode int    `json:"errCode"`
		Msg     string `json:"msg"`
		Success bool   `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("解析推送响应失败: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("推送失败: %d %s", result.ErrCode, result.Msg)
	}

	logger.Debug("Response pushed to webhook", "recipient", recipient)
	return nil
}
