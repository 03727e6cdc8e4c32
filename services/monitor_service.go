package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"reddit_intent/config"
	"reddit_intent/logger"
	"reddit_intent/models"
)

var (
	// ErrCycleRunning 已有监控周期在执行
	ErrCycleRunning = errors.New("a monitoring cycle is already running")
	// ErrMessagingDisabled 未配置私信发送通道
	ErrMessagingDisabled = errors.New("direct messaging is not configured")
)

// PostSource 抓取候选帖子，RedditSource 是其实现
type PostSource interface {
	FetchPosts(ctx context.Context, subreddits, keywords []string, limit int) ([]models.ContentNode, error)
}

// Messenger 发送私信，DirectMessenger 是其实现
type Messenger interface {
	Send(ctx context.Context, recipient, subject, message string) (bool, error)
}

// CycleStore 持久化监控周期结果并提供运营保存的提示词模板
type CycleStore interface {
	SaveCycle(result *models.CycleResult) error
	SaveResponses(cycleID string, responses []models.ResponseRecord) error
	GetPromptTemplates() (map[string]string, error)
}

// MonitorStatus 监控器当前状态
type MonitorStatus struct {
	IsRunning  bool                 `json:"is_running"`
	Current    *models.CycleOptions `json:"current_task,omitempty"`
	LastRun    *time.Time           `json:"last_run,omitempty"`
	LastResult *models.CycleResult  `json:"results,omitempty"`
}

// MonitorDefaults 调用方未指定时使用的周期参数
type MonitorDefaults struct {
	Subreddits       []string
	Keywords         []string
	Limit            int
	IncludeResources bool
	Pacing           time.Duration
}

// Monitor 串联抓取、意向分析、过滤、私信生成与发送
type Monitor struct {
	source    PostSource
	lanes     []CompletionService
	store     CycleStore
	messenger Messenger
	defaults  MonitorDefaults
	now       func() time.Time

	mu      sync.Mutex
	running bool
	current *models.CycleOptions
	lastRun *time.Time
	last    *models.CycleResult
}

// NewMonitor 创建监控器；store 与 messenger 可以为 nil
func NewMonitor(source PostSource, lanes []CompletionService, store CycleStore, messenger Messenger, defaults MonitorDefaults) *Monitor {
	return &Monitor{
		source:    source,
		lanes:     lanes,
		store:     store,
		messenger: messenger,
		defaults:  defaults,
		now:       time.Now,
	}
}

// DefaultsFromConfig 从配置读取周期默认参数
func DefaultsFromConfig(cfg *config.Config) MonitorDefaults {
	return MonitorDefaults{
		Subreddits:       cfg.Reddit.Subreddits,
		Keywords:         cfg.Reddit.Keywords,
		Limit:            cfg.Reddit.MaxPosts,
		IncludeResources: cfg.Intent.IncludeResources,
		Pacing:           time.Duration(cfg.Intent.PacingMs) * time.Millisecond,
	}
}

// Status 返回当前运行状态与上一次结果
func (m *Monitor) Status() MonitorStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MonitorStatus{IsRunning: m.running, Current: m.current, LastRun: m.lastRun, LastResult: m.last}
}

// RunCycle 执行一次完整的监控周期。
// 阈值非法时在任何外部调用之前返回错误；其他失败记录在 CycleResult.Error 中并同时返回。
func (m *Monitor) RunCycle(ctx context.Context, opts models.CycleOptions) (*models.CycleResult, error) {
	threshold, err := models.NewThreshold(opts.MinIntent, opts.MinConfidence)
	if err != nil {
		return nil, err
	}
	if len(m.lanes) == 0 {
		return nil, errNoLanes
	}
	opts = m.withDefaults(opts)

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil, ErrCycleRunning
	}
	m.running = true
	current := opts
	m.current = &current
	m.mu.Unlock()

	start := m.now()
	result := &models.CycleResult{
		ID:            newID(start),
		StartTime:     start,
		Subreddits:    opts.Subreddits,
		MinIntent:     threshold.MinCategory.String(),
		MinConfidence: threshold.MinConfidence,
	}
	logger.Info("Starting monitoring cycle", "cycle_id", result.ID, "subreddits", len(opts.Subreddits), "min_intent", result.MinIntent)

	responses, err := m.runStages(ctx, opts, threshold, result)
	if err != nil {
		result.Error = err.Error()
		logger.Error("Error during monitoring cycle", "cycle_id", result.ID, "error", err)
	}

	end := m.now()
	result.EndTime = end
	result.DurationSeconds = end.Sub(start).Seconds()
	m.persist(result, responses)

	m.mu.Lock()
	m.running = false
	m.current = nil
	m.lastRun = &end
	m.last = result
	m.mu.Unlock()

	logger.Info("Monitoring cycle completed",
		"cycle_id", result.ID,
		"duration_seconds", fmt.Sprintf("%.2f", result.DurationSeconds),
		"posts_scraped", result.PostsScraped,
		"high_intent_content", result.HighIntentContent,
		"responses_generated", result.ResponsesGenerated,
		"messages_sent", result.MessagesSent)
	return result, err
}

// SendResponse 发送一条已生成的私信，供运营审核后手动发送。
// 返回 false, nil 表示用户仍在冷却期。
func (m *Monitor) SendResponse(ctx context.Context, r models.ResponseRecord) (bool, error) {
	if m.messenger == nil {
		return false, ErrMessagingDisabled
	}
	return m.messenger.Send(ctx, r.Author, r.Subject, r.Message)
}

func (m *Monitor) runStages(ctx context.Context, opts models.CycleOptions, threshold models.IntentThreshold, result *models.CycleResult) ([]models.ResponseRecord, error) {
	templates := m.loadTemplates()

	posts, err := m.source.FetchPosts(ctx, opts.Subreddits, opts.Keywords, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("抓取帖子失败: %w", err)
	}
	result.PostsScraped = len(posts)
	if len(posts) == 0 {
		logger.Info("No relevant posts found, ending cycle", "cycle_id", result.ID)
		return nil, nil
	}
	logger.Info("Scraped posts", "cycle_id", result.ID, "posts", len(posts), "nodes", models.CountNodes(posts))

	classifiers := make([]Classifier, 0, len(m.lanes))
	for _, lane := range m.lanes {
		classifiers = append(classifiers, NewIntentClassifier(lane, templates.Intent))
	}
	assessed, err := NewContentWalker(classifiers, m.defaults.Pacing).AssessTree(ctx, posts)
	if err != nil {
		return nil, fmt.Errorf("意向分析失败: %w", err)
	}

	filtered, err := FilterTree(assessed, threshold)
	if err != nil {
		return nil, err
	}
	result.HighIntentContent = CountQualifying(filtered, threshold)
	logger.Info("Found qualifying content", "count", result.HighIntentContent, "posts", len(filtered), "min_intent", threshold.MinCategory.String())

	generator := NewResponseGenerator(m.lanes[0], templates.Response)
	responses, err := NewResponseBatcher(generator, m.defaults.IncludeResources).Batch(ctx, filtered, threshold.MinCategory)
	if err != nil {
		return nil, fmt.Errorf("生成私信失败: %w", err)
	}
	for i := range responses {
		responses[i].ID = newID(responses[i].CreatedAt)
		responses[i].CycleID = result.ID
	}
	result.ResponsesGenerated = len(responses)
	logger.Info("Generated personalized responses", "count", len(responses))

	if opts.SendMessages && m.messenger != nil {
		for i := range responses {
			if err := ctx.Err(); err != nil {
				return responses, err
			}
			r := &responses[i]
			sent, err := m.messenger.Send(ctx, r.Author, r.Subject, r.Message)
			if err != nil || !sent {
				continue
			}
			r.Sent = true
			result.MessagesSent++
		}
		logger.Info("Sent direct messages", "count", result.MessagesSent)
	}
	return responses, nil
}

func (m *Monitor) withDefaults(opts models.CycleOptions) models.CycleOptions {
	if len(opts.Subreddits) == 0 {
		opts.Subreddits = m.defaults.Subreddits
	}
	if len(opts.Keywords) == 0 {
		opts.Keywords = m.defaults.Keywords
	}
	if opts.Limit <= 0 {
		opts.Limit = m.defaults.Limit
	}
	opts.MinIntent = strings.ToUpper(strings.TrimSpace(opts.MinIntent))
	return opts
}

// loadTemplates 读取运营保存的模板；读取失败时使用内置提示词
func (m *Monitor) loadTemplates() PromptTemplates {
	if m.store == nil {
		return PromptTemplates{}
	}
	saved, err := m.store.GetPromptTemplates()
	if err != nil {
		logger.Warn("Failed to load prompt templates, using defaults", "error", err)
		return PromptTemplates{}
	}
	return PromptTemplates{Intent: saved[PromptKindIntent], Response: saved[PromptKindResponse]}
}

func (m *Monitor) persist(result *models.CycleResult, responses []models.ResponseRecord) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveCycle(result); err != nil {
		logger.Error("Failed to save cycle", "cycle_id", result.ID, "error", err)
	}
	if len(responses) == 0 {
		return
	}
	if err := m.store.SaveResponses(result.ID, responses); err != nil {
		logger.Error("Failed to save responses", "cycle_id", result.ID, "error", err)
	}
}

func newID(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
