package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"reddit_intent/config"
	"reddit_intent/logger"
	"reddit_intent/models"
	"reddit_intent/services"
)

// 将秒数转换为时间间隔
func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// CycleRunner 执行一次监控周期，services.Monitor 是其实现
type CycleRunner interface {
	RunCycle(ctx context.Context, opts models.CycleOptions) (*models.CycleResult, error)
}

// 任务状态
type TaskStatus struct {
	LastRun     time.Time `json:"last_run"`
	NextRun     time.Time `json:"next_run"`
	IsRunning   bool      `json:"is_running"`
	Description string    `json:"description"`
}

// 任务调度器：按固定间隔运行监控周期，同一时间只运行一个周期
type Scheduler struct {
	runner        CycleRunner
	opts          models.CycleOptions
	interval      time.Duration
	checkInterval time.Duration
	task          *TaskStatus
	mutex         sync.Mutex
	wg            sync.WaitGroup
}

// 创建新的调度器
func NewScheduler(cfg *config.Config, runner CycleRunner) *Scheduler {
	intervalMinutes := cfg.Scheduler.IntervalMinutes
	if intervalMinutes <= 0 {
		intervalMinutes = 30
	}
	checkInterval := cfg.Scheduler.CheckIntervalSec
	if checkInterval <= 0 {
		checkInterval = 60 // 默认值
	}

	s := &Scheduler{
		runner:        runner,
		interval:      time.Duration(intervalMinutes) * time.Minute,
		checkInterval: secondsToDuration(checkInterval),
		opts: models.CycleOptions{
			Subreddits:    cfg.Reddit.Subreddits,
			Keywords:      cfg.Reddit.Keywords,
			Limit:         cfg.Reddit.MaxPosts,
			MinIntent:     cfg.Intent.MinIntent,
			MinConfidence: cfg.Intent.MinConfidence,
			SendMessages:  cfg.Messaging.Enabled,
		},
	}
	s.initTask(time.Now())
	return s
}

// SetInterval 覆盖运行间隔（命令行 --interval）
func (s *Scheduler) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.interval = d
	s.task.Description = fmt.Sprintf("监控周期 (每%s)", d)
}

// 启动调度器，ctx 取消后主循环退出
func Start(ctx context.Context, cfg *config.Config, runner CycleRunner) *Scheduler {
	s := NewScheduler(cfg, runner)
	go s.Run(ctx)
	logger.Info("调度器已启动", "interval", s.interval.String(), "check_interval", s.checkInterval.String())
	return s
}

// 初始化任务：启动后立即运行第一次
func (s *Scheduler) initTask(now time.Time) {
	s.task = &TaskStatus{
		LastRun:     time.Time{},
		NextRun:     now,
		IsRunning:   false,
		Description: fmt.Sprintf("监控周期 (每%s)", s.interval),
	}
	logger.Info("定时任务初始化完成", "task", s.task.Description)
}

// Status 返回任务状态副本
func (s *Scheduler) Status() TaskStatus {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return *s.task
}

// Run 主循环；返回前等待正在运行的周期结束
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()
	defer s.wg.Wait()

	s.checkTasks(ctx, time.Now())
	for {
		select {
		case now := <-ticker.C:
			s.checkTasks(ctx, now)
		case <-ctx.Done():
			logger.Info("调度器已停止")
			return
		}
	}
}

// 检查任务
func (s *Scheduler) checkTasks(ctx context.Context, now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	status := s.task
	// 如果任务正在运行，跳过
	if status.IsRunning {
		return
	}
	// 如果到达或超过下次运行时间，执行任务
	if now.After(status.NextRun) || now.Equal(status.NextRun) {
		status.IsRunning = true
		s.wg.Add(1)
		go s.runTask(ctx, now)
	}
}

// 运行任务
func (s *Scheduler) runTask(ctx context.Context, now time.Time) {
	defer s.wg.Done()
	defer func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		status := s.task
		status.IsRunning = false
		status.LastRun = now
		status.NextRun = now.Add(s.interval)

		logger.Info("任务执行完成", "task", status.Description, "next_run", status.NextRun.Format("2006-01-02 15:04:05"))
	}()

	logger.Info("开始执行任务", "task", s.Status().Description)

	result, err := s.runner.RunCycle(ctx, s.opts)
	switch {
	case errors.Is(err, services.ErrCycleRunning):
		logger.Warn("已有监控周期在运行，跳过本次调度")
	case errors.Is(err, models.ErrInvalidThreshold) || errors.Is(err, models.ErrUnknownCategory):
		logger.Error("监控配置无效", "error", err)
	case err != nil:
		logger.Error("监控周期执行失败", "error", err)
	default:
		logger.Info("监控周期执行完成", "cycle_id", result.ID, "responses", result.ResponsesGenerated)
	}
}
