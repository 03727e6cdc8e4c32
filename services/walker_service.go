package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"reddit_intent/logger"
	"reddit_intent/models"
)

// Classifier 对单个文本给出意向评估，IntentClassifier 是其实现
type Classifier interface {
	Classify(ctx context.Context, text string, cc ClassifyContext) models.IntentAssessment
}

// Pacer 保证同一通道上相邻两次调用之间至少间隔 interval（从上一次调用结束算起）。
// Wait 成功后占有调用槽位，直到 Done 释放，并发调用方因此严格串行。
type Pacer struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
	slot     chan struct{}
	mu       sync.Mutex
}

// NewPacer 创建限速器
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval, now: time.Now, sleep: sleepContext, slot: make(chan struct{}, 1)}
}

// Wait 占有调用槽位并等待到允许调用的时间；ctx 取消时释放槽位并返回错误。
// 每次成功的 Wait 必须配对一次 Done。
func (p *Pacer) Wait(ctx context.Context) error {
	select {
	case p.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.mu.Lock()
	last := p.last
	p.mu.Unlock()

	var err error
	if !last.IsZero() && p.interval > 0 {
		if d := p.interval - p.now().Sub(last); d > 0 {
			err = p.sleep(ctx, d)
		}
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		p.release()
	}
	return err
}

// Done 记录一次调用结束并释放槽位
func (p *Pacer) Done() {
	p.mu.Lock()
	p.last = p.now()
	p.mu.Unlock()
	p.release()
}

func (p *Pacer) release() {
	select {
	case <-p.slot:
	default:
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var errNoLanes = errors.New("content walker has no classifier lanes")

type walkerLane struct {
	classifier Classifier
	pacer      *Pacer
}

// ContentWalker 遍历帖子及其评论并逐个分类。
// 每个通道（一组凭证）严格串行且受 Pacer 限速；多个通道时帖子按轮询分配，输出顺序与输入一致。
type ContentWalker struct {
	lanes []walkerLane
}

// NewContentWalker 每个 classifier 对应一个通道，interval 为通道内调用间隔
func NewContentWalker(classifiers []Classifier, interval time.Duration) *ContentWalker {
	lanes := make([]walkerLane, 0, len(classifiers))
	for _, c := range classifiers {
		lanes = append(lanes, walkerLane{classifier: c, pacer: NewPacer(interval)})
	}
	return &ContentWalker{lanes: lanes}
}

// AssessTree 返回带评估结果的帖子副本；ctx 取消时返回错误且不返回部分结果
func (w *ContentWalker) AssessTree(ctx context.Context, posts []models.ContentNode) ([]models.ContentNode, error) {
	out := models.CloneTree(posts)
	if len(w.lanes) == 0 {
		return nil, errNoLanes
	}

	if len(w.lanes) == 1 {
		for i := range out {
			if err := w.lanes[0].assessPost(ctx, &out[i]); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for laneIdx := range w.lanes {
		lane := w.lanes[laneIdx]
		start := laneIdx
		g.Go(func() error {
			for i := start; i < len(out); i += len(w.lanes) {
				if err := lane.assessPost(gctx, &out[i]); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (l walkerLane) assessPost(ctx context.Context, post *models.ContentNode) error {
	postText := strings.TrimSpace(post.Title + " " + post.Body)
	a, err := l.classify(ctx, postText, ClassifyContext{
		Kind:      models.KindPost,
		Subreddit: post.Subreddit,
		Title:     post.Title,
	})
	if err != nil {
		return err
	}
	post.Assessment = &a

	for i := range post.Comments {
		comment := &post.Comments[i]
		a, err := l.classify(ctx, comment.Body, ClassifyContext{
			Kind:      models.KindComment,
			Subreddit: post.Subreddit,
			Title:     post.Title,
		})
		if err != nil {
			return err
		}
		comment.Assessment = &a
	}
	logger.Debug("Post assessed", "post_id", post.ID, "comments", len(post.Comments))
	return nil
}

func (l walkerLane) classify(ctx context.Context, text string, cc ClassifyContext) (models.IntentAssessment, error) {
	if err := l.pacer.Wait(ctx); err != nil {
		return models.IntentAssessment{}, err
	}
	a := l.classifier.Classify(ctx, text, cc)
	l.pacer.Done()
	// 调用期间被取消时 Classify 只会返回失败默认值，不能当作有效评估
	if err := ctx.Err(); err != nil {
		return models.IntentAssessment{}, err
	}
	return a, nil
}
