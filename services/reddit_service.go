package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"reddit_intent/config"
	"reddit_intent/logger"
	"reddit_intent/models"
	"reddit_intent/utils"
)

var errRedditCredentials = errors.New("reddit credentials not configured")

// RedditSource 通过 Reddit OAuth API 抓取帖子与评论，并负责发送站内信。
// 所有请求（含获取 token）共享一个 Pacer，相邻请求之间至少间隔 RateLimitSec。
type RedditSource struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
	AuthURL      string
	APIURL       string
	CommentLimit int

	client *http.Client
	pacer  *Pacer

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewRedditSource 根据配置创建 Reddit 客户端
func NewRedditSource(cfg *config.Config) *RedditSource {
	rc := cfg.Reddit
	return &RedditSource{
		ClientID:     rc.ClientID,
		ClientSecret: rc.ClientSecret,
		Username:     rc.Username,
		Password:     rc.Password,
		UserAgent:    rc.UserAgent,
		AuthURL:      strings.TrimRight(rc.AuthURL, "/"),
		APIURL:       strings.TrimRight(rc.APIURL, "/"),
		CommentLimit: rc.CommentsPerPost,
		client:       &http.Client{Timeout: time.Duration(rc.TimeoutSec) * time.Second},
		pacer:        NewPacer(time.Duration(rc.RateLimitSec) * time.Second),
	}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Kind string          `json:"kind"`
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Selftext     string  `json:"selftext"`
	SelftextHTML string  `json:"selftext_html"`
	Author       string  `json:"author"`
	URL          string  `json:"url"`
	Subreddit    string  `json:"subreddit"`
	CreatedUTC   float64 `json:"created_utc"`
}

type redditComment struct {
	ID         string  `json:"id"`
	Body       string  `json:"body"`
	BodyHTML   string  `json:"body_html"`
	Author     string  `json:"author"`
	CreatedUTC float64 `json:"created_utc"`
}

// FetchPosts 依次抓取各子版块的最新帖子，只保留标题或正文包含任一关键词的帖子，并附带其顶层评论。
// 单个子版块失败时记录日志并跳过；ctx 取消或认证失败时返回错误。
func (r *RedditSource) FetchPosts(ctx context.Context, subreddits, keywords []string, limit int) ([]models.ContentNode, error) {
	if r.ClientID == "" || r.ClientSecret == "" {
		return nil, errRedditCredentials
	}
	if _, err := r.accessToken(ctx); err != nil {
		return nil, err
	}

	posts := make([]models.ContentNode, 0)
	for _, sub := range subreddits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.Info("Scraping subreddit for buyer intent keywords", "subreddit", sub)
		scraped, err := r.scrapeSubreddit(ctx, sub, keywords, limit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Error("Error scraping subreddit", "subreddit", sub, "error", err)
			continue
		}
		logger.Info("Scraped posts from subreddit", "subreddit", sub, "count", len(scraped))
		posts = append(posts, scraped...)
	}
	return posts, nil
}

func (r *RedditSource) scrapeSubreddit(ctx context.Context, sub string, keywords []string, limit int) ([]models.ContentNode, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var listing redditListing
	if err := r.get(ctx, "/r/"+url.PathEscape(sub)+"/new", q, &listing); err != nil {
		return nil, err
	}

	posts := make([]models.ContentNode, 0)
	for _, child := range listing.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var p redditPost
		if err := json.Unmarshal(child.Data, &p); err != nil {
			logger.Warn("Skipping undecodable post", "subreddit", sub, "error", err)
			continue
		}

		body := p.Selftext
		if p.SelftextHTML != "" {
			body = utils.HTMLToText(p.SelftextHTML)
		}
		if !utils.ContainsAnyFold(p.Title+" "+body, keywords) {
			continue
		}

		node := models.ContentNode{
			ID:        p.ID,
			Kind:      models.KindPost,
			Author:    p.Author,
			Subreddit: sub,
			Title:     p.Title,
			Body:      body,
			URL:       p.URL,
			CreatedAt: unixSeconds(p.CreatedUTC),
			Comments:  make([]models.ContentNode, 0),
		}

		comments, err := r.fetchComments(ctx, p.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("Error fetching comments", "post_id", p.ID, "error", err)
		} else {
			for i := range comments {
				comments[i].Subreddit = sub
			}
			node.Comments = comments
		}
		posts = append(posts, node)
	}
	return posts, nil
}

// fetchComments 只读取顶层评论，跳过作者已删除的评论与 "more" 占位
func (r *RedditSource) fetchComments(ctx context.Context, postID string) ([]models.ContentNode, error) {
	q := url.Values{}
	q.Set("depth", "1")
	if r.CommentLimit > 0 {
		q.Set("limit", strconv.Itoa(r.CommentLimit))
	}

	var listings []redditListing
	if err := r.get(ctx, "/comments/"+url.PathEscape(postID), q, &listings); err != nil {
		return nil, err
	}
	if len(listings) < 2 {
		return nil, fmt.Errorf("unexpected comment listing count %d", len(listings))
	}

	comments := make([]models.ContentNode, 0)
	for _, child := range listings[1].Data.Children {
		if child.Kind != "t1" {
			continue
		}
		var c redditComment
		if err := json.Unmarshal(child.Data, &c); err != nil {
			continue
		}
		if c.Author == "" || c.Author == "[deleted]" {
			continue
		}
		body := c.Body
		if c.BodyHTML != "" {
			body = utils.HTMLToText(c.BodyHTML)
		}
		comments = append(comments, models.ContentNode{
			ID:        c.ID,
			Kind:      models.KindComment,
			Author:    c.Author,
			Body:      body,
			CreatedAt: unixSeconds(c.CreatedUTC),
		})
	}
	return comments, nil
}

// Compose 给指定用户发送站内信
func (r *RedditSource) Compose(ctx context.Context, to, subject, text string) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("to", to)
	form.Set("subject", subject)
	form.Set("text", text)

	var resp struct {
		JSON struct {
			Errors [][]any `json:"errors"`
		} `json:"json"`
	}
	if err := r.post(ctx, "/api/compose", form, &resp); err != nil {
		return err
	}
	if len(resp.JSON.Errors) > 0 {
		return fmt.Errorf("reddit compose rejected: %v", resp.JSON.Errors[0])
	}
	return nil
}

// accessToken 使用 password grant 获取 token，过期前一分钟刷新
func (r *RedditSource) accessToken(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.token != "" && time.Now().Before(r.tokenExpiry) {
		token := r.token
		r.mu.Unlock()
		return token, nil
	}
	r.mu.Unlock()

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", r.Username)
	form.Set("password", r.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.AuthURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("创建认证请求失败: %w", err)
	}
	req.SetBasicAuth(r.ClientID, r.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", r.UserAgent)

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		Error       string `json:"error"`
	}
	if err := r.send(ctx, req, &tok); err != nil {
		return "", fmt.Errorf("reddit authentication failed: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("reddit authentication failed: %s", tok.Error)
	}

	expiresIn := time.Duration(tok.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}
	r.mu.Lock()
	r.token = tok.AccessToken
	r.tokenExpiry = time.Now().Add(expiresIn - time.Minute)
	r.mu.Unlock()

	logger.Info("Reddit API client authenticated", "username", r.Username)
	return tok.AccessToken, nil
}

func (r *RedditSource) get(ctx context.Context, path string, q url.Values, out any) error {
	token, err := r.accessToken(ctx)
	if err != nil {
		return err
	}
	u := r.APIURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Authorization", "bearer "+token)
	req.Header.Set("User-Agent", r.UserAgent)
	return r.send(ctx, req, out)
}

func (r *RedditSource) post(ctx context.Context, path string, form url.Values, out any) error {
	token, err := r.accessToken(ctx)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.APIURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Authorization", "bearer "+token)
	req.Header.Set("User-Agent", r.UserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r.send(ctx, req, out)
}

// send 发送请求并解析 JSON，受 Pacer 限速
func (r *RedditSource) send(ctx context.Context, req *http.Request, out any) error {
	if err := r.pacer.Wait(ctx); err != nil {
		return err
	}
	defer r.pacer.Done()

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, logger.Preview(string(body), 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}

func unixSeconds(sec float64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(int64(sec), 0).UTC()
}
