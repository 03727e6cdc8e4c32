package models

import "time"

// ResponseRecord 针对一个合格节点生成的私信内容，生成后不再修改
type ResponseRecord struct {
	ID               string      `json:"id,omitempty"`
	CycleID          string      `json:"cycle_id,omitempty"`
	SourceID         string      `json:"source_id"`
	Subject          string      `json:"subject"`
	Message          string      `json:"message"`
	Author           string      `json:"author"`
	Subreddit        string      `json:"subreddit,omitempty"`
	ContentKind      ContentKind `json:"content_type"`
	Category         Category    `json:"intent_category"`
	ProductsServices []string    `json:"products_services"`
	IncludeResources bool        `json:"include_resources"`
	Sent             bool        `json:"sent"`
	CreatedAt        time.Time   `json:"created_at"`
}

// CycleOptions 一次监控周期的参数
type CycleOptions struct {
	Subreddits    []string `json:"subreddits,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	Limit         int      `json:"limit,omitempty"`
	MinIntent     string   `json:"min_intent" example:"MEDIUM"`
	MinConfidence float64  `json:"min_confidence" example:"0.6"`
	SendMessages  bool     `json:"send_messages"`
}

// CycleResult 一次监控周期的统计
type CycleResult struct {
	ID                 string    `json:"id"`
	StartTime          time.Time `json:"start_time"`
	EndTime            time.Time `json:"end_time"`
	DurationSeconds    float64   `json:"duration_seconds"`
	Subreddits         []string  `json:"subreddits,omitempty"`
	MinIntent          string    `json:"min_intent"`
	MinConfidence      float64   `json:"min_confidence"`
	PostsScraped       int       `json:"posts_scraped"`
	HighIntentContent  int       `json:"high_intent_content"`
	ResponsesGenerated int       `json:"responses_generated"`
	MessagesSent       int       `json:"messages_sent"`
	Error              string    `json:"error,omitempty"`
}
