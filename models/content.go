package models

import "time"

// ContentKind 内容类型
type ContentKind string

const (
	KindPost    ContentKind = "post"
	KindComment ContentKind = "comment"
)

// ContentNode 帖子或评论；帖子持有其评论，严格树形结构
type ContentNode struct {
	ID         string            `json:"id"`
	Kind       ContentKind       `json:"type"`
	Author     string            `json:"author"`
	Subreddit  string            `json:"subreddit"`
	Title      string            `json:"title,omitempty"`
	Body       string            `json:"content"`
	URL        string            `json:"url,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	Comments   []ContentNode     `json:"comments,omitempty"`
	Assessment *IntentAssessment `json:"intent_analysis,omitempty"`
}

// Clone 深拷贝节点及其评论
func (n ContentNode) Clone() ContentNode {
	out := n
	if n.Assessment != nil {
		a := n.Assessment.Clone()
		out.Assessment = &a
	}
	if n.Comments != nil {
		out.Comments = make([]ContentNode, len(n.Comments))
		for i, c := range n.Comments {
			out.Comments[i] = c.Clone()
		}
	}
	return out
}

// CloneTree 深拷贝一组帖子
func CloneTree(posts []ContentNode) []ContentNode {
	out := make([]ContentNode, len(posts))
	for i, p := range posts {
		out[i] = p.Clone()
	}
	return out
}

// CountNodes 统计帖子与评论总数
func CountNodes(posts []ContentNode) int {
	n := 0
	for _, p := range posts {
		n += 1 + len(p.Comments)
	}
	return n
}
