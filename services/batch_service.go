package services

import (
	"context"

	"reddit_intent/models"
)

// Generator 为单个节点生成私信，ResponseGenerator 是其实现
type Generator interface {
	Generate(ctx context.Context, node models.ContentNode, assessment *models.IntentAssessment, includeResources bool) models.ResponseRecord
}

// ResponseBatcher 遍历过滤后的帖子，为达到类别下限的节点生成私信
type ResponseBatcher struct {
	generator        Generator
	includeResources bool
}

// NewResponseBatcher 创建批量生成器
func NewResponseBatcher(generator Generator, includeResources bool) *ResponseBatcher {
	return &ResponseBatcher{generator: generator, includeResources: includeResources}
}

// Batch 按帖子在前、评论在后的遍历顺序返回私信列表。
// 只比较类别序数，置信度已由上游 FilterTree 保证。
func (b *ResponseBatcher) Batch(ctx context.Context, posts []models.ContentNode, minCategory models.Category) ([]models.ResponseRecord, error) {
	if err := models.ValidateMinCategory(minCategory); err != nil {
		return nil, err
	}

	responses := make([]models.ResponseRecord, 0)
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if meetsCategory(post.Assessment, minCategory) {
			responses = append(responses, b.generator.Generate(ctx, post, post.Assessment, b.includeResources))
		}

		for _, comment := range post.Comments {
			if !meetsCategory(comment.Assessment, minCategory) {
				continue
			}
			// 评论沿用所属帖子的上下文
			node := comment
			node.Kind = models.KindComment
			if node.Subreddit == "" {
				node.Subreddit = post.Subreddit
			}
			if node.Title == "" {
				node.Title = post.Title
			}
			if node.URL == "" {
				node.URL = post.URL
			}
			responses = append(responses, b.generator.Generate(ctx, node, comment.Assessment, b.includeResources))
		}
	}
	return responses, nil
}

func meetsCategory(a *models.IntentAssessment, min models.Category) bool {
	return a != nil && a.Category.AtLeast(min)
}
