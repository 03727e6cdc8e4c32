package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"reddit_intent/logger"
	"reddit_intent/models"
)

const (
	fallbackSubject = "Regarding your Reddit post"
	fallbackMessage = "I noticed your post and thought I might be able to help. Would you be interested in discussing this further?"
	defaultAuthor   = "Redditor"
)

// ResponseGenerator 根据内容与意向评估生成私信
type ResponseGenerator struct {
	completion CompletionService
	template   string
	now        func() time.Time
}

// NewResponseGenerator 创建私信生成器；template 为空时使用内置提示词
func NewResponseGenerator(completion CompletionService, template string) *ResponseGenerator {
	return &ResponseGenerator{completion: completion, template: template, now: time.Now}
}

// Generate 为一个节点生成私信；失败时返回通用兜底文案，不返回错误
func (g *ResponseGenerator) Generate(ctx context.Context, node models.ContentNode, assessment *models.IntentAssessment, includeResources bool) models.ResponseRecord {
	a := models.FailedAssessment()
	if assessment != nil {
		a = assessment.Clone()
	}

	author := node.Author
	if author == "" {
		author = defaultAuthor
	}
	kind := node.Kind
	if kind == "" {
		kind = models.KindPost
	}

	record := models.ResponseRecord{
		SourceID:         node.ID,
		Subject:          fallbackSubject,
		Message:          fallbackMessage,
		Author:           author,
		Subreddit:        node.Subreddit,
		ContentKind:      kind,
		Category:         a.Category,
		ProductsServices: a.ProductsServices,
		IncludeResources: includeResources,
		CreatedAt:        g.now(),
	}

	prompt := g.buildPrompt(node, kind, author, a, includeResources)
	output, err := g.completion.Complete(ctx, prompt)
	if err != nil {
		logger.Error("Error generating response", "author", author, "error", err)
		return record
	}

	obj, err := parseModelJSON(output)
	if err != nil {
		logger.Error("Response output unparsable", "author", author, "error", err, "output_preview", logger.Preview(output, 200))
		return record
	}

	record.Subject = stringField(obj, "subject", fallbackSubject)
	record.Message = stringField(obj, "message", "")
	logger.Info("Generated response", "author", author, "category", a.Category.String())
	return record
}

func (g *ResponseGenerator) buildPrompt(node models.ContentNode, kind models.ContentKind, author string, a models.IntentAssessment, includeResources bool) string {
	var content string
	if kind == models.KindPost {
		content = "Title: " + node.Title + "\n\nContent: " + node.Body
	} else {
		content = "Comment: " + node.Body
	}

	products := joinOrUnknown(a.ProductsServices)
	needs := joinOrUnknown(a.Needs)

	if g.template != "" {
		prompt, err := renderTemplate(g.template, map[string]string{
			"content":           content,
			"intent_category":   a.Category.String(),
			"products_services": products,
			"needs":             needs,
			"timeframe":         a.Timeframe,
			"author":            author,
			"include_resources": strconv.FormatBool(includeResources),
		})
		if err == nil {
			return prompt
		}
		logger.Error("Error formatting custom response prompt, falling back to default", "error", err)
	}

	interest := "their interest"
	if len(a.ProductsServices) > 0 {
		interest = products
	}
	return defaultResponsePrompt(content, a.Category.String(), products, needs, a.Timeframe, interest, includeResources)
}

func joinOrUnknown(items []string) string {
	if len(items) == 0 {
		return "Unknown"
	}
	return strings.Join(items, ", ")
}
