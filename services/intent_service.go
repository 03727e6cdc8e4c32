package services

import (
	"context"
	"math"
	"strings"

	"reddit_intent/logger"
	"reddit_intent/models"
)

// ClassifyContext 分类时的附加上下文，字段为空表示缺失
type ClassifyContext struct {
	Subreddit string
	Title     string
	Kind      models.ContentKind
}

// IntentClassifier 调用语言模型识别购买意向
type IntentClassifier struct {
	completion CompletionService
	template   string
}

// NewIntentClassifier 创建分类器；template 为空时使用内置提示词
func NewIntentClassifier(completion CompletionService, template string) *IntentClassifier {
	return &IntentClassifier{completion: completion, template: template}
}

// Classify 对一段文本做意向分类。
// 空文本直接返回 NONE/1.0，不调用模型；任何失败都降级为 NONE/0.0，不向调用方返回错误。
func (c *IntentClassifier) Classify(ctx context.Context, text string, cc ClassifyContext) models.IntentAssessment {
	if strings.TrimSpace(text) == "" {
		return models.EmptyTextAssessment()
	}

	prompt := c.buildPrompt(text, cc)

	output, err := c.completion.Complete(ctx, prompt)
	if err != nil {
		logger.Error("Intent detection call failed", "error", err)
		return models.FailedAssessment()
	}

	obj, err := parseModelJSON(output)
	if err != nil {
		logger.Error("Intent detection output unparsable", "error", err, "output_preview", logger.Preview(output, 200))
		return models.FailedAssessment()
	}

	a := assessmentFromObject(obj)
	logger.Info("Detected intent", "category", a.Category.String(), "confidence", a.Confidence)
	return a
}

func (c *IntentClassifier) buildPrompt(text string, cc ClassifyContext) string {
	subredditInfo := ""
	if cc.Subreddit != "" {
		subredditInfo = "Subreddit: r/" + cc.Subreddit
	}
	titleInfo := ""
	if cc.Title != "" {
		titleInfo = "Post title: " + cc.Title
	}
	kind := string(cc.Kind)
	if kind == "" {
		kind = "content"
	}

	if c.template != "" {
		prompt, err := renderTemplate(c.template, map[string]string{
			"content":        text,
			"subreddit_info": subredditInfo,
			"title_info":     titleInfo,
			"kind":           kind,
			"subreddit":      cc.Subreddit,
			"title":          cc.Title,
		})
		if err == nil {
			return prompt
		}
		logger.Error("Error formatting custom intent prompt, falling back to default", "error", err)
	}
	return defaultIntentPrompt(text, subredditInfo, titleInfo, kind)
}

// assessmentFromObject 规范化模型输出的字段，缺失项取安全默认值
func assessmentFromObject(obj map[string]any) models.IntentAssessment {
	category := models.CategoryNone
	if raw := stringField(obj, "intent_category", ""); raw != "" {
		parsed, err := models.ParseCategory(raw)
		if err != nil {
			logger.Warn("Unknown intent category from model, treating as NONE", "category", raw)
		} else {
			category = parsed
		}
	}

	confidence := floatField(obj, "confidence", 0.0)
	if confidence < 0 || math.IsNaN(confidence) {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	return models.IntentAssessment{
		Category:            category,
		Confidence:          confidence,
		ProductsServices:    stringListField(obj, "products_services"),
		Needs:               stringListField(obj, "needs"),
		Timeframe:           stringField(obj, "timeframe", models.DefaultTimeframe),
		RecommendedResponse: stringField(obj, "recommended_response", ""),
		Raw:                 obj,
	}
}
