package services

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// 提示词模板种类
const (
	PromptKindIntent   = "intent"
	PromptKindResponse = "response"
)

// PromptTemplates 运营方自定义的提示词模板；空字符串表示使用内置模板。
// 模板使用 text/template 语法，如 {{.content}}。
type PromptTemplates struct {
	Intent   string
	Response string
}

// intentPromptVars / responsePromptVars 自定义模板可使用的占位符
var (
	intentPromptVars   = []string{"content", "subreddit_info", "title_info", "kind", "subreddit", "title"}
	responsePromptVars = []string{"content", "intent_category", "products_services", "needs", "timeframe", "author", "include_resources"}
)

// renderTemplate 渲染自定义模板；引用未知占位符或语法错误都返回 error
func renderTemplate(tmpl string, vars map[string]string) (string, error) {
	t, err := template.New("prompt").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

// ValidatePromptTemplate 用示例变量试渲染模板，保存前校验
func ValidatePromptTemplate(kind, tmpl string) error {
	var names []string
	switch kind {
	case PromptKindIntent:
		names = intentPromptVars
	case PromptKindResponse:
		names = responsePromptVars
	default:
		return fmt.Errorf("unknown prompt kind: %q", kind)
	}
	if strings.TrimSpace(tmpl) == "" {
		return fmt.Errorf("prompt template is empty")
	}
	vars := make(map[string]string, len(names))
	for _, n := range names {
		vars[n] = "sample"
	}
	_, err := renderTemplate(tmpl, vars)
	return err
}

// DefaultPromptTemplate 返回内置模板的说明文本，供运营界面展示
func DefaultPromptTemplate(kind string) (string, bool) {
	switch kind {
	case PromptKindIntent:
		return defaultIntentPrompt("{{.content}}", "{{.subreddit_info}}", "{{.title_info}}", "{{.kind}}"), true
	case PromptKindResponse:
		return defaultResponsePrompt("{{.content}}", "{{.intent_category}}", "{{.products_services}}",
			"{{.needs}}", "{{.timeframe}}", "{{.products_services}}", true), true
	}
	return "", false
}

func defaultIntentPrompt(content, subredditInfo, titleInfo, kind string) string {
	return fmt.Sprintf(`
Analysis task: Detect buyer intent in the following Reddit %s.
%s
%s

Content: %s

Please analyze this content for buyer intent and return a structured JSON object with the following:

1. intent_category: One of ["HIGH", "MEDIUM", "LOW", "NONE"] based on how likely this person is to make a purchase soon
2. confidence: A number from 0.0 to 1.0 representing your confidence in this classification
3. products_services: A list of specific products, services, or solutions mentioned or implied
4. needs: A list of the user's needs, pain points, or requirements
5. timeframe: The likely purchasing timeframe (immediate, near future, distant future, unknown)
6. recommended_response: A brief suggestion on how to approach this potential buyer

HIGH intent means actively looking to purchase very soon.
MEDIUM intent means researching options with a plan to purchase.
LOW intent means curious but not actively planning to purchase.
NONE means no detectable buyer intent.

Return ONLY a valid JSON object with these fields, nothing else.
`, kind, subredditInfo, titleInfo, content)
}

func defaultResponsePrompt(content, category, products, needs, timeframe, interest string, includeResources bool) string {
	resources := "Keep the message concise without external links"
	if includeResources {
		resources = "Include 1-2 relevant resources or links that might help them"
	}
	return fmt.Sprintf(`
Task: Generate a professional, personalized direct message (DM) to send to a Reddit user who has shown interest in making a purchase.

Reddit User's Content:
%s

Buyer Intent Analysis:
- Intent Level: %s
- Products/Services of Interest: %s
- Needs/Requirements: %s
- Purchasing Timeframe: %s

Requirements for the DM:
1. Use a friendly, helpful tone without being pushy or salesy
2. Briefly mention you noticed their post/comment about %s
3. Offer genuine value or insights related to their specific needs
4. %s
5. End with a clear call-to-action to schedule an appointment or consultation
6. The message should be brief (150-200 words maximum)
7. Include a professional subject line

Return a JSON object with:
1. "subject": The subject line for the DM
2. "message": The complete message content ready to send

Return ONLY valid JSON with these fields, nothing else.
`, content, category, products, needs, timeframe, interest, resources)
}
