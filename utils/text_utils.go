package utils

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DeduplicateSlice 去重字符串切片
func DeduplicateSlice(input []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0)

	for _, val := range input {
		val = strings.TrimSpace(val)
		if val != "" && !seen[val] {
			result = append(result, val)
			seen[val] = true
		}
	}

	return result
}

// ContainsAnyFold 判断文本是否包含任一关键词（忽略大小写）；关键词为空时视为匹配
func ContainsAnyFold(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// HTMLToText 将 Reddit 返回的 *_html 字段转换为纯文本，段落之间保留空行。
// Reddit 对 HTML 做了一次实体转义，需先反转义再解析。
func HTMLToText(raw string) string {
	raw = strings.TrimSpace(html.UnescapeString(raw))
	if raw == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	doc.Find("script,noscript,style").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	var blocks []string
	doc.Find("p,li,pre,blockquote,h1,h2,h3,h4,h5,h6").Each(func(i int, s *goquery.Selection) {
		// 嵌套块只取最外层
		if s.ParentsFiltered("p,li,pre,blockquote").Length() > 0 {
			return
		}
		if t := strings.TrimSpace(s.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})
	if len(blocks) == 0 {
		return strings.TrimSpace(doc.Text())
	}
	return strings.Join(blocks, "\n\n")
}
