package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// parseModelJSON 从模型输出中解析 JSON 对象。
// 先取第一个 '{' 到最后一个 '}' 之间的子串，失败后再尝试整段文本。
func parseModelJSON(text string) (map[string]any, error) {
	startIdx := strings.Index(text, "{")
	endIdx := strings.LastIndex(text, "}")

	if startIdx >= 0 && endIdx > startIdx {
		if obj, err := decodeObject(text[startIdx : endIdx+1]); err == nil {
			return obj, nil
		}
	}

	obj, err := decodeObject(text)
	if err != nil {
		return nil, fmt.Errorf("no JSON object in model output: %w", err)
	}
	return obj, nil
}

func decodeObject(s string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("JSON value is not an object")
	}
	return obj, nil
}

// stringField 读取字符串字段；缺失或类型不符时返回 def
func stringField(obj map[string]any, key, def string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return def
	}
	switch s := v.(type) {
	case string:
		return s
	case float64, bool:
		return fmt.Sprint(s)
	default:
		return def
	}
}

// floatField 读取数值字段，兼容 "0.8" 这类字符串
func floatField(obj map[string]any, key string, def float64) float64 {
	switch v := obj[key].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

// stringListField 读取字符串列表；单个字符串视为一个元素
func stringListField(obj map[string]any, key string) []string {
	out := []string{}
	switch v := obj[key].(type) {
	case []any:
		for _, item := range v {
			switch s := item.(type) {
			case string:
				out = append(out, s)
			case float64, bool:
				out = append(out, fmt.Sprint(s))
			}
		}
	case string:
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
