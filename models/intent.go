package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrUnknownCategory 无法识别的意向类别
	ErrUnknownCategory = errors.New("unknown intent category")
	// ErrInvalidThreshold 阈值配置不合法，调用方必须在任何模型调用之前处理
	ErrInvalidThreshold = errors.New("invalid intent threshold")
)

// Category 购买意向类别，按序比较：NONE < LOW < MEDIUM < HIGH
type Category int

const (
	CategoryNone Category = iota
	CategoryLow
	CategoryMedium
	CategoryHigh
)

var categoryNames = [...]string{"NONE", "LOW", "MEDIUM", "HIGH"}

// String 返回类别名称
func (c Category) String() string {
	if c < CategoryNone || c > CategoryHigh {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Rank 类别的序数：NONE=0, LOW=1, MEDIUM=2, HIGH=3
func (c Category) Rank() int {
	return int(c)
}

// Valid 是否为四个已知类别之一
func (c Category) Valid() bool {
	return c >= CategoryNone && c <= CategoryHigh
}

// AtLeast 序数比较，c >= min
func (c Category) AtLeast(min Category) bool {
	return c.Rank() >= min.Rank()
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory 解析类别名称，忽略大小写与首尾空白
func ParseCategory(s string) (Category, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return CategoryNone, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// IntentAssessment 单个内容节点的意向评估结果
type IntentAssessment struct {
	Category            Category       `json:"intent_category"`
	Confidence          float64        `json:"confidence"`
	ProductsServices    []string       `json:"products_services"`
	Needs               []string       `json:"needs"`
	Timeframe           string         `json:"timeframe"`
	RecommendedResponse string         `json:"recommended_response"`
	Raw                 map[string]any `json:"raw_analysis"`
}

// DefaultTimeframe 模型未给出购买时间时的取值
const DefaultTimeframe = "unknown"

// EmptyTextAssessment 空文本的评估：无意向且确信
func EmptyTextAssessment() IntentAssessment {
	a := FailedAssessment()
	a.Confidence = 1.0
	return a
}

// FailedAssessment 模型调用或解析失败时的默认评估
func FailedAssessment() IntentAssessment {
	return IntentAssessment{
		Category:         CategoryNone,
		Confidence:       0.0,
		ProductsServices: []string{},
		Needs:            []string{},
		Timeframe:        DefaultTimeframe,
		Raw:              map[string]any{},
	}
}

// Clone 深拷贝，切片与 Raw（含嵌套的对象和数组）不与原值共享
func (a IntentAssessment) Clone() IntentAssessment {
	out := a
	out.ProductsServices = append([]string{}, a.ProductsServices...)
	out.Needs = append([]string{}, a.Needs...)
	out.Raw = make(map[string]any, len(a.Raw))
	for k, v := range a.Raw {
		out.Raw[k] = cloneValue(v)
	}
	return out
}

// cloneValue 复制 JSON 解码得到的值
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	case []string:
		return append([]string{}, t...)
	default:
		return v
	}
}

// IntentThreshold 过滤与批量生成共用的阈值
type IntentThreshold struct {
	MinCategory   Category `json:"min_intent"`
	MinConfidence float64  `json:"min_confidence"`
}

// NewThreshold 校验并构造阈值。NONE 是合法的评估值，但不能作为过滤下限
func NewThreshold(minIntent string, minConfidence float64) (IntentThreshold, error) {
	category, err := ParseCategory(minIntent)
	if err != nil {
		return IntentThreshold{}, fmt.Errorf("%w: min_intent %q must be one of HIGH, MEDIUM, LOW", ErrInvalidThreshold, minIntent)
	}
	t := IntentThreshold{MinCategory: category, MinConfidence: minConfidence}
	if err := t.Validate(); err != nil {
		return IntentThreshold{}, err
	}
	return t, nil
}

// Validate 检查阈值是否合法
func (t IntentThreshold) Validate() error {
	if err := ValidateMinCategory(t.MinCategory); err != nil {
		return err
	}
	if math.IsNaN(t.MinConfidence) || t.MinConfidence < 0 || t.MinConfidence > 1 {
		return fmt.Errorf("%w: min_confidence %v must be within [0, 1]", ErrInvalidThreshold, t.MinConfidence)
	}
	return nil
}

// ValidateMinCategory 过滤下限只能是 LOW / MEDIUM / HIGH
func ValidateMinCategory(c Category) error {
	if !c.Valid() || c == CategoryNone {
		return fmt.Errorf("%w: min_intent %s must be one of HIGH, MEDIUM, LOW", ErrInvalidThreshold, c)
	}
	return nil
}

// Qualifies 类别序数不低于下限且置信度 >= 下限
func (t IntentThreshold) Qualifies(a *IntentAssessment) bool {
	if a == nil {
		return false
	}
	return a.Category.AtLeast(t.MinCategory) && a.Confidence >= t.MinConfidence
}
