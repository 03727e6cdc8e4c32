package models

// APIResponse 通用API响应
type APIResponse struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message" example:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// PromptTemplateRequest 保存提示词模板的请求体
type PromptTemplateRequest struct {
	Template string `json:"prompt_template" example:"Analyze the following Reddit content ..."`
}

// CycleResponse 监控周期响应
type CycleResponse struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message" example:"success"`
	Data    CycleResult `json:"data"`
}

// ResponseListResponse 私信列表响应
type ResponseListResponse struct {
	Code    int              `json:"code" example:"0"`
	Message string           `json:"message" example:"success"`
	Data    []ResponseRecord `json:"data"`
}
