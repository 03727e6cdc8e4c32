package models

// 响应码定义
const (
	// 成功
	CodeSuccess = 0

	// 客户端错误 (1000-1999)
	CodeInvalidParams     = 1000 // 无效的参数
	CodeMissingParams     = 1001 // 缺少必要参数
	CodeInvalidThreshold  = 1002 // 意向阈值不合法
	CodeInvalidTemplate   = 1003 // 提示词模板不合法
	CodeNotFound          = 1004 // 数据不存在
	CodeAlreadySent       = 1005 // 私信已发送
	CodeRecipientCooldown = 1006 // 用户仍在冷却期

	// 服务端错误 (2000-2999)
	CodeServerError        = 2000 // 服务器内部错误
	CodeDatabaseError      = 2001 // 数据库错误
	CodeCycleError         = 2002 // 监控周期执行错误
	CodeCycleRunning       = 2003 // 已有监控周期在执行
	CodeMessagingDisabled  = 2004 // 私信发送未启用
	CodeThirdPartyAPIError = 2005 // 第三方API错误
)

// 错误码对应的消息
var CodeMessages = map[int]string{
	CodeSuccess:            "success",
	CodeInvalidParams:      "无效的参数",
	CodeMissingParams:      "缺少必要参数",
	CodeInvalidThreshold:   "意向阈值不合法",
	CodeInvalidTemplate:    "提示词模板不合法",
	CodeNotFound:           "数据不存在",
	CodeAlreadySent:        "私信已发送",
	CodeRecipientCooldown:  "用户仍在冷却期",
	CodeServerError:        "服务器内部错误",
	CodeDatabaseError:      "数据库错误",
	CodeCycleError:         "监控周期执行错误",
	CodeCycleRunning:       "已有监控周期在执行",
	CodeMessagingDisabled:  "私信发送未启用",
	CodeThirdPartyAPIError: "第三方API错误",
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Code:    CodeSuccess,
		Message: CodeMessages[CodeSuccess],
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, data interface{}) APIResponse {
	message, exists := CodeMessages[code]
	if !exists {
		message = "未知错误"
	}
	return APIResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// NewCustomErrorResponse 创建自定义错误消息的响应
func NewCustomErrorResponse(code int, message string, data interface{}) APIResponse {
	return APIResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}
