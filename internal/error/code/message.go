package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:          "成功",
	ErrUnknown:          "未知错误",
	ErrBind:             "请求参数绑定错误",
	ErrValidation:       "请求参数验证错误",
	ErrTokenInvalid:     "无效的认证令牌",
	ErrPermissionDenied: "权限不足",
	ErrTooManyRequests:  "请求频率过高，请稍后再试",

	// 用户相关错误码
	ErrUserNotFound:          "用户不存在",
	ErrUserAlreadyExist:      "用户已存在",
	ErrUserPasswordIncorrect: "邮箱或密码错误",

	// 访客相关错误码
	ErrVisitorNotFound:     "访客不存在",
	ErrVisitorInvalidState: "访客当前状态不允许该操作",

	// 户号相关错误码
	ErrHouseholdNotFound:     "户号不存在",
	ErrHouseholdAlreadyExist: "户号已存在",

	// 聊天相关错误码
	ErrChatFailed: "指令处理失败",

	// 数据库相关错误码
	ErrDatabase: "数据库错误",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:          StatusOK,
	ErrUnknown:          StatusInternalServerError,
	ErrBind:             StatusBadRequest,
	ErrValidation:       StatusBadRequest,
	ErrTokenInvalid:     StatusUnauthorized,
	ErrPermissionDenied: StatusForbidden,
	ErrTooManyRequests:  StatusTooManyRequests,

	// 用户相关错误码
	ErrUserNotFound:          StatusNotFound,
	ErrUserAlreadyExist:      StatusBadRequest,
	ErrUserPasswordIncorrect: StatusUnauthorized,

	// 访客相关错误码
	ErrVisitorNotFound:     StatusNotFound,
	ErrVisitorInvalidState: StatusConflict,

	// 户号相关错误码
	ErrHouseholdNotFound:     StatusNotFound,
	ErrHouseholdAlreadyExist: StatusBadRequest,

	// 聊天相关错误码
	ErrChatFailed: StatusInternalServerError,

	// 数据库相关错误码
	ErrDatabase: StatusInternalServerError,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "未知错误"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
