package services

import (
	"fmt"

	"gatepass-http-service/models"
)

// 服务层错误分类。每个被拒绝的操作恰好归入其中一类，
// 且被拒绝的转移不产生任何审计事件。

// ValidationError 表示创建输入不合法
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("参数校验失败: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("参数校验失败: %s", e.Message)
}

// NewValidationError 创建一个参数校验错误
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AuthorizationError 表示角色或户号归属检查未通过
type AuthorizationError struct {
	Action  Action
	Message string
}

func (e *AuthorizationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("没有权限执行操作: %s", e.Action)
}

// InvalidStateError 表示从当前状态不允许执行该转移，
// 包括并发竞争中落败的请求（见VisitorService.transition）
type InvalidStateError struct {
	Action  Action
	Current models.VisitorStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("当前状态 %q 不允许执行操作 %s", e.Current, e.Action)
}

// NotFoundError 表示目标资源不存在
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s不存在: id=%d", e.Resource, e.ID)
}
