package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"gatepass-http-service/internal/error/code"
	"gatepass-http-service/internal/error/response"
	"gatepass-http-service/models"
	"gatepass-http-service/services"
	"gatepass-http-service/services/container"
)

// BaseController 是所有控制器的基础接口
type BaseController interface {
	// 获取服务容器
	GetContainer() *container.ServiceContainer
	// 获取Gin上下文
	GetContext() *gin.Context
}

// BaseControllerImpl 是控制器的基础实现
type BaseControllerImpl struct {
	Container *container.ServiceContainer
	Context   *gin.Context
}

// GetContainer 实现 BaseController 接口
func (c *BaseControllerImpl) GetContainer() *container.ServiceContainer {
	return c.Container
}

// GetContext 实现 BaseController 接口
func (c *BaseControllerImpl) GetContext() *gin.Context {
	return c.Context
}

// ControllerFactory 用于创建控制器的工厂
type ControllerFactory struct {
	Container *container.ServiceContainer
}

// NewControllerFactory 创建一个新的控制器工厂
func NewControllerFactory(container *container.ServiceContainer) *ControllerFactory {
	return &ControllerFactory{
		Container: container,
	}
}

// ErrorResponse 表示错误响应
type ErrorResponse struct {
	Code    int         `json:"code" example:"401"`
	Message string      `json:"message" example:"权限不足"`
	Data    interface{} `json:"data"`
}

// currentActor 取出认证中间件写入上下文的当前用户
func currentActor(ctx *gin.Context) *models.User {
	value, exists := ctx.Get("actor")
	if !exists {
		return nil
	}
	actor, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return actor
}

// respondServiceError 将服务层的类型化错误映射为统一的错误响应
func respondServiceError(ctx *gin.Context, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		response.FailWithMessage(ctx, code.ErrValidation, validationErr.Message, nil)
		return
	}

	var authzErr *services.AuthorizationError
	if errors.As(err, &authzErr) {
		response.FailWithMessage(ctx, code.ErrPermissionDenied, authzErr.Message, nil)
		return
	}

	var stateErr *services.InvalidStateError
	if errors.As(err, &stateErr) {
		response.FailWithMessage(ctx, code.ErrVisitorInvalidState,
			code.GetMessage(code.ErrVisitorInvalidState),
			gin.H{"current_status": stateErr.Current})
		return
	}

	var notFoundErr *services.NotFoundError
	if errors.As(err, &notFoundErr) {
		switch notFoundErr.Resource {
		case "访客":
			response.Fail(ctx, code.ErrVisitorNotFound, nil)
		case "用户":
			response.Fail(ctx, code.ErrUserNotFound, nil)
		case "户号":
			response.Fail(ctx, code.ErrHouseholdNotFound, nil)
		default:
			response.Fail(ctx, code.ErrUnknown, nil)
		}
		return
	}

	response.Fail(ctx, code.ErrDatabase, nil)
}
