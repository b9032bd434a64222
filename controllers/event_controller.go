package controllers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gatepass-http-service/internal/error/code"
	"gatepass-http-service/internal/error/response"
	"gatepass-http-service/models"
	"gatepass-http-service/services"
	"gatepass-http-service/services/container"
)

// InterfaceEventController 定义审计事件控制器接口
type InterfaceEventController interface {
	GetEvents()
}

// EventController 处理审计事件查询请求
type EventController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewEventController 创建一个新的审计事件控制器
func NewEventController(ctx *gin.Context, container *container.ServiceContainer) *EventController {
	return &EventController{
		Ctx:       ctx,
		Container: container,
	}
}

// GetEvents 获取审计事件列表
// @Summary      获取审计事件
// @Description  按时间倒序获取审计事件，支持按事件类型与时间范围过滤。仅限管理员与保安。
// @Tags         Event
// @Accept       json
// @Produce      json
// @Param        type query string false "事件类型，如visitor_approved"
// @Param        from query string false "起始时间，RFC3339格式"
// @Param        to query string false "结束时间，RFC3339格式"
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为20"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /events [get]
func (c *EventController) GetEvents() {
	actor := currentActor(c.Ctx)
	if actor == nil {
		response.Unauthorized(c.Ctx)
		return
	}

	// 审计日志仅对管理员与保安开放
	if !actor.Roles.HasAny(models.RoleAdmin, models.RoleGuard) {
		response.Forbidden(c.Ctx, "")
		return
	}

	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filter := services.AuditFilter{
		Type: c.Ctx.Query("type"),
	}
	if raw := c.Ctx.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.ParamError(c.Ctx, "无效的起始时间，应为RFC3339格式")
			return
		}
		filter.From = &t
	}
	if raw := c.Ctx.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.ParamError(c.Ctx, "无效的结束时间，应为RFC3339格式")
			return
		}
		filter.To = &t
	}

	auditService := c.Container.GetService("audit").(services.InterfaceAuditService)
	events, total, err := auditService.ListEvents(filter, page, pageSize)
	if err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"events":      events,
	})
}

// HandleEventFunc 返回一个处理审计事件请求的Gin处理函数
func HandleEventFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewEventController(ctx, container)

		switch method {
		case "getEvents":
			controller.GetEvents()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}
