package controllers

import (
	"github.com/gin-gonic/gin"

	"gatepass-http-service/internal/error/code"
	"gatepass-http-service/internal/error/response"
	"gatepass-http-service/services"
	"gatepass-http-service/services/container"
)

// InterfaceChatController 定义聊天指令控制器接口
type InterfaceChatController interface {
	ProcessMessage()
}

// ChatController 处理自然语言指令请求
type ChatController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewChatController 创建一个新的聊天指令控制器
func NewChatController(ctx *gin.Context, container *container.ServiceContainer) *ChatController {
	return &ChatController{
		Ctx:       ctx,
		Container: container,
	}
}

// ChatRequest 表示聊天指令请求
type ChatRequest struct {
	Message string `json:"message" binding:"required" example:"approve Ramesh"`
}

// ProcessMessage 处理一条自然语言指令
// @Summary      处理聊天指令
// @Description  解析一条自由文本指令并执行至多一次访客生命周期操作。无法识别的指令返回帮助信息，同样是200响应。
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        request body ChatRequest true "指令文本"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{} "包含response、action_taken与details"
// @Failure      400  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse "请求频率过高"
// @Failure      500  {object}  ErrorResponse
// @Router       /chat [post]
func (c *ChatController) ProcessMessage() {
	var req ChatRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "指令文本不能为空")
		return
	}

	actor := currentActor(c.Ctx)
	if actor == nil {
		response.Unauthorized(c.Ctx)
		return
	}

	chatService := c.Container.GetService("chat").(services.InterfaceChatService)
	result, err := chatService.ProcessMessage(c.Ctx.Request.Context(), actor, req.Message)
	if err != nil {
		response.Fail(c.Ctx, code.ErrChatFailed, nil)
		return
	}

	response.Success(c.Ctx, result)
}

// HandleChatFunc 返回一个处理聊天指令请求的Gin处理函数
func HandleChatFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewChatController(ctx, container)

		switch method {
		case "processMessage":
			controller.ProcessMessage()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}
