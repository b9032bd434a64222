package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gatepass-http-service/internal/error/code"
	"gatepass-http-service/internal/error/response"
	"gatepass-http-service/services"
	"gatepass-http-service/services/container"
)

// InterfaceUserController 定义用户控制器接口
type InterfaceUserController interface {
	Register()
	Login()
	GetMe()
	UpdateUserRoles()
}

// UserController 处理用户与认证相关的请求
type UserController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewUserController 创建一个新的用户控制器
func NewUserController(ctx *gin.Context, container *container.ServiceContainer) *UserController {
	return &UserController{
		Ctx:       ctx,
		Container: container,
	}
}

// RegisterRequest 表示注册请求
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email" example:"priya@example.com"`
	DisplayName string `json:"display_name" binding:"required" example:"Priya Sharma"`
	Phone       string `json:"phone" binding:"omitempty" example:"13812345678"`
	Password    string `json:"password" binding:"required,min=8" example:"secret123"`
	HouseholdID *uint  `json:"household_id" binding:"omitempty" example:"3"`
}

// LoginRequest 表示登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"priya@example.com"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

// LoginData 表示登录成功后返回的数据
type LoginData struct {
	Token       string   `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	UserID      uint     `json:"user_id" example:"1"`
	Roles       []string `json:"roles" example:"resident"`
	DisplayName string   `json:"display_name" example:"Priya Sharma"`
}

// UpdateRolesRequest 表示角色变更请求
type UpdateRolesRequest struct {
	Roles []string `json:"roles" binding:"required,min=1" example:"resident,committee"`
}

// Register 注册新用户
// @Summary      用户注册
// @Description  注册新账户，默认角色为resident
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "注册信息"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse "邮箱已被使用或参数无效"
// @Router       /auth/register [post]
func (c *UserController) Register() {
	var req RegisterRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数")
		return
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	user, err := userService.Register(&services.RegisterInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Password:    req.Password,
		HouseholdID: req.HouseholdID,
	})
	if err != nil {
		respondServiceError(c.Ctx, err)
		return
	}

	c.Ctx.JSON(http.StatusCreated, gin.H{
		"code":    0,
		"message": "注册成功",
		"data":    user,
	})
}

// Login 处理用户登录
// @Summary      用户登录
// @Description  校验邮箱与密码并返回JWT令牌
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "登录参数"
// @Success      200  {object}  map[string]interface{}  "成功响应，包含token"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse "邮箱或密码错误"
// @Router       /auth/login [post]
func (c *UserController) Login() {
	var req LoginRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数")
		return
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	user, err := userService.Login(req.Email, req.Password)
	if err != nil {
		response.Fail(c.Ctx, code.ErrUserPasswordIncorrect, nil)
		return
	}

	jwtService := c.Container.GetService("jwt").(services.InterfaceJWTService)
	token, err := jwtService.GenerateToken(user.ID)
	if err != nil {
		response.ServerError(c.Ctx)
		return
	}

	response.Success(c.Ctx, LoginData{
		Token:       token,
		UserID:      user.ID,
		Roles:       user.Roles,
		DisplayName: user.DisplayName,
	})
}

// GetMe 获取当前用户信息
// @Summary      获取当前用户
// @Description  返回当前令牌对应的用户信息
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/me [get]
func (c *UserController) GetMe() {
	actor := currentActor(c.Ctx)
	if actor == nil {
		response.Unauthorized(c.Ctx)
		return
	}

	response.Success(c.Ctx, actor)
}

// UpdateUserRoles 更新用户角色
// @Summary      更新用户角色
// @Description  替换目标用户的角色集合，仅限管理员。变更会记录一条role_changed审计事件并即时生效。
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        id path int true "用户ID"
// @Param        request body UpdateRolesRequest true "新的角色集合"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id}/roles [put]
func (c *UserController) UpdateUserRoles() {
	idUint, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的用户ID")
		return
	}

	var req UpdateRolesRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数")
		return
	}

	actor := currentActor(c.Ctx)
	if actor == nil {
		response.Unauthorized(c.Ctx)
		return
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	user, err := userService.UpdateRoles(actor, uint(idUint), req.Roles)
	if err != nil {
		respondServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, user)
}

// HandleUserFunc 返回一个处理用户请求的Gin处理函数
func HandleUserFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewUserController(ctx, container)

		switch method {
		case "register":
			controller.Register()
		case "login":
			controller.Login()
		case "getMe":
			controller.GetMe()
		case "updateUserRoles":
			controller.UpdateUserRoles()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}
