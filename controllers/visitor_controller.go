package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gatepass-http-service/internal/error/code"
	"gatepass-http-service/internal/error/response"
	"gatepass-http-service/models"
	"gatepass-http-service/services"
	"gatepass-http-service/services/container"
)

// InterfaceVisitorController 定义访客控制器接口
type InterfaceVisitorController interface {
	GetVisitors()
	GetVisitor()
	CreateVisitor()
	ApproveVisitor()
	DenyVisitor()
	CheckinVisitor()
	CheckoutVisitor()
}

// VisitorController 处理访客相关的请求
type VisitorController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewVisitorController 创建一个新的访客控制器
func NewVisitorController(ctx *gin.Context, container *container.ServiceContainer) *VisitorController {
	return &VisitorController{
		Ctx:       ctx,
		Container: container,
	}
}

// VisitorRequest 表示创建访客请求
type VisitorRequest struct {
	Name          string     `json:"name" binding:"required" example:"Ramesh Kumar"`
	Phone         string     `json:"phone" binding:"omitempty" example:"13812345678"`
	Purpose       string     `json:"purpose" binding:"omitempty" example:"maintenance"`
	ScheduledTime *time.Time `json:"scheduled_time" binding:"omitempty"`
}

// TransitionRequest 表示访客状态转移请求，reason仅在拒绝时有意义
type TransitionRequest struct {
	VisitorID uint   `json:"visitor_id" binding:"required" example:"12"`
	Reason    string `json:"reason" binding:"omitempty" example:"Not expecting anyone"`
}

// GetVisitors 获取访客列表
// @Summary      获取访客列表
// @Description  获取当前用户可见的访客列表（管理员与保安可见全部，住户仅可见本户）
// @Tags         Visitor
// @Accept       json
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为10"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /visitors [get]
func (c *VisitorController) GetVisitors() {
	// 获取分页参数
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	actor := currentActor(c.Ctx)
	if actor == nil {
		response.Unauthorized(c.Ctx)
		return
	}

	// 使用 VisitorService 获取访客列表
	visitorService := c.Container.GetService("visitor").(services.InterfaceVisitorService)
	visitors, total, err := visitorService.ListVisitors(actor, page, pageSize)
	if err != nil {
		respondServiceError(c.Ctx, err)
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data": gin.H{
			"total":       total,
			"page":        page,
			"page_size":   pageSize,
			"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
			"data":        visitors,
		},
	})
}

// GetVisitor 获取单个访客
// @Summary      获取访客详情
// @Description  根据ID获取特定访客的详细信息
// @Tags         Visitor
// @Accept       json
// @Produce      json
// @Param        id path int true "访客ID"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /visitors/{id} [get]
func (c *VisitorController) GetVisitor() {
	idUint, err := services.ParseVisitorID(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的访客ID")
		return
	}

	actor := currentActor(c.Ctx)
	if actor == nil {
		response.Unauthorized(c.Ctx)
		return
	}

	visitorService := c.Container.GetService("visitor").(services.InterfaceVisitorService)
	visitor, err := visitorService.GetVisitorByID(actor, idUint)
	if err != nil {
		respondServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, visitor)
}

// CreateVisitor 创建访客申请
// @Summary      创建访客
// @Description  登记一条新的访客申请，初始状态为pending
// @Tags         Visitor
// @Accept       json
// @Produce      json
// @Param        request body VisitorRequest true "访客信息 - 姓名必填"
// @Security     BearerAuth
// @Success      201  {object}  map[string]interface{} "成功响应，包含创建的访客详情"
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /visitors [post]
func (c *VisitorController) CreateVisitor() {
	var req VisitorRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数")
		return
	}

	actor := currentActor(c.Ctx)
	if actor == nil {
		response.Unauthorized(c.Ctx)
		return
	}

	visitorService := c.Container.GetService("visitor").(services.InterfaceVisitorService)
	visitor, err := visitorService.CreateVisitor(actor, &services.CreateVisitorInput{
		Name:          req.Name,
		Phone:         req.Phone,
		Purpose:       req.Purpose,
		ScheduledTime: req.ScheduledTime,
	})
	if err != nil {
		respondServiceError(c.Ctx, err)
		return
	}

	c.Ctx.JSON(http.StatusCreated, gin.H{
		"code":    0,
		"message": "访客创建成功",
		"data":    visitor,
	})
}

// ApproveVisitor 批准访客
// @Summary      批准访客
// @Description  将pending状态的访客批准为approved，仅限本户住户或管理员
// @Tags         Visitor
// @Accept       json
// @Produce      json
// @Param        request body TransitionRequest true "访客ID"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "访客当前状态不允许该操作"
// @Router       /visitors/approve [post]
func (c *VisitorController) ApproveVisitor() {
	c.transition(func(visitorService services.InterfaceVisitorService, actor *models.User, req *TransitionRequest) (interface{}, error) {
		return visitorService.Approve(actor, req.VisitorID)
	})
}

// DenyVisitor 拒绝访客
// @Summary      拒绝访客
// @Description  将pending状态的访客拒绝为denied，可附带原因，仅限本户住户或管理员
// @Tags         Visitor
// @Accept       json
// @Produce      json
// @Param        request body TransitionRequest true "访客ID与可选的拒绝原因"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "访客当前状态不允许该操作"
// @Router       /visitors/deny [post]
func (c *VisitorController) DenyVisitor() {
	c.transition(func(visitorService services.InterfaceVisitorService, actor *models.User, req *TransitionRequest) (interface{}, error) {
		return visitorService.Deny(actor, req.VisitorID, req.Reason)
	})
}

// CheckinVisitor 访客入场登记
// @Summary      访客入场
// @Description  将approved状态的访客登记为checked_in，仅限保安或管理员
// @Tags         Visitor
// @Accept       json
// @Produce      json
// @Param        request body TransitionRequest true "访客ID"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "访客当前状态不允许该操作"
// @Router       /visitors/checkin [post]
func (c *VisitorController) CheckinVisitor() {
	c.transition(func(visitorService services.InterfaceVisitorService, actor *models.User, req *TransitionRequest) (interface{}, error) {
		return visitorService.CheckIn(actor, req.VisitorID)
	})
}

// CheckoutVisitor 访客离场登记
// @Summary      访客离场
// @Description  将checked_in状态的访客登记为checked_out，仅限保安或管理员
// @Tags         Visitor
// @Accept       json
// @Produce      json
// @Param        request body TransitionRequest true "访客ID"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "访客当前状态不允许该操作"
// @Router       /visitors/checkout [post]
func (c *VisitorController) CheckoutVisitor() {
	c.transition(func(visitorService services.InterfaceVisitorService, actor *models.User, req *TransitionRequest) (interface{}, error) {
		return visitorService.CheckOut(actor, req.VisitorID)
	})
}

// transition 绑定转移请求，执行一次生命周期转移并输出统一响应
func (c *VisitorController) transition(run func(services.InterfaceVisitorService, *models.User, *TransitionRequest) (interface{}, error)) {
	var req TransitionRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的访客ID")
		return
	}

	actor := currentActor(c.Ctx)
	if actor == nil {
		response.Unauthorized(c.Ctx)
		return
	}

	visitorService := c.Container.GetService("visitor").(services.InterfaceVisitorService)
	visitor, err := run(visitorService, actor, &req)
	if err != nil {
		respondServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, visitor)
}

// HandleVisitorFunc 返回一个处理访客请求的Gin处理函数
func HandleVisitorFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewVisitorController(ctx, container)

		switch method {
		case "getVisitors":
			controller.GetVisitors()
		case "getVisitor":
			controller.GetVisitor()
		case "createVisitor":
			controller.CreateVisitor()
		case "approveVisitor":
			controller.ApproveVisitor()
		case "denyVisitor":
			controller.DenyVisitor()
		case "checkinVisitor":
			controller.CheckinVisitor()
		case "checkoutVisitor":
			controller.CheckoutVisitor()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}
