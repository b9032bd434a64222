package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gatepass-http-service/internal/error/code"
	"gatepass-http-service/internal/error/response"
	"gatepass-http-service/models"
	"gatepass-http-service/services"
	"gatepass-http-service/services/container"
)

// InterfaceHouseholdController 定义户号控制器接口
type InterfaceHouseholdController interface {
	GetHouseholds()
	GetHousehold()
	CreateHousehold()
}

// HouseholdController 处理户号相关的请求
type HouseholdController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewHouseholdController 创建一个新的户号控制器
func NewHouseholdController(ctx *gin.Context, container *container.ServiceContainer) *HouseholdController {
	return &HouseholdController{
		Ctx:       ctx,
		Container: container,
	}
}

// HouseholdRequest 表示创建户号请求
type HouseholdRequest struct {
	FlatNo string `json:"flat_no" binding:"required" example:"A-101"`
	Name   string `json:"name" binding:"omitempty" example:"Sharma Residence"`
}

// GetHouseholds 获取户号列表
// @Summary      获取户号列表
// @Description  分页获取小区内的户号列表
// @Tags         Household
// @Accept       json
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为10"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /households [get]
func (c *HouseholdController) GetHouseholds() {
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	householdService := c.Container.GetService("household").(services.InterfaceHouseholdService)
	households, total, err := householdService.GetAllHouseholds(page, pageSize)
	if err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, nil)
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
			"data":        households,
		},
	})
}

// GetHousehold 获取单个户号
// @Summary      获取户号详情
// @Description  根据ID获取特定户号的详细信息
// @Tags         Household
// @Accept       json
// @Produce      json
// @Param        id path int true "户号ID"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /households/{id} [get]
func (c *HouseholdController) GetHousehold() {
	idUint, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的户号ID")
		return
	}

	householdService := c.Container.GetService("household").(services.InterfaceHouseholdService)
	household, err := householdService.GetHouseholdByID(uint(idUint))
	if err != nil {
		respondServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, household)
}

// CreateHousehold 创建户号
// @Summary      创建户号
// @Description  新建一个户号，仅限管理员
// @Tags         Household
// @Accept       json
// @Produce      json
// @Param        request body HouseholdRequest true "户号信息 - flat_no必填且唯一"
// @Security     BearerAuth
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse "户号已存在或参数无效"
// @Failure      403  {object}  ErrorResponse
// @Router       /households [post]
func (c *HouseholdController) CreateHousehold() {
	var req HouseholdRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数")
		return
	}

	actor := currentActor(c.Ctx)
	if actor == nil {
		response.Unauthorized(c.Ctx)
		return
	}

	household := &models.Household{
		FlatNo: req.FlatNo,
		Name:   req.Name,
	}

	householdService := c.Container.GetService("household").(services.InterfaceHouseholdService)
	if err := householdService.CreateHousehold(actor, household); err != nil {
		respondServiceError(c.Ctx, err)
		return
	}

	c.Ctx.JSON(http.StatusCreated, gin.H{
		"code":    0,
		"message": "户号创建成功",
		"data":    household,
	})
}

// HandleHouseholdFunc 返回一个处理户号请求的Gin处理函数
func HandleHouseholdFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewHouseholdController(ctx, container)

		switch method {
		case "getHouseholds":
			controller.GetHouseholds()
		case "getHousehold":
			controller.GetHousehold()
		case "createHousehold":
			controller.CreateHousehold()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}
