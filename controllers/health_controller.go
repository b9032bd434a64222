package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthCheckController 健康检查控制器
type HealthCheckController struct {
	DB *gorm.DB
}

// NewHealthCheckController 创建健康检查控制器实例
func NewHealthCheckController(db *gorm.DB) *HealthCheckController {
	return &HealthCheckController{DB: db}
}

// Ping 健康检查端点
func (h *HealthCheckController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
		"status":  "healthy",
	})
}

// Health 报告数据库连通性
func (h *HealthCheckController) Health(c *gin.Context) {
	dbStatus := "up"
	sqlDB, err := h.DB.DB()
	if err != nil || sqlDB.Ping() != nil {
		dbStatus = "down"
	}

	status := http.StatusOK
	overall := "ok"
	if dbStatus == "down" {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":   overall,
		"database": dbStatus,
	})
}
