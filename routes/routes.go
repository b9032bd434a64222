package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"gatepass-http-service/config"
	"gatepass-http-service/controllers"
	"gatepass-http-service/middleware"
	"gatepass-http-service/models"
	"gatepass-http-service/services"
	"gatepass-http-service/services/container"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *gin.Engine {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	// 设置正确的Content-Type，确保UTF-8编码
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Next()
	})
	// 创建服务容器
	serviceContainer := container.NewServiceContainer(db, cfg, redisClient)
	// 初始化中间件
	middleware.InitAuthMiddleware(cfg, db)
	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册路由
	registerRoutes(r, serviceContainer, cfg)
	return r
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
	cfg *config.Config,
) {
	// API 路由根路径
	api := r.Group("/api")
	// 注册公共路由
	registerPublicRoutes(api, container)
	// 注册需要认证的路由
	registerAuthenticatedRoutes(api, container, cfg)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 健康检查
	healthController := controllers.NewHealthCheckController(container.GetDB())
	api.GET("/ping", healthController.Ping)
	api.GET("/health", healthController.Health)

	// 认证路由，按IP限流防止暴力破解
	authLimiter := middleware.IPRateLimiter(1, 5)
	api.POST("/auth/register", authLimiter, controllers.HandleUserFunc(container, "register"))
	api.POST("/auth/login", authLimiter, controllers.HandleUserFunc(container, "login"))
}

// registerAuthenticatedRoutes 注册需要认证的路由
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
	cfg *config.Config,
) {
	// 添加认证中间件
	auth := api.Group("/")
	auth.Use(middleware.Authenticate())

	// 当前用户
	auth.GET("/auth/me", controllers.HandleUserFunc(container, "getMe"))

	// 访客路由
	auth.Group("/visitors").GET("", controllers.HandleVisitorFunc(container, "getVisitors"))
	auth.Group("/visitors").GET("/:id", controllers.HandleVisitorFunc(container, "getVisitor"))
	auth.Group("/visitors").POST("", controllers.HandleVisitorFunc(container, "createVisitor"))
	auth.Group("/visitors").POST("/approve", controllers.HandleVisitorFunc(container, "approveVisitor"))
	auth.Group("/visitors").POST("/deny", controllers.HandleVisitorFunc(container, "denyVisitor"))
	auth.Group("/visitors").POST("/checkin", controllers.HandleVisitorFunc(container, "checkinVisitor"))
	auth.Group("/visitors").POST("/checkout", controllers.HandleVisitorFunc(container, "checkoutVisitor"))

	// 聊天指令路由，按用户限流
	redisService := container.GetService("redis").(*services.RedisService)
	auth.POST("/chat",
		middleware.ChatRateLimiter(redisService, cfg.ChatRateLimit, time.Minute),
		controllers.HandleChatFunc(container, "processMessage"))

	// 审计事件路由，仅管理员与保安可访问
	auth.GET("/events",
		middleware.RequireRole(models.RoleAdmin, models.RoleGuard),
		controllers.HandleEventFunc(container, "getEvents"))

	// 户号路由
	auth.Group("/households").GET("", controllers.HandleHouseholdFunc(container, "getHouseholds"))
	auth.Group("/households").GET("/:id", controllers.HandleHouseholdFunc(container, "getHousehold"))
	auth.Group("/households").POST("", controllers.HandleHouseholdFunc(container, "createHousehold"))

	// 用户角色管理路由
	auth.PUT("/users/:id/roles", controllers.HandleUserFunc(container, "updateUserRoles"))
}
