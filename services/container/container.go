package container

import (
	"context"
	"sync"

	"gatepass-http-service/config"
	"gatepass-http-service/services"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client

	// 基础服务
	jwtService   services.InterfaceJWTService
	redisService *services.RedisService

	// 核心业务服务
	auditService   services.InterfaceAuditService
	visitorService services.InterfaceVisitorService
	nluService     services.InterfaceNLUService
	chatService    services.InterfaceChatService

	// 周边业务服务
	userService      services.InterfaceUserService
	householdService services.InterfaceHouseholdService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
		redis:  redisClient,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化基础服务
	c.jwtService = services.NewJWTService(c.config)

	// 初始化Redis服务（未配置Redis时为nil，限流退化为本地令牌桶）
	if c.redis != nil {
		c.redisService = &services.RedisService{Client: c.redis, Ctx: context.Background()}
	}

	// 初始化核心业务服务，依赖顺序：审计 -> 生命周期引擎 -> NLU -> 聊天解释器
	c.auditService = services.NewAuditService(c.db, c.config)
	c.visitorService = services.NewVisitorService(c.db, c.config, c.auditService)
	c.nluService = services.NewNLUService(c.config)
	c.chatService = services.NewChatService(c.config, c.nluService, c.visitorService)

	// 初始化周边业务服务
	c.userService = services.NewUserService(c.db, c.config, c.auditService)
	c.householdService = services.NewHouseholdService(c.db, c.config)
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "jwt":
		return c.jwtService
	case "redis":
		return c.redisService
	case "audit":
		return c.auditService
	case "visitor":
		return c.visitorService
	case "nlu":
		return c.nluService
	case "chat":
		return c.chatService
	case "user":
		return c.userService
	case "household":
		return c.householdService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// GetConfig 获取配置
func (c *ServiceContainer) GetConfig() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// GetRedisService 获取Redis服务，可能为nil
func (c *ServiceContainer) GetRedisService() *services.RedisService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.redisService
}
