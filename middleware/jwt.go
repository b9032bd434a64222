package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gatepass-http-service/config"
	"gatepass-http-service/models"
	"gatepass-http-service/services"
)

var (
	jwtService services.InterfaceJWTService
	authDB     *gorm.DB
)

// InitAuthMiddleware 初始化认证中间件
func InitAuthMiddleware(cfg *config.Config, db *gorm.DB) {
	jwtService = services.NewJWTService(cfg)
	authDB = db
}

// extractToken 从授权头中提取token
func extractToken(authHeader string) string {
	// 检查并移除 "Bearer " 前缀
	if len(authHeader) > 7 && strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return authHeader
}

// Authenticate 通用的认证中间件。
// 令牌只携带用户ID，角色每次请求都从数据库重新加载，
// 角色变更对后续请求即时生效。
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Authorization header is required",
				"data":    nil,
			})
			c.Abort()
			return
		}

		tokenString := extractToken(authHeader)
		userID, err := jwtService.ExtractUserID(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Invalid or expired token",
				"data":    nil,
			})
			c.Abort()
			return
		}

		var user models.User
		if err := authDB.First(&user, userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Invalid token: user no longer exists",
				"data":    nil,
			})
			c.Abort()
			return
		}

		c.Set("userID", user.ID)
		c.Set("actor", &user)
		c.Next()
	}
}

// RequireRole 验证当前用户至少持有给定角色之一
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := CurrentActor(c)
		if actor == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Authentication required",
				"data":    nil,
			})
			c.Abort()
			return
		}
		if !actor.Roles.HasAny(roles...) {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "Insufficient permissions",
				"data":    nil,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentActor 返回认证中间件载入的当前用户，未认证时返回nil
func CurrentActor(c *gin.Context) *models.User {
	value, exists := c.Get("actor")
	if !exists {
		return nil
	}
	actor, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return actor
}
