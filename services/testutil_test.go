package services

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gatepass-http-service/config"
	"gatepass-http-service/models"
)

// newTestDB 创建一个共享缓存的内存数据库。
// 最大连接数限制为1，并发事务在驱动层串行化，
// 与生产环境中行级锁的效果一致。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.Household{},
		&models.User{},
		&models.Visitor{},
		&models.AuditEvent{},
	); err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecretKey:  "test-secret",
		ChatRateLimit: 30,
	}
}

// seedHousehold 创建一个户号
func seedHousehold(t *testing.T, db *gorm.DB, flatNo string) *models.Household {
	t.Helper()
	h := &models.Household{FlatNo: flatNo, Name: flatNo + " Residence"}
	if err := db.Create(h).Error; err != nil {
		t.Fatalf("创建测试户号失败: %v", err)
	}
	return h
}

// seedUser 创建一个用户
func seedUser(t *testing.T, db *gorm.DB, email string, householdID *uint, roles ...string) *models.User {
	t.Helper()
	u := &models.User{
		Email:       email,
		DisplayName: email,
		Password:    "password123",
		HouseholdID: householdID,
		Roles:       models.RoleList(roles),
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("创建测试用户失败: %v", err)
	}
	return u
}

// seedVisitor 创建一个指定状态的访客
func seedVisitor(t *testing.T, db *gorm.DB, name string, householdID uint, status models.VisitorStatus) *models.Visitor {
	t.Helper()
	v := &models.Visitor{
		Name:            name,
		Phone:           "13800001234",
		Purpose:         "delivery",
		Status:          status,
		HostHouseholdID: householdID,
	}
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("创建测试访客失败: %v", err)
	}
	return v
}

// countEvents 统计指定类型的审计事件数
func countEvents(t *testing.T, db *gorm.DB, eventType models.EventType) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.AuditEvent{}).Where("type = ?", eventType).Count(&count).Error; err != nil {
		t.Fatalf("统计审计事件失败: %v", err)
	}
	return count
}
