package services

import (
	"errors"
	"testing"

	"gatepass-http-service/models"
)

func newUserService(t *testing.T) (*UserService, InterfaceAuditService) {
	t.Helper()
	db := newTestDB(t)
	cfg := testConfig()
	audit := NewAuditService(db, cfg)
	return NewUserService(db, cfg, audit).(*UserService), audit
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newUserService(t)

	user, err := svc.Register(&RegisterInput{
		Email:       "Priya@Example.com",
		DisplayName: "Priya Sharma",
		Password:    "secret123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "priya@example.com" {
		t.Errorf("邮箱应归一化为小写, got %q", user.Email)
	}
	if !user.Roles.Has(models.RoleResident) {
		t.Errorf("默认角色应为resident, got %v", user.Roles)
	}
	if user.Password == "secret123" {
		t.Error("密码应被哈希存储")
	}

	// 重复邮箱
	_, err = svc.Register(&RegisterInput{
		Email:       "priya@example.com",
		DisplayName: "Someone Else",
		Password:    "secret456",
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("重复邮箱期望ValidationError, got %v", err)
	}

	// 登录成功
	got, err := svc.Login("PRIYA@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("登录返回用户ID = %d, 期望 %d", got.ID, user.ID)
	}

	// 密码错误
	var authErr *AuthorizationError
	if _, err := svc.Login("priya@example.com", "wrong"); !errors.As(err, &authErr) {
		t.Errorf("错误密码期望AuthorizationError, got %v", err)
	}
	// 不存在的邮箱与密码错误返回同样的错误类型
	if _, err := svc.Login("nobody@example.com", "whatever"); !errors.As(err, &authErr) {
		t.Errorf("未知邮箱期望AuthorizationError, got %v", err)
	}
}

func TestRegisterInvalidRole(t *testing.T) {
	svc, _ := newUserService(t)

	_, err := svc.Register(&RegisterInput{
		Email:       "x@example.com",
		DisplayName: "X",
		Password:    "secret123",
		Roles:       []string{"superuser"},
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("无效角色期望ValidationError, got %v", err)
	}
}

func TestUpdateRoles(t *testing.T) {
	svc, _ := newUserService(t)
	admin := seedUser(t, svc.DB, "admin@test.local", nil, models.RoleAdmin)
	resident := seedUser(t, svc.DB, "res@test.local", nil, models.RoleResident)

	// 非管理员被拒
	var authErr *AuthorizationError
	if _, err := svc.UpdateRoles(resident, admin.ID, []string{models.RoleGuard}); !errors.As(err, &authErr) {
		t.Errorf("非管理员改角色期望AuthorizationError, got %v", err)
	}

	// 管理员授予committee角色
	updated, err := svc.UpdateRoles(admin, resident.ID, []string{models.RoleResident, models.RoleCommittee})
	if err != nil {
		t.Fatalf("UpdateRoles: %v", err)
	}
	if !updated.Roles.Has(models.RoleCommittee) {
		t.Errorf("角色未生效: %v", updated.Roles)
	}

	// 变更落库且产生role_changed审计事件
	var fresh models.User
	if err := svc.DB.First(&fresh, resident.ID).Error; err != nil {
		t.Fatal(err)
	}
	if !fresh.Roles.Has(models.RoleCommittee) {
		t.Errorf("数据库中的角色未更新: %v", fresh.Roles)
	}

	var event models.AuditEvent
	if err := svc.DB.Where("type = ?", models.EventRoleChanged).First(&event).Error; err != nil {
		t.Fatalf("查询role_changed事件失败: %v", err)
	}
	if event.Payload["old_roles"] != models.RoleResident {
		t.Errorf("old_roles = %q, 期望 %q", event.Payload["old_roles"], models.RoleResident)
	}
	if event.Payload["new_roles"] != models.RoleResident+","+models.RoleCommittee {
		t.Errorf("new_roles = %q", event.Payload["new_roles"])
	}

	// 空角色列表被拒
	var validationErr *ValidationError
	if _, err := svc.UpdateRoles(admin, resident.ID, nil); !errors.As(err, &validationErr) {
		t.Errorf("空角色列表期望ValidationError, got %v", err)
	}
}
