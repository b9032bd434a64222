package services

import (
	"errors"
	"strings"

	"gatepass-http-service/config"
	"gatepass-http-service/models"
	"gatepass-http-service/utils"

	"gorm.io/gorm"
)

// InterfaceUserService defines the user service interface
type InterfaceUserService interface {
	Register(input *RegisterInput) (*models.User, error)
	Login(email, password string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	UpdateRoles(actor *models.User, userID uint, roles []string) (*models.User, error)
}

// RegisterInput 注册用户的输入字段
type RegisterInput struct {
	Email       string
	DisplayName string
	Phone       string
	Password    string
	HouseholdID *uint
	Roles       []string
}

// UserService 提供用户（身份协作方）相关的服务
type UserService struct {
	DB     *gorm.DB
	Config *config.Config
	Audit  InterfaceAuditService
}

// NewUserService 创建一个新的用户服务
func NewUserService(db *gorm.DB, cfg *config.Config, audit InterfaceAuditService) InterfaceUserService {
	return &UserService{
		DB:     db,
		Config: cfg,
		Audit:  audit,
	}
}

// 1 Register 注册新用户，默认角色为resident
func (s *UserService) Register(input *RegisterInput) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return nil, NewValidationError("email", "邮箱不能为空")
	}
	if strings.TrimSpace(input.DisplayName) == "" {
		return nil, NewValidationError("display_name", "显示名不能为空")
	}
	if input.Password == "" {
		return nil, NewValidationError("password", "密码不能为空")
	}

	roles := input.Roles
	if len(roles) == 0 {
		roles = []string{models.RoleResident}
	}
	for _, role := range roles {
		if !models.IsValidRole(role) {
			return nil, NewValidationError("roles", "无效的角色: "+role)
		}
	}

	// 验证邮箱唯一性
	var count int64
	if err := s.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, NewValidationError("email", "邮箱已被注册")
	}

	user := &models.User{
		Email:       email,
		DisplayName: strings.TrimSpace(input.DisplayName),
		Phone:       input.Phone,
		Password:    input.Password, // BeforeCreate钩子负责哈希
		HouseholdID: input.HouseholdID,
		Roles:       roles,
	}

	if err := s.DB.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// 2 Login 校验邮箱与密码
func (s *UserService) Login(email, password string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("email = ?", strings.TrimSpace(strings.ToLower(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &AuthorizationError{Message: "邮箱或密码错误"}
		}
		return nil, err
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, &AuthorizationError{Message: "邮箱或密码错误"}
	}
	return &user, nil
}

// 3 GetUserByID 根据ID获取用户
func (s *UserService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "用户", ID: id}
		}
		return nil, err
	}
	return &user, nil
}

// 4 UpdateRoles 替换用户的角色集合，仅admin可操作，写入role_changed审计事件
func (s *UserService) UpdateRoles(actor *models.User, userID uint, roles []string) (*models.User, error) {
	if actor == nil || !actor.Roles.Has(models.RoleAdmin) {
		return nil, &AuthorizationError{Message: "只有管理员可以修改用户角色"}
	}
	if len(roles) == 0 {
		return nil, NewValidationError("roles", "角色列表不能为空")
	}
	for _, role := range roles {
		if !models.IsValidRole(role) {
			return nil, NewValidationError("roles", "无效的角色: "+role)
		}
	}

	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	oldRoles := strings.Join(user.Roles, ",")

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("roles", models.RoleList(roles)).Error; err != nil {
			return err
		}
		return s.Audit.Record(tx, &models.AuditEvent{
			Type:        models.EventRoleChanged,
			ActorUserID: actor.ID,
			SubjectID:   &user.ID,
			Payload: models.EventPayload{
				"user_name": user.DisplayName,
				"old_roles": oldRoles,
				"new_roles": strings.Join(roles, ","),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	user.Roles = roles
	return user, nil
}
