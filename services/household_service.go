package services

import (
	"errors"
	"strings"

	"gatepass-http-service/config"
	"gatepass-http-service/models"

	"gorm.io/gorm"
)

// InterfaceHouseholdService defines the household service interface
type InterfaceHouseholdService interface {
	GetAllHouseholds(page, pageSize int) ([]models.Household, int64, error)
	GetHouseholdByID(id uint) (*models.Household, error)
	CreateHousehold(actor *models.User, household *models.Household) error
}

// HouseholdService 提供户号相关的服务
type HouseholdService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewHouseholdService 创建一个新的户号服务
func NewHouseholdService(db *gorm.DB, cfg *config.Config) InterfaceHouseholdService {
	return &HouseholdService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetAllHouseholds 获取所有户号列表，支持分页
func (s *HouseholdService) GetAllHouseholds(page, pageSize int) ([]models.Household, int64, error) {
	var households []models.Household
	var total int64

	if err := s.DB.Model(&models.Household{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := s.DB.Limit(pageSize).Offset(offset).Find(&households).Error; err != nil {
		return nil, 0, err
	}

	return households, total, nil
}

// 2 GetHouseholdByID 根据ID获取户号
func (s *HouseholdService) GetHouseholdByID(id uint) (*models.Household, error) {
	var household models.Household
	if err := s.DB.First(&household, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "户号", ID: id}
		}
		return nil, err
	}
	return &household, nil
}

// 3 CreateHousehold 创建新户号，仅admin可操作
func (s *HouseholdService) CreateHousehold(actor *models.User, household *models.Household) error {
	if actor == nil || !actor.Roles.Has(models.RoleAdmin) {
		return &AuthorizationError{Message: "只有管理员可以创建户号"}
	}
	if strings.TrimSpace(household.FlatNo) == "" {
		return NewValidationError("flat_no", "门牌号不能为空")
	}

	// 验证门牌号唯一性
	var count int64
	if err := s.DB.Model(&models.Household{}).Where("flat_no = ?", household.FlatNo).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return NewValidationError("flat_no", "门牌号已存在")
	}

	return s.DB.Create(household).Error
}
