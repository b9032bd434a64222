package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gatepass-http-service/utils"

	"gorm.io/gorm"
)

// 用户角色常量，角色是互相独立的能力标签，一个用户可同时持有多个
const (
	RoleResident  = "resident"
	RoleGuard     = "guard"
	RoleAdmin     = "admin"
	RoleCommittee = "committee"
)

// ValidRoles 系统支持的全部角色
var ValidRoles = []string{RoleResident, RoleGuard, RoleAdmin, RoleCommittee}

// RoleList 角色集合，以JSON数组形式存储在数据库中
type RoleList []string

// Value 实现driver.Valuer接口
func (r RoleList) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现sql.Scanner接口
func (r *RoleList) Scan(value interface{}) error {
	if value == nil {
		*r = RoleList{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return errors.New("无法将数据库值解析为角色列表")
	}
}

// Has 判断是否持有指定角色
func (r RoleList) Has(role string) bool {
	for _, item := range r {
		if item == role {
			return true
		}
	}
	return false
}

// HasAny 判断是否持有任意一个指定角色
func (r RoleList) HasAny(roles ...string) bool {
	for _, role := range roles {
		if r.Has(role) {
			return true
		}
	}
	return false
}

// IsValidRole 判断角色名是否合法
func IsValidRole(role string) bool {
	for _, item := range ValidRoles {
		if item == role {
			return true
		}
	}
	return false
}

// User represents a community member, guard or admin account
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Email       string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"email"`
	DisplayName string    `gorm:"type:varchar(50);not null" json:"display_name"`
	Phone       string    `gorm:"type:varchar(20)" json:"phone"`
	Password    string    `gorm:"type:varchar(100);not null" json:"-"` // 不在JSON中暴露密码
	HouseholdID *uint     `gorm:"index" json:"household_id"`           // 非住户角色（保安/管理员）可为空
	Roles       RoleList  `gorm:"type:varchar(255);not null" json:"roles"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Household *Household `gorm:"foreignKey:HouseholdID" json:"household,omitempty"`
}

// BeforeCreate 是一个GORM钩子，在创建新记录前运行
func (u *User) BeforeCreate(tx *gorm.DB) error {
	// 如果提供了密码且不是已哈希的，对其进行哈希处理
	if u.Password != "" && len(u.Password) < 60 {
		hashedPassword, err := utils.HashPassword(u.Password)
		if err != nil {
			return err
		}
		u.Password = hashedPassword
	}
	return nil
}

// BeforeSave 是一个GORM钩子，在保存记录前运行
func (u *User) BeforeSave(tx *gorm.DB) error {
	// 如果提供了密码且不是已哈希的，对其进行哈希处理
	if u.Password != "" && len(u.Password) < 60 {
		hashedPassword, err := utils.HashPassword(u.Password)
		if err != nil {
			return err
		}
		u.Password = hashedPassword
	}
	return nil
}
