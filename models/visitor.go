package models

import "time"

// VisitorStatus 访客状态，任意时刻有且仅有一个状态成立
type VisitorStatus string

// 访客状态常量，状态机边：
// pending -> approved | denied, approved -> checked_in, checked_in -> checked_out
// denied 与 checked_out 为终态
const (
	VisitorStatusPending    VisitorStatus = "pending"
	VisitorStatusApproved   VisitorStatus = "approved"
	VisitorStatusDenied     VisitorStatus = "denied"
	VisitorStatusCheckedIn  VisitorStatus = "checked_in"
	VisitorStatusCheckedOut VisitorStatus = "checked_out"
)

// IsTerminal 判断状态是否为终态
func (s VisitorStatus) IsTerminal() bool {
	return s == VisitorStatusDenied || s == VisitorStatusCheckedOut
}

// IsValidVisitorStatus 判断状态值是否合法
func IsValidVisitorStatus(status string) bool {
	switch VisitorStatus(status) {
	case VisitorStatusPending, VisitorStatusApproved, VisitorStatusDenied,
		VisitorStatusCheckedIn, VisitorStatusCheckedOut:
		return true
	}
	return false
}

// Visitor represents a gate visitor hosted by a household
type Visitor struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	Name            string        `gorm:"type:varchar(50);not null" json:"name"`
	Phone           string        `gorm:"type:varchar(20);not null" json:"phone"`
	Purpose         string        `gorm:"type:varchar(200)" json:"purpose"`
	ScheduledTime   *time.Time    `json:"scheduled_time"`
	Status          VisitorStatus `gorm:"type:varchar(20);not null;default:pending;index" json:"status"`
	HostHouseholdID uint          `gorm:"not null;index" json:"host_household_id"`
	ApprovedBy      *uint         `json:"approved_by"` // 审批人（批准或拒绝）的用户ID
	ApprovedAt      *time.Time    `json:"approved_at"`
	CheckedInAt     *time.Time    `json:"checked_in_at"`
	CheckedOutAt    *time.Time    `json:"checked_out_at"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	// Relations
	HostHousehold *Household `gorm:"foreignKey:HostHouseholdID" json:"host_household,omitempty"`
}
