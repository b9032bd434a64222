package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// EventType 审计事件类型
type EventType string

const (
	EventVisitorCreated    EventType = "visitor_created"
	EventVisitorApproved   EventType = "visitor_approved"
	EventVisitorDenied     EventType = "visitor_denied"
	EventVisitorCheckedIn  EventType = "visitor_checked_in"
	EventVisitorCheckedOut EventType = "visitor_checked_out"
	EventRoleChanged       EventType = "role_changed"
)

// EventPayload 事件附加字段，以JSON对象形式存储
type EventPayload map[string]string

// Value 实现driver.Valuer接口
func (p EventPayload) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现sql.Scanner接口
func (p *EventPayload) Scan(value interface{}) error {
	if value == nil {
		*p = EventPayload{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return errors.New("无法将数据库值解析为事件载荷")
	}
}

// AuditEvent represents one immutable entry of the append-only audit log.
// 事件创建后不可修改、不可删除，公共契约上不存在任何变更操作。
type AuditEvent struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	EventID     string       `gorm:"type:varchar(36);not null;uniqueIndex" json:"event_id"`
	Type        EventType    `gorm:"type:varchar(32);not null;index" json:"type"`
	ActorUserID uint         `gorm:"not null;index" json:"actor_user_id"`
	SubjectID   *uint        `gorm:"index" json:"subject_id"` // 事件对象ID（访客或用户）
	Payload     EventPayload `gorm:"type:varchar(1024)" json:"payload"`
	OccurredAt  time.Time    `gorm:"not null;index" json:"occurred_at"`
}
