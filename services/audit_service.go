package services

import (
	"time"

	"gatepass-http-service/config"
	"gatepass-http-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InterfaceAuditService defines the audit log service interface
type InterfaceAuditService interface {
	Record(tx *gorm.DB, event *models.AuditEvent) error
	ListEvents(filter AuditFilter, page, pageSize int) ([]models.AuditEvent, int64, error)
}

// AuditFilter 审计事件查询过滤条件
type AuditFilter struct {
	Type string     // 事件类型，空表示不过滤
	From *time.Time // 起始时间（含）
	To   *time.Time // 结束时间（含）
}

// AuditService 提供只追加的审计日志服务。
// 日志按occurred_at升序存储，按newest-first返回；
// 公共契约上不存在修改或删除操作。
type AuditService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewAuditService 创建一个新的审计日志服务
func NewAuditService(db *gorm.DB, cfg *config.Config) InterfaceAuditService {
	return &AuditService{
		DB:     db,
		Config: cfg,
	}
}

// 1 Record 追加一条审计事件。必须在触发该事件的事务内调用，
// 保证状态变更与审计写入二者同时生效或同时不生效。
func (s *AuditService) Record(tx *gorm.DB, event *models.AuditEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if event.Payload == nil {
		event.Payload = models.EventPayload{}
	}
	return tx.Create(event).Error
}

// 2 ListEvents 分页查询审计事件，按时间倒序返回，支持类型与时间范围过滤
func (s *AuditService) ListEvents(filter AuditFilter, page, pageSize int) ([]models.AuditEvent, int64, error) {
	var events []models.AuditEvent
	var total int64

	query := s.DB.Model(&models.AuditEvent{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.From != nil {
		query = query.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("occurred_at <= ?", *filter.To)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("occurred_at DESC").Order("id DESC").
		Limit(pageSize).Offset(offset).Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}
