package services

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"gatepass-http-service/config"
	"gatepass-http-service/models"

	"gorm.io/gorm"
)

// InterfaceVisitorService defines the visitor lifecycle service interface
type InterfaceVisitorService interface {
	CreateVisitor(actor *models.User, input *CreateVisitorInput) (*models.Visitor, error)
	GetVisitorByID(actor *models.User, id uint) (*models.Visitor, error)
	ListVisitors(actor *models.User, page, pageSize int) ([]models.Visitor, int64, error)
	SearchByName(actor *models.User, fragment string, status models.VisitorStatus) ([]models.Visitor, error)
	ListByStatus(actor *models.User, status models.VisitorStatus, limit int) ([]models.Visitor, error)
	Approve(actor *models.User, visitorID uint) (*models.Visitor, error)
	Deny(actor *models.User, visitorID uint, reason string) (*models.Visitor, error)
	CheckIn(actor *models.User, visitorID uint) (*models.Visitor, error)
	CheckOut(actor *models.User, visitorID uint) (*models.Visitor, error)
}

// CreateVisitorInput 创建访客的输入字段
type CreateVisitorInput struct {
	Name          string
	Phone         string
	Purpose       string
	ScheduledTime *time.Time
}

// DefaultDenyReason 未提供拒绝原因时写入审计载荷的默认文本
const DefaultDenyReason = "No reason"

// VisitorService 访客生命周期状态机。
// 每次转移与其审计写入在同一事务内完成；
// 状态变更采用"UPDATE ... WHERE status = 期望状态"的条件更新，
// 并发竞争中恰好一个请求生效，落败方得到InvalidStateError。
type VisitorService struct {
	DB     *gorm.DB
	Config *config.Config
	Audit  InterfaceAuditService
}

// NewVisitorService 创建一个新的访客服务
func NewVisitorService(db *gorm.DB, cfg *config.Config, audit InterfaceAuditService) InterfaceVisitorService {
	return &VisitorService{
		DB:     db,
		Config: cfg,
		Audit:  audit,
	}
}

// 1 CreateVisitor 登记新访客，初始状态为pending，归属操作者自己的户号
func (s *VisitorService) CreateVisitor(actor *models.User, input *CreateVisitorInput) (*models.Visitor, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, NewValidationError("name", "访客姓名不能为空")
	}
	if strings.TrimSpace(input.Phone) == "" {
		return nil, NewValidationError("phone", "访客电话不能为空")
	}

	decision := Authorize(actor, nil, ActionCreate)
	if !decision.Allowed {
		return nil, &AuthorizationError{Action: ActionCreate, Message: "只有住户可以登记访客"}
	}
	if actor.HouseholdID == nil {
		return nil, NewValidationError("household_id", "操作者未归属任何户号")
	}

	visitor := &models.Visitor{
		Name:            strings.TrimSpace(input.Name),
		Phone:           strings.TrimSpace(input.Phone),
		Purpose:         input.Purpose,
		ScheduledTime:   input.ScheduledTime,
		Status:          models.VisitorStatusPending,
		HostHouseholdID: *actor.HouseholdID,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(visitor).Error; err != nil {
			return err
		}
		return s.Audit.Record(tx, &models.AuditEvent{
			Type:        models.EventVisitorCreated,
			ActorUserID: actor.ID,
			SubjectID:   &visitor.ID,
			Payload: models.EventPayload{
				"visitor_name": visitor.Name,
				"purpose":      visitor.Purpose,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	return visitor, nil
}

// 2 GetVisitorByID 按ID查询访客，应用可见性规则
func (s *VisitorService) GetVisitorByID(actor *models.User, id uint) (*models.Visitor, error) {
	var visitor models.Visitor
	if err := s.DB.First(&visitor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "访客", ID: id}
		}
		return nil, err
	}

	if !CanViewVisitor(actor, &visitor) {
		return nil, &AuthorizationError{Message: "没有权限查看该访客"}
	}
	return &visitor, nil
}

// 3 ListVisitors 查询访客列表：admin/guard可见全部，住户仅可见本户访客，按创建时间倒序
func (s *VisitorService) ListVisitors(actor *models.User, page, pageSize int) ([]models.Visitor, int64, error) {
	var visitors []models.Visitor
	var total int64

	query := s.DB.Model(&models.Visitor{})
	query = s.scopeToActor(query, actor)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Order("id DESC").
		Limit(pageSize).Offset(offset).Find(&visitors).Error; err != nil {
		return nil, 0, err
	}

	return visitors, total, nil
}

// 4 SearchByName 按姓名片段做不区分大小写的子串匹配，
// 限定指定状态，并套用操作者的可见范围。供命令解释器做实体解析。
func (s *VisitorService) SearchByName(actor *models.User, fragment string, status models.VisitorStatus) ([]models.Visitor, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, nil
	}

	var visitors []models.Visitor
	query := s.DB.Model(&models.Visitor{}).
		Where("LOWER(name) LIKE ?", "%"+strings.ToLower(fragment)+"%")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query = s.scopeToActor(query, actor)

	if err := query.Order("created_at DESC").Find(&visitors).Error; err != nil {
		return nil, err
	}
	return visitors, nil
}

// 5 ListByStatus 查询指定状态的访客，套用操作者可见范围，按创建时间倒序。
// status为空表示不过滤。供命令解释器的列表查询使用。
func (s *VisitorService) ListByStatus(actor *models.User, status models.VisitorStatus, limit int) ([]models.Visitor, error) {
	if limit <= 0 {
		limit = 50
	}

	var visitors []models.Visitor
	query := s.DB.Model(&models.Visitor{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query = s.scopeToActor(query, actor)

	if err := query.Order("created_at DESC").Limit(limit).Find(&visitors).Error; err != nil {
		return nil, err
	}
	return visitors, nil
}

// 6 Approve 批准访客：pending -> approved
func (s *VisitorService) Approve(actor *models.User, visitorID uint) (*models.Visitor, error) {
	now := time.Now()
	return s.transition(actor, visitorID, ActionApprove, func(visitor *models.Visitor) (map[string]interface{}, *models.AuditEvent) {
		updates := map[string]interface{}{
			"status":      models.VisitorStatusApproved,
			"approved_by": actor.ID,
			"approved_at": now,
		}
		event := &models.AuditEvent{
			Type:        models.EventVisitorApproved,
			ActorUserID: actor.ID,
			SubjectID:   &visitor.ID,
			Payload: models.EventPayload{
				"visitor_name": visitor.Name,
				"approved_by":  actor.DisplayName,
			},
		}
		return updates, event
	})
}

// 7 Deny 拒绝访客：pending -> denied。原因可为空，审计载荷记默认文本
func (s *VisitorService) Deny(actor *models.User, visitorID uint, reason string) (*models.Visitor, error) {
	if strings.TrimSpace(reason) == "" {
		reason = DefaultDenyReason
	}
	now := time.Now()
	return s.transition(actor, visitorID, ActionDeny, func(visitor *models.Visitor) (map[string]interface{}, *models.AuditEvent) {
		updates := map[string]interface{}{
			"status":      models.VisitorStatusDenied,
			"approved_by": actor.ID,
			"approved_at": now,
		}
		event := &models.AuditEvent{
			Type:        models.EventVisitorDenied,
			ActorUserID: actor.ID,
			SubjectID:   &visitor.ID,
			Payload: models.EventPayload{
				"visitor_name": visitor.Name,
				"reason":       reason,
			},
		}
		return updates, event
	})
}

// 8 CheckIn 访客入场：approved -> checked_in
func (s *VisitorService) CheckIn(actor *models.User, visitorID uint) (*models.Visitor, error) {
	now := time.Now()
	return s.transition(actor, visitorID, ActionCheckin, func(visitor *models.Visitor) (map[string]interface{}, *models.AuditEvent) {
		updates := map[string]interface{}{
			"status":        models.VisitorStatusCheckedIn,
			"checked_in_at": now,
		}
		event := &models.AuditEvent{
			Type:        models.EventVisitorCheckedIn,
			ActorUserID: actor.ID,
			SubjectID:   &visitor.ID,
			Payload: models.EventPayload{
				"visitor_name": visitor.Name,
				"guard":        actor.DisplayName,
			},
		}
		return updates, event
	})
}

// 9 CheckOut 访客离场：checked_in -> checked_out
func (s *VisitorService) CheckOut(actor *models.User, visitorID uint) (*models.Visitor, error) {
	now := time.Now()
	return s.transition(actor, visitorID, ActionCheckout, func(visitor *models.Visitor) (map[string]interface{}, *models.AuditEvent) {
		updates := map[string]interface{}{
			"status":         models.VisitorStatusCheckedOut,
			"checked_out_at": now,
		}
		event := &models.AuditEvent{
			Type:        models.EventVisitorCheckedOut,
			ActorUserID: actor.ID,
			SubjectID:   &visitor.ID,
			Payload: models.EventPayload{
				"visitor_name": visitor.Name,
				"guard":        actor.DisplayName,
			},
		}
		return updates, event
	})
}

// scopeToActor 套用可见范围：admin/guard不过滤，住户限定本户
func (s *VisitorService) scopeToActor(query *gorm.DB, actor *models.User) *gorm.DB {
	if actor != nil && actor.Roles.HasAny(models.RoleAdmin, models.RoleGuard) {
		return query
	}
	if actor == nil || actor.HouseholdID == nil {
		// 无户号且非admin/guard，结果恒为空
		return query.Where("1 = 0")
	}
	return query.Where("host_household_id = ?", *actor.HouseholdID)
}

// transition 执行一次状态转移。授权检查在事务外，
// 事务内用条件更新做每访客的串行化点：RowsAffected为0即竞争落败，
// 不产生审计事件。重复提交同一转移同样以InvalidStateError拒绝。
func (s *VisitorService) transition(
	actor *models.User,
	visitorID uint,
	action Action,
	build func(visitor *models.Visitor) (map[string]interface{}, *models.AuditEvent),
) (*models.Visitor, error) {
	var visitor models.Visitor
	if err := s.DB.First(&visitor, visitorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "访客", ID: visitorID}
		}
		return nil, err
	}

	decision := Authorize(actor, &visitor, action)
	if !decision.Allowed {
		if decision.Reason == DenyReasonWrongState {
			return nil, &InvalidStateError{Action: action, Current: visitor.Status}
		}
		return nil, &AuthorizationError{Action: action}
	}

	expected := RequiredStatus(action)
	updates, event := build(&visitor)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Visitor{}).
			Where("id = ? AND status = ?", visitorID, expected).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// 状态在授权检查之后被其他请求改掉了
			return &InvalidStateError{Action: action, Current: visitor.Status}
		}
		return s.Audit.Record(tx, event)
	})
	if err != nil {
		var stateErr *InvalidStateError
		if errors.As(err, &stateErr) {
			// 回读最新状态，给调用方准确的冲突信息
			var current models.Visitor
			if readErr := s.DB.First(&current, visitorID).Error; readErr == nil {
				stateErr.Current = current.Status
			}
			return nil, stateErr
		}
		return nil, err
	}

	var updated models.Visitor
	if err := s.DB.First(&updated, visitorID).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

// ParseVisitorID 解析路径或载荷中的访客ID
func ParseVisitorID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, NewValidationError("visitor_id", "无效的访客ID")
	}
	return uint(id), nil
}
