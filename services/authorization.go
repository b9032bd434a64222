package services

import (
	"gatepass-http-service/models"
)

// Action 访客生命周期操作
type Action string

const (
	ActionCreate   Action = "create"
	ActionApprove  Action = "approve"
	ActionDeny     Action = "deny"
	ActionCheckin  Action = "checkin"
	ActionCheckout Action = "checkout"
)

// DenyReason 拒绝原因分类。区分"状态不允许"与"权限不足"，
// 上层据此生成不同的用户提示
type DenyReason string

const (
	DenyReasonNone             DenyReason = ""
	DenyReasonWrongState       DenyReason = "wrong_state"
	DenyReasonInsufficientRole DenyReason = "insufficient_role"
)

// Decision 授权决策结果
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

var allow = Decision{Allowed: true}

func deny(reason DenyReason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// RequiredStatus 返回执行操作所要求的访客当前状态。
// create 不依赖现有访客，返回空字符串。
func RequiredStatus(action Action) models.VisitorStatus {
	switch action {
	case ActionApprove, ActionDeny:
		return models.VisitorStatusPending
	case ActionCheckin:
		return models.VisitorStatusApproved
	case ActionCheckout:
		return models.VisitorStatusCheckedIn
	}
	return ""
}

// Authorize 纯授权决策函数，无任何副作用。
// 规则：
//   - approve/deny: 访客须为pending，且操作者是admin或该访客所属户号的成员
//   - checkin:      访客须为approved，且操作者持有guard或admin角色
//   - checkout:     访客须为checked_in，且操作者持有guard或admin角色
//   - create:       操作者须持有resident角色（访客归属操作者自己的户号）
//
// 其余组合一律拒绝。
func Authorize(actor *models.User, visitor *models.Visitor, action Action) Decision {
	if actor == nil {
		return deny(DenyReasonInsufficientRole)
	}

	if action == ActionCreate {
		if actor.Roles.Has(models.RoleResident) {
			return allow
		}
		return deny(DenyReasonInsufficientRole)
	}

	if visitor == nil {
		return deny(DenyReasonWrongState)
	}

	switch action {
	case ActionApprove, ActionDeny:
		isAdmin := actor.Roles.Has(models.RoleAdmin)
		isHost := actor.HouseholdID != nil && *actor.HouseholdID == visitor.HostHouseholdID
		if !isAdmin && !isHost {
			return deny(DenyReasonInsufficientRole)
		}
		if visitor.Status != models.VisitorStatusPending {
			return deny(DenyReasonWrongState)
		}
		return allow

	case ActionCheckin:
		if !actor.Roles.HasAny(models.RoleGuard, models.RoleAdmin) {
			return deny(DenyReasonInsufficientRole)
		}
		if visitor.Status != models.VisitorStatusApproved {
			return deny(DenyReasonWrongState)
		}
		return allow

	case ActionCheckout:
		if !actor.Roles.HasAny(models.RoleGuard, models.RoleAdmin) {
			return deny(DenyReasonInsufficientRole)
		}
		if visitor.Status != models.VisitorStatusCheckedIn {
			return deny(DenyReasonWrongState)
		}
		return allow
	}

	return deny(DenyReasonInsufficientRole)
}

// CanViewVisitor 访客可见性规则：admin/guard可见全部，住户仅可见本户访客
func CanViewVisitor(actor *models.User, visitor *models.Visitor) bool {
	if actor == nil || visitor == nil {
		return false
	}
	if actor.Roles.HasAny(models.RoleAdmin, models.RoleGuard) {
		return true
	}
	return actor.HouseholdID != nil && *actor.HouseholdID == visitor.HostHouseholdID
}
