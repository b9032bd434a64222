package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gatepass-http-service/config"
	"gatepass-http-service/models"
)

// InterfaceChatService defines the chat command interpreter interface
type InterfaceChatService interface {
	ProcessMessage(ctx context.Context, actor *models.User, message string) (*ChatResult, error)
}

// ChatResult 一次聊天指令的处理结果
type ChatResult struct {
	Response    string                 `json:"response"`
	ActionTaken string                 `json:"action_taken,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// ChatService 聊天命令解释器。把一条自由文本指令映射为
// 至多一次生命周期转移（或一次只读查询），并生成自然语言回复。
// 解释器本身不授予任何额外权限——聊天发起的批准与按钮发起的批准
// 走完全相同的授权与状态校验。
type ChatService struct {
	Config   *config.Config
	NLU      InterfaceNLUService
	Visitors InterfaceVisitorService
}

// NewChatService 创建一个新的聊天命令解释器
func NewChatService(cfg *config.Config, nlu InterfaceNLUService, visitors InterfaceVisitorService) InterfaceChatService {
	return &ChatService{
		Config:   cfg,
		NLU:      nlu,
		Visitors: visitors,
	}
}

// helpMessage 未识别意图时返回的能力说明。这是正常结果，不是错误。
const helpMessage = `I can help you manage visitors. Try one of these:
- "approve Ramesh" - approve a pending visitor
- "deny John Doe" - deny a pending visitor
- "check in Suresh" - check in an approved visitor
- "check out Mr Verma" - check out a checked-in visitor
- "show me all pending visitors" - list visitors`

// 实体解析的三种结果。歧义是高频的正常结果而非故障，
// 解释器在多个候选之间绝不猜测。
type resolutionOutcome int

const (
	resolutionResolved resolutionOutcome = iota
	resolutionAmbiguous
	resolutionNotFound
)

type resolution struct {
	outcome    resolutionOutcome
	visitor    *models.Visitor
	candidates []models.Visitor
}

// ProcessMessage 处理一条聊天指令：意图分类 -> 实体解析 -> 执行 -> 回复合成。
// 每条消息至多执行一次转移。返回error仅表示基础设施故障。
func (s *ChatService) ProcessMessage(ctx context.Context, actor *models.User, message string) (*ChatResult, error) {
	interp, err := s.NLU.Interpret(ctx, message)
	if err != nil {
		return nil, err
	}

	switch interp.Intent {
	case IntentApprove, IntentDeny, IntentCheckin, IntentCheckout:
		return s.executeTransition(actor, interp)
	case IntentListPending:
		return s.listVisitors(actor, models.VisitorStatusPending)
	case IntentListAll:
		status := models.VisitorStatus("")
		if interp.ListStatus != "" && interp.ListStatus != "all" && models.IsValidVisitorStatus(interp.ListStatus) {
			status = models.VisitorStatus(interp.ListStatus)
		}
		return s.listVisitors(actor, status)
	default:
		return &ChatResult{Response: helpMessage}, nil
	}
}

// executeTransition 解析目标访客并执行一次状态转移
func (s *ChatService) executeTransition(actor *models.User, interp *Interpretation) (*ChatResult, error) {
	fragment := strings.TrimSpace(interp.EntityText)
	if fragment == "" {
		return &ChatResult{Response: helpMessage}, nil
	}

	action, targetStatus := intentTarget(interp.Intent)

	res, err := s.resolveVisitor(actor, fragment, targetStatus)
	if err != nil {
		return nil, err
	}

	switch res.outcome {
	case resolutionNotFound:
		return &ChatResult{
			Response: fmt.Sprintf("No %s visitor found with name '%s'.", statusLabel(targetStatus), fragment),
		}, nil
	case resolutionAmbiguous:
		return &ChatResult{
			Response: fmt.Sprintf(
				"Multiple visitors match '%s': %s. Please be more specific, for example by mentioning the phone number.",
				fragment, describeCandidates(res.candidates)),
		}, nil
	}

	// 解析与执行不要求原子：状态若在两步之间被改掉，
	// 执行时的守卫会以InvalidStateError正常拒绝
	visitor, err := s.execute(actor, action, res.visitor.ID, interp.Reason)
	if err != nil {
		return s.translateError(err, targetStatus)
	}

	return &ChatResult{
		Response:    successMessage(action, visitor),
		ActionTaken: string(action),
		Details: map[string]interface{}{
			"visitor_id":   visitor.ID,
			"visitor_name": visitor.Name,
			"status":       string(visitor.Status),
		},
	}, nil
}

// resolveVisitor 按姓名片段在对应可操作状态内做不区分大小写的子串匹配
func (s *ChatService) resolveVisitor(actor *models.User, fragment string, status models.VisitorStatus) (*resolution, error) {
	matches, err := s.Visitors.SearchByName(actor, fragment, status)
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return &resolution{outcome: resolutionNotFound}, nil
	case 1:
		return &resolution{outcome: resolutionResolved, visitor: &matches[0]}, nil
	default:
		return &resolution{outcome: resolutionAmbiguous, candidates: matches}, nil
	}
}

// execute 把意图落到生命周期引擎上，授权与状态守卫原样生效
func (s *ChatService) execute(actor *models.User, action Action, visitorID uint, reason string) (*models.Visitor, error) {
	switch action {
	case ActionApprove:
		return s.Visitors.Approve(actor, visitorID)
	case ActionDeny:
		return s.Visitors.Deny(actor, visitorID, reason)
	case ActionCheckin:
		return s.Visitors.CheckIn(actor, visitorID)
	case ActionCheckout:
		return s.Visitors.CheckOut(actor, visitorID)
	}
	return nil, fmt.Errorf("未知操作: %s", action)
}

// listVisitors 只读列表查询，status为空表示全部
func (s *ChatService) listVisitors(actor *models.User, status models.VisitorStatus) (*ChatResult, error) {
	visitors, err := s.Visitors.ListByStatus(actor, status, 50)
	if err != nil {
		return nil, err
	}

	action := IntentListAll
	if status == models.VisitorStatusPending {
		action = IntentListPending
	}

	if len(visitors) == 0 {
		scope := ""
		if status != "" {
			scope = fmt.Sprintf(" with status '%s'", status)
		}
		return &ChatResult{
			Response:    fmt.Sprintf("No visitors found%s.", scope),
			ActionTaken: string(action),
			Details:     map[string]interface{}{"count": 0},
		}, nil
	}

	// 按状态分组汇总，正文逐个列出
	byStatus := map[string]int{}
	lines := make([]string, 0, len(visitors))
	for _, v := range visitors {
		byStatus[string(v.Status)]++
		line := fmt.Sprintf("- %s (%s, %s)", v.Name, strings.ToUpper(string(v.Status)), v.Phone)
		if v.Purpose != "" {
			line += " - " + v.Purpose
		}
		lines = append(lines, line)
	}

	summaryParts := make([]string, 0, len(byStatus))
	for vStatus, count := range byStatus {
		summaryParts = append(summaryParts, fmt.Sprintf("%d %s", count, vStatus))
	}

	response := fmt.Sprintf("Found %d visitor(s): %s\n%s",
		len(visitors), strings.Join(summaryParts, ", "), strings.Join(lines, "\n"))

	return &ChatResult{
		Response:    response,
		ActionTaken: string(action),
		Details: map[string]interface{}{
			"count":     len(visitors),
			"breakdown": byStatus,
		},
	}, nil
}

// translateError 把引擎错误翻译为面向用户的解释。
// 分类内的错误都是正常聊天结果，只有未知错误才作为故障上抛。
func (s *ChatService) translateError(err error, targetStatus models.VisitorStatus) (*ChatResult, error) {
	var authErr *AuthorizationError
	var stateErr *InvalidStateError
	var notFoundErr *NotFoundError
	var validationErr *ValidationError

	switch {
	case errors.As(err, &authErr):
		return &ChatResult{Response: "You don't have permission to do that."}, nil
	case errors.As(err, &stateErr):
		return &ChatResult{
			Response: fmt.Sprintf("That visitor isn't %s anymore (current status: %s). Please refresh and try again.",
				statusLabel(targetStatus), stateErr.Current),
		}, nil
	case errors.As(err, &notFoundErr):
		return &ChatResult{Response: "I couldn't find that visitor anymore."}, nil
	case errors.As(err, &validationErr):
		return &ChatResult{Response: validationErr.Message}, nil
	}
	return nil, err
}

// intentTarget 意图对应的操作与可操作状态
func intentTarget(intent Intent) (Action, models.VisitorStatus) {
	switch intent {
	case IntentApprove:
		return ActionApprove, models.VisitorStatusPending
	case IntentDeny:
		return ActionDeny, models.VisitorStatusPending
	case IntentCheckin:
		return ActionCheckin, models.VisitorStatusApproved
	case IntentCheckout:
		return ActionCheckout, models.VisitorStatusCheckedIn
	}
	return "", ""
}

// statusLabel 状态的口语化标签
func statusLabel(status models.VisitorStatus) string {
	switch status {
	case models.VisitorStatusCheckedIn:
		return "checked-in"
	case models.VisitorStatusCheckedOut:
		return "checked-out"
	default:
		return string(status)
	}
}

// successMessage 转移成功后的确认文本
func successMessage(action Action, visitor *models.Visitor) string {
	switch action {
	case ActionApprove:
		return fmt.Sprintf("Approved '%s' successfully. They can now enter the gate.", visitor.Name)
	case ActionDeny:
		return fmt.Sprintf("Denied '%s'. The guard will not let them in.", visitor.Name)
	case ActionCheckin:
		return fmt.Sprintf("Checked in '%s' successfully.", visitor.Name)
	case ActionCheckout:
		return fmt.Sprintf("Checked out '%s' successfully.", visitor.Name)
	}
	return fmt.Sprintf("Done. '%s' is now %s.", visitor.Name, visitor.Status)
}

// describeCandidates 列出候选访客，姓名加电话后缀便于用户指认
func describeCandidates(candidates []models.Visitor) string {
	parts := make([]string, 0, len(candidates))
	for _, v := range candidates {
		parts = append(parts, fmt.Sprintf("%s (phone ending %s)", v.Name, phoneSuffix(v.Phone)))
	}
	return strings.Join(parts, ", ")
}

func phoneSuffix(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return phone[len(phone)-4:]
}
