package services

import (
	"context"
	"strings"
	"testing"

	"gatepass-http-service/models"
)

// stubNLU 返回预设解析结果，把解释器逻辑与NLU实现隔离
type stubNLU struct {
	result *Interpretation
}

func (s *stubNLU) Interpret(ctx context.Context, text string) (*Interpretation, error) {
	return s.result, nil
}

func newChatService(t *testing.T, interp *Interpretation) (*ChatService, *visitorFixture) {
	t.Helper()
	visitorSvc, fx := newVisitorService(t)
	svc := NewChatService(testConfig(), &stubNLU{result: interp}, visitorSvc).(*ChatService)
	return svc, fx
}

func TestChatApproveSingleMatch(t *testing.T) {
	svc, fx := newChatService(t, &Interpretation{Intent: IntentApprove, EntityText: "Ramesh"})
	v := seedVisitor(t, fx.svc.DB, "Ramesh Kumar", fx.householdA.ID, models.VisitorStatusPending)

	result, err := svc.ProcessMessage(context.Background(), fx.residentA, "approve Ramesh")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if result.ActionTaken != "approve" {
		t.Errorf("ActionTaken = %q, 期望 approve", result.ActionTaken)
	}
	if !strings.Contains(result.Response, "Ramesh Kumar") {
		t.Errorf("回复未提及访客姓名: %q", result.Response)
	}

	var updated models.Visitor
	if err := fx.svc.DB.First(&updated, v.ID).Error; err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.VisitorStatusApproved {
		t.Errorf("访客状态 = %s, 期望 approved", updated.Status)
	}
}

func TestChatAmbiguousMatch(t *testing.T) {
	svc, fx := newChatService(t, &Interpretation{Intent: IntentApprove, EntityText: "Ramesh"})
	seedVisitor(t, fx.svc.DB, "Ramesh Kumar", fx.householdA.ID, models.VisitorStatusPending)
	seedVisitor(t, fx.svc.DB, "Ramesh Patel", fx.householdA.ID, models.VisitorStatusPending)

	result, err := svc.ProcessMessage(context.Background(), fx.residentA, "approve Ramesh")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if result.ActionTaken != "" {
		t.Errorf("歧义时不应执行任何操作, ActionTaken = %q", result.ActionTaken)
	}
	if !strings.Contains(result.Response, "Multiple visitors match") {
		t.Errorf("期望消歧提示, got %q", result.Response)
	}

	// 两个访客都未被改动
	var count int64
	fx.svc.DB.Model(&models.Visitor{}).Where("status = ?", models.VisitorStatusPending).Count(&count)
	if count != 2 {
		t.Errorf("pending访客数 = %d, 期望 2（不允许猜测目标）", count)
	}
	if got := countEvents(t, fx.svc.DB, models.EventVisitorApproved); got != 0 {
		t.Errorf("歧义结果产生了%d条审计事件", got)
	}
}

func TestChatNotFound(t *testing.T) {
	svc, fx := newChatService(t, &Interpretation{Intent: IntentApprove, EntityText: "Nonexistent"})

	result, err := svc.ProcessMessage(context.Background(), fx.residentA, "approve Nonexistent")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if result.ActionTaken != "" {
		t.Errorf("未找到目标时不应执行操作, ActionTaken = %q", result.ActionTaken)
	}
	if !strings.Contains(result.Response, "No pending visitor found") {
		t.Errorf("期望未找到提示, got %q", result.Response)
	}
}

func TestChatUnknownIntentReturnsHelp(t *testing.T) {
	svc, fx := newChatService(t, &Interpretation{Intent: IntentUnknown})

	// 无法识别的指令是正常结果，不是错误
	result, err := svc.ProcessMessage(context.Background(), fx.residentA, "please dance")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if result.ActionTaken != "" {
		t.Errorf("未知意图不应执行操作, ActionTaken = %q", result.ActionTaken)
	}
	if !strings.Contains(result.Response, "approve") {
		t.Errorf("帮助信息应包含用法示例, got %q", result.Response)
	}
}

func TestChatPermissionTranslated(t *testing.T) {
	// 保安通过聊天尝试批准：权限错误翻译为普通话术，而非上抛
	svc, fx := newChatService(t, &Interpretation{Intent: IntentApprove, EntityText: "Ramesh"})
	seedVisitor(t, fx.svc.DB, "Ramesh Kumar", fx.householdA.ID, models.VisitorStatusPending)

	result, err := svc.ProcessMessage(context.Background(), fx.guard, "approve Ramesh")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if result.ActionTaken != "" {
		t.Errorf("无权操作不应生效, ActionTaken = %q", result.ActionTaken)
	}
	if !strings.Contains(result.Response, "permission") {
		t.Errorf("期望权限提示, got %q", result.Response)
	}
}

func TestChatCheckinWrongStateTranslated(t *testing.T) {
	// 实体解析限定在可操作状态内：pending访客对checkin不可见
	svc, fx := newChatService(t, &Interpretation{Intent: IntentCheckin, EntityText: "Suresh"})
	seedVisitor(t, fx.svc.DB, "Suresh", fx.householdA.ID, models.VisitorStatusPending)

	result, err := svc.ProcessMessage(context.Background(), fx.guard, "check in Suresh")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if !strings.Contains(result.Response, "No approved visitor found") {
		t.Errorf("期望状态限定的未找到提示, got %q", result.Response)
	}
}

func TestChatListPending(t *testing.T) {
	svc, fx := newChatService(t, &Interpretation{Intent: IntentListPending, ListStatus: "pending"})
	seedVisitor(t, fx.svc.DB, "Ramesh", fx.householdA.ID, models.VisitorStatusPending)
	seedVisitor(t, fx.svc.DB, "Suresh", fx.householdA.ID, models.VisitorStatusApproved)

	result, err := svc.ProcessMessage(context.Background(), fx.residentA, "show pending visitors")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if result.ActionTaken != "list_pending" {
		t.Errorf("ActionTaken = %q, 期望 list_pending", result.ActionTaken)
	}
	if !strings.Contains(result.Response, "Ramesh") || strings.Contains(result.Response, "Suresh") {
		t.Errorf("列表应只含pending访客: %q", result.Response)
	}
	if result.Details["count"] != 1 {
		t.Errorf("count = %v, 期望 1", result.Details["count"])
	}
}

func TestChatListAllScopedToHousehold(t *testing.T) {
	svc, fx := newChatService(t, &Interpretation{Intent: IntentListAll, ListStatus: "all"})
	seedVisitor(t, fx.svc.DB, "Mine", fx.householdA.ID, models.VisitorStatusPending)
	seedVisitor(t, fx.svc.DB, "Theirs", fx.householdB.ID, models.VisitorStatusPending)

	result, err := svc.ProcessMessage(context.Background(), fx.residentA, "list visitors")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if strings.Contains(result.Response, "Theirs") {
		t.Errorf("住户的列表泄露了他户访客: %q", result.Response)
	}
	if !strings.Contains(result.Response, "Mine") {
		t.Errorf("列表缺少本户访客: %q", result.Response)
	}
}

func TestChatEmptyEntityReturnsHelp(t *testing.T) {
	svc, fx := newChatService(t, &Interpretation{Intent: IntentApprove, EntityText: "  "})

	result, err := svc.ProcessMessage(context.Background(), fx.residentA, "approve")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if result.ActionTaken != "" || !strings.Contains(result.Response, "approve Ramesh") {
		t.Errorf("缺少实体时应返回帮助信息, got %+v", result)
	}
}
