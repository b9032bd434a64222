package services

import (
	"testing"
	"time"

	"gatepass-http-service/models"
)

func TestAuditRecordFillsDefaults(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(db, testConfig())

	event := &models.AuditEvent{
		Type:        models.EventVisitorCreated,
		ActorUserID: 1,
	}
	if err := svc.Record(db, event); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if event.EventID == "" {
		t.Error("event_id应自动生成")
	}
	if event.OccurredAt.IsZero() {
		t.Error("occurred_at应自动填充")
	}
	if event.Payload == nil {
		t.Error("payload应初始化为空对象")
	}

	// event_id唯一性由数据库约束保证
	dup := &models.AuditEvent{
		EventID:     event.EventID,
		Type:        models.EventVisitorCreated,
		ActorUserID: 1,
	}
	if err := svc.Record(db, dup); err == nil {
		t.Error("重复event_id应被唯一索引拒绝")
	}
}

func TestAuditListEventsOrderAndFilter(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(db, testConfig())

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	seed := []struct {
		eventType models.EventType
		at        time.Time
	}{
		{models.EventVisitorCreated, base},
		{models.EventVisitorApproved, base.Add(1 * time.Hour)},
		{models.EventVisitorCheckedIn, base.Add(2 * time.Hour)},
		{models.EventRoleChanged, base.Add(3 * time.Hour)},
	}
	for _, s := range seed {
		if err := svc.Record(db, &models.AuditEvent{
			Type:        s.eventType,
			ActorUserID: 1,
			OccurredAt:  s.at,
		}); err != nil {
			t.Fatalf("Record(%s): %v", s.eventType, err)
		}
	}

	// 默认按时间倒序
	events, total, err := svc.ListEvents(AuditFilter{}, 1, 10)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if total != 4 {
		t.Errorf("total = %d, 期望 4", total)
	}
	if events[0].Type != models.EventRoleChanged {
		t.Errorf("首条事件 = %s, 期望最新的role_changed", events[0].Type)
	}
	for i := 1; i < len(events); i++ {
		if events[i].OccurredAt.After(events[i-1].OccurredAt) {
			t.Error("事件未按时间倒序返回")
		}
	}

	// 类型过滤
	events, total, err = svc.ListEvents(AuditFilter{Type: string(models.EventVisitorApproved)}, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || events[0].Type != models.EventVisitorApproved {
		t.Errorf("类型过滤结果 = %d/%v", total, events)
	}

	// 时间范围过滤（含边界）
	from := base.Add(1 * time.Hour)
	to := base.Add(2 * time.Hour)
	_, total, err = svc.ListEvents(AuditFilter{From: &from, To: &to}, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Errorf("时间范围过滤 total = %d, 期望 2", total)
	}

	// 分页
	events, _, err = svc.ListEvents(AuditFilter{}, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Errorf("第2页条数 = %d, 期望 1", len(events))
	}
}
