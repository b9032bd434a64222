package services

import (
	"errors"
	"sync"
	"testing"

	"gatepass-http-service/models"
)

func newVisitorService(t *testing.T) (*VisitorService, *visitorFixture) {
	t.Helper()
	db := newTestDB(t)
	cfg := testConfig()
	audit := NewAuditService(db, cfg)
	svc := NewVisitorService(db, cfg, audit).(*VisitorService)

	h1 := seedHousehold(t, db, "A-101")
	h2 := seedHousehold(t, db, "B-202")

	return svc, &visitorFixture{
		svc:        svc,
		householdA: h1,
		householdB: h2,
		residentA:  seedUser(t, db, "resident-a@test.local", &h1.ID, models.RoleResident),
		residentB:  seedUser(t, db, "resident-b@test.local", &h2.ID, models.RoleResident),
		guard:      seedUser(t, db, "guard@test.local", nil, models.RoleGuard),
		admin:      seedUser(t, db, "admin@test.local", nil, models.RoleAdmin),
	}
}

type visitorFixture struct {
	svc        *VisitorService
	householdA *models.Household
	householdB *models.Household
	residentA  *models.User
	residentB  *models.User
	guard      *models.User
	admin      *models.User
}

func TestCreateVisitor(t *testing.T) {
	svc, fx := newVisitorService(t)

	visitor, err := svc.CreateVisitor(fx.residentA, &CreateVisitorInput{
		Name:    "Ramesh Kumar",
		Phone:   "13812345678",
		Purpose: "plumbing",
	})
	if err != nil {
		t.Fatalf("CreateVisitor: %v", err)
	}
	if visitor.Status != models.VisitorStatusPending {
		t.Errorf("新访客状态 = %s, 期望 pending", visitor.Status)
	}
	if visitor.HostHouseholdID != fx.householdA.ID {
		t.Errorf("访客归属户号 = %d, 期望 %d", visitor.HostHouseholdID, fx.householdA.ID)
	}
	if got := countEvents(t, svc.DB, models.EventVisitorCreated); got != 1 {
		t.Errorf("visitor_created事件数 = %d, 期望 1", got)
	}

	// 姓名为空被拒绝
	if _, err := svc.CreateVisitor(fx.residentA, &CreateVisitorInput{Phone: "123"}); err == nil {
		t.Error("空姓名应返回校验错误")
	} else {
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("期望ValidationError, got %T", err)
		}
	}

	// 保安不能登记访客
	if _, err := svc.CreateVisitor(fx.guard, &CreateVisitorInput{Name: "X", Phone: "123"}); err == nil {
		t.Error("保安登记访客应被拒绝")
	} else {
		var authErr *AuthorizationError
		if !errors.As(err, &authErr) {
			t.Errorf("期望AuthorizationError, got %T", err)
		}
	}
}

func TestApproveLifecycle(t *testing.T) {
	svc, fx := newVisitorService(t)
	v := seedVisitor(t, svc.DB, "Suresh", fx.householdA.ID, models.VisitorStatusPending)

	approved, err := svc.Approve(fx.residentA, v.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != models.VisitorStatusApproved {
		t.Errorf("状态 = %s, 期望 approved", approved.Status)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != fx.residentA.ID {
		t.Error("approved_by应记录审批人")
	}
	if approved.ApprovedAt == nil {
		t.Error("approved_at应被设置")
	}

	// 重复批准以状态冲突拒绝
	_, err = svc.Approve(fx.residentA, v.ID)
	var stateErr *InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("重复批准期望InvalidStateError, got %v", err)
	}
	if stateErr.Current != models.VisitorStatusApproved {
		t.Errorf("冲突错误中的当前状态 = %s, 期望 approved", stateErr.Current)
	}

	// 到离场走完整链路
	checkedIn, err := svc.CheckIn(fx.guard, v.ID)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if checkedIn.CheckedInAt == nil {
		t.Error("checked_in_at应被设置")
	}

	checkedOut, err := svc.CheckOut(fx.guard, v.ID)
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if checkedOut.Status != models.VisitorStatusCheckedOut {
		t.Errorf("状态 = %s, 期望 checked_out", checkedOut.Status)
	}

	// 每次成功转移恰好一条审计事件
	for _, tc := range []struct {
		event models.EventType
		want  int64
	}{
		{models.EventVisitorApproved, 1},
		{models.EventVisitorCheckedIn, 1},
		{models.EventVisitorCheckedOut, 1},
	} {
		if got := countEvents(t, svc.DB, tc.event); got != tc.want {
			t.Errorf("%s事件数 = %d, 期望 %d", tc.event, got, tc.want)
		}
	}
}

func TestDenyDefaultReason(t *testing.T) {
	svc, fx := newVisitorService(t)
	v := seedVisitor(t, svc.DB, "Mr Verma", fx.householdA.ID, models.VisitorStatusPending)

	denied, err := svc.Deny(fx.residentA, v.ID, "  ")
	if err != nil {
		t.Fatalf("Deny: %v", err)
	}
	if denied.Status != models.VisitorStatusDenied {
		t.Errorf("状态 = %s, 期望 denied", denied.Status)
	}
	if denied.ApprovedBy == nil || *denied.ApprovedBy != fx.residentA.ID {
		t.Error("拒绝同样应记录审批人")
	}

	var event models.AuditEvent
	if err := svc.DB.Where("type = ?", models.EventVisitorDenied).First(&event).Error; err != nil {
		t.Fatalf("查询拒绝事件失败: %v", err)
	}
	if event.Payload["reason"] != DefaultDenyReason {
		t.Errorf("审计载荷reason = %q, 期望 %q", event.Payload["reason"], DefaultDenyReason)
	}
}

func TestTransitionAuthorization(t *testing.T) {
	svc, fx := newVisitorService(t)
	v := seedVisitor(t, svc.DB, "Anil", fx.householdA.ID, models.VisitorStatusPending)

	// 他户住户不能批准
	_, err := svc.Approve(fx.residentB, v.ID)
	var authErr *AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("他户批准期望AuthorizationError, got %v", err)
	}

	// 被拒绝的转移不产生审计事件
	if got := countEvents(t, svc.DB, models.EventVisitorApproved); got != 0 {
		t.Errorf("被拒绝的转移产生了%d条审计事件", got)
	}

	// 保安对pending访客得到角色拒绝而非状态冲突
	_, err = svc.Approve(fx.guard, v.ID)
	if !errors.As(err, &authErr) {
		t.Fatalf("保安批准期望AuthorizationError, got %v", err)
	}

	// 不存在的访客
	_, err = svc.Approve(fx.admin, 9999)
	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("期望NotFoundError, got %v", err)
	}
}

func TestConcurrentApprove(t *testing.T) {
	svc, fx := newVisitorService(t)
	v := seedVisitor(t, svc.DB, "Prakash", fx.householdA.ID, models.VisitorStatusPending)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = svc.Approve(fx.admin, v.ID)
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			var stateErr *InvalidStateError
			if errors.As(err, &stateErr) {
				conflicted++
			} else {
				t.Errorf("意外错误类型: %v", err)
			}
		}
	}

	if succeeded != 1 {
		t.Errorf("成功的批准数 = %d, 期望恰好1", succeeded)
	}
	if conflicted != n-1 {
		t.Errorf("冲突拒绝数 = %d, 期望 %d", conflicted, n-1)
	}

	// 恰好一条审计事件
	if got := countEvents(t, svc.DB, models.EventVisitorApproved); got != 1 {
		t.Errorf("并发批准后审计事件数 = %d, 期望 1", got)
	}
}

func TestListVisitorsScoping(t *testing.T) {
	svc, fx := newVisitorService(t)
	seedVisitor(t, svc.DB, "Visitor A1", fx.householdA.ID, models.VisitorStatusPending)
	seedVisitor(t, svc.DB, "Visitor A2", fx.householdA.ID, models.VisitorStatusApproved)
	seedVisitor(t, svc.DB, "Visitor B1", fx.householdB.ID, models.VisitorStatusPending)

	// admin可见全部
	all, total, err := svc.ListVisitors(fx.admin, 1, 10)
	if err != nil {
		t.Fatalf("ListVisitors(admin): %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Errorf("admin可见 %d/%d, 期望 3/3", len(all), total)
	}

	// 住户仅可见本户
	mine, total, err := svc.ListVisitors(fx.residentA, 1, 10)
	if err != nil {
		t.Fatalf("ListVisitors(resident): %v", err)
	}
	if total != 2 || len(mine) != 2 {
		t.Errorf("住户A可见 %d/%d, 期望 2/2", len(mine), total)
	}
	for _, v := range mine {
		if v.HostHouseholdID != fx.householdA.ID {
			t.Errorf("住户A看到了他户访客: %s", v.Name)
		}
	}

	// 他户访客对住户不可见
	var b1 models.Visitor
	if err := svc.DB.Where("name = ?", "Visitor B1").First(&b1).Error; err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetVisitorByID(fx.residentA, b1.ID); err == nil {
		t.Error("住户A查看他户访客应被拒绝")
	}
}

func TestSearchByName(t *testing.T) {
	svc, fx := newVisitorService(t)
	seedVisitor(t, svc.DB, "Ramesh Kumar", fx.householdA.ID, models.VisitorStatusPending)
	seedVisitor(t, svc.DB, "Ramesh Patel", fx.householdA.ID, models.VisitorStatusPending)
	seedVisitor(t, svc.DB, "Ramesh Iyer", fx.householdA.ID, models.VisitorStatusApproved)

	// 大小写不敏感的子串匹配，限定状态
	matches, err := svc.SearchByName(fx.residentA, "ramesh", models.VisitorStatusPending)
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("匹配数 = %d, 期望 2（approved的不计入）", len(matches))
	}

	// 空片段直接返回空
	matches, err = svc.SearchByName(fx.residentA, "   ", models.VisitorStatusPending)
	if err != nil || matches != nil {
		t.Errorf("空片段应返回nil, got %v, %v", matches, err)
	}

	// 他户住户搜索不到
	matches, err = svc.SearchByName(fx.residentB, "ramesh", models.VisitorStatusPending)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("他户住户匹配数 = %d, 期望 0", len(matches))
	}
}
