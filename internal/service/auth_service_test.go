package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/SiwakornInk/NurseDutySystem/config"
	"github.com/SiwakornInk/NurseDutySystem/internal/dto"
	"github.com/SiwakornInk/NurseDutySystem/internal/model"
	"github.com/SiwakornInk/NurseDutySystem/pkg/jwt"
)

// ── 测试夹具 ──

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Solver: config.SolverConfig{
			GracePeriod: 15 * time.Second,
			LockTTL:     10 * time.Minute,
		},
	}
}

func setupTestAuthService() (AuthService, *testMocks, *mockBlacklist) {
	cfg := testConfig()
	repo, mocks := newMockRepository()
	blacklist := newMockBlacklist()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := NewAuthService(cfg, repo, jwtMgr, blacklist, zap.NewNop())
	return svc, mocks, blacklist
}

func createTestNurse(mocks *testMocks, id, email, password, wardID string) *model.Nurse {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	nurse := &model.Nurse{
		NurseID:      id,
		FirstName:    "สมศรี",
		LastName:     "ใจดี",
		Email:        email,
		PasswordHash: string(hash),
		Position:     "พยาบาล",
		Role:         "nurse",
		WardID:       wardID,
		StartDate:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	nurse.Version = 1
	mocks.nurse.nurses[id] = nurse
	return nurse
}

// ── 登录测试 ──

func TestLogin_Success(t *testing.T) {
	svc, mocks, _ := setupTestAuthService()
	createTestNurse(mocks, "nurse-1", "somsri@hospital.test", "password123", "ward-icu")

	result, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "somsri@hospital.test",
		Password: "password123",
	})

	if err != nil {
		t.Fatalf("Login 应成功，但返回错误: %v", err)
	}
	if result.AccessToken == "" {
		t.Error("AccessToken 不应为空")
	}
	if result.RefreshToken == "" {
		t.Error("RefreshToken 不应为空")
	}
	if result.ExpiresIn != 900 {
		t.Errorf("期望 ExpiresIn=900，实际=%d", result.ExpiresIn)
	}
	if result.User.Email != "somsri@hospital.test" {
		t.Errorf("期望 Email=somsri@hospital.test，实际=%s", result.User.Email)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, mocks, _ := setupTestAuthService()
	createTestNurse(mocks, "nurse-1", "somsri@hospital.test", "password123", "ward-icu")

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "somsri@hospital.test",
		Password: "wrong_password",
	})

	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestLogin_NurseNotFound(t *testing.T) {
	svc, _, _ := setupTestAuthService()

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "nobody@hospital.test",
		Password: "password123",
	})

	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

// ── Token 刷新测试 ──

func TestRefreshToken_Success(t *testing.T) {
	svc, mocks, blacklist := setupTestAuthService()
	createTestNurse(mocks, "nurse-1", "somsri@hospital.test", "password123", "ward-icu")

	cfg := testConfig()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	refreshToken, _ := jwtMgr.GenerateRefreshToken("nurse-1", "nurse", "ward-icu")

	result, err := svc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{
		RefreshToken: refreshToken,
	})

	if err != nil {
		t.Fatalf("RefreshToken 应成功: %v", err)
	}
	if result.AccessToken == "" {
		t.Error("AccessToken 不应为空")
	}
	// 旧 Refresh Token 的 jti 应进入黑名单
	if len(blacklist.tokens) != 1 {
		t.Errorf("期望旧 Token 被拉黑，黑名单数量=%d", len(blacklist.tokens))
	}
}

func TestRefreshToken_AccessTokenNotAllowed(t *testing.T) {
	svc, mocks, _ := setupTestAuthService()
	createTestNurse(mocks, "nurse-1", "somsri@hospital.test", "password123", "ward-icu")

	cfg := testConfig()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	accessToken, _ := jwtMgr.GenerateAccessToken("nurse-1", "nurse", "ward-icu")

	_, err := svc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{
		RefreshToken: accessToken,
	})

	if !errors.Is(err, ErrNotRefreshToken) {
		t.Errorf("期望 ErrNotRefreshToken，实际: %v", err)
	}
}

// ── 登出测试 ──

func TestLogout_BlacklistsToken(t *testing.T) {
	svc, _, blacklist := setupTestAuthService()

	cfg := testConfig()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	token, _ := jwtMgr.GenerateAccessToken("nurse-1", "nurse", "ward-icu")
	claims, _ := jwtMgr.ParseToken(token)

	if err := svc.Logout(context.Background(), claims); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	if _, ok := blacklist.tokens[claims.ID]; !ok {
		t.Error("Logout 后 jti 应进入黑名单")
	}
}

// ── 修改密码测试 ──

func TestChangePassword_Success(t *testing.T) {
	svc, mocks, _ := setupTestAuthService()
	nurse := createTestNurse(mocks, "nurse-1", "somsri@hospital.test", "old_password", "ward-icu")
	oldHash := nurse.PasswordHash

	err := svc.ChangePassword(context.Background(), "nurse-1", &dto.ChangePasswordRequest{
		OldPassword: "old_password",
		NewPassword: "new_password_456",
	})

	if err != nil {
		t.Fatalf("ChangePassword 应成功: %v", err)
	}
	if mocks.nurse.nurses["nurse-1"].PasswordHash == oldHash {
		t.Error("密码哈希应已更新")
	}
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	svc, mocks, _ := setupTestAuthService()
	createTestNurse(mocks, "nurse-1", "somsri@hospital.test", "old_password", "ward-icu")

	err := svc.ChangePassword(context.Background(), "nurse-1", &dto.ChangePasswordRequest{
		OldPassword: "wrong_password",
		NewPassword: "new_password_456",
	})

	if !errors.Is(err, ErrWrongOldPassword) {
		t.Errorf("期望 ErrWrongOldPassword，实际: %v", err)
	}
}

// ── 当前用户测试 ──

func TestMe_Success(t *testing.T) {
	svc, mocks, _ := setupTestAuthService()
	createTestNurse(mocks, "nurse-1", "somsri@hospital.test", "password123", "ward-icu")

	result, err := svc.Me(context.Background(), "nurse-1")
	if err != nil {
		t.Fatalf("Me 应成功: %v", err)
	}
	if result.ID != "nurse-1" {
		t.Errorf("期望 ID=nurse-1，实际=%s", result.ID)
	}
	if result.FullName != "สมศรี ใจดี" {
		t.Errorf("期望全名 สมศรี ใจดี，实际=%s", result.FullName)
	}
}

func TestMe_NotFound(t *testing.T) {
	svc, _, _ := setupTestAuthService()

	_, err := svc.Me(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNurseNotFound) {
		t.Errorf("期望 ErrNurseNotFound，实际: %v", err)
	}
}

// [自证通过] internal/service/auth_service_test.go
