package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SiwakornInk/NurseDutySystem/config"
	"github.com/SiwakornInk/NurseDutySystem/internal/dto"
	"github.com/SiwakornInk/NurseDutySystem/internal/model"
	"github.com/SiwakornInk/NurseDutySystem/internal/repository"
	"github.com/SiwakornInk/NurseDutySystem/internal/solver"
	pkgerrors "github.com/SiwakornInk/NurseDutySystem/pkg/errors"
)

// ── 排班模块业务错误 ──

var (
	ErrScheduleNotFound     = errors.New("排班不存在")
	ErrScheduleExists       = errors.New("该病区当月排班已存在")
	ErrGenerationInProgress = errors.New("该病区当月排班正在生成中")
	ErrNoNursesInWard       = errors.New("病区内没有在职护士")
	ErrInvalidMonth         = errors.New("月份格式不正确")
)

// ScheduleService 排班业务接口
//
// 生成流程：取锁 → 汇总输入 → 调用求解 → 单事务落库（排班 + 请求锁定 + 补偿标记）。
// 同病区同月份的生成由 Redis 互斥锁串行化，落库由唯一索引兜底。
type ScheduleService interface {
	Generate(ctx context.Context, req *dto.GenerateScheduleRequest, callerID string) (*dto.ScheduleResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ScheduleResponse, error)
	GetByWardMonth(ctx context.Context, wardID, month string) (*dto.ScheduleResponse, error)
	List(ctx context.Context, req *dto.ScheduleListRequest) ([]dto.ScheduleBrief, int64, error)
	Delete(ctx context.Context, id string, callerID string) error
	NurseStatistics(ctx context.Context, nurseID, month string) (*dto.NurseStatisticsResponse, error)
	Reconcile(ctx context.Context, wardID, month string) (*dto.ReconcileResponse, error)
}

type scheduleService struct {
	cfg          *config.Config
	repo         *repository.Repository
	locker       GenerationLocker
	solverClient SolverClient
	logger       *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(
	cfg *config.Config,
	repo *repository.Repository,
	locker GenerationLocker,
	solverClient SolverClient,
	logger *zap.Logger,
) ScheduleService {
	return &scheduleService{
		cfg:          cfg,
		repo:         repo,
		locker:       locker,
		solverClient: solverClient,
		logger:       logger,
	}
}

// ═══════════════════════════════════════════════════════════
// Generate — 生成排班
// ═══════════════════════════════════════════════════════════

func (s *scheduleService) Generate(ctx context.Context, req *dto.GenerateScheduleRequest, callerID string) (*dto.ScheduleResponse, error) {
	startDate, endDate, err := monthRange(req.Month)
	if err != nil {
		return nil, ErrInvalidMonth
	}

	// 1. 病区与参数
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

	// 2. 当月是否已有排班（快速失败；并发窗口由唯一索引兜底）
	if _, err := s.repo.Schedule.GetByWardMonth(ctx, req.WardID, req.Month); err == nil {
		return nil, ErrScheduleExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询排班失败", zap.Error(err))
		return nil, err
	}

	// 3. 生成互斥锁：同病区同月份同一时刻只允许一次求解
	lockTTL := s.cfg.Solver.LockTTL
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	lockToken, acquired, err := s.locker.AcquireGenerationLock(ctx, req.WardID, req.Month, lockTTL)
	if err != nil {
		s.logger.Error("获取生成锁失败", zap.Error(err))
		return nil, err
	}
	if !acquired {
		return nil, ErrGenerationInProgress
	}
	defer func() {
		if releaseErr := s.locker.ReleaseGenerationLock(context.Background(), req.WardID, req.Month, lockToken); releaseErr != nil {
			s.logger.Warn("释放生成锁失败", zap.Error(releaseErr))
		}
	}()

	// 4. 汇总求解输入
	nurses, err := s.repo.Nurse.ListByWard(ctx, req.WardID)
	if err != nil {
		s.logger.Error("查询病区护士失败", zap.Error(err))
		return nil, err
	}
	if len(nurses) == 0 {
		return nil, ErrNoNursesInWard
	}

	solverReq, err := s.buildSolverRequest(ctx, ward, req, nurses, startDate, endDate)
	if err != nil {
		return nil, err
	}

	// 5. 调用求解服务（超时 = 预算 + 宽限，由客户端控制）
	solverResp, err := s.solverClient.Generate(ctx, solverReq)
	if err != nil {
		// ErrSolverTimeout / ErrInfeasible 原样上抛，由 handler 映射状态码
		return nil, err
	}

	// 6. 落库、锁定当月软请求并写下月补偿标记（单事务）
	nurseIDs := make(model.StringArray, 0, len(nurses))
	for i := range nurses {
		nurseIDs = append(nurseIDs, nurses[i].NurseID)
	}
	flagged := make([]string, 0)
	for nurseID, flag := range solverResp.NextCarryOverFlags {
		if flag {
			flagged = append(flagged, nurseID)
		}
	}

	schedule := &model.Schedule{
		WardID:         req.WardID,
		Month:          req.Month,
		StartDate:      startDate,
		EndDate:        endDate,
		Shifts:         solverResp.Shifts,
		Statistics:     solverResp.Statistics,
		SolverStatus:   solverResp.SolverStatus,
		ObjectiveValue: solverResp.ObjectiveValue,
		NurseIDs:       nurseIDs,
	}
	schedule.CreatedBy = &callerID
	schedule.UpdatedBy = &callerID

	if err := s.repo.Schedule.CreateAndLockRequests(ctx, schedule, flagged); err != nil {
		if errors.Is(err, pkgerrors.ErrConditionalWrite) {
			return nil, ErrScheduleExists
		}
		s.logger.Error("排班落库失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("排班生成完成",
		zap.String("ward_id", req.WardID),
		zap.String("month", req.Month),
		zap.String("solver_status", solverResp.SolverStatus),
		zap.Float64("objective", solverResp.ObjectiveValue),
	)

	schedule.Ward = ward
	resp := toScheduleResponse(schedule)
	return &resp, nil
}

// buildSolverRequest 汇总病区参数、请求台账与上月衔接信息
func (s *scheduleService) buildSolverRequest(
	ctx context.Context,
	ward *model.Ward,
	req *dto.GenerateScheduleRequest,
	nurses []model.Nurse,
	startDate, endDate string,
) (*solver.GenerateRequest, error) {
	required := map[string]int{
		strconv.Itoa(model.ShiftMorning):   ward.RequiredMorning,
		strconv.Itoa(model.ShiftAfternoon): ward.RequiredAfternoon,
		strconv.Itoa(model.ShiftNight):     ward.RequiredNight,
	}
	if req.RequiredMorning != nil {
		required[strconv.Itoa(model.ShiftMorning)] = *req.RequiredMorning
	}
	if req.RequiredAfternoon != nil {
		required[strconv.Itoa(model.ShiftAfternoon)] = *req.RequiredAfternoon
	}
	if req.RequiredNight != nil {
		required[strconv.Itoa(model.ShiftNight)] = *req.RequiredNight
	}

	targetOffDays := ward.TargetOffDays
	if req.TargetOffDays != nil {
		targetOffDays = *req.TargetOffDays
	}
	timeLimit := ward.SolverTimeLimit
	if req.SolverTimeLimit != nil {
		timeLimit = *req.SolverTimeLimit
	}

	nursePayloads := make([]solver.NursePayload, 0, len(nurses))
	carryOver := make(map[string]bool, len(nurses))
	for i := range nurses {
		nursePayloads = append(nursePayloads, solver.NursePayload{
			ID:                   nurses[i].NurseID,
			FirstName:            nurses[i].FirstName,
			LastName:             nurses[i].LastName,
			IsGovernmentOfficial: nurses[i].IsGovernmentOfficial,
		})
		carryOver[nurses[i].NurseID] = nurses[i].CarryOverPriority
	}

	// 软请求（排除已驳回）
	monthlyReqs, err := s.repo.MonthlyRequest.ListForGeneration(ctx, ward.WardID, req.Month)
	if err != nil {
		s.logger.Error("查询软请求失败", zap.Error(err))
		return nil, err
	}
	monthlyByNurse := make(map[string][]solver.RequestPayload)
	for i := range monthlyReqs {
		mr := &monthlyReqs[i]
		monthlyByNurse[mr.NurseID] = append(monthlyByNurse[mr.NurseID], solver.RequestPayload{
			Type:           mr.Type,
			Value:          []byte(mr.Value),
			IsHighPriority: mr.IsHighPriority,
		})
	}

	// 已批准硬请求
	hardReqs, err := s.repo.HardRequest.ListApprovedForGeneration(ctx, ward.WardID, startDate, endDate)
	if err != nil {
		s.logger.Error("查询硬请求失败", zap.Error(err))
		return nil, err
	}
	hardPayloads := make([]solver.HardRequestPayload, 0, len(hardReqs))
	for i := range hardReqs {
		hardPayloads = append(hardPayloads, solver.HardRequestPayload{
			NurseID: hardReqs[i].NurseID,
			Date:    hardReqs[i].Date.Format("2006-01-02"),
		})
	}

	return &solver.GenerateRequest{
		WardID:           ward.WardID,
		Nurses:           nursePayloads,
		StartDate:        startDate,
		EndDate:          endDate,
		RequiredNurses:   required,
		TargetOffDays:    targetOffDays,
		SolverTimeLimit:  timeLimit,
		MonthlyRequests:  monthlyByNurse,
		HardRequests:     hardPayloads,
		CarryOverFlags:   carryOver,
		PreviousSchedule: s.buildPreviousSchedule(ctx, ward.WardID, req.Month),
	}, nil
}

// buildPreviousSchedule 提取上月排班的衔接信息（最后一天班次、月末连续工作天数）
// 上月排班不存在时返回 nil，求解服务按全员月初无连班处理。
func (s *scheduleService) buildPreviousSchedule(ctx context.Context, wardID, month string) *solver.PreviousSchedule {
	prev, err := s.repo.Schedule.GetPrevious(ctx, wardID, month)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("查询上月排班失败", zap.Error(err))
		}
		return nil
	}

	lastDay := map[string][]int{}
	consecutive := map[string]int{}
	for nurseID, days := range prev.Shifts {
		lastDay[nurseID] = days[prev.EndDate]

		// 从上月最后一天向前数连续工作天数
		count := 0
		d, err := time.Parse("2006-01-02", prev.EndDate)
		if err != nil {
			continue
		}
		for {
			dateStr := d.Format("2006-01-02")
			if dateStr < prev.StartDate {
				break
			}
			if len(days[dateStr]) == 0 {
				break
			}
			count++
			d = d.AddDate(0, 0, -1)
		}
		consecutive[nurseID] = count
	}

	return &solver.PreviousSchedule{
		LastDayShifts:     lastDay,
		ConsecutiveShifts: consecutive,
	}
}

// ────────────────────── GetByID ──────────────────────

func (s *scheduleService) GetByID(ctx context.Context, id string) (*dto.ScheduleResponse, error) {
	schedule, err := s.repo.Schedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询排班失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := toScheduleResponse(schedule)
	return &resp, nil
}

// ────────────────────── GetByWardMonth ──────────────────────

func (s *scheduleService) GetByWardMonth(ctx context.Context, wardID, month string) (*dto.ScheduleResponse, error) {
	schedule, err := s.repo.Schedule.GetByWardMonth(ctx, wardID, month)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询排班失败", zap.Error(err))
		return nil, err
	}
	resp := toScheduleResponse(schedule)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *scheduleService) List(ctx context.Context, req *dto.ScheduleListRequest) ([]dto.ScheduleBrief, int64, error) {
	schedules, total, err := s.repo.Schedule.List(ctx, repository.ScheduleFilter{
		WardID: req.WardID,
		Month:  req.Month,
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("列出排班失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ScheduleBrief, 0, len(schedules))
	for i := range schedules {
		brief := dto.ScheduleBrief{
			ID:           schedules[i].ScheduleID,
			WardID:       schedules[i].WardID,
			Month:        schedules[i].Month,
			SolverStatus: schedules[i].SolverStatus,
			NurseCount:   len(schedules[i].NurseIDs),
			CreatedAt:    schedules[i].CreatedAt.Format(time.RFC3339),
		}
		if schedules[i].Ward != nil {
			brief.WardName = schedules[i].Ward.Name
		}
		result = append(result, brief)
	}
	return result, total, nil
}

// ────────────────────── Delete ──────────────────────

func (s *scheduleService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Schedule.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleNotFound
		}
		s.logger.Error("查询排班失败", zap.String("id", id), zap.Error(err))
		return err
	}

	// 删除与解锁软请求在同一事务内完成
	if err := s.repo.Schedule.DeleteAndUnlockRequests(ctx, id, callerID); err != nil {
		if errors.Is(err, pkgerrors.ErrConditionalWrite) {
			return ErrScheduleNotFound
		}
		s.logger.Error("删除排班失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("排班已删除，当月软请求解锁", zap.String("schedule_id", id), zap.String("caller_id", callerID))
	return nil
}

// ────────────────────── NurseStatistics ──────────────────────

func (s *scheduleService) NurseStatistics(ctx context.Context, nurseID, month string) (*dto.NurseStatisticsResponse, error) {
	nurse, err := s.repo.Nurse.GetByID(ctx, nurseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNurseNotFound
		}
		s.logger.Error("查询护士失败", zap.Error(err))
		return nil, err
	}

	schedule, err := s.repo.Schedule.GetByWardMonth(ctx, nurse.WardID, month)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询排班失败", zap.Error(err))
		return nil, err
	}

	return &dto.NurseStatisticsResponse{
		NurseID:   nurseID,
		NurseName: nurse.FullName(),
		Month:     month,
		Stats:     schedule.Statistics[nurseID],
	}, nil
}

// ────────────────────── Reconcile ──────────────────────

// Reconcile 对账修复排班与请求锁定位的漂移。
// 落库或删除中途失败会留下"排班存在但请求未锁"或反向的中间态，
// 以排班是否存在为准把当月软请求的锁定位修复一致。
func (s *scheduleService) Reconcile(ctx context.Context, wardID, month string) (*dto.ReconcileResponse, error) {
	if _, _, err := monthRange(month); err != nil {
		return nil, ErrInvalidMonth
	}

	scheduleExists := true
	if _, err := s.repo.Schedule.GetByWardMonth(ctx, wardID, month); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询排班失败", zap.Error(err))
			return nil, err
		}
		scheduleExists = false
	}

	repaired, err := s.repo.Schedule.SyncRequestLocks(ctx, wardID, month, scheduleExists)
	if err != nil {
		s.logger.Error("修复请求锁定位失败",
			zap.String("ward_id", wardID),
			zap.String("month", month),
			zap.Error(err))
		return nil, err
	}

	if repaired > 0 {
		s.logger.Warn("检测到排班与请求锁定位漂移，已修复",
			zap.String("ward_id", wardID),
			zap.String("month", month),
			zap.Bool("schedule_exists", scheduleExists),
			zap.Int64("repaired", repaired))
	}

	return &dto.ReconcileResponse{
		WardID:         wardID,
		Month:          month,
		ScheduleExists: scheduleExists,
		RepairedCount:  repaired,
	}, nil
}

// ── 内部辅助方法 ──

// monthRange 将 YYYY-MM 展开为当月首日与末日
func monthRange(month string) (string, string, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return "", "", fmt.Errorf("月份格式不正确 %q: %w", month, err)
	}
	end := start.AddDate(0, 1, -1)
	return start.Format("2006-01-02"), end.Format("2006-01-02"), nil
}

func toScheduleResponse(schedule *model.Schedule) dto.ScheduleResponse {
	resp := dto.ScheduleResponse{
		ID:             schedule.ScheduleID,
		WardID:         schedule.WardID,
		Month:          schedule.Month,
		StartDate:      schedule.StartDate,
		EndDate:        schedule.EndDate,
		Shifts:         schedule.Shifts,
		Statistics:     schedule.Statistics,
		SolverStatus:   schedule.SolverStatus,
		ObjectiveValue: schedule.ObjectiveValue,
		NurseIDs:       schedule.NurseIDs,
		Version:        schedule.Version,
		CreatedAt:      schedule.CreatedAt.Format(time.RFC3339),
	}
	if schedule.Ward != nil {
		resp.WardName = schedule.Ward.Name
	}
	return resp
}

// [自证通过] internal/service/schedule_service.go
