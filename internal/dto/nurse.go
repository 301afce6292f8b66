package dto

// ── 护士模块 DTO ──

// NurseListRequest 护士列表查询参数
type NurseListRequest struct {
	PaginationRequest
	WardID  string `form:"ward_id" binding:"omitempty,uuid"`
	Role    string `form:"role"    binding:"omitempty,oneof=nurse admin"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// CreateNurseRequest 创建护士账号请求（仅管理员）
type CreateNurseRequest struct {
	Prefix               string `json:"prefix"                 binding:"omitempty,max=20"`
	FirstName            string `json:"first_name"             binding:"required,max=100"`
	LastName             string `json:"last_name"              binding:"required,max=100"`
	Email                string `json:"email"                  binding:"required,email"`
	Phone                string `json:"phone"                  binding:"omitempty,max=20"`
	Password             string `json:"password"               binding:"required,min=8,max=64"`
	Position             string `json:"position"               binding:"omitempty,max=100"`
	WardID               string `json:"ward_id"                binding:"required,uuid"`
	IsGovernmentOfficial bool   `json:"is_government_official"`
	StartDate            string `json:"start_date"             binding:"omitempty,datetime=2006-01-02"`
}

// UpdateNurseRequest 更新护士资料请求（部分更新）
type UpdateNurseRequest struct {
	Prefix               *string `json:"prefix"                 binding:"omitempty,max=20"`
	FirstName            *string `json:"first_name"             binding:"omitempty,max=100"`
	LastName             *string `json:"last_name"              binding:"omitempty,max=100"`
	Email                *string `json:"email"                  binding:"omitempty,email"`
	Phone                *string `json:"phone"                  binding:"omitempty,max=20"`
	Position             *string `json:"position"               binding:"omitempty,max=100"`
	IsGovernmentOfficial *bool   `json:"is_government_official"`
}

// SetAdministratorRequest 授予/撤销病区管理员请求
type SetAdministratorRequest struct {
	IsAdministrator bool `json:"is_administrator"`
}

// TransferNurseRequest 调动护士到其他病区请求
type TransferNurseRequest struct {
	ToWardID string `json:"to_ward_id" binding:"required,uuid"`
}

// ResetPasswordResponse 重置密码响应
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

// [自证通过] internal/dto/nurse.go
