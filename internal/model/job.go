package model

// Job 职缺信息的最小记录，供职缺交流申请与会话做关联展示。
// 职缺的检索/管理接口不在本服务范围内。
type Job struct {
	BaseModel
	PosterID    uint   `gorm:"index;not null" json:"posterId"`
	Poster      User   `gorm:"foreignKey:PosterID;references:ID;constraint:false" json:"poster,omitempty"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Company     string `gorm:"size:200" json:"company"`
	Location    string `gorm:"size:200" json:"location"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"isActive"`
}

func (Job) TableName() string {
	return "jobs"
}
