package model

import (
	"time"
)

type UserRole string

const (
	Alumni UserRole = "alumni"
	Admin  UserRole = "admin"
)

type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserPending   UserStatus = "pending"
	UserSuspended UserStatus = "suspended"
)

// User 系友账号。激活/停用状态由注册审核流程决定，
// 消息核心只读取 Status，不参与审核逻辑。
// swagger:model User
type User struct {
	BaseModel
	Name           string     `gorm:"size:100;not null" json:"name"`
	Email          string     `gorm:"size:100;unique;not null" json:"email"`
	Password       string     `gorm:"size:100;not null" json:"-"`
	Role           UserRole   `gorm:"type:varchar(20);default:'alumni'" json:"role"`
	Status         UserStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`
	Avatar         string     `gorm:"size:255" json:"avatar"`
	CurrentCompany string     `gorm:"size:200" json:"currentCompany"`
	CurrentTitle   string     `gorm:"size:200" json:"currentTitle"`
	GraduationYear int        `gorm:"default:0" json:"graduationYear"`
	LastLogin      time.Time  `gorm:"autoCreateTime" json:"lastLogin"`
	LastSeen       time.Time  `gorm:"autoCreateTime" json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}

// IsActive 仅 active 账号可以发起或响应社交操作
func (u *User) IsActive() bool {
	return u.Status == UserActive
}
