package model

import (
	"fmt"
	"time"
)

// RequestSubject 申请类别：联络申请或职缺交流申请，两者共用同一张表
type RequestSubject string

const (
	SubjectContact     RequestSubject = "contact"
	SubjectJobExchange RequestSubject = "job_exchange"
)

// ParseRequestSubject 在边界处拒绝未知类别，而不是静默回退默认值
func ParseRequestSubject(s string) (RequestSubject, bool) {
	switch RequestSubject(s) {
	case SubjectContact, SubjectJobExchange:
		return RequestSubject(s), true
	}
	return "", false
}

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestRejected  RequestStatus = "rejected"
	RequestCancelled RequestStatus = "cancelled"
)

func ParseRequestStatus(s string) (RequestStatus, bool) {
	switch RequestStatus(s) {
	case RequestPending, RequestAccepted, RequestRejected, RequestCancelled:
		return RequestStatus(s), true
	}
	return "", false
}

// IsActive pending/accepted 视为占用配对，rejected/cancelled 之后可以重新申请
func (s RequestStatus) IsActive() bool {
	return s == RequestPending || s == RequestAccepted
}

// SocialRequest 定向社交申请（联络 / 职缺交流）。
// PairKey 在申请处于活跃状态时写入 "<subject>:<minID>:<maxID>"，
// 失活时清空。唯一索引由此在存储层保证同一对用户同一类别
// 最多一条活跃申请，并发重复插入直接撞唯一键。
type SocialRequest struct {
	UUIDBase
	RequesterID uint           `gorm:"index;not null" json:"requesterId"`
	Requester   User           `gorm:"foreignKey:RequesterID;references:ID;constraint:false" json:"requester,omitempty"`
	TargetID    uint           `gorm:"index;not null" json:"targetId"`
	Target      User           `gorm:"foreignKey:TargetID;references:ID;constraint:false" json:"target,omitempty"`
	Subject     RequestSubject `gorm:"type:varchar(20);not null;default:'contact'" json:"subject"`
	JobID       *uint          `gorm:"index" json:"jobId,omitempty"`
	Message     string         `gorm:"size:255" json:"message"`
	Status      RequestStatus  `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PairKey     *string        `gorm:"size:64;uniqueIndex:uniq_active_request_pair" json:"-"`
	RespondedAt *time.Time     `json:"respondedAt"`
}

func (SocialRequest) TableName() string {
	return "social_requests"
}

// ActivePairKey 无序配对键，低位 ID 在前
func ActivePairKey(subject RequestSubject, userID1, userID2 uint) string {
	if userID1 > userID2 {
		userID1, userID2 = userID2, userID1
	}
	return fmt.Sprintf("%s:%d:%d", subject, userID1, userID2)
}
