package model

import "time"

type EventStatus string

const (
	EventScheduled EventStatus = "scheduled"
	EventCancelled EventStatus = "cancelled"
)

// Event 活动，消息核心只关心报名与取消触发的通知链路，
// 其余活动管理字段从简。
type Event struct {
	BaseModel
	Title       string      `gorm:"size:200;not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	OrganizerID uint        `gorm:"index;not null" json:"organizerId"`
	Organizer   User        `gorm:"foreignKey:OrganizerID;references:ID;constraint:false" json:"organizer,omitempty"`
	Location    string      `gorm:"size:200" json:"location"`
	StartsAt    time.Time   `json:"startsAt"`
	Status      EventStatus `gorm:"type:varchar(20);default:'scheduled'" json:"status"`
}

func (Event) TableName() string {
	return "events"
}

type RegistrationStatus string

const (
	RegistrationActive    RegistrationStatus = "registered"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// EventRegistration 活动报名，(event_id, user_id) 唯一，
// 取消后重新报名复用同一行翻回 registered。
type EventRegistration struct {
	BaseModel
	EventID     uint               `gorm:"not null;uniqueIndex:uniq_event_registration,priority:1" json:"eventId"`
	Event       Event              `gorm:"foreignKey:EventID" json:"-"`
	UserID      uint               `gorm:"not null;uniqueIndex:uniq_event_registration,priority:2;index" json:"userId"`
	User        User               `gorm:"foreignKey:UserID;references:ID;constraint:false" json:"user,omitempty"`
	Status      RegistrationStatus `gorm:"type:varchar(20);default:'registered'" json:"status"`
	Note        string             `gorm:"size:255" json:"note"`
	CancelledAt *time.Time         `json:"cancelledAt"`
}

func (EventRegistration) TableName() string {
	return "event_registrations"
}
