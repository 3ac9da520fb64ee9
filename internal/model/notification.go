package model

import "time"

type NotificationType string

const (
	NotifyRequestReceived       NotificationType = "request_received"
	NotifyRequestAccepted       NotificationType = "request_accepted"
	NotifyRequestRejected       NotificationType = "request_rejected"
	NotifyNewMessage            NotificationType = "new_message"
	NotifyRegistrationReceived  NotificationType = "registration_received"
	NotifyRegistrationCancelled NotificationType = "registration_cancelled"
	NotifyEventCancelled        NotificationType = "event_cancelled"

	// 以下类型暂无产生方，保留给公告/提醒等后续模块，消费端需容忍
	NotifyEventReminder      NotificationType = "event_reminder"
	NotifyBulletinPublished  NotificationType = "bulletin_published"
	NotifySystemAnnouncement NotificationType = "system_announcement"
)

type NotificationStatus string

const (
	NotificationUnread   NotificationStatus = "unread"
	NotificationRead     NotificationStatus = "read"
	NotificationArchived NotificationStatus = "archived"
)

func ParseNotificationStatus(s string) (NotificationStatus, bool) {
	switch NotificationStatus(s) {
	case NotificationUnread, NotificationRead, NotificationArchived:
		return NotificationStatus(s), true
	}
	return "", false
}

// Notification 持久化通知，未读角标的事实来源。
// 只由编排器写入，接收者只能改状态。
type Notification struct {
	UUIDBase
	RecipientID uint               `gorm:"not null;index;index:idx_notify_recipient_status,priority:1" json:"recipientId"`
	Type        NotificationType   `gorm:"type:varchar(40);not null" json:"type"`
	Title       string             `gorm:"size:200;not null" json:"title"`
	Message     string             `gorm:"type:text" json:"message"`
	RelatedType string             `gorm:"size:50" json:"relatedType,omitempty"`
	RelatedID   string             `gorm:"size:64" json:"relatedId,omitempty"`
	Status      NotificationStatus `gorm:"type:varchar(20);default:'unread';index:idx_notify_recipient_status,priority:2" json:"status"`
	ReadAt      *time.Time         `json:"readAt"`
}

func (Notification) TableName() string {
	return "notifications"
}
