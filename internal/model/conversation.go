package model

import "time"

type ConversationType string

const (
	ConversationContact     ConversationType = "contact"
	ConversationJobExchange ConversationType = "job_exchange"
	ConversationDirect      ConversationType = "direct"
)

// Conversation 两人会话，一对用户只存一行：UserAID 恒为较小的用户 ID，
// 配对唯一索引保证并发首次建立时只会成功一条。
// 未读数、封存、删除标记均按参与者分列存储。
type Conversation struct {
	UUIDBase
	UserAID uint             `gorm:"not null;uniqueIndex:uniq_conversation_pair,priority:1" json:"userAId"`
	UserBID uint             `gorm:"not null;uniqueIndex:uniq_conversation_pair,priority:2;index" json:"userBId"`
	UserA   User             `gorm:"foreignKey:UserAID;references:ID;constraint:false" json:"userA,omitempty"`
	UserB   User             `gorm:"foreignKey:UserBID;references:ID;constraint:false" json:"userB,omitempty"`
	Type    ConversationType `gorm:"type:varchar(20);default:'direct'" json:"type"`

	// 会话来源（接受的申请或关联职缺），仅用于展示跳转
	RequestID *string `gorm:"type:varchar(36)" json:"requestId,omitempty"`
	JobID     *uint   `json:"jobId,omitempty"`
	Title     string  `gorm:"size:200" json:"title"`

	UnreadCountA int `gorm:"not null;default:0" json:"-"`
	UnreadCountB int `gorm:"not null;default:0" json:"-"`

	LastMessageAt      *time.Time `gorm:"index" json:"lastMessageAt"`
	LastMessagePreview string     `gorm:"size:200" json:"lastMessagePreview"`

	ArchivedByA bool `gorm:"default:false" json:"-"`
	ArchivedByB bool `gorm:"default:false" json:"-"`
	DeletedByA  bool `gorm:"default:false" json:"-"`
	DeletedByB  bool `gorm:"default:false" json:"-"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// CanonicalPair 规范化参与者顺序，低位 ID 在前
func CanonicalPair(userID1, userID2 uint) (uint, uint) {
	if userID1 > userID2 {
		return userID2, userID1
	}
	return userID1, userID2
}

func (c *Conversation) IsParticipant(userID uint) bool {
	return userID == c.UserAID || userID == c.UserBID
}

func (c *Conversation) OtherParticipant(userID uint) uint {
	if userID == c.UserAID {
		return c.UserBID
	}
	return c.UserAID
}

func (c *Conversation) UnreadFor(userID uint) int {
	if userID == c.UserAID {
		return c.UnreadCountA
	}
	if userID == c.UserBID {
		return c.UnreadCountB
	}
	return 0
}

func (c *Conversation) ArchivedFor(userID uint) bool {
	if userID == c.UserAID {
		return c.ArchivedByA
	}
	if userID == c.UserBID {
		return c.ArchivedByB
	}
	return false
}

// TruncatePreview 预览最长 200 字符，超长截取 197 字符加省略号
func TruncatePreview(content string) string {
	runes := []rune(content)
	if len(runes) <= 200 {
		return content
	}
	return string(runes[:197]) + "..."
}
