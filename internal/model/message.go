package model

import "time"

// Message 会话内的消息，创建后除 ReadAt 单向翻转外不可变。
// (conversation_id, created_at) 联合索引优化历史消息查询，
// 同一会话内按 created_at 排序，时间相同时按 ID 决出先后。
type Message struct {
	UUIDBase
	ConversationID string       `gorm:"index;index:idx_msg_conv_created;type:varchar(36);not null" json:"conversationId"`
	CreatedAt      time.Time    `gorm:"index:idx_msg_conv_created" json:"createdAt"`
	Conversation   Conversation `gorm:"foreignKey:ConversationID" json:"-"`
	SenderID       uint         `gorm:"index;not null" json:"senderId"`
	Sender         User         `gorm:"foreignKey:SenderID;references:ID;constraint:false" json:"sender,omitempty"`
	Type           string       `gorm:"type:varchar(20);default:'text'" json:"type"`
	Content        string       `gorm:"type:text;not null" json:"content"`
	AttachmentURL  string       `gorm:"size:500" json:"attachmentUrl,omitempty"`
	AttachmentName string       `gorm:"size:200" json:"attachmentName,omitempty"`
	IsSystem       bool         `gorm:"default:false" json:"isSystem"`
	ReadAt         *time.Time   `json:"readAt"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) IsRead() bool {
	return m.ReadAt != nil
}
