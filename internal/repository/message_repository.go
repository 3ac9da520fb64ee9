package repository

import (
	"alumni_backend/internal/model"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type MessageRepository struct {
	DB *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

// CreateWithConversationUpdate 发消息的落库事务：插入消息，同一事务内
// 原子累加对方未读数、刷新预览与时间戳，并把会话从对方的封存/删除
// 状态中捞回来。计数只用 SQL 表达式更新，避免读改写丢更新。
func (r *MessageRepository) CreateWithConversationUpdate(msg *model.Message, conv *model.Conversation) error {
	recipientID := conv.OtherParticipant(msg.SenderID)
	unreadCol, archivedCol, deletedCol := sideColumns(conv, recipientID)

	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			unreadCol:              gorm.Expr(fmt.Sprintf("%s + 1", unreadCol)),
			archivedCol:            false,
			deletedCol:             false,
			"last_message_at":      msg.CreatedAt,
			"last_message_preview": model.TruncatePreview(msg.Content),
		}
		return tx.Model(&model.Conversation{}).Where("id = ?", conv.ID).Updates(updates).Error
	})
}

func (r *MessageRepository) GetByID(id string) (*model.Message, error) {
	var msg model.Message
	err := r.DB.First(&msg, "id = ?", id).Error
	return &msg, err
}

// ListByConversation 旧消息在前，时间相同按 ID 定序
func (r *MessageRepository) ListByConversation(convID string, limit, offset int) ([]model.Message, int64, error) {
	var msgs []model.Message
	var total int64

	db := r.DB.Model(&model.Message{}).
		Preload("Sender").
		Where("conversation_id = ?", convID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at ASC, id ASC").Limit(limit).Offset(offset).Find(&msgs).Error
	return msgs, total, err
}

// MarkConversationRead 给发给我的未读消息盖 read_at，同一事务清零我的计数。
// 重复调用是幂等的。
func (r *MessageRepository) MarkConversationRead(conv *model.Conversation, readerID uint) (int64, error) {
	unreadCol, _, _ := sideColumns(conv, readerID)
	var stamped int64

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Message{}).
			Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conv.ID, readerID).
			Update("read_at", time.Now())
		if res.Error != nil {
			return res.Error
		}
		stamped = res.RowsAffected

		return tx.Model(&model.Conversation{}).
			Where("id = ?", conv.ID).
			Update(unreadCol, 0).Error
	})
	return stamped, err
}

// DeleteWithCounterFix 删除消息；被删的是一条对方还没读的消息时，
// 同一事务把对方未读数减一，计数与消息账本保持一致。
func (r *MessageRepository) DeleteWithCounterFix(msg *model.Message, conv *model.Conversation) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Message{}, "id = ?", msg.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if msg.ReadAt == nil {
			recipientID := conv.OtherParticipant(msg.SenderID)
			unreadCol, _, _ := sideColumns(conv, recipientID)
			expr := fmt.Sprintf("CASE WHEN %s > 0 THEN %s - 1 ELSE 0 END", unreadCol, unreadCol)
			return tx.Model(&model.Conversation{}).
				Where("id = ?", conv.ID).
				Update(unreadCol, gorm.Expr(expr)).Error
		}
		return nil
	})
}
