package repository

import (
	"alumni_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationRepository struct {
	DB *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{DB: db}
}

// getOrCreateConversation 插入时冲突则静默跳过，再按配对回查。
// 两个事务同时首建时唯一索引保证只落一行，双方都拿到同一会话。
func getOrCreateConversation(db *gorm.DB, conv *model.Conversation) error {
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_a_id"}, {Name: "user_b_id"}},
		DoNothing: true,
	}).Create(conv)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// BeforeCreate 已经给 conv 盖了新 ID，带着它回查会把主键
		// 一并拼进条件里，必须用干净的目标结构查已有行
		var existing model.Conversation
		err := db.Where("user_a_id = ? AND user_b_id = ?", conv.UserAID, conv.UserBID).
			First(&existing).Error
		if err != nil {
			return err
		}
		*conv = existing
	}
	return nil
}

func (r *ConversationRepository) GetOrCreate(conv *model.Conversation) error {
	return getOrCreateConversation(r.DB, conv)
}

func (r *ConversationRepository) GetByID(id string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.DB.Preload("UserA").Preload("UserB").First(&conv, "id = ?", id).Error
	return &conv, err
}

func (r *ConversationRepository) GetByPair(userA, userB uint) (*model.Conversation, error) {
	a, b := model.CanonicalPair(userA, userB)
	var conv model.Conversation
	err := r.DB.Where("user_a_id = ? AND user_b_id = ?", a, b).First(&conv).Error
	return &conv, err
}

// ListForUser 按最近消息倒序；未删除，默认不含封存
func (r *ConversationRepository) ListForUser(userID uint, includeArchived bool, limit, offset int) ([]model.Conversation, int64, error) {
	var convs []model.Conversation
	var total int64

	db := r.DB.Model(&model.Conversation{}).
		Preload("UserA").Preload("UserB").
		Where(
			r.DB.Where("user_a_id = ? AND deleted_by_a = ?", userID, false).
				Or("user_b_id = ? AND deleted_by_b = ?", userID, false),
		)

	if !includeArchived {
		db = db.Where(
			r.DB.Where("user_a_id = ? AND archived_by_a = ?", userID, false).
				Or("user_b_id = ? AND archived_by_b = ?", userID, false),
		)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("last_message_at IS NULL, last_message_at DESC").
		Limit(limit).Offset(offset).
		Find(&convs).Error
	return convs, total, err
}

// sideColumns 参与者落在哪一侧，决定更新哪组列
func sideColumns(conv *model.Conversation, userID uint) (unread, archived, deleted string) {
	if userID == conv.UserAID {
		return "unread_count_a", "archived_by_a", "deleted_by_a"
	}
	return "unread_count_b", "archived_by_b", "deleted_by_b"
}

func (r *ConversationRepository) SetArchived(conv *model.Conversation, userID uint, archived bool) error {
	_, col, _ := sideColumns(conv, userID)
	return r.DB.Model(&model.Conversation{}).Where("id = ?", conv.ID).Update(col, archived).Error
}

func (r *ConversationRepository) SetDeleted(conv *model.Conversation, userID uint, deleted bool) error {
	_, _, col := sideColumns(conv, userID)
	return r.DB.Model(&model.Conversation{}).Where("id = ?", conv.ID).Update(col, deleted).Error
}

// TotalUnread 调用方所有未删除会话的未读数之和
func (r *ConversationRepository) TotalUnread(userID uint) (int64, error) {
	var total int64
	err := r.DB.Model(&model.Conversation{}).
		Select("COALESCE(SUM(CASE WHEN user_a_id = ? THEN unread_count_a ELSE unread_count_b END), 0)", userID).
		Where(
			r.DB.Where("user_a_id = ? AND deleted_by_a = ?", userID, false).
				Or("user_b_id = ? AND deleted_by_b = ?", userID, false),
		).
		Scan(&total).Error
	return total, err
}
