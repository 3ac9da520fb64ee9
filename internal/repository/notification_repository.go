package repository

import (
	"alumni_backend/internal/model"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
	ctx   context.Context
}

func NewNotificationRepository(db *gorm.DB, rdb *redis.Client) *NotificationRepository {
	return &NotificationRepository{
		DB:    db,
		Redis: rdb,
		ctx:   context.Background(),
	}
}

func unreadBadgeKey(userID uint) string {
	return fmt.Sprintf("notify:unread:%d", userID)
}

func (r *NotificationRepository) invalidateBadge(userID uint) {
	if r.Redis != nil {
		r.Redis.Del(r.ctx, unreadBadgeKey(userID))
	}
}

func (r *NotificationRepository) Create(n *model.Notification) error {
	err := r.DB.Create(n).Error
	if err == nil {
		r.invalidateBadge(n.RecipientID)
	}
	return err
}

// CreateBatch 同一事务写入一批通知（例如活动取消的逐人通知）
func (r *NotificationRepository) CreateBatch(ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	err := r.DB.Create(&ns).Error
	if err == nil {
		for i := range ns {
			r.invalidateBadge(ns[i].RecipientID)
		}
	}
	return err
}

func (r *NotificationRepository) GetByID(id string) (*model.Notification, error) {
	var n model.Notification
	err := r.DB.First(&n, "id = ?", id).Error
	return &n, err
}

func (r *NotificationRepository) ListForRecipient(userID uint, status *model.NotificationStatus, typ *model.NotificationType, limit, offset int) ([]model.Notification, int64, error) {
	var ns []model.Notification
	var total int64

	db := r.DB.Model(&model.Notification{}).Where("recipient_id = ?", userID)
	if status != nil {
		db = db.Where("status = ?", *status)
	}
	if typ != nil {
		db = db.Where("type = ?", *typ)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&ns).Error
	return ns, total, err
}

func (r *NotificationRepository) UpdateStatus(n *model.Notification, status model.NotificationStatus, readAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if readAt != nil {
		updates["read_at"] = readAt
	}
	err := r.DB.Model(&model.Notification{}).Where("id = ?", n.ID).Updates(updates).Error
	if err == nil {
		n.Status = status
		if readAt != nil {
			n.ReadAt = readAt
		}
		r.invalidateBadge(n.RecipientID)
	}
	return err
}

func (r *NotificationRepository) MarkAllRead(userID uint) (int64, error) {
	res := r.DB.Model(&model.Notification{}).
		Where("recipient_id = ? AND status = ?", userID, model.NotificationUnread).
		Updates(map[string]interface{}{
			"status":  model.NotificationRead,
			"read_at": time.Now(),
		})
	if res.Error == nil {
		r.invalidateBadge(userID)
	}
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) Delete(n *model.Notification) error {
	err := r.DB.Delete(&model.Notification{}, "id = ?", n.ID).Error
	if err == nil {
		r.invalidateBadge(n.RecipientID)
	}
	return err
}

// CountUnread 未读角标，带短过期缓存，写路径统一失效
func (r *NotificationRepository) CountUnread(userID uint) (int64, error) {
	if r.Redis != nil {
		cached, err := r.Redis.Get(r.ctx, unreadBadgeKey(userID)).Result()
		if err == nil {
			if v, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
				return v, nil
			}
		}
	}

	var count int64
	err := r.DB.Model(&model.Notification{}).
		Where("recipient_id = ? AND status = ?", userID, model.NotificationUnread).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	if r.Redis != nil {
		r.Redis.Set(r.ctx, unreadBadgeKey(userID), count, 5*time.Minute)
	}
	return count, nil
}
