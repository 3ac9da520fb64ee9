package service

import (
	"alumni_backend/internal/model"
	"alumni_backend/internal/repository"
	"alumni_backend/internal/util"
	"errors"
	"time"

	"gorm.io/gorm"
)

// NotificationService 通知账本的接收者侧操作。
// 通知的产生只走编排器，这里只允许接收者改自己通知的状态。
type NotificationService struct {
	NotifyRepo *repository.NotificationRepository
}

func NewNotificationService(notifyRepo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{NotifyRepo: notifyRepo}
}

func (s *NotificationService) List(userID uint, status *model.NotificationStatus, typ *model.NotificationType, page, limit int) ([]model.Notification, int64, error) {
	return s.NotifyRepo.ListForRecipient(userID, status, typ, limit, (page-1)*limit)
}

func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	return s.NotifyRepo.CountUnread(userID)
}

func (s *NotificationService) getOwned(userID uint, id string) (*model.Notification, error) {
	n, err := s.NotifyRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	if n.RecipientID != userID {
		return nil, util.ErrForbidden
	}
	return n, nil
}

// MarkRead 幂等：重复标记不报错，已读时间以第一次为准
func (s *NotificationService) MarkRead(userID uint, id string) (*model.Notification, error) {
	n, err := s.getOwned(userID, id)
	if err != nil {
		return nil, err
	}
	if n.Status != model.NotificationUnread {
		return n, nil
	}

	now := time.Now()
	if err := s.NotifyRepo.UpdateStatus(n, model.NotificationRead, &now); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(userID uint) (int64, error) {
	return s.NotifyRepo.MarkAllRead(userID)
}

// Archive 幂等；未读的通知归档时顺带盖已读时间
func (s *NotificationService) Archive(userID uint, id string) (*model.Notification, error) {
	n, err := s.getOwned(userID, id)
	if err != nil {
		return nil, err
	}
	if n.Status == model.NotificationArchived {
		return n, nil
	}

	var readAt *time.Time
	if n.ReadAt == nil {
		now := time.Now()
		readAt = &now
	}
	if err := s.NotifyRepo.UpdateStatus(n, model.NotificationArchived, readAt); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *NotificationService) Delete(userID uint, id string) error {
	n, err := s.getOwned(userID, id)
	if err != nil {
		return err
	}
	return s.NotifyRepo.Delete(n)
}
