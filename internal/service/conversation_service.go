package service

import (
	"alumni_backend/internal/model"
	"alumni_backend/internal/repository"
	"alumni_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

// ConversationView 会话在调用方视角下的形态：
// 未读数与封存标记只暴露自己这一侧。
type ConversationView struct {
	model.Conversation
	UnreadCount int  `json:"unreadCount"`
	Archived    bool `json:"archived"`
}

type ConversationService struct {
	ConvRepo *repository.ConversationRepository
	UserRepo *repository.UserRepository
}

func NewConversationService(convRepo *repository.ConversationRepository, userRepo *repository.UserRepository) *ConversationService {
	return &ConversationService{
		ConvRepo: convRepo,
		UserRepo: userRepo,
	}
}

// GetOrCreate 与某用户的直连会话，存在即复用。
// 并发同时首建时由配对唯一索引保证只落一行。
func (s *ConversationService) GetOrCreate(userID, otherID uint) (*model.Conversation, error) {
	if userID == otherID {
		return nil, util.ErrInvalidTarget
	}

	if _, err := s.UserRepo.GetActiveByID(otherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidTarget
		}
		return nil, err
	}

	a, b := model.CanonicalPair(userID, otherID)
	conv := &model.Conversation{
		UserAID: a,
		UserBID: b,
		Type:    model.ConversationDirect,
	}
	if err := s.ConvRepo.GetOrCreate(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ConversationService) Get(userID uint, convID string) (*model.Conversation, error) {
	conv, err := s.ConvRepo.GetByID(convID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	if !conv.IsParticipant(userID) {
		return nil, util.ErrForbidden
	}
	return conv, nil
}

func (s *ConversationService) List(userID uint, includeArchived bool, page, limit int) ([]ConversationView, int64, error) {
	convs, total, err := s.ConvRepo.ListForUser(userID, includeArchived, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}

	views := make([]ConversationView, 0, len(convs))
	for i := range convs {
		views = append(views, ConversationView{
			Conversation: convs[i],
			UnreadCount:  convs[i].UnreadFor(userID),
			Archived:     convs[i].ArchivedFor(userID),
		})
	}
	return views, total, nil
}

func (s *ConversationService) SetArchived(userID uint, convID string, archived bool) error {
	conv, err := s.Get(userID, convID)
	if err != nil {
		return err
	}
	return s.ConvRepo.SetArchived(conv, userID, archived)
}

// Delete 软删除，只影响调用方视角；对方再次发消息会让会话重新出现
func (s *ConversationService) Delete(userID uint, convID string) error {
	conv, err := s.Get(userID, convID)
	if err != nil {
		return err
	}
	return s.ConvRepo.SetDeleted(conv, userID, true)
}

func (s *ConversationService) TotalUnread(userID uint) (int64, error) {
	return s.ConvRepo.TotalUnread(userID)
}
