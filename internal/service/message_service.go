package service

import (
	"alumni_backend/internal/model"
	"alumni_backend/internal/repository"
	"alumni_backend/internal/util"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// RoomPusher 消息链路需要的推送面：用户级与会话级两种投递
type RoomPusher interface {
	PushToUsers(userIDs []uint, evt WSEvent)
	PushToConversation(conv *model.Conversation, senderID uint, evt WSEvent)
}

type SendMessageInput struct {
	Content        string
	Type           string
	AttachmentURL  string
	AttachmentName string
}

// MessageService 消息账本。消息一经写入不可改内容，只有 read_at 单向翻转。
// 发送与计数更新在同一事务内完成，推送失败不影响落库结果。
type MessageService struct {
	MsgRepo      *repository.MessageRepository
	ConvRepo     *repository.ConversationRepository
	Orchestrator *Orchestrator
	Hub          RoomPusher
}

func NewMessageService(msgRepo *repository.MessageRepository, convRepo *repository.ConversationRepository, orch *Orchestrator, hub RoomPusher) *MessageService {
	return &MessageService{
		MsgRepo:      msgRepo,
		ConvRepo:     convRepo,
		Orchestrator: orch,
		Hub:          hub,
	}
}

func (s *MessageService) Send(senderID uint, convID string, input SendMessageInput) (*model.Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" && input.AttachmentURL == "" {
		return nil, util.ErrEmptyContent
	}

	conv, err := s.ConvRepo.GetByID(convID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	if !conv.IsParticipant(senderID) {
		return nil, util.ErrForbidden
	}

	msgType := input.Type
	if msgType == "" {
		msgType = "text"
	}

	msg := &model.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Type:           msgType,
		Content:        content,
		AttachmentURL:  input.AttachmentURL,
		AttachmentName: input.AttachmentName,
	}

	if err := s.MsgRepo.CreateWithConversationUpdate(msg, conv); err != nil {
		return nil, err
	}

	s.Orchestrator.MessageSent(msg, conv)
	if s.Hub != nil {
		s.Hub.PushToConversation(conv, senderID, WSEvent{Type: EventNewMessage, Data: msg})
	}
	return msg, nil
}

func (s *MessageService) List(userID uint, convID string, page, limit int) ([]model.Message, int64, error) {
	conv, err := s.ConvRepo.GetByID(convID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, util.ErrNotFound
		}
		return nil, 0, err
	}
	if !conv.IsParticipant(userID) {
		return nil, 0, util.ErrForbidden
	}

	return s.MsgRepo.ListByConversation(convID, limit, (page-1)*limit)
}

// MarkRead 幂等：把发给我的未读消息全部盖章并清零我的未读数
func (s *MessageService) MarkRead(userID uint, convID string) (int64, error) {
	conv, err := s.ConvRepo.GetByID(convID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, util.ErrNotFound
		}
		return 0, err
	}
	if !conv.IsParticipant(userID) {
		return 0, util.ErrForbidden
	}

	stamped, err := s.MsgRepo.MarkConversationRead(conv, userID)
	if err != nil {
		return 0, err
	}

	if stamped > 0 && s.Hub != nil {
		// 已读回执推给对方
		s.Hub.PushToConversation(conv, userID, WSEvent{
			Type: EventMessagesRead,
			Data: map[string]interface{}{
				"conversationId": conv.ID,
				"readerId":       userID,
				"count":          stamped,
			},
		})
	}
	return stamped, nil
}

// Delete 仅发送者可删。删掉一条对方未读的消息时，
// 对方的未读数在同一事务里同步减一。
func (s *MessageService) Delete(userID uint, messageID string) error {
	msg, err := s.MsgRepo.GetByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotFound
		}
		return err
	}
	if msg.SenderID != userID {
		return util.ErrForbidden
	}

	conv, err := s.ConvRepo.GetByID(msg.ConversationID)
	if err != nil {
		return err
	}

	return s.MsgRepo.DeleteWithCounterFix(msg, conv)
}
