package service

import (
	"alumni_backend/internal/model"
	"alumni_backend/internal/repository"
	"alumni_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

// 两人之间的申请状态，给前端决定按钮形态
const (
	PairStatusNone            = "none"
	PairStatusPendingSent     = "pending_sent"
	PairStatusPendingReceived = "pending_received"
	PairStatusAccepted        = "accepted"
	PairStatusRejected        = "rejected"
)

type CreateRequestInput struct {
	TargetID uint
	Subject  model.RequestSubject
	JobID    *uint
	Message  string
}

// RequestService 定向社交申请的状态机。
// pending → accepted/rejected（仅接收方）、pending → cancelled（仅发起方），
// 其余一律 ErrInvalidTransition。活跃申请的配对唯一性由存储层唯一索引保证。
type RequestService struct {
	RequestRepo  *repository.RequestRepository
	UserRepo     *repository.UserRepository
	JobRepo      *repository.JobRepository
	Orchestrator *Orchestrator
}

func NewRequestService(requestRepo *repository.RequestRepository, userRepo *repository.UserRepository, jobRepo *repository.JobRepository, orch *Orchestrator) *RequestService {
	return &RequestService{
		RequestRepo:  requestRepo,
		UserRepo:     userRepo,
		JobRepo:      jobRepo,
		Orchestrator: orch,
	}
}

func (s *RequestService) Create(requesterID uint, input CreateRequestInput) (*model.SocialRequest, error) {
	if input.TargetID == requesterID {
		return nil, util.ErrInvalidTarget
	}

	requester, err := s.UserRepo.GetActiveByID(requesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrForbidden
		}
		return nil, err
	}

	target, err := s.UserRepo.GetActiveByID(input.TargetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidTarget
		}
		return nil, err
	}

	if input.Subject == model.SubjectJobExchange && input.JobID != nil {
		if _, err := s.JobRepo.GetActiveByID(*input.JobID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrInvalidTarget
			}
			return nil, err
		}
	}

	pairKey := model.ActivePairKey(input.Subject, requesterID, input.TargetID)
	req := &model.SocialRequest{
		RequesterID: requesterID,
		TargetID:    input.TargetID,
		Subject:     input.Subject,
		JobID:       input.JobID,
		Message:     input.Message,
		Status:      model.RequestPending,
		PairKey:     &pairKey,
	}

	if err := s.RequestRepo.Create(req); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrDuplicateActiveRequest
		}
		return nil, err
	}

	req.Requester = *requester
	req.Target = *target
	s.Orchestrator.RequestReceived(req)
	return req, nil
}

// Respond 接收方接受或拒绝。接受时在同一事务里建立（或复用）会话。
func (s *RequestService) Respond(userID uint, requestID string, accept bool) (*model.SocialRequest, error) {
	req, err := s.RequestRepo.GetByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}

	if req.TargetID != userID {
		return nil, util.ErrForbidden
	}
	if req.Status != model.RequestPending {
		return nil, util.ErrInvalidTransition
	}

	if accept {
		a, b := model.CanonicalPair(req.RequesterID, req.TargetID)
		conv := &model.Conversation{
			UserAID:   a,
			UserBID:   b,
			Type:      conversationTypeFor(req.Subject),
			RequestID: &req.ID,
			JobID:     req.JobID,
		}
		if err := s.RequestRepo.Accept(req, conv); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrInvalidTransition
			}
			return nil, err
		}
		s.Orchestrator.RequestAccepted(req)
		return req, nil
	}

	if err := s.RequestRepo.Close(req, model.RequestRejected); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidTransition
		}
		return nil, err
	}
	s.Orchestrator.RequestRejected(req)
	return req, nil
}

// Cancel 发起方撤回待处理的申请，不产生通知
func (s *RequestService) Cancel(userID uint, requestID string) (*model.SocialRequest, error) {
	req, err := s.RequestRepo.GetByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}

	if req.RequesterID != userID {
		return nil, util.ErrForbidden
	}
	if req.Status != model.RequestPending {
		return nil, util.ErrInvalidTransition
	}

	if err := s.RequestRepo.Close(req, model.RequestCancelled); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidTransition
		}
		return nil, err
	}
	return req, nil
}

// PairStatus 调用方与某用户之间的申请状态，按最近一条申请推导
func (s *RequestService) PairStatus(userID, otherID uint, subject model.RequestSubject) (string, error) {
	req, err := s.RequestRepo.GetLatestBetween(subject, userID, otherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PairStatusNone, nil
		}
		return "", err
	}

	switch req.Status {
	case model.RequestPending:
		if req.RequesterID == userID {
			return PairStatusPendingSent, nil
		}
		return PairStatusPendingReceived, nil
	case model.RequestAccepted:
		return PairStatusAccepted, nil
	case model.RequestRejected:
		return PairStatusRejected, nil
	}
	// cancelled 视作从未发生
	return PairStatusNone, nil
}

func (s *RequestService) ListSent(userID uint, status *model.RequestStatus, page, limit int) ([]model.SocialRequest, int64, error) {
	return s.RequestRepo.ListSent(userID, status, limit, (page-1)*limit)
}

func (s *RequestService) ListReceived(userID uint, status *model.RequestStatus, page, limit int) ([]model.SocialRequest, int64, error) {
	return s.RequestRepo.ListReceived(userID, status, limit, (page-1)*limit)
}

func (s *RequestService) ListContacts(userID uint, subject model.RequestSubject, page, limit int) ([]model.SocialRequest, int64, error) {
	return s.RequestRepo.ListContacts(userID, subject, limit, (page-1)*limit)
}

func (s *RequestService) Get(userID uint, requestID string) (*model.SocialRequest, error) {
	req, err := s.RequestRepo.GetByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	if req.RequesterID != userID && req.TargetID != userID {
		return nil, util.ErrForbidden
	}
	return req, nil
}

func conversationTypeFor(subject model.RequestSubject) model.ConversationType {
	if subject == model.SubjectJobExchange {
		return model.ConversationJobExchange
	}
	return model.ConversationContact
}
