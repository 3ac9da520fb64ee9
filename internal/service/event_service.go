package service

import (
	"alumni_backend/internal/model"
	"alumni_backend/internal/repository"
	"alumni_backend/internal/util"
	"errors"
	"time"

	"gorm.io/gorm"
)

type CreateEventInput struct {
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
}

// EventService 活动的报名链路：报名/取消通知组织者，
// 活动取消时每个有效报名者恰好收到一条通知。
type EventService struct {
	EventRepo    *repository.EventRepository
	UserRepo     *repository.UserRepository
	Orchestrator *Orchestrator
}

func NewEventService(eventRepo *repository.EventRepository, userRepo *repository.UserRepository, orch *Orchestrator) *EventService {
	return &EventService{
		EventRepo:    eventRepo,
		UserRepo:     userRepo,
		Orchestrator: orch,
	}
}

func (s *EventService) Create(organizerID uint, input CreateEventInput) (*model.Event, error) {
	event := &model.Event{
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		OrganizerID: organizerID,
		StartsAt:    input.StartsAt,
		Status:      model.EventScheduled,
	}
	if err := s.EventRepo.CreateEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *EventService) Get(eventID uint) (*model.Event, error) {
	event, err := s.EventRepo.GetEventByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *EventService) Register(userID, eventID uint, note string) (*model.EventRegistration, error) {
	event, err := s.Get(eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != model.EventScheduled {
		return nil, util.ErrInvalidTransition
	}

	registrant, err := s.UserRepo.GetActiveByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrForbidden
		}
		return nil, err
	}

	reg := &model.EventRegistration{
		EventID: eventID,
		UserID:  userID,
		Status:  model.RegistrationActive,
		Note:    note,
	}
	if err := s.EventRepo.Register(reg); err != nil {
		return nil, err
	}

	if userID != event.OrganizerID {
		s.Orchestrator.RegistrationReceived(event, registrant)
	}
	return reg, nil
}

func (s *EventService) CancelRegistration(userID, eventID uint) error {
	event, err := s.Get(eventID)
	if err != nil {
		return err
	}

	if err := s.EventRepo.CancelRegistration(eventID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotFound
		}
		return err
	}

	if userID != event.OrganizerID {
		registrant, err := s.UserRepo.GetByID(userID)
		if err == nil {
			s.Orchestrator.RegistrationCancelled(event, registrant)
		}
	}
	return nil
}

// CancelEvent 仅组织者可取消；取消后给当时仍有效的报名者逐人发通知
func (s *EventService) CancelEvent(userID, eventID uint) error {
	event, err := s.Get(eventID)
	if err != nil {
		return err
	}
	if event.OrganizerID != userID {
		return util.ErrForbidden
	}

	if err := s.EventRepo.CancelEvent(eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrInvalidTransition
		}
		return err
	}

	ids, err := s.EventRepo.ListActiveRegistrantIDs(eventID)
	if err != nil {
		return err
	}
	s.Orchestrator.EventCancelled(event, ids)
	return nil
}
