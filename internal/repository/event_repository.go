package repository

import (
	"alumni_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepository struct {
	DB *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) CreateEvent(event *model.Event) error {
	return r.DB.Create(event).Error
}

func (r *EventRepository) GetEventByID(id uint) (*model.Event, error) {
	var event model.Event
	err := r.DB.Preload("Organizer").First(&event, id).Error
	return &event, err
}

func (r *EventRepository) CancelEvent(eventID uint) error {
	res := r.DB.Model(&model.Event{}).
		Where("id = ? AND status = ?", eventID, model.EventScheduled).
		Update("status", model.EventCancelled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Register (event_id, user_id) 唯一；取消过的报名复用同一行翻回 registered
func (r *EventRepository) Register(reg *model.EventRegistration) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":       model.RegistrationActive,
			"note":         reg.Note,
			"cancelled_at": nil,
		}),
	}).Create(reg).Error
}

func (r *EventRepository) GetRegistration(eventID, userID uint) (*model.EventRegistration, error) {
	var reg model.EventRegistration
	err := r.DB.Where("event_id = ? AND user_id = ?", eventID, userID).First(&reg).Error
	return &reg, err
}

func (r *EventRepository) CancelRegistration(eventID, userID uint) error {
	res := r.DB.Model(&model.EventRegistration{}).
		Where("event_id = ? AND user_id = ? AND status = ?", eventID, userID, model.RegistrationActive).
		Updates(map[string]interface{}{
			"status":       model.RegistrationCancelled,
			"cancelled_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListActiveRegistrantIDs 活动取消时的通知名单
func (r *EventRepository) ListActiveRegistrantIDs(eventID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.EventRegistration{}).
		Where("event_id = ? AND status = ?", eventID, model.RegistrationActive).
		Pluck("user_id", &ids).Error
	return ids, err
}
