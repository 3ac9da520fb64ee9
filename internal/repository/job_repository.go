package repository

import (
	"alumni_backend/internal/model"

	"gorm.io/gorm"
)

type JobRepository struct {
	DB *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{DB: db}
}

func (r *JobRepository) Create(job *model.Job) error {
	return r.DB.Create(job).Error
}

func (r *JobRepository) GetByID(id uint) (*model.Job, error) {
	var job model.Job
	err := r.DB.Preload("Poster").First(&job, id).Error
	return &job, err
}

// GetActiveByID 职缺交流申请只能挂在仍然有效的职缺上
func (r *JobRepository) GetActiveByID(id uint) (*model.Job, error) {
	var job model.Job
	err := r.DB.Where("id = ? AND is_active = ?", id, true).First(&job).Error
	return &job, err
}
