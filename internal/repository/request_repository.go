package repository

import (
	"alumni_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type RequestRepository struct {
	DB *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{DB: db}
}

// Create 依赖 pair_key 的唯一索引兜底并发下的重复申请，
// 冲突时返回 gorm.ErrDuplicatedKey。
func (r *RequestRepository) Create(req *model.SocialRequest) error {
	return r.DB.Create(req).Error
}

func (r *RequestRepository) GetByID(id string) (*model.SocialRequest, error) {
	var req model.SocialRequest
	err := r.DB.Preload("Requester").Preload("Target").First(&req, "id = ?", id).Error
	return &req, err
}

// GetActiveBetween 查某一主题下两人之间仍活跃的申请（任一方向）
func (r *RequestRepository) GetActiveBetween(subject model.RequestSubject, userA, userB uint) (*model.SocialRequest, error) {
	key := model.ActivePairKey(subject, userA, userB)
	var req model.SocialRequest
	err := r.DB.Where("pair_key = ?", key).First(&req).Error
	return &req, err
}

// GetLatestBetween 两人之间该主题下最近的一条申请，任一方向，含已失活的
func (r *RequestRepository) GetLatestBetween(subject model.RequestSubject, userA, userB uint) (*model.SocialRequest, error) {
	var req model.SocialRequest
	err := r.DB.Where("subject = ?", subject).
		Where(
			r.DB.Where("requester_id = ? AND target_id = ?", userA, userB).
				Or("requester_id = ? AND target_id = ?", userB, userA),
		).
		Order("created_at DESC").
		First(&req).Error
	return &req, err
}

// Accept 同一事务内落申请状态并建立会话
func (r *RequestRepository) Accept(req *model.SocialRequest, conv *model.Conversation) error {
	now := time.Now()
	return r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.SocialRequest{}).
			Where("id = ? AND status = ?", req.ID, model.RequestPending).
			Updates(map[string]interface{}{
				"status":       model.RequestAccepted,
				"responded_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		req.Status = model.RequestAccepted
		req.RespondedAt = &now

		if conv != nil {
			return getOrCreateConversation(tx, conv)
		}
		return nil
	})
}

// Close 拒绝或撤回：落状态并清空 pair_key，释放唯一位
func (r *RequestRepository) Close(req *model.SocialRequest, status model.RequestStatus) error {
	now := time.Now()
	res := r.DB.Model(&model.SocialRequest{}).
		Where("id = ? AND status = ?", req.ID, model.RequestPending).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": now,
			"pair_key":     nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	req.Status = status
	req.RespondedAt = &now
	req.PairKey = nil
	return nil
}

// ListSent 我发出的申请
func (r *RequestRepository) ListSent(userID uint, status *model.RequestStatus, limit, offset int) ([]model.SocialRequest, int64, error) {
	return r.list(r.DB.Where("requester_id = ?", userID), status, limit, offset)
}

// ListReceived 发给我的申请
func (r *RequestRepository) ListReceived(userID uint, status *model.RequestStatus, limit, offset int) ([]model.SocialRequest, int64, error) {
	return r.list(r.DB.Where("target_id = ?", userID), status, limit, offset)
}

func (r *RequestRepository) list(db *gorm.DB, status *model.RequestStatus, limit, offset int) ([]model.SocialRequest, int64, error) {
	var reqs []model.SocialRequest
	var total int64

	db = db.Model(&model.SocialRequest{}).Preload("Requester").Preload("Target")
	if status != nil {
		db = db.Where("status = ?", *status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reqs).Error
	return reqs, total, err
}

// ListContacts 已接受的申请，双向，按响应时间倒序
func (r *RequestRepository) ListContacts(userID uint, subject model.RequestSubject, limit, offset int) ([]model.SocialRequest, int64, error) {
	var reqs []model.SocialRequest
	var total int64

	db := r.DB.Model(&model.SocialRequest{}).
		Preload("Requester").Preload("Target").
		Where("subject = ? AND status = ?", subject, model.RequestAccepted).
		Where("requester_id = ? OR target_id = ?", userID, userID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("responded_at DESC").Limit(limit).Offset(offset).Find(&reqs).Error
	return reqs, total, err
}
