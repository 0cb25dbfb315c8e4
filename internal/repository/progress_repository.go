package repository

import (
	"errors"
	"time"

	"ielts_prep_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) FindByUser(userID uint) (*model.UserProgress, error) {
	var progress model.UserProgress
	err := r.DB.Where("user_id = ?", userID).First(&progress).Error
	return &progress, err
}

// FindOrCreate 第一次访问时建一条空进度记录
func (r *ProgressRepository) FindOrCreate(userID uint) (*model.UserProgress, error) {
	progress, err := r.FindByUser(userID)
	if err == nil {
		return progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	progress = &model.UserProgress{
		UserID:    userID,
		Analytics: &model.ProgressAnalytics{},
	}
	if err := r.DB.Create(progress).Error; err != nil {
		return nil, err
	}
	return progress, nil
}

func (r *ProgressRepository) Save(progress *model.UserProgress) error {
	return r.DB.Save(progress).Error
}

func (r *ProgressRepository) TouchActivity(userID uint, at time.Time) error {
	return r.DB.Model(&model.UserProgress{}).
		Where("user_id = ?", userID).
		Update("last_activity", at).
		Error
}
