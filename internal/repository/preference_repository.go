package repository

import (
	"errors"

	"ielts_prep_backend/internal/model"

	"gorm.io/gorm"
)

type PreferenceRepository struct {
	DB *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{DB: db}
}

// FindByUser 偏好可选，没有记录时返回 nil 而不是错误
func (r *PreferenceRepository) FindByUser(userID uint) (*model.UserPreference, error) {
	var pref model.UserPreference
	err := r.DB.Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (r *PreferenceRepository) Upsert(pref *model.UserPreference) error {
	existing, err := r.FindByUser(pref.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		pref.ID = existing.ID
		pref.CreatedAt = existing.CreatedAt
	}
	return r.DB.Save(pref).Error
}
