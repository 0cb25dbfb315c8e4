package service

import (
	"errors"

	"ielts_prep_backend/internal/model"
	"ielts_prep_backend/internal/repository"
	"ielts_prep_backend/internal/util"

	"gorm.io/gorm"
)

type UserService struct {
	UserRepo       *repository.UserRepository
	PreferenceRepo *repository.PreferenceRepository
}

func NewUserService(userRepo *repository.UserRepository, preferenceRepo *repository.PreferenceRepository) *UserService {
	return &UserService{
		UserRepo:       userRepo,
		PreferenceRepo: preferenceRepo,
	}
}

func (s *UserService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile 只允许改展示字段和目标等级
func (s *UserService) UpdateProfile(userID uint, name, avatar, language, targetLevel string) (*model.User, error) {
	user, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	if name != "" {
		user.Name = name
	}
	if avatar != "" {
		user.Avatar = avatar
	}
	if language != "" {
		user.Language = language
	}
	if targetLevel != "" {
		user.TargetLevel = targetLevel
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetPreference(userID uint) (*model.UserPreference, error) {
	return s.PreferenceRepo.FindByUser(userID)
}

func (s *UserService) SavePreference(pref *model.UserPreference) error {
	return s.PreferenceRepo.Upsert(pref)
}

func (s *UserService) ListUsers(page, pageSize int, search string) ([]model.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return s.UserRepo.List(page, pageSize, search)
}
