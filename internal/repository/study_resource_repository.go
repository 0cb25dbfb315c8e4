package repository

import (
	"ielts_prep_backend/internal/model"

	"gorm.io/gorm"
)

type StudyResourceRepository struct {
	DB *gorm.DB
}

func NewStudyResourceRepository(db *gorm.DB) *StudyResourceRepository {
	return &StudyResourceRepository{DB: db}
}

func (r *StudyResourceRepository) Create(resource *model.StudyResource) error {
	return r.DB.Create(resource).Error
}

func (r *StudyResourceRepository) FindByID(id uint) (*model.StudyResource, error) {
	var resource model.StudyResource
	err := r.DB.First(&resource, id).Error
	return &resource, err
}

func (r *StudyResourceRepository) FindByComponents(components []model.Component) ([]model.StudyResource, error) {
	var resources []model.StudyResource
	query := r.DB.Order("component, level, id")
	if len(components) > 0 {
		query = query.Where("component IN ?", components)
	}
	err := query.Find(&resources).Error
	return resources, err
}

func (r *StudyResourceRepository) List(component model.Component, level string, page, pageSize int) ([]model.StudyResource, int64, error) {
	query := r.DB.Model(&model.StudyResource{})
	if component != "" {
		query = query.Where("component = ?", component)
	}
	if level != "" {
		query = query.Where("level = ?", level)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var resources []model.StudyResource
	err := query.Order("id").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&resources).Error
	return resources, total, err
}

func (r *StudyResourceRepository) Delete(id uint) error {
	return r.DB.Delete(&model.StudyResource{}, id).Error
}
