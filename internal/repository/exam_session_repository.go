package repository

import (
	"time"

	"ielts_prep_backend/internal/model"

	"gorm.io/gorm"
)

type ExamSessionRepository struct {
	DB *gorm.DB
}

func NewExamSessionRepository(db *gorm.DB) *ExamSessionRepository {
	return &ExamSessionRepository{DB: db}
}

func (r *ExamSessionRepository) Create(session *model.ExamSession) error {
	return r.DB.Create(session).Error
}

func (r *ExamSessionRepository) FindByID(id string) (*model.ExamSession, error) {
	var session model.ExamSession
	err := r.DB.Preload("Questions").First(&session, "id = ?", id).Error
	return &session, err
}

// FindByUser 按开始时间升序返回用户全部会话，含单题结果
func (r *ExamSessionRepository) FindByUser(userID uint) ([]model.ExamSession, error) {
	var sessions []model.ExamSession
	err := r.DB.Preload("Questions").
		Where("user_id = ?", userID).
		Order("started_at").
		Find(&sessions).Error
	return sessions, err
}

func (r *ExamSessionRepository) FindByUserAndComponent(userID uint, component model.Component) ([]model.ExamSession, error) {
	var sessions []model.ExamSession
	err := r.DB.Preload("Questions").
		Where("user_id = ? AND component = ?", userID, component).
		Order("started_at").
		Find(&sessions).Error
	return sessions, err
}

func (r *ExamSessionRepository) FindSince(userID uint, since time.Time) ([]model.ExamSession, error) {
	var sessions []model.ExamSession
	err := r.DB.Preload("Questions").
		Where("user_id = ? AND started_at >= ?", userID, since).
		Order("started_at").
		Find(&sessions).Error
	return sessions, err
}

// Complete 会话完成后写入成绩和单题结果，全部放在一个事务里
func (r *ExamSessionRepository) Complete(session *model.ExamSession, questions []model.QuestionResult) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(session).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].SessionID = session.ID
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ExamSessionRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ExamSession{}).
		Where("user_id = ? AND completed_at IS NOT NULL", userID).
		Count(&count).Error
	return count, err
}
