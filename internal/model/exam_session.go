package model

import (
	"time"
)

// ExamSession 一次练习/模考会话，完成后不可变
// swagger:model
type ExamSession struct {
	UUIDBase
	UserID      uint             `gorm:"index;not null" json:"userId"`
	Component   Component        `gorm:"type:enum('reading','writing','listening','speaking');not null" json:"component"`
	Mode        string           `gorm:"size:20;default:'practice'" json:"mode"` // practice / mock
	StartedAt   time.Time        `gorm:"not null" json:"startedAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
	Duration    int              `gorm:"default:0" json:"duration"` // 秒
	Score       *float64         `json:"score,omitempty"`           // 0-100，完成前为空
	Questions   []QuestionResult `gorm:"foreignKey:SessionID;references:ID" json:"questions,omitempty"`
}

func (ExamSession) TableName() string {
	return "exam_sessions"
}

// Completed 会话已完成且有成绩
func (s *ExamSession) Completed() bool {
	return s.CompletedAt != nil && s.Score != nil
}

// QuestionResult 会话内单题作答结果，错误模式分析的数据来源
type QuestionResult struct {
	BaseModel
	SessionID    string  `gorm:"size:36;index;not null" json:"sessionId"`
	QuestionType string  `gorm:"size:50;not null" json:"questionType"` // e.g. multiple_choice, gap_fill, essay
	Correct      bool    `json:"correct"`
	Score        float64 `json:"score"` // 0-100
	TimeSpent    int     `json:"timeSpent"`
	ErrorTag     string  `gorm:"size:50" json:"errorTag,omitempty"` // 批改侧标注的错误类别，可为空
}

func (QuestionResult) TableName() string {
	return "question_results"
}
