package model

import (
	"time"
)

// ComponentAnalysis 单一技能维度的会话聚合，由 ExamSessionService 在会话完成时重算
type ComponentAnalysis struct {
	AverageScore      float64            `json:"averageScore"`
	SessionsCompleted int                `json:"sessionsCompleted"`
	TimeSpent         int                `json:"timeSpent"` // 秒
	SkillBreakdown    map[string]float64 `json:"skillBreakdown,omitempty"`
	Trend             string             `json:"trend"` // improving / stable / declining
}

// ProgressAnalytics 学习者的聚合分析快照，分析引擎只读
type ProgressAnalytics struct {
	AverageScore       float64                          `json:"averageScore"`
	ConsistencyScore   float64                          `json:"consistencyScore"` // [0,1]
	ImprovementRate    float64                          `json:"improvementRate"`  // 分数/会话
	LearningVelocity   float64                          `json:"learningVelocity"` // readiness 点/学习小时
	ComponentBreakdown map[Component]*ComponentAnalysis `gorm:"serializer:json" json:"componentBreakdown,omitempty"`
}

// UserProgress 学习者总体进度，引擎的必需输入
// swagger:model
type UserProgress struct {
	BaseModel
	UserID       uint               `gorm:"uniqueIndex;not null" json:"userId"`
	Completion   float64            `gorm:"default:0" json:"completion"` // [0,1]
	LastActivity time.Time          `json:"lastActivity"`
	Analytics    *ProgressAnalytics `gorm:"embedded;embeddedPrefix:analytics_" json:"analytics"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}
