package model

import "time"

// ReadinessLevel 备考程度档位
type ReadinessLevel string

const (
	ReadinessExcellent ReadinessLevel = "excellent"
	ReadinessGood      ReadinessLevel = "good"
	ReadinessFair      ReadinessLevel = "fair"
	ReadinessPoor      ReadinessLevel = "poor"
)

// ReadinessFactors 六个归一化因子，均在 [0,1]
type ReadinessFactors struct {
	OverallScore     float64 `json:"overallScore"`
	Consistency      float64 `json:"consistency"`
	Improvement      float64 `json:"improvement"`
	SessionFrequency float64 `json:"sessionFrequency"`
	WeaknessRecovery float64 `json:"weaknessRecovery"`
	TimeManagement   float64 `json:"timeManagement"`
}

// ComponentReadiness 单技能维度的备考程度
type ComponentReadiness struct {
	Component         Component `json:"component"`
	Score             float64   `json:"score"` // [0,1]
	Trend             string    `json:"trend"`
	SessionsCompleted int       `json:"sessionsCompleted"`
}

// ReadinessRecommendation 评估侧给出的单条建议
type ReadinessRecommendation struct {
	Type      string    `json:"type"` // component_focus / frequency / consistency / study_time
	Priority  string    `json:"priority"`
	Message   string    `json:"message"`
	Component Component `json:"component,omitempty"`
}

// ReadinessMilestone 固定用途的阶段目标（打基础、达标、备考完成）
type ReadinessMilestone struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	TargetReadiness float64 `json:"targetReadiness"`
	Achieved        bool    `json:"achieved"`
}

// DataQuality 会话数据的可信度指标，用于折减原始得分
type DataQuality struct {
	SessionCount      int     `json:"sessionCount"`
	TimeSpanDays      float64 `json:"timeSpanDays"`
	ComponentCoverage float64 `json:"componentCoverage"` // 覆盖技能数 / 总技能数
	ConsistencyScore  float64 `json:"consistencyScore"`  // min(1, n/minimumSessions)
	RecencyScore      float64 `json:"recencyScore"`      // 14 天不活跃线性衰减到 0
}

// ReadinessAssessment 备考程度评估结果，按需重算，引擎不落库
// swagger:model
type ReadinessAssessment struct {
	OverallScore           float64                           `json:"overallScore"` // [0,1]
	Confidence             float64                           `json:"confidence"`   // [0,1]
	Level                  ReadinessLevel                    `json:"level"`
	Factors                ReadinessFactors                  `json:"factors"`
	Components             map[Component]*ComponentReadiness `json:"components"`
	Recommendations        []ReadinessRecommendation         `json:"recommendations"`
	EstimatedExamScore     float64                           `json:"estimatedExamScore"` // [0,100]
	RecommendedWeeklyHours float64                           `json:"recommendedWeeklyHours"`
	Milestones             []ReadinessMilestone              `json:"milestones"`
	DataQuality            DataQuality                       `json:"dataQuality"`
	GeneratedAt            time.Time                         `json:"generatedAt"`
}
