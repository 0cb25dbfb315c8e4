package model

import "time"

// RecommendationType 建议类别
type RecommendationType string

const (
	RecWeaknessFocus   RecommendationType = "weakness_focus"
	RecStudyPlan       RecommendationType = "study_plan"
	RecFoundation      RecommendationType = "foundation"
	RecComponentFocus  RecommendationType = "component_focus"
	RecTimeManagement  RecommendationType = "time_management"
	RecPracticeSession RecommendationType = "practice_session"
	RecMotivation      RecommendationType = "motivation"
	RecResource        RecommendationType = "resource"
)

// RecommendationPriority 建议优先级
type RecommendationPriority string

const (
	PriorityCritical RecommendationPriority = "critical"
	PriorityHigh     RecommendationPriority = "high"
	PriorityMedium   RecommendationPriority = "medium"
	PriorityLow      RecommendationPriority = "low"
)

// ActionStep 建议中的有序执行步骤
type ActionStep struct {
	Order            int    `json:"order"`
	Description      string `json:"description"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
}

// ExpectedOutcome 执行建议后的预期收益
type ExpectedOutcome struct {
	Metric         string  `json:"metric"`
	Improvement    float64 `json:"improvement"`
	TimeframeWeeks int     `json:"timeframeWeeks"`
}

// ResourceRef 建议附带的资源引用
type ResourceRef struct {
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Component Component `json:"component,omitempty"`
	Level     string    `json:"level,omitempty"`
	URL       string    `json:"url,omitempty"`
}

// StudyRecommendation 一条可执行的学习建议，validUntil 之后视为过期
// swagger:model
type StudyRecommendation struct {
	ID               string                 `json:"id"`
	Type             RecommendationType     `json:"type"`
	Priority         RecommendationPriority `json:"priority"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	Actions          []ActionStep           `json:"actions,omitempty"`
	EstimatedHours   float64                `json:"estimatedHours"`
	ExpectedOutcomes []ExpectedOutcome      `json:"expectedOutcomes,omitempty"`
	Components       []Component            `json:"components,omitempty"`
	Resources        []ResourceRef          `json:"resources,omitempty"`
	ValidUntil       time.Time              `json:"validUntil"`
	BasedOn          []string               `json:"basedOn,omitempty"` // 生成依据（数据来源说明）
	Confidence       float64                `json:"confidence"`
	Relevance        float64                `json:"relevance"`
}

// WeeklyGoal 学习计划中某一周的目标
type WeeklyGoal struct {
	Week        int     `json:"week"`
	TargetScore float64 `json:"targetScore"`
	Description string  `json:"description"`
}

// DailyActivity 周内固定的每日活动模板
type DailyActivity struct {
	Day             string    `json:"day"`
	Activity        string    `json:"activity"`
	Component       Component `json:"component,omitempty"`
	DurationMinutes int       `json:"durationMinutes"`
}

// PhaseAssessment 阶段内的测评安排
type PhaseAssessment struct {
	Week        int    `json:"week"`
	Type        string `json:"type"` // progress_check / mock_exam
	Description string `json:"description"`
}

// StudyPhase 学习计划中的一个阶段（基础/提升/冲刺）
type StudyPhase struct {
	Name            string            `json:"name"`
	DurationWeeks   int               `json:"durationWeeks"`
	FocusComponents []Component       `json:"focusComponents"`
	WeeklyGoals     []WeeklyGoal      `json:"weeklyGoals"`
	DailySchedule   []DailyActivity   `json:"dailySchedule"`
	Assessments     []PhaseAssessment `json:"assessments"`
}

// PlanMilestone 计划级阶段目标，week 必须落在 [1, duration]
type PlanMilestone struct {
	Week        int     `json:"week"`
	Title       string  `json:"title"`
	TargetScore float64 `json:"targetScore"`
}

// PersonalizedStudyPlan 多周个性化学习计划；各阶段周数之和等于总时长
// swagger:model
type PersonalizedStudyPlan struct {
	DurationWeeks  int             `json:"durationWeeks"`
	Phases         []StudyPhase    `json:"phases"`
	Milestones     []PlanMilestone `json:"milestones"`
	SuccessMetrics []string        `json:"successMetrics"`
}

// AdaptationRule 自适应调度规则
type AdaptationRule struct {
	Trigger    string `json:"trigger"`
	Adjustment string `json:"adjustment"`
}

// AdaptiveSchedule 基于偏好（含回退默认值）的学习排期
type AdaptiveSchedule struct {
	PreferredTimes       []string         `json:"preferredTimes"`
	SessionLengthMinutes int              `json:"sessionLengthMinutes"`
	SessionsPerWeek      int              `json:"sessionsPerWeek"`
	Flexibility          string           `json:"flexibility"`
	AdaptationRules      []AdaptationRule `json:"adaptationRules"`
}

// CuratedResources 分层整理的资源集合
type CuratedResources struct {
	Essential     []ResourceRef               `json:"essential"`
	Supplementary []ResourceRef               `json:"supplementary"`
	Advanced      []ResourceRef               `json:"advanced"`
	ByComponent   map[Component][]ResourceRef `json:"byComponent"`
}

// MotivationalInsight 激励性洞察
type MotivationalInsight struct {
	Type    string `json:"type"` // achievement / upward_trend
	Message string `json:"message"`
}

// TrajectoryPoint 预测轨迹上的一周
type TrajectoryPoint struct {
	Week           int     `json:"week"`
	ProjectedScore float64 `json:"projectedScore"`
	Confidence     float64 `json:"confidence"`
	LowerBound     float64 `json:"lowerBound"`
	UpperBound     float64 `json:"upperBound"`
}

// Trajectory 一条逐周预测轨迹
type Trajectory struct {
	Name   string            `json:"name"` // current_pace / optimized_pace
	Points []TrajectoryPoint `json:"points"`
}

// InfluenceFactor 影响预测的因素
type InfluenceFactor struct {
	Name      string  `json:"name"`
	Weight    float64 `json:"weight"`
	Direction string  `json:"direction"` // positive / negative
}

// RiskAssessment 达成目标的风险评估
type RiskAssessment struct {
	Level   string   `json:"level"` // low / medium / high
	Factors []string `json:"factors,omitempty"`
}

// ProgressPrediction 按当前节奏与按计划优化两条轨迹的进度预测
type ProgressPrediction struct {
	CurrentPace      Trajectory        `json:"currentPace"`
	OptimizedPace    Trajectory        `json:"optimizedPace"`
	InfluenceFactors []InfluenceFactor `json:"influenceFactors"`
	Risk             RiskAssessment    `json:"risk"`
}

// RecommendationSummary 顶层摘要
type RecommendationSummary struct {
	TotalRecommendations int      `json:"totalRecommendations"`
	CriticalActions      int      `json:"criticalActions"`
	EstimatedWeeklyHours float64  `json:"estimatedWeeklyHours"`
	FocusAreas           []string `json:"focusAreas"`
	PrimaryGoal          string   `json:"primaryGoal"`
	ConfidenceLevel      string   `json:"confidenceLevel"` // low / medium / high
	TimeToGoal           string   `json:"timeToGoal"`
}

// StudyRecommendations 推荐合成的完整输出
// swagger:model
type StudyRecommendations struct {
	Immediate   []StudyRecommendation `json:"immediate"`
	ShortTerm   []StudyRecommendation `json:"shortTerm"`
	LongTerm    []StudyRecommendation `json:"longTerm"`
	StudyPlan   PersonalizedStudyPlan `json:"studyPlan"`
	Schedule    AdaptiveSchedule      `json:"schedule"`
	Resources   CuratedResources      `json:"resources"`
	Insights    []MotivationalInsight `json:"insights"`
	Prediction  ProgressPrediction    `json:"prediction"`
	Summary     RecommendationSummary `json:"summary"`
	GeneratedAt time.Time             `json:"generatedAt"`
}

// All 合并三个时间桶，立即项在前
func (r *StudyRecommendations) All() []StudyRecommendation {
	all := make([]StudyRecommendation, 0, len(r.Immediate)+len(r.ShortTerm)+len(r.LongTerm))
	all = append(all, r.Immediate...)
	all = append(all, r.ShortTerm...)
	all = append(all, r.LongTerm...)
	return all
}
