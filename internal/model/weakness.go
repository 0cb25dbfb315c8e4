package model

import "time"

// WeaknessType 薄弱点类别
type WeaknessType string

const (
	WeaknessComponentSkill WeaknessType = "component_skill"
	WeaknessQuestionType   WeaknessType = "question_type"
	WeaknessTopicArea      WeaknessType = "topic_area"
	WeaknessTimeManagement WeaknessType = "time_management"
	WeaknessConsistency    WeaknessType = "consistency"
	WeaknessStagnation     WeaknessType = "improvement_stagnation"
	WeaknessErrorPattern   WeaknessType = "error_pattern"
)

// WeaknessSeverity 严重程度
type WeaknessSeverity string

const (
	SeverityCritical WeaknessSeverity = "critical"
	SeverityModerate WeaknessSeverity = "moderate"
	SeveritySlight   WeaknessSeverity = "slight"
)

// WeaknessEvidence 支撑该薄弱点的统计证据
type WeaknessEvidence struct {
	AverageScore   float64   `json:"averageScore"`
	ScoreVariation float64   `json:"scoreVariation"` // 变异系数
	RecentScores   []float64 `json:"recentScores,omitempty"`
	SampleSize     int       `json:"sampleSize"`
	ErrorPatterns  []string  `json:"errorPatterns,omitempty"`
}

// WeaknessImpact 多维度量化影响，priorityScore 用于排序
type WeaknessImpact struct {
	OverallScore     float64 `json:"overallScore"`
	ExamReadiness    float64 `json:"examReadiness"`
	LearningVelocity float64 `json:"learningVelocity"`
	Confidence       float64 `json:"confidence"`
	PriorityScore    float64 `json:"priorityScore"`
}

// WeaknessDetail 单个检出的薄弱点，每次分析重新生成
// swagger:model
type WeaknessDetail struct {
	Type            WeaknessType     `json:"type"`
	Severity        WeaknessSeverity `json:"severity"`
	Component       Component        `json:"component,omitempty"`
	SpecificArea    string           `json:"specificArea,omitempty"`
	Evidence        WeaknessEvidence `json:"evidence"`
	Impact          WeaknessImpact   `json:"impact"`
	Confidence      float64          `json:"confidence"`
	Trend           string           `json:"trend"` // improving / stable / worsening
	Recommendations []string         `json:"recommendations,omitempty"`
}

// WeaknessPattern 同一技能维度上多个薄弱点构成的横切模式
type WeaknessPattern struct {
	Component     Component        `json:"component"`
	WeaknessCount int              `json:"weaknessCount"`
	Types         []WeaknessType   `json:"types"`
	Severity      WeaknessSeverity `json:"severity"` // 聚合后的最高严重度
}

// PrioritizedAction 按影响排序后的行动项
type PrioritizedAction struct {
	Rank          int              `json:"rank"`
	Title         string           `json:"title"`
	Component     Component        `json:"component,omitempty"`
	Severity      WeaknessSeverity `json:"severity"`
	PriorityScore float64          `json:"priorityScore"`
	Description   string           `json:"description"`
}

// ImprovementWeek 改进计划中的一周
type ImprovementWeek struct {
	Week             int         `json:"week"`
	Goals            []string    `json:"goals"`
	TargetComponents []Component `json:"targetComponents,omitempty"`
}

// ImprovementMilestone 改进计划的阶段目标（+10/+20/+30 分）
type ImprovementMilestone struct {
	Week        int     `json:"week"`
	TargetGain  float64 `json:"targetGain"`
	Description string  `json:"description"`
}

// ImprovementPlan 薄弱点分析附带的多周改进草案
type ImprovementPlan struct {
	TotalWeeks int                    `json:"totalWeeks"`
	Weeks      []ImprovementWeek      `json:"weeks"`
	Milestones []ImprovementMilestone `json:"milestones"`
}

// WeaknessAnalysis 薄弱点分析结果
// swagger:model
type WeaknessAnalysis struct {
	CriticalWeaknesses   []WeaknessDetail    `json:"criticalWeaknesses"`
	ModerateWeaknesses   []WeaknessDetail    `json:"moderateWeaknesses"`
	SlightWeaknesses     []WeaknessDetail    `json:"slightWeaknesses"`
	Patterns             []WeaknessPattern   `json:"patterns"`
	PrioritizedActions   []PrioritizedAction `json:"prioritizedActions"`
	ImprovementPlan      ImprovementPlan     `json:"improvementPlan"`
	OverallWeaknessScore float64             `json:"overallWeaknessScore"` // [0,1]，严重度加权
	Confidence           float64             `json:"confidence"`
	GeneratedAt          time.Time           `json:"generatedAt"`
}

// TotalWeaknesses 三个严重度桶的总数
func (w *WeaknessAnalysis) TotalWeaknesses() int {
	return len(w.CriticalWeaknesses) + len(w.ModerateWeaknesses) + len(w.SlightWeaknesses)
}

// AllWeaknesses 合并三个桶，关键在前
func (w *WeaknessAnalysis) AllWeaknesses() []WeaknessDetail {
	all := make([]WeaknessDetail, 0, w.TotalWeaknesses())
	all = append(all, w.CriticalWeaknesses...)
	all = append(all, w.ModerateWeaknesses...)
	all = append(all, w.SlightWeaknesses...)
	return all
}
