package engine

import (
	"ielts_prep_backend/internal/model"
)

// 三个分析组件的调优参数。默认值由 DefaultXxxConfig 按值返回，
// 同进程内可以用不同配置各建一个实例（如 A/B 调权重），不存在包级可变状态。

// ReadinessWeights 六因子加权平均的权重
type ReadinessWeights struct {
	OverallScore     float64 `mapstructure:"overall_score" json:"overallScore"`
	Consistency      float64 `mapstructure:"consistency" json:"consistency"`
	Improvement      float64 `mapstructure:"improvement" json:"improvement"`
	SessionFrequency float64 `mapstructure:"session_frequency" json:"sessionFrequency"`
	WeaknessRecovery float64 `mapstructure:"weakness_recovery" json:"weaknessRecovery"`
	TimeManagement   float64 `mapstructure:"time_management" json:"timeManagement"`
}

// ReadinessThresholds 档位判定阈值（向下比较）
type ReadinessThresholds struct {
	Excellent float64 `mapstructure:"excellent" json:"excellent"`
	Good      float64 `mapstructure:"good" json:"good"`
	Fair      float64 `mapstructure:"fair" json:"fair"`
}

// ReadinessConfig 备考程度评估的配置
type ReadinessConfig struct {
	Weights    ReadinessWeights    `mapstructure:"weights" json:"weights"`
	Thresholds ReadinessThresholds `mapstructure:"thresholds" json:"thresholds"`

	// 数据质量
	MinimumSessions   int     `mapstructure:"minimum_sessions" json:"minimumSessions"`
	RecencyWindowDays float64 `mapstructure:"recency_window_days" json:"recencyWindowDays"`

	// 因子计算
	OptimalGapDays      float64 `mapstructure:"optimal_gap_days" json:"optimalGapDays"`
	MaxGapDeviationDays float64 `mapstructure:"max_gap_deviation_days" json:"maxGapDeviationDays"`
	SlopeRangePoints    float64 `mapstructure:"slope_range_points" json:"slopeRangePoints"` // 斜率归一化假定的 ± 区间

	// 估分与学时
	ConservatismFactor      float64            `mapstructure:"conservatism_factor" json:"conservatismFactor"`
	DefaultLearningVelocity float64            `mapstructure:"default_learning_velocity" json:"defaultLearningVelocity"`
	StudyHorizonWeeks       int                `mapstructure:"study_horizon_weeks" json:"studyHorizonWeeks"`
	TargetReadiness         map[string]float64 `mapstructure:"target_readiness" json:"targetReadiness"` // CEFR 等级 -> 目标 readiness
}

// DefaultReadinessConfig 返回文档化的默认配置（每次调用都是新值）
func DefaultReadinessConfig() ReadinessConfig {
	return ReadinessConfig{
		Weights: ReadinessWeights{
			OverallScore:     0.35,
			Consistency:      0.20,
			Improvement:      0.15,
			SessionFrequency: 0.10,
			WeaknessRecovery: 0.10,
			TimeManagement:   0.10,
		},
		Thresholds: ReadinessThresholds{
			Excellent: 0.85,
			Good:      0.70,
			Fair:      0.55,
		},
		MinimumSessions:         10,
		RecencyWindowDays:       14,
		OptimalGapDays:          2.5,
		MaxGapDeviationDays:     7,
		SlopeRangePoints:        10,
		ConservatismFactor:      0.85,
		DefaultLearningVelocity: 0.05,
		StudyHorizonWeeks:       8,
		TargetReadiness: map[string]float64{
			"A2": 0.55,
			"B1": 0.70,
			"B2": 0.85,
			"C1": 0.92,
			"C2": 0.97,
		},
	}
}

// WeaknessConfig 薄弱点检测的配置
type WeaknessConfig struct {
	// 分数阈值（0-100，向下比较）
	CriticalThreshold float64 `mapstructure:"critical_threshold" json:"criticalThreshold"`
	ModerateThreshold float64 `mapstructure:"moderate_threshold" json:"moderateThreshold"`
	SlightThreshold   float64 `mapstructure:"slight_threshold" json:"slightThreshold"`

	// 各检测器的样本下限
	MinSessionsPerComponent int `mapstructure:"min_sessions_per_component" json:"minSessionsPerComponent"`
	MinQuestionsPerPattern  int `mapstructure:"min_questions_per_pattern" json:"minQuestionsPerPattern"`
	MinErrorOccurrences     int `mapstructure:"min_error_occurrences" json:"minErrorOccurrences"`

	// 时间管理：时长变异系数阈值
	ConsistencyThreshold float64 `mapstructure:"consistency_threshold" json:"consistencyThreshold"`
	CriticalVariation    float64 `mapstructure:"critical_variation" json:"criticalVariation"`

	// 进步停滞
	StagnationWindow int     `mapstructure:"stagnation_window" json:"stagnationWindow"`
	StagnationSlope  float64 `mapstructure:"stagnation_slope" json:"stagnationSlope"` // 低于该斜率视为停滞

	// 低分会话（错误模式兜底启发式）
	LowScoreThreshold    float64 `mapstructure:"low_score_threshold" json:"lowScoreThreshold"`
	MinLowScoreSessions  int     `mapstructure:"min_low_score_sessions" json:"minLowScoreSessions"`
	MinSessionsForTrends int     `mapstructure:"min_sessions_for_trends" json:"minSessionsForTrends"`

	MaxPlanWeeks int `mapstructure:"max_plan_weeks" json:"maxPlanWeeks"`
	MinPlanWeeks int `mapstructure:"min_plan_weeks" json:"minPlanWeeks"`

	// 分析置信度使用的数据质量参数（与 readiness 一致）
	MinSessionsForAnalysis int     `mapstructure:"min_sessions_for_analysis" json:"minSessionsForAnalysis"`
	RecencyWindowDays      float64 `mapstructure:"recency_window_days" json:"recencyWindowDays"`
}

// DefaultWeaknessConfig 返回文档化的默认配置
func DefaultWeaknessConfig() WeaknessConfig {
	return WeaknessConfig{
		CriticalThreshold:       40,
		ModerateThreshold:       60,
		SlightThreshold:         75,
		MinSessionsPerComponent: 2,
		MinQuestionsPerPattern:  5,
		MinErrorOccurrences:     3,
		ConsistencyThreshold:    0.3,
		CriticalVariation:       0.5,
		StagnationWindow:        10,
		StagnationSlope:         -0.2,
		LowScoreThreshold:       60,
		MinLowScoreSessions:     3,
		MinSessionsForTrends:    3,
		MaxPlanWeeks:            12,
		MinPlanWeeks:            4,
		MinSessionsForAnalysis:  10,
		RecencyWindowDays:       14,
	}
}

// RecommendationConfig 推荐合成的配置
type RecommendationConfig struct {
	MaxRecommendations int     `mapstructure:"max_recommendations" json:"maxRecommendations"`
	MinConfidence      float64 `mapstructure:"min_confidence" json:"minConfidence"`

	// 时间窗口
	ImmediateHorizonDays int `mapstructure:"immediate_horizon_days" json:"immediateHorizonDays"`
	ShortTermHorizonDays int `mapstructure:"short_term_horizon_days" json:"shortTermHorizonDays"`
	ValidityDays         int `mapstructure:"validity_days" json:"validityDays"`

	// 练习频率触发
	InactivityDays int `mapstructure:"inactivity_days" json:"inactivityDays"`

	// 学习计划
	PlanDurationWeeks map[model.ReadinessLevel]int `mapstructure:"plan_duration_weeks" json:"planDurationWeeks"`

	// 进度预测
	OptimizedImprovementFactor float64 `mapstructure:"optimized_improvement_factor" json:"optimizedImprovementFactor"`
	ConfidenceBand             float64 `mapstructure:"confidence_band" json:"confidenceBand"` // ±15%
}

// DefaultRecommendationConfig 返回文档化的默认配置
func DefaultRecommendationConfig() RecommendationConfig {
	return RecommendationConfig{
		MaxRecommendations:   15,
		MinConfidence:        0.3,
		ImmediateHorizonDays: 7,
		ShortTermHorizonDays: 30,
		ValidityDays:         30,
		InactivityDays:       7,
		PlanDurationWeeks: map[model.ReadinessLevel]int{
			model.ReadinessPoor:      12,
			model.ReadinessFair:      8,
			model.ReadinessGood:      6,
			model.ReadinessExcellent: 4,
		},
		OptimizedImprovementFactor: 1.5,
		ConfidenceBand:             0.15,
	}
}
