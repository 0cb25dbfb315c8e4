package engine

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"ielts_prep_backend/internal/model"
	"ielts_prep_backend/internal/util"
)

// ReadinessAnalyzer 备考程度评估：六因子加权 + 数据质量折减。
// 纯计算，不做任何 I/O；同一输入同一配置下结果可重复。
type ReadinessAnalyzer struct {
	mu  sync.RWMutex
	cfg ReadinessConfig
	now func() time.Time
}

func NewReadinessAnalyzer(cfg ReadinessConfig) *ReadinessAnalyzer {
	return &ReadinessAnalyzer{
		cfg: cfg,
		now: time.Now,
	}
}

// Config 返回当前配置的副本
func (a *ReadinessAnalyzer) Config() ReadinessConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// UpdateConfig 运行时调优，只影响当前实例
func (a *ReadinessAnalyzer) UpdateConfig(cfg ReadinessConfig) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg = cfg
}

// CalculateReadiness 根据进度快照和会话历史计算备考程度评估。
// sessions 可以为空（返回低置信度的中性评估）；progress.Analytics 缺失时报错。
func (a *ReadinessAnalyzer) CalculateReadiness(progress *model.UserProgress, sessions []model.ExamSession, targetLevel string) (*model.ReadinessAssessment, error) {
	if progress == nil || progress.Analytics == nil {
		return nil, util.ErrMissingAnalytics
	}

	cfg := a.Config()
	analytics := progress.Analytics
	completed := completedSessions(sessions)

	quality := assessDataQuality(a.now(), cfg.MinimumSessions, cfg.RecencyWindowDays, progress, completed)

	factors := model.ReadinessFactors{
		OverallScore:     math.Min(1, analytics.AverageScore/100),
		Consistency:      util.Clamp01(analytics.ConsistencyScore),
		Improvement:      improvementFactor(cfg, completed),
		SessionFrequency: frequencyFactor(cfg, completed),
		WeaknessRecovery: recoveryFactor(cfg, completed),
		TimeManagement:   timeManagementFactor(completed),
	}

	raw := combineFactors(cfg.Weights, factors)

	// 稀疏历史永远拿不到满分：按数据质量折减
	overall := util.Clamp01(raw * (0.5 + 0.5*quality.ConsistencyScore))

	confidence := util.Clamp01((quality.ComponentCoverage + quality.ConsistencyScore + quality.RecencyScore) / 3)

	components := a.assessComponents(cfg, analytics, completed)

	assessment := &model.ReadinessAssessment{
		OverallScore:           overall,
		Confidence:             confidence,
		Level:                  levelFor(cfg.Thresholds, overall),
		Factors:                factors,
		Components:             components,
		EstimatedExamScore:     estimateExamScore(cfg, overall, confidence),
		RecommendedWeeklyHours: a.recommendWeeklyHours(cfg, analytics, overall, targetLevel),
		DataQuality:            quality,
		GeneratedAt:            a.now(),
	}
	assessment.Recommendations = buildReadinessRecommendations(assessment)
	assessment.Milestones = buildMilestones(overall)

	return assessment, nil
}

// improvementFactor 会话分数对序号的回归斜率，±SlopeRangePoints 分/次映射到 [0,1]
func improvementFactor(cfg ReadinessConfig, completed []model.ExamSession) float64 {
	scores := sessionScores(completed)
	if len(scores) < 3 {
		return 0.5
	}
	slope := util.RegressionSlope(scores)
	return util.Clamp01(0.5 + slope/(2*cfg.SlopeRangePoints))
}

// frequencyFactor 平均间隔偏离最优节奏（2.5 天）越多得分越低，超过 7 天偏差记 0
func frequencyFactor(cfg ReadinessConfig, completed []model.ExamSession) float64 {
	if len(completed) < 2 {
		return 0.5
	}

	var totalGap float64
	for i := 1; i < len(completed); i++ {
		totalGap += completed[i].StartedAt.Sub(completed[i-1].StartedAt).Hours() / 24
	}
	avgGap := totalGap / float64(len(completed)-1)

	deviation := math.Abs(avgGap - cfg.OptimalGapDays)
	return util.Clamp01(1 - deviation/cfg.MaxGapDeviationDays)
}

// recoveryFactor 对每个有 ≥3 次会话的技能，取最近三次的首尾分差，
// 按该技能的薄弱程度（1-均分/100）加权平均
func recoveryFactor(cfg ReadinessConfig, completed []model.ExamSession) float64 {
	grouped := groupByComponent(completed)

	// 按固定技能顺序累加，浮点结果在重复调用间保持一致
	var weightedSum, weightTotal float64
	for _, component := range model.AllComponents() {
		group := grouped[component]
		if len(group) < 3 {
			continue
		}
		scores := sessionScores(group)
		if len(scores) < 3 {
			continue
		}
		last3 := scores[len(scores)-3:]
		delta := last3[2] - last3[0]
		recovery := util.Clamp01(0.5 + delta/(2*cfg.SlopeRangePoints))

		weight := 1 - util.Mean(scores)/100
		if weight <= 0 {
			continue
		}
		weightedSum += recovery * weight
		weightTotal += weight
	}

	if weightTotal == 0 {
		return 0.5
	}
	return util.Clamp01(weightedSum / weightTotal)
}

// timeManagementFactor 时长变异系数的倒数意义：波动越小得分越高
func timeManagementFactor(completed []model.ExamSession) float64 {
	durations := sessionDurations(completed)
	if len(durations) < 2 {
		return 0.5
	}
	cv := util.CoefficientOfVariation(durations)
	return math.Max(0, 1-cv)
}

func combineFactors(w ReadinessWeights, f model.ReadinessFactors) float64 {
	total := w.OverallScore + w.Consistency + w.Improvement + w.SessionFrequency + w.WeaknessRecovery + w.TimeManagement
	if total == 0 {
		return 0
	}
	sum := f.OverallScore*w.OverallScore +
		f.Consistency*w.Consistency +
		f.Improvement*w.Improvement +
		f.SessionFrequency*w.SessionFrequency +
		f.WeaknessRecovery*w.WeaknessRecovery +
		f.TimeManagement*w.TimeManagement
	return util.Clamp01(sum / total)
}

func levelFor(t ReadinessThresholds, score float64) model.ReadinessLevel {
	switch {
	case score >= t.Excellent:
		return model.ReadinessExcellent
	case score >= t.Good:
		return model.ReadinessGood
	case score >= t.Fair:
		return model.ReadinessFair
	default:
		return model.ReadinessPoor
	}
}

// assessComponents 每个技能维度的 readiness：均分为基础，趋势 ±0.1，会话量最多 +0.1
func (a *ReadinessAnalyzer) assessComponents(cfg ReadinessConfig, analytics *model.ProgressAnalytics, completed []model.ExamSession) map[model.Component]*model.ComponentReadiness {
	grouped := groupByComponent(completed)
	result := make(map[model.Component]*model.ComponentReadiness, len(model.AllComponents()))

	for _, component := range model.AllComponents() {
		group := grouped[component]
		scores := sessionScores(group)

		cr := &model.ComponentReadiness{
			Component:         component,
			Trend:             "stable",
			SessionsCompleted: len(group),
		}

		avg := util.Mean(scores)
		if len(scores) == 0 {
			// 没有会话时退回到上游聚合里的均分
			if ca, ok := analytics.ComponentBreakdown[component]; ok && ca != nil {
				avg = ca.AverageScore
				cr.SessionsCompleted = ca.SessionsCompleted
				cr.Trend = ca.Trend
			}
		} else if len(scores) >= cfg.MinimumSessions/2 || len(scores) >= 3 {
			slope := util.RegressionSlope(scores)
			if slope > 0.5 {
				cr.Trend = "improving"
			} else if slope < -0.5 {
				cr.Trend = "declining"
			}
		}

		score := avg / 100
		switch cr.Trend {
		case "improving":
			score += 0.1
		case "declining":
			score -= 0.1
		}
		score += 0.1 * math.Min(1, float64(cr.SessionsCompleted)/5)

		cr.Score = util.Clamp01(score)
		result[component] = cr
	}

	return result
}

// estimateExamScore 真实考试比练习难：质量置信乘数 [0.8,1.0] 之后再乘保守系数
func estimateExamScore(cfg ReadinessConfig, overall, confidence float64) float64 {
	qualityMultiplier := 0.8 + 0.2*confidence
	estimated := overall * 100 * qualityMultiplier * cfg.ConservatismFactor
	return util.Clamp(estimated, 0, 100)
}

func (a *ReadinessAnalyzer) recommendWeeklyHours(cfg ReadinessConfig, analytics *model.ProgressAnalytics, overall float64, targetLevel string) float64 {
	target, ok := cfg.TargetReadiness[targetLevel]
	if !ok {
		target = 0.85
	}

	gap := math.Max(0, target-overall)

	velocity := analytics.LearningVelocity
	if velocity <= 0 {
		velocity = cfg.DefaultLearningVelocity
	}

	totalHours := gap / velocity
	weekly := totalHours / float64(cfg.StudyHorizonWeeks)
	return util.Clamp(weekly, 2, 30)
}

func buildReadinessRecommendations(assessment *model.ReadinessAssessment) []model.ReadinessRecommendation {
	var recs []model.ReadinessRecommendation

	for _, component := range model.AllComponents() {
		cr := assessment.Components[component]
		if cr == nil || cr.Score >= 0.6 {
			continue
		}
		priority := "medium"
		if cr.Score < 0.4 {
			priority = "high"
		}
		recs = append(recs, model.ReadinessRecommendation{
			Type:      "component_focus",
			Priority:  priority,
			Message:   fmt.Sprintf("加强 %s 专项训练，目前该项 readiness 为 %.0f%%", component, cr.Score*100),
			Component: component,
		})
	}

	if assessment.Factors.SessionFrequency < 0.5 {
		recs = append(recs, model.ReadinessRecommendation{
			Type:     "frequency",
			Priority: "high",
			Message:  "练习间隔偏离理想节奏，建议保持每 2-3 天一次练习",
		})
	}

	if assessment.Factors.Consistency < 0.6 {
		recs = append(recs, model.ReadinessRecommendation{
			Type:     "consistency",
			Priority: "medium",
			Message:  "成绩波动较大，建议固定练习时段并复盘错题",
		})
	}

	if assessment.Level == model.ReadinessPoor || assessment.Level == model.ReadinessFair {
		recs = append(recs, model.ReadinessRecommendation{
			Type:     "study_time",
			Priority: "high",
			Message:  fmt.Sprintf("距离目标还有差距，建议每周投入 %.0f 小时系统备考", assessment.RecommendedWeeklyHours),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return priorityRank(recs[i].Priority) < priorityRank(recs[j].Priority)
	})
	return recs
}

func priorityRank(p string) int {
	switch p {
	case "critical":
		return 0
	case "high":
		return 1
	case "medium":
		return 2
	default:
		return 3
	}
}

// buildMilestones 三个固定阶段目标，按当前 readiness 判定是否达成
func buildMilestones(overall float64) []model.ReadinessMilestone {
	return []model.ReadinessMilestone{
		{
			Name:            "foundation",
			Description:     "完成基础能力建设，各项稳定在及格线以上",
			TargetReadiness: 0.55,
			Achieved:        overall >= 0.55,
		},
		{
			Name:            "proficiency",
			Description:     "四项技能均衡，模考成绩稳定",
			TargetReadiness: 0.70,
			Achieved:        overall >= 0.70,
		},
		{
			Name:            "exam_ready",
			Description:     "具备目标等级的应试能力",
			TargetReadiness: 0.85,
			Achieved:        overall >= 0.85,
		},
	}
}
