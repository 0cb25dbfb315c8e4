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

// WeaknessDetector 薄弱点检测：六个独立检测器各自产出发现，再统一
// 分桶、聚合模式、排序并生成改进计划草案。样本不足的检测器不报错，
// 只是不产出发现。
type WeaknessDetector struct {
	mu  sync.RWMutex
	cfg WeaknessConfig
	now func() time.Time
}

func NewWeaknessDetector(cfg WeaknessConfig) *WeaknessDetector {
	return &WeaknessDetector{
		cfg: cfg,
		now: time.Now,
	}
}

func (d *WeaknessDetector) Config() WeaknessConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

func (d *WeaknessDetector) UpdateConfig(cfg WeaknessConfig) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
}

// AnalyzeWeaknesses 运行全部检测器并合并结果
func (d *WeaknessDetector) AnalyzeWeaknesses(progress *model.UserProgress, sessions []model.ExamSession) (*model.WeaknessAnalysis, error) {
	if progress == nil || progress.Analytics == nil {
		return nil, util.ErrMissingAnalytics
	}

	cfg := d.Config()
	completed := completedSessions(sessions)

	var weaknesses []model.WeaknessDetail
	weaknesses = append(weaknesses, detectComponentWeaknesses(cfg, progress.Analytics, completed)...)
	weaknesses = append(weaknesses, detectQuestionTypeWeaknesses(cfg, completed)...)
	weaknesses = append(weaknesses, detectTimeManagementWeakness(cfg, completed)...)
	weaknesses = append(weaknesses, detectConsistencyWeakness(cfg, progress.Analytics, completed)...)
	weaknesses = append(weaknesses, detectStagnation(cfg, completed)...)
	weaknesses = append(weaknesses, detectErrorPatterns(cfg, completed)...)

	analysis := &model.WeaknessAnalysis{
		CriticalWeaknesses: []model.WeaknessDetail{},
		ModerateWeaknesses: []model.WeaknessDetail{},
		SlightWeaknesses:   []model.WeaknessDetail{},
		GeneratedAt:        d.now(),
	}

	for _, w := range weaknesses {
		switch w.Severity {
		case model.SeverityCritical:
			analysis.CriticalWeaknesses = append(analysis.CriticalWeaknesses, w)
		case model.SeverityModerate:
			analysis.ModerateWeaknesses = append(analysis.ModerateWeaknesses, w)
		default:
			analysis.SlightWeaknesses = append(analysis.SlightWeaknesses, w)
		}
	}

	analysis.Patterns = identifyPatterns(weaknesses)
	analysis.PrioritizedActions = prioritizeActions(weaknesses)
	analysis.ImprovementPlan = draftImprovementPlan(cfg, analysis.PrioritizedActions)
	analysis.OverallWeaknessScore = overallWeaknessScore(weaknesses)

	quality := assessDataQuality(d.now(), cfg.MinSessionsForAnalysis, cfg.RecencyWindowDays, progress, completed)
	analysis.Confidence = analysisConfidence(quality, weaknesses)

	return analysis, nil
}

func severityFor(cfg WeaknessConfig, avg float64) (model.WeaknessSeverity, bool) {
	switch {
	case avg < cfg.CriticalThreshold:
		return model.SeverityCritical, true
	case avg < cfg.ModerateThreshold:
		return model.SeverityModerate, true
	case avg < cfg.SlightThreshold:
		return model.SeveritySlight, true
	default:
		return "", false
	}
}

func severityWeight(s model.WeaknessSeverity) float64 {
	switch s {
	case model.SeverityCritical:
		return 1.0
	case model.SeverityModerate:
		return 0.6
	default:
		return 0.3
	}
}

func urgency(s model.WeaknessSeverity) float64 {
	switch s {
	case model.SeverityCritical:
		return 1.5
	case model.SeverityModerate:
		return 1.2
	default:
		return 1.0
	}
}

// sampleConfidence 样本量驱动的置信度，样本越多越可信
func sampleConfidence(n int) float64 {
	return util.Clamp(0.3+0.07*float64(n), 0.3, 0.95)
}

// buildImpact 统一的多维影响量化：gap 为归一化的分差（低于轻微阈值多少）
func buildImpact(cfg WeaknessConfig, severity model.WeaknessSeverity, avg float64, sampleSize int) model.WeaknessImpact {
	gap := util.Clamp01((cfg.SlightThreshold - avg) / 100)
	sampleFactor := math.Min(1, float64(sampleSize)/5)
	return model.WeaknessImpact{
		OverallScore:     gap,
		ExamReadiness:    gap * 0.35,
		LearningVelocity: gap * 0.2,
		Confidence:       severityWeight(severity) * 0.3,
		PriorityScore:    severityWeight(severity) * (0.5 + gap) * sampleFactor,
	}
}

func trendLabel(scores []float64) string {
	if len(scores) < 3 {
		return "stable"
	}
	slope := util.RegressionSlope(scores)
	if slope > 0.5 {
		return "improving"
	}
	if slope < -0.5 {
		return "worsening"
	}
	return "stable"
}

// 1. 技能维度：均分低于阈值的技能，并标出其中最薄弱的细分技能
func detectComponentWeaknesses(cfg WeaknessConfig, analytics *model.ProgressAnalytics, completed []model.ExamSession) []model.WeaknessDetail {
	var found []model.WeaknessDetail

	grouped := groupByComponent(completed)
	for _, component := range model.AllComponents() {
		group := grouped[component]
		if len(group) < cfg.MinSessionsPerComponent {
			continue
		}
		scores := sessionScores(group)
		avg := util.Mean(scores)

		severity, flagged := severityFor(cfg, avg)
		if !flagged {
			continue
		}

		specificArea := weakestSkillArea(analytics, component)
		w := model.WeaknessDetail{
			Type:         model.WeaknessComponentSkill,
			Severity:     severity,
			Component:    component,
			SpecificArea: specificArea,
			Evidence: model.WeaknessEvidence{
				AverageScore:   avg,
				ScoreVariation: util.CoefficientOfVariation(scores),
				RecentScores:   lastN(scores, 3),
				SampleSize:     len(scores),
			},
			Impact:     buildImpact(cfg, severity, avg, len(scores)),
			Confidence: sampleConfidence(len(scores)),
			Trend:      trendLabel(scores),
			Recommendations: []string{
				fmt.Sprintf("每周安排 2-3 次 %s 专项练习", component),
				fmt.Sprintf("重点攻克 %s", specificArea),
			},
		}
		found = append(found, w)
	}

	return found
}

func weakestSkillArea(analytics *model.ProgressAnalytics, component model.Component) string {
	ca, ok := analytics.ComponentBreakdown[component]
	if !ok || ca == nil || len(ca.SkillBreakdown) == 0 {
		return string(component)
	}

	weakest := ""
	lowest := math.MaxFloat64
	for skill, score := range ca.SkillBreakdown {
		if score < lowest || (score == lowest && skill < weakest) {
			weakest = skill
			lowest = score
		}
	}
	return weakest
}

// 2. 题型：按题型聚合作答，样本量达标且均分低于阈值的题型
func detectQuestionTypeWeaknesses(cfg WeaknessConfig, completed []model.ExamSession) []model.WeaknessDetail {
	type typeStats struct {
		scores     []float64
		components map[model.Component]int
	}

	byType := make(map[string]*typeStats)
	for _, s := range completed {
		for _, q := range s.Questions {
			st, ok := byType[q.QuestionType]
			if !ok {
				st = &typeStats{components: make(map[model.Component]int)}
				byType[q.QuestionType] = st
			}
			st.scores = append(st.scores, q.Score)
			st.components[s.Component]++
		}
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	var found []model.WeaknessDetail
	for _, qt := range types {
		st := byType[qt]
		if len(st.scores) < cfg.MinQuestionsPerPattern {
			continue
		}
		avg := util.Mean(st.scores)
		severity, flagged := severityFor(cfg, avg)
		if !flagged {
			continue
		}

		found = append(found, model.WeaknessDetail{
			Type:         model.WeaknessQuestionType,
			Severity:     severity,
			Component:    dominantComponent(st.components),
			SpecificArea: qt,
			Evidence: model.WeaknessEvidence{
				AverageScore:   avg,
				ScoreVariation: util.CoefficientOfVariation(st.scores),
				RecentScores:   lastN(st.scores, 3),
				SampleSize:     len(st.scores),
			},
			Impact:     buildImpact(cfg, severity, avg, len(st.scores)),
			Confidence: sampleConfidence(len(st.scores)),
			Trend:      trendLabel(st.scores),
			Recommendations: []string{
				fmt.Sprintf("针对 %s 题型做专项错题集", qt),
			},
		})
	}

	return found
}

func dominantComponent(counts map[model.Component]int) model.Component {
	var dominant model.Component
	best := -1
	for _, c := range model.AllComponents() {
		if counts[c] > best {
			dominant = c
			best = counts[c]
		}
	}
	return dominant
}

// 3. 时间管理：会话时长的变异系数过高
func detectTimeManagementWeakness(cfg WeaknessConfig, completed []model.ExamSession) []model.WeaknessDetail {
	durations := sessionDurations(completed)
	if len(durations) < cfg.MinSessionsForTrends {
		return nil
	}

	cv := util.CoefficientOfVariation(durations)
	if cv <= cfg.ConsistencyThreshold {
		return nil
	}

	severity := model.SeverityModerate
	if cv > cfg.CriticalVariation {
		severity = model.SeverityCritical
	}

	scores := sessionScores(completed)
	avg := util.Mean(scores)
	return []model.WeaknessDetail{{
		Type:         model.WeaknessTimeManagement,
		Severity:     severity,
		SpecificArea: "pacing",
		Evidence: model.WeaknessEvidence{
			AverageScore:   avg,
			ScoreVariation: cv,
			SampleSize:     len(durations),
		},
		Impact:     buildImpact(cfg, severity, avg, len(durations)),
		Confidence: sampleConfidence(len(durations)),
		Trend:      "stable",
		Recommendations: []string{
			"练习时使用计时器，按真实考试时限作答",
			"固定每次练习的时长，训练节奏感",
		},
	}}
}

// 4. 稳定性：整体一致性分数过低
func detectConsistencyWeakness(cfg WeaknessConfig, analytics *model.ProgressAnalytics, completed []model.ExamSession) []model.WeaknessDetail {
	consistency := analytics.ConsistencyScore
	if consistency >= 0.6 {
		return nil
	}

	severity := model.SeverityModerate
	if consistency < 0.3 {
		severity = model.SeverityCritical
	}

	scores := sessionScores(completed)
	avg := util.Mean(scores)
	return []model.WeaknessDetail{{
		Type:         model.WeaknessConsistency,
		Severity:     severity,
		SpecificArea: "score_stability",
		Evidence: model.WeaknessEvidence{
			AverageScore:   avg,
			ScoreVariation: util.CoefficientOfVariation(scores),
			RecentScores:   lastN(scores, 5),
			SampleSize:     len(scores),
		},
		Impact:     buildImpact(cfg, severity, avg, len(scores)),
		Confidence: sampleConfidence(len(scores)),
		Trend:      trendLabel(scores),
		Recommendations: []string{
			"固定每日练习时段，减少状态波动",
			"每次练习后记录影响发挥的因素",
		},
	}}
}

// 5. 进步停滞：最近窗口内的回归斜率明显为负
func detectStagnation(cfg WeaknessConfig, completed []model.ExamSession) []model.WeaknessDetail {
	scores := sessionScores(completed)
	if len(scores) < cfg.MinSessionsForTrends {
		return nil
	}

	recent := lastN(scores, cfg.StagnationWindow)
	slope := util.RegressionSlope(recent)
	if slope >= cfg.StagnationSlope {
		return nil
	}

	avg := util.Mean(recent)
	return []model.WeaknessDetail{{
		Type:         model.WeaknessStagnation,
		Severity:     model.SeverityModerate,
		SpecificArea: "progress_trend",
		Evidence: model.WeaknessEvidence{
			AverageScore:   avg,
			ScoreVariation: util.CoefficientOfVariation(recent),
			RecentScores:   lastN(recent, 5),
			SampleSize:     len(recent),
		},
		Impact:     buildImpact(cfg, model.SeverityModerate, avg, len(recent)),
		Confidence: sampleConfidence(len(recent)),
		Trend:      "worsening",
		Recommendations: []string{
			"调整练习策略，更换题源或提高难度梯度",
			"安排一次全真模考定位具体短板",
		},
	}}
}

// 6. 错误模式：优先使用批改侧标注的单题错误类别；
// 没有标注数据时退回到低分会话启发式（置信度相应降低）
func detectErrorPatterns(cfg WeaknessConfig, completed []model.ExamSession) []model.WeaknessDetail {
	tagCounts := make(map[string]int)
	tagScores := make(map[string][]float64)
	for _, s := range completed {
		for _, q := range s.Questions {
			if q.ErrorTag == "" {
				continue
			}
			tagCounts[q.ErrorTag]++
			tagScores[q.ErrorTag] = append(tagScores[q.ErrorTag], q.Score)
		}
	}

	if len(tagCounts) > 0 {
		tags := make([]string, 0, len(tagCounts))
		for tag := range tagCounts {
			tags = append(tags, tag)
		}
		sort.Strings(tags)

		var found []model.WeaknessDetail
		for _, tag := range tags {
			count := tagCounts[tag]
			if count < cfg.MinErrorOccurrences {
				continue
			}
			severity := model.SeveritySlight
			if count >= 2*cfg.MinErrorOccurrences {
				severity = model.SeverityModerate
			}
			avg := util.Mean(tagScores[tag])
			found = append(found, model.WeaknessDetail{
				Type:         model.WeaknessErrorPattern,
				Severity:     severity,
				SpecificArea: tag,
				Evidence: model.WeaknessEvidence{
					AverageScore:  avg,
					SampleSize:    count,
					ErrorPatterns: []string{tag},
				},
				Impact:     buildImpact(cfg, severity, avg, count),
				Confidence: sampleConfidence(count),
				Trend:      "stable",
				Recommendations: []string{
					fmt.Sprintf("整理 %s 类错误的错题本并限时重做", tag),
				},
			})
		}
		return found
	}

	// 兜底启发式：连续低分会话，只能给出粗粒度信号
	var lowScores []float64
	for _, s := range completed {
		if s.Score != nil && *s.Score < cfg.LowScoreThreshold {
			lowScores = append(lowScores, *s.Score)
		}
	}
	if len(lowScores) < cfg.MinLowScoreSessions {
		return nil
	}

	avg := util.Mean(lowScores)
	return []model.WeaknessDetail{{
		Type:         model.WeaknessErrorPattern,
		Severity:     model.SeverityModerate,
		SpecificArea: "recurring_low_scores",
		Evidence: model.WeaknessEvidence{
			AverageScore:  avg,
			SampleSize:    len(lowScores),
			ErrorPatterns: []string{"recurring_low_scores"},
		},
		Impact:     buildImpact(cfg, model.SeverityModerate, avg, len(lowScores)),
		Confidence: 0.4, // 无单题标注，只有聚合信号
		Trend:      "stable",
		Recommendations: []string{
			"复盘低分会话，按题型归类错误原因",
		},
	}}
}

// identifyPatterns 同一技能上出现多个薄弱点即构成横切模式
func identifyPatterns(weaknesses []model.WeaknessDetail) []model.WeaknessPattern {
	byComponent := make(map[model.Component][]model.WeaknessDetail)
	for _, w := range weaknesses {
		if w.Component == "" {
			continue
		}
		byComponent[w.Component] = append(byComponent[w.Component], w)
	}

	var patterns []model.WeaknessPattern
	for _, component := range model.AllComponents() {
		group := byComponent[component]
		if len(group) < 2 {
			continue
		}

		typeSet := make(map[model.WeaknessType]bool)
		worst := model.SeveritySlight
		for _, w := range group {
			typeSet[w.Type] = true
			if severityWeight(w.Severity) > severityWeight(worst) {
				worst = w.Severity
			}
		}

		types := make([]model.WeaknessType, 0, len(typeSet))
		for t := range typeSet {
			types = append(types, t)
		}
		sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

		patterns = append(patterns, model.WeaknessPattern{
			Component:     component,
			WeaknessCount: len(group),
			Types:         types,
			Severity:      worst,
		})
	}

	return patterns
}

// prioritizeActions 按 priorityScore × urgency 降序生成行动清单
func prioritizeActions(weaknesses []model.WeaknessDetail) []model.PrioritizedAction {
	ranked := make([]model.WeaknessDetail, len(weaknesses))
	copy(ranked, weaknesses)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Impact.PriorityScore*urgency(ranked[i].Severity) >
			ranked[j].Impact.PriorityScore*urgency(ranked[j].Severity)
	})

	actions := make([]model.PrioritizedAction, 0, len(ranked))
	for i, w := range ranked {
		title := actionTitle(w)
		description := ""
		if len(w.Recommendations) > 0 {
			description = w.Recommendations[0]
		}
		actions = append(actions, model.PrioritizedAction{
			Rank:          i + 1,
			Title:         title,
			Component:     w.Component,
			Severity:      w.Severity,
			PriorityScore: w.Impact.PriorityScore * urgency(w.Severity),
			Description:   description,
		})
	}
	return actions
}

func actionTitle(w model.WeaknessDetail) string {
	switch w.Type {
	case model.WeaknessComponentSkill:
		return fmt.Sprintf("提升 %s（%s）", w.Component, w.SpecificArea)
	case model.WeaknessQuestionType:
		return fmt.Sprintf("攻克题型 %s", w.SpecificArea)
	case model.WeaknessTimeManagement:
		return "建立稳定的答题节奏"
	case model.WeaknessConsistency:
		return "稳定发挥水平"
	case model.WeaknessStagnation:
		return "打破进步停滞"
	default:
		return fmt.Sprintf("消除错误模式 %s", w.SpecificArea)
	}
}

// draftImprovementPlan 周数 = min(12, max(4, 2×行动数))，每周领两个行动项，
// 三个阶段目标分别设在 1/3、2/3 和计划结束处（+10/+20/+30 分）
func draftImprovementPlan(cfg WeaknessConfig, actions []model.PrioritizedAction) model.ImprovementPlan {
	weeks := 2 * len(actions)
	if weeks < cfg.MinPlanWeeks {
		weeks = cfg.MinPlanWeeks
	}
	if weeks > cfg.MaxPlanWeeks {
		weeks = cfg.MaxPlanWeeks
	}

	plan := model.ImprovementPlan{TotalWeeks: weeks}

	for week := 1; week <= weeks; week++ {
		wk := model.ImprovementWeek{Week: week}
		if len(actions) > 0 {
			first := ((week - 1) * 2) % len(actions)
			picked := actions[first : first+1]
			if second := first + 1; second < len(actions) {
				picked = actions[first : second+1]
			}
			seen := make(map[model.Component]bool)
			for _, action := range picked {
				wk.Goals = append(wk.Goals, action.Title)
				if action.Component != "" && !seen[action.Component] {
					wk.TargetComponents = append(wk.TargetComponents, action.Component)
					seen[action.Component] = true
				}
			}
		} else {
			wk.Goals = []string{"保持当前练习节奏"}
		}
		plan.Weeks = append(plan.Weeks, wk)
	}

	third := int(math.Ceil(float64(weeks) / 3))
	twoThirds := int(math.Ceil(2 * float64(weeks) / 3))
	plan.Milestones = []model.ImprovementMilestone{
		{Week: third, TargetGain: 10, Description: "平均分较基线提升 10 分"},
		{Week: twoThirds, TargetGain: 20, Description: "平均分较基线提升 20 分"},
		{Week: weeks, TargetGain: 30, Description: "平均分较基线提升 30 分"},
	}

	return plan
}

// overallWeaknessScore 严重度加权平均（critical=1.0 moderate=0.6 slight=0.3）
func overallWeaknessScore(weaknesses []model.WeaknessDetail) float64 {
	if len(weaknesses) == 0 {
		return 0
	}
	var sum float64
	for _, w := range weaknesses {
		sum += severityWeight(w.Severity)
	}
	return util.Clamp01(sum / float64(len(weaknesses)))
}

// analysisConfidence 数据质量子分与各薄弱点自身置信度的平均
func analysisConfidence(quality model.DataQuality, weaknesses []model.WeaknessDetail) float64 {
	values := []float64{
		quality.ComponentCoverage,
		quality.ConsistencyScore,
		quality.RecencyScore,
	}
	for _, w := range weaknesses {
		values = append(values, w.Confidence)
	}
	return util.Clamp01(util.Mean(values))
}
