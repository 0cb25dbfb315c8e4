package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"ielts_prep_backend/internal/model"
	"ielts_prep_backend/internal/util"
)

// SynthesisInput 推荐合成的全部输入。Progress、Readiness、Weaknesses 必填，
// Preference 和 Resources 缺省时走回退逻辑。
type SynthesisInput struct {
	Progress   *model.UserProgress
	Sessions   []model.ExamSession
	Readiness  *model.ReadinessAssessment
	Weaknesses *model.WeaknessAnalysis
	Preference *model.UserPreference
	Resources  []model.StudyResource
}

// RecommendationRule 单条生成规则：读输入，产出零到多条建议。
// 新增建议类别时在 defaultRules 里注册即可，不改合成主流程。
type RecommendationRule struct {
	Name     string
	Generate func(cfg RecommendationConfig, in *SynthesisInput, now time.Time) []model.StudyRecommendation
}

func defaultRules() []RecommendationRule {
	return []RecommendationRule{
		{Name: "weakness_focus", Generate: weaknessFocusRule},
		{Name: "foundation", Generate: foundationRule},
		{Name: "component_focus", Generate: componentFocusRule},
		{Name: "time_management", Generate: timeManagementRule},
		{Name: "practice_session", Generate: practiceSessionRule},
		{Name: "study_plan", Generate: studyPlanRule},
		{Name: "motivation", Generate: motivationRule},
		{Name: "resource", Generate: resourceRule},
	}
}

// recID 建议 ID 由类别和主题拼出来，同一输入下输出可重复
func recID(t model.RecommendationType, topic string) string {
	slug := strings.ToLower(strings.ReplaceAll(topic, " ", "_"))
	return fmt.Sprintf("%s:%s", t, slug)
}

func validUntil(cfg RecommendationConfig, now time.Time) time.Time {
	return now.AddDate(0, 0, cfg.ValidityDays)
}

// weaknessFocusRule 针对关键和中等薄弱点各出一条靶向建议
func weaknessFocusRule(cfg RecommendationConfig, in *SynthesisInput, now time.Time) []model.StudyRecommendation {
	var recs []model.StudyRecommendation

	emit := func(w model.WeaknessDetail, priority model.RecommendationPriority) {
		topic := w.SpecificArea
		if topic == "" {
			topic = string(w.Component)
		}

		rec := model.StudyRecommendation{
			ID:          recID(model.RecWeaknessFocus, topic),
			Type:        model.RecWeaknessFocus,
			Priority:    priority,
			Title:       fmt.Sprintf("集中攻克薄弱点：%s", topic),
			Description: fmt.Sprintf("近期数据显示 %s 平均仅 %.0f 分，需要优先投入", topic, w.Evidence.AverageScore),
			Actions: []model.ActionStep{
				{Order: 1, Description: fmt.Sprintf("每周安排 3 次 %s 针对性练习", topic), EstimatedMinutes: 45},
				{Order: 2, Description: "每次练习后整理错题并归因", EstimatedMinutes: 15},
			},
			EstimatedHours: 3,
			ExpectedOutcomes: []model.ExpectedOutcome{
				{Metric: "averageScore", Improvement: 10, TimeframeWeeks: 3},
			},
			ValidUntil: validUntil(cfg, now),
			BasedOn:    []string{fmt.Sprintf("weakness:%s", w.Type)},
			Confidence: w.Confidence,
			Relevance:  w.Impact.PriorityScore,
		}
		if w.Component != "" {
			rec.Components = []model.Component{w.Component}
		}
		if len(w.Recommendations) > 0 {
			rec.Actions = append(rec.Actions, model.ActionStep{
				Order:            len(rec.Actions) + 1,
				Description:      w.Recommendations[0],
				EstimatedMinutes: 30,
			})
		}
		recs = append(recs, rec)
	}

	for _, w := range in.Weaknesses.CriticalWeaknesses {
		emit(w, model.PriorityCritical)
	}
	for _, w := range in.Weaknesses.ModerateWeaknesses {
		emit(w, model.PriorityHigh)
	}
	return recs
}

// foundationRule 整体水平过低时先补基础，不做专项拔高
func foundationRule(cfg RecommendationConfig, in *SynthesisInput, now time.Time) []model.StudyRecommendation {
	analytics := in.Progress.Analytics
	if in.Readiness.Level != model.ReadinessPoor && analytics.AverageScore >= 40 {
		return nil
	}

	return []model.StudyRecommendation{{
		ID:          recID(model.RecFoundation, "basics"),
		Type:        model.RecFoundation,
		Priority:    model.PriorityCritical,
		Title:       "夯实基础能力",
		Description: "当前整体水平离目标还有明显差距，建议从基础词汇、语法和听读入门材料开始系统学习",
		Actions: []model.ActionStep{
			{Order: 1, Description: "每天完成一组基础词汇与语法练习", EstimatedMinutes: 30},
			{Order: 2, Description: "每周完成 2 篇入门级阅读与听力材料", EstimatedMinutes: 60},
		},
		EstimatedHours: 5,
		ExpectedOutcomes: []model.ExpectedOutcome{
			{Metric: "averageScore", Improvement: 15, TimeframeWeeks: 4},
		},
		Components: model.AllComponents(),
		ValidUntil: validUntil(cfg, now),
		BasedOn:    []string{"readiness:level"},
		Confidence: in.Readiness.Confidence,
		Relevance:  1.0,
	}}
}

// componentFocusRule 某项技能 readiness 明显落后于整体时提醒均衡
func componentFocusRule(cfg RecommendationConfig, in *SynthesisInput, now time.Time) []model.StudyRecommendation {
	var recs []model.StudyRecommendation
	for _, component := range model.AllComponents() {
		cr := in.Readiness.Components[component]
		if cr == nil || cr.Score >= 0.6 {
			continue
		}

		priority := model.PriorityMedium
		if cr.Score < 0.4 {
			priority = model.PriorityHigh
		}
		recs = append(recs, model.StudyRecommendation{
			ID:          recID(model.RecComponentFocus, string(component)),
			Type:        model.RecComponentFocus,
			Priority:    priority,
			Title:       fmt.Sprintf("加强 %s 训练", component),
			Description: fmt.Sprintf("%s 的备考程度为 %.0f%%，落后于整体水平", component, cr.Score*100),
			Actions: []model.ActionStep{
				{Order: 1, Description: fmt.Sprintf("本周增加 2 次 %s 练习", component), EstimatedMinutes: 45},
			},
			EstimatedHours: 2,
			ExpectedOutcomes: []model.ExpectedOutcome{
				{Metric: fmt.Sprintf("%s.score", component), Improvement: 8, TimeframeWeeks: 2},
			},
			Components: []model.Component{component},
			ValidUntil: validUntil(cfg, now),
			BasedOn:    []string{"readiness:components"},
			Confidence: util.Clamp(0.4+0.1*float64(cr.SessionsCompleted), 0.4, 0.9),
			Relevance:  util.Clamp01(1 - cr.Score),
		})
	}
	return recs
}

// timeManagementRule 答题节奏不稳定时的建议
func timeManagementRule(cfg RecommendationConfig, in *SynthesisInput, now time.Time) []model.StudyRecommendation {
	if in.Readiness.Factors.TimeManagement >= 0.5 {
		return nil
	}

	return []model.StudyRecommendation{{
		ID:          recID(model.RecTimeManagement, "pacing"),
		Type:        model.RecTimeManagement,
		Priority:    model.PriorityMedium,
		Title:       "建立稳定的答题节奏",
		Description: "会话时长波动较大，说明还没有形成稳定的做题节奏",
		Actions: []model.ActionStep{
			{Order: 1, Description: "每次练习严格按考试时限计时", EstimatedMinutes: 60},
			{Order: 2, Description: "记录每部分的实际用时并对照目标用时", EstimatedMinutes: 10},
		},
		EstimatedHours: 1.5,
		ExpectedOutcomes: []model.ExpectedOutcome{
			{Metric: "timeManagement", Improvement: 0.2, TimeframeWeeks: 2},
		},
		ValidUntil: validUntil(cfg, now),
		BasedOn:    []string{"readiness:factors.timeManagement"},
		Confidence: 0.6,
		Relevance:  util.Clamp01(1 - in.Readiness.Factors.TimeManagement),
	}}
}

// practiceSessionRule 超过 InactivityDays 没有活动时给出高优先级的回归练习
func practiceSessionRule(cfg RecommendationConfig, in *SynthesisInput, now time.Time) []model.StudyRecommendation {
	last := lastActivityAt(in.Progress, completedSessions(in.Sessions))
	if last.IsZero() {
		return nil
	}
	idleDays := now.Sub(last).Hours() / 24
	if idleDays < float64(cfg.InactivityDays) {
		return nil
	}

	return []model.StudyRecommendation{{
		ID:          recID(model.RecPracticeSession, "comeback"),
		Type:        model.RecPracticeSession,
		Priority:    model.PriorityHigh,
		Title:       "恢复练习节奏",
		Description: fmt.Sprintf("已经 %.0f 天没有练习记录，先从一次轻量会话开始找回状态", idleDays),
		Actions: []model.ActionStep{
			{Order: 1, Description: "完成一次 30 分钟的自选技能练习", EstimatedMinutes: 30},
		},
		EstimatedHours: 0.5,
		ExpectedOutcomes: []model.ExpectedOutcome{
			{Metric: "sessionFrequency", Improvement: 0.3, TimeframeWeeks: 1},
		},
		ValidUntil: validUntil(cfg, now),
		BasedOn:    []string{"progress:lastActivity"},
		Confidence: 0.9,
		Relevance:  util.Clamp01(idleDays / 14),
	}}
}

// studyPlanRule 尚未进入稳定备考状态时推荐结构化学习计划
func studyPlanRule(cfg RecommendationConfig, in *SynthesisInput, now time.Time) []model.StudyRecommendation {
	if in.Readiness.Level == model.ReadinessExcellent {
		return nil
	}

	weeks := cfg.PlanDurationWeeks[in.Readiness.Level]
	if weeks == 0 {
		weeks = 8
	}

	priority := model.PriorityMedium
	if in.Readiness.Level == model.ReadinessPoor {
		priority = model.PriorityHigh
	}
	return []model.StudyRecommendation{{
		ID:          recID(model.RecStudyPlan, string(in.Readiness.Level)),
		Type:        model.RecStudyPlan,
		Priority:    priority,
		Title:       fmt.Sprintf("执行 %d 周结构化学习计划", weeks),
		Description: "按阶段推进的计划比零散刷题更容易把弱项补齐",
		Actions: []model.ActionStep{
			{Order: 1, Description: "按本次生成的学习计划安排每周任务", EstimatedMinutes: 20},
			{Order: 2, Description: "每周末对照周目标复盘完成度", EstimatedMinutes: 20},
		},
		EstimatedHours: in.Readiness.RecommendedWeeklyHours,
		ExpectedOutcomes: []model.ExpectedOutcome{
			{Metric: "overallScore", Improvement: 0.15, TimeframeWeeks: weeks},
		},
		ValidUntil: validUntil(cfg, now),
		BasedOn:    []string{"readiness:level"},
		Confidence: in.Readiness.Confidence,
		Relevance:  0.7,
	}}
}

// motivationRule 有正向信号时给一条低优先级的激励
func motivationRule(cfg RecommendationConfig, in *SynthesisInput, now time.Time) []model.StudyRecommendation {
	improving := in.Readiness.Factors.Improvement > 0.6
	achieved := false
	for _, m := range in.Readiness.Milestones {
		if m.Achieved {
			achieved = true
			break
		}
	}
	if !improving && !achieved {
		return nil
	}

	message := "成绩保持上升趋势，继续当前的练习安排"
	if achieved && !improving {
		message = "已经达成一个阶段目标，保持当前投入就能稳步推进"
	}
	return []model.StudyRecommendation{{
		ID:          recID(model.RecMotivation, "keep_going"),
		Type:        model.RecMotivation,
		Priority:    model.PriorityLow,
		Title:       "保持当前势头",
		Description: message,
		ValidUntil:  validUntil(cfg, now),
		BasedOn:     []string{"readiness:factors.improvement"},
		Confidence:  0.8,
		Relevance:   0.3,
	}}
}

// resourceRule readiness 低于 75% 的技能每项出一条资源建议，
// 附带匹配的资源；资源层级优先匹配偏好难度
func resourceRule(cfg RecommendationConfig, in *SynthesisInput, now time.Time) []model.StudyRecommendation {
	if len(in.Resources) == 0 {
		return nil
	}

	critical := make(map[model.Component]bool)
	for _, w := range in.Weaknesses.CriticalWeaknesses {
		if w.Component != "" {
			critical[w.Component] = true
		}
	}

	var recs []model.StudyRecommendation
	for _, component := range model.AllComponents() {
		cr := in.Readiness.Components[component]
		if cr == nil || cr.Score >= 0.75 {
			continue
		}
		refs := matchResources(in.Resources, component, preferredLevel(in.Preference))
		if len(refs) == 0 {
			continue
		}

		priority := model.PriorityMedium
		if critical[component] || cr.Score < 0.5 {
			priority = model.PriorityHigh
		}
		recs = append(recs, model.StudyRecommendation{
			ID:          recID(model.RecResource, string(component)),
			Type:        model.RecResource,
			Priority:    priority,
			Title:       fmt.Sprintf("使用配套资源强化 %s", component),
			Description: fmt.Sprintf("%s 的备考程度为 %.0f%%，建议结合配套资源针对性练习", component, cr.Score*100),
			Actions: []model.ActionStep{
				{Order: 1, Description: fmt.Sprintf("本周完成「%s」并整理笔记", refs[0].Title), EstimatedMinutes: 60},
			},
			EstimatedHours: 1,
			ExpectedOutcomes: []model.ExpectedOutcome{
				{Metric: fmt.Sprintf("%s.score", component), Improvement: 5, TimeframeWeeks: 2},
			},
			Components: []model.Component{component},
			Resources:  refs,
			ValidUntil: validUntil(cfg, now),
			BasedOn:    []string{"readiness:components", "resources:catalog"},
			Confidence: 0.7,
			Relevance:  util.Clamp01(1 - cr.Score),
		})
	}
	return recs
}

// matchResources 按技能筛选资源，偏好难度的层级排前面，最多 3 条
func matchResources(resources []model.StudyResource, component model.Component, level string) []model.ResourceRef {
	var preferred, rest []model.ResourceRef
	seen := make(map[string]bool)
	for _, res := range resources {
		if res.Component != component || seen[res.Title] {
			continue
		}
		seen[res.Title] = true

		ref := model.ResourceRef{
			Title:     res.Title,
			Type:      res.Type,
			Component: res.Component,
			Level:     res.Level,
			URL:       res.URL,
		}
		if res.Level == level {
			preferred = append(preferred, ref)
		} else {
			rest = append(rest, ref)
		}
	}

	refs := append(preferred, rest...)
	if len(refs) > 3 {
		refs = refs[:3]
	}
	return refs
}

// preferredLevel 偏好难度到资源层级的映射
func preferredLevel(pref *model.UserPreference) string {
	if pref == nil {
		return "intermediate"
	}
	switch pref.Difficulty {
	case "gentle":
		return "beginner"
	case "intensive":
		return "advanced"
	default:
		return "intermediate"
	}
}

func recPriorityRank(p model.RecommendationPriority) int {
	switch p {
	case model.PriorityCritical:
		return 0
	case model.PriorityHigh:
		return 1
	case model.PriorityMedium:
		return 2
	default:
		return 3
	}
}

// sortRecommendations 优先级升序，同级按相关性降序，再按 ID 保证稳定
func sortRecommendations(recs []model.StudyRecommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		ri, rj := recPriorityRank(recs[i].Priority), recPriorityRank(recs[j].Priority)
		if ri != rj {
			return ri < rj
		}
		if recs[i].Relevance != recs[j].Relevance {
			return recs[i].Relevance > recs[j].Relevance
		}
		return recs[i].ID < recs[j].ID
	})
}
