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

// RecommendationSynthesizer 推荐合成：把备考评估和薄弱点分析
// 转换成带时间维度的可执行建议、学习计划和进度预测。
type RecommendationSynthesizer struct {
	mu    sync.RWMutex
	cfg   RecommendationConfig
	rules []RecommendationRule
	now   func() time.Time
}

func NewRecommendationSynthesizer(cfg RecommendationConfig) *RecommendationSynthesizer {
	return &RecommendationSynthesizer{
		cfg:   cfg,
		rules: defaultRules(),
		now:   time.Now,
	}
}

func (s *RecommendationSynthesizer) Config() RecommendationConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *RecommendationSynthesizer) UpdateConfig(cfg RecommendationConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// Synthesize 运行全部规则并组装输出。Progress.Analytics、Readiness、
// Weaknesses 缺任何一个都直接报错。
func (s *RecommendationSynthesizer) Synthesize(in *SynthesisInput) (*model.StudyRecommendations, error) {
	if in == nil || in.Progress == nil || in.Progress.Analytics == nil {
		return nil, util.ErrMissingAnalytics
	}
	if in.Readiness == nil || in.Weaknesses == nil {
		return nil, util.ErrMissingAnalytics
	}

	cfg := s.Config()
	now := s.now()

	var all []model.StudyRecommendation
	for _, rule := range s.rules {
		all = append(all, rule.Generate(cfg, in, now)...)
	}

	// 置信度过滤 + 可选的时间预算过滤 + 稳定排序 + 截断
	var budget float64
	if in.Preference != nil {
		budget = in.Preference.MaxWeeklyHours
	}
	filtered := all[:0]
	for _, rec := range all {
		if rec.Confidence < cfg.MinConfidence {
			continue
		}
		if budget > 0 && rec.EstimatedHours > budget {
			continue
		}
		// 偏好里点名关注的技能给相关性加一点权重
		if in.Preference != nil && componentsOverlap(rec.Components, in.Preference.FocusComponents) {
			rec.Relevance = util.Clamp01(rec.Relevance + 0.15)
		}
		filtered = append(filtered, rec)
	}
	sortRecommendations(filtered)
	if len(filtered) > cfg.MaxRecommendations {
		filtered = filtered[:cfg.MaxRecommendations]
	}

	out := &model.StudyRecommendations{
		Immediate:   []model.StudyRecommendation{},
		ShortTerm:   []model.StudyRecommendation{},
		LongTerm:    []model.StudyRecommendation{},
		GeneratedAt: now,
	}
	for _, rec := range filtered {
		switch bucketFor(cfg, rec) {
		case "immediate":
			out.Immediate = append(out.Immediate, rec)
		case "short_term":
			out.ShortTerm = append(out.ShortTerm, rec)
		default:
			out.LongTerm = append(out.LongTerm, rec)
		}
	}

	out.StudyPlan = buildStudyPlan(cfg, in)
	out.Schedule = buildSchedule(in.Preference)
	out.Resources = curateResources(in, filtered)
	out.Insights = buildInsights(in)
	out.Prediction = buildPrediction(cfg, in, out.StudyPlan.DurationWeeks)
	out.Summary = buildSummary(in, filtered, out.StudyPlan)

	return out, nil
}

func componentsOverlap(a, b []model.Component) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// bucketFor critical 级无条件进立即桶，其余按最早预期收益的时间窗分桶，
// 没有预期收益时退回优先级
func bucketFor(cfg RecommendationConfig, rec model.StudyRecommendation) string {
	if rec.Priority == model.PriorityCritical {
		return "immediate"
	}

	minWeeks := math.MaxInt32
	for _, o := range rec.ExpectedOutcomes {
		if o.TimeframeWeeks < minWeeks {
			minWeeks = o.TimeframeWeeks
		}
	}

	if minWeeks != math.MaxInt32 {
		days := minWeeks * 7
		switch {
		case days <= cfg.ImmediateHorizonDays:
			return "immediate"
		case days <= cfg.ShortTermHorizonDays:
			return "short_term"
		default:
			return "long_term"
		}
	}

	switch rec.Priority {
	case model.PriorityHigh:
		return "immediate"
	case model.PriorityMedium:
		return "short_term"
	default:
		return "long_term"
	}
}

// phaseSplit 三阶段周数切分，和恒等于总周数，每段至少一周
func phaseSplit(weeks int) (foundation, development, mastery int) {
	foundation = weeks * 2 / 5
	if foundation < 1 {
		foundation = 1
	}
	mastery = weeks / 5
	if mastery < 1 {
		mastery = 1
	}
	development = weeks - foundation - mastery
	if development < 1 {
		development = 1
		foundation = weeks - development - mastery
		if foundation < 1 {
			foundation = 1
			mastery = weeks - foundation - development
		}
	}
	return foundation, development, mastery
}

// weakComponents 按 readiness 升序列出明显薄弱的技能，最多 limit 个
func weakComponents(in *SynthesisInput, limit int) []model.Component {
	type scored struct {
		c model.Component
		s float64
	}
	var ranked []scored
	for _, component := range model.AllComponents() {
		if cr := in.Readiness.Components[component]; cr != nil {
			ranked = append(ranked, scored{component, cr.Score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].s < ranked[j].s })

	var out []model.Component
	for _, r := range ranked {
		if r.s >= 0.6 || len(out) >= limit {
			break
		}
		out = append(out, r.c)
	}
	if len(out) == 0 && len(ranked) > 0 {
		out = append(out, ranked[0].c)
	}
	return out
}

func buildStudyPlan(cfg RecommendationConfig, in *SynthesisInput) model.PersonalizedStudyPlan {
	weeks := cfg.PlanDurationWeeks[in.Readiness.Level]
	if weeks == 0 {
		weeks = 8
	}

	baseScore := in.Readiness.EstimatedExamScore
	targetScore := math.Min(100, baseScore+30)
	gainPerWeek := (targetScore - baseScore) / float64(weeks)

	focus := planFocus(in, 2)
	schedule := buildSchedule(in.Preference)

	// 前两个阶段聚焦薄弱技能，冲刺阶段覆盖全部技能
	f, d, m := phaseSplit(weeks)
	phases := []model.StudyPhase{
		buildPhase("Foundation", f, 0, focus, baseScore, gainPerWeek, schedule),
		buildPhase("Development", d, f, focus, baseScore, gainPerWeek, schedule),
		buildPhase("Mastery", m, f+d, model.AllComponents(), baseScore, gainPerWeek, schedule),
	}

	third := clampWeek(int(math.Ceil(float64(weeks)/3)), weeks)
	twoThirds := clampWeek(int(math.Ceil(2*float64(weeks)/3)), weeks)
	milestones := []model.PlanMilestone{
		{Week: third, Title: "基础巩固", TargetScore: baseScore + gainPerWeek*float64(third)},
		{Week: twoThirds, Title: "能力提升", TargetScore: baseScore + gainPerWeek*float64(twoThirds)},
		{Week: weeks, Title: "备考就绪", TargetScore: targetScore},
	}

	return model.PersonalizedStudyPlan{
		DurationWeeks: weeks,
		Phases:        phases,
		Milestones:    milestones,
		SuccessMetrics: []string{
			fmt.Sprintf("模考平均分达到 %.0f 分以上", targetScore),
			"四项技能 readiness 均不低于 60%",
			"每周完成计划内全部练习会话",
		},
	}
}

func clampWeek(week, max int) int {
	if week < 1 {
		return 1
	}
	if week > max {
		return max
	}
	return week
}

func buildPhase(name string, weeks, offset int, focus []model.Component, baseScore, gainPerWeek float64, schedule model.AdaptiveSchedule) model.StudyPhase {
	phase := model.StudyPhase{
		Name:            name,
		DurationWeeks:   weeks,
		FocusComponents: focus,
	}

	for i := 1; i <= weeks; i++ {
		week := offset + i
		phase.WeeklyGoals = append(phase.WeeklyGoals, model.WeeklyGoal{
			Week:        week,
			TargetScore: math.Min(100, baseScore+gainPerWeek*float64(week)),
			Description: fmt.Sprintf("完成 %d 次练习会话并复盘", schedule.SessionsPerWeek),
		})
	}

	days := []string{"Monday", "Wednesday", "Friday", "Sunday"}
	for i := 0; i < schedule.SessionsPerWeek && i < len(days); i++ {
		component := focus[i%len(focus)]
		phase.DailySchedule = append(phase.DailySchedule, model.DailyActivity{
			Day:             days[i],
			Activity:        fmt.Sprintf("%s 专项练习", component),
			Component:       component,
			DurationMinutes: schedule.SessionLengthMinutes,
		})
	}

	// 每阶段两次测评：期中进度检查 + 阶段末模考
	mid := clampWeek(offset+(weeks+1)/2, offset+weeks)
	phase.Assessments = []model.PhaseAssessment{
		{
			Week:        mid,
			Type:        "progress_check",
			Description: fmt.Sprintf("%s 阶段中期进度检查", name),
		},
		{
			Week:        offset + weeks,
			Type:        "mock_exam",
			Description: fmt.Sprintf("%s 阶段末模考", name),
		},
	}

	return phase
}

// planFocus 阶段聚焦的技能：优先取关键/中等薄弱点覆盖的技能，
// 不足时按 readiness 升序补齐
func planFocus(in *SynthesisInput, limit int) []model.Component {
	var out []model.Component
	seen := make(map[model.Component]bool)

	add := func(weaknesses []model.WeaknessDetail) {
		for _, w := range weaknesses {
			if w.Component == "" || seen[w.Component] || len(out) >= limit {
				continue
			}
			seen[w.Component] = true
			out = append(out, w.Component)
		}
	}
	add(in.Weaknesses.CriticalWeaknesses)
	add(in.Weaknesses.ModerateWeaknesses)

	for _, c := range weakComponents(in, limit) {
		if !seen[c] && len(out) < limit {
			seen[c] = true
			out = append(out, c)
		}
	}

	if len(out) == 0 {
		return model.AllComponents()
	}
	return out
}

// buildSchedule 偏好缺失字段逐项回退到默认值
func buildSchedule(pref *model.UserPreference) model.AdaptiveSchedule {
	schedule := model.AdaptiveSchedule{
		PreferredTimes:       []string{"evening"},
		SessionLengthMinutes: 45,
		SessionsPerWeek:      4,
		Flexibility:          "moderate",
	}

	if pref != nil {
		if len(pref.PreferredTimes) > 0 {
			schedule.PreferredTimes = pref.PreferredTimes
		}
		if pref.SessionLengthMinutes > 0 {
			schedule.SessionLengthMinutes = pref.SessionLengthMinutes
		}
		if pref.SessionsPerWeek > 0 {
			schedule.SessionsPerWeek = pref.SessionsPerWeek
		}
		if pref.Flexibility != "" {
			schedule.Flexibility = pref.Flexibility
		}
	}

	schedule.AdaptationRules = []model.AdaptationRule{
		{
			Trigger:    "连续两次会话分数下降",
			Adjustment: "降低一档练习难度并重做错题",
		},
		{
			Trigger:    "一周内缺席超过一半计划会话",
			Adjustment: "缩短单次时长，改为更高频的短会话",
		},
	}
	return schedule
}

// curateResources 必备层是 critical/high 建议实际附带的资源，
// 其余按层级归档，title+component 去重
func curateResources(in *SynthesisInput, recs []model.StudyRecommendation) model.CuratedResources {
	curated := model.CuratedResources{
		Essential:     []model.ResourceRef{},
		Supplementary: []model.ResourceRef{},
		Advanced:      []model.ResourceRef{},
		ByComponent:   make(map[model.Component][]model.ResourceRef),
	}

	attachedHigh := make(map[string]bool)
	for _, rec := range recs {
		if rec.Priority != model.PriorityCritical && rec.Priority != model.PriorityHigh {
			continue
		}
		for _, ref := range rec.Resources {
			attachedHigh[ref.Title+"|"+string(ref.Component)] = true
		}
	}

	seen := make(map[string]bool)
	for _, res := range in.Resources {
		key := res.Title + "|" + string(res.Component)
		if seen[key] {
			continue
		}
		seen[key] = true

		ref := model.ResourceRef{
			Title:     res.Title,
			Type:      res.Type,
			Component: res.Component,
			Level:     res.Level,
			URL:       res.URL,
		}
		curated.ByComponent[res.Component] = append(curated.ByComponent[res.Component], ref)

		switch {
		case attachedHigh[key]:
			curated.Essential = append(curated.Essential, ref)
		case res.Level == "advanced":
			curated.Advanced = append(curated.Advanced, ref)
		default:
			curated.Supplementary = append(curated.Supplementary, ref)
		}
	}

	return curated
}

// buildInsights 整体进度超过 30% 给成就感框架；最近 5 次会话
// 提升超过 5 分给上升趋势框架
func buildInsights(in *SynthesisInput) []model.MotivationalInsight {
	var insights []model.MotivationalInsight

	if in.Progress.Completion > 0.3 {
		insights = append(insights, model.MotivationalInsight{
			Type:    "achievement",
			Message: fmt.Sprintf("已完成 %.0f%% 的整体备考进度，节奏在正轨上", in.Progress.Completion*100),
		})
	}

	scores := sessionScores(completedSessions(in.Sessions))
	if recent := lastN(scores, 5); len(recent) == 5 && recent[4]-recent[0] > 5 {
		insights = append(insights, model.MotivationalInsight{
			Type:    "upward_trend",
			Message: fmt.Sprintf("最近 5 次会话提高了 %.0f 分，当前练习方法有效", recent[4]-recent[0]),
		})
	}

	return insights
}

// buildPrediction 两条逐周轨迹：当前节奏 vs 按计划优化（1.5 倍提升速度）。
// 置信度随预测距离衰减，区间按 ±ConfidenceBand 给出。
func buildPrediction(cfg RecommendationConfig, in *SynthesisInput, weeks int) model.ProgressPrediction {
	analytics := in.Progress.Analytics
	base := in.Readiness.EstimatedExamScore

	schedule := buildSchedule(in.Preference)
	weeklyGain := analytics.ImprovementRate * float64(schedule.SessionsPerWeek)
	if weeklyGain <= 0 {
		weeklyGain = 0.5
	}

	trajectory := func(name string, gain float64) model.Trajectory {
		t := model.Trajectory{Name: name}
		for week := 1; week <= weeks; week++ {
			projected := util.Clamp(base+gain*float64(week), 0, 100)
			confidence := util.Clamp(in.Readiness.Confidence*(1-0.05*float64(week)), 0.2, 1)
			t.Points = append(t.Points, model.TrajectoryPoint{
				Week:           week,
				ProjectedScore: projected,
				Confidence:     confidence,
				LowerBound:     util.Clamp(projected*(1-cfg.ConfidenceBand), 0, 100),
				UpperBound:     util.Clamp(projected*(1+cfg.ConfidenceBand), 0, 100),
			})
		}
		return t
	}

	prediction := model.ProgressPrediction{
		CurrentPace:   trajectory("current_pace", weeklyGain),
		OptimizedPace: trajectory("optimized_pace", weeklyGain*cfg.OptimizedImprovementFactor),
		InfluenceFactors: []model.InfluenceFactor{
			{Name: "session_frequency", Weight: 0.4, Direction: direction(in.Readiness.Factors.SessionFrequency >= 0.5)},
			{Name: "consistency", Weight: 0.3, Direction: direction(analytics.ConsistencyScore >= 0.6)},
		},
	}

	var riskFactors []string
	if analytics.ConsistencyScore < 0.6 {
		riskFactors = append(riskFactors, "成绩波动较大，实际进度可能偏离预测")
	}
	if in.Readiness.DataQuality.SessionCount < 10 {
		riskFactors = append(riskFactors, "历史数据偏少，预测区间不确定性较高")
	}
	level := "low"
	if len(riskFactors) == 1 {
		level = "medium"
	} else if len(riskFactors) > 1 {
		level = "high"
	}
	prediction.Risk = model.RiskAssessment{Level: level, Factors: riskFactors}

	return prediction
}

func direction(positive bool) string {
	if positive {
		return "positive"
	}
	return "negative"
}

// avgWeeklyHours 各阶段每周排期时长的平均值（小时）
func avgWeeklyHours(plan model.PersonalizedStudyPlan) float64 {
	if len(plan.Phases) == 0 {
		return 0
	}
	var total float64
	for _, phase := range plan.Phases {
		minutes := 0
		for _, activity := range phase.DailySchedule {
			minutes += activity.DurationMinutes
		}
		total += float64(minutes) / 60
	}
	return total / float64(len(plan.Phases))
}

func buildSummary(in *SynthesisInput, recs []model.StudyRecommendation, plan model.PersonalizedStudyPlan) model.RecommendationSummary {
	weeks := plan.DurationWeeks

	critical := 0
	focusSet := make(map[string]bool)
	var focusAreas []string
	for _, rec := range recs {
		if rec.Priority == model.PriorityCritical {
			critical++
		}
		for _, c := range rec.Components {
			if !focusSet[string(c)] {
				focusSet[string(c)] = true
				focusAreas = append(focusAreas, string(c))
			}
		}
	}
	sort.Strings(focusAreas)
	if len(focusAreas) > 5 {
		focusAreas = focusAreas[:5]
	}

	confidenceLevel := "high"
	if in.Readiness.Confidence < 0.4 {
		confidenceLevel = "low"
	} else if in.Readiness.Confidence < 0.7 {
		confidenceLevel = "medium"
	}

	primaryGoal := "保持当前水平并冲刺更高分数"
	if in.Readiness.Level != model.ReadinessExcellent {
		primaryGoal = fmt.Sprintf("用 %d 周时间把备考程度从 %s 提升一档", weeks, in.Readiness.Level)
	}

	return model.RecommendationSummary{
		TotalRecommendations: len(recs),
		CriticalActions:      critical,
		EstimatedWeeklyHours: avgWeeklyHours(plan),
		FocusAreas:           focusAreas,
		PrimaryGoal:          primaryGoal,
		ConfidenceLevel:      confidenceLevel,
		TimeToGoal:           fmt.Sprintf("%d weeks", weeks),
	}
}
