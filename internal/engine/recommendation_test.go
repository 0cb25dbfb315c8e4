package engine

import (
	"fmt"
	"testing"

	"ielts_prep_backend/internal/model"
	"ielts_prep_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSynthesizer() *RecommendationSynthesizer {
	s := NewRecommendationSynthesizer(DefaultRecommendationConfig())
	s.now = fixedNow
	return s
}

func readinessFixture(level model.ReadinessLevel) *model.ReadinessAssessment {
	components := make(map[model.Component]*model.ComponentReadiness)
	for _, c := range model.AllComponents() {
		components[c] = &model.ComponentReadiness{Component: c, Score: 0.65, Trend: "stable", SessionsCompleted: 4}
	}
	return &model.ReadinessAssessment{
		OverallScore: 0.6,
		Confidence:   0.8,
		Level:        level,
		Factors: model.ReadinessFactors{
			OverallScore:     0.6,
			Consistency:      0.7,
			Improvement:      0.7,
			SessionFrequency: 0.8,
			WeaknessRecovery: 0.5,
			TimeManagement:   0.8,
		},
		Components:             components,
		EstimatedExamScore:     55,
		RecommendedWeeklyHours: 10,
		DataQuality:            model.DataQuality{SessionCount: 12, ComponentCoverage: 1, ConsistencyScore: 1, RecencyScore: 0.9},
		Milestones: []model.ReadinessMilestone{
			{Name: "foundation", TargetReadiness: 0.55, Achieved: true},
			{Name: "proficiency", TargetReadiness: 0.70, Achieved: false},
		},
		GeneratedAt: fixedNow(),
	}
}

func weaknessDetail(severity model.WeaknessSeverity, c model.Component, area string, confidence float64) model.WeaknessDetail {
	return model.WeaknessDetail{
		Type:         model.WeaknessComponentSkill,
		Severity:     severity,
		Component:    c,
		SpecificArea: area,
		Evidence:     model.WeaknessEvidence{AverageScore: 45, SampleSize: 6},
		Impact:       model.WeaknessImpact{PriorityScore: 0.6},
		Confidence:   confidence,
		Trend:        "stable",
	}
}

func weaknessFixture() *model.WeaknessAnalysis {
	return &model.WeaknessAnalysis{
		CriticalWeaknesses: []model.WeaknessDetail{
			weaknessDetail(model.SeverityCritical, model.Reading, "gap_fill", 0.8),
		},
		ModerateWeaknesses: []model.WeaknessDetail{
			weaknessDetail(model.SeverityModerate, model.Writing, "essay_structure", 0.7),
		},
		SlightWeaknesses: []model.WeaknessDetail{},
		Confidence:       0.7,
		GeneratedAt:      fixedNow(),
	}
}

func synthInput(level model.ReadinessLevel) *SynthesisInput {
	// 最近 5 次会话稳步上升（50 → 64），最后一次在 12 天前
	scores := []float64{50, 54, 58, 61, 64}
	var sessions []model.ExamSession
	for i, score := range scores {
		start := fixedNow().AddDate(0, 0, -20+2*i)
		sessions = append(sessions, completedAt(model.Reading, start, score, 3600))
	}

	return &SynthesisInput{
		Progress: &model.UserProgress{
			UserID:       1,
			Completion:   0.45,
			LastActivity: fixedNow().AddDate(0, 0, -2),
			Analytics: &model.ProgressAnalytics{
				AverageScore:     55,
				ConsistencyScore: 0.7,
				ImprovementRate:  1.0,
			},
		},
		Sessions:   sessions,
		Readiness:  readinessFixture(level),
		Weaknesses: weaknessFixture(),
	}
}

func TestSynthesizeMissingInputs(t *testing.T) {
	s := newTestSynthesizer()

	_, err := s.Synthesize(nil)
	assert.ErrorIs(t, err, util.ErrMissingAnalytics)

	in := synthInput(model.ReadinessFair)
	in.Progress.Analytics = nil
	_, err = s.Synthesize(in)
	assert.ErrorIs(t, err, util.ErrMissingAnalytics)

	in = synthInput(model.ReadinessFair)
	in.Readiness = nil
	_, err = s.Synthesize(in)
	assert.ErrorIs(t, err, util.ErrMissingAnalytics)

	in = synthInput(model.ReadinessFair)
	in.Weaknesses = nil
	_, err = s.Synthesize(in)
	assert.ErrorIs(t, err, util.ErrMissingAnalytics)
}

func TestSynthesizeFiltersLowConfidence(t *testing.T) {
	s := newTestSynthesizer()
	in := synthInput(model.ReadinessFair)
	in.Weaknesses.ModerateWeaknesses = append(in.Weaknesses.ModerateWeaknesses,
		weaknessDetail(model.SeverityModerate, model.Listening, "note_taking", 0.2))

	out, err := s.Synthesize(in)
	require.NoError(t, err)

	for _, rec := range out.All() {
		assert.GreaterOrEqual(t, rec.Confidence, 0.3, rec.ID)
		assert.NotEqual(t, "weakness_focus:note_taking", rec.ID)
	}
}

func TestSynthesizeCapsRecommendationCount(t *testing.T) {
	s := newTestSynthesizer()
	in := synthInput(model.ReadinessFair)
	for i := 0; i < 20; i++ {
		in.Weaknesses.CriticalWeaknesses = append(in.Weaknesses.CriticalWeaknesses,
			weaknessDetail(model.SeverityCritical, model.Reading, fmt.Sprintf("area_%02d", i), 0.8))
	}

	out, err := s.Synthesize(in)
	require.NoError(t, err)

	all := out.All()
	assert.LessOrEqual(t, len(all), 15)
	assert.Equal(t, len(all), out.Summary.TotalRecommendations)
	// 截断后留下的全是 critical 级
	for _, rec := range all {
		assert.Equal(t, model.PriorityCritical, rec.Priority, rec.ID)
	}
}

func TestStudyPlanDurationAndPhases(t *testing.T) {
	s := newTestSynthesizer()

	expected := map[model.ReadinessLevel]int{
		model.ReadinessPoor:      12,
		model.ReadinessFair:      8,
		model.ReadinessGood:      6,
		model.ReadinessExcellent: 4,
	}

	for level, weeks := range expected {
		out, err := s.Synthesize(synthInput(level))
		require.NoError(t, err)

		plan := out.StudyPlan
		assert.Equal(t, weeks, plan.DurationWeeks, level)

		require.Len(t, plan.Phases, 3, level)
		total := 0
		goals := 0
		for _, phase := range plan.Phases {
			assert.GreaterOrEqual(t, phase.DurationWeeks, 1, level)
			total += phase.DurationWeeks
			goals += len(phase.WeeklyGoals)
			for _, g := range phase.WeeklyGoals {
				assert.LessOrEqual(t, g.TargetScore, 100.0)
				assert.GreaterOrEqual(t, g.Week, 1)
				assert.LessOrEqual(t, g.Week, weeks)
			}

			// 每阶段两次测评：期中进度检查 + 阶段末模考
			require.Len(t, phase.Assessments, 2, level)
			assert.Equal(t, "progress_check", phase.Assessments[0].Type)
			assert.Equal(t, "mock_exam", phase.Assessments[1].Type)
		}
		assert.Equal(t, weeks, total, level)
		assert.Equal(t, weeks, goals, level)

		// 前两个阶段聚焦薄弱技能（critical reading、moderate writing），冲刺覆盖全部
		expectedFocus := []model.Component{model.Reading, model.Writing}
		assert.Equal(t, expectedFocus, plan.Phases[0].FocusComponents, level)
		assert.Equal(t, expectedFocus, plan.Phases[1].FocusComponents, level)
		assert.Equal(t, model.AllComponents(), plan.Phases[2].FocusComponents, level)

		require.Len(t, plan.Milestones, 3, level)
		for _, m := range plan.Milestones {
			assert.GreaterOrEqual(t, m.Week, 1)
			assert.LessOrEqual(t, m.Week, weeks)
		}

		// 冲刺阶段的模考落在最后一周
		last := plan.Phases[2]
		mock := last.Assessments[len(last.Assessments)-1]
		assert.Equal(t, "mock_exam", mock.Type)
		assert.Equal(t, weeks, mock.Week)
	}
}

func TestPhaseSplitInvariant(t *testing.T) {
	for weeks := 4; weeks <= 12; weeks++ {
		f, d, m := phaseSplit(weeks)
		assert.Equal(t, weeks, f+d+m, "weeks=%d", weeks)
		assert.GreaterOrEqual(t, f, 1)
		assert.GreaterOrEqual(t, d, 1)
		assert.GreaterOrEqual(t, m, 1)
	}
}

func TestScheduleFallbacks(t *testing.T) {
	schedule := buildSchedule(nil)
	assert.Equal(t, []string{"evening"}, schedule.PreferredTimes)
	assert.Equal(t, 45, schedule.SessionLengthMinutes)
	assert.Equal(t, 4, schedule.SessionsPerWeek)
	assert.Equal(t, "moderate", schedule.Flexibility)
	assert.Len(t, schedule.AdaptationRules, 2)

	pref := &model.UserPreference{
		PreferredTimes:       []string{"morning"},
		SessionLengthMinutes: 30,
		SessionsPerWeek:      6,
		Flexibility:          "flexible",
	}
	schedule = buildSchedule(pref)
	assert.Equal(t, []string{"morning"}, schedule.PreferredTimes)
	assert.Equal(t, 30, schedule.SessionLengthMinutes)
	assert.Equal(t, 6, schedule.SessionsPerWeek)
	assert.Equal(t, "flexible", schedule.Flexibility)
}

func TestInactivityTriggersComeback(t *testing.T) {
	s := newTestSynthesizer()
	in := synthInput(model.ReadinessGood)
	in.Progress.LastActivity = fixedNow().AddDate(0, 0, -10)

	out, err := s.Synthesize(in)
	require.NoError(t, err)

	var comeback *model.StudyRecommendation
	for i := range out.Immediate {
		if out.Immediate[i].Type == model.RecPracticeSession {
			comeback = &out.Immediate[i]
		}
	}
	require.NotNil(t, comeback, "10 天无活动应产出回归练习建议")
	assert.Equal(t, model.PriorityHigh, comeback.Priority)
	assert.Equal(t, "practice_session:comeback", comeback.ID)
}

func TestNoComebackWhenActive(t *testing.T) {
	s := newTestSynthesizer()
	in := synthInput(model.ReadinessGood)
	in.Progress.LastActivity = fixedNow().AddDate(0, 0, -2)

	out, err := s.Synthesize(in)
	require.NoError(t, err)

	for _, rec := range out.All() {
		assert.NotEqual(t, model.RecPracticeSession, rec.Type)
	}
}

func TestPredictionTrajectories(t *testing.T) {
	s := newTestSynthesizer()

	out, err := s.Synthesize(synthInput(model.ReadinessFair))
	require.NoError(t, err)

	prediction := out.Prediction
	require.NotEmpty(t, prediction.CurrentPace.Points)
	require.Len(t, prediction.OptimizedPace.Points, len(prediction.CurrentPace.Points))

	lastCurrent := prediction.CurrentPace.Points[len(prediction.CurrentPace.Points)-1]
	lastOptimized := prediction.OptimizedPace.Points[len(prediction.OptimizedPace.Points)-1]
	assert.Greater(t, lastOptimized.ProjectedScore, lastCurrent.ProjectedScore)

	prevConfidence := 1.0
	for _, p := range prediction.CurrentPace.Points {
		assert.LessOrEqual(t, p.LowerBound, p.ProjectedScore)
		assert.LessOrEqual(t, p.ProjectedScore, p.UpperBound)
		assert.GreaterOrEqual(t, p.Confidence, 0.2)
		assert.LessOrEqual(t, p.Confidence, prevConfidence)
		prevConfidence = p.Confidence

		if p.ProjectedScore < 100 && p.ProjectedScore > 0 {
			assert.InDelta(t, p.ProjectedScore*0.85, p.LowerBound, 1e-9)
		}
	}
}

func TestBucketsByExpectedTimeframe(t *testing.T) {
	s := newTestSynthesizer()

	out, err := s.Synthesize(synthInput(model.ReadinessFair))
	require.NoError(t, err)

	// critical 级不看收益时间窗，无条件进立即桶
	immediate := false
	for _, rec := range out.Immediate {
		if rec.ID == "weakness_focus:gap_fill" {
			immediate = true
		}
	}
	assert.True(t, immediate, "critical 级建议应进立即桶")

	// high 级建议的最早收益在 3 周后，落在短期桶
	short := false
	for _, rec := range out.ShortTerm {
		if rec.ID == "weakness_focus:essay_structure" {
			short = true
		}
	}
	assert.True(t, short, "high 级建议应按 3 周收益分到短期桶")
}

func TestCuratedResourceTiers(t *testing.T) {
	s := newTestSynthesizer()
	in := synthInput(model.ReadinessFair)
	in.Resources = []model.StudyResource{
		{Title: "阅读填空精练", Type: "practice_set", Component: model.Reading, Level: "intermediate"},
		{Title: "写作结构课", Type: "course", Component: model.Writing, Level: "intermediate"},
		{Title: "口语高阶话题", Type: "practice_set", Component: model.Speaking, Level: "advanced"},
		{Title: "阅读填空精练", Type: "practice_set", Component: model.Reading, Level: "intermediate"}, // 重复项
	}

	out, err := s.Synthesize(in)
	require.NoError(t, err)

	resources := out.Resources
	// reading 有 critical 薄弱点，其资源建议为 high 级并附带该资源，进必备层且去重
	require.Len(t, resources.Essential, 1)
	assert.Equal(t, model.Reading, resources.Essential[0].Component)
	// writing 的资源建议只有 medium 级，未被高优建议附带，进补充层
	require.Len(t, resources.Supplementary, 1)
	assert.Equal(t, model.Writing, resources.Supplementary[0].Component)
	// 高阶资源进进阶层
	require.Len(t, resources.Advanced, 1)
	assert.Equal(t, model.Speaking, resources.Advanced[0].Component)
	assert.Len(t, resources.ByComponent[model.Reading], 1)
}

func TestSynthesizeSummaryAndInsights(t *testing.T) {
	s := newTestSynthesizer()

	out, err := s.Synthesize(synthInput(model.ReadinessFair))
	require.NoError(t, err)

	assert.Equal(t, "high", out.Summary.ConfidenceLevel)
	assert.Equal(t, "8 weeks", out.Summary.TimeToGoal)
	// 默认排期每周 4 次 45 分钟，三个阶段平均为 3 小时
	assert.InDelta(t, 3.0, out.Summary.EstimatedWeeklyHours, 1e-9)
	assert.LessOrEqual(t, len(out.Summary.FocusAreas), 5)

	// 整体进度过 30% + 最近 5 次会话上升超过 5 分，两类洞察都应产出
	require.NotEmpty(t, out.Insights)
	types := make(map[string]bool)
	for _, insight := range out.Insights {
		types[insight.Type] = true
	}
	assert.True(t, types["achievement"])
	assert.True(t, types["upward_trend"])
}

func TestWeeklyHourBudgetFiltersRecommendations(t *testing.T) {
	s := newTestSynthesizer()

	baseline, err := s.Synthesize(synthInput(model.ReadinessFair))
	require.NoError(t, err)

	in := synthInput(model.ReadinessFair)
	in.Preference = &model.UserPreference{MaxWeeklyHours: 2}
	out, err := s.Synthesize(in)
	require.NoError(t, err)

	assert.Less(t, len(out.All()), len(baseline.All()))
	for _, rec := range out.All() {
		assert.LessOrEqual(t, rec.EstimatedHours, 2.0, rec.ID)
		assert.NotEqual(t, model.RecWeaknessFocus, rec.Type, rec.ID)
	}
}

func TestFocusPreferenceBoostsRelevance(t *testing.T) {
	s := newTestSynthesizer()
	in := synthInput(model.ReadinessFair)
	in.Preference = &model.UserPreference{FocusComponents: []model.Component{model.Writing}}

	out, err := s.Synthesize(in)
	require.NoError(t, err)

	byID := make(map[string]model.StudyRecommendation)
	for _, rec := range out.All() {
		byID[rec.ID] = rec
	}

	// 点名关注 writing 后，writing 建议的相关性加 0.15，reading 不变
	boosted, ok := byID["weakness_focus:essay_structure"]
	require.True(t, ok)
	assert.InDelta(t, 0.75, boosted.Relevance, 1e-9)

	plain, ok := byID["weakness_focus:gap_fill"]
	require.True(t, ok)
	assert.InDelta(t, 0.6, plain.Relevance, 1e-9)
}

func TestResourceRuleTargetsWeakComponents(t *testing.T) {
	s := newTestSynthesizer()
	in := synthInput(model.ReadinessFair)
	in.Readiness.Components[model.Listening].Score = 0.8
	in.Resources = []model.StudyResource{
		{Title: "阅读填空精练", Type: "practice_set", Component: model.Reading, Level: "intermediate"},
		{Title: "听力笔记训练", Type: "course", Component: model.Listening, Level: "intermediate"},
	}

	out, err := s.Synthesize(in)
	require.NoError(t, err)

	byID := make(map[string]model.StudyRecommendation)
	for _, rec := range out.All() {
		byID[rec.ID] = rec
	}

	// readiness 达标的技能不再推资源
	_, ok := byID["resource:listening"]
	assert.False(t, ok)

	// critical 薄弱技能的资源建议为 high 级并附带资源
	rec, ok := byID["resource:reading"]
	require.True(t, ok)
	assert.Equal(t, model.PriorityHigh, rec.Priority)
	require.NotEmpty(t, rec.Resources)
	assert.Equal(t, "阅读填空精练", rec.Resources[0].Title)
}

func TestResourceLevelFollowsDifficultyPreference(t *testing.T) {
	s := newTestSynthesizer()
	in := synthInput(model.ReadinessFair)
	in.Preference = &model.UserPreference{Difficulty: "intensive"}
	in.Resources = []model.StudyResource{
		{Title: "口语日常话题", Type: "practice_set", Component: model.Speaking, Level: "intermediate"},
		{Title: "口语高阶话题", Type: "practice_set", Component: model.Speaking, Level: "advanced"},
	}

	out, err := s.Synthesize(in)
	require.NoError(t, err)

	var rec *model.StudyRecommendation
	all := out.All()
	for i := range all {
		if all[i].ID == "resource:speaking" {
			rec = &all[i]
		}
	}
	require.NotNil(t, rec)
	// intensive 偏好映射到 advanced 层级，匹配的资源排前面
	require.NotEmpty(t, rec.Resources)
	assert.Equal(t, "advanced", rec.Resources[0].Level)
}

func TestSynthesizeDeterministic(t *testing.T) {
	s := newTestSynthesizer()

	first, err := s.Synthesize(synthInput(model.ReadinessFair))
	require.NoError(t, err)
	second, err := s.Synthesize(synthInput(model.ReadinessFair))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRecommendationValidity(t *testing.T) {
	s := newTestSynthesizer()

	out, err := s.Synthesize(synthInput(model.ReadinessFair))
	require.NoError(t, err)

	expected := fixedNow().AddDate(0, 0, 30)
	for _, rec := range out.All() {
		assert.Equal(t, expected, rec.ValidUntil, rec.ID)
	}
}
