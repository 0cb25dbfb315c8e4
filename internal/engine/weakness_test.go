package engine

import (
	"testing"
	"time"

	"ielts_prep_backend/internal/model"
	"ielts_prep_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDetector() *WeaknessDetector {
	d := NewWeaknessDetector(DefaultWeaknessConfig())
	d.now = fixedNow
	return d
}

func progressWith(analytics *model.ProgressAnalytics, last time.Time) *model.UserProgress {
	return &model.UserProgress{UserID: 1, LastActivity: last, Analytics: analytics}
}

func findWeakness(list []model.WeaknessDetail, t model.WeaknessType, component model.Component) *model.WeaknessDetail {
	for i := range list {
		if list[i].Type == t && list[i].Component == component {
			return &list[i]
		}
	}
	return nil
}

func TestAnalyzeWeaknessesRequiresAnalytics(t *testing.T) {
	d := newTestDetector()

	_, err := d.AnalyzeWeaknesses(nil, nil)
	assert.ErrorIs(t, err, util.ErrMissingAnalytics)

	_, err = d.AnalyzeWeaknesses(&model.UserProgress{}, nil)
	assert.ErrorIs(t, err, util.ErrMissingAnalytics)
}

func TestAnalyzeWeaknessesSeverityBuckets(t *testing.T) {
	d := newTestDetector()

	// 四项技能各三次会话：30/50/70/90 分，分别落在 critical/moderate/slight/无
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	averages := map[model.Component]float64{
		model.Reading:   30,
		model.Writing:   50,
		model.Listening: 70,
		model.Speaking:  90,
	}
	var sessions []model.ExamSession
	for round := 0; round < 3; round++ {
		for j, c := range model.AllComponents() {
			start := base.AddDate(0, 0, round*4+j)
			sessions = append(sessions, completedAt(c, start, averages[c], 1800))
		}
	}
	progress := progressWith(&model.ProgressAnalytics{AverageScore: 60, ConsistencyScore: 0.9}, base.AddDate(0, 0, 11))

	analysis, err := d.AnalyzeWeaknesses(progress, sessions)
	require.NoError(t, err)

	reading := findWeakness(analysis.CriticalWeaknesses, model.WeaknessComponentSkill, model.Reading)
	require.NotNil(t, reading)
	assert.Equal(t, model.SeverityCritical, reading.Severity)
	assert.InDelta(t, 30, reading.Evidence.AverageScore, 1e-9)
	assert.Equal(t, 3, reading.Evidence.SampleSize)

	writing := findWeakness(analysis.ModerateWeaknesses, model.WeaknessComponentSkill, model.Writing)
	require.NotNil(t, writing)

	listening := findWeakness(analysis.SlightWeaknesses, model.WeaknessComponentSkill, model.Listening)
	require.NotNil(t, listening)

	// 90 分的技能不在任何桶里
	assert.Nil(t, findWeakness(analysis.AllWeaknesses(), model.WeaknessComponentSkill, model.Speaking))

	// 没有单题标注，6 次低于 60 分的会话触发兜底错误模式
	var fallback *model.WeaknessDetail
	for i := range analysis.ModerateWeaknesses {
		if analysis.ModerateWeaknesses[i].Type == model.WeaknessErrorPattern {
			fallback = &analysis.ModerateWeaknesses[i]
		}
	}
	require.NotNil(t, fallback)
	assert.Equal(t, "recurring_low_scores", fallback.SpecificArea)
	assert.InDelta(t, 0.4, fallback.Confidence, 1e-9)

	// 行动清单覆盖全部发现且按优先级降序编号
	require.Len(t, analysis.PrioritizedActions, analysis.TotalWeaknesses())
	for i, action := range analysis.PrioritizedActions {
		assert.Equal(t, i+1, action.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, analysis.PrioritizedActions[i-1].PriorityScore, action.PriorityScore)
		}
	}
}

func TestImprovementPlanDuration(t *testing.T) {
	cfg := DefaultWeaknessConfig()

	cases := []struct {
		actions int
		weeks   int
	}{
		{0, 4},
		{1, 4},
		{3, 6},
		{4, 8},
		{10, 12},
	}
	for _, tc := range cases {
		actions := make([]model.PrioritizedAction, tc.actions)
		for i := range actions {
			actions[i] = model.PrioritizedAction{Rank: i + 1, Title: "a", Component: model.Reading}
		}
		plan := draftImprovementPlan(cfg, actions)
		assert.Equal(t, tc.weeks, plan.TotalWeeks, "actions=%d", tc.actions)
		assert.Len(t, plan.Weeks, tc.weeks)
		for _, wk := range plan.Weeks {
			assert.NotEmpty(t, wk.Goals)
		}

		require.Len(t, plan.Milestones, 3)
		assert.Equal(t, plan.TotalWeeks, plan.Milestones[2].Week)
		assert.InDelta(t, 10, plan.Milestones[0].TargetGain, 1e-9)
		assert.InDelta(t, 20, plan.Milestones[1].TargetGain, 1e-9)
		assert.InDelta(t, 30, plan.Milestones[2].TargetGain, 1e-9)
		for _, m := range plan.Milestones {
			assert.GreaterOrEqual(t, m.Week, 1)
			assert.LessOrEqual(t, m.Week, plan.TotalWeeks)
		}
	}
}

func TestDetectStagnation(t *testing.T) {
	d := newTestDetector()

	// 11 次阅读会话分数持续下滑
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	var sessions []model.ExamSession
	for i := 0; i < 11; i++ {
		sessions = append(sessions, completedAt(model.Reading, base.AddDate(0, 0, i*2), 90-4*float64(i), 1800))
	}
	progress := progressWith(&model.ProgressAnalytics{AverageScore: 70, ConsistencyScore: 0.9}, base.AddDate(0, 0, 20))

	analysis, err := d.AnalyzeWeaknesses(progress, sessions)
	require.NoError(t, err)

	var stagnation *model.WeaknessDetail
	for _, w := range analysis.AllWeaknesses() {
		if w.Type == model.WeaknessStagnation {
			found := w
			stagnation = &found
		}
	}
	require.NotNil(t, stagnation)
	assert.Equal(t, model.SeverityModerate, stagnation.Severity)
	assert.Equal(t, "worsening", stagnation.Trend)
	assert.Equal(t, 10, stagnation.Evidence.SampleSize)
}

func TestDetectErrorPatternsFromTags(t *testing.T) {
	d := newTestDetector()

	base := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	var sessions []model.ExamSession
	for i := 0; i < 3; i++ {
		s := completedAt(model.Listening, base.AddDate(0, 0, i*2), 80, 1800)
		s.Questions = []model.QuestionResult{
			{QuestionType: "gap_fill", Score: 80, ErrorTag: "vocabulary"},
			{QuestionType: "gap_fill", Score: 78, ErrorTag: "vocabulary"},
			{QuestionType: "multiple_choice", Score: 82, ErrorTag: "inference"},
		}
		sessions = append(sessions, s)
	}
	// inference 共 3 次(slight)，vocabulary 共 6 次(moderate)
	progress := progressWith(&model.ProgressAnalytics{AverageScore: 80, ConsistencyScore: 0.9}, base.AddDate(0, 0, 5))

	analysis, err := d.AnalyzeWeaknesses(progress, sessions)
	require.NoError(t, err)

	var vocab, inference *model.WeaknessDetail
	for _, w := range analysis.AllWeaknesses() {
		if w.Type != model.WeaknessErrorPattern {
			continue
		}
		found := w
		switch w.SpecificArea {
		case "vocabulary":
			vocab = &found
		case "inference":
			inference = &found
		}
	}

	require.NotNil(t, vocab)
	assert.Equal(t, model.SeverityModerate, vocab.Severity)
	assert.Equal(t, 6, vocab.Evidence.SampleSize)

	require.NotNil(t, inference)
	assert.Equal(t, model.SeveritySlight, inference.Severity)
	assert.Equal(t, 3, inference.Evidence.SampleSize)
}

func TestIdentifyPatternsAcrossTypes(t *testing.T) {
	d := newTestDetector()

	// 阅读既有低均分又有低分题型，构成横切模式
	base := time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC)
	var sessions []model.ExamSession
	for i := 0; i < 3; i++ {
		s := completedAt(model.Reading, base.AddDate(0, 0, i*2), 50, 1800)
		s.Questions = []model.QuestionResult{
			{QuestionType: "matching_headings", Score: 45},
			{QuestionType: "matching_headings", Score: 50},
		}
		sessions = append(sessions, s)
	}
	progress := progressWith(&model.ProgressAnalytics{AverageScore: 50, ConsistencyScore: 0.9}, base.AddDate(0, 0, 5))

	analysis, err := d.AnalyzeWeaknesses(progress, sessions)
	require.NoError(t, err)

	require.NotEmpty(t, analysis.Patterns)
	pattern := analysis.Patterns[0]
	assert.Equal(t, model.Reading, pattern.Component)
	assert.GreaterOrEqual(t, pattern.WeaknessCount, 2)
	assert.GreaterOrEqual(t, len(pattern.Types), 2)
}

func TestIdentifyPatternsSameType(t *testing.T) {
	// 同一技能上堆积两个同类型薄弱点，同样构成横切模式
	weaknesses := []model.WeaknessDetail{
		{Type: model.WeaknessQuestionType, Severity: model.SeverityModerate, Component: model.Reading, SpecificArea: "matching_headings"},
		{Type: model.WeaknessQuestionType, Severity: model.SeverityCritical, Component: model.Reading, SpecificArea: "gap_fill"},
	}

	patterns := identifyPatterns(weaknesses)
	require.Len(t, patterns, 1)
	assert.Equal(t, model.Reading, patterns[0].Component)
	assert.Equal(t, 2, patterns[0].WeaknessCount)
	assert.Equal(t, []model.WeaknessType{model.WeaknessQuestionType}, patterns[0].Types)
	assert.Equal(t, model.SeverityCritical, patterns[0].Severity)
}

func TestAnalysisScoresWithinBounds(t *testing.T) {
	d := newTestDetector()

	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	var sessions []model.ExamSession
	for i := 0; i < 8; i++ {
		c := model.AllComponents()[i%4]
		sessions = append(sessions, completedAt(c, base.AddDate(0, 0, i*3), 45+float64(i), 1500+100*i))
	}
	progress := progressWith(&model.ProgressAnalytics{AverageScore: 48, ConsistencyScore: 0.5}, base.AddDate(0, 0, 22))

	analysis, err := d.AnalyzeWeaknesses(progress, sessions)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, analysis.OverallWeaknessScore, 0.0)
	assert.LessOrEqual(t, analysis.OverallWeaknessScore, 1.0)
	assert.GreaterOrEqual(t, analysis.Confidence, 0.0)
	assert.LessOrEqual(t, analysis.Confidence, 1.0)
	assert.Equal(t, fixedNow(), analysis.GeneratedAt)

	for _, w := range analysis.AllWeaknesses() {
		assert.GreaterOrEqual(t, w.Confidence, 0.0)
		assert.LessOrEqual(t, w.Confidence, 0.95)
		assert.GreaterOrEqual(t, w.Impact.PriorityScore, 0.0)
	}
}

func TestAnalyzeWeaknessesDeterministic(t *testing.T) {
	d := newTestDetector()

	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	var sessions []model.ExamSession
	for i := 0; i < 6; i++ {
		c := model.AllComponents()[i%2]
		sessions = append(sessions, completedAt(c, base.AddDate(0, 0, i*2), 40+float64(5*i), 1800))
	}
	progress := progressWith(&model.ProgressAnalytics{AverageScore: 52, ConsistencyScore: 0.5}, base.AddDate(0, 0, 11))

	first, err := d.AnalyzeWeaknesses(progress, sessions)
	require.NoError(t, err)
	second, err := d.AnalyzeWeaknesses(progress, sessions)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
