package engine

import (
	"testing"
	"time"

	"ielts_prep_backend/internal/model"
	"ielts_prep_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)
}

func completedAt(c model.Component, start time.Time, score float64, durationSec int) model.ExamSession {
	done := start.Add(time.Duration(durationSec) * time.Second)
	return model.ExamSession{
		Component:   c,
		Mode:        "practice",
		StartedAt:   start,
		CompletedAt: &done,
		Duration:    durationSec,
		Score:       &score,
	}
}

// strongHistory 16 次会话、四项技能轮换、严格 2.5 天间隔、分数稳步上升
func strongHistory() (*model.UserProgress, []model.ExamSession) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	components := model.AllComponents()

	var sessions []model.ExamSession
	for i := 0; i < 16; i++ {
		start := base.Add(time.Duration(i) * 60 * time.Hour)
		sessions = append(sessions, completedAt(components[i%4], start, 90+0.6*float64(i), 3600))
	}

	progress := &model.UserProgress{
		UserID:       1,
		LastActivity: sessions[len(sessions)-1].StartedAt,
		Analytics: &model.ProgressAnalytics{
			AverageScore:     94.5,
			ConsistencyScore: 0.95,
			ImprovementRate:  0.6,
		},
	}
	return progress, sessions
}

func newTestAnalyzer() *ReadinessAnalyzer {
	a := NewReadinessAnalyzer(DefaultReadinessConfig())
	a.now = fixedNow
	return a
}

func TestCalculateReadinessRequiresAnalytics(t *testing.T) {
	a := newTestAnalyzer()

	_, err := a.CalculateReadiness(nil, nil, "B2")
	assert.ErrorIs(t, err, util.ErrMissingAnalytics)

	_, err = a.CalculateReadiness(&model.UserProgress{}, nil, "B2")
	assert.ErrorIs(t, err, util.ErrMissingAnalytics)
}

func TestCalculateReadinessStrongLearner(t *testing.T) {
	a := newTestAnalyzer()
	progress, sessions := strongHistory()

	assessment, err := a.CalculateReadiness(progress, sessions, "B2")
	require.NoError(t, err)

	assert.Equal(t, model.ReadinessExcellent, assessment.Level)
	assert.GreaterOrEqual(t, assessment.OverallScore, 0.85)
	assert.InDelta(t, 0.874, assessment.OverallScore, 0.01)

	// 16 次近期会话覆盖全部技能，置信度应该很高
	assert.Greater(t, assessment.Confidence, 0.9)
	assert.Equal(t, 16, assessment.DataQuality.SessionCount)
	assert.InDelta(t, 1.0, assessment.DataQuality.ComponentCoverage, 1e-9)
	assert.InDelta(t, 1.0, assessment.DataQuality.ConsistencyScore, 1e-9)

	// 严格 2.5 天节奏和恒定时长拿满对应因子
	assert.InDelta(t, 1.0, assessment.Factors.SessionFrequency, 1e-9)
	assert.InDelta(t, 1.0, assessment.Factors.TimeManagement, 1e-9)

	for _, m := range assessment.Milestones {
		assert.True(t, m.Achieved, m.Name)
	}

	for _, c := range model.AllComponents() {
		cr := assessment.Components[c]
		require.NotNil(t, cr)
		assert.Equal(t, "improving", cr.Trend)
		assert.Equal(t, 4, cr.SessionsCompleted)
	}

	assert.Greater(t, assessment.EstimatedExamScore, 0.0)
	assert.LessOrEqual(t, assessment.EstimatedExamScore, 100.0)
}

func TestCalculateReadinessStrugglingLearner(t *testing.T) {
	a := newTestAnalyzer()

	base := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	sessions := []model.ExamSession{
		completedAt(model.Reading, base, 40, 3600),
		completedAt(model.Reading, base.AddDate(0, 0, 10), 35, 3600),
		completedAt(model.Reading, base.AddDate(0, 0, 20), 30, 3600),
	}
	progress := &model.UserProgress{
		UserID:       2,
		LastActivity: sessions[2].StartedAt,
		Analytics: &model.ProgressAnalytics{
			AverageScore:     35,
			ConsistencyScore: 0.4,
		},
	}

	assessment, err := a.CalculateReadiness(progress, sessions, "B2")
	require.NoError(t, err)

	assert.Equal(t, model.ReadinessPoor, assessment.Level)
	assert.Less(t, assessment.OverallScore, 0.55)
	// 单一技能、久未活跃，置信度必须偏低
	assert.Less(t, assessment.Confidence, 0.3)
	assert.InDelta(t, 0.25, assessment.DataQuality.ComponentCoverage, 1e-9)
	assert.Less(t, assessment.EstimatedExamScore, 40.0)

	// 低分技能和过长间隔都应触发建议
	assert.NotEmpty(t, assessment.Recommendations)
}

func TestCalculateReadinessColdStart(t *testing.T) {
	a := newTestAnalyzer()
	progress := &model.UserProgress{UserID: 3, Analytics: &model.ProgressAnalytics{}}

	assessment, err := a.CalculateReadiness(progress, nil, "B2")
	require.NoError(t, err)

	assert.Equal(t, model.ReadinessPoor, assessment.Level)
	assert.LessOrEqual(t, assessment.Confidence, 0.1)
	assert.LessOrEqual(t, assessment.OverallScore, 0.3)

	// 样本不足的因子一律回到中性 0.5
	assert.Equal(t, 0.5, assessment.Factors.Improvement)
	assert.Equal(t, 0.5, assessment.Factors.SessionFrequency)
	assert.Equal(t, 0.5, assessment.Factors.WeaknessRecovery)
	assert.Equal(t, 0.5, assessment.Factors.TimeManagement)
}

func TestCalculateReadinessMonotonicInAverageScore(t *testing.T) {
	a := newTestAnalyzer()
	_, sessions := strongHistory()

	low := &model.UserProgress{
		LastActivity: sessions[len(sessions)-1].StartedAt,
		Analytics:    &model.ProgressAnalytics{AverageScore: 50, ConsistencyScore: 0.8},
	}
	high := &model.UserProgress{
		LastActivity: sessions[len(sessions)-1].StartedAt,
		Analytics:    &model.ProgressAnalytics{AverageScore: 80, ConsistencyScore: 0.8},
	}

	lowResult, err := a.CalculateReadiness(low, sessions, "B2")
	require.NoError(t, err)
	highResult, err := a.CalculateReadiness(high, sessions, "B2")
	require.NoError(t, err)

	assert.Greater(t, highResult.OverallScore, lowResult.OverallScore)
}

func TestCalculateReadinessDeterministic(t *testing.T) {
	a := newTestAnalyzer()
	progress, sessions := strongHistory()

	first, err := a.CalculateReadiness(progress, sessions, "B2")
	require.NoError(t, err)

	// 四项技能的恢复权重各不相同，重复评估必须逐位相等
	for i := 0; i < 20; i++ {
		again, err := a.CalculateReadiness(progress, sessions, "B2")
		require.NoError(t, err)
		require.Equal(t, first, again, "run %d", i)
		require.Equal(t, first.EstimatedExamScore, again.EstimatedExamScore, "run %d", i)
	}
}

func TestCalculateReadinessBounds(t *testing.T) {
	a := newTestAnalyzer()
	progress, sessions := strongHistory()

	assessment, err := a.CalculateReadiness(progress, sessions, "C2")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, assessment.OverallScore, 0.0)
	assert.LessOrEqual(t, assessment.OverallScore, 1.0)
	assert.GreaterOrEqual(t, assessment.Confidence, 0.0)
	assert.LessOrEqual(t, assessment.Confidence, 1.0)
	assert.GreaterOrEqual(t, assessment.RecommendedWeeklyHours, 2.0)
	assert.LessOrEqual(t, assessment.RecommendedWeeklyHours, 30.0)

	for _, c := range model.AllComponents() {
		cr := assessment.Components[c]
		require.NotNil(t, cr)
		assert.GreaterOrEqual(t, cr.Score, 0.0)
		assert.LessOrEqual(t, cr.Score, 1.0)
	}
}

func TestUpdateConfigTakesEffect(t *testing.T) {
	a := newTestAnalyzer()
	progress, sessions := strongHistory()

	before, err := a.CalculateReadiness(progress, sessions, "B2")
	require.NoError(t, err)
	require.Equal(t, model.ReadinessExcellent, before.Level)

	cfg := a.Config()
	cfg.Thresholds.Excellent = 0.99
	a.UpdateConfig(cfg)

	after, err := a.CalculateReadiness(progress, sessions, "B2")
	require.NoError(t, err)
	assert.Equal(t, model.ReadinessGood, after.Level)
}
