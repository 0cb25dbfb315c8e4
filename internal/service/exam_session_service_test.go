package service

import (
	"testing"
	"time"

	"ielts_prep_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doneSession(c model.Component, start time.Time, score float64, durationSec int, questions ...model.QuestionResult) model.ExamSession {
	end := start.Add(time.Duration(durationSec) * time.Second)
	return model.ExamSession{
		Component:   c,
		Mode:        "practice",
		StartedAt:   start,
		CompletedAt: &end,
		Duration:    durationSec,
		Score:       &score,
		Questions:   questions,
	}
}

func TestBuildProgressAnalyticsEmpty(t *testing.T) {
	analytics := BuildProgressAnalytics(nil)
	require.NotNil(t, analytics)
	assert.Zero(t, analytics.AverageScore)
	assert.Empty(t, analytics.ComponentBreakdown)

	// 未完成的会话不参与聚合
	open := model.ExamSession{Component: model.Reading, StartedAt: time.Now()}
	analytics = BuildProgressAnalytics([]model.ExamSession{open})
	assert.Zero(t, analytics.AverageScore)
	assert.Empty(t, analytics.ComponentBreakdown)
}

func TestBuildProgressAnalytics(t *testing.T) {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	sessions := []model.ExamSession{
		doneSession(model.Writing, base, 50, 1800),
		doneSession(model.Writing, base.AddDate(0, 0, 2), 50, 1800),
		doneSession(model.Reading, base.AddDate(0, 0, 4), 60, 1800,
			model.QuestionResult{QuestionType: "multiple_choice", Score: 70},
			model.QuestionResult{QuestionType: "gap_fill", Score: 50},
		),
		doneSession(model.Reading, base.AddDate(0, 0, 6), 70, 1800,
			model.QuestionResult{QuestionType: "multiple_choice", Score: 70},
			model.QuestionResult{QuestionType: "gap_fill", Score: 50},
		),
		doneSession(model.Reading, base.AddDate(0, 0, 8), 80, 1800),
		doneSession(model.Reading, base.AddDate(0, 0, 10), 90, 1800),
	}

	analytics := BuildProgressAnalytics(sessions)
	require.NotNil(t, analytics)

	assert.InDelta(t, 400.0/6, analytics.AverageScore, 1e-9)
	assert.Greater(t, analytics.ConsistencyScore, 0.0)
	assert.LessOrEqual(t, analytics.ConsistencyScore, 1.0)
	assert.Greater(t, analytics.ImprovementRate, 0.0)

	// 首尾分差 40 分折算 0.4 readiness 点，累计 3 学时
	assert.InDelta(t, 0.4/3, analytics.LearningVelocity, 1e-9)

	reading := analytics.ComponentBreakdown[model.Reading]
	require.NotNil(t, reading)
	assert.InDelta(t, 75, reading.AverageScore, 1e-9)
	assert.Equal(t, 4, reading.SessionsCompleted)
	assert.Equal(t, 4*1800, reading.TimeSpent)
	assert.Equal(t, "improving", reading.Trend)
	assert.InDelta(t, 70, reading.SkillBreakdown["multiple_choice"], 1e-9)
	assert.InDelta(t, 50, reading.SkillBreakdown["gap_fill"], 1e-9)

	writing := analytics.ComponentBreakdown[model.Writing]
	require.NotNil(t, writing)
	assert.InDelta(t, 50, writing.AverageScore, 1e-9)
	assert.Equal(t, 2, writing.SessionsCompleted)
	// 两次会话不足以判定趋势
	assert.Equal(t, "stable", writing.Trend)

	assert.Nil(t, analytics.ComponentBreakdown[model.Speaking])
}

func TestBuildProgressAnalyticsNoVelocityWhenDeclining(t *testing.T) {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	sessions := []model.ExamSession{
		doneSession(model.Listening, base, 80, 1800),
		doneSession(model.Listening, base.AddDate(0, 0, 2), 60, 1800),
	}

	analytics := BuildProgressAnalytics(sessions)
	assert.Zero(t, analytics.LearningVelocity)
}

func TestCompletionRatio(t *testing.T) {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	var sessions []model.ExamSession
	for i := 0; i < 5; i++ {
		sessions = append(sessions, doneSession(model.Reading, base.AddDate(0, 0, i), 70, 1800))
		sessions = append(sessions, doneSession(model.Writing, base.AddDate(0, 0, i), 70, 1800))
	}
	// 未完成的会话不计入
	sessions = append(sessions, model.ExamSession{Component: model.Listening, StartedAt: base})

	assert.InDelta(t, 0.5, completionRatio(sessions), 1e-9)

	// 超过每项技能的目标量不再加分
	for i := 0; i < 5; i++ {
		sessions = append(sessions, doneSession(model.Reading, base.AddDate(0, 0, 10+i), 70, 1800))
	}
	assert.InDelta(t, 0.5, completionRatio(sessions), 1e-9)

	assert.Zero(t, completionRatio(nil))
}
