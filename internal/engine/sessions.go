package engine

import (
	"math"
	"sort"
	"time"

	"ielts_prep_backend/internal/model"
	"ielts_prep_backend/internal/util"
)

// 会话预处理：三个组件共用，只统计已完成且有成绩的会话，按开始时间升序。

func completedSessions(sessions []model.ExamSession) []model.ExamSession {
	out := make([]model.ExamSession, 0, len(sessions))
	for _, s := range sessions {
		if s.Completed() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

func sessionScores(sessions []model.ExamSession) []float64 {
	scores := make([]float64, 0, len(sessions))
	for _, s := range sessions {
		if s.Score != nil {
			scores = append(scores, *s.Score)
		}
	}
	return scores
}

func sessionDurations(sessions []model.ExamSession) []float64 {
	durations := make([]float64, 0, len(sessions))
	for _, s := range sessions {
		if s.Duration > 0 {
			durations = append(durations, float64(s.Duration))
		}
	}
	return durations
}

// groupByComponent 保持每组内的时间顺序
func groupByComponent(sessions []model.ExamSession) map[model.Component][]model.ExamSession {
	grouped := make(map[model.Component][]model.ExamSession)
	for _, s := range sessions {
		grouped[s.Component] = append(grouped[s.Component], s)
	}
	return grouped
}

func lastActivityAt(progress *model.UserProgress, completed []model.ExamSession) time.Time {
	last := progress.LastActivity
	if n := len(completed); n > 0 {
		if end := completed[n-1].StartedAt; end.After(last) {
			last = end
		}
	}
	return last
}

func lastN(scores []float64, n int) []float64 {
	if len(scores) <= n {
		return scores
	}
	return scores[len(scores)-n:]
}

// assessDataQuality 会话历史的可信度：数量、时间跨度、技能覆盖、
// 数量占比（min(1, n/minimumSessions)）、14 天线性衰减的新鲜度
func assessDataQuality(now time.Time, minimumSessions int, recencyWindowDays float64, progress *model.UserProgress, completed []model.ExamSession) model.DataQuality {
	quality := model.DataQuality{SessionCount: len(completed)}

	if len(completed) > 0 {
		span := completed[len(completed)-1].StartedAt.Sub(completed[0].StartedAt)
		quality.TimeSpanDays = span.Hours() / 24

		seen := make(map[model.Component]bool)
		for _, s := range completed {
			seen[s.Component] = true
		}
		quality.ComponentCoverage = float64(len(seen)) / float64(len(model.AllComponents()))
	}

	if minimumSessions > 0 {
		quality.ConsistencyScore = math.Min(1, float64(len(completed))/float64(minimumSessions))
	}

	last := lastActivityAt(progress, completed)
	if !last.IsZero() && recencyWindowDays > 0 {
		idleDays := now.Sub(last).Hours() / 24
		quality.RecencyScore = util.Clamp01(1 - idleDays/recencyWindowDays)
	}

	return quality
}
