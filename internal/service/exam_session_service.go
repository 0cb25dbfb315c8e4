package service

import (
	"context"
	"errors"
	"time"

	"ielts_prep_backend/internal/model"
	"ielts_prep_backend/internal/repository"
	"ielts_prep_backend/internal/util"

	"gorm.io/gorm"
)

type ExamSessionService struct {
	SessionRepo  *repository.ExamSessionRepository
	ProgressRepo *repository.ProgressRepository
	Analytics    *AnalyticsService
}

func NewExamSessionService(sessionRepo *repository.ExamSessionRepository, progressRepo *repository.ProgressRepository, analytics *AnalyticsService) *ExamSessionService {
	return &ExamSessionService{
		SessionRepo:  sessionRepo,
		ProgressRepo: progressRepo,
		Analytics:    analytics,
	}
}

func (s *ExamSessionService) Start(userID uint, component model.Component, mode string) (*model.ExamSession, error) {
	valid := false
	for _, c := range model.AllComponents() {
		if c == component {
			valid = true
			break
		}
	}
	if !valid {
		return nil, util.ErrInvalidComponent
	}

	if mode == "" {
		mode = "practice"
	}
	session := &model.ExamSession{
		UserID:    userID,
		Component: component,
		Mode:      mode,
		StartedAt: time.Now(),
	}
	if err := s.SessionRepo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

// Complete 写入成绩并重算进度快照。会话级总分缺省时取单题均分。
func (s *ExamSessionService) Complete(ctx context.Context, sessionID string, userID uint, score *float64, questions []model.QuestionResult) (*model.ExamSession, error) {
	session, err := s.SessionRepo.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, util.ErrSessionNotFound
	}
	if session.Completed() {
		return nil, util.ErrSessionCompleted
	}

	if score == nil {
		if len(questions) == 0 {
			return nil, util.ErrInvalidScore
		}
		var sum float64
		for _, q := range questions {
			sum += q.Score
		}
		avg := sum / float64(len(questions))
		score = &avg
	}
	if *score < 0 || *score > 100 {
		return nil, util.ErrInvalidScore
	}

	now := time.Now()
	session.CompletedAt = &now
	session.Score = score
	session.Duration = int(now.Sub(session.StartedAt).Seconds())

	if err := s.SessionRepo.Complete(session, questions); err != nil {
		return nil, err
	}
	session.Questions = questions

	if err := s.RecomputeProgress(ctx, userID); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ExamSessionService) Get(sessionID string, userID uint) (*model.ExamSession, error) {
	session, err := s.SessionRepo.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, util.ErrSessionNotFound
	}
	return session, nil
}

func (s *ExamSessionService) ListByUser(userID uint) ([]model.ExamSession, error) {
	return s.SessionRepo.FindByUser(userID)
}

// RecomputeProgress 会话完成后重建聚合快照并让分析缓存失效
func (s *ExamSessionService) RecomputeProgress(ctx context.Context, userID uint) error {
	sessions, err := s.SessionRepo.FindByUser(userID)
	if err != nil {
		return err
	}

	progress, err := s.ProgressRepo.FindOrCreate(userID)
	if err != nil {
		return err
	}

	progress.Analytics = BuildProgressAnalytics(sessions)
	progress.LastActivity = time.Now()
	progress.Completion = completionRatio(sessions)

	if err := s.ProgressRepo.Save(progress); err != nil {
		return err
	}

	if s.Analytics != nil {
		s.Analytics.InvalidateUser(ctx, userID)
	}
	return nil
}

// BuildProgressAnalytics 从会话历史重建聚合分析，纯计算
func BuildProgressAnalytics(sessions []model.ExamSession) *model.ProgressAnalytics {
	analytics := &model.ProgressAnalytics{
		ComponentBreakdown: make(map[model.Component]*model.ComponentAnalysis),
	}

	var completed []model.ExamSession
	for _, s := range sessions {
		if s.Completed() {
			completed = append(completed, s)
		}
	}
	if len(completed) == 0 {
		return analytics
	}

	var scores []float64
	var totalSeconds int
	for _, s := range completed {
		scores = append(scores, *s.Score)
		totalSeconds += s.Duration
	}

	analytics.AverageScore = util.Mean(scores)
	analytics.ConsistencyScore = util.Clamp01(1 - util.CoefficientOfVariation(scores))
	analytics.ImprovementRate = util.RegressionSlope(scores)

	// 学习速度：总分差折算成 readiness 点数，除以累计学习小时
	if totalSeconds > 0 && len(scores) >= 2 {
		gained := (scores[len(scores)-1] - scores[0]) / 100
		hours := float64(totalSeconds) / 3600
		if gained > 0 {
			analytics.LearningVelocity = gained / hours
		}
	}

	for _, component := range model.AllComponents() {
		var group []model.ExamSession
		for _, s := range completed {
			if s.Component == component {
				group = append(group, s)
			}
		}
		if len(group) == 0 {
			continue
		}

		var componentScores []float64
		var timeSpent int
		skillTotals := make(map[string]float64)
		skillCounts := make(map[string]int)
		for _, s := range group {
			componentScores = append(componentScores, *s.Score)
			timeSpent += s.Duration
			for _, q := range s.Questions {
				skillTotals[q.QuestionType] += q.Score
				skillCounts[q.QuestionType]++
			}
		}

		skills := make(map[string]float64, len(skillTotals))
		for qt, total := range skillTotals {
			skills[qt] = total / float64(skillCounts[qt])
		}

		trend := "stable"
		if len(componentScores) >= 3 {
			slope := util.RegressionSlope(componentScores)
			if slope > 0.5 {
				trend = "improving"
			} else if slope < -0.5 {
				trend = "declining"
			}
		}

		analytics.ComponentBreakdown[component] = &model.ComponentAnalysis{
			AverageScore:      util.Mean(componentScores),
			SessionsCompleted: len(group),
			TimeSpent:         timeSpent,
			SkillBreakdown:    skills,
			Trend:             trend,
		}
	}

	return analytics
}

// completionRatio 四项技能各需一定量的会话才算备考覆盖完整
func completionRatio(sessions []model.ExamSession) float64 {
	const perComponent = 5
	counts := make(map[model.Component]int)
	for _, s := range sessions {
		if s.Completed() {
			counts[s.Component]++
		}
	}

	var ratio float64
	for _, component := range model.AllComponents() {
		c := counts[component]
		if c > perComponent {
			c = perComponent
		}
		ratio += float64(c) / perComponent
	}
	return ratio / float64(len(model.AllComponents()))
}
