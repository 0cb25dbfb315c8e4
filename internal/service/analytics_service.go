package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"ielts_prep_backend/internal/config"
	"ielts_prep_backend/internal/engine"
	"ielts_prep_backend/internal/model"
	"ielts_prep_backend/internal/repository"
	"ielts_prep_backend/pkg/logger"
	"ielts_prep_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// AnalyticsService 把三个分析组件接到存储和缓存上。
// 引擎本身无状态，这里负责取数、并发编排、缓存和指标上报。
type AnalyticsService struct {
	ProgressRepo   *repository.ProgressRepository
	SessionRepo    *repository.ExamSessionRepository
	PreferenceRepo *repository.PreferenceRepository
	ResourceRepo   *repository.StudyResourceRepository
	UserRepo       *repository.UserRepository

	Readiness   *engine.ReadinessAnalyzer
	Weakness    *engine.WeaknessDetector
	Synthesizer *engine.RecommendationSynthesizer

	Redis    *redis.Client
	CacheTTL time.Duration
}

func NewAnalyticsService(
	progressRepo *repository.ProgressRepository,
	sessionRepo *repository.ExamSessionRepository,
	preferenceRepo *repository.PreferenceRepository,
	resourceRepo *repository.StudyResourceRepository,
	userRepo *repository.UserRepository,
	rdb *redis.Client,
) *AnalyticsService {
	return &AnalyticsService{
		ProgressRepo:   progressRepo,
		SessionRepo:    sessionRepo,
		PreferenceRepo: preferenceRepo,
		ResourceRepo:   resourceRepo,
		UserRepo:       userRepo,
		Readiness:      engine.NewReadinessAnalyzer(engine.DefaultReadinessConfig()),
		Weakness:       engine.NewWeaknessDetector(engine.DefaultWeaknessConfig()),
		Synthesizer:    engine.NewRecommendationSynthesizer(engine.DefaultRecommendationConfig()),
		Redis:          rdb,
		CacheTTL:       15 * time.Minute,
	}
}

// ApplyConfig 配置热更新回调：只覆盖配置文件里给出的引擎段
func (s *AnalyticsService) ApplyConfig(cfg *config.Config) {
	if cfg.Engine.Readiness != nil {
		s.Readiness.UpdateConfig(*cfg.Engine.Readiness)
	}
	if cfg.Engine.Weakness != nil {
		s.Weakness.UpdateConfig(*cfg.Engine.Weakness)
	}
	if cfg.Engine.Recommendation != nil {
		s.Synthesizer.UpdateConfig(*cfg.Engine.Recommendation)
	}
	logger.Log.Info("analytics engine config applied")
}

func readinessKey(userID uint) string {
	return fmt.Sprintf("analytics:readiness:%d", userID)
}

func weaknessKey(userID uint) string {
	return fmt.Sprintf("analytics:weakness:%d", userID)
}

func recommendationKey(userID uint) string {
	return fmt.Sprintf("analytics:recommendations:%d", userID)
}

// InvalidateUser 会话完成后清掉该用户的全部分析缓存
func (s *AnalyticsService) InvalidateUser(ctx context.Context, userID uint) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, readinessKey(userID), weaknessKey(userID), recommendationKey(userID)).Err(); err != nil {
		logger.Log.Warn("failed to invalidate analytics cache", zap.Uint("userId", userID), zap.Error(err))
	}
}

func (s *AnalyticsService) loadInputs(userID uint) (*model.UserProgress, []model.ExamSession, error) {
	progress, err := s.ProgressRepo.FindOrCreate(userID)
	if err != nil {
		return nil, nil, err
	}
	sessions, err := s.SessionRepo.FindByUser(userID)
	if err != nil {
		return nil, nil, err
	}
	return progress, sessions, nil
}

func (s *AnalyticsService) targetLevel(userID uint) string {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil || user.TargetLevel == "" {
		return "B2"
	}
	return user.TargetLevel
}

// GetReadiness 备考程度评估，带缓存
func (s *AnalyticsService) GetReadiness(ctx context.Context, userID uint) (*model.ReadinessAssessment, error) {
	var cached model.ReadinessAssessment
	if s.cacheGet(ctx, readinessKey(userID), &cached) {
		return &cached, nil
	}

	progress, sessions, err := s.loadInputs(userID)
	if err != nil {
		return nil, err
	}

	assessment, err := s.computeReadiness(ctx, progress, sessions, s.targetLevel(userID))
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, readinessKey(userID), assessment, s.CacheTTL)
	return assessment, nil
}

func (s *AnalyticsService) computeReadiness(ctx context.Context, progress *model.UserProgress, sessions []model.ExamSession, targetLevel string) (*model.ReadinessAssessment, error) {
	_, span := otel.Tracer("analytics").Start(ctx, "engine.CalculateReadiness")
	defer span.End()

	start := time.Now()
	assessment, err := s.Readiness.CalculateReadiness(progress, sessions, targetLevel)
	monitoring.EngineDuration.WithLabelValues("readiness").Observe(time.Since(start).Seconds())
	return assessment, err
}

// GetWeaknesses 薄弱点分析，带缓存
func (s *AnalyticsService) GetWeaknesses(ctx context.Context, userID uint) (*model.WeaknessAnalysis, error) {
	var cached model.WeaknessAnalysis
	if s.cacheGet(ctx, weaknessKey(userID), &cached) {
		return &cached, nil
	}

	progress, sessions, err := s.loadInputs(userID)
	if err != nil {
		return nil, err
	}

	analysis, err := s.computeWeaknesses(ctx, progress, sessions)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, weaknessKey(userID), analysis, s.CacheTTL)
	return analysis, nil
}

func (s *AnalyticsService) computeWeaknesses(ctx context.Context, progress *model.UserProgress, sessions []model.ExamSession) (*model.WeaknessAnalysis, error) {
	_, span := otel.Tracer("analytics").Start(ctx, "engine.AnalyzeWeaknesses")
	defer span.End()

	start := time.Now()
	analysis, err := s.Weakness.AnalyzeWeaknesses(progress, sessions)
	monitoring.EngineDuration.WithLabelValues("weakness").Observe(time.Since(start).Seconds())
	return analysis, err
}

// GetRecommendations 推荐合成：两个上游分析并行跑，结果喂给合成器
func (s *AnalyticsService) GetRecommendations(ctx context.Context, userID uint) (*model.StudyRecommendations, error) {
	var cached model.StudyRecommendations
	if s.cacheGet(ctx, recommendationKey(userID), &cached) {
		return &cached, nil
	}

	progress, sessions, err := s.loadInputs(userID)
	if err != nil {
		return nil, err
	}

	var (
		wg           sync.WaitGroup
		readiness    *model.ReadinessAssessment
		readinessErr error
		weaknesses   *model.WeaknessAnalysis
		weaknessErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		readiness, readinessErr = s.computeReadiness(ctx, progress, sessions, s.targetLevel(userID))
	}()
	go func() {
		defer wg.Done()
		weaknesses, weaknessErr = s.computeWeaknesses(ctx, progress, sessions)
	}()
	wg.Wait()

	if readinessErr != nil {
		return nil, readinessErr
	}
	if weaknessErr != nil {
		return nil, weaknessErr
	}

	preference, err := s.PreferenceRepo.FindByUser(userID)
	if err != nil {
		return nil, err
	}
	resources, err := s.ResourceRepo.FindByComponents(nil)
	if err != nil {
		return nil, err
	}

	_, span := otel.Tracer("analytics").Start(ctx, "engine.Synthesize")
	start := time.Now()
	recommendations, err := s.Synthesizer.Synthesize(&engine.SynthesisInput{
		Progress:   progress,
		Sessions:   sessions,
		Readiness:  readiness,
		Weaknesses: weaknesses,
		Preference: preference,
		Resources:  resources,
	})
	monitoring.EngineDuration.WithLabelValues("recommendation").Observe(time.Since(start).Seconds())
	span.End()
	if err != nil {
		return nil, err
	}

	// 缓存不能活过建议本身的有效期
	ttl := s.CacheTTL
	if all := recommendations.All(); len(all) > 0 {
		until := time.Until(all[0].ValidUntil)
		if until > 0 && until < ttl {
			ttl = until
		}
	}
	s.cacheSet(ctx, recommendationKey(userID), recommendations, ttl)
	return recommendations, nil
}

func (s *AnalyticsService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.Redis == nil {
		return false
	}
	data, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		logger.Log.Warn("corrupt analytics cache entry", zap.String("key", key), zap.Error(err))
		s.Redis.Del(ctx, key)
		return false
	}
	return true
}

func (s *AnalyticsService) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.Redis == nil || ttl <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.Log.Warn("failed to cache analytics result", zap.String("key", key), zap.Error(err))
	}
}
