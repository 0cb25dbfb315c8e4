package controller

import (
	"ielts_prep_backend/internal/service"
	"ielts_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService}
}

// GetReadiness godoc
// @Summary 备考程度评估
// @Description 根据会话历史计算当前备考程度、预估考分和建议学时
// @Tags 学习分析
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response{data=model.ReadinessAssessment}
// @Failure 401 {object} util.Response "Unauthorized"
// @Router /api/analytics/readiness [get]
func (c *AnalyticsController) GetReadiness(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	assessment, err := c.AnalyticsService.GetReadiness(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, assessment)
}

// GetWeaknesses godoc
// @Summary 薄弱点分析
// @Description 六类检测器的结果，按严重程度分桶并附改进计划
// @Tags 学习分析
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response{data=model.WeaknessAnalysis}
// @Failure 401 {object} util.Response "Unauthorized"
// @Router /api/analytics/weaknesses [get]
func (c *AnalyticsController) GetWeaknesses(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	analysis, err := c.AnalyticsService.GetWeaknesses(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, analysis)
}

// GetRecommendations godoc
// @Summary 个性化学习建议
// @Description 综合评估和薄弱点生成的建议、学习计划、排期和进度预测
// @Tags 学习分析
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response{data=model.StudyRecommendations}
// @Failure 401 {object} util.Response "Unauthorized"
// @Router /api/analytics/recommendations [get]
func (c *AnalyticsController) GetRecommendations(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	recommendations, err := c.AnalyticsService.GetRecommendations(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, recommendations)
}
