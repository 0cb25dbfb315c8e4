package controller

import (
	"ielts_prep_backend/internal/model"
	"ielts_prep_backend/internal/service"
	"ielts_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamSessionController struct {
	SessionService *service.ExamSessionService
}

func NewExamSessionController(sessionService *service.ExamSessionService) *ExamSessionController {
	return &ExamSessionController{SessionService: sessionService}
}

// swagger:model StartSessionRequest
type StartSessionRequest struct {
	Component string `json:"component" binding:"required,oneof=reading writing listening speaking"`
	Mode      string `json:"mode" binding:"omitempty,oneof=practice mock"`
}

// Start godoc
// @Summary 开始练习会话
// @Tags 练习会话
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body StartSessionRequest true "会话参数"
// @Success 201 {object} util.Response{data=model.ExamSession}
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/sessions [post]
func (c *ExamSessionController) Start(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.SessionService.Start(user.UserID, model.Component(req.Component), req.Mode)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Created(ctx, session)
}

// QuestionResultRequest 单题作答结果
type QuestionResultRequest struct {
	QuestionType string  `json:"questionType" binding:"required"`
	Correct      bool    `json:"correct"`
	Score        float64 `json:"score" binding:"min=0,max=100"`
	TimeSpent    int     `json:"timeSpent" binding:"min=0"`
	ErrorTag     string  `json:"errorTag"`
}

// swagger:model CompleteSessionRequest
type CompleteSessionRequest struct {
	Score     *float64                `json:"score" binding:"omitempty,min=0,max=100"`
	Questions []QuestionResultRequest `json:"questions"`
}

// Complete godoc
// @Summary 完成练习会话
// @Description 写入成绩和单题结果，随后重算进度快照
// @Tags 练习会话
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "会话ID"
// @Param body body CompleteSessionRequest true "成绩数据"
// @Success 200 {object} util.Response{data=model.ExamSession}
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "会话不存在"
// @Failure 409 {object} util.Response "会话已完成"
// @Router /api/sessions/{id}/complete [post]
func (c *ExamSessionController) Complete(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CompleteSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	questions := make([]model.QuestionResult, 0, len(req.Questions))
	for _, q := range req.Questions {
		questions = append(questions, model.QuestionResult{
			QuestionType: q.QuestionType,
			Correct:      q.Correct,
			Score:        q.Score,
			TimeSpent:    q.TimeSpent,
			ErrorTag:     q.ErrorTag,
		})
	}

	session, err := c.SessionService.Complete(ctx.Request.Context(), ctx.Param("id"), user.UserID, req.Score, questions)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, session)
}

// Get godoc
// @Summary 获取会话详情
// @Tags 练习会话
// @Security BearerAuth
// @Produce json
// @Param id path string true "会话ID"
// @Success 200 {object} util.Response{data=model.ExamSession}
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/sessions/{id} [get]
func (c *ExamSessionController) Get(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.SessionService.Get(ctx.Param("id"), user.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, session)
}

// List godoc
// @Summary 获取当前用户的会话历史
// @Tags 练习会话
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response{data=[]model.ExamSession}
// @Router /api/sessions [get]
func (c *ExamSessionController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	sessions, err := c.SessionService.ListByUser(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, sessions)
}
