package controller

import (
	"ielts_prep_backend/internal/model"
	"ielts_prep_backend/internal/service"
	"ielts_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// swagger:model UpdateProfileRequest
type UpdateProfileRequest struct {
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	Language    string `json:"language"`
	TargetLevel string `json:"targetLevel" binding:"omitempty,oneof=A2 B1 B2 C1 C2"`
}

// UpdateProfile godoc
// @Summary 更新个人资料
// @Tags 用户
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body UpdateProfileRequest true "资料字段"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/profile [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	updated, err := c.UserService.UpdateProfile(user.UserID, req.Name, req.Avatar, req.Language, req.TargetLevel)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, updated)
}

// GetPreference godoc
// @Summary 获取学习偏好
// @Tags 用户
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response{data=model.UserPreference}
// @Router /api/preferences [get]
func (c *UserController) GetPreference(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	pref, err := c.UserService.GetPreference(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, pref)
}

// SavePreference godoc
// @Summary 保存学习偏好
// @Tags 用户
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body model.UserPreference true "偏好设置"
// @Success 200 {object} util.Response{data=model.UserPreference}
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/preferences [put]
func (c *UserController) SavePreference(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var pref model.UserPreference
	if err := ctx.ShouldBindJSON(&pref); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	pref.UserID = user.UserID
	if err := c.UserService.SavePreference(&pref); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, pref)
}

// ListUsers godoc
// @Summary 用户列表（教师/管理员）
// @Tags 用户
// @Security BearerAuth
// @Produce json
// @Param page query int false "页码" default(1)
// @Param pageSize query int false "每页数量" default(10)
// @Param search query string false "搜索关键词"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page := util.MustParseUint(ctx.DefaultQuery("page", "1"))
	pageSize := util.MustParseUint(ctx.DefaultQuery("pageSize", "10"))
	search := ctx.Query("search")

	users, total, err := c.UserService.ListUsers(int(page), int(pageSize), search)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  users,
		Total: total,
		Page:  int(page),
		Limit: int(pageSize),
	})
}
