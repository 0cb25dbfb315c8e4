package controller

import (
	"ielts_prep_backend/internal/model"
	"ielts_prep_backend/internal/service"
	"ielts_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StudyResourceController struct {
	ResourceService *service.StudyResourceService
}

func NewStudyResourceController(resourceService *service.StudyResourceService) *StudyResourceController {
	return &StudyResourceController{ResourceService: resourceService}
}

// List godoc
// @Summary 学习资源列表
// @Tags 学习资源
// @Security BearerAuth
// @Produce json
// @Param component query string false "技能维度"
// @Param level query string false "难度等级"
// @Param page query int false "页码" default(1)
// @Param pageSize query int false "每页数量" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/resources [get]
func (c *StudyResourceController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page := int(util.MustParseUint(ctx.DefaultQuery("page", "1")))
	pageSize := int(util.MustParseUint(ctx.DefaultQuery("pageSize", "10")))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	resources, total, err := c.ResourceService.List(
		model.Component(ctx.Query("component")),
		ctx.Query("level"),
		page, pageSize,
	)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  resources,
		Total: total,
		Page:  page,
		Limit: pageSize,
	})
}

// Get godoc
// @Summary 获取资源详情
// @Tags 学习资源
// @Security BearerAuth
// @Produce json
// @Param id path int true "资源ID"
// @Success 200 {object} util.Response{data=model.StudyResource}
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/resources/{id} [get]
func (c *StudyResourceController) Get(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	resource, err := c.ResourceService.Get(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, resource)
}

// Create godoc
// @Summary 创建学习资源（教师）
// @Tags 学习资源
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body model.StudyResource true "资源内容"
// @Success 201 {object} util.Response{data=model.StudyResource}
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/teacher/resources [post]
func (c *StudyResourceController) Create(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var resource model.StudyResource
	if err := ctx.ShouldBindJSON(&resource); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resource.CreatorID = user.UserID
	if err := c.ResourceService.Create(&resource); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, resource)
}

// UploadAudio godoc
// @Summary 上传音频资源（教师）
// @Description 校验音频格式并探测时长后入库
// @Tags 学习资源
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "音频文件"
// @Param title formData string true "资源标题"
// @Param component formData string true "技能维度"
// @Param level formData string false "难度等级"
// @Success 201 {object} util.Response{data=model.StudyResource}
// @Failure 400 {object} util.Response "文件不合法"
// @Router /api/teacher/resources/audio [post]
func (c *StudyResourceController) UploadAudio(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "missing audio file")
		return
	}

	resource := &model.StudyResource{
		Title:     ctx.PostForm("title"),
		Component: model.Component(ctx.PostForm("component")),
		Level:     ctx.DefaultPostForm("level", "intermediate"),
		Type:      "audio",
		CreatorID: user.UserID,
	}
	if resource.Title == "" {
		util.BadRequest(ctx, "title is required")
		return
	}

	if err := c.ResourceService.UploadAudio(ctx.Request.Context(), resource, file); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	util.Created(ctx, resource)
}

// Delete godoc
// @Summary 删除学习资源（教师）
// @Tags 学习资源
// @Security BearerAuth
// @Produce json
// @Param id path int true "资源ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/resources/{id} [delete]
func (c *StudyResourceController) Delete(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.ResourceService.Delete(util.MustParseUint(ctx.Param("id"))); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}
