package util

import (
	"errors"
	"net/http"

	"ielts_prep_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}

// FromError 业务层哨兵错误到 HTTP 状态码的统一映射，
// 未识别的错误记日志后按 500 返回
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrProgressNotFound),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrResourceNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmailRegistered),
		errors.Is(err, ErrSessionCompleted):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidComponent),
		errors.Is(err, ErrInvalidScore),
		errors.Is(err, ErrMissingAnalytics):
		Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPermissionDenied):
		Error(c, http.StatusForbidden, err.Error())
	default:
		LogInternalError(c, err)
	}
}
