package util

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ielts_prep_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func responseFor(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	FromError(c, err)
	return w
}

func TestFromErrorStatusMapping(t *testing.T) {
	// 未识别错误会走 LogInternalError，测试里换成空 logger
	logger.Log = zap.NewNop()

	cases := []struct {
		err  error
		code int
	}{
		{ErrUserNotFound, http.StatusNotFound},
		{ErrProgressNotFound, http.StatusNotFound},
		{ErrSessionNotFound, http.StatusNotFound},
		{ErrResourceNotFound, http.StatusNotFound},
		{ErrEmailRegistered, http.StatusConflict},
		{ErrSessionCompleted, http.StatusConflict},
		{ErrInvalidComponent, http.StatusBadRequest},
		{ErrInvalidScore, http.StatusBadRequest},
		{ErrMissingAnalytics, http.StatusBadRequest},
		{ErrPermissionDenied, http.StatusForbidden},
		{errors.New("database gone"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := responseFor(t, tc.err)
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
	}
}

func TestFromErrorWrappedSentinel(t *testing.T) {
	// 包装过的哨兵错误同样能映射到对应状态码
	wrapped := errors.Join(errors.New("complete session"), ErrSessionCompleted)
	w := responseFor(t, wrapped)
	assert.Equal(t, http.StatusConflict, w.Code)
}
