package util

import (
	"testing"
	"time"

	"ielts_prep_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTCarriesTargetLevel(t *testing.T) {
	user := &model.User{
		Name:        "学员A",
		Email:       "a@example.com",
		Role:        model.Student,
		TargetLevel: "C1",
	}
	user.ID = 7

	token, err := GenerateJWT(user, "test-secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, model.Student, claims.Role)
	assert.Equal(t, "a@example.com", claims.Email)
	// 目标等级随令牌下发，分析侧不用回表查
	assert.Equal(t, "C1", claims.TargetLevel)
}

func TestParseJWTRejectsWrongSecret(t *testing.T) {
	user := &model.User{Email: "a@example.com", Role: model.Student}
	token, err := GenerateJWT(user, "test-secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT(token, "other-secret")
	assert.Error(t, err)
}
