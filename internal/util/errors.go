package util

import "errors"

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrEmailRegistered  = errors.New("该邮箱已被注册")
	ErrPermissionDenied = errors.New("permission denied")
	ErrMissingAnalytics = errors.New("progress analytics is required")
	ErrProgressNotFound = errors.New("progress record not found")
	ErrSessionNotFound  = errors.New("exam session not found")
	ErrSessionCompleted = errors.New("exam session already completed")
	ErrResourceNotFound = errors.New("study resource not found")
	ErrInvalidComponent = errors.New("invalid exam component")
	ErrInvalidScore     = errors.New("score must be between 0 and 100")
)
