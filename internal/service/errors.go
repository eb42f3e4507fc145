// Package service 包含了应用的业务逻辑层。
package service

import "errors"

// 业务层的哨兵错误。处理器用 errors.Is 将它们映射到 HTTP 状态码：
// ErrSessionNotFound 对应 404，其余前置条件错误对应 400。
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoSubject       = errors.New("session has no selected subject")
	ErrNoActiveQuiz    = errors.New("no active quiz found")
	ErrQuizFinished    = errors.New("quiz already finished")
)
