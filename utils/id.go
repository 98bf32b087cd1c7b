package utils

import (
	"github.com/google/uuid"
)

// GenerateID 请求 ID 与令牌 jti 使用
func GenerateID() string {
	return uuid.New().String()
}
