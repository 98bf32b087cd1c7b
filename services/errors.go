package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrForbidden 操作者不是目标实体（或批量中的某一个）的所有者
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound 实体不存在或已被软删除
	ErrNotFound = errors.New("not found")
)

// ValidationError 字段级校验失败，在任何查询或写入之前返回
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// invalid 构造单字段校验错误
func invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// NewValidationError 供请求绑定层把字段错误转换为统一格式
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// validationErrors 累积多个字段错误
type validationErrors map[string]string

func (v validationErrors) add(field, message string) {
	if _, ok := v[field]; !ok {
		v[field] = message
	}
}

func (v validationErrors) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Fields: map[string]string(v)}
}

// IsValidation 判断是否为校验错误
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
