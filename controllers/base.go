package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"TaskPilotGo/config"
	"TaskPilotGo/middleware"
	"TaskPilotGo/models"
	"TaskPilotGo/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// 校验错误的字段名使用 json/form 标签
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("integer", isInteger)
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
	}
}

// isInteger 查询参数中的整数（允许负数，范围由服务层校验）
func isInteger(fl validator.FieldLevel) bool {
	_, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
	return err == nil
}

// currentActor 从上下文取出操作者；未认证时直接返回 401
func currentActor(c *gin.Context) (services.Actor, bool) {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "用户未认证"})
		return services.Actor{}, false
	}
	return services.Actor{
		UserID:    uid,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}, true
}

// pathID 解析路径中的数字 ID，非法时按不存在处理
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return 0, false
	}
	return uint(id), true
}

// bindError 把 gin 绑定错误转换为字段级校验错误
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			key := fieldKey(fe.Field())
			if _, exists := fields[key]; !exists {
				fields[key] = fieldMessage(fe)
			}
		}
		return services.NewValidationError(fields)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return services.NewValidationError(map[string]string{fieldKey(typeErr.Field): "is invalid"})
	}

	var paramErr *models.ParamError
	if errors.As(err, &paramErr) {
		return services.NewValidationError(map[string]string{paramErr.Field: paramErr.Message})
	}
	return services.NewValidationError(map[string]string{"request": "is invalid"})
}

// fieldKey labels[0] -> labels.0
func fieldKey(field string) string {
	field = strings.ReplaceAll(field, "[", ".")
	return strings.ReplaceAll(field, "]", "")
}

func fieldMessage(fe validator.FieldError) string {
	isList := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if isList {
			return fmt.Sprintf("may not have more than %s items", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("may not be greater than %s characters", fe.Param())
		}
		return fmt.Sprintf("may not be greater than %s", fe.Param())
	case "min":
		if isList {
			return fmt.Sprintf("must have at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "datetime":
		return "is not a valid date"
	case "integer":
		return "must be an integer"
	default:
		return "is invalid"
	}
}

// respondError 把服务层错误映射为 HTTP 状态码
func respondError(c *gin.Context, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "errors": ve.Fields})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		_ = c.Error(err)
		config.Logger.Errorw("请求处理失败",
			"error", err,
			"method", c.Request.Method,
			"path", c.FullPath(),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
	}
}

// flasher 写入一次性提示；写入失败只记日志，不影响响应
type flasher struct {
	store services.FlashStore
}

func (f flasher) put(c *gin.Context, uid uint, kind, message string) *models.Flash {
	flash := models.Flash{Type: kind, Message: message}
	if err := f.store.Put(c.Request.Context(), uid, flash); err != nil {
		config.Logger.Warnw("写入提示消息失败", "error", err, "uid", uid)
	}
	return &flash
}

func (f flasher) success(c *gin.Context, uid uint, message string) *models.Flash {
	return f.put(c, uid, services.FlashSuccess, message)
}

// fail 记录失败提示后输出错误响应
func (f flasher) fail(c *gin.Context, uid uint, err error) {
	message := "操作失败"
	switch {
	case services.IsValidation(err):
		message = "输入内容有误"
	case errors.Is(err, services.ErrForbidden):
		message = "没有操作权限"
	case errors.Is(err, services.ErrNotFound):
		message = "目标不存在"
	}
	f.put(c, uid, services.FlashError, message)
	respondError(c, err)
}

func (f flasher) pop(c *gin.Context, uid uint) *models.Flash {
	flash, err := f.store.Pop(c.Request.Context(), uid)
	if err != nil {
		config.Logger.Warnw("读取提示消息失败", "error", err, "uid", uid)
		return nil
	}
	return flash
}
