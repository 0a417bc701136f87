package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dailyfocus/internal/config"
	"github.com/dailyfocus/internal/locale"
	"github.com/dailyfocus/internal/progress"
	"github.com/dailyfocus/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": locale.Message(requestLanguage(c), message)})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// respondServiceError 将领域错误映射为 HTTP 状态码。
// 校验失败返回 400 并带上具体原因；记录缺失返回 404；级联中途失败返回 500 并附带已完成的计数。
func respondServiceError(c *gin.Context, err error, fallback string) {
	var partial *service.PartialDeleteError

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrGoalNotFound):
		respondError(c, http.StatusNotFound, "目标不存在")
	case errors.Is(err, service.ErrHabitNotFound):
		respondError(c, http.StatusNotFound, "习惯不存在")
	case errors.Is(err, service.ErrTaskNotFound):
		respondError(c, http.StatusNotFound, "任务不存在")
	case errors.Is(err, service.ErrSubtaskNotFound):
		respondError(c, http.StatusNotFound, "子任务不存在")
	case errors.Is(err, service.ErrPriorityNotFound):
		respondError(c, http.StatusNotFound, "周重点不存在")
	case errors.Is(err, service.ErrNotificationNotFound):
		respondError(c, http.StatusNotFound, "提醒不存在")
	case errors.As(err, &partial):
		logRequestError(c, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   locale.Message(requestLanguage(c), fallback),
			"stage":   partial.Stage,
			"partial": true,
		})
	default:
		logRequestError(c, err)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}

// respondPartial 在级联失败时附带已提交批次的统计
func respondPartial(c *gin.Context, err error, fallback string, counts gin.H) {
	var partial *service.PartialDeleteError
	if !errors.As(err, &partial) {
		respondServiceError(c, err, fallback)
		return
	}

	logRequestError(c, err)
	payload := gin.H{"error": locale.Message(requestLanguage(c), fallback), "stage": partial.Stage, "partial": true}
	for key, value := range counts {
		payload[key] = value
	}
	c.JSON(http.StatusInternalServerError, payload)
}

func logRequestError(c *gin.Context, err error) {
	c.Error(err)
	config.Logger.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
		"user":   c.GetUint(userIDContextKey),
	}).WithError(err).Error("request failed")
}

// queryDate 读取 YYYY-MM-DD 查询参数，缺省时返回 fallback
func queryDate(c *gin.Context, key string, fallback time.Time) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, true
	}
	day, err := progress.ParseDate(raw)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

func optionalString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
