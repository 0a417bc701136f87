package service

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dailyfocus/internal/progress"
	"gorm.io/gorm"
)

var (
	// ErrInvalidInput 表示请求参数未通过校验，写入前即被拒绝
	ErrInvalidInput = errors.New("invalid input")
	// ErrGoalNotFound 在指定目标不存在时返回
	ErrGoalNotFound = errors.New("goal not found")
	// ErrHabitNotFound 在指定习惯不存在时返回
	ErrHabitNotFound = errors.New("habit not found")
	// ErrTaskNotFound 在指定任务不存在时返回
	ErrTaskNotFound = errors.New("task not found")
	// ErrSubtaskNotFound 在指定子任务不存在时返回
	ErrSubtaskNotFound = errors.New("subtask not found")
	// ErrPriorityNotFound 在指定周重点不存在时返回
	ErrPriorityNotFound = errors.New("weekly priority not found")
	// ErrNotificationNotFound 在提醒事件不存在时返回
	ErrNotificationNotFound = errors.New("notification not found")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// scoped 限定查询在指定用户的数据范围内
func scoped(tx *gorm.DB, userID uint) *gorm.DB {
	return tx.Where("user_id = ?", userID)
}

// notFound 将 gorm 的记录缺失错误转换为领域错误
func notFound(err, sentinel error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", op, err)
}

func normalizeDate(value, field string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", invalidf("%s is required", field)
	}
	t, err := progress.ParseDate(value)
	if err != nil {
		return "", invalidf("%s must be YYYY-MM-DD", field)
	}
	return progress.FormatDate(t), nil
}

func normalizeOptionalDate(value *string, field string) (*string, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	normalized, err := normalizeDate(*value, field)
	if err != nil {
		return nil, err
	}
	return &normalized, nil
}

func validNumber(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func dayRange(start, end time.Time) (string, string) {
	return progress.FormatDate(start), progress.FormatDate(end)
}
