package progress

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout 与存储层保持一致的日历日期格式
const DateLayout = "2006-01-02"

// ParseDate 解析 YYYY-MM-DD，结果固定为 UTC 零点，日差计算不受夏令时影响。
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid calendar date %q", value)
	}
	return t, nil
}

// FormatDate 输出 t 所在日历日的 YYYY-MM-DD。
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DayOf 取 t 在自身时区下的日历日，并换算为 UTC 零点。
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween 返回 to - from 的整天数，可为负。
func DaysBetween(from, to time.Time) int {
	return int(DayOf(to).Sub(DayOf(from)).Hours() / 24)
}

// WeekStart 返回 t 所在周的周一。
func WeekStart(t time.Time) time.Time {
	day := DayOf(t)
	return day.AddDate(0, 0, -WeekdayIndex(day))
}
