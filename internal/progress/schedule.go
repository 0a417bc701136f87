package progress

import (
	"time"
	"unicode/utf8"
)

// ScheduleMaskLength 是周计划掩码的固定长度（周一到周日）
const ScheduleMaskLength = 7

// unscheduled 标记当天不安排
const unscheduled = '-'

// WeekdayIndex 将 time.Weekday（周日=0）转换为周一=0 … 周日=6。
func WeekdayIndex(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

// ValidMask 判断掩码是否恰好为 7 个字符。
func ValidMask(mask string) bool {
	return utf8.RuneCountInString(mask) == ScheduleMaskLength
}

// IsDue 判断习惯在 date 当天是否需要完成。
// 掩码缺失或长度不为 7 时一律视为需要完成。
func IsDue(mask string, date time.Time) bool {
	if !ValidMask(mask) {
		return true
	}
	return []rune(mask)[WeekdayIndex(date)] != unscheduled
}

// ScheduledDays 统计 [start, end] 闭区间内需要完成的天数。
func ScheduledDays(mask string, start, end time.Time) int {
	from, to := DayOf(start), DayOf(end)
	if to.Before(from) {
		return 0
	}

	count := 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if IsDue(mask, day) {
			count++
		}
	}
	return count
}
