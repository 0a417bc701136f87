package progress

import "time"

// MaxStreakWindow 限制向前回溯的最大天数
const MaxStreakWindow = 3650

// Streak 从 ref（含）开始逐日向前回溯，统计累计值连续达到 target 的天数。
// values 以 YYYY-MM-DD 为键；floor 非零时不会越过该日期（通常为习惯创建日）。
func Streak(values map[string]float64, target float64, ref, floor time.Time) int {
	day := DayOf(ref)
	var limit time.Time
	if !floor.IsZero() {
		limit = DayOf(floor)
	}

	count := 0
	for count < MaxStreakWindow {
		if !limit.IsZero() && day.Before(limit) {
			break
		}
		if values[FormatDate(day)] < target {
			break
		}
		count++
		day = day.AddDate(0, 0, -1)
	}
	return count
}

// LongestStreak 返回 [start, end] 区间内最长的连续达标天数。
func LongestStreak(values map[string]float64, target float64, start, end time.Time) int {
	from, to := DayOf(start), DayOf(end)

	longest, current := 0, 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if values[FormatDate(day)] >= target {
			current++
			if current > longest {
				longest = current
			}
			continue
		}
		current = 0
	}
	return longest
}

// EarliestDate 返回 values 中最早的日期，无有效日期时返回零值。
func EarliestDate(values map[string]float64) time.Time {
	var earliest time.Time
	for key := range values {
		day, err := ParseDate(key)
		if err != nil {
			continue
		}
		if earliest.IsZero() || day.Before(earliest) {
			earliest = day
		}
	}
	return earliest
}
