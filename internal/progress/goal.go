package progress

import (
	"time"

	"github.com/dailyfocus/internal/db"
)

// Pace 描述截止日期模式下的进度节奏
type Pace string

const (
	PaceOnTrack Pace = "on-pace"
	PaceBehind  Pace = "behind"
)

// Mode 区分目标进度的计算方式
type Mode string

const (
	ModeDeadline    Mode = "deadline"
	ModeRollingWeek Mode = "rolling-week"
)

// rollingWeekDays 滚动周模式下的天数
const rollingWeekDays = 7

// GoalResult 汇总单个目标的进度
type GoalResult struct {
	Mode     Mode
	Percent  float64
	Pace     Pace
	Achieved float64
	Target   float64
	// 仅截止日期模式有值
	TotalDays        int
	DaysPassed       int
	ExpectedFraction float64
}

// GoalProgress 将目标下所有习惯的打卡累计值汇总为完成百分比。
//
// 目标带有 TargetDate 时按截止日期模式计算：以最早一次打卡（无打卡时为 today）为起点，
// 目标总量 = Σ habit.Target × totalDays，并根据已过天数给出 on-pace/behind。
// 否则按滚动周模式：目标总量 = Σ habit.Target × 7，不给出节奏。
// completions 中不属于 habits 的记录会被忽略；TargetDate 无法解析时按滚动周处理。
func GoalProgress(goal db.Goal, habits []db.Habit, completions []db.HabitCompletion, today time.Time) GoalResult {
	perDay := 0.0
	owned := make(map[string]struct{}, len(habits))
	for _, habit := range habits {
		perDay += habit.Target
		owned[habit.ID] = struct{}{}
	}

	achieved := 0.0
	var earliest time.Time
	for _, completion := range completions {
		if _, ok := owned[completion.HabitID]; !ok {
			continue
		}
		achieved += completion.Value

		date, err := ParseDate(completion.Date)
		if err != nil {
			continue
		}
		if earliest.IsZero() || date.Before(earliest) {
			earliest = date
		}
	}

	if goal.TargetDate != nil {
		if targetDate, err := ParseDate(*goal.TargetDate); err == nil {
			return deadlineProgress(perDay, achieved, earliest, targetDate, today)
		}
	}

	result := GoalResult{Mode: ModeRollingWeek, Achieved: achieved}
	result.Target = perDay * rollingWeekDays
	if result.Target > 0 {
		result.Percent = achieved / result.Target * 100
	}
	return result
}

func deadlineProgress(perDay, achieved float64, earliest, targetDate, today time.Time) GoalResult {
	if earliest.IsZero() {
		earliest = DayOf(today)
	}

	totalDays := max(1, DaysBetween(earliest, targetDate)+1)
	daysPassed := min(max(DaysBetween(earliest, today)+1, 0), totalDays)

	result := GoalResult{
		Mode:       ModeDeadline,
		Achieved:   achieved,
		Target:     perDay * float64(totalDays),
		TotalDays:  totalDays,
		DaysPassed: daysPassed,
	}
	fraction := 0.0
	if result.Target > 0 {
		fraction = achieved / result.Target
		result.Percent = fraction * 100
		result.ExpectedFraction = perDay * float64(daysPassed) / result.Target
	}

	if fraction >= result.ExpectedFraction {
		result.Pace = PaceOnTrack
	} else {
		result.Pace = PaceBehind
	}
	return result
}
