package progress

import (
	"math"
	"testing"
	"time"

	"github.com/dailyfocus/internal/db"
)

func habitWithTarget(id string, target float64) db.Habit {
	return db.Habit{Record: db.Record{ID: id}, Name: id, Type: db.HabitTypeCheckbox, Target: target, ScheduleMask: "MTWTFSS"}
}

func completion(habitID string, date time.Time, value float64) db.HabitCompletion {
	day := FormatDate(date)
	return db.HabitCompletion{ID: db.CompletionID(habitID, day), HabitID: habitID, Date: day, Value: value}
}

func TestGoalProgressRollingWeek(t *testing.T) {
	today := time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)
	habits := []db.Habit{habitWithTarget("h1", 1)}
	completions := []db.HabitCompletion{
		completion("h1", today.AddDate(0, 0, -2), 1),
		completion("h1", today.AddDate(0, 0, -1), 1),
		completion("h1", today, 1),
	}

	result := GoalProgress(db.Goal{Title: "健身"}, habits, completions, today)

	if result.Mode != ModeRollingWeek {
		t.Fatalf("expected rolling-week mode, got %s", result.Mode)
	}
	if math.Abs(result.Percent-300.0/7) > 1e-9 {
		t.Fatalf("expected ~42.9 percent, got %f", result.Percent)
	}
	if result.Pace != "" {
		t.Fatalf("expected no pace label, got %q", result.Pace)
	}
}

func TestGoalProgressDeadlineBehind(t *testing.T) {
	today := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	targetDate := FormatDate(today)
	earliest := today.AddDate(0, 0, -9)

	habits := []db.Habit{habitWithTarget("h1", 1)}
	var completions []db.HabitCompletion
	for i := 0; i < 5; i++ {
		completions = append(completions, completion("h1", earliest.AddDate(0, 0, i*2), 1))
	}

	result := GoalProgress(db.Goal{Title: "读书", TargetDate: &targetDate}, habits, completions, today)

	if result.Mode != ModeDeadline {
		t.Fatalf("expected deadline mode, got %s", result.Mode)
	}
	if result.TotalDays != 10 {
		t.Fatalf("expected 10 total days, got %d", result.TotalDays)
	}
	if result.DaysPassed != 10 {
		t.Fatalf("expected 10 days passed, got %d", result.DaysPassed)
	}
	if math.Abs(result.Percent-50) > 1e-9 {
		t.Fatalf("expected 50 percent, got %f", result.Percent)
	}
	if math.Abs(result.ExpectedFraction-1) > 1e-9 {
		t.Fatalf("expected fraction 1.0, got %f", result.ExpectedFraction)
	}
	if result.Pace != PaceBehind {
		t.Fatalf("expected behind, got %s", result.Pace)
	}
}

func TestGoalProgressDeadlineOnPace(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	today := start.AddDate(0, 0, 1)
	targetDate := FormatDate(start.AddDate(0, 0, 9))

	habits := []db.Habit{habitWithTarget("h1", 2), habitWithTarget("h2", 1)}
	completions := []db.HabitCompletion{
		completion("h1", start, 2),
		completion("h2", start, 1),
		completion("h1", today, 2),
		completion("h2", today, 1),
		completion("other", today, 50),
	}

	result := GoalProgress(db.Goal{TargetDate: &targetDate}, habits, completions, today)

	if result.TotalDays != 10 || result.DaysPassed != 2 {
		t.Fatalf("unexpected day counts: total=%d passed=%d", result.TotalDays, result.DaysPassed)
	}
	if math.Abs(result.Percent-20) > 1e-9 {
		t.Fatalf("expected 20 percent, got %f", result.Percent)
	}
	if result.Pace != PaceOnTrack {
		t.Fatalf("expected on-pace, got %s", result.Pace)
	}
}

func TestGoalProgressDeadlineWithoutCompletions(t *testing.T) {
	today := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	targetDate := FormatDate(today.AddDate(0, 0, 4))

	result := GoalProgress(db.Goal{TargetDate: &targetDate}, []db.Habit{habitWithTarget("h1", 1)}, nil, today)

	if result.TotalDays != 5 || result.DaysPassed != 1 {
		t.Fatalf("unexpected day counts: total=%d passed=%d", result.TotalDays, result.DaysPassed)
	}
	if result.Percent != 0 || result.Pace != PaceBehind {
		t.Fatalf("expected 0 percent behind, got %f %s", result.Percent, result.Pace)
	}
}

func TestGoalProgressPastDeadlineClampsDays(t *testing.T) {
	earliest := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	targetDate := FormatDate(earliest.AddDate(0, 0, 2))
	today := earliest.AddDate(0, 0, 30)

	result := GoalProgress(db.Goal{TargetDate: &targetDate}, []db.Habit{habitWithTarget("h1", 1)},
		[]db.HabitCompletion{completion("h1", earliest, 1)}, today)

	if result.TotalDays != 3 || result.DaysPassed != 3 {
		t.Fatalf("expected days clamped to 3, got total=%d passed=%d", result.TotalDays, result.DaysPassed)
	}
}

func TestGoalProgressZeroHabits(t *testing.T) {
	today := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	targetDate := FormatDate(today)

	rolling := GoalProgress(db.Goal{}, nil, nil, today)
	if rolling.Percent != 0 || math.IsNaN(rolling.Percent) {
		t.Fatalf("expected 0 percent, got %f", rolling.Percent)
	}

	deadline := GoalProgress(db.Goal{TargetDate: &targetDate}, nil, nil, today)
	if deadline.Percent != 0 || math.IsNaN(deadline.ExpectedFraction) {
		t.Fatalf("expected guarded division, got percent=%f expected=%f", deadline.Percent, deadline.ExpectedFraction)
	}
}

func TestGoalProgressMalformedTargetDateFallsBackToRolling(t *testing.T) {
	bad := "next week"
	result := GoalProgress(db.Goal{TargetDate: &bad}, []db.Habit{habitWithTarget("h1", 1)}, nil, time.Now())
	if result.Mode != ModeRollingWeek {
		t.Fatalf("expected rolling-week fallback, got %s", result.Mode)
	}
}

func TestGoalProgressDeadlineWithoutHabitsIsOnPace(t *testing.T) {
	today := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	targetDate := FormatDate(today.AddDate(0, 0, 9))

	result := GoalProgress(db.Goal{TargetDate: &targetDate}, nil, nil, today)

	// 目标总量为 0 时期望比例按 0 处理，0 >= 0 视为按计划
	if result.Target != 0 || result.Percent != 0 || result.ExpectedFraction != 0 {
		t.Fatalf("expected zero target, got %+v", result)
	}
	if result.Pace != PaceOnTrack {
		t.Fatalf("expected on-pace for zero target, got %s", result.Pace)
	}
}
