package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/dailyfocus/internal/db"
)

func TestCompletionApplyDrainsToZero(t *testing.T) {
	gdb := setupServiceTestDB(t)
	goal := seedGoal(t, gdb, 1, "健康", nil)
	habit := seedHabit(t, gdb, 1, goal.ID, HabitInput{Name: "喝水", Type: "counter", Target: 8})

	svc := NewCompletionService(gdb)

	first, err := svc.Apply(1, habit.ID, "2024-01-08", 5)
	if err != nil {
		t.Fatalf("Apply +5 returned error: %v", err)
	}
	if first == nil || first.Value != 5 {
		t.Fatalf("expected value 5, got %+v", first)
	}
	if first.ID != db.CompletionID(habit.ID, "2024-01-08") {
		t.Fatalf("unexpected completion id %s", first.ID)
	}

	second, err := svc.Apply(1, habit.ID, "2024-01-08", -5)
	if err != nil {
		t.Fatalf("Apply -5 returned error: %v", err)
	}
	if second != nil {
		t.Fatalf("expected drained completion to be removed, got %+v", second)
	}

	if count := countRows(t, gdb, &db.HabitCompletion{}, ""); count != 0 {
		t.Fatalf("expected no completion records, got %d", count)
	}
}

func TestCompletionApplyAccumulates(t *testing.T) {
	gdb := setupServiceTestDB(t)
	goal := seedGoal(t, gdb, 1, "健康", nil)
	habit := seedHabit(t, gdb, 1, goal.ID, HabitInput{Name: "俯卧撑", Type: "counter", Target: 3})

	svc := NewCompletionService(gdb)

	if _, err := svc.Apply(1, habit.ID, "2024-01-08", 1); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	completion, err := svc.Apply(1, habit.ID, "2024-01-08", 1)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if completion.Value != 2 {
		t.Fatalf("expected value 2, got %v", completion.Value)
	}

	// 负增量在无记录时不会留下记录
	none, err := svc.Apply(1, habit.ID, "2024-01-09", -1)
	if err != nil {
		t.Fatalf("Apply -1 returned error: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil for negative delta without record, got %+v", none)
	}

	values, err := svc.ValuesForHabit(1, habit.ID)
	if err != nil {
		t.Fatalf("ValuesForHabit returned error: %v", err)
	}
	if len(values) != 1 || values["2024-01-08"] != 2 {
		t.Fatalf("unexpected values: %v", values)
	}
}

func TestCompletionApplyConcurrentIncrements(t *testing.T) {
	gdb := setupServiceTestDB(t)
	goal := seedGoal(t, gdb, 1, "健康", nil)
	habit := seedHabit(t, gdb, 1, goal.ID, HabitInput{Name: "喝水", Type: "counter", Target: 8})

	svc := NewCompletionService(gdb)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Apply(1, habit.ID, "2024-01-08", 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Apply returned error: %v", err)
	}

	values, err := svc.ValuesForDate(1, "2024-01-08")
	if err != nil {
		t.Fatalf("ValuesForDate returned error: %v", err)
	}
	if values[habit.ID] != 10 {
		t.Fatalf("expected 10 increments, got %v", values[habit.ID])
	}
}

func TestCompletionApplyValidation(t *testing.T) {
	gdb := setupServiceTestDB(t)
	goal := seedGoal(t, gdb, 1, "健康", nil)
	habit := seedHabit(t, gdb, 1, goal.ID, HabitInput{Name: "冥想"})

	svc := NewCompletionService(gdb)

	if _, err := svc.Apply(1, habit.ID, "2024-01-08", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero delta, got %v", err)
	}
	if _, err := svc.Apply(1, habit.ID, "2024/01/08", 1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for malformed date, got %v", err)
	}
	if _, err := svc.Apply(1, "missing", "2024-01-08", 1); !errors.Is(err, ErrHabitNotFound) {
		t.Fatalf("expected ErrHabitNotFound, got %v", err)
	}
	if _, err := svc.Apply(2, habit.ID, "2024-01-08", 1); !errors.Is(err, ErrHabitNotFound) {
		t.Fatalf("expected ErrHabitNotFound for foreign habit, got %v", err)
	}
}

func TestCompletionStatsAndHeatmap(t *testing.T) {
	gdb := setupServiceTestDB(t)
	goal := seedGoal(t, gdb, 1, "健康", nil)
	habit := seedHabit(t, gdb, 1, goal.ID, HabitInput{Name: "跑步", ScheduleMask: "MTWTF--"})

	// 2024-01-01 为周一，连续 5 天打卡
	seedCompletions(t, gdb, 1, habit.ID, mustDate(t, "2024-01-01"), 5, 1)

	svc := NewCompletionService(gdb)
	stats, err := svc.StatsBetween(1, *habit, mustDate(t, "2024-01-01"), mustDate(t, "2024-01-07"))
	if err != nil {
		t.Fatalf("StatsBetween returned error: %v", err)
	}
	if stats.CompletedDays != 5 || stats.ScheduledDays != 5 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.CompletionRate != 1 {
		t.Fatalf("expected completion rate 1, got %v", stats.CompletionRate)
	}
	if stats.LongestStreak != 5 {
		t.Fatalf("expected longest streak 5, got %d", stats.LongestStreak)
	}
	// 周日未打卡，当前连胜为 0
	if stats.CurrentStreak != 0 {
		t.Fatalf("expected current streak 0 on sunday, got %d", stats.CurrentStreak)
	}

	entries, err := svc.HeatmapRange(1, mustDate(t, "2024-01-03"), mustDate(t, "2024-01-10"))
	if err != nil {
		t.Fatalf("HeatmapRange returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 heatmap entries, got %d", len(entries))
	}
	if entries[0].Date != "2024-01-03" || entries[0].HabitName != "跑步" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}

	if _, err := svc.HeatmapRange(1, mustDate(t, "2024-01-10"), mustDate(t, "2024-01-03")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for reversed range, got %v", err)
	}
}
