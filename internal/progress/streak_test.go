package progress

import (
	"testing"
	"time"
)

func TestStreakStopsAtFirstShortDay(t *testing.T) {
	d0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	d1 := d0.AddDate(0, 0, 1)
	d2 := d0.AddDate(0, 0, 2)

	values := map[string]float64{
		FormatDate(d0): 2,
		FormatDate(d1): 2,
		FormatDate(d2): 1,
	}

	if got := Streak(values, 2, d1, time.Time{}); got != 2 {
		t.Fatalf("expected streak 2 from d1, got %d", got)
	}
	if got := Streak(values, 2, d2, time.Time{}); got != 0 {
		t.Fatalf("expected streak 0 from d2, got %d", got)
	}
}

func TestStreakRespectsFloor(t *testing.T) {
	ref := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	values := map[string]float64{}
	for i := 0; i < 10; i++ {
		values[FormatDate(ref.AddDate(0, 0, -i))] = 1
	}

	floor := ref.AddDate(0, 0, -3)
	if got := Streak(values, 1, ref, floor); got != 4 {
		t.Fatalf("expected streak bounded to 4 days, got %d", got)
	}
}

func TestStreakIsBounded(t *testing.T) {
	ref := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	// target 0 让每一天都达标，只能依靠窗口上限终止
	if got := Streak(map[string]float64{}, 0, ref, time.Time{}); got != MaxStreakWindow {
		t.Fatalf("expected walk capped at %d, got %d", MaxStreakWindow, got)
	}
}

func TestLongestStreak(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	values := map[string]float64{
		"2024-05-01": 1,
		"2024-05-02": 1,
		"2024-05-04": 1,
		"2024-05-05": 1,
		"2024-05-06": 1,
		"2024-05-07": 0.5,
	}

	if got := LongestStreak(values, 1, start, start.AddDate(0, 0, 9)); got != 3 {
		t.Fatalf("expected longest streak 3, got %d", got)
	}
}
