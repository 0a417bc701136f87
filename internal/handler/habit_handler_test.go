package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/dailyfocus/internal/service"
)

type goalResponse struct {
	Goal struct {
		ID string `json:"id"`
	} `json:"goal"`
}

type habitResponse struct {
	Habit struct {
		ID     string  `json:"id"`
		Target float64 `json:"target"`
	} `json:"habit"`
}

func createGoalAndHabit(t *testing.T, env *handlerTestEnv, habit map[string]any) (string, string) {
	t.Helper()

	rr := env.do(t, http.MethodPost, "/api/goals", map[string]any{"title": "健康", "category": "生活"})
	expectStatus(t, rr, http.StatusCreated)
	var goal goalResponse
	decodeBody(t, rr, &goal)

	rr = env.do(t, http.MethodPost, "/api/goals/"+goal.Goal.ID+"/habits", habit)
	expectStatus(t, rr, http.StatusCreated)
	var created habitResponse
	decodeBody(t, rr, &created)
	return goal.Goal.ID, created.Habit.ID
}

func TestRecordCompletionAccumulatesAndDrains(t *testing.T) {
	env := newHandlerTestEnv(t)
	_, habitID := createGoalAndHabit(t, env, map[string]any{"name": "喝水", "type": "counter", "target": 3})

	// 缺省 date 为今天、delta 为 +1
	rr := env.do(t, http.MethodPost, "/api/habits/"+habitID+"/completions", map[string]any{})
	expectStatus(t, rr, http.StatusOK)
	var first struct {
		Completion struct {
			Date  string  `json:"date"`
			Value float64 `json:"value"`
		} `json:"completion"`
	}
	decodeBody(t, rr, &first)
	if first.Completion.Date != "2024-01-08" || first.Completion.Value != 1 {
		t.Fatalf("unexpected completion: %+v", first.Completion)
	}

	rr = env.do(t, http.MethodPost, "/api/habits/"+habitID+"/completions", map[string]any{"date": "2024-01-08", "delta": -1})
	expectStatus(t, rr, http.StatusOK)
	var drained struct {
		Deleted bool `json:"deleted"`
	}
	decodeBody(t, rr, &drained)
	if !drained.Deleted {
		t.Fatalf("expected drained completion to be deleted: %s", rr.Body.String())
	}

	rr = env.do(t, http.MethodPost, "/api/habits/"+habitID+"/completions", map[string]any{"date": "2024-01-08", "delta": 0})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = env.do(t, http.MethodPost, "/api/habits/missing/completions", map[string]any{"date": "2024-01-08"})
	expectStatus(t, rr, http.StatusNotFound)
}

func TestListGoalsReportsDueHabits(t *testing.T) {
	env := newHandlerTestEnv(t)
	goalID, habitID := createGoalAndHabit(t, env, map[string]any{"name": "冥想"})

	rr := env.do(t, http.MethodGet, "/api/goals?date=2024-01-08", nil)
	expectStatus(t, rr, http.StatusOK)

	var payload struct {
		Goals []struct {
			ID        string `json:"id"`
			Remaining int    `json:"remaining"`
			Habits    []struct {
				ID       string `json:"id"`
				DueToday bool   `json:"due_today"`
				Streak   int    `json:"streak"`
			} `json:"habits"`
			Progress struct {
				Mode string `json:"mode"`
			} `json:"progress"`
		} `json:"goals"`
	}
	decodeBody(t, rr, &payload)

	if len(payload.Goals) != 1 || payload.Goals[0].ID != goalID {
		t.Fatalf("unexpected goals: %s", rr.Body.String())
	}
	goal := payload.Goals[0]
	if goal.Remaining != 1 || len(goal.Habits) != 1 || goal.Habits[0].ID != habitID || !goal.Habits[0].DueToday {
		t.Fatalf("unexpected goal payload: %+v", goal)
	}
	if goal.Progress.Mode != "rolling-week" {
		t.Fatalf("expected rolling-week mode, got %s", goal.Progress.Mode)
	}

	rr = env.do(t, http.MethodGet, "/api/goals?date=yesterday", nil)
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestDeleteGoalCascadesOverHTTP(t *testing.T) {
	env := newHandlerTestEnv(t)
	goalID, habitID := createGoalAndHabit(t, env, map[string]any{"name": "冥想"})

	for _, date := range []string{"2024-01-06", "2024-01-07", "2024-01-08"} {
		rr := env.do(t, http.MethodPost, "/api/habits/"+habitID+"/completions", map[string]any{"date": date})
		expectStatus(t, rr, http.StatusOK)
	}

	rr := env.do(t, http.MethodDelete, "/api/goals/"+goalID, nil)
	expectStatus(t, rr, http.StatusOK)

	var result struct {
		Deleted            bool `json:"deleted"`
		HabitsDeleted      int  `json:"habits_deleted"`
		CompletionsDeleted int  `json:"completions_deleted"`
	}
	decodeBody(t, rr, &result)
	if !result.Deleted || result.HabitsDeleted != 1 || result.CompletionsDeleted != 3 {
		t.Fatalf("unexpected delete result: %+v", result)
	}

	rr = env.do(t, http.MethodDelete, "/api/goals/"+goalID, nil)
	expectStatus(t, rr, http.StatusNotFound)
}

func TestGetHabitCalendarWeekly(t *testing.T) {
	env := newHandlerTestEnv(t)
	_, habitID := createGoalAndHabit(t, env, map[string]any{"name": "跑步", "schedule_mask": "MTWTF--"})

	rr := env.do(t, http.MethodPost, "/api/habits/"+habitID+"/completions", map[string]any{"date": "2024-01-09"})
	expectStatus(t, rr, http.StatusOK)

	rr = env.do(t, http.MethodGet, "/api/habits/"+habitID+"/calendar?view=weekly&start=2024-01-10", nil)
	expectStatus(t, rr, http.StatusOK)

	var payload struct {
		Days []struct {
			Date      string `json:"date"`
			Due       bool   `json:"due"`
			Completed bool   `json:"completed"`
		} `json:"days"`
		Stats struct {
			CompletedDays int `json:"completed_days"`
			ScheduledDays int `json:"scheduled_days"`
		} `json:"stats"`
		Range struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"range"`
	}
	decodeBody(t, rr, &payload)

	if payload.Range.Start != "2024-01-08" || payload.Range.End != "2024-01-14" {
		t.Fatalf("unexpected range: %+v", payload.Range)
	}
	if len(payload.Days) != 7 {
		t.Fatalf("expected 7 calendar days, got %d", len(payload.Days))
	}
	if !payload.Days[1].Completed || payload.Days[5].Due {
		t.Fatalf("unexpected calendar days: %+v", payload.Days)
	}
	if payload.Stats.CompletedDays != 1 || payload.Stats.ScheduledDays != 5 {
		t.Fatalf("unexpected stats: %+v", payload.Stats)
	}
}

func TestBuildHabitHeatmapPayload(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	entries := []service.HeatmapEntry{
		{Date: "2024-01-02", HabitID: "b", HabitName: "阅读", Value: 1},
		{Date: "2024-01-02", HabitID: "a", HabitName: "Running", Value: 2},
		{Date: "2024-01-01", HabitID: "a", HabitName: "Running", Value: 1},
	}

	payload := buildHabitHeatmapPayload(entries, start, end, time.Time{})

	if payload.Range.Start != "2024-01-01" || payload.Range.End != "2024-01-07" {
		t.Fatalf("unexpected range: %+v", payload.Range)
	}
	if len(payload.Days) != 2 || payload.Days[0].Date != "2024-01-01" {
		t.Fatalf("expected days sorted by date, got %+v", payload.Days)
	}
	if payload.Days[1].Total != 3 || payload.Days[1].Habits[0].Name != "Running" {
		t.Fatalf("unexpected second day: %+v", payload.Days[1])
	}
	if payload.Summary.TotalEntries != 3 || payload.Summary.ActiveDays != 2 || payload.Summary.HabitCount != 2 {
		t.Fatalf("unexpected summary: %+v", payload.Summary)
	}
	if payload.Habits[0].ID != "a" || payload.Habits[0].Value != 3 {
		t.Fatalf("unexpected legend: %+v", payload.Habits)
	}
	if payload.GeneratedAt != "" {
		t.Fatalf("expected empty generated_at, got %s", payload.GeneratedAt)
	}
}

func TestResolveRange(t *testing.T) {
	anchor := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)

	start, end := resolveRange(anchor, "weekly")
	if start.Format("2006-01-02") != "2024-02-12" || end.Format("2006-01-02") != "2024-02-18" {
		t.Fatalf("unexpected weekly range %s - %s", start, end)
	}

	start, end = resolveRange(anchor, "monthly")
	if start.Format("2006-01-02") != "2024-02-01" || end.Format("2006-01-02") != "2024-02-29" {
		t.Fatalf("unexpected monthly range %s - %s", start, end)
	}
}

func TestListGoalHabits(t *testing.T) {
	env := newHandlerTestEnv(t)
	goalID, habitID := createGoalAndHabit(t, env, map[string]any{"name": "冥想"})
	rr := env.do(t, http.MethodPost, "/api/goals/"+goalID+"/habits", map[string]any{"name": "喝水", "type": "counter", "target": 3})
	expectStatus(t, rr, http.StatusCreated)

	// 其他目标下的习惯不会出现
	createGoalAndHabit(t, env, map[string]any{"name": "阅读"})

	rr = env.do(t, http.MethodGet, "/api/goals/"+goalID+"/habits", nil)
	expectStatus(t, rr, http.StatusOK)
	var payload struct {
		GoalID string `json:"goal_id"`
		Habits []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"habits"`
	}
	decodeBody(t, rr, &payload)
	if payload.GoalID != goalID || len(payload.Habits) != 2 {
		t.Fatalf("unexpected habits payload: %s", rr.Body.String())
	}
	if payload.Habits[0].ID != habitID || payload.Habits[1].Name != "喝水" {
		t.Fatalf("unexpected habit order: %+v", payload.Habits)
	}

	rr = env.do(t, http.MethodGet, "/api/goals/missing/habits", nil)
	expectStatus(t, rr, http.StatusNotFound)
}
