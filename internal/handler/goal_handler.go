package handler

import (
	"net/http"

	"github.com/dailyfocus/internal/db"
	"github.com/dailyfocus/internal/progress"
	"github.com/dailyfocus/internal/service"
	"github.com/gin-gonic/gin"
)

type goalPayload struct {
	Category    string  `json:"category"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	TargetDate  *string `json:"target_date"`
}

// ListGoals 返回目标及其习惯在指定日期（默认今天）的状态与进度
func (a *API) ListGoals(c *gin.Context) {
	date, ok := queryDate(c, "date", a.today())
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return
	}

	goals, err := a.goals.GoalsWithHabits(c.Request.Context(), currentUserID(c), date)
	if err != nil {
		respondServiceError(c, err, "获取目标列表失败")
		return
	}

	items := make([]gin.H, 0, len(goals))
	for _, goal := range goals {
		items = append(items, goalWithHabitsToPayload(goal))
	}
	c.JSON(http.StatusOK, gin.H{"date": progress.FormatDate(date), "goals": items})
}

// CreateGoal 创建目标
func (a *API) CreateGoal(c *gin.Context) {
	var payload goalPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	goal, err := a.goals.Create(currentUserID(c), service.GoalInput(payload))
	if err != nil {
		respondServiceError(c, err, "创建目标失败")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"goal": goalToPayload(*goal)})
}

// UpdateGoal 更新目标
func (a *API) UpdateGoal(c *gin.Context) {
	var payload goalPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	goal, err := a.goals.Update(currentUserID(c), c.Param("id"), service.GoalInput(payload))
	if err != nil {
		respondServiceError(c, err, "更新目标失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"goal": goalToPayload(*goal)})
}

// DeleteGoal 级联删除目标、习惯与打卡记录
func (a *API) DeleteGoal(c *gin.Context) {
	result, err := a.lifecycle.DeleteGoal(c.Request.Context(), currentUserID(c), c.Param("id"))
	counts := gin.H{
		"habits_deleted":      result.HabitsDeleted,
		"completions_deleted": result.CompletionsDeleted,
	}
	if err != nil {
		respondPartial(c, err, "删除目标失败", counts)
		return
	}

	counts["deleted"] = result.GoalDeleted
	c.JSON(http.StatusOK, counts)
}

// ListGoalHabits 返回目标下的全部习惯
func (a *API) ListGoalHabits(c *gin.Context) {
	userID := currentUserID(c)
	goal, err := a.goals.Get(userID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "获取习惯列表失败")
		return
	}

	habits, err := a.habits.List(userID, goal.ID)
	if err != nil {
		respondServiceError(c, err, "获取习惯列表失败")
		return
	}

	items := make([]gin.H, 0, len(habits))
	for _, habit := range habits {
		items = append(items, habitToPayload(habit))
	}
	c.JSON(http.StatusOK, gin.H{"goal_id": goal.ID, "habits": items})
}

// GetGoalProgress 返回单个目标的进度
func (a *API) GetGoalProgress(c *gin.Context) {
	today, ok := queryDate(c, "today", a.today())
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return
	}

	result, err := a.goals.Progress(c.Request.Context(), currentUserID(c), c.Param("id"), today)
	if err != nil {
		respondServiceError(c, err, "计算目标进度失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"goal_id": c.Param("id"), "progress": goalProgressToPayload(result)})
}

func goalToPayload(goal db.Goal) gin.H {
	return gin.H{
		"id":          goal.ID,
		"category":    goal.Category,
		"title":       goal.Title,
		"description": goal.Description,
		"target_date": optionalString(goal.TargetDate),
		"created_at":  formatTimestamp(goal.CreatedAt),
		"updated_at":  formatTimestamp(goal.UpdatedAt),
	}
}

func goalProgressToPayload(result progress.GoalResult) gin.H {
	payload := gin.H{
		"mode":     result.Mode,
		"percent":  result.Percent,
		"pace":     result.Pace,
		"achieved": result.Achieved,
		"target":   result.Target,
	}
	if result.Mode == progress.ModeDeadline {
		payload["total_days"] = result.TotalDays
		payload["days_passed"] = result.DaysPassed
		payload["expected_fraction"] = result.ExpectedFraction
	}
	return payload
}

func goalWithHabitsToPayload(goal service.GoalWithHabits) gin.H {
	habits := make([]gin.H, 0, len(goal.Habits))
	for _, view := range goal.Habits {
		item := habitToPayload(view.Habit)
		item["due_today"] = view.DueToday
		item["streak"] = view.Streak
		item["value"] = 0.0
		item["completed"] = false
		if view.Completion != nil {
			item["value"] = view.Completion.Value
			item["completed"] = view.Completion.Value >= view.Habit.Target
		}
		habits = append(habits, item)
	}

	payload := goalToPayload(goal.Goal)
	payload["habits"] = habits
	payload["progress"] = goalProgressToPayload(goal.Progress)
	payload["remaining"] = goal.Remaining
	return payload
}
