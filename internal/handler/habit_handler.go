package handler

import (
	"cmp"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/dailyfocus/internal/db"
	"github.com/dailyfocus/internal/progress"
	"github.com/dailyfocus/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	defaultHabitView  = "monthly"
	heatmapWindowDays = 365
)

type heatmapHabit struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type heatmapDay struct {
	Date   string         `json:"date"`
	Total  float64        `json:"total"`
	Habits []heatmapHabit `json:"habits"`
}

type heatmapRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type heatmapSummary struct {
	TotalEntries int `json:"total_entries"`
	ActiveDays   int `json:"active_days"`
	HabitCount   int `json:"habit_count"`
}

type habitHeatmapPayload struct {
	Range       heatmapRange   `json:"range"`
	Days        []heatmapDay   `json:"days"`
	Habits      []heatmapHabit `json:"habits"`
	Summary     heatmapSummary `json:"summary"`
	GeneratedAt string         `json:"generated_at"`
}

type habitPayload struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Target       float64 `json:"target"`
	ScheduleMask string  `json:"schedule_mask"`
}

type completionPayload struct {
	Date  string   `json:"date"`
	Delta *float64 `json:"delta"`
}

// CreateHabit 在目标下创建习惯
func (a *API) CreateHabit(c *gin.Context) {
	var payload habitPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	habit, err := a.habits.Add(currentUserID(c), c.Param("id"), service.HabitInput(payload))
	if err != nil {
		respondServiceError(c, err, "创建习惯失败")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"habit": habitToPayload(*habit)})
}

// UpdateHabit 更新习惯
func (a *API) UpdateHabit(c *gin.Context) {
	var payload habitPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	habit, err := a.habits.Update(currentUserID(c), c.Param("id"), service.HabitInput(payload))
	if err != nil {
		respondServiceError(c, err, "更新习惯失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}

// DeleteHabit 级联删除习惯及其打卡记录
func (a *API) DeleteHabit(c *gin.Context) {
	result, err := a.lifecycle.DeleteHabit(c.Request.Context(), currentUserID(c), c.Param("id"))
	counts := gin.H{"completions_deleted": result.CompletionsDeleted}
	if err != nil {
		respondPartial(c, err, "删除习惯失败", counts)
		return
	}

	counts["deleted"] = result.HabitDeleted
	c.JSON(http.StatusOK, counts)
}

// RecordCompletion 将增量累加到习惯当天的打卡值，默认 +1，累加后不大于 0 时删除记录
func (a *API) RecordCompletion(c *gin.Context) {
	var payload completionPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	if strings.TrimSpace(payload.Date) == "" {
		payload.Date = progress.FormatDate(a.today())
	}
	delta := 1.0
	if payload.Delta != nil {
		delta = *payload.Delta
	}

	completion, err := a.completions.Apply(currentUserID(c), c.Param("id"), payload.Date, delta)
	if err != nil {
		respondServiceError(c, err, "保存打卡记录失败")
		return
	}

	if completion == nil {
		c.JSON(http.StatusOK, gin.H{"deleted": true, "value": 0})
		return
	}
	c.JSON(http.StatusOK, gin.H{"completion": completionToPayload(*completion)})
}

// GetHabitCalendar 返回日期区间内的打卡数据和统计
func (a *API) GetHabitCalendar(c *gin.Context) {
	userID := currentUserID(c)
	habit, err := a.habits.Get(userID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "加载习惯失败")
		return
	}

	view := strings.ToLower(c.DefaultQuery("view", defaultHabitView))
	anchor, ok := queryDate(c, "start", a.today())
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的开始日期")
		return
	}
	start, end := resolveRange(anchor, view)

	completions, err := a.completions.ListBetween(userID, service.CompletionFilter{HabitID: habit.ID, Start: start, End: end})
	if err != nil {
		respondServiceError(c, err, "获取打卡记录失败")
		return
	}

	stats, err := a.completions.StatsBetween(userID, *habit, start, end)
	if err != nil {
		respondServiceError(c, err, "计算统计信息失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"habit":       habitToPayload(*habit),
		"days":        buildCalendarDays(*habit, completions, start, end),
		"completions": serializeCompletions(completions),
		"stats":       serializeHabitStats(stats),
		"range":       gin.H{"start": progress.FormatDate(start), "end": progress.FormatDate(end), "view": view},
	})
}

// GetHabitHeatmap 返回过去一年的习惯打卡热力图
func (a *API) GetHabitHeatmap(c *gin.Context) {
	end := a.today()
	start := end.AddDate(0, 0, -(heatmapWindowDays - 1))

	entries, err := a.completions.HeatmapRange(currentUserID(c), start, end)
	if err != nil {
		respondServiceError(c, err, "获取热力图数据失败")
		return
	}

	c.JSON(http.StatusOK, buildHabitHeatmapPayload(entries, start, end, a.now()))
}

func buildHabitHeatmapPayload(entries []service.HeatmapEntry, start, end, generatedAt time.Time) habitHeatmapPayload {
	dayMap := make(map[string][]heatmapHabit)
	legendMap := make(map[string]heatmapHabit)

	for _, entry := range entries {
		dayMap[entry.Date] = append(dayMap[entry.Date], heatmapHabit{ID: entry.HabitID, Name: entry.HabitName, Value: entry.Value})

		legend := legendMap[entry.HabitID]
		legend.ID = entry.HabitID
		legend.Name = entry.HabitName
		legend.Value += entry.Value
		legendMap[entry.HabitID] = legend
	}

	days := make([]heatmapDay, 0, len(dayMap))
	for date, habits := range dayMap {
		slices.SortFunc(habits, func(a, b heatmapHabit) int {
			return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
		total := 0.0
		for _, habit := range habits {
			total += habit.Value
		}
		days = append(days, heatmapDay{Date: date, Total: total, Habits: habits})
	}

	slices.SortFunc(days, func(a, b heatmapDay) int {
		return cmp.Compare(a.Date, b.Date)
	})

	legend := make([]heatmapHabit, 0, len(legendMap))
	for _, item := range legendMap {
		legend = append(legend, item)
	}

	slices.SortFunc(legend, func(a, b heatmapHabit) int {
		if diff := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); diff != 0 {
			return diff
		}
		return cmp.Compare(a.ID, b.ID)
	})

	payload := habitHeatmapPayload{
		Range: heatmapRange{
			Start: progress.FormatDate(start),
			End:   progress.FormatDate(end),
		},
		Days:    days,
		Habits:  legend,
		Summary: heatmapSummary{TotalEntries: len(entries), ActiveDays: len(dayMap), HabitCount: len(legend)},
	}

	if !generatedAt.IsZero() {
		payload.GeneratedAt = generatedAt.Format(time.RFC3339)
	}

	return payload
}

// buildCalendarDays 为区间内每一天给出是否计划、当天累计值与是否达标
func buildCalendarDays(habit db.Habit, completions []db.HabitCompletion, start, end time.Time) []gin.H {
	values := make(map[string]float64, len(completions))
	for _, completion := range completions {
		values[completion.Date] = completion.Value
	}

	days := make([]gin.H, 0, progress.DaysBetween(start, end)+1)
	for day := progress.DayOf(start); !day.After(progress.DayOf(end)); day = day.AddDate(0, 0, 1) {
		key := progress.FormatDate(day)
		value := values[key]
		days = append(days, gin.H{
			"date":      key,
			"due":       progress.IsDue(habit.ScheduleMask, day),
			"value":     value,
			"completed": value >= habit.Target,
		})
	}
	return days
}

func habitToPayload(habit db.Habit) gin.H {
	return gin.H{
		"id":            habit.ID,
		"goal_id":       habit.GoalID,
		"name":          habit.Name,
		"type":          habit.Type,
		"target":        habit.Target,
		"schedule_mask": habit.ScheduleMask,
		"created_at":    formatTimestamp(habit.CreatedAt),
		"updated_at":    formatTimestamp(habit.UpdatedAt),
	}
}

func completionToPayload(completion db.HabitCompletion) gin.H {
	return gin.H{
		"id":         completion.ID,
		"habit_id":   completion.HabitID,
		"date":       completion.Date,
		"value":      completion.Value,
		"created_at": formatTimestamp(completion.CreatedAt),
		"updated_at": formatTimestamp(completion.UpdatedAt),
	}
}

func serializeCompletions(completions []db.HabitCompletion) []gin.H {
	items := make([]gin.H, 0, len(completions))
	for _, completion := range completions {
		items = append(items, completionToPayload(completion))
	}
	return items
}

func serializeHabitStats(stats *service.HabitStats) gin.H {
	return gin.H{
		"range_start":     progress.FormatDate(stats.RangeStart),
		"range_end":       progress.FormatDate(stats.RangeEnd),
		"total_value":     stats.TotalValue,
		"completed_days":  stats.CompletedDays,
		"scheduled_days":  stats.ScheduledDays,
		"completion_rate": stats.CompletionRate,
		"current_streak":  stats.CurrentStreak,
		"longest_streak":  stats.LongestStreak,
	}
}

// resolveRange weekly 返回 anchor 所在周（周一至周日），其他视图返回 anchor 所在自然月
func resolveRange(anchor time.Time, view string) (time.Time, time.Time) {
	switch view {
	case "weekly":
		start := progress.WeekStart(anchor)
		return start, start.AddDate(0, 0, 6)
	default:
		day := progress.DayOf(anchor)
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1)
	}
}
