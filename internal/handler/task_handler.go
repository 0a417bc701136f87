package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dailyfocus/internal/db"
	"github.com/dailyfocus/internal/progress"
	"github.com/dailyfocus/internal/service"
	"github.com/gin-gonic/gin"
)

var errPriorityRefType = errors.New("weekly_priority_id must be a string")

type taskPayload struct {
	Title            string          `json:"title"`
	Date             string          `json:"date"`
	Tag              string          `json:"tag"`
	Deadline         *string         `json:"deadline"`
	ReminderTime     string          `json:"reminder_time"`
	Notes            string          `json:"notes"`
	Link             string          `json:"link"`
	LinkRefs         []string        `json:"link_refs"`
	FileRefs         []string        `json:"file_refs"`
	WeeklyPriorityID json.RawMessage `json:"weekly_priority_id"`
}

type subtaskPayload struct {
	Title *string `json:"title"`
	Done  *bool   `json:"done"`
}

// ListTasks 返回某天（默认今天）的任务及子任务
func (a *API) ListTasks(c *gin.Context) {
	date, ok := queryDate(c, "date", a.today())
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return
	}

	items, err := a.tasks.ListByDate(currentUserID(c), progress.FormatDate(date))
	if err != nil {
		respondServiceError(c, err, "获取任务列表失败")
		return
	}

	tasks := make([]gin.H, 0, len(items))
	for _, item := range items {
		payload := taskToPayload(item.Task)
		payload["subtasks"] = serializeSubtasks(item.Subtasks)
		tasks = append(tasks, payload)
	}
	c.JSON(http.StatusOK, gin.H{"date": progress.FormatDate(date), "tasks": tasks})
}

// ListTasksInRange 返回 [start, end] 区间内的任务，不含子任务
func (a *API) ListTasksInRange(c *gin.Context) {
	start, ok := queryDate(c, "start", progress.WeekStart(a.today()))
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的开始日期")
		return
	}
	end, ok := queryDate(c, "end", start.AddDate(0, 0, 6))
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的结束日期")
		return
	}
	if end.Before(start) {
		respondError(c, http.StatusBadRequest, "结束日期不能早于开始日期")
		return
	}

	items, err := a.tasks.ListBetween(currentUserID(c), start, end)
	if err != nil {
		respondServiceError(c, err, "获取任务列表失败")
		return
	}

	tasks := make([]gin.H, 0, len(items))
	for _, task := range items {
		tasks = append(tasks, taskToPayload(task))
	}
	c.JSON(http.StatusOK, gin.H{
		"start": progress.FormatDate(start),
		"end":   progress.FormatDate(end),
		"tasks": tasks,
	})
}

// CreateTask 创建任务
func (a *API) CreateTask(c *gin.Context) {
	input, ok := parseTaskInput(c)
	if !ok {
		return
	}

	task, err := a.tasks.Create(currentUserID(c), input)
	if err != nil {
		respondServiceError(c, err, "创建任务失败")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": taskToPayload(*task)})
}

// UpdateTask 更新任务
func (a *API) UpdateTask(c *gin.Context) {
	input, ok := parseTaskInput(c)
	if !ok {
		return
	}

	task, err := a.tasks.Update(currentUserID(c), c.Param("id"), input)
	if err != nil {
		respondServiceError(c, err, "更新任务失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": taskToPayload(*task)})
}

// SetTaskDone 切换任务完成状态
func (a *API) SetTaskDone(c *gin.Context) {
	var payload struct {
		Done *bool `json:"done"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}
	if payload.Done == nil {
		respondError(c, http.StatusBadRequest, "缺少完成状态")
		return
	}

	task, err := a.tasks.SetDone(currentUserID(c), c.Param("id"), *payload.Done)
	if err != nil {
		respondServiceError(c, err, "更新任务状态失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": taskToPayload(*task)})
}

// MoveTask 将任务移动到新的日期
func (a *API) MoveTask(c *gin.Context) {
	var payload struct {
		Date string `json:"date"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	task, err := a.lifecycle.MoveTask(c.Request.Context(), currentUserID(c), c.Param("id"), payload.Date)
	if err != nil {
		respondServiceError(c, err, "移动任务失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": taskToPayload(*task)})
}

// RollOverTasks 将 from（默认昨天）未完成的任务移到 to（默认今天）
func (a *API) RollOverTasks(c *gin.Context) {
	var payload struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	today := a.today()
	if strings.TrimSpace(payload.To) == "" {
		payload.To = progress.FormatDate(today)
	}
	if strings.TrimSpace(payload.From) == "" {
		payload.From = progress.FormatDate(today.AddDate(0, 0, -1))
	}

	moved, err := a.lifecycle.RollOverTasks(c.Request.Context(), currentUserID(c), payload.From, payload.To)
	if err != nil {
		respondPartial(c, err, "任务顺延失败", gin.H{"moved": moved})
		return
	}
	c.JSON(http.StatusOK, gin.H{"moved": moved, "from": payload.From, "to": payload.To})
}

// DeleteTask 级联删除任务及子任务
func (a *API) DeleteTask(c *gin.Context) {
	result, err := a.lifecycle.DeleteTask(c.Request.Context(), currentUserID(c), c.Param("id"))
	counts := gin.H{"subtasks_deleted": result.SubtasksDeleted}
	if err != nil {
		respondPartial(c, err, "删除任务失败", counts)
		return
	}

	counts["deleted"] = result.TaskDeleted
	c.JSON(http.StatusOK, counts)
}

// AddSubtask 在任务下新增子任务
func (a *API) AddSubtask(c *gin.Context) {
	var payload subtaskPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}
	title := ""
	if payload.Title != nil {
		title = *payload.Title
	}

	subtask, err := a.tasks.AddSubtask(currentUserID(c), c.Param("id"), title)
	if err != nil {
		respondServiceError(c, err, "创建子任务失败")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subtask": subtaskToPayload(*subtask)})
}

// UpdateSubtask 更新子任务标题或完成状态
func (a *API) UpdateSubtask(c *gin.Context) {
	var payload subtaskPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	subtask, err := a.tasks.UpdateSubtask(currentUserID(c), c.Param("id"), payload.Title, payload.Done)
	if err != nil {
		respondServiceError(c, err, "更新子任务失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"subtask": subtaskToPayload(*subtask)})
}

// DeleteSubtask 删除子任务
func (a *API) DeleteSubtask(c *gin.Context) {
	if err := a.tasks.DeleteSubtask(currentUserID(c), c.Param("id")); err != nil {
		respondServiceError(c, err, "删除子任务失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func parseTaskInput(c *gin.Context) (service.TaskInput, bool) {
	var payload taskPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return service.TaskInput{}, false
	}

	priorityID, err := parsePriorityRef(payload.WeeklyPriorityID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "周重点 ID 必须为字符串")
		return service.TaskInput{}, false
	}

	return service.TaskInput{
		Title:            payload.Title,
		Date:             payload.Date,
		Tag:              payload.Tag,
		Deadline:         payload.Deadline,
		ReminderTime:     payload.ReminderTime,
		Notes:            payload.Notes,
		Link:             payload.Link,
		LinkRefs:         payload.LinkRefs,
		FileRefs:         payload.FileRefs,
		WeeklyPriorityID: priorityID,
	}, true
}

// parsePriorityRef 只接受字符串或 null；数字等其他类型在写入前即被拒绝
func parsePriorityRef(raw json.RawMessage) (*string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var id string
	if err := json.Unmarshal(trimmed, &id); err != nil {
		return nil, errPriorityRefType
	}
	return &id, nil
}

func taskToPayload(task db.DailyTask) gin.H {
	payload := gin.H{
		"id":                 task.ID,
		"title":              task.Title,
		"date":               task.Date,
		"tag":                task.Tag,
		"deadline":           optionalString(task.Deadline),
		"reminder_time":      task.ReminderTime,
		"notes":              task.Notes,
		"link":               task.Link,
		"link_refs":          nonNilStrings(task.LinkRefs),
		"file_refs":          nonNilStrings(task.FileRefs),
		"weekly_priority_id": optionalString(task.WeeklyPriorityID),
		"done":               task.Done,
		"created_at":         formatTimestamp(task.CreatedAt),
		"updated_at":         formatTimestamp(task.UpdatedAt),
	}

	if html, err := renderNotes(task.Notes); err == nil {
		payload["notes_html"] = html
	}
	return payload
}

func subtaskToPayload(subtask db.DailySubtask) gin.H {
	return gin.H{
		"id":         subtask.ID,
		"task_id":    subtask.TaskID,
		"title":      subtask.Title,
		"done":       subtask.Done,
		"created_at": formatTimestamp(subtask.CreatedAt),
		"updated_at": formatTimestamp(subtask.UpdatedAt),
	}
}

func serializeSubtasks(subtasks []db.DailySubtask) []gin.H {
	items := make([]gin.H, 0, len(subtasks))
	for _, subtask := range subtasks {
		items = append(items, subtaskToPayload(subtask))
	}
	return items
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
