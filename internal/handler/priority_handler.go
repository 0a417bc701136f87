package handler

import (
	"net/http"
	"strconv"

	"github.com/dailyfocus/internal/db"
	"github.com/dailyfocus/internal/progress"
	"github.com/dailyfocus/internal/service"
	"github.com/gin-gonic/gin"
)

type priorityPayload struct {
	Title     string `json:"title"`
	WeekStart string `json:"week_start"`
	Tag       string `json:"tag"`
	Level     string `json:"level"`
}

// ListPriorities 返回 week 所在周的周重点及完成度
func (a *API) ListPriorities(c *gin.Context) {
	week, ok := queryDate(c, "week", a.today())
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的周起始日期")
		return
	}

	items, err := a.priorities.ListForWeek(currentUserID(c), week)
	if err != nil {
		respondServiceError(c, err, "获取周重点失败")
		return
	}

	priorities := make([]gin.H, 0, len(items))
	for _, item := range items {
		payload := priorityToPayload(item.Priority)
		payload["progress"] = gin.H{
			"percent":   item.Progress.Percent,
			"completed": item.Progress.Completed,
			"total":     item.Progress.Total,
			"done":      item.Progress.Done,
		}
		priorities = append(priorities, payload)
	}
	c.JSON(http.StatusOK, gin.H{
		"week_start": progress.FormatDate(progress.WeekStart(week)),
		"priorities": priorities,
	})
}

// CreatePriority 创建周重点
func (a *API) CreatePriority(c *gin.Context) {
	var payload priorityPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	priority, err := a.priorities.Create(currentUserID(c), service.PriorityInput(payload))
	if err != nil {
		respondServiceError(c, err, "创建周重点失败")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"priority": priorityToPayload(*priority)})
}

// UpdatePriority 更新周重点
func (a *API) UpdatePriority(c *gin.Context) {
	var payload priorityPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	priority, err := a.priorities.Update(currentUserID(c), c.Param("id"), service.PriorityInput(payload))
	if err != nil {
		respondServiceError(c, err, "更新周重点失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"priority": priorityToPayload(*priority)})
}

// DeletePriority 删除周重点；unlink_tasks=1 时同时解除任务上的关联
func (a *API) DeletePriority(c *gin.Context) {
	unlink, err := strconv.ParseBool(c.DefaultQuery("unlink_tasks", "false"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "unlink_tasks 参数不合法")
		return
	}

	result, err := a.lifecycle.DeletePriority(c.Request.Context(), currentUserID(c), c.Param("id"), unlink)
	counts := gin.H{"tasks_unlinked": result.TasksUnlinked}
	if err != nil {
		respondPartial(c, err, "删除周重点失败", counts)
		return
	}

	counts["deleted"] = result.PriorityDeleted
	c.JSON(http.StatusOK, counts)
}

func priorityToPayload(priority db.WeeklyPriority) gin.H {
	return gin.H{
		"id":         priority.ID,
		"title":      priority.Title,
		"week_start": priority.WeekStart,
		"tag":        priority.Tag,
		"level":      priority.Level,
		"created_at": formatTimestamp(priority.CreatedAt),
		"updated_at": formatTimestamp(priority.UpdatedAt),
	}
}
