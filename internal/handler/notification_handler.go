package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListNotifications 返回当前用户尚未忽略的提醒
func (a *API) ListNotifications(c *gin.Context) {
	pending, err := a.notifications.Pending(currentUserID(c))
	if err != nil {
		respondServiceError(c, err, "获取提醒失败")
		return
	}

	items := make([]gin.H, 0, len(pending))
	for _, item := range pending {
		items = append(items, gin.H{
			"id":         item.ID,
			"habit_id":   item.HabitID,
			"habit_name": item.HabitName,
			"date":       item.Date,
			"remaining":  item.Remaining,
			"created_at": formatTimestamp(item.CreatedAt),
		})
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// DismissNotification 忽略一条提醒
func (a *API) DismissNotification(c *gin.Context) {
	if err := a.notifications.Dismiss(currentUserID(c), c.Param("id")); err != nil {
		respondServiceError(c, err, "忽略提醒失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"dismissed": true})
}

// ScanDueHabits 由定时任务调用，扫描所有用户在 date（默认今天）到期未完成的习惯
func (a *API) ScanDueHabits(c *gin.Context) {
	date, ok := queryDate(c, "date", a.today())
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return
	}

	report, err := a.notifications.ScanDue(c.Request.Context(), date)
	if err != nil {
		respondServiceError(c, err, "扫描到期习惯失败")
		return
	}

	due := make([]gin.H, 0, len(report.Due))
	for _, item := range report.Due {
		due = append(due, gin.H{
			"user_id":    item.UserID,
			"habit_id":   item.HabitID,
			"habit_name": item.HabitName,
			"target":     item.Target,
			"value":      item.Value,
			"remaining":  item.Remaining,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"date":           report.Date,
		"users_scanned":  report.UsersScanned,
		"habits_scanned": report.HabitsScanned,
		"due":            due,
	})
}

// Healthz 检查数据库连接
func (a *API) Healthz(c *gin.Context) {
	if a.db == nil {
		respondError(c, http.StatusServiceUnavailable, "数据库未初始化")
		return
	}
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		logRequestError(c, err)
		respondError(c, http.StatusServiceUnavailable, "数据库不可用")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
