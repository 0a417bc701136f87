package router

import (
	"net/http"

	"github.com/dailyfocus/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "dailyfocus_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.New()
	r.Use(handler.RequestLogger(), gin.Recovery(), handler.LocaleMiddleware())

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	r.GET("/healthz", api.Healthz)

	auth := r.Group("/auth")
	{
		auth.POST("/login", api.Login)
		auth.POST("/logout", api.Logout)
	}

	cron := r.Group("/cron")
	cron.Use(api.CronSecretRequired())
	{
		cron.POST("/due-habits", api.ScanDueHabits)
	}

	// 需要认证的业务接口
	apiGroup := r.Group("/api")
	apiGroup.Use(api.AuthRequired())
	{
		apiGroup.GET("/me", api.Me)

		apiGroup.GET("/goals", api.ListGoals)
		apiGroup.POST("/goals", api.CreateGoal)
		apiGroup.PUT("/goals/:id", api.UpdateGoal)
		apiGroup.DELETE("/goals/:id", api.DeleteGoal)
		apiGroup.GET("/goals/:id/progress", api.GetGoalProgress)
		apiGroup.GET("/goals/:id/habits", api.ListGoalHabits)
		apiGroup.POST("/goals/:id/habits", api.CreateHabit)

		apiGroup.GET("/habits/heatmap", api.GetHabitHeatmap)
		apiGroup.PUT("/habits/:id", api.UpdateHabit)
		apiGroup.DELETE("/habits/:id", api.DeleteHabit)
		apiGroup.POST("/habits/:id/completions", api.RecordCompletion)
		apiGroup.GET("/habits/:id/calendar", api.GetHabitCalendar)

		apiGroup.GET("/priorities", api.ListPriorities)
		apiGroup.POST("/priorities", api.CreatePriority)
		apiGroup.PUT("/priorities/:id", api.UpdatePriority)
		apiGroup.DELETE("/priorities/:id", api.DeletePriority)

		apiGroup.GET("/tasks", api.ListTasks)
		apiGroup.GET("/tasks/range", api.ListTasksInRange)
		apiGroup.POST("/tasks", api.CreateTask)
		apiGroup.POST("/tasks/rollover", api.RollOverTasks)
		apiGroup.PUT("/tasks/:id", api.UpdateTask)
		apiGroup.PATCH("/tasks/:id/done", api.SetTaskDone)
		apiGroup.POST("/tasks/:id/move", api.MoveTask)
		apiGroup.DELETE("/tasks/:id", api.DeleteTask)
		apiGroup.POST("/tasks/:id/subtasks", api.AddSubtask)

		apiGroup.PATCH("/subtasks/:id", api.UpdateSubtask)
		apiGroup.DELETE("/subtasks/:id", api.DeleteSubtask)

		apiGroup.POST("/uploads", api.UploadAttachment)
		apiGroup.GET("/uploads/:name", api.ServeAttachment)

		apiGroup.GET("/notifications", api.ListNotifications)
		apiGroup.POST("/notifications/:id/dismiss", api.DismissNotification)
	}

	return r
}
