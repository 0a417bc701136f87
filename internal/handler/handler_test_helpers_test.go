package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dailyfocus/internal/db"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type handlerTestEnv struct {
	db     *gorm.DB
	api    *API
	router *gin.Engine
	token  string
}

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	db.DB = gdb
	t.Cleanup(func() {
		sqlDB.Close()
	})
	return gdb
}

// newHandlerTestEnv 构造与线上一致的受保护路由，并为 alice 签发访问令牌
func newHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb := setupHandlerTestDB(t)
	if _, err := db.EnsureUser("alice", "password"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	api := NewAPI(gdb, Options{TokenSecret: "test-secret", TokenTTL: time.Hour, CronSecret: "cron-secret", UploadDir: t.TempDir()})
	api.now = func() time.Time { return time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC) }

	r := gin.New()
	r.Use(sessions.Sessions("dailyfocus_session", cookie.NewStore([]byte("test-secret"))))
	r.POST("/auth/login", api.Login)
	r.POST("/auth/logout", api.Logout)
	r.POST("/cron/due-habits", api.CronSecretRequired(), api.ScanDueHabits)

	group := r.Group("/api", api.AuthRequired())
	group.GET("/me", api.Me)
	group.GET("/goals", api.ListGoals)
	group.POST("/goals", api.CreateGoal)
	group.DELETE("/goals/:id", api.DeleteGoal)
	group.GET("/goals/:id/progress", api.GetGoalProgress)
	group.GET("/goals/:id/habits", api.ListGoalHabits)
	group.POST("/goals/:id/habits", api.CreateHabit)
	group.GET("/habits/heatmap", api.GetHabitHeatmap)
	group.POST("/habits/:id/completions", api.RecordCompletion)
	group.GET("/habits/:id/calendar", api.GetHabitCalendar)
	group.GET("/priorities", api.ListPriorities)
	group.POST("/priorities", api.CreatePriority)
	group.DELETE("/priorities/:id", api.DeletePriority)
	group.GET("/tasks", api.ListTasks)
	group.GET("/tasks/range", api.ListTasksInRange)
	group.POST("/tasks", api.CreateTask)
	group.PUT("/tasks/:id", api.UpdateTask)
	group.PATCH("/tasks/:id/done", api.SetTaskDone)
	group.POST("/tasks/:id/move", api.MoveTask)
	group.POST("/tasks/:id/subtasks", api.AddSubtask)
	group.DELETE("/tasks/:id", api.DeleteTask)
	group.POST("/uploads", api.UploadAttachment)
	group.GET("/uploads/:name", api.ServeAttachment)
	group.GET("/notifications", api.ListNotifications)
	group.POST("/notifications/:id/dismiss", api.DismissNotification)

	env := &handlerTestEnv{db: gdb, api: api, router: r}

	rr := env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "alice", "password": "password"})
	if rr.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rr.Code, rr.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	decodeBody(t, rr, &login)
	env.token = login.Token
	return env
}

func (e *handlerTestEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rr.Code, rr.Body.String())
	}
}
