package handler

import (
	"strings"
	"time"

	"github.com/dailyfocus/internal/progress"
	"github.com/dailyfocus/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db            *gorm.DB
	goals         *service.GoalService
	habits        *service.HabitService
	completions   *service.CompletionService
	priorities    *service.PriorityService
	tasks         *service.TaskService
	lifecycle     *service.LifecycleService
	notifications *service.NotificationService
	users         *service.UserService
	tokens        *service.TokenService
	cronSecret    string
	uploadDir     string
	now           func() time.Time
}

// Options 汇总构造 API 时需要的外部配置
type Options struct {
	TokenSecret string
	TokenTTL    time.Duration
	CronSecret  string
	UploadDir   string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	uploadDir := strings.TrimSpace(opts.UploadDir)
	if uploadDir == "" {
		uploadDir = "uploads"
	}

	completions := service.NewCompletionService(gdb)

	return &API{
		db:            gdb,
		goals:         service.NewGoalService(gdb),
		habits:        service.NewHabitService(gdb),
		completions:   completions,
		priorities:    service.NewPriorityService(gdb),
		tasks:         service.NewTaskService(gdb),
		lifecycle:     service.NewLifecycleService(gdb),
		notifications: service.NewNotificationService(gdb, completions),
		users:         service.NewUserService(gdb),
		tokens:        service.NewTokenService(opts.TokenSecret, opts.TokenTTL),
		cronSecret:    opts.CronSecret,
		uploadDir:     uploadDir,
		now:           time.Now,
	}
}

// today 返回 UTC 日历上的当天
func (a *API) today() time.Time {
	return progress.DayOf(a.now().UTC())
}
