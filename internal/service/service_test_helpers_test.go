package service

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dailyfocus/internal/db"
	"github.com/dailyfocus/internal/progress"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:service-%d-%d?mode=memory&cache=shared", time.Now().UnixNano(), testDBSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb
	t.Cleanup(func() {
		sqlDB.Close()
	})
	return gdb
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	day, err := progress.ParseDate(value)
	if err != nil {
		t.Fatalf("invalid test date %q: %v", value, err)
	}
	return day
}

func seedGoal(t *testing.T, gdb *gorm.DB, userID uint, title string, targetDate *string) *db.Goal {
	t.Helper()
	goal, err := NewGoalService(gdb).Create(userID, GoalInput{Title: title, TargetDate: targetDate})
	if err != nil {
		t.Fatalf("failed to seed goal: %v", err)
	}
	return goal
}

func seedHabit(t *testing.T, gdb *gorm.DB, userID uint, goalID string, input HabitInput) *db.Habit {
	t.Helper()
	habit, err := NewHabitService(gdb).Add(userID, goalID, input)
	if err != nil {
		t.Fatalf("failed to seed habit: %v", err)
	}
	return habit
}

// seedCompletions 直接写入 days 条连续日期的打卡记录，起始于 start
func seedCompletions(t *testing.T, gdb *gorm.DB, userID uint, habitID string, start time.Time, days int, value float64) {
	t.Helper()
	rows := make([]db.HabitCompletion, 0, days)
	for i := 0; i < days; i++ {
		date := progress.FormatDate(start.AddDate(0, 0, i))
		rows = append(rows, db.HabitCompletion{
			ID:      db.CompletionID(habitID, date),
			UserID:  userID,
			HabitID: habitID,
			Date:    date,
			Value:   value,
		})
	}
	if err := gdb.CreateInBatches(rows, 100).Error; err != nil {
		t.Fatalf("failed to seed completions: %v", err)
	}
}

func countRows(t *testing.T, gdb *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var count int64
	tx := gdb.Model(model)
	if query != "" {
		tx = tx.Where(query, args...)
	}
	if err := tx.Count(&count).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return count
}

func stringPtr(value string) *string {
	return &value
}
