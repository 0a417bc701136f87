package db

import "time"

// 习惯类型
const (
	HabitTypeCheckbox = "checkbox"
	HabitTypeCounter  = "counter"
)

// Goal 定义了目标模型，目标下挂若干习惯，删除目标时级联删除习惯与打卡
// TargetDate 为空表示滚动周模式，非空表示截止日期模式
type Goal struct {
	Record
	Category    string
	Title       string `gorm:"not null"`
	Description string
	TargetDate  *string `gorm:"size:10"`
}

// Habit 定义了习惯模型
// ScheduleMask 为 7 个字符（周一到周日），'-' 表示当天不安排
// Target 对 checkbox 习惯通常为 1，对 counter 习惯为每日目标次数
type Habit struct {
	Record
	GoalID       string `gorm:"index;not null"`
	Name         string `gorm:"not null"`
	Type         string `gorm:"size:16;not null"`
	Target       float64
	ScheduleMask string `gorm:"size:32"`
}

// HabitCompletion 记录某个习惯在某一天的累计值
// ID 固定为 "{habitId}:{date}"，保证每个习惯每天至多一条；Value 为当天累计总量而非增量
type HabitCompletion struct {
	ID        string  `gorm:"primaryKey;size:128"`
	UserID    uint    `gorm:"index;not null"`
	HabitID   string  `gorm:"index;not null"`
	Date      string  `gorm:"index;size:10;not null"`
	Value     float64 `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CompletionID 生成打卡记录的组合主键
func CompletionID(habitID, date string) string {
	return habitID + ":" + date
}

// NotificationEvent 表示一次"到期但未完成"的提醒，由定时扫描写入
// ID 与打卡记录相同，为 "{habitId}:{date}"，重复扫描只会刷新 Remaining
type NotificationEvent struct {
	ID          string `gorm:"primaryKey;size:128"`
	UserID      uint   `gorm:"index;not null"`
	HabitID     string `gorm:"index;not null"`
	Date        string `gorm:"index;size:10;not null"`
	Remaining   float64
	DismissedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
