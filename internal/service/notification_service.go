package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dailyfocus/internal/config"
	"github.com/dailyfocus/internal/db"
	"github.com/dailyfocus/internal/progress"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationService 负责"到期未完成"提醒：定时扫描写入事件，用户侧读取/忽略
type NotificationService struct {
	db          *gorm.DB
	completions *CompletionService
}

// DueItem 表示某个用户某个习惯在扫描日仍需完成的量
type DueItem struct {
	UserID    uint    `json:"user_id"`
	HabitID   string  `json:"habit_id"`
	HabitName string  `json:"habit_name"`
	Target    float64 `json:"target"`
	Value     float64 `json:"value"`
	Remaining float64 `json:"remaining"`
}

// DueReport 汇总一次扫描的结果
type DueReport struct {
	Date          string    `json:"date"`
	UsersScanned  int       `json:"users_scanned"`
	HabitsScanned int       `json:"habits_scanned"`
	Due           []DueItem `json:"due"`
}

// PendingNotification 是提醒事件与习惯名称的联表结果
type PendingNotification struct {
	ID        string
	HabitID   string
	HabitName string
	Date      string
	Remaining float64
	CreatedAt time.Time
}

// NewNotificationService 构造 NotificationService
func NewNotificationService(gdb *gorm.DB, completions *CompletionService) *NotificationService {
	if completions == nil {
		completions = NewCompletionService(gdb)
	}
	return &NotificationService{db: gdb, completions: completions}
}

// ScanDue 遍历所有用户的习惯，找出 date 当天到期且未达标的习惯并记录提醒事件。
// 已达标的习惯会清除当天遗留的提醒；用户被忽略的提醒只刷新剩余量，不会重新出现。
func (s *NotificationService) ScanDue(ctx context.Context, date time.Time) (*DueReport, error) {
	day := progress.FormatDate(date)
	report := &DueReport{Date: day, Due: []DueItem{}}

	var userIDs []uint
	if err := s.db.WithContext(ctx).Model(&db.Habit{}).Distinct().Order("user_id ASC").Pluck("user_id", &userIDs).Error; err != nil {
		return nil, fmt.Errorf("list habit owners: %w", err)
	}

	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		items, scanned, err := s.scanUser(ctx, userID, day, date)
		if err != nil {
			return nil, err
		}
		report.UsersScanned++
		report.HabitsScanned += scanned
		report.Due = append(report.Due, items...)
	}

	config.Logger.WithFields(logrus.Fields{
		"date":   day,
		"users":  report.UsersScanned,
		"habits": report.HabitsScanned,
		"due":    len(report.Due),
	}).Info("due habit scan finished")
	return report, nil
}

func (s *NotificationService) scanUser(ctx context.Context, userID uint, day string, date time.Time) ([]DueItem, int, error) {
	var habits []db.Habit
	if err := scoped(s.db.WithContext(ctx), userID).Order("created_at ASC").Find(&habits).Error; err != nil {
		return nil, 0, fmt.Errorf("list habits: %w", err)
	}

	values, err := s.completions.ValuesForDate(userID, day)
	if err != nil {
		return nil, 0, err
	}

	var items []DueItem
	var settled []string
	for _, habit := range habits {
		value := values[habit.ID]
		if !progress.IsDue(habit.ScheduleMask, date) || value >= habit.Target {
			settled = append(settled, db.CompletionID(habit.ID, day))
			continue
		}
		items = append(items, DueItem{
			UserID:    userID,
			HabitID:   habit.ID,
			HabitName: habit.Name,
			Target:    habit.Target,
			Value:     value,
			Remaining: habit.Target - value,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, chunk := range chunkStrings(settled, MaxBatchWrites) {
			if err := scoped(tx, userID).Where("id IN ?", chunk).Delete(&db.NotificationEvent{}).Error; err != nil {
				return fmt.Errorf("clear settled notifications: %w", err)
			}
		}

		now := time.Now()
		for _, item := range items {
			event := db.NotificationEvent{
				ID:        db.CompletionID(item.HabitID, day),
				UserID:    userID,
				HabitID:   item.HabitID,
				Date:      day,
				Remaining: item.Remaining,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"remaining", "updated_at"}),
			}).Create(&event).Error; err != nil {
				return fmt.Errorf("record notification: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return items, len(habits), nil
}

// Pending 返回用户尚未忽略的提醒，附带习惯名称
func (s *NotificationService) Pending(userID uint) ([]PendingNotification, error) {
	var rows []PendingNotification
	if err := s.db.Model(&db.NotificationEvent{}).
		Select("notification_events.id AS id, notification_events.habit_id AS habit_id, habits.name AS habit_name, notification_events.date AS date, notification_events.remaining AS remaining, notification_events.created_at AS created_at").
		Joins("JOIN habits ON habits.id = notification_events.habit_id").
		Where("notification_events.user_id = ?", userID).
		Where("notification_events.dismissed_at IS NULL").
		Order("notification_events.date DESC, habits.name ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	return rows, nil
}

// Dismiss 忽略一条提醒
func (s *NotificationService) Dismiss(userID uint, id string) error {
	res := scoped(s.db.Model(&db.NotificationEvent{}), userID).
		Where("id = ?", id).
		Update("dismissed_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("dismiss notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
