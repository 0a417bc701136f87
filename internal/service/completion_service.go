package service

import (
	"fmt"
	"time"

	"github.com/dailyfocus/internal/db"
	"github.com/dailyfocus/internal/progress"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompletionService 负责打卡累计值（按习惯 + 日期）的读写与统计
type CompletionService struct {
	db *gorm.DB
}

// HeatmapEntry 表示热力图中的单日打卡数据
type HeatmapEntry struct {
	Date      string
	HabitID   string
	HabitName string
	Value     float64
}

// CompletionFilter 指定查询区间
type CompletionFilter struct {
	HabitID string
	Start   time.Time
	End     time.Time
}

// HabitStats 汇总区间内的基础统计数据
type HabitStats struct {
	RangeStart     time.Time
	RangeEnd       time.Time
	TotalValue     float64
	CompletedDays  int
	ScheduledDays  int
	CompletionRate float64
	CurrentStreak  int
	LongestStreak  int
}

// NewCompletionService 构造 CompletionService
func NewCompletionService(gdb *gorm.DB) *CompletionService {
	return &CompletionService{db: gdb}
}

// Apply 将 delta 累加到 habitID 在 date 当天的记录上。
// 累加后的值 <= 0 时删除该记录并返回 nil；否则返回写入后的记录（保留原创建时间）。
// 累加通过 ON CONFLICT DO UPDATE 在单个事务中完成，并发的两次打卡不会互相覆盖。
func (s *CompletionService) Apply(userID uint, habitID, date string, delta float64) (*db.HabitCompletion, error) {
	day, err := normalizeDate(date, "date")
	if err != nil {
		return nil, err
	}
	if !validNumber(delta) || delta == 0 {
		return nil, invalidf("delta must be a non-zero number")
	}

	var habit db.Habit
	if err := scoped(s.db, userID).Select("id").First(&habit, "id = ?", habitID).Error; err != nil {
		return nil, notFound(err, ErrHabitNotFound, "find habit")
	}

	id := db.CompletionID(habitID, day)
	var result *db.HabitCompletion

	err = s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		row := db.HabitCompletion{
			ID:        id,
			UserID:    userID,
			HabitID:   habitID,
			Date:      day,
			Value:     delta,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      gorm.Expr("habit_completions.value + excluded.value"),
				"updated_at": now,
			}),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("upsert completion: %w", err)
		}

		var stored db.HabitCompletion
		if err := tx.First(&stored, "id = ?", id).Error; err != nil {
			return fmt.Errorf("reload completion: %w", err)
		}

		if stored.Value <= 0 {
			if err := tx.Delete(&db.HabitCompletion{}, "id = ?", id).Error; err != nil {
				return fmt.Errorf("delete drained completion: %w", err)
			}
			return nil
		}

		result = &stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ValuesForHabit 返回某个习惯全部日期的累计值
func (s *CompletionService) ValuesForHabit(userID uint, habitID string) (map[string]float64, error) {
	var rows []db.HabitCompletion
	if err := scoped(s.db, userID).Where("habit_id = ?", habitID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list completions for habit: %w", err)
	}

	values := make(map[string]float64, len(rows))
	for _, row := range rows {
		values[row.Date] = row.Value
	}
	return values, nil
}

// ValuesForDate 返回某一天所有习惯的累计值，键为习惯 ID
func (s *CompletionService) ValuesForDate(userID uint, date string) (map[string]float64, error) {
	day, err := normalizeDate(date, "date")
	if err != nil {
		return nil, err
	}

	var rows []db.HabitCompletion
	if err := scoped(s.db, userID).Where("date = ?", day).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list completions for date: %w", err)
	}

	values := make(map[string]float64, len(rows))
	for _, row := range rows {
		values[row.HabitID] = row.Value
	}
	return values, nil
}

// ListBetween 返回指定区间内的打卡记录
func (s *CompletionService) ListBetween(userID uint, filter CompletionFilter) ([]db.HabitCompletion, error) {
	if filter.HabitID == "" {
		return nil, invalidf("habit id is required")
	}

	start, end := dayRange(filter.Start, filter.End)

	var rows []db.HabitCompletion
	if err := scoped(s.db, userID).
		Where("habit_id = ?", filter.HabitID).
		Where("date BETWEEN ? AND ?", start, end).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}

	return rows, nil
}

// HeatmapRange 返回指定区间内所有习惯的打卡数据
func (s *CompletionService) HeatmapRange(userID uint, start, end time.Time) ([]HeatmapEntry, error) {
	if progress.DayOf(end).Before(progress.DayOf(start)) {
		return nil, invalidf("invalid range: end before start")
	}

	from, to := dayRange(start, end)

	var rows []HeatmapEntry
	if err := s.db.Model(&db.HabitCompletion{}).
		Select("habit_completions.date AS date, habit_completions.habit_id AS habit_id, habits.name AS habit_name, habit_completions.value AS value").
		Joins("JOIN habits ON habits.id = habit_completions.habit_id").
		Where("habit_completions.user_id = ?", userID).
		Where("habit_completions.date BETWEEN ? AND ?", from, to).
		Order("habit_completions.date ASC, habits.name ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list heatmap completions: %w", err)
	}

	return rows, nil
}

// StatsBetween 计算区间内的达标天数、计划天数及连胜
func (s *CompletionService) StatsBetween(userID uint, habit db.Habit, start, end time.Time) (*HabitStats, error) {
	rows, err := s.ListBetween(userID, CompletionFilter{HabitID: habit.ID, Start: start, End: end})
	if err != nil {
		return nil, err
	}

	values := make(map[string]float64, len(rows))
	stats := &HabitStats{RangeStart: start, RangeEnd: end}
	for _, row := range rows {
		values[row.Date] = row.Value
		stats.TotalValue += row.Value
		if row.Value >= habit.Target {
			stats.CompletedDays++
		}
	}

	stats.ScheduledDays = progress.ScheduledDays(habit.ScheduleMask, start, end)
	if stats.ScheduledDays > 0 {
		stats.CompletionRate = float64(stats.CompletedDays) / float64(stats.ScheduledDays)
	}

	// 当前连胜需要越过区间起点继续回溯
	all, err := s.ValuesForHabit(userID, habit.ID)
	if err != nil {
		return nil, err
	}
	stats.CurrentStreak = progress.Streak(all, habit.Target, end, progress.EarliestDate(all))
	stats.LongestStreak = progress.LongestStreak(values, habit.Target, start, end)

	return stats, nil
}
