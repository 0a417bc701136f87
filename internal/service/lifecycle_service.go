package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dailyfocus/internal/config"
	"github.com/dailyfocus/internal/db"
	"github.com/dailyfocus/internal/progress"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MaxBatchWrites 是单个事务内最多写入/删除的记录数
const MaxBatchWrites = 450

// LifecycleService 负责级联删除与批量移动。
// 先分批清理依赖记录（每批一个事务，下一批在上一批提交后才读取），最后删除父记录；
// 中途失败时已提交的批次保持删除，父记录保留，整体重试可以收敛。
type LifecycleService struct {
	db        *gorm.DB
	batchSize int
}

// HabitDeleteResult 汇总习惯删除结果
type HabitDeleteResult struct {
	HabitDeleted       bool
	CompletionsDeleted int
}

// GoalDeleteResult 汇总目标删除结果
type GoalDeleteResult struct {
	GoalDeleted        bool
	HabitsDeleted      int
	CompletionsDeleted int
}

// TaskDeleteResult 汇总任务删除结果
type TaskDeleteResult struct {
	TaskDeleted     bool
	SubtasksDeleted int
}

// PriorityDeleteResult 汇总周重点删除结果
type PriorityDeleteResult struct {
	PriorityDeleted bool
	TasksUnlinked   int
}

// PartialDeleteError 表示级联操作在某个阶段失败，之前已提交的批次不会回滚
type PartialDeleteError struct {
	Op    string
	Stage string
	Err   error
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Op, e.Stage, e.Err)
}

func (e *PartialDeleteError) Unwrap() error {
	return e.Err
}

// NewLifecycleService 构造 LifecycleService
func NewLifecycleService(gdb *gorm.DB) *LifecycleService {
	return &LifecycleService{db: gdb, batchSize: MaxBatchWrites}
}

// DeleteHabit 分批删除习惯的打卡记录与提醒事件，然后删除习惯本身
func (s *LifecycleService) DeleteHabit(ctx context.Context, userID uint, habitID string) (HabitDeleteResult, error) {
	var result HabitDeleteResult

	var habit db.Habit
	if err := scoped(s.db.WithContext(ctx), userID).Select("id").First(&habit, "id = ?", habitID).Error; err != nil {
		return result, notFound(err, ErrHabitNotFound, "find habit")
	}

	deleted, err := s.purgeHabitDependents(ctx, userID, habit.ID)
	result.CompletionsDeleted = deleted
	if err != nil {
		return result, &PartialDeleteError{Op: "delete habit", Stage: "purge completions", Err: err}
	}

	if err := scoped(s.db.WithContext(ctx), userID).Where("id = ?", habit.ID).Delete(&db.Habit{}).Error; err != nil {
		return result, &PartialDeleteError{Op: "delete habit", Stage: "delete habit", Err: err}
	}
	result.HabitDeleted = true

	config.Logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"habit_id":    habit.ID,
		"completions": result.CompletionsDeleted,
	}).Info("habit deleted")
	return result, nil
}

// DeleteGoal 依次清理每个习惯的打卡记录，再分批删除习惯，最后删除目标
func (s *LifecycleService) DeleteGoal(ctx context.Context, userID uint, goalID string) (GoalDeleteResult, error) {
	var result GoalDeleteResult

	var goal db.Goal
	if err := scoped(s.db.WithContext(ctx), userID).Select("id").First(&goal, "id = ?", goalID).Error; err != nil {
		return result, notFound(err, ErrGoalNotFound, "find goal")
	}

	var habitIDs []string
	if err := scoped(s.db.WithContext(ctx).Model(&db.Habit{}), userID).
		Where("goal_id = ?", goal.ID).
		Order("id ASC").
		Pluck("id", &habitIDs).Error; err != nil {
		return result, fmt.Errorf("list goal habits: %w", err)
	}

	for _, habitID := range habitIDs {
		deleted, err := s.purgeHabitDependents(ctx, userID, habitID)
		result.CompletionsDeleted += deleted
		if err != nil {
			return result, &PartialDeleteError{Op: "delete goal", Stage: "purge completions", Err: err}
		}
	}

	for _, chunk := range chunkStrings(habitIDs, s.batchSize) {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return scoped(tx, userID).Where("id IN ?", chunk).Delete(&db.Habit{}).Error
		})
		if err != nil {
			return result, &PartialDeleteError{Op: "delete goal", Stage: "delete habits", Err: err}
		}
		result.HabitsDeleted += len(chunk)
	}

	if err := scoped(s.db.WithContext(ctx), userID).Where("id = ?", goal.ID).Delete(&db.Goal{}).Error; err != nil {
		return result, &PartialDeleteError{Op: "delete goal", Stage: "delete goal", Err: err}
	}
	result.GoalDeleted = true

	config.Logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"goal_id":     goal.ID,
		"habits":      result.HabitsDeleted,
		"completions": result.CompletionsDeleted,
	}).Info("goal deleted")
	return result, nil
}

// DeleteTask 分批删除子任务，然后删除任务
func (s *LifecycleService) DeleteTask(ctx context.Context, userID uint, taskID string) (TaskDeleteResult, error) {
	var result TaskDeleteResult

	var task db.DailyTask
	if err := scoped(s.db.WithContext(ctx), userID).Select("id").First(&task, "id = ?", taskID).Error; err != nil {
		return result, notFound(err, ErrTaskNotFound, "find task")
	}

	deleted, err := s.purgeBatches(ctx, &db.DailySubtask{}, func(tx *gorm.DB) *gorm.DB {
		return scoped(tx, userID).Where("task_id = ?", task.ID)
	})
	result.SubtasksDeleted = deleted
	if err != nil {
		return result, &PartialDeleteError{Op: "delete task", Stage: "purge subtasks", Err: err}
	}

	if err := scoped(s.db.WithContext(ctx), userID).Where("id = ?", task.ID).Delete(&db.DailyTask{}).Error; err != nil {
		return result, &PartialDeleteError{Op: "delete task", Stage: "delete task", Err: err}
	}
	result.TaskDeleted = true
	return result, nil
}

// DeletePriority 删除周重点。unlinkTasks 为 true 时先分批解除任务上的关联，默认保留任务引用不动。
func (s *LifecycleService) DeletePriority(ctx context.Context, userID uint, priorityID string, unlinkTasks bool) (PriorityDeleteResult, error) {
	var result PriorityDeleteResult

	var priority db.WeeklyPriority
	if err := scoped(s.db.WithContext(ctx), userID).Select("id").First(&priority, "id = ?", priorityID).Error; err != nil {
		return result, notFound(err, ErrPriorityNotFound, "find weekly priority")
	}

	if unlinkTasks {
		unlinked, err := s.updateBatches(ctx, func(tx *gorm.DB) *gorm.DB {
			return scoped(tx, userID).Where("weekly_priority_id = ?", priority.ID)
		}, map[string]any{"weekly_priority_id": nil})
		result.TasksUnlinked = unlinked
		if err != nil {
			return result, &PartialDeleteError{Op: "delete priority", Stage: "unlink tasks", Err: err}
		}
	}

	if err := scoped(s.db.WithContext(ctx), userID).Where("id = ?", priority.ID).Delete(&db.WeeklyPriority{}).Error; err != nil {
		return result, &PartialDeleteError{Op: "delete priority", Stage: "delete priority", Err: err}
	}
	result.PriorityDeleted = true
	return result, nil
}

// MoveTask 将任务移动到 date；若新日期不在关联周重点的那一周内，则解除关联
func (s *LifecycleService) MoveTask(ctx context.Context, userID uint, taskID, date string) (*db.DailyTask, error) {
	day, err := normalizeDate(date, "date")
	if err != nil {
		return nil, err
	}

	var task db.DailyTask
	if err := scoped(s.db.WithContext(ctx), userID).First(&task, "id = ?", taskID).Error; err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}

	updates := map[string]any{"date": day}
	if task.WeeklyPriorityID != nil {
		keep, err := s.priorityCoversDate(ctx, userID, *task.WeeklyPriorityID, day)
		if err != nil {
			return nil, err
		}
		if !keep {
			updates["weekly_priority_id"] = nil
		}
	}

	if err := s.db.WithContext(ctx).Model(&task).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("move task: %w", err)
	}

	task.Date = day
	if _, unlinked := updates["weekly_priority_id"]; unlinked {
		task.WeeklyPriorityID = nil
	}
	return &task, nil
}

// RollOverTasks 将 from 当天所有未完成的任务分批移动到 to，跨周时解除周重点关联
func (s *LifecycleService) RollOverTasks(ctx context.Context, userID uint, from, to string) (int, error) {
	fromDay, err := normalizeDate(from, "from")
	if err != nil {
		return 0, err
	}
	toDay, err := normalizeDate(to, "to")
	if err != nil {
		return 0, err
	}
	if fromDay == toDay {
		return 0, nil
	}

	updates := map[string]any{"date": toDay}
	if !sameWeek(fromDay, toDay) {
		updates["weekly_priority_id"] = nil
	}

	moved, err := s.updateBatches(ctx, func(tx *gorm.DB) *gorm.DB {
		return scoped(tx, userID).Where("date = ? AND done = ?", fromDay, false)
	}, updates)
	if err != nil {
		return moved, &PartialDeleteError{Op: "roll over tasks", Stage: "move tasks", Err: err}
	}
	return moved, nil
}

// purgeHabitDependents 清理单个习惯的打卡记录与提醒事件，返回删除的打卡数
func (s *LifecycleService) purgeHabitDependents(ctx context.Context, userID uint, habitID string) (int, error) {
	deleted, err := s.purgeBatches(ctx, &db.HabitCompletion{}, func(tx *gorm.DB) *gorm.DB {
		return scoped(tx, userID).Where("habit_id = ?", habitID)
	})
	if err != nil {
		return deleted, err
	}

	if _, err := s.purgeBatches(ctx, &db.NotificationEvent{}, func(tx *gorm.DB) *gorm.DB {
		return scoped(tx, userID).Where("habit_id = ?", habitID)
	}); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// purgeBatches 反复读取至多 batchSize 条匹配记录的 ID 并在单个事务中删除，直到没有剩余
func (s *LifecycleService) purgeBatches(ctx context.Context, model any, filter func(*gorm.DB) *gorm.DB) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		var ids []string
		if err := filter(s.db.WithContext(ctx).Model(model)).
			Order("id ASC").
			Limit(s.batchSize).
			Pluck("id", &ids).Error; err != nil {
			return total, fmt.Errorf("load batch: %w", err)
		}
		if len(ids) == 0 {
			return total, nil
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Where("id IN ?", ids).Delete(model).Error
		})
		if err != nil {
			return total, fmt.Errorf("commit batch: %w", err)
		}
		total += len(ids)

		config.Logger.WithFields(logrus.Fields{
			"table": tableName(s.db, model),
			"batch": len(ids),
			"total": total,
		}).Debug("purged batch")
	}
}

// updateBatches 与 purgeBatches 相同的分页方式批量更新任务；updates 必须让记录脱离 filter 的匹配范围
func (s *LifecycleService) updateBatches(ctx context.Context, filter func(*gorm.DB) *gorm.DB, updates map[string]any) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		var ids []string
		if err := filter(s.db.WithContext(ctx).Model(&db.DailyTask{})).
			Order("id ASC").
			Limit(s.batchSize).
			Pluck("id", &ids).Error; err != nil {
			return total, fmt.Errorf("load batch: %w", err)
		}
		if len(ids) == 0 {
			return total, nil
		}

		values := make(map[string]any, len(updates)+1)
		for key, value := range updates {
			values[key] = value
		}
		values["updated_at"] = time.Now()

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Model(&db.DailyTask{}).Where("id IN ?", ids).Updates(values).Error
		})
		if err != nil {
			return total, fmt.Errorf("commit batch: %w", err)
		}
		total += len(ids)
	}
}

func (s *LifecycleService) priorityCoversDate(ctx context.Context, userID uint, priorityID, day string) (bool, error) {
	var priority db.WeeklyPriority
	err := scoped(s.db.WithContext(ctx), userID).Select("id", "week_start").First(&priority, "id = ?", priorityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find weekly priority: %w", err)
	}
	return sameWeek(priority.WeekStart, day), nil
}

func sameWeek(a, b string) bool {
	dayA, errA := progress.ParseDate(a)
	dayB, errB := progress.ParseDate(b)
	if errA != nil || errB != nil {
		return false
	}
	return progress.WeekStart(dayA).Equal(progress.WeekStart(dayB))
}

func chunkStrings(values []string, size int) [][]string {
	if size <= 0 {
		size = MaxBatchWrites
	}
	var chunks [][]string
	for start := 0; start < len(values); start += size {
		end := min(start+size, len(values))
		chunks = append(chunks, values[start:end])
	}
	return chunks
}

func tableName(gdb *gorm.DB, model any) string {
	stmt := &gorm.Statement{DB: gdb}
	if err := stmt.Parse(model); err != nil {
		return fmt.Sprintf("%T", model)
	}
	return stmt.Schema.Table
}
