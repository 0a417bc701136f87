package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dailyfocus/internal/db"
	"github.com/dailyfocus/internal/progress"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// GoalService 负责目标的增删改查以及目标/习惯的进度汇总
type GoalService struct {
	db *gorm.DB
}

// GoalInput 定义创建/更新目标时可配置字段
type GoalInput struct {
	Category    string
	Title       string
	Description string
	TargetDate  *string
}

// HabitView 是某一天视角下的习惯状态
type HabitView struct {
	Habit      db.Habit
	DueToday   bool
	Completion *db.HabitCompletion
	Streak     int
}

// GoalWithHabits 汇总单个目标、其习惯以及进度
type GoalWithHabits struct {
	Goal     db.Goal
	Habits   []HabitView
	Progress progress.GoalResult
	// 当天到期但尚未达标的习惯数
	Remaining int
}

// NewGoalService 构造 GoalService
func NewGoalService(gdb *gorm.DB) *GoalService {
	return &GoalService{db: gdb}
}

// Get 根据 ID 获取目标
func (s *GoalService) Get(userID uint, id string) (*db.Goal, error) {
	var goal db.Goal
	if err := scoped(s.db, userID).First(&goal, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrGoalNotFound, "get goal")
	}
	return &goal, nil
}

// Create 新建目标
func (s *GoalService) Create(userID uint, input GoalInput) (*db.Goal, error) {
	normalized, err := validateGoalInput(input)
	if err != nil {
		return nil, err
	}

	goal := db.Goal{
		Record:      db.Record{UserID: userID},
		Category:    normalized.Category,
		Title:       normalized.Title,
		Description: normalized.Description,
		TargetDate:  normalized.TargetDate,
	}
	if err := s.db.Create(&goal).Error; err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return &goal, nil
}

// Update 更新目标
func (s *GoalService) Update(userID uint, id string, input GoalInput) (*db.Goal, error) {
	normalized, err := validateGoalInput(input)
	if err != nil {
		return nil, err
	}

	existing, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	existing.Category = normalized.Category
	existing.Title = normalized.Title
	existing.Description = normalized.Description
	existing.TargetDate = normalized.TargetDate

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return existing, nil
}

// GoalsWithHabits 读取全部目标、习惯与打卡记录，计算 date 当天每个习惯是否到期、
// 当天累计值、连胜以及目标进度。三类数据并行读取。
func (s *GoalService) GoalsWithHabits(ctx context.Context, userID uint, date time.Time) ([]GoalWithHabits, error) {
	var (
		goals       []db.Goal
		habits      []db.Habit
		completions []db.HabitCompletion
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := scoped(s.db.WithContext(gctx), userID).Order("created_at ASC").Find(&goals).Error; err != nil {
			return fmt.Errorf("list goals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := scoped(s.db.WithContext(gctx), userID).Order("created_at ASC").Find(&habits).Error; err != nil {
			return fmt.Errorf("list habits: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := scoped(s.db.WithContext(gctx), userID).Order("date ASC").Find(&completions).Error; err != nil {
			return fmt.Errorf("list completions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return assembleGoals(goals, habits, completions, date), nil
}

// Progress 计算单个目标在 today 的进度
func (s *GoalService) Progress(ctx context.Context, userID uint, goalID string, today time.Time) (progress.GoalResult, error) {
	goal, err := s.Get(userID, goalID)
	if err != nil {
		return progress.GoalResult{}, err
	}

	var habits []db.Habit
	if err := scoped(s.db.WithContext(ctx), userID).Where("goal_id = ?", goal.ID).Find(&habits).Error; err != nil {
		return progress.GoalResult{}, fmt.Errorf("list goal habits: %w", err)
	}

	var completions []db.HabitCompletion
	if len(habits) > 0 {
		ids := make([]string, 0, len(habits))
		for _, habit := range habits {
			ids = append(ids, habit.ID)
		}
		if err := scoped(s.db.WithContext(ctx), userID).Where("habit_id IN ?", ids).Find(&completions).Error; err != nil {
			return progress.GoalResult{}, fmt.Errorf("list goal completions: %w", err)
		}
	}

	return progress.GoalProgress(*goal, habits, progressWindow(*goal, completions, today), today), nil
}

func assembleGoals(goals []db.Goal, habits []db.Habit, completions []db.HabitCompletion, date time.Time) []GoalWithHabits {
	day := progress.FormatDate(date)

	habitsByGoal := make(map[string][]db.Habit)
	for _, habit := range habits {
		habitsByGoal[habit.GoalID] = append(habitsByGoal[habit.GoalID], habit)
	}

	valuesByHabit := make(map[string]map[string]float64)
	today := make(map[string]db.HabitCompletion)
	for _, completion := range completions {
		if valuesByHabit[completion.HabitID] == nil {
			valuesByHabit[completion.HabitID] = make(map[string]float64)
		}
		valuesByHabit[completion.HabitID][completion.Date] = completion.Value
		if completion.Date == day {
			today[completion.HabitID] = completion
		}
	}

	result := make([]GoalWithHabits, 0, len(goals))
	for _, goal := range goals {
		owned := habitsByGoal[goal.ID]
		item := GoalWithHabits{Goal: goal, Habits: make([]HabitView, 0, len(owned))}

		for _, habit := range owned {
			values := valuesByHabit[habit.ID]
			view := HabitView{
				Habit:    habit,
				DueToday: progress.IsDue(habit.ScheduleMask, date),
				Streak:   progress.Streak(values, habit.Target, date, progress.EarliestDate(values)),
			}
			if completion, ok := today[habit.ID]; ok {
				view.Completion = &completion
			}
			if view.DueToday && (view.Completion == nil || view.Completion.Value < habit.Target) {
				item.Remaining++
			}
			item.Habits = append(item.Habits, view)
		}

		item.Progress = progress.GoalProgress(goal, owned, progressWindow(goal, completions, date), date)
		result = append(result, item)
	}

	return result
}

// progressWindow 截止日期模式使用全部打卡；滚动周模式只取 today 所在自然周（周一至周日）
func progressWindow(goal db.Goal, completions []db.HabitCompletion, today time.Time) []db.HabitCompletion {
	if goal.TargetDate != nil {
		if _, err := progress.ParseDate(*goal.TargetDate); err == nil {
			return completions
		}
	}

	start := progress.WeekStart(today)
	from, to := dayRange(start, start.AddDate(0, 0, 6))

	window := make([]db.HabitCompletion, 0, len(completions))
	for _, completion := range completions {
		if completion.Date >= from && completion.Date <= to {
			window = append(window, completion)
		}
	}
	return window
}

func validateGoalInput(input GoalInput) (GoalInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return input, invalidf("goal title is required")
	}
	input.Category = strings.TrimSpace(input.Category)
	input.Description = strings.TrimSpace(input.Description)

	targetDate, err := normalizeOptionalDate(input.TargetDate, "target date")
	if err != nil {
		return input, err
	}
	input.TargetDate = targetDate
	return input, nil
}
