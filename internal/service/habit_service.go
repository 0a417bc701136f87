package service

import (
	"fmt"
	"strings"

	"github.com/dailyfocus/internal/db"
	"github.com/dailyfocus/internal/progress"
	"gorm.io/gorm"
)

// HabitService 负责 Habit 数据的增删改查
// 删除习惯需要级联清理打卡记录，由 LifecycleService 负责
// Type 支持 checkbox/counter，Target>0，ScheduleMask 必须为 7 个字符

type HabitService struct {
	db *gorm.DB
}

// HabitInput 定义创建/更新习惯时可配置字段
type HabitInput struct {
	Name         string
	Type         string
	Target       float64
	ScheduleMask string
}

// NewHabitService 构造 HabitService
func NewHabitService(gdb *gorm.DB) *HabitService {
	return &HabitService{db: gdb}
}

// List 返回用户的全部习惯，goalID 非空时只返回该目标下的习惯
func (s *HabitService) List(userID uint, goalID string) ([]db.Habit, error) {
	var habits []db.Habit

	query := scoped(s.db.Model(&db.Habit{}), userID)
	if goalID != "" {
		query = query.Where("goal_id = ?", goalID)
	}

	if err := query.Order("created_at ASC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	return habits, nil
}

// Get 根据 ID 获取习惯
func (s *HabitService) Get(userID uint, id string) (*db.Habit, error) {
	var habit db.Habit
	if err := scoped(s.db, userID).First(&habit, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrHabitNotFound, "get habit")
	}
	return &habit, nil
}

// Add 在指定目标下新建习惯，目标不存在时返回 ErrGoalNotFound
func (s *HabitService) Add(userID uint, goalID string, input HabitInput) (*db.Habit, error) {
	normalized, err := validateHabitInput(input)
	if err != nil {
		return nil, err
	}

	var goal db.Goal
	if err := scoped(s.db, userID).Select("id").First(&goal, "id = ?", goalID).Error; err != nil {
		return nil, notFound(err, ErrGoalNotFound, "find goal")
	}

	habit := db.Habit{
		Record:       db.Record{UserID: userID},
		GoalID:       goal.ID,
		Name:         normalized.Name,
		Type:         normalized.Type,
		Target:       normalized.Target,
		ScheduleMask: normalized.ScheduleMask,
	}

	if err := s.db.Create(&habit).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return &habit, nil
}

// Update 更新习惯
func (s *HabitService) Update(userID uint, id string, input HabitInput) (*db.Habit, error) {
	normalized, err := validateHabitInput(input)
	if err != nil {
		return nil, err
	}

	existing, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	existing.Name = normalized.Name
	existing.Type = normalized.Type
	existing.Target = normalized.Target
	existing.ScheduleMask = normalized.ScheduleMask

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return existing, nil
}

func validateHabitInput(input HabitInput) (HabitInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return input, invalidf("habit name is required")
	}

	input.Type = strings.TrimSpace(strings.ToLower(input.Type))
	if input.Type == "" {
		input.Type = db.HabitTypeCheckbox
	}
	if input.Type != db.HabitTypeCheckbox && input.Type != db.HabitTypeCounter {
		return input, invalidf("unsupported habit type %s", input.Type)
	}

	if input.Target == 0 && input.Type == db.HabitTypeCheckbox {
		input.Target = 1
	}
	if !validNumber(input.Target) || input.Target <= 0 {
		return input, invalidf("target must be positive")
	}

	if input.ScheduleMask == "" {
		input.ScheduleMask = "MTWTFSS"
	}
	if !progress.ValidMask(input.ScheduleMask) {
		return input, invalidf("schedule mask must have exactly %d characters", progress.ScheduleMaskLength)
	}

	return input, nil
}
