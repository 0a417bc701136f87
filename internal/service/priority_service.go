package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/dailyfocus/internal/db"
	"github.com/dailyfocus/internal/progress"
	"gorm.io/gorm"
)

var priorityLevels = map[string]struct{}{"": {}, "low": {}, "medium": {}, "high": {}}

// PriorityService 负责周重点的增删改查与进度汇总
type PriorityService struct {
	db *gorm.DB
}

// PriorityInput 定义创建/更新周重点时可配置字段
type PriorityInput struct {
	Title     string
	WeekStart string
	Tag       string
	Level     string
}

// PriorityWithProgress 汇总周重点及其关联任务的完成度
type PriorityWithProgress struct {
	Priority db.WeeklyPriority
	Progress progress.PriorityResult
}

// NewPriorityService 构造 PriorityService
func NewPriorityService(gdb *gorm.DB) *PriorityService {
	return &PriorityService{db: gdb}
}

// Get 根据 ID 获取周重点
func (s *PriorityService) Get(userID uint, id string) (*db.WeeklyPriority, error) {
	var priority db.WeeklyPriority
	if err := scoped(s.db, userID).First(&priority, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrPriorityNotFound, "get weekly priority")
	}
	return &priority, nil
}

// Create 新建周重点，WeekStart 会被归一到当周周一
func (s *PriorityService) Create(userID uint, input PriorityInput) (*db.WeeklyPriority, error) {
	normalized, err := validatePriorityInput(input)
	if err != nil {
		return nil, err
	}

	priority := db.WeeklyPriority{
		Record:    db.Record{UserID: userID},
		Title:     normalized.Title,
		WeekStart: normalized.WeekStart,
		Tag:       normalized.Tag,
		Level:     normalized.Level,
	}
	if err := s.db.Create(&priority).Error; err != nil {
		return nil, fmt.Errorf("create weekly priority: %w", err)
	}
	return &priority, nil
}

// Update 更新周重点
func (s *PriorityService) Update(userID uint, id string, input PriorityInput) (*db.WeeklyPriority, error) {
	normalized, err := validatePriorityInput(input)
	if err != nil {
		return nil, err
	}

	existing, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	existing.Title = normalized.Title
	existing.WeekStart = normalized.WeekStart
	existing.Tag = normalized.Tag
	existing.Level = normalized.Level

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update weekly priority: %w", err)
	}
	return existing, nil
}

// ListForWeek 返回某周的周重点，并根据 [weekStart, weekStart+6] 内的任务计算完成度
func (s *PriorityService) ListForWeek(userID uint, week time.Time) ([]PriorityWithProgress, error) {
	start := progress.WeekStart(week)
	from, to := dayRange(start, start.AddDate(0, 0, 6))

	var priorities []db.WeeklyPriority
	if err := scoped(s.db, userID).Where("week_start = ?", from).Order("created_at ASC").Find(&priorities).Error; err != nil {
		return nil, fmt.Errorf("list weekly priorities: %w", err)
	}

	var tasks []db.DailyTask
	if err := scoped(s.db, userID).
		Select("id", "weekly_priority_id", "done").
		Where("date BETWEEN ? AND ?", from, to).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list week tasks: %w", err)
	}

	links := make([]progress.TaskLink, 0, len(tasks))
	for _, task := range tasks {
		link := progress.TaskLink{Done: task.Done}
		if task.WeeklyPriorityID != nil {
			link.PriorityRef = *task.WeeklyPriorityID
		}
		links = append(links, link)
	}

	result := make([]PriorityWithProgress, 0, len(priorities))
	for _, priority := range priorities {
		result = append(result, PriorityWithProgress{
			Priority: priority,
			Progress: progress.PriorityProgress(priority.ID, links),
		})
	}
	return result, nil
}

func validatePriorityInput(input PriorityInput) (PriorityInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return input, invalidf("priority title is required")
	}

	day, err := normalizeDate(input.WeekStart, "week start")
	if err != nil {
		return input, err
	}
	parsed, _ := progress.ParseDate(day)
	input.WeekStart = progress.FormatDate(progress.WeekStart(parsed))

	input.Tag = strings.TrimSpace(input.Tag)
	input.Level = strings.TrimSpace(strings.ToLower(input.Level))
	if _, ok := priorityLevels[input.Level]; !ok {
		return input, invalidf("unsupported priority level %s", input.Level)
	}
	return input, nil
}
