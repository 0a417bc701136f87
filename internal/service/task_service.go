package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dailyfocus/internal/db"
	"gorm.io/gorm"
)

var reminderPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// TaskService 负责每日任务与子任务的增删改查
// 删除任务（级联子任务）与移动任务由 LifecycleService 负责
type TaskService struct {
	db *gorm.DB
}

// TaskInput 定义创建/更新任务时可配置字段
type TaskInput struct {
	Title            string
	Date             string
	Tag              string
	Deadline         *string
	ReminderTime     string
	Notes            string
	Link             string
	LinkRefs         []string
	FileRefs         []string
	WeeklyPriorityID *string
}

// TaskWithSubtasks 组合任务与其子任务
type TaskWithSubtasks struct {
	Task     db.DailyTask
	Subtasks []db.DailySubtask
}

// NewTaskService 构造 TaskService
func NewTaskService(gdb *gorm.DB) *TaskService {
	return &TaskService{db: gdb}
}

// ListByDate 返回某天的任务及其子任务
func (s *TaskService) ListByDate(userID uint, date string) ([]TaskWithSubtasks, error) {
	day, err := normalizeDate(date, "date")
	if err != nil {
		return nil, err
	}

	var tasks []db.DailyTask
	if err := scoped(s.db, userID).Where("date = ?", day).Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return s.attachSubtasks(userID, tasks)
}

// ListBetween 返回 [start, end] 区间内的任务
func (s *TaskService) ListBetween(userID uint, start, end time.Time) ([]db.DailyTask, error) {
	from, to := dayRange(start, end)

	var tasks []db.DailyTask
	if err := scoped(s.db, userID).
		Where("date BETWEEN ? AND ?", from, to).
		Order("date ASC, created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks between: %w", err)
	}
	return tasks, nil
}

// Get 根据 ID 获取任务
func (s *TaskService) Get(userID uint, id string) (*db.DailyTask, error) {
	var task db.DailyTask
	if err := scoped(s.db, userID).First(&task, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrTaskNotFound, "get task")
	}
	return &task, nil
}

// Create 新建任务
func (s *TaskService) Create(userID uint, input TaskInput) (*db.DailyTask, error) {
	normalized, err := s.validateTaskInput(userID, input)
	if err != nil {
		return nil, err
	}

	task := db.DailyTask{Record: db.Record{UserID: userID}}
	applyTaskInput(&task, normalized)

	if err := s.db.Create(&task).Error; err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &task, nil
}

// Update 更新任务（不改变完成状态）
func (s *TaskService) Update(userID uint, id string, input TaskInput) (*db.DailyTask, error) {
	normalized, err := s.validateTaskInput(userID, input)
	if err != nil {
		return nil, err
	}

	existing, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	applyTaskInput(existing, normalized)

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return existing, nil
}

// SetDone 切换任务完成状态
func (s *TaskService) SetDone(userID uint, id string, done bool) (*db.DailyTask, error) {
	existing, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(existing).Update("done", done).Error; err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}
	existing.Done = done
	return existing, nil
}

// AddSubtask 在任务下新增子任务
func (s *TaskService) AddSubtask(userID uint, taskID, title string) (*db.DailySubtask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalidf("subtask title is required")
	}

	task, err := s.Get(userID, taskID)
	if err != nil {
		return nil, err
	}

	subtask := db.DailySubtask{Record: db.Record{UserID: userID}, TaskID: task.ID, Title: title}
	if err := s.db.Create(&subtask).Error; err != nil {
		return nil, fmt.Errorf("create subtask: %w", err)
	}
	return &subtask, nil
}

// UpdateSubtask 更新子任务标题或完成状态，nil 字段保持不变
func (s *TaskService) UpdateSubtask(userID uint, id string, title *string, done *bool) (*db.DailySubtask, error) {
	var subtask db.DailySubtask
	if err := scoped(s.db, userID).First(&subtask, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrSubtaskNotFound, "get subtask")
	}

	if title != nil {
		trimmed := strings.TrimSpace(*title)
		if trimmed == "" {
			return nil, invalidf("subtask title is required")
		}
		subtask.Title = trimmed
	}
	if done != nil {
		subtask.Done = *done
	}

	if err := s.db.Save(&subtask).Error; err != nil {
		return nil, fmt.Errorf("update subtask: %w", err)
	}
	return &subtask, nil
}

// DeleteSubtask 删除单个子任务
func (s *TaskService) DeleteSubtask(userID uint, id string) error {
	res := scoped(s.db, userID).Where("id = ?", id).Delete(&db.DailySubtask{})
	if res.Error != nil {
		return fmt.Errorf("delete subtask: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSubtaskNotFound
	}
	return nil
}

func (s *TaskService) attachSubtasks(userID uint, tasks []db.DailyTask) ([]TaskWithSubtasks, error) {
	result := make([]TaskWithSubtasks, 0, len(tasks))
	if len(tasks) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}

	var subtasks []db.DailySubtask
	if err := scoped(s.db, userID).Where("task_id IN ?", ids).Order("created_at ASC").Find(&subtasks).Error; err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}

	byTask := make(map[string][]db.DailySubtask, len(tasks))
	for _, subtask := range subtasks {
		byTask[subtask.TaskID] = append(byTask[subtask.TaskID], subtask)
	}

	for _, task := range tasks {
		items := byTask[task.ID]
		if items == nil {
			items = []db.DailySubtask{}
		}
		result = append(result, TaskWithSubtasks{Task: task, Subtasks: items})
	}
	return result, nil
}

func (s *TaskService) validateTaskInput(userID uint, input TaskInput) (TaskInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return input, invalidf("task title is required")
	}

	day, err := normalizeDate(input.Date, "date")
	if err != nil {
		return input, err
	}
	input.Date = day

	deadline, err := normalizeOptionalDate(input.Deadline, "deadline")
	if err != nil {
		return input, err
	}
	input.Deadline = deadline

	input.ReminderTime = strings.TrimSpace(input.ReminderTime)
	if input.ReminderTime != "" && !reminderPattern.MatchString(input.ReminderTime) {
		return input, invalidf("reminder time must be HH:MM")
	}

	input.Tag = strings.TrimSpace(input.Tag)
	input.Link = strings.TrimSpace(input.Link)
	input.LinkRefs = compactStrings(input.LinkRefs)
	input.FileRefs = compactStrings(input.FileRefs)

	if input.WeeklyPriorityID != nil {
		id := strings.TrimSpace(*input.WeeklyPriorityID)
		if id == "" {
			input.WeeklyPriorityID = nil
		} else {
			var priority db.WeeklyPriority
			if err := scoped(s.db, userID).Select("id").First(&priority, "id = ?", id).Error; err != nil {
				return input, notFound(err, ErrPriorityNotFound, "find weekly priority")
			}
			input.WeeklyPriorityID = &id
		}
	}

	return input, nil
}

func applyTaskInput(task *db.DailyTask, input TaskInput) {
	task.Title = input.Title
	task.Date = input.Date
	task.Tag = input.Tag
	task.Deadline = input.Deadline
	task.ReminderTime = input.ReminderTime
	task.Notes = input.Notes
	task.Link = input.Link
	task.LinkRefs = db.StringList(input.LinkRefs)
	task.FileRefs = db.StringList(input.FileRefs)
	task.WeeklyPriorityID = input.WeeklyPriorityID
}

func compactStrings(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
