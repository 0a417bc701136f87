package db

// WeeklyPriority 表示某一周的重点事项，WeekStart 固定为当周周一
// 与 DailyTask 之间是松散引用：删除周重点默认不会删除或解绑任务
type WeeklyPriority struct {
	Record
	Title     string `gorm:"not null"`
	WeekStart string `gorm:"index;size:10;not null"`
	Tag       string
	Level     string `gorm:"size:16"`
}

// DailyTask 定义了每日任务，删除任务时级联删除子任务
// WeeklyPriorityID 统一存储为字符串 ID，写入时在接口层校验类型
type DailyTask struct {
	Record
	Title            string `gorm:"not null"`
	Date             string `gorm:"index;size:10;not null"`
	Tag              string
	Deadline         *string `gorm:"size:10"`
	ReminderTime     string  `gorm:"size:5"`
	Notes            string
	Link             string
	LinkRefs         StringList `gorm:"type:text"`
	FileRefs         StringList `gorm:"type:text"`
	WeeklyPriorityID *string    `gorm:"index;size:64"`
	Done             bool       `gorm:"not null;default:false"`
}

// DailySubtask 隶属于某个 DailyTask
type DailySubtask struct {
	Record
	TaskID string `gorm:"index;not null"`
	Title  string `gorm:"not null"`
	Done   bool   `gorm:"not null;default:false"`
}
