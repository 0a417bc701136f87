package locale

// messages 以中文原文为键；接口默认返回中文
var messages = map[string]string{
	"请求参数不合法":      "Invalid request payload",
	"请先登录":         "Please sign in first",
	"登录已失效":        "Session expired, please sign in again",
	"用户名或密码错误":     "Incorrect username or password",
	"登录失败":         "Sign-in failed",
	"会话保存失败":       "Failed to save session",
	"令牌签发失败":       "Failed to issue access token",
	"无效的定时任务密钥":    "Invalid cron secret",
	"数据库未初始化":      "Database is not initialized",
	"数据库不可用":       "Database is unavailable",
	"无效的日期":        "Invalid date",
	"无效的开始日期":      "Invalid start date",
	"无效的周起始日期":     "Invalid week start date",
	"无效的结束日期":      "Invalid end date",
	"结束日期不能早于开始日期": "End date must not be before start date",
	"unlink_tasks 参数不合法": "Invalid unlink_tasks value",
	"目标不存在":        "Goal not found",
	"习惯不存在":        "Habit not found",
	"任务不存在":        "Task not found",
	"子任务不存在":       "Subtask not found",
	"周重点不存在":       "Weekly priority not found",
	"提醒不存在":        "Notification not found",
	"周重点 ID 必须为字符串": "weekly_priority_id must be a string",
	"缺少完成状态":       "Missing done flag",
	"获取目标列表失败":     "Failed to load goals",
	"创建目标失败":       "Failed to create goal",
	"更新目标失败":       "Failed to update goal",
	"删除目标失败":       "Failed to delete goal",
	"计算目标进度失败":     "Failed to compute goal progress",
	"创建习惯失败":       "Failed to create habit",
	"更新习惯失败":       "Failed to update habit",
	"删除习惯失败":       "Failed to delete habit",
	"加载习惯失败":       "Failed to load habit",
	"获取习惯列表失败":     "Failed to load habits",
	"保存打卡记录失败":     "Failed to save completion",
	"获取打卡记录失败":     "Failed to load completions",
	"计算统计信息失败":     "Failed to compute statistics",
	"获取热力图数据失败":    "Failed to load heatmap",
	"获取周重点失败":      "Failed to load weekly priorities",
	"创建周重点失败":      "Failed to create weekly priority",
	"更新周重点失败":      "Failed to update weekly priority",
	"删除周重点失败":      "Failed to delete weekly priority",
	"获取任务列表失败":     "Failed to load tasks",
	"创建任务失败":       "Failed to create task",
	"更新任务失败":       "Failed to update task",
	"更新任务状态失败":     "Failed to update task status",
	"移动任务失败":       "Failed to move task",
	"任务顺延失败":       "Failed to roll over tasks",
	"删除任务失败":       "Failed to delete task",
	"创建子任务失败":      "Failed to create subtask",
	"更新子任务失败":      "Failed to update subtask",
	"删除子任务失败":      "Failed to delete subtask",
	"获取提醒失败":       "Failed to load notifications",
	"忽略提醒失败":       "Failed to dismiss notification",
	"扫描到期习惯失败":     "Failed to scan due habits",
	"未找到上传的文件":     "No file was uploaded",
	"文件过大":         "File is too large",
	"创建上传目录失败":     "Failed to create upload directory",
	"保存文件失败":       "Failed to save file",
	"文件不存在":        "File not found",
}

// Message 返回 text 在 language 下的文案；没有对应译文时原样返回
func Message(language, text string) string {
	if NormalizeLanguage(language) != LanguageEnglish {
		return text
	}
	if translated, ok := messages[text]; ok {
		return translated
	}
	return text
}
