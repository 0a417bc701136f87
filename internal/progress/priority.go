package progress

// TaskLink 是参与周重点进度计算的最小任务视图。
// PriorityRef 保留原始引用值：历史数据中可能出现数字类型的 ID。
type TaskLink struct {
	PriorityRef any
	Done        bool
}

// PriorityResult 汇总周重点的完成情况
type PriorityResult struct {
	Percent   float64
	Completed bool
	Total     int
	Done      int
}

// LinksTo 按严格类型判断任务是否关联到 priorityID。
// 数字类型的引用即便文本相同也不匹配字符串 ID，不做任何隐式转换。
func LinksTo(ref any, priorityID string) bool {
	id, ok := ref.(string)
	return ok && id != "" && id == priorityID
}

// PriorityProgress 统计关联到 priorityID 的任务完成比例，未关联的任务会被跳过。
func PriorityProgress(priorityID string, tasks []TaskLink) PriorityResult {
	var result PriorityResult
	for _, task := range tasks {
		if !LinksTo(task.PriorityRef, priorityID) {
			continue
		}
		result.Total++
		if task.Done {
			result.Done++
		}
	}

	if result.Total > 0 {
		result.Percent = float64(result.Done) / float64(result.Total) * 100
	}
	result.Completed = result.Total > 0 && result.Done == result.Total
	return result
}
