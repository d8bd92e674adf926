// Package constraints 约束目录
package constraints

// ConstraintParam 约束参数定义
type ConstraintParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, string, bool, array, map
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// ConstraintDefinition 约束定义
type ConstraintDefinition struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"`     // hard 硬约束, soft 软约束
	Category    string            `json:"category"` // 分类
	Description string            `json:"description"`
	ConfigKey   string            `json:"config_key,omitempty"` // 生成配置中的开关字段
	Params      []ConstraintParam `json:"params"`
}

// LibraryResponse 约束库响应
type LibraryResponse struct {
	Library []ConstraintDefinition `json:"library"`
}

// GetLibrary 获取完整的约束库
func GetLibrary() []ConstraintDefinition {
	return []ConstraintDefinition{
		// =====================================================
		// 硬约束
		// =====================================================
		{
			Name:        "teacher_conflict",
			DisplayName: "教师时段冲突",
			Type:        "hard",
			Category:    "时段冲突",
			Description: "同一教师在同一时段只能安排一节课，重复安排视为无效课表。",
			Params:      []ConstraintParam{},
		},
		{
			Name:        "class_conflict",
			DisplayName: "班级时段冲突",
			Type:        "hard",
			Category:    "时段冲突",
			Description: "同一班级在同一时段只能安排一门课程。",
			Params:      []ConstraintParam{},
		},
		{
			Name:        "teacher_capacity",
			DisplayName: "教师负荷上限",
			Type:        "hard",
			Category:    "负荷限制",
			Description: "教师每周承担的节数不得超过其最大学分上限，上限为0时视为不限。",
			Params: []ConstraintParam{
				{Name: "max_credits", Type: "int", Description: "每周最大节数（来自教师档案）", Default: "0"},
			},
		},
		{
			Name:        "subject_compatibility",
			DisplayName: "教师课程匹配",
			Type:        "hard",
			Category:    "资质要求",
			Description: "课程只能分配给可授该课程的教师：主讲课程优先，其次副课程（可跨院系），最后同院系且课型可承担。",
			Params:      []ConstraintParam{},
		},
		{
			Name:        "max_daily_periods",
			DisplayName: "每日节数上限",
			Type:        "hard",
			Category:    "负荷限制",
			Description: "限制班级每天的最大排课节数，防止单日课程过载。",
			ConfigKey:   "max_daily_hours",
			Params: []ConstraintParam{
				{Name: "max_periods", Type: "int", Description: "每日最大节数", Default: "6", Min: "1", Max: "12"},
			},
		},

		// =====================================================
		// 软约束
		// =====================================================
		{
			Name:        "time_preference",
			DisplayName: "课程时段偏好",
			Type:        "soft",
			Category:    "偏好",
			Description: "尽量把课程安排在配置的偏好节次，未配置偏好的课程不受影响。",
			ConfigKey:   "time_preferences",
			Params: []ConstraintParam{
				{Name: "time_preferences", Type: "map", Description: "课程名到偏好节次列表的映射"},
				{Name: "weight", Type: "int", Description: "优化权重", Default: "30", Min: "0", Max: "100"},
			},
		},
		{
			Name:        "teacher_preference",
			DisplayName: "课程教师偏好",
			Type:        "soft",
			Category:    "偏好",
			Description: "尽量把课程分配给配置中指定的教师。",
			ConfigKey:   "teacher_preferences",
			Params: []ConstraintParam{
				{Name: "teacher_preferences", Type: "map", Description: "课程名到偏好教师名的映射"},
				{Name: "weight", Type: "int", Description: "优化权重", Default: "25", Min: "0", Max: "100"},
			},
		},
		{
			Name:        "workload_balance",
			DisplayName: "教师负荷均衡",
			Type:        "soft",
			Category:    "公平性",
			Description: "尽量使各教师的负荷利用率接近平均值，避免忙闲不均。",
			Params: []ConstraintParam{
				{Name: "weight", Type: "int", Description: "优化权重", Default: "20", Min: "0", Max: "100"},
				{Name: "tolerance", Type: "float", Description: "容忍偏差百分比", Default: "20", Min: "5", Max: "50"},
			},
		},
		{
			Name:        "back_to_back_lab",
			DisplayName: "避免连排实验课",
			Type:        "soft",
			Category:    "课程安排",
			Description: "避免同一班级在相邻节次连续安排实验/实践类课程。",
			ConfigKey:   "prevent_back_to_back_labs",
			Params: []ConstraintParam{
				{Name: "weight", Type: "int", Description: "优化权重", Default: "15", Min: "0", Max: "100"},
			},
		},
		{
			Name:        "subject_priority",
			DisplayName: "课程优先级时段",
			Type:        "soft",
			Category:    "课程安排",
			Description: "优先级高的课程尽量安排在每天靠前的节次。",
			ConfigKey:   "subject_priorities",
			Params: []ConstraintParam{
				{Name: "subject_priorities", Type: "map", Description: "课程名到优先级的映射"},
				{Name: "weight", Type: "int", Description: "优化权重", Default: "20", Min: "0", Max: "100"},
			},
		},
		{
			Name:        "daily_load_balance",
			DisplayName: "每日负荷均衡",
			Type:        "soft",
			Category:    "课程安排",
			Description: "尽量使班级每天的课程数接近一周的日均值，避免某天排满、某天空置。",
			ConfigKey:   "balance_daily_load",
			Params: []ConstraintParam{
				{Name: "weight", Type: "int", Description: "优化权重", Default: "10", Min: "0", Max: "100"},
			},
		},
	}
}
