// Package model 定义课表引擎的核心数据模型
package model

// ScheduleEntry 课表输出中的一条排课记录
type ScheduleEntry struct {
	Day         string `json:"day"`
	Period      int    `json:"period"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Subject     string `json:"subject"`
	SubjectCode string `json:"subject_code"`
	Teacher     string `json:"teacher"`
	Room        string `json:"room"`
	SubjectType string `json:"subject_type"`
}

// ClassSchedule 单个班级的课表
type ClassSchedule struct {
	ClassName  string          `json:"class_name"`
	Department string          `json:"department"`
	Schedule   []ScheduleEntry `json:"schedule"`
}

// GenerationResult 课表生成结果（按班级组织）
type GenerationResult struct {
	Classes []ClassSchedule `json:"classes"`
}

// TeacherWorkload 教师工作量视图
type TeacherWorkload struct {
	CurrentLoad        int            `json:"current_load"`
	MaxCapacity        int            `json:"max_capacity"`
	UtilizationPercent float64        `json:"utilization_percent"`
	SubjectsTaught     int            `json:"subjects_taught"`
	WorkloadStatus     WorkloadStatus `json:"workload_status"`
}

// ScheduleStats 课表统计
type ScheduleStats struct {
	TotalClasses           int     `json:"total_classes"`
	TotalPeriodsScheduled  int     `json:"total_periods_scheduled"`
	UniqueSubjects         int     `json:"unique_subjects"`
	UniqueTeachers         int     `json:"unique_teachers"`
	AveragePeriodsPerClass float64 `json:"average_periods_per_class"`
}

// EfficiencyMetrics 效率指标
type EfficiencyMetrics struct {
	Score                  float64 `json:"score"` // 0-100 综合得分
	ConflictRatio          float64 `json:"conflict_ratio"`
	AvgUtilizationPercent  float64 `json:"avg_utilization_percent"`
	PreferenceSatisfaction float64 `json:"preference_satisfaction"`
	FulfillmentRate        float64 `json:"fulfillment_rate"` // 需求满足率
}

// AnalyticsResult 课表分析结果
type AnalyticsResult struct {
	GenerationMethod GenerationMethod            `json:"generation_method"`
	TeacherWorkload  map[string]*TeacherWorkload `json:"teacher_workload"`
	ValidationIssues []string                    `json:"validation_issues"`
	ScheduleStats    ScheduleStats               `json:"schedule_stats"`
	Efficiency       EfficiencyMetrics           `json:"efficiency_metrics"`
}

// ConflictsResult 冲突检查结果
type ConflictsResult struct {
	Conflicts    []string `json:"conflicts"`
	HasConflicts bool     `json:"has_conflicts"`
}

// Variation 批量生成中的一个候选课表
type Variation struct {
	Index           int                         `json:"variation"`
	Timetable       *GenerationResult           `json:"timetable"`
	TeacherWorkload map[string]*TeacherWorkload `json:"teacher_workload"`
	Score           float64                     `json:"score"`
}
