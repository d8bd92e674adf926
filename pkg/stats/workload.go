// Package stats 提供课表统计分析功能
package stats

import (
	"github.com/google/uuid"

	"github.com/kebiao/kebiao/pkg/model"
)

// WorkloadAnalyzer 教师工作量分析器
type WorkloadAnalyzer struct{}

// NewWorkloadAnalyzer 创建工作量分析器
func NewWorkloadAnalyzer() *WorkloadAnalyzer {
	return &WorkloadAnalyzer{}
}

// Report 生成按教师名索引的工作量报告
// 所有教师都会出现在报告中，包括没有任何排课的教师
func (w *WorkloadAnalyzer) Report(teachers []*model.Teacher, assignments []*model.Assignment) map[string]*model.TeacherWorkload {
	loads := make(map[uuid.UUID]int)
	subjects := make(map[uuid.UUID]map[uuid.UUID]bool)
	for _, a := range assignments {
		loads[a.TeacherID]++
		if subjects[a.TeacherID] == nil {
			subjects[a.TeacherID] = make(map[uuid.UUID]bool)
		}
		subjects[a.TeacherID][a.SubjectID] = true
	}

	report := make(map[string]*model.TeacherWorkload, len(teachers))
	for _, t := range teachers {
		load := loads[t.ID]
		util := Utilization(load, t.MaxCredits)
		report[t.Name] = &model.TeacherWorkload{
			CurrentLoad:        load,
			MaxCapacity:        t.MaxCredits,
			UtilizationPercent: util,
			SubjectsTaught:     len(subjects[t.ID]),
			WorkloadStatus:     model.StatusForUtilization(util),
		}
	}
	return report
}

// Utilization 计算利用率百分比
func Utilization(load, max int) float64 {
	if max <= 0 {
		return 0
	}
	return float64(load) / float64(max) * 100
}

// ComputeScheduleStats 计算课表整体统计
func ComputeScheduleStats(assignments []*model.Assignment) model.ScheduleStats {
	classes := make(map[uuid.UUID]bool)
	subjects := make(map[uuid.UUID]bool)
	teachers := make(map[uuid.UUID]bool)
	for _, a := range assignments {
		classes[a.ClassID] = true
		subjects[a.SubjectID] = true
		teachers[a.TeacherID] = true
	}

	stats := model.ScheduleStats{
		TotalClasses:          len(classes),
		TotalPeriodsScheduled: len(assignments),
		UniqueSubjects:        len(subjects),
		UniqueTeachers:        len(teachers),
	}
	if stats.TotalClasses > 0 {
		stats.AveragePeriodsPerClass = float64(stats.TotalPeriodsScheduled) / float64(stats.TotalClasses)
	}
	return stats
}
