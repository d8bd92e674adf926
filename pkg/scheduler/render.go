// Package scheduler 课表生成引擎的门面：归一化、生成、批量变体
package scheduler

import (
	"sort"

	"github.com/google/uuid"

	"github.com/kebiao/kebiao/pkg/model"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint"
)

// RenderResult 把分配集合渲染为按班级组织的课表视图
// 班级按代码排序，班级内条目按时段下标排序
func RenderResult(ctx *constraint.Context, assignments []*model.Assignment) *model.GenerationResult {
	byClass := make(map[uuid.UUID][]*model.Assignment)
	for _, a := range assignments {
		byClass[a.ClassID] = append(byClass[a.ClassID], a)
	}

	classes := make([]*model.ClassGroup, len(ctx.Classes))
	copy(classes, ctx.Classes)
	sort.Slice(classes, func(i, j int) bool {
		return classes[i].Code < classes[j].Code
	})

	result := &model.GenerationResult{Classes: make([]model.ClassSchedule, 0, len(classes))}
	for _, cg := range classes {
		list := byClass[cg.ID]
		sort.Slice(list, func(i, j int) bool {
			return list[i].Slot.Index < list[j].Slot.Index
		})

		schedule := make([]model.ScheduleEntry, 0, len(list))
		for _, a := range list {
			entry := model.ScheduleEntry{
				Day:       a.Slot.Day,
				Period:    a.Slot.Period,
				StartTime: a.Slot.StartTime,
				EndTime:   a.Slot.EndTime,
				Room:      a.Room,
			}
			if subj := ctx.GetSubject(a.SubjectID); subj != nil {
				entry.Subject = subj.Name
				entry.SubjectCode = subj.Code
				entry.SubjectType = string(subj.Type)
			}
			if t := ctx.GetTeacher(a.TeacherID); t != nil {
				entry.Teacher = t.Name
			}
			schedule = append(schedule, entry)
		}

		result.Classes = append(result.Classes, model.ClassSchedule{
			ClassName:  cg.Name,
			Department: cg.Department,
			Schedule:   schedule,
		})
	}
	return result
}
