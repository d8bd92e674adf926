// Package validator 提供课表冲突校验
// 校验逻辑独立于约束系统实现，作为生成结果的二次防线
package validator

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kebiao/kebiao/pkg/model"
)

// Validator 课表校验器
type Validator struct{}

// New 创建校验器
func New() *Validator {
	return &Validator{}
}

// Validate 校验课表的全部硬性不变量，返回人类可读的冲突列表
// 纯函数，不修改任何输入
func (v *Validator) Validate(
	teachers []*model.Teacher,
	subjects []*model.Subject,
	classes []*model.ClassGroup,
	assignments []*model.Assignment,
) *model.ConflictsResult {
	teacherMap := make(map[uuid.UUID]*model.Teacher, len(teachers))
	for _, t := range teachers {
		teacherMap[t.ID] = t
	}
	subjectMap := make(map[uuid.UUID]*model.Subject, len(subjects))
	for _, s := range subjects {
		subjectMap[s.ID] = s
	}
	classMap := make(map[uuid.UUID]*model.ClassGroup, len(classes))
	for _, cg := range classes {
		classMap[cg.ID] = cg
	}

	conflicts := make([]string, 0)
	conflicts = append(conflicts, v.teacherOverlaps(teacherMap, classMap, assignments)...)
	conflicts = append(conflicts, v.classOverlaps(subjectMap, classMap, assignments)...)
	conflicts = append(conflicts, v.capacityOverruns(teacherMap, assignments)...)
	conflicts = append(conflicts, v.incompatibleTeachers(teacherMap, subjectMap, assignments)...)

	return &model.ConflictsResult{
		Conflicts:    conflicts,
		HasConflicts: len(conflicts) > 0,
	}
}

// ValidateTimetable 校验课表对象
func (v *Validator) ValidateTimetable(
	teachers []*model.Teacher,
	subjects []*model.Subject,
	classes []*model.ClassGroup,
	tt *model.Timetable,
) *model.ConflictsResult {
	if tt == nil {
		return &model.ConflictsResult{Conflicts: []string{}, HasConflicts: false}
	}
	return v.Validate(teachers, subjects, classes, tt.Assignments)
}

// teacherOverlaps 检查教师同一时段重复排课
func (v *Validator) teacherOverlaps(
	teacherMap map[uuid.UUID]*model.Teacher,
	classMap map[uuid.UUID]*model.ClassGroup,
	assignments []*model.Assignment,
) []string {
	var conflicts []string
	seen := make(map[string]*model.Assignment)

	for _, a := range assignments {
		key := fmt.Sprintf("%s|%d", a.TeacherID, a.Slot.Index)
		prev, ok := seen[key]
		if !ok {
			seen[key] = a
			continue
		}

		name := a.TeacherID.String()
		if t := teacherMap[a.TeacherID]; t != nil {
			name = t.Name
		}
		classA := prev.ClassID.String()
		if cg := classMap[prev.ClassID]; cg != nil {
			classA = cg.Name
		}
		classB := a.ClassID.String()
		if cg := classMap[a.ClassID]; cg != nil {
			classB = cg.Name
		}
		conflicts = append(conflicts, fmt.Sprintf(
			"Teacher %s has overlapping classes on %s period %d (%s and %s)",
			name, a.Slot.Day, a.Slot.Period, classA, classB))
	}
	return conflicts
}

// classOverlaps 检查班级同一时段重复排课
func (v *Validator) classOverlaps(
	subjectMap map[uuid.UUID]*model.Subject,
	classMap map[uuid.UUID]*model.ClassGroup,
	assignments []*model.Assignment,
) []string {
	var conflicts []string
	seen := make(map[string]*model.Assignment)

	for _, a := range assignments {
		key := fmt.Sprintf("%s|%d", a.ClassID, a.Slot.Index)
		prev, ok := seen[key]
		if !ok {
			seen[key] = a
			continue
		}

		name := a.ClassID.String()
		if cg := classMap[a.ClassID]; cg != nil {
			name = cg.Name
		}
		subjA := prev.SubjectID.String()
		if s := subjectMap[prev.SubjectID]; s != nil {
			subjA = s.Name
		}
		subjB := a.SubjectID.String()
		if s := subjectMap[a.SubjectID]; s != nil {
			subjB = s.Name
		}
		conflicts = append(conflicts, fmt.Sprintf(
			"Class %s has multiple subjects on %s period %d (%s and %s)",
			name, a.Slot.Day, a.Slot.Period, subjA, subjB))
	}
	return conflicts
}

// capacityOverruns 检查教师周学分超限
func (v *Validator) capacityOverruns(
	teacherMap map[uuid.UUID]*model.Teacher,
	assignments []*model.Assignment,
) []string {
	loads := make(map[uuid.UUID]int)
	var order []uuid.UUID
	for _, a := range assignments {
		if loads[a.TeacherID] == 0 {
			order = append(order, a.TeacherID)
		}
		loads[a.TeacherID]++
	}

	var conflicts []string
	for _, id := range order {
		t := teacherMap[id]
		if t == nil || t.MaxCredits <= 0 {
			continue
		}
		if load := loads[id]; load > t.MaxCredits {
			conflicts = append(conflicts, fmt.Sprintf(
				"Teacher %s exceeds weekly capacity: %d/%d periods",
				t.Name, load, t.MaxCredits))
		}
	}
	return conflicts
}

// incompatibleTeachers 检查教师是否具备讲授资格
func (v *Validator) incompatibleTeachers(
	teacherMap map[uuid.UUID]*model.Teacher,
	subjectMap map[uuid.UUID]*model.Subject,
	assignments []*model.Assignment,
) []string {
	var conflicts []string
	reported := make(map[string]bool)

	for _, a := range assignments {
		t := teacherMap[a.TeacherID]
		s := subjectMap[a.SubjectID]
		if t == nil || s == nil {
			continue
		}
		if t.CanTeach(s) {
			continue
		}
		key := fmt.Sprintf("%s|%s", t.ID, s.ID)
		if reported[key] {
			continue
		}
		reported[key] = true
		conflicts = append(conflicts, fmt.Sprintf(
			"Teacher %s is not qualified to teach %s", t.Name, s.Name))
	}
	return conflicts
}
