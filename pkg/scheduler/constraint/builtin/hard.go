// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kebiao/kebiao/pkg/model"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint"
)

// TeacherConflictConstraint 教师时段冲突约束
// 同一教师在同一时段不能出现在两个班级
type TeacherConflictConstraint struct {
	*BaseConstraint
}

// NewTeacherConflictConstraint 创建教师时段冲突约束
func NewTeacherConflictConstraint() *TeacherConflictConstraint {
	return &TeacherConflictConstraint{
		BaseConstraint: NewBaseConstraint(
			"教师时段冲突",
			constraint.TypeTeacherConflict,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个课表
func (c *TeacherConflictConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	// 教师+时段 -> 首次占用的分配
	seen := make(map[string]*model.Assignment)
	for _, a := range ctx.Assignments {
		key := fmt.Sprintf("%s|%d", a.TeacherID, a.Slot.Index)
		if prev, ok := seen[key]; ok {
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty

			teacherName := a.TeacherID.String()
			if t := ctx.GetTeacher(a.TeacherID); t != nil {
				teacherName = t.Name
			}
			classA, classB := prev.ClassID.String(), a.ClassID.String()
			if cg := ctx.GetClass(prev.ClassID); cg != nil {
				classA = cg.Name
			}
			if cg := ctx.GetClass(a.ClassID); cg != nil {
				classB = cg.Name
			}

			violations = append(violations, c.CreateViolation(
				a.TeacherID, a.ClassID, a.Slot.String(),
				fmt.Sprintf("教师 %s 在 %s 同时被安排到 %s 和 %s", teacherName, a.Slot.String(), classA, classB),
				penalty,
			))
			continue
		}
		seen[key] = a
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个待定分配
func (c *TeacherConflictConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if ctx.TeacherBusy(a.TeacherID, a.Slot.Index) {
		return false, c.Weight()
	}
	return true, 0
}

// ClassConflictConstraint 班级时段冲突约束
// 同一班级在同一时段只能上一门课
type ClassConflictConstraint struct {
	*BaseConstraint
}

// NewClassConflictConstraint 创建班级时段冲突约束
func NewClassConflictConstraint() *ClassConflictConstraint {
	return &ClassConflictConstraint{
		BaseConstraint: NewBaseConstraint(
			"班级时段冲突",
			constraint.TypeClassConflict,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个课表
func (c *ClassConflictConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	seen := make(map[string]*model.Assignment)
	for _, a := range ctx.Assignments {
		key := fmt.Sprintf("%s|%d", a.ClassID, a.Slot.Index)
		if prev, ok := seen[key]; ok {
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty

			className := a.ClassID.String()
			if cg := ctx.GetClass(a.ClassID); cg != nil {
				className = cg.Name
			}
			subjA, subjB := prev.SubjectID.String(), a.SubjectID.String()
			if s := ctx.GetSubject(prev.SubjectID); s != nil {
				subjA = s.Name
			}
			if s := ctx.GetSubject(a.SubjectID); s != nil {
				subjB = s.Name
			}

			violations = append(violations, c.CreateViolation(
				a.TeacherID, a.ClassID, a.Slot.String(),
				fmt.Sprintf("班级 %s 在 %s 同时安排了 %s 和 %s", className, a.Slot.String(), subjA, subjB),
				penalty,
			))
			continue
		}
		seen[key] = a
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个待定分配
func (c *ClassConflictConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if ctx.ClassBusy(a.ClassID, a.Slot.Index) {
		return false, c.Weight()
	}
	return true, 0
}

// TeacherCapacityConstraint 教师周学分上限约束
type TeacherCapacityConstraint struct {
	*BaseConstraint
}

// NewTeacherCapacityConstraint 创建教师周学分上限约束
func NewTeacherCapacityConstraint() *TeacherCapacityConstraint {
	return &TeacherCapacityConstraint{
		BaseConstraint: NewBaseConstraint(
			"教师负荷上限",
			constraint.TypeTeacherCapacity,
			constraint.CategoryHard,
			90,
		),
	}
}

// Evaluate 评估整个课表
func (c *TeacherCapacityConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	loads := make(map[uuid.UUID]int)
	for _, a := range ctx.Assignments {
		loads[a.TeacherID]++
	}

	for _, t := range ctx.Teachers {
		load := loads[t.ID]
		if t.MaxCredits > 0 && load > t.MaxCredits {
			isValid = false
			over := load - t.MaxCredits
			penalty := c.Weight() * over
			totalPenalty += penalty

			violations = append(violations, c.CreateViolation(
				t.ID, uuid.Nil, "",
				fmt.Sprintf("教师 %s 已排 %d 节，超出上限 %d 节", t.Name, load, t.MaxCredits),
				penalty,
			))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个待定分配
func (c *TeacherCapacityConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	t := ctx.GetTeacher(a.TeacherID)
	if t == nil {
		return false, c.Weight()
	}
	if t.MaxCredits > 0 && !t.CanTakeLoad(ctx.TeacherLoad(t.ID), 1) {
		return false, c.Weight()
	}
	return true, 0
}

// SubjectCompatibilityConstraint 教师课程匹配约束
// 教师必须是课程的主讲、副讲，或院系相同且可承担该课型
type SubjectCompatibilityConstraint struct {
	*BaseConstraint
}

// NewSubjectCompatibilityConstraint 创建教师课程匹配约束
func NewSubjectCompatibilityConstraint() *SubjectCompatibilityConstraint {
	return &SubjectCompatibilityConstraint{
		BaseConstraint: NewBaseConstraint(
			"教师课程匹配",
			constraint.TypeSubjectCompatibility,
			constraint.CategoryHard,
			95,
		),
	}
}

// Evaluate 评估整个课表
func (c *SubjectCompatibilityConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, a := range ctx.Assignments {
		t := ctx.GetTeacher(a.TeacherID)
		s := ctx.GetSubject(a.SubjectID)
		if t == nil || s == nil {
			continue
		}
		if !t.CanTeach(s) {
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty

			violations = append(violations, c.CreateViolation(
				a.TeacherID, a.ClassID, a.Slot.String(),
				fmt.Sprintf("教师 %s 不具备讲授 %s (%s) 的资格", t.Name, s.Name, s.Type),
				penalty,
			))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个待定分配
func (c *SubjectCompatibilityConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	t := ctx.GetTeacher(a.TeacherID)
	s := ctx.GetSubject(a.SubjectID)
	if t == nil || s == nil {
		return false, c.Weight()
	}
	if !t.CanTeach(s) {
		return false, c.Weight()
	}
	return true, 0
}

// MaxDailyPeriodsConstraint 班级每日最大节数约束
type MaxDailyPeriodsConstraint struct {
	*BaseConstraint
	maxPeriods int
}

// NewMaxDailyPeriodsConstraint 创建班级每日最大节数约束
func NewMaxDailyPeriodsConstraint(maxPeriods int) *MaxDailyPeriodsConstraint {
	return &MaxDailyPeriodsConstraint{
		BaseConstraint: NewBaseConstraint(
			"每日节数上限",
			constraint.TypeMaxDailyPeriods,
			constraint.CategoryHard,
			80,
		),
		maxPeriods: maxPeriods,
	}
}

// Evaluate 评估整个课表
func (c *MaxDailyPeriodsConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	if c.maxPeriods <= 0 {
		return true, 0, nil
	}

	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	// 班级+日期 -> 节数
	daily := make(map[string]int)
	for _, a := range ctx.Assignments {
		daily[fmt.Sprintf("%s|%s", a.ClassID, a.Slot.Day)]++
	}

	for _, cg := range ctx.Classes {
		for _, day := range uniqueDays(ctx.Slots) {
			count := daily[fmt.Sprintf("%s|%s", cg.ID, day)]
			if count > c.maxPeriods {
				isValid = false
				penalty := c.Weight() * (count - c.maxPeriods)
				totalPenalty += penalty

				violations = append(violations, c.CreateViolation(
					uuid.Nil, cg.ID, day,
					fmt.Sprintf("班级 %s 在 %s 安排了 %d 节，超出每日上限 %d 节", cg.Name, day, count, c.maxPeriods),
					penalty,
				))
			}
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个待定分配
func (c *MaxDailyPeriodsConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if c.maxPeriods <= 0 {
		return true, 0
	}
	if ctx.ClassPeriodsOnDay(a.ClassID, a.Slot.Day)+1 > c.maxPeriods {
		return false, c.Weight()
	}
	return true, 0
}

// uniqueDays 返回网格覆盖的所有工作日（保持出现顺序）
func uniqueDays(slots []model.TimeSlot) []string {
	var days []string
	seen := make(map[string]bool)
	for _, s := range slots {
		if !seen[s.Day] {
			seen[s.Day] = true
			days = append(days, s.Day)
		}
	}
	return days
}
