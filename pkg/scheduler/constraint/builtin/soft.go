// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kebiao/kebiao/pkg/model"
	"github.com/kebiao/kebiao/pkg/scheduler/constraint"
)

// TimePreferenceConstraint 课程时段偏好约束（软约束）
// 按课程名配置偏好节次，不在偏好节次内扣分
type TimePreferenceConstraint struct {
	*BaseConstraint
	preferences map[string][]int // 课程名 -> 偏好节次
}

// NewTimePreferenceConstraint 创建课程时段偏好约束
func NewTimePreferenceConstraint(weight int, preferences map[string][]int) *TimePreferenceConstraint {
	return &TimePreferenceConstraint{
		BaseConstraint: NewBaseConstraint(
			"课程时段偏好",
			constraint.TypeTimePreference,
			constraint.CategorySoft,
			weight,
		),
		preferences: preferences,
	}
}

// preferred 检查节次是否在偏好范围内；未配置偏好的课程视为满足
func (c *TimePreferenceConstraint) preferred(subjectName string, period int) bool {
	periods, ok := c.preferences[subjectName]
	if !ok || len(periods) == 0 {
		return true
	}
	for _, p := range periods {
		if p == period {
			return true
		}
	}
	return false
}

// Evaluate 评估整个课表
func (c *TimePreferenceConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, a := range ctx.Assignments {
		s := ctx.GetSubject(a.SubjectID)
		if s == nil {
			continue
		}
		if !c.preferred(s.Name, a.Slot.Period) {
			penalty := c.Weight()
			totalPenalty += penalty

			violations = append(violations, c.CreateViolation(
				a.TeacherID, a.ClassID, a.Slot.String(),
				fmt.Sprintf("课程 %s 安排在第 %d 节，偏离偏好节次 %v", s.Name, a.Slot.Period, c.preferences[s.Name]),
				penalty,
			))
		}
	}

	// 软约束不影响有效性
	return true, totalPenalty, violations
}

// EvaluateAssignment 评估单个待定分配
func (c *TimePreferenceConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	s := ctx.GetSubject(a.SubjectID)
	if s == nil {
		return true, 0
	}
	if !c.preferred(s.Name, a.Slot.Period) {
		return false, c.Weight()
	}
	return true, 0
}

// TeacherPreferenceConstraint 课程教师偏好约束（软约束）
type TeacherPreferenceConstraint struct {
	*BaseConstraint
	preferences map[string]string // 课程名 -> 偏好教师名
}

// NewTeacherPreferenceConstraint 创建课程教师偏好约束
func NewTeacherPreferenceConstraint(weight int, preferences map[string]string) *TeacherPreferenceConstraint {
	return &TeacherPreferenceConstraint{
		BaseConstraint: NewBaseConstraint(
			"课程教师偏好",
			constraint.TypeTeacherPreference,
			constraint.CategorySoft,
			weight,
		),
		preferences: preferences,
	}
}

// Evaluate 评估整个课表
func (c *TeacherPreferenceConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, a := range ctx.Assignments {
		s := ctx.GetSubject(a.SubjectID)
		t := ctx.GetTeacher(a.TeacherID)
		if s == nil || t == nil {
			continue
		}
		wanted, ok := c.preferences[s.Name]
		if !ok || wanted == "" || wanted == t.Name {
			continue
		}

		penalty := c.Weight()
		totalPenalty += penalty
		violations = append(violations, c.CreateViolation(
			a.TeacherID, a.ClassID, a.Slot.String(),
			fmt.Sprintf("课程 %s 由 %s 讲授，偏好教师为 %s", s.Name, t.Name, wanted),
			penalty,
		))
	}

	return true, totalPenalty, violations
}

// EvaluateAssignment 评估单个待定分配
func (c *TeacherPreferenceConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	s := ctx.GetSubject(a.SubjectID)
	t := ctx.GetTeacher(a.TeacherID)
	if s == nil || t == nil {
		return true, 0
	}
	if wanted, ok := c.preferences[s.Name]; ok && wanted != "" && wanted != t.Name {
		return false, c.Weight()
	}
	return true, 0
}

// WorkloadBalanceConstraint 教师负荷均衡约束（软约束）
// 各教师利用率偏离平均值超过容差时扣分
type WorkloadBalanceConstraint struct {
	*BaseConstraint
	tolerancePercent float64
}

// NewWorkloadBalanceConstraint 创建教师负荷均衡约束
func NewWorkloadBalanceConstraint(weight int, tolerancePercent float64) *WorkloadBalanceConstraint {
	return &WorkloadBalanceConstraint{
		BaseConstraint: NewBaseConstraint(
			"教师负荷均衡",
			constraint.TypeWorkloadBalance,
			constraint.CategorySoft,
			weight,
		),
		tolerancePercent: tolerancePercent,
	}
}

// Evaluate 评估整个课表
func (c *WorkloadBalanceConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	if len(ctx.Teachers) == 0 {
		return true, 0, nil
	}

	var violations []constraint.ViolationDetail
	totalPenalty := 0

	loads := make(map[uuid.UUID]int)
	for _, a := range ctx.Assignments {
		loads[a.TeacherID]++
	}

	var totalUtil float64
	utils := make(map[uuid.UUID]float64, len(ctx.Teachers))
	for _, t := range ctx.Teachers {
		util := utilization(loads[t.ID], t.MaxCredits)
		utils[t.ID] = util
		totalUtil += util
	}
	avgUtil := totalUtil / float64(len(ctx.Teachers))

	for _, t := range ctx.Teachers {
		deviation := utils[t.ID] - avgUtil
		if deviation > c.tolerancePercent || deviation < -c.tolerancePercent {
			penalty := int(abs(deviation) * float64(c.Weight()) / 100)
			if penalty == 0 {
				penalty = 1
			}
			totalPenalty += penalty

			violations = append(violations, c.CreateViolation(
				t.ID, uuid.Nil, "",
				fmt.Sprintf("教师 %s 利用率 %.0f%%，偏离平均 %.0f%%", t.Name, utils[t.ID], deviation),
				penalty,
			))
		}
	}

	return true, totalPenalty, violations
}

// EvaluateAssignment 评估单个待定分配
// 倾向于把新课时分给当前利用率最低的教师
func (c *WorkloadBalanceConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if len(ctx.Teachers) == 0 {
		return true, 0
	}

	var totalUtil float64
	for _, t := range ctx.Teachers {
		totalUtil += utilization(ctx.TeacherLoad(t.ID), t.MaxCredits)
	}
	avgUtil := totalUtil / float64(len(ctx.Teachers))

	t := ctx.GetTeacher(a.TeacherID)
	if t == nil {
		return true, 0
	}
	newUtil := utilization(ctx.TeacherLoad(t.ID)+1, t.MaxCredits)

	deviation := newUtil - avgUtil
	if deviation > c.tolerancePercent {
		penalty := int(deviation * float64(c.Weight()) / 100)
		if penalty == 0 {
			penalty = 1
		}
		return false, penalty
	}
	return true, 0
}

// BackToBackLabConstraint 避免连排实验课约束（软约束）
// 同一班级同一天相邻节次都是实验/实践课时扣分
type BackToBackLabConstraint struct {
	*BaseConstraint
}

// NewBackToBackLabConstraint 创建避免连排实验课约束
func NewBackToBackLabConstraint(weight int) *BackToBackLabConstraint {
	return &BackToBackLabConstraint{
		BaseConstraint: NewBaseConstraint(
			"避免连排实验课",
			constraint.TypeBackToBackLab,
			constraint.CategorySoft,
			weight,
		),
	}
}

// labAt 检查班级在某天某节是否安排了实验/实践课
func (c *BackToBackLabConstraint) labAt(ctx *constraint.Context, classID uuid.UUID, day string, period int) bool {
	for _, a := range ctx.Assignments {
		if a.ClassID != classID || a.Slot.Day != day || a.Slot.Period != period {
			continue
		}
		if s := ctx.GetSubject(a.SubjectID); s != nil && s.Type.IsLabLike() {
			return true
		}
	}
	return false
}

// Evaluate 评估整个课表
func (c *BackToBackLabConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, a := range ctx.Assignments {
		s := ctx.GetSubject(a.SubjectID)
		if s == nil || !s.Type.IsLabLike() {
			continue
		}
		// 只检查后一节，避免同一对相邻实验课重复计分
		if c.labAt(ctx, a.ClassID, a.Slot.Day, a.Slot.Period+1) {
			penalty := c.Weight()
			totalPenalty += penalty

			className := a.ClassID.String()
			if cg := ctx.GetClass(a.ClassID); cg != nil {
				className = cg.Name
			}
			violations = append(violations, c.CreateViolation(
				a.TeacherID, a.ClassID, a.Slot.String(),
				fmt.Sprintf("班级 %s 在 %s 第 %d、%d 节连排实验课", className, a.Slot.Day, a.Slot.Period, a.Slot.Period+1),
				penalty,
			))
		}
	}

	return true, totalPenalty, violations
}

// EvaluateAssignment 评估单个待定分配
func (c *BackToBackLabConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	s := ctx.GetSubject(a.SubjectID)
	if s == nil || !s.Type.IsLabLike() {
		return true, 0
	}
	if c.labAt(ctx, a.ClassID, a.Slot.Day, a.Slot.Period-1) ||
		c.labAt(ctx, a.ClassID, a.Slot.Day, a.Slot.Period+1) {
		return false, c.Weight()
	}
	return true, 0
}

// SubjectPriorityConstraint 课程优先级时段约束（软约束）
// 高优先级课程应安排在靠前节次，越靠后扣分越多
type SubjectPriorityConstraint struct {
	*BaseConstraint
	priorities map[string]int // 课程名 -> 优先级（越大越优先）
}

// NewSubjectPriorityConstraint 创建课程优先级时段约束
func NewSubjectPriorityConstraint(weight int, priorities map[string]int) *SubjectPriorityConstraint {
	return &SubjectPriorityConstraint{
		BaseConstraint: NewBaseConstraint(
			"课程优先级时段",
			constraint.TypeSubjectPriority,
			constraint.CategorySoft,
			weight,
		),
		priorities: priorities,
	}
}

// penaltyFor 计算某节次对某优先级课程的扣分
func (c *SubjectPriorityConstraint) penaltyFor(priority, period int) int {
	if priority <= 0 || period <= 1 {
		return 0
	}
	p := priority * (period - 1)
	if p > c.Weight() {
		p = c.Weight()
	}
	return p
}

// Evaluate 评估整个课表
func (c *SubjectPriorityConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, a := range ctx.Assignments {
		s := ctx.GetSubject(a.SubjectID)
		if s == nil {
			continue
		}
		priority, ok := c.priorities[s.Name]
		if !ok {
			continue
		}
		penalty := c.penaltyFor(priority, a.Slot.Period)
		if penalty == 0 {
			continue
		}
		totalPenalty += penalty

		violations = append(violations, c.CreateViolation(
			a.TeacherID, a.ClassID, a.Slot.String(),
			fmt.Sprintf("高优先级课程 %s (优先级 %d) 被安排在第 %d 节", s.Name, priority, a.Slot.Period),
			penalty,
		))
	}

	return true, totalPenalty, violations
}

// EvaluateAssignment 评估单个待定分配
func (c *SubjectPriorityConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	s := ctx.GetSubject(a.SubjectID)
	if s == nil {
		return true, 0
	}
	priority, ok := c.priorities[s.Name]
	if !ok {
		return true, 0
	}
	if penalty := c.penaltyFor(priority, a.Slot.Period); penalty > 0 {
		return false, penalty
	}
	return true, 0
}

// DailyLoadBalanceConstraint 班级每日负荷均衡约束（软约束）
// 班级课时应尽量均匀分布在各工作日
type DailyLoadBalanceConstraint struct {
	*BaseConstraint
}

// NewDailyLoadBalanceConstraint 创建班级每日负荷均衡约束
func NewDailyLoadBalanceConstraint(weight int) *DailyLoadBalanceConstraint {
	return &DailyLoadBalanceConstraint{
		BaseConstraint: NewBaseConstraint(
			"每日负荷均衡",
			constraint.TypeDailyLoadBalance,
			constraint.CategorySoft,
			weight,
		),
	}
}

// Evaluate 评估整个课表
func (c *DailyLoadBalanceConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	days := uniqueDays(ctx.Slots)
	if len(days) == 0 {
		return true, 0, nil
	}

	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, cg := range ctx.Classes {
		total := 0
		daily := make(map[string]int, len(days))
		for _, a := range ctx.Assignments {
			if a.ClassID == cg.ID {
				daily[a.Slot.Day]++
				total++
			}
		}
		if total == 0 {
			continue
		}
		avg := float64(total) / float64(len(days))

		for _, day := range days {
			deviation := float64(daily[day]) - avg
			// 允许向上取整的自然余数
			if deviation > 1.0 {
				penalty := int(deviation * float64(c.Weight()) / float64(len(days)))
				if penalty == 0 {
					penalty = 1
				}
				totalPenalty += penalty

				violations = append(violations, c.CreateViolation(
					uuid.Nil, cg.ID, day,
					fmt.Sprintf("班级 %s 在 %s 安排了 %d 节，日均 %.1f 节", cg.Name, day, daily[day], avg),
					penalty,
				))
			}
		}
	}

	return true, totalPenalty, violations
}

// EvaluateAssignment 评估单个待定分配
func (c *DailyLoadBalanceConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	days := uniqueDays(ctx.Slots)
	if len(days) == 0 {
		return true, 0
	}

	total := len(ctx.ClassAssignments(a.ClassID)) + 1
	avg := float64(total) / float64(len(days))
	newCount := float64(ctx.ClassPeriodsOnDay(a.ClassID, a.Slot.Day) + 1)

	if newCount-avg > 1.0 {
		penalty := int((newCount - avg) * float64(c.Weight()) / float64(len(days)))
		if penalty == 0 {
			penalty = 1
		}
		return false, penalty
	}
	return true, 0
}

// utilization 计算利用率百分比
func utilization(load, max int) float64 {
	if max <= 0 {
		return 0
	}
	return float64(load) / float64(max) * 100
}

// abs 返回绝对值
func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
