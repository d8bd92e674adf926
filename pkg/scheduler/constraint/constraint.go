// Package constraint 定义约束接口和管理器
package constraint

import (
	"github.com/google/uuid"

	"github.com/kebiao/kebiao/pkg/model"
)

// Type 约束类型标识
type Type string

const (
	// 硬约束类型
	TypeTeacherConflict      Type = "teacher_conflict"      // 教师同一时段重复排课
	TypeClassConflict        Type = "class_conflict"        // 班级同一时段重复排课
	TypeTeacherCapacity      Type = "teacher_capacity"      // 教师周学分上限
	TypeSubjectCompatibility Type = "subject_compatibility" // 教师课程匹配
	TypeMaxDailyPeriods      Type = "max_daily_periods"     // 班级每日最大节数

	// 软约束类型
	TypeTimePreference    Type = "time_preference"    // 课程时段偏好
	TypeTeacherPreference Type = "teacher_preference" // 课程教师偏好
	TypeWorkloadBalance   Type = "workload_balance"   // 教师负荷均衡
	TypeBackToBackLab     Type = "back_to_back_lab"   // 避免连排实验课
	TypeSubjectPriority   Type = "subject_priority"   // 课程优先级时段
	TypeDailyLoadBalance  Type = "daily_load_balance" // 班级每日负荷均衡
)

// Category 约束类别
type Category string

const (
	CategoryHard Category = "hard" // 硬约束（必须满足）
	CategorySoft Category = "soft" // 软约束（尽量满足）
)

// Constraint 约束接口
type Constraint interface {
	// Name 返回约束名称
	Name() string

	// Type 返回约束类型
	Type() Type

	// Category 返回约束类别
	Category() Category

	// Weight 返回约束权重 (1-100)
	Weight() int

	// Evaluate 评估整个课表
	// 返回：是否满足、惩罚值、违反详情
	Evaluate(ctx *Context) (valid bool, penalty int, details []ViolationDetail)

	// EvaluateAssignment 评估单个待定分配
	// 返回：是否满足、惩罚值
	EvaluateAssignment(ctx *Context, assignment *model.Assignment) (valid bool, penalty int)
}

// ViolationDetail 约束违反详情
type ViolationDetail struct {
	ConstraintType Type      `json:"constraint_type"`
	ConstraintName string    `json:"constraint_name"`
	TeacherID      uuid.UUID `json:"teacher_id,omitempty"`
	ClassID        uuid.UUID `json:"class_id,omitempty"`
	Slot           string    `json:"slot,omitempty"`
	Message        string    `json:"message"`
	Severity       string    `json:"severity"` // error/warning
	Penalty        int       `json:"penalty"`
}

// Context 单次生成运行的排课上下文
// 所有索引与兼容性缓存均为运行私有，并发运行之间不共享可变状态
type Context struct {
	// 输入数据
	UserID   uuid.UUID              `json:"user_id"`
	Teachers []*model.Teacher       `json:"teachers"`
	Subjects []*model.Subject       `json:"subjects"`
	Classes  []*model.ClassGroup    `json:"classes"`
	Slots    []model.TimeSlot       `json:"slots"`
	Demands  []model.SubjectDemand  `json:"demands"`
	Config   model.GenerationConfig `json:"config"`

	// 当前排课结果
	Assignments []*model.Assignment `json:"assignments"`

	// 索引缓存
	teacherMap map[uuid.UUID]*model.Teacher
	subjectMap map[uuid.UUID]*model.Subject
	classMap   map[uuid.UUID]*model.ClassGroup

	// 课程 -> 可授教师（归一化阶段解析一次，整个运行期间复用）
	candidates map[uuid.UUID][]*model.Teacher

	// 占用位图：slot 下标 -> 是否占用
	teacherBusy map[uuid.UUID][]bool
	classBusy   map[uuid.UUID][]bool

	// 教师已排节数
	teacherLoad map[uuid.UUID]int
}

// NewContext 创建新的排课上下文
func NewContext(userID uuid.UUID) *Context {
	return &Context{
		UserID:      userID,
		Assignments: make([]*model.Assignment, 0),
		teacherMap:  make(map[uuid.UUID]*model.Teacher),
		subjectMap:  make(map[uuid.UUID]*model.Subject),
		classMap:    make(map[uuid.UUID]*model.ClassGroup),
		candidates:  make(map[uuid.UUID][]*model.Teacher),
		teacherBusy: make(map[uuid.UUID][]bool),
		classBusy:   make(map[uuid.UUID][]bool),
		teacherLoad: make(map[uuid.UUID]int),
	}
}

// SetTeachers 设置教师列表
func (c *Context) SetTeachers(teachers []*model.Teacher) {
	c.Teachers = teachers
	c.teacherMap = make(map[uuid.UUID]*model.Teacher, len(teachers))
	for _, t := range teachers {
		c.teacherMap[t.ID] = t
	}
	c.resetOccupancy()
}

// SetSubjects 设置课程列表
func (c *Context) SetSubjects(subjects []*model.Subject) {
	c.Subjects = subjects
	c.subjectMap = make(map[uuid.UUID]*model.Subject, len(subjects))
	for _, s := range subjects {
		c.subjectMap[s.ID] = s
	}
}

// SetClasses 设置班级列表
func (c *Context) SetClasses(classes []*model.ClassGroup) {
	c.Classes = classes
	c.classMap = make(map[uuid.UUID]*model.ClassGroup, len(classes))
	for _, cg := range classes {
		c.classMap[cg.ID] = cg
	}
	c.resetOccupancy()
}

// SetSlots 设置课表网格
func (c *Context) SetSlots(slots []model.TimeSlot) {
	c.Slots = slots
	c.resetOccupancy()
}

// SetCandidates 设置课程的可授教师缓存
func (c *Context) SetCandidates(subjectID uuid.UUID, teachers []*model.Teacher) {
	c.candidates[subjectID] = teachers
}

// CandidateTeachers 返回课程的可授教师
func (c *Context) CandidateTeachers(subjectID uuid.UUID) []*model.Teacher {
	return c.candidates[subjectID]
}

// resetOccupancy 重建占用位图
func (c *Context) resetOccupancy() {
	n := len(c.Slots)
	c.teacherBusy = make(map[uuid.UUID][]bool, len(c.Teachers))
	c.classBusy = make(map[uuid.UUID][]bool, len(c.Classes))
	c.teacherLoad = make(map[uuid.UUID]int, len(c.Teachers))
	for _, t := range c.Teachers {
		c.teacherBusy[t.ID] = make([]bool, n)
		c.teacherLoad[t.ID] = 0
	}
	for _, cg := range c.Classes {
		c.classBusy[cg.ID] = make([]bool, n)
	}
	for _, a := range c.Assignments {
		c.markOccupied(a)
	}
}

// markOccupied 标记分配占用
func (c *Context) markOccupied(a *model.Assignment) {
	if busy, ok := c.teacherBusy[a.TeacherID]; ok && a.Slot.Index < len(busy) {
		busy[a.Slot.Index] = true
	}
	if busy, ok := c.classBusy[a.ClassID]; ok && a.Slot.Index < len(busy) {
		busy[a.Slot.Index] = true
	}
	c.teacherLoad[a.TeacherID]++
}

// AddAssignment 添加排课分配
func (c *Context) AddAssignment(a *model.Assignment) {
	c.Assignments = append(c.Assignments, a)
	c.markOccupied(a)
}

// RemoveLastAssignment 弹出最近一次分配（回溯时按下标撤销）
func (c *Context) RemoveLastAssignment() *model.Assignment {
	if len(c.Assignments) == 0 {
		return nil
	}
	a := c.Assignments[len(c.Assignments)-1]
	c.Assignments = c.Assignments[:len(c.Assignments)-1]
	if busy, ok := c.teacherBusy[a.TeacherID]; ok && a.Slot.Index < len(busy) {
		busy[a.Slot.Index] = false
	}
	if busy, ok := c.classBusy[a.ClassID]; ok && a.Slot.Index < len(busy) {
		busy[a.Slot.Index] = false
	}
	c.teacherLoad[a.TeacherID]--
	return a
}

// SetAssignments 整体替换排课结果并重建索引
func (c *Context) SetAssignments(assignments []*model.Assignment) {
	c.Assignments = assignments
	c.resetOccupancy()
}

// Fork 复制上下文用于并行变体生成
// 输入数据共享（只读），排课结果与占用位图独立
func (c *Context) Fork() *Context {
	f := NewContext(c.UserID)
	f.Teachers = c.Teachers
	f.Subjects = c.Subjects
	f.Classes = c.Classes
	f.Slots = c.Slots
	f.Demands = c.Demands
	f.Config = c.Config
	f.teacherMap = c.teacherMap
	f.subjectMap = c.subjectMap
	f.classMap = c.classMap
	f.candidates = c.candidates
	f.resetOccupancy()
	return f
}

// GetTeacher 获取教师
func (c *Context) GetTeacher(id uuid.UUID) *model.Teacher {
	return c.teacherMap[id]
}

// GetSubject 获取课程
func (c *Context) GetSubject(id uuid.UUID) *model.Subject {
	return c.subjectMap[id]
}

// GetClass 获取班级
func (c *Context) GetClass(id uuid.UUID) *model.ClassGroup {
	return c.classMap[id]
}

// TeacherBusy 检查教师在某时段是否已占用
func (c *Context) TeacherBusy(teacherID uuid.UUID, slotIndex int) bool {
	busy, ok := c.teacherBusy[teacherID]
	return ok && slotIndex < len(busy) && busy[slotIndex]
}

// ClassBusy 检查班级在某时段是否已占用
func (c *Context) ClassBusy(classID uuid.UUID, slotIndex int) bool {
	busy, ok := c.classBusy[classID]
	return ok && slotIndex < len(busy) && busy[slotIndex]
}

// TeacherLoad 返回教师当前已排节数
func (c *Context) TeacherLoad(teacherID uuid.UUID) int {
	return c.teacherLoad[teacherID]
}

// ClassAssignments 返回班级的全部分配
func (c *Context) ClassAssignments(classID uuid.UUID) []*model.Assignment {
	var out []*model.Assignment
	for _, a := range c.Assignments {
		if a.ClassID == classID {
			out = append(out, a)
		}
	}
	return out
}

// TeacherAssignments 返回教师的全部分配
func (c *Context) TeacherAssignments(teacherID uuid.UUID) []*model.Assignment {
	var out []*model.Assignment
	for _, a := range c.Assignments {
		if a.TeacherID == teacherID {
			out = append(out, a)
		}
	}
	return out
}

// ClassPeriodsOnDay 返回班级某天已排节数
func (c *Context) ClassPeriodsOnDay(classID uuid.UUID, day string) int {
	count := 0
	for _, a := range c.Assignments {
		if a.ClassID == classID && a.Slot.Day == day {
			count++
		}
	}
	return count
}

// Result 约束评估结果
type Result struct {
	IsValid        bool              `json:"is_valid"`
	TotalPenalty   int               `json:"total_penalty"`
	HardViolations []ViolationDetail `json:"hard_violations"`
	SoftViolations []ViolationDetail `json:"soft_violations"`
	Score          float64           `json:"score"` // 0-100
}

// CalculateScore 计算约束满足度得分
func (r *Result) CalculateScore(maxPenalty int) {
	if maxPenalty == 0 {
		r.Score = 100.0
		return
	}
	r.Score = 100.0 * float64(maxPenalty-r.TotalPenalty) / float64(maxPenalty)
	if r.Score < 0 {
		r.Score = 0
	}
}
